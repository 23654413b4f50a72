// Package scheduler provides unified scheduler management using gocron v2.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/tillpoint/tillpoint/internal/shared/biztime"
	"github.com/tillpoint/tillpoint/internal/shared/logger"
)

const (
	defaultSweepInterval = 15 * time.Minute
	defaultSweepTimeout  = 10 * time.Minute
)

// BatchJob defines the interface for a scheduled batch processing job.
// Each Execute call processes a batch and returns the number of items processed.
type BatchJob interface {
	Execute(ctx context.Context) (int, error)
}

// SchedulerManager owns the process-wide gocron scheduler.
type SchedulerManager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface

	// Track whether the scheduler has been started
	started   bool
	startedMu sync.RWMutex
}

// NewSchedulerManager creates a new SchedulerManager instance.
// It initializes gocron with the business timezone for cron expressions.
func NewSchedulerManager(log logger.Interface) (*SchedulerManager, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(biztime.Location()),
	)
	if err != nil {
		return nil, err
	}

	return &SchedulerManager{
		scheduler: scheduler,
		logger:    log,
	}, nil
}

// ========================================
// Subscription Sweep (interval, start immediately)
// ========================================

// RegisterSweepJob registers the subscription reconciliation sweep. The job
// runs in singleton mode so passes never overlap; a run that outlasts the
// interval pushes the next one back instead of queueing it.
func (m *SchedulerManager) RegisterSweepJob(sweepJob BatchJob, interval, timeout time.Duration) error {
	if sweepJob == nil {
		return errors.New("sweep job is required")
	}
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	if timeout <= 0 {
		timeout = defaultSweepTimeout
	}

	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			m.processSweep(ctx, sweepJob)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("subscription", "sweep"),
		gocron.WithName("subscription-sweep"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered subscription sweep job",
		"interval", interval.String(),
		"timeout", timeout.String(),
	)
	return nil
}

func (m *SchedulerManager) processSweep(ctx context.Context, sweepJob BatchJob) {
	m.logger.Debugw("subscription sweep task started")

	startTime := biztime.NowUTC()

	changed, err := sweepJob.Execute(ctx)
	if err != nil {
		m.logger.Errorw("subscription sweep failed",
			"error", err,
			"duration", time.Since(startTime),
		)
		return
	}

	if changed > 0 {
		m.logger.Infow("subscription sweep applied changes",
			"count", changed,
			"duration", time.Since(startTime),
		)
	} else {
		m.logger.Debugw("subscription sweep found nothing to change",
			"duration", time.Since(startTime),
		)
	}
}

// ========================================
// Scheduler Lifecycle Methods
// ========================================

// Start starts the scheduler and all registered jobs.
func (m *SchedulerManager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if m.started {
		return
	}

	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler manager started", "job_count", len(m.scheduler.Jobs()))
}

// Stop gracefully stops the scheduler.
// It waits for all running jobs to complete before returning.
func (m *SchedulerManager) Stop() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if !m.started {
		return nil
	}

	m.logger.Infow("stopping scheduler manager")

	err := m.scheduler.Shutdown()
	m.started = false

	if err != nil {
		m.logger.Errorw("scheduler manager shutdown with error", "error", err)
		return err
	}

	m.logger.Infow("scheduler manager stopped")
	return nil
}

// IsStarted returns whether the scheduler is running.
func (m *SchedulerManager) IsStarted() bool {
	m.startedMu.RLock()
	defer m.startedMu.RUnlock()
	return m.started
}

// Jobs returns all registered jobs for inspection.
func (m *SchedulerManager) Jobs() []gocron.Job {
	return m.scheduler.Jobs()
}
