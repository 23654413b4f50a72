package usecases

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tillpoint/tillpoint/internal/domain/subscription"
	vo "github.com/tillpoint/tillpoint/internal/domain/subscription/valueobjects"
	"github.com/tillpoint/tillpoint/internal/domain/tenant"
	"github.com/tillpoint/tillpoint/internal/shared/biztime"
	"github.com/tillpoint/tillpoint/internal/shared/goroutine"
	"github.com/tillpoint/tillpoint/internal/shared/logger"
)

const (
	defaultSweepBatchSize   = 200
	defaultSweepConcurrency = 8
)

// SweepError is one tenant the pass could not write. The record keeps its
// previous state and is retried by the next pass.
type SweepError struct {
	Phase          SweepPhase `json:"phase"`
	SubscriptionID uint       `json:"subscription_id,omitempty"`
	TenantID       string     `json:"tenant_id"`
	Message        string     `json:"message"`
}

// SweepSummary reports what one pass changed.
type SweepSummary struct {
	SuspendedCount        int          `json:"suspended_count"`
	TrialExpiredCount     int          `json:"trial_expired_count"`
	PastDueCount          int          `json:"past_due_count"`
	ConsistencyFixedCount int          `json:"consistency_fixed_count"`
	ProcessedCount        int          `json:"processed_count"`
	Errors                []SweepError `json:"errors"`
	ResumedAfterID        uint         `json:"resumed_after_id,omitempty"`
	ResumedAfterTenantID  string       `json:"resumed_after_tenant_id,omitempty"`
	Interrupted           bool         `json:"interrupted"`
	Now                   time.Time    `json:"now"`
	StartedAt             time.Time    `json:"started_at"`
	FinishedAt            time.Time    `json:"finished_at"`
}

// TransitionCount is the number of records the pass wrote.
func (s *SweepSummary) TransitionCount() int {
	return s.SuspendedCount + s.TrialExpiredCount + s.PastDueCount + s.ConsistencyFixedCount
}

func (s *SweepSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// SweepOptions tunes paging and parallelism. Zero values fall back to defaults.
type SweepOptions struct {
	BatchSize   int
	Concurrency int
}

// sweepRun collects results from the workers of one pass.
type sweepRun struct {
	mu        sync.Mutex
	summary   *SweepSummary
	startedAt time.Time
}

func (r *sweepRun) processed() {
	r.mu.Lock()
	r.summary.ProcessedCount++
	r.mu.Unlock()
}

func (r *sweepRun) transitioned(status vo.SubscriptionStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch status {
	case vo.StatusSuspended:
		r.summary.SuspendedCount++
	case vo.StatusExpired:
		r.summary.TrialExpiredCount++
	case vo.StatusPastDue:
		r.summary.PastDueCount++
	}
}

func (r *sweepRun) fixed() {
	r.mu.Lock()
	r.summary.ConsistencyFixedCount++
	r.mu.Unlock()
}

func (r *sweepRun) failed(e SweepError) {
	r.mu.Lock()
	r.summary.Errors = append(r.summary.Errors, e)
	r.mu.Unlock()
}

func (r *sweepRun) interrupt() {
	r.mu.Lock()
	r.summary.Interrupted = true
	r.mu.Unlock()
}

func (r *sweepRun) interrupted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.summary.Interrupted
}

// ReconcileSubscriptionsUseCase is the reconciliation sweep. It evaluates every
// non-cancelled subscription, writes transitions together with the tenant
// mirror, then repairs tenants whose mirror drifted from their canonical
// subscription.
type ReconcileSubscriptionsUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	tenantRepo       tenant.Repository
	txManager        TransactionRunner
	policy           subscription.LifecyclePolicy
	publisher        StatusChangePublisher
	checkpoints      CheckpointStore
	observer         SweepObserver
	lock             SweepLock
	running          sync.Mutex
	mirror           tenantMirror
	batchSize        int
	concurrency      int
	clock            func() time.Time
	logger           logger.Interface
}

// NewReconcileSubscriptionsUseCase wires the sweep. publisher, checkpoints and
// observer may be nil.
func NewReconcileSubscriptionsUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	tenantRepo tenant.Repository,
	txManager TransactionRunner,
	policy subscription.LifecyclePolicy,
	publisher StatusChangePublisher,
	checkpoints CheckpointStore,
	observer SweepObserver,
	opts SweepOptions,
	logger logger.Interface,
) *ReconcileSubscriptionsUseCase {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultSweepBatchSize
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultSweepConcurrency
	}

	return &ReconcileSubscriptionsUseCase{
		subscriptionRepo: subscriptionRepo,
		tenantRepo:       tenantRepo,
		txManager:        txManager,
		policy:           policy,
		publisher:        publisher,
		checkpoints:      checkpoints,
		observer:         observer,
		mirror:           tenantMirror{subscriptionRepo: subscriptionRepo, tenantRepo: tenantRepo},
		batchSize:        opts.BatchSize,
		concurrency:      opts.Concurrency,
		clock:            biztime.NowUTC,
		logger:           logger,
	}
}

// WithClock replaces the time source used by Execute.
func (uc *ReconcileSubscriptionsUseCase) WithClock(clock func() time.Time) *ReconcileSubscriptionsUseCase {
	uc.clock = clock
	return uc
}

// WithLock makes every pass take lock before touching the checkpoint.
func (uc *ReconcileSubscriptionsUseCase) WithLock(lock SweepLock) *ReconcileSubscriptionsUseCase {
	uc.lock = lock
	return uc
}

// Execute runs one pass at the current time and returns the number of
// records written. It lets the scheduler drive the sweep as a batch job.
func (uc *ReconcileSubscriptionsUseCase) Execute(ctx context.Context) (int, error) {
	summary, err := uc.Sweep(ctx, uc.clock())
	if errors.Is(err, ErrSweepInProgress) {
		uc.logger.Infow("subscription sweep already running, skipping this run")
		return 0, nil
	}
	if summary == nil {
		return 0, err
	}
	return summary.TransitionCount(), err
}

// Sweep runs one pass as of now. Per-tenant failures are reported in the
// summary; only failing to list records returns an error. A cancelled ctx
// stops the pass between records and yields a partial summary with
// Interrupted set. ErrSweepInProgress is returned without doing anything
// while another pass holds the lock.
func (uc *ReconcileSubscriptionsUseCase) Sweep(ctx context.Context, now time.Time) (*SweepSummary, error) {
	if !uc.running.TryLock() {
		return nil, ErrSweepInProgress
	}
	defer uc.running.Unlock()

	if uc.lock != nil {
		release, acquired, err := uc.lock.TryAcquire(ctx)
		if err != nil {
			uc.logger.Errorw("subscription sweep could not take the lock", "error", err)
			if uc.observer != nil {
				uc.observer.SweepFailed(err)
			}
			return nil, errors.Join(ErrSweepFailed, err)
		}
		if !acquired {
			return nil, ErrSweepInProgress
		}
		defer release()
	}

	now = now.UTC()
	run := &sweepRun{
		summary: &SweepSummary{
			Now:       now,
			StartedAt: biztime.NowUTC(),
			Errors:    []SweepError{},
		},
	}
	run.startedAt = run.summary.StartedAt

	phase := SweepPhaseSubscriptions
	var afterSubscriptionID uint
	var afterTenantID string

	if checkpoint := uc.loadCheckpoint(ctx); checkpoint != nil {
		phase = checkpoint.Phase
		afterSubscriptionID = checkpoint.AfterSubscriptionID
		afterTenantID = checkpoint.AfterTenantID
		run.startedAt = checkpoint.StartedAt
		run.summary.ResumedAfterID = afterSubscriptionID
		run.summary.ResumedAfterTenantID = afterTenantID

		uc.logger.Infow("resuming subscription sweep from checkpoint",
			"phase", phase,
			"after_subscription_id", afterSubscriptionID,
			"after_tenant_id", afterTenantID,
		)
	}

	if phase != SweepPhaseTenants {
		if err := uc.sweepSubscriptions(ctx, run, afterSubscriptionID, now); err != nil {
			return uc.fail(run, err)
		}
		if run.interrupted() {
			return uc.finish(run), nil
		}
		afterTenantID = ""
	}

	if err := uc.sweepTenants(ctx, run, afterTenantID, now); err != nil {
		return uc.fail(run, err)
	}

	if !run.interrupted() {
		uc.clearCheckpoint(ctx)
	}
	return uc.finish(run), nil
}

func (uc *ReconcileSubscriptionsUseCase) sweepSubscriptions(ctx context.Context, run *sweepRun, afterID uint, now time.Time) error {
	for {
		if ctx.Err() != nil {
			run.interrupt()
			return nil
		}

		page, err := uc.subscriptionRepo.ListNonTerminal(ctx, afterID, uc.batchSize)
		if err != nil {
			if ctx.Err() != nil {
				run.interrupt()
				return nil
			}
			return fmt.Errorf("failed to list subscriptions: %w", err)
		}
		if len(page) == 0 {
			return nil
		}

		uc.forEach(ctx, run, len(page), func(i int) {
			uc.reconcileSubscription(ctx, run, page[i], now)
		})
		if run.interrupted() {
			return nil
		}

		afterID = page[len(page)-1].ID()
		uc.saveCheckpoint(ctx, SweepCheckpoint{
			Phase:               SweepPhaseSubscriptions,
			AfterSubscriptionID: afterID,
			StartedAt:           run.startedAt,
		})

		if len(page) < uc.batchSize {
			return nil
		}
	}
}

func (uc *ReconcileSubscriptionsUseCase) reconcileSubscription(ctx context.Context, run *sweepRun, sub *subscription.Subscription, now time.Time) {
	if ctx.Err() != nil {
		run.interrupt()
		return
	}
	run.processed()

	ev := uc.policy.Evaluate(sub, now)
	if !ev.Changed(sub) {
		return
	}

	from := sub.Status()
	if ev.Malformed {
		uc.logger.Warnw("subscription record is malformed, suspending",
			"subscription_id", sub.ID(),
			"tenant_id", sub.TenantID(),
			"status", from,
			"billing_cycle", sub.BillingCycle(),
		)
	}

	err := uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		sub.ApplyEvaluation(ev, now)
		if err := uc.subscriptionRepo.Update(txCtx, sub); err != nil {
			return err
		}
		return uc.mirror.sync(txCtx, sub.TenantID(), now)
	})
	if err != nil {
		if ctx.Err() != nil {
			run.interrupt()
			return
		}
		uc.logger.Errorw("failed to apply subscription transition",
			"subscription_id", sub.ID(),
			"tenant_id", sub.TenantID(),
			"from_status", from,
			"to_status", ev.Status,
			"error", err,
		)
		run.failed(SweepError{
			Phase:          SweepPhaseSubscriptions,
			SubscriptionID: sub.ID(),
			TenantID:       sub.TenantID(),
			Message:        err.Error(),
		})
		return
	}

	run.transitioned(ev.Status)
	uc.logger.Infow("subscription transitioned",
		"subscription_id", sub.ID(),
		"tenant_id", sub.TenantID(),
		"from_status", from,
		"to_status", ev.Status,
		"reason", ev.SuspendedReason,
	)

	uc.publish(ctx, subscription.NewStatusChangedEvent(
		sub.ID(), sub.TenantID(), from, ev.Status, subscription.ChangeReasonLifecycle, now,
	))
}

func (uc *ReconcileSubscriptionsUseCase) sweepTenants(ctx context.Context, run *sweepRun, afterID string, now time.Time) error {
	for {
		if ctx.Err() != nil {
			run.interrupt()
			return nil
		}

		page, err := uc.tenantRepo.ListAfter(ctx, afterID, uc.batchSize)
		if err != nil {
			if ctx.Err() != nil {
				run.interrupt()
				return nil
			}
			return fmt.Errorf("failed to list tenants: %w", err)
		}
		if len(page) == 0 {
			return nil
		}

		tenantIDs := make([]string, 0, len(page))
		for _, t := range page {
			tenantIDs = append(tenantIDs, t.ID())
		}

		canonical, err := uc.subscriptionRepo.GetCanonicalByTenantIDs(ctx, tenantIDs)
		if err != nil {
			if ctx.Err() != nil {
				run.interrupt()
				return nil
			}
			return fmt.Errorf("failed to load canonical subscriptions: %w", err)
		}

		uc.forEach(ctx, run, len(page), func(i int) {
			uc.reconcileTenant(ctx, run, page[i], canonical[page[i].ID()], now)
		})
		if run.interrupted() {
			return nil
		}

		afterID = page[len(page)-1].ID()
		uc.saveCheckpoint(ctx, SweepCheckpoint{
			Phase:         SweepPhaseTenants,
			AfterTenantID: afterID,
			StartedAt:     run.startedAt,
		})

		if len(page) < uc.batchSize {
			return nil
		}
	}
}

func (uc *ReconcileSubscriptionsUseCase) reconcileTenant(ctx context.Context, run *sweepRun, t *tenant.Tenant, canonical *subscription.Subscription, now time.Time) {
	if ctx.Err() != nil {
		run.interrupt()
		return
	}
	run.processed()

	var status vo.SubscriptionStatus
	if canonical != nil {
		status = canonical.Status()
	}
	if t.IsConsistentWith(status) {
		return
	}

	from := t.SubscriptionStatus()
	fromOperational := t.OperationalStatus()
	t.SyncSubscriptionStatus(status, now)

	if err := uc.tenantRepo.Update(ctx, t); err != nil {
		if ctx.Err() != nil {
			run.interrupt()
			return
		}
		uc.logger.Errorw("failed to repair tenant mirror",
			"tenant_id", t.ID(),
			"error", err,
		)
		run.failed(SweepError{
			Phase:    SweepPhaseTenants,
			TenantID: t.ID(),
			Message:  err.Error(),
		})
		return
	}

	run.fixed()
	uc.logger.Infow("tenant mirror repaired",
		"tenant_id", t.ID(),
		"from_status", from,
		"to_status", status,
		"from_operational_status", fromOperational,
		"operational_status", t.OperationalStatus(),
	)

	if canonical != nil {
		uc.publish(ctx, subscription.NewStatusChangedEvent(
			canonical.ID(), t.ID(), from, status, subscription.ChangeReasonConsistencyFix, now,
		))
	}
}

// forEach runs fn for indexes [0, n) on at most uc.concurrency goroutines and
// stops scheduling new work once ctx is done.
func (uc *ReconcileSubscriptionsUseCase) forEach(ctx context.Context, run *sweepRun, n int, fn func(i int)) {
	var g errgroup.Group
	g.SetLimit(uc.concurrency)

	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			run.interrupt()
			break
		}
		g.Go(func() error {
			defer goroutine.Recover(uc.logger, "subscription-sweep-worker")
			fn(i)
			return nil
		})
	}
	_ = g.Wait()
}

func (uc *ReconcileSubscriptionsUseCase) publish(ctx context.Context, event *subscription.StatusChangedEvent) {
	publishAfterCommit(ctx, uc.publisher, uc.logger, event)
}

func (uc *ReconcileSubscriptionsUseCase) loadCheckpoint(ctx context.Context) *SweepCheckpoint {
	if uc.checkpoints == nil {
		return nil
	}
	checkpoint, err := uc.checkpoints.Load(ctx)
	if err != nil {
		uc.logger.Warnw("failed to load sweep checkpoint, starting from the beginning", "error", err)
		return nil
	}
	if checkpoint != nil && checkpoint.Phase != SweepPhaseSubscriptions && checkpoint.Phase != SweepPhaseTenants {
		uc.logger.Warnw("ignoring sweep checkpoint with unknown phase", "phase", checkpoint.Phase)
		return nil
	}
	return checkpoint
}

func (uc *ReconcileSubscriptionsUseCase) saveCheckpoint(ctx context.Context, checkpoint SweepCheckpoint) {
	if uc.checkpoints == nil {
		return
	}
	if err := uc.checkpoints.Save(context.WithoutCancel(ctx), checkpoint); err != nil {
		uc.logger.Warnw("failed to save sweep checkpoint", "phase", checkpoint.Phase, "error", err)
	}
}

func (uc *ReconcileSubscriptionsUseCase) clearCheckpoint(ctx context.Context) {
	if uc.checkpoints == nil {
		return
	}
	if err := uc.checkpoints.Clear(context.WithoutCancel(ctx)); err != nil {
		uc.logger.Warnw("failed to clear sweep checkpoint", "error", err)
	}
}

func (uc *ReconcileSubscriptionsUseCase) finish(run *sweepRun) *SweepSummary {
	summary := run.summary
	summary.FinishedAt = biztime.NowUTC()

	uc.logger.Infow("subscription sweep completed",
		"suspended", summary.SuspendedCount,
		"trial_expired", summary.TrialExpiredCount,
		"past_due", summary.PastDueCount,
		"consistency_fixed", summary.ConsistencyFixedCount,
		"processed", summary.ProcessedCount,
		"errors", len(summary.Errors),
		"interrupted", summary.Interrupted,
		"duration", summary.Duration(),
	)

	if uc.observer != nil {
		uc.observer.SweepCompleted(summary)
	}
	return summary
}

func (uc *ReconcileSubscriptionsUseCase) fail(run *sweepRun, err error) (*SweepSummary, error) {
	summary := run.summary
	summary.FinishedAt = biztime.NowUTC()

	uc.logger.Errorw("subscription sweep failed",
		"processed", summary.ProcessedCount,
		"error", err,
	)

	if uc.observer != nil {
		uc.observer.SweepFailed(err)
	}
	return summary, errors.Join(ErrSweepFailed, err)
}

var (
	// ErrSweepFailed marks errors that aborted a whole pass.
	ErrSweepFailed = errors.New("subscription sweep failed")
	// ErrSweepInProgress is returned when another pass holds the sweep lock.
	ErrSweepInProgress = errors.New("subscription sweep already in progress")
)
