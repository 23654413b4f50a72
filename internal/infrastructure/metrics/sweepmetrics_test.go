package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/tillpoint/tillpoint/internal/application/subscription/usecases"
)

var _ usecases.SweepObserver = (*SweepMetrics)(nil)

func TestSweepMetrics_Completed(t *testing.T) {
	m := NewSweepMetrics(prometheus.NewRegistry())
	finished := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	m.SweepCompleted(&usecases.SweepSummary{
		SuspendedCount:        2,
		TrialExpiredCount:     1,
		PastDueCount:          3,
		ConsistencyFixedCount: 1,
		ProcessedCount:        20,
		Errors:                []usecases.SweepError{{TenantID: "tenant-1", Message: "boom"}},
		StartedAt:             finished.Add(-2 * time.Second),
		FinishedAt:            finished,
	})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.transitionsTotal.WithLabelValues("suspended")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitionsTotal.WithLabelValues("trial_expired")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.transitionsTotal.WithLabelValues("past_due")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitionsTotal.WithLabelValues("consistency_fixed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errorsTotal))
	assert.Equal(t, 20.0, testutil.ToFloat64(m.processedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runsTotal.WithLabelValues(outcomeCompleted)))
	assert.Equal(t, float64(finished.Unix()), testutil.ToFloat64(m.lastSuccess))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestSweepMetrics_InterruptedDoesNotMoveLastSuccess(t *testing.T) {
	m := NewSweepMetrics(prometheus.NewRegistry())

	m.SweepCompleted(&usecases.SweepSummary{Interrupted: true, FinishedAt: time.Now()})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runsTotal.WithLabelValues(outcomeInterrupted)))
	assert.Zero(t, testutil.ToFloat64(m.lastSuccess))
}

func TestSweepMetrics_Failed(t *testing.T) {
	m := NewSweepMetrics(prometheus.NewRegistry())

	m.SweepFailed(errors.New("database unavailable"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runsTotal.WithLabelValues(outcomeFailed)))
}
