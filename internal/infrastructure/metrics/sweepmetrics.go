// Package metrics exposes Prometheus instrumentation for background jobs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tillpoint/tillpoint/internal/application/subscription/usecases"
)

const (
	namespace = "tillpoint"
	subsystem = "subscription_sweep"

	outcomeCompleted   = "completed"
	outcomeInterrupted = "interrupted"
	outcomeFailed      = "failed"
)

// SweepMetrics records the outcome of each reconciliation sweep.
type SweepMetrics struct {
	runsTotal        *prometheus.CounterVec
	transitionsTotal *prometheus.CounterVec
	errorsTotal      prometheus.Counter
	processedTotal   prometheus.Counter
	duration         prometheus.Histogram
	lastSuccess      prometheus.Gauge
}

// NewSweepMetrics creates the collectors and registers them with reg.
func NewSweepMetrics(reg prometheus.Registerer) *SweepMetrics {
	m := &SweepMetrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "runs_total",
				Help:      "Total sweep passes by outcome.",
			},
			[]string{"outcome"},
		),
		transitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "transitions_total",
				Help:      "Total records changed by the sweep, by category.",
			},
			[]string{"category"},
		),
		errorsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "record_errors_total",
				Help:      "Total records the sweep failed to write.",
			},
		),
		processedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "processed_total",
				Help:      "Total subscriptions and tenants examined by the sweep.",
			},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "duration_seconds",
				Help:      "Duration of sweep passes.",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 14),
			},
		),
		lastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix time of the last sweep pass that ran to completion.",
			},
		),
	}

	reg.MustRegister(
		m.runsTotal,
		m.transitionsTotal,
		m.errorsTotal,
		m.processedTotal,
		m.duration,
		m.lastSuccess,
	)
	return m
}

func (m *SweepMetrics) SweepCompleted(summary *usecases.SweepSummary) {
	m.transitionsTotal.WithLabelValues("suspended").Add(float64(summary.SuspendedCount))
	m.transitionsTotal.WithLabelValues("trial_expired").Add(float64(summary.TrialExpiredCount))
	m.transitionsTotal.WithLabelValues("past_due").Add(float64(summary.PastDueCount))
	m.transitionsTotal.WithLabelValues("consistency_fixed").Add(float64(summary.ConsistencyFixedCount))
	m.errorsTotal.Add(float64(len(summary.Errors)))
	m.processedTotal.Add(float64(summary.ProcessedCount))
	m.duration.Observe(summary.Duration().Seconds())

	if summary.Interrupted {
		m.runsTotal.WithLabelValues(outcomeInterrupted).Inc()
		return
	}
	m.runsTotal.WithLabelValues(outcomeCompleted).Inc()
	m.lastSuccess.Set(float64(summary.FinishedAt.Unix()))
}

func (m *SweepMetrics) SweepFailed(error) {
	m.runsTotal.WithLabelValues(outcomeFailed).Inc()
}
