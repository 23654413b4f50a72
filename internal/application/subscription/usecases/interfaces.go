package usecases

import (
	"context"
	"time"

	"github.com/tillpoint/tillpoint/internal/domain/subscription"
)

// TransactionRunner runs fn in one database transaction; repositories pick it
// up from the context passed to fn.
type TransactionRunner interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// StatusChangePublisher delivers committed status changes to the notifier.
type StatusChangePublisher interface {
	PublishStatusChanged(ctx context.Context, event *subscription.StatusChangedEvent) error
}

// SweepPhase names the part of a sweep pass a checkpoint belongs to.
type SweepPhase string

const (
	SweepPhaseSubscriptions SweepPhase = "subscriptions"
	SweepPhaseTenants       SweepPhase = "tenants"
)

// SweepCheckpoint records the last fully processed page of an unfinished pass.
type SweepCheckpoint struct {
	Phase               SweepPhase `json:"phase"`
	AfterSubscriptionID uint       `json:"after_subscription_id"`
	AfterTenantID       string     `json:"after_tenant_id"`
	StartedAt           time.Time  `json:"started_at"`
}

// CheckpointStore persists the sweep cursor between runs. Load returns
// nil, nil when there is nothing to resume.
type CheckpointStore interface {
	Load(ctx context.Context) (*SweepCheckpoint, error)
	Save(ctx context.Context, checkpoint SweepCheckpoint) error
	Clear(ctx context.Context) error
}

// SweepLock admits one pass at a time across processes. TryAcquire reports
// false when another pass holds the lock; release is called once the pass ends.
type SweepLock interface {
	TryAcquire(ctx context.Context) (release func(), acquired bool, err error)
}

// SweepObserver is told about every finished or failed pass.
type SweepObserver interface {
	SweepCompleted(summary *SweepSummary)
	SweepFailed(err error)
}
