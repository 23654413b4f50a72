package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/tillpoint/tillpoint/internal/domain/subscription"
	vo "github.com/tillpoint/tillpoint/internal/domain/subscription/valueobjects"
	"github.com/tillpoint/tillpoint/internal/domain/tenant"
	"github.com/tillpoint/tillpoint/internal/shared/logger"
)

// tenantMirror copies a tenant's canonical subscription status onto the
// tenant record. It is called inside the transaction that changed the
// subscription, so both writes commit together.
type tenantMirror struct {
	subscriptionRepo subscription.SubscriptionRepository
	tenantRepo       tenant.Repository
}

func (m tenantMirror) sync(ctx context.Context, tenantID string, now time.Time) error {
	t, err := m.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("failed to get tenant: %w", err)
	}
	if t == nil {
		return fmt.Errorf("%w: %s", tenant.ErrTenantNotFound, tenantID)
	}

	canonical, err := m.subscriptionRepo.GetCanonicalByTenantID(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("failed to get canonical subscription: %w", err)
	}

	var status vo.SubscriptionStatus
	if canonical != nil {
		status = canonical.Status()
	}

	if !t.SyncSubscriptionStatus(status, now) {
		return nil
	}
	if err := m.tenantRepo.Update(ctx, t); err != nil {
		return fmt.Errorf("failed to update tenant: %w", err)
	}
	return nil
}

// publishAfterCommit announces a committed status change. Delivery is best
// effort; the next sweep corrects anyone who missed it.
func publishAfterCommit(ctx context.Context, publisher StatusChangePublisher, log logger.Interface, event *subscription.StatusChangedEvent) {
	if publisher == nil {
		return
	}
	if err := publisher.PublishStatusChanged(context.WithoutCancel(ctx), event); err != nil {
		log.Warnw("failed to publish subscription status change",
			"subscription_id", event.SubscriptionID,
			"tenant_id", event.TenantID,
			"to_status", event.ToStatus,
			"error", err,
		)
	}
}
