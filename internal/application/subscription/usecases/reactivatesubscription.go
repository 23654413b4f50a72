package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tillpoint/tillpoint/internal/application/subscription/dto"
	"github.com/tillpoint/tillpoint/internal/domain/subscription"
	"github.com/tillpoint/tillpoint/internal/domain/tenant"
	"github.com/tillpoint/tillpoint/internal/shared/biztime"
	apperrors "github.com/tillpoint/tillpoint/internal/shared/errors"
	"github.com/tillpoint/tillpoint/internal/shared/logger"
)

// ReactivateSubscriptionCommand records a verified payment. A zero
// PeriodStart means now; a zero PeriodEnd means one billing cycle later.
type ReactivateSubscriptionCommand struct {
	TenantID    string
	PeriodStart time.Time
	PeriodEnd   time.Time
}

type ReactivateSubscriptionUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	txManager        TransactionRunner
	publisher        StatusChangePublisher
	mirror           tenantMirror
	clock            func() time.Time
	logger           logger.Interface
}

func NewReactivateSubscriptionUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	tenantRepo tenant.Repository,
	txManager TransactionRunner,
	publisher StatusChangePublisher,
	logger logger.Interface,
) *ReactivateSubscriptionUseCase {
	return &ReactivateSubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		txManager:        txManager,
		publisher:        publisher,
		mirror:           tenantMirror{subscriptionRepo: subscriptionRepo, tenantRepo: tenantRepo},
		clock:            biztime.NowUTC,
		logger:           logger,
	}
}

func (uc *ReactivateSubscriptionUseCase) WithClock(clock func() time.Time) *ReactivateSubscriptionUseCase {
	uc.clock = clock
	return uc
}

func (uc *ReactivateSubscriptionUseCase) Execute(ctx context.Context, cmd ReactivateSubscriptionCommand) (*dto.SubscriptionDTO, error) {
	if cmd.TenantID == "" {
		return nil, apperrors.NewValidationError("tenant ID is required")
	}

	now := uc.clock()
	sub, err := uc.subscriptionRepo.GetCanonicalByTenantID(ctx, cmd.TenantID)
	if err != nil {
		uc.logger.Errorw("failed to get subscription", "tenant_id", cmd.TenantID, "error", err)
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub == nil {
		return nil, apperrors.NewNotFoundError("subscription not found", cmd.TenantID)
	}
	if sub.IsCancelled() {
		return nil, apperrors.NewConflictError("subscription is cancelled", cmd.TenantID)
	}

	periodStart := cmd.PeriodStart
	if periodStart.IsZero() {
		periodStart = now
	}
	periodEnd := cmd.PeriodEnd
	if periodEnd.IsZero() {
		periodEnd = sub.BillingCycle().NextPeriodEnd(periodStart)
	}

	from := sub.Status()
	err = uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := sub.Reactivate(periodStart, periodEnd, now); err != nil {
			return err
		}
		if err := uc.subscriptionRepo.Update(txCtx, sub); err != nil {
			return err
		}
		return uc.mirror.sync(txCtx, sub.TenantID(), now)
	})
	if err != nil {
		uc.logger.Errorw("failed to reactivate subscription",
			"subscription_id", sub.ID(),
			"tenant_id", sub.TenantID(),
			"error", err,
		)
		switch {
		case errors.Is(err, subscription.ErrInvalidPeriod), errors.Is(err, subscription.ErrInvalidStatusTransition):
			return nil, apperrors.NewValidationError(err.Error())
		case errors.Is(err, subscription.ErrConcurrentModification):
			return nil, apperrors.NewConflictError("subscription was modified concurrently, retry the request")
		}
		return nil, fmt.Errorf("failed to reactivate subscription: %w", err)
	}

	uc.logger.Infow("subscription reactivated",
		"subscription_id", sub.ID(),
		"tenant_id", sub.TenantID(),
		"from_status", from,
		"period_end", sub.CurrentPeriodEnd(),
	)

	publishAfterCommit(ctx, uc.publisher, uc.logger, subscription.NewStatusChangedEvent(
		sub.ID(), sub.TenantID(), from, sub.Status(), subscription.ChangeReasonPaymentVerified, now,
	))

	return dto.ToSubscriptionDTO(sub), nil
}
