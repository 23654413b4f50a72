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

type CancelSubscriptionCommand struct {
	TenantID string
	Reason   string
}

type CancelSubscriptionUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	txManager        TransactionRunner
	publisher        StatusChangePublisher
	mirror           tenantMirror
	clock            func() time.Time
	logger           logger.Interface
}

func NewCancelSubscriptionUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	tenantRepo tenant.Repository,
	txManager TransactionRunner,
	publisher StatusChangePublisher,
	logger logger.Interface,
) *CancelSubscriptionUseCase {
	return &CancelSubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		txManager:        txManager,
		publisher:        publisher,
		mirror:           tenantMirror{subscriptionRepo: subscriptionRepo, tenantRepo: tenantRepo},
		clock:            biztime.NowUTC,
		logger:           logger,
	}
}

func (uc *CancelSubscriptionUseCase) WithClock(clock func() time.Time) *CancelSubscriptionUseCase {
	uc.clock = clock
	return uc
}

// Execute cancels the tenant's canonical subscription. Cancelling an already
// cancelled subscription succeeds without publishing anything.
func (uc *CancelSubscriptionUseCase) Execute(ctx context.Context, cmd CancelSubscriptionCommand) (*dto.SubscriptionDTO, error) {
	if cmd.TenantID == "" {
		return nil, apperrors.NewValidationError("tenant ID is required")
	}
	if cmd.Reason == "" {
		return nil, apperrors.NewValidationError("cancel reason is required")
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
		return dto.ToSubscriptionDTO(sub), nil
	}

	from := sub.Status()
	err = uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := sub.Cancel(cmd.Reason, now); err != nil {
			return err
		}
		if err := uc.subscriptionRepo.Update(txCtx, sub); err != nil {
			return err
		}
		return uc.mirror.sync(txCtx, sub.TenantID(), now)
	})
	if err != nil {
		uc.logger.Errorw("failed to cancel subscription",
			"subscription_id", sub.ID(),
			"tenant_id", sub.TenantID(),
			"error", err,
		)
		if errors.Is(err, subscription.ErrConcurrentModification) {
			return nil, apperrors.NewConflictError("subscription was modified concurrently, retry the request")
		}
		return nil, fmt.Errorf("failed to cancel subscription: %w", err)
	}

	uc.logger.Infow("subscription cancelled",
		"subscription_id", sub.ID(),
		"tenant_id", sub.TenantID(),
		"from_status", from,
		"reason", cmd.Reason,
	)

	publishAfterCommit(ctx, uc.publisher, uc.logger, subscription.NewStatusChangedEvent(
		sub.ID(), sub.TenantID(), from, sub.Status(), subscription.ChangeReasonCancelled, now,
	))

	return dto.ToSubscriptionDTO(sub), nil
}
