package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tillpoint/tillpoint/internal/application/subscription/dto"
	"github.com/tillpoint/tillpoint/internal/domain/subscription"
	vo "github.com/tillpoint/tillpoint/internal/domain/subscription/valueobjects"
	"github.com/tillpoint/tillpoint/internal/domain/tenant"
	"github.com/tillpoint/tillpoint/internal/shared/biztime"
	apperrors "github.com/tillpoint/tillpoint/internal/shared/errors"
	"github.com/tillpoint/tillpoint/internal/shared/logger"
)

const DefaultTrialDays = 14

// ProvisionTenantCommand creates a tenant with its first subscription. Trial
// subscriptions last TrialDays; paid ones run one billing cycle unless
// PeriodEnd is given.
type ProvisionTenantCommand struct {
	TenantID     string
	Name         string
	PlanCode     string
	BillingCycle string
	Trial        bool
	TrialDays    int
	PeriodStart  time.Time
	PeriodEnd    time.Time
	Price        string
}

type ProvisionTenantUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	tenantRepo       tenant.Repository
	txManager        TransactionRunner
	publisher        StatusChangePublisher
	mirror           tenantMirror
	clock            func() time.Time
	logger           logger.Interface
}

func NewProvisionTenantUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	tenantRepo tenant.Repository,
	txManager TransactionRunner,
	publisher StatusChangePublisher,
	logger logger.Interface,
) *ProvisionTenantUseCase {
	return &ProvisionTenantUseCase{
		subscriptionRepo: subscriptionRepo,
		tenantRepo:       tenantRepo,
		txManager:        txManager,
		publisher:        publisher,
		mirror:           tenantMirror{subscriptionRepo: subscriptionRepo, tenantRepo: tenantRepo},
		clock:            biztime.NowUTC,
		logger:           logger,
	}
}

func (uc *ProvisionTenantUseCase) WithClock(clock func() time.Time) *ProvisionTenantUseCase {
	uc.clock = clock
	return uc
}

func (uc *ProvisionTenantUseCase) Execute(ctx context.Context, cmd ProvisionTenantCommand) (*dto.SubscriptionDTO, error) {
	cycle, err := vo.ParseBillingCycle(cmd.BillingCycle)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid billing cycle", cmd.BillingCycle)
	}

	now := uc.clock()
	status := vo.StatusActive
	if cmd.Trial {
		status = vo.StatusTrial
	}

	periodStart := cmd.PeriodStart
	if periodStart.IsZero() {
		periodStart = now
	}
	periodEnd := cmd.PeriodEnd
	if periodEnd.IsZero() {
		if cmd.Trial {
			trialDays := cmd.TrialDays
			if trialDays <= 0 {
				trialDays = DefaultTrialDays
			}
			periodEnd = periodStart.AddDate(0, 0, trialDays)
		} else {
			periodEnd = cycle.NextPeriodEnd(periodStart)
		}
	}

	price := cmd.Price
	if price == "" {
		price = "0"
	}

	t, err := tenant.NewTenant(cmd.TenantID, cmd.Name, now)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	sub, err := subscription.NewSubscription(cmd.TenantID, cmd.PlanCode, cycle, status, periodStart, periodEnd, price, now)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	err = uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		existing, err := uc.tenantRepo.GetByID(txCtx, cmd.TenantID)
		if err != nil {
			return err
		}
		if existing != nil {
			return tenant.ErrTenantAlreadyExists
		}
		if err := uc.tenantRepo.Create(txCtx, t); err != nil {
			return err
		}
		if err := uc.subscriptionRepo.Create(txCtx, sub); err != nil {
			return err
		}
		return uc.mirror.sync(txCtx, cmd.TenantID, now)
	})
	if err != nil {
		if errors.Is(err, tenant.ErrTenantAlreadyExists) {
			return nil, apperrors.NewConflictError("tenant already exists", cmd.TenantID)
		}
		uc.logger.Errorw("failed to provision tenant", "tenant_id", cmd.TenantID, "error", err)
		return nil, fmt.Errorf("failed to provision tenant: %w", err)
	}

	uc.logger.Infow("tenant provisioned",
		"tenant_id", cmd.TenantID,
		"subscription_id", sub.ID(),
		"status", status,
		"billing_cycle", cycle,
		"period_end", periodEnd,
	)

	publishAfterCommit(ctx, uc.publisher, uc.logger, subscription.NewStatusChangedEvent(
		sub.ID(), cmd.TenantID, "", status, subscription.ChangeReasonProvisioned, now,
	))

	return dto.ToSubscriptionDTO(sub), nil
}
