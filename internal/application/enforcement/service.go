// Package enforcement answers what a tenant may do right now. Every query
// evaluates the tenant's latest subscription against the clock, so a
// subscription that lapsed after the last sweep is already enforced.
package enforcement

import (
	"context"
	"fmt"
	"time"

	"github.com/tillpoint/tillpoint/internal/application/enforcement/dto"
	"github.com/tillpoint/tillpoint/internal/domain/subscription"
	vo "github.com/tillpoint/tillpoint/internal/domain/subscription/valueobjects"
	"github.com/tillpoint/tillpoint/internal/shared/biztime"
	"github.com/tillpoint/tillpoint/internal/shared/logger"
)

const (
	MessageUnverified      = "Subscription status could not be verified"
	MessageEnforcementOff  = "Access enforcement disabled"
	messageActive          = "Subscription is active."
	messageCancelled       = "Subscription has been cancelled."
	messageTrialInProgress = "Trial in progress, %s left."
)

// Options configures the service. FreeMode grants every tenant full access
// without touching the subscription store.
type Options struct {
	FreeMode bool
}

type Service struct {
	subscriptionRepo subscription.SubscriptionRepository
	policy           subscription.LifecyclePolicy
	freeMode         bool
	clock            func() time.Time
	logger           logger.Interface
}

func NewService(
	subscriptionRepo subscription.SubscriptionRepository,
	policy subscription.LifecyclePolicy,
	opts Options,
	logger logger.Interface,
) *Service {
	return &Service{
		subscriptionRepo: subscriptionRepo,
		policy:           policy,
		freeMode:         opts.FreeMode,
		clock:            biztime.NowUTC,
		logger:           logger,
	}
}

func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// access is one evaluation plus how it was obtained.
type access struct {
	evaluation subscription.Evaluation
	verified   bool
	freeMode   bool
}

func (s *Service) evaluate(ctx context.Context, tenantID string) access {
	if s.freeMode {
		return access{
			evaluation: subscription.Evaluation{AccessLevel: vo.AccessLevelFull},
			verified:   true,
			freeMode:   true,
		}
	}

	sub, err := s.subscriptionRepo.GetCanonicalByTenantID(ctx, tenantID)
	if err != nil {
		s.logger.Warnw("subscription store unavailable, granting unverified access",
			"tenant_id", tenantID,
			"error", err,
		)
		return access{evaluation: subscription.Evaluation{AccessLevel: vo.AccessLevelFull}}
	}

	return access{
		evaluation: s.policy.Evaluate(sub, s.clock()),
		verified:   true,
	}
}

// GetAccess never fails: a store outage yields full, unverified access.
func (s *Service) GetAccess(ctx context.Context, tenantID string) *dto.AccessResult {
	return s.toAccessResult(s.evaluate(ctx, tenantID))
}

func (s *Service) GetWarnings(ctx context.Context, tenantID string) []dto.WarningDTO {
	a := s.evaluate(ctx, tenantID)
	if !a.verified || a.freeMode {
		return []dto.WarningDTO{}
	}
	return dto.ToWarningDTOs(a.evaluation.Warnings)
}

func (s *Service) CanOperate(ctx context.Context, tenantID string) *dto.OperationPermissionsDTO {
	a := s.evaluate(ctx, tenantID)
	result := s.toAccessResult(a)

	var message string
	if a.evaluation.AccessLevel != vo.AccessLevelFull || !result.Verified || a.freeMode {
		message = result.Message
	}
	return dto.ToOperationPermissionsDTO(a.evaluation.AccessLevel.Permissions(), message)
}

// Authorize reports whether the tenant may perform op, along with the access
// result the decision was based on.
func (s *Service) Authorize(ctx context.Context, tenantID string, op vo.Operation) (*dto.AccessResult, bool) {
	a := s.evaluate(ctx, tenantID)
	return s.toAccessResult(a), a.evaluation.AccessLevel.Permissions().Allows(op)
}

func (s *Service) toAccessResult(a access) *dto.AccessResult {
	ev := a.evaluation
	result := &dto.AccessResult{
		AccessLevel:         ev.AccessLevel.String(),
		Status:              ev.Status.String(),
		DaysRemaining:       ev.DaysRemaining,
		DaysUntilSuspension: ev.DaysUntilSuspension,
		Verified:            a.verified,
	}

	switch {
	case a.freeMode:
		result.Message = MessageEnforcementOff
	case !a.verified:
		result.Message = MessageUnverified
	default:
		result.Message = accessMessage(ev)
		result.CanMakePayment = canMakePayment(ev)
	}
	return result
}

func accessMessage(ev subscription.Evaluation) string {
	if len(ev.Warnings) > 0 {
		return ev.Warnings[0].Message
	}
	switch ev.Status {
	case vo.StatusCancelled:
		return messageCancelled
	case vo.StatusTrial:
		days := "1 day"
		if ev.DaysRemaining != 1 {
			days = fmt.Sprintf("%d days", ev.DaysRemaining)
		}
		return fmt.Sprintf(messageTrialInProgress, days)
	default:
		return messageActive
	}
}

// canMakePayment is false only when there is nothing to pay for: the tenant
// is paid up or the subscription is closed.
func canMakePayment(ev subscription.Evaluation) bool {
	return ev.Status != vo.StatusActive && ev.Status != vo.StatusCancelled
}
