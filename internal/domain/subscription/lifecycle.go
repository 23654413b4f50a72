package subscription

import (
	"fmt"
	"time"

	vo "github.com/tillpoint/tillpoint/internal/domain/subscription/valueobjects"
)

const (
	DefaultGracePeriodDays           = 7
	DefaultExpiringSoonThresholdDays = 3

	ReasonDailyPlanExpired = "Daily plan expired"
	ReasonExpired          = "Subscription expired"
	ReasonInvalidData      = "Invalid subscription data"
)

const day = 24 * time.Hour

// LifecyclePolicy evaluates subscriptions against the clock. It is the single
// place where period boundaries, grace windows and billing-cycle rules live;
// the sweep and the enforcement queries both call it.
type LifecyclePolicy struct {
	GracePeriodDays           int
	ExpiringSoonThresholdDays int
}

func DefaultLifecyclePolicy() LifecyclePolicy {
	return LifecyclePolicy{
		GracePeriodDays:           DefaultGracePeriodDays,
		ExpiringSoonThresholdDays: DefaultExpiringSoonThresholdDays,
	}
}

func NewLifecyclePolicy(gracePeriodDays, expiringSoonThresholdDays int) LifecyclePolicy {
	if gracePeriodDays < 0 {
		gracePeriodDays = 0
	}
	if expiringSoonThresholdDays < 0 {
		expiringSoonThresholdDays = 0
	}
	return LifecyclePolicy{
		GracePeriodDays:           gracePeriodDays,
		ExpiringSoonThresholdDays: expiringSoonThresholdDays,
	}
}

// Evaluation is the state a subscription should be in at a given instant.
type Evaluation struct {
	Status              vo.SubscriptionStatus
	AccessLevel         vo.AccessLevel
	DaysRemaining       int
	DaysUntilSuspension *int
	Warnings            []vo.Warning
	SuspendedReason     string
	GracePeriodEndDate  *time.Time
	// Malformed is set when the stored record could not be interpreted.
	Malformed bool
}

// Changed reports whether the evaluation moves sub away from its stored status.
func (e Evaluation) Changed(sub *Subscription) bool {
	return sub != nil && e.Status != "" && e.Status != sub.Status()
}

type lifecycleState struct {
	status vo.SubscriptionStatus
	grace  *time.Time
	reason string
}

// Evaluate never fails. A nil subscription yields access level none; records
// that cannot be interpreted are treated as suspended and blocked.
// Transitions are chained, so an active plan already past its grace window
// evaluates straight to suspended.
func (p LifecyclePolicy) Evaluate(sub *Subscription, now time.Time) Evaluation {
	if sub == nil {
		return Evaluation{
			AccessLevel: vo.AccessLevelNone,
			Warnings: []vo.Warning{{
				Type:           vo.WarningNoSubscription,
				Severity:       vo.SeverityCritical,
				Message:        "No subscription found. Choose a plan to start using the system.",
				ActionRequired: true,
			}},
		}
	}

	if sub.Status() == vo.StatusCancelled {
		return Evaluation{
			Status:      vo.StatusCancelled,
			AccessLevel: vo.AccessLevelBlocked,
		}
	}

	if !p.wellFormed(sub) {
		return p.malformed(sub)
	}

	state := lifecycleState{status: sub.Status(), grace: sub.GracePeriodEndDate()}
	for i := 0; i < len(vo.ValidStatuses); i++ {
		next, moved := p.step(sub, state, now)
		if !moved {
			break
		}
		state = next
	}

	return p.describe(sub, state, now)
}

// wellFormed checks what the evaluation depends on. The billing cycle only
// drives transitions out of active and past_due, so other statuses keep
// evaluating with an unknown cycle.
func (p LifecyclePolicy) wellFormed(sub *Subscription) bool {
	if !sub.Status().IsValid() || sub.CurrentPeriodEnd().IsZero() {
		return false
	}
	switch sub.Status() {
	case vo.StatusActive, vo.StatusPastDue:
		return sub.BillingCycle().IsValid()
	}
	return true
}

func (p LifecyclePolicy) malformed(sub *Subscription) Evaluation {
	return Evaluation{
		Status:          vo.StatusSuspended,
		AccessLevel:     vo.AccessLevelBlocked,
		SuspendedReason: ReasonInvalidData,
		Malformed:       true,
		Warnings: []vo.Warning{{
			Type:           vo.WarningSuspended,
			Severity:       vo.SeverityCritical,
			Message:        "Subscription status could not be determined. Contact support.",
			ActionRequired: true,
		}},
	}
}

// step applies at most one transition.
func (p LifecyclePolicy) step(sub *Subscription, state lifecycleState, now time.Time) (lifecycleState, bool) {
	periodEnd := sub.CurrentPeriodEnd()

	switch state.status {
	case vo.StatusTrial:
		if now.After(periodEnd) {
			return lifecycleState{status: vo.StatusExpired}, true
		}
	case vo.StatusActive:
		if !now.After(periodEnd) {
			return state, false
		}
		if !sub.BillingCycle().HasGracePeriod() {
			return lifecycleState{status: vo.StatusSuspended, reason: ReasonDailyPlanExpired}, true
		}
		grace := p.graceEnd(sub, state.grace)
		return lifecycleState{status: vo.StatusPastDue, grace: &grace}, true
	case vo.StatusPastDue:
		grace := p.graceEnd(sub, state.grace)
		if now.After(grace) {
			reason := ReasonExpired
			if !sub.BillingCycle().HasGracePeriod() {
				reason = ReasonDailyPlanExpired
			}
			return lifecycleState{status: vo.StatusSuspended, grace: &grace, reason: reason}, true
		}
		if state.grace == nil {
			state.grace = &grace
		}
	}
	return state, false
}

// graceEnd is the stored grace end, or the period end plus the grace window.
// Daily plans get no window.
func (p LifecyclePolicy) graceEnd(sub *Subscription, stored *time.Time) time.Time {
	if stored != nil {
		return *stored
	}
	if !sub.BillingCycle().HasGracePeriod() {
		return sub.CurrentPeriodEnd()
	}
	return sub.CurrentPeriodEnd().AddDate(0, 0, p.GracePeriodDays)
}

func (p LifecyclePolicy) describe(sub *Subscription, state lifecycleState, now time.Time) Evaluation {
	ev := Evaluation{
		Status:             state.status,
		DaysRemaining:      ceilDays(sub.CurrentPeriodEnd().Sub(now)),
		GracePeriodEndDate: state.grace,
	}

	switch state.status {
	case vo.StatusTrial:
		ev.AccessLevel = vo.AccessLevelFull
		if ev.DaysRemaining <= p.ExpiringSoonThresholdDays {
			remaining := ev.DaysRemaining
			ev.Warnings = append(ev.Warnings, vo.Warning{
				Type:          vo.WarningExpiringSoon,
				Severity:      vo.SeverityInfo,
				Message:       fmt.Sprintf("Your trial ends in %s.", pluralDays(remaining)),
				DaysRemaining: &remaining,
			})
		}
	case vo.StatusActive:
		ev.AccessLevel = vo.AccessLevelFull
	case vo.StatusPastDue:
		ev.AccessLevel = vo.AccessLevelReadOnly
		untilSuspension := 0
		if state.grace != nil {
			untilSuspension = ceilDays(state.grace.Sub(now))
		}
		ev.DaysUntilSuspension = &untilSuspension
		ev.Warnings = append(ev.Warnings, vo.Warning{
			Type:           vo.WarningPastDue,
			Severity:       vo.SeverityWarning,
			Message:        fmt.Sprintf("Payment is overdue. Access will be suspended in %s.", pluralDays(untilSuspension)),
			ActionRequired: true,
			DaysRemaining:  &untilSuspension,
		})
	case vo.StatusSuspended:
		ev.AccessLevel = vo.AccessLevelBlocked
		ev.SuspendedReason = state.reason
		if ev.SuspendedReason == "" && sub.SuspendedReason() != nil {
			ev.SuspendedReason = *sub.SuspendedReason()
		}
		message := "Your subscription is suspended. Renew to restore access."
		if ev.SuspendedReason != "" {
			message = fmt.Sprintf("Your subscription is suspended (%s). Renew to restore access.", ev.SuspendedReason)
		}
		ev.Warnings = append(ev.Warnings, vo.Warning{
			Type:           vo.WarningSuspended,
			Severity:       vo.SeverityCritical,
			Message:        message,
			ActionRequired: true,
		})
	case vo.StatusExpired:
		ev.AccessLevel = vo.AccessLevelBlocked
		ev.Warnings = append(ev.Warnings, vo.Warning{
			Type:           vo.WarningExpired,
			Severity:       vo.SeverityCritical,
			Message:        "Your trial has expired. Choose a plan to continue.",
			ActionRequired: true,
		})
	}

	return ev
}

// ceilDays rounds a positive duration up to whole days; non-positive
// durations are zero.
func ceilDays(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	days := int(d / day)
	if d%day != 0 {
		days++
	}
	return days
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
