package subscription

import (
	"fmt"
	"time"

	vo "github.com/tillpoint/tillpoint/internal/domain/subscription/valueobjects"
)

// Subscription is a tenant's billing agreement. Its status is moved either by
// the lifecycle evaluation (through the reconciliation sweep) or by external
// payment events; it is never deleted.
type Subscription struct {
	id                 uint
	tenantID           string
	planCode           string
	billingCycle       vo.BillingCycle
	status             vo.SubscriptionStatus
	currentPeriodStart time.Time
	currentPeriodEnd   time.Time
	gracePeriodEndDate *time.Time
	suspendedAt        *time.Time
	suspendedReason    *string
	cancelledAt        *time.Time
	cancelReason       *string
	price              string
	metadata           map[string]interface{}
	version            int
	createdAt          time.Time
	updatedAt          time.Time
}

// NewSubscription creates a trial or paid subscription.
func NewSubscription(
	tenantID, planCode string,
	billingCycle vo.BillingCycle,
	status vo.SubscriptionStatus,
	periodStart, periodEnd time.Time,
	price string,
	now time.Time,
) (*Subscription, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant ID is required")
	}
	if planCode == "" {
		return nil, fmt.Errorf("plan code is required")
	}
	if !billingCycle.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidBillingCycle, billingCycle)
	}
	if status != vo.StatusTrial && status != vo.StatusActive {
		return nil, fmt.Errorf("new subscription must start as trial or active, got %s", status)
	}
	if !periodEnd.After(periodStart) {
		return nil, ErrInvalidPeriod
	}

	return &Subscription{
		tenantID:           tenantID,
		planCode:           planCode,
		billingCycle:       billingCycle,
		status:             status,
		currentPeriodStart: periodStart.UTC(),
		currentPeriodEnd:   periodEnd.UTC(),
		price:              price,
		metadata:           make(map[string]interface{}),
		version:            1,
		createdAt:          now,
		updatedAt:          now,
	}, nil
}

// ReconstructSubscription rebuilds a subscription from persistence. Status and
// billing cycle are not validated here: a corrupt record must still reach the
// lifecycle evaluation, which fails it closed.
func ReconstructSubscription(
	id uint,
	tenantID, planCode string,
	billingCycle vo.BillingCycle,
	status vo.SubscriptionStatus,
	currentPeriodStart, currentPeriodEnd time.Time,
	gracePeriodEndDate, suspendedAt *time.Time,
	suspendedReason *string,
	cancelledAt *time.Time,
	cancelReason *string,
	price string,
	metadata map[string]interface{},
	version int,
	createdAt, updatedAt time.Time,
) (*Subscription, error) {
	if id == 0 {
		return nil, fmt.Errorf("subscription ID cannot be zero")
	}
	if tenantID == "" {
		return nil, fmt.Errorf("tenant ID is required")
	}
	if metadata == nil {
		metadata = make(map[string]interface{})
	}

	return &Subscription{
		id:                 id,
		tenantID:           tenantID,
		planCode:           planCode,
		billingCycle:       billingCycle,
		status:             status,
		currentPeriodStart: currentPeriodStart,
		currentPeriodEnd:   currentPeriodEnd,
		gracePeriodEndDate: gracePeriodEndDate,
		suspendedAt:        suspendedAt,
		suspendedReason:    suspendedReason,
		cancelledAt:        cancelledAt,
		cancelReason:       cancelReason,
		price:              price,
		metadata:           metadata,
		version:            version,
		createdAt:          createdAt,
		updatedAt:          updatedAt,
	}, nil
}

func (s *Subscription) ID() uint                         { return s.id }
func (s *Subscription) TenantID() string                 { return s.tenantID }
func (s *Subscription) PlanCode() string                 { return s.planCode }
func (s *Subscription) BillingCycle() vo.BillingCycle    { return s.billingCycle }
func (s *Subscription) Status() vo.SubscriptionStatus    { return s.status }
func (s *Subscription) CurrentPeriodStart() time.Time    { return s.currentPeriodStart }
func (s *Subscription) CurrentPeriodEnd() time.Time      { return s.currentPeriodEnd }
func (s *Subscription) GracePeriodEndDate() *time.Time   { return s.gracePeriodEndDate }
func (s *Subscription) SuspendedAt() *time.Time          { return s.suspendedAt }
func (s *Subscription) SuspendedReason() *string         { return s.suspendedReason }
func (s *Subscription) CancelledAt() *time.Time          { return s.cancelledAt }
func (s *Subscription) CancelReason() *string            { return s.cancelReason }
func (s *Subscription) Price() string                    { return s.price }
func (s *Subscription) Metadata() map[string]interface{} { return s.metadata }
func (s *Subscription) Version() int                     { return s.version }
func (s *Subscription) CreatedAt() time.Time             { return s.createdAt }
func (s *Subscription) UpdatedAt() time.Time             { return s.updatedAt }
func (s *Subscription) IsCancelled() bool                { return s.status == vo.StatusCancelled }

// SetID sets the subscription ID (only for persistence layer use)
func (s *Subscription) SetID(id uint) error {
	if s.id != 0 {
		return fmt.Errorf("subscription ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("subscription ID cannot be zero")
	}
	s.id = id
	return nil
}

// ApplyEvaluation moves the subscription to the evaluated status. It returns
// false, leaving the record untouched, when the status is already converged.
func (s *Subscription) ApplyEvaluation(ev Evaluation, now time.Time) bool {
	if ev.Status == "" || ev.Status == s.status {
		return false
	}

	if ev.Status == vo.StatusSuspended {
		suspendedAt := now
		reason := ev.SuspendedReason
		s.suspendedAt = &suspendedAt
		s.suspendedReason = &reason
	}
	if ev.GracePeriodEndDate != nil && s.gracePeriodEndDate == nil {
		grace := *ev.GracePeriodEndDate
		s.gracePeriodEndDate = &grace
	}

	s.status = ev.Status
	s.updatedAt = now
	s.version++
	return true
}

// Reactivate starts a new paid period after a verified payment. Suspension
// and grace bookkeeping from the previous period is cleared.
func (s *Subscription) Reactivate(periodStart, periodEnd, now time.Time) error {
	if s.status == vo.StatusCancelled {
		return ErrSubscriptionCancelled
	}
	if !s.status.CanTransitionTo(vo.StatusActive) {
		return ErrInvalidTransition(s.status.String(), vo.StatusActive.String())
	}
	if !periodEnd.After(periodStart) {
		return ErrInvalidPeriod
	}

	s.status = vo.StatusActive
	s.currentPeriodStart = periodStart.UTC()
	s.currentPeriodEnd = periodEnd.UTC()
	s.gracePeriodEndDate = nil
	s.suspendedAt = nil
	s.suspendedReason = nil
	s.updatedAt = now
	s.version++
	return nil
}

// Cancel moves the subscription to the terminal cancelled status. Cancelling
// an already cancelled subscription is a no-op.
func (s *Subscription) Cancel(reason string, now time.Time) error {
	if s.status == vo.StatusCancelled {
		return nil
	}
	if reason == "" {
		return fmt.Errorf("cancel reason is required")
	}

	cancelledAt := now
	s.status = vo.StatusCancelled
	s.cancelledAt = &cancelledAt
	s.cancelReason = &reason
	s.updatedAt = now
	s.version++
	return nil
}
