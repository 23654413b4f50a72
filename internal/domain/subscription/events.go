package subscription

import (
	"time"

	vo "github.com/tillpoint/tillpoint/internal/domain/subscription/valueobjects"
)

// Reasons attached to status change events.
const (
	ChangeReasonLifecycle       = "lifecycle"
	ChangeReasonConsistencyFix  = "consistency_fix"
	ChangeReasonPaymentVerified = "payment_verified"
	ChangeReasonCancelled       = "cancelled"
	ChangeReasonProvisioned     = "provisioned"
)

// StatusChangedEvent is raised after a status change has been committed.
type StatusChangedEvent struct {
	SubscriptionID uint
	TenantID       string
	FromStatus     vo.SubscriptionStatus
	ToStatus       vo.SubscriptionStatus
	Reason         string
	Timestamp      time.Time
}

func NewStatusChangedEvent(subscriptionID uint, tenantID string, from, to vo.SubscriptionStatus, reason string, at time.Time) *StatusChangedEvent {
	return &StatusChangedEvent{
		SubscriptionID: subscriptionID,
		TenantID:       tenantID,
		FromStatus:     from,
		ToStatus:       to,
		Reason:         reason,
		Timestamp:      at,
	}
}
