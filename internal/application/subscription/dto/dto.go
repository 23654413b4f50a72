package dto

import (
	"time"

	"github.com/tillpoint/tillpoint/internal/domain/subscription"
)

type SubscriptionDTO struct {
	ID                 uint       `json:"id"`
	TenantID           string     `json:"tenant_id"`
	PlanCode           string     `json:"plan_code"`
	BillingCycle       string     `json:"billing_cycle"`
	Status             string     `json:"status"`
	CurrentPeriodStart time.Time  `json:"current_period_start"`
	CurrentPeriodEnd   time.Time  `json:"current_period_end"`
	GracePeriodEndDate *time.Time `json:"grace_period_end_date,omitempty"`
	SuspendedAt        *time.Time `json:"suspended_at,omitempty"`
	SuspendedReason    *string    `json:"suspended_reason,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancelReason       *string    `json:"cancel_reason,omitempty"`
	Price              string     `json:"price"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func ToSubscriptionDTO(sub *subscription.Subscription) *SubscriptionDTO {
	if sub == nil {
		return nil
	}

	return &SubscriptionDTO{
		ID:                 sub.ID(),
		TenantID:           sub.TenantID(),
		PlanCode:           sub.PlanCode(),
		BillingCycle:       sub.BillingCycle().String(),
		Status:             sub.Status().String(),
		CurrentPeriodStart: sub.CurrentPeriodStart(),
		CurrentPeriodEnd:   sub.CurrentPeriodEnd(),
		GracePeriodEndDate: sub.GracePeriodEndDate(),
		SuspendedAt:        sub.SuspendedAt(),
		SuspendedReason:    sub.SuspendedReason(),
		CancelledAt:        sub.CancelledAt(),
		CancelReason:       sub.CancelReason(),
		Price:              sub.Price(),
		UpdatedAt:          sub.UpdatedAt(),
	}
}
