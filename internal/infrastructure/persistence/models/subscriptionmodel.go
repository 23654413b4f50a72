package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tillpoint/tillpoint/internal/shared/constants"
)

// SubscriptionModel represents the database persistence model for subscriptions
type SubscriptionModel struct {
	ID                 uint      `gorm:"primarykey"`
	TenantID           string    `gorm:"not null;size:64;index:idx_tenant_subscription"`
	PlanCode           string    `gorm:"not null;size:64"`
	BillingCycle       string    `gorm:"not null;size:20"`
	Status             string    `gorm:"not null;size:20;index:idx_status"`
	CurrentPeriodStart time.Time `gorm:"not null"`
	CurrentPeriodEnd   time.Time `gorm:"not null;index:idx_period_end"`
	GracePeriodEndDate *time.Time
	SuspendedAt        *time.Time
	SuspendedReason    *string `gorm:"size:255"`
	CancelledAt        *time.Time
	CancelReason       *string `gorm:"size:500"`
	Price              string  `gorm:"type:decimal(12,2);not null;default:0"`
	Metadata           datatypes.JSON
	Version            int `gorm:"not null;default:1"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TableName specifies the table name for GORM
func (SubscriptionModel) TableName() string {
	return constants.TableSubscriptions
}

// BeforeCreate hook for GORM
func (s *SubscriptionModel) BeforeCreate(tx *gorm.DB) error {
	if s.Version == 0 {
		s.Version = 1
	}
	if s.Price == "" {
		s.Price = "0"
	}
	return nil
}
