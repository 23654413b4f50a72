package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/tillpoint/tillpoint/internal/shared/constants"
)

// TenantModel is the persisted tenant mirror.
type TenantModel struct {
	ID                 string `gorm:"primarykey;size:64"`
	Name               string `gorm:"not null;size:255"`
	SubscriptionStatus string `gorm:"size:20"`
	OperationalStatus  string `gorm:"not null;size:20;default:active;index:idx_operational_status"`
	Version            int    `gorm:"not null;default:1"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (TenantModel) TableName() string {
	return constants.TableTenants
}

func (t *TenantModel) BeforeCreate(tx *gorm.DB) error {
	if t.Version == 0 {
		t.Version = 1
	}
	return nil
}
