package tenant

import (
	"fmt"
	"time"

	vo "github.com/tillpoint/tillpoint/internal/domain/subscription/valueobjects"
)

// OperationalStatus is the capability flag other services read from the
// tenant record.
type OperationalStatus string

const (
	OperationalStatusActive    OperationalStatus = "active"
	OperationalStatusSuspended OperationalStatus = "suspended"
)

func (s OperationalStatus) String() string {
	return string(s)
}

func (s OperationalStatus) IsValid() bool {
	return s == OperationalStatusActive || s == OperationalStatusSuspended
}

// OperationalStatusFor derives the operational status from a subscription
// status. Only suspended, expired and cancelled suspend the tenant; a tenant
// without a subscription stays active on the mirror and is refused by the
// enforcement service instead.
func OperationalStatusFor(status vo.SubscriptionStatus) OperationalStatus {
	if status.SuspendsOperations() {
		return OperationalStatusSuspended
	}
	return OperationalStatusActive
}

// Tenant mirrors the canonical subscription status of a shop.
type Tenant struct {
	id                 string
	name               string
	subscriptionStatus vo.SubscriptionStatus
	operationalStatus  OperationalStatus
	version            int
	createdAt          time.Time
	updatedAt          time.Time
}

func NewTenant(id, name string, now time.Time) (*Tenant, error) {
	if id == "" {
		return nil, fmt.Errorf("tenant ID is required")
	}
	if name == "" {
		return nil, fmt.Errorf("tenant name is required")
	}

	return &Tenant{
		id:                id,
		name:              name,
		operationalStatus: OperationalStatusFor(""),
		version:           1,
		createdAt:         now,
		updatedAt:         now,
	}, nil
}

// ReconstructTenant rebuilds a tenant from persistence.
func ReconstructTenant(
	id, name string,
	subscriptionStatus vo.SubscriptionStatus,
	operationalStatus OperationalStatus,
	version int,
	createdAt, updatedAt time.Time,
) (*Tenant, error) {
	if id == "" {
		return nil, fmt.Errorf("tenant ID is required")
	}

	return &Tenant{
		id:                 id,
		name:               name,
		subscriptionStatus: subscriptionStatus,
		operationalStatus:  operationalStatus,
		version:            version,
		createdAt:          createdAt,
		updatedAt:          updatedAt,
	}, nil
}

func (t *Tenant) ID() string                                { return t.id }
func (t *Tenant) Name() string                              { return t.name }
func (t *Tenant) SubscriptionStatus() vo.SubscriptionStatus { return t.subscriptionStatus }
func (t *Tenant) OperationalStatus() OperationalStatus      { return t.operationalStatus }
func (t *Tenant) Version() int                              { return t.version }
func (t *Tenant) CreatedAt() time.Time                      { return t.createdAt }
func (t *Tenant) UpdatedAt() time.Time                      { return t.updatedAt }

// IsConsistentWith reports whether the mirror already reflects status.
func (t *Tenant) IsConsistentWith(status vo.SubscriptionStatus) bool {
	return t.subscriptionStatus == status && t.operationalStatus == OperationalStatusFor(status)
}

// SyncSubscriptionStatus copies the subscription status into the mirror and
// re-derives the operational status. It returns false when nothing changed.
func (t *Tenant) SyncSubscriptionStatus(status vo.SubscriptionStatus, now time.Time) bool {
	if t.IsConsistentWith(status) {
		return false
	}

	t.subscriptionStatus = status
	t.operationalStatus = OperationalStatusFor(status)
	t.updatedAt = now
	t.version++
	return true
}
