package tenant

import "context"

// Repository persists tenant mirrors. GetByID returns nil, nil when the
// tenant does not exist.
type Repository interface {
	Create(ctx context.Context, tenant *Tenant) error
	GetByID(ctx context.Context, id string) (*Tenant, error)

	// Update writes the mirror fields with an optimistic version check.
	Update(ctx context.Context, tenant *Tenant) error

	// ListAfter pages through tenants ordered by ID.
	ListAfter(ctx context.Context, afterID string, limit int) ([]*Tenant, error)
}
