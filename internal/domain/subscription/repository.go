package subscription

import "context"

// SubscriptionRepository persists subscriptions. Getters return nil, nil when
// nothing matches. Update performs an optimistic version check and returns
// ErrConcurrentModification when the stored version moved on.
type SubscriptionRepository interface {
	Create(ctx context.Context, subscription *Subscription) error
	GetByID(ctx context.Context, id uint) (*Subscription, error)
	Update(ctx context.Context, subscription *Subscription) error

	// GetCanonicalByTenantID returns the tenant's newest non-cancelled
	// subscription, falling back to its newest cancelled one.
	GetCanonicalByTenantID(ctx context.Context, tenantID string) (*Subscription, error)
	// GetCanonicalByTenantIDs is the batched form of GetCanonicalByTenantID.
	// Tenants without any subscription are absent from the result.
	GetCanonicalByTenantIDs(ctx context.Context, tenantIDs []string) (map[string]*Subscription, error)

	// ListNonTerminal pages through subscriptions that are not cancelled,
	// ordered by ID, starting after afterID.
	ListNonTerminal(ctx context.Context, afterID uint, limit int) ([]*Subscription, error)
}
