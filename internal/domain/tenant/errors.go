package tenant

import "errors"

var (
	ErrTenantNotFound         = errors.New("tenant not found")
	ErrTenantAlreadyExists    = errors.New("tenant already exists")
	ErrConcurrentModification = errors.New("tenant was modified concurrently")
)
