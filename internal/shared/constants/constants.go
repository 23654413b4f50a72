package constants

const (
	// Environment constants
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	// HTTP Headers
	HeaderAuthorization = "Authorization"
	HeaderXRequestID    = "X-Request-ID"

	// Context keys set by the auth middleware
	ContextKeyTenantID  = "tenant_id"
	ContextKeyUserID    = "user_id"
	ContextKeyUserRole  = "user_role"
	ContextKeyRequestID = "request_id"

	// Context key set by the enforcement middleware
	ContextKeyAccessResult = "access_result"

	// Database table names
	TableSubscriptions = "subscriptions"
	TableTenants       = "tenants"

	// Redis keys and channels
	RedisChannelSubscriptionUpdated = "tillpoint:subscription:updated"
	RedisKeySweepCheckpoint         = "tillpoint:sweep:checkpoint"
	RedisKeySweepLock               = "tillpoint:sweep:lock"

	// Roles carried in access tokens
	RoleAdmin  = "admin"
	RoleMember = "member"
)
