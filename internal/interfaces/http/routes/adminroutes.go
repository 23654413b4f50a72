package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/tillpoint/tillpoint/internal/interfaces/http/handlers"
	"github.com/tillpoint/tillpoint/internal/interfaces/http/middleware"
)

// AdminRouteConfig holds dependencies for admin-only routes.
type AdminRouteConfig struct {
	SubscriptionAdminHandler *handlers.SubscriptionAdminHandler
	AuthMiddleware           *middleware.AuthMiddleware
}

// SetupAdminRoutes configures admin-only routes.
func SetupAdminRoutes(engine *gin.Engine, cfg *AdminRouteConfig) {
	admin := engine.Group("/admin")
	admin.Use(cfg.AuthMiddleware.RequireAuth(), cfg.AuthMiddleware.RequireAdmin())
	{
		admin.POST("/tenants", cfg.SubscriptionAdminHandler.ProvisionTenant)
		admin.POST("/tenants/:tenant_id/subscription/reactivate", cfg.SubscriptionAdminHandler.ReactivateSubscription)
		admin.POST("/tenants/:tenant_id/subscription/cancel", cfg.SubscriptionAdminHandler.CancelSubscription)

		admin.POST("/sweeps", cfg.SubscriptionAdminHandler.RunSweep)
	}
}
