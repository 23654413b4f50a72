package routes

import (
	"github.com/gin-gonic/gin"

	vo "github.com/tillpoint/tillpoint/internal/domain/subscription/valueobjects"
	"github.com/tillpoint/tillpoint/internal/interfaces/http/handlers"
	"github.com/tillpoint/tillpoint/internal/interfaces/http/middleware"
)

type EnforcementRouteConfig struct {
	EnforcementHandler    *handlers.EnforcementHandler
	AuthMiddleware        *middleware.AuthMiddleware
	EnforcementMiddleware *middleware.EnforcementMiddleware
}

// SetupEnforcementRoutes configures the tenant-facing read path.
func SetupEnforcementRoutes(engine *gin.Engine, config *EnforcementRouteConfig) {
	enforcement := engine.Group("/enforcement")
	enforcement.Use(config.AuthMiddleware.RequireAuth(), config.AuthMiddleware.RequireTenant())
	{
		enforcement.GET("/access", config.EnforcementHandler.GetAccess)
		enforcement.GET("/warnings", config.EnforcementHandler.GetWarnings)
		enforcement.GET("/can-operate", config.EnforcementHandler.CanOperate)

		// one route per operation so the gate is fixed at registration
		check := enforcement.Group("/check")
		for _, op := range []vo.Operation{vo.OperationRead, vo.OperationWrite, vo.OperationPOS, vo.OperationReports} {
			check.GET("/"+string(op),
				config.EnforcementMiddleware.RequireOperation(op),
				config.EnforcementHandler.CheckOperation)
		}
	}
}
