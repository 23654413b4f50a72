package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/tillpoint/tillpoint/internal/interfaces/http/middleware"
	"github.com/tillpoint/tillpoint/internal/interfaces/http/routes"

	_ "github.com/tillpoint/tillpoint/docs"
)

// Router represents the HTTP router configuration
type Router struct {
	*Container
}

func NewRouter(container *Container) *Router {
	return &Router{Container: container}
}

// SetupRoutes configures all HTTP routes
func (r *Router) SetupRoutes() {
	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.Logger(r.log))
	r.engine.Use(middleware.Recovery(r.log))
	r.engine.Use(middleware.CORS(r.cfg.Server.AllowedOrigins))
	r.engine.Use(middleware.SecurityHeaders())

	r.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.engine.GET("/health", r.healthHandler.HealthCheck)
	r.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})))

	routes.SetupEnforcementRoutes(r.engine, &routes.EnforcementRouteConfig{
		EnforcementHandler:    r.enforcementHandler,
		AuthMiddleware:        r.authMiddleware,
		EnforcementMiddleware: r.enforcementMiddleware,
	})

	routes.SetupAdminRoutes(r.engine, &routes.AdminRouteConfig{
		SubscriptionAdminHandler: r.subscriptionAdminHandler,
		AuthMiddleware:           r.authMiddleware,
	})
}

// GetEngine returns the Gin engine
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
