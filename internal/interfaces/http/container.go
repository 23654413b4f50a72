package http

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/tillpoint/tillpoint/internal/application/enforcement"
	"github.com/tillpoint/tillpoint/internal/application/subscription/usecases"
	"github.com/tillpoint/tillpoint/internal/infrastructure/auth"
	"github.com/tillpoint/tillpoint/internal/infrastructure/config"
	"github.com/tillpoint/tillpoint/internal/infrastructure/scheduler"
	"github.com/tillpoint/tillpoint/internal/interfaces/bootstrap"
	"github.com/tillpoint/tillpoint/internal/interfaces/http/handlers"
	"github.com/tillpoint/tillpoint/internal/interfaces/http/middleware"
	"github.com/tillpoint/tillpoint/internal/shared/logger"
	"github.com/tillpoint/tillpoint/internal/shared/utils"
)

// Container holds the infrastructure components, use cases, handlers and
// background services of the HTTP process. It wires everything together and
// provides Shutdown() for graceful termination.
type Container struct {
	// Core infrastructure
	engine   *gin.Engine
	db       *gorm.DB
	cfg      *config.Config
	log      logger.Interface
	redis    *redis.Client
	registry *prometheus.Registry

	components *bootstrap.Components

	// Use cases and services
	enforcementService *enforcement.Service
	sweepUseCase       *usecases.ReconcileSubscriptionsUseCase

	// Handlers
	enforcementHandler       *handlers.EnforcementHandler
	subscriptionAdminHandler *handlers.SubscriptionAdminHandler
	healthHandler            *handlers.HealthHandler

	// Middlewares
	authMiddleware        *middleware.AuthMiddleware
	enforcementMiddleware *middleware.EnforcementMiddleware

	// Background services
	schedulerManager *scheduler.SchedulerManager
}

// NewContainer builds every dependency of the HTTP process. redisClient may
// be nil; events and sweep checkpoints are then disabled.
func NewContainer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, log logger.Interface) (*Container, error) {
	utils.RegisterBindingValidators()

	c := &Container{
		engine:   gin.New(),
		db:       db,
		cfg:      cfg,
		log:      log,
		redis:    redisClient,
		registry: bootstrap.NewMetricsRegistry(),
	}

	c.components = bootstrap.NewComponents(cfg, db, redisClient, c.registry, log)

	c.initServices()
	c.initHandlers()
	if err := c.initScheduler(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Container) initServices() {
	c.enforcementService = enforcement.NewService(
		c.components.SubscriptionRepo,
		c.components.Policy,
		enforcement.Options{FreeMode: c.cfg.Enforcement.FreeMode},
		c.log.Named("enforcement"),
	)
	if c.cfg.Enforcement.FreeMode {
		c.log.Warnw("access enforcement disabled, every tenant gets full access")
	}

	c.sweepUseCase = c.components.NewSweepUseCase(c.cfg.Sweep, c.log)
}

func (c *Container) initHandlers() {
	jwtSvc := auth.NewJWTService(c.cfg.Auth.JWT.Secret, c.cfg.Auth.JWT.AccessExpMinutes)

	c.authMiddleware = middleware.NewAuthMiddleware(jwtSvc, c.log)
	c.enforcementMiddleware = middleware.NewEnforcementMiddleware(c.enforcementService, c.log)

	c.enforcementHandler = handlers.NewEnforcementHandler(c.enforcementService, c.log)
	c.subscriptionAdminHandler = handlers.NewSubscriptionAdminHandler(
		c.components.NewProvisionTenantUseCase(c.log),
		c.components.NewReactivateSubscriptionUseCase(c.log),
		c.components.NewCancelSubscriptionUseCase(c.log),
		c.sweepUseCase,
		c.cfg.Sweep.Timeout,
		c.log,
	)

	checks := map[string]handlers.Pinger{
		"database": handlers.PingerFunc(func(ctx context.Context) error {
			sqlDB, err := c.db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}),
	}
	if c.redis != nil {
		checks["redis"] = handlers.PingerFunc(func(ctx context.Context) error {
			return c.redis.Ping(ctx).Err()
		})
	}
	c.healthHandler = handlers.NewHealthHandler(checks, c.log)
}

func (c *Container) initScheduler() error {
	if !c.cfg.Sweep.Enabled {
		c.log.Infow("scheduled sweep disabled")
		return nil
	}

	manager, err := scheduler.NewSchedulerManager(c.log.Named("scheduler"))
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	if err := manager.RegisterSweepJob(c.sweepUseCase, c.cfg.Sweep.Interval, c.cfg.Sweep.Timeout); err != nil {
		return fmt.Errorf("failed to register sweep job: %w", err)
	}
	c.schedulerManager = manager
	return nil
}

// StartBackground starts the scheduler when the sweep is enabled.
func (c *Container) StartBackground() {
	if c.schedulerManager != nil {
		c.schedulerManager.Start()
	}
}

// Shutdown stops background services. Database and Redis connections are
// owned by the caller.
func (c *Container) Shutdown() error {
	var errs []error
	if c.schedulerManager != nil {
		if err := c.schedulerManager.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("scheduler: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Registry exposes the process metrics registry.
func (c *Container) Registry() *prometheus.Registry {
	return c.registry
}
