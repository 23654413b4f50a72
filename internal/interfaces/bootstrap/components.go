// Package bootstrap builds the lifecycle engine's components from
// configuration. The HTTP container, the worker and the CLI commands share it
// so every entry point sweeps and publishes the same way.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/tillpoint/tillpoint/internal/application/subscription/usecases"
	"github.com/tillpoint/tillpoint/internal/domain/subscription"
	"github.com/tillpoint/tillpoint/internal/domain/tenant"
	"github.com/tillpoint/tillpoint/internal/infrastructure/cache"
	"github.com/tillpoint/tillpoint/internal/infrastructure/config"
	"github.com/tillpoint/tillpoint/internal/infrastructure/metrics"
	"github.com/tillpoint/tillpoint/internal/infrastructure/pubsub"
	"github.com/tillpoint/tillpoint/internal/infrastructure/repository"
	sharedConfig "github.com/tillpoint/tillpoint/internal/shared/config"
	"github.com/tillpoint/tillpoint/internal/shared/db"
	"github.com/tillpoint/tillpoint/internal/shared/logger"
)

const redisPingTimeout = 3 * time.Second

// Components are the stores and collaborators every use case is built from.
// Redis-backed parts are nil when Redis is not configured or unreachable.
type Components struct {
	DB               *gorm.DB
	Redis            *redis.Client
	SubscriptionRepo subscription.SubscriptionRepository
	TenantRepo       tenant.Repository
	TxManager        *db.TransactionManager
	Policy           subscription.LifecyclePolicy
	EventBus         *pubsub.RedisSubscriptionEventBus
	Checkpoints      *cache.SweepCheckpointStore
	SweepLock        *cache.SweepLock
	Metrics          *metrics.SweepMetrics
}

// NewComponents wires repositories and Redis collaborators. reg may be nil,
// in which case sweep metrics are not recorded.
func NewComponents(cfg *config.Config, gormDB *gorm.DB, redisClient *redis.Client, reg prometheus.Registerer, log logger.Interface) *Components {
	c := &Components{
		DB:               gormDB,
		Redis:            redisClient,
		SubscriptionRepo: repository.NewSubscriptionRepository(gormDB, log),
		TenantRepo:       repository.NewTenantRepository(gormDB, log),
		TxManager:        db.NewTransactionManager(gormDB),
		Policy:           LifecyclePolicy(cfg.Subscription),
	}

	if redisClient != nil {
		c.EventBus = pubsub.NewRedisSubscriptionEventBus(redisClient, log)
		c.Checkpoints = cache.NewSweepCheckpointStore(redisClient, cfg.Sweep.CheckpointTTL)
		c.SweepLock = cache.NewSweepLock(redisClient, cfg.Sweep.LockTTL, log)
	}
	if reg != nil {
		c.Metrics = metrics.NewSweepMetrics(reg)
	}

	return c
}

// Publisher returns the event bus as a use case dependency, or an untyped nil.
func (c *Components) Publisher() usecases.StatusChangePublisher {
	if c.EventBus == nil {
		return nil
	}
	return c.EventBus
}

func (c *Components) checkpointStore() usecases.CheckpointStore {
	if c.Checkpoints == nil {
		return nil
	}
	return c.Checkpoints
}

func (c *Components) observer() usecases.SweepObserver {
	if c.Metrics == nil {
		return nil
	}
	return c.Metrics
}

// NewSweepUseCase builds the sweep. With Redis configured every pass takes
// the shared lease, so the server, the worker and the CLI never run one
// pass each against the same checkpoint.
func (c *Components) NewSweepUseCase(cfg sharedConfig.SweepConfig, log logger.Interface) *usecases.ReconcileSubscriptionsUseCase {
	uc := usecases.NewReconcileSubscriptionsUseCase(
		c.SubscriptionRepo,
		c.TenantRepo,
		c.TxManager,
		c.Policy,
		c.Publisher(),
		c.checkpointStore(),
		c.observer(),
		usecases.SweepOptions{
			BatchSize:   cfg.BatchSize,
			Concurrency: cfg.Concurrency,
		},
		log.Named("sweep"),
	)
	if c.SweepLock != nil {
		uc.WithLock(c.SweepLock)
	}
	return uc
}

func (c *Components) NewProvisionTenantUseCase(log logger.Interface) *usecases.ProvisionTenantUseCase {
	return usecases.NewProvisionTenantUseCase(c.SubscriptionRepo, c.TenantRepo, c.TxManager, c.Publisher(), log)
}

func (c *Components) NewReactivateSubscriptionUseCase(log logger.Interface) *usecases.ReactivateSubscriptionUseCase {
	return usecases.NewReactivateSubscriptionUseCase(c.SubscriptionRepo, c.TenantRepo, c.TxManager, c.Publisher(), log)
}

func (c *Components) NewCancelSubscriptionUseCase(log logger.Interface) *usecases.CancelSubscriptionUseCase {
	return usecases.NewCancelSubscriptionUseCase(c.SubscriptionRepo, c.TenantRepo, c.TxManager, c.Publisher(), log)
}

// LifecyclePolicy maps configuration onto the evaluator's policy.
func LifecyclePolicy(cfg sharedConfig.SubscriptionConfig) subscription.LifecyclePolicy {
	return subscription.NewLifecyclePolicy(cfg.GracePeriodDays, cfg.ExpiringSoonThresholdDays)
}

// ConnectRedis opens a client and pings it. The caller decides whether a
// failure is fatal.
func ConnectRedis(ctx context.Context, cfg sharedConfig.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetAddr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.GetAddr(), err)
	}
	return client, nil
}
