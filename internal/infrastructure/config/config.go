package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"

	sharedConfig "github.com/tillpoint/tillpoint/internal/shared/config"
)

type Config struct {
	Server       sharedConfig.ServerConfig       `mapstructure:"server"`
	Database     sharedConfig.DatabaseConfig     `mapstructure:"database"`
	Logger       sharedConfig.LoggerConfig       `mapstructure:"logger"`
	Auth         sharedConfig.AuthConfig         `mapstructure:"auth"`
	Redis        sharedConfig.RedisConfig        `mapstructure:"redis"`
	Subscription sharedConfig.SubscriptionConfig `mapstructure:"subscription"`
	Enforcement  sharedConfig.EnforcementConfig  `mapstructure:"enforcement"`
	Sweep        sharedConfig.SweepConfig        `mapstructure:"sweep"`
	Worker       sharedConfig.WorkerConfig       `mapstructure:"worker"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load reads configs/config.yaml (or configPath when set) and overlays
// TILLPOINT_* environment variables. A missing config file is not an error;
// defaults and the environment are enough to run a sweep.
func Load(env string, configPath ...string) (*Config, error) {
	v := viper.New()

	if len(configPath) > 0 && configPath[0] != "" {
		v.SetConfigFile(configPath[0])
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath("../../configs")
	}

	v.SetEnvPrefix("TILLPOINT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// unprefixed names used by existing deployments
	_ = v.BindEnv("subscription.grace_period_days", "TILLPOINT_SUBSCRIPTION_GRACE_PERIOD_DAYS", "GRACE_PERIOD_DAYS")
	_ = v.BindEnv("subscription.expiring_soon_threshold_days", "TILLPOINT_SUBSCRIPTION_EXPIRING_SOON_THRESHOLD_DAYS", "EXPIRING_SOON_THRESHOLD_DAYS")
	_ = v.BindEnv("enforcement.free_mode", "TILLPOINT_ENFORCEMENT_FREE_MODE", "FREE_MODE")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if env != "" && env != "default" {
		v.Set("server.mode", env)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the last loaded configuration.
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

// Validate rejects values the lifecycle engine cannot work with.
func (c *Config) Validate() error {
	if c.Subscription.GracePeriodDays < 0 {
		return fmt.Errorf("subscription.grace_period_days must not be negative: %d", c.Subscription.GracePeriodDays)
	}
	if c.Subscription.ExpiringSoonThresholdDays < 0 {
		return fmt.Errorf("subscription.expiring_soon_threshold_days must not be negative: %d", c.Subscription.ExpiringSoonThresholdDays)
	}
	if c.Sweep.BatchSize <= 0 {
		return fmt.Errorf("sweep.batch_size must be positive: %d", c.Sweep.BatchSize)
	}
	if c.Sweep.Concurrency <= 0 {
		return fmt.Errorf("sweep.concurrency must be positive: %d", c.Sweep.Concurrency)
	}
	if c.Sweep.LockTTL > 0 && c.Sweep.LockTTL < c.Sweep.Timeout {
		return fmt.Errorf("sweep.lock_ttl (%s) must not be shorter than sweep.timeout (%s)", c.Sweep.LockTTL, c.Sweep.Timeout)
	}
	if c.Database.Driver != "mysql" && c.Database.Driver != "sqlite" {
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.timezone", "UTC")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.username", "root")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.database", "tillpoint_dev")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_path", "stdout")

	v.SetDefault("auth.jwt.secret", "change-me-in-production")
	v.SetDefault("auth.jwt.access_exp_minutes", 15)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("subscription.grace_period_days", 7)
	v.SetDefault("subscription.expiring_soon_threshold_days", 3)

	v.SetDefault("enforcement.free_mode", false)

	v.SetDefault("sweep.enabled", true)
	v.SetDefault("sweep.interval", time.Hour)
	v.SetDefault("sweep.timeout", 30*time.Minute)
	v.SetDefault("sweep.batch_size", 200)
	v.SetDefault("sweep.concurrency", 8)
	v.SetDefault("sweep.checkpoint_ttl", 6*time.Hour)
	v.SetDefault("sweep.lock_ttl", 45*time.Minute)

	v.SetDefault("worker.metrics_addr", ":9091")
}
