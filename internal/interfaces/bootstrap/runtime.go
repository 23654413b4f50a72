package bootstrap

import (
	"fmt"
	"os"

	"github.com/tillpoint/tillpoint/internal/infrastructure/config"
	"github.com/tillpoint/tillpoint/internal/infrastructure/database"
	"github.com/tillpoint/tillpoint/internal/shared/biztime"
	"github.com/tillpoint/tillpoint/internal/shared/logger"
)

// ResolveEnv lets the ENV variable override the --env flag.
func ResolveEnv(flagValue string) string {
	if envVar := os.Getenv("ENV"); envVar != "" {
		return envVar
	}
	return flagValue
}

// Init loads configuration and sets up the process logger and business
// timezone. Every command calls it before touching the database.
func Init(env, configPath string) (*config.Config, logger.Interface, error) {
	cfg, err := config.Load(env, configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Server.Mode = GinMode(env)

	if err := logger.Init(&cfg.Logger, cfg.Server.Mode); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := biztime.Init(cfg.Server.Timezone); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize business timezone: %w", err)
	}

	return cfg, logger.NewLogger(), nil
}

// InitWithDatabase is Init followed by database.Init. The caller closes the
// database with database.Close.
func InitWithDatabase(env, configPath string) (*config.Config, logger.Interface, error) {
	cfg, log, err := Init(env, configPath)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Init(&cfg.Database); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return cfg, log, nil
}

// GinMode maps a deployment environment onto a gin mode.
func GinMode(environment string) string {
	switch environment {
	case "production", "prod", "release":
		return "release"
	case "test", "testing":
		return "test"
	default:
		return "debug"
	}
}
