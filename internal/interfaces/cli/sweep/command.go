package sweep

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/tillpoint/tillpoint/internal/application/subscription/usecases"
	"github.com/tillpoint/tillpoint/internal/infrastructure/database"
	"github.com/tillpoint/tillpoint/internal/interfaces/bootstrap"
	"github.com/tillpoint/tillpoint/internal/shared/biztime"
	"github.com/tillpoint/tillpoint/internal/shared/constants"
	"github.com/tillpoint/tillpoint/internal/shared/logger"
)

var (
	env        string
	configPath string
	nowFlag    string
	noRedis    bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run one subscription reconciliation pass",
		Long: `Evaluate every open subscription, write status transitions, repair tenant
status mirrors and print the pass summary as JSON. Per-tenant failures are
reported in the summary; the command fails only when the pass cannot run.`,
		RunE: run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", constants.EnvDevelopment, "Environment (development, test, production)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")
	cmd.Flags().StringVar(&nowFlag, "now", "", "Evaluate as of this RFC3339 instant instead of the current time")
	cmd.Flags().BoolVar(&noRedis, "no-redis", false, "Skip Redis; no events are published and no checkpoint is kept")

	return cmd
}

// parseNow returns the current UTC time when value is empty.
func parseNow(value string) (time.Time, error) {
	if value == "" {
		return biztime.NowUTC(), nil
	}
	now, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --now %q, expected RFC3339: %w", value, err)
	}
	return now.UTC(), nil
}

func run(cmd *cobra.Command, args []string) error {
	now, err := parseNow(nowFlag)
	if err != nil {
		return err
	}

	cfg, log, err := bootstrap.InitWithDatabase(bootstrap.ResolveEnv(env), configPath)
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer database.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var redisClient *redis.Client
	if !noRedis {
		redisClient, err = bootstrap.ConnectRedis(ctx, cfg.Redis)
		if err != nil {
			log.Warnw("redis unavailable, running sweep without events or checkpoint", "error", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	components := bootstrap.NewComponents(cfg, database.Get(), redisClient, nil, log)
	sweepUC := components.NewSweepUseCase(cfg.Sweep, log)

	sweepCtx := ctx
	if cfg.Sweep.Timeout > 0 {
		var cancel context.CancelFunc
		sweepCtx, cancel = context.WithTimeout(ctx, cfg.Sweep.Timeout)
		defer cancel()
	}

	summary, sweepErr := sweepUC.Sweep(sweepCtx, now)
	if summary != nil {
		if err := writeSummary(cmd.OutOrStdout(), summary); err != nil {
			return err
		}
	}
	if sweepErr != nil {
		return sweepErr
	}
	return nil
}

func writeSummary(w io.Writer, summary *usecases.SweepSummary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}
