package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tillpoint/tillpoint/internal/infrastructure/pubsub"
	"github.com/tillpoint/tillpoint/internal/interfaces/bootstrap"
	"github.com/tillpoint/tillpoint/internal/shared/constants"
	"github.com/tillpoint/tillpoint/internal/shared/logger"
)

var (
	env        string
	configPath string
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Subscription event tools",
	}

	cmd.PersistentFlags().StringVarP(&env, "env", "e", constants.EnvDevelopment, "Environment (development, test, production)")
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")

	cmd.AddCommand(newWatchCommand())
	return cmd
}

func newWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print subscription status changes as they are published",
		Long:  `Subscribe to the subscription update channel and print every event as one JSON line until interrupted.`,
		RunE:  runWatch,
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap.Init(bootstrap.ResolveEnv(env), configPath)
	if err != nil {
		return err
	}
	defer logger.Sync()

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := bootstrap.ConnectRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer client.Close()

	bus := pubsub.NewRedisSubscriptionEventBus(client, log)
	out := cmd.OutOrStdout()

	log.Infow("watching subscription events", "channel", constants.RedisChannelSubscriptionUpdated)

	err = bus.SubscribeOrdered(ctx, printEvents(out, log))
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// printEvents writes each event as one JSON line.
func printEvents(out io.Writer, log logger.Interface) pubsub.SubscriptionEventHandler {
	return func(_ context.Context, event pubsub.SubscriptionUpdatedEvent) {
		line, err := json.Marshal(event)
		if err != nil {
			log.Warnw("failed to encode subscription event", "tenant_id", event.TenantID, "error", err)
			return
		}
		fmt.Fprintln(out, string(line))
	}
}
