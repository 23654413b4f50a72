package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tillpoint/tillpoint/internal/infrastructure/database"
	"github.com/tillpoint/tillpoint/internal/infrastructure/scheduler"
	"github.com/tillpoint/tillpoint/internal/interfaces/bootstrap"
	"github.com/tillpoint/tillpoint/internal/shared/constants"
	"github.com/tillpoint/tillpoint/internal/shared/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Parse environment from command line or env variable
	env := constants.EnvDevelopment
	if len(os.Args) > 1 {
		env = os.Args[1]
	}
	env = bootstrap.ResolveEnv(env)

	cfg, log, err := bootstrap.InitWithDatabase(env, "")
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer database.Close()

	log = log.Named("worker")
	log.Infow("starting subscription sweep worker",
		"environment", env,
		"interval", cfg.Sweep.Interval,
		"batch_size", cfg.Sweep.BatchSize,
		"concurrency", cfg.Sweep.Concurrency,
	)

	redisClient, err := bootstrap.ConnectRedis(context.Background(), cfg.Redis)
	if err != nil {
		log.Warnw("redis unavailable, sweeping without events or checkpoint", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
		log.Infow("redis connection established", "address", cfg.Redis.GetAddr())
	}

	registry := bootstrap.NewMetricsRegistry()
	components := bootstrap.NewComponents(cfg, database.Get(), redisClient, registry, log)

	manager, err := scheduler.NewSchedulerManager(log.Named("scheduler"))
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	if err := manager.RegisterSweepJob(components.NewSweepUseCase(cfg.Sweep, log), cfg.Sweep.Interval, cfg.Sweep.Timeout); err != nil {
		return fmt.Errorf("failed to register sweep job: %w", err)
	}

	var metricsSrv *http.Server
	if cfg.Worker.MetricsAddr != "" {
		metricsSrv = bootstrap.NewMetricsServer(cfg.Worker.MetricsAddr, registry)
		go func() {
			log.Infow("metrics server starting", "address", cfg.Worker.MetricsAddr)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorw("metrics server failed", "error", err)
			}
		}()
	}

	manager.Start()
	log.Infow("subscription sweep worker started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	log.Infow("received signal, shutting down", "signal", sig)
	if err := manager.Stop(); err != nil {
		log.Errorw("scheduler stopped with errors", "error", err)
	}
	if metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsSrv.Shutdown(ctx); err != nil {
			log.Errorw("metrics server forced to shutdown", "error", err)
		}
	}

	log.Infow("subscription sweep worker stopped")
	return nil
}
