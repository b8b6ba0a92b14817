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

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/avaldezmon/shoplane-backend/internal/cron"
	"github.com/avaldezmon/shoplane-backend/internal/orders"
	"github.com/avaldezmon/shoplane-backend/pkg/config"
	"github.com/avaldezmon/shoplane-backend/pkg/db"
	"github.com/avaldezmon/shoplane-backend/pkg/logger"
	"github.com/avaldezmon/shoplane-backend/pkg/metrics"
	pkgredis "github.com/avaldezmon/shoplane-backend/pkg/redis"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "cron-worker: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logg := logger.New(logger.Options{
		ServiceName: "shoplane-cron",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	redisClient, err := pkgredis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return multierr.Append(fmt.Errorf("connect redis: %w", err), dbClient.Close())
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	cronMetrics := metrics.NewCronJobMetrics(registry)
	webhookMetrics := metrics.NewWebhookMetrics(registry)

	ordersRepo := orders.NewRepository(dbClient.DB())

	watchJob, err := cron.NewPendingOrderWatchJob(cron.PendingOrderWatchJobParams{
		Logger:     logg,
		Repository: ordersRepo,
		Metrics:    webhookMetrics,
		MaxAge:     cfg.Cron.PendingOrderMaxAge,
	})
	if err != nil {
		return multierr.Combine(err, dbClient.Close(), redisClient.Close())
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron-cycle"), cfg.Cron.LockTTL)
	if err != nil {
		return multierr.Combine(err, dbClient.Close(), redisClient.Close())
	}

	svc, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(watchJob),
		Lock:     lock,
		Metrics:  cronMetrics,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		return multierr.Combine(err, dbClient.Close(), redisClient.Close())
	}

	metricsServer := &http.Server{
		Addr:              ":" + cfg.Cron.MetricsPort,
		Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logg.Info(logg.WithField(ctx, "addr", metricsServer.Addr), "metrics listening")
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "metrics server failed", err)
		}
	}()

	logg.Info(ctx, "cron worker started")
	runErr := svc.Run(ctx)
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return multierr.Combine(
		runErr,
		metricsServer.Shutdown(shutdownCtx),
		dbClient.Close(),
		redisClient.Close(),
	)
}
