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
	"go.uber.org/multierr"

	"github.com/avaldezmon/shoplane-backend/api/controllers"
	"github.com/avaldezmon/shoplane-backend/api/routes"
	"github.com/avaldezmon/shoplane-backend/internal/cart"
	"github.com/avaldezmon/shoplane-backend/internal/catalog"
	"github.com/avaldezmon/shoplane-backend/internal/checkout"
	"github.com/avaldezmon/shoplane-backend/internal/orders"
	"github.com/avaldezmon/shoplane-backend/internal/stores"
	stripewebhook "github.com/avaldezmon/shoplane-backend/internal/webhooks/stripe"
	"github.com/avaldezmon/shoplane-backend/pkg/config"
	"github.com/avaldezmon/shoplane-backend/pkg/db"
	"github.com/avaldezmon/shoplane-backend/pkg/logger"
	"github.com/avaldezmon/shoplane-backend/pkg/metrics"
	"github.com/avaldezmon/shoplane-backend/pkg/migrate"
	pkgredis "github.com/avaldezmon/shoplane-backend/pkg/redis"
	pkgstripe "github.com/avaldezmon/shoplane-backend/pkg/stripe"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "api: %v\n", err)
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
		ServiceName: "shoplane-api",
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

	stripeClient, err := pkgstripe.NewClient(ctx, cfg.Stripe, logg)
	if err != nil {
		return multierr.Combine(fmt.Errorf("init stripe: %w", err), dbClient.Close(), redisClient.Close())
	}

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return multierr.Combine(fmt.Errorf("auto migrate: %w", err), dbClient.Close(), redisClient.Close())
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	webhookMetrics := metrics.NewWebhookMetrics(registry)

	storesRepo := stores.NewRepository(dbClient.DB())
	catalogRepo := catalog.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())

	cartStore, err := cart.NewStore(redisClient, cfg.Cart.TTL)
	if err != nil {
		return err
	}
	cartService, err := cart.NewService(cartStore, catalogRepo)
	if err != nil {
		return err
	}

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Orders:   ordersRepo,
		Products: catalogRepo,
		Stores:   storesRepo,
		Carts:    cartService,
		Tx:       dbClient,
		Sessions: checkout.NewStripeClient(stripeClient),
		Config:   cfg.Checkout,
		Logger:   logg,
	})
	if err != nil {
		return err
	}

	ordersService, err := orders.NewService(ordersRepo)
	if err != nil {
		return err
	}

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		OrdersRepo:     ordersRepo,
		Metrics:        webhookMetrics,
		Logger:         logg,
		CASMaxAttempts: cfg.Webhook.CASMaxAttempts,
	})
	if err != nil {
		return err
	}
	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Webhook.DedupeTTL, "stripe")
	if err != nil {
		return err
	}

	router := routes.NewRouter(routes.RouterParams{
		Logger:        logg,
		Stores:        storesRepo,
		Catalog:       catalogRepo,
		Carts:         cartService,
		Checkout:      checkoutService,
		Orders:        ordersService,
		Webhooks:      webhookService,
		WebhookGuard:  webhookGuard,
		SigningSecret: stripeClient.SigningSecret(),
		HealthDeps: map[string]controllers.Pinger{
			"database": dbClient,
			"redis":    redisClient,
		},
		Registry: registry,
	})

	server := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(logg.WithField(ctx, "addr", server.Addr), "api listening")
		serveErr <- server.ListenAndServe()
	}()

	var runErr error
	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
		logg.Info(context.Background(), "shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			runErr = fmt.Errorf("http shutdown: %w", err)
		}
	}

	return multierr.Combine(runErr, dbClient.Close(), redisClient.Close())
}
