package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zuricommerce/zuri/internal"
	"github.com/zuricommerce/zuri/internal/billing"
	"github.com/zuricommerce/zuri/internal/events"
	"github.com/zuricommerce/zuri/internal/repository"
	"github.com/zuricommerce/zuri/internal/service"
	"github.com/zuricommerce/zuri/internal/worker"
)

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	store := repository.NewStore(pool)

	var provider billing.Provider
	if cfg.Stripe.SecretKey == "" {
		logger.Warn("no Stripe key configured, using mock billing provider")
		provider = &billing.MockProvider{}
	} else {
		provider, err = billing.NewStripeProvider(billing.StripeConfig{
			APIKey:        cfg.Stripe.SecretKey,
			WebhookSecret: cfg.Stripe.WebhookSecret,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize Stripe provider: %w", err)
		}
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.Nats.Enabled {
		natsPub, err := events.NewNatsPublisher(cfg.Nats.URL, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer natsPub.Close()
		publisher = natsPub

		audit, err := events.NewAuditSubscriber(cfg.Nats.URL, logger)
		if err != nil {
			return fmt.Errorf("failed to attach audit subscriber: %w", err)
		}
		defer audit.Close()
	}

	orderService := service.NewOrderService(store, provider, publisher, logger)
	sessionService := service.NewSessionService(store, cfg.Session.TTL, logger)

	w := worker.NewWorker(orderService, sessionService, worker.Config{
		PendingPaymentTTL: cfg.Orders.PendingPaymentTTL,
	}, logger)

	if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "worker error: %v\n", err)
		os.Exit(1)
	}
}
