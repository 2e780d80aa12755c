package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/zuricommerce/zuri/internal"
	"github.com/zuricommerce/zuri/internal/billing"
	"github.com/zuricommerce/zuri/internal/events"
	"github.com/zuricommerce/zuri/internal/handler/api"
	"github.com/zuricommerce/zuri/internal/handler/webhook"
	"github.com/zuricommerce/zuri/internal/middleware"
	"github.com/zuricommerce/zuri/internal/pdf"
	"github.com/zuricommerce/zuri/internal/repository"
	"github.com/zuricommerce/zuri/internal/routes"
	"github.com/zuricommerce/zuri/internal/service"
	"github.com/zuricommerce/zuri/internal/storage"
	"github.com/zuricommerce/zuri/internal/tax"
	"github.com/zuricommerce/zuri/internal/telemetry"
)

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// database/sql connection used only for migrations.
	logger.Info("connecting to database")
	sqlDB, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	logger.Info("running database migrations")
	if err := internal.RunMigrations(sqlDB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

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

	var calc tax.Calculator
	switch cfg.Tax.Mode {
	case "percentage":
		calc = tax.NewPercentageCalculator(cfg.Tax.RateBasisPoints)
	default:
		calc = tax.NewNoTaxCalculator()
	}

	files, err := storage.NewLocalStorage(cfg.Storage.LocalPath, cfg.Storage.LocalURL)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.Nats.Enabled {
		natsPub, err := events.NewNatsPublisher(cfg.Nats.URL, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer natsPub.Close()
		publisher = natsPub
	}

	renderer := pdf.NewRenderer(pdf.Vendor{
		Name:    "Zuri Beauty Ltd",
		Address: "Riverside Drive, Nairobi, Kenya",
		Email:   "billing@zuribeauty.co.ke",
		Phone:   "+254 700 000 000",
	})

	metrics := telemetry.NewBusinessMetrics("zuri")
	httpMetrics := middleware.NewMetrics("zuri")

	orderService := service.NewOrderService(store, provider, publisher, logger)
	checkoutService := service.NewCheckoutService(store, orderService, provider, logger)
	invoiceService := service.NewInvoiceService(store, files, calc, renderer, logger)
	returnService := service.NewReturnService(store, provider, publisher, logger)
	productService := service.NewProductService(store, logger)
	sessionService := service.NewSessionService(store, cfg.Session.TTL, logger)

	stripeWebhook := webhook.NewStripeHandler(provider, orderService, store, cfg.Stripe.WebhookSecret, metrics, logger)

	r := routes.New(routes.Deps{
		Logger:         logger,
		Sessions:       sessionService,
		Metrics:        httpMetrics,
		Auth:           api.NewAuthHandler(sessionService, cfg.Session.TTL, cfg.Env == "prod", logger),
		Products:       api.NewProductHandler(productService, logger),
		Orders:         api.NewOrderHandler(orderService, checkoutService, metrics, logger),
		Invoices:       api.NewInvoiceHandler(invoiceService, metrics, logger),
		Returns:        api.NewReturnHandler(returnService, metrics, logger),
		StripeWebhook:  stripeWebhook.HandleWebhook,
		StaticFilesDir: cfg.Storage.LocalPath,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}
