// Package worker runs the periodic maintenance tasks: expiring unpaid
// orders and purging dead sessions.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/zuricommerce/zuri/internal/domain"
)

// Config holds worker configuration.
type Config struct {
	// WorkerID uniquely identifies this worker instance in logs.
	WorkerID string

	// Interval is how often maintenance runs.
	Interval time.Duration

	// PendingPaymentTTL is the age at which a payment-pending order is
	// cancelled.
	PendingPaymentTTL time.Duration
}

// Worker periodically cancels expired pending orders and purges expired
// sessions.
type Worker struct {
	config   Config
	orders   domain.OrderService
	sessions domain.SessionService
	logger   *slog.Logger
}

// NewWorker creates a maintenance worker.
func NewWorker(orders domain.OrderService, sessions domain.SessionService, config Config, logger *slog.Logger) *Worker {
	if config.WorkerID == "" {
		config.WorkerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}
	if config.Interval == 0 {
		config.Interval = time.Minute
	}
	if config.PendingPaymentTTL == 0 {
		config.PendingPaymentTTL = 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		config:   config,
		orders:   orders,
		sessions: sessions,
		logger:   logger,
	}
}

// Start runs maintenance until the context is cancelled. The first run
// happens immediately so a restarted worker catches up without waiting a
// full interval.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("worker starting",
		"worker_id", w.config.WorkerID,
		"interval", w.config.Interval,
		"pending_payment_ttl", w.config.PendingPaymentTTL,
	)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	w.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker stopping", "worker_id", w.config.WorkerID)
			return ctx.Err()
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

// RunOnce performs a single maintenance pass. Exposed for one-shot
// invocations.
func (w *Worker) RunOnce(ctx context.Context) {
	w.runOnce(ctx)
}

func (w *Worker) runOnce(ctx context.Context) {
	cancelled, err := w.orders.CancelExpiredPendingOrders(ctx, w.config.PendingPaymentTTL)
	if err != nil {
		w.logger.Error("cancelling expired pending orders", "error", err)
	} else if cancelled > 0 {
		w.logger.Info("cancelled expired pending orders", "count", cancelled)
	}

	purged, err := w.sessions.PurgeExpiredSessions(ctx)
	if err != nil {
		w.logger.Error("purging expired sessions", "error", err)
	} else if purged > 0 {
		w.logger.Info("purged expired sessions", "count", purged)
	}
}
