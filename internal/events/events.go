// Package events publishes order lifecycle notifications so downstream
// consumers (fulfillment, email, analytics) can react without being in the
// request path.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Subjects for order lifecycle events.
const (
	SubjectOrderPaid       = "orders.paid"
	SubjectOrderCancelled  = "orders.cancelled"
	SubjectOrderRefunded   = "orders.refunded"
	SubjectReturnCompleted = "returns.completed"
)

// OrderEvent is the payload published on every orders.* subject.
type OrderEvent struct {
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	UserID      string    `json:"user_id"`
	TotalCents  int64     `json:"total_cents"`
	Currency    string    `json:"currency"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// ReturnEvent is the payload published on returns.* subjects.
type ReturnEvent struct {
	ReturnID          string    `json:"return_id"`
	OrderID           string    `json:"order_id"`
	RefundAmountCents int64     `json:"refund_amount_cents"`
	RefundMethod      string    `json:"refund_method"`
	OccurredAt        time.Time `json:"occurred_at"`
}

// Publisher emits domain events. Implementations must be safe for concurrent
// use; publishing is best-effort and never fails the originating operation.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload any)
	Close()
}

// NatsPublisher publishes events to a NATS server.
type NatsPublisher struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// NewNatsPublisher connects to the NATS server at url. The connection
// reconnects automatically with unlimited retries.
func NewNatsPublisher(url string, logger *slog.Logger) (*NatsPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("zuri-server"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", slog.String("error", err.Error()))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", slog.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, err
	}
	return &NatsPublisher{conn: conn, logger: logger}, nil
}

// Publish marshals payload and sends it on subject. Failures are logged, not
// returned; an unreachable broker must not break checkout or refunds.
func (p *NatsPublisher) Publish(_ context.Context, subject string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("failed to marshal event payload",
			slog.String("subject", subject),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.Error("failed to publish event",
			slog.String("subject", subject),
			slog.String("error", err.Error()),
		)
		return
	}
	p.logger.Debug("event published", slog.String("subject", subject))
}

// Close drains the connection so buffered messages flush before shutdown.
func (p *NatsPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.logger.Warn("nats drain failed", slog.String("error", err.Error()))
	}
}

// NoopPublisher discards events. Used when NATS is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, any) {}
func (NoopPublisher) Close()                               {}
