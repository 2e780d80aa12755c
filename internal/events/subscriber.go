package events

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// AuditSubscriber consumes order and return events and writes them to the
// audit log. Run by the worker binary so the event stream is observable even
// when no other consumer is attached.
type AuditSubscriber struct {
	conn   *nats.Conn
	subs   []*nats.Subscription
	logger *slog.Logger
}

// NewAuditSubscriber connects to NATS and subscribes to the order and return
// subjects.
func NewAuditSubscriber(url string, logger *slog.Logger) (*AuditSubscriber, error) {
	conn, err := nats.Connect(url,
		nats.Name("zuri-worker"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, err
	}

	s := &AuditSubscriber{conn: conn, logger: logger}

	orderSub, err := conn.Subscribe("orders.>", s.handleOrder)
	if err != nil {
		conn.Close()
		return nil, err
	}
	returnSub, err := conn.Subscribe("returns.>", s.handleReturn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	s.subs = append(s.subs, orderSub, returnSub)

	logger.Info("audit subscriber attached", slog.String("url", url))
	return s, nil
}

func (s *AuditSubscriber) handleOrder(msg *nats.Msg) {
	var event OrderEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		s.logger.Warn("malformed order event",
			slog.String("subject", msg.Subject),
			slog.String("error", err.Error()),
		)
		return
	}
	s.logger.Info("order event",
		slog.String("subject", msg.Subject),
		slog.String("order_id", event.OrderID),
		slog.String("order_number", event.OrderNumber),
		slog.Int64("total_cents", event.TotalCents),
		slog.String("currency", event.Currency),
	)
}

func (s *AuditSubscriber) handleReturn(msg *nats.Msg) {
	var event ReturnEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		s.logger.Warn("malformed return event",
			slog.String("subject", msg.Subject),
			slog.String("error", err.Error()),
		)
		return
	}
	s.logger.Info("return event",
		slog.String("subject", msg.Subject),
		slog.String("return_id", event.ReturnID),
		slog.String("order_id", event.OrderID),
		slog.Int64("refund_amount_cents", event.RefundAmountCents),
	)
}

// Close unsubscribes and drains the connection.
func (s *AuditSubscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	if err := s.conn.Drain(); err != nil {
		s.logger.Warn("nats drain failed", slog.String("error", err.Error()))
	}
}
