// Package webhook receives payment gateway callbacks and feeds them into the
// order lifecycle.
package webhook

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v82"

	"github.com/zuricommerce/zuri/internal/billing"
	"github.com/zuricommerce/zuri/internal/domain"
	"github.com/zuricommerce/zuri/internal/handler"
	"github.com/zuricommerce/zuri/internal/repository"
	"github.com/zuricommerce/zuri/internal/telemetry"
)

// maxPayloadBytes bounds the webhook body we are willing to read.
const maxPayloadBytes = 1 << 20

// OrderLookup resolves an order from its payment intent when the gateway
// metadata does not carry the order id.
type OrderLookup interface {
	GetOrderByPaymentIntentID(ctx context.Context, paymentIntentID string) (repository.Order, error)
}

// StripeHandler processes Stripe webhook events.
type StripeHandler struct {
	provider billing.Provider
	orders   domain.OrderService
	lookup   OrderLookup
	secret   string
	metrics  *telemetry.BusinessMetrics
	logger   *slog.Logger
}

// NewStripeHandler creates a Stripe webhook handler. metrics may be nil.
func NewStripeHandler(provider billing.Provider, orders domain.OrderService, lookup OrderLookup, secret string, metrics *telemetry.BusinessMetrics, logger *slog.Logger) *StripeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StripeHandler{
		provider: provider,
		orders:   orders,
		lookup:   lookup,
		secret:   secret,
		metrics:  metrics,
		logger:   logger,
	}
}

// HandleWebhook processes incoming Stripe webhook events.
//
// The gateway retries on any non-2xx response, so event handling errors other
// than signature and parse failures are acknowledged with 200 and logged. A
// replayed event is detected by its event id and acknowledged without
// re-applying.
func (h *StripeHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		handler.ErrorResponse(w, r, domain.Errorf(domain.EINVALID, "", "Error reading request body"))
		return
	}

	signature := r.Header.Get("Stripe-Signature")
	if signature == "" {
		handler.ErrorResponse(w, r, domain.Errorf(domain.EINVALID, "", "Missing signature"))
		return
	}

	if err := h.provider.VerifyWebhookSignature(payload, signature, h.secret); err != nil {
		h.logger.Warn("webhook signature verification failed", "error", err)
		handler.ErrorResponse(w, r, domain.Errorf(domain.EUNAUTHORIZED, "", "Invalid signature"))
		return
	}

	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		handler.ErrorResponse(w, r, domain.Errorf(domain.EINVALID, "", "Invalid JSON"))
		return
	}

	h.logger.Info("webhook event received", "type", event.Type, "event_id", event.ID)
	if h.metrics != nil {
		h.metrics.WebhookReceived.WithLabelValues(string(event.Type)).Inc()
		defer func() {
			h.metrics.WebhookLatency.WithLabelValues(string(event.Type)).Observe(time.Since(start).Seconds())
		}()
	}

	switch event.Type {
	case "payment_intent.succeeded":
		h.handlePaymentIntentSucceeded(r.Context(), event)

	case "payment_intent.payment_failed":
		h.handlePaymentIntentFailed(r.Context(), event)

	case "payment_intent.created", "payment_intent.canceled":
		// Monitoring only. Creation precedes checkout completion and
		// cancellation is driven from our side.
		h.logger.Debug("webhook event acknowledged", "type", event.Type, "event_id", event.ID)

	default:
		h.logger.Debug("unhandled webhook event type", "type", event.Type, "event_id", event.ID)
	}

	// Acknowledge receipt so the gateway does not retry.
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"received": true}`))
}

func (h *StripeHandler) handlePaymentIntentSucceeded(ctx context.Context, event stripe.Event) {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		h.recordFailure(event, "parse")
		h.logger.Error("parsing payment intent from webhook", "event_id", event.ID, "error", err)
		return
	}

	orderID, err := h.resolveOrderID(ctx, intent)
	if err != nil {
		h.recordFailure(event, "resolve")
		h.logger.Error("resolving order for payment intent", "payment_intent_id", intent.ID, "event_id", event.ID, "error", err)
		return
	}

	order, err := h.orders.MarkOrderPaid(ctx, domain.MarkOrderPaidParams{
		OrderID:         orderID,
		GatewayEventID:  event.ID,
		PaymentIntentID: intent.ID,
	})
	if err != nil {
		if domain.ErrorCode(err) == domain.ECONFLICT {
			h.logger.Info("webhook event already applied", "event_id", event.ID, "order_id", orderID)
			return
		}
		h.recordFailure(event, "apply")
		h.logger.Error("marking order paid", "order_id", orderID, "event_id", event.ID, "error", err)
		return
	}

	if h.metrics != nil {
		h.metrics.PaymentSucceeded.WithLabelValues(order.Currency).Inc()
	}
	h.logger.Info("order marked paid",
		"order_id", orderID,
		"order_number", order.OrderNumber,
		"amount", intent.Amount,
		"currency", intent.Currency)
}

func (h *StripeHandler) handlePaymentIntentFailed(ctx context.Context, event stripe.Event) {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		h.recordFailure(event, "parse")
		h.logger.Error("parsing payment intent from webhook", "event_id", event.ID, "error", err)
		return
	}

	orderID, err := h.resolveOrderID(ctx, intent)
	if err != nil {
		h.recordFailure(event, "resolve")
		h.logger.Error("resolving order for payment intent", "payment_intent_id", intent.ID, "event_id", event.ID, "error", err)
		return
	}

	order, err := h.orders.MarkOrderPaymentFailed(ctx, domain.MarkOrderPaymentFailedParams{
		OrderID:        orderID,
		GatewayEventID: event.ID,
	})
	if err != nil {
		if domain.ErrorCode(err) == domain.ECONFLICT {
			h.logger.Info("webhook event already applied", "event_id", event.ID, "order_id", orderID)
			return
		}
		h.recordFailure(event, "apply")
		h.logger.Error("marking order payment failed", "order_id", orderID, "event_id", event.ID, "error", err)
		return
	}

	if h.metrics != nil {
		h.metrics.PaymentFailed.WithLabelValues(order.Currency).Inc()
	}
	h.logger.Info("order payment failed", "order_id", orderID, "order_number", order.OrderNumber)
}

// resolveOrderID prefers the order_id metadata stamped at checkout, falling
// back to the payment intent association when the metadata is absent.
func (h *StripeHandler) resolveOrderID(ctx context.Context, intent stripe.PaymentIntent) (string, error) {
	if orderID := intent.Metadata["order_id"]; orderID != "" {
		return orderID, nil
	}

	order, err := h.lookup.GetOrderByPaymentIntentID(ctx, intent.ID)
	if err != nil {
		return "", err
	}
	return repository.UUIDString(order.ID), nil
}

func (h *StripeHandler) recordFailure(event stripe.Event, reason string) {
	if h.metrics != nil {
		h.metrics.WebhookFailed.WithLabelValues(string(event.Type), reason).Inc()
	}
}
