// Package telemetry holds business-level Prometheus metrics, separate from
// the HTTP metrics in middleware.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds Prometheus metrics for business-level observability.
type BusinessMetrics struct {
	// Checkout funnel
	CheckoutStarted  *prometheus.CounterVec
	PaymentSucceeded *prometheus.CounterVec
	PaymentFailed    *prometheus.CounterVec

	// Orders
	OrdersCreated   *prometheus.CounterVec
	OrdersCancelled *prometheus.CounterVec
	OrderValue      *prometheus.HistogramVec

	// Invoices
	InvoicesGenerated *prometheus.CounterVec

	// Returns & refunds
	ReturnsOpened *prometheus.CounterVec
	RefundsIssued *prometheus.CounterVec
	RefundAmount  *prometheus.CounterVec

	// Webhooks
	WebhookReceived *prometheus.CounterVec
	WebhookFailed   *prometheus.CounterVec
	WebhookLatency  *prometheus.HistogramVec
}

// NewBusinessMetrics creates and registers all business metrics.
func NewBusinessMetrics(namespace string) *BusinessMetrics {
	if namespace == "" {
		namespace = "zuri"
	}

	subsystem := "business"

	return &BusinessMetrics{
		CheckoutStarted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_started_total",
				Help:      "Total checkouts started",
			},
			[]string{"currency"},
		),
		PaymentSucceeded: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "payment_succeeded_total",
				Help:      "Total successful payments",
			},
			[]string{"currency"},
		),
		PaymentFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "payment_failed_total",
				Help:      "Total failed payments",
			},
			[]string{"currency"},
		),
		OrdersCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "orders_created_total",
				Help:      "Total orders created",
			},
			[]string{"currency"},
		),
		OrdersCancelled: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "orders_cancelled_total",
				Help:      "Total orders cancelled",
			},
			[]string{"reason"}, // reason: admin, payment_expired
		),
		OrderValue: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_value_cents",
				Help:      "Order totals in the smallest currency unit",
				Buckets:   prometheus.ExponentialBuckets(10000, 2.5, 10),
			},
			[]string{"currency"},
		),
		InvoicesGenerated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "invoices_generated_total",
				Help:      "Total invoices generated",
			},
			[]string{"currency"},
		),
		ReturnsOpened: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "returns_opened_total",
				Help:      "Total return requests opened",
			},
			[]string{},
		),
		RefundsIssued: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "refunds_issued_total",
				Help:      "Total refunds issued through the gateway",
			},
			[]string{"method"},
		),
		RefundAmount: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "refund_amount_cents_total",
				Help:      "Total refunded amount in the smallest currency unit",
			},
			[]string{"method"},
		),
		WebhookReceived: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhook_received_total",
				Help:      "Total gateway webhook deliveries received",
			},
			[]string{"event_type"},
		),
		WebhookFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhook_failed_total",
				Help:      "Total gateway webhook deliveries that failed processing",
			},
			[]string{"event_type", "reason"},
		),
		WebhookLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhook_duration_seconds",
				Help:      "Gateway webhook processing duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"event_type"},
		),
	}
}
