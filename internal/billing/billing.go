// Package billing abstracts the payment gateway. The production
// implementation is Stripe; tests use the mock provider.
package billing

import (
	"context"
	"time"
)

// Provider defines the interface for payment processing.
type Provider interface {
	// CreatePaymentIntent creates a payment intent for a one-time charge.
	// Returns the intent with a client_secret for frontend confirmation.
	CreatePaymentIntent(ctx context.Context, params CreatePaymentIntentParams) (*PaymentIntent, error)

	// GetPaymentIntent retrieves an existing payment intent, used to
	// reconcile gateway state against the order record.
	GetPaymentIntent(ctx context.Context, paymentIntentID string) (*PaymentIntent, error)

	// CancelPaymentIntent cancels an intent that has not been confirmed.
	// Used when pending checkouts are expired.
	CancelPaymentIntent(ctx context.Context, paymentIntentID string) error

	// RefundPayment refunds all or part of a completed payment.
	RefundPayment(ctx context.Context, params RefundParams) (*Refund, error)

	// VerifyWebhookSignature verifies that a webhook request is authentic.
	VerifyWebhookSignature(payload []byte, signature string, secret string) error
}

// CreatePaymentIntentParams contains parameters for creating a payment intent.
type CreatePaymentIntentParams struct {
	// AmountCents is the amount in the smallest currency unit.
	AmountCents int64

	// Currency code (ISO 4217), lowercase - e.g. "kes", "usd".
	Currency string

	// CustomerEmail prefills the payment sheet.
	CustomerEmail string

	// Description appears on the customer's statement and the dashboard.
	Description string

	// Metadata for reconciliation (always includes order_id).
	Metadata map[string]string

	// IdempotencyKey prevents duplicate intents; the order id serves here.
	IdempotencyKey string
}

// PaymentIntent represents a gateway payment intent.
type PaymentIntent struct {
	// ID is the gateway payment intent id (pi_...).
	ID string

	// ClientSecret is used by the frontend to confirm payment.
	ClientSecret string

	// AmountCents is the amount in the smallest currency unit.
	AmountCents int64

	// Currency code.
	Currency string

	// Status: requires_payment_method, requires_confirmation, succeeded, ...
	Status string

	// Metadata echoed back from the gateway.
	Metadata map[string]string

	// CreatedAt is when the intent was created at the gateway.
	CreatedAt time.Time
}

// RefundParams contains parameters for refunding a payment.
type RefundParams struct {
	// PaymentIntentID identifies the payment to reverse.
	PaymentIntentID string

	// AmountCents is the amount to refund; 0 refunds the full charge.
	AmountCents int64

	// Reason is the gateway refund reason ("requested_by_customer", ...).
	Reason string

	// Metadata for reconciliation (return_id, order_id).
	Metadata map[string]string

	// IdempotencyKey makes gateway retries of the same refund safe.
	IdempotencyKey string
}

// Refund represents a completed gateway refund.
type Refund struct {
	// ID is the gateway refund id (re_...).
	ID string

	// AmountCents actually refunded.
	AmountCents int64

	// Status: succeeded, pending, failed.
	Status string

	// CreatedAt is when the refund was created at the gateway.
	CreatedAt time.Time
}
