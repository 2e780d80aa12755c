package billing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeConfig contains configuration for the Stripe provider.
type StripeConfig struct {
	// APIKey is the secret key (sk_test_... or sk_live_...).
	APIKey string

	// WebhookSecret is the endpoint signing secret (whsec_...).
	WebhookSecret string
}

// IsTestMode reports whether the configured key is a test-mode key.
func (c StripeConfig) IsTestMode() bool {
	return strings.HasPrefix(c.APIKey, "sk_test_")
}

// StripeProvider implements Provider using the Stripe Go SDK.
type StripeProvider struct {
	api    *client.API
	config StripeConfig
}

var _ Provider = (*StripeProvider)(nil)

// NewStripeProvider creates a Stripe billing provider.
func NewStripeProvider(config StripeConfig) (*StripeProvider, error) {
	if config.APIKey == "" {
		return nil, ErrInvalidAPIKey
	}

	api := &client.API{}
	api.Init(config.APIKey, nil)

	return &StripeProvider{
		api:    api,
		config: config,
	}, nil
}

// CreatePaymentIntent creates a Stripe payment intent.
func (s *StripeProvider) CreatePaymentIntent(ctx context.Context, params CreatePaymentIntentParams) (*PaymentIntent, error) {
	piParams := &stripe.PaymentIntentParams{
		Params: stripe.Params{
			Context: ctx,
		},
		Amount:       stripe.Int64(params.AmountCents),
		Currency:     stripe.String(params.Currency),
		ReceiptEmail: stripe.String(params.CustomerEmail),
		Description:  stripe.String(params.Description),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	for k, v := range params.Metadata {
		piParams.AddMetadata(k, v)
	}
	if params.IdempotencyKey != "" {
		piParams.SetIdempotencyKey(params.IdempotencyKey)
	}

	pi, err := s.api.PaymentIntents.New(piParams)
	if err != nil {
		return nil, wrapStripeErr(err)
	}

	return toPaymentIntent(pi), nil
}

// GetPaymentIntent retrieves an existing payment intent.
func (s *StripeProvider) GetPaymentIntent(ctx context.Context, paymentIntentID string) (*PaymentIntent, error) {
	pi, err := s.api.PaymentIntents.Get(paymentIntentID, &stripe.PaymentIntentParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == 404 {
			return nil, ErrPaymentIntentNotFound
		}
		return nil, wrapStripeErr(err)
	}

	return toPaymentIntent(pi), nil
}

// CancelPaymentIntent cancels an unconfirmed payment intent.
func (s *StripeProvider) CancelPaymentIntent(ctx context.Context, paymentIntentID string) error {
	_, err := s.api.PaymentIntents.Cancel(paymentIntentID, &stripe.PaymentIntentCancelParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return wrapStripeErr(err)
	}
	return nil
}

// RefundPayment refunds all or part of a payment.
func (s *StripeProvider) RefundPayment(ctx context.Context, params RefundParams) (*Refund, error) {
	refundParams := &stripe.RefundParams{
		Params:        stripe.Params{Context: ctx},
		PaymentIntent: stripe.String(params.PaymentIntentID),
	}
	if params.AmountCents > 0 {
		refundParams.Amount = stripe.Int64(params.AmountCents)
	}
	if params.Reason != "" {
		refundParams.Reason = stripe.String(params.Reason)
	}
	for k, v := range params.Metadata {
		refundParams.AddMetadata(k, v)
	}
	if params.IdempotencyKey != "" {
		refundParams.SetIdempotencyKey(params.IdempotencyKey)
	}

	r, err := s.api.Refunds.New(refundParams)
	if err != nil {
		return nil, wrapStripeErr(err)
	}

	return &Refund{
		ID:          r.ID,
		AmountCents: r.Amount,
		Status:      string(r.Status),
		CreatedAt:   time.Unix(r.Created, 0),
	}, nil
}

// VerifyWebhookSignature verifies a Stripe webhook signature.
func (s *StripeProvider) VerifyWebhookSignature(payload []byte, signature string, secret string) error {
	if _, err := webhook.ConstructEvent(payload, signature, secret); err != nil {
		return ErrInvalidWebhookSignature
	}
	return nil
}

func toPaymentIntent(pi *stripe.PaymentIntent) *PaymentIntent {
	return &PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		AmountCents:  pi.Amount,
		Currency:     string(pi.Currency),
		Status:       string(pi.Status),
		Metadata:     pi.Metadata,
		CreatedAt:    time.Unix(pi.Created, 0),
	}
}

func wrapStripeErr(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return &StripeError{
			Message:       stripeErr.Msg,
			Code:          string(stripeErr.Code),
			DeclineCode:   string(stripeErr.DeclineCode),
			RequestID:     stripeErr.RequestID,
			OriginalError: err,
		}
	}
	return err
}
