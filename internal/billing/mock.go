package billing

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockProvider is an in-memory Provider for tests and local development.
// Behaviour can be overridden per-method with the Func fields; the zero
// value succeeds with canned data.
type MockProvider struct {
	mu sync.Mutex

	CreatePaymentIntentFunc func(ctx context.Context, params CreatePaymentIntentParams) (*PaymentIntent, error)
	GetPaymentIntentFunc    func(ctx context.Context, paymentIntentID string) (*PaymentIntent, error)
	CancelPaymentIntentFunc func(ctx context.Context, paymentIntentID string) error
	RefundPaymentFunc       func(ctx context.Context, params RefundParams) (*Refund, error)
	VerifySignatureFunc     func(payload []byte, signature string, secret string) error

	// Refunds records every successful RefundPayment call.
	Refunds []RefundParams

	counter int
}

var _ Provider = (*MockProvider)(nil)

func (m *MockProvider) CreatePaymentIntent(ctx context.Context, params CreatePaymentIntentParams) (*PaymentIntent, error) {
	if m.CreatePaymentIntentFunc != nil {
		return m.CreatePaymentIntentFunc(ctx, params)
	}

	m.mu.Lock()
	m.counter++
	n := m.counter
	m.mu.Unlock()

	id := fmt.Sprintf("pi_mock_%d", n)
	return &PaymentIntent{
		ID:           id,
		ClientSecret: id + "_secret",
		AmountCents:  params.AmountCents,
		Currency:     params.Currency,
		Status:       "requires_payment_method",
		Metadata:     params.Metadata,
		CreatedAt:    time.Now(),
	}, nil
}

func (m *MockProvider) GetPaymentIntent(ctx context.Context, paymentIntentID string) (*PaymentIntent, error) {
	if m.GetPaymentIntentFunc != nil {
		return m.GetPaymentIntentFunc(ctx, paymentIntentID)
	}
	return &PaymentIntent{
		ID:     paymentIntentID,
		Status: "succeeded",
	}, nil
}

func (m *MockProvider) CancelPaymentIntent(ctx context.Context, paymentIntentID string) error {
	if m.CancelPaymentIntentFunc != nil {
		return m.CancelPaymentIntentFunc(ctx, paymentIntentID)
	}
	return nil
}

func (m *MockProvider) RefundPayment(ctx context.Context, params RefundParams) (*Refund, error) {
	if m.RefundPaymentFunc != nil {
		return m.RefundPaymentFunc(ctx, params)
	}

	m.mu.Lock()
	m.counter++
	n := m.counter
	m.Refunds = append(m.Refunds, params)
	m.mu.Unlock()

	return &Refund{
		ID:          fmt.Sprintf("re_mock_%d", n),
		AmountCents: params.AmountCents,
		Status:      "succeeded",
		CreatedAt:   time.Now(),
	}, nil
}

func (m *MockProvider) VerifyWebhookSignature(payload []byte, signature string, secret string) error {
	if m.VerifySignatureFunc != nil {
		return m.VerifySignatureFunc(payload, signature, secret)
	}
	return nil
}
