package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/zuricommerce/zuri/internal/billing"
	"github.com/zuricommerce/zuri/internal/domain"
	"github.com/zuricommerce/zuri/internal/repository"
)

// CheckoutService creates an order and opens a payment intent for it in one
// step. The checkout is what customers call; admins manipulate orders through
// the lifecycle service directly.
type CheckoutService struct {
	store   repository.Store
	orders  domain.OrderService
	billing billing.Provider
	logger  *slog.Logger
}

// NewCheckoutService creates the checkout service.
func NewCheckoutService(store repository.Store, orders domain.OrderService, provider billing.Provider, logger *slog.Logger) *CheckoutService {
	return &CheckoutService{
		store:   store,
		orders:  orders,
		billing: provider,
		logger:  logger,
	}
}

// CheckoutResult is what the frontend needs to confirm payment.
type CheckoutResult struct {
	Order           *domain.OrderDetail
	PaymentIntentID string
	ClientSecret    string
}

// Checkout creates the order, then a gateway payment intent carrying the
// order id in its metadata. The order id doubles as the gateway idempotency
// key so a retried checkout never opens a second intent.
func (s *CheckoutService) Checkout(ctx context.Context, customer *repository.User, params domain.CreateOrderParams) (*CheckoutResult, error) {
	const op = "CheckoutService.Checkout"

	detail, err := s.orders.CreateOrder(ctx, params)
	if err != nil {
		return nil, err
	}

	orderID := repository.UUIDString(detail.Order.ID)
	intent, err := s.billing.CreatePaymentIntent(ctx, billing.CreatePaymentIntentParams{
		AmountCents:   detail.Order.TotalCents,
		Currency:      strings.ToLower(detail.Order.Currency),
		CustomerEmail: customer.Email,
		Description:   fmt.Sprintf("Order %s", detail.Order.OrderNumber),
		Metadata: map[string]string{
			"order_id":     orderID,
			"order_number": detail.Order.OrderNumber,
		},
		IdempotencyKey: orderID,
	})
	if err != nil {
		s.logger.Error("failed to create payment intent",
			slog.String("order_id", orderID),
			slog.String("error", err.Error()),
		)
		return nil, domain.WrapError(err, domain.EPAYMENT, op, "Unable to start payment for this order")
	}

	if err := s.store.SetOrderPaymentIntent(ctx, repository.SetOrderPaymentIntentParams{
		ID:              detail.Order.ID,
		PaymentIntentID: repository.TextOrNull(intent.ID),
	}); err != nil {
		return nil, domain.Internal(err, op, "failed to record payment intent")
	}
	detail.Order.PaymentIntentID = repository.TextOrNull(intent.ID)

	s.logger.Info("checkout started",
		slog.String("order_id", orderID),
		slog.String("payment_intent_id", intent.ID),
		slog.Int64("amount_cents", intent.AmountCents),
	)
	return &CheckoutResult{
		Order:           detail,
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
	}, nil
}
