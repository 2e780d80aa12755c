package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"

	"github.com/zuricommerce/zuri/internal/billing"
	"github.com/zuricommerce/zuri/internal/domain"
	"github.com/zuricommerce/zuri/internal/events"
	"github.com/zuricommerce/zuri/internal/repository"
)

const (
	testUserID    = "5e7e9f4e-8a50-4be5-b075-43f4ca1661a6"
	testOrderID   = "a3b8f042-1c95-4f9d-9c6f-2d8c07154a11"
	testProductID = "0b54ff3c-6d2e-49a7-9f25-6f5b0e1a9c0d"
	testProduct2  = "7d1c2b4a-0e9f-4c3d-8a6b-5f4e3d2c1b0a"
	testReturnID  = "c9d8e7f6-a5b4-4c3d-8e1f-0a9b8c7d6e5f"
	testInvoiceID = "1f2e3d4c-5b6a-4798-8695-a4b3c2d1e0f9"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustUUID(t *testing.T, s string) pgtype.UUID {
	t.Helper()
	id, err := repository.UUIDFromString(s)
	assert.NoError(t, err)
	return id
}

func uniqueViolation() error {
	return &pgconn.PgError{Code: "23505", ConstraintName: "test_unique"}
}

func TestCreateOrderComputesTotalFromSnapshots(t *testing.T) {
	lotion := repository.Product{
		ID:             mustUUID(t, testProductID),
		Name:           "Shea Butter Lotion",
		UnitPriceCents: 50000,
		Currency:       "KES",
		IsActive:       true,
	}
	serum := repository.Product{
		ID:             mustUUID(t, testProduct2),
		Name:           "Argan Oil Serum",
		UnitPriceCents: 100000,
		Currency:       "KES",
		IsActive:       true,
	}
	products := map[pgtype.UUID]repository.Product{
		lotion.ID: lotion,
		serum.ID:  serum,
	}

	var created repository.CreateOrderParams
	store := &MockStore{
		GetProductFunc: func(_ context.Context, id pgtype.UUID) (repository.Product, error) {
			p, ok := products[id]
			if !ok {
				return repository.Product{}, pgx.ErrNoRows
			}
			return p, nil
		},
		CreateOrderFunc: func(_ context.Context, arg repository.CreateOrderParams) (repository.Order, error) {
			created = arg
			return repository.Order{
				ID:            mustUUID(t, testOrderID),
				UserID:        arg.UserID,
				OrderNumber:   arg.OrderNumber,
				OrderStatus:   arg.OrderStatus,
				PaymentStatus: arg.PaymentStatus,
				TotalCents:    arg.TotalCents,
				Currency:      arg.Currency,
			}, nil
		},
		CreateOrderItemFunc: func(_ context.Context, arg repository.CreateOrderItemParams) (repository.OrderItem, error) {
			return repository.OrderItem{
				OrderID:        arg.OrderID,
				ProductID:      arg.ProductID,
				Title:          arg.Title,
				UnitPriceCents: arg.UnitPriceCents,
				Quantity:       arg.Quantity,
			}, nil
		},
	}

	svc := NewOrderService(store, &billing.MockProvider{}, events.NewMockPublisher(), testLogger())
	detail, err := svc.CreateOrder(context.Background(), domain.CreateOrderParams{
		UserID:   testUserID,
		Currency: "KES",
		Items: []domain.NewOrderItem{
			{ProductID: testProductID, Quantity: 2},
			{ProductID: testProduct2, Quantity: 1},
		},
	})

	assert.NoError(t, err)
	// 2 x KES 500.00 + 1 x KES 1000.00 = KES 2000.00
	assert.Equal(t, int64(200000), created.TotalCents)
	assert.Equal(t, string(domain.OrderStatusProcessing), created.OrderStatus)
	assert.Equal(t, string(domain.PaymentStatusPending), created.PaymentStatus)
	assert.NotEmpty(t, created.OrderNumber)
	assert.Len(t, detail.Items, 2)
	assert.Equal(t, "Shea Butter Lotion", detail.Items[0].Title)
	assert.Equal(t, int64(50000), detail.Items[0].UnitPriceCents)
}

func TestCreateOrderRejectsEmptyOrder(t *testing.T) {
	svc := NewOrderService(&MockStore{}, &billing.MockProvider{}, events.NewMockPublisher(), testLogger())
	_, err := svc.CreateOrder(context.Background(), domain.CreateOrderParams{
		UserID:   testUserID,
		Currency: "KES",
	})
	assert.ErrorIs(t, err, domain.ErrEmptyOrder)
}

func TestCreateOrderRejectsInactiveProduct(t *testing.T) {
	store := &MockStore{
		GetProductFunc: func(_ context.Context, _ pgtype.UUID) (repository.Product, error) {
			return repository.Product{
				ID:             mustUUID(t, testProductID),
				Name:           "Discontinued Clay Mask",
				UnitPriceCents: 30000,
				IsActive:       false,
			}, nil
		},
	}

	svc := NewOrderService(store, &billing.MockProvider{}, events.NewMockPublisher(), testLogger())
	_, err := svc.CreateOrder(context.Background(), domain.CreateOrderParams{
		UserID:   testUserID,
		Currency: "KES",
		Items:    []domain.NewOrderItem{{ProductID: testProductID, Quantity: 1}},
	})
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
}

func transitionStore(t *testing.T, order repository.Order, updated *repository.UpdateOrderStatusParams) *MockStore {
	t.Helper()
	return &MockStore{
		GetOrderFunc: func(_ context.Context, _ pgtype.UUID) (repository.Order, error) {
			return order, nil
		},
		UpdateOrderStatusFunc: func(_ context.Context, arg repository.UpdateOrderStatusParams) (repository.Order, error) {
			*updated = arg
			order.OrderStatus = arg.OrderStatus
			order.PaymentStatus = arg.PaymentStatus
			order.IsDelivered = arg.IsDelivered
			order.PaidAt = arg.PaidAt
			order.DeliveredAt = arg.DeliveredAt
			order.RefundedAt = arg.RefundedAt
			return order, nil
		},
	}
}

func orderStatusPtr(s domain.OrderStatus) *domain.OrderStatus       { return &s }
func paymentStatusPtr(s domain.PaymentStatus) *domain.PaymentStatus { return &s }

func TestTransitionOrder(t *testing.T) {
	tests := []struct {
		name          string
		orderStatus   domain.OrderStatus
		paymentStatus domain.PaymentStatus
		patch         domain.OrderPatch
		wantErr       bool
	}{
		{"processing to confirmed", domain.OrderStatusProcessing, domain.PaymentStatusPending,
			domain.OrderPatch{OrderStatus: orderStatusPtr(domain.OrderStatusConfirmed)}, false},
		{"processing cannot skip to shipped", domain.OrderStatusProcessing, domain.PaymentStatusPending,
			domain.OrderPatch{OrderStatus: orderStatusPtr(domain.OrderStatusShipped)}, true},
		{"confirmed to shipped", domain.OrderStatusConfirmed, domain.PaymentStatusPaid,
			domain.OrderPatch{OrderStatus: orderStatusPtr(domain.OrderStatusShipped)}, false},
		{"shipped to delivered", domain.OrderStatusShipped, domain.PaymentStatusPaid,
			domain.OrderPatch{OrderStatus: orderStatusPtr(domain.OrderStatusDelivered)}, false},
		{"delivered is terminal", domain.OrderStatusDelivered, domain.PaymentStatusPaid,
			domain.OrderPatch{OrderStatus: orderStatusPtr(domain.OrderStatusCancelled)}, true},
		{"cancelled is terminal", domain.OrderStatusCancelled, domain.PaymentStatusPending,
			domain.OrderPatch{OrderStatus: orderStatusPtr(domain.OrderStatusConfirmed)}, true},
		{"shipped can cancel", domain.OrderStatusShipped, domain.PaymentStatusPaid,
			domain.OrderPatch{OrderStatus: orderStatusPtr(domain.OrderStatusCancelled)}, false},
		{"pending to paid", domain.OrderStatusProcessing, domain.PaymentStatusPending,
			domain.OrderPatch{PaymentStatus: paymentStatusPtr(domain.PaymentStatusPaid)}, false},
		{"pending to failed", domain.OrderStatusProcessing, domain.PaymentStatusPending,
			domain.OrderPatch{PaymentStatus: paymentStatusPtr(domain.PaymentStatusFailed)}, false},
		{"failed retries to pending", domain.OrderStatusProcessing, domain.PaymentStatusFailed,
			domain.OrderPatch{PaymentStatus: paymentStatusPtr(domain.PaymentStatusPending)}, false},
		{"paid to refunded", domain.OrderStatusCancelled, domain.PaymentStatusPaid,
			domain.OrderPatch{PaymentStatus: paymentStatusPtr(domain.PaymentStatusRefunded)}, false},
		{"paid cannot return to pending", domain.OrderStatusProcessing, domain.PaymentStatusPaid,
			domain.OrderPatch{PaymentStatus: paymentStatusPtr(domain.PaymentStatusPending)}, true},
		{"pending cannot skip to refunded", domain.OrderStatusProcessing, domain.PaymentStatusPending,
			domain.OrderPatch{PaymentStatus: paymentStatusPtr(domain.PaymentStatusRefunded)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := repository.Order{
				ID:            mustUUID(t, testOrderID),
				OrderStatus:   string(tt.orderStatus),
				PaymentStatus: string(tt.paymentStatus),
				IsDelivered:   tt.orderStatus == domain.OrderStatusDelivered,
			}
			var updated repository.UpdateOrderStatusParams
			store := transitionStore(t, order, &updated)

			svc := NewOrderService(store, &billing.MockProvider{}, events.NewMockPublisher(), testLogger())
			_, err := svc.TransitionOrder(context.Background(), testOrderID, tt.patch)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTransitionOrderStampsDelivery(t *testing.T) {
	order := repository.Order{
		ID:            mustUUID(t, testOrderID),
		OrderStatus:   string(domain.OrderStatusShipped),
		PaymentStatus: string(domain.PaymentStatusPaid),
	}
	var updated repository.UpdateOrderStatusParams
	store := transitionStore(t, order, &updated)

	svc := NewOrderService(store, &billing.MockProvider{}, events.NewMockPublisher(), testLogger())
	result, err := svc.TransitionOrder(context.Background(), testOrderID, domain.OrderPatch{
		OrderStatus: orderStatusPtr(domain.OrderStatusDelivered),
	})

	assert.NoError(t, err)
	assert.True(t, updated.IsDelivered)
	assert.True(t, updated.DeliveredAt.Valid)
	assert.True(t, result.IsDelivered)
}

func TestTransitionOrderStampsPaymentTimestamps(t *testing.T) {
	order := repository.Order{
		ID:            mustUUID(t, testOrderID),
		OrderStatus:   string(domain.OrderStatusProcessing),
		PaymentStatus: string(domain.PaymentStatusPending),
	}
	var updated repository.UpdateOrderStatusParams
	store := transitionStore(t, order, &updated)

	svc := NewOrderService(store, &billing.MockProvider{}, events.NewMockPublisher(), testLogger())
	_, err := svc.TransitionOrder(context.Background(), testOrderID, domain.OrderPatch{
		PaymentStatus: paymentStatusPtr(domain.PaymentStatusPaid),
	})
	assert.NoError(t, err)
	assert.True(t, updated.PaidAt.Valid)
	assert.False(t, updated.RefundedAt.Valid)
}

func TestTransitionOrderRejectsEmptyPatch(t *testing.T) {
	svc := NewOrderService(&MockStore{}, &billing.MockProvider{}, events.NewMockPublisher(), testLogger())
	_, err := svc.TransitionOrder(context.Background(), testOrderID, domain.OrderPatch{})
	assert.ErrorIs(t, err, domain.ErrNoTransition)
}

func TestTransitionOrderPublishesCancellation(t *testing.T) {
	order := repository.Order{
		ID:            mustUUID(t, testOrderID),
		OrderStatus:   string(domain.OrderStatusProcessing),
		PaymentStatus: string(domain.PaymentStatusPending),
	}
	var updated repository.UpdateOrderStatusParams
	store := transitionStore(t, order, &updated)
	publisher := events.NewMockPublisher()

	svc := NewOrderService(store, &billing.MockProvider{}, publisher, testLogger())
	_, err := svc.TransitionOrder(context.Background(), testOrderID, domain.OrderPatch{
		OrderStatus: orderStatusPtr(domain.OrderStatusCancelled),
	})

	assert.NoError(t, err)
	assert.Len(t, publisher.BySubject(events.SubjectOrderCancelled), 1)
}

func TestDeleteOrderBlockedByInvoice(t *testing.T) {
	store := &MockStore{
		CountInvoicesForOrderFunc: func(_ context.Context, _ pgtype.UUID) (int64, error) {
			return 1, nil
		},
	}

	svc := NewOrderService(store, &billing.MockProvider{}, events.NewMockPublisher(), testLogger())
	err := svc.DeleteOrder(context.Background(), testOrderID)
	assert.ErrorIs(t, err, domain.ErrOrderHasInvoice)
	assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))
}

func TestDeleteOrderSoftDeletesReturns(t *testing.T) {
	softDeleted := false
	store := &MockStore{
		CountInvoicesForOrderFunc: func(_ context.Context, _ pgtype.UUID) (int64, error) {
			return 0, nil
		},
		SoftDeleteReturnsForOrderFunc: func(_ context.Context, _ pgtype.UUID) error {
			softDeleted = true
			return nil
		},
		DeleteOrderFunc: func(_ context.Context, _ pgtype.UUID) (int64, error) {
			return 1, nil
		},
	}

	svc := NewOrderService(store, &billing.MockProvider{}, events.NewMockPublisher(), testLogger())
	err := svc.DeleteOrder(context.Background(), testOrderID)
	assert.NoError(t, err)
	assert.True(t, softDeleted)
}

func TestDeleteOrderNotFound(t *testing.T) {
	store := &MockStore{
		CountInvoicesForOrderFunc: func(_ context.Context, _ pgtype.UUID) (int64, error) {
			return 0, nil
		},
		SoftDeleteReturnsForOrderFunc: func(_ context.Context, _ pgtype.UUID) error {
			return nil
		},
		DeleteOrderFunc: func(_ context.Context, _ pgtype.UUID) (int64, error) {
			return 0, nil
		},
	}

	svc := NewOrderService(store, &billing.MockProvider{}, events.NewMockPublisher(), testLogger())
	err := svc.DeleteOrder(context.Background(), testOrderID)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestMarkOrderPaid(t *testing.T) {
	order := repository.Order{
		ID:            mustUUID(t, testOrderID),
		OrderStatus:   string(domain.OrderStatusProcessing),
		PaymentStatus: string(domain.PaymentStatusPending),
	}

	var recorded repository.RecordGatewayEventParams
	var intentSet repository.SetOrderPaymentIntentParams
	var updated repository.UpdateOrderStatusParams
	store := &MockStore{
		RecordGatewayEventFunc: func(_ context.Context, arg repository.RecordGatewayEventParams) (repository.GatewayEvent, error) {
			recorded = arg
			return repository.GatewayEvent{EventID: arg.EventID}, nil
		},
		GetOrderFunc: func(_ context.Context, _ pgtype.UUID) (repository.Order, error) {
			return order, nil
		},
		SetOrderPaymentIntentFunc: func(_ context.Context, arg repository.SetOrderPaymentIntentParams) error {
			intentSet = arg
			return nil
		},
		UpdateOrderStatusFunc: func(_ context.Context, arg repository.UpdateOrderStatusParams) (repository.Order, error) {
			updated = arg
			order.PaymentStatus = arg.PaymentStatus
			order.PaidAt = arg.PaidAt
			return order, nil
		},
	}
	publisher := events.NewMockPublisher()

	svc := NewOrderService(store, &billing.MockProvider{}, publisher, testLogger())
	result, err := svc.MarkOrderPaid(context.Background(), domain.MarkOrderPaidParams{
		OrderID:         testOrderID,
		GatewayEventID:  "evt_001",
		PaymentIntentID: "pi_123",
	})

	assert.NoError(t, err)
	assert.Equal(t, "evt_001", recorded.EventID)
	assert.Equal(t, "payment_intent.succeeded", recorded.EventType)
	assert.Equal(t, "pi_123", intentSet.PaymentIntentID.String)
	assert.Equal(t, string(domain.PaymentStatusPaid), updated.PaymentStatus)
	assert.True(t, updated.PaidAt.Valid)
	assert.Equal(t, string(domain.PaymentStatusPaid), result.PaymentStatus)
	assert.Len(t, publisher.BySubject(events.SubjectOrderPaid), 1)
}

func TestMarkOrderPaidReplayIsNoOp(t *testing.T) {
	// Only RecordGatewayEvent is configured; any further write would panic.
	store := &MockStore{
		RecordGatewayEventFunc: func(_ context.Context, _ repository.RecordGatewayEventParams) (repository.GatewayEvent, error) {
			return repository.GatewayEvent{}, uniqueViolation()
		},
	}
	publisher := events.NewMockPublisher()

	svc := NewOrderService(store, &billing.MockProvider{}, publisher, testLogger())
	_, err := svc.MarkOrderPaid(context.Background(), domain.MarkOrderPaidParams{
		OrderID:        testOrderID,
		GatewayEventID: "evt_001",
	})

	assert.ErrorIs(t, err, domain.ErrEventAlreadyApplied)
	assert.Empty(t, publisher.Events)
}

func TestMarkOrderPaidCancelledOrderNotMarkedPaid(t *testing.T) {
	// Confirmation arriving after the maintenance worker cancelled the
	// order must not produce a cancelled-but-paid order. The event is
	// still recorded so a replay stays a no-op. Any status write would
	// panic on the unconfigured mock.
	var recorded repository.RecordGatewayEventParams
	store := &MockStore{
		RecordGatewayEventFunc: func(_ context.Context, arg repository.RecordGatewayEventParams) (repository.GatewayEvent, error) {
			recorded = arg
			return repository.GatewayEvent{EventID: arg.EventID}, nil
		},
		GetOrderFunc: func(_ context.Context, _ pgtype.UUID) (repository.Order, error) {
			return repository.Order{
				ID:            mustUUID(t, testOrderID),
				OrderStatus:   string(domain.OrderStatusCancelled),
				PaymentStatus: string(domain.PaymentStatusPending),
			}, nil
		},
	}
	publisher := events.NewMockPublisher()

	svc := NewOrderService(store, &billing.MockProvider{}, publisher, testLogger())
	_, err := svc.MarkOrderPaid(context.Background(), domain.MarkOrderPaidParams{
		OrderID:         testOrderID,
		GatewayEventID:  "evt_cancelled_race",
		PaymentIntentID: "pi_123",
	})

	assert.ErrorIs(t, err, domain.ErrPaymentAfterCancel)
	assert.Equal(t, domain.EPAYMENT, domain.ErrorCode(err))
	assert.Equal(t, "evt_cancelled_race", recorded.EventID)
	assert.Empty(t, publisher.Events)
}

func TestMarkOrderPaymentFailed(t *testing.T) {
	order := repository.Order{
		ID:            mustUUID(t, testOrderID),
		OrderStatus:   string(domain.OrderStatusProcessing),
		PaymentStatus: string(domain.PaymentStatusPending),
	}

	var updated repository.UpdateOrderStatusParams
	store := &MockStore{
		RecordGatewayEventFunc: func(_ context.Context, arg repository.RecordGatewayEventParams) (repository.GatewayEvent, error) {
			return repository.GatewayEvent{EventID: arg.EventID}, nil
		},
		GetOrderFunc: func(_ context.Context, _ pgtype.UUID) (repository.Order, error) {
			return order, nil
		},
		UpdateOrderStatusFunc: func(_ context.Context, arg repository.UpdateOrderStatusParams) (repository.Order, error) {
			updated = arg
			order.PaymentStatus = arg.PaymentStatus
			return order, nil
		},
	}

	svc := NewOrderService(store, &billing.MockProvider{}, events.NewMockPublisher(), testLogger())
	_, err := svc.MarkOrderPaymentFailed(context.Background(), domain.MarkOrderPaymentFailedParams{
		OrderID:        testOrderID,
		GatewayEventID: "evt_002",
	})

	assert.NoError(t, err)
	assert.Equal(t, string(domain.PaymentStatusFailed), updated.PaymentStatus)
	// Fulfillment is untouched; the customer can retry payment.
	assert.Equal(t, string(domain.OrderStatusProcessing), updated.OrderStatus)
}

func TestCancelExpiredPendingOrders(t *testing.T) {
	stale := repository.Order{
		ID:              mustUUID(t, testOrderID),
		OrderStatus:     string(domain.OrderStatusProcessing),
		PaymentStatus:   string(domain.PaymentStatusPending),
		PaymentIntentID: repository.TextOrNull("pi_stale"),
	}

	var cancelledIntents []string
	provider := &billing.MockProvider{
		CancelPaymentIntentFunc: func(_ context.Context, id string) error {
			cancelledIntents = append(cancelledIntents, id)
			return nil
		},
	}
	store := &MockStore{
		ListExpiredPendingOrdersFunc: func(_ context.Context, cutoff pgtype.Timestamptz) ([]repository.Order, error) {
			assert.True(t, cutoff.Time.Before(time.Now()))
			return []repository.Order{stale}, nil
		},
		UpdateOrderStatusFunc: func(_ context.Context, arg repository.UpdateOrderStatusParams) (repository.Order, error) {
			assert.Equal(t, string(domain.OrderStatusCancelled), arg.OrderStatus)
			stale.OrderStatus = arg.OrderStatus
			return stale, nil
		},
	}
	publisher := events.NewMockPublisher()

	svc := NewOrderService(store, provider, publisher, testLogger())
	count, err := svc.CancelExpiredPendingOrders(context.Background(), 30*time.Minute)

	assert.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, []string{"pi_stale"}, cancelledIntents)
	assert.Len(t, publisher.BySubject(events.SubjectOrderCancelled), 1)
}
