package service

import (
	"context"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"

	"github.com/zuricommerce/zuri/internal/billing"
	"github.com/zuricommerce/zuri/internal/domain"
	"github.com/zuricommerce/zuri/internal/events"
	"github.com/zuricommerce/zuri/internal/repository"
)

func deliveredOrder(t *testing.T) repository.Order {
	t.Helper()
	order := paidOrder(t)
	order.OrderStatus = string(domain.OrderStatusDelivered)
	order.IsDelivered = true
	order.PaymentIntentID = repository.TextOrNull("pi_123")
	return order
}

func returnStoreFor(t *testing.T, order repository.Order) *MockStore {
	t.Helper()
	return &MockStore{
		GetOrderFunc: func(_ context.Context, _ pgtype.UUID) (repository.Order, error) {
			return order, nil
		},
		GetOrderItemsFunc: func(_ context.Context, _ pgtype.UUID) ([]repository.OrderItem, error) {
			return orderItems(t), nil
		},
		CreateReturnFunc: func(_ context.Context, arg repository.CreateReturnParams) (repository.Return, error) {
			return repository.Return{
				ID:        mustUUID(t, testReturnID),
				OrderID:   arg.OrderID,
				ProductID: arg.ProductID,
				UserID:    arg.UserID,
				Reason:    arg.Reason,
				Status:    string(domain.ReturnStatusPending),
			}, nil
		},
	}
}

func TestCreateReturn(t *testing.T) {
	store := returnStoreFor(t, deliveredOrder(t))
	svc := NewReturnService(store, &billing.MockProvider{}, events.NewMockPublisher(), testLogger())

	ret, err := svc.CreateReturn(context.Background(), domain.CreateReturnParams{
		UserID:    testUserID,
		OrderID:   testOrderID,
		ProductID: testProductID,
		Reason:    "The pump dispenser arrived broken",
	})

	assert.NoError(t, err)
	assert.Equal(t, string(domain.ReturnStatusPending), ret.Status)
	assert.Equal(t, "The pump dispenser arrived broken", ret.Reason)
}

func TestCreateReturnReasonLength(t *testing.T) {
	tests := []struct {
		name    string
		reason  string
		wantErr bool
	}{
		{"four characters rejected", "bad!", true},
		{"five characters accepted", "leaks", false},
		{"five hundred characters accepted", strings.Repeat("x", 500), false},
		{"over five hundred rejected", strings.Repeat("x", 501), true},
		{"whitespace only rejected", "       ", true},
		// Bounds are counted in characters, not bytes.
		{"four multibyte characters rejected", "émié", true},
		{"five multibyte characters accepted", "émiés", false},
		{"five hundred multibyte characters accepted", strings.Repeat("é", 500), false},
		{"over five hundred multibyte rejected", strings.Repeat("é", 501), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := returnStoreFor(t, deliveredOrder(t))
			svc := NewReturnService(store, &billing.MockProvider{}, events.NewMockPublisher(), testLogger())

			_, err := svc.CreateReturn(context.Background(), domain.CreateReturnParams{
				UserID:    testUserID,
				OrderID:   testOrderID,
				ProductID: testProductID,
				Reason:    tt.reason,
			})

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreateReturnRequiresOwnership(t *testing.T) {
	order := deliveredOrder(t)
	order.UserID = mustUUID(t, testProduct2) // someone else's order

	store := returnStoreFor(t, order)
	svc := NewReturnService(store, &billing.MockProvider{}, events.NewMockPublisher(), testLogger())

	_, err := svc.CreateReturn(context.Background(), domain.CreateReturnParams{
		UserID:    testUserID,
		OrderID:   testOrderID,
		ProductID: testProductID,
		Reason:    "Wrong shade of foundation",
	})
	assert.ErrorIs(t, err, domain.ErrReturnNotOwnedByUser)
	assert.Equal(t, domain.EFORBIDDEN, domain.ErrorCode(err))
}

func TestCreateReturnRequiresDelivery(t *testing.T) {
	order := deliveredOrder(t)
	order.OrderStatus = string(domain.OrderStatusShipped)
	order.IsDelivered = false

	store := returnStoreFor(t, order)
	svc := NewReturnService(store, &billing.MockProvider{}, events.NewMockPublisher(), testLogger())

	_, err := svc.CreateReturn(context.Background(), domain.CreateReturnParams{
		UserID:    testUserID,
		OrderID:   testOrderID,
		ProductID: testProductID,
		Reason:    "Changed my mind about this one",
	})
	assert.ErrorIs(t, err, domain.ErrOrderNotDelivered)
}

func TestCreateReturnRequiresPaidOrder(t *testing.T) {
	order := deliveredOrder(t)
	order.PaymentStatus = string(domain.PaymentStatusRefunded)

	store := returnStoreFor(t, order)
	svc := NewReturnService(store, &billing.MockProvider{}, events.NewMockPublisher(), testLogger())

	_, err := svc.CreateReturn(context.Background(), domain.CreateReturnParams{
		UserID:    testUserID,
		OrderID:   testOrderID,
		ProductID: testProductID,
		Reason:    "Second thoughts about the serum",
	})
	assert.ErrorIs(t, err, domain.ErrOrderNotPaid)
}

func TestCreateReturnRejectsForeignProduct(t *testing.T) {
	store := returnStoreFor(t, deliveredOrder(t))
	svc := NewReturnService(store, &billing.MockProvider{}, events.NewMockPublisher(), testLogger())

	_, err := svc.CreateReturn(context.Background(), domain.CreateReturnParams{
		UserID:    testUserID,
		OrderID:   testOrderID,
		ProductID: testInvoiceID, // a valid UUID that is not in the order
		Reason:    "This is not even mine",
	})
	assert.ErrorIs(t, err, domain.ErrProductNotInOrder)
}

func pendingReturn(t *testing.T, status domain.ReturnStatus) repository.Return {
	t.Helper()
	return repository.Return{
		ID:        mustUUID(t, testReturnID),
		OrderID:   mustUUID(t, testOrderID),
		ProductID: mustUUID(t, testProductID),
		UserID:    mustUUID(t, testUserID),
		Reason:    "The pump dispenser arrived broken",
		Status:    string(status),
	}
}

func TestUpdateReturnStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    domain.ReturnStatus
		to      domain.ReturnStatus
		wantErr bool
	}{
		{"pending to approved", domain.ReturnStatusPending, domain.ReturnStatusApproved, false},
		{"pending to rejected", domain.ReturnStatusPending, domain.ReturnStatusRejected, false},
		{"pending cannot skip to completed", domain.ReturnStatusPending, domain.ReturnStatusCompleted, true},
		{"approved to processing", domain.ReturnStatusApproved, domain.ReturnStatusProcessing, false},
		{"approved cannot revert", domain.ReturnStatusApproved, domain.ReturnStatusPending, true},
		{"processing to completed", domain.ReturnStatusProcessing, domain.ReturnStatusCompleted, false},
		{"rejected is terminal", domain.ReturnStatusRejected, domain.ReturnStatusApproved, true},
		{"completed is terminal", domain.ReturnStatusCompleted, domain.ReturnStatusProcessing, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &MockStore{
				GetReturnFunc: func(_ context.Context, _ pgtype.UUID) (repository.Return, error) {
					return pendingReturn(t, tt.from), nil
				},
				UpdateReturnStatusFunc: func(_ context.Context, arg repository.UpdateReturnStatusParams) (repository.Return, error) {
					ret := pendingReturn(t, tt.to)
					ret.AdminNote = arg.AdminNote
					return ret, nil
				},
			}
			svc := NewReturnService(store, &billing.MockProvider{}, events.NewMockPublisher(), testLogger())

			_, err := svc.UpdateReturnStatus(context.Background(), domain.UpdateReturnStatusParams{
				ReturnID: testReturnID,
				Status:   tt.to,
			})

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCompleteReturnIssuesRefund(t *testing.T) {
	order := deliveredOrder(t)
	amount := int64(50000)

	var returnUpdate repository.UpdateReturnStatusParams
	var orderUpdate *repository.UpdateOrderStatusParams
	store := &MockStore{
		GetReturnFunc: func(_ context.Context, _ pgtype.UUID) (repository.Return, error) {
			return pendingReturn(t, domain.ReturnStatusProcessing), nil
		},
		GetOrderFunc: func(_ context.Context, _ pgtype.UUID) (repository.Order, error) {
			return order, nil
		},
		UpdateReturnStatusFunc: func(_ context.Context, arg repository.UpdateReturnStatusParams) (repository.Return, error) {
			returnUpdate = arg
			ret := pendingReturn(t, domain.ReturnStatusCompleted)
			ret.RefundAmountCents = arg.RefundAmountCents
			ret.RefundMethod = arg.RefundMethod
			ret.RefundTransactionID = arg.RefundTransactionID
			ret.RefundedAt = arg.RefundedAt
			return ret, nil
		},
		UpdateOrderStatusFunc: func(_ context.Context, arg repository.UpdateOrderStatusParams) (repository.Order, error) {
			orderUpdate = &arg
			return order, nil
		},
	}
	provider := &billing.MockProvider{}
	publisher := events.NewMockPublisher()

	svc := NewReturnService(store, provider, publisher, testLogger())
	ret, err := svc.UpdateReturnStatus(context.Background(), domain.UpdateReturnStatusParams{
		ReturnID:          testReturnID,
		Status:            domain.ReturnStatusCompleted,
		AdminNote:         "Inspected, item damaged as reported",
		RefundAmountCents: &amount,
		RefundMethod:      "original_payment",
	})

	assert.NoError(t, err)
	assert.Len(t, provider.Refunds, 1)
	assert.Equal(t, "pi_123", provider.Refunds[0].PaymentIntentID)
	assert.Equal(t, amount, provider.Refunds[0].AmountCents)
	// The return id keys the gateway call so a retried completion cannot
	// issue a second refund.
	assert.Equal(t, testReturnID, provider.Refunds[0].IdempotencyKey)
	assert.Equal(t, amount, returnUpdate.RefundAmountCents.Int64)
	assert.True(t, returnUpdate.RefundedAt.Valid)
	assert.True(t, strings.HasPrefix(ret.RefundTransactionID.String, "re_mock"))
	// Partial refund leaves the order's payment status alone.
	assert.Nil(t, orderUpdate)
	assert.Len(t, publisher.BySubject(events.SubjectReturnCompleted), 1)
	assert.Empty(t, publisher.BySubject(events.SubjectOrderRefunded))
}

func TestCompleteReturnFullRefundMarksOrderRefunded(t *testing.T) {
	order := deliveredOrder(t)
	amount := order.TotalCents

	var orderUpdate repository.UpdateOrderStatusParams
	store := &MockStore{
		GetReturnFunc: func(_ context.Context, _ pgtype.UUID) (repository.Return, error) {
			return pendingReturn(t, domain.ReturnStatusProcessing), nil
		},
		GetOrderFunc: func(_ context.Context, _ pgtype.UUID) (repository.Order, error) {
			return order, nil
		},
		UpdateReturnStatusFunc: func(_ context.Context, arg repository.UpdateReturnStatusParams) (repository.Return, error) {
			ret := pendingReturn(t, domain.ReturnStatusCompleted)
			ret.RefundAmountCents = arg.RefundAmountCents
			return ret, nil
		},
		UpdateOrderStatusFunc: func(_ context.Context, arg repository.UpdateOrderStatusParams) (repository.Order, error) {
			orderUpdate = arg
			order.PaymentStatus = arg.PaymentStatus
			order.RefundedAt = arg.RefundedAt
			return order, nil
		},
	}
	publisher := events.NewMockPublisher()

	svc := NewReturnService(store, &billing.MockProvider{}, publisher, testLogger())
	_, err := svc.UpdateReturnStatus(context.Background(), domain.UpdateReturnStatusParams{
		ReturnID:          testReturnID,
		Status:            domain.ReturnStatusCompleted,
		RefundAmountCents: &amount,
		RefundMethod:      "original_payment",
	})

	assert.NoError(t, err)
	assert.Equal(t, string(domain.PaymentStatusRefunded), orderUpdate.PaymentStatus)
	assert.True(t, orderUpdate.RefundedAt.Valid)
	assert.Len(t, publisher.BySubject(events.SubjectOrderRefunded), 1)
}

func TestCompleteReturnRefundCannotExceedTotal(t *testing.T) {
	order := deliveredOrder(t)
	amount := order.TotalCents + 1

	store := &MockStore{
		GetReturnFunc: func(_ context.Context, _ pgtype.UUID) (repository.Return, error) {
			return pendingReturn(t, domain.ReturnStatusProcessing), nil
		},
		GetOrderFunc: func(_ context.Context, _ pgtype.UUID) (repository.Order, error) {
			return order, nil
		},
	}
	provider := &billing.MockProvider{}

	svc := NewReturnService(store, provider, events.NewMockPublisher(), testLogger())
	_, err := svc.UpdateReturnStatus(context.Background(), domain.UpdateReturnStatusParams{
		ReturnID:          testReturnID,
		Status:            domain.ReturnStatusCompleted,
		RefundAmountCents: &amount,
	})

	assert.ErrorIs(t, err, domain.ErrRefundExceedsTotal)
	assert.Empty(t, provider.Refunds)
}

func TestUpdateReturnStatusNotFound(t *testing.T) {
	store := &MockStore{
		GetReturnFunc: func(_ context.Context, _ pgtype.UUID) (repository.Return, error) {
			return repository.Return{}, pgx.ErrNoRows
		},
	}

	svc := NewReturnService(store, &billing.MockProvider{}, events.NewMockPublisher(), testLogger())
	_, err := svc.UpdateReturnStatus(context.Background(), domain.UpdateReturnStatusParams{
		ReturnID: testReturnID,
		Status:   domain.ReturnStatusApproved,
	})
	assert.ErrorIs(t, err, domain.ErrReturnNotFound)
}
