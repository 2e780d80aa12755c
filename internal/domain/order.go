package domain

import (
	"context"
	"time"

	"github.com/zuricommerce/zuri/internal/repository"
)

// OrderStatus is the fulfillment state of an order.
type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// PaymentStatus is the payment state of an order, tracked independently of
// fulfillment.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Valid reports whether s is a known fulfillment status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusProcessing, OrderStatusConfirmed, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further fulfillment transitions are allowed.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed,
		PaymentStatusRefunded:
		return true
	}
	return false
}

// fulfillmentTransitions is the allowed fulfillment state machine:
// processing -> confirmed -> shipped -> delivered, with any non-delivered
// state able to cancel.
var fulfillmentTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusProcessing: {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
}

// paymentTransitions is the allowed payment state machine. A failed payment
// may return to pending for retry; refunds only follow a successful payment.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:  {PaymentStatusPaid, PaymentStatusFailed},
	PaymentStatusPaid:     {PaymentStatusRefunded},
	PaymentStatusFailed:   {PaymentStatusPending},
	PaymentStatusRefunded: {},
}

// CanTransitionOrderStatus reports whether from -> to is a legal fulfillment
// transition.
func CanTransitionOrderStatus(from, to OrderStatus) bool {
	for _, next := range fulfillmentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanTransitionPaymentStatus reports whether from -> to is a legal payment
// transition.
func CanTransitionPaymentStatus(from, to PaymentStatus) bool {
	for _, next := range paymentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Order-related domain errors.
var (
	ErrOrderNotFound       = &Error{Code: ENOTFOUND, Message: "Order not found"}
	ErrOrderNotPaid        = &Error{Code: EPAYMENT, Message: "Order has not been paid"}
	ErrOrderNotDelivered   = &Error{Code: EINVALID, Message: "Order has not been delivered"}
	ErrEmptyOrder          = &Error{Code: EINVALID, Message: "Order must contain at least one item"}
	ErrOrderHasInvoice     = &Error{Code: ECONFLICT, Message: "Order has an invoice and cannot be deleted"}
	ErrEventAlreadyApplied = &Error{Code: ECONFLICT, Message: "Gateway event already processed"}
	ErrPaymentAfterCancel  = &Error{Code: EPAYMENT, Message: "Payment received for a cancelled order"}
	ErrNoTransition        = &Error{Code: EINVALID, Message: "Patch contains no status change"}
)

// OrderPatch describes a requested status change. Nil fields are left
// untouched. Timestamps and the isDelivered flag are derived by the service,
// never supplied by callers.
type OrderPatch struct {
	OrderStatus   *OrderStatus
	PaymentStatus *PaymentStatus
}

// NewOrderItem is one requested line in a new order. Title, price and image
// are snapshotted from the catalog at creation time.
type NewOrderItem struct {
	ProductID string
	Quantity  int32
}

// CreateOrderParams contains parameters for creating an order.
type CreateOrderParams struct {
	UserID   string
	Currency string
	Items    []NewOrderItem
}

// MarkOrderPaidParams carries a gateway confirmation into the lifecycle.
// GatewayEventID is the idempotency key: a replayed event is a no-op.
type MarkOrderPaidParams struct {
	OrderID         string
	GatewayEventID  string
	PaymentIntentID string
}

// MarkOrderPaymentFailedParams carries a gateway failure into the lifecycle.
type MarkOrderPaymentFailedParams struct {
	OrderID        string
	GatewayEventID string
}

// OrderDetail aggregates an order with its line items.
type OrderDetail struct {
	Order repository.Order
	Items []repository.OrderItem
}

// OrderService is the single mutation entry point for the order lifecycle.
// All status changes pass through Transition (or the gateway-driven MarkOrder*
// methods), which validate against the state machines above.
type OrderService interface {
	// CreateOrder creates an order in {payment pending, processing} with
	// line items snapshotted from the catalog. The total is computed
	// server-side from the snapshots.
	CreateOrder(ctx context.Context, params CreateOrderParams) (*OrderDetail, error)

	// GetOrder retrieves a single order with its items.
	GetOrder(ctx context.Context, orderID string) (*OrderDetail, error)

	// ListOrders returns all orders, newest first.
	ListOrders(ctx context.Context, limit, offset int32) ([]repository.Order, error)

	// ListOrdersForUser returns a customer's orders, newest first.
	ListOrdersForUser(ctx context.Context, userID string, limit, offset int32) ([]repository.Order, error)

	// TransitionOrder applies a validated status change. Illegal transitions
	// are rejected with EINVALID. Reaching delivered stamps deliveredAt and
	// sets isDelivered; reaching paid/refunded stamps the matching timestamp.
	TransitionOrder(ctx context.Context, orderID string, patch OrderPatch) (*repository.Order, error)

	// DeleteOrder hard-deletes an order. Rejected with ECONFLICT while an
	// invoice references the order; returns for the order are soft-deleted.
	DeleteOrder(ctx context.Context, orderID string) error

	// MarkOrderPaid applies a gateway payment confirmation, guarded by the
	// gateway event id so replayed webhooks cannot double-apply.
	MarkOrderPaid(ctx context.Context, params MarkOrderPaidParams) (*repository.Order, error)

	// MarkOrderPaymentFailed applies a gateway payment failure under the
	// same replay guard.
	MarkOrderPaymentFailed(ctx context.Context, params MarkOrderPaymentFailedParams) (*repository.Order, error)

	// CancelExpiredPendingOrders cancels orders whose payment has been
	// pending longer than ttl. Used by the maintenance worker.
	CancelExpiredPendingOrders(ctx context.Context, ttl time.Duration) (int, error)
}
