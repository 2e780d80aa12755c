package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, user_id, order_number, order_status, payment_status,
	total_cents, currency, payment_intent_id, is_delivered,
	paid_at, delivered_at, refunded_at, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.UserID, &o.OrderNumber, &o.OrderStatus, &o.PaymentStatus,
		&o.TotalCents, &o.Currency, &o.PaymentIntentID, &o.IsDelivered,
		&o.PaidAt, &o.DeliveredAt, &o.RefundedAt, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

func collectOrders(rows pgx.Rows) ([]Order, error) {
	defer rows.Close()
	var items []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, o)
	}
	return items, rows.Err()
}

type CreateOrderParams struct {
	UserID        pgtype.UUID
	OrderNumber   string
	OrderStatus   string
	PaymentStatus string
	TotalCents    int64
	Currency      string
}

const createOrder = `
INSERT INTO orders (user_id, order_number, order_status, payment_status, total_cents, currency)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + orderColumns

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, createOrder,
		arg.UserID, arg.OrderNumber, arg.OrderStatus, arg.PaymentStatus,
		arg.TotalCents, arg.Currency,
	))
}

type CreateOrderItemParams struct {
	OrderID        pgtype.UUID
	ProductID      pgtype.UUID
	Title          string
	UnitPriceCents int64
	Quantity       int32
	ImageKey       string
}

const createOrderItem = `
INSERT INTO order_items (order_id, product_id, title, unit_price_cents, quantity, image_key)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, order_id, product_id, title, unit_price_cents, quantity, image_key, created_at`

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	var i OrderItem
	err := q.db.QueryRow(ctx, createOrderItem,
		arg.OrderID, arg.ProductID, arg.Title, arg.UnitPriceCents,
		arg.Quantity, arg.ImageKey,
	).Scan(&i.ID, &i.OrderID, &i.ProductID, &i.Title, &i.UnitPriceCents,
		&i.Quantity, &i.ImageKey, &i.CreatedAt)
	return i, err
}

const getOrder = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

func (q *Queries) GetOrder(ctx context.Context, id pgtype.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrder, id))
}

const getOrderByPaymentIntentID = `
SELECT ` + orderColumns + ` FROM orders WHERE payment_intent_id = $1`

func (q *Queries) GetOrderByPaymentIntentID(ctx context.Context, paymentIntentID string) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderByPaymentIntentID, paymentIntentID))
}

const getOrderItems = `
SELECT id, order_id, product_id, title, unit_price_cents, quantity, image_key, created_at
FROM order_items
WHERE order_id = $1
ORDER BY created_at`

func (q *Queries) GetOrderItems(ctx context.Context, orderID pgtype.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, getOrderItems, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var i OrderItem
		if err := rows.Scan(&i.ID, &i.OrderID, &i.ProductID, &i.Title,
			&i.UnitPriceCents, &i.Quantity, &i.ImageKey, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

type ListOrdersParams struct {
	Limit  int32
	Offset int32
}

const listOrders = `
SELECT ` + orderColumns + ` FROM orders
ORDER BY created_at DESC
LIMIT $1 OFFSET $2`

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrders, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

type ListOrdersForUserParams struct {
	UserID pgtype.UUID
	Limit  int32
	Offset int32
}

const listOrdersForUser = `
SELECT ` + orderColumns + ` FROM orders
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

func (q *Queries) ListOrdersForUser(ctx context.Context, arg ListOrdersForUserParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrdersForUser, arg.UserID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

// UpdateOrderStatusParams writes a full, already-validated status snapshot.
// The lifecycle service is the only caller; it derives every field from the
// transition tables.
type UpdateOrderStatusParams struct {
	ID            pgtype.UUID
	OrderStatus   string
	PaymentStatus string
	IsDelivered   bool
	PaidAt        pgtype.Timestamptz
	DeliveredAt   pgtype.Timestamptz
	RefundedAt    pgtype.Timestamptz
}

const updateOrderStatus = `
UPDATE orders
SET order_status = $2,
    payment_status = $3,
    is_delivered = $4,
    paid_at = $5,
    delivered_at = $6,
    refunded_at = $7,
    updated_at = now()
WHERE id = $1
RETURNING ` + orderColumns

func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrderStatus,
		arg.ID, arg.OrderStatus, arg.PaymentStatus, arg.IsDelivered,
		arg.PaidAt, arg.DeliveredAt, arg.RefundedAt,
	))
}

type SetOrderPaymentIntentParams struct {
	ID              pgtype.UUID
	PaymentIntentID pgtype.Text
}

const setOrderPaymentIntent = `
UPDATE orders SET payment_intent_id = $2, updated_at = now() WHERE id = $1`

func (q *Queries) SetOrderPaymentIntent(ctx context.Context, arg SetOrderPaymentIntentParams) error {
	_, err := q.db.Exec(ctx, setOrderPaymentIntent, arg.ID, arg.PaymentIntentID)
	return err
}

const deleteOrder = `DELETE FROM orders WHERE id = $1`

// DeleteOrder removes an order, returning the number of rows deleted.
func (q *Queries) DeleteOrder(ctx context.Context, id pgtype.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteOrder, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const listExpiredPendingOrders = `
SELECT ` + orderColumns + ` FROM orders
WHERE payment_status = 'pending'
  AND order_status = 'processing'
  AND created_at < $1
ORDER BY created_at`

func (q *Queries) ListExpiredPendingOrders(ctx context.Context, cutoff pgtype.Timestamptz) ([]Order, error) {
	rows, err := q.db.Query(ctx, listExpiredPendingOrders, cutoff)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}
