package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const returnColumns = `id, order_id, product_id, user_id, reason, status,
	refund_amount_cents, refund_method, refund_transaction_id, admin_note,
	refunded_at, is_deleted, created_at, updated_at`

func scanReturn(row pgx.Row) (Return, error) {
	var r Return
	err := row.Scan(
		&r.ID, &r.OrderID, &r.ProductID, &r.UserID, &r.Reason, &r.Status,
		&r.RefundAmountCents, &r.RefundMethod, &r.RefundTransactionID,
		&r.AdminNote, &r.RefundedAt, &r.IsDeleted, &r.CreatedAt, &r.UpdatedAt,
	)
	return r, err
}

type CreateReturnParams struct {
	OrderID   pgtype.UUID
	ProductID pgtype.UUID
	UserID    pgtype.UUID
	Reason    string
}

const createReturn = `
INSERT INTO returns (order_id, product_id, user_id, reason)
VALUES ($1, $2, $3, $4)
RETURNING ` + returnColumns

func (q *Queries) CreateReturn(ctx context.Context, arg CreateReturnParams) (Return, error) {
	return scanReturn(q.db.QueryRow(ctx, createReturn,
		arg.OrderID, arg.ProductID, arg.UserID, arg.Reason,
	))
}

const getReturn = `SELECT ` + returnColumns + ` FROM returns WHERE id = $1 AND NOT is_deleted`

func (q *Queries) GetReturn(ctx context.Context, id pgtype.UUID) (Return, error) {
	return scanReturn(q.db.QueryRow(ctx, getReturn, id))
}

type UpdateReturnStatusParams struct {
	ID                  pgtype.UUID
	Status              string
	AdminNote           string
	RefundAmountCents   pgtype.Int8
	RefundMethod        pgtype.Text
	RefundTransactionID pgtype.Text
	RefundedAt          pgtype.Timestamptz
}

const updateReturnStatus = `
UPDATE returns
SET status = $2,
    admin_note = $3,
    refund_amount_cents = $4,
    refund_method = $5,
    refund_transaction_id = $6,
    refunded_at = $7,
    updated_at = now()
WHERE id = $1 AND NOT is_deleted
RETURNING ` + returnColumns

func (q *Queries) UpdateReturnStatus(ctx context.Context, arg UpdateReturnStatusParams) (Return, error) {
	return scanReturn(q.db.QueryRow(ctx, updateReturnStatus,
		arg.ID, arg.Status, arg.AdminNote, arg.RefundAmountCents,
		arg.RefundMethod, arg.RefundTransactionID, arg.RefundedAt,
	))
}

type ListReturnsParams struct {
	Limit  int32
	Offset int32
}

const listReturns = `
SELECT r.id, r.order_id, r.product_id, r.user_id, r.reason, r.status,
	r.refund_amount_cents, r.refund_method, r.refund_transaction_id, r.admin_note,
	r.refunded_at, r.is_deleted, r.created_at, r.updated_at,
	o.order_number,
	p.name AS product_name,
	u.email AS customer_email,
	trim(u.first_name || ' ' || u.last_name) AS customer_name
FROM returns r
JOIN orders o ON o.id = r.order_id
JOIN products p ON p.id = r.product_id
JOIN users u ON u.id = r.user_id
WHERE NOT r.is_deleted
ORDER BY r.created_at DESC
LIMIT $1 OFFSET $2`

func (q *Queries) ListReturns(ctx context.Context, arg ListReturnsParams) ([]ListReturnsRow, error) {
	rows, err := q.db.Query(ctx, listReturns, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ListReturnsRow
	for rows.Next() {
		var r ListReturnsRow
		if err := rows.Scan(
			&r.ID, &r.OrderID, &r.ProductID, &r.UserID, &r.Reason, &r.Status,
			&r.RefundAmountCents, &r.RefundMethod, &r.RefundTransactionID,
			&r.AdminNote, &r.RefundedAt, &r.IsDeleted, &r.CreatedAt, &r.UpdatedAt,
			&r.OrderNumber, &r.ProductName, &r.CustomerEmail, &r.CustomerName,
		); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const softDeleteReturnsForOrder = `
UPDATE returns SET is_deleted = true, updated_at = now() WHERE order_id = $1`

// SoftDeleteReturnsForOrder hides an order's returns when the order itself is
// removed, preserving the rows for audit.
func (q *Queries) SoftDeleteReturnsForOrder(ctx context.Context, orderID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, softDeleteReturnsForOrder, orderID)
	return err
}
