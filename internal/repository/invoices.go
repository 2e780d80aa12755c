package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const invoiceColumns = `id, order_id, invoice_number, customer_name, customer_email,
	subtotal_cents, tax_cents, total_cents, currency, pdf_key, created_at`

func scanInvoice(row pgx.Row) (Invoice, error) {
	var i Invoice
	err := row.Scan(
		&i.ID, &i.OrderID, &i.InvoiceNumber, &i.CustomerName, &i.CustomerEmail,
		&i.SubtotalCents, &i.TaxCents, &i.TotalCents, &i.Currency, &i.PdfKey,
		&i.CreatedAt,
	)
	return i, err
}

type CreateInvoiceParams struct {
	OrderID       pgtype.UUID
	InvoiceNumber string
	CustomerName  string
	CustomerEmail string
	SubtotalCents int64
	TaxCents      int64
	TotalCents    int64
	Currency      string
	PdfKey        string
}

const createInvoice = `
INSERT INTO invoices (order_id, invoice_number, customer_name, customer_email,
	subtotal_cents, tax_cents, total_cents, currency, pdf_key)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + invoiceColumns

// CreateInvoice inserts the billing snapshot. The unique index on order_id
// makes generation once-per-order; callers translate the unique violation
// into a conflict.
func (q *Queries) CreateInvoice(ctx context.Context, arg CreateInvoiceParams) (Invoice, error) {
	return scanInvoice(q.db.QueryRow(ctx, createInvoice,
		arg.OrderID, arg.InvoiceNumber, arg.CustomerName, arg.CustomerEmail,
		arg.SubtotalCents, arg.TaxCents, arg.TotalCents, arg.Currency, arg.PdfKey,
	))
}

const getInvoice = `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`

func (q *Queries) GetInvoice(ctx context.Context, id pgtype.UUID) (Invoice, error) {
	return scanInvoice(q.db.QueryRow(ctx, getInvoice, id))
}

const getInvoiceByOrderID = `SELECT ` + invoiceColumns + ` FROM invoices WHERE order_id = $1`

func (q *Queries) GetInvoiceByOrderID(ctx context.Context, orderID pgtype.UUID) (Invoice, error) {
	return scanInvoice(q.db.QueryRow(ctx, getInvoiceByOrderID, orderID))
}

func collectInvoices(rows pgx.Rows) ([]Invoice, error) {
	defer rows.Close()
	var items []Invoice
	for rows.Next() {
		i, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

type ListInvoicesParams struct {
	Limit  int32
	Offset int32
}

const listInvoices = `
SELECT ` + invoiceColumns + ` FROM invoices
ORDER BY created_at DESC
LIMIT $1 OFFSET $2`

func (q *Queries) ListInvoices(ctx context.Context, arg ListInvoicesParams) ([]Invoice, error) {
	rows, err := q.db.Query(ctx, listInvoices, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return collectInvoices(rows)
}

type ListInvoicesForUserParams struct {
	UserID pgtype.UUID
	Limit  int32
	Offset int32
}

const listInvoicesForUser = `
SELECT i.id, i.order_id, i.invoice_number, i.customer_name, i.customer_email,
	i.subtotal_cents, i.tax_cents, i.total_cents, i.currency, i.pdf_key, i.created_at
FROM invoices i
JOIN orders o ON o.id = i.order_id
WHERE o.user_id = $1
ORDER BY i.created_at DESC
LIMIT $2 OFFSET $3`

func (q *Queries) ListInvoicesForUser(ctx context.Context, arg ListInvoicesForUserParams) ([]Invoice, error) {
	rows, err := q.db.Query(ctx, listInvoicesForUser, arg.UserID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return collectInvoices(rows)
}

const countInvoicesForOrder = `SELECT count(*) FROM invoices WHERE order_id = $1`

func (q *Queries) CountInvoicesForOrder(ctx context.Context, orderID pgtype.UUID) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countInvoicesForOrder, orderID).Scan(&n)
	return n, err
}
