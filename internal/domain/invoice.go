package domain

import (
	"context"
	"io"

	"github.com/zuricommerce/zuri/internal/repository"
)

// Invoice-related domain errors.
var (
	ErrInvoiceNotFound      = &Error{Code: ENOTFOUND, Message: "Invoice not found"}
	ErrOrderAlreadyInvoiced = &Error{Code: ECONFLICT, Message: "Order already invoiced"}
	ErrInvoiceFileMissing   = &Error{Code: ENOTFOUND, Message: "Invoice document is missing"}
)

// InvoiceService generates and serves immutable billing snapshots of paid
// orders. Generation is once-per-order, enforced by a unique index on the
// order reference.
type InvoiceService interface {
	// GenerateInvoice snapshots a paid order into an invoice record and a
	// rendered PDF. ENOTFOUND if the order is absent, EPAYMENT if it is not
	// paid, ECONFLICT if an invoice already exists.
	GenerateInvoice(ctx context.Context, orderID string) (*repository.Invoice, error)

	// GetInvoice retrieves an invoice record.
	GetInvoice(ctx context.Context, invoiceID string) (*repository.Invoice, error)

	// DownloadInvoice streams the stored PDF. EFORBIDDEN unless the
	// requester is an admin or the order's owner; ENOTFOUND if the record
	// or the underlying file is missing.
	DownloadInvoice(ctx context.Context, invoiceID string, requester *repository.User) (io.ReadCloser, *repository.Invoice, error)

	// ListInvoices returns all invoices, newest first (admin view).
	ListInvoices(ctx context.Context, limit, offset int32) ([]repository.Invoice, error)

	// ListInvoicesForUser returns the invoices for a customer's orders.
	ListInvoicesForUser(ctx context.Context, userID string, limit, offset int32) ([]repository.Invoice, error)
}
