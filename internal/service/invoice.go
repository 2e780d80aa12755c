package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/zuricommerce/zuri/internal/domain"
	"github.com/zuricommerce/zuri/internal/pdf"
	"github.com/zuricommerce/zuri/internal/repository"
	"github.com/zuricommerce/zuri/internal/storage"
	"github.com/zuricommerce/zuri/internal/tax"
)

// InvoiceService turns paid orders into immutable billing snapshots with a
// rendered PDF. An order is invoiced at most once; the unique index on the
// order reference is the backstop.
type InvoiceService struct {
	store    repository.Store
	storage  storage.Storage
	tax      tax.Calculator
	renderer *pdf.Renderer
	logger   *slog.Logger
}

var _ domain.InvoiceService = (*InvoiceService)(nil)

// NewInvoiceService creates the invoice service.
func NewInvoiceService(store repository.Store, files storage.Storage, calc tax.Calculator, renderer *pdf.Renderer, logger *slog.Logger) *InvoiceService {
	return &InvoiceService{
		store:    store,
		storage:  files,
		tax:      calc,
		renderer: renderer,
		logger:   logger,
	}
}

// GenerateInvoice snapshots a paid order. The subtotal is recomputed from the
// line-item snapshots, never read back from the order row, so the invoice is
// internally consistent even if the order total was ever patched.
func (s *InvoiceService) GenerateInvoice(ctx context.Context, orderID string) (*repository.Invoice, error) {
	const op = "InvoiceService.GenerateInvoice"

	id, err := parseID(op, "orderId", orderID)
	if err != nil {
		return nil, err
	}

	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, domain.Internal(err, op, "failed to load order")
	}
	if domain.PaymentStatus(order.PaymentStatus) != domain.PaymentStatusPaid {
		return nil, domain.ErrOrderNotPaid
	}

	if _, err := s.store.GetInvoiceByOrderID(ctx, id); err == nil {
		return nil, domain.ErrOrderAlreadyInvoiced
	} else if !repository.IsNoRows(err) {
		return nil, domain.Internal(err, op, "failed to check existing invoice")
	}

	items, err := s.store.GetOrderItems(ctx, id)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load order items")
	}
	customer, err := s.store.GetUserByID(ctx, order.UserID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load customer")
	}

	var subtotal int64
	taxLines := make([]tax.LineItem, 0, len(items))
	docLines := make([]pdf.InvoiceLine, 0, len(items))
	for _, item := range items {
		lineTotal := item.UnitPriceCents * int64(item.Quantity)
		subtotal += lineTotal
		taxLines = append(taxLines, tax.LineItem{
			Description:    item.Title,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			TotalCents:     lineTotal,
		})
		docLines = append(docLines, pdf.InvoiceLine{
			Title:          item.Title,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			TotalCents:     lineTotal,
		})
	}

	taxResult, err := s.tax.CalculateTax(ctx, tax.TaxParams{
		Currency:  order.Currency,
		LineItems: taxLines,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to calculate tax")
	}

	now := time.Now().UTC()
	invoiceNumber := newInvoiceNumber(now)
	customerName := fmt.Sprintf("%s %s", customer.FirstName, customer.LastName)

	var buf bytes.Buffer
	err = s.renderer.Render(pdf.InvoiceDocument{
		InvoiceNumber: invoiceNumber,
		IssuedAt:      now,
		OrderNumber:   order.OrderNumber,
		CustomerName:  customerName,
		CustomerEmail: customer.Email,
		Currency:      order.Currency,
		Lines:         docLines,
		SubtotalCents: subtotal,
		TaxCents:      taxResult.TotalTaxCents,
		TotalCents:    subtotal + taxResult.TotalTaxCents,
	}, &buf)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to render invoice document")
	}

	pdfKey := fmt.Sprintf("invoices/%s.pdf", invoiceNumber)
	if _, err := s.storage.Put(ctx, pdfKey, &buf, "application/pdf"); err != nil {
		return nil, domain.Internal(err, op, "failed to store invoice document")
	}

	invoice, err := s.store.CreateInvoice(ctx, repository.CreateInvoiceParams{
		OrderID:       id,
		InvoiceNumber: invoiceNumber,
		CustomerName:  customerName,
		CustomerEmail: customer.Email,
		SubtotalCents: subtotal,
		TaxCents:      taxResult.TotalTaxCents,
		TotalCents:    subtotal + taxResult.TotalTaxCents,
		Currency:      order.Currency,
		PdfKey:        pdfKey,
	})
	if err != nil {
		// Lost the race with a concurrent generation; remove the orphan
		// document and report the conflict.
		if repository.IsUniqueViolation(err) {
			if derr := s.storage.Delete(ctx, pdfKey); derr != nil {
				s.logger.Warn("failed to remove orphan invoice document",
					slog.String("pdf_key", pdfKey),
					slog.String("error", derr.Error()),
				)
			}
			return nil, domain.ErrOrderAlreadyInvoiced
		}
		return nil, domain.Internal(err, op, "failed to create invoice")
	}

	s.logger.Info("invoice generated",
		slog.String("invoice_id", repository.UUIDString(invoice.ID)),
		slog.String("invoice_number", invoice.InvoiceNumber),
		slog.String("order_id", orderID),
		slog.Int64("total_cents", invoice.TotalCents),
	)
	return &invoice, nil
}

// GetInvoice retrieves an invoice record.
func (s *InvoiceService) GetInvoice(ctx context.Context, invoiceID string) (*repository.Invoice, error) {
	const op = "InvoiceService.GetInvoice"

	id, err := parseID(op, "invoiceId", invoiceID)
	if err != nil {
		return nil, err
	}

	invoice, err := s.store.GetInvoice(ctx, id)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, domain.Internal(err, op, "failed to load invoice")
	}
	return &invoice, nil
}

// DownloadInvoice streams the stored PDF to an admin or the order's owner.
func (s *InvoiceService) DownloadInvoice(ctx context.Context, invoiceID string, requester *repository.User) (io.ReadCloser, *repository.Invoice, error) {
	const op = "InvoiceService.DownloadInvoice"

	invoice, err := s.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, nil, err
	}

	if !domain.IsAdmin(requester) {
		order, err := s.store.GetOrder(ctx, invoice.OrderID)
		if err != nil {
			return nil, nil, domain.Internal(err, op, "failed to load order")
		}
		if requester == nil || order.UserID != requester.ID {
			return nil, nil, domain.Forbidden(op, "You do not have access to this invoice")
		}
	}

	reader, err := s.storage.Get(ctx, invoice.PdfKey)
	if err != nil {
		if storage.IsNotFound(err) {
			s.logger.Error("invoice document missing from storage",
				slog.String("invoice_id", invoiceID),
				slog.String("pdf_key", invoice.PdfKey),
			)
			return nil, nil, domain.ErrInvoiceFileMissing
		}
		return nil, nil, domain.Internal(err, op, "failed to open invoice document")
	}
	return reader, invoice, nil
}

// ListInvoices returns all invoices, newest first.
func (s *InvoiceService) ListInvoices(ctx context.Context, limit, offset int32) ([]repository.Invoice, error) {
	const op = "InvoiceService.ListInvoices"

	limit, offset = normalizePage(limit, offset)
	invoices, err := s.store.ListInvoices(ctx, repository.ListInvoicesParams{Limit: limit, Offset: offset})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list invoices")
	}
	return invoices, nil
}

// ListInvoicesForUser returns the invoices raised for a customer's orders.
func (s *InvoiceService) ListInvoicesForUser(ctx context.Context, userID string, limit, offset int32) ([]repository.Invoice, error) {
	const op = "InvoiceService.ListInvoicesForUser"

	id, err := parseID(op, "userId", userID)
	if err != nil {
		return nil, err
	}

	limit, offset = normalizePage(limit, offset)
	invoices, err := s.store.ListInvoicesForUser(ctx, repository.ListInvoicesForUserParams{
		UserID: id,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list invoices")
	}
	return invoices, nil
}
