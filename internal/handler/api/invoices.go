package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/zuricommerce/zuri/internal/domain"
	"github.com/zuricommerce/zuri/internal/handler"
	"github.com/zuricommerce/zuri/internal/middleware"
	"github.com/zuricommerce/zuri/internal/repository"
	"github.com/zuricommerce/zuri/internal/telemetry"
)

// InvoiceHandler serves invoice generation, listing and download.
type InvoiceHandler struct {
	invoices domain.InvoiceService
	metrics  *telemetry.BusinessMetrics
	logger   *slog.Logger
}

// NewInvoiceHandler creates an invoice handler. metrics may be nil.
func NewInvoiceHandler(invoices domain.InvoiceService, metrics *telemetry.BusinessMetrics, logger *slog.Logger) *InvoiceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &InvoiceHandler{
		invoices: invoices,
		metrics:  metrics,
		logger:   logger,
	}
}

// Generate handles POST /api/invoices/generate/{orderId} (admin). The order
// must be paid and not yet invoiced.
func (h *InvoiceHandler) Generate(w http.ResponseWriter, r *http.Request) {
	invoice, err := h.invoices.GenerateInvoice(r.Context(), r.PathValue("orderId"))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	if h.metrics != nil {
		h.metrics.InvoicesGenerated.WithLabelValues(invoice.Currency).Inc()
	}
	handler.RespondJSON(w, http.StatusCreated, toInvoiceResponse(*invoice))
}

// Get handles GET /api/invoices/{id} (admin).
func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	invoice, err := h.invoices.GetInvoice(r.Context(), r.PathValue("id"))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, toInvoiceResponse(*invoice))
}

// Download handles GET /api/invoices/download/{id}. The service enforces
// that only admins and the invoiced customer can fetch the PDF.
func (h *InvoiceHandler) Download(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		handler.UnauthorizedResponse(w, r)
		return
	}

	body, invoice, err := h.invoices.DownloadInvoice(r.Context(), r.PathValue("id"), user)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", invoice.InvoiceNumber+".pdf"))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Error("streaming invoice pdf", "invoice_id", r.PathValue("id"), "error", err)
	}
}

// List handles GET /api/invoices (admin).
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	invoices, err := h.invoices.ListInvoices(r.Context(), limit, offset)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	resp := make([]InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		resp = append(resp, toInvoiceResponse(inv))
	}
	handler.RespondJSON(w, http.StatusOK, resp)
}

// ListMine handles GET /api/invoices/my for the authenticated customer.
func (h *InvoiceHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		handler.UnauthorizedResponse(w, r)
		return
	}

	limit, offset := pagination(r)
	invoices, err := h.invoices.ListInvoicesForUser(r.Context(), repository.UUIDString(user.ID), limit, offset)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	resp := make([]InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		resp = append(resp, toInvoiceResponse(inv))
	}
	handler.RespondJSON(w, http.StatusOK, resp)
}
