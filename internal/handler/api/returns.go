package api

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/zuricommerce/zuri/internal/domain"
	"github.com/zuricommerce/zuri/internal/handler"
	"github.com/zuricommerce/zuri/internal/middleware"
	"github.com/zuricommerce/zuri/internal/repository"
	"github.com/zuricommerce/zuri/internal/telemetry"
)

// ReturnHandler serves the return/refund workflow endpoints.
type ReturnHandler struct {
	returns  domain.ReturnService
	metrics  *telemetry.BusinessMetrics
	validate *validator.Validate
	logger   *slog.Logger
}

// NewReturnHandler creates a return handler. metrics may be nil.
func NewReturnHandler(returns domain.ReturnService, metrics *telemetry.BusinessMetrics, logger *slog.Logger) *ReturnHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReturnHandler{
		returns:  returns,
		metrics:  metrics,
		validate: validator.New(),
		logger:   logger,
	}
}

// CreateReturnRequest is the body for POST /api/returns.
type CreateReturnRequest struct {
	OrderID   string `json:"orderId" validate:"required,uuid"`
	ProductID string `json:"productId" validate:"required,uuid"`
	Reason    string `json:"reason" validate:"required"`
}

// Create handles POST /api/returns for the authenticated customer. The
// service enforces ownership, delivery and payment preconditions.
func (h *ReturnHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		handler.UnauthorizedResponse(w, r)
		return
	}

	var req CreateReturnRequest
	if err := decodeJSON(r, h.validate, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	ret, err := h.returns.CreateReturn(r.Context(), domain.CreateReturnParams{
		UserID:    repository.UUIDString(user.ID),
		OrderID:   req.OrderID,
		ProductID: req.ProductID,
		Reason:    req.Reason,
	})
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	if h.metrics != nil {
		h.metrics.ReturnsOpened.WithLabelValues().Inc()
	}
	handler.RespondJSON(w, http.StatusCreated, toReturnResponse(*ret))
}

// Get handles GET /api/returns/{id}. Customers can read only their own
// returns.
func (h *ReturnHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		handler.UnauthorizedResponse(w, r)
		return
	}

	ret, err := h.returns.GetReturn(r.Context(), r.PathValue("id"))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	if !domain.IsAdmin(user) && ret.UserID != user.ID {
		handler.ForbiddenResponse(w, r)
		return
	}
	handler.RespondJSON(w, http.StatusOK, toReturnResponse(*ret))
}

// List handles GET /api/returns (admin).
func (h *ReturnHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	rows, err := h.returns.ListReturns(r.Context(), limit, offset)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	resp := make([]ReturnResponse, 0, len(rows))
	for _, row := range rows {
		resp = append(resp, toReturnListResponse(row))
	}
	handler.RespondJSON(w, http.StatusOK, resp)
}

// UpdateReturnRequest is the body for PUT /api/returns/{id}.
// RefundAmountCents is honoured only when status is completed.
type UpdateReturnRequest struct {
	Status            string `json:"status" validate:"required,oneof=pending approved rejected processing completed"`
	AdminNote         string `json:"adminNote" validate:"omitempty,max=1000"`
	RefundAmountCents *int64 `json:"refundAmountCents" validate:"omitempty,gt=0"`
	RefundMethod      string `json:"refundMethod" validate:"omitempty,oneof=gateway store_credit"`
}

// Update handles PUT /api/returns/{id} (admin). Completing with a refund
// amount issues the gateway refund.
func (h *ReturnHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateReturnRequest
	if err := decodeJSON(r, h.validate, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	ret, err := h.returns.UpdateReturnStatus(r.Context(), domain.UpdateReturnStatusParams{
		ReturnID:          r.PathValue("id"),
		Status:            domain.ReturnStatus(req.Status),
		AdminNote:         req.AdminNote,
		RefundAmountCents: req.RefundAmountCents,
		RefundMethod:      req.RefundMethod,
	})
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	if h.metrics != nil && ret.Status == string(domain.ReturnStatusCompleted) && ret.RefundAmountCents.Valid {
		method := ret.RefundMethod.String
		if method == "" {
			method = "gateway"
		}
		h.metrics.RefundsIssued.WithLabelValues(method).Inc()
		h.metrics.RefundAmount.WithLabelValues(method).Add(float64(ret.RefundAmountCents.Int64))
	}
	handler.RespondJSON(w, http.StatusOK, toReturnResponse(*ret))
}
