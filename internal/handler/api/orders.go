package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/zuricommerce/zuri/internal/domain"
	"github.com/zuricommerce/zuri/internal/handler"
	"github.com/zuricommerce/zuri/internal/middleware"
	"github.com/zuricommerce/zuri/internal/repository"
	"github.com/zuricommerce/zuri/internal/service"
	"github.com/zuricommerce/zuri/internal/telemetry"
)

// CheckoutService runs the customer checkout flow.
type CheckoutService interface {
	Checkout(ctx context.Context, customer *repository.User, params domain.CreateOrderParams) (*service.CheckoutResult, error)
}

// OrderHandler serves the order lifecycle endpoints.
type OrderHandler struct {
	orders   domain.OrderService
	checkout CheckoutService
	metrics  *telemetry.BusinessMetrics
	validate *validator.Validate
	logger   *slog.Logger
}

// NewOrderHandler creates an order handler. metrics may be nil.
func NewOrderHandler(orders domain.OrderService, checkout CheckoutService, metrics *telemetry.BusinessMetrics, logger *slog.Logger) *OrderHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderHandler{
		orders:   orders,
		checkout: checkout,
		metrics:  metrics,
		validate: validator.New(),
		logger:   logger,
	}
}

// CheckoutRequest is the body for POST /api/orders.
type CheckoutRequest struct {
	Currency string                `json:"currency" validate:"omitempty,len=3"`
	Items    []CheckoutItemRequest `json:"items" validate:"required,min=1,dive"`
}

// CheckoutItemRequest is one requested line item.
type CheckoutItemRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int32  `json:"quantity" validate:"required,gt=0"`
}

// CheckoutResponse is the body returned by POST /api/orders.
type CheckoutResponse struct {
	Order           OrderResponse `json:"order"`
	PaymentIntentID string        `json:"paymentIntentId"`
	ClientSecret    string        `json:"clientSecret"`
}

// Checkout handles POST /api/orders. The authenticated customer's cart is
// turned into an order plus a gateway payment intent.
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		handler.UnauthorizedResponse(w, r)
		return
	}

	var req CheckoutRequest
	if err := decodeJSON(r, h.validate, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	params := domain.CreateOrderParams{
		UserID:   repository.UUIDString(user.ID),
		Currency: req.Currency,
	}
	for _, item := range req.Items {
		params.Items = append(params.Items, domain.NewOrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	if h.metrics != nil {
		h.metrics.CheckoutStarted.WithLabelValues(params.Currency).Inc()
	}

	result, err := h.checkout.Checkout(r.Context(), user, params)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	if h.metrics != nil {
		h.metrics.OrdersCreated.WithLabelValues(result.Order.Order.Currency).Inc()
		h.metrics.OrderValue.WithLabelValues(result.Order.Order.Currency).Observe(float64(result.Order.Order.TotalCents))
	}

	handler.RespondJSON(w, http.StatusCreated, CheckoutResponse{
		Order:           toOrderResponse(result.Order.Order, result.Order.Items),
		PaymentIntentID: result.PaymentIntentID,
		ClientSecret:    result.ClientSecret,
	})
}

// Get handles GET /api/orders/{id}. Customers can read only their own orders.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		handler.UnauthorizedResponse(w, r)
		return
	}

	detail, err := h.orders.GetOrder(r.Context(), r.PathValue("id"))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	if !domain.IsAdmin(user) && detail.Order.UserID != user.ID {
		handler.ForbiddenResponse(w, r)
		return
	}

	handler.RespondJSON(w, http.StatusOK, toOrderResponse(detail.Order, detail.Items))
}

// List handles GET /api/orders (admin).
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	orders, err := h.orders.ListOrders(r.Context(), limit, offset)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	resp := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, toOrderResponse(o, nil))
	}
	handler.RespondJSON(w, http.StatusOK, resp)
}

// ListForUser handles GET /api/orders/user/{userId}. Admins can read any
// customer's orders; customers only their own.
func (h *OrderHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		handler.UnauthorizedResponse(w, r)
		return
	}

	userID := r.PathValue("userId")
	if !domain.IsAdmin(user) && userID != repository.UUIDString(user.ID) {
		handler.ForbiddenResponse(w, r)
		return
	}

	limit, offset := pagination(r)
	orders, err := h.orders.ListOrdersForUser(r.Context(), userID, limit, offset)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	resp := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, toOrderResponse(o, nil))
	}
	handler.RespondJSON(w, http.StatusOK, resp)
}

// TransitionRequest is the body for PUT /api/orders/{id}. Omitted fields are
// left untouched.
type TransitionRequest struct {
	OrderStatus   *string `json:"orderStatus" validate:"omitempty,oneof=processing confirmed shipped delivered cancelled"`
	PaymentStatus *string `json:"paymentStatus" validate:"omitempty,oneof=pending paid failed refunded"`
}

// Transition handles PUT /api/orders/{id} (admin). Illegal state changes are
// rejected by the lifecycle service.
func (h *OrderHandler) Transition(w http.ResponseWriter, r *http.Request) {
	var req TransitionRequest
	if err := decodeJSON(r, h.validate, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	var patch domain.OrderPatch
	if req.OrderStatus != nil {
		s := domain.OrderStatus(*req.OrderStatus)
		patch.OrderStatus = &s
	}
	if req.PaymentStatus != nil {
		s := domain.PaymentStatus(*req.PaymentStatus)
		patch.PaymentStatus = &s
	}

	order, err := h.orders.TransitionOrder(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	if h.metrics != nil && patch.OrderStatus != nil && *patch.OrderStatus == domain.OrderStatusCancelled {
		h.metrics.OrdersCancelled.WithLabelValues("admin").Inc()
	}

	handler.RespondJSON(w, http.StatusOK, toOrderResponse(*order, nil))
}

// Delete handles DELETE /api/orders/{id} (admin).
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.DeleteOrder(r.Context(), r.PathValue("id")); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
