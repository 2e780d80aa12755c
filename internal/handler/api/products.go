package api

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/zuricommerce/zuri/internal/domain"
	"github.com/zuricommerce/zuri/internal/handler"
)

// ProductHandler serves the catalog endpoints.
type ProductHandler struct {
	products domain.ProductService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewProductHandler creates a product handler.
func NewProductHandler(products domain.ProductService, logger *slog.Logger) *ProductHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProductHandler{
		products: products,
		validate: validator.New(),
		logger:   logger,
	}
}

// List handles GET /api/products. Public.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	products, err := h.products.ListProducts(r.Context(), limit, offset)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	resp := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, toProductResponse(p))
	}
	handler.RespondJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/products/{id}. Public.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.products.GetProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, toProductResponse(*product))
}

// CreateProductRequest is the body for POST /api/products.
type CreateProductRequest struct {
	Name           string `json:"name" validate:"required,max=200"`
	Brand          string `json:"brand" validate:"omitempty,max=100"`
	Description    string `json:"description" validate:"omitempty,max=2000"`
	UnitPriceCents int64  `json:"unitPriceCents" validate:"required,gt=0"`
	Currency       string `json:"currency" validate:"omitempty,len=3"`
	ImageKey       string `json:"imageKey" validate:"omitempty,max=500"`
}

// Create handles POST /api/products (admin).
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := decodeJSON(r, h.validate, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	product, err := h.products.CreateProduct(r.Context(), domain.CreateProductParams{
		Name:           req.Name,
		Brand:          req.Brand,
		Description:    req.Description,
		UnitPriceCents: req.UnitPriceCents,
		Currency:       req.Currency,
		ImageKey:       req.ImageKey,
	})
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.RespondJSON(w, http.StatusCreated, toProductResponse(*product))
}

// UpdateProductRequest is the body for PUT /api/products/{id}. Omitted
// fields are left untouched.
type UpdateProductRequest struct {
	Name           *string `json:"name" validate:"omitempty,max=200"`
	Brand          *string `json:"brand" validate:"omitempty,max=100"`
	Description    *string `json:"description" validate:"omitempty,max=2000"`
	UnitPriceCents *int64  `json:"unitPriceCents" validate:"omitempty,gt=0"`
	ImageKey       *string `json:"imageKey" validate:"omitempty,max=500"`
	IsActive       *bool   `json:"isActive"`
}

// Update handles PUT /api/products/{id} (admin). Edits never touch the
// snapshots on existing orders.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateProductRequest
	if err := decodeJSON(r, h.validate, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	product, err := h.products.UpdateProduct(r.Context(), domain.UpdateProductParams{
		ProductID:      r.PathValue("id"),
		Name:           req.Name,
		Brand:          req.Brand,
		Description:    req.Description,
		UnitPriceCents: req.UnitPriceCents,
		ImageKey:       req.ImageKey,
		IsActive:       req.IsActive,
	})
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, toProductResponse(*product))
}
