package domain

import (
	"context"

	"github.com/zuricommerce/zuri/internal/repository"
)

var ErrProductNotFound = &Error{Code: ENOTFOUND, Message: "Product not found"}

// CreateProductParams contains parameters for adding a catalog product.
type CreateProductParams struct {
	Name           string
	Brand          string
	Description    string
	UnitPriceCents int64
	Currency       string
	ImageKey       string
}

// UpdateProductParams patches a catalog product. Nil fields are untouched.
type UpdateProductParams struct {
	ProductID      string
	Name           *string
	Brand          *string
	Description    *string
	UnitPriceCents *int64
	ImageKey       *string
	IsActive       *bool
}

// ProductService is the catalog read/write surface. Order creation snapshots
// from it; later product edits never alter historical orders.
type ProductService interface {
	CreateProduct(ctx context.Context, params CreateProductParams) (*repository.Product, error)
	GetProduct(ctx context.Context, productID string) (*repository.Product, error)
	ListProducts(ctx context.Context, limit, offset int32) ([]repository.Product, error)
	UpdateProduct(ctx context.Context, params UpdateProductParams) (*repository.Product, error)
}
