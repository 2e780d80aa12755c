package service

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/zuricommerce/zuri/internal/domain"
	"github.com/zuricommerce/zuri/internal/repository"
)

// ProductService is the catalog surface. Orders snapshot from it at creation
// time; edits here never touch historical orders.
type ProductService struct {
	store  repository.Store
	logger *slog.Logger
}

var _ domain.ProductService = (*ProductService)(nil)

func NewProductService(store repository.Store, logger *slog.Logger) *ProductService {
	return &ProductService{store: store, logger: logger}
}

func (s *ProductService) CreateProduct(ctx context.Context, params domain.CreateProductParams) (*repository.Product, error) {
	const op = "ProductService.CreateProduct"

	if params.Name == "" {
		return nil, domain.NewValidationError(op, "name", "is required")
	}
	if params.UnitPriceCents <= 0 {
		return nil, domain.NewValidationError(op, "unitPriceCents", "must be positive")
	}

	product, err := s.store.CreateProduct(ctx, repository.CreateProductParams{
		Name:           params.Name,
		Brand:          params.Brand,
		Description:    params.Description,
		UnitPriceCents: params.UnitPriceCents,
		Currency:       params.Currency,
		ImageKey:       params.ImageKey,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to create product")
	}

	s.logger.Info("product created",
		slog.String("product_id", repository.UUIDString(product.ID)),
		slog.String("name", product.Name),
	)
	return &product, nil
}

func (s *ProductService) GetProduct(ctx context.Context, productID string) (*repository.Product, error) {
	const op = "ProductService.GetProduct"

	id, err := parseID(op, "productId", productID)
	if err != nil {
		return nil, err
	}

	product, err := s.store.GetProduct(ctx, id)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, domain.ErrProductNotFound
		}
		return nil, domain.Internal(err, op, "failed to load product")
	}
	return &product, nil
}

func (s *ProductService) ListProducts(ctx context.Context, limit, offset int32) ([]repository.Product, error) {
	const op = "ProductService.ListProducts"

	limit, offset = normalizePage(limit, offset)
	products, err := s.store.ListActiveProducts(ctx, repository.ListActiveProductsParams{Limit: limit, Offset: offset})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list products")
	}
	return products, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, params domain.UpdateProductParams) (*repository.Product, error) {
	const op = "ProductService.UpdateProduct"

	id, err := parseID(op, "productId", params.ProductID)
	if err != nil {
		return nil, err
	}
	if params.UnitPriceCents != nil && *params.UnitPriceCents <= 0 {
		return nil, domain.NewValidationError(op, "unitPriceCents", "must be positive")
	}

	update := repository.UpdateProductParams{ID: id}
	if params.Name != nil {
		update.Name = repository.TextOrNull(*params.Name)
	}
	if params.Brand != nil {
		update.Brand = repository.TextOrNull(*params.Brand)
	}
	if params.Description != nil {
		update.Description = repository.TextOrNull(*params.Description)
	}
	if params.UnitPriceCents != nil {
		update.UnitPriceCents = pgtype.Int8{Int64: *params.UnitPriceCents, Valid: true}
	}
	if params.ImageKey != nil {
		update.ImageKey = repository.TextOrNull(*params.ImageKey)
	}
	if params.IsActive != nil {
		update.IsActive = pgtype.Bool{Bool: *params.IsActive, Valid: true}
	}

	product, err := s.store.UpdateProduct(ctx, update)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, domain.ErrProductNotFound
		}
		return nil, domain.Internal(err, op, "failed to update product")
	}
	return &product, nil
}
