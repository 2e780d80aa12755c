package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const productColumns = `id, name, brand, description, unit_price_cents, currency,
	image_key, is_active, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Brand, &p.Description, &p.UnitPriceCents,
		&p.Currency, &p.ImageKey, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

type CreateProductParams struct {
	Name           string
	Brand          string
	Description    string
	UnitPriceCents int64
	Currency       string
	ImageKey       string
}

const createProduct = `
INSERT INTO products (name, brand, description, unit_price_cents, currency, image_key)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + productColumns

func (q *Queries) CreateProduct(ctx context.Context, arg CreateProductParams) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, createProduct,
		arg.Name, arg.Brand, arg.Description, arg.UnitPriceCents,
		arg.Currency, arg.ImageKey,
	))
}

const getProduct = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

func (q *Queries) GetProduct(ctx context.Context, id pgtype.UUID) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, getProduct, id))
}

type ListActiveProductsParams struct {
	Limit  int32
	Offset int32
}

const listActiveProducts = `
SELECT ` + productColumns + ` FROM products
WHERE is_active
ORDER BY name
LIMIT $1 OFFSET $2`

func (q *Queries) ListActiveProducts(ctx context.Context, arg ListActiveProductsParams) ([]Product, error) {
	rows, err := q.db.Query(ctx, listActiveProducts, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

// UpdateProductParams uses COALESCE semantics: invalid (nil) fields keep
// their current value.
type UpdateProductParams struct {
	ID             pgtype.UUID
	Name           pgtype.Text
	Brand          pgtype.Text
	Description    pgtype.Text
	UnitPriceCents pgtype.Int8
	ImageKey       pgtype.Text
	IsActive       pgtype.Bool
}

const updateProduct = `
UPDATE products
SET name = COALESCE($2, name),
    brand = COALESCE($3, brand),
    description = COALESCE($4, description),
    unit_price_cents = COALESCE($5, unit_price_cents),
    image_key = COALESCE($6, image_key),
    is_active = COALESCE($7, is_active),
    updated_at = now()
WHERE id = $1
RETURNING ` + productColumns

func (q *Queries) UpdateProduct(ctx context.Context, arg UpdateProductParams) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, updateProduct,
		arg.ID, arg.Name, arg.Brand, arg.Description, arg.UnitPriceCents,
		arg.ImageKey, arg.IsActive,
	))
}
