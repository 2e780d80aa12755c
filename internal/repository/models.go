package repository

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type User struct {
	ID           pgtype.UUID
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         string
	CreatedAt    pgtype.Timestamptz
	UpdatedAt    pgtype.Timestamptz
}

type Session struct {
	ID        pgtype.UUID
	UserID    pgtype.UUID
	TokenHash string
	ExpiresAt pgtype.Timestamptz
	CreatedAt pgtype.Timestamptz
}

type Product struct {
	ID             pgtype.UUID
	Name           string
	Brand          string
	Description    string
	UnitPriceCents int64
	Currency       string
	ImageKey       string
	IsActive       bool
	CreatedAt      pgtype.Timestamptz
	UpdatedAt      pgtype.Timestamptz
}

type Order struct {
	ID              pgtype.UUID
	UserID          pgtype.UUID
	OrderNumber     string
	OrderStatus     string
	PaymentStatus   string
	TotalCents      int64
	Currency        string
	PaymentIntentID pgtype.Text
	IsDelivered     bool
	PaidAt          pgtype.Timestamptz
	DeliveredAt     pgtype.Timestamptz
	RefundedAt      pgtype.Timestamptz
	CreatedAt       pgtype.Timestamptz
	UpdatedAt       pgtype.Timestamptz
}

type OrderItem struct {
	ID             pgtype.UUID
	OrderID        pgtype.UUID
	ProductID      pgtype.UUID
	Title          string
	UnitPriceCents int64
	Quantity       int32
	ImageKey       string
	CreatedAt      pgtype.Timestamptz
}

// GatewayEvent records a processed payment-gateway webhook delivery. The
// unique event id is the replay guard.
type GatewayEvent struct {
	ID         pgtype.UUID
	EventID    string
	EventType  string
	OrderID    pgtype.UUID
	ReceivedAt pgtype.Timestamptz
}

type Invoice struct {
	ID            pgtype.UUID
	OrderID       pgtype.UUID
	InvoiceNumber string
	CustomerName  string
	CustomerEmail string
	SubtotalCents int64
	TaxCents      int64
	TotalCents    int64
	Currency      string
	PdfKey        string
	CreatedAt     pgtype.Timestamptz
}

type Return struct {
	ID                  pgtype.UUID
	OrderID             pgtype.UUID
	ProductID           pgtype.UUID
	UserID              pgtype.UUID
	Reason              string
	Status              string
	RefundAmountCents   pgtype.Int8
	RefundMethod        pgtype.Text
	RefundTransactionID pgtype.Text
	AdminNote           string
	RefundedAt          pgtype.Timestamptz
	IsDeleted           bool
	CreatedAt           pgtype.Timestamptz
	UpdatedAt           pgtype.Timestamptz
}

// ListReturnsRow is a Return joined with display fields from its order,
// product and customer.
type ListReturnsRow struct {
	Return
	OrderNumber   string
	ProductName   string
	CustomerEmail string
	CustomerName  string
}
