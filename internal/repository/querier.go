package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

// Querier is the full query surface. Services depend on Store (Querier plus
// ExecTx); tests substitute hand-rolled mocks.
type Querier interface {
	// Orders
	CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error)
	CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error)
	GetOrder(ctx context.Context, id pgtype.UUID) (Order, error)
	GetOrderByPaymentIntentID(ctx context.Context, paymentIntentID string) (Order, error)
	GetOrderItems(ctx context.Context, orderID pgtype.UUID) ([]OrderItem, error)
	ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error)
	ListOrdersForUser(ctx context.Context, arg ListOrdersForUserParams) ([]Order, error)
	UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error)
	SetOrderPaymentIntent(ctx context.Context, arg SetOrderPaymentIntentParams) error
	DeleteOrder(ctx context.Context, id pgtype.UUID) (int64, error)
	ListExpiredPendingOrders(ctx context.Context, cutoff pgtype.Timestamptz) ([]Order, error)

	// Gateway events
	RecordGatewayEvent(ctx context.Context, arg RecordGatewayEventParams) (GatewayEvent, error)

	// Invoices
	CreateInvoice(ctx context.Context, arg CreateInvoiceParams) (Invoice, error)
	GetInvoice(ctx context.Context, id pgtype.UUID) (Invoice, error)
	GetInvoiceByOrderID(ctx context.Context, orderID pgtype.UUID) (Invoice, error)
	ListInvoices(ctx context.Context, arg ListInvoicesParams) ([]Invoice, error)
	ListInvoicesForUser(ctx context.Context, arg ListInvoicesForUserParams) ([]Invoice, error)
	CountInvoicesForOrder(ctx context.Context, orderID pgtype.UUID) (int64, error)

	// Returns
	CreateReturn(ctx context.Context, arg CreateReturnParams) (Return, error)
	GetReturn(ctx context.Context, id pgtype.UUID) (Return, error)
	UpdateReturnStatus(ctx context.Context, arg UpdateReturnStatusParams) (Return, error)
	ListReturns(ctx context.Context, arg ListReturnsParams) ([]ListReturnsRow, error)
	SoftDeleteReturnsForOrder(ctx context.Context, orderID pgtype.UUID) error

	// Products
	CreateProduct(ctx context.Context, arg CreateProductParams) (Product, error)
	GetProduct(ctx context.Context, id pgtype.UUID) (Product, error)
	ListActiveProducts(ctx context.Context, arg ListActiveProductsParams) ([]Product, error)
	UpdateProduct(ctx context.Context, arg UpdateProductParams) (Product, error)

	// Users & sessions
	CreateUser(ctx context.Context, arg CreateUserParams) (User, error)
	GetUserByID(ctx context.Context, id pgtype.UUID) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	CreateSession(ctx context.Context, arg CreateSessionParams) (Session, error)
	GetSessionByTokenHash(ctx context.Context, tokenHash string) (Session, error)
	DeleteSessionByTokenHash(ctx context.Context, tokenHash string) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

var _ Querier = (*Queries)(nil)
