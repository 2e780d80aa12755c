package service

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/zuricommerce/zuri/internal/repository"
)

// MockStore implements repository.Store with per-method overrides. Unset
// methods panic so a test only exercises the queries it configured. ExecTx
// runs the callback against the mock itself.
type MockStore struct {
	CreateOrderFunc              func(ctx context.Context, arg repository.CreateOrderParams) (repository.Order, error)
	CreateOrderItemFunc          func(ctx context.Context, arg repository.CreateOrderItemParams) (repository.OrderItem, error)
	GetOrderFunc                 func(ctx context.Context, id pgtype.UUID) (repository.Order, error)
	GetOrderByPaymentIntentFunc  func(ctx context.Context, paymentIntentID string) (repository.Order, error)
	GetOrderItemsFunc            func(ctx context.Context, orderID pgtype.UUID) ([]repository.OrderItem, error)
	ListOrdersFunc               func(ctx context.Context, arg repository.ListOrdersParams) ([]repository.Order, error)
	ListOrdersForUserFunc        func(ctx context.Context, arg repository.ListOrdersForUserParams) ([]repository.Order, error)
	UpdateOrderStatusFunc        func(ctx context.Context, arg repository.UpdateOrderStatusParams) (repository.Order, error)
	SetOrderPaymentIntentFunc    func(ctx context.Context, arg repository.SetOrderPaymentIntentParams) error
	DeleteOrderFunc              func(ctx context.Context, id pgtype.UUID) (int64, error)
	ListExpiredPendingOrdersFunc func(ctx context.Context, cutoff pgtype.Timestamptz) ([]repository.Order, error)

	RecordGatewayEventFunc func(ctx context.Context, arg repository.RecordGatewayEventParams) (repository.GatewayEvent, error)

	CreateInvoiceFunc         func(ctx context.Context, arg repository.CreateInvoiceParams) (repository.Invoice, error)
	GetInvoiceFunc            func(ctx context.Context, id pgtype.UUID) (repository.Invoice, error)
	GetInvoiceByOrderIDFunc   func(ctx context.Context, orderID pgtype.UUID) (repository.Invoice, error)
	ListInvoicesFunc          func(ctx context.Context, arg repository.ListInvoicesParams) ([]repository.Invoice, error)
	ListInvoicesForUserFunc   func(ctx context.Context, arg repository.ListInvoicesForUserParams) ([]repository.Invoice, error)
	CountInvoicesForOrderFunc func(ctx context.Context, orderID pgtype.UUID) (int64, error)

	CreateReturnFunc              func(ctx context.Context, arg repository.CreateReturnParams) (repository.Return, error)
	GetReturnFunc                 func(ctx context.Context, id pgtype.UUID) (repository.Return, error)
	UpdateReturnStatusFunc        func(ctx context.Context, arg repository.UpdateReturnStatusParams) (repository.Return, error)
	ListReturnsFunc               func(ctx context.Context, arg repository.ListReturnsParams) ([]repository.ListReturnsRow, error)
	SoftDeleteReturnsForOrderFunc func(ctx context.Context, orderID pgtype.UUID) error

	CreateProductFunc      func(ctx context.Context, arg repository.CreateProductParams) (repository.Product, error)
	GetProductFunc         func(ctx context.Context, id pgtype.UUID) (repository.Product, error)
	ListActiveProductsFunc func(ctx context.Context, arg repository.ListActiveProductsParams) ([]repository.Product, error)
	UpdateProductFunc      func(ctx context.Context, arg repository.UpdateProductParams) (repository.Product, error)

	CreateUserFunc               func(ctx context.Context, arg repository.CreateUserParams) (repository.User, error)
	GetUserByIDFunc              func(ctx context.Context, id pgtype.UUID) (repository.User, error)
	GetUserByEmailFunc           func(ctx context.Context, email string) (repository.User, error)
	CreateSessionFunc            func(ctx context.Context, arg repository.CreateSessionParams) (repository.Session, error)
	GetSessionByTokenHashFunc    func(ctx context.Context, tokenHash string) (repository.Session, error)
	DeleteSessionByTokenHashFunc func(ctx context.Context, tokenHash string) error
	DeleteExpiredSessionsFunc    func(ctx context.Context) (int64, error)
}

var _ repository.Store = (*MockStore)(nil)

func (m *MockStore) ExecTx(ctx context.Context, fn func(repository.Querier) error) error {
	return fn(m)
}

func unexpected(method string) string {
	return fmt.Sprintf("unexpected call to MockStore.%s", method)
}

func (m *MockStore) CreateOrder(ctx context.Context, arg repository.CreateOrderParams) (repository.Order, error) {
	if m.CreateOrderFunc == nil {
		panic(unexpected("CreateOrder"))
	}
	return m.CreateOrderFunc(ctx, arg)
}

func (m *MockStore) CreateOrderItem(ctx context.Context, arg repository.CreateOrderItemParams) (repository.OrderItem, error) {
	if m.CreateOrderItemFunc == nil {
		panic(unexpected("CreateOrderItem"))
	}
	return m.CreateOrderItemFunc(ctx, arg)
}

func (m *MockStore) GetOrder(ctx context.Context, id pgtype.UUID) (repository.Order, error) {
	if m.GetOrderFunc == nil {
		panic(unexpected("GetOrder"))
	}
	return m.GetOrderFunc(ctx, id)
}

func (m *MockStore) GetOrderByPaymentIntentID(ctx context.Context, paymentIntentID string) (repository.Order, error) {
	if m.GetOrderByPaymentIntentFunc == nil {
		panic(unexpected("GetOrderByPaymentIntentID"))
	}
	return m.GetOrderByPaymentIntentFunc(ctx, paymentIntentID)
}

func (m *MockStore) GetOrderItems(ctx context.Context, orderID pgtype.UUID) ([]repository.OrderItem, error) {
	if m.GetOrderItemsFunc == nil {
		panic(unexpected("GetOrderItems"))
	}
	return m.GetOrderItemsFunc(ctx, orderID)
}

func (m *MockStore) ListOrders(ctx context.Context, arg repository.ListOrdersParams) ([]repository.Order, error) {
	if m.ListOrdersFunc == nil {
		panic(unexpected("ListOrders"))
	}
	return m.ListOrdersFunc(ctx, arg)
}

func (m *MockStore) ListOrdersForUser(ctx context.Context, arg repository.ListOrdersForUserParams) ([]repository.Order, error) {
	if m.ListOrdersForUserFunc == nil {
		panic(unexpected("ListOrdersForUser"))
	}
	return m.ListOrdersForUserFunc(ctx, arg)
}

func (m *MockStore) UpdateOrderStatus(ctx context.Context, arg repository.UpdateOrderStatusParams) (repository.Order, error) {
	if m.UpdateOrderStatusFunc == nil {
		panic(unexpected("UpdateOrderStatus"))
	}
	return m.UpdateOrderStatusFunc(ctx, arg)
}

func (m *MockStore) SetOrderPaymentIntent(ctx context.Context, arg repository.SetOrderPaymentIntentParams) error {
	if m.SetOrderPaymentIntentFunc == nil {
		panic(unexpected("SetOrderPaymentIntent"))
	}
	return m.SetOrderPaymentIntentFunc(ctx, arg)
}

func (m *MockStore) DeleteOrder(ctx context.Context, id pgtype.UUID) (int64, error) {
	if m.DeleteOrderFunc == nil {
		panic(unexpected("DeleteOrder"))
	}
	return m.DeleteOrderFunc(ctx, id)
}

func (m *MockStore) ListExpiredPendingOrders(ctx context.Context, cutoff pgtype.Timestamptz) ([]repository.Order, error) {
	if m.ListExpiredPendingOrdersFunc == nil {
		panic(unexpected("ListExpiredPendingOrders"))
	}
	return m.ListExpiredPendingOrdersFunc(ctx, cutoff)
}

func (m *MockStore) RecordGatewayEvent(ctx context.Context, arg repository.RecordGatewayEventParams) (repository.GatewayEvent, error) {
	if m.RecordGatewayEventFunc == nil {
		panic(unexpected("RecordGatewayEvent"))
	}
	return m.RecordGatewayEventFunc(ctx, arg)
}

func (m *MockStore) CreateInvoice(ctx context.Context, arg repository.CreateInvoiceParams) (repository.Invoice, error) {
	if m.CreateInvoiceFunc == nil {
		panic(unexpected("CreateInvoice"))
	}
	return m.CreateInvoiceFunc(ctx, arg)
}

func (m *MockStore) GetInvoice(ctx context.Context, id pgtype.UUID) (repository.Invoice, error) {
	if m.GetInvoiceFunc == nil {
		panic(unexpected("GetInvoice"))
	}
	return m.GetInvoiceFunc(ctx, id)
}

func (m *MockStore) GetInvoiceByOrderID(ctx context.Context, orderID pgtype.UUID) (repository.Invoice, error) {
	if m.GetInvoiceByOrderIDFunc == nil {
		panic(unexpected("GetInvoiceByOrderID"))
	}
	return m.GetInvoiceByOrderIDFunc(ctx, orderID)
}

func (m *MockStore) ListInvoices(ctx context.Context, arg repository.ListInvoicesParams) ([]repository.Invoice, error) {
	if m.ListInvoicesFunc == nil {
		panic(unexpected("ListInvoices"))
	}
	return m.ListInvoicesFunc(ctx, arg)
}

func (m *MockStore) ListInvoicesForUser(ctx context.Context, arg repository.ListInvoicesForUserParams) ([]repository.Invoice, error) {
	if m.ListInvoicesForUserFunc == nil {
		panic(unexpected("ListInvoicesForUser"))
	}
	return m.ListInvoicesForUserFunc(ctx, arg)
}

func (m *MockStore) CountInvoicesForOrder(ctx context.Context, orderID pgtype.UUID) (int64, error) {
	if m.CountInvoicesForOrderFunc == nil {
		panic(unexpected("CountInvoicesForOrder"))
	}
	return m.CountInvoicesForOrderFunc(ctx, orderID)
}

func (m *MockStore) CreateReturn(ctx context.Context, arg repository.CreateReturnParams) (repository.Return, error) {
	if m.CreateReturnFunc == nil {
		panic(unexpected("CreateReturn"))
	}
	return m.CreateReturnFunc(ctx, arg)
}

func (m *MockStore) GetReturn(ctx context.Context, id pgtype.UUID) (repository.Return, error) {
	if m.GetReturnFunc == nil {
		panic(unexpected("GetReturn"))
	}
	return m.GetReturnFunc(ctx, id)
}

func (m *MockStore) UpdateReturnStatus(ctx context.Context, arg repository.UpdateReturnStatusParams) (repository.Return, error) {
	if m.UpdateReturnStatusFunc == nil {
		panic(unexpected("UpdateReturnStatus"))
	}
	return m.UpdateReturnStatusFunc(ctx, arg)
}

func (m *MockStore) ListReturns(ctx context.Context, arg repository.ListReturnsParams) ([]repository.ListReturnsRow, error) {
	if m.ListReturnsFunc == nil {
		panic(unexpected("ListReturns"))
	}
	return m.ListReturnsFunc(ctx, arg)
}

func (m *MockStore) SoftDeleteReturnsForOrder(ctx context.Context, orderID pgtype.UUID) error {
	if m.SoftDeleteReturnsForOrderFunc == nil {
		panic(unexpected("SoftDeleteReturnsForOrder"))
	}
	return m.SoftDeleteReturnsForOrderFunc(ctx, orderID)
}

func (m *MockStore) CreateProduct(ctx context.Context, arg repository.CreateProductParams) (repository.Product, error) {
	if m.CreateProductFunc == nil {
		panic(unexpected("CreateProduct"))
	}
	return m.CreateProductFunc(ctx, arg)
}

func (m *MockStore) GetProduct(ctx context.Context, id pgtype.UUID) (repository.Product, error) {
	if m.GetProductFunc == nil {
		panic(unexpected("GetProduct"))
	}
	return m.GetProductFunc(ctx, id)
}

func (m *MockStore) ListActiveProducts(ctx context.Context, arg repository.ListActiveProductsParams) ([]repository.Product, error) {
	if m.ListActiveProductsFunc == nil {
		panic(unexpected("ListActiveProducts"))
	}
	return m.ListActiveProductsFunc(ctx, arg)
}

func (m *MockStore) UpdateProduct(ctx context.Context, arg repository.UpdateProductParams) (repository.Product, error) {
	if m.UpdateProductFunc == nil {
		panic(unexpected("UpdateProduct"))
	}
	return m.UpdateProductFunc(ctx, arg)
}

func (m *MockStore) CreateUser(ctx context.Context, arg repository.CreateUserParams) (repository.User, error) {
	if m.CreateUserFunc == nil {
		panic(unexpected("CreateUser"))
	}
	return m.CreateUserFunc(ctx, arg)
}

func (m *MockStore) GetUserByID(ctx context.Context, id pgtype.UUID) (repository.User, error) {
	if m.GetUserByIDFunc == nil {
		panic(unexpected("GetUserByID"))
	}
	return m.GetUserByIDFunc(ctx, id)
}

func (m *MockStore) GetUserByEmail(ctx context.Context, email string) (repository.User, error) {
	if m.GetUserByEmailFunc == nil {
		panic(unexpected("GetUserByEmail"))
	}
	return m.GetUserByEmailFunc(ctx, email)
}

func (m *MockStore) CreateSession(ctx context.Context, arg repository.CreateSessionParams) (repository.Session, error) {
	if m.CreateSessionFunc == nil {
		panic(unexpected("CreateSession"))
	}
	return m.CreateSessionFunc(ctx, arg)
}

func (m *MockStore) GetSessionByTokenHash(ctx context.Context, tokenHash string) (repository.Session, error) {
	if m.GetSessionByTokenHashFunc == nil {
		panic(unexpected("GetSessionByTokenHash"))
	}
	return m.GetSessionByTokenHashFunc(ctx, tokenHash)
}

func (m *MockStore) DeleteSessionByTokenHash(ctx context.Context, tokenHash string) error {
	if m.DeleteSessionByTokenHashFunc == nil {
		panic(unexpected("DeleteSessionByTokenHash"))
	}
	return m.DeleteSessionByTokenHashFunc(ctx, tokenHash)
}

func (m *MockStore) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	if m.DeleteExpiredSessionsFunc == nil {
		panic(unexpected("DeleteExpiredSessions"))
	}
	return m.DeleteExpiredSessionsFunc(ctx)
}
