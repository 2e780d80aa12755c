package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/zuricommerce/zuri/internal/billing"
	"github.com/zuricommerce/zuri/internal/domain"
	"github.com/zuricommerce/zuri/internal/events"
	"github.com/zuricommerce/zuri/internal/repository"
)

// OrderService is the single mutation entry point for the order lifecycle.
// Every status change is validated against the fulfillment and payment state
// machines before anything is written.
type OrderService struct {
	store    repository.Store
	billing  billing.Provider
	events   events.Publisher
	logger   *slog.Logger
}

var _ domain.OrderService = (*OrderService)(nil)

// NewOrderService creates the order lifecycle service.
func NewOrderService(store repository.Store, provider billing.Provider, publisher events.Publisher, logger *slog.Logger) *OrderService {
	return &OrderService{
		store:   store,
		billing: provider,
		events:  publisher,
		logger:  logger,
	}
}

// CreateOrder creates an order in {processing, payment pending} with line
// items snapshotted from the catalog. The total is the sum of snapshotted
// unit prices times quantities; client-supplied totals are never trusted.
func (s *OrderService) CreateOrder(ctx context.Context, params domain.CreateOrderParams) (*domain.OrderDetail, error) {
	const op = "OrderService.CreateOrder"

	if len(params.Items) == 0 {
		return nil, domain.ErrEmptyOrder
	}

	userID, err := parseID(op, "userId", params.UserID)
	if err != nil {
		return nil, err
	}

	var detail domain.OrderDetail
	err = s.store.ExecTx(ctx, func(q repository.Querier) error {
		type snapshot struct {
			product  repository.Product
			quantity int32
		}

		snapshots := make([]snapshot, 0, len(params.Items))
		var total int64
		for _, item := range params.Items {
			if item.Quantity < 1 {
				return domain.NewValidationError(op, "quantity", "must be at least 1")
			}
			productID, err := parseID(op, "productId", item.ProductID)
			if err != nil {
				return err
			}
			product, err := q.GetProduct(ctx, productID)
			if err != nil {
				if repository.IsNoRows(err) {
					return domain.ErrProductNotFound
				}
				return domain.Internal(err, op, "failed to load product")
			}
			if !product.IsActive {
				return domain.Errorf(domain.EINVALID, op, "product %q is no longer available", product.Name)
			}
			total += product.UnitPriceCents * int64(item.Quantity)
			snapshots = append(snapshots, snapshot{product: product, quantity: item.Quantity})
		}

		order, err := q.CreateOrder(ctx, repository.CreateOrderParams{
			UserID:        userID,
			OrderNumber:   newOrderNumber(time.Now()),
			OrderStatus:   string(domain.OrderStatusProcessing),
			PaymentStatus: string(domain.PaymentStatusPending),
			TotalCents:    total,
			Currency:      params.Currency,
		})
		if err != nil {
			return domain.Internal(err, op, "failed to create order")
		}

		items := make([]repository.OrderItem, 0, len(snapshots))
		for _, snap := range snapshots {
			item, err := q.CreateOrderItem(ctx, repository.CreateOrderItemParams{
				OrderID:        order.ID,
				ProductID:      snap.product.ID,
				Title:          snap.product.Name,
				UnitPriceCents: snap.product.UnitPriceCents,
				Quantity:       snap.quantity,
				ImageKey:       snap.product.ImageKey,
			})
			if err != nil {
				return domain.Internal(err, op, "failed to create order item")
			}
			items = append(items, item)
		}

		detail = domain.OrderDetail{Order: order, Items: items}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order created",
		slog.String("order_id", repository.UUIDString(detail.Order.ID)),
		slog.String("order_number", detail.Order.OrderNumber),
		slog.Int64("total_cents", detail.Order.TotalCents),
	)
	return &detail, nil
}

// GetOrder retrieves a single order with its line items.
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*domain.OrderDetail, error) {
	const op = "OrderService.GetOrder"

	id, err := parseID(op, "orderId", orderID)
	if err != nil {
		return nil, err
	}

	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, domain.Internal(err, op, "failed to load order")
	}

	items, err := s.store.GetOrderItems(ctx, id)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load order items")
	}

	return &domain.OrderDetail{Order: order, Items: items}, nil
}

// ListOrders returns all orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, limit, offset int32) ([]repository.Order, error) {
	const op = "OrderService.ListOrders"

	limit, offset = normalizePage(limit, offset)
	orders, err := s.store.ListOrders(ctx, repository.ListOrdersParams{Limit: limit, Offset: offset})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list orders")
	}
	return orders, nil
}

// ListOrdersForUser returns a customer's orders, newest first.
func (s *OrderService) ListOrdersForUser(ctx context.Context, userID string, limit, offset int32) ([]repository.Order, error) {
	const op = "OrderService.ListOrdersForUser"

	id, err := parseID(op, "userId", userID)
	if err != nil {
		return nil, err
	}

	limit, offset = normalizePage(limit, offset)
	orders, err := s.store.ListOrdersForUser(ctx, repository.ListOrdersForUserParams{
		UserID: id,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list orders")
	}
	return orders, nil
}

// TransitionOrder applies a validated status change. Illegal transitions are
// rejected before anything is written. Reaching delivered stamps deliveredAt
// and sets the delivered flag; reaching paid or refunded stamps the matching
// payment timestamp.
func (s *OrderService) TransitionOrder(ctx context.Context, orderID string, patch domain.OrderPatch) (*repository.Order, error) {
	const op = "OrderService.TransitionOrder"

	if patch.OrderStatus == nil && patch.PaymentStatus == nil {
		return nil, domain.ErrNoTransition
	}

	id, err := parseID(op, "orderId", orderID)
	if err != nil {
		return nil, err
	}

	var updated repository.Order
	err = s.store.ExecTx(ctx, func(q repository.Querier) error {
		order, err := q.GetOrder(ctx, id)
		if err != nil {
			if repository.IsNoRows(err) {
				return domain.ErrOrderNotFound
			}
			return domain.Internal(err, op, "failed to load order")
		}

		next, err := applyPatch(op, order, patch)
		if err != nil {
			return err
		}

		updated, err = q.UpdateOrderStatus(ctx, next)
		if err != nil {
			return domain.Internal(err, op, "failed to update order status")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order transitioned",
		slog.String("order_id", repository.UUIDString(updated.ID)),
		slog.String("order_status", updated.OrderStatus),
		slog.String("payment_status", updated.PaymentStatus),
	)
	s.publishTransitions(ctx, updated, patch)
	return &updated, nil
}

// applyPatch validates patch against the state machines and derives the full
// status snapshot to write.
func applyPatch(op string, order repository.Order, patch domain.OrderPatch) (repository.UpdateOrderStatusParams, error) {
	next := repository.UpdateOrderStatusParams{
		ID:            order.ID,
		OrderStatus:   order.OrderStatus,
		PaymentStatus: order.PaymentStatus,
		IsDelivered:   order.IsDelivered,
		PaidAt:        order.PaidAt,
		DeliveredAt:   order.DeliveredAt,
		RefundedAt:    order.RefundedAt,
	}

	if patch.OrderStatus != nil {
		from := domain.OrderStatus(order.OrderStatus)
		to := *patch.OrderStatus
		if !to.Valid() {
			return next, domain.NewValidationError(op, "orderStatus", "unknown status")
		}
		if !domain.CanTransitionOrderStatus(from, to) {
			return next, domain.Errorf(domain.EINVALID, op,
				"cannot transition order from %s to %s", from, to)
		}
		next.OrderStatus = string(to)
		if to == domain.OrderStatusDelivered {
			next.IsDelivered = true
			if !next.DeliveredAt.Valid {
				next.DeliveredAt = tsNow()
			}
		}
	}

	if patch.PaymentStatus != nil {
		from := domain.PaymentStatus(order.PaymentStatus)
		to := *patch.PaymentStatus
		if !to.Valid() {
			return next, domain.NewValidationError(op, "paymentStatus", "unknown status")
		}
		if !domain.CanTransitionPaymentStatus(from, to) {
			return next, domain.Errorf(domain.EINVALID, op,
				"cannot transition payment from %s to %s", from, to)
		}
		next.PaymentStatus = string(to)
		switch to {
		case domain.PaymentStatusPaid:
			if !next.PaidAt.Valid {
				next.PaidAt = tsNow()
			}
		case domain.PaymentStatusRefunded:
			if !next.RefundedAt.Valid {
				next.RefundedAt = tsNow()
			}
		}
	}

	return next, nil
}

// publishTransitions emits lifecycle events for externally interesting
// transitions. Best effort, after commit.
func (s *OrderService) publishTransitions(ctx context.Context, order repository.Order, patch domain.OrderPatch) {
	payload := orderEvent(order)
	if patch.OrderStatus != nil && *patch.OrderStatus == domain.OrderStatusCancelled {
		s.events.Publish(ctx, events.SubjectOrderCancelled, payload)
	}
	if patch.PaymentStatus != nil && *patch.PaymentStatus == domain.PaymentStatusRefunded {
		s.events.Publish(ctx, events.SubjectOrderRefunded, payload)
	}
}

func orderEvent(order repository.Order) events.OrderEvent {
	return events.OrderEvent{
		OrderID:     repository.UUIDString(order.ID),
		OrderNumber: order.OrderNumber,
		UserID:      repository.UUIDString(order.UserID),
		TotalCents:  order.TotalCents,
		Currency:    order.Currency,
		OccurredAt:  time.Now().UTC(),
	}
}

// DeleteOrder hard-deletes an order. Orders with an invoice cannot be
// deleted; their returns are soft-deleted alongside.
func (s *OrderService) DeleteOrder(ctx context.Context, orderID string) error {
	const op = "OrderService.DeleteOrder"

	id, err := parseID(op, "orderId", orderID)
	if err != nil {
		return err
	}

	err = s.store.ExecTx(ctx, func(q repository.Querier) error {
		count, err := q.CountInvoicesForOrder(ctx, id)
		if err != nil {
			return domain.Internal(err, op, "failed to check invoices")
		}
		if count > 0 {
			return domain.ErrOrderHasInvoice
		}

		if err := q.SoftDeleteReturnsForOrder(ctx, id); err != nil {
			return domain.Internal(err, op, "failed to soft-delete returns")
		}

		rows, err := q.DeleteOrder(ctx, id)
		if err != nil {
			return domain.Internal(err, op, "failed to delete order")
		}
		if rows == 0 {
			return domain.ErrOrderNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("order deleted", slog.String("order_id", orderID))
	return nil
}

// MarkOrderPaid applies a gateway payment confirmation. The gateway event id
// is recorded first; a replayed event hits the unique constraint and nothing
// else is written.
func (s *OrderService) MarkOrderPaid(ctx context.Context, params domain.MarkOrderPaidParams) (*repository.Order, error) {
	const op = "OrderService.MarkOrderPaid"

	id, err := parseID(op, "orderId", params.OrderID)
	if err != nil {
		return nil, err
	}

	var updated repository.Order
	var cancelled bool
	err = s.store.ExecTx(ctx, func(q repository.Querier) error {
		if _, err := q.RecordGatewayEvent(ctx, repository.RecordGatewayEventParams{
			EventID:   params.GatewayEventID,
			EventType: "payment_intent.succeeded",
			OrderID:   id,
		}); err != nil {
			if repository.IsUniqueViolation(err) {
				return domain.ErrEventAlreadyApplied
			}
			return domain.Internal(err, op, "failed to record gateway event")
		}

		order, err := q.GetOrder(ctx, id)
		if err != nil {
			if repository.IsNoRows(err) {
				return domain.ErrOrderNotFound
			}
			return domain.Internal(err, op, "failed to load order")
		}

		// A confirmation can race the maintenance worker cancelling the
		// order. The event record is kept so a replay stays a no-op, but
		// the order is not marked paid. The operator resolves the charge
		// at the gateway.
		if order.OrderStatus == string(domain.OrderStatusCancelled) {
			cancelled = true
			return nil
		}

		if params.PaymentIntentID != "" && !order.PaymentIntentID.Valid {
			if err := q.SetOrderPaymentIntent(ctx, repository.SetOrderPaymentIntentParams{
				ID:              order.ID,
				PaymentIntentID: repository.TextOrNull(params.PaymentIntentID),
			}); err != nil {
				return domain.Internal(err, op, "failed to record payment intent")
			}
		}

		paid := domain.PaymentStatusPaid
		next, err := applyPatch(op, order, domain.OrderPatch{PaymentStatus: &paid})
		if err != nil {
			return err
		}

		updated, err = q.UpdateOrderStatus(ctx, next)
		if err != nil {
			return domain.Internal(err, op, "failed to update order status")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if cancelled {
		s.logger.Warn("payment confirmed for cancelled order",
			slog.String("order_id", params.OrderID),
			slog.String("gateway_event_id", params.GatewayEventID),
		)
		return nil, domain.ErrPaymentAfterCancel
	}

	s.logger.Info("order marked paid",
		slog.String("order_id", repository.UUIDString(updated.ID)),
		slog.String("gateway_event_id", params.GatewayEventID),
	)
	s.events.Publish(ctx, events.SubjectOrderPaid, orderEvent(updated))
	return &updated, nil
}

// MarkOrderPaymentFailed applies a gateway payment failure under the same
// replay guard as MarkOrderPaid. The order stays in processing so the
// customer can retry.
func (s *OrderService) MarkOrderPaymentFailed(ctx context.Context, params domain.MarkOrderPaymentFailedParams) (*repository.Order, error) {
	const op = "OrderService.MarkOrderPaymentFailed"

	id, err := parseID(op, "orderId", params.OrderID)
	if err != nil {
		return nil, err
	}

	var updated repository.Order
	err = s.store.ExecTx(ctx, func(q repository.Querier) error {
		if _, err := q.RecordGatewayEvent(ctx, repository.RecordGatewayEventParams{
			EventID:   params.GatewayEventID,
			EventType: "payment_intent.payment_failed",
			OrderID:   id,
		}); err != nil {
			if repository.IsUniqueViolation(err) {
				return domain.ErrEventAlreadyApplied
			}
			return domain.Internal(err, op, "failed to record gateway event")
		}

		order, err := q.GetOrder(ctx, id)
		if err != nil {
			if repository.IsNoRows(err) {
				return domain.ErrOrderNotFound
			}
			return domain.Internal(err, op, "failed to load order")
		}

		failed := domain.PaymentStatusFailed
		next, err := applyPatch(op, order, domain.OrderPatch{PaymentStatus: &failed})
		if err != nil {
			return err
		}

		updated, err = q.UpdateOrderStatus(ctx, next)
		if err != nil {
			return domain.Internal(err, op, "failed to update order status")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Warn("order payment failed",
		slog.String("order_id", repository.UUIDString(updated.ID)),
		slog.String("gateway_event_id", params.GatewayEventID),
	)
	return &updated, nil
}

// CancelExpiredPendingOrders cancels orders whose payment has been pending
// longer than ttl. Open payment intents are cancelled at the gateway on a
// best-effort basis.
func (s *OrderService) CancelExpiredPendingOrders(ctx context.Context, ttl time.Duration) (int, error) {
	const op = "OrderService.CancelExpiredPendingOrders"

	cutoff := tsNow()
	cutoff.Time = cutoff.Time.Add(-ttl)

	var cancelled []repository.Order
	err := s.store.ExecTx(ctx, func(q repository.Querier) error {
		expired, err := q.ListExpiredPendingOrders(ctx, cutoff)
		if err != nil {
			return domain.Internal(err, op, "failed to list expired orders")
		}

		for _, order := range expired {
			next, err := applyPatch(op, order, domain.OrderPatch{
				OrderStatus: statusPtr(domain.OrderStatusCancelled),
			})
			if err != nil {
				return err
			}
			updated, err := q.UpdateOrderStatus(ctx, next)
			if err != nil {
				return domain.Internal(err, op, "failed to cancel order")
			}
			cancelled = append(cancelled, updated)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	for _, order := range cancelled {
		if order.PaymentIntentID.Valid {
			if err := s.billing.CancelPaymentIntent(ctx, order.PaymentIntentID.String); err != nil {
				s.logger.Warn("failed to cancel payment intent",
					slog.String("order_id", repository.UUIDString(order.ID)),
					slog.String("error", err.Error()),
				)
			}
		}
		s.events.Publish(ctx, events.SubjectOrderCancelled, orderEvent(order))
	}

	if len(cancelled) > 0 {
		s.logger.Info("expired pending orders cancelled", slog.Int("count", len(cancelled)))
	}
	return len(cancelled), nil
}

func statusPtr(s domain.OrderStatus) *domain.OrderStatus {
	return &s
}
