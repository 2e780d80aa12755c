package service

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/zuricommerce/zuri/internal/billing"
	"github.com/zuricommerce/zuri/internal/domain"
	"github.com/zuricommerce/zuri/internal/events"
	"github.com/zuricommerce/zuri/internal/repository"
)

// ReturnService runs the post-delivery return workflow: customer opens a
// request, an admin walks it through approval, and completion issues the
// gateway refund.
type ReturnService struct {
	store   repository.Store
	billing billing.Provider
	events  events.Publisher
	logger  *slog.Logger
}

var _ domain.ReturnService = (*ReturnService)(nil)

// NewReturnService creates the return service.
func NewReturnService(store repository.Store, provider billing.Provider, publisher events.Publisher, logger *slog.Logger) *ReturnService {
	return &ReturnService{
		store:   store,
		billing: provider,
		events:  publisher,
		logger:  logger,
	}
}

// CreateReturn opens a return against a delivered, paid order the user owns.
func (s *ReturnService) CreateReturn(ctx context.Context, params domain.CreateReturnParams) (*repository.Return, error) {
	const op = "ReturnService.CreateReturn"

	reason := strings.TrimSpace(params.Reason)
	// Bounds are in characters, matching the char_length CHECK in the schema.
	if utf8.RuneCountInString(reason) < domain.ReturnReasonMinLen {
		return nil, domain.NewValidationError(op, "reason", "must be at least 5 characters")
	}
	if utf8.RuneCountInString(reason) > domain.ReturnReasonMaxLen {
		return nil, domain.NewValidationError(op, "reason", "must be at most 500 characters")
	}

	userID, err := parseID(op, "userId", params.UserID)
	if err != nil {
		return nil, err
	}
	orderID, err := parseID(op, "orderId", params.OrderID)
	if err != nil {
		return nil, err
	}
	productID, err := parseID(op, "productId", params.ProductID)
	if err != nil {
		return nil, err
	}

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, domain.Internal(err, op, "failed to load order")
	}

	if order.UserID != userID {
		return nil, domain.ErrReturnNotOwnedByUser
	}
	if !order.IsDelivered {
		return nil, domain.ErrOrderNotDelivered
	}
	if domain.PaymentStatus(order.PaymentStatus) != domain.PaymentStatusPaid {
		return nil, domain.ErrOrderNotPaid
	}

	items, err := s.store.GetOrderItems(ctx, orderID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load order items")
	}
	inOrder := false
	for _, item := range items {
		if item.ProductID == productID {
			inOrder = true
			break
		}
	}
	if !inOrder {
		return nil, domain.ErrProductNotInOrder
	}

	ret, err := s.store.CreateReturn(ctx, repository.CreateReturnParams{
		OrderID:   orderID,
		ProductID: productID,
		UserID:    userID,
		Reason:    reason,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to create return")
	}

	s.logger.Info("return opened",
		slog.String("return_id", repository.UUIDString(ret.ID)),
		slog.String("order_id", params.OrderID),
		slog.String("product_id", params.ProductID),
	)
	return &ret, nil
}

// GetReturn retrieves a single return request.
func (s *ReturnService) GetReturn(ctx context.Context, returnID string) (*repository.Return, error) {
	const op = "ReturnService.GetReturn"

	id, err := parseID(op, "returnId", returnID)
	if err != nil {
		return nil, err
	}

	ret, err := s.store.GetReturn(ctx, id)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, domain.ErrReturnNotFound
		}
		return nil, domain.Internal(err, op, "failed to load return")
	}
	return &ret, nil
}

// UpdateReturnStatus advances the workflow. Moving to completed with a refund
// amount issues the gateway refund first; the database is only updated once
// the gateway accepted the refund, so a gateway failure leaves the return in
// processing for a retry.
func (s *ReturnService) UpdateReturnStatus(ctx context.Context, params domain.UpdateReturnStatusParams) (*repository.Return, error) {
	const op = "ReturnService.UpdateReturnStatus"

	id, err := parseID(op, "returnId", params.ReturnID)
	if err != nil {
		return nil, err
	}
	if !params.Status.Valid() {
		return nil, domain.NewValidationError(op, "status", "unknown status")
	}

	ret, err := s.store.GetReturn(ctx, id)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, domain.ErrReturnNotFound
		}
		return nil, domain.Internal(err, op, "failed to load return")
	}

	from := domain.ReturnStatus(ret.Status)
	if !domain.CanTransitionReturnStatus(from, params.Status) {
		return nil, domain.Errorf(domain.EINVALID, op,
			"cannot transition return from %s to %s", from, params.Status)
	}

	update := repository.UpdateReturnStatusParams{
		ID:                  id,
		Status:              string(params.Status),
		AdminNote:           params.AdminNote,
		RefundAmountCents:   ret.RefundAmountCents,
		RefundMethod:        ret.RefundMethod,
		RefundTransactionID: ret.RefundTransactionID,
		RefundedAt:          ret.RefundedAt,
	}

	var refundedOrder *repository.Order
	if params.Status == domain.ReturnStatusCompleted && params.RefundAmountCents != nil && *params.RefundAmountCents > 0 {
		order, err := s.store.GetOrder(ctx, ret.OrderID)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to load order")
		}
		if *params.RefundAmountCents > order.TotalCents {
			return nil, domain.ErrRefundExceedsTotal
		}
		if !order.PaymentIntentID.Valid {
			return nil, domain.Errorf(domain.EPAYMENT, op, "order has no payment to refund")
		}

		refund, err := s.billing.RefundPayment(ctx, billing.RefundParams{
			PaymentIntentID: order.PaymentIntentID.String,
			AmountCents:     *params.RefundAmountCents,
			Reason:          "requested_by_customer",
			Metadata: map[string]string{
				"return_id": params.ReturnID,
				"order_id":  repository.UUIDString(order.ID),
			},
			// Keyed by the return id so a retried completion after a write
			// failure reuses the same gateway refund.
			IdempotencyKey: params.ReturnID,
		})
		if err != nil {
			s.logger.Error("gateway refund failed",
				slog.String("return_id", params.ReturnID),
				slog.String("error", err.Error()),
			)
			return nil, domain.WrapError(err, domain.EPAYMENT, op, "Refund was rejected by the payment gateway")
		}

		update.RefundAmountCents = pgtype.Int8{Int64: refund.AmountCents, Valid: true}
		update.RefundMethod = repository.TextOrNull(params.RefundMethod)
		update.RefundTransactionID = repository.TextOrNull(refund.ID)
		update.RefundedAt = tsNow()

		// A refund covering the full order total moves the order's payment
		// status to refunded as well.
		if refund.AmountCents >= order.TotalCents {
			refunded := domain.PaymentStatusRefunded
			next, err := applyPatch(op, order, domain.OrderPatch{PaymentStatus: &refunded})
			if err != nil {
				return nil, err
			}
			updatedOrder, err := s.store.UpdateOrderStatus(ctx, next)
			if err != nil {
				return nil, domain.Internal(err, op, "failed to mark order refunded")
			}
			refundedOrder = &updatedOrder
		}
	}

	updated, err := s.store.UpdateReturnStatus(ctx, update)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to update return")
	}

	s.logger.Info("return transitioned",
		slog.String("return_id", repository.UUIDString(updated.ID)),
		slog.String("status", updated.Status),
	)

	if params.Status == domain.ReturnStatusCompleted {
		s.events.Publish(ctx, events.SubjectReturnCompleted, events.ReturnEvent{
			ReturnID:          repository.UUIDString(updated.ID),
			OrderID:           repository.UUIDString(updated.OrderID),
			RefundAmountCents: updated.RefundAmountCents.Int64,
			RefundMethod:      updated.RefundMethod.String,
			OccurredAt:        tsNow().Time,
		})
	}
	if refundedOrder != nil {
		s.events.Publish(ctx, events.SubjectOrderRefunded, orderEvent(*refundedOrder))
	}
	return &updated, nil
}

// ListReturns returns all non-deleted returns with display fields, newest
// first.
func (s *ReturnService) ListReturns(ctx context.Context, limit, offset int32) ([]repository.ListReturnsRow, error) {
	const op = "ReturnService.ListReturns"

	limit, offset = normalizePage(limit, offset)
	rows, err := s.store.ListReturns(ctx, repository.ListReturnsParams{Limit: limit, Offset: offset})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list returns")
	}
	return rows, nil
}
