package domain

import (
	"context"

	"github.com/zuricommerce/zuri/internal/repository"
)

// ReturnStatus is the state of a return request.
type ReturnStatus string

const (
	ReturnStatusPending    ReturnStatus = "pending"
	ReturnStatusApproved   ReturnStatus = "approved"
	ReturnStatusRejected   ReturnStatus = "rejected"
	ReturnStatusProcessing ReturnStatus = "processing"
	ReturnStatusCompleted  ReturnStatus = "completed"
)

// Valid reports whether s is a known return status.
func (s ReturnStatus) Valid() bool {
	switch s {
	case ReturnStatusPending, ReturnStatusApproved, ReturnStatusRejected,
		ReturnStatusProcessing, ReturnStatusCompleted:
		return true
	}
	return false
}

// Terminal reports whether the return can no longer advance.
func (s ReturnStatus) Terminal() bool {
	return s == ReturnStatusRejected || s == ReturnStatusCompleted
}

// returnTransitions is the approval workflow: pending -> approved|rejected,
// approved -> processing, processing -> completed.
var returnTransitions = map[ReturnStatus][]ReturnStatus{
	ReturnStatusPending:    {ReturnStatusApproved, ReturnStatusRejected},
	ReturnStatusApproved:   {ReturnStatusProcessing},
	ReturnStatusProcessing: {ReturnStatusCompleted},
	ReturnStatusRejected:   {},
	ReturnStatusCompleted:  {},
}

// CanTransitionReturnStatus reports whether from -> to is a legal transition.
func CanTransitionReturnStatus(from, to ReturnStatus) bool {
	for _, next := range returnTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Reason length bounds for a return request, inclusive.
const (
	ReturnReasonMinLen = 5
	ReturnReasonMaxLen = 500
)

// Return-related domain errors.
var (
	ErrReturnNotFound       = &Error{Code: ENOTFOUND, Message: "Return not found"}
	ErrProductNotInOrder    = &Error{Code: EINVALID, Message: "Product is not part of this order"}
	ErrRefundExceedsTotal   = &Error{Code: EINVALID, Message: "Refund amount exceeds order total"}
	ErrReturnNotOwnedByUser = &Error{Code: EFORBIDDEN, Message: "Order belongs to a different customer"}
)

// CreateReturnParams contains parameters for opening a return request.
type CreateReturnParams struct {
	UserID    string
	OrderID   string
	ProductID string
	Reason    string
}

// UpdateReturnStatusParams contains an admin's decision on a return.
// RefundAmountCents is honoured only when moving to completed.
type UpdateReturnStatusParams struct {
	ReturnID          string
	Status            ReturnStatus
	AdminNote         string
	RefundAmountCents *int64
	RefundMethod      string
}

// ReturnService runs the post-delivery return/refund workflow.
type ReturnService interface {
	// CreateReturn opens a return against a delivered, paid order the user
	// owns. The product must appear in the order's line items and the
	// reason length must be within [ReturnReasonMinLen, ReturnReasonMaxLen].
	CreateReturn(ctx context.Context, params CreateReturnParams) (*repository.Return, error)

	// GetReturn retrieves a single return request.
	GetReturn(ctx context.Context, returnID string) (*repository.Return, error)

	// UpdateReturnStatus advances the workflow (admin only). Illegal
	// transitions are rejected with EINVALID. Completing with a refund
	// amount issues a gateway refund, stamps refundedAt, and moves the
	// order's payment status to refunded when the refund covers the total.
	UpdateReturnStatus(ctx context.Context, params UpdateReturnStatusParams) (*repository.Return, error)

	// ListReturns returns all non-deleted returns with order, product and
	// customer display fields, newest first.
	ListReturns(ctx context.Context, limit, offset int32) ([]repository.ListReturnsRow, error)
}
