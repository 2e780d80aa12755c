// Package api contains the JSON HTTP handlers. Handlers decode and validate
// requests, call the domain services, and shape responses; all business rules
// live in the services.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/zuricommerce/zuri/internal/domain"
	"github.com/zuricommerce/zuri/internal/repository"
)

const maxRequestBytes = 1 << 20

// decodeJSON decodes the request body into dst and validates it with the
// handler's validator. Validation failures come back as field-level errors.
func decodeJSON(r *http.Request, validate *validator.Validate, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return domain.Errorf(domain.EINVALID, "", "Invalid request body")
	}

	if err := validate.Struct(dst); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return domain.Errorf(domain.EINVALID, "", "Invalid request body")
		}
		var out error
		for _, fe := range verrs {
			out = domain.AddFieldError(out, fe.Field(), validationMessage(fe))
		}
		return out
	}
	return nil
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "min":
		return fmt.Sprintf("Must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("Must be greater than %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("Failed %s validation", fe.Tag())
	}
}

// pagination reads limit/offset query parameters. Services clamp the values.
func pagination(r *http.Request) (limit, offset int32) {
	limit = 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil && n > 0 {
			limit = int32(n)
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil && n >= 0 {
			offset = int32(n)
		}
	}
	return limit, offset
}

func timePtr(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Time
	return &t
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}

func int64Ptr(i pgtype.Int8) *int64 {
	if !i.Valid {
		return nil
	}
	v := i.Int64
	return &v
}

// OrderResponse is the JSON shape of an order.
type OrderResponse struct {
	ID              string              `json:"id"`
	UserID          string              `json:"userId"`
	OrderNumber     string              `json:"orderNumber"`
	OrderStatus     string              `json:"orderStatus"`
	PaymentStatus   string              `json:"paymentStatus"`
	TotalCents      int64               `json:"totalCents"`
	Currency        string              `json:"currency"`
	PaymentIntentID *string             `json:"paymentIntentId,omitempty"`
	IsDelivered     bool                `json:"isDelivered"`
	PaidAt          *time.Time          `json:"paidAt,omitempty"`
	DeliveredAt     *time.Time          `json:"deliveredAt,omitempty"`
	RefundedAt      *time.Time          `json:"refundedAt,omitempty"`
	CreatedAt       *time.Time          `json:"createdAt,omitempty"`
	Items           []OrderItemResponse `json:"items,omitempty"`
}

// OrderItemResponse is the JSON shape of an order line item.
type OrderItemResponse struct {
	ID             string `json:"id"`
	ProductID      string `json:"productId"`
	Title          string `json:"title"`
	UnitPriceCents int64  `json:"unitPriceCents"`
	Quantity       int32  `json:"quantity"`
	ImageKey       string `json:"imageKey,omitempty"`
}

func toOrderResponse(order repository.Order, items []repository.OrderItem) OrderResponse {
	resp := OrderResponse{
		ID:              repository.UUIDString(order.ID),
		UserID:          repository.UUIDString(order.UserID),
		OrderNumber:     order.OrderNumber,
		OrderStatus:     order.OrderStatus,
		PaymentStatus:   order.PaymentStatus,
		TotalCents:      order.TotalCents,
		Currency:        order.Currency,
		PaymentIntentID: textPtr(order.PaymentIntentID),
		IsDelivered:     order.IsDelivered,
		PaidAt:          timePtr(order.PaidAt),
		DeliveredAt:     timePtr(order.DeliveredAt),
		RefundedAt:      timePtr(order.RefundedAt),
		CreatedAt:       timePtr(order.CreatedAt),
	}
	for _, item := range items {
		resp.Items = append(resp.Items, OrderItemResponse{
			ID:             repository.UUIDString(item.ID),
			ProductID:      repository.UUIDString(item.ProductID),
			Title:          item.Title,
			UnitPriceCents: item.UnitPriceCents,
			Quantity:       item.Quantity,
			ImageKey:       item.ImageKey,
		})
	}
	return resp
}

// InvoiceResponse is the JSON shape of an invoice record.
type InvoiceResponse struct {
	ID            string     `json:"id"`
	OrderID       string     `json:"orderId"`
	InvoiceNumber string     `json:"invoiceNumber"`
	CustomerName  string     `json:"customerName"`
	CustomerEmail string     `json:"customerEmail"`
	SubtotalCents int64      `json:"subtotalCents"`
	TaxCents      int64      `json:"taxCents"`
	TotalCents    int64      `json:"totalCents"`
	Currency      string     `json:"currency"`
	CreatedAt     *time.Time `json:"createdAt,omitempty"`
}

func toInvoiceResponse(inv repository.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:            repository.UUIDString(inv.ID),
		OrderID:       repository.UUIDString(inv.OrderID),
		InvoiceNumber: inv.InvoiceNumber,
		CustomerName:  inv.CustomerName,
		CustomerEmail: inv.CustomerEmail,
		SubtotalCents: inv.SubtotalCents,
		TaxCents:      inv.TaxCents,
		TotalCents:    inv.TotalCents,
		Currency:      inv.Currency,
		CreatedAt:     timePtr(inv.CreatedAt),
	}
}

// ReturnResponse is the JSON shape of a return request. The display fields
// are present only on admin list responses.
type ReturnResponse struct {
	ID                string     `json:"id"`
	OrderID           string     `json:"orderId"`
	ProductID         string     `json:"productId"`
	UserID            string     `json:"userId"`
	Reason            string     `json:"reason"`
	Status            string     `json:"status"`
	RefundAmountCents *int64     `json:"refundAmountCents,omitempty"`
	RefundMethod      *string    `json:"refundMethod,omitempty"`
	AdminNote         string     `json:"adminNote,omitempty"`
	RefundedAt        *time.Time `json:"refundedAt,omitempty"`
	CreatedAt         *time.Time `json:"createdAt,omitempty"`

	OrderNumber   string `json:"orderNumber,omitempty"`
	ProductName   string `json:"productName,omitempty"`
	CustomerEmail string `json:"customerEmail,omitempty"`
	CustomerName  string `json:"customerName,omitempty"`
}

func toReturnResponse(ret repository.Return) ReturnResponse {
	return ReturnResponse{
		ID:                repository.UUIDString(ret.ID),
		OrderID:           repository.UUIDString(ret.OrderID),
		ProductID:         repository.UUIDString(ret.ProductID),
		UserID:            repository.UUIDString(ret.UserID),
		Reason:            ret.Reason,
		Status:            ret.Status,
		RefundAmountCents: int64Ptr(ret.RefundAmountCents),
		RefundMethod:      textPtr(ret.RefundMethod),
		AdminNote:         ret.AdminNote,
		RefundedAt:        timePtr(ret.RefundedAt),
		CreatedAt:         timePtr(ret.CreatedAt),
	}
}

func toReturnListResponse(row repository.ListReturnsRow) ReturnResponse {
	resp := toReturnResponse(row.Return)
	resp.OrderNumber = row.OrderNumber
	resp.ProductName = row.ProductName
	resp.CustomerEmail = row.CustomerEmail
	resp.CustomerName = row.CustomerName
	return resp
}

// ProductResponse is the JSON shape of a catalog product.
type ProductResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Brand          string `json:"brand,omitempty"`
	Description    string `json:"description,omitempty"`
	UnitPriceCents int64  `json:"unitPriceCents"`
	Currency       string `json:"currency"`
	ImageKey       string `json:"imageKey,omitempty"`
	IsActive       bool   `json:"isActive"`
}

func toProductResponse(p repository.Product) ProductResponse {
	return ProductResponse{
		ID:             repository.UUIDString(p.ID),
		Name:           p.Name,
		Brand:          p.Brand,
		Description:    p.Description,
		UnitPriceCents: p.UnitPriceCents,
		Currency:       p.Currency,
		ImageKey:       p.ImageKey,
		IsActive:       p.IsActive,
	}
}

// UserResponse is the JSON shape of an account. The password hash never
// leaves the repository layer.
type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName,omitempty"`
	Role      string `json:"role"`
}

func toUserResponse(u *repository.User) UserResponse {
	return UserResponse{
		ID:        repository.UUIDString(u.ID),
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
	}
}
