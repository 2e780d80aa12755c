// Package routes wires handlers, middleware and the router together.
package routes

import (
	"log/slog"
	"net/http"

	"github.com/zuricommerce/zuri/internal/domain"
	"github.com/zuricommerce/zuri/internal/handler/api"
	"github.com/zuricommerce/zuri/internal/middleware"
	"github.com/zuricommerce/zuri/internal/router"
)

// Deps contains everything the route table needs.
type Deps struct {
	Logger   *slog.Logger
	Sessions domain.SessionService
	Metrics  *middleware.Metrics

	Auth     *api.AuthHandler
	Products *api.ProductHandler
	Orders   *api.OrderHandler
	Invoices *api.InvoiceHandler
	Returns  *api.ReturnHandler

	// StripeWebhook verifies its own signature; it carries no auth
	// middleware.
	StripeWebhook http.HandlerFunc

	// StaticFilesDir serves stored files (product images) when local
	// storage is in use. Empty disables the route.
	StaticFilesDir string
}

// New builds the full route table. Every request passes through request id
// assignment, session resolution, request-scoped logging and HTTP metrics,
// in that order.
func New(deps Deps) *router.Router {
	global := []router.Middleware{
		middleware.RequestID,
		middleware.WithUser(deps.Sessions),
		middleware.WithRequestLogger(deps.Logger),
	}
	if deps.Metrics != nil {
		global = append(global, deps.Metrics.Middleware)
	}

	r := router.New(global...)

	// Operational endpoints.
	r.Get("/health", handleHealth)
	if deps.Metrics != nil {
		r.Handle(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	// Gateway callbacks.
	r.Post("/webhooks/stripe", deps.StripeWebhook)

	// Public catalog and account creation.
	r.Get("/api/products", deps.Products.List)
	r.Get("/api/products/{id}", deps.Products.Get)
	r.Post("/api/auth/register", deps.Auth.Register)
	r.Post("/api/auth/login", deps.Auth.Login)
	r.Post("/api/auth/logout", deps.Auth.Logout)

	// Authenticated customer surface.
	authed := r.Group(middleware.RequireAuth)
	authed.Get("/api/auth/me", deps.Auth.Me)
	authed.Post("/api/orders", deps.Orders.Checkout)
	authed.Get("/api/orders/{id}", deps.Orders.Get)
	authed.Get("/api/orders/user/{userId}", deps.Orders.ListForUser)
	authed.Get("/api/invoices/my", deps.Invoices.ListMine)
	authed.Get("/api/invoices/download/{id}", deps.Invoices.Download)
	authed.Post("/api/returns", deps.Returns.Create)
	authed.Get("/api/returns/{id}", deps.Returns.Get)

	// Admin surface.
	admin := r.Group(middleware.RequireAdmin)
	admin.Get("/api/orders", deps.Orders.List)
	admin.Put("/api/orders/{id}", deps.Orders.Transition)
	admin.Delete("/api/orders/{id}", deps.Orders.Delete)
	admin.Post("/api/products", deps.Products.Create)
	admin.Put("/api/products/{id}", deps.Products.Update)
	admin.Post("/api/invoices/generate/{orderId}", deps.Invoices.Generate)
	admin.Get("/api/invoices", deps.Invoices.List)
	admin.Get("/api/invoices/{id}", deps.Invoices.Get)
	admin.Get("/api/returns", deps.Returns.List)
	admin.Put("/api/returns/{id}", deps.Returns.Update)

	if deps.StaticFilesDir != "" {
		r.Static("/files", deps.StaticFilesDir)
	}

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
