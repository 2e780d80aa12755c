package domain

import (
	"context"

	"github.com/zuricommerce/zuri/internal/repository"
)

// User roles.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User/session domain errors.
var (
	ErrUserNotFound       = &Error{Code: ENOTFOUND, Message: "User not found"}
	ErrInvalidCredentials = &Error{Code: EUNAUTHORIZED, Message: "Invalid email or password"}
	ErrSessionExpired     = &Error{Code: EUNAUTHORIZED, Message: "Session has expired"}
	ErrEmailTaken         = &Error{Code: ECONFLICT, Message: "Email already registered"}
)

// IsAdmin reports whether u holds the admin role. Safe on nil.
func IsAdmin(u *repository.User) bool {
	return u != nil && u.Role == RoleAdmin
}

// RegisterParams contains parameters for creating an account.
type RegisterParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// SessionService issues and resolves server-side opaque session tokens.
// Tokens are stored hashed; the raw token is returned to the client exactly
// once at login.
type SessionService interface {
	// Register creates a customer account.
	Register(ctx context.Context, params RegisterParams) (*repository.User, error)

	// Login verifies credentials and issues a session token.
	Login(ctx context.Context, email, password string) (token string, user *repository.User, err error)

	// Authenticate resolves a raw session token to its user.
	Authenticate(ctx context.Context, token string) (*repository.User, error)

	// Logout revokes the session for the given token.
	Logout(ctx context.Context, token string) error

	// PurgeExpiredSessions removes sessions past their expiry. Used by the
	// maintenance worker.
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}
