package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/zuricommerce/zuri/internal/domain"
	"github.com/zuricommerce/zuri/internal/repository"
)

const (
	// UserContextKey is the context key for the authenticated user
	UserContextKey contextKey = "user"

	// SessionCookieName carries the session token for browser clients.
	SessionCookieName = "zuri_session"
)

// SessionToken extracts the raw session token from the Authorization header
// (Bearer) or the session cookie. Header wins when both are present.
func SessionToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// WithUser resolves the session token and stores the user in the context.
// Requests without a valid session continue anonymously; RequireAuth is what
// enforces authentication.
func WithUser(sessions domain.SessionService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := SessionToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := sessions.Authenticate(r.Context(), token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects unauthenticated requests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUserFromContext(r.Context()) == nil {
			respondUnauthorized(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects non-admin requests: 401 when anonymous, 403 when
// authenticated without the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUserFromContext(r.Context())
		if user == nil {
			respondUnauthorized(w, r)
			return
		}
		if !domain.IsAdmin(user) {
			respondForbidden(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetUserFromContext retrieves the authenticated user, or nil.
func GetUserFromContext(ctx context.Context) *repository.User {
	user, ok := ctx.Value(UserContextKey).(*repository.User)
	if !ok {
		return nil
	}
	return user
}
