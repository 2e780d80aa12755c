package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/zuricommerce/zuri/internal/domain"
	"github.com/zuricommerce/zuri/internal/handler"
	"github.com/zuricommerce/zuri/internal/middleware"
)

// AuthHandler serves account registration and session endpoints. Sessions
// are issued both as a bearer token in the response body and as a cookie so
// browser and API clients share one mechanism.
type AuthHandler struct {
	sessions   domain.SessionService
	sessionTTL time.Duration
	secure     bool
	validate   *validator.Validate
	logger     *slog.Logger
}

// NewAuthHandler creates an auth handler. secure controls the cookie's
// Secure flag and should be true everywhere except local development.
func NewAuthHandler(sessions domain.SessionService, sessionTTL time.Duration, secure bool, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		sessions:   sessions,
		sessionTTL: sessionTTL,
		secure:     secure,
		validate:   validator.New(),
		logger:     logger,
	}
}

// RegisterRequest is the body for POST /api/auth/register.
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"omitempty,max=100"`
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(r, h.validate, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	user, err := h.sessions.Register(r.Context(), domain.RegisterParams{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.RespondJSON(w, http.StatusCreated, toUserResponse(user))
}

// LoginRequest is the body for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the session token alongside the account.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// Login handles POST /api/auth/login. The token is also set as a session
// cookie for browser clients.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, h.validate, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	token, user, err := h.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	h.setSessionCookie(w, token, h.sessionTTL)
	handler.RespondJSON(w, http.StatusOK, LoginResponse{
		Token: token,
		User:  toUserResponse(user),
	})
}

// Logout handles POST /api/auth/logout. Revokes the session and clears the
// cookie. Succeeds even without a valid session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.SessionToken(r); token != "" {
		if err := h.sessions.Logout(r.Context(), token); err != nil {
			h.logger.Warn("revoking session", "error", err)
		}
	}

	h.setSessionCookie(w, "", -time.Hour)
	handler.RespondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Me handles GET /api/auth/me for the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		handler.UnauthorizedResponse(w, r)
		return
	}
	handler.RespondJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
