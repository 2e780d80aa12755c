package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/zuricommerce/zuri/internal/auth"
	"github.com/zuricommerce/zuri/internal/domain"
	"github.com/zuricommerce/zuri/internal/repository"
)

// SessionService issues and resolves opaque server-side session tokens.
// Only the sha256 of a token is stored; a database leak does not leak live
// sessions.
type SessionService struct {
	store  repository.Store
	ttl    time.Duration
	logger *slog.Logger
}

var _ domain.SessionService = (*SessionService)(nil)

// NewSessionService creates the session service. ttl bounds how long a login
// stays valid.
func NewSessionService(store repository.Store, ttl time.Duration, logger *slog.Logger) *SessionService {
	return &SessionService{store: store, ttl: ttl, logger: logger}
}

// Register creates a customer account.
func (s *SessionService) Register(ctx context.Context, params domain.RegisterParams) (*repository.User, error) {
	const op = "SessionService.Register"

	email := strings.TrimSpace(strings.ToLower(params.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.NewValidationError(op, "email", "must be a valid email address")
	}
	if params.FirstName == "" {
		return nil, domain.NewValidationError(op, "firstName", "is required")
	}

	hash, err := auth.HashPassword(params.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			return nil, domain.NewValidationError(op, "password", "must be at least 8 characters")
		}
		return nil, domain.Internal(err, op, "failed to hash password")
	}

	user, err := s.store.CreateUser(ctx, repository.CreateUserParams{
		Email:        email,
		PasswordHash: hash,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		Role:         domain.RoleCustomer,
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, domain.Internal(err, op, "failed to create user")
	}

	s.logger.Info("user registered", slog.String("user_id", repository.UUIDString(user.ID)))
	return &user, nil
}

// Login verifies credentials and issues a fresh session token. The raw token
// is returned exactly once; only its hash is persisted.
func (s *SessionService) Login(ctx context.Context, email, password string) (string, *repository.User, error) {
	const op = "SessionService.Login"

	user, err := s.store.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if repository.IsNoRows(err) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, domain.Internal(err, op, "failed to load user")
	}

	if err := auth.VerifyPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, domain.Internal(err, op, "failed to verify password")
	}

	token, hash, err := auth.NewSessionToken()
	if err != nil {
		return "", nil, domain.Internal(err, op, "failed to generate session token")
	}

	expires := tsNow()
	expires.Time = expires.Time.Add(s.ttl)
	if _, err := s.store.CreateSession(ctx, repository.CreateSessionParams{
		UserID:    user.ID,
		TokenHash: hash,
		ExpiresAt: expires,
	}); err != nil {
		return "", nil, domain.Internal(err, op, "failed to create session")
	}

	s.logger.Info("user logged in", slog.String("user_id", repository.UUIDString(user.ID)))
	return token, &user, nil
}

// Authenticate resolves a raw session token to its user. Expired sessions
// are revoked on sight.
func (s *SessionService) Authenticate(ctx context.Context, token string) (*repository.User, error) {
	const op = "SessionService.Authenticate"

	hash := auth.HashSessionToken(token)
	session, err := s.store.GetSessionByTokenHash(ctx, hash)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, domain.Unauthorized(op, "Invalid session token")
		}
		return nil, domain.Internal(err, op, "failed to load session")
	}

	if session.ExpiresAt.Valid && session.ExpiresAt.Time.Before(time.Now().UTC()) {
		if err := s.store.DeleteSessionByTokenHash(ctx, hash); err != nil {
			s.logger.Warn("failed to revoke expired session", slog.String("error", err.Error()))
		}
		return nil, domain.ErrSessionExpired
	}

	user, err := s.store.GetUserByID(ctx, session.UserID)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, domain.Internal(err, op, "failed to load user")
	}
	return &user, nil
}

// Logout revokes the session for the given token. Unknown tokens are a
// no-op.
func (s *SessionService) Logout(ctx context.Context, token string) error {
	const op = "SessionService.Logout"

	if err := s.store.DeleteSessionByTokenHash(ctx, auth.HashSessionToken(token)); err != nil {
		return domain.Internal(err, op, "failed to delete session")
	}
	return nil
}

// PurgeExpiredSessions removes sessions past their expiry.
func (s *SessionService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	const op = "SessionService.PurgeExpiredSessions"

	purged, err := s.store.DeleteExpiredSessions(ctx)
	if err != nil {
		return 0, domain.Internal(err, op, "failed to purge sessions")
	}
	if purged > 0 {
		s.logger.Info("expired sessions purged", slog.Int64("count", purged))
	}
	return purged, nil
}
