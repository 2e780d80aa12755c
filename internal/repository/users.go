package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const userColumns = `id, email, password_hash, first_name, last_name, role,
	created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Role,
		&u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}

type CreateUserParams struct {
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         string
}

const createUser = `
INSERT INTO users (email, password_hash, first_name, last_name, role)
VALUES (lower($1), $2, $3, $4, $5)
RETURNING ` + userColumns

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	return scanUser(q.db.QueryRow(ctx, createUser,
		arg.Email, arg.PasswordHash, arg.FirstName, arg.LastName, arg.Role,
	))
}

const getUserByID = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

func (q *Queries) GetUserByID(ctx context.Context, id pgtype.UUID) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByID, id))
}

const getUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE email = lower($1)`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByEmail, email))
}

type CreateSessionParams struct {
	UserID    pgtype.UUID
	TokenHash string
	ExpiresAt pgtype.Timestamptz
}

const createSession = `
INSERT INTO sessions (user_id, token_hash, expires_at)
VALUES ($1, $2, $3)
RETURNING id, user_id, token_hash, expires_at, created_at`

func (q *Queries) CreateSession(ctx context.Context, arg CreateSessionParams) (Session, error) {
	var s Session
	err := q.db.QueryRow(ctx, createSession,
		arg.UserID, arg.TokenHash, arg.ExpiresAt,
	).Scan(&s.ID, &s.UserID, &s.TokenHash, &s.ExpiresAt, &s.CreatedAt)
	return s, err
}

const getSessionByTokenHash = `
SELECT id, user_id, token_hash, expires_at, created_at
FROM sessions
WHERE token_hash = $1`

func (q *Queries) GetSessionByTokenHash(ctx context.Context, tokenHash string) (Session, error) {
	var s Session
	err := q.db.QueryRow(ctx, getSessionByTokenHash, tokenHash).
		Scan(&s.ID, &s.UserID, &s.TokenHash, &s.ExpiresAt, &s.CreatedAt)
	return s, err
}

const deleteSessionByTokenHash = `DELETE FROM sessions WHERE token_hash = $1`

func (q *Queries) DeleteSessionByTokenHash(ctx context.Context, tokenHash string) error {
	_, err := q.db.Exec(ctx, deleteSessionByTokenHash, tokenHash)
	return err
}

const deleteExpiredSessions = `DELETE FROM sessions WHERE expires_at < now()`

// DeleteExpiredSessions removes stale sessions, returning the count removed.
func (q *Queries) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteExpiredSessions)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
