// Package service implements the application's business logic on top of the
// repository layer. Services hold no request state and are safe for
// concurrent use.
package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/zuricommerce/zuri/internal/domain"
	"github.com/zuricommerce/zuri/internal/repository"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

// normalizePage clamps pagination parameters to sane bounds.
func normalizePage(limit, offset int32) (int32, int32) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// parseID converts a client-supplied id into a pgtype.UUID, reporting a
// field-level validation error on bad input.
func parseID(op, field, value string) (pgtype.UUID, error) {
	id, err := repository.UUIDFromString(value)
	if err != nil {
		return pgtype.UUID{}, domain.NewValidationError(op, field, "must be a valid UUID")
	}
	return id, nil
}

// tsNow returns the current UTC time as a valid pgtype timestamp.
func tsNow() pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: time.Now().UTC(), Valid: true}
}

// refSuffix returns a short random uppercase hex suffix for human-facing
// reference numbers.
func refSuffix() string {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		// Fall back to a time-derived suffix; reference numbers only need
		// to be unique, the database enforces it.
		return fmt.Sprintf("%06X", time.Now().UnixNano()&0xFFFFFF)
	}
	return strings.ToUpper(hex.EncodeToString(buf))
}

// newOrderNumber generates a reference like ORD-20250114-3FA2B1.
func newOrderNumber(at time.Time) string {
	return fmt.Sprintf("ORD-%s-%s", at.UTC().Format("20060102"), refSuffix())
}

// newInvoiceNumber generates a reference like INV-20250114-3FA2B1.
func newInvoiceNumber(at time.Time) string {
	return fmt.Sprintf("INV-%s-%s", at.UTC().Format("20060102"), refSuffix())
}
