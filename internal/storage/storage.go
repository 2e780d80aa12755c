// Package storage persists generated artifacts (invoice PDFs). The interface
// leaves room for object-store backends; the local filesystem implementation
// is what single-instance deployments use.
package storage

import (
	"context"
	"io"
)

// Storage defines the interface for file storage operations.
type Storage interface {
	// Put stores a file and returns its URL/path for retrieval.
	// The key should be a unique identifier (e.g., "invoices/INV-x.pdf").
	Put(ctx context.Context, key string, content io.Reader, contentType string) (string, error)

	// Get retrieves a file by its key.
	// Returns an io.ReadCloser that must be closed by the caller.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes a file by its key.
	// Returns nil if the file doesn't exist (idempotent).
	Delete(ctx context.Context, key string) error

	// URL returns the public URL for accessing a stored file.
	URL(key string) string

	// Exists checks if a file exists at the given key.
	Exists(ctx context.Context, key string) (bool, error)
}
