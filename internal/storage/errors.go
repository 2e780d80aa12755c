package storage

import (
	"errors"
	"fmt"
)

// ErrNotFound is the sentinel for a missing file; wrap with FileNotFound.
var ErrNotFound = errors.New("storage: file not found")

// FileNotFound creates a not-found error carrying the key.
func FileNotFound(key string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, key)
}

// IsNotFound reports whether err means the file does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
