package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Get for a missing key.
	ErrNotFound = errors.New("key not found")

	// ErrClosed is returned by every call after Close.
	ErrClosed = errors.New("store is closed")
)

// NotFoundError names the missing key and unwraps to ErrNotFound.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Key, ErrNotFound)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// IsNotFound reports whether err means a key was missing.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
