// Package store provides the local key-value persistence that stands in for
// browser local storage: a handful of string keys, cleared wholesale on logout.
package store

import (
	"context"
)

// Store is the minimal interface all stores must implement.
type Store interface {
	// Ping verifies the connection is alive.
	Ping(ctx context.Context) error
	// Close releases any resources held by the store.
	Close() error
}

// KV is a string key-value store.
type KV interface {
	Store
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Clear removes every key.
	Clear(ctx context.Context) error
}

// GetOr returns the value for key, or fallback when it is missing.
func GetOr(ctx context.Context, kv KV, key, fallback string) (string, error) {
	v, err := kv.Get(ctx, key)
	if IsNotFound(err) {
		return fallback, nil
	}
	if err != nil {
		return "", err
	}
	return v, nil
}
