package logging

import (
	"context"

	"github.com/google/uuid"
)

type contextKey struct{}

// NewRequestID returns a fresh X-Request-ID value.
func NewRequestID() string {
	return uuid.NewString()
}

// WithRequestID returns ctx carrying id. An empty id gets a fresh one.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = NewRequestID()
	}
	return context.WithValue(ctx, contextKey{}, id)
}

// GetRequestID returns the request ID carried by ctx, or "".
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}

// EnsureRequestID returns ctx carrying a request ID and that ID. An ID already
// present is kept so one user action logs under one ID across retries and
// follow-up loads.
func EnsureRequestID(ctx context.Context) (context.Context, string) {
	if id := GetRequestID(ctx); id != "" {
		return ctx, id
	}
	id := NewRequestID()
	return WithRequestID(ctx, id), id
}
