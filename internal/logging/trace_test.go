package logging

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequestIDIsUUID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewRequestID()
		_, err := uuid.Parse(id)
		require.NoError(t, err)
		assert.False(t, seen[id], "duplicate %s", id)
		seen[id] = true
	}
}

func TestWithRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	assert.Equal(t, "req-1", GetRequestID(ctx))

	generated := GetRequestID(WithRequestID(context.Background(), ""))
	assert.Len(t, generated, 36)

	assert.Empty(t, GetRequestID(context.Background()))
}

func TestEnsureRequestIDKeepsExisting(t *testing.T) {
	ctx, id := EnsureRequestID(WithRequestID(context.Background(), "kept"))
	assert.Equal(t, "kept", id)
	assert.Equal(t, "kept", GetRequestID(ctx))

	ctx, id = EnsureRequestID(context.Background())
	assert.Len(t, id, 36)
	assert.Equal(t, id, GetRequestID(ctx))
}
