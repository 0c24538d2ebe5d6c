package nonce

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreMarkAndCheck(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	used, err := s.IsUsed(ctx, "payer1", "key1")
	require.NoError(t, err)
	assert.False(t, used)

	require.NoError(t, s.MarkUsed(ctx, "payer1", "key1", time.Now().Add(time.Hour).Unix()))

	used, err = s.IsUsed(ctx, "payer1", "key1")
	require.NoError(t, err)
	assert.True(t, used)
}

func TestMemoryStoreExpiresEntries(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.MarkUsed(ctx, "payer1", "key1", time.Now().Add(-time.Second).Unix()))

	used, err := s.IsUsed(ctx, "payer1", "key1")
	require.NoError(t, err)
	assert.False(t, used)
}

func TestMemoryStoreKeysAreScopedPerPayer(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.MarkUsed(ctx, "payer1", "key1", time.Now().Add(time.Hour).Unix()))

	used, err := s.IsUsed(ctx, "payer2", "key1")
	require.NoError(t, err)
	assert.False(t, used)
}
