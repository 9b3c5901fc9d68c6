package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitGuard(t *testing.T) {
	client, mr := setupTestRedis(t)
	g := NewSubmitGuard(client, 5*time.Second)
	ctx := context.Background()

	ok, err := g.Acquire(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, ok)

	// Test case: the same fingerprint is rejected while held
	ok, err = g.Acquire(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = g.Acquire(ctx, "other")
	require.NoError(t, err)
	assert.True(t, ok)

	// Test case: expiry frees the fingerprint
	mr.FastForward(6 * time.Second)
	ok, err = g.Acquire(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, ok)

	// Test case: release frees it at once
	require.NoError(t, g.Release(ctx, "abc"))
	ok, err = g.Acquire(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSubmitGuardRedisDown(t *testing.T) {
	client, mr := setupTestRedis(t)
	g := NewSubmitGuard(client, 0)
	assert.Equal(t, DefaultSubmitTTL, g.TTL)

	mr.Close()
	_, err := g.Acquire(context.Background(), "abc")
	assert.Error(t, err)
}
