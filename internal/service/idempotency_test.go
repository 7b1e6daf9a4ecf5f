package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisIdempotencyClaim(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	guard := NewRedisIdempotency(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour)

	first, err := guard.Claim(ctx, "alice", "k1")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := guard.Claim(ctx, "alice", "k1")
	require.NoError(t, err)
	assert.False(t, again)
	assert.True(t, mr.Exists("idempotent-key:alice:k1"))

	other, err := guard.Claim(ctx, "bob", "k1")
	require.NoError(t, err)
	assert.True(t, other, "keys are scoped per user")

	mr.FastForward(2 * time.Hour)
	expired, err := guard.Claim(ctx, "alice", "k1")
	require.NoError(t, err)
	assert.True(t, expired)
}

func TestRedisIdempotencyRelease(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	guard := NewRedisIdempotency(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour)

	_, err := guard.Claim(ctx, "alice", "k1")
	require.NoError(t, err)
	require.NoError(t, guard.Release(ctx, "alice", "k1"))
	assert.False(t, mr.Exists("idempotent-key:alice:k1"))

	claimed, err := guard.Claim(ctx, "alice", "k1")
	require.NoError(t, err)
	assert.True(t, claimed)
}
