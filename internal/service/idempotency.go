package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisIdempotency remembers checkout idempotency keys for ttl. Keys are
// scoped to the user that sent them.
type RedisIdempotency struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisIdempotency(rdb *redis.Client, ttl time.Duration) *RedisIdempotency {
	return &RedisIdempotency{rdb: rdb, ttl: ttl}
}

func idempotencyRedisKey(userID, key string) string {
	return fmt.Sprintf("idempotent-key:%s:%s", userID, key)
}

// Claim reports true the first time userID sends key within the TTL.
func (g *RedisIdempotency) Claim(ctx context.Context, userID, key string) (bool, error) {
	return g.rdb.SetNX(ctx, idempotencyRedisKey(userID, key), "exists", g.ttl).Result()
}

// Release forgets a claim whose checkout did not produce an order.
func (g *RedisIdempotency) Release(ctx context.Context, userID, key string) error {
	return g.rdb.Del(ctx, idempotencyRedisKey(userID, key)).Err()
}
