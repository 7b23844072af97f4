package cache

import (
	"context"
	"errors"
	"time"

	"github.com/maua/florist-api/internal/usecase"
	"github.com/redis/go-redis/v9"
)

// RedisCache keeps the latest order status for the payment page to poll.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func statusKey(orderID string) string { return "order:status:" + orderID }

func (r *RedisCache) SetStatus(ctx context.Context, orderID string, status string) error {
	return r.rdb.Set(ctx, statusKey(orderID), status, r.ttl).Err()
}

func (r *RedisCache) GetStatus(ctx context.Context, orderID string) (string, bool, error) {
	val, err := r.rdb.Get(ctx, statusKey(orderID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (r *RedisCache) Forget(ctx context.Context, orderID string) error {
	return r.rdb.Del(ctx, statusKey(orderID)).Err()
}

var _ usecase.OrderCache = (*RedisCache)(nil)
