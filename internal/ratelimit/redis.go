package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCounterStore implements CounterStore on top of a Redis client.
type RedisCounterStore struct {
	client *redis.Client
}

func NewRedisCounterStore(client *redis.Client) *RedisCounterStore {
	return &RedisCounterStore{
		client: client,
	}
}

func (s *RedisCounterStore) Incr(ctx context.Context, key string) (int64, error) {
	return s.client.Incr(ctx, key).Result()
}

func (s *RedisCounterStore) ExpireNX(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.client.ExpireNX(ctx, key, ttl).Result()
}

func (s *RedisCounterStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	return s.client.TTL(ctx, key).Result()
}
