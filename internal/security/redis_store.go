package security

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "campusiq:security:"

// RedisStore is the shared Store implementation. All serving instances
// pointed at the same Redis see the same revocations and counters.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore constructs a Redis-backed store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Add inserts the key. Entries are not pruned here; retention is an
// operational policy outside this core.
func (s *RedisStore) Add(ctx context.Context, key string) error {
	if err := s.client.Set(ctx, redisKeyPrefix+key, "1", 0).Err(); err != nil {
		return fmt.Errorf("security: add %s: %w", key, err)
	}
	return nil
}

// Contains reports whether the key is present.
func (s *RedisStore) Contains(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("security: contains %s: %w", key, err)
	}
	return n > 0, nil
}

// Increment bumps and returns the counter for key.
func (s *RedisStore) Increment(ctx context.Context, key string) (int64, error) {
	n, err := s.client.Incr(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		return 0, fmt.Errorf("security: increment %s: %w", key, err)
	}
	return n, nil
}
