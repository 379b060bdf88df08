package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/portoseguro/backend/internal/domain/providers"
	redisclient "github.com/portoseguro/backend/internal/infrastructure/clients/redis"
)

// scanBatch is the COUNT hint used when walking keys for DeletePattern.
const scanBatch = 200

// RedisAdapter implements the CacheProvider interface using Redis
type RedisAdapter struct {
	client *redisclient.Client
	prefix string
}

// NewRedisAdapter creates a new Redis cache adapter. Every key is stored
// under prefix so several diaries can share one Redis.
func NewRedisAdapter(client *redisclient.Client, prefix string) providers.CacheProvider {
	return &RedisAdapter{
		client: client,
		prefix: prefix,
	}
}

func (a *RedisAdapter) key(k string) string {
	return a.prefix + k
}

// Get retrieves a value from cache
func (a *RedisAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := a.client.Client().Get(ctx, a.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", providers.ErrCacheMiss, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get from cache: %w", err)
	}
	return result, nil
}

// Set stores a value in cache with expiration
func (a *RedisAdapter) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	expiration := time.Duration(expirationSeconds) * time.Second
	if err := a.client.Client().Set(ctx, a.key(key), value, expiration).Err(); err != nil {
		return fmt.Errorf("failed to set in cache: %w", err)
	}
	return nil
}

// Delete removes a value from cache
func (a *RedisAdapter) Delete(ctx context.Context, key string) error {
	if err := a.client.Client().Del(ctx, a.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete from cache: %w", err)
	}
	return nil
}

// Exists checks if a key exists in cache
func (a *RedisAdapter) Exists(ctx context.Context, key string) (bool, error) {
	result, err := a.client.Client().Exists(ctx, a.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check existence in cache: %w", err)
	}
	return result > 0, nil
}

// DeletePattern walks matching keys with SCAN and deletes them in batches.
func (a *RedisAdapter) DeletePattern(ctx context.Context, pattern string) error {
	rdb := a.client.Client()
	iter := rdb.Scan(ctx, 0, a.key(pattern), scanBatch).Iterator()

	batch := make([]string, 0, scanBatch)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := rdb.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("failed to delete keys matching %s: %w", pattern, err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan keys matching %s: %w", pattern, err)
	}
	if len(batch) > 0 {
		if err := rdb.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("failed to delete keys matching %s: %w", pattern, err)
		}
	}
	return nil
}
