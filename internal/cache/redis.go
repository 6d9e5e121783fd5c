// Package cache provides the cache implementations the search engine
// persists through: a Redis-backed cache for production and an in-memory
// TTL cache for tests and for running without Redis.
package cache

import (
	"context"
	"fmt"
	"time"

	pkgredis "github.com/bambooty57/tunershop-search/pkg/redis"
)

// Redis adapts the Redis client to the engine's cache capability.
type Redis struct {
	client *pkgredis.Client
}

// NewRedis wraps an existing Redis client.
func NewRedis(client *pkgredis.Client) *Redis {
	return &Redis{client: client}
}

// Get returns the value for key and whether the key exists.
func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, key)
	if err != nil {
		if pkgredis.IsNilError(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key for ttl.
func (r *Redis) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}
