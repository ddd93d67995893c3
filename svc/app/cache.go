package app

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a read-through cache for credential lookups keyed by public id.
// The gate authenticates every send call, so a cache in front of storage
// keeps hot tenants off the database.
type Cache interface {
	Get(ctx context.Context, publicID string) (*App, bool)
	Set(ctx context.Context, publicID string, a *App) error
	Delete(ctx context.Context, publicID string) error
}

// NoOpCache disables caching.
type NoOpCache struct{}

func (NoOpCache) Get(ctx context.Context, publicID string) (*App, bool) { return nil, false }
func (NoOpCache) Set(ctx context.Context, publicID string, a *App) error { return nil }
func (NoOpCache) Delete(ctx context.Context, publicID string) error      { return nil }

const redisCacheKeyPrefix = "pushkit:app:"

// RedisCache stores apps as JSON with a TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a redis-backed credential cache. A non-positive ttl
// defaults to five minutes.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, publicID string) (*App, bool) {
	data, err := c.client.Get(ctx, redisCacheKeyPrefix+publicID).Bytes()
	if err != nil {
		return nil, false
	}
	var a App
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, false
	}
	return &a, true
}

func (c *RedisCache) Set(ctx context.Context, publicID string, a *App) error {
	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, redisCacheKeyPrefix+publicID, data, c.ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, publicID string) error {
	return c.client.Del(ctx, redisCacheKeyPrefix+publicID).Err()
}
