// Package cache implements the DistributedCache contract of spec.md §4.13:
// a versioned key/value store with TTL, a Redis-backed primary and an
// in-memory fallback, grounded in the teacher's internal/data/cache/ttl.go
// TTLCache but re-homed onto github.com/redis/go-redis/v9 as the primary
// backend per DESIGN.md's domain-dep wiring table.
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Cache is the contract every caller depends on. Get/Set/Close never
// propagate backend errors to the caller (spec.md §4.13): a failed backend
// degrades to "not cached" rather than failing the request.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, value any, ttl time.Duration)
	Close() error
	// Version returns the current global cache-version prefix.
	Version() string
	// BumpVersion invalidates every previously-written key by advancing
	// the prefix; it never deletes data, it just orphans it.
	BumpVersion(v string)
}

// RedisCache is the primary backend. On any Redis error it logs at warn
// level and behaves as a cache miss / no-op, never returning an error to
// the caller (spec.md §7: "Cache errors never propagate").
type RedisCache struct {
	client  *redis.Client
	log     zerolog.Logger
	mu      sync.RWMutex
	version string

	fallback *memoryCache
}

// NewRedisCache builds a RedisCache; client may be nil, in which case every
// operation falls back to the in-memory cache (used in tests and in
// environments with no REDIS_URL configured).
func NewRedisCache(client *redis.Client, version string, log zerolog.Logger) *RedisCache {
	return &RedisCache{
		client:   client,
		log:      log,
		version:  version,
		fallback: newMemoryCache(),
	}
}

func (c *RedisCache) versionedKey(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version + ":" + key
}

// Get returns the raw JSON-encoded value previously stored by Set.
func (c *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	vk := c.versionedKey(key)
	if c.client == nil {
		return c.fallback.get(vk)
	}
	val, err := c.client.Get(ctx, vk).Result()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn().Err(err).Str("key", vk).Msg("cache get failed, falling back to memory")
			return c.fallback.get(vk)
		}
		return "", false
	}
	return val, true
}

// Set serializes value as JSON and stores it under the versioned key.
func (c *RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	vk := c.versionedKey(key)
	payload, err := json.Marshal(value)
	if err != nil {
		c.log.Warn().Err(err).Str("key", vk).Msg("cache value not serializable, skipping set")
		return
	}
	if c.client == nil {
		c.fallback.set(vk, string(payload), ttl)
		return
	}
	if err := c.client.Set(ctx, vk, payload, ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", vk).Msg("cache set failed, using memory fallback")
		c.fallback.set(vk, string(payload), ttl)
	}
}

// Close releases the underlying Redis connection pool, if any.
func (c *RedisCache) Close() error {
	c.fallback.stop()
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Version returns the current cache-version prefix.
func (c *RedisCache) Version() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// BumpVersion advances the prefix, orphaning every previously cached key.
func (c *RedisCache) BumpVersion(v string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.version = v
}

// GetJSON is a convenience wrapper decoding the cached value into dst.
func GetJSON(ctx context.Context, c Cache, key string, dst any) bool {
	raw, ok := c.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false
	}
	return true
}
