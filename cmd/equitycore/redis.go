package main

import "github.com/redis/go-redis/v9"

// newRedisClient returns nil when no REDIS_URL is configured, which is the
// signal cache.NewRedisCache treats as "use the in-memory fallback only".
func newRedisClient(url string) *redis.Client {
	if url == "" {
		return nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil
	}
	return redis.NewClient(opts)
}
