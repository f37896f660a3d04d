package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
)

// Options configures the Redis connection
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Cache memoizes function results in Redis
type Cache struct {
	client *redis.Client
}

// New creates a cache backed by the Redis server at opts.Addr
func New(opts Options) *Cache {
	return &Cache{
		client: redis.NewClient(&redis.Options{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
		}),
	}
}

// Ping checks the Redis connection
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

// Memoize returns the cached result for key, or calls fn and caches its result for ttl.
// A nil cache or a non-positive ttl always calls fn. Redis errors fall through to fn.
func Memoize[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, fn func() (T, error)) (T, error) {
	if c == nil || ttl <= 0 {
		return fn()
	}

	var result T

	// Try fetching from cache
	cachedData, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		if jsonErr := json.Unmarshal(cachedData, &result); jsonErr == nil {
			return result, nil
		}
	}

	// Call the actual function
	result, err = fn()
	if err != nil {
		return result, err
	}

	// Store result in cache
	if cacheData, err := json.Marshal(result); err == nil {
		c.client.Set(ctx, key, cacheData, ttl)
	}

	return result, nil
}
