// Package cache holds the optional Redis read-through cache for code -> long URL.
//
// Long URLs are immutable once stored and links are never deleted, so cached
// entries never go stale; the TTL only bounds memory use.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "shortener:url:"

// redisClient is the subset of *redis.Client the cache uses.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// Redis caches long URLs by short code.
type Redis struct {
	client redisClient
	ttl    time.Duration
}

// Connect parses a redis:// URL, opens a client and pings it.
func Connect(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewRedis returns a cache on client. A non-positive ttl stores keys without expiry.
func NewRedis(client redisClient, ttl time.Duration) *Redis {
	if ttl < 0 {
		ttl = 0
	}
	return &Redis{client: client, ttl: ttl}
}

// LongURL returns the cached long URL for code. A miss is ("", false, nil).
func (c *Redis) LongURL(ctx context.Context, code string) (string, bool, error) {
	val, err := c.client.Get(ctx, key(code)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// SetLongURL caches longURL under code.
func (c *Redis) SetLongURL(ctx context.Context, code, longURL string) error {
	return c.client.Set(ctx, key(code), longURL, c.ttl).Err()
}

func key(code string) string { return keyPrefix + code }
