package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("cache miss")

// RedisClient stores JSON-encoded values under a shared key prefix, so several
// deployments can share one Redis database.
type RedisClient struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisClient parses a redis:// URL and pings the server before returning.
func NewRedisClient(ctx context.Context, redisURL, prefix string) (*RedisClient, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return WrapRedisClient(rdb, prefix), nil
}

func WrapRedisClient(rdb *redis.Client, prefix string) *RedisClient {
	return &RedisClient{rdb: rdb, prefix: prefix}
}

func (c *RedisClient) key(k string) string {
	return c.prefix + k
}

func (c *RedisClient) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.rdb.Set(ctx, c.key(key), data, ttl).Err()
}

// SetNX is Set only if key is absent. It reports whether the value was written.
func (c *RedisClient) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("encode %s: %w", key, err)
	}
	return c.rdb.SetNX(ctx, c.key(key), data, ttl).Result()
}

// Get decodes the value under key into dest, or returns ErrCacheMiss.
func (c *RedisClient) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return ErrCacheMiss
	case err != nil:
		return err
	}
	return json.Unmarshal(data, dest)
}

// Incr bumps an integer counter; a missing key starts at 0.
func (c *RedisClient) Incr(ctx context.Context, key string) (int64, error) {
	return c.rdb.Incr(ctx, c.key(key)).Result()
}

func (c *RedisClient) Delete(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, c.key(key)).Err()
}

func (c *RedisClient) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.rdb.Exists(ctx, c.key(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *RedisClient) Close() error {
	return c.rdb.Close()
}
