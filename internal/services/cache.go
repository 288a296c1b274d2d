package services

import (
	"context"
	"time"
)

// Cache is the subset of utils.RedisClient the services rely on.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	Incr(ctx context.Context, key string) (int64, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

const (
	cacheTTL       = 5 * time.Minute
	idempotencyTTL = 24 * time.Hour

	keyGeneration  = "orders:gen"
	keyPagePrefix  = "orders:page:"
	keyOrderPrefix = "orders:id:"
	keyIdemPrefix  = "orders:idem:"
	keyBlacklist   = "blacklist:"
)
