package cache

import (
	"context"
	"errors"
	"time"

	platformconfig "github.com/contentjoy/content-approval-app-sub001/internal/platform/config"
)

// Cache is the narrow interface the upload features need: short-TTL
// memoization of remote lookups. It is never a source of truth.
type Cache interface {
	// Get retrieves a value from cache by key
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in cache with TTL
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from cache by key
	Delete(ctx context.Context, key string) error

	// Close closes the cache connection
	Close() error
}

// Common cache errors
var (
	// ErrKeyNotFound is returned when a key is not found in cache
	ErrKeyNotFound = errors.New("key not found")

	// ErrCacheUnavailable is returned when cache backend is unavailable
	ErrCacheUnavailable = errors.New("cache unavailable")
)

// New creates a cache backend from configuration. A disabled cache
// returns the no-op implementation so callers never nil-check.
func New(cfg *platformconfig.CacheConfig) (Cache, error) {
	if cfg == nil || !cfg.Enabled {
		return NewNoopCache(), nil
	}

	switch cfg.Backend {
	case "redis":
		return NewRedisCache(cfg)
	case "memory", "":
		return NewMemoryCache(), nil
	default:
		return nil, errors.New("invalid cache backend: " + cfg.Backend)
	}
}
