// Package cache provides TTL key/value backends and typed caches on top.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Backend defines the interface for cache implementations
type Backend interface {
	// Get returns (value, found, error)
	Get(ctx context.Context, key string) ([]byte, bool, error)

	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	Delete(ctx context.Context, key string) error

	// GetMultiple returns only the keys that were found
	GetMultiple(ctx context.Context, keys []string) (map[string][]byte, error)

	SetMultiple(ctx context.Context, items map[string][]byte, ttl time.Duration) error

	Close() error
}

// Open returns a Redis backend when redisURL is set, otherwise an in-memory one.
func Open(redisURL, prefix string, maxEntries int) (Backend, string, error) {
	if redisURL != "" {
		rc, err := NewRedisCache(redisURL, prefix)
		if err != nil {
			return nil, "", fmt.Errorf("open redis cache: %w", err)
		}
		slog.Info("cache backend ready", "backend", "redis")
		return rc, "redis", nil
	}
	slog.Info("cache backend ready", "backend", "memory", "max_entries", maxEntries)
	return NewMemoryCache(maxEntries, time.Minute), "memory", nil
}
