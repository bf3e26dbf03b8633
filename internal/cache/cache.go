// Package cache memoizes calculation results keyed by calculator kind and
// request. Values are opaque strings, in practice JSON-encoded results.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/iwvelando/calckit/internal/config"
	"github.com/iwvelando/calckit/pkg/constants"
	"go.uber.org/zap"
)

// Cache stores results. A Get miss and a backend failure look the same to
// callers; Set errors are reported so they can be logged.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Key derives a stable cache key from a calculation kind and its request.
func Key(kind string, request interface{}) (string, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to encode cache key: %w", err)
	}
	return fmt.Sprintf("calckit:%s:%016x", kind, xxhash.Sum64(body)), nil
}

// New builds the cache selected by cfg. The "none" and empty backends return
// a Nop cache.
func New(ctx context.Context, cfg config.CacheConfig, logger *zap.Logger) (Cache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = constants.DefaultCacheTTL
	}

	logger.Debug("initializing result cache",
		zap.String("op", "cache.New"),
		zap.String("backend", cfg.Backend),
		zap.Duration("ttl", ttl),
	)

	switch cfg.Backend {
	case "", constants.CacheBackendNone:
		return Nop{}, nil
	case constants.CacheBackendMemory:
		return NewMemory(ttl), nil
	case constants.CacheBackendRedis:
		if cfg.RedisAddress == "" {
			return nil, fmt.Errorf("redis cache requires an address")
		}
		r := NewRedis(cfg.RedisAddress, cfg.RedisDB, ttl)
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := r.Ping(pingCtx); err != nil {
			r.Close()
			return nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.RedisAddress, err)
		}
		return r, nil
	case constants.CacheBackendSQLite:
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("sqlite cache requires a path")
		}
		return NewSQLite(cfg.SQLitePath, ttl)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// Nop never stores anything.
type Nop struct{}

// Get always misses.
func (Nop) Get(context.Context, string) (string, bool) { return "", false }

// Set discards the value.
func (Nop) Set(context.Context, string, string) error { return nil }

// Close does nothing.
func (Nop) Close() error { return nil }
