// Package calculator runs the calculators behind the API and the batch CLI.
// Each method takes a JSON request with permissive numeric fields, consults the
// result cache, and records metrics.
package calculator

import (
	"context"
	"encoding/json"
	"time"

	"github.com/iwvelando/calckit/internal/cache"
	"github.com/iwvelando/calckit/internal/metrics"
	"github.com/iwvelando/calckit/pkg/tables"
	"go.uber.org/zap"
)

// Service holds the shared dependencies of every calculator.
type Service struct {
	logger  *zap.Logger
	cache   cache.Cache
	metrics *metrics.Metrics
	tables  tables.Tables
}

// NewService wires a Service. A nil logger or cache disables that concern;
// a nil metrics disables recording.
func NewService(logger *zap.Logger, c cache.Cache, m *metrics.Metrics, t tables.Tables) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if c == nil {
		c = cache.Nop{}
	}
	return &Service{
		logger:  logger,
		cache:   c,
		metrics: m,
		tables:  t,
	}
}

// Tables returns the lookup tables the service calculates with.
func (s *Service) Tables() tables.Tables {
	return s.tables
}

// cached returns the stored result for (kind, req) or computes and stores it.
// Cache failures are logged and never fail the calculation.
func cached[T any](ctx context.Context, s *Service, kind string, req interface{}, compute func() (T, error)) (T, error) {
	key, err := cache.Key(kind, req)
	if err != nil {
		s.logger.Warn("unable to build cache key",
			zap.String("op", "calculator.cached"),
			zap.String("kind", kind),
			zap.Error(err),
		)
	}

	if key != "" {
		if raw, ok := s.cache.Get(ctx, key); ok {
			var hit T
			if err := json.Unmarshal([]byte(raw), &hit); err == nil {
				s.metrics.ObserveCache(kind, true)
				s.logger.Debug("served result from cache",
					zap.String("op", "calculator.cached"),
					zap.String("kind", kind),
					zap.String("key", key),
				)
				return hit, nil
			}
		}
		s.metrics.ObserveCache(kind, false)
	}

	started := time.Now()
	result, err := compute()
	s.metrics.ObserveCalculation(kind, started, err)
	if err != nil {
		return result, err
	}

	if key != "" {
		body, err := json.Marshal(result)
		if err == nil {
			err = s.cache.Set(ctx, key, string(body))
		}
		if err != nil {
			s.logger.Warn("unable to cache result",
				zap.String("op", "calculator.cached"),
				zap.String("kind", kind),
				zap.Error(err),
			)
		}
	}
	return result, nil
}

// WithTables returns a copy of s that calculates with t. The cache is shared,
// which is safe because keys are built from table-resolved inputs.
func (s *Service) WithTables(t tables.Tables) *Service {
	clone := *s
	clone.tables = t
	return &clone
}
