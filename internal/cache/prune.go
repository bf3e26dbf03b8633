package cache

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Pruner is implemented by backends that must delete expired entries
// themselves. Redis expires keys on its own.
type Pruner interface {
	Prune(ctx context.Context) (int64, error)
}

// RunPruner calls c.Prune every interval until ctx is done. It returns at once
// when c does not implement Pruner or interval is not positive.
func RunPruner(ctx context.Context, c Cache, interval time.Duration, logger *zap.Logger) {
	pruner, ok := c.(Pruner)
	if !ok || interval <= 0 {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := pruner.Prune(ctx)
			if err != nil {
				logger.Warn("failed to prune result cache",
					zap.String("op", "cache.RunPruner"),
					zap.Error(err),
				)
				continue
			}
			if removed > 0 {
				logger.Debug("pruned expired results",
					zap.String("op", "cache.RunPruner"),
					zap.Int64("removed", removed),
				)
			}
		}
	}
}
