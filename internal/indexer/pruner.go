package indexer

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// minPruneInterval floors the pruner cycle so short retention windows
// do not hammer the database.
const minPruneInterval = time.Minute

// OfferPruner deletes offers that have not been refreshed since the
// cutoff and reports how many rows went away.
type OfferPruner interface {
	PruneOffersBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// RunPruner periodically deletes offers older than maxAge until ctx is
// cancelled. It prunes once immediately, then every maxAge/4 with a one
// minute floor. Offers that left the books stop being refreshed by the
// indexer, so age doubles as liveness.
func RunPruner(ctx context.Context, store OfferPruner, logger *zap.Logger, maxAge time.Duration) {
	if logger == nil {
		logger = zap.NewNop()
	}

	interval := maxAge / 4
	if interval < minPruneInterval {
		interval = minPruneInterval
	}

	logger.Info("starting offer pruner",
		zap.Duration("max_age", maxAge),
		zap.Duration("interval", interval))

	pruneOnce(ctx, store, logger, maxAge)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("offer pruner stopped")
			return
		case <-ticker.C:
			pruneOnce(ctx, store, logger, maxAge)
		}
	}
}

func pruneOnce(ctx context.Context, store OfferPruner, logger *zap.Logger, maxAge time.Duration) {
	cutoff := time.Now().Add(-maxAge)
	deleted, err := store.PruneOffersBefore(ctx, cutoff)
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn("offer prune failed", zap.Error(err))
		}
		return
	}
	if deleted > 0 {
		logger.Info("pruned stale offers",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff))
	}
}
