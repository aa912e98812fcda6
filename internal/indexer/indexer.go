// Package indexer drives SDEX offer ingestion: it pulls offers from
// Horizon, parses them, and upserts assets and offer rows into the
// store. One logical worker; duplicates are tolerated because every
// write is an idempotent upsert.
package indexer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/stellarroute/stellarroute/internal/horizon"
	"github.com/stellarroute/stellarroute/internal/models"
)

// Ingestion modes. Values match the INDEXER_MODE environment setting.
const (
	ModePolling   = "polling"
	ModeStreaming = "streaming"
)

const (
	// DefaultPollInterval applies when options carry a non-positive
	// interval.
	DefaultPollInterval = 5 * time.Second

	// DefaultPageLimit applies when options carry a non-positive page
	// limit. 200 is Horizon's maximum page size.
	DefaultPageLimit = 200
)

// OfferFetcher is the Horizon surface the indexer consumes.
type OfferFetcher interface {
	FetchOffers(ctx context.Context, cursor string, limit int, order string) (*models.OffersPage, error)
	StreamOffers(ctx context.Context) (<-chan horizon.OfferEvent, error)
}

// OfferStore persists parsed offers and the assets they reference.
type OfferStore interface {
	UpsertAsset(ctx context.Context, a models.Asset) error
	UpsertOffer(ctx context.Context, o models.Offer) error
}

// Options tunes one Indexer.
type Options struct {
	// Mode is ModePolling or ModeStreaming. Anything else runs as
	// polling; the config layer validates the value upstream.
	Mode string

	// PollInterval is the pause between polling cycles.
	PollInterval time.Duration

	// PageLimit is the Horizon page size for polling fetches.
	PageLimit int
}

// Indexer ingests offers until its context is cancelled.
type Indexer struct {
	fetcher OfferFetcher
	store   OfferStore
	logger  *zap.Logger
	opts    Options
}

// New builds an indexer. Non-positive option values fall back to the
// package defaults; a nil logger is replaced with a no-op one.
func New(fetcher OfferFetcher, store OfferStore, logger *zap.Logger, opts Options) *Indexer {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.PageLimit <= 0 {
		opts.PageLimit = DefaultPageLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Indexer{
		fetcher: fetcher,
		store:   store,
		logger:  logger,
		opts:    opts,
	}
}

// Run ingests offers until ctx is cancelled. In streaming mode it also
// returns when the server ends the stream; the supervisor decides
// whether to restart. The returned error is non-nil only when the
// stream cannot be opened at all.
func (ix *Indexer) Run(ctx context.Context) error {
	if ix.opts.Mode == ModeStreaming {
		return ix.runStream(ctx)
	}
	return ix.runPoll(ctx)
}

func (ix *Indexer) runPoll(ctx context.Context) error {
	ix.logger.Info("indexer starting",
		zap.String("mode", ModePolling),
		zap.Duration("poll_interval", ix.opts.PollInterval),
		zap.Int("page_limit", ix.opts.PageLimit))

	ticker := time.NewTicker(ix.opts.PollInterval)
	defer ticker.Stop()

	for {
		ix.pollOnce(ctx)

		select {
		case <-ctx.Done():
			ix.logger.Info("indexer stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// pollOnce fetches the newest offers and processes the page. Fetch
// failures are logged and absorbed so the next cycle can try again.
func (ix *Indexer) pollOnce(ctx context.Context) {
	page, err := ix.fetcher.FetchOffers(ctx, "", ix.opts.PageLimit, "desc")
	if err != nil {
		if ctx.Err() == nil {
			ix.logger.Warn("offer fetch failed", zap.Error(err))
		}
		return
	}

	processed, skipped := ix.processRecords(ctx, page.Records())
	ix.logger.Info("poll cycle complete",
		zap.Int("processed", processed),
		zap.Int("skipped", skipped))
}

func (ix *Indexer) runStream(ctx context.Context) error {
	ix.logger.Info("indexer starting", zap.String("mode", ModeStreaming))

	events, err := ix.fetcher.StreamOffers(ctx)
	if err != nil {
		return fmt.Errorf("open offer stream: %w", err)
	}

	var processed, skipped int
	for ev := range events {
		if ev.Err != nil {
			skipped++
			ix.logger.Warn("stream event error", zap.Error(ev.Err))
			continue
		}
		if err := ix.processRecord(ctx, *ev.Offer); err != nil {
			skipped++
			continue
		}
		processed++
		ix.logger.Debug("offer ingested",
			zap.String("offer_id", ev.Offer.ID),
			zap.Int("processed", processed))
	}

	if ctx.Err() != nil {
		ix.logger.Info("indexer stopped",
			zap.Int("processed", processed),
			zap.Int("skipped", skipped))
		return nil
	}

	ix.logger.Warn("offer stream ended",
		zap.Int("processed", processed),
		zap.Int("skipped", skipped))
	return nil
}

// processRecords walks one page in receipt order, stopping early only
// on context cancellation.
func (ix *Indexer) processRecords(ctx context.Context, records []models.HorizonOffer) (processed, skipped int) {
	for i := range records {
		if ctx.Err() != nil {
			return processed, skipped
		}
		if err := ix.processRecord(ctx, records[i]); err != nil {
			skipped++
			continue
		}
		processed++
	}
	return processed, skipped
}

// processRecord parses one wire record and upserts its assets and the
// offer row. An asset upsert failure does not block the offer upsert;
// the offer row carries its asset columns directly.
func (ix *Indexer) processRecord(ctx context.Context, rec models.HorizonOffer) error {
	offer, err := models.ParseOffer(rec)
	if err != nil {
		ix.logger.Warn("skipping malformed offer",
			zap.String("offer_id", rec.ID),
			zap.Error(err))
		return err
	}

	for _, asset := range []models.Asset{offer.Selling, offer.Buying} {
		if err := ix.store.UpsertAsset(ctx, asset); err != nil {
			ix.logger.Warn("asset upsert failed",
				zap.String("asset", asset.Canonical()),
				zap.Uint64("offer_id", offer.ID),
				zap.Error(err))
		}
	}

	if err := ix.store.UpsertOffer(ctx, offer); err != nil {
		ix.logger.Warn("offer upsert failed",
			zap.Uint64("offer_id", offer.ID),
			zap.Error(err))
		return err
	}
	return nil
}
