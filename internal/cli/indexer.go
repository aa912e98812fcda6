package cli

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/stellarroute/stellarroute/internal/config"
	"github.com/stellarroute/stellarroute/internal/horizon"
	"github.com/stellarroute/stellarroute/internal/indexer"
)

// pruneAfter enables the background offer pruner; zero keeps every
// ingested offer row.
var pruneAfter time.Duration

var indexerCmd = &cobra.Command{
	Use:   "indexer",
	Short: "Run the SDEX offer ingestion process",
	Long: `Continuously pull open offers from Horizon and upsert them into
Postgres. INDEXER_MODE selects polling (default) or streaming
ingestion. Schema migrations run automatically on startup.`,
	RunE: runIndexer,
}

func init() {
	rootCmd.AddCommand(indexerCmd)

	indexerCmd.Flags().DurationVar(&pruneAfter, "prune-after", 0,
		"delete offers not refreshed within this duration (0 disables pruning)")
}

func runIndexer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		logger.Error("migrations failed", zap.Error(err))
		return err
	}

	client := horizon.New(cfg.Indexer.HorizonURL, horizon.DefaultTimeout)
	ix := indexer.New(client, store, logger, indexer.Options{
		Mode:         cfg.Indexer.Mode,
		PollInterval: cfg.Indexer.PollInterval(),
		PageLimit:    cfg.Indexer.HorizonLimit,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ix.Run(gctx)
	})
	if pruneAfter > 0 {
		g.Go(func() error {
			indexer.RunPruner(gctx, store, logger, pruneAfter)
			return nil
		})
	}
	return g.Wait()
}
