package cli

import (
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/stellarroute/stellarroute/internal/api"
	"github.com/stellarroute/stellarroute/internal/cache"
	"github.com/stellarroute/stellarroute/internal/config"
	"github.com/stellarroute/stellarroute/internal/ratelimit"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Run the market data HTTP API",
	Long: `Serve trading pairs, orderbooks, and quotes from the indexed offer
data. Redis (REDIS_URL) is optional: with it, responses are cached and
rate limits hold across replicas; without it, the API serves uncached
responses with per-process limits.`,
	RunE: runAPI,
}

func init() {
	rootCmd.AddCommand(apiCmd)
}

func runAPI(cmd *cobra.Command, args []string) error {
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

	cacheClient, err := cache.New(cfg.Redis.URL, logger)
	if err != nil {
		return err
	}

	limitStore, err := newLimitStore(cfg)
	if err != nil {
		return err
	}
	limiter := ratelimit.New(ratelimit.Config{
		Window:    cfg.RateLimit.Window(),
		Pairs:     int64(cfg.RateLimit.Pairs),
		Orderbook: int64(cfg.RateLimit.Orderbook),
		Quote:     int64(cfg.RateLimit.Quote),
		Default:   int64(cfg.RateLimit.Default),
	}, limitStore, logger)

	srv := api.NewServer(store, cacheClient, limiter, logger, Version)
	return srv.Run(ctx, cfg.API.ListenAddr())
}

// newLimitStore picks the limiter backend: Redis when configured so
// limits hold across replicas, otherwise the in-process store.
func newLimitStore(cfg *config.Config) (ratelimit.Store, error) {
	if !cfg.Redis.Enabled() {
		return ratelimit.NewMemoryStore(), nil
	}
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, err
	}
	return ratelimit.NewRedisStore(redis.NewClient(opts)), nil
}
