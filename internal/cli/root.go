// Package cli wires the stellarroute binary: one cobra root with the
// indexer, api, and migrate subcommands. Everything configurable comes
// from the environment; flags cover only operational extras.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stellarroute/stellarroute/internal/config"
	"github.com/stellarroute/stellarroute/internal/storage/postgres"
)

// Version is reported by --version and the health endpoint.
const Version = "0.1.0"

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "stellarroute",
	Short: "StellarRoute - SDEX offer indexer and market data API",
	Long: `StellarRoute ingests open offers from the Stellar decentralized
exchange through Horizon and serves aggregated market data (trading
pairs, orderbooks, quotes) over HTTP. The indexer and the API run as
separate processes sharing one Postgres database.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI. It is called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newLogger builds the process logger.
func newLogger() (*zap.Logger, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

// storeConfig maps the environment settings onto the pool config.
func storeConfig(cfg *config.Config) postgres.Config {
	return postgres.Config{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxConnections,
		MaxIdleConns:    cfg.Database.MinConnections,
		Timeout:         cfg.Database.ConnectionTimeout(),
		ConnMaxIdleTime: cfg.Database.IdleTimeout(),
		ConnMaxLifetime: cfg.Database.MaxLifetime(),
	}
}

// openStore connects to Postgres. Connect failures are fatal for every
// subcommand, so they are logged here with the pool settings attached.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*postgres.Store, error) {
	store, err := postgres.New(storeConfig(cfg))
	if err != nil {
		return nil, err
	}
	if err := store.Open(ctx); err != nil {
		logger.Error("database connect failed",
			zap.Int("max_connections", cfg.Database.MaxConnections),
			zap.Error(err))
		return nil, err
	}
	return store, nil
}
