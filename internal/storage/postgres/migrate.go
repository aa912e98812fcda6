package postgres

import (
	"context"
	"embed"
	"fmt"
	"sort"

	"github.com/stellarroute/stellarroute/internal/storage"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies any pending schema migrations in lexical order. Each
// file runs once, inside its own transaction, tracked in
// schema_migrations. Safe to call from every process start.
func (s *Store) Migrate(ctx context.Context) error {
	if s.db == nil {
		return storage.ErrDatabaseClosed
	}

	const track = `CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`
	if _, err := s.db.ExecContext(ctx, track); err != nil {
		return storage.NewMigrationError("migrate", "failed to create schema_migrations", err)
	}

	names, err := migrationNames()
	if err != nil {
		return storage.NewMigrationError("migrate", "failed to read embedded migrations", err)
	}

	for _, name := range names {
		applied, err := s.migrationApplied(ctx, name)
		if err != nil {
			return err
		}
		if applied {
			continue
		}
		if err := s.applyMigration(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// migrationNames lists the embedded migration files in apply order.
func migrationNames() ([]string, error) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) migrationApplied(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)", name,
	).Scan(&exists)
	if err != nil {
		return false, storage.NewMigrationError("migrate", "failed to query schema_migrations", err)
	}
	return exists, nil
}

func (s *Store) applyMigration(ctx context.Context, name string) error {
	contents, err := migrationsFS.ReadFile("migrations/" + name)
	if err != nil {
		return storage.NewMigrationError("migrate", fmt.Sprintf("failed to read %s", name), err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storage.NewMigrationError("migrate", "failed to begin migration transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, string(contents)); err != nil {
		return storage.NewMigrationError("migrate", fmt.Sprintf("failed to apply %s", name), err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version) VALUES ($1)", name); err != nil {
		return storage.NewMigrationError("migrate", fmt.Sprintf("failed to record %s", name), err)
	}
	if err := tx.Commit(); err != nil {
		return storage.NewMigrationError("migrate", fmt.Sprintf("failed to commit %s", name), err)
	}
	return nil
}
