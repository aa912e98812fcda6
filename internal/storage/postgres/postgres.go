// Package postgres implements the shared offer store over database/sql
// and lib/pq. The indexer is the sole writer; the API reads.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/stellarroute/stellarroute/internal/storage"
)

// Config tunes the connection pool. Timeout bounds the initial ping and
// every statement issued by the store.
type Config struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	Timeout         time.Duration
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

// Validate checks the pool configuration.
func (c *Config) Validate() error {
	if c.URL == "" {
		return storage.ErrInvalidDSN
	}
	if c.MaxOpenConns < 0 || c.MaxIdleConns < 0 {
		return fmt.Errorf("connection pool sizes must be >= 0")
	}
	if c.MaxOpenConns > 0 && c.MaxIdleConns > c.MaxOpenConns {
		return fmt.Errorf("max idle connections cannot exceed max open connections")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}

// Store is a Postgres-backed offer store.
type Store struct {
	db  *sql.DB
	cfg Config
}

// New validates the configuration and returns an unopened store.
func New(cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, storage.NewConfigurationError("new_store", "invalid configuration", err)
	}
	return &Store{cfg: cfg}, nil
}

// Open establishes the connection pool and verifies connectivity.
func (s *Store) Open(ctx context.Context) error {
	dsn, err := dsnWithConnectTimeout(s.cfg.URL, s.cfg.Timeout)
	if err != nil {
		return storage.NewConfigurationError("open", "failed to build connection string", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return storage.NewConnectionError("open", "failed to open database connection", err)
	}

	db.SetMaxOpenConns(s.cfg.MaxOpenConns)
	db.SetMaxIdleConns(s.cfg.MaxIdleConns)
	db.SetConnMaxLifetime(s.cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(s.cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return storage.NewConnectionError("open", "failed to ping database", err)
	}

	s.db = db
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if err != nil {
		return storage.NewConnectionError("close", "failed to close database connection", err)
	}
	return nil
}

// HealthCheck probes the database with a trivial query.
func (s *Store) HealthCheck(ctx context.Context) error {
	if s.db == nil {
		return storage.ErrDatabaseClosed
	}
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, "SELECT 1"); err != nil {
		return storage.NewConnectionError("health_check", "database health probe failed", err)
	}
	return nil
}

// dsnWithConnectTimeout threads the configured timeout into the DSN so the
// driver bounds its own dial as well. URL and key=value forms are both
// accepted.
func dsnWithConnectTimeout(dsn string, timeout time.Duration) (string, error) {
	secs := int(timeout / time.Second)
	if secs < 1 {
		secs = 1
	}

	u, err := url.Parse(dsn)
	if err == nil && (u.Scheme == "postgres" || u.Scheme == "postgresql") {
		q := u.Query()
		if q.Get("connect_timeout") == "" {
			q.Set("connect_timeout", strconv.Itoa(secs))
			u.RawQuery = q.Encode()
		}
		return u.String(), nil
	}
	if err != nil || u.Scheme == "" {
		// key=value DSN form
		return dsn + " connect_timeout=" + strconv.Itoa(secs), nil
	}
	return "", fmt.Errorf("unsupported connection string scheme %q", u.Scheme)
}

// opContext bounds a single statement with the configured timeout.
func (s *Store) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.Timeout)
}
