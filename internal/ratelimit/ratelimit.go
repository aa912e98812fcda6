// Package ratelimit enforces fixed-window request limits per client IP
// and endpoint group. Counters live in Redis when available, otherwise
// in a bounded in-process store; either way a store failure lets the
// request through rather than blocking traffic.
package ratelimit

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// API route prefixes with dedicated limit groups.
const (
	pairsPrefix     = "/api/v1/pairs"
	orderbookPrefix = "/api/v1/orderbook"
	quotePrefix     = "/api/v1/quote"
)

// Config carries the shared window and the per-group request limits.
type Config struct {
	Window    time.Duration
	Pairs     int64
	Orderbook int64
	Quote     int64
	Default   int64
}

// ForPath resolves a request path to its group slug and limit. Paths
// outside the dedicated groups share the default limit under a
// sanitized slug.
func (c Config) ForPath(path string) (string, int64) {
	slug := PathToSlug(path)
	switch slug {
	case "pairs":
		return slug, c.Pairs
	case "orderbook":
		return slug, c.Orderbook
	case "quote":
		return slug, c.Quote
	default:
		return slug, c.Default
	}
}

// PathToSlug maps a request path to its rate-limit group slug. Known
// API prefixes map to short names; anything else becomes the path with
// the leading slash stripped and the remaining slashes flattened to
// underscores. The bare root maps to "root".
func PathToSlug(path string) string {
	switch {
	case strings.HasPrefix(path, pairsPrefix):
		return "pairs"
	case strings.HasPrefix(path, orderbookPrefix):
		return "orderbook"
	case strings.HasPrefix(path, quotePrefix):
		return "quote"
	case path == "" || path == "/":
		return "root"
	default:
		return strings.ReplaceAll(strings.TrimPrefix(path, "/"), "/", "_")
	}
}

// Key builds the counter key for one group and client.
func Key(slug, ip string) string {
	return "rate_limit:" + slug + ":" + ip
}

// Decision is the outcome of counting one request.
type Decision struct {
	Limit     int64
	Remaining int64
	ResetUnix int64
	Denied    bool
}

// Store counts one hit against a key within the window and reports the
// resulting decision. Implementations must be safe for concurrent use.
// A nil decision with a nil error means the store cannot answer and the
// caller decides.
type Store interface {
	Take(ctx context.Context, key string, limit int64, window time.Duration) (*Decision, error)
}

// Limiter decides requests against the configured limits.
type Limiter struct {
	cfg    Config
	store  Store
	logger *zap.Logger
}

// New builds a limiter. A non-positive window falls back to one minute;
// a nil logger is replaced with a no-op one.
func New(cfg Config, store Store, logger *zap.Logger) *Limiter {
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Limiter{cfg: cfg, store: store, logger: logger}
}

// Check counts one request from ip against the path's group. When the
// store cannot answer, the request is allowed at full remaining quota
// and the failure is logged once.
func (l *Limiter) Check(ctx context.Context, path, ip string) Decision {
	slug, limit := l.cfg.ForPath(path)

	d, err := l.store.Take(ctx, Key(slug, ip), limit, l.cfg.Window)
	if err != nil || d == nil {
		if err != nil {
			l.logger.Warn("rate limit store unavailable, failing open",
				zap.String("slug", slug),
				zap.Error(err))
		}
		return Decision{
			Limit:     limit,
			Remaining: limit,
			ResetUnix: time.Now().Add(l.cfg.Window).Unix(),
		}
	}
	return *d
}

// ClientIP extracts the caller address for rate-limit keys: the first
// X-Forwarded-For entry, then X-Real-IP, then the loopback fallback.
// Candidates that do not parse as IP addresses fall through.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.SplitN(xff, ",", 2)[0])
		if net.ParseIP(first) != nil {
			return first
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		if net.ParseIP(xri) != nil {
			return xri
		}
	}
	return "127.0.0.1"
}
