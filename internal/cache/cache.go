// Package cache is a thin best-effort JSON layer over Redis. Every
// operation degrades gracefully: without a configured Redis the client
// no-ops, and no cache failure ever propagates to a request.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache lifetimes per endpoint.
const (
	PairsTTL     = 10 * time.Second
	OrderbookTTL = 5 * time.Second
	QuoteTTL     = 5 * time.Second
)

// healthProbeKey is read by IsHealthy; it does not need to exist.
const healthProbeKey = "_health"

// redisCommands is the slice of go-redis the cache needs; *redis.Client
// satisfies it.
type redisCommands interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Client caches JSON documents in Redis.
type Client struct {
	rdb    redisCommands
	logger *zap.Logger
}

// New builds a client for the given Redis URL. An empty URL yields a
// disabled client whose operations all no-op; the API must keep
// functioning without Redis. The connection itself is established
// lazily on first use.
func New(redisURL string, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if redisURL == "" {
		return &Client{logger: logger}, nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &Client{rdb: redis.NewClient(opts), logger: logger}, nil
}

// Enabled reports whether a Redis backend is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.rdb != nil
}

// GetJSON loads key into dest, reporting false on a miss, a Redis
// failure, or an undecodable payload. The caller treats every false the
// same way and rebuilds from the database.
func (c *Client) GetJSON(ctx context.Context, key string, dest interface{}) bool {
	if !c.Enabled() {
		return false
	}

	raw, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}

	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		c.logger.Warn("cache payload undecodable", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// SetJSON stores val under key for ttl. Failures are logged and
// swallowed.
func (c *Client) SetJSON(ctx context.Context, key string, val interface{}, ttl time.Duration) {
	if !c.Enabled() {
		return
	}

	payload, err := json.Marshal(val)
	if err != nil {
		c.logger.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}

	if err := c.rdb.Set(ctx, key, payload, ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Delete drops key. Failures are logged and swallowed.
func (c *Client) Delete(ctx context.Context, key string) {
	if !c.Enabled() {
		return
	}
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		c.logger.Warn("cache delete failed", zap.String("key", key), zap.Error(err))
	}
}

// IsHealthy probes the backend with a read of a key that need not
// exist. Only transport failures count as unhealthy; a disabled client
// reports false and the caller renders that as "disabled".
func (c *Client) IsHealthy(ctx context.Context) bool {
	if !c.Enabled() {
		return false
	}
	if err := c.rdb.Get(ctx, healthProbeKey).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return false
	}
	return true
}

// PairsKey is the cache key of the trading pairs listing.
func PairsKey() string {
	return "pairs:list"
}

// OrderbookKey builds the cache key of one orderbook. base and counter
// are canonical asset forms, so distinct pairs never collide.
func OrderbookKey(base, counter string) string {
	return fmt.Sprintf("orderbook:%s:%s", base, counter)
}

// QuoteKey builds the cache key of one quote, amount included verbatim.
func QuoteKey(base, counter, amount string) string {
	return fmt.Sprintf("quote:%s:%s:%s", base, counter, amount)
}
