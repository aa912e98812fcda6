package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisCommands is the slice of go-redis the store needs; *redis.Client
// satisfies it.
type redisCommands interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
}

// RedisStore counts hits in Redis so limits hold across API replicas.
// The counter key is INCRed on every hit and given the window as its
// TTL on first touch.
type RedisStore struct {
	client redisCommands
}

// NewRedisStore wraps an existing client. The caller owns the client's
// lifecycle.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Take counts one hit. Any Redis failure returns an error; the limiter
// treats that as fail-open.
func (s *RedisStore) Take(ctx context.Context, key string, limit int64, window time.Duration) (*Decision, error) {
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("incr %s: %w", key, err)
	}

	// First hit in the window; start the clock.
	if count == 1 {
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			return nil, fmt.Errorf("expire %s: %w", key, err)
		}
	}

	ttl, err := s.client.TTL(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("ttl %s: %w", key, err)
	}
	// TTL < 0 covers both a missing key and a key without expiry.
	if ttl <= 0 {
		ttl = window
	}

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	return &Decision{
		Limit:     limit,
		Remaining: remaining,
		ResetUnix: time.Now().Add(ttl).Unix(),
		Denied:    count > limit,
	}, nil
}
