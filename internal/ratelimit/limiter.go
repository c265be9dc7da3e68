// Package ratelimit throttles magic-link requests so a single address
// cannot be flooded with login emails.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type Result struct {
	Allowed    bool
	RetryAfter time.Duration
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// LoginKey normalises an email into a limiter key.
func LoginKey(email string) string {
	return "login:" + strings.ToLower(strings.TrimSpace(email))
}

// NoopLimiter allows everything. Used when no Redis is configured.
type NoopLimiter struct{}

func (NoopLimiter) Allow(context.Context, string) (Result, error) {
	return Result{Allowed: true}, nil
}

// Counter is the subset of a go-redis client the limiter uses.
type Counter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
}

// RedisLimiter is a fixed-window counter: the first hit in a window creates
// the key with a TTL of one window, later hits increment it.
type RedisLimiter struct {
	redis  Counter
	limit  int64
	window time.Duration
	prefix string
	logger *slog.Logger
}

func NewRedisLimiter(c Counter, limit int, window time.Duration, logger *slog.Logger) *RedisLimiter {
	return &RedisLimiter{
		redis:  c,
		limit:  int64(limit),
		window: window,
		prefix: "RATELIMIT:",
		logger: logger.With("component", "ratelimit"),
	}
}

// Allow fails open: if Redis is unreachable the request goes through and the
// error is returned for logging.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	k := l.prefix + key

	n, err := l.redis.Incr(ctx, k).Result()
	if err != nil {
		return Result{Allowed: true}, fmt.Errorf("incr %s: %w", k, err)
	}
	if n == 1 {
		if err := l.redis.Expire(ctx, k, l.window).Err(); err != nil {
			return Result{Allowed: true}, fmt.Errorf("expire %s: %w", k, err)
		}
	}
	if n <= l.limit {
		return Result{Allowed: true}, nil
	}

	ttl, err := l.redis.TTL(ctx, k).Result()
	if err != nil {
		return Result{Allowed: false, RetryAfter: l.window}, fmt.Errorf("ttl %s: %w", k, err)
	}
	if ttl < 0 {
		// Key lost its expiry (e.g. Expire failed earlier); restart the window.
		_ = l.redis.Expire(ctx, k, l.window).Err()
		ttl = l.window
	}

	l.logger.InfoContext(ctx, "rate limited", "key", key, "count", n, "retry_after", ttl)
	return Result{Allowed: false, RetryAfter: ttl}, nil
}
