package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginLimiter throttles login attempts with a fixed-window Redis counter:
// INCR per key, EXPIRE on first increment. Counting is atomic across
// instances, so the limit holds under horizontal scale.
type LoginLimiter struct {
	client      redis.UniversalClient
	prefix      string
	maxAttempts int
	window      time.Duration
}

// LoginLimiterOptions groups parameters for NewLoginLimiter.
type LoginLimiterOptions struct {
	Client      redis.UniversalClient
	MaxAttempts int           // default 10
	Window      time.Duration // default 5m
}

// NewLoginLimiter creates a Redis-backed login limiter.
func NewLoginLimiter(opts LoginLimiterOptions) *LoginLimiter {
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	window := opts.Window
	if window <= 0 {
		window = 5 * time.Minute
	}
	return &LoginLimiter{
		client:      opts.Client,
		prefix:      "phub:login_attempts:",
		maxAttempts: maxAttempts,
		window:      window,
	}
}

// Allow records an attempt for key and reports whether it is within the
// limit. The first attempt of a window arms the expiry.
func (l *LoginLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return true, nil
	}
	rkey := l.prefix + key
	count, err := l.client.Incr(ctx, rkey).Result()
	if err != nil {
		return false, fmt.Errorf("increment login counter: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, rkey, l.window).Err(); err != nil {
			return false, fmt.Errorf("arm login counter expiry: %w", err)
		}
	}
	return count <= int64(l.maxAttempts), nil
}

// Reset clears the counter for key, typically after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	return l.client.Del(ctx, l.prefix+key).Err()
}
