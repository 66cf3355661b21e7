package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/spec-kit/identity-service/pkg/util"
)

const rateLimitPrefix = "ratelimit:"

// RateLimiter throttles OTP issuance, confirmation attempts and reset
// requests with fixed-window counters in Redis. Keys are derived from the
// supplied identity or user id, so the limiter cannot be used to probe
// whether an account exists.
type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

// NewRateLimiter builds a limiter. A nil client disables limiting, which
// keeps local development and tests runnable without Redis.
func NewRateLimiter(client *redis.Client, limitPerWindow int, window time.Duration) *RateLimiter {
	if limitPerWindow <= 0 {
		limitPerWindow = 10
	}
	if window <= 0 {
		window = time.Hour
	}
	return &RateLimiter{client: client, limit: int64(limitPerWindow), window: window}
}

// Allow counts one attempt for key and fails with RATE_LIMITED once the
// window budget is exhausted. Redis outages fail open: throttling is a
// hardening layer, not a correctness requirement.
func (l *RateLimiter) Allow(ctx context.Context, key string) error {
	if l == nil || l.client == nil {
		return nil
	}

	redisKey := rateLimitPrefix + key
	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return nil
	}
	if count == 1 {
		l.client.Expire(ctx, redisKey, l.window)
	}
	if count > l.limit {
		return apperrors.NewRateLimited()
	}
	return nil
}
