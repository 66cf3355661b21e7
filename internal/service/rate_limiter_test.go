package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	apperrors "github.com/spec-kit/identity-service/pkg/util"
)

func newTestLimiter(t *testing.T, limit int, window time.Duration) (*RateLimiter, *miniredis.Miniredis) {
	t.Helper()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRateLimiter(client, limit, window), srv
}

func TestRateLimiterEnforcesBudget(t *testing.T) {
	limiter, _ := newTestLimiter(t, 3, time.Hour)

	for i := 0; i < 3; i++ {
		if err := limiter.Allow(context.Background(), "signup:alice@example.com"); err != nil {
			t.Fatalf("attempt %d should pass: %v", i+1, err)
		}
	}
	if err := limiter.Allow(context.Background(), "signup:alice@example.com"); !errors.Is(err, apperrors.NewRateLimited()) {
		t.Fatalf("expected RATE_LIMITED, got %v", err)
	}
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	limiter, _ := newTestLimiter(t, 1, time.Hour)

	if err := limiter.Allow(context.Background(), "signup:alice@example.com"); err != nil {
		t.Fatalf("first key should pass: %v", err)
	}
	if err := limiter.Allow(context.Background(), "signup:bob@example.com"); err != nil {
		t.Fatalf("second key should pass: %v", err)
	}
	if err := limiter.Allow(context.Background(), "signup:alice@example.com"); !errors.Is(err, apperrors.NewRateLimited()) {
		t.Fatalf("expected RATE_LIMITED on exhausted key, got %v", err)
	}
}

func TestRateLimiterWindowResets(t *testing.T) {
	limiter, srv := newTestLimiter(t, 1, time.Minute)

	if err := limiter.Allow(context.Background(), "otp:user-1"); err != nil {
		t.Fatalf("first attempt should pass: %v", err)
	}
	if err := limiter.Allow(context.Background(), "otp:user-1"); !errors.Is(err, apperrors.NewRateLimited()) {
		t.Fatalf("expected RATE_LIMITED, got %v", err)
	}

	srv.FastForward(time.Minute + time.Second)
	if err := limiter.Allow(context.Background(), "otp:user-1"); err != nil {
		t.Fatalf("budget should reset after the window: %v", err)
	}
}

func TestRateLimiterFailsOpen(t *testing.T) {
	limiter, srv := newTestLimiter(t, 1, time.Hour)
	srv.Close()

	if err := limiter.Allow(context.Background(), "reset:alice@example.com"); err != nil {
		t.Fatalf("redis outage must not block requests: %v", err)
	}
}

func TestRateLimiterNilClientDisabled(t *testing.T) {
	limiter := NewRateLimiter(nil, 1, time.Hour)

	for i := 0; i < 10; i++ {
		if err := limiter.Allow(context.Background(), "signup:alice@example.com"); err != nil {
			t.Fatalf("nil client must disable limiting: %v", err)
		}
	}

	var disabled *RateLimiter
	if err := disabled.Allow(context.Background(), "signup:alice@example.com"); err != nil {
		t.Fatalf("nil limiter must be a no-op: %v", err)
	}
}
