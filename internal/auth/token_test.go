package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/spec-kit/identity-service/internal/domain"
)

func TestIssueVerifyRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", 15)

	token, expiresAt, err := tm.Issue("user-1", domain.RoleCustomer)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("expected expiry in the future, got %v", expiresAt)
	}

	claims, err := tm.Verify(token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("expected subject user-1, got %q", claims.Subject)
	}
	if claims.Role != domain.RoleCustomer {
		t.Fatalf("expected role CUSTOMER, got %q", claims.Role)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	tm := &TokenManager{secret: []byte("test-secret"), ttl: -time.Minute}

	token, _, err := tm.Issue("user-1", domain.RoleCustomer)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if _, err := tm.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	tm := NewTokenManager("secret-a", 15)
	other := NewTokenManager("secret-b", 15)

	token, _, err := tm.Issue("user-1", domain.RoleAdmin)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if _, err := other.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestVerifyMalformedToken(t *testing.T) {
	tm := NewTokenManager("test-secret", 15)

	for _, tokenStr := range []string{"", "garbage", "a.b.c"} {
		if _, err := tm.Verify(tokenStr); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("token %q: expected ErrTokenInvalid, got %v", tokenStr, err)
		}
	}
}

func TestVerifyRejectsUnknownRole(t *testing.T) {
	tm := NewTokenManager("test-secret", 15)

	token, _, err := tm.Issue("user-1", domain.Role("SUPERUSER"))
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if _, err := tm.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for unknown role, got %v", err)
	}
}
