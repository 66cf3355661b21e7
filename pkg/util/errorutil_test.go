package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestIsMatchesByCode(t *testing.T) {
	if !errors.Is(NewSessionRevoked(), NewSessionRevoked()) {
		t.Fatal("same code must match")
	}
	if errors.Is(NewSessionRevoked(), NewSessionExpired()) {
		t.Fatal("different codes must not match")
	}
	if !errors.Is(NewUnauthorized("one message"), NewUnauthorized("another message")) {
		t.Fatal("message must not affect matching")
	}

	wrapped := fmt.Errorf("handling request: %w", NewRateLimited())
	if !errors.Is(wrapped, NewRateLimited()) {
		t.Fatal("wrapped DomainError must still match")
	}
}

func TestToDomainErrorCollapsesUnknown(t *testing.T) {
	cause := errors.New("connection refused")
	converted := ToDomainError(cause)
	if converted.Code != CodeInternalError {
		t.Fatalf("expected INTERNAL_ERROR, got %s", converted.Code)
	}
	if converted.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unexpected status %d", converted.HTTPStatus)
	}
	if !errors.Is(converted, cause) {
		t.Fatal("cause must stay reachable via Unwrap")
	}
}

func TestToDomainErrorPreservesDomain(t *testing.T) {
	original := NewConflict("identity already registered")
	converted := ToDomainError(fmt.Errorf("signup: %w", original))
	if converted.Code != CodeConflict || converted.HTTPStatus != http.StatusConflict {
		t.Fatalf("domain error not preserved: %+v", converted)
	}
	if ToDomainError(nil) != nil {
		t.Fatal("nil must stay nil")
	}
}
