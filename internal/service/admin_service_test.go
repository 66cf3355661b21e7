package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spec-kit/identity-service/internal/domain"
	"github.com/spec-kit/identity-service/internal/events"
	apperrors "github.com/spec-kit/identity-service/pkg/util"
)

func TestSuspendRevokesSessions(t *testing.T) {
	store := newFakeStore()
	sessions := NewSessionService(testAuthConfig(), store)
	dispatcher := events.NewInMemoryDispatcher()
	admin := NewAdminService(store, dispatcher)
	user := seedVerifiedUser(t, store, "alice@example.com", "correct-horse-1", domain.RoleCustomer)

	var suspended events.UserSuspendedPayload
	dispatcher.Subscribe(events.EventUserSuspended, func(_ context.Context, e events.Event) error {
		suspended = e.Payload.(events.UserSuspendedPayload)
		return nil
	})

	_, pair, err := sessions.Login(context.Background(), "alice@example.com", "correct-horse-1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if err := admin.Suspend(context.Background(), user.ID, nil); err != nil {
		t.Fatalf("suspend failed: %v", err)
	}
	if !suspended.Suspended {
		t.Fatal("expected suspension event")
	}

	if _, _, err := sessions.Renew(context.Background(), pair.RefreshToken); !errors.Is(err, apperrors.NewSessionRevoked()) {
		t.Fatalf("expected SESSION_REVOKED after suspension, got %v", err)
	}
	if _, _, err := sessions.Login(context.Background(), "alice@example.com", "correct-horse-1"); !errors.Is(err, apperrors.NewUnauthorized("")) {
		t.Fatalf("expected login rejection while suspended, got %v", err)
	}
}

func TestUnsuspendRestoresLogin(t *testing.T) {
	store := newFakeStore()
	sessions := NewSessionService(testAuthConfig(), store)
	admin := NewAdminService(store, events.NewInMemoryDispatcher())
	user := seedVerifiedUser(t, store, "alice@example.com", "correct-horse-1", domain.RoleCustomer)

	until := time.Now().Add(24 * time.Hour)
	if err := admin.Suspend(context.Background(), user.ID, &until); err != nil {
		t.Fatalf("suspend failed: %v", err)
	}
	if err := admin.Unsuspend(context.Background(), user.ID); err != nil {
		t.Fatalf("unsuspend failed: %v", err)
	}

	// old sessions stay dead, but a fresh login works
	if _, _, err := sessions.Login(context.Background(), "alice@example.com", "correct-horse-1"); err != nil {
		t.Fatalf("login after unsuspend failed: %v", err)
	}
}

func TestSuspendUnknownUser(t *testing.T) {
	admin := NewAdminService(newFakeStore(), events.NewInMemoryDispatcher())

	if err := admin.Suspend(context.Background(), "no-such-user", nil); !errors.Is(err, apperrors.NewNotFound("")) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
	if err := admin.Unsuspend(context.Background(), "no-such-user"); !errors.Is(err, apperrors.NewNotFound("")) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}
