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

func newResetFixture() (*fakeStore, *SessionService, *PasswordResetService, events.Dispatcher) {
	cfg := testAuthConfig()
	store := newFakeStore()
	sessions := NewSessionService(cfg, store)
	dispatcher := events.NewInMemoryDispatcher()
	resets := NewPasswordResetService(cfg, store, dispatcher, NewRateLimiter(nil, 0, 0))
	return store, sessions, resets, dispatcher
}

func captureResetTokens(dispatcher events.Dispatcher) *[]string {
	tokens := &[]string{}
	dispatcher.Subscribe(events.EventPasswordResetRequested, func(_ context.Context, e events.Event) error {
		*tokens = append(*tokens, e.Payload.(events.PasswordResetRequestedPayload).Token)
		return nil
	})
	return tokens
}

func TestPasswordResetFlow(t *testing.T) {
	store, sessions, resets, dispatcher := newResetFixture()
	seedVerifiedUser(t, store, "alice@example.com", "old-password-1", domain.RoleCustomer)
	tokens := captureResetTokens(dispatcher)

	_, pair, err := sessions.Login(context.Background(), "alice@example.com", "old-password-1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if err := resets.Request(context.Background(), "alice@example.com"); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if len(*tokens) != 1 {
		t.Fatalf("expected 1 delivered token, got %d", len(*tokens))
	}

	if err := resets.Consume(context.Background(), (*tokens)[0], "new-password-1"); err != nil {
		t.Fatalf("consume failed: %v", err)
	}

	// the old password and every old session are dead, the new password works
	if _, _, err := sessions.Login(context.Background(), "alice@example.com", "old-password-1"); !errors.Is(err, apperrors.NewUnauthorized("")) {
		t.Fatalf("old password still accepted: %v", err)
	}
	if _, _, err := sessions.Renew(context.Background(), pair.RefreshToken); !errors.Is(err, apperrors.NewSessionRevoked()) {
		t.Fatalf("expected SESSION_REVOKED for pre-reset session, got %v", err)
	}
	if _, _, err := sessions.Login(context.Background(), "alice@example.com", "new-password-1"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}

func TestPasswordResetUnknownIdentity(t *testing.T) {
	_, _, resets, dispatcher := newResetFixture()
	tokens := captureResetTokens(dispatcher)

	// unknown identities succeed without issuing anything
	if err := resets.Request(context.Background(), "ghost@example.com"); err != nil {
		t.Fatalf("expected silent success, got %v", err)
	}
	if len(*tokens) != 0 {
		t.Fatalf("expected no delivered token, got %d", len(*tokens))
	}
}

func TestPasswordResetConsumeTwice(t *testing.T) {
	store, _, resets, dispatcher := newResetFixture()
	seedVerifiedUser(t, store, "alice@example.com", "old-password-1", domain.RoleCustomer)
	tokens := captureResetTokens(dispatcher)

	if err := resets.Request(context.Background(), "alice@example.com"); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	token := (*tokens)[0]

	if err := resets.Consume(context.Background(), token, "new-password-1"); err != nil {
		t.Fatalf("consume failed: %v", err)
	}
	if err := resets.Consume(context.Background(), token, "newer-password-1"); !errors.Is(err, apperrors.NewResetInvalidOrExpired()) {
		t.Fatalf("expected RESET_INVALID_OR_EXPIRED on reuse, got %v", err)
	}
}

func TestPasswordResetConsumeInvalidatesSiblings(t *testing.T) {
	store, _, resets, dispatcher := newResetFixture()
	seedVerifiedUser(t, store, "alice@example.com", "old-password-1", domain.RoleCustomer)
	tokens := captureResetTokens(dispatcher)

	for i := 0; i < 2; i++ {
		if err := resets.Request(context.Background(), "alice@example.com"); err != nil {
			t.Fatalf("request failed: %v", err)
		}
	}
	if len(*tokens) != 2 {
		t.Fatalf("expected 2 delivered tokens, got %d", len(*tokens))
	}

	// redeeming either one retires the other
	if err := resets.Consume(context.Background(), (*tokens)[0], "new-password-1"); err != nil {
		t.Fatalf("consume failed: %v", err)
	}
	if err := resets.Consume(context.Background(), (*tokens)[1], "newer-password-1"); !errors.Is(err, apperrors.NewResetInvalidOrExpired()) {
		t.Fatalf("expected sibling token to be retired, got %v", err)
	}
}

func TestPasswordResetConsumeExpiredToken(t *testing.T) {
	store, _, resets, dispatcher := newResetFixture()
	seedVerifiedUser(t, store, "alice@example.com", "old-password-1", domain.RoleCustomer)
	tokens := captureResetTokens(dispatcher)

	if err := resets.Request(context.Background(), "alice@example.com"); err != nil {
		t.Fatalf("request failed: %v", err)
	}

	resets.now = func() time.Time { return time.Now().Add(31 * time.Minute) }
	if err := resets.Consume(context.Background(), (*tokens)[0], "new-password-1"); !errors.Is(err, apperrors.NewResetInvalidOrExpired()) {
		t.Fatalf("expected RESET_INVALID_OR_EXPIRED, got %v", err)
	}
}

func TestPasswordResetConsumeUnknownToken(t *testing.T) {
	_, _, resets, _ := newResetFixture()

	if err := resets.Consume(context.Background(), "no-such-token", "new-password-1"); !errors.Is(err, apperrors.NewResetInvalidOrExpired()) {
		t.Fatalf("expected RESET_INVALID_OR_EXPIRED, got %v", err)
	}
}

func TestPasswordResetConsumeWeakPassword(t *testing.T) {
	store, _, resets, dispatcher := newResetFixture()
	seedVerifiedUser(t, store, "alice@example.com", "old-password-1", domain.RoleCustomer)
	tokens := captureResetTokens(dispatcher)

	if err := resets.Request(context.Background(), "alice@example.com"); err != nil {
		t.Fatalf("request failed: %v", err)
	}

	if err := resets.Consume(context.Background(), (*tokens)[0], "short"); !errors.Is(err, apperrors.NewWeakPassword("")) {
		t.Fatalf("expected WEAK_PASSWORD, got %v", err)
	}
	// strength failures must not burn the token
	if err := resets.Consume(context.Background(), (*tokens)[0], "new-password-1"); err != nil {
		t.Fatalf("token should survive a weak-password attempt: %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	store, sessions, resets, dispatcher := newResetFixture()
	user := seedVerifiedUser(t, store, "alice@example.com", "old-password-1", domain.RoleCustomer)

	var changed events.PasswordChangedPayload
	dispatcher.Subscribe(events.EventPasswordChanged, func(_ context.Context, e events.Event) error {
		changed = e.Payload.(events.PasswordChangedPayload)
		return nil
	})

	_, pair, err := sessions.Login(context.Background(), "alice@example.com", "old-password-1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if err := resets.ChangePassword(context.Background(), user.ID, "old-password-1", "new-password-1"); err != nil {
		t.Fatalf("change failed: %v", err)
	}
	if changed.RevokedSessions != 1 {
		t.Fatalf("expected 1 revoked session in event, got %d", changed.RevokedSessions)
	}
	if _, _, err := sessions.Renew(context.Background(), pair.RefreshToken); !errors.Is(err, apperrors.NewSessionRevoked()) {
		t.Fatalf("expected SESSION_REVOKED after password change, got %v", err)
	}
	if _, _, err := sessions.Login(context.Background(), "alice@example.com", "new-password-1"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	store, _, resets, _ := newResetFixture()
	user := seedVerifiedUser(t, store, "alice@example.com", "old-password-1", domain.RoleCustomer)

	err := resets.ChangePassword(context.Background(), user.ID, "not-the-password", "new-password-1")
	if !errors.Is(err, apperrors.NewUnauthorized("")) {
		t.Fatalf("expected AUTH_INVALID, got %v", err)
	}
}
