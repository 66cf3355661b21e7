package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/identity-service/internal/events"
	"github.com/spec-kit/identity-service/internal/repository"
	apperrors "github.com/spec-kit/identity-service/pkg/util"
)

// AdminService applies account suspension actions. Suspension revokes every
// open session in the same transaction, so the auth gate and renewal observe
// it immediately rather than after the next access-token expiry.
type AdminService struct {
	store      repository.CredentialStore
	dispatcher events.Dispatcher
	now        func() time.Time
}

// NewAdminService builds the service.
func NewAdminService(store repository.CredentialStore, dispatcher events.Dispatcher) *AdminService {
	return &AdminService{store: store, dispatcher: dispatcher, now: time.Now}
}

// Suspend flags the user and terminates their sessions. A nil until makes
// the suspension indefinite.
func (a *AdminService) Suspend(ctx context.Context, userID string, until *time.Time) error {
	txErr := a.store.WithinTx(ctx, func(tx repository.CredentialStore) error {
		if err := tx.Users().SetSuspension(ctx, userID, true, until); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("user")
			}
			return apperrors.NewStoreUnavailable(err)
		}
		if _, err := tx.RefreshTokens().RevokeAllForUser(ctx, userID); err != nil {
			return apperrors.NewStoreUnavailable(err)
		}
		return nil
	})
	if txErr != nil {
		return txErr
	}

	a.publishSuspension(ctx, userID, true, until)
	return nil
}

// Unsuspend clears the suspension flag. Sessions are not resurrected; the
// user logs in again.
func (a *AdminService) Unsuspend(ctx context.Context, userID string) error {
	if err := a.store.Users().SetSuspension(ctx, userID, false, nil); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user")
		}
		return apperrors.NewStoreUnavailable(err)
	}

	a.publishSuspension(ctx, userID, false, nil)
	return nil
}

func (a *AdminService) publishSuspension(ctx context.Context, userID string, suspended bool, until *time.Time) {
	if a.dispatcher == nil {
		return
	}
	_ = a.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventUserSuspended,
		UserID:    userID,
		Timestamp: a.now(),
		Payload:   events.UserSuspendedPayload{Suspended: suspended, Until: until},
	})
}
