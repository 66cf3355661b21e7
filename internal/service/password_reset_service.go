package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/identity-service/internal/auth"
	"github.com/spec-kit/identity-service/internal/config"
	"github.com/spec-kit/identity-service/internal/domain"
	"github.com/spec-kit/identity-service/internal/events"
	"github.com/spec-kit/identity-service/internal/repository"
	apperrors "github.com/spec-kit/identity-service/pkg/util"
)

// PasswordResetService issues single-use reset tokens and consumes them
// atomically. Consumption rewrites the password, retires the token and its
// siblings and terminates every open session in one transaction.
type PasswordResetService struct {
	store       repository.CredentialStore
	dispatcher  events.Dispatcher
	limiter     *RateLimiter
	bcryptCost  int
	resetTTL    time.Duration
	minPassword int
	now         func() time.Time
}

// NewPasswordResetService builds the service.
func NewPasswordResetService(cfg config.AuthConfig, store repository.CredentialStore, dispatcher events.Dispatcher, limiter *RateLimiter) *PasswordResetService {
	ttl := time.Duration(cfg.PasswordResetTTLMinutes) * time.Minute
	if ttl <= 0 || ttl > time.Hour {
		ttl = 30 * time.Minute
	}
	minLen := cfg.MinPasswordLength
	if minLen <= 0 {
		minLen = 8
	}
	return &PasswordResetService{
		store:       store,
		dispatcher:  dispatcher,
		limiter:     limiter,
		bcryptCost:  cfg.BcryptCost,
		resetTTL:    ttl,
		minPassword: minLen,
		now:         time.Now,
	}
}

// Request creates a reset token when the identity resolves. The caller sees
// the same outcome either way; the token only travels the delivery event.
func (r *PasswordResetService) Request(ctx context.Context, identity string) error {
	if identity == "" {
		return apperrors.NewValidationError("identity required", nil)
	}
	if err := r.limiter.Allow(ctx, "reset:"+identity); err != nil {
		return err
	}

	user, err := r.store.Users().GetByIdentity(ctx, identity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// unknown identity: report success to prevent account enumeration
			return nil
		}
		return apperrors.NewStoreUnavailable(err)
	}

	token := &domain.PasswordResetToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: r.now().Add(r.resetTTL),
	}
	if err := r.store.PasswordResets().Create(ctx, token); err != nil {
		return apperrors.NewStoreUnavailable(err)
	}

	if r.dispatcher != nil {
		_ = r.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventPasswordResetRequested,
			UserID:    user.ID,
			Timestamp: r.now(),
			Payload: events.PasswordResetRequestedPayload{
				Identity:  identity,
				Token:     token.Token,
				ExpiresAt: token.ExpiresAt,
			},
		})
	}
	return nil
}

// Consume redeems a reset token. Every mutation lands in one transaction: an
// aborted request can never leave a new password alongside a live token or a
// surviving session.
func (r *PasswordResetService) Consume(ctx context.Context, tokenValue, newPassword string) error {
	if err := checkPasswordStrength(newPassword, r.minPassword); err != nil {
		return err
	}

	passwordHash, err := auth.HashPassword(newPassword, r.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	var (
		userID          string
		revokedSessions int64
	)
	txErr := r.store.WithinTx(ctx, func(tx repository.CredentialStore) error {
		token, err := tx.PasswordResets().GetByToken(ctx, tokenValue)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewResetInvalidOrExpired()
			}
			return apperrors.NewStoreUnavailable(err)
		}
		if !token.Usable(r.now()) {
			return apperrors.NewResetInvalidOrExpired()
		}

		used, err := tx.PasswordResets().MarkUsed(ctx, token.ID)
		if err != nil {
			return apperrors.NewStoreUnavailable(err)
		}
		if !used {
			return apperrors.NewResetInvalidOrExpired()
		}

		if err := tx.Users().UpdatePassword(ctx, token.UserID, passwordHash); err != nil {
			return apperrors.NewStoreUnavailable(err)
		}
		if _, err := tx.PasswordResets().InvalidateOthers(ctx, token.UserID, token.ID); err != nil {
			return apperrors.NewStoreUnavailable(err)
		}

		// a password change terminates all existing sessions
		revokedSessions, err = tx.RefreshTokens().RevokeAllForUser(ctx, token.UserID)
		if err != nil {
			return apperrors.NewStoreUnavailable(err)
		}
		userID = token.UserID
		return nil
	})
	if txErr != nil {
		return txErr
	}

	r.publishPasswordChanged(ctx, userID, revokedSessions)
	return nil
}

// ChangePassword verifies the current password before rewriting it. Like a
// reset, the change revokes every open session for the subject.
func (r *PasswordResetService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if err := checkPasswordStrength(newPassword, r.minPassword); err != nil {
		return err
	}

	user, err := r.store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user")
		}
		return apperrors.NewStoreUnavailable(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}

	passwordHash, err := auth.HashPassword(newPassword, r.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	var revokedSessions int64
	txErr := r.store.WithinTx(ctx, func(tx repository.CredentialStore) error {
		if err := tx.Users().UpdatePassword(ctx, userID, passwordHash); err != nil {
			return apperrors.NewStoreUnavailable(err)
		}
		revokedSessions, err = tx.RefreshTokens().RevokeAllForUser(ctx, userID)
		if err != nil {
			return apperrors.NewStoreUnavailable(err)
		}
		return nil
	})
	if txErr != nil {
		return txErr
	}

	r.publishPasswordChanged(ctx, userID, revokedSessions)
	return nil
}

func (r *PasswordResetService) publishPasswordChanged(ctx context.Context, userID string, revoked int64) {
	if r.dispatcher == nil {
		return
	}
	_ = r.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventPasswordChanged,
		UserID:    userID,
		Timestamp: r.now(),
		Payload:   events.PasswordChangedPayload{RevokedSessions: revoked},
	})
}
