package service

import (
	"context"
	"errors"
	"fmt"
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

// SignupService guards the OTP-gated signup state machine: a pending user is
// created with a hashed code, confirmation consumes the code exactly once
// and mints the first session.
type SignupService struct {
	store       repository.CredentialStore
	sessions    *SessionService
	dispatcher  events.Dispatcher
	limiter     *RateLimiter
	bcryptCost  int
	otpTTL      time.Duration
	otpPreset   string
	minPassword int
	now         func() time.Time
}

// NewSignupService builds the service.
func NewSignupService(cfg config.AuthConfig, store repository.CredentialStore, sessions *SessionService, dispatcher events.Dispatcher, limiter *RateLimiter) *SignupService {
	ttl := time.Duration(cfg.OTPTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	minLen := cfg.MinPasswordLength
	if minLen <= 0 {
		minLen = 8
	}
	return &SignupService{
		store:       store,
		sessions:    sessions,
		dispatcher:  dispatcher,
		limiter:     limiter,
		bcryptCost:  cfg.BcryptCost,
		otpTTL:      ttl,
		otpPreset:   cfg.OTPPreset,
		minPassword: minLen,
		now:         time.Now,
	}
}

// InitiateResult is what signup-initiate hands back to the transport layer.
// OTPHint is populated only when a development preset is configured.
type InitiateResult struct {
	User    *domain.User
	OTPHint string
}

// Initiate starts (or restarts) a signup attempt. An unverified identity
// gets a fresh code; a verified one conflicts. The raw code leaves the
// service only through the delivery event and the development hint.
func (s *SignupService) Initiate(ctx context.Context, name, identity, password string) (*InitiateResult, error) {
	if identity == "" {
		return nil, apperrors.NewValidationError("identity required", nil)
	}
	if err := checkPasswordStrength(password, s.minPassword); err != nil {
		return nil, err
	}
	if err := s.limiter.Allow(ctx, "signup:"+identity); err != nil {
		return nil, err
	}

	otp, err := auth.GenerateOTP(s.otpPreset)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	otpHash := auth.HashOTP(otp)
	otpExpiry := s.now().Add(s.otpTTL)

	passwordHash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	var user *domain.User
	txErr := s.store.WithinTx(ctx, func(tx repository.CredentialStore) error {
		existing, err := tx.Users().GetByIdentity(ctx, identity)
		switch {
		case err == nil:
			if existing.OTPVerified {
				return apperrors.NewConflict("identity already registered")
			}
			// restart path: reissue a fresh code for the pending account
			existing.Name = name
			existing.PasswordHash = passwordHash
			if err := tx.Users().Update(ctx, existing); err != nil {
				return apperrors.NewStoreUnavailable(err)
			}
			if err := tx.Users().SetOTP(ctx, existing.ID, otpHash, otpExpiry); err != nil {
				return apperrors.NewStoreUnavailable(err)
			}
			user = existing
			return nil
		case errors.Is(err, pgx.ErrNoRows):
			user = &domain.User{
				Name:         name,
				PasswordHash: passwordHash,
				Role:         domain.RoleCustomer,
				OTPHash:      &otpHash,
				OTPExpiresAt: &otpExpiry,
			}
			if isEmail(identity) {
				user.Email = &identity
			} else {
				user.Phone = &identity
			}
			if err := tx.Users().Create(ctx, user); err != nil {
				return apperrors.NewStoreUnavailable(err)
			}
			return nil
		default:
			return apperrors.NewStoreUnavailable(err)
		}
	})
	if txErr != nil {
		return nil, txErr
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventSignupInitiated,
			UserID:    user.ID,
			Timestamp: s.now(),
			Payload: events.SignupInitiatedPayload{
				Identity:  identity,
				OTP:       otp,
				ExpiresAt: otpExpiry,
			},
		})
	}

	result := &InitiateResult{User: user}
	if s.otpPreset != "" {
		result.OTPHint = otp
	}
	return result, nil
}

// Confirm consumes the pending code. The verified flag flips and the OTP
// fields clear in the same transaction that mints the first session, so a
// crash cannot leave a confirmed account without retiring its code.
func (s *SignupService) Confirm(ctx context.Context, userID, otp string) (*domain.User, *TokenPair, error) {
	if err := s.limiter.Allow(ctx, "otp:"+userID); err != nil {
		return nil, nil, err
	}

	var (
		user *domain.User
		pair *TokenPair
	)
	txErr := s.store.WithinTx(ctx, func(tx repository.CredentialStore) error {
		var err error
		user, err = tx.Users().GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("user")
			}
			return apperrors.NewStoreUnavailable(err)
		}

		if user.OTPVerified {
			return apperrors.NewAlreadyVerified()
		}
		if !user.HasPendingOTP(s.now()) {
			return apperrors.NewOTPExpired()
		}
		if !auth.VerifyOTP(otp, *user.OTPHash) {
			return apperrors.NewOTPMismatch()
		}

		if err := tx.Users().MarkVerified(ctx, userID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewAlreadyVerified()
			}
			return apperrors.NewStoreUnavailable(err)
		}
		user.OTPVerified = true
		user.OTPHash = nil
		user.OTPExpiresAt = nil

		pair, err = s.sessions.createSessionWith(ctx, tx, user)
		return err
	})
	if txErr != nil {
		return nil, nil, txErr
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventSignupVerified,
			UserID:    user.ID,
			Timestamp: s.now(),
		})
	}
	return user, pair, nil
}

func checkPasswordStrength(password string, minLen int) error {
	if len(password) < minLen {
		return apperrors.NewWeakPassword(fmt.Sprintf("password must be at least %d characters", minLen))
	}
	return nil
}

func isEmail(identity string) bool {
	for _, c := range identity {
		if c == '@' {
			return true
		}
	}
	return false
}
