package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/identity-service/internal/auth"
	"github.com/spec-kit/identity-service/internal/config"
	"github.com/spec-kit/identity-service/internal/domain"
	"github.com/spec-kit/identity-service/internal/repository"
	apperrors "github.com/spec-kit/identity-service/pkg/util"
)

// TokenPair is an access token plus the refresh token that can renew it.
type TokenPair struct {
	AccessToken     string
	AccessExpiresAt time.Time
	RefreshToken    string
}

// SessionService mints and retires refresh tokens and mediates access-token
// renewal. All session truth lives in the credential store; the service
// holds no per-session state between requests.
type SessionService struct {
	store      repository.CredentialStore
	tokenMgr   *auth.TokenManager
	refreshTTL time.Duration
	bcryptCost int
	now        func() time.Time
}

// NewSessionService builds the service.
func NewSessionService(cfg config.AuthConfig, store repository.CredentialStore) *SessionService {
	ttlDays := cfg.RefreshTokenTTLDays
	if ttlDays <= 0 {
		ttlDays = 30
	}
	return &SessionService{
		store:      store,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		refreshTTL: time.Duration(ttlDays) * 24 * time.Hour,
		bcryptCost: cfg.BcryptCost,
		now:        time.Now,
	}
}

// dummyBcryptHash is compared against when the identity does not resolve, so
// login latency does not reveal whether an account exists.
const dummyBcryptHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

// Login authenticates a verified, non-suspended user and mints a session.
func (s *SessionService) Login(ctx context.Context, identity, password string) (*domain.User, *TokenPair, error) {
	user, err := s.store.Users().GetByIdentity(ctx, identity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			_ = auth.ComparePassword(dummyBcryptHash, password)
			return nil, nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, nil, apperrors.NewStoreUnavailable(err)
	}

	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if !user.OTPVerified {
		return nil, nil, apperrors.NewUnauthorized("account not verified")
	}
	if user.IsSuspended(s.now()) {
		return nil, nil, apperrors.NewUnauthorized("account suspended")
	}

	pair, err := s.CreateSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// CreateSession mints an access token and a fresh refresh token for the user.
func (s *SessionService) CreateSession(ctx context.Context, user *domain.User) (*TokenPair, error) {
	return s.createSessionWith(ctx, s.store, user)
}

// createSessionWith lets callers mint the session inside their own
// transaction scope (OTP confirmation, renewal rotation).
func (s *SessionService) createSessionWith(ctx context.Context, store repository.CredentialStore, user *domain.User) (*TokenPair, error) {
	value, err := auth.NewRefreshValue()
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	now := s.now()
	token := &domain.RefreshToken{
		JTI:        value.JTI,
		UserID:     user.ID,
		SecretHash: value.SecretHash,
		IssuedAt:   now,
		ExpiresAt:  now.Add(s.refreshTTL),
	}
	if err := store.RefreshTokens().Create(ctx, token); err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}

	accessToken, expiresAt, err := s.tokenMgr.Issue(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	return &TokenPair{
		AccessToken:     accessToken,
		AccessExpiresAt: expiresAt,
		RefreshToken:    value.Raw,
	}, nil
}

// Renew rotates a refresh token: the old jti is revoked and a new pair is
// minted in the same transaction. Two racing renewals on one jti resolve via
// the store's compare-and-set revocation, so at most one produces a session.
func (s *SessionService) Renew(ctx context.Context, refreshValue string) (*domain.User, *TokenPair, error) {
	jti, secret, err := auth.SplitRefreshValue(refreshValue)
	if err != nil {
		return nil, nil, apperrors.NewSessionNotFound()
	}

	var (
		user *domain.User
		pair *TokenPair
	)
	txErr := s.store.WithinTx(ctx, func(tx repository.CredentialStore) error {
		token, err := tx.RefreshTokens().FindByJTI(ctx, jti)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewSessionNotFound()
			}
			return apperrors.NewStoreUnavailable(err)
		}
		if !auth.VerifyRefreshSecret(secret, token.SecretHash) {
			return apperrors.NewSessionNotFound()
		}
		if token.IsRevoked() {
			return apperrors.NewSessionRevoked()
		}
		if token.IsExpired(s.now()) {
			return apperrors.NewSessionExpired()
		}

		user, err = tx.Users().GetByID(ctx, token.UserID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewSessionNotFound()
			}
			return apperrors.NewStoreUnavailable(err)
		}
		if !user.OTPVerified || user.IsSuspended(s.now()) {
			return apperrors.NewSessionRevoked()
		}

		revoked, err := tx.RefreshTokens().Revoke(ctx, jti)
		if err != nil {
			return apperrors.NewStoreUnavailable(err)
		}
		if !revoked {
			return apperrors.NewSessionRevoked()
		}

		pair, err = s.createSessionWith(ctx, tx, user)
		return err
	})
	if txErr != nil {
		return nil, nil, txErr
	}
	return user, pair, nil
}

// Logout retires refresh tokens for an authenticated caller. All-devices
// revokes every live token for the subject in one update. Single-device
// revokes the supplied token only when it belongs to the caller; a missing
// or mismatched value is a no-op so logout stays idempotent.
func (s *SessionService) Logout(ctx context.Context, userID, refreshValue string, allDevices bool) error {
	if allDevices {
		if _, err := s.store.RefreshTokens().RevokeAllForUser(ctx, userID); err != nil {
			return apperrors.NewStoreUnavailable(err)
		}
		return nil
	}

	if refreshValue == "" {
		return nil
	}
	jti, secret, err := auth.SplitRefreshValue(refreshValue)
	if err != nil {
		return nil
	}

	token, err := s.store.RefreshTokens().FindByJTI(ctx, jti)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return apperrors.NewStoreUnavailable(err)
	}
	if token.UserID != userID || !auth.VerifyRefreshSecret(secret, token.SecretHash) {
		return nil
	}

	if _, err := s.store.RefreshTokens().Revoke(ctx, jti); err != nil {
		return apperrors.NewStoreUnavailable(err)
	}
	return nil
}

// ActiveSessions lists the caller's live refresh tokens.
func (s *SessionService) ActiveSessions(ctx context.Context, userID string) ([]domain.RefreshToken, error) {
	tokens, err := s.store.RefreshTokens().ActiveForUser(ctx, userID)
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	return tokens, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *SessionService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
