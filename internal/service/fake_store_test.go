package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/identity-service/internal/domain"
	"github.com/spec-kit/identity-service/internal/repository"
)

// fakeStore is an in-memory CredentialStore. Compare-and-set semantics match
// the SQL repositories so revocation races behave the same under test.
type fakeStore struct {
	mu     sync.Mutex
	users  map[string]*domain.User
	tokens map[string]*domain.RefreshToken
	resets map[string]*domain.PasswordResetToken
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:  make(map[string]*domain.User),
		tokens: make(map[string]*domain.RefreshToken),
		resets: make(map[string]*domain.PasswordResetToken),
	}
}

func (f *fakeStore) Users() repository.UserRepository                   { return (*fakeUserRepo)(f) }
func (f *fakeStore) RefreshTokens() repository.RefreshTokenRepository   { return (*fakeTokenRepo)(f) }
func (f *fakeStore) PasswordResets() repository.PasswordResetRepository { return (*fakeResetRepo)(f) }

func (f *fakeStore) WithinTx(ctx context.Context, fn func(repository.CredentialStore) error) error {
	return fn(f)
}

type fakeUserRepo fakeStore

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	cloned := *user
	r.users[user.ID] = &cloned
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[user.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Name = user.Name
	stored.Email = user.Email
	stored.Phone = user.Phone
	stored.PasswordHash = user.PasswordHash
	stored.Role = user.Role
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cloned := *user
	return &cloned, nil
}

func (r *fakeUserRepo) GetByIdentity(_ context.Context, identity string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if (user.Email != nil && *user.Email == identity) || (user.Phone != nil && *user.Phone == identity) {
			cloned := *user
			return &cloned, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.PasswordHash = passwordHash
	return nil
}

func (r *fakeUserRepo) SetOTP(_ context.Context, id, otpHash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok || user.OTPVerified {
		return pgx.ErrNoRows
	}
	user.OTPHash = &otpHash
	user.OTPExpiresAt = &expiresAt
	return nil
}

func (r *fakeUserRepo) MarkVerified(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok || user.OTPVerified {
		return pgx.ErrNoRows
	}
	user.OTPVerified = true
	user.OTPHash = nil
	user.OTPExpiresAt = nil
	return nil
}

func (r *fakeUserRepo) SetSuspension(_ context.Context, id string, suspended bool, until *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.Suspended = suspended
	user.SuspendedUntil = until
	return nil
}

type fakeTokenRepo fakeStore

func (r *fakeTokenRepo) Create(_ context.Context, token *domain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cloned := *token
	r.tokens[token.JTI] = &cloned
	return nil
}

func (r *fakeTokenRepo) FindByJTI(_ context.Context, jti string) (*domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[jti]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cloned := *token
	return &cloned, nil
}

func (r *fakeTokenRepo) Revoke(_ context.Context, jti string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[jti]
	if !ok || token.RevokedAt != nil {
		return false, nil
	}
	now := time.Now()
	token.RevokedAt = &now
	return true, nil
}

func (r *fakeTokenRepo) RevokeAllForUser(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	now := time.Now()
	for _, token := range r.tokens {
		if token.UserID == userID && token.RevokedAt == nil {
			token.RevokedAt = &now
			count++
		}
	}
	return count, nil
}

func (r *fakeTokenRepo) ActiveForUser(_ context.Context, userID string) ([]domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var active []domain.RefreshToken
	now := time.Now()
	for _, token := range r.tokens {
		if token.UserID == userID && token.RevokedAt == nil && token.ExpiresAt.After(now) {
			active = append(active, *token)
		}
	}
	return active, nil
}

func (r *fakeTokenRepo) DeleteExpired(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := time.Now().Add(-30 * 24 * time.Hour)
	var count int64
	for jti, token := range r.tokens {
		if token.ExpiresAt.Before(cutoff) {
			delete(r.tokens, jti)
			count++
		}
	}
	return count, nil
}

type fakeResetRepo fakeStore

func (r *fakeResetRepo) Create(_ context.Context, token *domain.PasswordResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	token.ID = uuid.NewString()
	token.CreatedAt = time.Now()
	cloned := *token
	r.resets[token.ID] = &cloned
	return nil
}

func (r *fakeResetRepo) GetByToken(_ context.Context, tokenStr string) (*domain.PasswordResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, token := range r.resets {
		if token.Token == tokenStr {
			cloned := *token
			return &cloned, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeResetRepo) MarkUsed(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.resets[id]
	if !ok || token.UsedAt != nil {
		return false, nil
	}
	now := time.Now()
	token.UsedAt = &now
	return true, nil
}

func (r *fakeResetRepo) InvalidateOthers(_ context.Context, userID, exceptID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	now := time.Now()
	for id, token := range r.resets {
		if token.UserID == userID && id != exceptID && token.UsedAt == nil {
			token.UsedAt = &now
			count++
		}
	}
	return count, nil
}
