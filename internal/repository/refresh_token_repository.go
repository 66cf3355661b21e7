package repository

import (
	"context"

	"github.com/spec-kit/identity-service/internal/domain"
)

// RefreshTokenRepository manages server-tracked session handles. Rows are
// never deleted on revocation; revoked_at keeps the audit trail.
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *domain.RefreshToken) error
	FindByJTI(ctx context.Context, jti string) (*domain.RefreshToken, error)
	Revoke(ctx context.Context, jti string) (bool, error)
	RevokeAllForUser(ctx context.Context, userID string) (int64, error)
	ActiveForUser(ctx context.Context, userID string) ([]domain.RefreshToken, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

type refreshTokenRepository struct {
	db DB
}

// NewRefreshTokenRepository constructs repository.
func NewRefreshTokenRepository(db DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

func (r *refreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	const query = `
        INSERT INTO refresh_tokens (jti, user_id, secret_hash, issued_at, expires_at)
        VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.Exec(ctx, query,
		token.JTI,
		token.UserID,
		token.SecretHash,
		token.IssuedAt,
		token.ExpiresAt,
	)
	return err
}

func (r *refreshTokenRepository) FindByJTI(ctx context.Context, jti string) (*domain.RefreshToken, error) {
	const query = `
        SELECT jti, user_id, secret_hash, issued_at, expires_at, revoked_at
        FROM refresh_tokens WHERE jti=$1`
	var token domain.RefreshToken
	if err := r.db.QueryRow(ctx, query, jti).Scan(
		&token.JTI,
		&token.UserID,
		&token.SecretHash,
		&token.IssuedAt,
		&token.ExpiresAt,
		&token.RevokedAt,
	); err != nil {
		return nil, err
	}
	return &token, nil
}

// Revoke retires a token with a compare-and-set on revoked_at. Racing
// callers see false for the losing update, which is how concurrent renew and
// logout resolve to exactly one winner per jti.
func (r *refreshTokenRepository) Revoke(ctx context.Context, jti string) (bool, error) {
	const query = `
        UPDATE refresh_tokens SET revoked_at=NOW()
        WHERE jti=$1 AND revoked_at IS NULL`
	cmd, err := r.db.Exec(ctx, query, jti)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *refreshTokenRepository) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	const query = `
        UPDATE refresh_tokens SET revoked_at=NOW()
        WHERE user_id=$1 AND revoked_at IS NULL`
	cmd, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *refreshTokenRepository) ActiveForUser(ctx context.Context, userID string) ([]domain.RefreshToken, error) {
	const query = `
        SELECT jti, user_id, secret_hash, issued_at, expires_at, revoked_at
        FROM refresh_tokens
        WHERE user_id=$1 AND revoked_at IS NULL AND expires_at > NOW()
        ORDER BY issued_at DESC`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []domain.RefreshToken
	for rows.Next() {
		var token domain.RefreshToken
		if err := rows.Scan(
			&token.JTI,
			&token.UserID,
			&token.SecretHash,
			&token.IssuedAt,
			&token.ExpiresAt,
			&token.RevokedAt,
		); err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}

// DeleteExpired purges rows long past their lifetime. Operational hygiene
// only; expiry is always enforced lazily at use time.
func (r *refreshTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	const query = `
        DELETE FROM refresh_tokens
        WHERE expires_at < NOW() - INTERVAL '30 days'`
	cmd, err := r.db.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
