package repository

import (
	"context"

	"github.com/spec-kit/identity-service/internal/domain"
)

// PasswordResetRepository manages password reset token persistence.
type PasswordResetRepository interface {
	Create(ctx context.Context, token *domain.PasswordResetToken) error
	GetByToken(ctx context.Context, token string) (*domain.PasswordResetToken, error)
	MarkUsed(ctx context.Context, id string) (bool, error)
	InvalidateOthers(ctx context.Context, userID, exceptID string) (int64, error)
}

type passwordResetRepository struct {
	db DB
}

// NewPasswordResetRepository constructs repository.
func NewPasswordResetRepository(db DB) PasswordResetRepository {
	return &passwordResetRepository{db: db}
}

func (r *passwordResetRepository) Create(ctx context.Context, token *domain.PasswordResetToken) error {
	const query = `
        INSERT INTO password_reset_tokens (user_id, token, expires_at)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		token.UserID,
		token.Token,
		token.ExpiresAt,
	).Scan(&token.ID, &token.CreatedAt)
}

func (r *passwordResetRepository) GetByToken(ctx context.Context, tokenStr string) (*domain.PasswordResetToken, error) {
	const query = `
        SELECT id, user_id, token, expires_at, used_at, created_at
        FROM password_reset_tokens WHERE token=$1`
	var token domain.PasswordResetToken
	if err := r.db.QueryRow(ctx, query, tokenStr).Scan(
		&token.ID,
		&token.UserID,
		&token.Token,
		&token.ExpiresAt,
		&token.UsedAt,
		&token.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &token, nil
}

// MarkUsed consumes a token with a compare-and-set on used_at so exactly one
// concurrent consumer wins.
func (r *passwordResetRepository) MarkUsed(ctx context.Context, id string) (bool, error) {
	const query = `
        UPDATE password_reset_tokens SET used_at=NOW()
        WHERE id=$1 AND used_at IS NULL`
	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

// InvalidateOthers retires every other outstanding token for the user, so a
// successful consumption leaves no usable sibling behind.
func (r *passwordResetRepository) InvalidateOthers(ctx context.Context, userID, exceptID string) (int64, error) {
	const query = `
        UPDATE password_reset_tokens SET used_at=NOW()
        WHERE user_id=$1 AND id <> $2 AND used_at IS NULL`
	cmd, err := r.db.Exec(ctx, query, userID, exceptID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
