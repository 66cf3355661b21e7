package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/identity-service/internal/domain"
)

// UserRepository defines persistence access for identity records.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByIdentity(ctx context.Context, identity string) (*domain.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetOTP(ctx context.Context, id, otpHash string, expiresAt time.Time) error
	MarkVerified(ctx context.Context, id string) error
	SetSuspension(ctx context.Context, id string, suspended bool, until *time.Time) error
}

type userRepository struct {
	db DB
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `
        id, name, email, phone, password_hash, role,
        suspended, suspended_until, otp_hash, otp_expires_at, otp_verified,
        created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Phone,
		&user.PasswordHash,
		&user.Role,
		&user.Suspended,
		&user.SuspendedUntil,
		&user.OTPHash,
		&user.OTPExpiresAt,
		&user.OTPVerified,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (name, email, phone, password_hash, role, otp_hash, otp_expires_at, otp_verified)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, created_at, updated_at`

	return r.db.QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.Phone,
		user.PasswordHash,
		user.Role,
		user.OTPHash,
		user.OTPExpiresAt,
		user.OTPVerified,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET name=$1, email=$2, phone=$3, password_hash=$4, role=$5, updated_at=NOW()
        WHERE id=$6`

	cmd, err := r.db.Exec(ctx, query,
		user.Name,
		user.Email,
		user.Phone,
		user.PasswordHash,
		user.Role,
		user.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `SELECT` + userColumns + ` FROM users WHERE id=$1`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

// GetByIdentity resolves a user by either email or phone.
func (r *userRepository) GetByIdentity(ctx context.Context, identity string) (*domain.User, error) {
	const query = `SELECT` + userColumns + ` FROM users WHERE email=$1 OR phone=$1`
	return scanUser(r.db.QueryRow(ctx, query, identity))
}

func (r *userRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const query = `UPDATE users SET password_hash=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.db.Exec(ctx, query, passwordHash, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) SetOTP(ctx context.Context, id, otpHash string, expiresAt time.Time) error {
	const query = `
        UPDATE users SET otp_hash=$1, otp_expires_at=$2, updated_at=NOW()
        WHERE id=$3 AND otp_verified=false`
	cmd, err := r.db.Exec(ctx, query, otpHash, expiresAt, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// MarkVerified flips the verified flag and clears the OTP fields in one
// statement; the otp_verified=false guard makes confirmation single-use.
func (r *userRepository) MarkVerified(ctx context.Context, id string) error {
	const query = `
        UPDATE users SET otp_verified=true, otp_hash=NULL, otp_expires_at=NULL, updated_at=NOW()
        WHERE id=$1 AND otp_verified=false`
	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) SetSuspension(ctx context.Context, id string, suspended bool, until *time.Time) error {
	const query = `
        UPDATE users SET suspended=$1, suspended_until=$2, updated_at=NOW()
        WHERE id=$3`
	cmd, err := r.db.Exec(ctx, query, suspended, until, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
