package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the subset of pgx calls the repositories need. Both *pgxpool.Pool
// and pgx.Tx satisfy it, so the same repository code runs inside and outside
// transactions.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CredentialStore aggregates the persistence interfaces the auth core calls
// into. Every mutation that spans more than one record must run inside
// WithinTx; the transaction boundary is also the cancellation boundary.
type CredentialStore interface {
	Users() UserRepository
	RefreshTokens() RefreshTokenRepository
	PasswordResets() PasswordResetRepository
	WithinTx(ctx context.Context, fn func(CredentialStore) error) error
}

// Store is the Postgres-backed CredentialStore.
type Store struct {
	pool   *pgxpool.Pool
	users  UserRepository
	tokens RefreshTokenRepository
	resets PasswordResetRepository
}

// NewStore builds a store over the shared pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:   pool,
		users:  NewUserRepository(pool),
		tokens: NewRefreshTokenRepository(pool),
		resets: NewPasswordResetRepository(pool),
	}
}

func (s *Store) Users() UserRepository                   { return s.users }
func (s *Store) RefreshTokens() RefreshTokenRepository   { return s.tokens }
func (s *Store) PasswordResets() PasswordResetRepository { return s.resets }

// WithinTx runs fn against a transaction-scoped store. The transaction
// commits only when fn returns nil; any error or a cancelled context rolls
// everything back, so partial application is impossible.
func (s *Store) WithinTx(ctx context.Context, fn func(CredentialStore) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	scoped := &Store{
		pool:   s.pool,
		users:  NewUserRepository(tx),
		tokens: NewRefreshTokenRepository(tx),
		resets: NewPasswordResetRepository(tx),
	}
	if err := fn(scoped); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
