package domain

import "time"

// RefreshToken is the server-side session handle. Only the SHA-256 digest of
// the client secret is stored; the raw value never touches the database.
// Rows are never deleted, revocation keeps the audit trail.
type RefreshToken struct {
	JTI        string
	UserID     string
	SecretHash string
	IssuedAt   time.Time
	ExpiresAt  time.Time
	RevokedAt  *time.Time
}

// IsRevoked reports whether the token has been retired.
func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

// IsExpired reports whether the token passed its maximum lifetime at now.
func (t *RefreshToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// Usable reports whether the token may still mint access tokens.
func (t *RefreshToken) Usable(now time.Time) bool {
	return !t.IsRevoked() && !t.IsExpired(now)
}

// PasswordResetToken is a single-use reset capability. Consuming one
// invalidates every sibling for the same user.
type PasswordResetToken struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// Usable reports whether the token can still be consumed at now.
func (t *PasswordResetToken) Usable(now time.Time) bool {
	return t.UsedAt == nil && now.Before(t.ExpiresAt)
}
