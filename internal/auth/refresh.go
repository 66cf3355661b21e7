package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// Refresh tokens are opaque values of the form "<jti>.<secret>". The jti is
// the revocation key stored server-side; only the SHA-256 digest of the
// secret half is persisted, so leaked rows cannot be replayed.

// ErrRefreshMalformed is returned for values that do not split into a jti
// and a secret.
var ErrRefreshMalformed = errors.New("malformed refresh token")

const refreshSecretBytes = 32

// RefreshValue is a freshly minted refresh token plus the digest to persist.
type RefreshValue struct {
	JTI        string
	Raw        string
	SecretHash string
}

// NewRefreshValue mints a refresh token with a new jti and random secret.
func NewRefreshValue() (RefreshValue, error) {
	buf := make([]byte, refreshSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return RefreshValue{}, err
	}
	jti := uuid.NewString()
	secret := hex.EncodeToString(buf)
	return RefreshValue{
		JTI:        jti,
		Raw:        jti + "." + secret,
		SecretHash: HashRefreshSecret(secret),
	}, nil
}

// SplitRefreshValue decodes a client-supplied refresh token into its jti and
// secret halves.
func SplitRefreshValue(raw string) (jti, secret string, err error) {
	parts := strings.SplitN(raw, ".", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", ErrRefreshMalformed
	}
	if _, err := uuid.Parse(parts[0]); err != nil {
		return "", "", ErrRefreshMalformed
	}
	return parts[0], parts[1], nil
}

// HashRefreshSecret returns the hex SHA-256 digest of the secret half.
func HashRefreshSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// VerifyRefreshSecret compares a supplied secret against the stored digest
// in constant time.
func VerifyRefreshSecret(secret, storedHash string) bool {
	digest := HashRefreshSecret(secret)
	return subtle.ConstantTimeCompare([]byte(digest), []byte(storedHash)) == 1
}
