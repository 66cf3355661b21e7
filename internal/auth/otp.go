package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
)

const otpDigits = 6

// GenerateOTP returns a random 6-digit one-time code. When preset is
// non-empty (development configuration) it is returned verbatim so local
// clients can confirm without a delivery channel.
func GenerateOTP(preset string) (string, error) {
	if preset != "" {
		return preset, nil
	}
	max := big.NewInt(1000000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}

// HashOTP returns the hex SHA-256 digest of the code. Codes are short-lived
// and single-use, so a fast digest plus constant-time compare is sufficient.
func HashOTP(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// VerifyOTP compares a supplied code against the stored digest in constant
// time.
func VerifyOTP(code, storedHash string) bool {
	digest := HashOTP(code)
	return subtle.ConstantTimeCompare([]byte(digest), []byte(storedHash)) == 1
}
