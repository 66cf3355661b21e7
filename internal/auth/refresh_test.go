package auth

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestNewRefreshValueSplits(t *testing.T) {
	value, err := NewRefreshValue()
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	jti, secret, err := SplitRefreshValue(value.Raw)
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}
	if jti != value.JTI {
		t.Fatalf("expected jti %q, got %q", value.JTI, jti)
	}
	if !VerifyRefreshSecret(secret, value.SecretHash) {
		t.Fatal("secret does not verify against stored hash")
	}
}

func TestSplitRefreshValueMalformed(t *testing.T) {
	cases := []string{
		"",
		"no-separator",
		".leading-dot",
		"trailing-dot.",
		"not-a-uuid.secret",
	}
	for _, raw := range cases {
		if _, _, err := SplitRefreshValue(raw); !errors.Is(err, ErrRefreshMalformed) {
			t.Fatalf("value %q: expected ErrRefreshMalformed, got %v", raw, err)
		}
	}
}

func TestVerifyRefreshSecretRejectsWrongSecret(t *testing.T) {
	value, err := NewRefreshValue()
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if VerifyRefreshSecret("wrong-secret", value.SecretHash) {
		t.Fatal("wrong secret verified")
	}
}

func TestRefreshValuesAreUnique(t *testing.T) {
	a, err := NewRefreshValue()
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	b, err := NewRefreshValue()
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if a.Raw == b.Raw || a.JTI == b.JTI {
		t.Fatal("expected distinct refresh values")
	}
	if _, err := uuid.Parse(a.JTI); err != nil {
		t.Fatalf("jti is not a uuid: %v", err)
	}
}
