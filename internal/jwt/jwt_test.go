package jwt

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, claims jwtlib.MapClaims) string {
	t.Helper()
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return signed
}

func TestExpiry(t *testing.T) {
	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	raw := signedToken(t, jwtlib.MapClaims{"sub": "user", "exp": exp.Unix()})

	got, err := Expiry(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(exp) {
		t.Errorf("expected expiry %v, got %v", exp, got)
	}
}

func TestExpiryMissingClaim(t *testing.T) {
	raw := signedToken(t, jwtlib.MapClaims{"sub": "user"})
	if _, err := Expiry(raw); err == nil {
		t.Fatal("expected error for token without exp claim")
	}
}

func TestExpiryGarbage(t *testing.T) {
	if _, err := Expiry("not-a-token"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}
