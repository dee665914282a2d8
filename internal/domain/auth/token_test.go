package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("super-secret")
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}

	if err := CheckPassword(hash, "super-secret"); err != nil {
		t.Fatalf("expected password to match, got %v", err)
	}

	if err := CheckPassword(hash, "wrong"); err == nil {
		t.Fatal("expected mismatch error")
	}
}

func TestGenerateAndParseToken(t *testing.T) {
	secret := "test-secret"
	claims := Claims{UserID: "u1", Email: "ani@example.com", SessionID: "s1"}

	token, err := GenerateToken(secret, claims, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	parsed, err := ParseToken(secret, token)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if parsed.UserID != claims.UserID || parsed.Email != claims.Email || parsed.SessionID != claims.SessionID {
		t.Fatalf("claims mismatch: %+v", parsed)
	}
	if parsed.Subject != "u1" {
		t.Fatalf("expected subject u1, got %q", parsed.Subject)
	}
}

func TestParseTokenRejectsWrongSecretAndExpiry(t *testing.T) {
	token, err := GenerateToken("secret-a", Claims{UserID: "u1"}, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if _, err := ParseToken("secret-b", token); err == nil {
		t.Fatal("expected signature error")
	}

	expired, err := GenerateToken("secret-a", Claims{UserID: "u1"}, -time.Minute)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if _, err := ParseToken("secret-a", expired); err == nil {
		t.Fatal("expected expiry error")
	}
}

func TestHashTokenStable(t *testing.T) {
	if HashToken("abc") != HashToken("abc") {
		t.Fatal("expected deterministic hash")
	}
	if HashToken("abc") == HashToken("abd") {
		t.Fatal("expected distinct hashes")
	}
}

func TestParseTokenRejectsForeignTokens(t *testing.T) {
	secret := "secret-a"
	now := time.Now()
	tests := []struct {
		name   string
		method jwt.SigningMethod
		claims Claims
	}{
		{
			name:   "other issuer",
			method: jwt.SigningMethodHS256,
			claims: Claims{UserID: "u1", RegisteredClaims: jwt.RegisteredClaims{Issuer: "elsewhere", Subject: "u1", ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))}},
		},
		{
			name:   "subject mismatch",
			method: jwt.SigningMethodHS256,
			claims: Claims{UserID: "u1", RegisteredClaims: jwt.RegisteredClaims{Issuer: TokenIssuer, Subject: "u2", ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))}},
		},
		{
			name:   "no expiry",
			method: jwt.SigningMethodHS256,
			claims: Claims{UserID: "u1", RegisteredClaims: jwt.RegisteredClaims{Issuer: TokenIssuer, Subject: "u1"}},
		},
		{
			name:   "hs512",
			method: jwt.SigningMethodHS512,
			claims: Claims{UserID: "u1", RegisteredClaims: jwt.RegisteredClaims{Issuer: TokenIssuer, Subject: "u1", ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))}},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			signed, err := jwt.NewWithClaims(tc.method, tc.claims).SignedString([]byte(secret))
			if err != nil {
				t.Fatalf("sign: %v", err)
			}
			if _, err := ParseToken(secret, signed); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}
