package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const secret = "test-secret"

func TestGenerateAndValidate(t *testing.T) {
	tok, err := GenerateAccessToken("admin-1", "ops@example.com", RoleAdmin, secret, time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := ValidateAccessToken(tok, secret)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != "admin-1" || claims.Role != RoleAdmin || claims.Email != "ops@example.com" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestValidate_Rejects(t *testing.T) {
	expired, _ := GenerateAccessToken("admin-1", "", RoleAdmin, secret, -time.Minute)
	if _, err := ValidateAccessToken(expired, secret); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expired: want ErrTokenExpired, got %v", err)
	}

	other, _ := GenerateAccessToken("admin-1", "", RoleAdmin, "other-secret", time.Minute)
	if _, err := ValidateAccessToken(other, secret); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("wrong secret: want ErrTokenInvalid, got %v", err)
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "x", RegisteredClaims: jwt.RegisteredClaims{Issuer: Issuer}})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, err := ValidateAccessToken(unsigned, secret); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("alg none: want ErrTokenInvalid, got %v", err)
	}

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: "x", RegisteredClaims: jwt.RegisteredClaims{Issuer: "someone-else"}})
	signed, _ := foreign.SignedString([]byte(secret))
	if _, err := ValidateAccessToken(signed, secret); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("foreign issuer: want ErrTokenInvalid, got %v", err)
	}

	if _, err := ValidateAccessToken("garbage", secret); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("garbage: want ErrTokenInvalid, got %v", err)
	}
}
