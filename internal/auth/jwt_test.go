package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/marklet/marklet/internal/domain"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestMintAndVerify(t *testing.T) {
	tokens := NewTokens(testSecret, time.Hour)
	ident := domain.Identity{ID: "user-1", Email: "u@example.com"}

	token, jti, expires, err := tokens.Mint(ident)
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}
	if jti == "" {
		t.Error("Mint() returned empty jti")
	}
	if !expires.After(time.Now()) {
		t.Error("Mint() expiry is not in the future")
	}

	claims, err := tokens.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if got := claims.Identity(); got != ident {
		t.Errorf("Verify() identity = %+v, want %+v", got, ident)
	}
	if claims.ID != jti {
		t.Errorf("Verify() jti = %q, want %q", claims.ID, jti)
	}
}

func TestVerifyExpired(t *testing.T) {
	tokens := NewTokens(testSecret, -time.Minute)
	token, _, _, err := tokens.Mint(domain.Identity{ID: "user-1", Email: "u@example.com"})
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}

	if _, err := tokens.Verify(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("Verify(expired) error = %v, want ErrExpiredToken", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	tokens := NewTokens(testSecret, time.Hour)
	token, _, _, err := tokens.Mint(domain.Identity{ID: "user-1", Email: "u@example.com"})
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}

	other := NewTokens([]byte("another-secret-another-secret-00"), time.Hour)
	if _, err := other.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify(wrong secret) error = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyGarbage(t *testing.T) {
	tokens := NewTokens(testSecret, time.Hour)
	if _, err := tokens.Verify("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify(garbage) error = %v, want ErrInvalidToken", err)
	}
}

func TestContextRoundTrip(t *testing.T) {
	ident := domain.Identity{ID: "user-1", Email: "u@example.com"}
	ctx := WithSession(context.Background(), ident, "jti-1")

	got, ok := IdentityFrom(ctx)
	if !ok || got != ident {
		t.Errorf("IdentityFrom() = %+v, %v; want %+v, true", got, ok, ident)
	}
	jti, ok := SessionFrom(ctx)
	if !ok || jti != "jti-1" {
		t.Errorf("SessionFrom() = %q, %v; want %q, true", jti, ok, "jti-1")
	}

	if _, ok := IdentityFrom(context.Background()); ok {
		t.Error("IdentityFrom() on bare context should report false")
	}
}
