package services

import (
	"errors"
	"testing"
	"time"

	"github.com/inkbook/studio/internal/domain/entities"
	"github.com/inkbook/studio/internal/infrastructure/config"
)

func TestTokenService_RoundTrip(t *testing.T) {
	svc := NewTokenService(config.JWTConfig{Secret: "s3cret", Issuer: "inkbook-identity", ExpiresIn: time.Hour})

	tok, err := svc.IssueToken("u1", 0)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	userID, err := svc.ValidateToken(tok)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if userID != "u1" {
		t.Fatalf("user id = %q", userID)
	}
}

func TestTokenService_Rejects(t *testing.T) {
	issuer := NewTokenService(config.JWTConfig{Secret: "s3cret", Issuer: "other", ExpiresIn: time.Hour})
	svc := NewTokenService(config.JWTConfig{Secret: "s3cret", Issuer: "inkbook-identity"})

	wrongIssuer, _ := issuer.IssueToken("u1", time.Hour)
	if _, err := svc.ValidateToken(wrongIssuer); !errors.Is(err, entities.ErrUnauthorized) {
		t.Fatalf("wrong issuer: expected ErrUnauthorized, got %v", err)
	}

	wrongKey, _ := NewTokenService(config.JWTConfig{Secret: "other", Issuer: "inkbook-identity"}).IssueToken("u1", time.Hour)
	if _, err := svc.ValidateToken(wrongKey); !errors.Is(err, entities.ErrUnauthorized) {
		t.Fatalf("wrong key: expected ErrUnauthorized, got %v", err)
	}

	expiredSvc := NewTokenService(config.JWTConfig{Secret: "s3cret", Issuer: "inkbook-identity"})
	expiredSvc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _ := expiredSvc.IssueToken("u1", time.Hour)
	if _, err := svc.ValidateToken(expired); !errors.Is(err, entities.ErrUnauthorized) {
		t.Fatalf("expired: expected ErrUnauthorized, got %v", err)
	}

	if _, err := svc.ValidateToken("not-a-jwt"); !errors.Is(err, entities.ErrUnauthorized) {
		t.Fatalf("garbage: expected ErrUnauthorized, got %v", err)
	}
}
