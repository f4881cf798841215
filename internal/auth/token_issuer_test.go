package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenIssuerIssuesBackendTokens(t *testing.T) {
	issuer := NewTokenIssuer(TokenIssuerConfig{
		SigningSecret: []byte("super-secret"),
		TokenTTL:      30 * time.Minute,
	})

	tokenString, expiresIn, err := issuer.IssueBackendToken(context.Background(), "user-123")
	if err != nil {
		t.Fatalf("expected successful issuance: %v", err)
	}

	if expiresIn <= 0 {
		t.Fatalf("expected positive expiry seconds, got %d", expiresIn)
	}

	parser := jwt.Parser{}
	claims := &jwt.RegisteredClaims{}

	_, err = parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("super-secret"), nil
	})
	if err != nil {
		t.Fatalf("failed to parse generated token: %v", err)
	}

	if claims.Subject != "user-123" {
		t.Fatalf("unexpected subject %s", claims.Subject)
	}
	if claims.Issuer != tokenIssuerName {
		t.Fatalf("unexpected issuer %s", claims.Issuer)
	}
	if len(claims.Audience) == 0 || claims.Audience[0] != tokenIssuerName {
		t.Fatalf("unexpected audience %#v", claims.Audience)
	}
}

func TestTokenIssuerRejectsMissingSecret(t *testing.T) {
	issuer := NewTokenIssuer(TokenIssuerConfig{
		SigningSecret: nil,
		TokenTTL:      30 * time.Minute,
	})
	if _, _, err := issuer.IssueBackendToken(context.Background(), "user-1"); err == nil {
		t.Fatalf("expected issuance error for missing secret")
	}
	if _, err := issuer.ValidateToken("anything"); err == nil {
		t.Fatalf("expected validation error for missing secret")
	}
}

func TestTokenIssuerRejectsEmptySubject(t *testing.T) {
	issuer := NewTokenIssuer(TokenIssuerConfig{
		SigningSecret: []byte("secret"),
		TokenTTL:      30 * time.Minute,
	})
	if _, _, err := issuer.IssueBackendToken(context.Background(), ""); err == nil {
		t.Fatalf("expected issuance error for empty subject")
	}
}

func TestTokenIssuerValidatesIssuedTokens(t *testing.T) {
	issuer := NewTokenIssuer(TokenIssuerConfig{
		SigningSecret: []byte("another-secret"),
		TokenTTL:      15 * time.Minute,
	})

	tokenString, _, err := issuer.IssueBackendToken(context.Background(), "user-321")
	if err != nil {
		t.Fatalf("unexpected error issuing token: %v", err)
	}

	subject, err := issuer.ValidateToken(tokenString)
	if err != nil {
		t.Fatalf("expected validation success: %v", err)
	}
	if subject != "user-321" {
		t.Fatalf("unexpected subject %s", subject)
	}

	if _, err := issuer.ValidateToken("invalid.token"); err == nil {
		t.Fatalf("expected validation to fail for malformed token")
	}
}

func TestTokenIssuerRejectsExpiredTokens(t *testing.T) {
	clockNow := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	issuer := NewTokenIssuer(TokenIssuerConfig{
		SigningSecret: []byte("secret"),
		TokenTTL:      time.Minute,
		Clock: func() time.Time {
			return clockNow
		},
	})

	tokenString, _, err := issuer.IssueBackendToken(context.Background(), "user-9")
	if err != nil {
		t.Fatalf("unexpected error issuing token: %v", err)
	}

	later := NewTokenIssuer(TokenIssuerConfig{
		SigningSecret: []byte("secret"),
		TokenTTL:      time.Minute,
		Clock: func() time.Time {
			return clockNow.Add(time.Hour)
		},
	})
	if _, err := later.ValidateToken(tokenString); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}
