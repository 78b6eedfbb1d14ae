package auth

import (
	"testing"
	"time"
)

func newTestIssuer(clock func() time.Time) *TokenIssuer {
	return NewTokenIssuer(TokenIssuerConfig{
		SigningSecret: []byte("unit-test-secret"),
		Issuer:        "moringadesk-auth",
		Audience:      "moringadesk-api",
		TokenTTL:      30 * time.Minute,
		Clock:         clock,
	})
}

func TestIssueAndValidateToken(t *testing.T) {
	now := time.Unix(1756700000, 0).UTC()
	issuer := newTestIssuer(func() time.Time { return now })

	token, expiresIn, err := issuer.IssueToken("user-123", "student")
	if err != nil {
		t.Fatalf("unexpected issue error: %v", err)
	}
	if expiresIn != int64((30 * time.Minute).Seconds()) {
		t.Fatalf("unexpected expiry seconds: %d", expiresIn)
	}

	identity, err := issuer.ValidateToken(token)
	if err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
	if identity.UserID != "user-123" {
		t.Fatalf("unexpected subject: %q", identity.UserID)
	}
	if identity.Role != "student" {
		t.Fatalf("unexpected role: %q", identity.Role)
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	now := time.Unix(1756700000, 0).UTC()
	issuer := newTestIssuer(func() time.Time { return now })

	token, _, err := issuer.IssueToken("user-123", "student")
	if err != nil {
		t.Fatalf("unexpected issue error: %v", err)
	}

	now = now.Add(31 * time.Minute)
	if _, err := issuer.ValidateToken(token); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	now := time.Unix(1756700000, 0).UTC()
	issuer := newTestIssuer(func() time.Time { return now })
	other := NewTokenIssuer(TokenIssuerConfig{
		SigningSecret: []byte("a-different-secret"),
		Issuer:        "moringadesk-auth",
		Audience:      "moringadesk-api",
		Clock:         func() time.Time { return now },
	})

	token, _, err := issuer.IssueToken("user-123", "student")
	if err != nil {
		t.Fatalf("unexpected issue error: %v", err)
	}
	if _, err := other.ValidateToken(token); err == nil {
		t.Fatalf("expected token signed with another secret to be rejected")
	}
}

func TestValidateTokenRejectsWrongAudience(t *testing.T) {
	now := time.Unix(1756700000, 0).UTC()
	issuer := newTestIssuer(func() time.Time { return now })
	other := NewTokenIssuer(TokenIssuerConfig{
		SigningSecret: []byte("unit-test-secret"),
		Issuer:        "moringadesk-auth",
		Audience:      "another-service",
		Clock:         func() time.Time { return now },
	})

	token, _, err := issuer.IssueToken("user-123", "student")
	if err != nil {
		t.Fatalf("unexpected issue error: %v", err)
	}
	if _, err := other.ValidateToken(token); err == nil {
		t.Fatalf("expected audience mismatch to be rejected")
	}
}

func TestIssueTokenRequiresSubject(t *testing.T) {
	issuer := newTestIssuer(nil)
	if _, _, err := issuer.IssueToken("", "student"); err == nil {
		t.Fatalf("expected error for empty subject")
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	issuer := newTestIssuer(nil)
	if _, err := issuer.ValidateToken("not-a-jwt"); err == nil {
		t.Fatalf("expected malformed token to be rejected")
	}
}
