package token

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	svc, err := NewService("test-secret", "dmphub", opts...)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestRoundTrip(t *testing.T) {
	svc := newTestService(t)

	tok, expiresAt, err := svc.Encode("client-42", time.Hour)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("expected future expiration, got %v", expiresAt)
	}

	claims, err := svc.Decode(tok)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if claims.ClientID != "client-42" {
		t.Fatalf("unexpected client id: %s", claims.ClientID)
	}
	if claims.Issuer != "dmphub" {
		t.Fatalf("unexpected issuer: %s", claims.Issuer)
	}
}

func TestExpiredTokenDistinguished(t *testing.T) {
	svc := newTestService(t)

	tok, _, err := svc.Encode("client-42", -time.Second)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := svc.Decode(tok); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestExpirationUsesInjectedClock(t *testing.T) {
	now := time.Now()
	svc := newTestService(t, WithClock(func() time.Time { return now }))

	tok, _, err := svc.Encode("client-42", time.Minute)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := svc.Decode(tok); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken after clock advance, got %v", err)
	}
}

func TestMalformedToken(t *testing.T) {
	svc := newTestService(t)

	for _, raw := range []string{"", "   ", "not.a.jwt", "a.b"} {
		if _, err := svc.Decode(raw); !errors.Is(err, ErrMalformedToken) {
			t.Fatalf("Decode(%q): expected ErrMalformedToken, got %v", raw, err)
		}
	}
}

func TestTamperedTokenIsMalformedNotExpired(t *testing.T) {
	svc := newTestService(t)

	tok, _, err := svc.Encode("client-42", time.Hour)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	tampered := tok[:strings.LastIndex(tok, ".")+1] + "forgedsignature"
	if _, err := svc.Decode(tampered); !errors.Is(err, ErrMalformedToken) {
		t.Fatalf("expected ErrMalformedToken, got %v", err)
	}
}

func TestWrongIssuerRejected(t *testing.T) {
	other, err := NewService("test-secret", "someone-else")
	if err != nil {
		t.Fatal(err)
	}
	tok, _, err := other.Encode("client-42", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	svc := newTestService(t)
	if _, err := svc.Decode(tok); !errors.Is(err, ErrMalformedToken) {
		t.Fatalf("expected issuer mismatch rejection, got %v", err)
	}
}

func TestNewServiceRequiresSecret(t *testing.T) {
	if _, err := NewService("  ", "dmphub"); err == nil {
		t.Fatal("expected error for empty secret")
	}
}
