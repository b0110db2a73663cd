package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssueAndVerify(t *testing.T) {
	issuer, err := NewIssuer("secret", time.Hour)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	token, identity, err := issuer.IssueGuest("Ada")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if identity.PlayerID == "" {
		t.Fatalf("expected a player id")
	}
	got, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got != identity {
		t.Fatalf("expected %#v, got %#v", identity, got)
	}
}

func TestVerifyRejectsOtherSecret(t *testing.T) {
	a, _ := NewIssuer("one", time.Hour)
	b, _ := NewIssuer("two", time.Hour)
	token, _, _ := a.IssueGuest("Ada")
	if _, err := b.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	issuer, _ := NewIssuer("secret", time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, _, _ := issuer.IssueGuest("Ada")
	issuer.now = time.Now
	if _, err := issuer.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token rejected, got %v", err)
	}
}

func TestVerifyRejectsNoneAlgorithm(t *testing.T) {
	issuer, _ := NewIssuer("secret", time.Hour)
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "x"})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := issuer.Verify(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected unsigned token rejected, got %v", err)
	}
}

func TestNewIssuerRequiresSecret(t *testing.T) {
	if _, err := NewIssuer("  ", time.Hour); !errors.Is(err, ErrEmptySecret) {
		t.Fatalf("expected empty secret error, got %v", err)
	}
}
