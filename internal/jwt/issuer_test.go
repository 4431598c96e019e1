package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/automl-platform/authgw/internal/oauth"
	"github.com/automl-platform/authgw/internal/store/core"
)

const testSecret = "test-secret-at-least-32-bytes-long"

func testUser() *core.User {
	return &core.User{
		ID:          "user-1",
		Email:       "jane@example.com",
		DisplayName: "Jane Doe",
	}
}

func TestNewIssuerRejectsEmptySecret(t *testing.T) {
	if _, err := NewIssuer("", "HS256", time.Hour); !errors.Is(err, ErrSigningKeyMissing) {
		t.Errorf("want ErrSigningKeyMissing, got %v", err)
	}
}

func TestNewIssuerRejectsUnknownAlgorithm(t *testing.T) {
	if _, err := NewIssuer(testSecret, "RS256", time.Hour); !errors.Is(err, ErrUnsupportedAlgorithm) {
		t.Errorf("want ErrUnsupportedAlgorithm, got %v", err)
	}
}

func TestIssueParseRoundtrip(t *testing.T) {
	issuer, err := NewIssuer(testSecret, "HS256", time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}

	signed, exp, err := issuer.Issue(testUser(), oauth.Google, "g-123")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(exp) < 59*time.Minute {
		t.Errorf("exp too soon: %v", exp)
	}

	claims, err := issuer.Parse(signed)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := ClaimString(claims, "sub"); got != "user-1" {
		t.Errorf("sub = %q", got)
	}
	if got := ClaimString(claims, "provider"); got != "google" {
		t.Errorf("provider = %q", got)
	}
	if got := ClaimString(claims, "provider_uid"); got != "g-123" {
		t.Errorf("provider_uid = %q", got)
	}
	if ClaimString(claims, "jti") == "" {
		t.Error("jti missing")
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	issuer, _ := NewIssuer(testSecret, "HS256", time.Hour)
	signed, _, _ := issuer.Issue(testUser(), oauth.Google, "g-123")

	other, _ := NewIssuer("completely-different-secret-value", "HS256", time.Hour)
	if _, err := other.Parse(signed); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("want ErrTokenInvalid, got %v", err)
	}
}

func TestParseRejectsTampering(t *testing.T) {
	issuer, _ := NewIssuer(testSecret, "HS256", time.Hour)
	signed, _, _ := issuer.Issue(testUser(), oauth.Google, "g-123")

	tampered := signed[:len(signed)-2] + "xx"
	if _, err := issuer.Parse(tampered); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("want ErrTokenInvalid, got %v", err)
	}
}

func TestParseRejectsExpired(t *testing.T) {
	issuer, _ := NewIssuer(testSecret, "HS256", time.Millisecond)
	signed, _, _ := issuer.Issue(testUser(), oauth.Google, "g-123")

	time.Sleep(5 * time.Millisecond)
	if _, err := issuer.Parse(signed); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("want ErrTokenInvalid, got %v", err)
	}
}

func TestAlgorithmVariants(t *testing.T) {
	for _, alg := range []string{"HS256", "HS384", "HS512"} {
		issuer, err := NewIssuer(testSecret, alg, time.Hour)
		if err != nil {
			t.Fatalf("NewIssuer(%s): %v", alg, err)
		}
		signed, _, err := issuer.Issue(testUser(), oauth.Kakao, "k-1")
		if err != nil {
			t.Fatalf("Issue(%s): %v", alg, err)
		}
		if _, err := issuer.Parse(signed); err != nil {
			t.Errorf("Parse(%s): %v", alg, err)
		}
	}
}
