// Package jwt issues and verifies the gateway's session credentials.
// Tokens are self-contained: validity is purely a function of signature and
// expiry, with no server-side record. The jti claim is carried for future
// replay/revocation tooling.
package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/automl-platform/authgw/internal/oauth"
	"github.com/automl-platform/authgw/internal/store/core"
)

var (
	// ErrSigningKeyMissing is fatal at startup: signing without a configured
	// secret is never silently defaulted.
	ErrSigningKeyMissing = errors.New("signing key missing")

	// ErrUnsupportedAlgorithm is fatal at startup.
	ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")

	// ErrTokenInvalid covers bad signatures, malformed tokens and expiry.
	ErrTokenInvalid = errors.New("invalid token")
)

// Issuer signs session credentials with a shared HMAC secret.
type Issuer struct {
	secret []byte
	method jwtv5.SigningMethod
	ttl    time.Duration
}

// NewIssuer builds an issuer from startup configuration.
// algorithm defaults to HS256 when empty.
func NewIssuer(secret, algorithm string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, ErrSigningKeyMissing
	}
	if ttl <= 0 {
		ttl = 60 * time.Minute
	}

	var method jwtv5.SigningMethod
	switch algorithm {
	case "", "HS256":
		method = jwtv5.SigningMethodHS256
	case "HS384":
		method = jwtv5.SigningMethodHS384
	case "HS512":
		method = jwtv5.SigningMethodHS512
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algorithm)
	}

	return &Issuer{secret: []byte(secret), method: method, ttl: ttl}, nil
}

// TTL returns the configured credential lifetime.
func (i *Issuer) TTL() time.Duration { return i.ttl }

// Issue signs the session credential for a reconciled user.
func (i *Issuer) Issue(u *core.User, provider oauth.ProviderID, providerUserID string) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(i.ttl)

	claims := jwtv5.MapClaims{
		"sub":          u.ID,
		"provider":     string(provider),
		"provider_uid": providerUserID,
		"name":         u.DisplayName,
		"email":        u.Email,
		"iat":          now.Unix(),
		"exp":          exp.Unix(),
		"jti":          uuid.NewString(),
	}

	tk := jwtv5.NewWithClaims(i.method, claims)
	tk.Header["typ"] = "JWT"
	signed, err := tk.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign credential: %w", err)
	}
	return signed, exp, nil
}

// Parse verifies signature and expiry and returns the claims.
func (i *Issuer) Parse(raw string) (jwtv5.MapClaims, error) {
	claims := jwtv5.MapClaims{}
	_, err := jwtv5.ParseWithClaims(raw, claims, func(t *jwtv5.Token) (any, error) {
		if _, ok := t.Method.(*jwtv5.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return i.secret, nil
	}, jwtv5.WithValidMethods([]string{i.method.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	return claims, nil
}

// ClaimString extracts a string claim, or "".
func ClaimString(claims jwtv5.MapClaims, key string) string {
	if v, ok := claims[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
