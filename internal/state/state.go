// Package state implements the session-bound, single-use CSRF state used by
// the social login flow. State is an explicit keyed store with an expiry
// policy, not an attribute bag on a generic session object.
package state

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/automl-platform/authgw/internal/cache"
	"github.com/automl-platform/authgw/internal/oauth"
)

// ErrStateMismatch is the single failure mode of verification: absent,
// expired, mismatched, cross-session or cross-provider state all look the
// same to the caller.
var ErrStateMismatch = fmt.Errorf("state mismatch or expired")

const keyPrefix = "state:"

// entry is the stored shape, bound to the provider the state was minted for.
type entry struct {
	Token    string           `json:"token"`
	Provider oauth.ProviderID `json:"provider"`
	IssuedAt int64            `json:"issued_at"`
}

// Manager issues and verifies per-session CSRF tokens over a cache backend.
type Manager struct {
	cache cache.Cache
	ttl   time.Duration
}

// NewManager creates a state manager whose tokens live for ttl.
func NewManager(c cache.Cache, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Manager{cache: c, ttl: ttl}
}

// Issue generates a cryptographically random token and stores it under the
// session. A second Issue for the same session replaces the previous token.
func (m *Manager) Issue(sessionID string, provider oauth.ProviderID) (string, error) {
	var buf [32]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf[:])

	b, err := json.Marshal(entry{
		Token:    token,
		Provider: provider,
		IssuedAt: time.Now().Unix(),
	})
	if err != nil {
		return "", fmt.Errorf("encode state: %w", err)
	}
	m.cache.Set(keyPrefix+sessionID, b, m.ttl)
	return token, nil
}

// Verify checks the supplied token against the one stored for the session
// and deletes the stored token on any outcome (single use).
//
// A literal "null" is what some clients send for an absent parameter; it is
// rejected like any other invalid state, never treated as a bypass.
func (m *Manager) Verify(sessionID string, provider oauth.ProviderID, supplied string) error {
	key := keyPrefix + sessionID
	b, ok := m.cache.Get(key)
	m.cache.Delete(key)

	if !ok {
		return ErrStateMismatch
	}
	if supplied == "" || supplied == "null" {
		return ErrStateMismatch
	}

	var e entry
	if err := json.Unmarshal(b, &e); err != nil {
		return ErrStateMismatch
	}
	if e.Provider != provider {
		return ErrStateMismatch
	}
	if subtle.ConstantTimeCompare([]byte(e.Token), []byte(supplied)) != 1 {
		return ErrStateMismatch
	}
	return nil
}

// Discard drops any stored state for the session without verifying it.
// Used when a callback terminates before state verification.
func (m *Manager) Discard(sessionID string) {
	m.cache.Delete(keyPrefix + sessionID)
}
