package core

import (
	"time"

	"github.com/automl-platform/authgw/internal/oauth"
)

// User is the persistent local account an external identity reconciles to.
//
// Invariants owned by the store: Email and Username are globally unique;
// for every provider, at most one user holds a given provider user id.
// Social-originated accounts carry an empty CredentialHash.
type User struct {
	ID             string
	Email          string
	Username       string
	DisplayName    string
	CredentialHash string
	IsActive       bool
	IsVerified     bool
	CreatedAt      time.Time

	// ProviderIDs maps each linked provider to the external user id.
	// Absent providers are simply not present in the map.
	ProviderIDs map[oauth.ProviderID]string
}

// ProviderID returns the linked external id for a provider, or "".
func (u *User) ProviderID(p oauth.ProviderID) string {
	if u.ProviderIDs == nil {
		return ""
	}
	return u.ProviderIDs[p]
}

// SetProviderID links an external id to the user.
func (u *User) SetProviderID(p oauth.ProviderID, id string) {
	if u.ProviderIDs == nil {
		u.ProviderIDs = make(map[oauth.ProviderID]string, 1)
	}
	u.ProviderIDs[p] = id
}
