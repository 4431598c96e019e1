package core

import (
	"context"

	"github.com/automl-platform/authgw/internal/oauth"
)

// UserRepository is the external store contract consumed by reconciliation
// and the profile endpoint. Uniqueness guarantees per the User invariants;
// username collisions on Insert are resolved by the store (suffixing).
type UserRepository interface {
	Ping(ctx context.Context) error

	FindByProviderID(ctx context.Context, p oauth.ProviderID, providerUserID string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)

	// Insert persists a new user and fills in ID and CreatedAt.
	Insert(ctx context.Context, u *User) error
	// Update persists provider linkage and display-name changes.
	Update(ctx context.Context, u *User) error
}
