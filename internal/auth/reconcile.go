// Package auth implements identity reconciliation: matching, linking or
// creating the local user record for a normalized external identity.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/automl-platform/authgw/internal/oauth"
	"github.com/automl-platform/authgw/internal/observability/logger"
	"github.com/automl-platform/authgw/internal/store/core"
)

var (
	// ErrMissingEmail: the identity matched no user and carries no email,
	// so no account can be created or safely merged.
	ErrMissingEmail = errors.New("identity has no email")

	// ErrReconciliationConflict: concurrent callbacks kept winning the
	// uniqueness constraints for the bounded retry window.
	ErrReconciliationConflict = errors.New("reconciliation conflict")
)

// maxAttempts bounds the retry on uniqueness conflicts. A conflict means a
// concurrent callback reconciled the same person first; the retry re-runs
// the whole lookup sequence and normally lands on the exact-match fast path.
const maxAttempts = 3

// Reconciler applies the match/link/create precedence against the user store.
type Reconciler struct {
	users core.UserRepository
}

func NewReconciler(users core.UserRepository) *Reconciler {
	return &Reconciler{users: users}
}

// Reconcile resolves an external identity to a local user:
//
//  1. exact match on (provider, provider user id): returning user;
//  2. match on email: link this provider to the existing account;
//  3. create a new verified, passwordless account from the email;
//  4. no match and no email: fail.
//
// Display name changes from the provider are absorbed on paths 1 and 2.
// Idempotent: a repeat call with the same identity returns the same user.
func (r *Reconciler) Reconcile(ctx context.Context, ident oauth.Identity) (*core.User, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.reconcile"),
		logger.Provider(string(ident.Provider)),
	)

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		u, err := r.reconcileOnce(ctx, ident, log)
		if err == nil {
			return u, nil
		}
		if !errors.Is(err, core.ErrConflict) {
			return nil, err
		}
		// Someone else won the uniqueness race; re-run the lookups.
		lastErr = err
		log.Debug("reconcile conflict, retrying", logger.Int("attempt", attempt+1))
	}
	log.Warn("reconcile attempts exhausted", logger.Err(lastErr))
	return nil, ErrReconciliationConflict
}

func (r *Reconciler) reconcileOnce(ctx context.Context, ident oauth.Identity, log *zap.Logger) (*core.User, error) {
	// 1) Returning-user fast path.
	u, err := r.users.FindByProviderID(ctx, ident.Provider, ident.ProviderUserID)
	switch {
	case err == nil:
		if refreshDisplayName(u, ident) {
			if err := r.users.Update(ctx, u); err != nil {
				return nil, err
			}
		}
		return u, nil
	case !errors.Is(err, core.ErrNotFound):
		return nil, fmt.Errorf("lookup by provider id: %w", err)
	}

	// Steps 2 and 3 require an email-bearing identity.
	if ident.Email == "" {
		return nil, ErrMissingEmail
	}

	// 2) Link a second provider to the account sharing the verified email.
	u, err = r.users.FindByEmail(ctx, ident.Email)
	switch {
	case err == nil:
		u.SetProviderID(ident.Provider, ident.ProviderUserID)
		refreshDisplayName(u, ident)
		if err := r.users.Update(ctx, u); err != nil {
			return nil, err
		}
		log.Info("provider linked",
			logger.UserID(u.ID),
			logger.String("email_masked", maskEmail(ident.Email)),
		)
		return u, nil
	case !errors.Is(err, core.ErrNotFound):
		return nil, fmt.Errorf("lookup by email: %w", err)
	}

	// 3) First social login for this email: create the account.
	u = &core.User{
		Email:          ident.Email,
		Username:       usernameFromEmail(ident.Email),
		DisplayName:    ident.DisplayName,
		CredentialHash: "", // no password flow for social-originated accounts
		IsActive:       true,
		IsVerified:     true, // the provider already attests email ownership
	}
	u.SetProviderID(ident.Provider, ident.ProviderUserID)
	if err := r.users.Insert(ctx, u); err != nil {
		return nil, err
	}
	log.Info("user created",
		logger.UserID(u.ID),
		logger.String("email_masked", maskEmail(ident.Email)),
	)
	return u, nil
}

// refreshDisplayName absorbs a changed, non-empty display name.
func refreshDisplayName(u *core.User, ident oauth.Identity) bool {
	if ident.DisplayName == "" || ident.DisplayName == u.DisplayName {
		return false
	}
	u.DisplayName = ident.DisplayName
	return true
}

// usernameFromEmail derives the username from the email local-part.
// Collision handling is owned by the store.
func usernameFromEmail(email string) string {
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return email
}

// maskEmail masks an email for logging (first 2 chars + domain).
func maskEmail(email string) string {
	if len(email) < 3 {
		return "***"
	}
	at := strings.IndexByte(email, '@')
	if at < 2 {
		return email[:2] + "***"
	}
	return email[:2] + "***" + email[at:]
}
