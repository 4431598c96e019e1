// Package social orchestrates the two halves of the login flow: issuing the
// authorize redirect and completing the provider callback.
package social

import (
	"context"

	"github.com/automl-platform/authgw/internal/metrics"
	"github.com/automl-platform/authgw/internal/oauth"
	"github.com/automl-platform/authgw/internal/observability/logger"
	"github.com/automl-platform/authgw/internal/state"
)

// StartService builds the provider authorize redirect for a browser session.
type StartService struct {
	registry *oauth.Registry
	states   *state.Manager
}

func NewStartService(registry *oauth.Registry, states *state.Manager) *StartService {
	return &StartService{registry: registry, states: states}
}

// Begin mints a fresh CSRF state bound to the session and provider and
// returns the authorize URL to redirect the browser to.
// Issuing again for the same session replaces any earlier pending state.
func (s *StartService) Begin(ctx context.Context, provider oauth.ProviderID, sessionID string) (string, error) {
	cfg, err := s.registry.Get(provider)
	if err != nil {
		return "", err
	}

	token, err := s.states.Issue(sessionID, provider)
	if err != nil {
		return "", err
	}

	metrics.ObserveAuthorize(string(provider))
	logger.From(ctx).Info("authorize redirect issued",
		logger.Layer("service"),
		logger.Op("social.begin"),
		logger.Provider(string(provider)),
	)
	return oauth.AuthorizeURL(cfg, token), nil
}
