package social

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/automl-platform/authgw/internal/auth"
	"github.com/automl-platform/authgw/internal/jwt"
	"github.com/automl-platform/authgw/internal/metrics"
	"github.com/automl-platform/authgw/internal/oauth"
	"github.com/automl-platform/authgw/internal/observability/logger"
	"github.com/automl-platform/authgw/internal/state"
)

// Redirect error codes surfaced to the frontend. The frontend shows a
// generic failure message; the code is for diagnostics, not for branching.
const (
	CodeProviderError          = "provider_error"
	CodeMissingCode            = "missing_code"
	CodeStateMismatch          = "state_mismatch"
	CodeTokenExchangeFailed    = "token_exchange_failed"
	CodeProfileFetchFailed     = "profile_fetch_failed"
	CodeMissingEmail           = "missing_email"
	CodeReconciliationConflict = "reconciliation_conflict"
	CodeServerError            = "server_error"
)

// CallbackInput carries the raw callback query parameters plus the browser
// session the callback arrived on.
type CallbackInput struct {
	SessionID  string
	Code       string
	State      string
	ErrorParam string // provider-sent error, e.g. access_denied
}

// Result is what the controller redirects the browser to. Failed is set on
// every error path so callers never have to inspect the URL.
type Result struct {
	RedirectURL string
	Failed      bool
	Code        string // error code, "" on success
}

// CallbackService completes a provider callback: verify state, exchange the
// code, fetch and normalize the profile, reconcile the user and sign the
// session credential. Every outcome, success or failure, ends in a redirect
// back to the frontend.
type CallbackService struct {
	registry    *oauth.Registry
	states      *state.Manager
	client      *oauth.Client
	reconciler  *auth.Reconciler
	issuer      *jwt.Issuer
	frontendURL string
}

func NewCallbackService(
	registry *oauth.Registry,
	states *state.Manager,
	client *oauth.Client,
	reconciler *auth.Reconciler,
	issuer *jwt.Issuer,
	frontendURL string,
) *CallbackService {
	return &CallbackService{
		registry:    registry,
		states:      states,
		client:      client,
		reconciler:  reconciler,
		issuer:      issuer,
		frontendURL: frontendURL,
	}
}

// Complete runs the callback pipeline. It never returns an error: failures
// are folded into the redirect so the browser always lands on the frontend.
func (s *CallbackService) Complete(ctx context.Context, provider oauth.ProviderID, in CallbackInput) Result {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Op("social.callback"),
		logger.Provider(string(provider)),
	)

	// Provider-reported error (user denied consent, provider outage).
	// Pending state is discarded so it cannot be replayed later.
	if in.ErrorParam != "" {
		s.states.Discard(in.SessionID)
		log.Info("provider returned error", logger.String("provider_error", in.ErrorParam))
		return s.fail(provider, CodeProviderError)
	}

	if in.Code == "" {
		s.states.Discard(in.SessionID)
		log.Info("callback missing authorization code")
		return s.fail(provider, CodeMissingCode)
	}

	// Single use: Verify consumes the stored state on every outcome.
	if err := s.states.Verify(in.SessionID, provider, in.State); err != nil {
		log.Warn("state verification failed", logger.Err(err))
		return s.fail(provider, CodeStateMismatch)
	}

	cfg, err := s.registry.Get(provider)
	if err != nil {
		log.Error("provider vanished from registry", logger.Err(err))
		return s.fail(provider, CodeServerError)
	}

	accessToken, err := s.client.Exchange(ctx, cfg, in.Code, in.State)
	if err != nil {
		log.Warn("token exchange failed", logger.Err(err))
		return s.fail(provider, CodeTokenExchangeFailed)
	}

	ident, err := s.client.FetchIdentity(ctx, cfg, accessToken)
	if err != nil {
		log.Warn("profile fetch failed", logger.Err(err))
		return s.fail(provider, CodeProfileFetchFailed)
	}

	user, err := s.reconciler.Reconcile(ctx, ident)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrMissingEmail):
			log.Info("identity has no email, refusing to create account")
			return s.fail(provider, CodeMissingEmail)
		case errors.Is(err, auth.ErrReconciliationConflict):
			log.Warn("reconciliation conflict not resolved", logger.Err(err))
			return s.fail(provider, CodeReconciliationConflict)
		default:
			log.Error("reconciliation failed", logger.Err(err))
			return s.fail(provider, CodeServerError)
		}
	}

	signed, exp, err := s.issuer.Issue(user, provider, ident.ProviderUserID)
	if err != nil {
		log.Error("credential signing failed", logger.Err(err))
		return s.fail(provider, CodeServerError)
	}

	metrics.ObserveLogin(string(provider), metrics.ResultSuccess)
	log.Info("login completed",
		logger.UserID(user.ID),
		logger.String("expires_at", exp.UTC().Format(time.RFC3339)),
	)
	return Result{RedirectURL: s.successURL(signed)}
}

func (s *CallbackService) fail(provider oauth.ProviderID, code string) Result {
	metrics.ObserveLogin(string(provider), code)
	return Result{RedirectURL: s.errorURL(code), Failed: true, Code: code}
}

func (s *CallbackService) successURL(token string) string {
	q := url.Values{}
	q.Set("login", "success")
	q.Set("token", token)
	return s.frontendURL + "?" + q.Encode()
}

func (s *CallbackService) errorURL(code string) string {
	q := url.Values{}
	q.Set("login", "error")
	q.Set("error", code)
	return s.frontendURL + "?" + q.Encode()
}
