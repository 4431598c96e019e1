// Package social exposes the login flow over HTTP.
package social

import (
	"errors"
	"net/http"

	httperrors "github.com/automl-platform/authgw/internal/http/errors"
	"github.com/automl-platform/authgw/internal/http/middlewares"
	svc "github.com/automl-platform/authgw/internal/http/services/social"
	"github.com/automl-platform/authgw/internal/oauth"
	"github.com/automl-platform/authgw/internal/observability/logger"
)

// Controller handles the authorize redirect and the provider callback.
type Controller struct {
	start    *svc.StartService
	callback *svc.CallbackService
}

func NewController(start *svc.StartService, callback *svc.CallbackService) *Controller {
	return &Controller{start: start, callback: callback}
}

// Start handles GET /auth/{provider}.
// An unknown or unconfigured provider is a JSON error: there is no pending
// login yet, so nothing to fold into a frontend redirect.
func (c *Controller) Start(w http.ResponseWriter, r *http.Request) {
	provider, err := oauth.ParseProvider(r.PathValue("provider"))
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrUnsupportedProvider.WithDetail(r.PathValue("provider")))
		return
	}

	sid := middlewares.SessionIDFromContext(r.Context())
	redirect, err := c.start.Begin(r.Context(), provider, sid)
	if err != nil {
		if errors.Is(err, oauth.ErrUnsupportedProvider) {
			httperrors.WriteError(w, httperrors.ErrProviderNotConfigured.WithDetail(string(provider)))
			return
		}
		logger.From(r.Context()).Error("authorize redirect failed", logger.Err(err))
		httperrors.WriteError(w, err)
		return
	}

	http.Redirect(w, r, redirect, http.StatusFound)
}

// Callback handles GET /auth/{provider}/callback.
// Always answers with a 303 back to the frontend; error detail travels in
// the redirect query, never in the response body.
func (c *Controller) Callback(w http.ResponseWriter, r *http.Request) {
	provider, err := oauth.ParseProvider(r.PathValue("provider"))
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrUnsupportedProvider.WithDetail(r.PathValue("provider")))
		return
	}

	q := r.URL.Query()
	res := c.callback.Complete(r.Context(), provider, svc.CallbackInput{
		SessionID:  middlewares.SessionIDFromContext(r.Context()),
		Code:       q.Get("code"),
		State:      q.Get("state"),
		ErrorParam: q.Get("error"),
	})

	http.Redirect(w, r, res.RedirectURL, http.StatusSeeOther)
}
