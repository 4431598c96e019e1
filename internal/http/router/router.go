// Package router wires the HTTP surface: routes, middleware chains and the
// fallback handlers.
package router

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	healthctrl "github.com/automl-platform/authgw/internal/http/controllers/health"
	sessionctrl "github.com/automl-platform/authgw/internal/http/controllers/session"
	socialctrl "github.com/automl-platform/authgw/internal/http/controllers/social"
	httperrors "github.com/automl-platform/authgw/internal/http/errors"
	"github.com/automl-platform/authgw/internal/http/middlewares"
	"github.com/automl-platform/authgw/internal/jwt"
)

// Deps carries everything the router needs, built in main.
type Deps struct {
	Social  *socialctrl.Controller
	Session *sessionctrl.Controller
	Health  *healthctrl.Controller
	Issuer  *jwt.Issuer
	Cookies middlewares.CookiePolicy

	// Gatherer defaults to the prometheus default gatherer.
	Gatherer prometheus.Gatherer
}

// New builds the root handler.
func New(d Deps) http.Handler {
	mux := http.NewServeMux()

	session := middlewares.WithSession(d.Cookies)
	auth := middlewares.RequireAuth(d.Issuer)

	mux.Handle("GET /auth/{provider}", middlewares.ChainFunc(d.Social.Start, session))
	mux.Handle("GET /auth/{provider}/callback", middlewares.ChainFunc(d.Social.Callback, session))
	mux.Handle("GET /api/auth/me", middlewares.ChainFunc(d.Session.Me, auth))

	mux.HandleFunc("GET /auth/health", d.Health.Ready)
	mux.HandleFunc("GET /healthz", d.Health.Live)

	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		httperrors.WriteError(w, httperrors.ErrRouteNotFound.WithDetail(r.URL.Path))
	})

	// Outermost first: ids before logging so every line carries them.
	return middlewares.Chain(mux,
		middlewares.WithRequestID,
		middlewares.WithRecover,
		middlewares.WithLogging,
	)
}
