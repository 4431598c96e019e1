// Package health exposes liveness and readiness endpoints.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/automl-platform/authgw/internal/http/helpers"
	"github.com/automl-platform/authgw/internal/oauth"
	"github.com/automl-platform/authgw/internal/observability/logger"
	"github.com/automl-platform/authgw/internal/store/core"
)

type healthResponse struct {
	Status    string            `json:"status"`
	Store     string            `json:"store"`
	Providers map[string]string `json:"providers"`
}

// Controller reports gateway health and provider configuration status.
type Controller struct {
	registry *oauth.Registry
	users    core.UserRepository
}

func NewController(registry *oauth.Registry, users core.UserRepository) *Controller {
	return &Controller{registry: registry, users: users}
}

// Live handles GET /healthz: process is up, nothing else checked.
func (c *Controller) Live(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready handles GET /auth/health: pings the user store and reports which
// providers are configured. A failing store degrades status to "degraded"
// but still answers 200 so dashboards see the detail.
func (c *Controller) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{
		Status:    "ok",
		Store:     "ok",
		Providers: make(map[string]string, len(oauth.Providers())),
	}

	if err := c.users.Ping(ctx); err != nil {
		logger.From(ctx).Warn("store ping failed", logger.Err(err))
		resp.Status = "degraded"
		resp.Store = "unreachable"
	}

	for _, p := range oauth.Providers() {
		if c.registry.Has(p) {
			resp.Providers[string(p)] = "configured"
		} else {
			resp.Providers[string(p)] = "disabled"
		}
	}

	helpers.WriteJSON(w, http.StatusOK, resp)
}
