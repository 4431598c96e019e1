// Package session exposes the authenticated-user endpoint.
package session

import (
	"errors"
	"net/http"
	"time"

	httperrors "github.com/automl-platform/authgw/internal/http/errors"
	"github.com/automl-platform/authgw/internal/http/helpers"
	"github.com/automl-platform/authgw/internal/http/middlewares"
	"github.com/automl-platform/authgw/internal/jwt"
	"github.com/automl-platform/authgw/internal/observability/logger"
	"github.com/automl-platform/authgw/internal/store/core"
)

// profileResponse is the wire shape of GET /api/auth/me.
type profileResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Provider    string `json:"provider,omitempty"`
	IsVerified  bool   `json:"is_verified"`
	CreatedAt   string `json:"created_at"`
}

// Controller serves the current-user profile from the verified credential.
type Controller struct {
	users core.UserRepository
}

func NewController(users core.UserRepository) *Controller {
	return &Controller{users: users}
}

// Me handles GET /api/auth/me. RequireAuth has already verified the token;
// the store lookup catches credentials for since-deleted users.
func (c *Controller) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middlewares.UserIDFromContext(ctx)

	u, err := c.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			httperrors.WriteError(w, httperrors.ErrUserNotFound)
			return
		}
		logger.From(ctx).Error("profile lookup failed", logger.Err(err))
		httperrors.WriteError(w, err)
		return
	}

	claims := middlewares.ClaimsFromContext(ctx)
	helpers.WriteJSON(w, http.StatusOK, profileResponse{
		ID:          u.ID,
		Email:       u.Email,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Provider:    jwt.ClaimString(claims, "provider"),
		IsVerified:  u.IsVerified,
		CreatedAt:   u.CreatedAt.UTC().Format(time.RFC3339),
	})
}
