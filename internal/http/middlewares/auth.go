package middlewares

import (
	"context"
	"net/http"
	"strings"

	httperrors "github.com/automl-platform/authgw/internal/http/errors"
	"github.com/automl-platform/authgw/internal/jwt"
	"github.com/automl-platform/authgw/internal/observability/logger"
)

// RequireAuth verifies the bearer credential and puts its claims and the
// subject user id into the request context.
func RequireAuth(issuer *jwt.Issuer) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				httperrors.WriteError(w, httperrors.ErrTokenMissing)
				return
			}

			claims, err := issuer.Parse(raw)
			if err != nil {
				logger.From(r.Context()).Info("token rejected", logger.Err(err))
				httperrors.WriteError(w, httperrors.ErrTokenInvalid)
				return
			}

			sub := jwt.ClaimString(claims, "sub")
			if sub == "" {
				httperrors.WriteError(w, httperrors.ErrTokenInvalid)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			ctx = context.WithValue(ctx, userIDKey, sub)
			ctx = logger.ToContext(ctx, logger.From(ctx).With(logger.UserID(sub)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
