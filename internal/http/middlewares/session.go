package middlewares

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/automl-platform/authgw/internal/observability/logger"
)

// CookiePolicy is the session cookie shape, injected from configuration.
type CookiePolicy struct {
	Name     string
	MaxAge   time.Duration
	SameSite http.SameSite
	HTTPOnly bool
	Secure   bool
}

// WithSession guarantees every request carries a browser session id.
// The id binds the anti-forgery state to the browser that started the login,
// so it must exist before the authorize redirect is issued.
func WithSession(policy CookiePolicy) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid := ""
			if c, err := r.Cookie(policy.Name); err == nil && c.Value != "" {
				sid = c.Value
			}
			if sid == "" {
				sid = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     policy.Name,
					Value:    sid,
					Path:     "/",
					MaxAge:   int(policy.MaxAge.Seconds()),
					SameSite: policy.SameSite,
					HttpOnly: policy.HTTPOnly,
					Secure:   policy.Secure,
				})
			}

			ctx := WithSessionID(r.Context(), sid)
			ctx = logger.ToContext(ctx, logger.From(ctx).With(logger.SessionID(sid)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
