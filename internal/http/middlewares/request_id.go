package middlewares

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/automl-platform/authgw/internal/observability/logger"
)

const requestIDHeader = "X-Request-Id"

// WithRequestID assigns every request an id, echoes it in the response and
// scopes the context logger with it.
func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}

		ctx := context.WithValue(r.Context(), requestIDKey, rid)
		ctx = logger.ToContext(ctx, logger.With(logger.RequestID(rid)))

		w.Header().Set(requestIDHeader, rid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
