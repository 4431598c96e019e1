package middlewares

import (
	"net/http"

	httperrors "github.com/automl-platform/authgw/internal/http/errors"
	"github.com/automl-platform/authgw/internal/observability/logger"
)

// WithRecover turns handler panics into a JSON 500 instead of a dropped
// connection.
func WithRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.From(r.Context()).Error("panic recovered",
					logger.Path(r.URL.Path),
					logger.Any("panic", rec),
				)
				httperrors.WriteError(w, httperrors.ErrInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
