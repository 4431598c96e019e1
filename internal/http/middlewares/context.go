package middlewares

import (
	"context"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	sessionIDKey contextKey = "session_id"
	claimsKey    contextKey = "claims"
	userIDKey    contextKey = "user_id"
)

// RequestIDFromContext returns the request id, or "".
func RequestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

// SessionIDFromContext returns the browser session id, or "".
func SessionIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(sessionIDKey).(string)
	return v
}

// ClaimsFromContext returns the verified token claims, or nil.
func ClaimsFromContext(ctx context.Context) jwtv5.MapClaims {
	v, _ := ctx.Value(claimsKey).(jwtv5.MapClaims)
	return v
}

// UserIDFromContext returns the authenticated user id, or "".
func UserIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(userIDKey).(string)
	return v
}

// WithSessionID injects a session id, used by tests and the session middleware.
func WithSessionID(ctx context.Context, sid string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sid)
}
