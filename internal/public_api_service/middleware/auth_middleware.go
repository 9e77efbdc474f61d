package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	chi_middleware "github.com/go-chi/chi/v5/middleware"
)

// Decision is the outcome of checking a presented bearer token.
type Decision int

const (
	DecisionAllowed Decision = iota
	DecisionUnauthenticated
	DecisionForbidden
)

func (d Decision) String() string {
	switch d {
	case DecisionAllowed:
		return "allowed"
	case DecisionUnauthenticated:
		return "unauthenticated"
	case DecisionForbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Authorize compares the presented token with the configured secret.
// An empty secret disables the check.
func Authorize(presented, configured string) Decision {
	if configured == "" {
		return DecisionAllowed
	}
	if presented == "" {
		return DecisionUnauthenticated
	}
	if subtle.ConstantTimeCompare([]byte(presented), []byte(configured)) != 1 {
		return DecisionForbidden
	}
	return DecisionAllowed
}

// BearerToken returns the token from an "Authorization: Bearer <token>" header,
// falling back to the access_token query parameter.
func BearerToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		scheme, token, ok := strings.Cut(strings.TrimSpace(authHeader), " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	return r.URL.Query().Get("access_token")
}

// AuthMiddleware rejects requests whose bearer token does not match secret.
func AuthMiddleware(secret string, logger *slog.Logger) func(next http.Handler) http.Handler {
	logger = logger.With("component", "auth_middleware")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			switch Authorize(BearerToken(r), secret) {
			case DecisionUnauthenticated:
				logger.WarnContext(ctx, "Bearer token missing", "request_id", chi_middleware.GetReqID(ctx), "path", r.URL.Path)
				writeStatusMessage(w, http.StatusUnauthorized, "No Bearer Token provided")
				return
			case DecisionForbidden:
				logger.WarnContext(ctx, "Bearer token rejected", "request_id", chi_middleware.GetReqID(ctx), "path", r.URL.Path)
				writeStatusMessage(w, http.StatusForbidden, "Invalid Bearer Token provided")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
