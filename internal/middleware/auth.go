package middleware

import (
	"context"
	"net/http"
	"strings"

	"skinvault-api/internal/model"
	"skinvault-api/internal/service"
	"skinvault-api/pkg/apierror"
)

// SessionKey is the key for storing the resolved session in request context.
const SessionKey contextKey = "session"

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Sessions *service.SessionService
}

// NewAuthMiddleware creates a session authentication middleware with
// injected dependencies. A request without a resolvable session is
// rejected before any handler work runs.
func NewAuthMiddleware(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("X-Token")
			if token == "" {
				if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
					token = strings.TrimPrefix(auth, "Bearer ")
				}
			}
			if token == "" {
				writeError(w, apierror.Unauthorized("Authentication required. Use X-Token or a bearer token."))
				return
			}

			if cfg.Sessions == nil {
				writeError(w, apierror.ServiceUnavailable("session store unavailable"))
				return
			}

			session, err := cfg.Sessions.Get(r.Context(), token)
			if err != nil {
				writeError(w, apierror.Unauthorized("Invalid or expired session"))
				return
			}

			ctx := context.WithValue(r.Context(), SessionKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeError writes an API error response.
func writeError(w http.ResponseWriter, err *apierror.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode)
	w.Write(err.ToJSON())
}

// GetSessionFromContext retrieves the authenticated session from request
// context, or nil when the request was not authenticated.
func GetSessionFromContext(ctx context.Context) *model.Session {
	if s, ok := ctx.Value(SessionKey).(*model.Session); ok {
		return s
	}
	return nil
}
