// Package middleware provides HTTP middleware for the Inkpress API.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/inkpress/inkpress/internal/core/auth"
	"github.com/inkpress/inkpress/internal/core/domain"
	"github.com/inkpress/inkpress/internal/shell/store"
)

// SessionCookie is the cookie carrying the session token.
const SessionCookie = "inkpress_session"

// =============================================================================
// Session Resolver Interface
// =============================================================================

// SessionResolver resolves a presented session token to its user.
// The store implements this interface.
type SessionResolver interface {
	GetSessionUser(ctx context.Context, token string) (*domain.User, error)
}

// =============================================================================
// Auth Configuration
// =============================================================================

// AuthConfig holds configuration for the session middleware.
type AuthConfig struct {
	// Resolver resolves session tokens to users. Required.
	Resolver SessionResolver

	// Logger for auth middleware logging.
	Logger *slog.Logger
}

// =============================================================================
// Session Middleware
// =============================================================================

// SessionAuth resolves the request's session (cookie or Bearer token) once
// per request and stores the resulting auth context in the request context.
// Requests without a valid session continue as anonymous; rejecting them is
// RequireAuth's job.
type SessionAuth struct {
	config AuthConfig
}

// NewSessionAuth creates the session middleware with the given config.
func NewSessionAuth(cfg AuthConfig) *SessionAuth {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &SessionAuth{config: cfg}
}

// Handler returns the middleware handler function.
func (m *SessionAuth) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := TokenFromRequest(r)
		if token == "" {
			r = r.WithContext(auth.WithContext(r.Context(), auth.Anonymous()))
			next.ServeHTTP(w, r)
			return
		}

		user, err := m.config.Resolver.GetSessionUser(r.Context(), token)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				// Unknown or expired token: continue anonymous
				r = r.WithContext(auth.WithContext(r.Context(), auth.Anonymous()))
				next.ServeHTTP(w, r)
				return
			}
			m.config.Logger.Error("failed to resolve session",
				"error", err,
				"path", r.URL.Path,
			)
			writeJSONError(w, http.StatusInternalServerError, "internal error")
			return
		}

		r = r.WithContext(auth.WithContext(r.Context(), auth.FromUser(user)))
		next.ServeHTTP(w, r)
	})
}

// TokenFromRequest extracts the session token from the session cookie or,
// failing that, an Authorization Bearer header.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(h[len("Bearer "):])
	}
	return ""
}

// =============================================================================
// Require Middleware
// =============================================================================

// RequireAuth rejects unauthenticated requests with 401.
// Must be used AFTER SessionAuth.
func RequireAuth(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := auth.FromContext(r.Context())

			if !ctx.Authenticated {
				logger.Warn("unauthenticated request to protected endpoint",
					"remote_addr", r.RemoteAddr,
					"path", r.URL.Path,
					"method", r.Method,
				)
				writeJSONError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin rejects non-admin requests with 403.
// Must be used AFTER RequireAuth.
func RequireAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := auth.FromContext(r.Context())

			if !auth.IsAdmin(ctx) {
				logger.Warn("non-admin request to admin endpoint",
					"user_id", ctx.UserID,
					"path", r.URL.Path,
					"method", r.Method,
				)
				writeJSONError(w, http.StatusForbidden, "admin role required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// =============================================================================
// JSON Error Response
// =============================================================================

type errorBody struct {
	Error string `json:"error"`
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorBody{Error: message})
}
