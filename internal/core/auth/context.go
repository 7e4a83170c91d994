// Package auth provides the authentication context and authorization checks.
package auth

import (
	"context"

	"github.com/inkpress/inkpress/internal/core/domain"
)

// =============================================================================
// Context Key
// =============================================================================

type contextKey string

const authContextKey contextKey = "auth"

// =============================================================================
// Types
// =============================================================================

// Context represents the authenticated identity for a request. It is
// resolved once per request by the session middleware and stored in the
// request context.
type Context struct {
	// UserID is the integer PK from the users table.
	UserID int

	// Email is the account email, carried for logging and notifications.
	Email string

	// Role is the account's access level.
	Role domain.Role

	// Authenticated indicates whether a valid session was presented.
	Authenticated bool
}

// IsAdmin reports whether the identity holds the admin role.
func (c Context) IsAdmin() bool {
	return c.Authenticated && c.Role == domain.RoleAdmin
}

// FromUser builds an authenticated context from a resolved user.
func FromUser(u *domain.User) Context {
	return Context{
		UserID:        u.ID,
		Email:         u.Email,
		Role:          u.Role,
		Authenticated: true,
	}
}

// Anonymous returns the unauthenticated context.
func Anonymous() Context {
	return Context{Authenticated: false}
}

// =============================================================================
// Context Storage
// =============================================================================

// WithContext stores the auth context in the request context.
func WithContext(ctx context.Context, authCtx Context) context.Context {
	return context.WithValue(ctx, authContextKey, authCtx)
}

// FromContext retrieves the auth context from the request context.
// If no auth context is found, returns the unauthenticated context.
func FromContext(ctx context.Context) Context {
	if authCtx, ok := ctx.Value(authContextKey).(Context); ok {
		return authCtx
	}
	return Anonymous()
}
