package auth

import (
	"github.com/inkpress/inkpress/internal/core/domain"
)

// Authorization checks are pure allow/deny functions. They never error and
// never touch the store; callers map a false to 401 (no identity) or 403
// (identity present but disallowed).

// =============================================================================
// Book Authorization
// =============================================================================

// CanViewBook checks if the identity can read a book and its sub-resources.
// The owner and admins can.
func CanViewBook(ctx Context, book domain.Book) bool {
	if !ctx.Authenticated {
		return false
	}
	return ctx.UserID == book.UserID || ctx.IsAdmin()
}

// CanModifyBook checks if the identity can update a book, its features, or
// its assets. Same rule as viewing: owner or admin.
func CanModifyBook(ctx Context, book domain.Book) bool {
	return CanViewBook(ctx, book)
}

// CanDeleteBook checks if the identity can delete a book.
func CanDeleteBook(ctx Context, book domain.Book) bool {
	return CanViewBook(ctx, book)
}

// =============================================================================
// Admin Authorization
// =============================================================================

// IsAdmin checks if the identity holds the admin role. Admin-only routes
// (system book listing, asset deletion) use this regardless of ownership.
func IsAdmin(ctx Context) bool {
	return ctx.IsAdmin()
}
