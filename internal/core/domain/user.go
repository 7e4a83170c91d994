// Package domain contains the core domain types and validation logic.
// This is part of the Functional Core - all functions are pure with no I/O.
package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// Email validation errors
	ErrEmailRequired = errors.New("email is required")
	ErrEmailInvalid  = errors.New("email is not a valid address")

	// Password validation errors
	ErrPasswordRequired = errors.New("password is required")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")

	// Role errors
	ErrRoleInvalid = errors.New("invalid role")
)

// =============================================================================
// Role
// =============================================================================

// Role is the access level of a portal account.
type Role string

const (
	RoleStandard Role = "standard"
	RoleAdmin    Role = "admin"
)

// IsValid checks if the role is a known role.
func (r Role) IsValid() bool {
	switch r {
	case RoleStandard, RoleAdmin:
		return true
	default:
		return false
	}
}

// ParseRole parses a role string.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", ErrRoleInvalid
	}
	return r, nil
}

// =============================================================================
// User
// =============================================================================

// User represents a portal account.
type User struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// NewUser creates a new standard user. The password hash is supplied by the
// caller; hashing is I/O-adjacent and lives outside the core.
func NewUser(email, name, passwordHash string) (*User, error) {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &User{
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		Role:         RoleStandard,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// =============================================================================
// Validation Functions (Pure)
// =============================================================================

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail validates an email address.
func ValidateEmail(email string) error {
	if email == "" {
		return ErrEmailRequired
	}
	if !emailRegex.MatchString(email) {
		return ErrEmailInvalid
	}
	return nil
}

// ValidatePassword validates a plaintext password before hashing.
func ValidatePassword(password string) error {
	if password == "" {
		return ErrPasswordRequired
	}
	if len(password) < 8 {
		return ErrPasswordTooShort
	}
	return nil
}
