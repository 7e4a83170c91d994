package api

import (
	"time"

	"github.com/inkpress/inkpress/internal/core/domain"
)

// =============================================================================
// Request Types
// =============================================================================

// RegisterRequest is the request body for creating an account.
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Password string `json:"password"`
}

// LoginRequest is the request body for opening a session.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateBookRequest is the request body for creating a book.
type CreateBookRequest struct {
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle,omitempty"`
	Author      string `json:"author"`
	Genre       string `json:"genre,omitempty"`
	Description string `json:"description,omitempty"`
}

// UpdateBookRequest is the request body for updating a book.
type UpdateBookRequest struct {
	Title       string `json:"title,omitempty"`
	Subtitle    string `json:"subtitle,omitempty"`
	Author      string `json:"author,omitempty"`
	Genre       string `json:"genre,omitempty"`
	Description string `json:"description,omitempty"`
}

// CreateAssetRequest is the request body for registering an asset.
type CreateAssetRequest struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type,omitempty"`
	URL         string `json:"url,omitempty"`
	SizeBytes   int64  `json:"size_bytes,omitempty"`
}

// =============================================================================
// Response Types
// =============================================================================

// UserResponse is the response shape for account data.
type UserResponse struct {
	ID        int       `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionResponse is the response for login.
type SessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// BookResponse is the response shape for book data.
type BookResponse struct {
	ID          string     `json:"id"`
	UserID      int        `json:"user_id"`
	Title       string     `json:"title"`
	Subtitle    string     `json:"subtitle,omitempty"`
	Author      string     `json:"author"`
	Genre       string     `json:"genre,omitempty"`
	Description string     `json:"description,omitempty"`
	Slug        string     `json:"slug"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// FeatureResponse is the response shape for a book feature.
type FeatureResponse struct {
	ID        string    `json:"id"`
	BookID    string    `json:"book_id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AssetResponse is the response shape for an asset.
type AssetResponse struct {
	ID          string    `json:"id"`
	BookID      string    `json:"book_id"`
	Type        string    `json:"type"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type,omitempty"`
	URL         string    `json:"url,omitempty"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListBooksResponse is the response for listing books.
type ListBooksResponse struct {
	Books  []BookResponse `json:"books"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// SuccessResponse is the body for delete-style operations.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// ErrorResponse is the error response format.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// HealthResponse is the health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse is the readiness check response.
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// =============================================================================
// Conversions
// =============================================================================

func userToResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

func bookToResponse(b *domain.Book) BookResponse {
	return BookResponse{
		ID:          b.ID,
		UserID:      b.UserID,
		Title:       b.Title,
		Subtitle:    b.Subtitle,
		Author:      b.Author,
		Genre:       b.Genre,
		Description: b.Description,
		Slug:        b.Slug,
		Status:      string(b.Status),
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
		PublishedAt: b.PublishedAt,
	}
}

func featureToResponse(f *domain.BookFeature) FeatureResponse {
	return FeatureResponse{
		ID:        f.ID,
		BookID:    f.BookID,
		Name:      f.Name,
		Status:    string(f.Status),
		UpdatedAt: f.UpdatedAt,
	}
}

func assetToResponse(a *domain.Asset) AssetResponse {
	return AssetResponse{
		ID:          a.ID,
		BookID:      a.BookID,
		Type:        string(a.Type),
		Name:        a.Name,
		ContentType: a.ContentType,
		URL:         a.URL,
		SizeBytes:   a.SizeBytes,
		CreatedAt:   a.CreatedAt,
	}
}
