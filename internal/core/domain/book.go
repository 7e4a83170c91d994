package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// Title validation errors
	ErrTitleRequired = errors.New("title is required")
	ErrTitleTooLong  = errors.New("title must be at most 200 characters")

	// Author validation errors
	ErrAuthorRequired = errors.New("author is required")

	// Owner validation errors
	ErrOwnerRequired = errors.New("owner is required")

	// State transition errors
	ErrAlreadyPublished = errors.New("book is already published")
)

// =============================================================================
// Book Status
// =============================================================================

// BookStatus is the lifecycle state of a book.
type BookStatus string

const (
	BookStatusDraft     BookStatus = "draft"
	BookStatusPublished BookStatus = "published"
)

// IsValid checks if the status is a known status.
func (s BookStatus) IsValid() bool {
	switch s {
	case BookStatusDraft, BookStatusPublished:
		return true
	default:
		return false
	}
}

// =============================================================================
// Book
// =============================================================================

// Book represents a title a user is publishing through the portal.
// Every book is owned by exactly one user.
type Book struct {
	ID          string     `json:"id"`
	UserID      int        `json:"user_id"`
	Title       string     `json:"title"`
	Subtitle    string     `json:"subtitle,omitempty"`
	Author      string     `json:"author"`
	Genre       string     `json:"genre,omitempty"`
	Description string     `json:"description,omitempty"`
	Slug        string     `json:"slug"`
	Status      BookStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// NewBook creates a new draft book owned by userID.
// Returns an error if validation fails.
func NewBook(userID int, title, author string) (*Book, error) {
	if err := ValidateTitle(title); err != nil {
		return nil, err
	}
	if author == "" {
		return nil, ErrAuthorRequired
	}
	if userID <= 0 {
		return nil, ErrOwnerRequired
	}

	now := time.Now().UTC()
	return &Book{
		ID:        "book_" + uuid.New().String()[:8],
		UserID:    userID,
		Title:     title,
		Author:    author,
		Slug:      Slugify(title),
		Status:    BookStatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Publish transitions the book from draft to published.
func (b *Book) Publish() error {
	if b.Status == BookStatusPublished {
		return ErrAlreadyPublished
	}
	now := time.Now().UTC()
	b.Status = BookStatusPublished
	b.PublishedAt = &now
	b.UpdatedAt = now
	return nil
}

// =============================================================================
// Validation Functions (Pure)
// =============================================================================

// ValidateTitle validates a book title.
func ValidateTitle(title string) error {
	if title == "" {
		return ErrTitleRequired
	}
	if len(title) > 200 {
		return ErrTitleTooLong
	}
	return nil
}
