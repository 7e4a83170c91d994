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
	ErrFeatureNameRequired  = errors.New("feature name is required")
	ErrFeatureStatusInvalid = errors.New("invalid feature status")
	ErrFeatureLocked        = errors.New("feature is locked")
)

// =============================================================================
// Feature Status
// =============================================================================

// FeatureStatus is the state of a marketing feature for one book.
type FeatureStatus string

const (
	// FeatureLocked means the feature is not available on the owner's plan.
	FeatureLocked FeatureStatus = "locked"
	// FeatureAvailable means the feature can be activated by the owner.
	FeatureAvailable FeatureStatus = "available"
	// FeatureActive means the feature is switched on for the book.
	FeatureActive FeatureStatus = "active"
)

// IsValid checks if the status is a known status.
func (s FeatureStatus) IsValid() bool {
	switch s {
	case FeatureLocked, FeatureAvailable, FeatureActive:
		return true
	default:
		return false
	}
}

// =============================================================================
// BookFeature
// =============================================================================

// BookFeature represents a named marketing capability's status for one book.
type BookFeature struct {
	ID        string        `json:"id"`
	BookID    string        `json:"book_id"`
	Name      string        `json:"name"`
	Status    FeatureStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// NewBookFeature creates a feature row for a book.
func NewBookFeature(bookID, name string, status FeatureStatus) (*BookFeature, error) {
	if name == "" {
		return nil, ErrFeatureNameRequired
	}
	if !status.IsValid() {
		return nil, ErrFeatureStatusInvalid
	}

	now := time.Now().UTC()
	return &BookFeature{
		ID:        "feat_" + uuid.New().String()[:8],
		BookID:    bookID,
		Name:      name,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Activate switches an available feature on. Locked features cannot be
// activated by the owner.
func (f *BookFeature) Activate() error {
	if f.Status == FeatureLocked {
		return ErrFeatureLocked
	}
	f.Status = FeatureActive
	f.UpdatedAt = time.Now().UTC()
	return nil
}
