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
	ErrAssetTypeInvalid   = errors.New("invalid asset type")
	ErrAssetNameRequired  = errors.New("asset name is required")
	ErrAssetBookRequired  = errors.New("asset must belong to a book")
	ErrAssetSizeNegative  = errors.New("asset size cannot be negative")
)

// =============================================================================
// Asset Type
// =============================================================================

// AssetType is the closed set of book asset kinds. Adding a kind means
// touching this enum, ParseAssetType, and the store's table dispatch, so a
// new kind is a compile-time-visible change rather than a stray string.
type AssetType string

const (
	AssetMarketing   AssetType = "marketing-assets"
	AssetCover       AssetType = "covers"
	AssetLandingPage AssetType = "landing-page"
)

// AssetTypes returns all known asset types.
func AssetTypes() []AssetType {
	return []AssetType{AssetMarketing, AssetCover, AssetLandingPage}
}

// IsValid checks if the asset type is a known type.
func (t AssetType) IsValid() bool {
	switch t {
	case AssetMarketing, AssetCover, AssetLandingPage:
		return true
	default:
		return false
	}
}

// ParseAssetType parses the path segment form of an asset type.
// Unknown values return ErrAssetTypeInvalid; callers map that to a 400.
func ParseAssetType(s string) (AssetType, error) {
	t := AssetType(s)
	if !t.IsValid() {
		return "", ErrAssetTypeInvalid
	}
	return t, nil
}

// =============================================================================
// Asset
// =============================================================================

// Asset represents a book-associated artifact: a marketing asset, a cover
// render, or a landing page bundle. Assets are identified by type and id.
type Asset struct {
	ID          string    `json:"id"`
	BookID      string    `json:"book_id"`
	Type        AssetType `json:"type"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type,omitempty"`
	URL         string    `json:"url,omitempty"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewAsset creates an asset of the given type for a book.
func NewAsset(bookID string, typ AssetType, name string) (*Asset, error) {
	if bookID == "" {
		return nil, ErrAssetBookRequired
	}
	if !typ.IsValid() {
		return nil, ErrAssetTypeInvalid
	}
	if name == "" {
		return nil, ErrAssetNameRequired
	}

	return &Asset{
		ID:        "ast_" + uuid.New().String()[:8],
		BookID:    bookID,
		Type:      typ,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}, nil
}
