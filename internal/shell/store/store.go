package store

import (
	"context"
	"time"

	"github.com/inkpress/inkpress/internal/core/domain"
)

// =============================================================================
// Store Interface
// =============================================================================

// Store defines the persistence interface for Inkpress entities. Handlers
// receive a Store from the process bootstrap; nothing holds a package-level
// database handle.
type Store interface {
	// User operations
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id int) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	SetUserRole(ctx context.Context, id int, role domain.Role) error

	// Session operations. GetSessionUser resolves a presented token to its
	// user; expired or unknown tokens yield ErrNotFound.
	CreateSession(ctx context.Context, token string, userID int, expiresAt time.Time) error
	GetSessionUser(ctx context.Context, token string) (*domain.User, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context) (int, error)

	// Book operations. CreateBook inserts the book and its seed feature
	// rows atomically.
	CreateBook(ctx context.Context, book *domain.Book, features []domain.BookFeature) error
	GetBook(ctx context.Context, id string) (*domain.Book, error)
	UpdateBook(ctx context.Context, book *domain.Book) error
	DeleteBook(ctx context.Context, id string) error
	ListBooksByOwner(ctx context.Context, userID int, opts ListOptions) ([]domain.Book, error)
	ListBooks(ctx context.Context, opts ListOptions) ([]domain.Book, error)

	// Feature operations
	ListFeaturesByBook(ctx context.Context, bookID string) ([]domain.BookFeature, error)
	GetFeature(ctx context.Context, bookID, name string) (*domain.BookFeature, error)
	UpdateFeature(ctx context.Context, feature *domain.BookFeature) error

	// Asset operations, dispatched to the per-type table. Deletes are
	// scoped to the book so an id cannot reach across books.
	CreateAsset(ctx context.Context, asset *domain.Asset) error
	GetAsset(ctx context.Context, typ domain.AssetType, bookID, assetID string) (*domain.Asset, error)
	ListAssetsByBook(ctx context.Context, typ domain.AssetType, bookID string) ([]domain.Asset, error)
	DeleteAsset(ctx context.Context, typ domain.AssetType, bookID, assetID string) error

	// Inspect reports the schema (tables and columns) for the dev
	// diagnostic endpoint.
	Inspect(ctx context.Context) ([]TableInfo, error)

	// Transaction support
	WithTx(ctx context.Context, fn func(Store) error) error

	// Lifecycle
	Close() error
}

// =============================================================================
// Options
// =============================================================================

// ListOptions defines pagination options.
type ListOptions struct {
	Limit  int
	Offset int
}

// DefaultListOptions returns default list options.
func DefaultListOptions() ListOptions {
	return ListOptions{
		Limit:  100,
		Offset: 0,
	}
}

// Normalize ensures list options have valid values.
func (o ListOptions) Normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = 100
	}
	if o.Limit > 1000 {
		o.Limit = 1000
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

// =============================================================================
// Schema Inspection
// =============================================================================

// TableInfo describes one table for the schema diagnostic.
type TableInfo struct {
	Name    string       `json:"name"`
	Columns []ColumnInfo `json:"columns"`
}

// ColumnInfo describes one column of a table.
type ColumnInfo struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	NotNull    bool   `json:"not_null"`
	PrimaryKey bool   `json:"primary_key"`
}
