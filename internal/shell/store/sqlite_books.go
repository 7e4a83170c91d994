package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/inkpress/inkpress/internal/core/domain"
)

// =============================================================================
// Book Operations
// =============================================================================

// bookRow represents a book row in the database.
type bookRow struct {
	ID          string  `db:"id"`
	UserID      int     `db:"user_id"`
	Title       string  `db:"title"`
	Subtitle    string  `db:"subtitle"`
	Author      string  `db:"author"`
	Genre       string  `db:"genre"`
	Description string  `db:"description"`
	Slug        string  `db:"slug"`
	Status      string  `db:"status"`
	CreatedAt   string  `db:"created_at"`
	UpdatedAt   string  `db:"updated_at"`
	PublishedAt *string `db:"published_at"`
}

func (s *SQLiteStore) CreateBook(ctx context.Context, book *domain.Book, features []domain.BookFeature) error {
	return s.WithTx(ctx, func(txS Store) error {
		return txS.CreateBook(ctx, book, features)
	})
}

func (s *SQLiteStore) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	return getBook(ctx, s.db, id)
}

func (s *SQLiteStore) UpdateBook(ctx context.Context, book *domain.Book) error {
	return updateBook(ctx, s.db, book)
}

func (s *SQLiteStore) DeleteBook(ctx context.Context, id string) error {
	return deleteBook(ctx, s.db, id)
}

func (s *SQLiteStore) ListBooksByOwner(ctx context.Context, userID int, opts ListOptions) ([]domain.Book, error) {
	return listBooksByOwner(ctx, s.db, userID, opts)
}

func (s *SQLiteStore) ListBooks(ctx context.Context, opts ListOptions) ([]domain.Book, error) {
	return listBooks(ctx, s.db, opts)
}

func (s *txSQLiteStore) CreateBook(ctx context.Context, book *domain.Book, features []domain.BookFeature) error {
	if err := insertBook(ctx, s.tx, book); err != nil {
		return err
	}
	for i := range features {
		if err := insertFeature(ctx, s.tx, &features[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *txSQLiteStore) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	return getBook(ctx, s.tx, id)
}

func (s *txSQLiteStore) UpdateBook(ctx context.Context, book *domain.Book) error {
	return updateBook(ctx, s.tx, book)
}

func (s *txSQLiteStore) DeleteBook(ctx context.Context, id string) error {
	return deleteBook(ctx, s.tx, id)
}

func (s *txSQLiteStore) ListBooksByOwner(ctx context.Context, userID int, opts ListOptions) ([]domain.Book, error) {
	return listBooksByOwner(ctx, s.tx, userID, opts)
}

func (s *txSQLiteStore) ListBooks(ctx context.Context, opts ListOptions) ([]domain.Book, error) {
	return listBooks(ctx, s.tx, opts)
}

func insertBook(ctx context.Context, exec executor, book *domain.Book) error {
	var publishedAt *string
	if book.PublishedAt != nil {
		p := book.PublishedAt.Format(time.RFC3339)
		publishedAt = &p
	}

	query := `
		INSERT INTO books (
			id, user_id, title, subtitle, author, genre, description,
			slug, status, created_at, updated_at, published_at
		) VALUES (
			:id, :user_id, :title, :subtitle, :author, :genre, :description,
			:slug, :status, :created_at, :updated_at, :published_at
		)`

	row := map[string]any{
		"id":           book.ID,
		"user_id":      book.UserID,
		"title":        book.Title,
		"subtitle":     book.Subtitle,
		"author":       book.Author,
		"genre":        book.Genre,
		"description":  book.Description,
		"slug":         book.Slug,
		"status":       string(book.Status),
		"created_at":   book.CreatedAt.Format(time.RFC3339),
		"updated_at":   book.UpdatedAt.Format(time.RFC3339),
		"published_at": publishedAt,
	}

	_, err := exec.NamedExecContext(ctx, query, row)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: books.id") {
			return NewStoreError("CreateBook", "book", book.ID, "book with this ID already exists", ErrDuplicateID)
		}
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return NewStoreError("CreateBook", "book", book.ID, "owner not found", ErrForeignKey)
		}
		return NewStoreError("CreateBook", "book", book.ID, err.Error(), err)
	}

	return nil
}

func getBook(ctx context.Context, exec executor, id string) (*domain.Book, error) {
	query := `SELECT * FROM books WHERE id = ?`

	var row bookRow
	err := exec.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetBook", "book", id, "book not found", ErrNotFound)
		}
		return nil, NewStoreError("GetBook", "book", id, err.Error(), err)
	}

	return rowToBook(&row)
}

func updateBook(ctx context.Context, exec executor, book *domain.Book) error {
	var publishedAt *string
	if book.PublishedAt != nil {
		p := book.PublishedAt.Format(time.RFC3339)
		publishedAt = &p
	}

	query := `
		UPDATE books SET
			title = :title,
			subtitle = :subtitle,
			author = :author,
			genre = :genre,
			description = :description,
			slug = :slug,
			status = :status,
			updated_at = :updated_at,
			published_at = :published_at
		WHERE id = :id`

	row := map[string]any{
		"id":           book.ID,
		"title":        book.Title,
		"subtitle":     book.Subtitle,
		"author":       book.Author,
		"genre":        book.Genre,
		"description":  book.Description,
		"slug":         book.Slug,
		"status":       string(book.Status),
		"updated_at":   book.UpdatedAt.Format(time.RFC3339),
		"published_at": publishedAt,
	}

	result, err := exec.NamedExecContext(ctx, query, row)
	if err != nil {
		return NewStoreError("UpdateBook", "book", book.ID, err.Error(), err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return NewStoreError("UpdateBook", "book", book.ID, "book not found", ErrNotFound)
	}

	return nil
}

func deleteBook(ctx context.Context, exec executor, id string) error {
	query := `DELETE FROM books WHERE id = ?`

	result, err := exec.ExecContext(ctx, query, id)
	if err != nil {
		return NewStoreError("DeleteBook", "book", id, err.Error(), err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return NewStoreError("DeleteBook", "book", id, "book not found", ErrNotFound)
	}

	return nil
}

func listBooksByOwner(ctx context.Context, exec executor, userID int, opts ListOptions) ([]domain.Book, error) {
	opts = opts.Normalize()
	query := `SELECT * FROM books WHERE user_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`

	var rows []bookRow
	err := exec.SelectContext(ctx, &rows, query, userID, opts.Limit, opts.Offset)
	if err != nil {
		return nil, NewStoreError("ListBooksByOwner", "book", "", err.Error(), err)
	}

	return rowsToBooks(rows)
}

func listBooks(ctx context.Context, exec executor, opts ListOptions) ([]domain.Book, error) {
	opts = opts.Normalize()
	query := `SELECT * FROM books ORDER BY created_at DESC LIMIT ? OFFSET ?`

	var rows []bookRow
	err := exec.SelectContext(ctx, &rows, query, opts.Limit, opts.Offset)
	if err != nil {
		return nil, NewStoreError("ListBooks", "book", "", err.Error(), err)
	}

	return rowsToBooks(rows)
}

func rowsToBooks(rows []bookRow) ([]domain.Book, error) {
	books := make([]domain.Book, 0, len(rows))
	for i := range rows {
		book, err := rowToBook(&rows[i])
		if err != nil {
			return nil, err
		}
		books = append(books, *book)
	}
	return books, nil
}

func rowToBook(row *bookRow) (*domain.Book, error) {
	createdAt, err := time.Parse(time.RFC3339, row.CreatedAt)
	if err != nil {
		return nil, NewStoreError("rowToBook", "book", row.ID, "invalid created_at", err)
	}
	updatedAt, err := time.Parse(time.RFC3339, row.UpdatedAt)
	if err != nil {
		return nil, NewStoreError("rowToBook", "book", row.ID, "invalid updated_at", err)
	}

	var publishedAt *time.Time
	if row.PublishedAt != nil {
		p, err := time.Parse(time.RFC3339, *row.PublishedAt)
		if err != nil {
			return nil, NewStoreError("rowToBook", "book", row.ID, "invalid published_at", err)
		}
		publishedAt = &p
	}

	return &domain.Book{
		ID:          row.ID,
		UserID:      row.UserID,
		Title:       row.Title,
		Subtitle:    row.Subtitle,
		Author:      row.Author,
		Genre:       row.Genre,
		Description: row.Description,
		Slug:        row.Slug,
		Status:      domain.BookStatus(row.Status),
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
		PublishedAt: publishedAt,
	}, nil
}

// =============================================================================
// Feature Operations
// =============================================================================

// featureRow represents a book feature row in the database.
type featureRow struct {
	ID        string `db:"id"`
	BookID    string `db:"book_id"`
	Name      string `db:"name"`
	Status    string `db:"status"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

func (s *SQLiteStore) ListFeaturesByBook(ctx context.Context, bookID string) ([]domain.BookFeature, error) {
	return listFeaturesByBook(ctx, s.db, bookID)
}

func (s *SQLiteStore) GetFeature(ctx context.Context, bookID, name string) (*domain.BookFeature, error) {
	return getFeature(ctx, s.db, bookID, name)
}

func (s *SQLiteStore) UpdateFeature(ctx context.Context, feature *domain.BookFeature) error {
	return updateFeature(ctx, s.db, feature)
}

func (s *txSQLiteStore) ListFeaturesByBook(ctx context.Context, bookID string) ([]domain.BookFeature, error) {
	return listFeaturesByBook(ctx, s.tx, bookID)
}

func (s *txSQLiteStore) GetFeature(ctx context.Context, bookID, name string) (*domain.BookFeature, error) {
	return getFeature(ctx, s.tx, bookID, name)
}

func (s *txSQLiteStore) UpdateFeature(ctx context.Context, feature *domain.BookFeature) error {
	return updateFeature(ctx, s.tx, feature)
}

func insertFeature(ctx context.Context, exec executor, feature *domain.BookFeature) error {
	query := `
		INSERT INTO book_features (id, book_id, name, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := exec.ExecContext(ctx, query,
		feature.ID, feature.BookID, feature.Name, string(feature.Status),
		feature.CreatedAt.Format(time.RFC3339), feature.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return NewStoreError("CreateFeature", "feature", feature.ID, "feature already exists for this book", ErrDuplicateFeature)
		}
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return NewStoreError("CreateFeature", "feature", feature.ID, "book not found", ErrForeignKey)
		}
		return NewStoreError("CreateFeature", "feature", feature.ID, err.Error(), err)
	}

	return nil
}

func listFeaturesByBook(ctx context.Context, exec executor, bookID string) ([]domain.BookFeature, error) {
	query := `SELECT * FROM book_features WHERE book_id = ? ORDER BY name`

	var rows []featureRow
	err := exec.SelectContext(ctx, &rows, query, bookID)
	if err != nil {
		return nil, NewStoreError("ListFeaturesByBook", "feature", bookID, err.Error(), err)
	}

	features := make([]domain.BookFeature, 0, len(rows))
	for i := range rows {
		feature, err := rowToFeature(&rows[i])
		if err != nil {
			return nil, err
		}
		features = append(features, *feature)
	}

	return features, nil
}

func getFeature(ctx context.Context, exec executor, bookID, name string) (*domain.BookFeature, error) {
	query := `SELECT * FROM book_features WHERE book_id = ? AND name = ?`

	var row featureRow
	err := exec.GetContext(ctx, &row, query, bookID, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetFeature", "feature", name, "feature not found", ErrNotFound)
		}
		return nil, NewStoreError("GetFeature", "feature", name, err.Error(), err)
	}

	return rowToFeature(&row)
}

func updateFeature(ctx context.Context, exec executor, feature *domain.BookFeature) error {
	query := `UPDATE book_features SET status = ?, updated_at = ? WHERE id = ?`

	result, err := exec.ExecContext(ctx, query,
		string(feature.Status), feature.UpdatedAt.Format(time.RFC3339), feature.ID)
	if err != nil {
		return NewStoreError("UpdateFeature", "feature", feature.ID, err.Error(), err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return NewStoreError("UpdateFeature", "feature", feature.ID, "feature not found", ErrNotFound)
	}

	return nil
}

func rowToFeature(row *featureRow) (*domain.BookFeature, error) {
	createdAt, err := time.Parse(time.RFC3339, row.CreatedAt)
	if err != nil {
		return nil, NewStoreError("rowToFeature", "feature", row.ID, "invalid created_at", err)
	}
	updatedAt, err := time.Parse(time.RFC3339, row.UpdatedAt)
	if err != nil {
		return nil, NewStoreError("rowToFeature", "feature", row.ID, "invalid updated_at", err)
	}

	return &domain.BookFeature{
		ID:        row.ID,
		BookID:    row.BookID,
		Name:      row.Name,
		Status:    domain.FeatureStatus(row.Status),
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

// =============================================================================
// Asset Operations
// =============================================================================

// assetRow represents an asset row; all three asset tables share this shape.
type assetRow struct {
	ID          string `db:"id"`
	BookID      string `db:"book_id"`
	Name        string `db:"name"`
	ContentType string `db:"content_type"`
	URL         string `db:"url"`
	SizeBytes   int64  `db:"size_bytes"`
	CreatedAt   string `db:"created_at"`
}

// assetTable maps an asset type to its table. The switch is exhaustive over
// the closed enum; an unknown value means a caller skipped ParseAssetType.
func assetTable(typ domain.AssetType) (string, error) {
	switch typ {
	case domain.AssetMarketing:
		return "marketing_assets", nil
	case domain.AssetCover:
		return "covers", nil
	case domain.AssetLandingPage:
		return "landing_pages", nil
	default:
		return "", NewStoreError("assetTable", "asset", "", fmt.Sprintf("unknown asset type %q", typ), domain.ErrAssetTypeInvalid)
	}
}

func (s *SQLiteStore) CreateAsset(ctx context.Context, asset *domain.Asset) error {
	return createAsset(ctx, s.db, asset)
}

func (s *SQLiteStore) GetAsset(ctx context.Context, typ domain.AssetType, bookID, assetID string) (*domain.Asset, error) {
	return getAsset(ctx, s.db, typ, bookID, assetID)
}

func (s *SQLiteStore) ListAssetsByBook(ctx context.Context, typ domain.AssetType, bookID string) ([]domain.Asset, error) {
	return listAssetsByBook(ctx, s.db, typ, bookID)
}

func (s *SQLiteStore) DeleteAsset(ctx context.Context, typ domain.AssetType, bookID, assetID string) error {
	return deleteAsset(ctx, s.db, typ, bookID, assetID)
}

func (s *txSQLiteStore) CreateAsset(ctx context.Context, asset *domain.Asset) error {
	return createAsset(ctx, s.tx, asset)
}

func (s *txSQLiteStore) GetAsset(ctx context.Context, typ domain.AssetType, bookID, assetID string) (*domain.Asset, error) {
	return getAsset(ctx, s.tx, typ, bookID, assetID)
}

func (s *txSQLiteStore) ListAssetsByBook(ctx context.Context, typ domain.AssetType, bookID string) ([]domain.Asset, error) {
	return listAssetsByBook(ctx, s.tx, typ, bookID)
}

func (s *txSQLiteStore) DeleteAsset(ctx context.Context, typ domain.AssetType, bookID, assetID string) error {
	return deleteAsset(ctx, s.tx, typ, bookID, assetID)
}

func createAsset(ctx context.Context, exec executor, asset *domain.Asset) error {
	table, err := assetTable(asset.Type)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, book_id, name, content_type, url, size_bytes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, table)

	_, err = exec.ExecContext(ctx, query,
		asset.ID, asset.BookID, asset.Name, asset.ContentType, asset.URL,
		asset.SizeBytes, asset.CreatedAt.Format(time.RFC3339))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return NewStoreError("CreateAsset", "asset", asset.ID, "asset with this ID already exists", ErrDuplicateID)
		}
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return NewStoreError("CreateAsset", "asset", asset.ID, "book not found", ErrForeignKey)
		}
		return NewStoreError("CreateAsset", "asset", asset.ID, err.Error(), err)
	}

	return nil
}

func getAsset(ctx context.Context, exec executor, typ domain.AssetType, bookID, assetID string) (*domain.Asset, error) {
	table, err := assetTable(typ)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT * FROM %s WHERE id = ? AND book_id = ?`, table)

	var row assetRow
	err = exec.GetContext(ctx, &row, query, assetID, bookID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetAsset", "asset", assetID, "asset not found", ErrNotFound)
		}
		return nil, NewStoreError("GetAsset", "asset", assetID, err.Error(), err)
	}

	return rowToAsset(&row, typ)
}

func listAssetsByBook(ctx context.Context, exec executor, typ domain.AssetType, bookID string) ([]domain.Asset, error) {
	table, err := assetTable(typ)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT * FROM %s WHERE book_id = ? ORDER BY created_at DESC`, table)

	var rows []assetRow
	err = exec.SelectContext(ctx, &rows, query, bookID)
	if err != nil {
		return nil, NewStoreError("ListAssetsByBook", "asset", bookID, err.Error(), err)
	}

	assets := make([]domain.Asset, 0, len(rows))
	for i := range rows {
		asset, err := rowToAsset(&rows[i], typ)
		if err != nil {
			return nil, err
		}
		assets = append(assets, *asset)
	}

	return assets, nil
}

func deleteAsset(ctx context.Context, exec executor, typ domain.AssetType, bookID, assetID string) error {
	table, err := assetTable(typ)
	if err != nil {
		return err
	}

	// Scoped to the book: an asset id alone cannot delete across books.
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ? AND book_id = ?`, table)

	result, err := exec.ExecContext(ctx, query, assetID, bookID)
	if err != nil {
		return NewStoreError("DeleteAsset", "asset", assetID, err.Error(), err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return NewStoreError("DeleteAsset", "asset", assetID, "asset not found", ErrNotFound)
	}

	return nil
}

func rowToAsset(row *assetRow, typ domain.AssetType) (*domain.Asset, error) {
	createdAt, err := time.Parse(time.RFC3339, row.CreatedAt)
	if err != nil {
		return nil, NewStoreError("rowToAsset", "asset", row.ID, "invalid created_at", err)
	}

	return &domain.Asset{
		ID:          row.ID,
		BookID:      row.BookID,
		Type:        typ,
		Name:        row.Name,
		ContentType: row.ContentType,
		URL:         row.URL,
		SizeBytes:   row.SizeBytes,
		CreatedAt:   createdAt,
	}, nil
}

// =============================================================================
// Schema Inspection
// =============================================================================

func (s *SQLiteStore) Inspect(ctx context.Context) ([]TableInfo, error) {
	return inspect(ctx, s.db)
}

func (s *txSQLiteStore) Inspect(ctx context.Context) ([]TableInfo, error) {
	return inspect(ctx, s.tx)
}

func inspect(ctx context.Context, exec executor) ([]TableInfo, error) {
	var names []string
	err := exec.SelectContext(ctx, &names,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, NewStoreError("Inspect", "", "", err.Error(), err)
	}

	tables := make([]TableInfo, 0, len(names))
	for _, name := range names {
		var cols []struct {
			CID        int     `db:"cid"`
			Name       string  `db:"name"`
			Type       string  `db:"type"`
			NotNull    int     `db:"notnull"`
			Default    *string `db:"dflt_value"`
			PrimaryKey int     `db:"pk"`
		}
		// PRAGMA does not support placeholders; names come from sqlite_master.
		err := exec.SelectContext(ctx, &cols, fmt.Sprintf(`PRAGMA table_info(%q)`, name))
		if err != nil {
			return nil, NewStoreError("Inspect", "", name, err.Error(), err)
		}

		info := TableInfo{Name: name, Columns: make([]ColumnInfo, 0, len(cols))}
		for _, c := range cols {
			info.Columns = append(info.Columns, ColumnInfo{
				Name:       c.Name,
				Type:       c.Type,
				NotNull:    c.NotNull != 0,
				PrimaryKey: c.PrimaryKey != 0,
			})
		}
		tables = append(tables, info)
	}

	return tables, nil
}
