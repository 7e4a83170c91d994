package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/inkpress/inkpress/internal/core/domain"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// =============================================================================
// Executor Interface - Shared by DB and Transaction
// =============================================================================

// executor abstracts database operations that can be performed on both
// a database connection and a transaction.
type executor interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// =============================================================================
// SQLiteStore
// =============================================================================

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore creates a new SQLite store and runs migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite3", dsn+"?_foreign_keys=on")
	if err != nil {
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to open database", ErrConnectionFailed)
	}

	// SQLite serializes writers, and an in-memory database exists per
	// connection. A single pooled connection keeps both honest.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to ping database", ErrConnectionFailed)
	}

	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", err.Error(), ErrMigrationFailed)
	}

	return &SQLiteStore{db: db}, nil
}

// runMigrations runs database migrations using embedded SQL files.
func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// Transaction Support
// =============================================================================

func (s *SQLiteStore) WithTx(ctx context.Context, fn func(Store) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return NewStoreError("WithTx", "", "", "failed to begin transaction", ErrTxFailed)
	}

	txS := &txSQLiteStore{tx: tx}

	if err := fn(txS); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return NewStoreError("WithTx", "", "", fmt.Sprintf("rollback failed after error: %v", err), ErrTxFailed)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return NewStoreError("WithTx", "", "", "failed to commit transaction", ErrTxFailed)
	}

	return nil
}

// txSQLiteStore implements Store within a transaction.
type txSQLiteStore struct {
	tx *sqlx.Tx
}

func (s *txSQLiteStore) WithTx(ctx context.Context, fn func(Store) error) error {
	// Already in a transaction, just run the function
	return fn(s)
}

func (s *txSQLiteStore) Close() error {
	// No-op for tx store
	return nil
}

// =============================================================================
// User Operations
// =============================================================================

// userRow represents a user row in the database.
type userRow struct {
	ID           int    `db:"id"`
	Email        string `db:"email"`
	Name         string `db:"name"`
	PasswordHash string `db:"password_hash"`
	Role         string `db:"role"`
	CreatedAt    string `db:"created_at"`
	UpdatedAt    string `db:"updated_at"`
}

func (s *SQLiteStore) CreateUser(ctx context.Context, user *domain.User) error {
	return createUser(ctx, s.db, user)
}

func (s *SQLiteStore) GetUser(ctx context.Context, id int) (*domain.User, error) {
	return getUser(ctx, s.db, id)
}

func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return getUserByEmail(ctx, s.db, email)
}

func (s *SQLiteStore) SetUserRole(ctx context.Context, id int, role domain.Role) error {
	return setUserRole(ctx, s.db, id, role)
}

func (s *txSQLiteStore) CreateUser(ctx context.Context, user *domain.User) error {
	return createUser(ctx, s.tx, user)
}

func (s *txSQLiteStore) GetUser(ctx context.Context, id int) (*domain.User, error) {
	return getUser(ctx, s.tx, id)
}

func (s *txSQLiteStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return getUserByEmail(ctx, s.tx, email)
}

func (s *txSQLiteStore) SetUserRole(ctx context.Context, id int, role domain.Role) error {
	return setUserRole(ctx, s.tx, id, role)
}

func createUser(ctx context.Context, exec executor, user *domain.User) error {
	query := `
		INSERT INTO users (email, name, password_hash, role, created_at, updated_at)
		VALUES (:email, :name, :password_hash, :role, :created_at, :updated_at)`

	row := map[string]any{
		"email":         user.Email,
		"name":          user.Name,
		"password_hash": user.PasswordHash,
		"role":          string(user.Role),
		"created_at":    user.CreatedAt.Format(time.RFC3339),
		"updated_at":    user.UpdatedAt.Format(time.RFC3339),
	}

	result, err := exec.NamedExecContext(ctx, query, row)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.email") {
			return NewStoreError("CreateUser", "user", user.Email, "user with this email already exists", ErrDuplicateEmail)
		}
		return NewStoreError("CreateUser", "user", user.Email, err.Error(), err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return NewStoreError("CreateUser", "user", user.Email, err.Error(), err)
	}
	user.ID = int(id)

	return nil
}

func getUser(ctx context.Context, exec executor, id int) (*domain.User, error) {
	query := `SELECT * FROM users WHERE id = ?`

	var row userRow
	err := exec.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetUser", "user", fmt.Sprint(id), "user not found", ErrNotFound)
		}
		return nil, NewStoreError("GetUser", "user", fmt.Sprint(id), err.Error(), err)
	}

	return rowToUser(&row)
}

func getUserByEmail(ctx context.Context, exec executor, email string) (*domain.User, error) {
	query := `SELECT * FROM users WHERE email = ?`

	var row userRow
	err := exec.GetContext(ctx, &row, query, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetUserByEmail", "user", email, "user not found", ErrNotFound)
		}
		return nil, NewStoreError("GetUserByEmail", "user", email, err.Error(), err)
	}

	return rowToUser(&row)
}

func setUserRole(ctx context.Context, exec executor, id int, role domain.Role) error {
	query := `UPDATE users SET role = ?, updated_at = ? WHERE id = ?`

	result, err := exec.ExecContext(ctx, query, string(role), time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return NewStoreError("SetUserRole", "user", fmt.Sprint(id), err.Error(), err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return NewStoreError("SetUserRole", "user", fmt.Sprint(id), "user not found", ErrNotFound)
	}

	return nil
}

func rowToUser(row *userRow) (*domain.User, error) {
	createdAt, err := time.Parse(time.RFC3339, row.CreatedAt)
	if err != nil {
		return nil, NewStoreError("rowToUser", "user", fmt.Sprint(row.ID), "invalid created_at", err)
	}
	updatedAt, err := time.Parse(time.RFC3339, row.UpdatedAt)
	if err != nil {
		return nil, NewStoreError("rowToUser", "user", fmt.Sprint(row.ID), "invalid updated_at", err)
	}

	return &domain.User{
		ID:           row.ID,
		Email:        row.Email,
		Name:         row.Name,
		PasswordHash: row.PasswordHash,
		Role:         domain.Role(row.Role),
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}, nil
}

// =============================================================================
// Session Operations
// =============================================================================

func (s *SQLiteStore) CreateSession(ctx context.Context, token string, userID int, expiresAt time.Time) error {
	return createSession(ctx, s.db, token, userID, expiresAt)
}

func (s *SQLiteStore) GetSessionUser(ctx context.Context, token string) (*domain.User, error) {
	return getSessionUser(ctx, s.db, token)
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, token string) error {
	return deleteSession(ctx, s.db, token)
}

func (s *SQLiteStore) DeleteExpiredSessions(ctx context.Context) (int, error) {
	return deleteExpiredSessions(ctx, s.db)
}

func (s *txSQLiteStore) CreateSession(ctx context.Context, token string, userID int, expiresAt time.Time) error {
	return createSession(ctx, s.tx, token, userID, expiresAt)
}

func (s *txSQLiteStore) GetSessionUser(ctx context.Context, token string) (*domain.User, error) {
	return getSessionUser(ctx, s.tx, token)
}

func (s *txSQLiteStore) DeleteSession(ctx context.Context, token string) error {
	return deleteSession(ctx, s.tx, token)
}

func (s *txSQLiteStore) DeleteExpiredSessions(ctx context.Context) (int, error) {
	return deleteExpiredSessions(ctx, s.tx)
}

func createSession(ctx context.Context, exec executor, token string, userID int, expiresAt time.Time) error {
	query := `
		INSERT INTO sessions (token, user_id, created_at, expires_at)
		VALUES (?, ?, ?, ?)`

	_, err := exec.ExecContext(ctx, query, token, userID,
		time.Now().UTC().Format(time.RFC3339),
		expiresAt.UTC().Format(time.RFC3339))
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return NewStoreError("CreateSession", "session", "", "user not found", ErrForeignKey)
		}
		if strings.Contains(err.Error(), "UNIQUE constraint failed: sessions.token") {
			return NewStoreError("CreateSession", "session", "", "session token already exists", ErrDuplicateID)
		}
		return NewStoreError("CreateSession", "session", "", err.Error(), err)
	}

	return nil
}

func getSessionUser(ctx context.Context, exec executor, token string) (*domain.User, error) {
	query := `
		SELECT u.* FROM users u
		JOIN sessions s ON s.user_id = u.id
		WHERE s.token = ? AND s.expires_at > ?`

	var row userRow
	err := exec.GetContext(ctx, &row, query, token, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetSessionUser", "session", "", "session not found or expired", ErrNotFound)
		}
		return nil, NewStoreError("GetSessionUser", "session", "", err.Error(), err)
	}

	return rowToUser(&row)
}

func deleteSession(ctx context.Context, exec executor, token string) error {
	query := `DELETE FROM sessions WHERE token = ?`

	result, err := exec.ExecContext(ctx, query, token)
	if err != nil {
		return NewStoreError("DeleteSession", "session", "", err.Error(), err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return NewStoreError("DeleteSession", "session", "", "session not found", ErrNotFound)
	}

	return nil
}

func deleteExpiredSessions(ctx context.Context, exec executor) (int, error) {
	query := `DELETE FROM sessions WHERE expires_at <= ?`

	result, err := exec.ExecContext(ctx, query, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, NewStoreError("DeleteExpiredSessions", "session", "", err.Error(), err)
	}

	rowsAffected, _ := result.RowsAffected()
	return int(rowsAffected), nil
}
