package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/inkpress/inkpress/internal/core/domain"
	"github.com/inkpress/inkpress/internal/shell/email"
	"github.com/inkpress/inkpress/internal/shell/store"
)

// =============================================================================
// Test Setup
// =============================================================================

type testEnv struct {
	handler http.Handler
	store   store.Store
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		s.Close()
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(Config{
		Store:    s,
		Notifier: email.NewNotifier(email.NewNoopMailer(logger)),
		Logger:   logger,
		DBPath:   ":memory:",
	})

	return &testEnv{handler: h.Routes(), store: s}
}

// createUser inserts a user directly and opens a session for it.
// Returns the user and a bearer token.
func (e *testEnv) createUser(t *testing.T, emailAddr string, role domain.Role) (*domain.User, string) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("swordfish123"), bcrypt.MinCost)
	require.NoError(t, err)

	user, err := domain.NewUser(emailAddr, "Test User", string(hash))
	require.NoError(t, err)
	user.Role = role
	require.NoError(t, e.store.CreateUser(context.Background(), user))

	token := "tok_test_" + emailAddr
	expires := time.Now().UTC().Add(time.Hour)
	require.NoError(t, e.store.CreateSession(context.Background(), token, user.ID, expires))

	return user, token
}

// do runs a request through the router with an optional bearer token and
// JSON body.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

// createBook creates a book through the API and returns its response.
func (e *testEnv) createBook(t *testing.T, token, title string) BookResponse {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/books", token, CreateBookRequest{
		Title:  title,
		Author: "A. Writer",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	return decodeJSON[BookResponse](t, rec)
}

// =============================================================================
// Health
// =============================================================================

func TestHealthEndpoints(t *testing.T) {
	env := setupTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	ready := decodeJSON[ReadyResponse](t, rec)
	assert.Equal(t, "ok", ready.Checks["database"])
}

// =============================================================================
// Auth Flow
// =============================================================================

func TestRegisterLoginLogout(t *testing.T) {
	env := setupTestEnv(t)

	// Register
	rec := env.do(t, http.MethodPost, "/api/auth/register", "", RegisterRequest{
		Email:    "Writer@Example.com",
		Name:     "Writer",
		Password: "longenough",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeJSON[UserResponse](t, rec)
	assert.Equal(t, "writer@example.com", created.Email)
	assert.Equal(t, "standard", created.Role)

	// Duplicate email
	rec = env.do(t, http.MethodPost, "/api/auth/register", "", RegisterRequest{
		Email:    "writer@example.com",
		Password: "longenough",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Login
	rec = env.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{
		Email:    "writer@example.com",
		Password: "longenough",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	session := decodeJSON[SessionResponse](t, rec)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, created.ID, session.User.ID)

	// Session works
	rec = env.do(t, http.MethodGet, "/api/auth/me", session.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Logout invalidates it
	rec = env.do(t, http.MethodPost, "/api/auth/logout", session.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/auth/me", session.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := setupTestEnv(t)
	env.createUser(t, "writer@example.com", domain.RoleStandard)

	rec := env.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{
		Email:    "writer@example.com",
		Password: "wrongpassword",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{
		Email:    "nobody@example.com",
		Password: "swordfish123",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	env := setupTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/register", "", RegisterRequest{
		Email:    "writer@example.com",
		Password: "short",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTestDBReportsTables(t *testing.T) {
	env := setupTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/auth/test-db", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeJSON[TestDBResponse](t, rec)

	names := make([]string, 0, len(resp.Tables))
	for _, tbl := range resp.Tables {
		names = append(names, tbl.Name)
	}
	assert.Contains(t, names, "users")
	assert.Contains(t, names, "books")
	assert.Contains(t, names, "marketing_assets")
}

func TestTestDBMissingFile(t *testing.T) {
	s, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(Config{
		Store:  s,
		Logger: logger,
		DBPath: "/nonexistent/inkpress.db",
	})

	req := httptest.NewRequest(http.MethodGet, "/api/auth/test-db", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// Books
// =============================================================================

func TestBookLifecycle(t *testing.T) {
	env := setupTestEnv(t)
	_, token := env.createUser(t, "writer@example.com", domain.RoleStandard)

	book := env.createBook(t, token, "The Silent Harbor")
	assert.Equal(t, "draft", book.Status)
	assert.Equal(t, "the-silent-harbor", book.Slug)

	// Update
	rec := env.do(t, http.MethodPut, "/api/books/"+book.ID, token, UpdateBookRequest{
		Genre: "mystery",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeJSON[BookResponse](t, rec)
	assert.Equal(t, "mystery", updated.Genre)
	assert.Equal(t, "The Silent Harbor", updated.Title)

	// Publish
	rec = env.do(t, http.MethodPost, "/api/books/"+book.ID+"/publish", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	published := decodeJSON[BookResponse](t, rec)
	assert.Equal(t, "published", published.Status)
	assert.NotNil(t, published.PublishedAt)

	// Publishing twice conflicts
	rec = env.do(t, http.MethodPost, "/api/books/"+book.ID+"/publish", token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// List
	rec = env.do(t, http.MethodGet, "/api/books", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeJSON[ListBooksResponse](t, rec)
	assert.Len(t, list.Books, 1)

	// Delete
	rec = env.do(t, http.MethodDelete, "/api/books/"+book.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/books/"+book.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBooksRequireAuth(t *testing.T) {
	env := setupTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/books", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/books", "", CreateBookRequest{Title: "X", Author: "Y"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBookOwnership(t *testing.T) {
	env := setupTestEnv(t)
	_, ownerToken := env.createUser(t, "owner@example.com", domain.RoleStandard)
	_, otherToken := env.createUser(t, "other@example.com", domain.RoleStandard)
	_, adminToken := env.createUser(t, "admin@example.com", domain.RoleAdmin)

	book := env.createBook(t, ownerToken, "Private Draft")

	// Another user sees 403, not 404: the book exists but is not theirs.
	rec := env.do(t, http.MethodGet, "/api/books/"+book.ID, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/books/"+book.ID, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Admins can read any book.
	rec = env.do(t, http.MethodGet, "/api/books/"+book.ID, adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// A missing book is 404 for everyone.
	rec = env.do(t, http.MethodGet, "/api/books/book_missing1", otherToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// Features
// =============================================================================

func TestBookFeatures(t *testing.T) {
	env := setupTestEnv(t)
	_, ownerToken := env.createUser(t, "owner@example.com", domain.RoleStandard)
	_, otherToken := env.createUser(t, "other@example.com", domain.RoleStandard)
	_, adminToken := env.createUser(t, "admin@example.com", domain.RoleAdmin)

	book := env.createBook(t, ownerToken, "Feature Test")

	// Owner sees the seeded checklist.
	rec := env.do(t, http.MethodGet, "/api/books/"+book.ID+"/features", ownerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	features := decodeJSON[[]FeatureResponse](t, rec)
	require.NotEmpty(t, features)

	byName := make(map[string]string, len(features))
	for _, f := range features {
		byName[f.Name] = f.Status
	}
	assert.Equal(t, "available", byName["landing-page"])
	assert.Equal(t, "locked", byName["press-release"])

	// Admin may read any book's features; a stranger may not.
	rec = env.do(t, http.MethodGet, "/api/books/"+book.ID+"/features", adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/books/"+book.ID+"/features", otherToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Unknown book is 404 even for a would-be 403 caller.
	rec = env.do(t, http.MethodGet, "/api/books/book_missing1/features", otherToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Unauthenticated is 401.
	rec = env.do(t, http.MethodGet, "/api/books/"+book.ID+"/features", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestActivateFeature(t *testing.T) {
	env := setupTestEnv(t)
	_, token := env.createUser(t, "owner@example.com", domain.RoleStandard)
	book := env.createBook(t, token, "Activation Test")

	// Available feature activates.
	rec := env.do(t, http.MethodPut, "/api/books/"+book.ID+"/features/landing-page", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	feat := decodeJSON[FeatureResponse](t, rec)
	assert.Equal(t, "active", feat.Status)

	// Locked feature conflicts.
	rec = env.do(t, http.MethodPut, "/api/books/"+book.ID+"/features/press-release", token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Unknown feature name is 404.
	rec = env.do(t, http.MethodPut, "/api/books/"+book.ID+"/features/time-travel", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// Assets
// =============================================================================

func TestAssetEndpoints(t *testing.T) {
	env := setupTestEnv(t)
	_, token := env.createUser(t, "owner@example.com", domain.RoleStandard)
	book := env.createBook(t, token, "Asset Test")

	// Create one asset per type.
	for _, typ := range domain.AssetTypes() {
		rec := env.do(t, http.MethodPost,
			fmt.Sprintf("/api/books/%s/assets/%s", book.ID, typ),
			token,
			CreateAssetRequest{Name: "file-" + string(typ) + ".png"},
		)
		require.Equal(t, http.StatusCreated, rec.Code, "type %s", typ)
	}

	// List covers.
	rec := env.do(t, http.MethodGet, "/api/books/"+book.ID+"/assets/covers", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assets := decodeJSON[[]AssetResponse](t, rec)
	require.Len(t, assets, 1)
	assert.Equal(t, "covers", assets[0].Type)

	// Unknown type is rejected up front.
	rec = env.do(t, http.MethodGet, "/api/books/"+book.ID+"/assets/blueprints", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// Admin
// =============================================================================

func TestAdminSystemBooks(t *testing.T) {
	env := setupTestEnv(t)
	_, ownerToken := env.createUser(t, "owner@example.com", domain.RoleStandard)
	_, adminToken := env.createUser(t, "admin@example.com", domain.RoleAdmin)

	env.createBook(t, ownerToken, "Book One")
	env.createBook(t, ownerToken, "Book Two")

	// Standard users cannot reach admin routes.
	rec := env.do(t, http.MethodGet, "/api/admin/system-books", ownerToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Unauthenticated is 401, not 403.
	rec = env.do(t, http.MethodGet, "/api/admin/system-books", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/admin/system-books", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeJSON[ListBooksResponse](t, rec)
	assert.Len(t, list.Books, 2)
}

func TestAdminDeleteAsset(t *testing.T) {
	env := setupTestEnv(t)
	_, ownerToken := env.createUser(t, "owner@example.com", domain.RoleStandard)
	_, adminToken := env.createUser(t, "admin@example.com", domain.RoleAdmin)

	book := env.createBook(t, ownerToken, "Asset Host")
	rec := env.do(t, http.MethodPost, "/api/books/"+book.ID+"/assets/covers", ownerToken,
		CreateAssetRequest{Name: "cover.png"})
	require.Equal(t, http.StatusCreated, rec.Code)
	asset := decodeJSON[AssetResponse](t, rec)

	path := fmt.Sprintf("/api/admin/system-books/%s/assets/covers/%s", book.ID, asset.ID)

	// Standard user is refused.
	rec = env.do(t, http.MethodDelete, path, ownerToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Admin delete succeeds.
	rec = env.do(t, http.MethodDelete, path, adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeJSON[SuccessResponse](t, rec).Success)

	// And again: the delete is idempotent.
	rec = env.do(t, http.MethodDelete, path, adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeJSON[SuccessResponse](t, rec).Success)

	// The asset is actually gone.
	rec = env.do(t, http.MethodGet, "/api/books/"+book.ID+"/assets/covers", ownerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeJSON[[]AssetResponse](t, rec))
}

func TestAdminDeleteAssetValidatesType(t *testing.T) {
	env := setupTestEnv(t)
	_, adminToken := env.createUser(t, "admin@example.com", domain.RoleAdmin)

	rec := env.do(t, http.MethodDelete,
		"/api/admin/system-books/book_x/assets/blueprints/ast_y", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeJSON[ErrorResponse](t, rec)
	assert.Equal(t, "invalid asset type", body.Error)
}

func TestAdminDeleteAssetScopedToBook(t *testing.T) {
	env := setupTestEnv(t)
	_, ownerToken := env.createUser(t, "owner@example.com", domain.RoleStandard)
	_, adminToken := env.createUser(t, "admin@example.com", domain.RoleAdmin)

	bookA := env.createBook(t, ownerToken, "Book A")
	bookB := env.createBook(t, ownerToken, "Book B")

	rec := env.do(t, http.MethodPost, "/api/books/"+bookA.ID+"/assets/covers", ownerToken,
		CreateAssetRequest{Name: "cover.png"})
	require.Equal(t, http.StatusCreated, rec.Code)
	asset := decodeJSON[AssetResponse](t, rec)

	// Deleting through the wrong book reports success (idempotent shape)
	// but must not touch the asset.
	rec = env.do(t, http.MethodDelete,
		fmt.Sprintf("/api/admin/system-books/%s/assets/covers/%s", bookB.ID, asset.ID),
		adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/books/"+bookA.ID+"/assets/covers", ownerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeJSON[[]AssetResponse](t, rec), 1)
}
