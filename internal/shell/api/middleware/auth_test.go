package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkpress/inkpress/internal/core/auth"
	"github.com/inkpress/inkpress/internal/core/domain"
	"github.com/inkpress/inkpress/internal/shell/store"
)

// fakeResolver resolves a fixed token to a fixed user.
type fakeResolver struct {
	token string
	user  *domain.User
	err   error
}

func (f *fakeResolver) GetSessionUser(ctx context.Context, token string) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if token != f.token {
		return nil, store.ErrNotFound
	}
	return f.user, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// captureAuth returns a handler that records the auth context it saw.
func captureAuth(got *auth.Context) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = auth.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestSessionAuth_Cookie(t *testing.T) {
	user := &domain.User{ID: 7, Email: "reader@example.com", Role: domain.RoleStandard}
	m := NewSessionAuth(AuthConfig{
		Resolver: &fakeResolver{token: "tok_abc", user: user},
		Logger:   testLogger(),
	})

	var got auth.Context
	req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "tok_abc"})
	rec := httptest.NewRecorder()

	m.Handler(captureAuth(&got)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, got.Authenticated)
	assert.Equal(t, 7, got.UserID)
	assert.Equal(t, domain.RoleStandard, got.Role)
}

func TestSessionAuth_BearerToken(t *testing.T) {
	user := &domain.User{ID: 3, Email: "reader@example.com", Role: domain.RoleAdmin}
	m := NewSessionAuth(AuthConfig{
		Resolver: &fakeResolver{token: "tok_bearer", user: user},
		Logger:   testLogger(),
	})

	var got auth.Context
	req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
	req.Header.Set("Authorization", "Bearer tok_bearer")
	rec := httptest.NewRecorder()

	m.Handler(captureAuth(&got)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, got.Authenticated)
	assert.True(t, got.IsAdmin())
}

func TestSessionAuth_UnknownTokenContinuesAnonymous(t *testing.T) {
	m := NewSessionAuth(AuthConfig{
		Resolver: &fakeResolver{token: "tok_real"},
		Logger:   testLogger(),
	})

	var got auth.Context
	req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "tok_bogus"})
	rec := httptest.NewRecorder()

	m.Handler(captureAuth(&got)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, got.Authenticated)
}

func TestSessionAuth_ResolverError(t *testing.T) {
	m := NewSessionAuth(AuthConfig{
		Resolver: &fakeResolver{err: assert.AnError},
		Logger:   testLogger(),
	})

	var got auth.Context
	req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
	req.Header.Set("Authorization", "Bearer tok_any")
	rec := httptest.NewRecorder()

	m.Handler(captureAuth(&got)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSessionAuth_NoToken(t *testing.T) {
	m := NewSessionAuth(AuthConfig{
		Resolver: &fakeResolver{},
		Logger:   testLogger(),
	})

	var got auth.Context
	req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
	rec := httptest.NewRecorder()

	m.Handler(captureAuth(&got)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, got.Authenticated)
}

func TestTokenFromRequest_CookieWinsOverHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "tok_cookie"})
	req.Header.Set("Authorization", "Bearer tok_header")

	assert.Equal(t, "tok_cookie", TokenFromRequest(req))
}

func TestRequireAuth(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	protected := RequireAuth(testLogger())(next)

	t.Run("anonymous rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
		req = req.WithContext(auth.WithContext(req.Context(), auth.Anonymous()))
		rec := httptest.NewRecorder()

		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("authenticated passes", func(t *testing.T) {
		user := &domain.User{ID: 1, Role: domain.RoleStandard}
		req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
		req = req.WithContext(auth.WithContext(req.Context(), auth.FromUser(user)))
		rec := httptest.NewRecorder()

		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRequireAdmin(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	protected := RequireAdmin(testLogger())(next)

	t.Run("standard user rejected", func(t *testing.T) {
		user := &domain.User{ID: 1, Role: domain.RoleStandard}
		req := httptest.NewRequest(http.MethodGet, "/api/admin/system-books", nil)
		req = req.WithContext(auth.WithContext(req.Context(), auth.FromUser(user)))
		rec := httptest.NewRecorder()

		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin passes", func(t *testing.T) {
		user := &domain.User{ID: 2, Role: domain.RoleAdmin}
		req := httptest.NewRequest(http.MethodGet, "/api/admin/system-books", nil)
		req = req.WithContext(auth.WithContext(req.Context(), auth.FromUser(user)))
		rec := httptest.NewRecorder()

		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
