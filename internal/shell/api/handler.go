// Package api provides HTTP handlers for the Inkpress API.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/inkpress/inkpress/internal/core/auth"
	"github.com/inkpress/inkpress/internal/core/domain"
	mw "github.com/inkpress/inkpress/internal/shell/api/middleware"
	"github.com/inkpress/inkpress/internal/shell/email"
	"github.com/inkpress/inkpress/internal/shell/store"
)

// =============================================================================
// Handler
// =============================================================================

// Handler provides HTTP handlers for the API.
type Handler struct {
	store      store.Store
	notifier   *email.Notifier
	logger     *slog.Logger
	dbPath     string
	sessionTTL time.Duration
}

// Config holds construction options for the API handler.
type Config struct {
	Store    store.Store
	Notifier *email.Notifier
	Logger   *slog.Logger

	// DBPath is the database file path, used by the test-db diagnostic.
	// Empty or ":memory:" skips the file existence check.
	DBPath string

	// SessionTTL is how long a login session stays valid. Default: 7 days.
	SessionTTL time.Duration
}

// NewHandler creates a new API handler.
func NewHandler(cfg Config) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Notifier == nil {
		cfg.Notifier = email.NewNotifier(email.NewNoopMailer(cfg.Logger))
	}
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = 7 * 24 * time.Hour
	}
	return &Handler{
		store:      cfg.Store,
		notifier:   cfg.Notifier,
		logger:     cfg.Logger,
		dbPath:     cfg.DBPath,
		sessionTTL: cfg.SessionTTL,
	}
}

// Routes returns the router with all routes configured.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.jsonContentType)
	r.Use(h.requestIDHeader)

	sessionAuth := mw.NewSessionAuth(mw.AuthConfig{
		Resolver: h.store,
		Logger:   h.logger,
	})
	r.Use(sessionAuth.Handler)

	// Health endpoints
	r.Get("/health", h.handleHealth)
	r.Get("/ready", h.handleReady)

	r.Route("/api", func(r chi.Router) {
		// Auth routes
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.handleRegister)
			r.Post("/login", h.handleLogin)
			r.Post("/logout", h.handleLogout)
			r.Get("/test-db", h.handleTestDB)
			r.With(mw.RequireAuth(h.logger)).Get("/me", h.handleMe)
		})

		// Book routes
		r.Route("/books", func(r chi.Router) {
			r.Use(mw.RequireAuth(h.logger))
			r.Post("/", h.handleCreateBook)
			r.Get("/", h.handleListBooks)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.handleGetBook)
				r.Put("/", h.handleUpdateBook)
				r.Delete("/", h.handleDeleteBook)
				r.Post("/publish", h.handlePublishBook)
				r.Get("/features", h.handleListFeatures)
				r.Put("/features/{name}", h.handleActivateFeature)
				r.Get("/assets/{assetType}", h.handleListAssets)
				r.Post("/assets/{assetType}", h.handleCreateAsset)
			})
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Use(mw.RequireAuth(h.logger))
			r.Use(mw.RequireAdmin(h.logger))
			r.Get("/system-books", h.handleListSystemBooks)
			r.Delete("/system-books/{bookId}/assets/{assetType}/{assetId}", h.handleAdminDeleteAsset)
		})
	})

	return r
}

// =============================================================================
// Middleware
// =============================================================================

// jsonContentType sets Content-Type header to application/json.
func (h *Handler) jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// requestIDHeader copies the request ID to the response header.
func (h *Handler) requestIDHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reqID := middleware.GetReqID(r.Context()); reqID != "" {
			w.Header().Set("X-Request-ID", reqID)
		}
		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Health Handlers
// =============================================================================

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)

	if _, err := h.store.Inspect(r.Context()); err != nil {
		checks["database"] = "failed"
		h.writeJSON(w, http.StatusServiceUnavailable, ReadyResponse{
			Status: "not_ready",
			Checks: checks,
		})
		return
	}
	checks["database"] = "ok"

	h.writeJSON(w, http.StatusOK, ReadyResponse{
		Status: "ready",
		Checks: checks,
	})
}

// =============================================================================
// Shared Helpers
// =============================================================================

// loadBookAuthorized fetches a book and enforces owner-or-admin access.
// Existence is checked before ownership, so an absent book is a 404 for
// everyone and a present, foreign book is a 403. Writes the error response
// itself; callers bail out when ok is false.
func (h *Handler) loadBookAuthorized(w http.ResponseWriter, r *http.Request, id string) (*domain.Book, bool) {
	book, err := h.store.GetBook(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "book not found", "book_not_found")
			return nil, false
		}
		h.logger.Error("failed to get book", "book_id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get book", "internal_error")
		return nil, false
	}

	authCtx := auth.FromContext(r.Context())
	if !auth.CanViewBook(authCtx, *book) {
		h.writeError(w, http.StatusForbidden, "not your book", "forbidden")
		return nil, false
	}

	return book, true
}

func (h *Handler) listOptions(r *http.Request) store.ListOptions {
	opts := store.DefaultListOptions()
	if limit := r.URL.Query().Get("limit"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil {
			opts.Limit = l
		}
	}
	if offset := r.URL.Query().Get("offset"); offset != "" {
		if o, err := strconv.Atoi(offset); err == nil {
			opts.Offset = o
		}
	}
	return opts.Normalize()
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message, code string) {
	h.writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// isNotFound checks if an error is a not found error.
func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
