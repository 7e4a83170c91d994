package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/inkpress/inkpress/internal/core/auth"
	"github.com/inkpress/inkpress/internal/core/domain"
	"github.com/inkpress/inkpress/internal/core/feature"
)

// =============================================================================
// Book Handlers
// =============================================================================

// handleCreateBook creates a book with its feature checklist seeded from the
// catalog.
// POST /api/books
func (h *Handler) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.FromContext(r.Context())

	var req CreateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body", "invalid_request")
		return
	}

	book, err := domain.NewBook(authCtx.UserID, req.Title, req.Author)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), "invalid_book")
		return
	}
	book.Subtitle = req.Subtitle
	book.Genre = req.Genre
	book.Description = req.Description

	features, err := feature.SeedFeatures(book.ID)
	if err != nil {
		h.logger.Error("failed to seed features", "book_id", book.ID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to create book", "internal_error")
		return
	}

	if err := h.store.CreateBook(r.Context(), book, features); err != nil {
		h.logger.Error("failed to create book", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to create book", "internal_error")
		return
	}

	h.logger.Info("book created", "book_id", book.ID, "user_id", authCtx.UserID)
	h.writeJSON(w, http.StatusCreated, bookToResponse(book))
}

// handleListBooks lists the caller's own books.
// GET /api/books
func (h *Handler) handleListBooks(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.FromContext(r.Context())
	opts := h.listOptions(r)

	books, err := h.store.ListBooksByOwner(r.Context(), authCtx.UserID, opts)
	if err != nil {
		h.logger.Error("failed to list books", "user_id", authCtx.UserID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list books", "internal_error")
		return
	}

	resp := ListBooksResponse{
		Books:  make([]BookResponse, 0, len(books)),
		Total:  len(books),
		Limit:  opts.Limit,
		Offset: opts.Offset,
	}
	for i := range books {
		resp.Books = append(resp.Books, bookToResponse(&books[i]))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// handleGetBook returns a single book.
// GET /api/books/{id}
func (h *Handler) handleGetBook(w http.ResponseWriter, r *http.Request) {
	book, ok := h.loadBookAuthorized(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, bookToResponse(book))
}

// handleUpdateBook updates book metadata. Absent fields are left unchanged.
// PUT /api/books/{id}
func (h *Handler) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	book, ok := h.loadBookAuthorized(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req UpdateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body", "invalid_request")
		return
	}

	if req.Title != "" {
		if err := domain.ValidateTitle(req.Title); err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error(), "invalid_book")
			return
		}
		book.Title = req.Title
		book.Slug = domain.Slugify(req.Title)
	}
	if req.Subtitle != "" {
		book.Subtitle = req.Subtitle
	}
	if req.Author != "" {
		book.Author = req.Author
	}
	if req.Genre != "" {
		book.Genre = req.Genre
	}
	if req.Description != "" {
		book.Description = req.Description
	}

	if err := h.store.UpdateBook(r.Context(), book); err != nil {
		h.logger.Error("failed to update book", "book_id", book.ID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to update book", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusOK, bookToResponse(book))
}

// handleDeleteBook deletes a book and everything attached to it.
// DELETE /api/books/{id}
func (h *Handler) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	book, ok := h.loadBookAuthorized(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.store.DeleteBook(r.Context(), book.ID); err != nil && !isNotFound(err) {
		h.logger.Error("failed to delete book", "book_id", book.ID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to delete book", "internal_error")
		return
	}

	h.logger.Info("book deleted", "book_id", book.ID)
	h.writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// handlePublishBook moves a draft to published.
// POST /api/books/{id}/publish
func (h *Handler) handlePublishBook(w http.ResponseWriter, r *http.Request) {
	book, ok := h.loadBookAuthorized(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := book.Publish(); err != nil {
		if errors.Is(err, domain.ErrAlreadyPublished) {
			h.writeError(w, http.StatusConflict, err.Error(), "already_published")
			return
		}
		h.writeError(w, http.StatusBadRequest, err.Error(), "invalid_book")
		return
	}

	if err := h.store.UpdateBook(r.Context(), book); err != nil {
		h.logger.Error("failed to publish book", "book_id", book.ID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to publish book", "internal_error")
		return
	}

	authCtx := auth.FromContext(r.Context())
	if owner, err := h.store.GetUser(r.Context(), book.UserID); err == nil {
		if err := h.notifier.BookPublished(r.Context(), owner, book); err != nil {
			h.logger.Error("failed to send publish email", "book_id", book.ID, "error", err)
		}
	}

	h.logger.Info("book published", "book_id", book.ID, "user_id", authCtx.UserID)
	h.writeJSON(w, http.StatusOK, bookToResponse(book))
}

// =============================================================================
// Feature Handlers
// =============================================================================

// handleListFeatures returns the feature checklist for a book. The book must
// exist before ownership is considered, and admins may read any book's list.
// GET /api/books/{id}/features
func (h *Handler) handleListFeatures(w http.ResponseWriter, r *http.Request) {
	book, ok := h.loadBookAuthorized(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	features, err := h.store.ListFeaturesByBook(r.Context(), book.ID)
	if err != nil {
		h.logger.Error("failed to list features", "book_id", book.ID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list features", "internal_error")
		return
	}

	resp := make([]FeatureResponse, 0, len(features))
	for i := range features {
		resp = append(resp, featureToResponse(&features[i]))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// handleActivateFeature flips an available feature to active.
// PUT /api/books/{id}/features/{name}
func (h *Handler) handleActivateFeature(w http.ResponseWriter, r *http.Request) {
	book, ok := h.loadBookAuthorized(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	name := chi.URLParam(r, "name")
	feat, err := h.store.GetFeature(r.Context(), book.ID, name)
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "feature not found", "feature_not_found")
			return
		}
		h.logger.Error("failed to get feature", "book_id", book.ID, "name", name, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get feature", "internal_error")
		return
	}

	if err := feat.Activate(); err != nil {
		if errors.Is(err, domain.ErrFeatureLocked) {
			h.writeError(w, http.StatusConflict, "feature is locked", "feature_locked")
			return
		}
		h.writeError(w, http.StatusBadRequest, err.Error(), "invalid_feature")
		return
	}

	if err := h.store.UpdateFeature(r.Context(), feat); err != nil {
		h.logger.Error("failed to update feature", "book_id", book.ID, "name", name, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to update feature", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusOK, featureToResponse(feat))
}
