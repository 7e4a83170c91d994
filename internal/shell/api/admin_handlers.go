package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/inkpress/inkpress/internal/core/auth"
	"github.com/inkpress/inkpress/internal/core/domain"
)

// =============================================================================
// Admin Handlers
// =============================================================================

// handleListSystemBooks lists every book in the system.
// GET /api/admin/system-books
func (h *Handler) handleListSystemBooks(w http.ResponseWriter, r *http.Request) {
	opts := h.listOptions(r)

	books, err := h.store.ListBooks(r.Context(), opts)
	if err != nil {
		h.logger.Error("failed to list system books", "error", err)
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

// handleAdminDeleteAsset removes a single asset from any book. The asset type
// is validated before the database is touched, and the delete is idempotent:
// an asset that is already gone still reports success.
// DELETE /api/admin/system-books/{bookId}/assets/{assetType}/{assetId}
func (h *Handler) handleAdminDeleteAsset(w http.ResponseWriter, r *http.Request) {
	typ, err := domain.ParseAssetType(chi.URLParam(r, "assetType"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid asset type", "invalid_asset_type")
		return
	}

	bookID := chi.URLParam(r, "bookId")
	assetID := chi.URLParam(r, "assetId")

	if err := h.store.DeleteAsset(r.Context(), typ, bookID, assetID); err != nil && !isNotFound(err) {
		h.logger.Error("failed to delete asset",
			"book_id", bookID, "type", typ, "asset_id", assetID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to delete asset", "internal_error")
		return
	}

	authCtx := auth.FromContext(r.Context())
	h.logger.Info("asset deleted by admin",
		"book_id", bookID, "type", typ, "asset_id", assetID, "admin_id", authCtx.UserID)
	h.writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}
