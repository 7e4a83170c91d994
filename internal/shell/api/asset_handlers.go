package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/inkpress/inkpress/internal/core/domain"
)

// =============================================================================
// Asset Handlers
// =============================================================================

// handleListAssets lists a book's assets of one type.
// GET /api/books/{id}/assets/{assetType}
func (h *Handler) handleListAssets(w http.ResponseWriter, r *http.Request) {
	typ, err := domain.ParseAssetType(chi.URLParam(r, "assetType"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid asset type", "invalid_asset_type")
		return
	}

	book, ok := h.loadBookAuthorized(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	assets, err := h.store.ListAssetsByBook(r.Context(), typ, book.ID)
	if err != nil {
		h.logger.Error("failed to list assets", "book_id", book.ID, "type", typ, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list assets", "internal_error")
		return
	}

	resp := make([]AssetResponse, 0, len(assets))
	for i := range assets {
		resp = append(resp, assetToResponse(&assets[i]))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// handleCreateAsset registers an asset against a book.
// POST /api/books/{id}/assets/{assetType}
func (h *Handler) handleCreateAsset(w http.ResponseWriter, r *http.Request) {
	typ, err := domain.ParseAssetType(chi.URLParam(r, "assetType"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid asset type", "invalid_asset_type")
		return
	}

	book, ok := h.loadBookAuthorized(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req CreateAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body", "invalid_request")
		return
	}

	if req.SizeBytes < 0 {
		h.writeError(w, http.StatusBadRequest, domain.ErrAssetSizeNegative.Error(), "invalid_asset")
		return
	}

	asset, err := domain.NewAsset(book.ID, typ, req.Name)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), "invalid_asset")
		return
	}
	asset.ContentType = req.ContentType
	asset.URL = req.URL
	asset.SizeBytes = req.SizeBytes

	if err := h.store.CreateAsset(r.Context(), asset); err != nil {
		h.logger.Error("failed to create asset", "book_id", book.ID, "type", typ, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to create asset", "internal_error")
		return
	}

	h.logger.Info("asset created", "asset_id", asset.ID, "book_id", book.ID, "type", typ)
	h.writeJSON(w, http.StatusCreated, assetToResponse(asset))
}
