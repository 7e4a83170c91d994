package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/inkpress/inkpress/internal/core/auth"
	"github.com/inkpress/inkpress/internal/core/domain"
	mw "github.com/inkpress/inkpress/internal/shell/api/middleware"
	"github.com/inkpress/inkpress/internal/shell/store"
)

// =============================================================================
// Auth Handlers
// =============================================================================

// handleRegister creates a new account.
// POST /api/auth/register
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body", "invalid_request")
		return
	}

	if err := domain.ValidatePassword(req.Password); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), "invalid_password")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("failed to hash password", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to create account", "internal_error")
		return
	}

	user, err := domain.NewUser(req.Email, req.Name, string(hash))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), "invalid_email")
		return
	}

	if err := h.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			h.writeError(w, http.StatusConflict, "email already registered", "email_taken")
			return
		}
		h.logger.Error("failed to create user", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to create account", "internal_error")
		return
	}

	// Welcome mail is best-effort; registration succeeded either way.
	if err := h.notifier.Welcome(r.Context(), user); err != nil {
		h.logger.Error("failed to send welcome email", "user_id", user.ID, "error", err)
	}

	h.logger.Info("user registered", "user_id", user.ID, "email", user.Email)
	h.writeJSON(w, http.StatusCreated, userToResponse(user))
}

// handleLogin opens a session and sets the session cookie.
// POST /api/auth/login
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body", "invalid_request")
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusUnauthorized, "invalid credentials", "invalid_credentials")
			return
		}
		h.logger.Error("failed to look up user", "error", err)
		h.writeError(w, http.StatusInternalServerError, "login failed", "internal_error")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		h.writeError(w, http.StatusUnauthorized, "invalid credentials", "invalid_credentials")
		return
	}

	token := "tok_" + uuid.New().String()
	expiresAt := time.Now().UTC().Add(h.sessionTTL)
	if err := h.store.CreateSession(r.Context(), token, user.ID, expiresAt); err != nil {
		h.logger.Error("failed to create session", "user_id", user.ID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "login failed", "internal_error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     mw.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	h.logger.Info("user logged in", "user_id", user.ID)
	h.writeJSON(w, http.StatusOK, SessionResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      userToResponse(user),
	})
}

// handleLogout closes the current session. Safe to call without one.
// POST /api/auth/logout
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := mw.TokenFromRequest(r); token != "" {
		if err := h.store.DeleteSession(r.Context(), token); err != nil && !isNotFound(err) {
			h.logger.Error("failed to delete session", "error", err)
			h.writeError(w, http.StatusInternalServerError, "logout failed", "internal_error")
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     mw.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	h.writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// handleMe returns the authenticated account.
// GET /api/auth/me
func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.FromContext(r.Context())

	user, err := h.store.GetUser(r.Context(), authCtx.UserID)
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "user not found", "user_not_found")
			return
		}
		h.logger.Error("failed to get user", "user_id", authCtx.UserID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get user", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusOK, userToResponse(user))
}

// =============================================================================
// Database Diagnostic
// =============================================================================

// TestDBResponse reports the database file and its tables.
type TestDBResponse struct {
	Path   string            `json:"path,omitempty"`
	Tables []store.TableInfo `json:"tables"`
}

// handleTestDB reports whether the database is reachable and what tables it
// holds. A configured file path that does not exist on disk is a 404; the
// in-memory database skips the file check.
// GET /api/auth/test-db
func (h *Handler) handleTestDB(w http.ResponseWriter, r *http.Request) {
	if h.dbPath != "" && h.dbPath != ":memory:" {
		if _, err := os.Stat(h.dbPath); err != nil {
			if os.IsNotExist(err) {
				h.writeError(w, http.StatusNotFound, "database file not found", "db_missing")
				return
			}
			h.logger.Error("failed to stat database file", "path", h.dbPath, "error", err)
			h.writeError(w, http.StatusInternalServerError, "database check failed", "internal_error")
			return
		}
	}

	tables, err := h.store.Inspect(r.Context())
	if err != nil {
		h.logger.Error("failed to inspect database", "error", err)
		h.writeError(w, http.StatusInternalServerError, "database check failed", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusOK, TestDBResponse{
		Path:   h.dbPath,
		Tables: tables,
	})
}
