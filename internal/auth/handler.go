package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/backend-starter/api/internal/utils"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Handler exposes the session operations over HTTP.
type Handler struct {
	Sessions *SessionManager
	Log      *zap.Logger
}

func NewHandler(sessions *SessionManager, log *zap.Logger) *Handler {
	return &Handler{Sessions: sessions, Log: log}
}

// Login issues an access/refresh pair for valid credentials.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid payload", "http_error")
		return
	}
	if req.Email == "" || req.Password == "" {
		utils.WriteError(w, http.StatusUnprocessableEntity, "Validation error", "validation_error")
		return
	}

	pair, err := h.Sessions.Login(req.Email, req.Password)
	if errors.Is(err, ErrAuthenticationFailed) {
		utils.WriteError(w, http.StatusUnauthorized, "Invalid credentials", "auth_error")
		return
	}
	if err != nil {
		h.Log.Error("login failed", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Database error", "db_error")
		return
	}
	utils.WriteJSON(w, http.StatusOK, pair)
}

// Refresh rotates a refresh token for a new pair.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid payload", "http_error")
		return
	}
	if req.RefreshToken == "" {
		utils.WriteError(w, http.StatusUnprocessableEntity, "Validation error", "validation_error")
		return
	}

	pair, err := h.Sessions.Rotate(req.RefreshToken)
	if errors.Is(err, ErrRefreshInvalid) {
		utils.WriteError(w, http.StatusUnauthorized, "Invalid or expired refresh token", "auth_error")
		return
	}
	if err != nil {
		h.Log.Error("refresh failed", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Database error", "db_error")
		return
	}
	utils.WriteJSON(w, http.StatusOK, pair)
}

// Logout revokes the presented refresh token and always returns 204.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.RefreshToken != "" {
		h.Sessions.Logout(req.RefreshToken)
	}
	w.WriteHeader(http.StatusNoContent)
}
