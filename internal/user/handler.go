package user

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/backend-starter/api/internal/auth"
	"github.com/backend-starter/api/internal/utils"
)

// Handler exposes registration and profile operations.
type Handler struct {
	DB         *gorm.DB
	Repository Repository
	Log        *zap.Logger
}

func NewHandler(db *gorm.DB, log *zap.Logger) *Handler {
	return &Handler{
		DB:         db,
		Repository: NewRepository(),
		Log:        log,
	}
}

// Register creates a new account from an email and password.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid payload", "http_error")
		return
	}
	if req.Password == "" || !strings.Contains(req.Email, "@") {
		utils.WriteError(w, http.StatusUnprocessableEntity, "Validation error", "validation_error")
		return
	}

	existing, err := h.Repository.FindByEmail(h.DB, req.Email)
	if err != nil {
		h.Log.Error("user lookup failed", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Database error", "db_error")
		return
	}
	if existing != nil {
		utils.WriteError(w, http.StatusBadRequest, "Email already registered", "http_error")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		h.Log.Error("password hashing failed", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Database error", "db_error")
		return
	}

	u := User{Email: req.Email, Password: hash, IsActive: true}
	if err := h.Repository.Create(h.DB, &u); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a race with a concurrent registration of the same
			// address.
			utils.WriteError(w, http.StatusConflict, "Database integrity error", "db_integrity_error")
			return
		}
		h.Log.Error("user creation failed", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Database error", "db_error")
		return
	}
	utils.WriteJSON(w, http.StatusCreated, toUserOut(&u))
}

// List returns all registered accounts.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.Repository.ListAll(h.DB)
	if err != nil {
		h.Log.Error("user listing failed", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Database error", "db_error")
		return
	}
	out := make([]UserOut, 0, len(users))
	for i := range users {
		out = append(out, toUserOut(&users[i]))
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

// Me returns the authenticated account.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	utils.WriteJSON(w, http.StatusOK, toUserOut(u))
}

// ChangePassword replaces the password after verifying the current one.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid payload", "http_error")
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		utils.WriteError(w, http.StatusUnprocessableEntity, "Validation error", "validation_error")
		return
	}
	if !utils.CheckPassword(u.Password, req.CurrentPassword) {
		utils.WriteError(w, http.StatusBadRequest, "Incorrect current password", "http_error")
		return
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		h.Log.Error("password hashing failed", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Database error", "db_error")
		return
	}
	u.Password = hash
	if err := h.Repository.Save(h.DB, u); err != nil {
		h.Log.Error("password update failed", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Database error", "db_error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) (*User, bool) {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Could not validate credentials", "auth_error")
		return nil, false
	}
	u, err := h.Repository.FindByID(h.DB, id)
	if err != nil {
		h.Log.Error("user lookup failed", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Database error", "db_error")
		return nil, false
	}
	if u == nil {
		utils.WriteError(w, http.StatusUnauthorized, "Could not validate credentials", "auth_error")
		return nil, false
	}
	return u, true
}
