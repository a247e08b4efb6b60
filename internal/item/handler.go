package item

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/backend-starter/api/internal/auth"
	"github.com/backend-starter/api/internal/utils"
)

// Handler exposes ownership-scoped CRUD over items. Missing items and
// items owned by someone else both answer 404, so the API does not
// reveal which ids exist.
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

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Could not validate credentials", "auth_error")
		return
	}

	var req createItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid payload", "http_error")
		return
	}
	if req.Title == "" {
		utils.WriteError(w, http.StatusUnprocessableEntity, "Validation error", "validation_error")
		return
	}

	i := Item{Title: req.Title, Description: req.Description, OwnerID: ownerID}
	if err := h.Repository.Create(h.DB, &i); err != nil {
		h.Log.Error("item creation failed", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Database error", "db_error")
		return
	}
	utils.WriteJSON(w, http.StatusCreated, toItemOut(&i))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Could not validate credentials", "auth_error")
		return
	}

	items, err := h.Repository.ListByOwner(h.DB, ownerID)
	if err != nil {
		h.Log.Error("item listing failed", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Database error", "db_error")
		return
	}
	out := make([]ItemOut, 0, len(items))
	for i := range items {
		out = append(out, toItemOut(&items[i]))
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	i, ok := h.ownedItem(w, r)
	if !ok {
		return
	}
	utils.WriteJSON(w, http.StatusOK, toItemOut(i))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	i, ok := h.ownedItem(w, r)
	if !ok {
		return
	}

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid payload", "http_error")
		return
	}
	if req.Title != nil {
		i.Title = *req.Title
	}
	if req.Description != nil {
		i.Description = *req.Description
	}
	if err := h.Repository.Save(h.DB, i); err != nil {
		h.Log.Error("item update failed", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Database error", "db_error")
		return
	}
	utils.WriteJSON(w, http.StatusOK, toItemOut(i))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	i, ok := h.ownedItem(w, r)
	if !ok {
		return
	}
	if err := h.Repository.Delete(h.DB, i.ID); err != nil {
		h.Log.Error("item deletion failed", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Database error", "db_error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ownedItem loads the item from the path and enforces ownership.
func (h *Handler) ownedItem(w http.ResponseWriter, r *http.Request) (*Item, bool) {
	ownerID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Could not validate credentials", "auth_error")
		return nil, false
	}

	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		utils.WriteError(w, http.StatusNotFound, "Item not found", "http_error")
		return nil, false
	}
	i, err := h.Repository.FindByID(h.DB, uint(id))
	if err != nil {
		h.Log.Error("item lookup failed", zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "Database error", "db_error")
		return nil, false
	}
	if i == nil || i.OwnerID != ownerID {
		utils.WriteError(w, http.StatusNotFound, "Item not found", "http_error")
		return nil, false
	}
	return i, true
}
