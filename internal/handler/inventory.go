package handler

import (
	"net/http"

	"skinvault-api/internal/middleware"
	"skinvault-api/internal/model"
	"skinvault-api/internal/repository"
	"skinvault-api/internal/service"
	"skinvault-api/pkg/apierror"
	"skinvault-api/pkg/response"
)

// InventoryHandler handles inventory-related HTTP requests for the
// authenticated user.
type InventoryHandler struct {
	sync      *service.SyncService
	inventory repository.InventoryRepository
	users     repository.UserRepository
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(sync *service.SyncService, inventory repository.InventoryRepository, users repository.UserRepository) *InventoryHandler {
	return &InventoryHandler{sync: sync, inventory: inventory, users: users}
}

// Sync handles POST /api/v1/inventory/sync: on-demand sync for the
// session user. Typed failures map to actionable responses instead of
// raw upstream errors.
func (h *InventoryHandler) Sync(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r.Context())
	if session == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	if h.users == nil {
		response.Error(w, apierror.ServiceUnavailable("account store unavailable"))
		return
	}

	user, err := h.users.GetByID(r.Context(), session.UserID)
	if err != nil || user == nil {
		response.Error(w, apierror.NotFound("no linked account for this session"))
		return
	}

	outcome := h.sync.SyncUser(r.Context(), user)
	switch outcome.Status {
	case model.SyncStatusSuccess:
		response.OK(w, outcome)
	case model.SyncStatusPrivate:
		response.Error(w, apierror.Forbidden("your inventory is still private"))
	case model.SyncStatusRateLimited:
		response.Error(w, apierror.TooManyRequests(""))
	default:
		response.Error(w, apierror.ServiceUnavailable("inventory sync failed, try again later"))
	}
}

// Get handles GET /api/v1/inventory: the latest snapshot for the
// session user.
func (h *InventoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r.Context())
	if session == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	snapshot, err := h.inventory.GetSnapshot(r.Context(), session.SteamID)
	if err != nil {
		response.Error(w, err)
		return
	}
	if snapshot == nil {
		response.Error(w, apierror.NotFound("no inventory synced yet"))
		return
	}

	response.OK(w, snapshot)
}
