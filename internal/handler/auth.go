package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"skinvault-api/internal/repository"
	"skinvault-api/internal/service"
	"skinvault-api/pkg/apierror"
	"skinvault-api/pkg/response"
)

// AuthHandler issues and revokes sessions. Identity verification itself
// (Steam OpenID) happens upstream; this handler exchanges a verified
// Steam ID for a bearer session.
type AuthHandler struct {
	sessions *service.SessionService
	users    repository.UserRepository
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(sessions *service.SessionService, users repository.UserRepository) *AuthHandler {
	return &AuthHandler{sessions: sessions, users: users}
}

type sessionRequest struct {
	SteamID string `json:"steam_id"`
}

// CreateSession handles POST /api/v1/auth/session
func (h *AuthHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON"))
		return
	}
	if req.SteamID == "" {
		response.Error(w, apierror.ValidationError("validation failed",
			apierror.FieldError{Field: "steam_id", Message: "steam_id is required"}))
		return
	}

	user, err := h.users.GetBySteamID(r.Context(), req.SteamID)
	if err != nil || user == nil {
		response.Error(w, apierror.NotFound("no account for this steam id"))
		return
	}

	token, err := h.sessions.Create(r.Context(), user.ID, user.SteamID)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.Created(w, map[string]interface{}{
		"token":    token,
		"user_id":  user.ID,
		"steam_id": user.SteamID,
	})
}

// RevokeSession handles POST /api/v1/auth/revoke
func (h *AuthHandler) RevokeSession(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Token")
	if token == "" {
		if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			token = strings.TrimPrefix(auth, "Bearer ")
		}
	}
	if token == "" {
		response.Error(w, apierror.BadRequest("no token to revoke"))
		return
	}

	if err := h.sessions.Revoke(r.Context(), token); err != nil {
		response.Error(w, err)
		return
	}
	response.NoContent(w)
}
