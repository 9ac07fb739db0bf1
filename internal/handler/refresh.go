package handler

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"

	"skinvault-api/internal/model"
	"skinvault-api/internal/repository"
	"skinvault-api/internal/service"
	"skinvault-api/pkg/apierror"
	"skinvault-api/pkg/response"
)

// RefreshHandler exposes the scheduled refresh entry point for external
// cron triggers.
type RefreshHandler struct {
	driver *service.RefreshDriver
	audit  repository.SyncAuditRepository
	secret string
}

// NewRefreshHandler creates a refresh handler guarded by the shared
// secret. An empty secret disables the endpoints rather than opening
// them. audit may be nil; history then reports empty.
func NewRefreshHandler(driver *service.RefreshDriver, audit repository.SyncAuditRepository, secret string) *RefreshHandler {
	return &RefreshHandler{driver: driver, audit: audit, secret: secret}
}

// authorize validates the shared-secret bearer credential.
func (h *RefreshHandler) authorize(r *http.Request) *apierror.Error {
	if h.secret == "" {
		return apierror.ServiceUnavailable("scheduled refresh is not configured")
	}
	auth := r.Header.Get("Authorization")
	token := strings.TrimPrefix(auth, "Bearer ")
	if token == auth || subtle.ConstantTimeCompare([]byte(token), []byte(h.secret)) != 1 {
		return apierror.Unauthorized("invalid cron credential")
	}
	return nil
}

// Run handles POST /api/v1/cron/refresh. Authorization is checked
// before any eligibility query runs.
func (h *RefreshHandler) Run(w http.ResponseWriter, r *http.Request) {
	if apiErr := h.authorize(r); apiErr != nil {
		response.Error(w, apiErr)
		return
	}

	report, err := h.driver.RunDailyRefresh(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, report)
}

// History handles GET /api/v1/cron/refresh/history: the most recent
// sync attempts, for cron monitoring.
func (h *RefreshHandler) History(w http.ResponseWriter, r *http.Request) {
	if apiErr := h.authorize(r); apiErr != nil {
		response.Error(w, apiErr)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if h.audit == nil {
		response.OK(w, []model.SyncAuditEntry{})
		return
	}

	entries, err := h.audit.ListRecent(r.Context(), limit)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, entries)
}
