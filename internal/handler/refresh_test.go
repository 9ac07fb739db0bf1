package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"skinvault-api/internal/model"
	"skinvault-api/internal/service"
)

// countingUserRepo counts eligibility queries so tests can assert the
// driver never ran on a rejected request.
type countingUserRepo struct {
	listCalls int
	eligible  []model.UserAccount
}

func (c *countingUserRepo) GetByID(ctx context.Context, id int64) (*model.UserAccount, error) {
	return nil, nil
}

func (c *countingUserRepo) GetBySteamID(ctx context.Context, steamID string) (*model.UserAccount, error) {
	return nil, nil
}

func (c *countingUserRepo) ListRefreshEligible(ctx context.Context, activeSince, syncedBefore time.Time) ([]model.UserAccount, error) {
	c.listCalls++
	return c.eligible, nil
}

func (c *countingUserRepo) RecordSyncResult(ctx context.Context, userID int64, status model.SyncStatus, syncedAt time.Time) error {
	return nil
}

type noopSyncer struct{}

func (noopSyncer) SyncUser(ctx context.Context, user *model.UserAccount) model.SyncOutcome {
	return model.SyncOutcome{Status: model.SyncStatusSuccess}
}

func newRefreshFixture(repo *countingUserRepo, secret string) *RefreshHandler {
	driver := service.NewRefreshDriver(repo, noopSyncer{}, service.RefreshOptions{}, nil)
	return NewRefreshHandler(driver, nil, secret)
}

func TestRefreshRun_RejectsMissingCredential(t *testing.T) {
	t.Parallel()

	repo := &countingUserRepo{}
	h := newRefreshFixture(repo, "topsecret")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cron/refresh", nil)
	rec := httptest.NewRecorder()
	h.Run(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Zero(t, repo.listCalls, "driver must not run without a credential")
}

func TestRefreshRun_RejectsWrongSecret(t *testing.T) {
	t.Parallel()

	repo := &countingUserRepo{}
	h := newRefreshFixture(repo, "topsecret")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cron/refresh", nil)
	req.Header.Set("Authorization", "Bearer guess")
	rec := httptest.NewRecorder()
	h.Run(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Zero(t, repo.listCalls)
}

func TestRefreshRun_UnconfiguredSecretDisablesEndpoint(t *testing.T) {
	t.Parallel()

	repo := &countingUserRepo{}
	h := newRefreshFixture(repo, "")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cron/refresh", nil)
	req.Header.Set("Authorization", "Bearer anything")
	rec := httptest.NewRecorder()
	h.Run(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Zero(t, repo.listCalls)
}

func TestRefreshRun_ValidSecretRunsAndReports(t *testing.T) {
	t.Parallel()

	repo := &countingUserRepo{eligible: []model.UserAccount{
		{ID: 1, SteamID: "111"},
		{ID: 2, SteamID: "222"},
	}}
	h := newRefreshFixture(repo, "topsecret")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cron/refresh", nil)
	req.Header.Set("Authorization", "Bearer topsecret")
	rec := httptest.NewRecorder()
	h.Run(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, repo.listCalls)

	var body struct {
		Success bool                   `json:"success"`
		Data    model.RefreshJobReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.Success)
	require.Equal(t, 2, body.Data.UsersEligible)
	require.Equal(t, 2, body.Data.UsersProcessed)
}

func TestRefreshHistory_RequiresCredential(t *testing.T) {
	t.Parallel()

	h := newRefreshFixture(&countingUserRepo{}, "topsecret")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cron/refresh/history", nil)
	rec := httptest.NewRecorder()
	h.History(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshHistory_EmptyWithoutAuditStore(t *testing.T) {
	t.Parallel()

	h := newRefreshFixture(&countingUserRepo{}, "topsecret")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cron/refresh/history", nil)
	req.Header.Set("Authorization", "Bearer topsecret")
	rec := httptest.NewRecorder()
	h.History(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool                   `json:"success"`
		Data    []model.SyncAuditEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Empty(t, body.Data)
}
