package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"skinvault-api/internal/model"
	"skinvault-api/internal/steamapi"
	"skinvault-api/pkg/clock"
)

// pagerCall records one FetchPage invocation.
type pagerCall struct {
	startAssetID string
	count        int
}

// fakePager replays a scripted sequence of page results.
type fakePager struct {
	script []func() (*steamapi.Page, error)
	calls  []pagerCall
}

func (f *fakePager) FetchPage(ctx context.Context, steamID, startAssetID string, count int) (*steamapi.Page, error) {
	f.calls = append(f.calls, pagerCall{startAssetID: startAssetID, count: count})
	if len(f.calls) > len(f.script) {
		return nil, errors.New("fakePager: script exhausted")
	}
	return f.script[len(f.calls)-1]()
}

// fakeInventoryRepo captures the snapshot a sync persists.
type fakeInventoryRepo struct {
	snapshot *model.InventorySnapshot
	err      error
}

func (f *fakeInventoryRepo) UpsertSnapshot(ctx context.Context, s model.InventorySnapshot) error {
	if f.err != nil {
		return f.err
	}
	f.snapshot = &s
	return nil
}

func (f *fakeInventoryRepo) GetSnapshot(ctx context.Context, steamID string) (*model.InventorySnapshot, error) {
	return f.snapshot, nil
}

func (f *fakeInventoryRepo) Close() error { return nil }

func assetsN(prefix string, n int) []model.InventoryAsset {
	out := make([]model.InventoryAsset, n)
	for i := range out {
		out[i] = model.InventoryAsset{
			AssetID:    fmt.Sprintf("%s-%d", prefix, i),
			ClassID:    "c1",
			InstanceID: "i0",
		}
	}
	return out
}

func pageOK(assets []model.InventoryAsset, descs []model.AssetDescription, last string) func() (*steamapi.Page, error) {
	return func() (*steamapi.Page, error) {
		return &steamapi.Page{Assets: assets, Descriptions: descs, LastAssetID: last}, nil
	}
}

func pageErr(err error) func() (*steamapi.Page, error) {
	return func() (*steamapi.Page, error) { return nil, err }
}

func newSyncFixture(pager *fakePager, repo *fakeInventoryRepo, opts SyncOptions) (*SyncService, *[]time.Duration) {
	clk := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	svc := NewSyncService(pager, repo, nil, nil, opts, clk)
	var slept []time.Duration
	svc.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return svc, &slept
}

func TestSyncUser_ShortPageEndsPagination(t *testing.T) {
	t.Parallel()

	pager := &fakePager{script: []func() (*steamapi.Page, error){
		pageOK(assetsN("a", 3), nil, "a-2"),
	}}
	repo := &fakeInventoryRepo{}
	svc, _ := newSyncFixture(pager, repo, SyncOptions{PageSize: 5})

	outcome := svc.SyncUser(context.Background(), &model.UserAccount{SteamID: "765"})
	require.Equal(t, model.SyncStatusSuccess, outcome.Status)
	require.Equal(t, 3, outcome.ItemCount)
	require.Len(t, pager.calls, 1)
	require.NotNil(t, repo.snapshot)
	require.Equal(t, "765", repo.snapshot.SteamID)
}

func TestSyncUser_FullPageAdvancesCursor(t *testing.T) {
	t.Parallel()

	pager := &fakePager{script: []func() (*steamapi.Page, error){
		pageOK(assetsN("a", 2), nil, "a-1"),
		pageOK(assetsN("b", 1), nil, "b-0"),
	}}
	repo := &fakeInventoryRepo{}
	svc, slept := newSyncFixture(pager, repo, SyncOptions{PageSize: 2, PageDelay: time.Second})

	outcome := svc.SyncUser(context.Background(), &model.UserAccount{SteamID: "765"})
	require.Equal(t, model.SyncStatusSuccess, outcome.Status)
	require.Equal(t, 3, outcome.ItemCount)

	require.Len(t, pager.calls, 2)
	require.Equal(t, "", pager.calls[0].startAssetID)
	require.Equal(t, "a-1", pager.calls[1].startAssetID)

	// One page delay between the two requests.
	require.Equal(t, []time.Duration{time.Second}, *slept)
}

func TestSyncUser_RateLimitRetriesSamePage(t *testing.T) {
	t.Parallel()

	pager := &fakePager{script: []func() (*steamapi.Page, error){
		pageOK(assetsN("a", 2), nil, "a-1"),
		pageErr(&steamapi.RateLimitError{}),
		pageOK(assetsN("b", 1), nil, "b-0"),
	}}
	repo := &fakeInventoryRepo{}
	svc, slept := newSyncFixture(pager, repo, SyncOptions{
		PageSize:          2,
		RateLimitCooldown: 60 * time.Second,
	})

	outcome := svc.SyncUser(context.Background(), &model.UserAccount{SteamID: "765"})
	require.Equal(t, model.SyncStatusSuccess, outcome.Status)
	require.Equal(t, 3, outcome.ItemCount)

	// The rate-limited request and its retry carry the same cursor.
	require.Len(t, pager.calls, 3)
	require.Equal(t, "a-1", pager.calls[1].startAssetID)
	require.Equal(t, "a-1", pager.calls[2].startAssetID)

	require.Equal(t, []time.Duration{60 * time.Second}, *slept)
}

func TestSyncUser_RateLimitRetriesAreBounded(t *testing.T) {
	t.Parallel()

	rl := pageErr(&steamapi.RateLimitError{})
	pager := &fakePager{script: []func() (*steamapi.Page, error){rl, rl, rl, rl}}
	repo := &fakeInventoryRepo{}
	svc, slept := newSyncFixture(pager, repo, SyncOptions{
		PageSize:            2,
		RateLimitCooldown:   60 * time.Second,
		MaxRateLimitRetries: 3,
	})

	outcome := svc.SyncUser(context.Background(), &model.UserAccount{SteamID: "765"})
	require.Equal(t, model.SyncStatusRateLimited, outcome.Status)
	require.Equal(t, 60*time.Second, outcome.RetryAfter)

	// Initial attempt plus three retries, then give up.
	require.Len(t, pager.calls, 4)
	require.Len(t, *slept, 3)
	require.Nil(t, repo.snapshot)
}

func TestSyncUser_RateLimitHonorsRetryAfterHeader(t *testing.T) {
	t.Parallel()

	pager := &fakePager{script: []func() (*steamapi.Page, error){
		pageErr(&steamapi.RateLimitError{RetryAfter: 90 * time.Second}),
		pageOK(assetsN("a", 1), nil, "a-0"),
	}}
	svc, slept := newSyncFixture(pager, &fakeInventoryRepo{}, SyncOptions{
		PageSize:          5,
		RateLimitCooldown: 60 * time.Second,
	})

	outcome := svc.SyncUser(context.Background(), &model.UserAccount{SteamID: "765"})
	require.Equal(t, model.SyncStatusSuccess, outcome.Status)
	require.Equal(t, []time.Duration{90 * time.Second}, *slept)
}

func TestSyncUser_PrivateInventoryIsTerminal(t *testing.T) {
	t.Parallel()

	pager := &fakePager{script: []func() (*steamapi.Page, error){
		pageErr(steamapi.ErrPrivateInventory),
	}}
	repo := &fakeInventoryRepo{}
	svc, slept := newSyncFixture(pager, repo, SyncOptions{PageSize: 5})

	outcome := svc.SyncUser(context.Background(), &model.UserAccount{SteamID: "765"})
	require.Equal(t, model.SyncStatusPrivate, outcome.Status)

	// No retry, no wait, nothing persisted.
	require.Len(t, pager.calls, 1)
	require.Empty(t, *slept)
	require.Nil(t, repo.snapshot)
}

func TestSyncUser_UpstreamErrorCarriesStatusCode(t *testing.T) {
	t.Parallel()

	pager := &fakePager{script: []func() (*steamapi.Page, error){
		pageErr(&steamapi.UpstreamError{StatusCode: 502}),
	}}
	svc, _ := newSyncFixture(pager, &fakeInventoryRepo{}, SyncOptions{PageSize: 5})

	outcome := svc.SyncUser(context.Background(), &model.UserAccount{SteamID: "765"})
	require.Equal(t, model.SyncStatusError, outcome.Status)
	require.Equal(t, 502, outcome.Code)
}

func TestSyncUser_RetryBudgetResetsAfterSuccess(t *testing.T) {
	t.Parallel()

	pager := &fakePager{script: []func() (*steamapi.Page, error){
		pageErr(&steamapi.RateLimitError{}),
		pageOK(assetsN("a", 2), nil, "a-1"),
		pageErr(&steamapi.RateLimitError{}),
		pageOK(assetsN("b", 1), nil, "b-0"),
	}}
	svc, _ := newSyncFixture(pager, &fakeInventoryRepo{}, SyncOptions{
		PageSize:            2,
		MaxRateLimitRetries: 1,
	})

	outcome := svc.SyncUser(context.Background(), &model.UserAccount{SteamID: "765"})
	require.Equal(t, model.SyncStatusSuccess, outcome.Status)
	require.Len(t, pager.calls, 4)
}

func TestMergeSnapshot_AssetsWithoutDescriptionStillCount(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	assets := []model.InventoryAsset{
		{AssetID: "1", ClassID: "c1", InstanceID: "i0"},
		{AssetID: "2", ClassID: "c2", InstanceID: "i0"},
	}
	descs := map[descKey]model.AssetDescription{
		{"c1", "i0"}: {ClassID: "c1", InstanceID: "i0", MarketHashName: "AK-47 | Redline", IconURL: "http://cdn/icon"},
	}

	snap := mergeSnapshot("765", assets, descs, at)
	require.Len(t, snap.Items, 2)
	require.Equal(t, "AK-47 | Redline", snap.Items[0].MarketHashName)

	// The undescribed asset keeps its slot with empty metadata.
	require.Equal(t, "2", snap.Items[1].AssetID)
	require.Empty(t, snap.Items[1].MarketHashName)
	require.Empty(t, snap.Items[1].IconURL)
	require.True(t, snap.SyncedAt.Equal(at))
}

func TestSyncUser_PersistFailureIsAnError(t *testing.T) {
	t.Parallel()

	pager := &fakePager{script: []func() (*steamapi.Page, error){
		pageOK(assetsN("a", 1), nil, "a-0"),
	}}
	repo := &fakeInventoryRepo{err: errors.New("disk full")}
	svc, _ := newSyncFixture(pager, repo, SyncOptions{PageSize: 5})

	outcome := svc.SyncUser(context.Background(), &model.UserAccount{SteamID: "765"})
	require.Equal(t, model.SyncStatusError, outcome.Status)
	require.Contains(t, outcome.Message, "persist snapshot")
}
