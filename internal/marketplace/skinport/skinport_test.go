package skinport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"skinvault-api/internal/httpx"
	"skinvault-api/internal/marketplace"
	"skinvault-api/pkg/clock"
)

const itemsPayload = `[
	{"market_hash_name":"AK-47 | Redline (Field-Tested)","currency":"USD","item_page":"https://skinport.com/item/ak-47-redline","min_price":11.80},
	{"market_hash_name":"Sticker | Crown (Foil)","currency":"USD","min_price":null}
]`

func newTestAdapter(t *testing.T, hits *atomic.Int64, payload string) (*Adapter, *clock.Fake) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(payload))
	}))
	t.Cleanup(srv.Close)
	clk := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	a := New(Config{Endpoint: srv.URL, ItemsTTL: time.Minute}, httpx.New(5*time.Second), clk)
	return a, clk
}

func TestFetchPrice_ServesFromItemsPayload(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	a, _ := newTestAdapter(t, &hits, itemsPayload)

	q, err := a.FetchPrice(context.Background(), "AK-47 | Redline (Field-Tested)")
	require.NoError(t, err)
	require.Equal(t, 11.80, q.Price)
	require.Equal(t, "https://skinport.com/item/ak-47-redline", q.ListingURL)
}

func TestFetchPrice_PayloadCachedAcrossItems(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	a, _ := newTestAdapter(t, &hits, itemsPayload)
	ctx := context.Background()

	_, err := a.FetchPrice(ctx, "AK-47 | Redline (Field-Tested)")
	require.NoError(t, err)
	_, err = a.FetchPrice(ctx, "some other item")
	require.ErrorIs(t, err, marketplace.ErrNotFound)

	// Two lookups, one upstream GET.
	require.Equal(t, int64(1), hits.Load())
}

func TestFetchPrice_PayloadRefreshesAfterTTL(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	a, clk := newTestAdapter(t, &hits, itemsPayload)
	ctx := context.Background()

	_, err := a.FetchPrice(ctx, "AK-47 | Redline (Field-Tested)")
	require.NoError(t, err)

	clk.Advance(2 * time.Minute)

	_, err = a.FetchPrice(ctx, "AK-47 | Redline (Field-Tested)")
	require.NoError(t, err)
	require.Equal(t, int64(2), hits.Load())
}

func TestFetchPrice_NullMinPriceIsNotFound(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	a, _ := newTestAdapter(t, &hits, itemsPayload)

	_, err := a.FetchPrice(context.Background(), "Sticker | Crown (Foil)")
	require.ErrorIs(t, err, marketplace.ErrNotFound)
}
