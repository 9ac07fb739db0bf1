package csfloat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"skinvault-api/internal/httpx"
	"skinvault-api/internal/marketplace"
	"skinvault-api/pkg/clock"
)

func newTestAdapter(t *testing.T, apiKey string, handler http.HandlerFunc) *Adapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	clk := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	return New(Config{Endpoint: srv.URL, APIKey: apiKey}, httpx.New(5*time.Second), clk)
}

func TestFetchPrice_ConvertsCents(t *testing.T) {
	t.Parallel()

	a := newTestAdapter(t, "key-123", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "key-123", r.Header.Get("Authorization"))
		require.Equal(t, "lowest_price", r.URL.Query().Get("sort_by"))
		require.Equal(t, "1", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"data":[{"id":"324999","price":1125}]}`))
	})

	q, err := a.FetchPrice(context.Background(), "AK-47 | Redline (Field-Tested)")
	require.NoError(t, err)
	require.Equal(t, 11.25, q.Price)
	require.Equal(t, "USD", q.Currency)
}

func TestFetchPrice_NoListingsIsNotFound(t *testing.T) {
	t.Parallel()

	a := newTestAdapter(t, "", func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{"data":[]}`))
	})

	_, err := a.FetchPrice(context.Background(), "unlisted item")
	require.ErrorIs(t, err, marketplace.ErrNotFound)
}

func TestFetchPrice_ZeroPriceIsNotFound(t *testing.T) {
	t.Parallel()

	a := newTestAdapter(t, "", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":"1","price":0}]}`))
	})

	_, err := a.FetchPrice(context.Background(), "free item")
	require.ErrorIs(t, err, marketplace.ErrNotFound)
}

func TestFetchPrice_UpstreamStatus(t *testing.T) {
	t.Parallel()

	a := newTestAdapter(t, "", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := a.FetchPrice(context.Background(), "anything")
	var ue *marketplace.UpstreamError
	require.ErrorAs(t, err, &ue)
	require.Equal(t, http.StatusTooManyRequests, ue.StatusCode)
}
