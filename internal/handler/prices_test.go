package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"skinvault-api/internal/cache"
	"skinvault-api/internal/marketplace"
	"skinvault-api/internal/model"
	"skinvault-api/internal/service"
)

// stubAdapter serves a fixed price for every known item.
type stubAdapter struct {
	prices map[string]float64
}

func (s *stubAdapter) Name() model.Marketplace { return model.MarketplaceSteam }

func (s *stubAdapter) FetchPrice(ctx context.Context, itemName string) (*model.PriceQuote, error) {
	p, ok := s.prices[itemName]
	if !ok {
		return nil, marketplace.ErrNotFound
	}
	return &model.PriceQuote{Marketplace: model.MarketplaceSteam, Price: p, Currency: "USD"}, nil
}

func newPricesRouter(adapter marketplace.Adapter) *chi.Mux {
	fees := marketplace.FeeTable{model.MarketplaceSteam: 15}
	svc := service.NewPriceService([]marketplace.Adapter{adapter}, cache.NewMemoryPriceCache(nil), fees, 0, nil)
	h := NewPriceHandler(svc)

	r := chi.NewRouter()
	r.Get("/api/v1/prices/{item_id}", h.GetItemPrices)
	r.Post("/api/v1/prices/batch", h.FetchBatch)
	return r
}

func TestGetItemPrices_ReturnsAggregatedResult(t *testing.T) {
	t.Parallel()

	r := newPricesRouter(&stubAdapter{prices: map[string]float64{
		"AK-47 | Redline (Field-Tested)": 12.50,
	}})

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/prices/ak47-redline?name=AK-47+%7C+Redline+%28Field-Tested%29", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool                        `json:"success"`
		Data    model.AggregatedPriceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ak47-redline", body.Data.ItemID)
	require.NotNil(t, body.Data.LowestPrice)
	require.Equal(t, 12.50, body.Data.LowestPrice.Price)
	require.InDelta(t, 14.375, body.Data.LowestPrice.TotalCost, 1e-9)
}

func TestGetItemPrices_NoDataIs404(t *testing.T) {
	t.Parallel()

	r := newPricesRouter(&stubAdapter{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/prices/unknown-item", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFetchBatch_ReturnsRowPerItem(t *testing.T) {
	t.Parallel()

	r := newPricesRouter(&stubAdapter{prices: map[string]float64{
		"AK-47 | Redline (Field-Tested)": 12.50,
	}})

	payload := `{"items":["AK-47 | Redline (Field-Tested)","no such item"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/prices/batch", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool               `json:"success"`
		Data    []model.BatchPrice `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	require.NotNil(t, body.Data[0].LowestPrice)
	require.Nil(t, body.Data[1].LowestPrice)
}

func TestFetchBatch_RejectsEmptyAndOversized(t *testing.T) {
	t.Parallel()

	r := newPricesRouter(&stubAdapter{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/prices/batch", strings.NewReader(`{"items":[]}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	items := make([]string, 101)
	for i := range items {
		items[i] = "item"
	}
	big, err := json.Marshal(map[string]any{"items": items})
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/prices/batch", strings.NewReader(string(big)))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
