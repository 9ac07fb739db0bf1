package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"skinvault-api/internal/service"
	"skinvault-api/pkg/apierror"
	"skinvault-api/pkg/response"
)

const maxBatchItems = 100

// PriceHandler handles price query HTTP requests.
type PriceHandler struct {
	prices *service.PriceService
}

// NewPriceHandler creates a new price handler.
func NewPriceHandler(prices *service.PriceService) *PriceHandler {
	return &PriceHandler{prices: prices}
}

// GetItemPrices handles GET /api/v1/prices/{item_id}?name=...
// The item name defaults to the identifier when no name is given.
func (h *PriceHandler) GetItemPrices(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "item_id")
	if itemID == "" {
		response.Error(w, apierror.BadRequest("item_id is required"))
		return
	}
	itemName := r.URL.Query().Get("name")
	if itemName == "" {
		itemName = itemID
	}

	result, err := h.prices.GetItemPrices(r.Context(), itemID, itemName)
	if err != nil {
		if errors.Is(err, service.ErrNoPriceData) {
			response.Error(w, apierror.NotFound("no price data for this item"))
			return
		}
		response.Error(w, err)
		return
	}

	response.OK(w, result)
}

type batchRequest struct {
	Items []string `json:"items"`
}

// FetchBatch handles POST /api/v1/prices/batch
func (h *PriceHandler) FetchBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON"))
		return
	}
	if len(req.Items) == 0 {
		response.Error(w, apierror.BadRequest("items cannot be empty"))
		return
	}
	if len(req.Items) > maxBatchItems {
		response.Error(w, apierror.BadRequest("too many items"))
		return
	}

	response.OK(w, h.prices.FetchBatch(r.Context(), req.Items))
}
