package api

import (
	"net/http"

	"github.com/erazemk/popis/internal/reconcile"
)

// ItemsHandler handles item endpoints.
type ItemsHandler struct {
	Engine *reconcile.Engine
}

type countRequest struct {
	Quantity *int `json:"quantity"`
}

// Count handles POST /api/items/{id}/count.
func (h *ItemsHandler) Count(w http.ResponseWriter, r *http.Request) {
	var req countRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Quantity == nil {
		jsonError(w, http.StatusBadRequest, "quantity required")
		return
	}

	result, err := h.Engine.AcceptCount(r.Context(), r.PathValue("id"), *req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, result)
}
