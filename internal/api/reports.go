package api

import (
	"net/http"
	"strconv"

	"github.com/erazemk/popis/internal/report"
)

// ReportsHandler serves aggregated reports.
type ReportsHandler struct {
	Reports *report.Aggregator
}

// Get handles GET /api/reports.
func (h *ReportsHandler) Get(w http.ResponseWriter, r *http.Request) {
	days := 1
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid days")
			return
		}
		days = n
	}

	rep, err := h.Reports.Build(r.Context(), days)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, rep)
}
