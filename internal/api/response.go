package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/popis/internal/manifest"
	"github.com/erazemk/popis/internal/reconcile"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Warn("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// jsonOutcome writes a non-success scan or count outcome with a stable code
// clients can switch on.
func jsonOutcome(w http.ResponseWriter, status int, code, message string) {
	jsonResponse(w, status, map[string]string{"error": message, "code": code})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// writeError maps engine and parser errors onto HTTP responses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		persistErr *reconcile.PersistenceError
		formatErr  *manifest.InputFormatError
		columnsErr *manifest.MissingColumnsError
	)

	switch {
	case errors.Is(err, reconcile.ErrNotOnManifest):
		jsonOutcome(w, http.StatusNotFound, "not_on_manifest", "barcode is not on the manifest")
	case errors.Is(err, reconcile.ErrAlreadyChecked):
		jsonOutcome(w, http.StatusConflict, "already_checked", "item has already been checked")
	case errors.Is(err, reconcile.ErrSessionNotFound):
		jsonError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, reconcile.ErrItemNotFound):
		jsonError(w, http.StatusNotFound, "item not found")
	case errors.Is(err, reconcile.ErrInvalidQuantity), errors.Is(err, reconcile.ErrNoItems):
		jsonError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &formatErr), errors.As(err, &columnsErr):
		jsonError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &persistErr):
		slog.Error("persistence failure", "method", r.Method, "path", r.URL.Path, "op", persistErr.Op,
			"committed", persistErr.Committed, "error", persistErr.Err)
		jsonError(w, http.StatusInternalServerError, "save failed")
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}
