package api

import (
	"io"
	"net/http"

	"github.com/erazemk/popis/internal/manifest"
	"github.com/erazemk/popis/internal/metrics"
)

// ParseManifest handles POST /api/manifest/parse. It returns the lines the
// body would produce without storing anything.
func ParseManifest(w http.ResponseWriter, r *http.Request) {
	format, err := manifest.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	body, err := io.ReadAll(r.Body)
	r.Body.Close()
	if err != nil {
		jsonError(w, http.StatusBadRequest, "could not read body")
		return
	}

	lines, err := manifest.Parse(format, string(body))
	metrics.ManifestParsed(string(format), len(lines), err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if lines == nil {
		lines = []manifest.Line{}
	}
	jsonResponse(w, http.StatusOK, map[string]any{"format": format, "items": lines})
}
