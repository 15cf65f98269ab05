// Package api exposes the inventory reconciliation engine over JSON HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/erazemk/popis/internal/ocr"
	"github.com/erazemk/popis/internal/reconcile"
	"github.com/erazemk/popis/internal/report"
)

// Deps are the services the router dispatches to. Recognizer may be nil,
// in which case photo uploads are rejected.
type Deps struct {
	Engine     *reconcile.Engine
	Reports    *report.Aggregator
	Recognizer ocr.Recognizer
	Ping       func(ctx context.Context) error
	// CORSOrigins lists browser origins allowed to call the API.
	CORSOrigins []string
}

// NewRouter creates the API router with all endpoints registered, wrapped in
// the CORS and logging middleware.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	sessions := &SessionsHandler{Engine: d.Engine, Reports: d.Reports, Recognizer: d.Recognizer}
	items := &ItemsHandler{Engine: d.Engine}
	reports := &ReportsHandler{Reports: d.Reports}

	// Sessions.
	mux.HandleFunc("POST /api/sessions", sessions.Create)
	mux.HandleFunc("POST /api/sessions/upload", sessions.Upload)
	mux.HandleFunc("GET /api/sessions", sessions.List)
	mux.HandleFunc("GET /api/sessions/{id}", sessions.Get)
	mux.HandleFunc("GET /api/sessions/{id}/summary", sessions.Summary)
	mux.HandleFunc("POST /api/sessions/{id}/scan", sessions.Scan)
	mux.HandleFunc("POST /api/sessions/{id}/complete", sessions.Complete)
	mux.HandleFunc("DELETE /api/sessions/{id}", sessions.Delete)
	mux.HandleFunc("GET /api/summary", sessions.Summary)

	// Items.
	mux.HandleFunc("POST /api/items/{id}/count", items.Count)

	// Manifests and reports.
	mux.HandleFunc("POST /api/manifest/parse", ParseManifest)
	mux.HandleFunc("GET /api/reports", reports.Get)

	// Operations.
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if d.Ping != nil {
			if err := d.Ping(r.Context()); err != nil {
				jsonError(w, http.StatusServiceUnavailable, "database unavailable")
				return
			}
		}
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return LoggingMiddleware(CORSMiddleware(d.CORSOrigins)(mux))
}
