// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts API requests by method, route and status code.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "popis_http_requests_total",
		Help: "HTTP requests handled, by method, route and status.",
	}, []string{"method", "route", "status"})

	// HTTPRequestDuration observes API latency by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "popis_http_request_duration_seconds",
		Help:    "HTTP request latency, by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// ScansTotal counts scan lookups by outcome: found, already_checked,
	// not_on_manifest or error.
	ScansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "popis_scans_total",
		Help: "Barcode scans, by outcome.",
	}, []string{"outcome"})

	// CountsTotal counts accepted item counts by resulting status.
	CountsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "popis_counts_total",
		Help: "Accepted item counts, by resulting status.",
	}, []string{"status"})

	// WebhookDeliveriesTotal counts mismatch webhook attempts by result.
	WebhookDeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "popis_webhook_deliveries_total",
		Help: "Mismatch webhook deliveries, by result.",
	}, []string{"result"})

	// ManifestsParsedTotal counts parsed manifests by format and result.
	ManifestsParsedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "popis_manifests_parsed_total",
		Help: "Manifest parse attempts, by format and result.",
	}, []string{"format", "result"})
)

// ManifestParsed records one parse attempt. A parse that succeeds without
// producing lines is counted as empty.
func ManifestParsed(format string, lines int, err error) {
	result := "ok"
	switch {
	case err != nil:
		result = "error"
	case lines == 0:
		result = "empty"
	}
	ManifestsParsedTotal.WithLabelValues(format, result).Inc()
}
