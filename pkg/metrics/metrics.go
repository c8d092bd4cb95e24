// Package metrics exposes Prometheus instrumentation for the pricebook API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all registered collectors
type Metrics struct {
	ImportRowsTotal    *prometheus.CounterVec
	ImportJobsTotal    *prometheus.CounterVec
	ImportDuration     prometheus.Histogram
	QuotesTotal        *prometheus.CounterVec
	ExportJobsTotal    *prometheus.CounterVec
	CatalogItemsGauge  *prometheus.GaugeVec
	HTTPRequestsTotal  *prometheus.CounterVec
	HTTPRequestSeconds *prometheus.HistogramVec
}

// New registers all collectors against the given registerer. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ImportRowsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pricebook_import_rows_total",
			Help: "Imported rows by outcome (imported, skipped, failed).",
		}, []string{"outcome"}),
		ImportJobsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pricebook_import_jobs_total",
			Help: "Import jobs by final status.",
		}, []string{"status"}),
		ImportDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pricebook_import_duration_seconds",
			Help:    "Wall time of import jobs.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		QuotesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pricebook_quotes_total",
			Help: "Price quotes by source (rule, static).",
		}, []string{"source"}),
		ExportJobsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pricebook_export_jobs_total",
			Help: "Export jobs by format and status.",
		}, []string{"format", "status"}),
		CatalogItemsGauge: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pricebook_catalog_items",
			Help: "Current catalog item count by kind.",
		}, []string{"kind"}),
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pricebook_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		HTTPRequestSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pricebook_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
}
