// Package observability provides Prometheus metrics for the matching engine.
package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains all Prometheus metrics of the scan pipeline.
type Metrics struct {
	ScanDuration       prometheus.Histogram
	ScansTotal         *prometheus.CounterVec
	SkippedTicks       prometheus.Counter
	Confirmations      prometheus.Counter
	CooldownSuppressed prometheus.Counter
	QualityIssues      *prometheus.CounterVec
	GeometryFallbacks  prometheus.Counter
	OCRErrors          prometheus.Counter
	EmbedDuration      prometheus.Histogram
	CatalogSize        prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates and registers all metrics on a fresh registry.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()
	m := &Metrics{registry: registry}

	m.ScanDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cardmatch_scan_duration_seconds",
		Help:    "Duration of one full scan tick.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
	})
	m.ScansTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cardmatch_scans_total",
		Help: "Scan ticks by outcome.",
	}, []string{"outcome"})
	m.SkippedTicks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cardmatch_skipped_ticks_total",
		Help: "Ticks skipped because the previous scan was still in flight.",
	})
	m.Confirmations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cardmatch_confirmations_total",
		Help: "Confirmed card matches emitted.",
	})
	m.CooldownSuppressed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cardmatch_cooldown_suppressed_total",
		Help: "Confirmations suppressed by the duplicate cooldown.",
	})
	m.QualityIssues = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cardmatch_quality_issues_total",
		Help: "Frames flagged with quality issues.",
	}, []string{"issue"})
	m.GeometryFallbacks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cardmatch_geometry_fallbacks_total",
		Help: "Frames where quad detection fell back to a center crop.",
	})
	m.OCRErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cardmatch_ocr_errors_total",
		Help: "Failed OCR recognitions.",
	})
	m.EmbedDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cardmatch_embed_duration_seconds",
		Help:    "Duration of embedding computation per frame.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	})
	m.CatalogSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cardmatch_catalog_size",
		Help: "Number of entries loaded into the similarity index.",
	})

	collectors := []prometheus.Collector{
		m.ScanDuration, m.ScansTotal, m.SkippedTicks, m.Confirmations,
		m.CooldownSuppressed, m.QualityIssues, m.GeometryFallbacks,
		m.OCRErrors, m.EmbedDuration, m.CatalogSize,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}
	return m, nil
}

// Handler returns an HTTP handler exposing the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve starts a blocking HTTP server for the metrics endpoint.
func (m *Metrics) Serve(listen string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return http.ListenAndServe(listen, mux)
}
