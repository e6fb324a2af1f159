// Package metrics exposes Prometheus instrumentation for the HTTP
// server, the analysis pipeline, and the collector.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	documentsProcessed *prometheus.CounterVec
	processDuration    *prometheus.HistogramVec
	tasksExtracted     prometheus.Counter
	documentQuality    *prometheus.CounterVec

	downloadsTotal  *prometheus.CounterVec
	bytesDownloaded prometheus.Counter
	urlsDiscovered  prometheus.Counter
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "postop",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "postop",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "postop",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
		},
	)
	documentsProcessed := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "postop",
			Subsystem: "pipeline",
			Name:      "documents_processed_total",
			Help:      "Total documents run through the analysis pipeline by status.",
		},
		[]string{"status"},
	)
	processDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "postop",
			Subsystem: "pipeline",
			Name:      "process_duration_seconds",
			Help:      "Document processing duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"status"},
	)
	tasksExtracted := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "postop",
			Subsystem: "pipeline",
			Name:      "tasks_extracted_total",
			Help:      "Total care tasks extracted from documents.",
		},
	)
	documentQuality := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "postop",
			Subsystem: "pipeline",
			Name:      "document_quality_total",
			Help:      "Total analyzed documents by quality tier.",
		},
		[]string{"tier"},
	)
	downloadsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "postop",
			Subsystem: "collect",
			Name:      "downloads_total",
			Help:      "Total download attempts by status.",
		},
		[]string{"status"},
	)
	bytesDownloaded := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "postop",
			Subsystem: "collect",
			Name:      "bytes_downloaded_total",
			Help:      "Total bytes downloaded.",
		},
	)
	urlsDiscovered := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "postop",
			Subsystem: "collect",
			Name:      "urls_discovered_total",
			Help:      "Total candidate PDF URLs discovered.",
		},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		documentsProcessed,
		processDuration,
		tasksExtracted,
		documentQuality,
		downloadsTotal,
		bytesDownloaded,
		urlsDiscovered,
	)

	return &Metrics{
		registry:           registry,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		documentsProcessed: documentsProcessed,
		processDuration:    processDuration,
		tasksExtracted:     tasksExtracted,
		documentQuality:    documentQuality,
		downloadsTotal:     downloadsTotal,
		bytesDownloaded:    bytesDownloaded,
		urlsDiscovered:     urlsDiscovered,
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware instruments an HTTP handler with request count, duration,
// and in-flight gauges.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath collapses per-resource paths so label cardinality stays
// bounded.
func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/api/v1/pdfs/"):
		return "/api/v1/pdfs/{id}"
	case strings.HasPrefix(path, "/api/v1/collect/runs/"):
		return "/api/v1/collect/runs/{id}"
	default:
		return path
	}
}

// RecordDocument records one pipeline pass over a document.
func (m *Metrics) RecordDocument(duration time.Duration, taskCount int, tier string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.documentsProcessed.WithLabelValues(status).Inc()
	m.processDuration.WithLabelValues(status).Observe(duration.Seconds())
	if err == nil {
		m.tasksExtracted.Add(float64(taskCount))
		if tier != "" {
			m.documentQuality.WithLabelValues(tier).Inc()
		}
	}
}

// RecordDownload records one download attempt.
func (m *Metrics) RecordDownload(bytes int64, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.downloadsTotal.WithLabelValues(status).Inc()
	if bytes > 0 {
		m.bytesDownloaded.Add(float64(bytes))
	}
}

// RecordDiscoveredURLs records candidate URLs found during collection.
func (m *Metrics) RecordDiscoveredURLs(n int) {
	if n > 0 {
		m.urlsDiscovered.Add(float64(n))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
