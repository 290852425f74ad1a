// Package metrics provides Prometheus metrics for the explorer backend.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fileexpo_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fileexpo_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Explorer metrics
	fileAccessesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fileexpo_file_accesses_total",
			Help: "Total recorded file accesses",
		},
	)

	voiceCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fileexpo_voice_commands_total",
			Help: "Total dispatched commands by intent",
		},
		[]string{"intent"},
	)

	integrityChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fileexpo_integrity_checks_total",
			Help: "Total integrity checks by result",
		},
		[]string{"result"},
	)

	indexedFiles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fileexpo_indexed_files",
			Help: "Number of paths in the search index",
		},
	)

	// SSE metrics
	sseConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fileexpo_sse_connections_active",
			Help: "Number of active SSE connections",
		},
	)

	// AI metrics
	summaryJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fileexpo_summary_jobs_total",
			Help: "Total AI summary jobs by status",
		},
		[]string{"status"},
	)

	summaryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fileexpo_summary_duration_seconds",
			Help:    "AI summary duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordFileAccess counts one recorded access.
func RecordFileAccess() {
	fileAccessesTotal.Inc()
}

// RecordVoiceCommand counts a dispatched command.
func RecordVoiceCommand(intent string) {
	voiceCommandsTotal.WithLabelValues(intent).Inc()
}

// RecordIntegrityCheck counts a check by result: "ok", "changed",
// "missing", "first" or "error".
func RecordIntegrityCheck(result string) {
	integrityChecksTotal.WithLabelValues(result).Inc()
}

// SetIndexedFiles sets the current index size.
func SetIndexedFiles(n int) {
	indexedFiles.Set(float64(n))
}

// SetSSEConnections sets the number of connected event-stream clients.
func SetSSEConnections(n int) {
	sseConnectionsActive.Set(float64(n))
}

// RecordSummary records an AI summary outcome and its duration.
func RecordSummary(success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}
	summaryJobsTotal.WithLabelValues(status).Inc()
	summaryDuration.Observe(duration.Seconds())
}
