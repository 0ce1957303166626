package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// clipgrab metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clipgrab",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clipgrab",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"method", "endpoint"},
	)

	// yt-dlp invocations by operation and result
	ExtractorRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clipgrab",
			Subsystem: "ytdlp",
			Name:      "runs_total",
			Help:      "Total yt-dlp invocations",
		},
		[]string{"operation", "result"},
	)

	// Retries without certificate verification
	CertificateRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clipgrab",
			Subsystem: "ytdlp",
			Name:      "certificate_retries_total",
			Help:      "yt-dlp runs repeated with certificate checks disabled",
		},
		[]string{"operation"},
	)

	// Download jobs by final phase
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clipgrab",
			Subsystem: "jobs",
			Name:      "total",
			Help:      "Download jobs by terminal phase",
		},
		[]string{"phase"},
	)

	// Download job duration
	JobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "clipgrab",
			Subsystem: "jobs",
			Name:      "duration_seconds",
			Help:      "Download job duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	// Workspaces currently on disk
	ActiveWorkspaces = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "clipgrab",
			Subsystem: "jobs",
			Name:      "active_workspaces",
			Help:      "Job workspaces that have not been cleaned up yet",
		},
	)
)

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

// RecordExtractorRun records one yt-dlp invocation
func RecordExtractorRun(operation, result string) {
	ExtractorRunsTotal.WithLabelValues(operation, result).Inc()
}

// RecordCertificateRetry records a retry without certificate checks
func RecordCertificateRetry(operation string) {
	CertificateRetriesTotal.WithLabelValues(operation).Inc()
}

// RecordJob records a finished download job
func RecordJob(phase string, durationSec float64) {
	JobsTotal.WithLabelValues(phase).Inc()
	JobDuration.Observe(durationSec)
}
