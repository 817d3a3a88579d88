package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Capture metrics
var (
	CaptureSessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "animagif_capture_sessions_total",
			Help: "Total number of capture sessions by outcome",
		},
		[]string{"status"}, // "started", "finalized", "failed", "rejected"
	)

	CaptureFramesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "animagif_capture_frames_total",
			Help: "Frames delivered to the capture pipeline by result",
		},
		[]string{"result"},
	)

	CaptureSessionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "animagif_capture_session_duration_seconds",
			Help:    "Recorded duration of finalized capture sessions",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120, 300, 600},
		},
	)

	CaptureActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "animagif_capture_active",
			Help: "Whether a capture session is currently recording (1 = recording, 0 = idle)",
		},
	)
)

// Transcode metrics
var (
	TranscodeJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "animagif_transcode_jobs_total",
			Help: "Total number of transcode jobs by kind and status",
		},
		[]string{"kind", "status"},
	)

	TranscodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "animagif_transcode_duration_seconds",
			Help:    "Wall time of transcode jobs",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"kind"},
	)

	TranscodeProcessesActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "animagif_transcode_processes_active",
			Help: "Number of ffmpeg processes currently running",
		},
	)
)

// Bootstrap metrics
var (
	BootstrapInstallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "animagif_bootstrap_installs_total",
			Help: "Transcoder binary acquisitions by status",
		},
		[]string{"status"}, // "system", "cached", "installed", "error"
	)

	BootstrapDownloadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "animagif_bootstrap_download_duration_seconds",
			Help:    "Time spent downloading the transcoder archive",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	BootstrapDownloadBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "animagif_bootstrap_download_bytes_total",
			Help: "Bytes downloaded while acquiring the transcoder binary",
		},
	)
)

// Catalog metrics
var (
	CatalogOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "animagif_catalog_operations_total",
			Help: "Catalog store operations by operation and status",
		},
		[]string{"operation", "status"},
	)

	CatalogOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "animagif_catalog_operation_duration_seconds",
			Help:    "Catalog store operation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)

	CatalogRecordings = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "animagif_catalog_recordings",
			Help: "Number of recordings in the catalog",
		},
	)

	CatalogExportedRecordings = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "animagif_catalog_exported_recordings",
			Help: "Number of recordings with an exported GIF",
		},
	)

	CatalogStorageBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "animagif_catalog_storage_bytes",
			Help: "Bytes used by recordings and exported GIFs",
		},
	)
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "animagif_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "animagif_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "animagif_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Filesystem metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "animagif_filesystem_retry_attempts_total",
			Help: "Filesystem operations retried after a transient error",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "animagif_filesystem_retry_success_total",
			Help: "Filesystem operations that succeeded after retrying",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "animagif_filesystem_retry_failures_total",
			Help: "Filesystem operations that failed after exhausting retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "animagif_filesystem_operation_duration_seconds",
			Help:    "Duration of filesystem operations including retries",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"operation", "volume"},
	)
)
