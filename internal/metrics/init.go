package metrics

// Frame results reported by the capture pipeline.
var frameResults = []string{
	"appended",
	"dropped_backpressure",
	"dropped_state",
	"dropped_out_of_order",
	"error",
}

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
func InitializeMetrics() {
	for _, status := range []string{"started", "finalized", "failed", "rejected"} {
		CaptureSessionsTotal.WithLabelValues(status)
	}
	for _, result := range frameResults {
		CaptureFramesTotal.WithLabelValues(result)
	}

	for _, kind := range []string{"export", "quick", "preview"} {
		TranscodeJobsTotal.WithLabelValues(kind, "success")
		TranscodeJobsTotal.WithLabelValues(kind, "error")
		TranscodeJobsTotal.WithLabelValues(kind, "unavailable")
		TranscodeDuration.WithLabelValues(kind)
	}

	for _, status := range []string{"system", "cached", "installed", "error"} {
		BootstrapInstallsTotal.WithLabelValues(status)
	}

	for _, op := range []string{"list", "insert", "update", "delete"} {
		CatalogOperationsTotal.WithLabelValues(op, "success")
		CatalogOperationsTotal.WithLabelValues(op, "error")
		CatalogOperationDuration.WithLabelValues(op)
	}

	for _, op := range []string{"stat", "rename", "write"} {
		for _, vol := range []string{"data", "cache", "unknown"} {
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemOperationDuration.WithLabelValues(op, vol)
		}
	}
}
