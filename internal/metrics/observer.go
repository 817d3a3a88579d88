package metrics

import "animagif/internal/filesystem"

// filesystemObserver implements filesystem.Observer using the Prometheus
// metrics declared in this package.
type filesystemObserver struct{}

// NewFilesystemObserver creates an observer that records filesystem metrics.
func NewFilesystemObserver() filesystem.Observer {
	return &filesystemObserver{}
}

func (o *filesystemObserver) ObserveOperation(operation, volume string, durationSeconds float64, _ error) {
	FilesystemOperationDuration.WithLabelValues(operation, volume).Observe(durationSeconds)
}

func (o *filesystemObserver) ObserveRetryAttempt(operation, volume string) {
	FilesystemRetryAttempts.WithLabelValues(operation, volume).Inc()
}

func (o *filesystemObserver) ObserveRetrySuccess(operation, volume string) {
	FilesystemRetrySuccess.WithLabelValues(operation, volume).Inc()
}

func (o *filesystemObserver) ObserveRetryFailure(operation, volume string) {
	FilesystemRetryFailures.WithLabelValues(operation, volume).Inc()
}
