// Package metrics provides Prometheus instrumentation for animagif.
//
// All metrics are prefixed with "animagif_" and registered on the default
// registry through promauto, so importing the package is enough to expose
// them on /metrics.
//
// # Metric Categories
//
// ## Capture
//   - CaptureSessionsTotal: sessions by outcome
//   - CaptureFramesTotal: delivered frames by result (appended, dropped_*)
//   - CaptureSessionDuration: recorded duration per finalized session
//   - CaptureActive: 1 while a session is capturing
//
// ## Transcode
//   - TranscodeJobsTotal: jobs by kind (export, quick, preview) and status
//   - TranscodeDuration: wall time per job kind
//   - TranscodeProcessesActive: ffmpeg processes currently running
//
// ## Bootstrap
//   - BootstrapInstallsTotal: binary acquisitions by status
//   - BootstrapDownloadDuration and BootstrapDownloadBytes
//
// ## Catalog
//   - CatalogOperationsTotal: store operations by op and status
//   - CatalogRecordings and CatalogStorageBytes, refreshed by Collector
//
// ## HTTP and filesystem
//   - HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight
//   - Filesystem retry metrics fed through filesystem.Observer
//
// Call InitializeMetrics once at startup so that every label combination
// exists from the first scrape.
package metrics
