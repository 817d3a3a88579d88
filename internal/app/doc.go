// Package app ties the capture pipeline, the recording catalog and the
// GIF exporter together behind the operations the CLI and the HTTP API
// expose: start and stop a recording, export one or all recordings, run
// exports as background jobs and render previews.
//
// One [App] owns one capture pipeline, so at most one recording is active
// per process. Stopping a recording probes the finished container for its
// duration, adds it to the catalog and, when export.auto_export is set,
// exports it with the configured preset and copies the GIF path to the
// clipboard.
package app
