/*
Package filesystem provides the file operations animagif relies on for
durable state: existence checks with retry, atomic file replacement and
same-volume moves.

The catalog filters recordings whose video vanished, and the transcoder
installer moves a freshly extracted binary into its cache directory. Both
live in user directories that may sit on network or synced volumes, so
stat and rename retry transient errors (ESTALE, EBUSY, EAGAIN) with
exponential backoff:

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())

Writes go through WriteFileAtomic, which writes a temp file in the target
directory, syncs it and renames it over the destination. A reader never
observes a partially written library.json.

Metrics are reported through an Observer installed at startup with
SetObserver; without one, nothing is recorded.
*/
package filesystem
