// Package catalog keeps the list of finished recordings.
//
// A Recording ties a captured video to its optional exported GIF. Records
// are persisted by a Store: JSONStore writes a single library.json file
// atomically, SQLiteStore keeps them in a WAL-mode SQLite database. Both
// return the newest recording first and silently drop entries whose video
// file no longer exists.
//
// Library wraps a Store with file cleanup on delete, storage accounting
// and Prometheus instrumentation.
package catalog
