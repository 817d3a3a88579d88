package catalog

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/google/uuid"

	"animagif/internal/logging"
	"animagif/internal/metrics"
)

// Library is the application's view of the catalog.
type Library struct {
	store Store
}

// NewLibrary wraps store.
func NewLibrary(store Store) *Library {
	return &Library{store: store}
}

// List returns all recordings, newest first.
func (l *Library) List(ctx context.Context) ([]Recording, error) {
	start := time.Now()
	recordings, err := l.store.List(ctx)
	recordOperation("list", start, err)
	return recordings, err
}

// Get returns the recording with id.
func (l *Library) Get(ctx context.Context, id uuid.UUID) (Recording, error) {
	recordings, err := l.List(ctx)
	if err != nil {
		return Recording{}, err
	}
	for _, r := range recordings {
		if r.ID == id {
			return r, nil
		}
	}
	return Recording{}, ErrNotFound
}

// Insert adds a recording at the front of the catalog.
func (l *Library) Insert(ctx context.Context, r Recording) error {
	start := time.Now()
	err := l.store.Insert(ctx, r)
	recordOperation("insert", start, err)
	if err == nil {
		logging.Info("Catalog: added recording %s (%s)", r.ID, r.FormattedDuration())
	}
	return err
}

// Update replaces a stored recording.
func (l *Library) Update(ctx context.Context, r Recording) error {
	start := time.Now()
	err := l.store.Update(ctx, r)
	recordOperation("update", start, err)
	return err
}

// Delete removes the recording and its video and GIF files. File removal
// failures are logged, not returned.
func (l *Library) Delete(ctx context.Context, id uuid.UUID) error {
	r, err := l.Get(ctx, id)
	if err != nil {
		return err
	}

	start := time.Now()
	err = l.store.Delete(ctx, id)
	recordOperation("delete", start, err)
	if err != nil {
		return err
	}

	removeFile(r.SourceVideoPath)
	if r.HasGIF() {
		removeFile(r.ExportedGIFPath)
	}
	logging.Info("Catalog: deleted recording %s", id)
	return nil
}

// DeleteAll deletes every recording and returns how many were removed.
func (l *Library) DeleteAll(ctx context.Context) (int, error) {
	recordings, err := l.List(ctx)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, r := range recordings {
		if err := l.Delete(ctx, r.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// TotalStorageUsed sums FileSize over all recordings.
func (l *Library) TotalStorageUsed(ctx context.Context) int64 {
	recordings, err := l.List(ctx)
	if err != nil {
		logging.Warn("Catalog: failed to compute storage: %v", err)
		return 0
	}
	var total int64
	for _, r := range recordings {
		total += r.FileSize()
	}
	return total
}

// GetStats implements metrics.StatsProvider.
func (l *Library) GetStats() metrics.Stats {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	recordings, err := l.store.List(ctx)
	if err != nil {
		logging.Debug("Catalog: stats unavailable: %v", err)
		return metrics.Stats{}
	}

	stats := metrics.Stats{Recordings: len(recordings)}
	for _, r := range recordings {
		if r.HasGIF() {
			stats.Exported++
		}
		stats.StorageBytes += r.FileSize()
	}
	return stats
}

// Close closes the underlying store.
func (l *Library) Close() error {
	return l.store.Close()
}

func removeFile(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Warn("Catalog: failed to remove %s: %v", path, err)
	}
}

func recordOperation(operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.CatalogOperationsTotal.WithLabelValues(operation, status).Inc()
	metrics.CatalogOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
