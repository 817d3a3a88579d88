package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// WriteFileAtomic replaces path with data. The content is written to a
// temp file in the same directory and renamed over path, so readers see
// either the old or the new content.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	start := time.Now()
	dir := filepath.Dir(path)
	volume := defaultResolver.Resolve(path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		observer().ObserveOperation("write", volume, time.Since(start).Seconds(), err)
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		observer().ObserveOperation("write", volume, time.Since(start).Seconds(), err)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		observer().ObserveOperation("write", volume, time.Since(start).Seconds(), err)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		observer().ObserveOperation("write", volume, time.Since(start).Seconds(), err)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := RenameWithRetry(tmpPath, path, DefaultRetryConfig()); err != nil {
		_ = os.Remove(tmpPath)
		observer().ObserveOperation("write", volume, time.Since(start).Seconds(), err)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	observer().ObserveOperation("write", volume, time.Since(start).Seconds(), nil)
	return nil
}

// FileSize returns the size of path, or 0 when it cannot be read.
func FileSize(path string) int64 {
	if path == "" {
		return 0
	}
	info, err := StatWithRetry(path, DefaultRetryConfig())
	if err != nil || info.IsDir() {
		return 0
	}
	return info.Size()
}
