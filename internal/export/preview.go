package export

import (
	"bytes"
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/disintegration/imaging"

	"animagif/internal/filesystem"
	"animagif/internal/logging"
)

// PreviewCache stores JPEG thumbnails of recording frames on disk.
type PreviewCache struct {
	cacheDir     string
	orchestrator *Orchestrator
	mu           sync.Mutex
}

// NewPreviewCache creates a cache rooted at cacheDir.
func NewPreviewCache(cacheDir string, orchestrator *Orchestrator) *PreviewCache {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		logging.Warn("PreviewCache: failed to create cache dir: %v", err)
	}
	return &PreviewCache{cacheDir: cacheDir, orchestrator: orchestrator}
}

// Thumbnail returns a JPEG of the frame at offset at, fitted within a
// size x size box. Entries are keyed by path, offset, size and the
// video's modification time.
func (c *PreviewCache) Thumbnail(ctx context.Context, videoPath string, at time.Duration, size int) ([]byte, error) {
	if size <= 0 {
		size = 200
	}

	info, err := os.Stat(videoPath)
	if err != nil {
		return nil, fmt.Errorf("video not accessible: %w", err)
	}

	hash := md5.Sum([]byte(fmt.Sprintf("%s|%d|%d|%d", videoPath, at.Milliseconds(), size, info.ModTime().UnixNano())))
	cachePath := filepath.Join(c.cacheDir, fmt.Sprintf("%x.jpg", hash))

	if data, err := os.ReadFile(cachePath); err == nil {
		logging.Debug("Preview cache hit: %s", videoPath)
		return data, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if data, err := os.ReadFile(cachePath); err == nil {
		return data, nil
	}

	framePath := filepath.Join(c.cacheDir, fmt.Sprintf("%x.png", hash))
	defer func() {
		if err := os.Remove(framePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.Warn("failed to remove preview frame %s: %v", framePath, err)
		}
	}()

	// Extract at twice the box size so Fit downsamples.
	if _, err := c.orchestrator.GeneratePreviewFrame(ctx, videoPath, at, size*2, framePath); err != nil {
		return nil, fmt.Errorf("preview generation failed: %w", err)
	}

	img, err := imaging.Open(framePath)
	if err != nil {
		return nil, fmt.Errorf("failed to decode preview frame: %w", err)
	}

	thumb := imaging.Fit(img, size, size, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 80}); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}

	if err := filesystem.WriteFileAtomic(cachePath, buf.Bytes(), 0o644); err != nil {
		logging.Warn("Failed to cache preview %s: %v", cachePath, err)
	} else {
		logging.Debug("Preview cached: %s", cachePath)
	}

	return buf.Bytes(), nil
}

// Clear removes every cached preview and returns the bytes freed.
func (c *PreviewCache) Clear() (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := os.ReadDir(c.cacheDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read preview cache directory: %w", err)
	}

	var freed int64
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(c.cacheDir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			logging.Warn("failed to get info for %s: %v", path, err)
			continue
		}
		if err := os.Remove(path); err != nil {
			logging.Warn("failed to remove file %s: %v", path, err)
			continue
		}
		freed += info.Size()
	}

	logging.Info("Cleared preview cache: freed %d bytes", freed)
	return freed, nil
}
