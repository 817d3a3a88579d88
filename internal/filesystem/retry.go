package filesystem

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"animagif/internal/logging"
)

// VolumeResolver maps file paths to volume labels for metric labeling
// using longest-prefix matching on absolute paths.
type VolumeResolver struct {
	mounts []volumeMount
}

type volumeMount struct {
	path string // absolute, with trailing separator
	name string
}

// NewVolumeResolver creates a resolver from a map of label to directory,
// for example {"data": "~/.local/share/animagif", "cache": "~/.cache/animagif"}.
func NewVolumeResolver(volumes map[string]string) *VolumeResolver {
	mounts := make([]volumeMount, 0, len(volumes))
	for name, path := range volumes {
		absPath, err := filepath.Abs(path)
		if err != nil {
			absPath = path
		}
		if !strings.HasSuffix(absPath, string(filepath.Separator)) {
			absPath += string(filepath.Separator)
		}
		mounts = append(mounts, volumeMount{path: absPath, name: name})
	}

	sort.Slice(mounts, func(i, j int) bool {
		return len(mounts[i].path) > len(mounts[j].path)
	})

	return &VolumeResolver{mounts: mounts}
}

// Resolve returns the volume label for path, or "unknown".
func (vr *VolumeResolver) Resolve(path string) string {
	if vr == nil {
		return "unknown"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "unknown"
	}

	for _, mount := range vr.mounts {
		if strings.HasPrefix(absPath+string(filepath.Separator), mount.path) {
			return mount.name
		}
	}

	return "unknown"
}

var defaultResolver *VolumeResolver

// SetDefaultVolumeResolver sets the package-level volume resolver.
func SetDefaultVolumeResolver(vr *VolumeResolver) {
	defaultResolver = vr
}

// RetryConfig configures retry behavior for filesystem operations
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// VolumeResolver overrides the package-level resolver when set.
	VolumeResolver *VolumeResolver
}

// DefaultRetryConfig returns the retry policy used for catalog and cache files.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

func (c *RetryConfig) resolveVolume(path string) string {
	if c.VolumeResolver != nil {
		return c.VolumeResolver.Resolve(path)
	}
	return defaultResolver.Resolve(path)
}

// isTransient reports whether err is worth retrying.
func isTransient(err error) bool {
	if err == nil {
		return false
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.ESTALE || errno == syscall.EBUSY || errno == syscall.EAGAIN
	}

	return false
}

// withRetry runs fn until it succeeds, fails with a non-transient error or
// runs out of attempts.
func withRetry(operation, path string, config RetryConfig, fn func() error) error {
	start := time.Now()
	volume := config.resolveVolume(path)
	obs := observer()
	backoff := config.InitialBackoff

	var lastErr error
	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 0 {
				logging.Info("%s succeeded on retry %d for %s", operation, attempt, path)
				obs.ObserveRetrySuccess(operation, volume)
			}
			obs.ObserveOperation(operation, volume, time.Since(start).Seconds(), nil)
			return nil
		}

		lastErr = err
		if !isTransient(err) {
			obs.ObserveOperation(operation, volume, time.Since(start).Seconds(), err)
			return err
		}

		if attempt < config.MaxRetries {
			obs.ObserveRetryAttempt(operation, volume)
			logging.Debug("%s transient error for %s, retrying in %v (attempt %d/%d): %v",
				operation, path, backoff, attempt+1, config.MaxRetries, err)
			time.Sleep(backoff)

			backoff *= 2
			if backoff > config.MaxBackoff {
				backoff = config.MaxBackoff
			}
		}
	}

	logging.Warn("%s failed after %d retries for %s: %v", operation, config.MaxRetries, path, lastErr)
	obs.ObserveRetryFailure(operation, volume)
	obs.ObserveOperation(operation, volume, time.Since(start).Seconds(), lastErr)
	return lastErr
}

// StatWithRetry performs os.Stat, retrying transient errors.
func StatWithRetry(path string, config RetryConfig) (os.FileInfo, error) {
	var info os.FileInfo
	err := withRetry("stat", path, config, func() error {
		var statErr error
		info, statErr = os.Stat(path)
		return statErr
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

// Exists reports whether path exists. Errors other than not-exist count as
// existing so that a flaky volume never causes catalog entries to vanish.
func Exists(path string) bool {
	_, err := StatWithRetry(path, DefaultRetryConfig())
	return err == nil || !errors.Is(err, os.ErrNotExist)
}

// RenameWithRetry performs os.Rename, retrying transient errors.
func RenameWithRetry(from, to string, config RetryConfig) error {
	return withRetry("rename", to, config, func() error {
		return os.Rename(from, to)
	})
}
