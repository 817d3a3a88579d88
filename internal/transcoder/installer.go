package transcoder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/imroc/req/v3"
	"github.com/klauspost/compress/zip"
	"golang.org/x/sync/singleflight"

	"animagif/internal/filesystem"
	"animagif/internal/logging"
	"animagif/internal/metrics"
)

// DefaultDownloadURL serves the latest static macOS ffmpeg build as a zip.
const DefaultDownloadURL = "https://evermeet.cx/ffmpeg/getrelease/ffmpeg/zip"

const binaryName = "ffmpeg"

// Fetcher downloads url into the file at dest.
type Fetcher interface {
	Fetch(ctx context.Context, url, dest string) (int64, error)
}

// HTTPFetcher downloads with an imroc/req client.
type HTTPFetcher struct {
	client *req.Client
}

// NewHTTPFetcher returns a fetcher with the given overall request timeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{client: req.C().SetTimeout(timeout)}
}

// Fetch writes the response body to dest. Non-2xx responses are errors.
func (f *HTTPFetcher) Fetch(ctx context.Context, url, dest string) (int64, error) {
	resp, err := f.client.R().SetContext(ctx).SetOutputFile(dest).Get(url)
	if err != nil {
		return 0, fmt.Errorf("download %s: %w", url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("download %s: unexpected status %s", url, resp.Status)
	}

	info, err := os.Stat(dest)
	if err != nil {
		return 0, fmt.Errorf("download %s: %w", url, err)
	}
	return info.Size(), nil
}

// InstallerOptions configures an Installer.
type InstallerOptions struct {
	// CacheDir holds the managed binary.
	CacheDir string
	// DownloadURL overrides DefaultDownloadURL.
	DownloadURL string
	// UseSystem prefers an ffmpeg found on PATH.
	UseSystem bool
	// BinaryPath pins an explicit binary and disables downloads.
	BinaryPath string
	// Fetcher overrides the HTTP fetcher.
	Fetcher Fetcher
}

// Installer resolves a working ffmpeg binary, downloading a managed copy
// into the cache directory the first time one is needed.
type Installer struct {
	cacheDir    string
	downloadURL string
	useSystem   bool
	binaryPath  string
	fetcher     Fetcher

	group singleflight.Group

	mu       sync.Mutex
	resolved string
}

// NewInstaller creates an Installer. No filesystem or network access
// happens until EnsureAvailable is called.
func NewInstaller(opts InstallerOptions) *Installer {
	if opts.DownloadURL == "" {
		opts.DownloadURL = DefaultDownloadURL
	}
	if opts.Fetcher == nil {
		opts.Fetcher = NewHTTPFetcher(10 * time.Minute)
	}
	return &Installer{
		cacheDir:    opts.CacheDir,
		downloadURL: opts.DownloadURL,
		useSystem:   opts.UseSystem,
		binaryPath:  opts.BinaryPath,
		fetcher:     opts.Fetcher,
	}
}

// ManagedPath is where the downloaded binary lives.
func (i *Installer) ManagedPath() string {
	return filepath.Join(i.cacheDir, binaryName)
}

// EnsureAvailable returns the path of a working ffmpeg. Concurrent callers
// share a single install. Once a binary is resolved later calls return it
// without touching the network.
func (i *Installer) EnsureAvailable(ctx context.Context) (string, error) {
	i.mu.Lock()
	resolved := i.resolved
	i.mu.Unlock()
	if resolved != "" {
		return resolved, nil
	}

	ch := i.group.DoChan("ffmpeg", func() (interface{}, error) {
		path, err := i.resolve(context.WithoutCancel(ctx))
		if err != nil {
			return "", err
		}
		i.mu.Lock()
		i.resolved = path
		i.mu.Unlock()
		return path, nil
	})

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %v", ErrBinaryUnavailable, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// Installed reports whether a binary has been resolved or a managed copy
// already exists, without downloading.
func (i *Installer) Installed() bool {
	i.mu.Lock()
	resolved := i.resolved
	i.mu.Unlock()
	return resolved != "" || filesystem.Exists(i.ManagedPath())
}

func (i *Installer) resolve(ctx context.Context) (string, error) {
	if i.binaryPath != "" {
		if err := verifyBinary(ctx, i.binaryPath); err != nil {
			metrics.BootstrapInstallsTotal.WithLabelValues("error").Inc()
			return "", fmt.Errorf("%w: configured binary %s: %v", ErrBinaryUnavailable, i.binaryPath, err)
		}
		metrics.BootstrapInstallsTotal.WithLabelValues("system").Inc()
		return i.binaryPath, nil
	}

	if i.useSystem {
		if path, err := exec.LookPath(binaryName); err == nil {
			logging.Info("Using system ffmpeg: %s", path)
			metrics.BootstrapInstallsTotal.WithLabelValues("system").Inc()
			return path, nil
		}
		logging.Debug("No ffmpeg on PATH, falling back to managed binary")
	}

	if i.cacheDir == "" {
		metrics.BootstrapInstallsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("%w: no cache directory configured", ErrBinaryUnavailable)
	}

	managed := i.ManagedPath()
	if filesystem.Exists(managed) {
		logging.Debug("Using cached ffmpeg: %s", managed)
		metrics.BootstrapInstallsTotal.WithLabelValues("cached").Inc()
		return managed, nil
	}

	if err := i.install(ctx, managed); err != nil {
		metrics.BootstrapInstallsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("%w: %v", ErrBinaryUnavailable, err)
	}
	metrics.BootstrapInstallsTotal.WithLabelValues("installed").Inc()
	return managed, nil
}

func (i *Installer) install(ctx context.Context, dest string) error {
	if err := os.MkdirAll(i.cacheDir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	archive, err := os.CreateTemp(i.cacheDir, "ffmpeg-*.zip")
	if err != nil {
		return fmt.Errorf("failed to create download file: %w", err)
	}
	archivePath := archive.Name()
	_ = archive.Close()
	defer func() {
		if err := os.Remove(archivePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.Warn("failed to remove ffmpeg archive %s: %v", archivePath, err)
		}
	}()

	logging.Info("Downloading ffmpeg from %s", i.downloadURL)
	start := time.Now()
	size, err := i.fetcher.Fetch(ctx, i.downloadURL, archivePath)
	metrics.BootstrapDownloadDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return err
	}
	metrics.BootstrapDownloadBytes.Add(float64(size))
	logging.Info("Downloaded ffmpeg archive (%d bytes) in %v", size, time.Since(start).Round(time.Millisecond))

	staged, err := extractBinary(archivePath, i.cacheDir)
	if err != nil {
		return err
	}
	defer func() {
		if err := os.Remove(staged); err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.Warn("failed to remove staged ffmpeg %s: %v", staged, err)
		}
	}()

	if err := verifyBinary(ctx, staged); err != nil {
		return fmt.Errorf("downloaded ffmpeg failed verification: %w", err)
	}

	if err := filesystem.RenameWithRetry(staged, dest, filesystem.DefaultRetryConfig()); err != nil {
		return fmt.Errorf("failed to install ffmpeg: %w", err)
	}

	logging.Info("Installed ffmpeg to %s", dest)
	return nil
}

// extractBinary copies the archive entry named ffmpeg into a temporary
// executable file in dir and returns its path.
func extractBinary(archivePath, dir string) (string, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to open ffmpeg archive: %w", err)
	}
	defer func() {
		if err := zr.Close(); err != nil {
			logging.Warn("failed to close ffmpeg archive: %v", err)
		}
	}()

	for _, f := range zr.File {
		if f.FileInfo().IsDir() || filepath.Base(f.Name) != binaryName {
			continue
		}

		src, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("failed to read %s from archive: %w", f.Name, err)
		}
		defer func() { _ = src.Close() }()

		out, err := os.CreateTemp(dir, "ffmpeg-*.tmp")
		if err != nil {
			return "", fmt.Errorf("failed to create staged binary: %w", err)
		}
		if _, err := io.Copy(out, src); err != nil {
			_ = out.Close()
			_ = os.Remove(out.Name())
			return "", fmt.Errorf("failed to extract ffmpeg: %w", err)
		}
		if err := out.Close(); err != nil {
			_ = os.Remove(out.Name())
			return "", fmt.Errorf("failed to extract ffmpeg: %w", err)
		}
		if err := os.Chmod(out.Name(), 0o755); err != nil {
			_ = os.Remove(out.Name())
			return "", fmt.Errorf("failed to mark ffmpeg executable: %w", err)
		}
		return out.Name(), nil
	}

	return "", errors.New("archive does not contain an ffmpeg binary")
}

// verifyBinary runs "<path> -version".
func verifyBinary(ctx context.Context, path string) error {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	// #nosec G204 -- path is a file this package installed or the user configured
	out, err := exec.CommandContext(ctx, path, "-version").CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w - %s", err, tailString(out, 512))
	}
	return nil
}
