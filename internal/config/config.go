package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"animagif/internal/capture"
	"animagif/internal/catalog"
	"animagif/internal/export"
	"animagif/internal/logging"
)

// AppName names the per-user directories.
const AppName = "animagif"

// CaptureConfig is the [capture] section.
type CaptureConfig struct {
	FrameRate      int    `toml:"fps"`
	Quality        string `toml:"quality"`
	ShowCursor     bool   `toml:"show_cursor"`
	CaptureShadows bool   `toml:"capture_shadows"`
	Display        int    `toml:"display"`
	Codec          string `toml:"codec"`
	QueueDepth     int    `toml:"queue_depth"`
}

// ExportConfig is the [export] section.
type ExportConfig struct {
	Preset          string `toml:"preset"`
	LoopCount       int    `toml:"loop"`
	AutoExport      bool   `toml:"auto_export"`
	CopyToClipboard bool   `toml:"copy_to_clipboard"`
	// Workers caps concurrent batch exports. 0 sizes the pool from the CPU count.
	Workers int `toml:"workers"`
}

// FFmpegConfig is the [ffmpeg] section.
type FFmpegConfig struct {
	DownloadURL string `toml:"download_url"`
	UseSystem   bool   `toml:"use_system"`
	BinaryPath  string `toml:"binary_path"`
}

// CatalogConfig is the [catalog] section.
type CatalogConfig struct {
	Backend string `toml:"backend"`
}

// ServerConfig is the [server] section used by "animagif serve".
type ServerConfig struct {
	Addr            string `toml:"addr"`
	LogHealthChecks bool   `toml:"log_health_checks"`
	MetricsEnabled  bool   `toml:"metrics_enabled"`
}

// Config holds all application configuration.
type Config struct {
	DataDir  string `toml:"data_dir"`
	CacheDir string `toml:"cache_dir"`
	LogLevel string `toml:"log_level"`

	Capture CaptureConfig `toml:"capture"`
	Export  ExportConfig  `toml:"export"`
	FFmpeg  FFmpegConfig  `toml:"ffmpeg"`
	Catalog CatalogConfig `toml:"catalog"`
	Server  ServerConfig  `toml:"server"`

	// Derived paths
	RecordingsDir string `toml:"-"`
	PreviewDir    string `toml:"-"`
	BinaryDir     string `toml:"-"`
	ConfigFile    string `toml:"-"`

	// PreviewsEnabled is false when the cache directory is not writable.
	PreviewsEnabled bool `toml:"-"`
}

// Default returns the configuration used when no file or environment
// override is present. Directories are left empty until Load resolves them.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Capture: CaptureConfig{
			FrameRate:  capture.DefaultFrameRate,
			Quality:    capture.QualityHigh.String(),
			ShowCursor: true,
			Codec:      capture.DefaultCodec,
			QueueDepth: capture.DefaultQueueDepth,
		},
		Export: ExportConfig{
			Preset: string(export.PresetMedium),
		},
		Catalog: CatalogConfig{
			Backend: catalog.BackendJSON,
		},
		Server: ServerConfig{
			Addr:            "127.0.0.1:8765",
			LogHealthChecks: false,
			MetricsEnabled:  true,
		},
	}
}

// Load builds the configuration from defaults, the TOML file and the
// environment, in that order, then prepares the directories. path selects
// the file; when empty $ANIMAGIF_CONFIG or the per-user default is used. A
// missing default file is not an error, a missing explicit one is.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if path == "" {
		path = getEnv("ANIMAGIF_CONFIG", "")
		explicit = path != ""
	}
	if path == "" {
		path = defaultConfigFile()
	}

	if err := cfg.loadFile(path, explicit); err != nil {
		return nil, err
	}
	cfg.applyEnv()

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log_level: %w", err)
	}
	logging.SetLevel(level)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.prepareDirectories(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	meta, err := toml.DecodeFile(path, c)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			logging.Debug("No config file at %s, using defaults", path)
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	c.ConfigFile = path
	for _, key := range meta.Undecoded() {
		logging.Warn("Unknown config key %q in %s", key.String(), path)
	}
	logging.Debug("Loaded config file %s", path)
	return nil
}

func (c *Config) applyEnv() {
	c.DataDir = getEnv("ANIMAGIF_DATA_DIR", c.DataDir)
	c.CacheDir = getEnv("ANIMAGIF_CACHE_DIR", c.CacheDir)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.Capture.FrameRate = getEnvInt("ANIMAGIF_FPS", c.Capture.FrameRate)
	c.Capture.Quality = getEnv("ANIMAGIF_QUALITY", c.Capture.Quality)
	c.Capture.ShowCursor = getEnvBool("ANIMAGIF_SHOW_CURSOR", c.Capture.ShowCursor)
	c.Capture.Display = getEnvInt("ANIMAGIF_DISPLAY", c.Capture.Display)
	c.Capture.Codec = getEnv("ANIMAGIF_CODEC", c.Capture.Codec)

	c.Export.Preset = getEnv("ANIMAGIF_EXPORT_PRESET", c.Export.Preset)
	c.Export.AutoExport = getEnvBool("ANIMAGIF_AUTO_EXPORT", c.Export.AutoExport)
	c.Export.CopyToClipboard = getEnvBool("ANIMAGIF_COPY_TO_CLIPBOARD", c.Export.CopyToClipboard)

	c.FFmpeg.DownloadURL = getEnv("ANIMAGIF_FFMPEG_URL", c.FFmpeg.DownloadURL)
	c.FFmpeg.BinaryPath = getEnv("ANIMAGIF_FFMPEG_PATH", c.FFmpeg.BinaryPath)
	c.FFmpeg.UseSystem = getEnvBool("ANIMAGIF_USE_SYSTEM_FFMPEG", c.FFmpeg.UseSystem)

	c.Catalog.Backend = getEnv("ANIMAGIF_CATALOG_BACKEND", c.Catalog.Backend)

	c.Server.Addr = getEnv("ANIMAGIF_ADDR", c.Server.Addr)
	c.Server.LogHealthChecks = getEnvBool("LOG_HEALTH_CHECKS", c.Server.LogHealthChecks)
	c.Server.MetricsEnabled = getEnvBool("METRICS_ENABLED", c.Server.MetricsEnabled)
}

// Validate checks values that would otherwise fail deep inside a recording
// or export.
func (c *Config) Validate() error {
	if c.Capture.FrameRate < 1 || c.Capture.FrameRate > 120 {
		return fmt.Errorf("capture.fps must be between 1 and 120, got %d", c.Capture.FrameRate)
	}
	if _, err := capture.ParseQuality(c.Capture.Quality); err != nil {
		return fmt.Errorf("capture.quality: %w", err)
	}
	if c.Capture.QueueDepth < 1 {
		return fmt.Errorf("capture.queue_depth must be at least 1, got %d", c.Capture.QueueDepth)
	}
	if c.Capture.Display < 0 {
		return fmt.Errorf("capture.display must not be negative, got %d", c.Capture.Display)
	}
	if _, err := export.ParsePreset(c.Export.Preset); err != nil {
		return fmt.Errorf("export.preset: %w", err)
	}
	if c.Export.LoopCount < -1 {
		return fmt.Errorf("export.loop must be -1 or greater, got %d", c.Export.LoopCount)
	}
	if c.Export.Workers < 0 {
		return fmt.Errorf("export.workers must not be negative, got %d", c.Export.Workers)
	}
	switch c.Catalog.Backend {
	case catalog.BackendJSON, catalog.BackendSQLite:
	default:
		return fmt.Errorf("catalog.backend must be %q or %q, got %q", catalog.BackendJSON, catalog.BackendSQLite, c.Catalog.Backend)
	}
	if c.FFmpeg.UseSystem && c.FFmpeg.BinaryPath != "" {
		return fmt.Errorf("ffmpeg.use_system and ffmpeg.binary_path are mutually exclusive")
	}
	return nil
}

// prepareDirectories resolves directory defaults to absolute paths and
// checks them. The data and recordings directories are required; previews
// are disabled when the cache directory is unusable.
func (c *Config) prepareDirectories() error {
	var err error
	if c.DataDir == "" {
		if c.DataDir, err = defaultDataDir(); err != nil {
			return err
		}
	}
	if c.CacheDir == "" {
		if c.CacheDir, err = defaultCacheDir(); err != nil {
			return err
		}
	}

	if c.DataDir, err = filepath.Abs(expandHome(c.DataDir)); err != nil {
		return fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if c.CacheDir, err = filepath.Abs(expandHome(c.CacheDir)); err != nil {
		return fmt.Errorf("failed to resolve cache directory path: %w", err)
	}

	c.RecordingsDir = filepath.Join(c.DataDir, "recordings")
	c.BinaryDir = filepath.Join(c.DataDir, "bin")
	c.PreviewDir = filepath.Join(c.CacheDir, "previews")

	for _, dir := range []struct{ path, name string }{
		{c.DataDir, "data"},
		{c.RecordingsDir, "recordings"},
	} {
		if err := ensureDirectory(dir.path, dir.name); err != nil {
			return fmt.Errorf("%s directory error: %w", dir.name, err)
		}
		if err := testWriteAccess(dir.path); err != nil {
			return fmt.Errorf("%s directory is not writable: %w", dir.name, err)
		}
	}

	c.PreviewsEnabled = setupOptionalDir(c.PreviewDir, "previews")
	return nil
}

// CaptureConfiguration converts the [capture] section for the pipeline.
func (c *Config) CaptureConfiguration() capture.Configuration {
	quality, err := capture.ParseQuality(c.Capture.Quality)
	if err != nil {
		quality = capture.QualityHigh
	}
	cfg := capture.DefaultConfiguration()
	cfg.FrameRate = c.Capture.FrameRate
	cfg.Quality = quality
	cfg.ShowsCursor = c.Capture.ShowCursor
	cfg.CapturesShadows = c.Capture.CaptureShadows
	cfg.Codec = c.Capture.Codec
	cfg.QueueDepth = c.Capture.QueueDepth
	return cfg
}

// ExportSettings converts the [export] section into default export settings.
func (c *Config) ExportSettings() export.Settings {
	preset, err := export.ParsePreset(c.Export.Preset)
	if err != nil {
		preset = export.PresetMedium
	}
	return export.Settings{Preset: preset, LoopCount: c.Export.LoopCount}
}

// Log prints the effective configuration.
func (c *Config) Log() {
	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")
	if c.ConfigFile != "" {
		logging.Info("  Config file:        %s", c.ConfigFile)
	} else {
		logging.Info("  Config file:        (none, using defaults)")
	}
	logging.Info("  Data directory:     %s", c.DataDir)
	logging.Info("  Recordings:         %s", c.RecordingsDir)
	logging.Info("  Cache directory:    %s", c.CacheDir)
	logging.Info("  Log level:          %s", logging.GetLevel())
	logging.Info("")
	logging.Info("  Capture:            %d fps, %s quality, codec %s", c.Capture.FrameRate, c.Capture.Quality, c.Capture.Codec)
	logging.Info("  Default display:    %d", c.Capture.Display)
	logging.Info("  Export preset:      %s (loop %d)", c.Export.Preset, c.Export.LoopCount)
	logging.Info("  Auto export:        %v", c.Export.AutoExport)
	logging.Info("  Copy to clipboard:  %v", c.Export.CopyToClipboard)
	logging.Info("  Catalog backend:    %s", c.Catalog.Backend)
	switch {
	case c.FFmpeg.BinaryPath != "":
		logging.Info("  FFmpeg:             %s (configured)", c.FFmpeg.BinaryPath)
	case c.FFmpeg.UseSystem:
		logging.Info("  FFmpeg:             system PATH")
	default:
		logging.Info("  FFmpeg:             managed in %s", c.BinaryDir)
	}
	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Catalog:     ENABLED (required)")
	logging.Info("    Previews:    %s", enabledString(c.PreviewsEnabled))
	logging.Info("    Metrics:     %s", enabledString(c.Server.MetricsEnabled))
	logging.Info("")
}

func defaultConfigFile() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, AppName, "config.toml")
}

func defaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to find home directory: %w", err)
	}
	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Application Support", "AnimaGIF"), nil
	}
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, AppName), nil
	}
	return filepath.Join(home, ".local", "share", AppName), nil
}

func defaultCacheDir() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to find cache directory: %w", err)
	}
	return filepath.Join(dir, AppName), nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func setupOptionalDir(path, name string) bool {
	logging.Debug("  Setting up %s directory: %s", name, path)

	if err := os.MkdirAll(path, 0o755); err != nil {
		logging.Warn("    Failed to create %s directory: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}

	if err := testWriteAccess(path); err != nil {
		logging.Warn("    %s directory is not writable: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}

	logging.Debug("    [OK] %s directory ready", name)
	return true
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
