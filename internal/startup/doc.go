// Package startup provides build information and the sectioned lifecycle
// logging used by "animagif serve".
//
// Configuration itself lives in the config package; this package only
// reports on it and on the components that start after it.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo]:
//   - Version: Application version
//   - Commit: Git commit hash
//   - BuildTime: Build timestamp
//   - GoVersion: Go compiler version
//
//	go build -ldflags "-X animagif/internal/startup.Version=1.2.0" ./cmd/animagif
//
// # Lifecycle Logging
//
// The package provides structured logging functions for consistent output:
//   - [PrintBanner]: Banner, version and system information
//   - [LogCatalogInit]: Catalog backend and size
//   - [LogTranscoderInit]: Where ffmpeg comes from and whether it is installed
//   - [LogHTTPRoutes]: Registered HTTP routes (debug level)
//   - [LogServerStarted]: Server endpoints and startup duration
//   - [LogShutdownInitiated]: Graceful shutdown start
//   - [LogShutdownComplete]: Shutdown completion
//
// # Example Usage
//
//	startup.PrintBanner()
//	cfg.Log()
//	startup.LogCatalogInit(cfg.Catalog.Backend, len(recordings), time.Since(t0))
//	startup.LogTranscoderInit(installer, cfg.FFmpeg.UseSystem, cfg.FFmpeg.BinaryPath)
//
//	startup.LogServerStarted(startup.ServerConfig{
//	    Addr:            cfg.Server.Addr,
//	    MetricsEnabled:  cfg.Server.MetricsEnabled,
//	    StartupDuration: time.Since(startTime),
//	})
//
//	// On shutdown...
//	startup.LogShutdownInitiated("interrupt")
//	// ... cleanup ...
//	startup.LogShutdownComplete()
package startup
