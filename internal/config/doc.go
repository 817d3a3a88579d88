// Package config loads the animagif configuration.
//
// Values are layered: built-in defaults, then a TOML file, then environment
// variables. The file is read from the path given on the command line,
// $ANIMAGIF_CONFIG, or $XDG_CONFIG_HOME/animagif/config.toml (falling back
// to ~/.config/animagif/config.toml). A minimal file:
//
//	data_dir = "~/Movies/animagif"
//	log_level = "debug"
//
//	[capture]
//	fps = 30
//	quality = "high"
//
//	[export]
//	preset = "medium"
//	auto_export = true
//	copy_to_clipboard = true
//
//	[ffmpeg]
//	use_system = true
//
//	[catalog]
//	backend = "sqlite"
//
// # Environment Variables
//
//   - ANIMAGIF_CONFIG: Path to the config file
//   - ANIMAGIF_DATA_DIR: Recordings and catalog location
//   - ANIMAGIF_CACHE_DIR: Preview cache location
//   - ANIMAGIF_FPS, ANIMAGIF_QUALITY, ANIMAGIF_SHOW_CURSOR, ANIMAGIF_DISPLAY, ANIMAGIF_CODEC
//   - ANIMAGIF_EXPORT_PRESET, ANIMAGIF_AUTO_EXPORT, ANIMAGIF_COPY_TO_CLIPBOARD
//   - ANIMAGIF_FFMPEG_URL, ANIMAGIF_FFMPEG_PATH, ANIMAGIF_USE_SYSTEM_FFMPEG
//   - ANIMAGIF_CATALOG_BACKEND: json (default) or sqlite
//   - ANIMAGIF_ADDR: Listen address for "animagif serve" (default: 127.0.0.1:8765)
//   - LOG_LEVEL: debug, info, warn, error (default: info)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: false)
//   - METRICS_ENABLED: Serve /metrics (default: true)
//
// # Directory Setup
//
// [Load] creates and write-tests the directories it resolves:
//   - Data directory and its recordings/ subdirectory: required
//   - Cache directory previews/: optional, previews are disabled if unwritable
package config
