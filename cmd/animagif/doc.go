// Package main provides the entry point for animagif.
//
// animagif records the screen to a QuickTime video and converts recordings
// to animated GIFs with a two-pass ffmpeg palette. It runs as a command-line
// tool and, with "animagif serve", as a local HTTP API.
//
// # Application Lifecycle
//
//  1. Configuration Loading: TOML file, then environment variables, then
//     validation and directory setup
//  2. Catalog: opens the JSON or SQLite recording store in the data directory
//  3. Transcoder: resolves ffmpeg lazily; the managed binary is downloaded
//     on first use or by "animagif install-ffmpeg"
//  4. Command: runs the requested cobra command
//  5. Shutdown: stops an active recording, cancels exports, kills ffmpeg
//     children and closes the catalog
//
// # Commands
//
//	animagif record [--display N | --pick-display] [--region x,y,w,h | --select] [--fps N] [--quality q] [--duration d]
//	animagif export <id> | --all [--force] [--preset p] [--fps N] [--width N] [--colors N] [--dither d] [--loop N]
//	animagif preview <id> [--at d] [--size N] [-o file.jpg]
//	animagif list
//	animagif delete <id> | --all [--yes]
//	animagif displays
//	animagif doctor
//	animagif install-ffmpeg
//	animagif serve [--addr host:port]
//
// Every command accepts --config to point at a configuration file.
//
// # Graceful Shutdown
//
// Ctrl+C during "record" stops the capture and finalizes the video before
// exporting. Under "serve" SIGINT and SIGTERM shut the HTTP server down
// within 30 seconds, finalize an active recording, cancel running export
// jobs and terminate remaining ffmpeg processes.
package main
