// Package handlers provides the HTTP API of the animagif server.
//
// It includes handlers for:
//   - Starting, stopping and inspecting the active recording
//   - Listing, deleting and downloading catalogued recordings
//   - Asynchronous GIF exports and JPEG previews
//   - Displays, storage usage, health checks, version and metrics
//
// Errors are returned as {"error": "..."} with a status derived from the
// sentinel errors of the capture, transcoder, catalog and app packages.
package handlers
