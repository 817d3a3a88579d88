// Package middleware provides HTTP middleware for the animagif server.
//
// It includes:
//   - Access logging in W3C Extended Log Format, tagged with the recording
//     and export job each request touched
//   - Prometheus request metrics with bounded path cardinality
//   - gzip response compression
package middleware
