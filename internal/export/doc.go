// Package export converts recorded videos into palette-optimized GIFs.
//
// Settings combine a named Preset with optional per-field Overrides; an
// explicit override always wins over the preset value. FilterGraph turns
// the resolved settings into a two-pass ffmpeg filter chain: the first
// branch generates an optimal palette from the whole clip and the second
// maps every frame onto it with the chosen dithering.
//
// The Orchestrator drives ffmpeg through the transcoder.Transcoder
// capability and reports progress as non-decreasing fractions on a
// channel, finishing with exactly 1.0 on success. PreviewCache produces
// JPEG thumbnails of single frames and keeps them on disk.
package export
