// Package transcoder runs ffmpeg as a subprocess.
//
// It provides:
//   - Process, which runs ffmpeg with captured output and optional
//     progress reporting parsed from "-progress pipe:1"
//   - Installer, which resolves a system ffmpeg or downloads and caches a
//     managed build on first use
//   - DurationProber, which reads media durations through ffprobe with a
//     fallback to parsing ffmpeg's stderr
//   - Encoders, which lists the encoders a binary was built with
//
// Failures are reported as ErrBinaryUnavailable when no working binary can
// be obtained and as ErrTranscodeFailed (a *FailedError) when ffmpeg exits
// unsuccessfully.
package transcoder
