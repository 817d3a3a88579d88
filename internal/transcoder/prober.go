package transcoder

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	goffmpeg "github.com/xfrr/goffmpeg/transcoder"

	"animagif/internal/logging"
)

var durationPattern = regexp.MustCompile(`Duration:\s*(\d+):(\d{2}):(\d{2}(?:\.\d+)?)`)

// DurationProber reads the duration of a media file.
type DurationProber struct {
	runner Transcoder
	// metadata probes through ffprobe; replaced in tests.
	metadata func(path string) (string, error)
}

// NewDurationProber probes with ffprobe when available and otherwise
// parses the banner ffmpeg prints for its input.
func NewDurationProber(runner Transcoder) *DurationProber {
	return &DurationProber{runner: runner, metadata: ffprobeDuration}
}

// Probe returns the media duration of path.
func (p *DurationProber) Probe(ctx context.Context, path string) (time.Duration, error) {
	if p.metadata != nil {
		raw, err := p.metadata(path)
		if err == nil {
			if seconds, perr := strconv.ParseFloat(raw, 64); perr == nil && seconds > 0 {
				return secondsToDuration(seconds), nil
			}
		} else {
			logging.Debug("ffprobe metadata unavailable for %s: %v", path, err)
		}
	}

	// "ffmpeg -i" without an output always exits non-zero; the banner on
	// stderr is still complete.
	result, err := p.runner.Run(ctx, []string{"-hide_banner", "-i", path})
	if err != nil && !errors.Is(err, ErrTranscodeFailed) {
		return 0, err
	}

	d, ok := ParseDuration(string(result.Stderr))
	if !ok {
		return 0, fmt.Errorf("no duration found for %s", path)
	}
	return d, nil
}

// ParseDuration extracts "Duration: HH:MM:SS.xx" from ffmpeg output.
func ParseDuration(output string) (time.Duration, bool) {
	m := durationPattern.FindStringSubmatch(output)
	if m == nil {
		return 0, false
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	seconds, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return 0, false
	}
	return secondsToDuration(float64(hours*3600+minutes*60) + seconds), true
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

// ffprobeDuration reads the container duration through goffmpeg, which
// locates ffprobe on PATH.
func ffprobeDuration(path string) (string, error) {
	trans := new(goffmpeg.Transcoder)
	if err := trans.Initialize(path, ""); err != nil {
		return "", fmt.Errorf("failed to probe %s: %w", path, err)
	}
	return trans.MediaFile().Metadata().Format.Duration, nil
}
