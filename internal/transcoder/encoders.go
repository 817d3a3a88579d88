package transcoder

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// encoderPattern matches lines like
// " V....D libx264              libx264 H.264 / AVC / MPEG-4 AVC (codec h264)".
var encoderPattern = regexp.MustCompile(`^\s*([VAS][.FSXBD]{5})\s+([A-Za-z0-9_-]+)\s+`)

// Encoders lists the video encoders available in the resolved ffmpeg.
func Encoders(ctx context.Context, runner Transcoder) (map[string]bool, error) {
	result, err := runner.Run(ctx, []string{"-hide_banner", "-encoders"})
	if err != nil {
		return nil, fmt.Errorf("failed to list encoders: %w", err)
	}
	return ParseEncoders(string(result.Stdout)), nil
}

// Version returns the first line of "ffmpeg -version".
func Version(ctx context.Context, runner Transcoder) (string, error) {
	result, err := runner.Run(ctx, []string{"-version"})
	if err != nil {
		return "", fmt.Errorf("failed to get ffmpeg version: %w", err)
	}
	line, _, _ := strings.Cut(string(result.Stdout), "\n")
	return strings.TrimSpace(line), nil
}

// ParseEncoders extracts video encoder names from "ffmpeg -encoders" output.
func ParseEncoders(output string) map[string]bool {
	encoders := make(map[string]bool)
	for _, line := range strings.Split(output, "\n") {
		// Legend lines look like " V..... = Video".
		if strings.Contains(line, " = ") {
			continue
		}
		m := encoderPattern.FindStringSubmatch(line)
		if m == nil || !strings.HasPrefix(m[1], "V") {
			continue
		}
		encoders[m[2]] = true
	}
	return encoders
}

// videoCodecFallbacks lists H.264-capable encoders in preference order,
// ending with a codec every ffmpeg build ships.
var videoCodecFallbacks = []string{"libx264", "h264_videotoolbox", "mpeg4"}

// PickEncoder returns preferred if available, otherwise the first
// available fallback.
func PickEncoder(available map[string]bool, preferred string) (string, error) {
	if available[preferred] {
		return preferred, nil
	}
	for _, codec := range videoCodecFallbacks {
		if available[codec] {
			return codec, nil
		}
	}
	return "", fmt.Errorf("encoder %q is not available and no fallback is present", preferred)
}
