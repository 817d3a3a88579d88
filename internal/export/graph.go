package export

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FilterGraph builds the two-pass palette filter chain for r.
func FilterGraph(r Resolved) string {
	return strings.Join([]string{
		fmt.Sprintf("fps=%d", r.FrameRate),
		fmt.Sprintf("scale=%d:-1:flags=lanczos", r.MaxWidth),
		"split[s0][s1]",
		fmt.Sprintf("[s0]palettegen=max_colors=%d:stats_mode=diff[p]", r.MaxColors),
		fmt.Sprintf("[s1][p]paletteuse=dither=%s:diff_mode=rectangle", r.Dithering),
	}, ";")
}

// ExportArgs returns the ffmpeg arguments that write src as a GIF to dst.
func ExportArgs(src, dst string, r Resolved) []string {
	return []string{
		"-y",
		"-i", src,
		"-vf", FilterGraph(r),
		"-loop", strconv.Itoa(r.LoopCount),
		dst,
	}
}

// PreviewArgs returns the ffmpeg arguments that extract one frame of src
// at offset at, scaled to width, into dst.
func PreviewArgs(src string, at time.Duration, width int, dst string) []string {
	return []string{
		"-y",
		"-i", src,
		"-ss", fmt.Sprintf("%.2f", at.Seconds()),
		"-frames:v", "1",
		"-vf", fmt.Sprintf("scale=%d:-1", width),
		dst,
	}
}
