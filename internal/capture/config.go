package capture

import (
	"fmt"
	"image"
	"strings"
)

// Quality is the capture resolution tier. The zero value is QualityHigh.
type Quality int

const (
	QualityHigh Quality = iota
	QualityMedium
	QualityLow
)

// ScaleFactor returns the fraction of the source resolution that is recorded.
func (q Quality) ScaleFactor() float64 {
	switch q {
	case QualityLow:
		return 0.5
	case QualityMedium:
		return 0.75
	default:
		return 1.0
	}
}

func (q Quality) String() string {
	switch q {
	case QualityLow:
		return "low"
	case QualityMedium:
		return "medium"
	case QualityHigh:
		return "high"
	default:
		return fmt.Sprintf("unknown(%d)", int(q))
	}
}

// ParseQuality converts "low", "medium" or "high" to a Quality.
func ParseQuality(s string) (Quality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return QualityLow, nil
	case "medium":
		return QualityMedium, nil
	case "high", "":
		return QualityHigh, nil
	default:
		return QualityHigh, fmt.Errorf("unknown quality %q (want low, medium or high)", s)
	}
}

const (
	DefaultFrameRate  = 30
	DefaultQueueDepth = 5
	DefaultCodec      = "libx264"
	DefaultBitrate    = 10_000_000
)

// Configuration describes how a session records. It is a value type and is
// copied into the session at Start.
type Configuration struct {
	FrameRate       int
	Quality         Quality
	ShowsCursor     bool
	CapturesShadows bool
	QueueDepth      int
	Codec           string
	Bitrate         int64
}

// DefaultConfiguration returns 30 fps, high quality, cursor visible, no shadows.
func DefaultConfiguration() Configuration {
	return Configuration{
		FrameRate:   DefaultFrameRate,
		Quality:     QualityHigh,
		ShowsCursor: true,
		QueueDepth:  DefaultQueueDepth,
		Codec:       DefaultCodec,
		Bitrate:     DefaultBitrate,
	}
}

// withDefaults fills zero fields.
func (c Configuration) withDefaults() Configuration {
	if c.FrameRate <= 0 {
		c.FrameRate = DefaultFrameRate
	}
	if c.QueueDepth <= 0 {
		c.QueueDepth = DefaultQueueDepth
	}
	if c.Codec == "" {
		c.Codec = DefaultCodec
	}
	if c.Bitrate <= 0 {
		c.Bitrate = DefaultBitrate
	}
	return c
}

// Dimensions scales a source size by the quality factor. Results are
// rounded down to even values, which yuv420p encoding requires, and are at
// least 2 pixels.
func (c Configuration) Dimensions(size image.Point) (width, height int) {
	scale := c.Quality.ScaleFactor()
	return evenDimension(float64(size.X) * scale), evenDimension(float64(size.Y) * scale)
}

func evenDimension(v float64) int {
	n := int(v)
	n -= n % 2
	if n < 2 {
		return 2
	}
	return n
}
