package capture

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/kbinani/screenshot"

	"animagif/internal/logging"
)

// maxConsecutiveFailures ends a screen capture that keeps failing.
const maxConsecutiveFailures = 10

// ScreenSource polls a rectangle of the screen at a fixed rate.
type ScreenSource struct {
	Region    image.Rectangle
	FrameRate int

	grab func(image.Rectangle) (*image.RGBA, error)
}

// NewScreenSource captures region (global coordinates) at fps.
func NewScreenSource(region image.Rectangle, fps int) *ScreenSource {
	if fps <= 0 {
		fps = DefaultFrameRate
	}
	return &ScreenSource{Region: region, FrameRate: fps, grab: screenshot.CaptureRect}
}

// Run captures until ctx ends. Timestamps come from the monotonic clock and
// are taken when the grab is issued. Slow grabs simply skip ticks.
func (s *ScreenSource) Run(ctx context.Context, emit func(Frame)) error {
	ticker := time.NewTicker(time.Second / time.Duration(s.FrameRate))
	defer ticker.Stop()

	epoch := time.Now()
	failures := 0

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		ts := time.Since(epoch)
		img, err := s.grab(s.Region)
		if err != nil {
			failures++
			logging.Debug("Screen grab failed (%d/%d): %v", failures, maxConsecutiveFailures, err)
			if failures >= maxConsecutiveFailures {
				return fmt.Errorf("screen capture failed: %w", err)
			}
			continue
		}
		failures = 0
		emit(Frame{Image: img, Timestamp: ts})
	}
}

// ListDisplays returns the active displays in global coordinates.
func ListDisplays() []Display {
	n := screenshot.NumActiveDisplays()
	displays := make([]Display, 0, n)
	for i := 0; i < n; i++ {
		displays = append(displays, Display{ID: i, Bounds: screenshot.GetDisplayBounds(i)})
	}
	return displays
}

// FindDisplay returns the display with the given index.
func FindDisplay(id int) (Display, error) {
	for _, d := range ListDisplays() {
		if d.ID == id {
			return d, nil
		}
	}
	return Display{}, fmt.Errorf("%w: display %d not found", ErrGeometryInvalid, id)
}
