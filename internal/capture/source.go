package capture

import (
	"context"
	"image"
	"image/color"
	"time"
)

// Frame is one captured image and its capture time on a monotonic clock.
// Only differences between timestamps are meaningful.
type Frame struct {
	Image     image.Image
	Timestamp time.Duration
}

// FrameSource produces frames until ctx ends or the source is exhausted.
// emit may be called from the source's own goroutine.
type FrameSource interface {
	Run(ctx context.Context, emit func(Frame)) error
}

// SyntheticSource generates a moving gradient at a fixed frame rate.
type SyntheticSource struct {
	Size      image.Point
	FrameRate int
	// Count stops the source after this many frames. Zero runs until ctx ends.
	Count int
	// Origin is added to every timestamp.
	Origin time.Duration
	// Realtime paces frames on a ticker instead of emitting them immediately.
	Realtime bool
}

// Run emits frames with timestamps Origin + i/FrameRate.
func (s *SyntheticSource) Run(ctx context.Context, emit func(Frame)) error {
	fps := s.FrameRate
	if fps <= 0 {
		fps = DefaultFrameRate
	}
	interval := time.Second / time.Duration(fps)

	var tick <-chan time.Time
	if s.Realtime {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for i := 0; s.Count == 0 || i < s.Count; i++ {
		if tick != nil && i > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-tick:
			}
		} else if ctx.Err() != nil {
			return nil
		}

		emit(Frame{
			Image:     gradient(s.Size, i),
			Timestamp: s.Origin + time.Duration(i)*interval,
		})
	}
	return nil
}

func gradient(size image.Point, n int) *image.RGBA {
	if size.X <= 0 || size.Y <= 0 {
		size = image.Pt(320, 240)
	}
	img := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	for y := 0; y < size.Y; y++ {
		for x := 0; x < size.X; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8((x + n*4) * 255 / size.X),
				G: uint8(y * 255 / size.Y),
				B: uint8(n * 8),
				A: 255,
			})
		}
	}
	return img
}
