package capture

import (
	"image"

	"golang.org/x/image/draw"
)

// fitFrame returns src as a fresh RGBA image of exactly width x height.
// Same-size frames are copied; others are resampled bilinearly.
func fitFrame(src image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	if src == nil {
		return dst
	}

	b := src.Bounds()
	if b.Dx() == width && b.Dy() == height {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
		return dst
	}

	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}
