package capture

import (
	"fmt"
	"image"
)

// fallbackSize is used when a window reports a zero-area frame.
var fallbackSize = image.Pt(1920, 1080)

// Display is a physical screen in global screen coordinates.
type Display struct {
	ID     int             `json:"id"`
	Bounds image.Rectangle `json:"bounds"`
}

// Window is an on-screen window in global screen coordinates.
type Window struct {
	ID    uint32          `json:"id"`
	Title string          `json:"title"`
	Frame image.Rectangle `json:"frame"`
}

// Geometry selects what is captured: a whole display, a crop rectangle on
// a display, or a single window. Crop is relative to the display origin.
type Geometry struct {
	Display *Display
	Window  *Window
	Crop    *image.Rectangle
}

// Validate checks that the geometry names exactly one capture target.
func (g Geometry) Validate() error {
	switch {
	case g.Window != nil && g.Crop != nil:
		return fmt.Errorf("%w: a window capture cannot also be cropped", ErrGeometryInvalid)
	case g.Window != nil:
		return nil
	case g.Display == nil && g.Crop != nil:
		return fmt.Errorf("%w: a crop rectangle requires a display", ErrGeometryInvalid)
	case g.Display == nil:
		return fmt.Errorf("%w: no display, window or crop target", ErrGeometryInvalid)
	case g.Display.Bounds.Empty():
		return fmt.Errorf("%w: display %d has empty bounds", ErrGeometryInvalid, g.Display.ID)
	}

	if g.Crop != nil {
		local := image.Rect(0, 0, g.Display.Bounds.Dx(), g.Display.Bounds.Dy())
		if g.Crop.Canon().Intersect(local).Empty() {
			return fmt.Errorf("%w: crop %v lies outside display %d", ErrGeometryInvalid, *g.Crop, g.Display.ID)
		}
	}
	return nil
}

// Region returns the captured rectangle in global screen coordinates.
func (g Geometry) Region() image.Rectangle {
	switch {
	case g.Window != nil:
		return g.Window.Frame.Canon()
	case g.Crop != nil:
		local := image.Rect(0, 0, g.Display.Bounds.Dx(), g.Display.Bounds.Dy())
		return g.Crop.Canon().Intersect(local).Add(g.Display.Bounds.Min)
	case g.Display != nil:
		return g.Display.Bounds
	}
	return image.Rectangle{}
}

// SourceSize returns the size of the captured region before scaling.
func (g Geometry) SourceSize() image.Point {
	size := g.Region().Size()
	if g.Window != nil && (size.X <= 0 || size.Y <= 0) {
		return fallbackSize
	}
	return size
}

// Kind names the capture target for logs and metrics.
func (g Geometry) Kind() string {
	switch {
	case g.Window != nil:
		return "window"
	case g.Crop != nil:
		return "region"
	case g.Display != nil:
		return "display"
	}
	return "none"
}
