package selection

import (
	"context"
	"fmt"
	"image"
	"strconv"
	"strings"
)

// MinSize is the largest width or height a selection may have and still be
// discarded.
const MinSize = 10

// Result is the outcome of a selection. Rect is meaningful only when
// Canceled is false.
type Result struct {
	Rect     image.Rectangle `json:"rect"`
	Canceled bool            `json:"canceled"`
}

// Overlay lets the user choose a region.
type Overlay interface {
	Select(ctx context.Context) (Result, error)
}

// FromDrag builds a selection from the two corners of a drag in any
// direction. Drags not larger than MinSize in both dimensions are canceled.
func FromDrag(start, end image.Point) Result {
	r := image.Rectangle{Min: start, Max: end}.Canon()
	if !largeEnough(r) {
		return Result{Canceled: true}
	}
	return Result{Rect: r}
}

func largeEnough(r image.Rectangle) bool {
	return r.Dx() > MinSize && r.Dy() > MinSize
}

// Parse reads "x,y,w,h". Width and height must be positive.
func Parse(s string) (image.Rectangle, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return image.Rectangle{}, fmt.Errorf("invalid region %q: want x,y,width,height", s)
	}

	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return image.Rectangle{}, fmt.Errorf("invalid region %q: %w", s, err)
		}
		v[i] = n
	}
	if v[2] <= 0 || v[3] <= 0 {
		return image.Rectangle{}, fmt.Errorf("invalid region %q: width and height must be positive", s)
	}
	return image.Rect(v[0], v[1], v[0]+v[2], v[1]+v[3]), nil
}

// Format renders r in the form Parse accepts.
func Format(r image.Rectangle) string {
	return fmt.Sprintf("%d,%d,%d,%d", r.Min.X, r.Min.Y, r.Dx(), r.Dy())
}

// Static is a region fixed ahead of time, typically from a flag.
type Static struct {
	Rect image.Rectangle
}

// Select returns the static region, canceled if it is too small.
func (s Static) Select(context.Context) (Result, error) {
	return FromDrag(s.Rect.Min, s.Rect.Max), nil
}
