package capture

import (
	"context"
	"image"
	"time"
)

// ContainerSpec describes the video file a ContainerWriter produces.
type ContainerSpec struct {
	Path       string
	Width      int
	Height     int
	FrameRate  int
	Codec      string
	Bitrate    int64
	QueueDepth int
}

// ContainerWriter incrementally muxes frames into a video container.
//
// Ready and Append are called under the session lock, never concurrently.
// Append must not block: a writer that cannot take the frame returns
// ErrWriterBusy. Finish flushes and closes the container; no calls follow it.
type ContainerWriter interface {
	Ready() bool
	Append(frame *image.RGBA, pts time.Duration) error
	Finish(ctx context.Context) error
}

// WriterFactory opens container writers.
type WriterFactory interface {
	Open(ctx context.Context, spec ContainerSpec) (ContainerWriter, error)
}

// WriterFactoryFunc adapts a function to WriterFactory.
type WriterFactoryFunc func(ctx context.Context, spec ContainerSpec) (ContainerWriter, error)

// Open calls f.
func (f WriterFactoryFunc) Open(ctx context.Context, spec ContainerSpec) (ContainerWriter, error) {
	return f(ctx, spec)
}
