package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"animagif/internal/logging"
)

// maxGapSeconds bounds how much missing time is filled with repeated frames.
const maxGapSeconds = 5

// BinaryLocator resolves the ffmpeg executable.
type BinaryLocator interface {
	EnsureAvailable(ctx context.Context) (string, error)
}

// FFmpegWriters opens FFmpegWriter instances.
type FFmpegWriters struct {
	binary BinaryLocator
}

// NewFFmpegWriters returns a WriterFactory backed by an ffmpeg subprocess.
func NewFFmpegWriters(binary BinaryLocator) *FFmpegWriters {
	return &FFmpegWriters{binary: binary}
}

type queuedFrame struct {
	pix []byte
	pts time.Duration
}

// FFmpegWriter pipes raw RGBA frames into an ffmpeg process that encodes
// them into the container. Frames are mapped to constant-rate slots: a frame
// whose slot was already written is skipped, and empty slots repeat the
// previous frame so that playback time matches capture time.
type FFmpegWriter struct {
	spec   ContainerSpec
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer

	queue chan queuedFrame
	done  chan struct{}

	mu     sync.Mutex
	closed bool

	// Owned by run until done is closed.
	writeErr error
	written  int64
}

// Open starts ffmpeg reading raw video from stdin. The process is not bound
// to ctx; it lives until Finish.
func (f *FFmpegWriters) Open(ctx context.Context, spec ContainerSpec) (ContainerWriter, error) {
	binary, err := f.binary.EnsureAvailable(ctx)
	if err != nil {
		return nil, err
	}

	if spec.QueueDepth <= 0 {
		spec.QueueDepth = DefaultQueueDepth
	}

	w := &FFmpegWriter{
		spec:  spec,
		queue: make(chan queuedFrame, spec.QueueDepth),
		done:  make(chan struct{}),
	}

	// #nosec G204 -- binary comes from the installer, arguments are built here
	w.cmd = exec.Command(binary, encodeArgs(spec)...)
	w.cmd.Stderr = &w.stderr

	stdin, err := w.cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}
	w.stdin = stdin

	logging.Debug("Starting container writer: %s %v", binary, w.cmd.Args[1:])
	if err := w.cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	go w.run()
	return w, nil
}

func encodeArgs(spec ContainerSpec) []string {
	return []string{
		"-y",
		"-loglevel", "error",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", spec.Width, spec.Height),
		"-framerate", strconv.Itoa(spec.FrameRate),
		"-i", "pipe:0",
		"-an",
		"-c:v", spec.Codec,
		"-b:v", strconv.FormatInt(spec.Bitrate, 10),
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		spec.Path,
	}
}

// Ready reports whether the queue has room for another frame.
func (w *FFmpegWriter) Ready() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.closed && len(w.queue) < cap(w.queue)
}

// Append queues a frame without blocking.
func (w *FFmpegWriter) Append(frame *image.RGBA, pts time.Duration) error {
	size := frame.Rect.Size()
	if size.X != w.spec.Width || size.Y != w.spec.Height {
		return fmt.Errorf("frame is %dx%d, container is %dx%d", size.X, size.Y, w.spec.Width, w.spec.Height)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWriterBusy
	}

	select {
	case w.queue <- queuedFrame{pix: packedPixels(frame), pts: pts}:
		return nil
	default:
		return ErrWriterBusy
	}
}

// packedPixels returns the frame's pixels without row padding.
func packedPixels(frame *image.RGBA) []byte {
	width := frame.Rect.Dx() * 4
	if frame.Stride == width {
		return frame.Pix[:width*frame.Rect.Dy()]
	}
	out := make([]byte, 0, width*frame.Rect.Dy())
	for y := 0; y < frame.Rect.Dy(); y++ {
		start := y * frame.Stride
		out = append(out, frame.Pix[start:start+width]...)
	}
	return out
}

func (w *FFmpegWriter) run() {
	defer close(w.done)

	fps := float64(w.spec.FrameRate)
	maxGap := int64(w.spec.FrameRate * maxGapSeconds)
	var last []byte
	var next int64

	for f := range w.queue {
		if w.writeErr != nil {
			continue
		}

		slot := int64(math.Round(f.pts.Seconds() * fps))
		if slot < next {
			continue
		}
		if last == nil {
			last = f.pix
		}
		if gap := slot - next; gap > maxGap {
			logging.Warn("Capture gap of %d frames exceeds %ds, truncating", gap, maxGapSeconds)
			next = slot - maxGap
		}
		for ; next < slot; next++ {
			if !w.writeFrame(last) {
				break
			}
		}
		if w.writeErr != nil {
			continue
		}
		if w.writeFrame(f.pix) {
			last = f.pix
			next = slot + 1
		}
	}
}

func (w *FFmpegWriter) writeFrame(pix []byte) bool {
	if _, err := w.stdin.Write(pix); err != nil {
		w.writeErr = err
		return false
	}
	w.written++
	return true
}

// Finish drains the queue, closes ffmpeg's input and waits for it to exit.
// ctx bounds the whole flush: once it ends ffmpeg is killed and the
// container is lost, so callers pass a context that outlives their own
// cancellation (see Pipeline.Stop).
func (w *FFmpegWriter) Finish(ctx context.Context) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.mu.Unlock()

	exited := make(chan error, 1)
	var closeErr error
	go func() {
		<-w.done
		closeErr = w.stdin.Close()
		exited <- w.cmd.Wait()
	}()

	var waitErr error
	select {
	case waitErr = <-exited:
	case <-ctx.Done():
		_ = w.cmd.Process.Kill()
		<-exited
		return fmt.Errorf("container finalization interrupted: %w - %s", ctx.Err(), tail(w.stderr.String()))
	}

	switch {
	case w.writeErr != nil:
		return fmt.Errorf("failed to write frames: %w - %s", w.writeErr, tail(w.stderr.String()))
	case waitErr != nil:
		return fmt.Errorf("ffmpeg error: %w - %s", waitErr, tail(w.stderr.String()))
	case closeErr != nil && !errors.Is(closeErr, os.ErrClosed):
		return fmt.Errorf("failed to close ffmpeg input: %w", closeErr)
	case w.written == 0:
		_ = os.Remove(w.spec.Path)
		return errors.New("no frames were captured")
	}

	logging.Debug("Container finalized: %s (%d frames)", w.spec.Path, w.written)
	return nil
}

// FramesWritten returns the number of frames handed to ffmpeg, including
// repeated gap frames. Valid after Finish.
func (w *FFmpegWriter) FramesWritten() int64 {
	<-w.done
	return w.written
}

func tail(s string) string {
	const limit = 4096
	if len(s) > limit {
		return s[len(s)-limit:]
	}
	return s
}
