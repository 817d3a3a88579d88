package capture

import (
	"context"
	"errors"
	"image"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type fakeWriter struct {
	mu        sync.Mutex
	spec      ContainerSpec
	ready     bool
	appendErr error
	finishErr error
	pts       []time.Duration
	sizes     []image.Point
	finished  bool
	finishCtx error
}

func (w *fakeWriter) Ready() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ready
}

func (w *fakeWriter) Append(frame *image.RGBA, pts time.Duration) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.appendErr != nil {
		return w.appendErr
	}
	w.pts = append(w.pts, pts)
	w.sizes = append(w.sizes, frame.Rect.Size())
	return nil
}

func (w *fakeWriter) Finish(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.finished = true
	w.finishCtx = ctx.Err()
	return w.finishErr
}

func (w *fakeWriter) setReady(ready bool) {
	w.mu.Lock()
	w.ready = ready
	w.mu.Unlock()
}

func newTestPipeline() (*Pipeline, *fakeWriter) {
	w := &fakeWriter{ready: true}
	p := NewPipeline(WriterFactoryFunc(func(_ context.Context, spec ContainerSpec) (ContainerWriter, error) {
		w.spec = spec
		return w, nil
	}))
	return p, w
}

func testGeometry() Geometry {
	return Geometry{Display: &Display{ID: 0, Bounds: image.Rect(0, 0, 640, 480)}}
}

func frameAt(ts time.Duration) Frame {
	return Frame{Image: image.NewRGBA(image.Rect(0, 0, 640, 480)), Timestamp: ts}
}

func TestPipelineRebasesTimestamps(t *testing.T) {
	p, w := newTestPipeline()
	out := filepath.Join(t.TempDir(), "rec.mov")

	s, err := p.Start(context.Background(), testGeometry(), DefaultConfiguration(), out)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if s.State() != StateCapturing {
		t.Fatalf("State() = %v, want capturing", s.State())
	}

	base := 73 * time.Hour
	for i := 0; i < 5; i++ {
		p.OnFrame(frameAt(base + time.Duration(i)*100*time.Millisecond))
	}

	path, err := p.Stop(context.Background(), s)
	if err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if path != out {
		t.Errorf("Stop() = %q, want %q", path, out)
	}
	if !w.finished {
		t.Error("writer was not finished")
	}

	want := []time.Duration{0, 100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond, 400 * time.Millisecond}
	if len(w.pts) != len(want) {
		t.Fatalf("appended %d frames, want %d", len(w.pts), len(want))
	}
	for i := range want {
		if w.pts[i] != want[i] {
			t.Errorf("pts[%d] = %v, want %v", i, w.pts[i], want[i])
		}
	}
	if s.State() != StateFinalized {
		t.Errorf("State() after Stop = %v, want finalized", s.State())
	}
}

func TestPipelineDropsOutOfOrderFrames(t *testing.T) {
	p, w := newTestPipeline()
	s, err := p.Start(context.Background(), testGeometry(), DefaultConfiguration(), filepath.Join(t.TempDir(), "a.mov"))
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	s.OnFrame(frameAt(10 * time.Second))
	s.OnFrame(frameAt(9 * time.Second))                       // before the reference
	s.OnFrame(frameAt(11 * time.Second))                      // ok
	s.OnFrame(frameAt(11 * time.Second))                      // duplicate
	s.OnFrame(frameAt(10*time.Second + 500*time.Millisecond)) // regression
	s.OnFrame(frameAt(12 * time.Second))                      // ok

	if got := len(w.pts); got != 3 {
		t.Errorf("appended %d frames, want 3", got)
	}
	if got := s.Dropped(); got != 3 {
		t.Errorf("Dropped() = %d, want 3", got)
	}
}

func TestPipelineDropsUnderBackpressure(t *testing.T) {
	p, w := newTestPipeline()
	s, err := p.Start(context.Background(), testGeometry(), DefaultConfiguration(), filepath.Join(t.TempDir(), "a.mov"))
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	s.OnFrame(frameAt(0))
	w.setReady(false)
	s.OnFrame(frameAt(33 * time.Millisecond))
	s.OnFrame(frameAt(66 * time.Millisecond))
	w.setReady(true)
	s.OnFrame(frameAt(100 * time.Millisecond))

	if got := len(w.pts); got != 2 {
		t.Fatalf("appended %d frames, want 2", got)
	}
	if w.pts[1] != 100*time.Millisecond {
		t.Errorf("pts[1] = %v, want 100ms", w.pts[1])
	}
	if got := s.Dropped(); got != 2 {
		t.Errorf("Dropped() = %d, want 2", got)
	}
}

func TestPipelineWriterBusyIsDrop(t *testing.T) {
	p, w := newTestPipeline()
	s, err := p.Start(context.Background(), testGeometry(), DefaultConfiguration(), filepath.Join(t.TempDir(), "a.mov"))
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	w.appendErr = ErrWriterBusy
	s.OnFrame(frameAt(0))

	if s.Appended() != 0 || s.Dropped() != 1 {
		t.Errorf("Appended() = %d, Dropped() = %d, want 0 and 1", s.Appended(), s.Dropped())
	}
}

func TestPipelineScalesFramesToSessionSize(t *testing.T) {
	p, w := newTestPipeline()
	cfg := DefaultConfiguration()
	cfg.Quality = QualityLow

	s, err := p.Start(context.Background(), testGeometry(), cfg, filepath.Join(t.TempDir(), "a.mov"))
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if w.spec.Width != 320 || w.spec.Height != 240 {
		t.Fatalf("container spec = %dx%d, want 320x240", w.spec.Width, w.spec.Height)
	}

	s.OnFrame(frameAt(0))
	if len(w.sizes) != 1 || w.sizes[0] != image.Pt(320, 240) {
		t.Errorf("appended sizes = %v, want [320x240]", w.sizes)
	}
}

func TestPipelineSingleSession(t *testing.T) {
	p, _ := newTestPipeline()
	dir := t.TempDir()

	s, err := p.Start(context.Background(), testGeometry(), DefaultConfiguration(), filepath.Join(dir, "a.mov"))
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	_, err = p.Start(context.Background(), testGeometry(), DefaultConfiguration(), filepath.Join(dir, "b.mov"))
	if !errors.Is(err, ErrRecordingFailed) {
		t.Errorf("second Start() error = %v, want ErrRecordingFailed", err)
	}
	if p.Active() != s {
		t.Error("Active() changed after rejected Start")
	}
}

func TestPipelineStopWithoutSession(t *testing.T) {
	p, _ := newTestPipeline()

	if _, err := p.Stop(context.Background(), nil); !errors.Is(err, ErrNoActiveRecording) {
		t.Errorf("Stop(nil) error = %v, want ErrNoActiveRecording", err)
	}

	s, err := p.Start(context.Background(), testGeometry(), DefaultConfiguration(), filepath.Join(t.TempDir(), "a.mov"))
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	s.OnFrame(frameAt(0))
	if _, err := p.Stop(context.Background(), s); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if _, err := p.Stop(context.Background(), s); !errors.Is(err, ErrNoActiveRecording) {
		t.Errorf("second Stop() error = %v, want ErrNoActiveRecording", err)
	}

	other, _ := newTestPipeline()
	if _, err := other.Stop(context.Background(), s); !errors.Is(err, ErrNoActiveRecording) {
		t.Errorf("Stop(foreign) error = %v, want ErrNoActiveRecording", err)
	}
}

func TestPipelineDropsFramesAfterStop(t *testing.T) {
	p, w := newTestPipeline()
	s, err := p.Start(context.Background(), testGeometry(), DefaultConfiguration(), filepath.Join(t.TempDir(), "a.mov"))
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	s.OnFrame(frameAt(0))
	if _, err := p.Stop(context.Background(), s); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	s.OnFrame(frameAt(time.Second))
	p.OnFrame(frameAt(2 * time.Second))

	if len(w.pts) != 1 {
		t.Errorf("appended %d frames, want 1", len(w.pts))
	}
}

func TestPipelineStartErrors(t *testing.T) {
	failing := NewPipeline(WriterFactoryFunc(func(context.Context, ContainerSpec) (ContainerWriter, error) {
		return nil, errors.New("encoder missing")
	}))

	_, err := failing.Start(context.Background(), testGeometry(), DefaultConfiguration(), filepath.Join(t.TempDir(), "a.mov"))
	if !errors.Is(err, ErrIO) {
		t.Errorf("Start() with failing writer error = %v, want ErrIO", err)
	}
	if failing.Active() != nil {
		t.Error("Active() set after failed Start")
	}

	_, err = failing.Start(context.Background(), Geometry{}, DefaultConfiguration(), filepath.Join(t.TempDir(), "a.mov"))
	if !errors.Is(err, ErrGeometryInvalid) {
		t.Errorf("Start() with empty geometry error = %v, want ErrGeometryInvalid", err)
	}
}

func TestPipelineFinishFailure(t *testing.T) {
	p, w := newTestPipeline()
	w.finishErr = errors.New("disk full")

	s, err := p.Start(context.Background(), testGeometry(), DefaultConfiguration(), filepath.Join(t.TempDir(), "a.mov"))
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if _, err := p.Stop(context.Background(), s); !errors.Is(err, ErrRecordingFailed) {
		t.Errorf("Stop() error = %v, want ErrRecordingFailed", err)
	}
	if p.Active() != nil {
		t.Error("Active() still set after failed Stop")
	}
}

func TestPipelineStopFinalizesWithCanceledContext(t *testing.T) {
	p, w := newTestPipeline()

	s, err := p.Start(context.Background(), testGeometry(), DefaultConfiguration(), filepath.Join(t.TempDir(), "a.mov"))
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	p.OnFrame(frameAt(0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Stop(ctx, s); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if !w.finished {
		t.Fatal("writer was not finished")
	}
	if w.finishCtx != nil {
		t.Errorf("Finish() saw ctx error %v, want a live context", w.finishCtx)
	}
}

func TestSyntheticSourceTimestamps(t *testing.T) {
	src := &SyntheticSource{Size: image.Pt(16, 16), FrameRate: 10, Count: 4, Origin: time.Minute}

	var got []time.Duration
	if err := src.Run(context.Background(), func(f Frame) { got = append(got, f.Timestamp) }); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []time.Duration{time.Minute, time.Minute + 100*time.Millisecond, time.Minute + 200*time.Millisecond, time.Minute + 300*time.Millisecond}
	if len(got) != len(want) {
		t.Fatalf("got %d frames, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("frame %d timestamp = %v, want %v", i, got[i], want[i])
		}
	}
}
