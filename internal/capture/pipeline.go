package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"animagif/internal/logging"
	"animagif/internal/metrics"
)

// Pipeline manages the single active capture session.
type Pipeline struct {
	writers WriterFactory

	// mu serializes Start and Stop. Frame delivery only reads active.
	mu     sync.Mutex
	active atomic.Pointer[Session]
}

// NewPipeline creates a pipeline that opens containers through writers.
func NewPipeline(writers WriterFactory) *Pipeline {
	return &Pipeline{writers: writers}
}

// Session is one recording from Start to Stop.
type Session struct {
	Geometry   Geometry
	Config     Configuration
	OutputPath string
	Width      int
	Height     int
	StartedAt  time.Time

	state atomic.Int32

	// mu serializes the readiness check and the append, and guards the
	// clock fields below.
	mu           sync.Mutex
	writer       ContainerWriter
	hasReference bool
	reference    time.Duration
	lastPTS      time.Duration

	appended atomic.Int64
	dropped  atomic.Int64
}

// Active returns the current session or nil.
func (p *Pipeline) Active() *Session {
	return p.active.Load()
}

// Start validates the geometry, opens the container at outputPath and
// begins accepting frames. Only one session may be active at a time.
func (p *Pipeline) Start(ctx context.Context, geometry Geometry, cfg Configuration, outputPath string) (*Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.active.Load() != nil {
		metrics.CaptureSessionsTotal.WithLabelValues("rejected").Inc()
		return nil, ErrAlreadyRecording
	}

	if err := geometry.Validate(); err != nil {
		metrics.CaptureSessionsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	cfg = cfg.withDefaults()
	width, height := cfg.Dimensions(geometry.SourceSize())

	s := &Session{
		Geometry:   geometry,
		Config:     cfg,
		OutputPath: outputPath,
		Width:      width,
		Height:     height,
	}
	s.state.Store(int32(StateStarting))

	if outputPath == "" {
		metrics.CaptureSessionsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("%w: no output path", ErrIO)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		metrics.CaptureSessionsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}

	writer, err := p.writers.Open(ctx, ContainerSpec{
		Path:       outputPath,
		Width:      width,
		Height:     height,
		FrameRate:  cfg.FrameRate,
		Codec:      cfg.Codec,
		Bitrate:    cfg.Bitrate,
		QueueDepth: cfg.QueueDepth,
	})
	if err != nil {
		metrics.CaptureSessionsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}

	s.writer = writer
	s.StartedAt = time.Now()
	s.state.Store(int32(StateCapturing))
	p.active.Store(s)

	metrics.CaptureSessionsTotal.WithLabelValues("started").Inc()
	metrics.CaptureActive.Set(1)
	logging.Info("Capture started: %s %dx%d @ %d fps (%s quality) -> %s",
		geometry.Kind(), width, height, cfg.FrameRate, cfg.Quality, outputPath)
	if !cfg.ShowsCursor {
		logging.Debug("Cursor hiding is not supported by the screen source, cursor visibility follows the OS")
	}

	return s, nil
}

// OnFrame forwards a frame to the active session. Frames with no active
// session are dropped.
func (p *Pipeline) OnFrame(frame Frame) {
	s := p.active.Load()
	if s == nil {
		metrics.CaptureFramesTotal.WithLabelValues("dropped_state").Inc()
		return
	}
	s.OnFrame(frame)
}

// FinalizeTimeout bounds how long Stop waits for the container to be flushed.
const FinalizeTimeout = 2 * time.Minute

// Stop finalizes s and returns the container path. It fails with
// ErrNoActiveRecording if s is not the pipeline's capturing session.
// Cancelling ctx does not abort finalization; only FinalizeTimeout does.
func (p *Pipeline) Stop(ctx context.Context, s *Session) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if s == nil || p.active.Load() != s || s.State() != StateCapturing {
		return "", ErrNoActiveRecording
	}

	// Waits for an in-flight append; frames after this point are dropped.
	s.mu.Lock()
	s.state.Store(int32(StateStopping))
	s.mu.Unlock()

	finishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), FinalizeTimeout)
	err := s.writer.Finish(finishCtx)
	cancel()

	s.state.Store(int32(StateFinalized))
	p.active.Store(nil)
	metrics.CaptureActive.Set(0)

	if err != nil {
		metrics.CaptureSessionsTotal.WithLabelValues("failed").Inc()
		logging.Error("Capture finalization failed for %s: %v", s.OutputPath, err)
		return "", fmt.Errorf("%w: %v", ErrRecordingFailed, err)
	}

	metrics.CaptureSessionsTotal.WithLabelValues("finalized").Inc()
	metrics.CaptureSessionDuration.Observe(s.Duration().Seconds())
	logging.Info("Capture finalized: %s (%s, %d frames, %d dropped)",
		s.OutputPath, s.Duration().Round(time.Millisecond), s.Appended(), s.Dropped())

	return s.OutputPath, nil
}

// State returns the session's lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Appended is the number of frames handed to the writer.
func (s *Session) Appended() int64 { return s.appended.Load() }

// Dropped is the number of frames discarded for any reason.
func (s *Session) Dropped() int64 { return s.dropped.Load() }

// Duration is the recorded media time: the last appended timestamp plus
// one frame interval.
func (s *Session) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appended.Load() == 0 {
		return 0
	}
	return s.lastPTS + time.Second/time.Duration(s.Config.FrameRate)
}

// OnFrame ingests one frame. It never blocks on the writer: frames that
// cannot be accepted are dropped.
func (s *Session) OnFrame(frame Frame) {
	if s.State() != StateCapturing {
		s.drop("dropped_state")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() != StateCapturing {
		s.drop("dropped_state")
		return
	}

	if !s.hasReference {
		s.reference = frame.Timestamp
		s.hasReference = true
	}
	pts := frame.Timestamp - s.reference
	if pts < 0 || (s.appended.Load() > 0 && pts <= s.lastPTS) {
		s.drop("dropped_out_of_order")
		return
	}

	if !s.writer.Ready() {
		s.drop("dropped_backpressure")
		return
	}

	if err := s.writer.Append(fitFrame(frame.Image, s.Width, s.Height), pts); err != nil {
		if errors.Is(err, ErrWriterBusy) {
			s.drop("dropped_backpressure")
			return
		}
		s.drop("error")
		logging.Debug("Frame append failed at %s: %v", pts, err)
		return
	}

	s.lastPTS = pts
	s.appended.Add(1)
	metrics.CaptureFramesTotal.WithLabelValues("appended").Inc()
}

func (s *Session) drop(reason string) {
	s.dropped.Add(1)
	metrics.CaptureFramesTotal.WithLabelValues(reason).Inc()
}

// Size returns the recorded pixel dimensions.
func (s *Session) Size() image.Point {
	return image.Pt(s.Width, s.Height)
}
