package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"animagif/internal/capture"
	"animagif/internal/catalog"
	"animagif/internal/logging"
	"animagif/internal/transcoder"
)

// StartRequest selects what to record. Nil fields fall back to the
// configured display and capture settings.
type StartRequest struct {
	DisplayID *int
	// Region crops the display; coordinates are relative to its origin.
	Region *image.Rectangle
	// Window records a window frame given in global coordinates.
	Window *capture.Window

	FrameRate int
	Quality   *capture.Quality
}

// Status describes the active recording, if any.
type Status struct {
	Active     bool          `json:"active"`
	OutputPath string        `json:"outputPath,omitempty"`
	Target     string        `json:"target,omitempty"`
	Width      int           `json:"width,omitempty"`
	Height     int           `json:"height,omitempty"`
	StartedAt  time.Time     `json:"startedAt,omitempty"`
	Elapsed    time.Duration `json:"elapsed,omitempty"`
	Frames     int64         `json:"frames"`
	Dropped    int64         `json:"dropped"`
}

type activeRecording struct {
	session *capture.Session
	cancel  context.CancelFunc
	done    chan struct{}
	err     error
}

// StartRecording begins capturing into a new file in the recordings
// directory. Only one recording may run at a time.
func (a *App) StartRecording(ctx context.Context, req StartRequest) (Status, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.rec != nil {
		return Status{}, capture.ErrAlreadyRecording
	}

	geometry, err := a.resolveGeometry(req)
	if err != nil {
		return Status{}, err
	}

	cfg := a.cfg.CaptureConfiguration()
	if req.FrameRate > 0 {
		cfg.FrameRate = req.FrameRate
	}
	if req.Quality != nil {
		cfg.Quality = *req.Quality
	}
	cfg.Codec = a.pickCodec(ctx, cfg.Codec)

	output, err := a.nextOutputPath(time.Now())
	if err != nil {
		return Status{}, err
	}

	session, err := a.pipeline.Start(ctx, geometry, cfg, output)
	if err != nil {
		return Status{}, err
	}

	sourceCtx, cancel := context.WithCancel(context.Background())
	rec := &activeRecording{session: session, cancel: cancel, done: make(chan struct{})}
	source := a.sources(geometry.Region(), cfg.FrameRate)

	go func() {
		defer close(rec.done)
		if err := source.Run(sourceCtx, session.OnFrame); err != nil {
			logging.Error("Frame source stopped: %v", err)
			rec.err = err
		}
	}()

	a.rec = rec
	return statusOf(session), nil
}

// StopRecording stops the source, finalizes the container and adds the
// recording to the catalog. With export.auto_export set the GIF is
// exported next to the video; progress then receives its fractions.
// progress, when non-nil, is always closed.
func (a *App) StopRecording(ctx context.Context, progress chan<- float64) (catalog.Recording, error) {
	a.mu.Lock()
	rec := a.rec
	if rec == nil {
		a.mu.Unlock()
		closeProgress(progress)
		return catalog.Recording{}, capture.ErrNoActiveRecording
	}

	rec.cancel()
	<-rec.done

	// The container and its catalog entry are saved even if the caller
	// goes away; only the optional export follows ctx.
	saveCtx := context.WithoutCancel(ctx)
	path, err := a.pipeline.Stop(saveCtx, rec.session)
	a.rec = nil
	a.mu.Unlock()

	if err != nil {
		closeProgress(progress)
		return catalog.Recording{}, err
	}
	if rec.err != nil {
		logging.Warn("Recording %s ended early: %v", path, rec.err)
	}

	duration := rec.session.Duration()
	if probed, err := a.prober.Probe(saveCtx, path); err != nil {
		logging.Debug("Using capture clock for the duration of %s: %v", path, err)
	} else if probed > 0 {
		duration = probed
	}

	recording := catalog.NewRecording(path, duration)
	if err := a.library.Insert(saveCtx, recording); err != nil {
		closeProgress(progress)
		return recording, fmt.Errorf("failed to save recording: %w", err)
	}

	if !a.cfg.Export.AutoExport {
		closeProgress(progress)
		return recording, nil
	}

	exported, err := a.ExportRecording(ctx, recording.ID, a.cfg.ExportSettings(), progress)
	if err != nil {
		return recording, fmt.Errorf("%w: %w", ErrAutoExportFailed, err)
	}
	return exported, nil
}

// Status reports on the active recording.
func (a *App) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.rec == nil {
		return Status{}
	}
	return statusOf(a.rec.session)
}

func statusOf(s *capture.Session) Status {
	return Status{
		Active:     true,
		OutputPath: s.OutputPath,
		Target:     s.Geometry.Kind(),
		Width:      s.Width,
		Height:     s.Height,
		StartedAt:  s.StartedAt,
		Elapsed:    time.Since(s.StartedAt),
		Frames:     s.Appended(),
		Dropped:    s.Dropped(),
	}
}

func (a *App) resolveGeometry(req StartRequest) (capture.Geometry, error) {
	if req.Window != nil {
		if req.Region != nil {
			return capture.Geometry{}, fmt.Errorf("%w: a window capture cannot also be cropped", capture.ErrGeometryInvalid)
		}
		return capture.Geometry{Window: req.Window}, nil
	}

	id := a.cfg.Capture.Display
	if req.DisplayID != nil {
		id = *req.DisplayID
	}

	var display *capture.Display
	displays := a.displays()
	for i := range displays {
		if displays[i].ID == id {
			display = &displays[i]
			break
		}
	}
	if display == nil {
		return capture.Geometry{}, fmt.Errorf("%w: display %d not found", capture.ErrGeometryInvalid, id)
	}

	geometry := capture.Geometry{Display: display, Crop: req.Region}
	if err := geometry.Validate(); err != nil {
		return capture.Geometry{}, err
	}
	return geometry, nil
}

// pickCodec falls back to another H.264 encoder when the configured one
// is missing from the ffmpeg build.
func (a *App) pickCodec(ctx context.Context, preferred string) string {
	a.encodersOnce.Do(func() {
		encoders, err := transcoder.Encoders(ctx, a.runner)
		if err != nil {
			logging.Warn("Could not list ffmpeg encoders, using %s: %v", preferred, err)
			return
		}
		a.encoders = encoders
	})
	if a.encoders == nil {
		return preferred
	}

	codec, err := transcoder.PickEncoder(a.encoders, preferred)
	if err != nil {
		logging.Warn("%v, trying %s anyway", err, preferred)
		return preferred
	}
	if codec != preferred {
		logging.Info("Encoder %s is not available, using %s", preferred, codec)
	}
	return codec
}

// nextOutputPath names the video after its start time in ISO 8601 basic
// format, adding a counter if the name is taken.
func (a *App) nextOutputPath(now time.Time) (string, error) {
	if err := os.MkdirAll(a.cfg.RecordingsDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", capture.ErrIO, err)
	}

	base := now.UTC().Format("20060102T150405Z")
	path := filepath.Join(a.cfg.RecordingsDir, base+".mov")
	for n := 1; ; n++ {
		_, err := os.Stat(path)
		if errors.Is(err, os.ErrNotExist) {
			return path, nil
		}
		if err != nil {
			return "", fmt.Errorf("%w: %v", capture.ErrIO, err)
		}
		path = filepath.Join(a.cfg.RecordingsDir, fmt.Sprintf("%s-%d.mov", base, n))
	}
}

func closeProgress(progress chan<- float64) {
	if progress != nil {
		close(progress)
	}
}
