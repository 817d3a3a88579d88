package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/atotto/clipboard"

	"animagif/internal/capture"
	"animagif/internal/catalog"
	"animagif/internal/config"
	"animagif/internal/export"
	"animagif/internal/logging"
	"animagif/internal/transcoder"
)

var (
	// ErrPreviewsDisabled is returned when the preview cache is not writable.
	ErrPreviewsDisabled = errors.New("previews are disabled")

	// ErrInvalidRequest wraps export settings that fail validation.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrAutoExportFailed is returned by StopRecording when the recording
	// was catalogued but its automatic export failed.
	ErrAutoExportFailed = errors.New("recording saved but export failed")
)

// SourceFactory creates the frame source for a capture region.
type SourceFactory func(region image.Rectangle, fps int) capture.FrameSource

// Options wires an App. Config, Library and Runner are required; the rest
// default to the real screen, ffmpeg and system clipboard.
type Options struct {
	Config  *config.Config
	Library *catalog.Library
	Runner  transcoder.Transcoder

	Prober    export.Prober
	Writers   capture.WriterFactory
	Sources   SourceFactory
	Displays  func() []capture.Display
	Clipboard func(text string) error
}

// App coordinates recording, cataloging and exporting.
type App struct {
	cfg          *config.Config
	library      *catalog.Library
	runner       transcoder.Transcoder
	prober       export.Prober
	pipeline     *capture.Pipeline
	orchestrator *export.Orchestrator
	previews     *export.PreviewCache
	sources      SourceFactory
	displays     func() []capture.Display
	clipboard    func(string) error

	// mu guards rec.
	mu  sync.Mutex
	rec *activeRecording

	encodersOnce sync.Once
	encoders     map[string]bool

	jobs *jobRegistry

	// ctx outlives requests; background export jobs run under it.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an App from opts.
func New(opts Options) (*App, error) {
	if opts.Config == nil || opts.Library == nil || opts.Runner == nil {
		return nil, fmt.Errorf("app requires a config, a library and a transcoder")
	}

	if opts.Prober == nil {
		opts.Prober = transcoder.NewDurationProber(opts.Runner)
	}
	if opts.Writers == nil {
		opts.Writers = capture.NewFFmpegWriters(opts.Runner)
	}
	if opts.Sources == nil {
		opts.Sources = func(region image.Rectangle, fps int) capture.FrameSource {
			return capture.NewScreenSource(region, fps)
		}
	}
	if opts.Displays == nil {
		opts.Displays = capture.ListDisplays
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}

	orchestrator := export.New(opts.Runner, opts.Prober)

	a := &App{
		cfg:          opts.Config,
		library:      opts.Library,
		runner:       opts.Runner,
		prober:       opts.Prober,
		pipeline:     capture.NewPipeline(opts.Writers),
		orchestrator: orchestrator,
		sources:      opts.Sources,
		displays:     opts.Displays,
		clipboard:    opts.Clipboard,
		jobs:         newJobRegistry(),
	}
	if opts.Config.PreviewsEnabled {
		a.previews = export.NewPreviewCache(opts.Config.PreviewDir, orchestrator)
	}
	a.ctx, a.cancel = context.WithCancel(context.Background())
	return a, nil
}

// Config returns the configuration the App was built with.
func (a *App) Config() *config.Config { return a.cfg }

// Library returns the recording catalog.
func (a *App) Library() *catalog.Library { return a.library }

// Displays lists the screens that can be recorded.
func (a *App) Displays() []capture.Display { return a.displays() }

// Close stops an active recording, cancels running export jobs and waits
// for them to finish.
func (a *App) Close(ctx context.Context) error {
	var err error
	if a.Status().Active {
		if _, stopErr := a.StopRecording(ctx, nil); stopErr != nil && !errors.Is(stopErr, capture.ErrNoActiveRecording) {
			err = stopErr
		}
	}
	a.cancel()
	a.wg.Wait()
	return err
}

func (a *App) copyToClipboard(path string) {
	if err := a.clipboard(path); err != nil {
		logging.Warn("Failed to copy %s to the clipboard: %v", path, err)
		return
	}
	logging.Info("Copied %s to the clipboard", path)
}
