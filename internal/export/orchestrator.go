package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"animagif/internal/filesystem"
	"animagif/internal/logging"
	"animagif/internal/metrics"
	"animagif/internal/transcoder"
)

// Prober reads media durations.
type Prober interface {
	Probe(ctx context.Context, path string) (time.Duration, error)
}

// Job is one export request.
type Job struct {
	SourcePath string
	// DestinationPath defaults to SourcePath with a .gif extension.
	DestinationPath string
	Settings        Settings
	// Duration of the source; zero means probe it.
	Duration time.Duration
}

// Destination returns where the GIF is written.
func (j Job) Destination() string {
	if j.DestinationPath != "" {
		return j.DestinationPath
	}
	return GIFPath(j.SourcePath)
}

// GIFPath replaces the extension of videoPath with .gif.
func GIFPath(videoPath string) string {
	return strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + ".gif"
}

// Orchestrator runs exports through a transcoder.
type Orchestrator struct {
	runner transcoder.Transcoder
	prober Prober
}

// New creates an Orchestrator. prober may be nil, in which case jobs
// without a duration report progress 0 until they finish.
func New(runner transcoder.Transcoder, prober Prober) *Orchestrator {
	return &Orchestrator{runner: runner, prober: prober}
}

// Export writes the job's GIF and returns its path. Progress fractions
// are sent on progress, never decreasing, ending with exactly 1.0 on
// success. progress is closed before Export returns; the caller must
// keep receiving until then. progress may be nil.
func (o *Orchestrator) Export(ctx context.Context, job Job, progress chan<- float64) (string, error) {
	if progress != nil {
		defer close(progress)
	}

	dst, err := o.prepare(ctx, job, "export")
	if err != nil {
		return "", err
	}

	duration := job.Duration
	if duration <= 0 && o.prober != nil {
		probed, err := o.prober.Probe(ctx, job.SourcePath)
		if err != nil {
			logging.Warn("Could not determine duration of %s, progress will not be reported: %v", job.SourcePath, err)
		} else {
			duration = probed
		}
	}

	resolved := job.Settings.Resolve()
	logging.Info("Exporting %s -> %s (%s: %d fps, %dpx, %d colors, %s)",
		job.SourcePath, dst, job.Settings.Preset, resolved.FrameRate, resolved.MaxWidth, resolved.MaxColors, resolved.Dithering)

	forward := newProgressForwarder(ctx, progress)
	start := time.Now()
	_, err = o.runner.RunWithProgress(ctx, ExportArgs(job.SourcePath, dst, resolved), duration, forward.in)
	forward.close()

	if err = o.finish("export", dst, start, err); err != nil {
		return "", err
	}

	forward.complete()
	return dst, nil
}

// QuickExport runs the same conversion as Export without progress.
func (o *Orchestrator) QuickExport(ctx context.Context, job Job) (string, error) {
	dst, err := o.prepare(ctx, job, "quick")
	if err != nil {
		return "", err
	}

	start := time.Now()
	_, err = o.runner.Run(ctx, ExportArgs(job.SourcePath, dst, job.Settings.Resolve()))
	if err = o.finish("quick", dst, start, err); err != nil {
		return "", err
	}
	return dst, nil
}

// GeneratePreviewFrame extracts the frame at offset at, scaled to width,
// into a PNG at dest. An empty dest writes to a new temporary file.
func (o *Orchestrator) GeneratePreviewFrame(ctx context.Context, videoPath string, at time.Duration, width int, dest string) (string, error) {
	if width <= 0 {
		width = 200
	}
	if dest == "" {
		f, err := os.CreateTemp("", "animagif-preview-*.png")
		if err != nil {
			return "", fmt.Errorf("failed to create preview file: %w", err)
		}
		dest = f.Name()
		_ = f.Close()
	}

	if _, err := o.runner.EnsureAvailable(ctx); err != nil {
		metrics.TranscodeJobsTotal.WithLabelValues("preview", "unavailable").Inc()
		return "", err
	}

	start := time.Now()
	_, err := o.runner.Run(ctx, PreviewArgs(videoPath, at, width, dest))
	if err = o.finish("preview", dest, start, err); err != nil {
		return "", err
	}
	return dest, nil
}

func (o *Orchestrator) prepare(ctx context.Context, job Job, kind string) (string, error) {
	if err := job.Settings.Validate(); err != nil {
		metrics.TranscodeJobsTotal.WithLabelValues(kind, "error").Inc()
		return "", fmt.Errorf("invalid export settings: %w", err)
	}
	if _, err := os.Stat(job.SourcePath); err != nil {
		metrics.TranscodeJobsTotal.WithLabelValues(kind, "error").Inc()
		return "", fmt.Errorf("source video not accessible: %w", err)
	}
	if _, err := o.runner.EnsureAvailable(ctx); err != nil {
		metrics.TranscodeJobsTotal.WithLabelValues(kind, "unavailable").Inc()
		return "", err
	}

	dst := job.Destination()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		metrics.TranscodeJobsTotal.WithLabelValues(kind, "error").Inc()
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	return dst, nil
}

// finish records metrics and turns an empty output into a failure.
// Partial output is removed on error.
func (o *Orchestrator) finish(kind, dst string, start time.Time, err error) error {
	metrics.TranscodeDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())

	if err == nil && filesystem.FileSize(dst) <= 0 {
		err = fmt.Errorf("%w: ffmpeg produced no output at %s", transcoder.ErrTranscodeFailed, dst)
	}

	if err != nil {
		status := "error"
		if errors.Is(err, transcoder.ErrBinaryUnavailable) {
			status = "unavailable"
		}
		metrics.TranscodeJobsTotal.WithLabelValues(kind, status).Inc()
		if rmErr := os.Remove(dst); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			logging.Warn("failed to remove partial output %s: %v", dst, rmErr)
		}
		logging.Error("%s of %s failed: %v", kind, dst, err)
		return err
	}

	metrics.TranscodeJobsTotal.WithLabelValues(kind, "success").Inc()
	logging.Info("%s finished: %s in %v", kind, dst, time.Since(start).Round(time.Millisecond))
	return nil
}

// progressForwarder relays values from the transcoder to the caller's
// channel, dropping any that would move progress backwards.
type progressForwarder struct {
	ctx  context.Context
	in   chan float64
	out  chan<- float64
	done chan struct{}
	last float64
	sent bool
}

func newProgressForwarder(ctx context.Context, out chan<- float64) *progressForwarder {
	f := &progressForwarder{
		ctx:  ctx,
		in:   make(chan float64, 16),
		out:  out,
		done: make(chan struct{}),
	}
	go f.run()
	return f
}

func (f *progressForwarder) run() {
	defer close(f.done)
	for v := range f.in {
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		if f.sent && v <= f.last {
			continue
		}
		f.send(v)
	}
}

func (f *progressForwarder) send(v float64) {
	if f.out == nil {
		return
	}
	select {
	case f.out <- v:
		f.last, f.sent = v, true
	case <-f.ctx.Done():
	}
}

func (f *progressForwarder) close() {
	close(f.in)
	<-f.done
}

// complete sends the terminal 1.0 unless it was already sent.
func (f *progressForwarder) complete() {
	if f.sent && f.last == 1 {
		return
	}
	f.send(1)
}
