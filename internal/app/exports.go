package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"animagif/internal/catalog"
	"animagif/internal/export"
	"animagif/internal/logging"
	"animagif/internal/workers"
)

// ExportRecording converts a catalogued recording to a GIF next to its
// video and records the GIF path. progress follows the export
// orchestrator's contract and is always closed.
func (a *App) ExportRecording(ctx context.Context, id uuid.UUID, settings export.Settings, progress chan<- float64) (catalog.Recording, error) {
	return a.exportRecording(ctx, id, settings, progress, a.cfg.Export.CopyToClipboard)
}

func (a *App) exportRecording(ctx context.Context, id uuid.UUID, settings export.Settings, progress chan<- float64, copyPath bool) (catalog.Recording, error) {
	recording, err := a.library.Get(ctx, id)
	if err != nil {
		closeProgress(progress)
		return catalog.Recording{}, err
	}

	gifPath, err := a.orchestrator.Export(ctx, export.Job{
		SourcePath: recording.SourceVideoPath,
		Settings:   settings,
		Duration:   recording.Length(),
	}, progress)
	if err != nil {
		return recording, err
	}

	recording.ExportedGIFPath = gifPath
	if err := a.library.Update(ctx, recording); err != nil {
		return recording, fmt.Errorf("gif written to %s but the catalog was not updated: %w", gifPath, err)
	}

	if copyPath {
		a.copyToClipboard(gifPath)
	}
	return recording, nil
}

// BatchResult summarizes ExportAll.
type BatchResult struct {
	Exported int `json:"exported"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// ExportAll exports every recording, skipping those that already have a
// GIF unless force is set. Exports run concurrently, bounded by the
// configured worker count. A failed export does not stop the others; the
// returned error joins every failure. Nothing is copied to the clipboard.
func (a *App) ExportAll(ctx context.Context, settings export.Settings, force bool) (BatchResult, error) {
	if err := settings.Validate(); err != nil {
		return BatchResult{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	recordings, err := a.library.List(ctx)
	if err != nil {
		return BatchResult{}, err
	}

	limit := workers.ForExport(a.cfg.Export.Workers)
	logging.Info("Exporting %d recordings with %d workers", len(recordings), limit)

	var (
		g        errgroup.Group
		mu       sync.Mutex
		result   BatchResult
		failures []error
	)
	g.SetLimit(limit)

	for _, r := range recordings {
		if r.HasGIF() && !force {
			result.Skipped++
			continue
		}
		g.Go(func() error {
			_, err := a.exportRecording(ctx, r.ID, settings, nil, false)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed++
				failures = append(failures, fmt.Errorf("%s: %w", r.DisplayName(), err))
				return nil
			}
			result.Exported++
			return nil
		})
	}
	_ = g.Wait()

	return result, errors.Join(failures...)
}

// Preview returns a JPEG thumbnail of the recording at offset at.
func (a *App) Preview(ctx context.Context, id uuid.UUID, at time.Duration, size int) ([]byte, error) {
	if a.previews == nil {
		return nil, ErrPreviewsDisabled
	}
	recording, err := a.library.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return a.previews.Thumbnail(ctx, recording.SourceVideoPath, at, size)
}

// ClearPreviews empties the preview cache and returns the bytes freed.
func (a *App) ClearPreviews() (int64, error) {
	if a.previews == nil {
		return 0, nil
	}
	return a.previews.Clear()
}

// JobState is the lifecycle of an asynchronous export.
type JobState string

const (
	JobRunning   JobState = "running"
	JobSucceeded JobState = "succeeded"
	JobFailed    JobState = "failed"
)

// ExportJob is a snapshot of an asynchronous export.
type ExportJob struct {
	ID          string     `json:"id"`
	RecordingID uuid.UUID  `json:"recordingId"`
	State       JobState   `json:"state"`
	Progress    float64    `json:"progress"`
	GIFPath     string     `json:"gifPath,omitempty"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"startedAt"`
	FinishedAt  *time.Time `json:"finishedAt,omitempty"`
}

// maxFinishedJobs bounds how many completed jobs stay queryable.
const maxFinishedJobs = 100

type jobRegistry struct {
	mu       sync.Mutex
	jobs     map[string]*ExportJob
	finished []string
	seq      atomic.Int64
}

func newJobRegistry() *jobRegistry {
	return &jobRegistry{jobs: make(map[string]*ExportJob)}
}

func (r *jobRegistry) add(recordingID uuid.UUID) ExportJob {
	job := &ExportJob{
		ID:          fmt.Sprintf("export-%d", r.seq.Add(1)),
		RecordingID: recordingID,
		State:       JobRunning,
		StartedAt:   time.Now(),
	}
	r.mu.Lock()
	r.jobs[job.ID] = job
	r.mu.Unlock()
	return *job
}

func (r *jobRegistry) progress(id string, v float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job, ok := r.jobs[id]; ok {
		job.Progress = v
	}
}

func (r *jobRegistry) finish(id, gifPath string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return
	}
	now := time.Now()
	job.FinishedAt = &now
	if err != nil {
		job.State = JobFailed
		job.Error = err.Error()
	} else {
		job.State = JobSucceeded
		job.GIFPath = gifPath
		job.Progress = 1
	}

	r.finished = append(r.finished, id)
	if len(r.finished) > maxFinishedJobs {
		delete(r.jobs, r.finished[0])
		r.finished = r.finished[1:]
	}
}

func (r *jobRegistry) get(id string) (ExportJob, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return ExportJob{}, false
	}
	return *job, true
}

// StartExportJob validates the request and exports in the background.
// The job outlives the caller's context; Close cancels it.
func (a *App) StartExportJob(ctx context.Context, id uuid.UUID, settings export.Settings) (ExportJob, error) {
	if err := settings.Validate(); err != nil {
		return ExportJob{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if _, err := a.library.Get(ctx, id); err != nil {
		return ExportJob{}, err
	}

	job := a.jobs.add(id)
	progress := make(chan float64, 8)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()

		drained := make(chan struct{})
		go func() {
			defer close(drained)
			for v := range progress {
				a.jobs.progress(job.ID, v)
			}
		}()

		recording, err := a.ExportRecording(a.ctx, id, settings, progress)
		<-drained
		a.jobs.finish(job.ID, recording.ExportedGIFPath, err)
	}()

	return job, nil
}

// ExportJob returns the current state of an export job.
func (a *App) ExportJob(jobID string) (ExportJob, bool) {
	return a.jobs.get(jobID)
}
