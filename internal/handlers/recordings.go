package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"animagif/internal/app"
	"animagif/internal/catalog"
	"animagif/internal/export"
	"animagif/internal/logging"
)

const (
	defaultPreviewSize = 320
	maxPreviewSize     = 1920
)

// ListRecordings returns every recording, newest first.
func (h *Handlers) ListRecordings(w http.ResponseWriter, r *http.Request) {
	recordings, err := h.app.Library().List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if recordings == nil {
		recordings = []catalog.Recording{}
	}
	writeJSONResponse(w, http.StatusOK, recordings)
}

// GetRecording returns one recording.
func (h *Handlers) GetRecording(w http.ResponseWriter, r *http.Request) {
	recording, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSONResponse(w, http.StatusOK, recording)
}

// DeleteRecording removes a recording and its files.
func (h *Handlers) DeleteRecording(w http.ResponseWriter, r *http.Request) {
	id, err := recordingID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.app.Library().Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAllRecordings empties the catalog.
func (h *Handlers) DeleteAllRecordings(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.app.Library().DeleteAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	logging.Info("Deleted %d recordings", deleted)
	writeJSONResponse(w, http.StatusOK, map[string]int{"deleted": deleted})
}

// ExportRequest is the body of POST /api/recordings/{id}/export. Fields
// left out keep the configured preset's values.
type ExportRequest struct {
	Preset    string `json:"preset,omitempty"`
	FPS       *int   `json:"fps,omitempty"`
	MaxWidth  *int   `json:"maxWidth,omitempty"`
	MaxColors *int   `json:"maxColors,omitempty"`
	Dithering string `json:"dithering,omitempty"`
	Loop      *int   `json:"loop,omitempty"`
}

func (e ExportRequest) settings(defaults export.Settings) (export.Settings, error) {
	s := defaults
	if e.Preset != "" {
		p, err := export.ParsePreset(e.Preset)
		if err != nil {
			return s, fmt.Errorf("%w: %v", app.ErrInvalidRequest, err)
		}
		s.Preset = p
	}
	if e.Dithering != "" {
		d, err := export.ParseDithering(e.Dithering)
		if err != nil {
			return s, fmt.Errorf("%w: %v", app.ErrInvalidRequest, err)
		}
		s.Overrides.Dithering = &d
	}
	if e.FPS != nil {
		s.Overrides.FrameRate = e.FPS
	}
	if e.MaxWidth != nil {
		s.Overrides.MaxWidth = e.MaxWidth
	}
	if e.MaxColors != nil {
		s.Overrides.MaxColors = e.MaxColors
	}
	if e.Loop != nil {
		s.LoopCount = *e.Loop
	}
	return s, nil
}

// ExportRecording starts an asynchronous export and returns the job.
func (h *Handlers) ExportRecording(w http.ResponseWriter, r *http.Request) {
	id, err := recordingID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var body ExportRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	settings, err := body.settings(h.app.Config().ExportSettings())
	if err != nil {
		writeError(w, r, err)
		return
	}

	job, err := h.app.StartExportJob(r.Context(), id, settings)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/exports/"+job.ID)
	writeJSONResponse(w, http.StatusAccepted, job)
}

// GetExportJob reports an export job's progress.
func (h *Handlers) GetExportJob(w http.ResponseWriter, r *http.Request) {
	job, ok := h.app.ExportJob(mux.Vars(r)["job"])
	if !ok {
		writeJSONError(w, "export job not found", http.StatusNotFound)
		return
	}
	writeJSONResponse(w, http.StatusOK, job)
}

// GetGIF serves the exported GIF of a recording.
func (h *Handlers) GetGIF(w http.ResponseWriter, r *http.Request) {
	recording, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if !recording.HasGIF() {
		writeJSONError(w, "recording has not been exported", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", filepath.Base(recording.ExportedGIFPath)))
	http.ServeFile(w, r, recording.ExportedGIFPath)
}

// GetPreview returns a JPEG frame of a recording. Query parameters: at
// (seconds, default 0) and size (longest edge in pixels).
func (h *Handlers) GetPreview(w http.ResponseWriter, r *http.Request) {
	id, err := recordingID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	at, size, err := previewParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	data, err := h.app.Preview(r.Context(), id, at, size)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if _, err := w.Write(data); err != nil {
		logging.Debug("preview write failed: %v", err)
	}
}

func previewParams(r *http.Request) (time.Duration, int, error) {
	q := r.URL.Query()

	var at time.Duration
	if v := q.Get("at"); v != "" {
		seconds, err := strconv.ParseFloat(v, 64)
		if err != nil || seconds < 0 {
			return 0, 0, fmt.Errorf("%w: at must be a non-negative number of seconds", app.ErrInvalidRequest)
		}
		at = time.Duration(seconds * float64(time.Second))
	}

	size := defaultPreviewSize
	if v := q.Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 16 || n > maxPreviewSize {
			return 0, 0, fmt.Errorf("%w: size must be between 16 and %d", app.ErrInvalidRequest, maxPreviewSize)
		}
		size = n
	}
	return at, size, nil
}

// ClearPreviews empties the preview cache.
func (h *Handlers) ClearPreviews(w http.ResponseWriter, r *http.Request) {
	freed, err := h.app.ClearPreviews()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]int64{"freedBytes": freed})
}

// ListDisplays returns the screens that can be recorded.
func (h *Handlers) ListDisplays(w http.ResponseWriter, _ *http.Request) {
	writeJSONResponse(w, http.StatusOK, h.app.Displays())
}

// StorageResponse summarizes disk usage of the catalog.
type StorageResponse struct {
	Recordings int    `json:"recordings"`
	Exported   int    `json:"exported"`
	Bytes      int64  `json:"bytes"`
	Formatted  string `json:"formatted"`
}

// GetStorage reports how much disk space recordings and GIFs use.
func (h *Handlers) GetStorage(w http.ResponseWriter, r *http.Request) {
	recordings, err := h.app.Library().List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	var resp StorageResponse
	for _, rec := range recordings {
		resp.Recordings++
		if rec.HasGIF() {
			resp.Exported++
		}
		resp.Bytes += rec.FileSize()
	}
	resp.Formatted = catalog.FormatBytes(resp.Bytes)
	writeJSONResponse(w, http.StatusOK, resp)
}

func (h *Handlers) lookup(w http.ResponseWriter, r *http.Request) (catalog.Recording, bool) {
	id, err := recordingID(r)
	if err != nil {
		writeError(w, r, err)
		return catalog.Recording{}, false
	}
	recording, err := h.app.Library().Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return catalog.Recording{}, false
	}
	return recording, true
}
