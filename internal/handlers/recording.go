package handlers

import (
	"errors"
	"fmt"
	"image"
	"net/http"

	"animagif/internal/app"
	"animagif/internal/capture"
	"animagif/internal/logging"
)

// rect is a rectangle in x,y,width,height form.
type rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (r rect) toImage() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

type windowRequest struct {
	ID    uint32 `json:"id"`
	Title string `json:"title"`
	Frame rect   `json:"frame"`
}

// StartRecordingRequest is the body of POST /api/recording/start. Every
// field is optional.
type StartRecordingRequest struct {
	Display *int           `json:"display,omitempty"`
	Region  *rect          `json:"region,omitempty"`
	Window  *windowRequest `json:"window,omitempty"`
	FPS     int            `json:"fps,omitempty"`
	Quality string         `json:"quality,omitempty"`
}

func (s StartRecordingRequest) toApp() (app.StartRequest, error) {
	req := app.StartRequest{
		DisplayID: s.Display,
		FrameRate: s.FPS,
	}
	if s.FPS < 0 || s.FPS > 120 {
		return req, fmt.Errorf("%w: fps must be between 1 and 120", app.ErrInvalidRequest)
	}
	if s.Region != nil {
		if s.Region.Width <= 0 || s.Region.Height <= 0 {
			return req, fmt.Errorf("%w: region width and height must be positive", capture.ErrGeometryInvalid)
		}
		r := s.Region.toImage()
		req.Region = &r
	}
	if s.Window != nil {
		req.Window = &capture.Window{ID: s.Window.ID, Title: s.Window.Title, Frame: s.Window.Frame.toImage()}
	}
	if s.Quality != "" {
		q, err := capture.ParseQuality(s.Quality)
		if err != nil {
			return req, fmt.Errorf("%w: %v", app.ErrInvalidRequest, err)
		}
		req.Quality = &q
	}
	return req, nil
}

// GetRecordingStatus reports the active recording.
func (h *Handlers) GetRecordingStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSONResponse(w, http.StatusOK, h.app.Status())
}

// StartRecording starts a recording from a StartRecordingRequest.
func (h *Handlers) StartRecording(w http.ResponseWriter, r *http.Request) {
	var body StartRecordingRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}

	req, err := body.toApp()
	if err != nil {
		writeError(w, r, err)
		return
	}

	status, err := h.app.StartRecording(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	logging.Info("Recording started: %s (%dx%d)", status.OutputPath, status.Width, status.Height)
	writeJSONResponse(w, http.StatusCreated, status)
}

// StopRecording stops the active recording and returns the catalogued
// recording. When auto-export fails the recording is still saved; the
// response then carries both the recording and the export error.
func (h *Handlers) StopRecording(w http.ResponseWriter, r *http.Request) {
	recording, err := h.app.StopRecording(r.Context(), nil)
	if err != nil {
		if !errors.Is(err, app.ErrAutoExportFailed) {
			writeError(w, r, err)
			return
		}
		logging.Warn("Recording %s saved with error: %v", recording.ID, err)
		writeJSONResponse(w, http.StatusOK, map[string]interface{}{
			"recording":   recording,
			"exportError": err.Error(),
		})
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"recording": recording,
	})
}
