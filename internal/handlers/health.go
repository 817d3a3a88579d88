package handlers

import (
	"net/http"
	"runtime"
	"time"

	"animagif/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Ready   bool   `json:"ready"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`

	FFmpegInstalled bool   `json:"ffmpegInstalled"`
	Recording       bool   `json:"recording"`
	Recordings      int    `json:"recordings"`
	StorageBytes    int64  `json:"storageBytes"`
	CatalogError    string `json:"catalogError,omitempty"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service. A catalog that
// cannot be read marks the service degraded; a missing ffmpeg does not,
// since it is downloaded on first use.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:          statusHealthy,
		Ready:           true,
		Version:         startup.Version,
		Uptime:          time.Since(h.startTime).Round(time.Second).String(),
		FFmpegInstalled: h.ffmpeg != nil && h.ffmpeg.Installed(),
		Recording:       h.app.Status().Active,
		GoVersion:       runtime.Version(),
		NumCPU:          runtime.NumCPU(),
		NumGoroutine:    runtime.NumGoroutine(),
	}

	recordings, err := h.app.Library().List(r.Context())
	if err != nil {
		response.Status = statusDegraded
		response.Ready = false
		response.CatalogError = err.Error()
	} else {
		response.Recordings = len(recordings)
		for _, rec := range recordings {
			response.StorageBytes += rec.FileSize()
		}
	}

	status := http.StatusOK
	if !response.Ready {
		status = http.StatusServiceUnavailable
	}
	writeJSONResponse(w, status, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 once the catalog can be read.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if _, err := h.app.Library().List(r.Context()); err != nil {
		writeJSONResponse(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
		})
		return
	}
	writeJSONStatus(w, "ready")
}

// VersionResponse is the build information plus whether ffmpeg is ready.
type VersionResponse struct {
	startup.BuildInfo
	FFmpegInstalled bool `json:"ffmpegInstalled"`
}

// GetVersion returns the application version and build information
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, VersionResponse{
		BuildInfo:       startup.GetBuildInfo(),
		FFmpegInstalled: h.ffmpeg != nil && h.ffmpeg.Installed(),
	})
}
