package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter registers every route. The metrics endpoint is only mounted
// when metricsEnabled is set.
func SetupRouter(h *Handlers, metricsEnabled bool) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")
	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()

	// Active recording
	api.HandleFunc("/recording", h.GetRecordingStatus).Methods("GET")
	api.HandleFunc("/recording/start", h.StartRecording).Methods("POST")
	api.HandleFunc("/recording/stop", h.StopRecording).Methods("POST")

	// Catalog
	api.HandleFunc("/recordings", h.ListRecordings).Methods("GET")
	api.HandleFunc("/recordings", h.DeleteAllRecordings).Methods("DELETE")
	api.HandleFunc("/recordings/{id}", h.GetRecording).Methods("GET")
	api.HandleFunc("/recordings/{id}", h.DeleteRecording).Methods("DELETE")
	api.HandleFunc("/recordings/{id}/export", h.ExportRecording).Methods("POST")
	api.HandleFunc("/recordings/{id}/gif", h.GetGIF).Methods("GET")
	api.HandleFunc("/recordings/{id}/preview", h.GetPreview).Methods("GET")
	api.HandleFunc("/exports/{job}", h.GetExportJob).Methods("GET")
	api.HandleFunc("/previews", h.ClearPreviews).Methods("DELETE")

	api.HandleFunc("/displays", h.ListDisplays).Methods("GET")
	api.HandleFunc("/storage", h.GetStorage).Methods("GET")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, "not found", http.StatusNotFound)
	})

	return r
}
