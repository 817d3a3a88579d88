package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"animagif/internal/app"
	"animagif/internal/capture"
	"animagif/internal/catalog"
	"animagif/internal/config"
	"animagif/internal/transcoder"
)

// stubRunner writes a placeholder GIF for every export.
type stubRunner struct {
	fail error
}

func (s *stubRunner) EnsureAvailable(context.Context) (string, error) { return "ffmpeg", nil }

func (s *stubRunner) Run(_ context.Context, args []string) (transcoder.Result, error) {
	if len(args) > 0 && args[len(args)-1] == "-encoders" {
		return transcoder.Result{Stdout: []byte(" V..... libx264 H.264\n")}, nil
	}
	return s.export(args)
}

func (s *stubRunner) RunWithProgress(_ context.Context, args []string, _ time.Duration, _ chan<- float64) (transcoder.Result, error) {
	return s.export(args)
}

func (s *stubRunner) export(args []string) (transcoder.Result, error) {
	if s.fail != nil {
		return transcoder.Result{ExitCode: 1}, s.fail
	}
	return transcoder.Result{}, os.WriteFile(args[len(args)-1], []byte("GIF89a"), 0o644)
}

type stubProber struct{}

func (stubProber) Probe(context.Context, string) (time.Duration, error) { return time.Second, nil }

type stubWriter struct{ path string }

func (w *stubWriter) Ready() bool                             { return true }
func (w *stubWriter) Append(*image.RGBA, time.Duration) error { return nil }
func (w *stubWriter) Finish(context.Context) error {
	return os.WriteFile(w.path, []byte("moov"), 0o644)
}

type stubFFmpeg bool

func (s stubFFmpeg) Installed() bool { return bool(s) }

type testServer struct {
	router *mux.Router
	app    *app.App
	cfg    *config.Config
	runner *stubRunner
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	dir := t.TempDir()
	cfg := config.Default()
	cfg.DataDir = dir
	cfg.RecordingsDir = filepath.Join(dir, "recordings")

	runner := &stubRunner{}
	a, err := app.New(app.Options{
		Config:  cfg,
		Library: catalog.NewLibrary(catalog.NewJSONStore(filepath.Join(dir, "library.json"))),
		Runner:  runner,
		Prober:  stubProber{},
		Writers: capture.WriterFactoryFunc(func(_ context.Context, spec capture.ContainerSpec) (capture.ContainerWriter, error) {
			return &stubWriter{path: spec.Path}, nil
		}),
		Sources: func(region image.Rectangle, fps int) capture.FrameSource {
			return &capture.SyntheticSource{Size: region.Size(), FrameRate: fps, Count: 3}
		},
		Displays: func() []capture.Display {
			return []capture.Display{{ID: 0, Bounds: image.Rect(0, 0, 800, 600)}}
		},
		Clipboard: func(string) error { return nil },
	})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}
	t.Cleanup(func() { _ = a.Close(context.Background()) })

	return &testServer{
		router: SetupRouter(New(a, stubFFmpeg(true)), true),
		app:    a,
		cfg:    cfg,
		runner: runner,
	}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) addRecording(t *testing.T, name string) catalog.Recording {
	t.Helper()
	if err := os.MkdirAll(s.cfg.RecordingsDir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(s.cfg.RecordingsDir, name)
	if err := os.WriteFile(path, []byte("moov"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := catalog.NewRecording(path, time.Second)
	if err := s.app.Library().Insert(context.Background(), r); err != nil {
		t.Fatal(err)
	}
	return r
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("invalid JSON %q: %v", w.Body.String(), err)
	}
	return v
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: bad", app.ErrInvalidRequest), http.StatusBadRequest},
		{fmt.Errorf("%w: display 3 not found", capture.ErrGeometryInvalid), http.StatusBadRequest},
		{catalog.ErrNotFound, http.StatusNotFound},
		{capture.ErrAlreadyRecording, http.StatusConflict},
		{capture.ErrNoActiveRecording, http.StatusConflict},
		{fmt.Errorf("resolve: %w", transcoder.ErrBinaryUnavailable), http.StatusServiceUnavailable},
		{app.ErrPreviewsDisabled, http.StatusServiceUnavailable},
		{&transcoder.FailedError{ExitCode: 1}, http.StatusBadGateway},
		{fmt.Errorf("%w: writer died", capture.ErrRecordingFailed), http.StatusInternalServerError},
		{errors.New("other"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)
	s.addRecording(t, "a.mov")

	w := s.do(t, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", w.Code)
	}
	health := decode[HealthResponse](t, w)
	if health.Status != statusHealthy || !health.FFmpegInstalled || health.Recordings != 1 || health.Recording {
		t.Errorf("health = %+v", health)
	}

	for _, path := range []string{"/livez", "/readyz", "/version"} {
		if w := s.do(t, http.MethodGet, path, ""); w.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, w.Code)
		}
	}

	if w := s.do(t, http.MethodHead, "/livez", ""); w.Code != http.StatusOK || w.Body.Len() != 0 {
		t.Errorf("HEAD /livez = %d with %d bytes", w.Code, w.Body.Len())
	}

	version := decode[VersionResponse](t, s.do(t, http.MethodGet, "/version", ""))
	if version.Version == "" || !version.FFmpegInstalled {
		t.Errorf("version = %+v", version)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "animagif_") {
		t.Error("metrics output has no animagif series")
	}
}

func TestRecordingEndpoints(t *testing.T) {
	s := newTestServer(t)

	if w := s.do(t, http.MethodPost, "/api/recording/stop", ""); w.Code != http.StatusConflict {
		t.Errorf("stop without recording = %d, want 409", w.Code)
	}

	w := s.do(t, http.MethodPost, "/api/recording/start", `{"region":{"x":10,"y":10,"width":320,"height":240},"fps":15,"quality":"medium"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("start status = %d: %s", w.Code, w.Body.String())
	}
	status := decode[app.Status](t, w)
	if !status.Active || status.Target != "region" {
		t.Errorf("status = %+v", status)
	}

	if w := s.do(t, http.MethodPost, "/api/recording/start", ""); w.Code != http.StatusConflict {
		t.Errorf("second start = %d, want 409", w.Code)
	}

	if got := decode[app.Status](t, s.do(t, http.MethodGet, "/api/recording", "")); !got.Active {
		t.Error("GET /api/recording reports no active recording")
	}

	w = s.do(t, http.MethodPost, "/api/recording/stop", "")
	if w.Code != http.StatusOK {
		t.Fatalf("stop status = %d: %s", w.Code, w.Body.String())
	}
	stopped := decode[struct {
		Recording catalog.Recording `json:"recording"`
	}](t, w)
	if stopped.Recording.SourceVideoPath != status.OutputPath {
		t.Errorf("stopped recording = %+v, want path %s", stopped.Recording, status.OutputPath)
	}
}

func TestStartRecordingRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed", `{"fps":`, http.StatusBadRequest},
		{"unknown field", `{"codec":"x"}`, http.StatusBadRequest},
		{"unknown display", `{"display":4}`, http.StatusBadRequest},
		{"empty region", `{"region":{"x":0,"y":0,"width":0,"height":10}}`, http.StatusBadRequest},
		{"bad quality", `{"quality":"ultra"}`, http.StatusBadRequest},
		{"bad fps", `{"fps":500}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			w := s.do(t, http.MethodPost, "/api/recording/start", tt.body)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.want, w.Body.String())
			}
			if got := decode[map[string]string](t, w); got["error"] == "" {
				t.Error("missing error message")
			}
		})
	}
}

func TestRecordingsCRUD(t *testing.T) {
	s := newTestServer(t)

	if got := decode[[]catalog.Recording](t, s.do(t, http.MethodGet, "/api/recordings", "")); len(got) != 0 {
		t.Fatalf("empty catalog listed %d recordings", len(got))
	}

	a := s.addRecording(t, "a.mov")
	s.addRecording(t, "b.mov")

	if got := decode[[]catalog.Recording](t, s.do(t, http.MethodGet, "/api/recordings", "")); len(got) != 2 {
		t.Errorf("listed %d recordings, want 2", len(got))
	}

	if got := decode[catalog.Recording](t, s.do(t, http.MethodGet, "/api/recordings/"+a.ID.String(), "")); got.ID != a.ID {
		t.Errorf("GET recording returned %s", got.ID)
	}

	if w := s.do(t, http.MethodGet, "/api/recordings/not-a-uuid", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad id = %d, want 400", w.Code)
	}

	if w := s.do(t, http.MethodDelete, "/api/recordings/"+a.ID.String(), ""); w.Code != http.StatusNoContent {
		t.Errorf("delete = %d, want 204", w.Code)
	}
	if w := s.do(t, http.MethodGet, "/api/recordings/"+a.ID.String(), ""); w.Code != http.StatusNotFound {
		t.Errorf("deleted recording = %d, want 404", w.Code)
	}

	storage := decode[StorageResponse](t, s.do(t, http.MethodGet, "/api/storage", ""))
	if storage.Recordings != 1 || storage.Bytes != 4 {
		t.Errorf("storage = %+v", storage)
	}

	if got := decode[map[string]int](t, s.do(t, http.MethodDelete, "/api/recordings", "")); got["deleted"] != 1 {
		t.Errorf("delete all = %v", got)
	}
}

func waitForJob(t *testing.T, s *testServer, id string) app.ExportJob {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job := decode[app.ExportJob](t, s.do(t, http.MethodGet, "/api/exports/"+id, ""))
		if job.State != app.JobRunning {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("export job %s did not finish", id)
	return app.ExportJob{}
}

func TestExportFlow(t *testing.T) {
	s := newTestServer(t)
	r := s.addRecording(t, "clip.mov")
	base := "/api/recordings/" + r.ID.String()

	if w := s.do(t, http.MethodGet, base+"/gif", ""); w.Code != http.StatusNotFound {
		t.Errorf("gif before export = %d, want 404", w.Code)
	}

	w := s.do(t, http.MethodPost, base+"/export", `{"preset":"small","fps":12,"dithering":"bayer","loop":-1}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("export = %d: %s", w.Code, w.Body.String())
	}
	job := decode[app.ExportJob](t, w)
	if w.Header().Get("Location") != "/api/exports/"+job.ID {
		t.Errorf("Location = %q", w.Header().Get("Location"))
	}

	done := waitForJob(t, s, job.ID)
	if done.State != app.JobSucceeded || done.Progress != 1 {
		t.Fatalf("job = %+v", done)
	}

	w = s.do(t, http.MethodGet, base+"/gif", "")
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "image/gif" {
		t.Fatalf("gif = %d %q", w.Code, w.Header().Get("Content-Type"))
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("GIF89a")) {
		t.Errorf("gif body = %q", w.Body.String())
	}
}

func TestExportRejects(t *testing.T) {
	s := newTestServer(t)
	r := s.addRecording(t, "clip.mov")
	base := "/api/recordings/" + r.ID.String()

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"unknown preset", base + "/export", `{"preset":"huge"}`, http.StatusBadRequest},
		{"unknown dithering", base + "/export", `{"dithering":"noise"}`, http.StatusBadRequest},
		{"colors out of range", base + "/export", `{"maxColors":2}`, http.StatusBadRequest},
		{"unknown recording", "/api/recordings/6f1c2a4e-3b7d-4c55-9a0e-2f1d8b9c7e10/export", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := s.do(t, http.MethodPost, tt.path, tt.body); w.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.want, w.Body.String())
			}
		})
	}

	if w := s.do(t, http.MethodGet, "/api/exports/export-999", ""); w.Code != http.StatusNotFound {
		t.Errorf("unknown job = %d, want 404", w.Code)
	}
}

func TestExportJobFailure(t *testing.T) {
	s := newTestServer(t)
	s.runner.fail = &transcoder.FailedError{ExitCode: 1, Detail: "palettegen failed"}
	r := s.addRecording(t, "clip.mov")

	w := s.do(t, http.MethodPost, "/api/recordings/"+r.ID.String()+"/export", "")
	if w.Code != http.StatusAccepted {
		t.Fatalf("export = %d", w.Code)
	}

	done := waitForJob(t, s, decode[app.ExportJob](t, w).ID)
	if done.State != app.JobFailed || !strings.Contains(done.Error, "palettegen failed") {
		t.Errorf("job = %+v", done)
	}
}

func TestPreviewParams(t *testing.T) {
	s := newTestServer(t)
	r := s.addRecording(t, "clip.mov")
	base := "/api/recordings/" + r.ID.String() + "/preview"

	if w := s.do(t, http.MethodGet, base+"?at=-1", ""); w.Code != http.StatusBadRequest {
		t.Errorf("negative at = %d, want 400", w.Code)
	}
	if w := s.do(t, http.MethodGet, base+"?size=5000", ""); w.Code != http.StatusBadRequest {
		t.Errorf("huge size = %d, want 400", w.Code)
	}
	// The test config leaves the preview cache disabled.
	if w := s.do(t, http.MethodGet, base+"?at=0.5", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("disabled previews = %d, want 503", w.Code)
	}
}

func TestDisplaysAndNotFound(t *testing.T) {
	s := newTestServer(t)

	displays := decode[[]capture.Display](t, s.do(t, http.MethodGet, "/api/displays", ""))
	if len(displays) != 1 || displays[0].Bounds.Dx() != 800 {
		t.Errorf("displays = %+v", displays)
	}

	w := s.do(t, http.MethodGet, "/api/nope", "")
	if w.Code != http.StatusNotFound || w.Header().Get("Content-Type") != "application/json" {
		t.Errorf("unknown route = %d %q", w.Code, w.Header().Get("Content-Type"))
	}
}
