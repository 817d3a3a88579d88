package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"animagif/internal/logging"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logging.SetOutput(&buf)
	t.Cleanup(func() { logging.SetOutput(os.Stderr) })
	return &buf
}

func TestNewResponseWriter(t *testing.T) {
	w := httptest.NewRecorder()
	rw := newResponseWriter(w)

	if rw.statusCode != http.StatusOK {
		t.Errorf("Expected default status code 200, got %d", rw.statusCode)
	}
	if rw.bytesWritten != 0 {
		t.Errorf("Expected bytesWritten to be 0, got %d", rw.bytesWritten)
	}
	if rw.wroteHeader {
		t.Error("Expected wroteHeader to be false initially")
	}
}

func TestResponseWriterWriteHeader(t *testing.T) {
	w := httptest.NewRecorder()
	rw := newResponseWriter(w)

	rw.WriteHeader(http.StatusNotFound)
	rw.WriteHeader(http.StatusInternalServerError)

	if rw.statusCode != http.StatusNotFound {
		t.Errorf("Expected status code 404, got %d", rw.statusCode)
	}
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected recorder status 404, got %d", w.Code)
	}
}

func TestResponseWriterWrite(t *testing.T) {
	w := httptest.NewRecorder()
	rw := newResponseWriter(w)

	data := []byte("test data")
	n, err := rw.Write(data)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if n != len(data) || rw.bytesWritten != int64(len(data)) {
		t.Errorf("Expected %d bytes written, got n=%d bytesWritten=%d", len(data), n, rw.bytesWritten)
	}
	if !rw.wroteHeader {
		t.Error("Expected wroteHeader to be true after Write")
	}
}

const testRecordingID = "6f1c2a9e-3b4d-4c5e-8f70-1a2b3c4d5e6f"

func TestAccessLog(t *testing.T) {
	tests := []struct {
		name          string
		method        string
		path          string
		config        AccessLogConfig
		expectLogging bool
	}{
		{name: "Logs API requests", method: http.MethodGet, path: "/api/recordings", config: DefaultAccessLogConfig(), expectLogging: true},
		{name: "Skips metrics scrapes", method: http.MethodGet, path: "/metrics", config: AccessLogConfig{LogHealthChecks: true, LogPolling: true}, expectLogging: false},
		{name: "Skips health checks by default", method: http.MethodGet, path: "/healthz", config: DefaultAccessLogConfig(), expectLogging: false},
		{name: "Logs health checks when enabled", method: http.MethodGet, path: "/healthz", config: AccessLogConfig{LogHealthChecks: true}, expectLogging: true},
		{name: "Skips status polls by default", method: http.MethodGet, path: "/api/recording", config: DefaultAccessLogConfig(), expectLogging: false},
		{name: "Skips job polls by default", method: http.MethodGet, path: "/api/exports/export-3", config: DefaultAccessLogConfig(), expectLogging: false},
		{name: "Logs polls when enabled", method: http.MethodGet, path: "/api/exports/export-3", config: AccessLogConfig{LogPolling: true}, expectLogging: true},
		{name: "Logs recording control", method: http.MethodPost, path: "/api/recording/stop", config: DefaultAccessLogConfig(), expectLogging: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLog(t)

			handler := AccessLog(tt.config)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte("ok"))
			}))

			req := httptest.NewRequest(tt.method, tt.path+"?q=1", http.NoBody)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Errorf("Expected status 200, got %d", w.Code)
			}

			out := buf.String()
			if !strings.Contains(out, "#Fields: "+accessLogFields) {
				t.Errorf("Expected W3C header, got %q", out)
			}
			logged := strings.Contains(out, " "+tt.method+" "+tt.path+" q=1 200 2 ")
			if logged != tt.expectLogging {
				t.Errorf("logged = %v, want %v; output %q", logged, tt.expectLogging, out)
			}
		})
	}
}

func TestAccessLogNamesRecordingAndJob(t *testing.T) {
	buf := captureLog(t)

	handler := AccessLog(DefaultAccessLogConfig())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Location", "/api/exports/export-7")
		w.WriteHeader(http.StatusAccepted)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/recordings/"+testRecordingID+"/export", http.NoBody)
	req.Header.Set("User-Agent", "animagif test")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	want := " 202 0 "
	out := buf.String()
	if !strings.Contains(out, want) {
		t.Errorf("Expected %q in %q", want, out)
	}
	if !strings.Contains(out, " "+testRecordingID+" export-7 \"animagif test\"") {
		t.Errorf("Expected recording, job and quoted agent in %q", out)
	}
}

func TestRequestIDs(t *testing.T) {
	tests := []struct {
		path          string
		wantRecording string
		wantJob       string
	}{
		{"/api/recordings", "-", "-"},
		{"/api/recordings/" + testRecordingID + "/gif", testRecordingID, "-"},
		{"/api/exports/export-12", "-", "export-12"},
		{"/api/exports/export-x", "-", "-"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			recording, job := requestIDs(tt.path)
			if recording != tt.wantRecording || job != tt.wantJob {
				t.Errorf("requestIDs(%q) = %q, %q; want %q, %q", tt.path, recording, job, tt.wantRecording, tt.wantJob)
			}
		})
	}
}

func TestLogField(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"", "-"},
		{"a\nb", `"a b"`},
		{"nul\x00byte", "nulbyte"},
		{"\x1b[31mred", "[31mred"},
		{`Mozilla/5.0 "x"`, `"Mozilla/5.0 ""x"""`},
	}

	for _, tt := range tests {
		if got := logField(tt.in); got != tt.want {
			t.Errorf("logField(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		want   string
	}{
		{"ipv4", "127.0.0.1:1234", "127.0.0.1"},
		{"ipv6", "[::1]:8765", "::1"},
		{"no port", "pipe", "pipe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			req.RemoteAddr = tt.remote
			req.Header.Set("X-Forwarded-For", "10.0.0.1")
			if got := clientIP(req); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCompressionMiddleware(t *testing.T) {
	large := strings.Repeat(`{"id":"abc"},`, 200)

	tests := []struct {
		name           string
		acceptEncoding string
		contentType    string
		body           string
		wantGzip       bool
	}{
		{"large JSON compressed", "gzip", "application/json", large, true},
		{"small JSON passes through", "gzip", "application/json", `{"ok":true}`, false},
		{"client without gzip", "", "application/json", large, false},
		{"GIF never compressed", "gzip", "image/gif", large, false},
	}

	compress, err := Compression(DefaultCompressionConfig())
	if err != nil {
		t.Fatalf("Compression() error: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := compress(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				_, _ = w.Write([]byte(tt.body))
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/recordings", http.NoBody)
			if tt.acceptEncoding != "" {
				req.Header.Set("Accept-Encoding", tt.acceptEncoding)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			gzipped := w.Header().Get("Content-Encoding") == "gzip"
			if gzipped != tt.wantGzip {
				t.Fatalf("gzipped = %v, want %v", gzipped, tt.wantGzip)
			}

			body := w.Body.Bytes()
			if gzipped {
				zr, err := gzip.NewReader(bytes.NewReader(body))
				if err != nil {
					t.Fatalf("gzip.NewReader() error: %v", err)
				}
				body, err = io.ReadAll(zr)
				if err != nil {
					t.Fatalf("reading gzip body: %v", err)
				}
			}
			if string(body) != tt.body {
				t.Errorf("body mismatch: got %d bytes, want %d", len(body), len(tt.body))
			}
		})
	}
}

func TestCompressionRejectsBadLevel(t *testing.T) {
	cfg := DefaultCompressionConfig()
	cfg.Level = 42
	if _, err := Compression(cfg); err == nil {
		t.Error("Expected an error for an invalid compression level")
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{"root", "/", "/"},
		{"collection", "/api/recordings", "/api/recordings"},
		{"recording", "/api/recordings/6f1c2a4e-3b7d-4c55-9a0e-2f1d8b9c7e10", "/api/recordings/{id}"},
		{"recording gif", "/api/recordings/6f1c2a4e-3b7d-4c55-9a0e-2f1d8b9c7e10/gif", "/api/recordings/{id}/gif"},
		{"export job", "/api/exports/export-17", "/api/exports/{job}"},
		{"non-numeric job", "/api/exports/export-all", "/api/exports/export-all"},
		{"health", "/healthz", "/healthz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizePath(tt.path); got != tt.expected {
				t.Errorf("normalizePath(%q) = %q, want %q", tt.path, got, tt.expected)
			}
		})
	}
}

func TestDefaultMetricsConfig(t *testing.T) {
	config := DefaultMetricsConfig()
	for _, path := range []string{"/metrics", "/healthz", "/livez", "/readyz"} {
		found := false
		for _, skip := range config.SkipPaths {
			if skip == path {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected %q to be in default SkipPaths", path)
		}
	}
}

func TestMetricsMiddlewareStatusCode(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		statusCode int
	}{
		{"200 OK", "/api/recordings", http.StatusOK},
		{"404 Not Found", "/api/recordings/6f1c2a4e-3b7d-4c55-9a0e-2f1d8b9c7e10", http.StatusNotFound},
		{"409 Conflict", "/api/recording/start", http.StatusConflict},
		{"skipped path", "/metrics", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := Metrics(DefaultMetricsConfig())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				called = true
				w.WriteHeader(tt.statusCode)
			}))

			req := httptest.NewRequest(http.MethodGet, tt.path, http.NoBody)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if !called {
				t.Error("Expected handler to be called")
			}
			if w.Code != tt.statusCode {
				t.Errorf("Expected status code %d, got %d", tt.statusCode, w.Code)
			}
		})
	}
}
