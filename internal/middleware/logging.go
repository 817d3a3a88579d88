package middleware

import (
	"fmt"
	"net"
	"net/http"
	"path"
	"strings"
	"time"

	"animagif/internal/logging"
)

// accessLogFields is the W3C #Fields directive for AccessLog lines. The
// x-recording and x-job columns carry the recording and export job a
// request touched, or "-".
const accessLogFields = "date time c-ip cs-method cs-uri-stem cs-uri-query sc-status sc-bytes time-taken x-recording x-job cs(User-Agent)"

// responseWriter records what the access log needs from a response.
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
	wroteHeader  bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// AccessLogConfig selects which control API requests are logged.
type AccessLogConfig struct {
	LogHealthChecks bool
	// LogPolling logs GETs of the recording status and of export jobs,
	// which clients poll while a recording or an export runs.
	LogPolling bool
}

// DefaultAccessLogConfig logs every request except health checks, polls
// and metrics scrapes.
func DefaultAccessLogConfig() AccessLogConfig {
	return AccessLogConfig{}
}

var healthCheckPaths = map[string]bool{
	"/health":  true,
	"/healthz": true,
	"/livez":   true,
	"/readyz":  true,
}

// AccessLog logs one W3C extended line per request, naming the recording
// and export job involved.
func AccessLog(config AccessLogConfig) func(http.Handler) http.Handler {
	logging.Printf("#Software: animagif")
	logging.Printf("#Fields: %s", accessLogFields)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if config.skip(r) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			wrapped := newResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			logging.Printf("%s", accessLine(r, wrapped, time.Since(start)))
		})
	}
}

func (c AccessLogConfig) skip(r *http.Request) bool {
	switch {
	case r.URL.Path == "/metrics":
		return true
	case healthCheckPaths[r.URL.Path]:
		return !c.LogHealthChecks
	case r.Method == http.MethodGet && isPoll(r.URL.Path):
		return !c.LogPolling
	}
	return false
}

func isPoll(p string) bool {
	if p == "/api/recording" {
		return true
	}
	dir, job := path.Split(p)
	return dir == "/api/exports/" && isJobID(job)
}

func accessLine(r *http.Request, rw *responseWriter, took time.Duration) string {
	now := time.Now().UTC()
	recording, job := requestIDs(r.URL.Path)
	if job == "-" {
		// POST .../export answers with the new job in Location.
		if loc := rw.Header().Get("Location"); loc != "" && isJobID(path.Base(loc)) {
			job = path.Base(loc)
		}
	}

	return fmt.Sprintf("%s %s %s %s %s %s %d %d %d %s %s %s",
		now.Format("2006-01-02"),
		now.Format("15:04:05"),
		clientIP(r),
		logField(r.Method),
		logField(r.URL.Path),
		logField(r.URL.RawQuery),
		rw.statusCode,
		rw.bytesWritten,
		took.Milliseconds(),
		recording,
		job,
		logField(r.Header.Get("User-Agent")),
	)
}

// requestIDs picks the recording UUID and export job ID out of a path.
func requestIDs(p string) (recording, job string) {
	recording, job = "-", "-"
	for _, part := range strings.Split(p, "/") {
		switch {
		case isRecordingID(part):
			recording = part
		case isJobID(part):
			job = part
		}
	}
	return recording, job
}

// clientIP is the peer address. The server binds to localhost, so proxy
// headers are not trusted.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return logField(r.RemoteAddr)
	}
	return host
}

// logField makes a request value safe for a single space-separated log
// line: control characters are dropped, and values containing spaces or
// quotes are quoted with doubled inner quotes.
func logField(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r':
			return ' '
		case r < 0x20 || r == 0x7f:
			return -1
		}
		return r
	}, s)
	switch {
	case s == "":
		return "-"
	case strings.ContainsAny(s, " \""):
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
