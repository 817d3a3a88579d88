package transcoder

import (
	"strconv"
	"strings"
	"sync"
	"time"
)

// ProgressTracker converts ffmpeg "-progress" key=value lines into a
// completion fraction. The reported value never decreases.
type ProgressTracker struct {
	duration time.Duration

	mu      sync.Mutex
	current float64
}

// NewProgressTracker tracks a job expected to produce duration of output.
// A zero or negative duration makes every observation report 0.
func NewProgressTracker(duration time.Duration) *ProgressTracker {
	return &ProgressTracker{duration: duration}
}

// Observe parses one line. It returns the current fraction and true when
// the line was an out_time_ms update.
func (t *ProgressTracker) Observe(line string) (float64, bool) {
	key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
	if !ok || key != "out_time_ms" {
		return 0, false
	}

	// Despite the name ffmpeg reports microseconds here.
	micros, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.duration > 0 && micros > 0 {
		fraction := float64(micros) / 1e6 / t.duration.Seconds()
		if fraction > 1 {
			fraction = 1
		}
		if fraction > t.current {
			t.current = fraction
		}
	}
	return t.current, true
}

// Value returns the highest fraction seen so far.
func (t *ProgressTracker) Value() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}
