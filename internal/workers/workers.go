package workers

import (
	"os"
	"runtime"
	"strconv"
)

// EnvOverride names the environment variable that pins the worker count.
const EnvOverride = "ANIMAGIF_EXPORT_WORKERS"

// Count returns the optimal number of workers for a given task type.
// It respects container CPU limits via GOMAXPROCS (Go 1.19+).
//
// The multiplier adjusts for task characteristics:
//   - 1.0 for CPU-bound tasks
//   - 0.5 for tasks that spawn their own multi-threaded processes
//
// The limit parameter caps the worker count to prevent resource exhaustion.
// Use 0 for no limit.
//
// Can be overridden with the ANIMAGIF_EXPORT_WORKERS environment variable.
func Count(multiplier float64, limit int) int {
	if count, ok := override(); ok {
		if limit > 0 && count > limit {
			return limit
		}
		return count
	}

	// GOMAXPROCS is automatically set to container CPU limit in Go 1.19+
	available := runtime.GOMAXPROCS(0)

	workers := int(float64(available) * multiplier)

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// ForExport returns how many GIF exports may run at once. Each export is an
// ffmpeg process that already uses several threads, so the default is half
// the CPUs, at most 4. A positive configured value replaces the default;
// the environment override still wins.
func ForExport(configured int) int {
	if count, ok := override(); ok {
		return count
	}
	if configured > 0 {
		return configured
	}
	return Count(0.5, 4)
}

func override() (int, bool) {
	value := os.Getenv(EnvOverride)
	if value == "" {
		return 0, false
	}
	count, err := strconv.Atoi(value)
	if err != nil || count <= 0 {
		return 0, false
	}
	return count, true
}
