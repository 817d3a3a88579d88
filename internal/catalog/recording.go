package catalog

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"animagif/internal/filesystem"
)

// Recording is one captured video and its optional GIF export.
type Recording struct {
	ID              uuid.UUID `json:"id"`
	CreatedAt       time.Time `json:"createdAt"`
	SourceVideoPath string    `json:"sourceVideoPath"`
	ExportedGIFPath string    `json:"exportedGIFPath,omitempty"`
	// Duration in seconds.
	Duration float64 `json:"duration"`
}

// NewRecording creates a recording for videoPath stamped with the current time.
func NewRecording(videoPath string, duration time.Duration) Recording {
	return Recording{
		ID:              uuid.New(),
		CreatedAt:       time.Now(),
		SourceVideoPath: videoPath,
		Duration:        duration.Seconds(),
	}
}

// HasGIF reports whether the recording has been exported.
func (r Recording) HasGIF() bool {
	return r.ExportedGIFPath != ""
}

// Length returns Duration as a time.Duration.
func (r Recording) Length() time.Duration {
	return time.Duration(r.Duration * float64(time.Second))
}

// FormattedDuration renders the duration as "1m 5s" or "42s".
func (r Recording) FormattedDuration() string {
	total := int(r.Duration)
	minutes, seconds := total/60, total%60
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}

// DisplayName is the creation time in short local date and time form.
func (r Recording) DisplayName() string {
	return r.CreatedAt.Local().Format("2006-01-02 15:04")
}

// FileSize is the size of the GIF when exported, otherwise of the video.
// Unreadable files report 0.
func (r Recording) FileSize() int64 {
	if r.HasGIF() {
		return filesystem.FileSize(r.ExportedGIFPath)
	}
	return filesystem.FileSize(r.SourceVideoPath)
}

// FormattedFileSize renders FileSize, or "Unknown" when it is unavailable.
func (r Recording) FormattedFileSize() string {
	size := r.FileSize()
	if size <= 0 {
		return "Unknown"
	}
	return FormatBytes(size)
}

// FormatBytes formats bytes into a human-readable string.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(b)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}
