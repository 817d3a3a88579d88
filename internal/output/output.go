package output

import (
	"fmt"
	"io"
	"time"

	"animagif/internal/capture"
	"animagif/internal/catalog"
)

type Formatter struct {
	w io.Writer
}

func NewFormatter(w io.Writer) *Formatter {
	return &Formatter{w: w}
}

func (f *Formatter) RecordingStarted(path string, width, height, fps int) {
	fmt.Fprintf(f.w, "🔴 Recording %dx%d @ %d fps -> %s\n", width, height, fps, path)
	fmt.Fprintf(f.w, "   Press Ctrl+C to stop\n")
}

func (f *Formatter) RecordingStopped(duration time.Duration, frames, dropped int64) {
	fmt.Fprintf(f.w, "⏹️  Recording stopped (%s, %d frames, %d dropped)\n", formatDuration(duration), frames, dropped)
}

func (f *Formatter) RecordingSaved(r catalog.Recording) {
	fmt.Fprintf(f.w, "🎞️  Saved %s (%s): %s\n", r.ID, r.FormattedDuration(), r.SourceVideoPath)
}

func (f *Formatter) Exporting(path string) {
	fmt.Fprintf(f.w, "🎨 Exporting %s...\n", path)
}

func (f *Formatter) ExportDone(path string, size int64) {
	fmt.Fprintf(f.w, "✅ GIF saved: %s (%s)\n", path, catalog.FormatBytes(size))
}

func (f *Formatter) Copied(path string) {
	fmt.Fprintf(f.w, "📋 Copied to clipboard: %s\n", path)
}

func (f *Formatter) Error(msg string) {
	fmt.Fprintf(f.w, "❌ %s\n", msg)
}

func (f *Formatter) Info(msg string) {
	fmt.Fprintf(f.w, "ℹ️  %s\n", msg)
}

func (f *Formatter) Success(msg string) {
	fmt.Fprintf(f.w, "✅ %s\n", msg)
}

func (f *Formatter) Warning(msg string) {
	fmt.Fprintf(f.w, "⚠️  %s\n", msg)
}

func (f *Formatter) RecordingListHeader(count int, storage int64) {
	fmt.Fprintf(f.w, "📁 Recordings (%d, %s):\n\n", count, catalog.FormatBytes(storage))
}

func (f *Formatter) RecordingListItem(r catalog.Recording) {
	status := ""
	if r.HasGIF() {
		status = " ✅ GIF"
	}
	fmt.Fprintf(f.w, "  %s  %s  %6s  %8s%s\n", r.ID, r.DisplayName(), r.FormattedDuration(), r.FormattedFileSize(), status)
}

func (f *Formatter) DisplayListItem(d capture.Display) {
	b := d.Bounds
	fmt.Fprintf(f.w, "  %d: %dx%d at (%d,%d)\n", d.ID, b.Dx(), b.Dy(), b.Min.X, b.Min.Y)
}

func (f *Formatter) SetupCheck(name string, ok bool, detail string) {
	if ok {
		fmt.Fprintf(f.w, "  ✅ %s: %s\n", name, detail)
	} else {
		fmt.Fprintf(f.w, "  ❌ %s: %s\n", name, detail)
	}
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
