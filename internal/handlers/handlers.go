package handlers

import (
	"time"

	"animagif/internal/app"
)

// FFmpegStatus reports whether ffmpeg is ready without downloading it.
type FFmpegStatus interface {
	Installed() bool
}

type Handlers struct {
	app       *app.App
	ffmpeg    FFmpegStatus
	startTime time.Time
}

func New(a *app.App, ffmpeg FFmpegStatus) *Handlers {
	return &Handlers{
		app:       a,
		ffmpeg:    ffmpeg,
		startTime: time.Now(),
	}
}
