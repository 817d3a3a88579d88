package capture

import (
	"errors"
	"fmt"
)

var (
	// ErrGeometryInvalid means no display, window or crop target could be resolved.
	ErrGeometryInvalid = errors.New("invalid capture geometry")

	// ErrIO means the output location or the container could not be opened.
	ErrIO = errors.New("capture output unavailable")

	// ErrRecordingFailed covers capture state misuse and writer failures.
	ErrRecordingFailed = errors.New("recording failed")

	// ErrNoActiveRecording is returned by Stop when there is nothing to stop.
	// It also matches ErrRecordingFailed.
	ErrNoActiveRecording = fmt.Errorf("%w: no active recording", ErrRecordingFailed)

	// ErrAlreadyRecording is returned by Start while another session is
	// active. It also matches ErrRecordingFailed.
	ErrAlreadyRecording = fmt.Errorf("%w: a recording is already in progress", ErrRecordingFailed)

	// ErrWriterBusy is returned by a ContainerWriter that cannot accept a frame.
	ErrWriterBusy = errors.New("container writer busy")
)
