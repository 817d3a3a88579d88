package transcoder

import (
	"errors"
	"fmt"
)

var (
	// ErrBinaryUnavailable means ffmpeg could not be found, downloaded or verified.
	ErrBinaryUnavailable = errors.New("ffmpeg unavailable")

	// ErrTranscodeFailed matches every *FailedError.
	ErrTranscodeFailed = errors.New("transcode failed")
)

// stderrTailBytes is how much of ffmpeg's stderr is kept in a FailedError.
const stderrTailBytes = 4096

// FailedError reports a non-zero ffmpeg exit.
type FailedError struct {
	ExitCode int
	Detail   string
}

func (e *FailedError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("ffmpeg failed with exit code %d", e.ExitCode)
	}
	return fmt.Sprintf("ffmpeg failed with exit code %d: %s", e.ExitCode, e.Detail)
}

// Is reports whether target is ErrTranscodeFailed.
func (e *FailedError) Is(target error) bool {
	return target == ErrTranscodeFailed
}

// newFailedError builds a FailedError from stderr, falling back to the
// process error when ffmpeg printed nothing.
func newFailedError(exitCode int, stderr []byte, runErr error) *FailedError {
	detail := string(stderr)
	if len(detail) > stderrTailBytes {
		detail = detail[len(detail)-stderrTailBytes:]
	}
	if detail == "" && runErr != nil {
		detail = runErr.Error()
	}
	return &FailedError{ExitCode: exitCode, Detail: detail}
}
