package transcoder

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"animagif/internal/logging"
	"animagif/internal/metrics"
)

// Transcoder is the capability the export orchestrator needs from ffmpeg.
type Transcoder interface {
	// EnsureAvailable returns the path of a working ffmpeg binary.
	EnsureAvailable(ctx context.Context) (string, error)
	// Run executes ffmpeg with args and captures its output.
	Run(ctx context.Context, args []string) (Result, error)
	// RunWithProgress executes ffmpeg and reports completion fractions for
	// a job of the given duration. progress is not closed.
	RunWithProgress(ctx context.Context, args []string, duration time.Duration, progress chan<- float64) (Result, error)
}

// Result is the captured outcome of an ffmpeg run.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// BinaryResolver locates the ffmpeg binary to run.
type BinaryResolver interface {
	EnsureAvailable(ctx context.Context) (string, error)
}

// Process runs ffmpeg subprocesses and tracks them until they exit.
type Process struct {
	binaries  BinaryResolver
	processes map[int]*exec.Cmd
	processMu sync.Mutex
}

// New creates a Process that runs the binary provided by binaries.
func New(binaries BinaryResolver) *Process {
	return &Process{
		binaries:  binaries,
		processes: make(map[int]*exec.Cmd),
	}
}

// EnsureAvailable resolves the ffmpeg binary.
func (p *Process) EnsureAvailable(ctx context.Context) (string, error) {
	return p.binaries.EnsureAvailable(ctx)
}

// Run executes ffmpeg and waits for it to exit.
func (p *Process) Run(ctx context.Context, args []string) (Result, error) {
	return p.run(ctx, args, nil)
}

// RunWithProgress prepends "-progress pipe:1 -nostats" to args and turns
// ffmpeg's progress stream into fractions of duration. Intermediate values
// are dropped when the receiver is slow; the last value is always delivered
// unless ctx ends.
func (p *Process) RunWithProgress(ctx context.Context, args []string, duration time.Duration, progress chan<- float64) (Result, error) {
	full := append([]string{"-progress", "pipe:1", "-nostats"}, args...)
	tracker := NewProgressTracker(duration)

	var last float64
	sent := false
	onLine := func(line string) {
		value, ok := tracker.Observe(line)
		if !ok || (sent && value == last) {
			return
		}
		select {
		case progress <- value:
			last, sent = value, true
		default:
		}
	}

	result, err := p.run(ctx, full, onLine)
	if progress != nil && (!sent || tracker.Value() != last) {
		select {
		case progress <- tracker.Value():
		case <-ctx.Done():
		}
	}
	return result, err
}

func (p *Process) run(ctx context.Context, args []string, onStdoutLine func(string)) (Result, error) {
	binary, err := p.binaries.EnsureAvailable(ctx)
	if err != nil {
		return Result{ExitCode: -1}, err
	}

	// #nosec G204 -- binary is resolved by the installer, args are built by callers in this module
	cmd := exec.CommandContext(ctx, binary, args...)

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return Result{ExitCode: -1}, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return Result{ExitCode: -1}, fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	logging.Debug("Running ffmpeg: %v", args)
	if err := cmd.Start(); err != nil {
		return Result{ExitCode: -1}, fmt.Errorf("%w: failed to start ffmpeg: %v", ErrBinaryUnavailable, err)
	}

	pid := cmd.Process.Pid
	p.track(pid, cmd)
	defer p.untrack(pid)

	var stdout, stderr bytes.Buffer
	var g errgroup.Group
	g.Go(func() error {
		if onStdoutLine == nil {
			_, err := io.Copy(&stdout, stdoutPipe)
			return err
		}
		scanner := bufio.NewScanner(io.TeeReader(stdoutPipe, &stdout))
		for scanner.Scan() {
			onStdoutLine(scanner.Text())
		}
		// Keep draining so ffmpeg never blocks on a full pipe.
		_, err := io.Copy(&stdout, stdoutPipe)
		if scanErr := scanner.Err(); scanErr != nil {
			return scanErr
		}
		return err
	})
	g.Go(func() error {
		_, err := io.Copy(&stderr, stderrPipe)
		return err
	})

	drainErr := g.Wait()
	waitErr := cmd.Wait()

	result := Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: cmd.ProcessState.ExitCode(),
	}

	if waitErr != nil {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			logging.Debug("ffmpeg exited with %d: %s", result.ExitCode, tailString(result.Stderr, 512))
			return result, newFailedError(result.ExitCode, result.Stderr, waitErr)
		}
		return result, fmt.Errorf("ffmpeg error: %w - %s", waitErr, stderr.String())
	}
	if drainErr != nil {
		logging.Debug("ffmpeg output drain error: %v", drainErr)
	}

	return result, nil
}

func (p *Process) track(pid int, cmd *exec.Cmd) {
	p.processMu.Lock()
	p.processes[pid] = cmd
	n := len(p.processes)
	p.processMu.Unlock()
	metrics.TranscodeProcessesActive.Set(float64(n))
}

func (p *Process) untrack(pid int) {
	p.processMu.Lock()
	delete(p.processes, pid)
	n := len(p.processes)
	p.processMu.Unlock()
	metrics.TranscodeProcessesActive.Set(float64(n))
}

// Active returns the number of running ffmpeg processes.
func (p *Process) Active() int {
	p.processMu.Lock()
	defer p.processMu.Unlock()
	return len(p.processes)
}

// Cleanup stops all running ffmpeg processes.
func (p *Process) Cleanup() {
	p.processMu.Lock()
	defer p.processMu.Unlock()

	for pid, cmd := range p.processes {
		if cmd.Process != nil {
			logging.Info("Killing ffmpeg process %d", pid)
			if err := cmd.Process.Kill(); err != nil {
				logging.Warn("failed to kill ffmpeg process %d: %v", pid, err)
			}
		}
	}
}

func tailString(b []byte, n int) string {
	if len(b) > n {
		b = b[len(b)-n:]
	}
	return string(b)
}
