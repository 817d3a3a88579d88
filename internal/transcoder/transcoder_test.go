package transcoder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

type staticResolver struct {
	path string
	err  error
}

func (r staticResolver) EnsureAvailable(context.Context) (string, error) {
	return r.path, r.err
}

// writeScript creates an executable shell script standing in for ffmpeg.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported on windows")
	}
	path := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return path
}

func TestNew(t *testing.T) {
	p := New(staticResolver{path: "/usr/bin/ffmpeg"})

	if p == nil {
		t.Fatal("New() returned nil")
	}
	if p.processes == nil {
		t.Error("Expected processes map to be initialized")
	}
	if p.Active() != 0 {
		t.Errorf("Expected no active processes, got %d", p.Active())
	}
}

func TestRunCapturesOutput(t *testing.T) {
	script := writeScript(t, `echo "out:$1"; echo "err:$2" >&2`)
	p := New(staticResolver{path: script})

	result, err := p.Run(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := strings.TrimSpace(string(result.Stdout)); got != "out:a" {
		t.Errorf("Expected stdout=out:a, got %q", got)
	}
	if got := strings.TrimSpace(string(result.Stderr)); got != "err:b" {
		t.Errorf("Expected stderr=err:b, got %q", got)
	}
	if result.ExitCode != 0 {
		t.Errorf("Expected ExitCode=0, got %d", result.ExitCode)
	}
	if p.Active() != 0 {
		t.Errorf("Expected process to be untracked, got %d active", p.Active())
	}
}

func TestRunNonZeroExit(t *testing.T) {
	script := writeScript(t, `echo "Invalid filter graph" >&2; exit 3`)
	p := New(staticResolver{path: script})

	_, err := p.Run(context.Background(), nil)
	if !errors.Is(err, ErrTranscodeFailed) {
		t.Fatalf("Expected ErrTranscodeFailed, got %v", err)
	}

	var failed *FailedError
	if !errors.As(err, &failed) {
		t.Fatalf("Expected *FailedError, got %T", err)
	}
	if failed.ExitCode != 3 {
		t.Errorf("Expected ExitCode=3, got %d", failed.ExitCode)
	}
	if !strings.Contains(failed.Detail, "Invalid filter graph") {
		t.Errorf("Expected detail to contain stderr, got %q", failed.Detail)
	}
}

func TestRunNonZeroExitWithoutStderr(t *testing.T) {
	script := writeScript(t, `exit 1`)
	p := New(staticResolver{path: script})

	_, err := p.Run(context.Background(), nil)
	var failed *FailedError
	if !errors.As(err, &failed) {
		t.Fatalf("Expected *FailedError, got %v", err)
	}
	if !strings.Contains(failed.Detail, "exit status 1") {
		t.Errorf("Expected detail to fall back to exec error, got %q", failed.Detail)
	}
}

func TestRunResolverError(t *testing.T) {
	p := New(staticResolver{err: ErrBinaryUnavailable})

	if _, err := p.Run(context.Background(), nil); !errors.Is(err, ErrBinaryUnavailable) {
		t.Errorf("Expected ErrBinaryUnavailable, got %v", err)
	}
}

func TestRunWithProgress(t *testing.T) {
	script := writeScript(t, `
for us in 250000 N/A 500000 400000 garbage 1000000 2000000; do
  echo "frame=1"
  echo "out_time_ms=$us"
  echo "progress=continue"
done
echo "progress=end"`)
	p := New(staticResolver{path: script})

	progress := make(chan float64, 64)
	_, err := p.RunWithProgress(context.Background(), []string{"-i", "in.mov", "out.gif"}, time.Second, progress)
	if err != nil {
		t.Fatalf("RunWithProgress() error = %v", err)
	}
	close(progress)

	var values []float64
	for v := range progress {
		values = append(values, v)
	}
	if len(values) == 0 {
		t.Fatal("Expected progress values")
	}
	for i := 1; i < len(values); i++ {
		if values[i] < values[i-1] {
			t.Errorf("Progress decreased: %v", values)
		}
	}
	for _, v := range values {
		if v < 0 || v > 1 {
			t.Errorf("Progress out of range: %v", v)
		}
	}
	if last := values[len(values)-1]; last != 1 {
		t.Errorf("Expected last progress=1, got %v", last)
	}
}

func TestRunWithProgressPrependsFlags(t *testing.T) {
	script := writeScript(t, `echo "$1 $2 $3 $4" >&2`)
	p := New(staticResolver{path: script})

	result, err := p.RunWithProgress(context.Background(), []string{"-y"}, 0, nil)
	if err != nil {
		t.Fatalf("RunWithProgress() error = %v", err)
	}
	if got := strings.TrimSpace(string(result.Stderr)); got != "-progress pipe:1 -nostats -y" {
		t.Errorf("Expected prepended progress flags, got %q", got)
	}
}

func TestCleanupKillsProcesses(t *testing.T) {
	script := writeScript(t, `exec sleep 30`)
	p := New(staticResolver{path: script})

	done := make(chan error, 1)
	go func() {
		_, err := p.Run(context.Background(), nil)
		done <- err
	}()

	deadline := time.Now().Add(5 * time.Second)
	for p.Active() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	p.Cleanup()

	select {
	case err := <-done:
		if err == nil {
			t.Error("Expected killed process to report an error")
		}
	case <-time.After(10 * time.Second):
		t.Fatal("process was not killed")
	}
}
