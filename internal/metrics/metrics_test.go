package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type mockStatsProvider struct {
	mu    sync.Mutex
	calls int
	stats Stats
}

func (m *mockStatsProvider) GetStats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.stats
}

func (m *mockStatsProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"CaptureSessionsTotal", CaptureSessionsTotal},
		{"CaptureFramesTotal", CaptureFramesTotal},
		{"CaptureSessionDuration", CaptureSessionDuration},
		{"CaptureActive", CaptureActive},
		{"TranscodeJobsTotal", TranscodeJobsTotal},
		{"TranscodeDuration", TranscodeDuration},
		{"TranscodeProcessesActive", TranscodeProcessesActive},
		{"BootstrapInstallsTotal", BootstrapInstallsTotal},
		{"BootstrapDownloadDuration", BootstrapDownloadDuration},
		{"BootstrapDownloadBytes", BootstrapDownloadBytes},
		{"CatalogOperationsTotal", CatalogOperationsTotal},
		{"CatalogRecordings", CatalogRecordings},
		{"CatalogStorageBytes", CatalogStorageBytes},
		{"HTTPRequestsTotal", HTTPRequestsTotal},
		{"HTTPRequestDuration", HTTPRequestDuration},
		{"HTTPRequestsInFlight", HTTPRequestsInFlight},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestInitializeMetricsPopulatesLabels(t *testing.T) {
	InitializeMetrics()

	if got := testutil.CollectAndCount(CaptureFramesTotal); got < len(frameResults) {
		t.Errorf("CaptureFramesTotal series = %d, want at least %d", got, len(frameResults))
	}
	if got := testutil.CollectAndCount(TranscodeJobsTotal); got < 9 {
		t.Errorf("TranscodeJobsTotal series = %d, want at least 9", got)
	}
	if got := testutil.CollectAndCount(BootstrapInstallsTotal); got < 4 {
		t.Errorf("BootstrapInstallsTotal series = %d, want at least 4", got)
	}
}

func TestCollectorUpdatesGauges(t *testing.T) {
	provider := &mockStatsProvider{stats: Stats{Recordings: 7, Exported: 3, StorageBytes: 4096}}
	collector := NewCollector(provider, time.Hour)

	collector.collect()

	if got := testutil.ToFloat64(CatalogRecordings); got != 7 {
		t.Errorf("CatalogRecordings = %v, want 7", got)
	}
	if got := testutil.ToFloat64(CatalogExportedRecordings); got != 3 {
		t.Errorf("CatalogExportedRecordings = %v, want 3", got)
	}
	if got := testutil.ToFloat64(CatalogStorageBytes); got != 4096 {
		t.Errorf("CatalogStorageBytes = %v, want 4096", got)
	}
}

func TestCollectorStartStop(t *testing.T) {
	provider := &mockStatsProvider{}
	collector := NewCollector(provider, 10*time.Millisecond)

	collector.Start()
	deadline := time.Now().Add(time.Second)
	for provider.callCount() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	collector.Stop()

	if provider.callCount() < 2 {
		t.Errorf("Expected at least 2 collections, got %d", provider.callCount())
	}
}

func TestCollectorNilProvider(t *testing.T) {
	collector := NewCollector(nil, time.Hour)
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("collect() panicked with nil provider: %v", r)
		}
	}()
	collector.collect()
}

func TestFilesystemObserver(t *testing.T) {
	obs := NewFilesystemObserver()

	before := testutil.ToFloat64(FilesystemRetryAttempts.WithLabelValues("stat", "data"))
	obs.ObserveRetryAttempt("stat", "data")
	after := testutil.ToFloat64(FilesystemRetryAttempts.WithLabelValues("stat", "data"))

	if after != before+1 {
		t.Errorf("FilesystemRetryAttempts = %v, want %v", after, before+1)
	}

	obs.ObserveOperation("write", "cache", 0.01, nil)
	obs.ObserveRetrySuccess("rename", "cache")
	obs.ObserveRetryFailure("rename", "cache")
}
