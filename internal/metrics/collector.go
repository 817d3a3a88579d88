package metrics

import (
	"time"

	"animagif/internal/logging"
)

// StatsProvider supplies catalog totals to the Collector.
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds the catalog totals exported as gauges.
type Stats struct {
	Recordings   int
	Exported     int
	StorageBytes int64
}

// Collector periodically refreshes the catalog gauges.
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	CatalogRecordings.Set(float64(stats.Recordings))
	CatalogExportedRecordings.Set(float64(stats.Exported))
	CatalogStorageBytes.Set(float64(stats.StorageBytes))

	logging.Debug("Metrics collected: recordings=%d, exported=%d, storage=%d bytes",
		stats.Recordings, stats.Exported, stats.StorageBytes)
}
