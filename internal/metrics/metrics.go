// Package metrics collects run statistics in a private Prometheus registry
// and exports them in the node_exporter textfile format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the metrics for a single fskit run. All methods are safe
// to call on a nil *Collector.
type Collector struct {
	registry *prometheus.Registry

	FilesScanned    prometheus.Counter
	BytesHashed     prometheus.Counter
	FilesHashed     prometheus.Counter
	DuplicateGroups prometheus.Gauge
	FilesRemoved    prometheus.Counter
	BytesFreed      prometheus.Counter
	RemovalErrors   *prometheus.CounterVec
	ScanDuration    prometheus.Gauge
	LastRun         prometheus.Gauge
}

// New creates a collector and registers its metrics
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		FilesScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fskit_files_scanned_total",
			Help: "Files that passed the scan filters.",
		}),
		BytesHashed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fskit_bytes_hashed_total",
			Help: "Bytes read while fingerprinting files.",
		}),
		FilesHashed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fskit_files_hashed_total",
			Help: "Files fingerprinted.",
		}),
		DuplicateGroups: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fskit_duplicate_groups",
			Help: "Duplicate groups found by the last scan.",
		}),
		FilesRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fskit_files_removed_total",
			Help: "Duplicate files deleted.",
		}),
		BytesFreed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fskit_bytes_freed_total",
			Help: "Bytes freed by deleting duplicates.",
		}),
		RemovalErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fskit_removal_errors_total",
			Help: "Failed deletions by reason.",
		}, []string{"reason"}),
		ScanDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fskit_scan_duration_seconds",
			Help: "Wall time of the last scan and fingerprint pass.",
		}),
		LastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fskit_last_run_timestamp_seconds",
			Help: "Unix time the last run finished.",
		}),
	}

	c.registry.MustRegister(
		c.FilesScanned,
		c.BytesHashed,
		c.FilesHashed,
		c.DuplicateGroups,
		c.FilesRemoved,
		c.BytesFreed,
		c.RemovalErrors,
		c.ScanDuration,
		c.LastRun,
	)

	return c
}

// Registry returns the gatherer backing this collector
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveScan records the number of candidate files and how long scanning took
func (c *Collector) ObserveScan(files int, took time.Duration) {
	if c == nil {
		return
	}
	c.FilesScanned.Add(float64(files))
	c.ScanDuration.Set(took.Seconds())
}

// ObserveHash records one fingerprinted file
func (c *Collector) ObserveHash(bytes int64) {
	if c == nil {
		return
	}
	c.FilesHashed.Inc()
	c.BytesHashed.Add(float64(bytes))
}

// SetGroups records the number of duplicate groups
func (c *Collector) SetGroups(n int) {
	if c == nil {
		return
	}
	c.DuplicateGroups.Set(float64(n))
}

// ObserveRemoval records one deleted file
func (c *Collector) ObserveRemoval(bytes int64) {
	if c == nil {
		return
	}
	c.FilesRemoved.Inc()
	c.BytesFreed.Add(float64(bytes))
}

// ObserveRemovalError records a failed deletion
func (c *Collector) ObserveRemovalError(reason string) {
	if c == nil {
		return
	}
	c.RemovalErrors.WithLabelValues(reason).Inc()
}

// WriteTextfile stamps the run time and writes all metrics to path in the
// text exposition format
func (c *Collector) WriteTextfile(path string) error {
	if c == nil {
		return nil
	}
	c.LastRun.SetToCurrentTime()
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
