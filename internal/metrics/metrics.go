package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/tracker-tv/standards-sync/models"
)

const namespace = "standards_sync"

// Collector turns finished repository results into Prometheus metrics.
//
// Metrics:
//   - standards_sync_repositories_total: repositories by final status
//   - standards_sync_files_total: file outcomes by result
//   - standards_sync_decisions_total: decisions by enforcement level and action
//   - standards_sync_override_conflicts_total: overruled overrides by level
//   - standards_sync_repository_failures_total: failures by stage and kind
//   - standards_sync_repository_duration_seconds: wall time per repository
//   - standards_sync_last_run_timestamp_seconds: end of the last completed run
type Collector struct {
	registry *prometheus.Registry

	repositories *prometheus.CounterVec
	files        *prometheus.CounterVec
	decisions    *prometheus.CounterVec
	conflicts    *prometheus.CounterVec
	failures     *prometheus.CounterVec
	duration     prometheus.Histogram
	lastRun      prometheus.Gauge
}

// New registers the collector's metrics with registry, or with a fresh
// registry when nil.
func New(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{
		registry: registry,
		repositories: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "repositories_total",
			Help:      "Repositories processed by final status",
		}, []string{"status"}),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_total",
			Help:      "File outcomes by result",
		}, []string{"result"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Resolver decisions by enforcement level and action",
		}, []string{"level", "action"}),
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "override_conflicts_total",
			Help:      "Repository overrides overruled by organization policy",
		}, []string{"level"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "repository_failures_total",
			Help:      "Failed repositories by stage and error kind",
		}, []string{"stage", "kind"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "repository_duration_seconds",
			Help:      "Time spent syncing one repository",
			// clones dominate: from sub-second dry runs to several minutes
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 12),
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run completed",
		}),
	}

	registry.MustRegister(c.repositories, c.files, c.decisions, c.conflicts, c.failures, c.duration, c.lastRun)
	return c
}

// Observe is safe for concurrent use by the worker pool.
func (c *Collector) Observe(r *models.SyncRunResult) {
	c.repositories.WithLabelValues(string(r.Status)).Inc()
	for _, f := range r.Files {
		c.files.WithLabelValues(string(f.Result)).Inc()
	}
	for _, d := range r.Decisions {
		level := string(d.Level)
		if level == "" {
			level = "none"
		}
		c.decisions.WithLabelValues(level, string(d.Action)).Inc()
		if d.IsOverrideConflict {
			c.conflicts.WithLabelValues(level).Inc()
		}
	}
	if r.Status == models.StatusFailed {
		c.failures.WithLabelValues(string(r.FailedStage), r.ErrorKind).Inc()
	}
	if !r.FinishedAt.IsZero() {
		c.duration.Observe(r.FinishedAt.Sub(r.StartedAt).Seconds())
	}
}

func (c *Collector) MarkRunCompleted(at time.Time) {
	c.lastRun.Set(float64(at.Unix()))
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// WriteTextfile writes every metric in the node exporter textfile format.
func (c *Collector) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
