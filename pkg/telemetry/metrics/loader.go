package metrics

import (
	"time"

	"mercator-hq/loadext/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// ToggleMetrics tracks changes of the extension loading flag.
//
// Metrics:
//   - loadext_sqlite_toggles_total: Toggle count by state and outcome
type ToggleMetrics struct {
	togglesTotal *prometheus.CounterVec
}

// NewToggleMetrics creates and registers toggle metrics with the provided registry.
func NewToggleMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ToggleMetrics {
	tm := &ToggleMetrics{
		togglesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "toggles_total",
				Help:      "Total number of extension loading flag changes",
			},
			[]string{"state", "outcome"},
		),
	}

	registry.MustRegister(tm.togglesTotal)

	return tm
}

// RecordToggle records one toggle.
func (tm *ToggleMetrics) RecordToggle(enabled bool, outcome string) {
	state := "disable"
	if enabled {
		state = "enable"
	}
	tm.togglesTotal.WithLabelValues(state, outcome).Inc()
}

// LoadMetrics tracks individual extension loads.
//
// Metrics:
//   - loadext_sqlite_extension_loads_total: Load count by extension and outcome
type LoadMetrics struct {
	loadsTotal *prometheus.CounterVec
}

// NewLoadMetrics creates and registers load metrics with the provided registry.
func NewLoadMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *LoadMetrics {
	lm := &LoadMetrics{
		loadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "extension_loads_total",
				Help:      "Total number of extension load attempts",
			},
			[]string{"extension", "outcome"},
		),
	}

	registry.MustRegister(lm.loadsTotal)

	return lm
}

// RecordLoad records one load attempt.
func (lm *LoadMetrics) RecordLoad(extension, outcome string) {
	lm.loadsTotal.WithLabelValues(extension, outcome).Inc()
}

// BatchMetrics tracks guarded batch loads.
//
// Metrics:
//   - loadext_sqlite_batches_total: Batch count by outcome
//   - loadext_sqlite_batch_duration_seconds: Batch duration histogram
//   - loadext_sqlite_batch_size: Number of extensions per batch
//   - loadext_sqlite_last_batch_timestamp_seconds: Completion time of the last batch
type BatchMetrics struct {
	batchesTotal   *prometheus.CounterVec
	batchDuration  prometheus.Histogram
	batchSize      prometheus.Histogram
	lastBatchEpoch prometheus.Gauge
}

// NewBatchMetrics creates and registers batch metrics with the provided registry.
func NewBatchMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *BatchMetrics {
	bm := &BatchMetrics{
		batchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "batches_total",
				Help:      "Total number of extension batches",
			},
			[]string{"outcome"},
		),

		batchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "batch_duration_seconds",
				Help:      "Duration of extension batches in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8), // 100µs to ~1.6s
			},
		),

		batchSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "batch_size",
				Help:      "Number of extensions requested per batch",
				Buckets:   []float64{0, 1, 2, 4, 8, 16},
			},
		),

		lastBatchEpoch: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "last_batch_timestamp_seconds",
				Help:      "Unix time at which the last batch finished",
			},
		),
	}

	registry.MustRegister(
		bm.batchesTotal,
		bm.batchDuration,
		bm.batchSize,
		bm.lastBatchEpoch,
	)

	return bm
}

// RecordBatch records one finished batch.
func (bm *BatchMetrics) RecordBatch(size int, duration time.Duration, outcome string) {
	bm.batchesTotal.WithLabelValues(outcome).Inc()
	bm.batchDuration.Observe(duration.Seconds())
	bm.batchSize.Observe(float64(size))
	bm.lastBatchEpoch.SetToCurrentTime()
}
