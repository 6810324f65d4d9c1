package metrics

import (
	"path/filepath"
	"sync"
	"time"

	"mercator-hq/loadext/pkg/config"
	"mercator-hq/loadext/pkg/loadext"

	"github.com/prometheus/client_golang/prometheus"
)

// otherExtension is the label used once the extension label limit is reached.
const otherExtension = "other"

// Collector records Prometheus metrics for extension loading. It implements
// loadext.Observer, so a Loader reports every toggle, load and batch to it.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	toggleMetrics *ToggleMetrics
	loadMetrics   *LoadMetrics
	batchMetrics  *BatchMetrics

	// Cardinality tracking for the extension label
	cardinalityLimiter *CardinalityLimiter
}

var _ loadext.Observer = (*Collector)(nil)

// NewCollector creates a new metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a fresh registry is created.
//
// Example:
//
//	cfg := &config.MetricsConfig{
//		Enabled:   true,
//		Namespace: "loadext",
//		Subsystem: "sqlite",
//	}
//	collector := metrics.NewCollector(cfg, nil)
//	loader := loadext.New(conn, loadext.WithObserver(collector))
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}

	c := &Collector{
		config:             cfg,
		registry:           registry,
		cardinalityLimiter: NewCardinalityLimiter(1000),
	}

	c.toggleMetrics = NewToggleMetrics(cfg, registry)
	c.loadMetrics = NewLoadMetrics(cfg, registry)
	c.batchMetrics = NewBatchMetrics(cfg, registry)

	return c
}

// ToggleObserved records one enable or disable of the extension loading flag.
func (c *Collector) ToggleObserved(enabled bool, err error) {
	if !c.config.Enabled {
		return
	}

	c.toggleMetrics.RecordToggle(enabled, Outcome(err))
}

// LoadObserved records one extension load. The extension label is the file
// name of the library; new names beyond the cardinality limit are counted as
// "other".
func (c *Collector) LoadObserved(ext loadext.Extension, err error) {
	if !c.config.Enabled {
		return
	}

	name := filepath.Base(ext.Path)
	if !c.cardinalityLimiter.Allow(name) {
		name = otherExtension
	}

	c.loadMetrics.RecordLoad(name, Outcome(err))
}

// BatchObserved records a finished batch.
func (c *Collector) BatchObserved(size int, duration time.Duration, err error) {
	if !c.config.Enabled {
		return
	}

	c.batchMetrics.RecordBatch(size, duration, Outcome(err))
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label values.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether a label value may be used. Known values are always
// allowed; new values are allowed until the limit is reached.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
