// Package prometheus wraps client_golang behind small interfaces so that the
// parser service records metrics without importing the Prometheus API, and
// so that a disabled collector degrades to no-ops.
package prometheus

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/turtacn/keyip-smiles/internal/infrastructure/monitoring/logging"
)

// MetricsCollector registers metric families on a private registry.
type MetricsCollector interface {
	RegisterCounter(name, help string, labels ...string) CounterVec
	RegisterGauge(name, help string, labels ...string) GaugeVec
	RegisterHistogram(name, help string, buckets []float64, labels ...string) HistogramVec
	// Handler serves the registry in the Prometheus exposition format.
	Handler() http.Handler
	// Gatherer exposes the registry to tests.
	Gatherer() prometheus.Gatherer
}

type CounterVec interface {
	WithLabelValues(lvs ...string) Counter
}

type Counter interface {
	Inc()
	Add(delta float64)
}

type GaugeVec interface {
	WithLabelValues(lvs ...string) Gauge
}

type Gauge interface {
	Set(value float64)
	Inc()
	Dec()
}

type HistogramVec interface {
	WithLabelValues(lvs ...string) Histogram
}

type Histogram interface {
	Observe(value float64)
}

// CollectorConfig maps the "metrics" configuration section.
type CollectorConfig struct {
	Namespace            string
	Subsystem            string
	EnableProcessMetrics bool
	EnableGoMetrics      bool
	DefaultBuckets       []float64
	ConstLabels          map[string]string
}

type prometheusCollector struct {
	registry *prometheus.Registry
	config   CollectorConfig
	logger   logging.Logger

	mu         sync.Mutex
	registered map[string]prometheus.Collector
}

// NewMetricsCollector returns a collector backed by a fresh registry.
func NewMetricsCollector(cfg CollectorConfig, logger logging.Logger) (MetricsCollector, error) {
	if cfg.Namespace == "" {
		return nil, fmt.Errorf("prometheus: namespace is required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	registry := prometheus.NewRegistry()
	if cfg.EnableProcessMetrics {
		registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: cfg.Namespace}))
	}
	if cfg.EnableGoMetrics {
		registry.MustRegister(collectors.NewGoCollector())
	}
	if cfg.DefaultBuckets == nil {
		cfg.DefaultBuckets = prometheus.DefBuckets
	}
	return &prometheusCollector{
		registry:   registry,
		config:     cfg,
		logger:     logger,
		registered: make(map[string]prometheus.Collector),
	}, nil
}

func (c *prometheusCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (c *prometheusCollector) Gatherer() prometheus.Gatherer { return c.registry }

// register returns the collector already registered under name, if any.
func (c *prometheusCollector) register(name string, col prometheus.Collector) (prometheus.Collector, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fq := prometheus.BuildFQName(c.config.Namespace, c.config.Subsystem, name)
	if existing, ok := c.registered[fq]; ok {
		return existing, nil
	}
	if err := c.registry.Register(col); err != nil {
		return nil, err
	}
	c.registered[fq] = col
	return col, nil
}

func (c *prometheusCollector) RegisterCounter(name, help string, labels ...string) CounterVec {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   c.config.Namespace,
		Subsystem:   c.config.Subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: c.config.ConstLabels,
	}, labels)

	got, err := c.register(name, vec)
	if err != nil {
		c.logger.Error("failed to register counter", logging.String("name", name), logging.Err(err))
		return noopCounterVec{}
	}
	if v, ok := got.(*prometheus.CounterVec); ok {
		return counterVec{v}
	}
	c.logger.Warn("metric type mismatch", logging.String("name", name), logging.String("type", "counter"))
	return noopCounterVec{}
}

func (c *prometheusCollector) RegisterGauge(name, help string, labels ...string) GaugeVec {
	vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   c.config.Namespace,
		Subsystem:   c.config.Subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: c.config.ConstLabels,
	}, labels)

	got, err := c.register(name, vec)
	if err != nil {
		c.logger.Error("failed to register gauge", logging.String("name", name), logging.Err(err))
		return noopGaugeVec{}
	}
	if v, ok := got.(*prometheus.GaugeVec); ok {
		return gaugeVec{v}
	}
	c.logger.Warn("metric type mismatch", logging.String("name", name), logging.String("type", "gauge"))
	return noopGaugeVec{}
}

func (c *prometheusCollector) RegisterHistogram(name, help string, buckets []float64, labels ...string) HistogramVec {
	if buckets == nil {
		buckets = c.config.DefaultBuckets
	}
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   c.config.Namespace,
		Subsystem:   c.config.Subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: c.config.ConstLabels,
		Buckets:     buckets,
	}, labels)

	got, err := c.register(name, vec)
	if err != nil {
		c.logger.Error("failed to register histogram", logging.String("name", name), logging.Err(err))
		return noopHistogramVec{}
	}
	if v, ok := got.(*prometheus.HistogramVec); ok {
		return histogramVec{v}
	}
	c.logger.Warn("metric type mismatch", logging.String("name", name), logging.String("type", "histogram"))
	return noopHistogramVec{}
}

// ─────────────────────────────────────────────────────────────────────────────
// Wrappers
// ─────────────────────────────────────────────────────────────────────────────

type counterVec struct{ vec *prometheus.CounterVec }

func (v counterVec) WithLabelValues(lvs ...string) Counter { return v.vec.WithLabelValues(lvs...) }

type gaugeVec struct{ vec *prometheus.GaugeVec }

func (v gaugeVec) WithLabelValues(lvs ...string) Gauge { return v.vec.WithLabelValues(lvs...) }

type histogramVec struct{ vec *prometheus.HistogramVec }

func (v histogramVec) WithLabelValues(lvs ...string) Histogram { return v.vec.WithLabelValues(lvs...) }

// noop drops every sample.
type noop struct{}

func (noop) Inc()            {}
func (noop) Dec()            {}
func (noop) Add(float64)     {}
func (noop) Set(float64)     {}
func (noop) Observe(float64) {}

type noopCounterVec struct{}

func (noopCounterVec) WithLabelValues(...string) Counter { return noop{} }

type noopGaugeVec struct{}

func (noopGaugeVec) WithLabelValues(...string) Gauge { return noop{} }

type noopHistogramVec struct{}

func (noopHistogramVec) WithLabelValues(...string) Histogram { return noop{} }

// ─────────────────────────────────────────────────────────────────────────────
// Timer
// ─────────────────────────────────────────────────────────────────────────────

// Timer observes the seconds elapsed since it was started.
type Timer struct {
	histogram Histogram
	start     time.Time
}

func NewTimer(h Histogram) *Timer {
	return &Timer{histogram: h, start: time.Now()}
}

// ObserveDuration records and returns the elapsed time.
func (t *Timer) ObserveDuration() time.Duration {
	d := time.Since(t.start)
	if t.histogram != nil {
		t.histogram.Observe(d.Seconds())
	}
	return d
}

// ─────────────────────────────────────────────────────────────────────────────
// Disabled collector
// ─────────────────────────────────────────────────────────────────────────────

type noopCollector struct{ registry *prometheus.Registry }

// NewNoopCollector returns a collector that records nothing.  Its handler
// serves an empty registry.
func NewNoopCollector() MetricsCollector {
	return noopCollector{registry: prometheus.NewRegistry()}
}

func (noopCollector) RegisterCounter(string, string, ...string) CounterVec { return noopCounterVec{} }
func (noopCollector) RegisterGauge(string, string, ...string) GaugeVec     { return noopGaugeVec{} }
func (noopCollector) RegisterHistogram(string, string, []float64, ...string) HistogramVec {
	return noopHistogramVec{}
}
func (n noopCollector) Handler() http.Handler {
	return promhttp.HandlerFor(n.registry, promhttp.HandlerOpts{})
}
func (n noopCollector) Gatherer() prometheus.Gatherer { return n.registry }
