package prometheus

import (
	"strconv"
	"time"
)

var (
	ParseDurationBuckets = []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01, .05, .1}
	AtomCountBuckets     = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000}
	HTTPDurationBuckets  = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5}
)

// Parse outcome label values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// ParserMetrics holds the metric families recorded by the SMILES service.
type ParserMetrics struct {
	ParseTotal      CounterVec   // mode, status
	ParseErrors     CounterVec   // code
	ParseDuration   HistogramVec // mode
	ParseAtoms      HistogramVec // mode
	SmartsWarnings  CounterVec   // mode
	CacheHits       CounterVec   // -
	CacheMisses     CounterVec   // -
	BatchSize       HistogramVec // -
	InflightBatches GaugeVec     // -
}

// NewParserMetrics registers the parser families on c.
func NewParserMetrics(c MetricsCollector) *ParserMetrics {
	return &ParserMetrics{
		ParseTotal:      c.RegisterCounter("smiles_parse_total", "SMILES parse calls by mode and outcome.", "mode", "status"),
		ParseErrors:     c.RegisterCounter("smiles_parse_errors_total", "Failed parses by error code.", "code"),
		ParseDuration:   c.RegisterHistogram("smiles_parse_duration_seconds", "Time spent parsing one SMILES.", ParseDurationBuckets, "mode"),
		ParseAtoms:      c.RegisterHistogram("smiles_parse_atoms", "Atoms per parsed molecule.", AtomCountBuckets, "mode"),
		SmartsWarnings:  c.RegisterCounter("smiles_smarts_warnings_total", "Parses that produced unresolved SMARTS warnings.", "mode"),
		CacheHits:       c.RegisterCounter("smiles_cache_hits_total", "Parse summaries served from cache."),
		CacheMisses:     c.RegisterCounter("smiles_cache_misses_total", "Parse summary cache misses."),
		BatchSize:       c.RegisterHistogram("smiles_batch_size", "Items per batch request.", AtomCountBuckets),
		InflightBatches: c.RegisterGauge("smiles_batches_inflight", "Batches currently being parsed."),
	}
}

// ObserveParse records one parse outcome.  code is empty on success.
func (m *ParserMetrics) ObserveParse(mode string, d time.Duration, atoms int, code string, warned bool) {
	if m == nil {
		return
	}
	status := StatusOK
	if code != "" {
		status = StatusError
		m.ParseErrors.WithLabelValues(code).Inc()
	}
	m.ParseTotal.WithLabelValues(mode, status).Inc()
	m.ParseDuration.WithLabelValues(mode).Observe(d.Seconds())
	if code == "" {
		m.ParseAtoms.WithLabelValues(mode).Observe(float64(atoms))
	}
	if warned {
		m.SmartsWarnings.WithLabelValues(mode).Inc()
	}
}

// ObserveCache records a cache lookup.
func (m *ParserMetrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHits.WithLabelValues().Inc()
	} else {
		m.CacheMisses.WithLabelValues().Inc()
	}
}

// HTTPMetrics holds the transport metric families.
type HTTPMetrics struct {
	RequestsTotal   CounterVec   // method, path, status
	RequestDuration HistogramVec // method, path
	ActiveRequests  GaugeVec     // -
}

// NewHTTPMetrics registers the HTTP families on c.
func NewHTTPMetrics(c MetricsCollector) *HTTPMetrics {
	return &HTTPMetrics{
		RequestsTotal:   c.RegisterCounter("http_requests_total", "HTTP requests by method, route and status.", "method", "path", "status"),
		RequestDuration: c.RegisterHistogram("http_request_duration_seconds", "HTTP request latency.", HTTPDurationBuckets, "method", "path"),
		ActiveRequests:  c.RegisterGauge("http_active_requests", "Requests currently being served."),
	}
}

// ObserveRequest records one finished request.
func (m *HTTPMetrics) ObserveRequest(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// WorkerMetrics holds the queue worker metric families.
type WorkerMetrics struct {
	MessagesTotal  CounterVec   // status
	HandleDuration HistogramVec // -
}

// NewWorkerMetrics registers the worker families on c.
func NewWorkerMetrics(c MetricsCollector) *WorkerMetrics {
	return &WorkerMetrics{
		MessagesTotal:  c.RegisterCounter("smiles_worker_messages_total", "Parse request messages handled by outcome.", "status"),
		HandleDuration: c.RegisterHistogram("smiles_worker_handle_duration_seconds", "Time spent handling one parse request message.", ParseDurationBuckets),
	}
}

// ObserveMessage records one handled message.
func (m *WorkerMetrics) ObserveMessage(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.MessagesTotal.WithLabelValues(status).Inc()
	m.HandleDuration.WithLabelValues().Observe(d.Seconds())
}
