package prometheus

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/keyip-smiles/internal/infrastructure/monitoring/logging"
)

func newTestCollector(t *testing.T) MetricsCollector {
	t.Helper()
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "test", Subsystem: "unit"}, logging.NewNopLogger())
	require.NoError(t, err)
	return c
}

func scrape(t *testing.T, c MetricsCollector) string {
	t.Helper()
	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestNewMetricsCollector(t *testing.T) {
	_, err := NewMetricsCollector(CollectorConfig{}, nil)
	assert.Error(t, err)

	c, err := NewMetricsCollector(CollectorConfig{Namespace: "smiles", EnableGoMetrics: true, EnableProcessMetrics: true}, nil)
	require.NoError(t, err)
	assert.Contains(t, scrape(t, c), "go_goroutines")
}

func TestCollector_Counter(t *testing.T) {
	c := newTestCollector(t)
	vec := c.RegisterCounter("parses", "help", "mode")
	vec.WithLabelValues("smiles").Inc()
	vec.WithLabelValues("smiles").Add(2)

	assert.Contains(t, scrape(t, c), `test_unit_parses{mode="smiles"} 3`)
}

func TestCollector_Gauge(t *testing.T) {
	c := newTestCollector(t)
	g := c.RegisterGauge("inflight", "help").WithLabelValues()
	g.Set(5)
	g.Inc()
	g.Dec()
	g.Dec()

	assert.Contains(t, scrape(t, c), "test_unit_inflight 4")
}

func TestCollector_Histogram(t *testing.T) {
	c := newTestCollector(t)
	h := c.RegisterHistogram("latency", "help", nil, "mode")
	h.WithLabelValues("guess").Observe(0.2)

	out := scrape(t, c)
	assert.Contains(t, out, `test_unit_latency_count{mode="guess"} 1`)
	assert.Contains(t, out, `test_unit_latency_bucket{mode="guess",le="0.25"} 1`)
}

func TestCollector_DuplicateRegistrationReturnsExisting(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterCounter("dup", "help").WithLabelValues().Inc()
	c.RegisterCounter("dup", "help").WithLabelValues().Inc()

	assert.Contains(t, scrape(t, c), "test_unit_dup 2")
}

func TestCollector_TypeMismatchDegradesToNoop(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterCounter("shared", "help")
	g := c.RegisterGauge("shared", "help")
	assert.IsType(t, noopGaugeVec{}, g)
	assert.NotPanics(t, func() { g.WithLabelValues().Set(1) })
}

func TestCollector_InvalidNameDegradesToNoop(t *testing.T) {
	c := newTestCollector(t)
	vec := c.RegisterHistogram("bad-name", "help", nil)
	assert.IsType(t, noopHistogramVec{}, vec)
}

func TestCollector_ConcurrentRegistration(t *testing.T) {
	c := newTestCollector(t)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.RegisterCounter("concurrent", "help").WithLabelValues().Inc()
		}()
	}
	wg.Wait()

	n, err := testutil.GatherAndCount(c.Gatherer(), "test_unit_concurrent")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, scrape(t, c), "test_unit_concurrent 16")
}

func TestNoopCollector(t *testing.T) {
	c := NewNoopCollector()
	c.RegisterCounter("x", "help").WithLabelValues().Inc()
	c.RegisterGauge("y", "help").WithLabelValues().Set(1)
	c.RegisterHistogram("z", "help", nil).WithLabelValues().Observe(1)
	assert.NotContains(t, scrape(t, c), "x")
}

func TestTimer(t *testing.T) {
	c := newTestCollector(t)
	h := c.RegisterHistogram("timer", "help", nil).WithLabelValues()
	timer := NewTimer(h)
	time.Sleep(time.Millisecond)
	assert.GreaterOrEqual(t, timer.ObserveDuration(), time.Millisecond)
	assert.Contains(t, scrape(t, c), "test_unit_timer_count 1")

	assert.NotPanics(t, func() { NewTimer(nil).ObserveDuration() })
}
