package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/keyip-smiles/internal/infrastructure/monitoring/prometheus"
)

func TestMetrics_RecordsRouteTemplate(t *testing.T) {
	c, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "mw"}, nil)
	require.NoError(t, err)
	r := newEngine(Metrics(prometheus.NewHTTPMetrics(c)))

	serve(t, r, httptest.NewRequest(http.MethodGet, "/items/1", nil))
	serve(t, r, httptest.NewRequest(http.MethodGet, "/items/2", nil))
	serve(t, r, httptest.NewRequest(http.MethodGet, "/missing", nil))

	scrape := serve(t, c.Handler(), httptest.NewRequest(http.MethodGet, "/metrics", nil)).Body.String()
	assert.Contains(t, scrape, `mw_http_requests_total{method="GET",path="/items/:id",status="200"} 2`)
	assert.Contains(t, scrape, `mw_http_requests_total{method="GET",path="unmatched",status="404"} 1`)
	assert.Contains(t, scrape, `mw_http_active_requests 0`)
}

func TestMetrics_Nil(t *testing.T) {
	r := newEngine(Metrics(nil))
	w := serve(t, r, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
