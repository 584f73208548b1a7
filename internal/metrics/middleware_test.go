package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentnet/hub/internal/metrics"
)

func getCounterValue(t *testing.T, counter *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	m := &dto.Metric{}
	c, err := counter.GetMetricWithLabelValues(labels...)
	if err != nil {
		return 0
	}
	_ = c.(prometheus.Metric).Write(m)
	return m.GetCounter().GetValue()
}

func getGaugeValue(t *testing.T, gauge prometheus.Gauge) float64 {
	t.Helper()
	m := &dto.Metric{}
	_ = gauge.(prometheus.Metric).Write(m)
	return m.GetGauge().GetValue()
}

func TestHTTPMiddleware_RecordsRequestMetrics(t *testing.T) {
	handler := metrics.HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	server := httptest.NewServer(handler)
	defer server.Close()

	before := getCounterValue(t, metrics.HTTPRequestsTotal, "GET", "/static", "200")

	resp, err := http.Get(server.URL + "/some/asset.js")
	require.NoError(t, err)
	_ = resp.Body.Close()

	after := getCounterValue(t, metrics.HTTPRequestsTotal, "GET", "/static", "200")
	assert.Equal(t, float64(1), after-before)
}

func TestHTTPMiddleware_NormalizesAPIPaths(t *testing.T) {
	handler := metrics.HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	server := httptest.NewServer(handler)
	defer server.Close()

	before := getCounterValue(t, metrics.HTTPRequestsTotal, "GET", "/api/messages/:id", "200")
	resp, err := http.Get(server.URL + "/api/messages/lab")
	require.NoError(t, err)
	_ = resp.Body.Close()
	after := getCounterValue(t, metrics.HTTPRequestsTotal, "GET", "/api/messages/:id", "200")
	assert.Equal(t, float64(1), after-before)
}

func TestActiveAgentsGauge(t *testing.T) {
	before := getGaugeValue(t, metrics.ActiveAgents)
	metrics.ActiveAgents.Inc()
	after := getGaugeValue(t, metrics.ActiveAgents)
	assert.Equal(t, float64(1), after-before)
	metrics.ActiveAgents.Dec()
}

func TestMetricsRegistered(t *testing.T) {
	count, err := testutil.GatherAndCount(prometheus.DefaultGatherer)
	require.NoError(t, err)
	assert.Greater(t, count, 0, "should have registered metrics")
}
