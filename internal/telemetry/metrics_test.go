package telemetry

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartMetricsServer(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "zbench_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	srv, err := StartMetricsServer("127.0.0.1:0", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	require.NoError(t, err)
	defer srv.Shutdown(context.Background())

	resp, err := http.Get("http://" + srv.Addr() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "zbench_test_total 1")
}

func TestStartMetricsServer_BadAddr(t *testing.T) {
	_, err := StartMetricsServer("not-an-address", http.NotFoundHandler())
	assert.Error(t, err)
}
