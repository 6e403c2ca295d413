package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics represents the collection of all Prometheus metrics of a benchmark run.
// A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Invocations     *prometheus.CounterVec
	CPUSeconds      *prometheus.HistogramVec
	OutputBytes     *prometheus.GaugeVec
	ProvisionTotal  *prometheus.CounterVec
	ProvisionFailed *prometheus.CounterVec
	RunDuration     prometheus.Gauge
}

// NewMetrics creates all metrics on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.Invocations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zbench_invocations_total",
			Help: "Total number of measured tool invocations",
		},
		[]string{"variant", "mode"},
	)

	m.CPUSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "zbench_cpu_seconds",
			Help:    "Child CPU time of one timed measurement in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 16),
		},
		[]string{"variant", "mode"},
	)

	m.OutputBytes = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "zbench_output_bytes",
			Help: "Compressed size of the last measured invocation",
		},
		[]string{"variant", "level"},
	)

	m.ProvisionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zbench_provision_total",
			Help: "Provisioning steps performed, by variant and action",
		},
		[]string{"variant", "action"},
	)

	m.ProvisionFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zbench_provision_failed_total",
			Help: "Provisioning steps that failed, by variant and action",
		},
		[]string{"variant", "action"},
	)

	m.RunDuration = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "zbench_run_duration_seconds",
			Help: "Wall time of the whole benchmark sweep",
		},
	)

	m.registry.MustRegister(
		m.Invocations,
		m.CPUSeconds,
		m.OutputBytes,
		m.ProvisionTotal,
		m.ProvisionFailed,
		m.RunDuration,
		collectors.NewGoCollector(),
	)

	return m
}

// ObserveInvocation records one timed measurement.
func (m *Metrics) ObserveInvocation(variant, mode string, cpu time.Duration) {
	if m == nil {
		return
	}
	m.Invocations.WithLabelValues(variant, mode).Inc()
	m.CPUSeconds.WithLabelValues(variant, mode).Observe(cpu.Seconds())
}

// SetOutputBytes records a compressed size.
func (m *Metrics) SetOutputBytes(variant, level string, n int64) {
	if m == nil {
		return
	}
	m.OutputBytes.WithLabelValues(variant, level).Set(float64(n))
}

// ProvisionStep records a provisioning action and whether it failed.
func (m *Metrics) ProvisionStep(variant, action string, err error) {
	if m == nil {
		return
	}
	m.ProvisionTotal.WithLabelValues(variant, action).Inc()
	if err != nil {
		m.ProvisionFailed.WithLabelValues(variant, action).Inc()
	}
}

// SetRunDuration records the sweep wall time.
func (m *Metrics) SetRunDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RunDuration.Set(d.Seconds())
}

// WriteTextfile writes the registry in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

// Handler returns the Prometheus HTTP handler for the registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
