package prometheus

import (
	"time"

	"github.com/marmos91/dwserve/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// httpMetrics is the Prometheus implementation of metrics.HTTPMetrics.
type httpMetrics struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec
	bytesServed      *prometheus.CounterVec
}

// NewHTTPMetrics creates a Prometheus-backed HTTPMetrics on the global
// registry.
//
// Returns a no-op implementation if metrics are not enabled (InitRegistry not
// called). Call it once per process: collectors can only be registered once.
func NewHTTPMetrics() metrics.HTTPMetrics {
	if !metrics.IsEnabled() {
		return metrics.NewNoopHTTPMetrics()
	}
	return newHTTPMetrics(metrics.GetRegistry())
}

func newHTTPMetrics(reg prometheus.Registerer) *httpMetrics {
	return &httpMetrics{
		requestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dwserve_http_requests_total",
				Help: "Total number of HTTP requests by adapter and outcome",
			},
			[]string{"adapter", "outcome"},
		),
		requestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "dwserve_http_request_duration_milliseconds",
				Help: "Duration of HTTP requests in milliseconds",
				Buckets: []float64{
					1,      // 1ms
					10,     // 10ms
					100,    // 100ms
					1000,   // 1s
					10000,  // 10s
					100000, // 100s, large content files on slow links
				},
			},
			[]string{"adapter"},
		),
		requestsInFlight: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dwserve_http_requests_in_flight",
				Help: "Current number of HTTP requests being processed",
			},
			[]string{"adapter"},
		),
		bytesServed: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dwserve_http_bytes_served_total",
				Help: "Total response body bytes written to clients",
			},
			[]string{"adapter"},
		),
	}
}

func (m *httpMetrics) RecordRequest(adapter string, outcome string, duration time.Duration) {
	m.requestsTotal.WithLabelValues(adapter, outcome).Inc()
	m.requestDuration.WithLabelValues(adapter).Observe(float64(duration.Microseconds()) / 1000)
}

func (m *httpMetrics) RecordRequestStart(adapter string) {
	m.requestsInFlight.WithLabelValues(adapter).Inc()
}

func (m *httpMetrics) RecordRequestEnd(adapter string) {
	m.requestsInFlight.WithLabelValues(adapter).Dec()
}

func (m *httpMetrics) RecordBytesServed(adapter string, bytes int64) {
	if bytes > 0 {
		m.bytesServed.WithLabelValues(adapter).Add(float64(bytes))
	}
}
