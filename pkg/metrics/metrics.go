// Package metrics defines the gateway's Prometheus instruments.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the gateway's instruments. Constructed once at startup and
// injected; promauto registers against the default registry.
type Metrics struct {
	DispatchTotal    *prometheus.CounterVec
	DispatchDuration *prometheus.HistogramVec
	UpstreamTotal    *prometheus.CounterVec
	UpstreamDuration prometheus.Histogram
}

// New registers and returns the gateway instruments.
func New() *Metrics {
	return &Metrics{
		DispatchTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "maxgw_dispatch_total",
			Help: "MCP tool dispatches by method and outcome",
		}, []string{"method", "outcome"}),
		DispatchDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "maxgw_dispatch_duration_seconds",
			Help:    "End-to-end MCP dispatch duration",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method"}),
		UpstreamTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "maxgw_upstream_requests_total",
			Help: "Outbound OSLC requests by kind and status class",
		}, []string{"kind", "status"}),
		UpstreamDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "maxgw_upstream_duration_seconds",
			Help:    "Outbound OSLC request duration",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

// ObserveDispatch records one completed dispatch.
func (m *Metrics) ObserveDispatch(method, outcome string, start time.Time) {
	m.DispatchTotal.WithLabelValues(method, outcome).Inc()
	m.DispatchDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
}

// ObserveUpstream records one outbound OSLC call.
func (m *Metrics) ObserveUpstream(kind, status string, start time.Time) {
	m.UpstreamTotal.WithLabelValues(kind, status).Inc()
	m.UpstreamDuration.Observe(time.Since(start).Seconds())
}
