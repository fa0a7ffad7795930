package rpc

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics instruments outbound node calls. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	calls    *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the RPC collectors and registers them with reg, if reg is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dnaclient",
			Subsystem: "rpc",
			Name:      "calls_total",
			Help:      "Node RPC calls by method.",
		}, []string{"method"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dnaclient",
			Subsystem: "rpc",
			Name:      "failures_total",
			Help:      "Failed node RPC calls by method and kind (transport or node).",
		}, []string{"method", "kind"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dnaclient",
			Subsystem: "rpc",
			Name:      "call_duration_seconds",
			Help:      "Node RPC call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}

	if reg != nil {
		reg.MustRegister(m.calls, m.failures, m.duration)
	}

	return m
}

func (m *Metrics) observe(method string, start time.Time, err error) {
	if m == nil {
		return
	}

	m.calls.WithLabelValues(method).Inc()
	m.duration.WithLabelValues(method).Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
	case IsTransport(err):
		m.failures.WithLabelValues(method, "transport").Inc()
	default:
		m.failures.WithLabelValues(method, "node").Inc()
	}
}
