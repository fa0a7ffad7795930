package machine

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts transitions and discarded events. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	transitions *prometheus.CounterVec
	stale       *prometheus.CounterVec
	activities  *prometheus.GaugeVec
}

// NewMetrics creates the machine collectors and registers them with reg, if
// reg is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dnaclient",
			Subsystem: "machine",
			Name:      "transitions_total",
			Help:      "State transitions by machine and target state.",
		}, []string{"machine", "state"}),
		stale: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dnaclient",
			Subsystem: "machine",
			Name:      "stale_events_total",
			Help:      "Activity events dropped because their scope was left.",
		}, []string{"machine"}),
		activities: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "dnaclient",
			Subsystem: "machine",
			Name:      "activities",
			Help:      "Running activities by machine.",
		}, []string{"machine"}),
	}

	if reg != nil {
		reg.MustRegister(m.transitions, m.stale, m.activities)
	}

	return m
}

func (m *Metrics) transition(machine, state string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(machine, state).Inc()
}

func (m *Metrics) staleEvent(machine string) {
	if m == nil {
		return
	}
	m.stale.WithLabelValues(machine).Inc()
}

func (m *Metrics) activity(machine string, delta float64) {
	if m == nil {
		return
	}
	m.activities.WithLabelValues(machine).Add(delta)
}
