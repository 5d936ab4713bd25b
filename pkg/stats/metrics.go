package stats

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "mostro_client"

// Request outcomes.
const (
	OutcomeResolved = "resolved"
	OutcomeTimeout  = "timeout"
	OutcomeCanceled = "canceled"
	OutcomeFailed   = "failed"
)

// ClientMetrics groups the metrics of one client. Every method is safe on a
// nil receiver, so metrics are optional for callers.
type ClientMetrics struct {
	requests       *prometheus.CounterVec
	pending        prometheus.Gauge
	inboundEvents  *prometheus.CounterVec
	droppedEvents  *prometheus.CounterVec
	publishedEvent prometheus.Counter
}

// NewClientMetrics creates the client metrics and registers them with reg.
func NewClientMetrics(reg prometheus.Registerer) (*ClientMetrics, error) {
	m := &ClientMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Requests sent to Mostro by action and outcome.",
		}, []string{"action", "outcome"}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_requests",
			Help:      "Requests waiting for a response.",
		}),
		inboundEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbound_events_total",
			Help:      "Events received from relays by kind.",
		}, []string{"kind"}),
		droppedEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_events_total",
			Help:      "Inbound events dropped by reason.",
		}, []string{"reason"}),
		publishedEvent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "published_events_total",
			Help:      "Events published to relays.",
		}),
	}

	if reg != nil {
		collectors := []prometheus.Collector{
			m.requests, m.pending, m.inboundEvents, m.droppedEvents, m.publishedEvent,
		}
		for _, c := range collectors {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// RequestDone records the outcome of a request.
func (m *ClientMetrics) RequestDone(action, outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(action, outcome).Inc()
}

// SetPending ...
func (m *ClientMetrics) SetPending(n int) {
	if m == nil {
		return
	}
	m.pending.Set(float64(n))
}

// EventReceived ...
func (m *ClientMetrics) EventReceived(kind string) {
	if m == nil {
		return
	}
	m.inboundEvents.WithLabelValues(kind).Inc()
}

// EventDropped ...
func (m *ClientMetrics) EventDropped(reason string) {
	if m == nil {
		return
	}
	m.droppedEvents.WithLabelValues(reason).Inc()
}

// EventPublished ...
func (m *ClientMetrics) EventPublished() {
	if m == nil {
		return
	}
	m.publishedEvent.Inc()
}
