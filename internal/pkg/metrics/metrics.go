/*
Package metrics exposes Prometheus collectors for the relay.

Every Metrics value owns its own registry, so several hubs (as in tests) never
collide on registration. All Record methods are safe on a nil *Metrics.
*/
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "chatrelay"

// Metrics groups the relay's collectors.
type Metrics struct {
	registry *prometheus.Registry

	connections       *prometheus.GaugeVec
	occupants         *prometheus.GaugeVec
	messagesPublished *prometheus.CounterVec
	mentionsDelivered prometheus.Counter
	accessDenied      *prometheus.CounterVec
	eventsDropped     prometheus.Counter
	staleSwept        prometheus.Counter
}

// New creates the collectors and registers them, plus the Go runtime collectors,
// on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		connections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections",
			Help:      "Admitted transport connections by scope.",
		}, []string{"scope"}),
		occupants: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "occupants",
			Help:      "Occupant records by scope.",
		}, []string{"scope"}),
		messagesPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_published_total",
			Help:      "Chat messages appended and broadcast, by scope.",
		}, []string{"scope"}),
		mentionsDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mentions_delivered_total",
			Help:      "Mention notifications queued to occupants.",
		}),
		accessDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "access_denied_total",
			Help:      "Room admissions refused, by reason.",
		}, []string{"reason"}),
		eventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Outbound events dropped because a connection queue was full or closed.",
		}),
		staleSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_occupants_swept_total",
			Help:      "Occupants removed by the cleanup sweeper.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.connections,
		m.occupants,
		m.messagesPublished,
		m.mentionsDelivered,
		m.accessDenied,
		m.eventsDropped,
		m.staleSwept,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ConnectionOpened(scope string) {
	if m == nil {
		return
	}
	m.connections.WithLabelValues(scope).Inc()
}

func (m *Metrics) ConnectionClosed(scope string) {
	if m == nil {
		return
	}
	m.connections.WithLabelValues(scope).Dec()
}

// SetOccupants records the current occupant count of a scope.
func (m *Metrics) SetOccupants(scope string, n int) {
	if m == nil {
		return
	}
	m.occupants.WithLabelValues(scope).Set(float64(n))
}

func (m *Metrics) MessagePublished(scope string) {
	if m == nil {
		return
	}
	m.messagesPublished.WithLabelValues(scope).Inc()
}

func (m *Metrics) MentionDelivered() {
	if m == nil {
		return
	}
	m.mentionsDelivered.Inc()
}

func (m *Metrics) AccessDenied(reason string) {
	if m == nil {
		return
	}
	m.accessDenied.WithLabelValues(reason).Inc()
}

func (m *Metrics) EventDropped() {
	if m == nil {
		return
	}
	m.eventsDropped.Inc()
}

func (m *Metrics) StaleSwept() {
	if m == nil {
		return
	}
	m.staleSwept.Inc()
}
