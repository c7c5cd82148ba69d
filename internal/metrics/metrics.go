// Package metrics exposes the engine's Prometheus instrumentation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the engine counters. A nil *Metrics is a no-op, so
// instrumentation stays optional in tests.
type Metrics struct {
	registry *prometheus.Registry

	turns     *prometheus.CounterVec
	toolCalls *prometheus.CounterVec
	timeouts  *prometheus.CounterVec
	conflicts prometheus.Counter
}

// New creates and registers the counters on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "adjutant_turns_total",
			Help: "Completed turns by terminal state.",
		}, []string{"state"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "adjutant_tool_calls_total",
			Help: "Capability invocations by public name.",
		}, []string{"capability"}),
		timeouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "adjutant_collaborator_timeouts_total",
			Help: "Collaborator calls that hit their deadline, by boundary.",
		}, []string{"boundary"}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "adjutant_schedule_conflicts_total",
			Help: "Scheduling attempts that hit at least one conflict.",
		}),
	}
	m.registry.MustRegister(m.turns, m.toolCalls, m.timeouts, m.conflicts)
	return m
}

// Handler serves the registry for a /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) TurnFinished(state string) {
	if m == nil {
		return
	}
	m.turns.WithLabelValues(state).Inc()
}

func (m *Metrics) ToolCall(capability string) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(capability).Inc()
}

func (m *Metrics) Timeout(boundary string) {
	if m == nil {
		return
	}
	m.timeouts.WithLabelValues(boundary).Inc()
}

func (m *Metrics) Conflict() {
	if m == nil {
		return
	}
	m.conflicts.Inc()
}
