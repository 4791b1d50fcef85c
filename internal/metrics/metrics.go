// Package metrics exposes bridge counters in the Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vovakirdan/wirechat-bridge/internal/core"
	"github.com/vovakirdan/wirechat-bridge/internal/operation"
)

const namespace = "wirechat_bridge"

// Metrics holds the bridge collectors on a private registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	requests    *prometheus.CounterVec
	events      *prometheus.CounterVec
	operations  *prometheus.CounterVec
	sortRetries prometheus.Counter
}

// Sources are read on every scrape.
type Sources struct {
	// HubDropped returns the number of events dropped for slow clients.
	HubDropped func() uint64
	// HubEvicted returns the number of clients cut off on a terminal event.
	HubEvicted func() uint64
	// InFlight returns the number of unfinished multi-phase operations.
	InFlight func() int
}

// New registers the bridge collectors plus the Go runtime and process collectors.
func New(src Sources) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Dispatched requests by method and outcome.",
		}, []string{"method", "outcome"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Events delivered by the hub, by kind.",
		}, []string{"kind"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Finished multi-phase operations by kind and outcome.",
		}, []string{"kind", "outcome"}),
		sortRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversation_sort_retries_total",
			Help:      "Conversation sorts restarted because the engine mutated the set.",
		}),
	}

	m.registry.MustRegister(
		m.requests,
		m.events,
		m.operations,
		m.sortRetries,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if src.HubDropped != nil {
		m.registry.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hub_dropped_events_total",
			Help:      "Events not delivered to a client because its buffer was full.",
		}, func() float64 { return float64(src.HubDropped()) }))
	}
	if src.HubEvicted != nil {
		m.registry.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hub_evicted_clients_total",
			Help:      "Clients disconnected because they could not take an operation's terminal event.",
		}, func() float64 { return float64(src.HubEvicted()) }))
	}
	if src.InFlight != nil {
		m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "operations_in_flight",
			Help:      "Multi-phase operations awaiting their terminal callback.",
		}, func() float64 { return float64(src.InFlight()) }))
	}
	return m
}

// ObserveRequest counts one dispatched request.
func (m *Metrics) ObserveRequest(method, outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, outcome).Inc()
}

// ObserveEvent counts one event leaving the hub.
func (m *Metrics) ObserveEvent(ev *core.Event) {
	if m == nil || ev == nil {
		return
	}
	m.events.WithLabelValues(ev.Kind.String()).Inc()
}

// ObserveOperation counts one finished operation.
func (m *Metrics) ObserveOperation(kind operation.Kind, outcome string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(kind.String(), outcome).Inc()
}

// ObserveSortRetry counts one restarted conversation sort.
func (m *Metrics) ObserveSortRetry(int) {
	if m == nil {
		return
	}
	m.sortRetries.Inc()
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
