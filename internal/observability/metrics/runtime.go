package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// RuntimeMetrics covers cross-cutting concerns: event bus drops and
// categorized errors.
type RuntimeMetrics struct {
	busDroppedTotal *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
}

// NewRuntimeMetrics creates and registers runtime metrics.
func NewRuntimeMetrics(registry prometheus.Registerer) (*RuntimeMetrics, error) {
	m := &RuntimeMetrics{
		busDroppedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "drivesense_events_dropped_total",
				Help: "Events dropped because a subscriber queue was full",
			},
			[]string{"bus"},
		),
		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "drivesense_errors_total",
				Help: "Categorized errors by component",
			},
			[]string{"component", "category"},
		),
	}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Describe implements the Collector interface
func (m *RuntimeMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.busDroppedTotal.Describe(ch)
	m.errorsTotal.Describe(ch)
}

// Collect implements the Collector interface
func (m *RuntimeMetrics) Collect(ch chan<- prometheus.Metric) {
	m.busDroppedTotal.Collect(ch)
	m.errorsTotal.Collect(ch)
}

// BusDropHook returns a function suitable for events.Bus.OnDrop.
func (m *RuntimeMetrics) BusDropHook(bus string) func() {
	if m == nil {
		return nil
	}
	counter := m.busDroppedTotal.WithLabelValues(bus)
	return counter.Inc
}

// RecordError counts a categorized error.
func (m *RuntimeMetrics) RecordError(component, category string) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(component, category).Inc()
}
