package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ResolverMetrics covers the aggregate movement state.
type ResolverMetrics struct {
	recomputesTotal   prometheus.Counter
	stateChangesTotal *prometheus.CounterVec
	moving            prometheus.Gauge
	vehicleMoving     prometheus.Gauge
}

// NewResolverMetrics creates and registers resolver metrics.
func NewResolverMetrics(registry prometheus.Registerer) (*ResolverMetrics, error) {
	m := &ResolverMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *ResolverMetrics) initMetrics() {
	m.recomputesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "drivesense_resolver_recomputes_total",
		Help: "Aggregate state recomputations",
	})

	m.stateChangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drivesense_resolver_state_changes_total",
			Help: "Aggregate state changes by flag",
		},
		[]string{"flag", "value"},
	)

	m.moving = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "drivesense_resolver_movement_status",
		Help: "1 when the device is considered moving",
	})

	m.vehicleMoving = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "drivesense_resolver_vehicle_moving",
		Help: "1 when the device is considered to be in a moving vehicle",
	})
}

// Describe implements the Collector interface
func (m *ResolverMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.recomputesTotal.Describe(ch)
	m.stateChangesTotal.Describe(ch)
	m.moving.Describe(ch)
	m.vehicleMoving.Describe(ch)
}

// Collect implements the Collector interface
func (m *ResolverMetrics) Collect(ch chan<- prometheus.Metric) {
	m.recomputesTotal.Collect(ch)
	m.stateChangesTotal.Collect(ch)
	m.moving.Collect(ch)
	m.vehicleMoving.Collect(ch)
}

// RecordRecompute counts a recomputation and publishes the resulting flags.
// changedMoving and changedVehicle mark which flags flipped.
func (m *ResolverMetrics) RecordRecompute(moving, vehicle, changedMoving, changedVehicle bool) {
	if m == nil {
		return
	}
	m.recomputesTotal.Inc()
	m.moving.Set(boolToFloat(moving))
	m.vehicleMoving.Set(boolToFloat(vehicle))
	if changedMoving {
		m.stateChangesTotal.WithLabelValues("movement_status", boolLabel(moving)).Inc()
	}
	if changedVehicle {
		m.stateChangesTotal.WithLabelValues("vehicle_moving", boolLabel(vehicle)).Inc()
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
