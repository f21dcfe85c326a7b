package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// TriggerMetrics covers sampling, labeling and debouncing in the trigger controller.
type TriggerMetrics struct {
	samplesTotal          *prometheus.CounterVec
	classificationsTotal  *prometheus.CounterVec
	windowEnergy          prometheus.Histogram
	transitionsTotal      *prometheus.CounterVec
	hardwareTriggersTotal prometheus.Counter
	samplerPausesTotal    prometheus.Counter
	samplerState          prometheus.Gauge
}

// Sampler state gauge values.
const (
	SamplerStopped = 0
	SamplerRunning = 1
	SamplerPaused  = 2
)

// NewTriggerMetrics creates and registers trigger controller metrics.
func NewTriggerMetrics(registry prometheus.Registerer) (*TriggerMetrics, error) {
	m := &TriggerMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *TriggerMetrics) initMetrics() {
	m.samplesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drivesense_trigger_samples_total",
			Help: "Raw motion samples by processing outcome",
		},
		[]string{"outcome"}, // processed, throttled, dropped
	)

	m.classificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drivesense_trigger_label_signals_total",
			Help: "Label signals produced by the active labeler",
		},
		[]string{"label"},
	)

	m.windowEnergy = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "drivesense_spectral_window_energy",
		Help:    "Spectral energy of classified windows",
		Buckets: prometheus.ExponentialBuckets(BucketStart1, BucketFactor2, BucketCount16),
	})

	m.transitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drivesense_trigger_transitions_total",
			Help: "Confirmed debounced label transitions",
		},
		[]string{"from", "to"},
	)

	m.hardwareTriggersTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "drivesense_trigger_hardware_fires_total",
		Help: "Hardware significant-motion trigger fires",
	})

	m.samplerPausesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "drivesense_trigger_sampler_pauses_total",
		Help: "Fallback sampler pauses caused by inactivity",
	})

	m.samplerState = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "drivesense_trigger_sampler_state",
		Help: "Fallback sampler state (0 stopped, 1 running, 2 paused)",
	})
}

// Describe implements the Collector interface
func (m *TriggerMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.samplesTotal.Describe(ch)
	m.classificationsTotal.Describe(ch)
	m.windowEnergy.Describe(ch)
	m.transitionsTotal.Describe(ch)
	m.hardwareTriggersTotal.Describe(ch)
	m.samplerPausesTotal.Describe(ch)
	m.samplerState.Describe(ch)
}

// Collect implements the Collector interface
func (m *TriggerMetrics) Collect(ch chan<- prometheus.Metric) {
	m.samplesTotal.Collect(ch)
	m.classificationsTotal.Collect(ch)
	m.windowEnergy.Collect(ch)
	m.transitionsTotal.Collect(ch)
	m.hardwareTriggersTotal.Collect(ch)
	m.samplerPausesTotal.Collect(ch)
	m.samplerState.Collect(ch)
}

// RecordSample counts a raw sample by outcome.
func (m *TriggerMetrics) RecordSample(outcome string) {
	if m == nil {
		return
	}
	m.samplesTotal.WithLabelValues(outcome).Inc()
}

// RecordSignal counts a labeler output.
func (m *TriggerMetrics) RecordSignal(label string) {
	if m == nil {
		return
	}
	m.classificationsTotal.WithLabelValues(label).Inc()
}

// RecordWindowEnergy observes the energy of a classified window.
func (m *TriggerMetrics) RecordWindowEnergy(energy float64) {
	if m == nil {
		return
	}
	m.windowEnergy.Observe(energy)
}

// RecordTransition counts a confirmed label change.
func (m *TriggerMetrics) RecordTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordHardwareTrigger counts a hardware trigger fire.
func (m *TriggerMetrics) RecordHardwareTrigger() {
	if m == nil {
		return
	}
	m.hardwareTriggersTotal.Inc()
}

// RecordPause counts an inactivity pause.
func (m *TriggerMetrics) RecordPause() {
	if m == nil {
		return
	}
	m.samplerPausesTotal.Inc()
}

// SetSamplerState publishes the fallback sampler state.
func (m *TriggerMetrics) SetSamplerState(state int) {
	if m == nil {
		return
	}
	m.samplerState.Set(float64(state))
}
