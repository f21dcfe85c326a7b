package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LocationMetrics covers fix admission and speed filtering.
type LocationMetrics struct {
	fixesTotal    *prometheus.CounterVec
	speedEstimate prometheus.Gauge
	speedVariance prometheus.Gauge
	measuredSpeed prometheus.Histogram
	pollInterval  prometheus.Gauge
}

// NewLocationMetrics creates and registers location processor metrics.
func NewLocationMetrics(registry prometheus.Registerer) (*LocationMetrics, error) {
	m := &LocationMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *LocationMetrics) initMetrics() {
	m.fixesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drivesense_location_fixes_total",
			Help: "Location fixes by admission result",
		},
		[]string{"result"}, // accepted or a rejection reason
	)

	m.speedEstimate = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "drivesense_location_speed_estimate_mps",
		Help: "Filtered speed estimate in meters per second",
	})

	m.speedVariance = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "drivesense_location_speed_variance",
		Help: "Variance of the filtered speed estimate",
	})

	m.measuredSpeed = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "drivesense_location_measured_speed_mps",
		Help:    "Speed measurements fed to the filter",
		Buckets: prometheus.LinearBuckets(0, speedBucketWidth, speedBucketCount),
	})

	m.pollInterval = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "drivesense_location_poll_interval_seconds",
		Help: "Polling interval requested from the location provider",
	})
}

// Describe implements the Collector interface
func (m *LocationMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.fixesTotal.Describe(ch)
	m.speedEstimate.Describe(ch)
	m.speedVariance.Describe(ch)
	m.measuredSpeed.Describe(ch)
	m.pollInterval.Describe(ch)
}

// Collect implements the Collector interface
func (m *LocationMetrics) Collect(ch chan<- prometheus.Metric) {
	m.fixesTotal.Collect(ch)
	m.speedEstimate.Collect(ch)
	m.speedVariance.Collect(ch)
	m.measuredSpeed.Collect(ch)
	m.pollInterval.Collect(ch)
}

// RecordFix counts a fix by result.
func (m *LocationMetrics) RecordFix(result string) {
	if m == nil {
		return
	}
	m.fixesTotal.WithLabelValues(result).Inc()
}

// RecordEstimate publishes the filter state after an update.
func (m *LocationMetrics) RecordEstimate(measured, estimate, variance float64) {
	if m == nil {
		return
	}
	m.measuredSpeed.Observe(measured)
	m.speedEstimate.Set(estimate)
	m.speedVariance.Set(variance)
}

// SetPollInterval publishes the requested polling interval.
func (m *LocationMetrics) SetPollInterval(d time.Duration) {
	if m == nil {
		return
	}
	m.pollInterval.Set(d.Seconds())
}
