package detector

import (
	"github.com/montanaflynn/stats"

	"github.com/tphakala/drivesense/internal/errors"
	"github.com/tphakala/drivesense/internal/motion"
)

// ThresholdConfig configures the threshold labeler.
type ThresholdConfig struct {
	// Magnitude above which the device is considered to be in a vehicle, m/s².
	Magnitude float64
	// Samples averaged before comparing; 1 compares every sample directly.
	Smoothing int
}

// DefaultThresholdConfig returns the threshold labeler defaults.
func DefaultThresholdConfig() ThresholdConfig {
	return ThresholdConfig{Magnitude: 0.3, Smoothing: 1}
}

// Threshold labels every sample Vehicle or Stationary by comparing the
// (optionally smoothed) magnitude against a fixed threshold.
type Threshold struct {
	cfg    ThresholdConfig
	recent []float64
}

// NewThreshold creates a threshold labeler.
func NewThreshold(cfg ThresholdConfig) (*Threshold, error) {
	if cfg.Magnitude <= 0 {
		return nil, errors.Newf("threshold magnitude must be positive, got %v", cfg.Magnitude).
			Component("detector").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if cfg.Smoothing < 1 {
		cfg.Smoothing = 1
	}
	return &Threshold{cfg: cfg, recent: make([]float64, 0, cfg.Smoothing)}, nil
}

// Observe always produces a signal.
func (d *Threshold) Observe(s motion.Sample) (Signal, bool) {
	if len(d.recent) == d.cfg.Smoothing {
		d.recent = d.recent[1:]
	}
	d.recent = append(d.recent, motion.Finite(s.Magnitude))

	level, err := stats.Mean(d.recent)
	if err != nil {
		return Signal{}, false
	}
	if level > d.cfg.Magnitude {
		return Signal{Label: motion.Vehicle}, true
	}
	return Signal{Label: motion.Stationary}, true
}

// Reset forgets smoothing history.
func (d *Threshold) Reset() {
	d.recent = d.recent[:0]
}

// Kind returns KindThreshold.
func (d *Threshold) Kind() Kind {
	return KindThreshold
}
