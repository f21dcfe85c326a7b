// Package spectral classifies windows of acceleration magnitude by their
// frequency content.
package spectral

import (
	"math"
	"slices"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/tphakala/drivesense/internal/errors"
	"github.com/tphakala/drivesense/internal/motion"
)

// Config holds the window geometry and labeling thresholds. Energies are in
// squared FFT magnitude units of the DC-removed window, frequencies in Hz.
type Config struct {
	WindowSize int     // samples per window, power of two
	SampleRate float64 // Hz

	StationaryMaxEnergy float64 // below this the window is Stationary

	WalkingMinFreq   float64
	WalkingMaxFreq   float64
	WalkingMinEnergy float64
	WalkingMaxEnergy float64

	RunningMinFreq   float64
	RunningMaxFreq   float64
	RunningMinEnergy float64
	RunningMaxEnergy float64

	VehicleMaxFreq   float64 // low-frequency sway with non-trivial energy
	VehicleMinEnergy float64 // any window above this energy
}

// DefaultConfig returns thresholds tuned for a 64 sample window at 10 Hz.
func DefaultConfig() Config {
	return Config{
		WindowSize:          64,
		SampleRate:          10,
		StationaryMaxEnergy: 200,
		WalkingMinFreq:      0.8,
		WalkingMaxFreq:      4.5,
		WalkingMinEnergy:    200,
		WalkingMaxEnergy:    4000,
		RunningMinFreq:      4.5,
		RunningMaxFreq:      8.0,
		RunningMinEnergy:    4000,
		RunningMaxEnergy:    12000,
		VehicleMaxFreq:      0.8,
		VehicleMinEnergy:    4000,
	}
}

// Validate checks the window geometry.
func (c Config) Validate() error {
	if !IsPowerOfTwo(c.WindowSize) {
		return errors.New(ErrNotPowerOfTwo).
			Component(componentSpectral).
			Category(errors.CategoryConfiguration).
			Context("window_size", c.WindowSize).
			Build()
	}
	if c.SampleRate <= 0 || math.IsNaN(c.SampleRate) {
		return errors.Newf("sample rate must be positive, got %v", c.SampleRate).
			Component(componentSpectral).
			Category(errors.CategoryConfiguration).
			Build()
	}
	return nil
}

// SamplePeriod returns the nominal interval between samples.
func (c Config) SamplePeriod() time.Duration {
	return time.Duration(float64(time.Second) / c.SampleRate)
}

// Classifier turns filled windows into ClassificationResults. It is not safe
// for concurrent use; the trigger controller owns it from its event loop.
type Classifier struct {
	cfg    Config
	window *Window
}

// NewClassifier validates cfg and allocates the sample window.
func NewClassifier(cfg Config) (*Classifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	w, err := NewWindow(cfg.WindowSize)
	if err != nil {
		return nil, err
	}
	return &Classifier{cfg: cfg, window: w}, nil
}

// Config returns the classifier configuration.
func (c *Classifier) Config() Config {
	return c.cfg
}

// Add buffers one sample. When the sample completes a window the window is
// classified, cleared, and the result returned with ok set.
func (c *Classifier) Add(s motion.Sample) (result motion.ClassificationResult, ok bool, err error) {
	if !c.window.Add(motion.Finite(s.Magnitude)) {
		return motion.ClassificationResult{}, false, nil
	}
	samples, err := c.window.Drain()
	if err != nil {
		return motion.ClassificationResult{}, false, err
	}
	result, err = c.Classify(samples)
	if err != nil {
		return motion.ClassificationResult{}, false, err
	}
	result.WindowEnd = s.Timestamp
	return result, true, nil
}

// Buffered returns the number of samples waiting in the current window.
func (c *Classifier) Buffered() int {
	return c.window.Len()
}

// Reset discards the partially filled window.
func (c *Classifier) Reset() {
	c.window.Reset()
}

// Classify computes the spectral features of samples and labels them. The
// input length must be a power of two; it is never truncated or padded.
func (c *Classifier) Classify(samples []float64) (motion.ClassificationResult, error) {
	features, err := Analyze(samples, c.cfg.SampleRate)
	if err != nil {
		return motion.ClassificationResult{}, err
	}
	features.Label = c.Label(features.Energy, features.DominantFrequency)
	return features, nil
}

// Label applies the labeling rules in priority order.
func (c *Classifier) Label(energy, freq float64) motion.Label {
	cfg := c.cfg
	switch {
	case energy < cfg.StationaryMaxEnergy:
		return motion.Stationary
	case within(freq, cfg.WalkingMinFreq, cfg.WalkingMaxFreq) &&
		within(energy, cfg.WalkingMinEnergy, cfg.WalkingMaxEnergy):
		return motion.Walking
	case within(freq, cfg.RunningMinFreq, cfg.RunningMaxFreq) &&
		within(energy, cfg.RunningMinEnergy, cfg.RunningMaxEnergy):
		return motion.Running
	case freq < cfg.VehicleMaxFreq && energy >= cfg.StationaryMaxEnergy,
		energy >= cfg.VehicleMinEnergy:
		return motion.Vehicle
	default:
		return motion.Unknown
	}
}

// Analyze returns energy, dominant frequency and spectral entropy of samples
// at sampleRate. The Label field of the result is left Unknown.
func Analyze(samples []float64, sampleRate float64) (motion.ClassificationResult, error) {
	n := len(samples)
	if !IsPowerOfTwo(n) {
		return motion.ClassificationResult{}, errors.New(ErrNotPowerOfTwo).
			Component(componentSpectral).
			Category(errors.CategoryWindow).
			Context("length", n).
			Build()
	}

	re := make([]float64, n)
	for i, v := range samples {
		re[i] = motion.Finite(v)
	}
	im := make([]float64, n)

	mean, err := stats.Mean(re)
	if err != nil {
		return motion.ClassificationResult{}, errors.New(err).
			Component(componentSpectral).
			Category(errors.CategoryProcessing).
			Build()
	}
	for i := range re {
		re[i] -= mean
	}

	if err := FFT(re, im); err != nil {
		return motion.ClassificationResult{}, err
	}

	half := max(n/2, 1)
	mags := make([]float64, half)
	var energy float64
	peak := 0
	for k := range half {
		m := math.Hypot(re[k], im[k])
		mags[k] = m
		energy += m * m
		if m > mags[peak] {
			peak = k
		}
	}

	return motion.ClassificationResult{
		Label:             motion.Unknown,
		Energy:            energy,
		DominantFrequency: float64(peak) * sampleRate / float64(n),
		Entropy:           entropy(mags),
	}, nil
}

// entropy is the Shannon entropy in nats of the normalized magnitudes.
func entropy(mags []float64) float64 {
	var sum float64
	for _, m := range mags {
		sum += m
	}
	if sum <= 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return 0
	}
	// stats.Entropy normalizes its input in place
	h, err := stats.Entropy(slices.Clone(mags))
	if err != nil || math.IsNaN(h) {
		return 0
	}
	return h
}

func within(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}
