package location

import (
	"time"
)

// SpeedEstimate is a snapshot of the filter state.
type SpeedEstimate struct {
	Estimate      float64
	Valid         bool // false until the first accepted measurement
	Variance      float64
	LastTimestamp time.Time // last prediction
	LastUpdate    time.Time // last accepted measurement
}

// SpeedFilter is a scalar Kalman filter over speed with a random-walk
// process model. It is not safe for concurrent use.
type SpeedFilter struct {
	processNoise float64

	estimate float64
	valid    bool
	variance float64
	last     time.Time
	updated  time.Time

	lastMeasurement float64
	lastVariance    float64
	hasMeasurement  bool
}

// NewSpeedFilter creates an empty filter.
func NewSpeedFilter(processNoise float64) *SpeedFilter {
	return &SpeedFilter{processNoise: processNoise}
}

// Predict advances the filter to t, growing the variance by the process
// noise accumulated over the elapsed time. Time never runs backwards.
func (f *SpeedFilter) Predict(t time.Time) {
	if f.last.IsZero() {
		f.last = t
		return
	}
	dt := t.Sub(f.last).Seconds()
	if dt <= 0 {
		return
	}
	if f.valid {
		f.variance += f.processNoise * dt
	}
	f.last = t
}

// Update predicts to t and corrects with measurement z of variance r. The
// first measurement initializes the estimate directly. Repeating the last
// measurement at the same instant leaves the estimate unchanged.
func (f *SpeedFilter) Update(z, r float64, t time.Time) float64 {
	if f.hasMeasurement && t.Equal(f.last) && z == f.lastMeasurement && r == f.lastVariance {
		return f.estimate
	}
	f.Predict(t)

	if !f.valid {
		f.estimate = z
		f.variance = r
		f.valid = true
	} else {
		gain := f.variance / (f.variance + r)
		f.estimate += gain * (z - f.estimate)
		f.variance *= 1 - gain
	}
	f.updated = t

	f.lastMeasurement = z
	f.lastVariance = r
	f.hasMeasurement = true
	return f.estimate
}

// Estimate returns the current estimate clamped to be non-negative, and
// whether any measurement has been accepted.
func (f *SpeedFilter) Estimate() (float64, bool) {
	return max(f.estimate, 0), f.valid
}

// State returns a snapshot of the filter.
func (f *SpeedFilter) State() SpeedEstimate {
	return SpeedEstimate{
		Estimate:      f.estimate,
		Valid:         f.valid,
		Variance:      f.variance,
		LastTimestamp: f.last,
		LastUpdate:    f.updated,
	}
}

// Reset returns the filter to its initial empty state.
func (f *SpeedFilter) Reset() {
	*f = SpeedFilter{processNoise: f.processNoise}
}
