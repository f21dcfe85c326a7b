// Package location admits GPS fixes, rejects implausible speeds and keeps a
// Kalman-filtered speed estimate. It also advises the location provider on a
// polling interval that follows the aggregate movement state.
package location

import (
	"time"

	"github.com/tphakala/drivesense/internal/errors"
)

// Config holds admission, outlier and filter parameters.
type Config struct {
	MaxFixAge         time.Duration // older fixes are discarded
	MaxAccuracy       float64       // meters; reported accuracy must be below this
	MinSatellites     int           // reported satellite count must reach this
	MinSampleInterval time.Duration // minimum spacing for distance-derived speed

	MaxAcceleration float64 // m/s², implied acceleration ceiling
	MaxSpeed        float64 // m/s, plausibility ceiling

	ProcessNoise        float64 // (m/s)² per second
	MeasurementVariance float64 // (m/s)², used when the fix reports no accuracy

	MovingInterval     time.Duration
	StationaryInterval time.Duration
}

// DefaultConfig returns the processor defaults.
func DefaultConfig() Config {
	return Config{
		MaxFixAge:           2 * time.Minute,
		MaxAccuracy:         200,
		MinSatellites:       4,
		MinSampleInterval:   time.Second,
		MaxAcceleration:     8,
		MaxSpeed:            200 / 3.6,
		ProcessNoise:        0.5,
		MeasurementVariance: 1.0,
		MovingInterval:      20 * time.Second,
		StationaryInterval:  60 * time.Second,
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	var problems []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, errors.Newf(format, args...).
				Component(componentLocation).
				Category(errors.CategoryConfiguration).
				Build())
		}
	}
	check(c.MaxFixAge > 0, "max fix age must be positive, got %v", c.MaxFixAge)
	check(c.MaxAccuracy > 0, "max accuracy must be positive, got %v", c.MaxAccuracy)
	check(c.MinSatellites >= 0, "min satellites must not be negative, got %d", c.MinSatellites)
	check(c.MinSampleInterval > 0, "min sample interval must be positive, got %v", c.MinSampleInterval)
	check(c.MaxAcceleration > 0, "max acceleration must be positive, got %v", c.MaxAcceleration)
	check(c.MaxSpeed > 0, "max speed must be positive, got %v", c.MaxSpeed)
	check(c.ProcessNoise >= 0, "process noise must not be negative, got %v", c.ProcessNoise)
	check(c.MeasurementVariance > 0, "measurement variance must be positive, got %v", c.MeasurementVariance)
	check(c.MovingInterval > 0 && c.StationaryInterval > 0, "polling intervals must be positive")
	return errors.Join(problems...)
}
