// Package resolver fuses the debounced motion label, raw acceleration
// magnitude, filtered speed and an explicit vehicle signal into the
// externally visible movement state.
package resolver

import (
	"math"

	"github.com/tphakala/drivesense/internal/errors"
	"github.com/tphakala/drivesense/internal/motion"
)

// Thresholds are in m/s for speeds and m/s² for acceleration.
type Thresholds struct {
	MovingSpeed            float64 // filtered speed that counts as moving
	FootSpeedCutoff        float64 // below this a walking/running label vetoes vehicle
	VehicleSpeed           float64 // speed alone proves vehicle motion
	VehicleAccel           float64 // magnitude corroborating a vehicle label
	VehicleSpeedLowerBound float64 // minimum speed for a vehicle label to count
}

// DefaultThresholds returns the resolver defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MovingSpeed:            1.2,
		FootSpeedCutoff:        3.0,
		VehicleSpeed:           4.5,
		VehicleAccel:           0.5,
		VehicleSpeedLowerBound: 1.5,
	}
}

// Validate checks that thresholds are finite and non-negative.
func (t Thresholds) Validate() error {
	for name, v := range map[string]float64{
		"moving speed":              t.MovingSpeed,
		"foot speed cutoff":         t.FootSpeedCutoff,
		"vehicle speed":             t.VehicleSpeed,
		"vehicle acceleration":      t.VehicleAccel,
		"vehicle speed lower bound": t.VehicleSpeedLowerBound,
	} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Newf("%s threshold must be a non-negative number, got %v", name, v).
				Component("resolver").
				Category(errors.CategoryConfiguration).
				Build()
		}
	}
	return nil
}

// Inputs are the latest value of each independent signal.
type Inputs struct {
	Label           motion.Label
	Magnitude       float64
	Speed           float64
	ExplicitVehicle bool
}

// Decision is the resolved state with the intermediate predicates, kept for
// diagnostics.
type Decision struct {
	State             motion.MovementState
	MovingBySpeed     bool
	MovingByLabel     bool
	DefinitelyOnFoot  bool
	VehicleBySpeed    bool
	VehicleByAccelSpd bool
}

// Decide evaluates the movement rules. It is a pure function of its inputs.
func Decide(in Inputs, th Thresholds) Decision {
	speed := in.Speed
	var d Decision

	d.MovingBySpeed = speed >= th.MovingSpeed
	d.MovingByLabel = in.Label.IsMoving()
	d.DefinitelyOnFoot = in.Label.OnFoot() && speed < th.FootSpeedCutoff
	d.VehicleBySpeed = speed >= th.VehicleSpeed
	d.VehicleByAccelSpd = math.Abs(in.Magnitude) >= th.VehicleAccel && speed >= th.VehicleSpeedLowerBound

	vehicle := false
	if !d.DefinitelyOnFoot {
		vehicle = in.ExplicitVehicle ||
			d.VehicleBySpeed ||
			(in.Label == motion.Vehicle && (d.VehicleByAccelSpd || speed >= th.VehicleSpeedLowerBound))
	}

	d.State = motion.MovementState{
		Moving:        d.MovingBySpeed || d.MovingByLabel || in.ExplicitVehicle || vehicle,
		VehicleMoving: vehicle,
	}
	return d
}
