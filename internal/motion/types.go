// Package motion holds the domain types shared by the sensing components:
// motion labels, raw samples, location fixes and the aggregate output state.
package motion

import (
	"math"
	"time"
)

// Label is the coarse motion category produced per spectral window.
type Label int

const (
	// Unknown carries no information and never causes a state change.
	Unknown Label = iota
	Stationary
	Walking
	Running
	Vehicle
)

// String returns the lower-case name of the label.
func (l Label) String() string {
	switch l {
	case Stationary:
		return "stationary"
	case Walking:
		return "walking"
	case Running:
		return "running"
	case Vehicle:
		return "vehicle"
	default:
		return "unknown"
	}
}

// IsMoving reports whether the label describes any kind of movement.
func (l Label) IsMoving() bool {
	return l == Walking || l == Running || l == Vehicle
}

// OnFoot reports whether the label is a pedestrian gait.
func (l Label) OnFoot() bool {
	return l == Walking || l == Running
}

// ParseLabel maps a label name back to a Label. Unrecognised names yield Unknown.
func ParseLabel(s string) Label {
	switch s {
	case "stationary":
		return Stationary
	case "walking":
		return Walking
	case "running":
		return Running
	case "vehicle":
		return Vehicle
	default:
		return Unknown
	}
}

// Sample is one raw acceleration magnitude reading.
type Sample struct {
	Magnitude float64
	Timestamp time.Time
}

// ClassificationResult is the outcome of one filled spectral window.
type ClassificationResult struct {
	Label             Label
	Energy            float64
	DominantFrequency float64 // Hz
	Entropy           float64 // nats
	WindowEnd         time.Time
}

// DebouncedState is the confirmed motion label and when it took effect.
type DebouncedState struct {
	Current Label
	Since   time.Time
}

// LabelTransition describes a confirmed change of the debounced label.
type LabelTransition struct {
	From Label
	To   Label
	At   time.Time
}

// Fix is one position report from the location provider. Optional values are nil
// when the provider did not report them.
type Fix struct {
	Latitude           float64
	Longitude          float64
	Altitude           float64
	Speed              *float64 // m/s
	SpeedAccuracy      *float64 // m/s, one sigma
	HorizontalAccuracy *float64 // meters
	Satellites         *int
	Age                time.Duration
	Timestamp          time.Time
}

// MovementState is the externally visible movement decision.
type MovementState struct {
	Moving        bool
	VehicleMoving bool
}

// Float returns a pointer to v, for populating optional Fix fields.
func Float(v float64) *float64 {
	return &v
}

// Int returns a pointer to v.
func Int(v int) *int {
	return &v
}

// Finite replaces NaN and infinities with zero.
func Finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
