package location

import (
	"math"

	"github.com/tphakala/drivesense/internal/errors"
	"github.com/tphakala/drivesense/internal/motion"
)

const componentLocation = "location"

func rejection(reason string) *errors.EnhancedError {
	return errors.New(errors.NewStd("fix rejected: "+reason)).
		Component(componentLocation).
		Category(errors.CategoryLocation).
		Context("reason", reason).
		Build()
}

// Rejection reasons. Each is also used as a metrics label via Reason.
var (
	ErrFixTooOld         = rejection("too_old")
	ErrFixInaccurate     = rejection("inaccurate")
	ErrTooFewSatellites  = rejection("too_few_satellites")
	ErrInvalidCoordinate = rejection("invalid_coordinate")
	ErrIntervalTooShort  = rejection("interval_too_short")
	ErrImplausibleSpeed  = rejection("implausible_speed")
	ErrImplausibleAccel  = rejection("implausible_acceleration")
	ErrNoSpeed           = rejection("no_speed")
	ErrDuplicateFix      = rejection("duplicate")
)

// Reason returns the short rejection reason carried by err, or "error".
func Reason(err error) string {
	var ee *errors.EnhancedError
	if errors.As(err, &ee) {
		if reason, ok := ee.GetContext()["reason"].(string); ok {
			return reason
		}
	}
	return "error"
}

// Admit applies the admission filter. Optional fields are checked only when
// reported.
func Admit(fix motion.Fix, cfg Config) error {
	if !validCoordinate(fix.Latitude, -90, 90) || !validCoordinate(fix.Longitude, -180, 180) {
		return ErrInvalidCoordinate
	}
	if fix.Age > cfg.MaxFixAge {
		return ErrFixTooOld
	}
	if fix.HorizontalAccuracy != nil && *fix.HorizontalAccuracy >= cfg.MaxAccuracy {
		return ErrFixInaccurate
	}
	if fix.Satellites != nil && *fix.Satellites < cfg.MinSatellites {
		return ErrTooFewSatellites
	}
	return nil
}

// sanitize replaces non-finite optional values: a non-finite speed becomes
// zero, non-finite accuracies are treated as not reported.
func sanitize(fix motion.Fix) motion.Fix {
	if fix.Speed != nil {
		fix.Speed = motion.Float(motion.Finite(*fix.Speed))
	}
	fix.SpeedAccuracy = finiteOrNil(fix.SpeedAccuracy)
	fix.HorizontalAccuracy = finiteOrNil(fix.HorizontalAccuracy)
	fix.Altitude = motion.Finite(fix.Altitude)
	return fix
}

func finiteOrNil(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	return v
}

func validCoordinate(v, lo, hi float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= lo && v <= hi
}
