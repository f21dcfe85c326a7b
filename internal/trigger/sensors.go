package trigger

import (
	"time"

	"github.com/tphakala/drivesense/internal/motion"
)

// HardwareTrigger is a single-shot, low-power motion trigger. After it fires
// it must be armed again. The callback must be invoked from the trigger's own
// goroutine, never from within TryArm.
type HardwareTrigger interface {
	TryArm() bool
	OnTrigger(callback func())
	Disarm()
}

// MotionSampler delivers acceleration magnitudes at roughly the requested
// period. OnSample(nil) unregisters the callback.
type MotionSampler interface {
	Start(period time.Duration) error
	Stop() error
	OnSample(callback func(motion.Sample))
}

// StateSink receives debounced labels and raw magnitudes. The movement state
// resolver implements it.
type StateSink interface {
	UpdateLabel(label motion.Label)
	UpdateMagnitude(magnitude float64)
}

// MotionListener is told when the device starts or stops moving. Each
// callback corresponds to one confirmed transition.
type MotionListener interface {
	OnMotionDetected()
	OnMotionStopped()
}

// ListenerFuncs adapts two functions to MotionListener. Nil fields are skipped.
type ListenerFuncs struct {
	Detected func()
	Stopped  func()
}

// OnMotionDetected calls Detected.
func (f ListenerFuncs) OnMotionDetected() {
	if f.Detected != nil {
		f.Detected()
	}
}

// OnMotionStopped calls Stopped.
func (f ListenerFuncs) OnMotionStopped() {
	if f.Stopped != nil {
		f.Stopped()
	}
}
