// Package trigger runs the hybrid motion trigger: a low-power hardware trigger
// backed by a throttled fallback sampler whose labels pass a debounce filter
// before they become motion transitions. Sampling is paused after a period of
// inactivity and resumed later to re-poll.
package trigger

import (
	"time"

	"github.com/tphakala/drivesense/internal/detector"
	"github.com/tphakala/drivesense/internal/errors"
)

const componentTrigger = "trigger"

// StandardGravity is subtracted from raw accelerometer magnitudes when gravity
// compensation is enabled, m/s².
const StandardGravity = 9.80665

// throttleBurst lets a sample arriving slightly early through when the one
// before it was late. The processed rate still averages one per Throttle.
const throttleBurst = 2

// Config holds the controller timing parameters.
type Config struct {
	ArmTimeout  time.Duration // wait for the hardware trigger before falling back
	SampleRate  time.Duration // sampling period hint passed to the fallback sampler
	Throttle    time.Duration // average spacing between processed samples
	Debounce    time.Duration // a candidate label must persist this long
	Inactivity  time.Duration // pause sampling after this long without motion
	ResumeDelay time.Duration // restart sampling this long after a pause

	// GravityCompensation converts raw accelerometer magnitude to |m - g|.
	GravityCompensation bool

	// InboxSize bounds queued samples; samples beyond it are dropped.
	InboxSize int
}

// DefaultConfig returns the defaults for the spectral labeler.
func DefaultConfig() Config {
	return Config{
		ArmTimeout:  5 * time.Second,
		SampleRate:  100 * time.Millisecond,
		Throttle:    100 * time.Millisecond,
		Debounce:    2 * time.Second,
		Inactivity:  300 * time.Second,
		ResumeDelay: 300 * time.Second,
		InboxSize:   256,
	}
}

// RecommendedTiming returns the debounce and throttle intervals that suit the
// given labeler. The threshold labeler emits a signal per sample and needs a
// longer debounce with a coarser throttle.
func RecommendedTiming(kind detector.Kind) (debounce, throttle time.Duration) {
	if kind == detector.KindThreshold {
		return 10 * time.Second, time.Second
	}
	d := DefaultConfig()
	return d.Debounce, d.Throttle
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	var problems []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, errors.Newf(format, args...).
				Component(componentTrigger).
				Category(errors.CategoryConfiguration).
				Build())
		}
	}
	check(c.ArmTimeout > 0, "arm timeout must be positive, got %v", c.ArmTimeout)
	check(c.SampleRate > 0, "sample rate must be positive, got %v", c.SampleRate)
	check(c.Throttle >= 0, "throttle must not be negative, got %v", c.Throttle)
	check(c.Debounce > 0, "debounce must be positive, got %v", c.Debounce)
	check(c.Inactivity > 0, "inactivity timeout must be positive, got %v", c.Inactivity)
	check(c.ResumeDelay > 0, "resume delay must be positive, got %v", c.ResumeDelay)
	check(c.InboxSize > 0, "inbox size must be positive, got %d", c.InboxSize)
	return errors.Join(problems...)
}
