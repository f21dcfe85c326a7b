package trace

import (
	"sync"
	"time"

	"github.com/tphakala/drivesense/internal/errors"
	"github.com/tphakala/drivesense/internal/motion"
)

// ErrSensorUnavailable is returned by replay sensors created as absent.
var ErrSensorUnavailable = errors.NewStd("sensor unavailable")

// Trigger is a replayed single-shot hardware trigger.
type Trigger struct {
	mu        sync.Mutex
	available bool
	armed     bool
	callback  func()
	arms      int
}

// NewTrigger creates a trigger. An unavailable trigger never arms.
func NewTrigger(available bool) *Trigger {
	return &Trigger{available: available}
}

// TryArm arms the trigger when it is available.
func (t *Trigger) TryArm() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.arms++
	t.armed = t.available
	return t.armed
}

// OnTrigger sets the callback; nil unregisters it.
func (t *Trigger) OnTrigger(callback func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.callback = callback
}

// Disarm cancels a pending trigger.
func (t *Trigger) Disarm() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.armed = false
}

// Fire delivers a trigger event. Like the hardware it disarms itself, and an
// event arriving while disarmed is lost.
func (t *Trigger) Fire() bool {
	t.mu.Lock()
	callback, armed := t.callback, t.armed
	t.armed = false
	t.mu.Unlock()

	if !armed || callback == nil {
		return false
	}
	callback()
	return true
}

// Arms returns how many times TryArm was called.
func (t *Trigger) Arms() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.arms
}

// Sampler is a replayed acceleration sampler.
type Sampler struct {
	mu        sync.Mutex
	available bool
	running   bool
	period    time.Duration
	callback  func(motion.Sample)
	starts    int
}

// NewSampler creates a sampler. An unavailable sampler fails to start.
func NewSampler(available bool) *Sampler {
	return &Sampler{available: available}
}

// Start begins accepting samples.
func (s *Sampler) Start(period time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.available {
		return ErrSensorUnavailable
	}
	s.running = true
	s.period = period
	s.starts++
	return nil
}

// Stop stops accepting samples.
func (s *Sampler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	return nil
}

// OnSample sets the callback; nil unregisters it.
func (s *Sampler) OnSample(callback func(motion.Sample)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callback = callback
}

// Emit delivers a sample while running. Samples recorded while the sampler
// was stopped are discarded, as the sensor would not have produced them.
func (s *Sampler) Emit(sample motion.Sample) bool {
	s.mu.Lock()
	callback, running := s.callback, s.running
	s.mu.Unlock()

	if !running || callback == nil {
		return false
	}
	callback(sample)
	return true
}

// Running reports whether the sampler is started.
func (s *Sampler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Starts returns how many times the sampler was started.
func (s *Sampler) Starts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.starts
}

// LocationProvider is a replayed location source.
type LocationProvider struct {
	mu        sync.Mutex
	running   bool
	callback  func(motion.Fix)
	intervals []time.Duration
}

// NewLocationProvider creates a location provider.
func NewLocationProvider() *LocationProvider {
	return &LocationProvider{}
}

// Start begins accepting fixes and records the requested interval.
func (l *LocationProvider) Start(interval time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.running = true
	l.intervals = append(l.intervals, interval)
	return nil
}

// Stop stops accepting fixes.
func (l *LocationProvider) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.running = false
	return nil
}

// OnFix sets the callback; nil unregisters it.
func (l *LocationProvider) OnFix(callback func(motion.Fix)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.callback = callback
}

// Emit delivers a fix while running. Recorded fixes are replayed as they
// were captured regardless of the requested interval.
func (l *LocationProvider) Emit(fix motion.Fix) bool {
	l.mu.Lock()
	callback, running := l.callback, l.running
	l.mu.Unlock()

	if !running || callback == nil {
		return false
	}
	callback(fix)
	return true
}

// Intervals returns every interval passed to Start.
func (l *LocationProvider) Intervals() []time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]time.Duration(nil), l.intervals...)
}
