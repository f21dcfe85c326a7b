package trigger

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/tphakala/drivesense/internal/detector"
	"github.com/tphakala/drivesense/internal/motion"
)

type fakeTrigger struct {
	armable atomic.Bool
	arms    atomic.Int32
	disarms atomic.Int32

	mu    sync.Mutex
	cb    func()
	armed bool
}

func newFakeTrigger(armable bool) *fakeTrigger {
	f := &fakeTrigger{}
	f.armable.Store(armable)
	return f
}

func (f *fakeTrigger) TryArm() bool {
	f.arms.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.armed = f.armable.Load()
	return f.armed
}

func (f *fakeTrigger) OnTrigger(cb func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cb = cb
}

func (f *fakeTrigger) Disarm() {
	f.disarms.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.armed = false
}

// Fire delivers one trigger event if armed; single shot.
func (f *fakeTrigger) Fire() bool {
	f.mu.Lock()
	cb, armed := f.cb, f.armed
	f.armed = false
	f.mu.Unlock()
	if !armed || cb == nil {
		return false
	}
	cb()
	return true
}

func (f *fakeTrigger) registered() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cb != nil
}

type fakeSampler struct {
	starts atomic.Int32
	stops  atomic.Int32

	mu       sync.Mutex
	cb       func(motion.Sample)
	running  bool
	period   time.Duration
	startErr error
}

func (f *fakeSampler) Start(period time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.starts.Add(1)
	f.running = true
	f.period = period
	return nil
}

func (f *fakeSampler) Stop() error {
	f.stops.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = false
	return nil
}

func (f *fakeSampler) OnSample(cb func(motion.Sample)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cb = cb
}

// Emit delivers s when the sampler is running.
func (f *fakeSampler) Emit(s motion.Sample) bool {
	f.mu.Lock()
	cb, running := f.cb, f.running
	f.mu.Unlock()
	if !running || cb == nil {
		return false
	}
	cb(s)
	return true
}

func (f *fakeSampler) isRunning() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *fakeSampler) registered() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cb != nil
}

type recordingSink struct {
	mu     sync.Mutex
	labels []motion.Label
	mags   []float64
}

func (r *recordingSink) UpdateLabel(l motion.Label) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.labels = append(r.labels, l)
}

func (r *recordingSink) UpdateMagnitude(m float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mags = append(r.mags, m)
}

func (r *recordingSink) snapshot() ([]motion.Label, []float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]motion.Label(nil), r.labels...), append([]float64(nil), r.mags...)
}

type countingListener struct {
	detected atomic.Int32
	stopped  atomic.Int32
}

func (l *countingListener) OnMotionDetected() { l.detected.Add(1) }
func (l *countingListener) OnMotionStopped()  { l.stopped.Add(1) }

// fixedLabeler labels every sample with the same label.
type fixedLabeler struct {
	label motion.Label
}

func (l fixedLabeler) Observe(motion.Sample) (detector.Signal, bool) {
	return detector.Signal{Label: l.label}, true
}

func (fixedLabeler) Reset() {}

func (fixedLabeler) Kind() detector.Kind { return detector.KindThreshold }
