package trigger

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tphakala/drivesense/internal/clock"
	"github.com/tphakala/drivesense/internal/detector"
	"github.com/tphakala/drivesense/internal/errors"
	"github.com/tphakala/drivesense/internal/events"
	"github.com/tphakala/drivesense/internal/logger"
	"github.com/tphakala/drivesense/internal/motion"
	"github.com/tphakala/drivesense/internal/observability/metrics"
)

// SamplerState describes the fallback sampler.
type SamplerState int

const (
	SamplerStopped SamplerState = iota
	SamplerRunning
	SamplerPaused
)

func (s SamplerState) String() string {
	switch s {
	case SamplerRunning:
		return "running"
	case SamplerPaused:
		return "paused"
	default:
		return "stopped"
	}
}

func (s SamplerState) gauge() int {
	switch s {
	case SamplerRunning:
		return metrics.SamplerRunning
	case SamplerPaused:
		return metrics.SamplerPaused
	default:
		return metrics.SamplerStopped
	}
}

// MotionEvent is published when the debounced label crosses between moving
// and not moving.
type MotionEvent struct {
	Moving     bool
	Transition motion.LabelTransition
}

// Status is a snapshot of the controller for diagnostics.
type Status struct {
	Running      bool
	Degraded     bool
	TriggerArmed bool
	Sampler      SamplerState
	State        motion.DebouncedState
	Candidate    motion.Label
}

// Deps are the controller collaborators. Trigger, Sampler and Sink may be nil.
type Deps struct {
	Trigger HardwareTrigger
	Sampler MotionSampler
	Labeler detector.Labeler
	Sink    StateSink
	Clock   clock.Clock
	Metrics *metrics.TriggerMetrics
}

type eventKind int

const (
	evSample eventKind = iota
	evTrigger
	evArmTimeout
	evDebounce
	evInactivity
	evResume
	evSync
)

type event struct {
	kind   eventKind
	sample motion.Sample
	gen    uint64
	done   chan struct{}
}

// timerSlot holds the one pending timer of a kind. Arming bumps the
// generation so a stale expiry already queued in the inbox is ignored.
type timerSlot struct {
	gen   uint64
	timer clock.Timer
}

func (s *timerSlot) stop() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
}

// Controller is the hybrid motion trigger. All state transitions happen on
// a single loop goroutine fed by one inbox; sensor callbacks and timer
// expiries only post events to it. Listeners are invoked from event bus
// goroutines, so they may call Stop.
type Controller struct {
	cfg     Config
	trigger HardwareTrigger
	sampler MotionSampler
	labeler detector.Labeler
	sink    StateSink
	clock   clock.Clock
	metrics *metrics.TriggerMetrics
	log     logger.Logger

	motionBus      *events.Bus[MotionEvent]
	transitionBus  *events.Bus[motion.LabelTransition]
	classifyBus    *events.Bus[motion.ClassificationResult]
	lifecycle      sync.Mutex
	running        bool
	cancel         context.CancelFunc
	done           chan struct{}
	statusMu       sync.Mutex
	status         Status
	closeOnce      sync.Once
	degradedLogged bool

	// loop-owned
	ctx          context.Context
	inbox        chan event
	limiter      *rate.Limiter
	debouncer    *Debouncer
	moving       bool
	triggerArmed bool
	samplerState SamplerState
	armTimer     timerSlot
	debounceTmr  timerSlot
	inactiveTmr  timerSlot
	resumeTmr    timerSlot
}

// NewController creates a stopped controller.
func NewController(cfg Config, deps Deps) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Labeler == nil {
		return nil, errors.Newf("labeler is required").
			Component(componentTrigger).
			Category(errors.CategoryConfiguration).
			Build()
	}
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}

	return &Controller{
		cfg:           cfg,
		trigger:       deps.Trigger,
		sampler:       deps.Sampler,
		labeler:       deps.Labeler,
		sink:          deps.Sink,
		clock:         deps.Clock,
		metrics:       deps.Metrics,
		log:           logger.Global().Module(componentTrigger),
		motionBus:     events.NewBus[MotionEvent]("motion", events.DefaultBufferSize),
		transitionBus: events.NewBus[motion.LabelTransition]("label-transitions", events.DefaultBufferSize),
		classifyBus:   events.NewBus[motion.ClassificationResult]("classifications", events.DefaultBufferSize),
		debouncer:     NewDebouncer(deps.Clock.Now()),
	}, nil
}

// SetLogger replaces the controller logger. Call before Start.
func (c *Controller) SetLogger(l logger.Logger) {
	c.log = l
}

// AddListener registers a motion listener and returns a function that
// removes it.
func (c *Controller) AddListener(l MotionListener) (remove func()) {
	return c.motionBus.Subscribe(func(ev MotionEvent) {
		if ev.Moving {
			l.OnMotionDetected()
		} else {
			l.OnMotionStopped()
		}
	})
}

// MotionEvents returns the bus carrying moving/not-moving changes.
func (c *Controller) MotionEvents() *events.Bus[MotionEvent] {
	return c.motionBus
}

// Transitions returns the bus carrying every confirmed label transition.
func (c *Controller) Transitions() *events.Bus[motion.LabelTransition] {
	return c.transitionBus
}

// Classifications returns the bus carrying every spectral window result.
func (c *Controller) Classifications() *events.Bus[motion.ClassificationResult] {
	return c.classifyBus
}

// Status returns a snapshot of the controller.
func (c *Controller) Status() Status {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	return c.status
}

// State returns the committed debounced state.
func (c *Controller) State() motion.DebouncedState {
	return c.Status().State
}

// Start arms the hardware trigger, or starts the fallback sampler when no
// trigger can be armed. With neither collaborator the controller runs in
// degraded mode and never reports a transition. Calling Start on a running
// controller does nothing.
func (c *Controller) Start(ctx context.Context) error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	if c.running {
		return nil
	}

	if c.trigger == nil && c.sampler == nil {
		c.log.Warn("no hardware trigger and no fallback sampler, motion state stays unknown",
			logger.String("mode", "degraded"))
		c.setStatus(func(s *Status) { s.Degraded = true })
		return nil
	}

	loopCtx, cancel := context.WithCancel(ctx)
	c.ctx = loopCtx
	c.inbox = make(chan event, c.cfg.InboxSize)
	c.cancel = cancel
	c.done = make(chan struct{})
	c.running = true

	inbox := c.inbox
	if c.sampler != nil {
		c.sampler.OnSample(func(s motion.Sample) {
			select {
			case inbox <- event{kind: evSample, sample: s}:
			default:
				c.metrics.RecordSample(metrics.OutcomeDropped)
			}
		})
	}
	if c.trigger != nil {
		c.trigger.OnTrigger(func() {
			c.post(loopCtx, inbox, event{kind: evTrigger})
		})
	}

	go c.run(loopCtx, c.done)
	return nil
}

// Stop cancels every timer, unregisters the sensor callbacks and stops the
// sampler. It is idempotent and may be called from a motion listener.
func (c *Controller) Stop() error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	if !c.running {
		return nil
	}
	c.running = false
	c.cancel()
	<-c.done

	var errs []error
	if c.trigger != nil {
		c.trigger.OnTrigger(nil)
		if c.triggerArmed {
			c.trigger.Disarm()
			c.triggerArmed = false
		}
	}
	if c.sampler != nil {
		c.sampler.OnSample(nil)
		if c.samplerState == SamplerRunning {
			if err := c.sampler.Stop(); err != nil {
				errs = append(errs, errors.New(err).
					Component(componentTrigger).
					Category(errors.CategorySensor).
					Context("operation", "stop_sampler").
					Build())
			}
		}
		c.samplerState = SamplerStopped
		c.metrics.SetSamplerState(SamplerStopped.gauge())
	}

	c.setStatus(func(s *Status) {
		s.Running = false
		s.TriggerArmed = false
		s.Sampler = SamplerStopped
	})
	c.log.Info("motion trigger stopped")
	return errors.Join(errs...)
}

// Close stops the controller and shuts down its event buses. It must not be
// called from a listener.
func (c *Controller) Close() error {
	err := c.Stop()
	c.closeOnce.Do(func() {
		c.motionBus.Close()
		c.transitionBus.Close()
		c.classifyBus.Close()
	})
	return err
}

func (c *Controller) post(ctx context.Context, inbox chan<- event, ev event) bool {
	select {
	case inbox <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// Sync waits until every event queued before the call has been handled. It
// returns false when the controller is not running. Deterministic replays use
// it between clock advances.
func (c *Controller) Sync(ctx context.Context) bool {
	c.lifecycle.Lock()
	if !c.running {
		c.lifecycle.Unlock()
		return false
	}
	loopCtx, inbox := c.ctx, c.inbox
	c.lifecycle.Unlock()

	done := make(chan struct{})
	if !c.post(loopCtx, inbox, event{kind: evSync, done: done}) {
		return false
	}
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	case <-loopCtx.Done():
		return false
	}
}

func (c *Controller) run(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	c.begin()

	for {
		select {
		case <-ctx.Done():
			c.armTimer.stop()
			c.debounceTmr.stop()
			c.inactiveTmr.stop()
			c.resumeTmr.stop()
			return
		case ev := <-c.inbox:
			c.handle(ev)
		}
	}
}

func (c *Controller) begin() {
	now := c.clock.Now()
	c.debouncer.Reset(now)
	c.labeler.Reset()
	c.limiter = rate.NewLimiter(rate.Every(c.cfg.Throttle), throttleBurst)
	c.moving = false
	c.triggerArmed = false
	c.samplerState = SamplerStopped

	c.setStatus(func(s *Status) {
		*s = Status{Running: true, State: c.debouncer.State()}
	})

	if c.trigger != nil && c.trigger.TryArm() {
		c.triggerArmed = true
		c.arm(&c.armTimer, evArmTimeout, c.cfg.ArmTimeout)
		c.log.Info("hardware motion trigger armed",
			logger.Duration("arm_timeout", c.cfg.ArmTimeout))
	} else {
		c.startSampler("hardware trigger unavailable")
	}
	c.arm(&c.inactiveTmr, evInactivity, c.cfg.Inactivity)
	c.publishStatus()
}

func (c *Controller) handle(ev event) {
	switch ev.kind {
	case evSample:
		c.onSample(ev.sample)
	case evTrigger:
		c.onTrigger()
	case evArmTimeout:
		if ev.gen == c.armTimer.gen && c.triggerArmed {
			c.startSampler("no hardware trigger within arm timeout")
		}
	case evDebounce:
		if ev.gen == c.debounceTmr.gen {
			c.confirm()
		}
	case evInactivity:
		if ev.gen == c.inactiveTmr.gen {
			c.onInactivity()
		}
	case evResume:
		if ev.gen == c.resumeTmr.gen && c.samplerState == SamplerPaused {
			c.resumeSampler("resume delay elapsed")
		}
	case evSync:
		close(ev.done)
		return
	}
	c.publishStatus()
}

func (c *Controller) arm(slot *timerSlot, kind eventKind, d time.Duration) {
	slot.stop()
	gen := slot.gen
	ctx, inbox := c.ctx, c.inbox
	slot.timer = c.clock.AfterFunc(d, func() {
		c.post(ctx, inbox, event{kind: kind, gen: gen})
	})
}

func (c *Controller) onSample(s motion.Sample) {
	if c.samplerState != SamplerRunning {
		// late delivery after the sampler was paused
		c.metrics.RecordSample(metrics.OutcomeDropped)
		return
	}

	at := s.Timestamp
	if at.IsZero() {
		at = c.clock.Now()
	}
	if !c.limiter.AllowN(at, 1) {
		c.metrics.RecordSample(metrics.OutcomeThrottled)
		return
	}
	c.metrics.RecordSample(metrics.OutcomeProcessed)

	mag := motion.Finite(s.Magnitude)
	if c.cfg.GravityCompensation {
		mag = math.Abs(mag - StandardGravity)
	}
	if c.sink != nil {
		c.sink.UpdateMagnitude(mag)
	}

	sig, ok := c.labeler.Observe(motion.Sample{Magnitude: mag, Timestamp: at})
	if !ok {
		return
	}
	if sig.Result != nil {
		c.metrics.RecordWindowEnergy(sig.Result.Energy)
		c.classifyBus.TryPublish(*sig.Result)
		c.log.Debug("window classified",
			logger.String("label", sig.Label.String()),
			logger.Float64("energy", sig.Result.Energy),
			logger.Float64("dominant_frequency_hz", sig.Result.DominantFrequency),
			logger.Float64("entropy", sig.Result.Entropy))
	}
	c.signal(sig.Label)
}

func (c *Controller) onTrigger() {
	c.metrics.RecordHardwareTrigger()
	c.triggerArmed = false
	c.armTimer.stop()
	c.log.Info("hardware motion trigger fired",
		logger.String("sampler", c.samplerState.String()))

	if c.samplerState == SamplerRunning {
		// sampler labels stay authoritative; the trigger only counts as activity
		c.touch()
	} else {
		c.signal(motion.Vehicle)
	}

	if c.samplerState == SamplerPaused {
		c.resumeSampler("hardware trigger fired")
	}
	if c.trigger.TryArm() {
		c.triggerArmed = true
	} else {
		c.log.Warn("hardware motion trigger could not be re-armed")
	}
}

// signal feeds one raw label through the debouncer.
func (c *Controller) signal(label motion.Label) {
	c.metrics.RecordSignal(label.String())
	if label.IsMoving() {
		c.touch()
	}

	switch c.debouncer.Observe(label) {
	case ActionArm:
		c.arm(&c.debounceTmr, evDebounce, c.cfg.Debounce)
	case ActionCancel:
		c.debounceTmr.stop()
	case ActionNone:
	}
}

func (c *Controller) confirm() {
	tr, ok := c.debouncer.Confirm(c.clock.Now())
	if !ok {
		return
	}
	c.debounceTmr.timer = nil

	c.metrics.RecordTransition(tr.From.String(), tr.To.String())
	c.log.Info("motion label confirmed",
		logger.String("from", tr.From.String()),
		logger.String("to", tr.To.String()))

	if c.sink != nil {
		c.sink.UpdateLabel(tr.To)
	}
	c.transitionBus.TryPublish(tr)
	c.touch()

	if moving := tr.To.IsMoving(); moving != c.moving {
		c.moving = moving
		c.motionBus.TryPublish(MotionEvent{Moving: moving, Transition: tr})
	}
}

// touch records activity and pushes the inactivity deadline out.
func (c *Controller) touch() {
	if c.samplerState == SamplerPaused {
		return
	}
	c.arm(&c.inactiveTmr, evInactivity, c.cfg.Inactivity)
}

func (c *Controller) onInactivity() {
	c.inactiveTmr.timer = nil
	switch {
	case c.samplerState == SamplerRunning:
		if err := c.sampler.Stop(); err != nil {
			c.log.Warn("failed to pause fallback sampler", logger.Error(err))
		}
		c.samplerState = SamplerPaused
		c.labeler.Reset()
		c.metrics.RecordPause()
		c.metrics.SetSamplerState(SamplerPaused.gauge())
		c.arm(&c.resumeTmr, evResume, c.cfg.ResumeDelay)
		c.log.Info("fallback sampler paused after inactivity",
			logger.Duration("inactivity", c.cfg.Inactivity),
			logger.Duration("resume_delay", c.cfg.ResumeDelay))
	case c.samplerState == SamplerStopped && c.sampler != nil:
		// only the hardware trigger has been listening; sample to confirm
		// whether motion has ended
		c.startSampler("re-poll after inactivity")
		c.arm(&c.inactiveTmr, evInactivity, c.cfg.Inactivity)
	default:
		c.arm(&c.inactiveTmr, evInactivity, c.cfg.Inactivity)
	}
}

func (c *Controller) resumeSampler(reason string) {
	c.resumeTmr.stop()
	c.samplerState = SamplerStopped
	c.startSampler(reason)
	c.arm(&c.inactiveTmr, evInactivity, c.cfg.Inactivity)
}

func (c *Controller) startSampler(reason string) {
	if c.samplerState == SamplerRunning {
		return
	}
	if c.sampler == nil {
		if !c.triggerArmed && !c.degradedLogged {
			c.degradedLogged = true
			c.log.Warn("fallback sampler unavailable and hardware trigger not armed",
				logger.String("mode", "degraded"),
				logger.String("reason", reason))
		}
		return
	}

	if err := c.sampler.Start(c.cfg.SampleRate); err != nil {
		enhanced := errors.New(err).
			Component(componentTrigger).
			Category(errors.CategorySensor).
			Context("operation", "start_sampler").
			Context("reason", reason).
			Build()
		c.log.Warn("fallback sampler failed to start", logger.Error(enhanced))
		return
	}

	c.samplerState = SamplerRunning
	c.labeler.Reset()
	c.metrics.SetSamplerState(SamplerRunning.gauge())
	c.log.Info("fallback sampler started",
		logger.String("reason", reason),
		logger.String("labeler", string(c.labeler.Kind())),
		logger.Duration("period", c.cfg.SampleRate),
		logger.Duration("throttle", c.cfg.Throttle))
}

func (c *Controller) publishStatus() {
	candidate, _ := c.debouncer.Candidate()
	c.setStatus(func(s *Status) {
		s.Running = true
		s.TriggerArmed = c.triggerArmed
		s.Sampler = c.samplerState
		s.State = c.debouncer.State()
		s.Candidate = candidate
	})
}

func (c *Controller) setStatus(apply func(*Status)) {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	apply(&c.status)
}
