// Package session composes the trigger controller, the location processor
// and the movement state resolver into one monitoring session.
package session

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/tphakala/drivesense/internal/clock"
	"github.com/tphakala/drivesense/internal/conf"
	"github.com/tphakala/drivesense/internal/detector"
	"github.com/tphakala/drivesense/internal/errors"
	"github.com/tphakala/drivesense/internal/events"
	"github.com/tphakala/drivesense/internal/location"
	"github.com/tphakala/drivesense/internal/logger"
	"github.com/tphakala/drivesense/internal/motion"
	"github.com/tphakala/drivesense/internal/observability"
	"github.com/tphakala/drivesense/internal/observability/metrics"
	"github.com/tphakala/drivesense/internal/resolver"
	"github.com/tphakala/drivesense/internal/trigger"
)

// Sensors are the platform collaborators. Any of them may be nil.
type Sensors struct {
	Trigger  trigger.HardwareTrigger
	Sampler  trigger.MotionSampler
	Location location.Provider
	Clock    clock.Clock
}

// Monitor owns one set of components. Start begins a session with a fresh
// ID and cleared per-session state; Stop ends it. A monitor can run many
// sessions in turn.
type Monitor struct {
	resolver   *resolver.Resolver
	processor  *location.Processor
	controller *trigger.Controller
	log        logger.Logger

	mu        sync.Mutex
	running   bool
	sessionID string
	unsub     []func()
	closed    bool
}

// New builds the components from settings. m may be nil to disable metrics.
func New(settings *conf.Settings, sensors Sensors, m *observability.Metrics) (*Monitor, error) {
	var (
		triggerMetrics  *metrics.TriggerMetrics
		locationMetrics *metrics.LocationMetrics
		resolverMetrics *metrics.ResolverMetrics
		runtimeMetrics  *metrics.RuntimeMetrics
	)
	if m != nil {
		triggerMetrics, locationMetrics = m.Trigger, m.Location
		resolverMetrics, runtimeMetrics = m.Resolver, m.Runtime
	}

	res, err := resolver.New(settings.ResolverThresholds(), resolverMetrics)
	if err != nil {
		return nil, err
	}

	processor, err := location.NewProcessor(settings.LocationConfig(), sensors.Location, res, locationMetrics)
	if err != nil {
		res.Close()
		return nil, err
	}

	labeler, err := detector.New(settings.DetectorKind(), settings.SpectralConfig(), settings.ThresholdConfig())
	if err != nil {
		res.Close()
		return nil, err
	}

	controller, err := trigger.NewController(settings.TriggerConfig(), trigger.Deps{
		Trigger: sensors.Trigger,
		Sampler: sensors.Sampler,
		Labeler: labeler,
		Sink:    res,
		Clock:   sensors.Clock,
		Metrics: triggerMetrics,
	})
	if err != nil {
		res.Close()
		return nil, err
	}

	watchDrops(runtimeMetrics, res.Bus())
	watchDrops(runtimeMetrics, controller.MotionEvents())
	watchDrops(runtimeMetrics, controller.Transitions())
	watchDrops(runtimeMetrics, controller.Classifications())

	mon := &Monitor{
		resolver:   res,
		processor:  processor,
		controller: controller,
		log:        logger.Global().Module("session"),
	}

	// the location polling interval follows the aggregate state
	mon.unsub = append(mon.unsub, res.Subscribe(func(change resolver.StateChange) {
		processor.SetMoving(change.Current.Moving)
	}))

	return mon, nil
}

func watchDrops[T any](m *metrics.RuntimeMetrics, bus *events.Bus[T]) {
	if hook := m.BusDropHook(bus.Name()); hook != nil {
		bus.OnDrop(hook)
	}
}

// Start begins a new session. Missing sensors are logged and the session
// continues with whatever remains.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return errors.Newf("monitor is closed").
			Component("session").
			Category(errors.CategoryState).
			Build()
	}
	if m.running {
		return nil
	}

	m.sessionID = uuid.New().String()
	scoped := func(module string) logger.Logger {
		return logger.Global().Module(module).With(logger.String("session_id", m.sessionID))
	}
	log := scoped("session")
	m.log = log
	m.resolver.SetLogger(scoped("resolver"))
	m.processor.SetLogger(scoped("location"))
	m.controller.SetLogger(scoped("trigger"))

	m.resolver.Reset()

	if err := m.processor.Start(); err != nil {
		if !errors.IsCategory(err, errors.CategorySensor) {
			return err
		}
		log.Warn("continuing without location speed", logger.Error(err))
	}
	if err := m.controller.Start(logger.WithSessionID(ctx, m.sessionID)); err != nil {
		_ = m.processor.Stop()
		return err
	}

	m.running = true
	log.Info("monitoring session started")
	return nil
}

// Stop ends the session. It is idempotent.
func (m *Monitor) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopLocked()
}

func (m *Monitor) stopLocked() error {
	if !m.running {
		return nil
	}
	m.running = false

	err := errors.Join(m.controller.Stop(), m.processor.Stop())
	m.log.Info("monitoring session stopped",
		logger.Bool("moving", m.resolver.State().Moving))
	// session latches do not outlive the session
	m.resolver.Reset()
	return err
}

// Close stops the session and releases the event buses. It must not be
// called from an observer callback.
func (m *Monitor) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	err := m.stopLocked()
	m.closed = true
	unsub := m.unsub
	m.unsub = nil
	m.mu.Unlock()

	for _, fn := range unsub {
		fn()
	}
	err = errors.Join(err, m.controller.Close())
	m.resolver.Close()
	return err
}

// SessionID returns the ID of the current or last session.
func (m *Monitor) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// Running reports whether a session is active.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// State returns the aggregate movement state.
func (m *Monitor) State() motion.MovementState {
	return m.resolver.State()
}

// SetVehicleSignal records an explicit vehicle signal such as a car
// hands-free connection.
func (m *Monitor) SetVehicleSignal(on bool) {
	m.resolver.SetExplicitVehicle(on)
}

// Subscribe observes aggregate movement state changes.
func (m *Monitor) Subscribe(fn func(resolver.StateChange)) (unsubscribe func()) {
	return m.resolver.Subscribe(fn)
}

// SubscribeTransitions observes confirmed motion label transitions.
func (m *Monitor) SubscribeTransitions(fn func(motion.LabelTransition)) (unsubscribe func()) {
	return m.controller.Transitions().Subscribe(fn)
}

// SubscribeClassifications observes every spectral window result.
func (m *Monitor) SubscribeClassifications(fn func(motion.ClassificationResult)) (unsubscribe func()) {
	return m.controller.Classifications().Subscribe(fn)
}

// AddMotionListener registers for motion detected and stopped callbacks.
func (m *Monitor) AddMotionListener(l trigger.MotionListener) (remove func()) {
	return m.controller.AddListener(l)
}

// Controller returns the trigger controller.
func (m *Monitor) Controller() *trigger.Controller {
	return m.controller
}

// Processor returns the location processor.
func (m *Monitor) Processor() *location.Processor {
	return m.processor
}

// Resolver returns the movement state resolver.
func (m *Monitor) Resolver() *resolver.Resolver {
	return m.resolver
}
