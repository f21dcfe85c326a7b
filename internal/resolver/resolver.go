package resolver

import (
	"sync"

	"github.com/tphakala/drivesense/internal/events"
	"github.com/tphakala/drivesense/internal/logger"
	"github.com/tphakala/drivesense/internal/motion"
	"github.com/tphakala/drivesense/internal/observability/metrics"
)

// StateChange is published whenever the resolved state differs from the
// previous one.
type StateChange struct {
	Previous motion.MovementState
	Current  motion.MovementState
	Inputs   Inputs
}

// Resolver is the single owner of the aggregate movement state. All four
// inputs and the state live behind one lock, so every recomputation sees a
// consistent snapshot.
type Resolver struct {
	th      Thresholds
	bus     *events.Bus[StateChange]
	metrics *metrics.ResolverMetrics
	log     logger.Logger

	mu       sync.Mutex
	inputs   Inputs
	decision Decision
}

// New creates a resolver.
func New(th Thresholds, m *metrics.ResolverMetrics) (*Resolver, error) {
	if err := th.Validate(); err != nil {
		return nil, err
	}
	return &Resolver{
		th:      th,
		bus:     events.NewBus[StateChange]("resolver", events.DefaultBufferSize),
		metrics: m,
		log:     logger.Global().Module("resolver"),
	}, nil
}

// SetLogger replaces the resolver logger.
func (r *Resolver) SetLogger(l logger.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = l
}

// Bus returns the state change bus.
func (r *Resolver) Bus() *events.Bus[StateChange] {
	return r.bus
}

// Subscribe registers an observer of state changes.
func (r *Resolver) Subscribe(handler func(StateChange)) (unsubscribe func()) {
	return r.bus.Subscribe(handler)
}

// UpdateLabel records the debounced motion label. Unknown carries no
// information and is ignored.
func (r *Resolver) UpdateLabel(label motion.Label) {
	if label == motion.Unknown {
		return
	}
	r.update(func(in *Inputs) { in.Label = label })
}

// UpdateMagnitude records the latest raw acceleration magnitude.
func (r *Resolver) UpdateMagnitude(magnitude float64) {
	magnitude = motion.Finite(magnitude)
	r.update(func(in *Inputs) { in.Magnitude = magnitude })
}

// UpdateSpeed records the latest filtered speed.
func (r *Resolver) UpdateSpeed(speed float64) {
	speed = max(motion.Finite(speed), 0)
	r.update(func(in *Inputs) { in.Speed = speed })
}

// SetExplicitVehicle records an external vehicle signal, such as a
// connection to the car's hands-free system.
func (r *Resolver) SetExplicitVehicle(on bool) {
	r.update(func(in *Inputs) { in.ExplicitVehicle = on })
}

// State returns the current aggregate state.
func (r *Resolver) State() motion.MovementState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.decision.State
}

// Snapshot returns the current inputs and decision together.
func (r *Resolver) Snapshot() (Inputs, Decision) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inputs, r.decision
}

// Reset clears all inputs, as at the start of a monitoring session. A state
// change is published if the state was not already idle.
func (r *Resolver) Reset() {
	r.update(func(in *Inputs) { *in = Inputs{} })
}

// Close shuts down the state change bus.
func (r *Resolver) Close() {
	r.bus.Close()
}

func (r *Resolver) update(apply func(*Inputs)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	apply(&r.inputs)
	previous := r.decision.State
	r.decision = Decide(r.inputs, r.th)
	current := r.decision.State

	changedMoving := previous.Moving != current.Moving
	changedVehicle := previous.VehicleMoving != current.VehicleMoving
	r.metrics.RecordRecompute(current.Moving, current.VehicleMoving, changedMoving, changedVehicle)

	if !changedMoving && !changedVehicle {
		return
	}

	r.log.Info("movement state changed",
		logger.Bool("moving", current.Moving),
		logger.Bool("vehicle_moving", current.VehicleMoving),
		logger.String("label", r.inputs.Label.String()),
		logger.Float64("speed_mps", r.inputs.Speed),
		logger.Float64("magnitude", r.inputs.Magnitude),
		logger.Bool("explicit_vehicle", r.inputs.ExplicitVehicle))

	r.bus.TryPublish(StateChange{Previous: previous, Current: current, Inputs: r.inputs})
}
