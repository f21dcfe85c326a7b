package location

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"github.com/tphakala/drivesense/internal/errors"
	"github.com/tphakala/drivesense/internal/logger"
	"github.com/tphakala/drivesense/internal/motion"
	"github.com/tphakala/drivesense/internal/observability/metrics"
)

// Provider is the platform location source. Start may be called again while
// running to change the polling interval. OnFix(nil) unregisters the callback.
// Fixes must be delivered from the provider's own goroutine, never from
// within Start or Stop.
type Provider interface {
	Start(interval time.Duration) error
	Stop() error
	OnFix(callback func(motion.Fix))
}

// SpeedSink receives every published speed estimate.
type SpeedSink interface {
	UpdateSpeed(speed float64)
}

// FixObserver is notified of each accepted fix; used for track export.
type FixObserver func(fix motion.Fix, speed float64)

// Result describes what happened to a fix.
type Result struct {
	Accepted bool
	Measured float64 // speed fed to the filter, when accepted
	Speed    float64 // published estimate after processing
	Err      error   // rejection reason, when not accepted
}

// Processor owns the speed filter. All methods are safe for concurrent use;
// fix handling is serialized.
type Processor struct {
	cfg      Config
	provider Provider
	sink     SpeedSink
	metrics  *metrics.LocationMetrics
	log      logger.Logger

	mu        sync.Mutex
	filter    *SpeedFilter
	previous  *motion.Fix
	seen      *cache.Cache
	running   bool
	moving    bool
	interval  time.Duration
	observers []FixObserver
}

// NewProcessor creates a processor. provider may be nil when no location
// source exists; sink may be nil.
func NewProcessor(cfg Config, provider Provider, sink SpeedSink, m *metrics.LocationMetrics) (*Processor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Processor{
		cfg:      cfg,
		provider: provider,
		sink:     sink,
		metrics:  m,
		log:      logger.Global().Module(componentLocation),
		filter:   NewSpeedFilter(cfg.ProcessNoise),
		seen:     cache.New(cfg.MaxFixAge, cache.NoExpiration),
		interval: cfg.StationaryInterval,
	}, nil
}

// SetLogger replaces the processor logger, typically with a session-scoped one.
func (p *Processor) SetLogger(l logger.Logger) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.log = l
}

// AddObserver registers fn to be called for each accepted fix.
func (p *Processor) AddObserver(fn FixObserver) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, fn)
}

// Start resets the filter and starts the provider at the interval that
// matches the last known movement state.
func (p *Processor) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}
	p.filter.Reset()
	p.previous = nil
	p.seen.Flush()
	p.running = true

	if p.provider == nil {
		p.log.Warn("no location provider available, speed input disabled")
		return errors.Newf("location provider unavailable").
			Component(componentLocation).
			Category(errors.CategorySensor).
			Build()
	}

	p.provider.OnFix(func(fix motion.Fix) { p.HandleFix(fix) })
	if err := p.provider.Start(p.interval); err != nil {
		p.provider.OnFix(nil)
		return errors.New(err).
			Component(componentLocation).
			Category(errors.CategorySensor).
			Context("interval", p.interval.String()).
			Build()
	}
	p.metrics.SetPollInterval(p.interval)
	p.log.Info("location updates started", logger.Duration("interval", p.interval))
	return nil
}

// Stop stops the provider and discards filter state. It is idempotent.
func (p *Processor) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return nil
	}
	p.running = false
	p.filter.Reset()
	p.previous = nil

	if p.provider == nil {
		return nil
	}
	p.provider.OnFix(nil)
	if err := p.provider.Stop(); err != nil {
		return errors.New(err).
			Component(componentLocation).
			Category(errors.CategorySensor).
			Build()
	}
	p.log.Info("location updates stopped")
	return nil
}

// SetMoving selects the polling interval for the movement state and, when
// it changes while running, asks the provider to adopt it. The filter is
// not reset.
func (p *Processor) SetMoving(moving bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.moving = moving
	interval := p.cfg.StationaryInterval
	if moving {
		interval = p.cfg.MovingInterval
	}
	if interval == p.interval {
		return
	}
	p.interval = interval
	p.metrics.SetPollInterval(interval)

	if !p.running || p.provider == nil {
		return
	}
	if err := p.provider.Start(interval); err != nil {
		p.log.Warn("failed to change location interval",
			logger.Duration("interval", interval),
			logger.Error(err))
		return
	}
	p.log.Debug("location interval changed",
		logger.Bool("moving", moving),
		logger.Duration("interval", interval))
}

// Interval returns the currently advised polling interval.
func (p *Processor) Interval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.interval
}

// Estimate returns the filter snapshot.
func (p *Processor) Estimate() SpeedEstimate {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.filter.State()
}

// HandleFix runs one fix through admission, speed derivation, outlier
// rejection and filtering. Fixes delivered while stopped are ignored.
func (p *Processor) HandleFix(raw motion.Fix) Result {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return Result{Err: errors.Newf("processor not running").
			Component(componentLocation).
			Category(errors.CategoryState).
			Build()}
	}

	fix := sanitize(raw)

	if err := Admit(fix, p.cfg); err != nil {
		return p.rejectLocked(fix, err)
	}

	key := fixKey(fix)
	if _, dup := p.seen.Get(key); dup {
		p.metrics.RecordFix(Reason(ErrDuplicateFix))
		p.log.Trace("duplicate fix ignored", logger.Time("timestamp", fix.Timestamp))
		return Result{Err: ErrDuplicateFix, Speed: p.publishedLocked()}
	}
	p.seen.DeleteExpired()
	p.seen.SetDefault(key, struct{}{})

	z, r, err := p.measureLocked(fix)
	if err != nil {
		if errors.Is(err, ErrNoSpeed) {
			// first fix without reported speed becomes the distance reference
			p.previous = &fix
		}
		return p.rejectLocked(fix, err)
	}

	if err := p.plausibleLocked(z, fix.Timestamp); err != nil {
		return p.rejectLocked(fix, err)
	}

	p.filter.Update(z, r, fix.Timestamp)
	p.previous = &fix
	speed := p.publishedLocked()
	state := p.filter.State()

	p.metrics.RecordFix(metrics.OutcomeAccepted)
	p.metrics.RecordEstimate(z, speed, state.Variance)
	p.log.Debug("fix accepted",
		logger.Float64("measured_mps", z),
		logger.Float64("estimate_mps", speed),
		logger.Float64("variance", state.Variance))

	if p.sink != nil {
		p.sink.UpdateSpeed(speed)
	}
	for _, observe := range p.observers {
		observe(fix, speed)
	}
	return Result{Accepted: true, Measured: z, Speed: speed}
}

// measureLocked returns the speed measurement and its variance.
func (p *Processor) measureLocked(fix motion.Fix) (z, r float64, err error) {
	if fix.Speed != nil {
		r = p.cfg.MeasurementVariance
		if fix.SpeedAccuracy != nil && *fix.SpeedAccuracy > 0 {
			r = *fix.SpeedAccuracy * *fix.SpeedAccuracy
		}
		return *fix.Speed, r, nil
	}

	if p.previous == nil {
		return 0, 0, ErrNoSpeed
	}
	elapsed := fix.Timestamp.Sub(p.previous.Timestamp)
	if elapsed < p.cfg.MinSampleInterval {
		return 0, 0, ErrIntervalTooShort
	}

	dt := elapsed.Seconds()
	distance := geo.DistanceHaversine(
		orb.Point{p.previous.Longitude, p.previous.Latitude},
		orb.Point{fix.Longitude, fix.Latitude},
	)
	z = distance / dt

	r = p.cfg.MeasurementVariance
	if fix.HorizontalAccuracy != nil && p.previous.HorizontalAccuracy != nil {
		a, b := *fix.HorizontalAccuracy, *p.previous.HorizontalAccuracy
		if derived := (a*a + b*b) / (dt * dt); derived > 0 {
			r = derived
		}
	}
	return z, r, nil
}

// plausibleLocked applies the speed ceiling and the implied acceleration
// bound against the current estimate. Acceleration is measured over the time
// since the estimate was last corrected, so rejected fixes widen the bound
// and a sustained change in speed is eventually accepted.
func (p *Processor) plausibleLocked(z float64, t time.Time) error {
	if math.Abs(z) > p.cfg.MaxSpeed {
		return ErrImplausibleSpeed
	}
	state := p.filter.State()
	if !state.Valid {
		return nil
	}
	delta := math.Abs(z - state.Estimate)
	dt := t.Sub(state.LastUpdate).Seconds()
	if dt <= 0 {
		if delta > 0 {
			return ErrImplausibleAccel
		}
		return nil
	}
	if delta/dt > p.cfg.MaxAcceleration {
		return ErrImplausibleAccel
	}
	return nil
}

// rejectLocked advances the filter prediction without correcting it.
func (p *Processor) rejectLocked(fix motion.Fix, err error) Result {
	if !fix.Timestamp.IsZero() {
		p.filter.Predict(fix.Timestamp)
	}
	reason := Reason(err)
	p.metrics.RecordFix(reason)
	p.log.Debug("fix rejected",
		logger.String("reason", reason),
		logger.Duration("age", fix.Age),
		logger.Time("timestamp", fix.Timestamp))
	return Result{Err: err, Speed: p.publishedLocked()}
}

func (p *Processor) publishedLocked() float64 {
	speed, _ := p.filter.Estimate()
	return speed
}

func fixKey(fix motion.Fix) string {
	return fmt.Sprintf("%d|%.7f|%.7f", fix.Timestamp.UnixNano(), fix.Latitude, fix.Longitude)
}
