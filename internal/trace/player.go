package trace

import (
	"context"
	"time"

	"github.com/tphakala/drivesense/internal/clock"
)

// Options wires a player to the replay sensors. Nil sensors drop their
// records.
type Options struct {
	Trigger  *Trigger
	Sampler  *Sampler
	Location *LocationProvider
	// Vehicle receives explicit vehicle signal records.
	Vehicle func(on bool)
	// Settle is called after every clock advance and delivery, typically to
	// wait for the consumers to drain their queues.
	Settle func()
	// Tail advances the clock past the last record so pending timers fire.
	Tail time.Duration
}

// Stats counts what a replay delivered.
type Stats struct {
	Samples, SamplesDropped   int
	Fixes, FixesDropped       int
	Triggers, TriggersDropped int
	VehicleSignals            int
}

// Player feeds a trace into the replay sensors while moving a fake clock to
// each record's timestamp.
type Player struct {
	trace *Trace
	clock *clock.Fake
	opts  Options
}

// NewPlayer creates a player. The clock should start at trace.Start().
func NewPlayer(tr *Trace, clk *clock.Fake, opts Options) *Player {
	return &Player{trace: tr, clock: clk, opts: opts}
}

// Run replays every record in order. It stops early when ctx is cancelled.
func (p *Player) Run(ctx context.Context) (Stats, error) {
	var st Stats

	for i := range p.trace.Records {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		rec := &p.trace.Records[i]
		p.advanceTo(rec.Time)
		p.deliver(rec, &st)
		p.settle()
	}

	if p.opts.Tail > 0 {
		p.clock.Advance(p.opts.Tail)
		p.settle()
	}
	return st, nil
}

func (p *Player) advanceTo(t time.Time) {
	if d := t.Sub(p.clock.Now()); d > 0 {
		p.clock.Advance(d)
		p.settle()
	}
}

func (p *Player) deliver(rec *Record, st *Stats) {
	switch rec.Kind {
	case KindSample:
		if p.opts.Sampler != nil && p.opts.Sampler.Emit(rec.Sample) {
			st.Samples++
		} else {
			st.SamplesDropped++
		}
	case KindFix:
		if p.opts.Location != nil && p.opts.Location.Emit(rec.Fix) {
			st.Fixes++
		} else {
			st.FixesDropped++
		}
	case KindTrigger:
		if p.opts.Trigger != nil && p.opts.Trigger.Fire() {
			st.Triggers++
		} else {
			st.TriggersDropped++
		}
	case KindVehicle:
		if p.opts.Vehicle != nil {
			p.opts.Vehicle(rec.VehicleOn)
			st.VehicleSignals++
		}
	}
}

func (p *Player) settle() {
	if p.opts.Settle != nil {
		p.opts.Settle()
	}
}
