package trace

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/drivesense/internal/clock"
	"github.com/tphakala/drivesense/internal/motion"
)

func TestPlayerReplaysOnFakeClock(t *testing.T) {
	t.Parallel()

	tr, err := Read(strings.NewReader(sampleTrace))
	require.NoError(t, err)

	clk := clock.NewFake(tr.Start())
	trig := NewTrigger(true)
	sampler := NewSampler(true)
	loc := NewLocationProvider()
	require.NoError(t, sampler.Start(100*time.Millisecond))
	require.NoError(t, loc.Start(time.Minute))
	require.True(t, trig.TryArm())

	var sampleTimes []time.Time
	sampler.OnSample(func(s motion.Sample) {
		sampleTimes = append(sampleTimes, clk.Now())
		assert.Equal(t, s.Timestamp, clk.Now())
	})
	var fixes []motion.Fix
	loc.OnFix(func(f motion.Fix) { fixes = append(fixes, f) })
	triggers := 0
	trig.OnTrigger(func() { triggers++ })
	var vehicle []bool

	tailFired := false
	clk.AfterFunc(tr.Duration()+time.Second, func() { tailFired = true })

	settles := 0
	p := NewPlayer(tr, clk, Options{
		Trigger:  trig,
		Sampler:  sampler,
		Location: loc,
		Vehicle:  func(on bool) { vehicle = append(vehicle, on) },
		Settle:   func() { settles++ },
		Tail:     2 * time.Second,
	})
	st, err := p.Run(t.Context())
	require.NoError(t, err)

	assert.Equal(t, Stats{Samples: 2, Fixes: 2, Triggers: 1, VehicleSignals: 1}, st)
	assert.Len(t, sampleTimes, 2)
	assert.Len(t, fixes, 2)
	assert.Equal(t, 1, triggers)
	assert.Equal(t, []bool{true}, vehicle)
	assert.True(t, tailFired)
	assert.Equal(t, tr.Start().Add(6*time.Second), clk.Now())
	assert.Positive(t, settles)
}

func TestPlayerCountsDroppedRecords(t *testing.T) {
	t.Parallel()

	tr, err := Read(strings.NewReader(sampleTrace))
	require.NoError(t, err)

	// Nothing started or armed: every sensor record is lost.
	p := NewPlayer(tr, clock.NewFake(tr.Start()), Options{
		Trigger: NewTrigger(true),
		Sampler: NewSampler(true),
	})
	st, err := p.Run(t.Context())
	require.NoError(t, err)
	assert.Equal(t, Stats{SamplesDropped: 2, FixesDropped: 2, TriggersDropped: 1}, st)
}

func TestPlayerStopsOnCancel(t *testing.T) {
	t.Parallel()

	tr, err := Read(strings.NewReader(sampleTrace))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	st, err := NewPlayer(tr, clock.NewFake(tr.Start()), Options{}).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Stats{}, st)
}
