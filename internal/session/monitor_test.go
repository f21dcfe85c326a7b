package session

import (
	"sync"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/drivesense/internal/clock"
	"github.com/tphakala/drivesense/internal/conf"
	"github.com/tphakala/drivesense/internal/motion"
	"github.com/tphakala/drivesense/internal/observability"
	"github.com/tphakala/drivesense/internal/resolver"
	"github.com/tphakala/drivesense/internal/testutil"
	"github.com/tphakala/drivesense/internal/trace"
	"github.com/tphakala/drivesense/internal/trigger"
)

var t0 = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func thresholdSettings(t *testing.T) *conf.Settings {
	t.Helper()
	s := conf.Defaults()
	s.Detector.Type = "threshold"
	s.Trigger.Debounce = 0
	s.Trigger.Throttle = 0
	require.NoError(t, s.Normalize())
	return s
}

// drivingTrace is one sample and one fix per second at 10 m/s heading east.
func drivingTrace(seconds int) *trace.Trace {
	tr := &trace.Trace{}
	for i := range seconds {
		at := t0.Add(time.Duration(i) * time.Second)
		tr.Records = append(tr.Records,
			trace.Record{Kind: trace.KindSample, Time: at, Sample: motion.Sample{Magnitude: 1.0, Timestamp: at}},
			trace.Record{Kind: trace.KindFix, Time: at, Fix: motion.Fix{
				Latitude:           60.17,
				Longitude:          24.94 + float64(i)*0.00018,
				Speed:              motion.Float(10),
				HorizontalAccuracy: motion.Float(5),
				Satellites:         motion.Int(8),
				Timestamp:          at,
			}},
		)
	}
	return tr
}

type replayRig struct {
	mon      *Monitor
	clk      *clock.Fake
	sampler  *trace.Sampler
	location *trace.LocationProvider
}

func newReplayRig(t *testing.T, m *observability.Metrics) *replayRig {
	t.Helper()
	rig := &replayRig{
		clk:      clock.NewFake(t0),
		sampler:  trace.NewSampler(true),
		location: trace.NewLocationProvider(),
	}
	mon, err := New(thresholdSettings(t), Sensors{
		Trigger:  trace.NewTrigger(false),
		Sampler:  rig.sampler,
		Location: rig.location,
		Clock:    rig.clk,
	}, m)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, mon.Close()) })
	rig.mon = mon
	return rig
}

func (r *replayRig) settle(t *testing.T) {
	t.Helper()
	require.True(t, r.mon.Controller().Sync(t.Context()))
}

func (r *replayRig) play(t *testing.T, tr *trace.Trace) trace.Stats {
	t.Helper()
	st, err := trace.NewPlayer(tr, r.clk, trace.Options{
		Sampler:  r.sampler,
		Location: r.location,
		Vehicle:  r.mon.SetVehicleSignal,
		Settle:   func() { r.settle(t) },
	}).Run(t.Context())
	require.NoError(t, err)
	return st
}

func TestDrivingReplayReachesVehicleMoving(t *testing.T) {
	m, err := observability.NewMetrics()
	require.NoError(t, err)
	rig := newReplayRig(t, m)

	var (
		mu          sync.Mutex
		changes     []resolver.StateChange
		transitions []motion.LabelTransition
	)
	rig.mon.Subscribe(func(c resolver.StateChange) {
		mu.Lock()
		defer mu.Unlock()
		changes = append(changes, c)
	})
	rig.mon.SubscribeTransitions(func(tr motion.LabelTransition) {
		mu.Lock()
		defer mu.Unlock()
		transitions = append(transitions, tr)
	})

	require.NoError(t, rig.mon.Start(t.Context()))
	rig.settle(t)
	assert.True(t, rig.sampler.Running())

	st := rig.play(t, drivingTrace(30))
	assert.Equal(t, 30, st.Samples)
	assert.Equal(t, 30, st.Fixes)

	assert.Equal(t, motion.MovementState{Moving: true, VehicleMoving: true}, rig.mon.State())
	assert.Equal(t, motion.Vehicle, rig.mon.Controller().State().Current)
	assert.InDelta(t, 10, rig.mon.Processor().Estimate().Estimate, 0.01)

	// the polling interval follows the aggregate state asynchronously
	testutil.WaitUntil(t, func() bool {
		iv := rig.location.Intervals()
		return len(iv) == 2 && iv[1] == 20*time.Second
	}, "moving interval not requested")
	assert.Equal(t, 60*time.Second, rig.location.Intervals()[0])

	testutil.WaitUntil(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(changes) == 1 && len(transitions) == 1
	}, "state change and transition not delivered")
	mu.Lock()
	assert.Equal(t, motion.MovementState{Moving: true, VehicleMoving: true}, changes[0].Current)
	assert.Equal(t, motion.Vehicle, transitions[0].To)
	assert.Equal(t, t0.Add(10*time.Second), transitions[0].At)
	mu.Unlock()

	assert.Positive(t, promtest.CollectAndCount(m.Trigger))
	assert.Positive(t, promtest.CollectAndCount(m.Location))
}

func TestExplicitVehicleSignalWithoutSensors(t *testing.T) {
	mon, err := New(thresholdSettings(t), Sensors{Clock: clock.NewFake(t0)}, nil)
	require.NoError(t, err)
	defer func() { assert.NoError(t, mon.Close()) }()

	require.NoError(t, mon.Start(t.Context()))
	assert.True(t, mon.Running())
	assert.True(t, mon.Controller().Status().Degraded)
	assert.Equal(t, motion.MovementState{}, mon.State())

	mon.SetVehicleSignal(true)
	assert.Equal(t, motion.MovementState{Moving: true, VehicleMoving: true}, mon.State())
	mon.SetVehicleSignal(false)
	assert.Equal(t, motion.MovementState{}, mon.State())
}

func TestSessionsGetFreshIDsAndState(t *testing.T) {
	rig := newReplayRig(t, nil)

	require.NoError(t, rig.mon.Start(t.Context()))
	rig.settle(t)
	first := rig.mon.SessionID()
	require.NotEmpty(t, first)
	require.NoError(t, rig.mon.Start(t.Context()), "start while running is a no-op")
	assert.Equal(t, first, rig.mon.SessionID())

	rig.mon.SetVehicleSignal(true)
	assert.True(t, rig.mon.State().VehicleMoving)

	require.NoError(t, rig.mon.Stop())
	require.NoError(t, rig.mon.Stop())
	assert.False(t, rig.mon.Running())
	assert.False(t, rig.sampler.Running())
	assert.Equal(t, motion.MovementState{}, rig.mon.State(), "stop discards the vehicle signal")

	require.NoError(t, rig.mon.Start(t.Context()))
	assert.NotEqual(t, first, rig.mon.SessionID())
	assert.Equal(t, motion.MovementState{}, rig.mon.State(), "per-session state is cleared")
	rig.settle(t)
	assert.Equal(t, 2, rig.sampler.Starts())
}

func TestClosedMonitorRefusesStart(t *testing.T) {
	rig := newReplayRig(t, nil)
	require.NoError(t, rig.mon.Start(t.Context()))
	require.NoError(t, rig.mon.Close())
	require.NoError(t, rig.mon.Close())
	assert.Error(t, rig.mon.Start(t.Context()))
}

func TestMotionListenerSeesDriving(t *testing.T) {
	rig := newReplayRig(t, nil)

	detected := make(chan struct{}, 1)
	rig.mon.AddMotionListener(trigger.ListenerFuncs{Detected: func() {
		select {
		case detected <- struct{}{}:
		default:
		}
	}})

	require.NoError(t, rig.mon.Start(t.Context()))
	rig.settle(t)
	rig.play(t, drivingTrace(12))

	testutil.WaitForChannel(t, detected, testutil.ShortTestTimeout, "motion detected was not delivered")
}

func TestInvalidSettingsAreRejected(t *testing.T) {
	s := thresholdSettings(t)
	s.Location.MovingInterval = 0
	_, err := New(s, Sensors{}, nil)
	require.Error(t, err)
}
