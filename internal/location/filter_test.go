package location

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var epoch = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

func TestFirstMeasurementInitializes(t *testing.T) {
	t.Parallel()

	f := NewSpeedFilter(0.5)
	_, valid := f.Estimate()
	assert.False(t, valid)

	got := f.Update(7.5, 2, epoch)
	assert.InDelta(t, 7.5, got, 0)

	state := f.State()
	assert.True(t, state.Valid)
	assert.InDelta(t, 2, state.Variance, 0)
	assert.Equal(t, epoch, state.LastTimestamp)
}

func TestKalmanStep(t *testing.T) {
	t.Parallel()

	f := NewSpeedFilter(0.5)
	f.Update(10, 1, epoch)

	// variance grows 0.5*2 = 1 to 2, gain = 2/(2+1)
	got := f.Update(13, 1, epoch.Add(2*time.Second))
	gain := 2.0 / 3.0
	assert.InDelta(t, 10+gain*3, got, 1e-12)
	assert.InDelta(t, 2*(1-gain), f.State().Variance, 1e-12)
}

func TestIdenticalMeasurementIsIdempotent(t *testing.T) {
	t.Parallel()

	f := NewSpeedFilter(0.5)
	f.Update(4, 1, epoch)
	f.Update(6, 1, epoch.Add(time.Second))
	before := f.State()

	f.Update(6, 1, epoch.Add(time.Second))
	assert.Equal(t, before, f.State())

	g := NewSpeedFilter(0.5)
	first := g.Update(3, 0.25, epoch)
	second := g.Update(3, 0.25, epoch)
	assert.InDelta(t, first, second, 0)
}

func TestPredictOnlyGrowsVariance(t *testing.T) {
	t.Parallel()

	f := NewSpeedFilter(0.5)
	f.Update(5, 1, epoch)

	f.Predict(epoch.Add(4 * time.Second))
	state := f.State()
	assert.InDelta(t, 5, state.Estimate, 0)
	assert.InDelta(t, 3, state.Variance, 1e-12)
	assert.Equal(t, epoch.Add(4*time.Second), state.LastTimestamp)
	assert.Equal(t, epoch, state.LastUpdate, "prediction is not a correction")

	// time never runs backwards
	f.Predict(epoch)
	assert.Equal(t, state, f.State())
}

func TestEstimateIsClampedNonNegative(t *testing.T) {
	t.Parallel()

	f := NewSpeedFilter(0.5)
	f.Update(-0.4, 1, epoch)

	speed, valid := f.Estimate()
	assert.True(t, valid)
	assert.InDelta(t, 0, speed, 0)
	assert.InDelta(t, -0.4, f.State().Estimate, 0, "internal state keeps the raw estimate")
}

func TestReset(t *testing.T) {
	t.Parallel()

	f := NewSpeedFilter(0.5)
	f.Update(5, 1, epoch)
	f.Reset()

	assert.Equal(t, SpeedEstimate{}, f.State())
	f.Update(9, 1, epoch.Add(time.Hour))
	speed, _ := f.Estimate()
	assert.InDelta(t, 9, speed, 0)
}
