package location

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tphakala/drivesense/internal/errors"
	"github.com/tphakala/drivesense/internal/motion"
)

func TestAdmit(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	base := motion.Fix{Latitude: 60.17, Longitude: 24.94, Timestamp: epoch}

	tests := []struct {
		name string
		edit func(*motion.Fix)
		want error
	}{
		{"minimal fix", func(*motion.Fix) {}, nil},
		{"fresh and precise", func(f *motion.Fix) {
			f.Age = time.Second
			f.HorizontalAccuracy = motion.Float(8)
			f.Satellites = motion.Int(9)
		}, nil},
		{"too old", func(f *motion.Fix) { f.Age = 3 * time.Minute }, ErrFixTooOld},
		{"age at bound", func(f *motion.Fix) { f.Age = 2 * time.Minute }, nil},
		{"inaccurate", func(f *motion.Fix) { f.HorizontalAccuracy = motion.Float(250) }, ErrFixInaccurate},
		{"accuracy at bound", func(f *motion.Fix) { f.HorizontalAccuracy = motion.Float(200) }, ErrFixInaccurate},
		{"few satellites", func(f *motion.Fix) { f.Satellites = motion.Int(3) }, ErrTooFewSatellites},
		{"nan latitude", func(f *motion.Fix) { f.Latitude = math.NaN() }, ErrInvalidCoordinate},
		{"longitude out of range", func(f *motion.Fix) { f.Longitude = 181 }, ErrInvalidCoordinate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fix := base
			tt.edit(&fix)
			err := Admit(fix, cfg)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, errors.IsCategory(err, errors.CategoryLocation))
		})
	}
}

func TestReason(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "too_old", Reason(ErrFixTooOld))
	assert.Equal(t, "implausible_acceleration", Reason(ErrImplausibleAccel))
	assert.Equal(t, "error", Reason(errors.NewStd("other")))
}

func TestSanitize(t *testing.T) {
	t.Parallel()

	fix := sanitize(motion.Fix{
		Speed:              motion.Float(math.NaN()),
		SpeedAccuracy:      motion.Float(math.Inf(1)),
		HorizontalAccuracy: motion.Float(math.NaN()),
		Altitude:           math.Inf(-1),
	})

	if assert.NotNil(t, fix.Speed) {
		assert.InDelta(t, 0, *fix.Speed, 0)
	}
	assert.Nil(t, fix.SpeedAccuracy)
	assert.Nil(t, fix.HorizontalAccuracy)
	assert.InDelta(t, 0, fix.Altitude, 0)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.MaxAcceleration = 0
	cfg.MovingInterval = 0
	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "max acceleration")
	assert.Contains(t, err.Error(), "polling intervals")
}
