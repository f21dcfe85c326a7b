package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tphakala/drivesense/internal/motion"
)

func TestDecide(t *testing.T) {
	t.Parallel()

	th := DefaultThresholds()
	tests := []struct {
		name        string
		in          Inputs
		wantMoving  bool
		wantVehicle bool
	}{
		{"idle", Inputs{}, false, false},
		{"stationary label", Inputs{Label: motion.Stationary}, false, false},
		{"walking at 2 m/s with huge magnitude stays on foot",
			Inputs{Label: motion.Walking, Speed: 2.0, Magnitude: 1000}, true, false},
		{"running below foot cutoff vetoes explicit signal",
			Inputs{Label: motion.Running, Speed: 2.9, ExplicitVehicle: true}, true, false},
		{"walking above foot cutoff at vehicle speed",
			Inputs{Label: motion.Walking, Speed: 5.0}, true, true},
		{"vehicle label at 5 m/s", Inputs{Label: motion.Vehicle, Speed: 5.0}, true, true},
		{"vehicle label at 0.5 m/s with low magnitude",
			Inputs{Label: motion.Vehicle, Speed: 0.5, Magnitude: 0.1}, true, false},
		{"vehicle label at lower bound", Inputs{Label: motion.Vehicle, Speed: 1.5}, true, true},
		{"vehicle label corroborated by accel and speed",
			Inputs{Label: motion.Vehicle, Speed: 2.0, Magnitude: -0.8}, true, true},
		{"speed alone", Inputs{Speed: 4.5}, true, true},
		{"slow speed alone", Inputs{Speed: 1.2}, true, false},
		{"explicit signal", Inputs{ExplicitVehicle: true}, true, true},
		{"unknown label with no speed", Inputs{Label: motion.Unknown, Magnitude: 5}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Decide(tt.in, th).State
			assert.Equal(t, tt.wantMoving, got.Moving, "movement_status")
			assert.Equal(t, tt.wantVehicle, got.VehicleMoving, "is_vehicle_moving")
		})
	}
}

func TestDecidePredicates(t *testing.T) {
	t.Parallel()

	d := Decide(Inputs{Label: motion.Walking, Speed: 2.0, Magnitude: 50}, DefaultThresholds())
	assert.True(t, d.DefinitelyOnFoot)
	assert.True(t, d.MovingBySpeed)
	assert.True(t, d.MovingByLabel)
	assert.False(t, d.VehicleBySpeed)
	assert.True(t, d.VehicleByAccelSpd)
	assert.False(t, d.State.VehicleMoving)
}

func TestThresholdsValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, DefaultThresholds().Validate())
	th := DefaultThresholds()
	th.VehicleSpeed = -1
	assert.Error(t, th.Validate())
}
