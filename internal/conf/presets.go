package conf

import (
	"fmt"
	"strings"
	"time"
)

// Sensitivity preset names.
const (
	SensitivityHigh     = "high"
	SensitivityBalanced = "balanced"
	SensitivityLow      = "low"
)

// SensitivityPreset overrides the vehicle speed threshold and the debounce
// interval. Higher sensitivity reports vehicle motion sooner.
type SensitivityPreset struct {
	VehicleSpeed float64       // m/s
	Debounce     time.Duration // trigger debounce
}

var sensitivityPresets = map[string]SensitivityPreset{
	SensitivityHigh:     {VehicleSpeed: 1.5, Debounce: 1500 * time.Millisecond},
	SensitivityBalanced: {VehicleSpeed: 2.5, Debounce: 2 * time.Second},
	SensitivityLow:      {VehicleSpeed: 4.0, Debounce: 3 * time.Second},
}

// LookupSensitivity returns the preset for name. An empty name returns false
// with no error.
func LookupSensitivity(name string) (SensitivityPreset, bool, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return SensitivityPreset{}, false, nil
	}
	preset, ok := sensitivityPresets[name]
	if !ok {
		return SensitivityPreset{}, false, fmt.Errorf("unknown sensitivity preset %q, expected high, balanced or low", name)
	}
	return preset, true, nil
}

// ApplySensitivity overwrites the preset-controlled values when a preset is
// selected.
func ApplySensitivity(s *Settings) error {
	preset, ok, err := LookupSensitivity(s.Sensitivity)
	if err != nil || !ok {
		return err
	}
	s.Sensitivity = strings.ToLower(strings.TrimSpace(s.Sensitivity))
	s.Resolver.VehicleSpeed = preset.VehicleSpeed
	s.Trigger.Debounce = preset.Debounce
	return nil
}
