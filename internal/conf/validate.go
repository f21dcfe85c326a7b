// validate.go: settings validation
package conf

import (
	"fmt"
	"strings"

	"github.com/tphakala/drivesense/internal/detector"
)

// ValidationError represents a collection of validation errors.
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors.
func (ve ValidationError) Error() string {
	return fmt.Sprintf("validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct.
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}
	add := func(section string, err error) {
		if err != nil {
			ve.Errors = append(ve.Errors, fmt.Sprintf("%s: %v", section, err))
		}
	}

	add("logging", validateLoggingSettings(&settings.Logging))
	add("sensitivity", validateSensitivity(settings.Sensitivity))
	add("detector", validateDetectorSettings(settings))
	add("trigger", settings.TriggerConfig().Validate())
	add("location", settings.LocationConfig().Validate())
	add("resolver", settings.ResolverThresholds().Validate())
	add("metrics", validateMetricsSettings(&settings.Metrics))

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateLoggingSettings(settings *LoggingSettings) error {
	if !validLogLevel(settings.Level) {
		return fmt.Errorf("invalid level %q", settings.Level)
	}
	for module, level := range settings.ModuleLevels {
		if !validLogLevel(level) {
			return fmt.Errorf("invalid level %q for module %s", level, module)
		}
	}
	return nil
}

func validateSensitivity(name string) error {
	_, _, err := LookupSensitivity(name)
	return err
}

func validateDetectorSettings(settings *Settings) error {
	kind, err := detector.ParseKind(settings.Detector.Type)
	if err != nil {
		return err
	}
	switch kind {
	case detector.KindThreshold:
		if settings.Detector.Threshold.Magnitude <= 0 {
			return fmt.Errorf("threshold magnitude must be positive")
		}
	default:
		sp := settings.SpectralConfig()
		if err := sp.Validate(); err != nil {
			return err
		}
		// dropped samples would shift every reported frequency upwards
		if settings.Trigger.Throttle > sp.SamplePeriod() {
			return fmt.Errorf("trigger throttle %v exceeds the spectral sample period %v",
				settings.Trigger.Throttle, sp.SamplePeriod())
		}
	}
	return nil
}

func validateMetricsSettings(settings *MetricsSettings) error {
	if settings.Enabled && strings.TrimSpace(settings.Listen) == "" {
		return fmt.Errorf("listen address is required when metrics are enabled")
	}
	return nil
}

func validLogLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error":
		return true
	default:
		return false
	}
}
