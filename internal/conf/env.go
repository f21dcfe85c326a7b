// env.go: environment variable configuration and validation
package conf

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "DRIVESENSE"

// envBinding holds metadata for an environment variable binding.
type envBinding struct {
	ConfigKey string
	EnvVar    string
	Validate  func(string) error
}

func getEnvBindings() []envBinding {
	return []envBinding{
		{"debug", "DRIVESENSE_DEBUG", validateEnvBool},
		{"sensitivity", "DRIVESENSE_SENSITIVITY", validateEnvSensitivity},
		{"logging.level", "DRIVESENSE_LOGGING_LEVEL", validateEnvLogLevel},
		{"logging.file", "DRIVESENSE_LOGGING_FILE", nil},

		{"detector.type", "DRIVESENSE_DETECTOR_TYPE", validateEnvDetector},
		{"detector.threshold.magnitude", "DRIVESENSE_DETECTOR_THRESHOLD_MAGNITUDE", validateEnvPositiveFloat},

		{"trigger.armtimeout", "DRIVESENSE_TRIGGER_ARMTIMEOUT", validateEnvDuration},
		{"trigger.throttle", "DRIVESENSE_TRIGGER_THROTTLE", validateEnvDuration},
		{"trigger.debounce", "DRIVESENSE_TRIGGER_DEBOUNCE", validateEnvDuration},
		{"trigger.inactivity", "DRIVESENSE_TRIGGER_INACTIVITY", validateEnvDuration},
		{"trigger.resumedelay", "DRIVESENSE_TRIGGER_RESUMEDELAY", validateEnvDuration},
		{"trigger.gravitycompensation", "DRIVESENSE_TRIGGER_GRAVITYCOMPENSATION", validateEnvBool},

		{"location.movinginterval", "DRIVESENSE_LOCATION_MOVINGINTERVAL", validateEnvDuration},
		{"location.stationaryinterval", "DRIVESENSE_LOCATION_STATIONARYINTERVAL", validateEnvDuration},

		{"resolver.vehiclespeed", "DRIVESENSE_RESOLVER_VEHICLESPEED", validateEnvPositiveFloat},

		{"metrics.enabled", "DRIVESENSE_METRICS_ENABLED", validateEnvBool},
		{"metrics.listen", "DRIVESENSE_METRICS_LISTEN", nil},
	}
}

// bindEnvVars binds the explicit environment variables and reports invalid
// values without failing.
func bindEnvVars() error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		if err := viper.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("failed to bind %s: %v", binding.EnvVar, err))
			continue
		}
		if binding.Validate == nil {
			continue
		}
		if value := os.Getenv(binding.EnvVar); value != "" {
			if err := binding.Validate(value); err != nil {
				warnings = append(warnings, fmt.Sprintf("invalid %s value %q: %v", binding.EnvVar, value, err))
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}
	return nil
}

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("must be true or false")
	}
	return nil
}

func validateEnvDuration(value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("must be a duration such as 2s or 5m")
	}
	if d < 0 {
		return fmt.Errorf("must not be negative")
	}
	return nil
}

func validateEnvPositiveFloat(value string) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f <= 0 {
		return fmt.Errorf("must be a positive number")
	}
	return nil
}

func validateEnvSensitivity(value string) error {
	_, _, err := LookupSensitivity(value)
	return err
}

func validateEnvDetector(value string) error {
	switch strings.ToLower(value) {
	case "fft", "spectral", "threshold":
		return nil
	default:
		return fmt.Errorf("must be fft or threshold")
	}
}

func validateEnvLogLevel(value string) error {
	if !validLogLevel(value) {
		return fmt.Errorf("must be trace, debug, info, warn or error")
	}
	return nil
}

// configureEnvironmentVariables enables DRIVESENSE_* overrides for every
// key, with explicit bindings for the documented ones.
func configureEnvironmentVariables() error {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	return bindEnvVars()
}
