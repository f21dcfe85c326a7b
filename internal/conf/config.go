// config.go: settings structure and loading for drivesense
package conf

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tphakala/drivesense/internal/detector"
	"github.com/tphakala/drivesense/internal/location"
	"github.com/tphakala/drivesense/internal/resolver"
	"github.com/tphakala/drivesense/internal/spectral"
	"github.com/tphakala/drivesense/internal/trigger"
)

//go:embed config.yaml
var configFiles embed.FS

// Settings is the complete drivesense configuration.
type Settings struct {
	Debug bool `yaml:"debug"`

	// Sensitivity selects a preset (high, balanced, low) for the vehicle
	// speed threshold and debounce interval. Empty uses explicit values.
	Sensitivity string `yaml:"sensitivity"`

	Logging  LoggingSettings  `yaml:"logging"`
	Detector DetectorSettings `yaml:"detector"`
	Trigger  TriggerSettings  `yaml:"trigger"`
	Location LocationSettings `yaml:"location"`
	Resolver ResolverSettings `yaml:"resolver"`
	Metrics  MetricsSettings  `yaml:"metrics"`
}

// LoggingSettings controls log output.
type LoggingSettings struct {
	Level        string            `yaml:"level"`        // trace, debug, info, warn, error
	File         string            `yaml:"file"`         // optional JSON log file
	ModuleLevels map[string]string `yaml:"modulelevels"` // per-module overrides
}

// DetectorSettings selects and tunes the labeler.
type DetectorSettings struct {
	Type      string            `yaml:"type"` // fft or threshold
	Spectral  SpectralSettings  `yaml:"spectral"`
	Threshold ThresholdSettings `yaml:"threshold"`
}

// SpectralSettings mirrors spectral.Config.
type SpectralSettings struct {
	WindowSize          int     `yaml:"windowsize"`
	SampleRate          float64 `yaml:"samplerate"`
	StationaryMaxEnergy float64 `yaml:"stationarymaxenergy"`
	WalkingMinFreq      float64 `yaml:"walkingminfreq"`
	WalkingMaxFreq      float64 `yaml:"walkingmaxfreq"`
	WalkingMinEnergy    float64 `yaml:"walkingminenergy"`
	WalkingMaxEnergy    float64 `yaml:"walkingmaxenergy"`
	RunningMinFreq      float64 `yaml:"runningminfreq"`
	RunningMaxFreq      float64 `yaml:"runningmaxfreq"`
	RunningMinEnergy    float64 `yaml:"runningminenergy"`
	RunningMaxEnergy    float64 `yaml:"runningmaxenergy"`
	VehicleMaxFreq      float64 `yaml:"vehiclemaxfreq"`
	VehicleMinEnergy    float64 `yaml:"vehicleminenergy"`
}

// ThresholdSettings mirrors detector.ThresholdConfig.
type ThresholdSettings struct {
	Magnitude float64 `yaml:"magnitude"`
	Smoothing int     `yaml:"smoothing"`
}

// TriggerSettings mirrors trigger.Config. Zero Debounce or Throttle selects
// the value recommended for the configured detector.
type TriggerSettings struct {
	ArmTimeout          time.Duration `yaml:"armtimeout"`
	Throttle            time.Duration `yaml:"throttle"`
	Debounce            time.Duration `yaml:"debounce"`
	Inactivity          time.Duration `yaml:"inactivity"`
	ResumeDelay         time.Duration `yaml:"resumedelay"`
	GravityCompensation bool          `yaml:"gravitycompensation"`
	InboxSize           int           `yaml:"inboxsize"`
}

// LocationSettings mirrors location.Config.
type LocationSettings struct {
	MaxFixAge           time.Duration `yaml:"maxfixage"`
	MaxAccuracy         float64       `yaml:"maxaccuracy"`
	MinSatellites       int           `yaml:"minsatellites"`
	MinSampleInterval   time.Duration `yaml:"minsampleinterval"`
	MaxAcceleration     float64       `yaml:"maxacceleration"`
	MaxSpeed            float64       `yaml:"maxspeed"`
	ProcessNoise        float64       `yaml:"processnoise"`
	MeasurementVariance float64       `yaml:"measurementvariance"`
	MovingInterval      time.Duration `yaml:"movinginterval"`
	StationaryInterval  time.Duration `yaml:"stationaryinterval"`
}

// ResolverSettings mirrors resolver.Thresholds.
type ResolverSettings struct {
	MovingSpeed            float64 `yaml:"movingspeed"`
	FootSpeedCutoff        float64 `yaml:"footspeedcutoff"`
	VehicleSpeed           float64 `yaml:"vehiclespeed"`
	VehicleAccel           float64 `yaml:"vehicleaccel"`
	VehicleSpeedLowerBound float64 `yaml:"vehiclespeedlowerbound"`
}

// MetricsSettings controls the Prometheus endpoint.
type MetricsSettings struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads defaults, the configuration file and DRIVESENSE_* environment
// variables, then applies the sensitivity preset and validates the result.
// configFile may be empty to search the default locations.
func Load(configFile string) (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	if err := initViper(configFile); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	settings := &Settings{}
	if err := viper.Unmarshal(settings, decodeWithYAMLTags); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := settings.Normalize(); err != nil {
		return nil, err
	}
	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// GetSettings returns the last loaded settings, or nil before Load.
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

func initViper(configFile string) error {
	setDefaultConfig()
	if err := configureEnvironmentVariables(); err != nil {
		// invalid environment values are reported but do not stop startup
		fmt.Fprintln(os.Stderr, err)
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
		return nil
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// defaults and environment only
			return nil
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}
	return nil
}

// DefaultConfigYAML returns the annotated default configuration file.
func DefaultConfigYAML() (string, error) {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		return "", fmt.Errorf("error reading embedded config: %w", err)
	}
	return string(data), nil
}

// Normalize applies the sensitivity preset and fills timing left at zero
// with the values recommended for the configured detector.
func (s *Settings) Normalize() error {
	kind, err := detector.ParseKind(s.Detector.Type)
	if err != nil {
		return err
	}
	s.Detector.Type = string(kind)
	if s.Logging.ModuleLevels == nil {
		s.Logging.ModuleLevels = map[string]string{}
	}

	debounce, throttle := trigger.RecommendedTiming(kind)
	if s.Trigger.Debounce == 0 {
		s.Trigger.Debounce = debounce
	}
	if s.Trigger.Throttle == 0 {
		s.Trigger.Throttle = throttle
	}
	return ApplySensitivity(s)
}

// DetectorKind returns the configured labeler.
func (s *Settings) DetectorKind() detector.Kind {
	kind, err := detector.ParseKind(s.Detector.Type)
	if err != nil {
		return detector.KindSpectral
	}
	return kind
}

// SpectralConfig converts the spectral settings.
func (s *Settings) SpectralConfig() spectral.Config {
	sp := s.Detector.Spectral
	return spectral.Config{
		WindowSize:          sp.WindowSize,
		SampleRate:          sp.SampleRate,
		StationaryMaxEnergy: sp.StationaryMaxEnergy,
		WalkingMinFreq:      sp.WalkingMinFreq,
		WalkingMaxFreq:      sp.WalkingMaxFreq,
		WalkingMinEnergy:    sp.WalkingMinEnergy,
		WalkingMaxEnergy:    sp.WalkingMaxEnergy,
		RunningMinFreq:      sp.RunningMinFreq,
		RunningMaxFreq:      sp.RunningMaxFreq,
		RunningMinEnergy:    sp.RunningMinEnergy,
		RunningMaxEnergy:    sp.RunningMaxEnergy,
		VehicleMaxFreq:      sp.VehicleMaxFreq,
		VehicleMinEnergy:    sp.VehicleMinEnergy,
	}
}

// ThresholdConfig converts the threshold labeler settings.
func (s *Settings) ThresholdConfig() detector.ThresholdConfig {
	return detector.ThresholdConfig{
		Magnitude: s.Detector.Threshold.Magnitude,
		Smoothing: s.Detector.Threshold.Smoothing,
	}
}

// TriggerConfig converts the trigger settings. The sampler period follows
// the spectral sample rate.
func (s *Settings) TriggerConfig() trigger.Config {
	t := s.Trigger
	cfg := trigger.Config{
		ArmTimeout:          t.ArmTimeout,
		SampleRate:          trigger.DefaultConfig().SampleRate,
		Throttle:            t.Throttle,
		Debounce:            t.Debounce,
		Inactivity:          t.Inactivity,
		ResumeDelay:         t.ResumeDelay,
		GravityCompensation: t.GravityCompensation,
		InboxSize:           t.InboxSize,
	}
	if s.Detector.Spectral.SampleRate > 0 {
		cfg.SampleRate = s.SpectralConfig().SamplePeriod()
	}
	return cfg
}

// LocationConfig converts the location settings.
func (s *Settings) LocationConfig() location.Config {
	l := s.Location
	return location.Config{
		MaxFixAge:           l.MaxFixAge,
		MaxAccuracy:         l.MaxAccuracy,
		MinSatellites:       l.MinSatellites,
		MinSampleInterval:   l.MinSampleInterval,
		MaxAcceleration:     l.MaxAcceleration,
		MaxSpeed:            l.MaxSpeed,
		ProcessNoise:        l.ProcessNoise,
		MeasurementVariance: l.MeasurementVariance,
		MovingInterval:      l.MovingInterval,
		StationaryInterval:  l.StationaryInterval,
	}
}

// ResolverThresholds converts the resolver settings.
func (s *Settings) ResolverThresholds() resolver.Thresholds {
	r := s.Resolver
	return resolver.Thresholds{
		MovingSpeed:            r.MovingSpeed,
		FootSpeedCutoff:        r.FootSpeedCutoff,
		VehicleSpeed:           r.VehicleSpeed,
		VehicleAccel:           r.VehicleAccel,
		VehicleSpeedLowerBound: r.VehicleSpeedLowerBound,
	}
}

// SaveYAMLConfig writes settings to configPath. Durations are written as
// Go duration strings so the file can be read back by Load.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := MarshalYAML(settings)
	if err != nil {
		return err
	}

	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tempFileName := tempFile.Name()
	defer os.Remove(tempFileName)

	if _, err := tempFile.Write(yamlData); err != nil {
		tempFile.Close()
		return fmt.Errorf("error writing to temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("error closing temporary file: %w", err)
	}
	if err := os.Rename(tempFileName, configPath); err != nil {
		return fmt.Errorf("error replacing config file: %w", err)
	}
	return nil
}

// MarshalYAML renders settings as YAML.
func MarshalYAML(settings *Settings) ([]byte, error) {
	yamlData, err := yaml.Marshal(toYAMLValue(reflectValue(settings)))
	if err != nil {
		return nil, fmt.Errorf("error marshaling settings to YAML: %w", err)
	}
	return yamlData, nil
}
