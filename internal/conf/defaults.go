// defaults.go: default values for settings, taken from each component
package conf

import (
	"github.com/spf13/viper"

	"github.com/tphakala/drivesense/internal/detector"
	"github.com/tphakala/drivesense/internal/location"
	"github.com/tphakala/drivesense/internal/resolver"
	"github.com/tphakala/drivesense/internal/spectral"
	"github.com/tphakala/drivesense/internal/trigger"
)

const defaultMetricsListen = "127.0.0.1:9464"

// setDefaultConfig registers defaults with viper. Debounce and throttle have
// no default here; Normalize picks them per detector.
func setDefaultConfig() {
	viper.SetDefault("debug", false)
	viper.SetDefault("sensitivity", "")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.file", "")

	viper.SetDefault("detector.type", string(detector.KindSpectral))

	sp := spectral.DefaultConfig()
	viper.SetDefault("detector.spectral.windowsize", sp.WindowSize)
	viper.SetDefault("detector.spectral.samplerate", sp.SampleRate)
	viper.SetDefault("detector.spectral.stationarymaxenergy", sp.StationaryMaxEnergy)
	viper.SetDefault("detector.spectral.walkingminfreq", sp.WalkingMinFreq)
	viper.SetDefault("detector.spectral.walkingmaxfreq", sp.WalkingMaxFreq)
	viper.SetDefault("detector.spectral.walkingminenergy", sp.WalkingMinEnergy)
	viper.SetDefault("detector.spectral.walkingmaxenergy", sp.WalkingMaxEnergy)
	viper.SetDefault("detector.spectral.runningminfreq", sp.RunningMinFreq)
	viper.SetDefault("detector.spectral.runningmaxfreq", sp.RunningMaxFreq)
	viper.SetDefault("detector.spectral.runningminenergy", sp.RunningMinEnergy)
	viper.SetDefault("detector.spectral.runningmaxenergy", sp.RunningMaxEnergy)
	viper.SetDefault("detector.spectral.vehiclemaxfreq", sp.VehicleMaxFreq)
	viper.SetDefault("detector.spectral.vehicleminenergy", sp.VehicleMinEnergy)

	th := detector.DefaultThresholdConfig()
	viper.SetDefault("detector.threshold.magnitude", th.Magnitude)
	viper.SetDefault("detector.threshold.smoothing", th.Smoothing)

	tr := trigger.DefaultConfig()
	viper.SetDefault("trigger.armtimeout", tr.ArmTimeout)
	viper.SetDefault("trigger.inactivity", tr.Inactivity)
	viper.SetDefault("trigger.resumedelay", tr.ResumeDelay)
	viper.SetDefault("trigger.gravitycompensation", tr.GravityCompensation)
	viper.SetDefault("trigger.inboxsize", tr.InboxSize)

	loc := location.DefaultConfig()
	viper.SetDefault("location.maxfixage", loc.MaxFixAge)
	viper.SetDefault("location.maxaccuracy", loc.MaxAccuracy)
	viper.SetDefault("location.minsatellites", loc.MinSatellites)
	viper.SetDefault("location.minsampleinterval", loc.MinSampleInterval)
	viper.SetDefault("location.maxacceleration", loc.MaxAcceleration)
	viper.SetDefault("location.maxspeed", loc.MaxSpeed)
	viper.SetDefault("location.processnoise", loc.ProcessNoise)
	viper.SetDefault("location.measurementvariance", loc.MeasurementVariance)
	viper.SetDefault("location.movinginterval", loc.MovingInterval)
	viper.SetDefault("location.stationaryinterval", loc.StationaryInterval)

	rs := resolver.DefaultThresholds()
	viper.SetDefault("resolver.movingspeed", rs.MovingSpeed)
	viper.SetDefault("resolver.footspeedcutoff", rs.FootSpeedCutoff)
	viper.SetDefault("resolver.vehiclespeed", rs.VehicleSpeed)
	viper.SetDefault("resolver.vehicleaccel", rs.VehicleAccel)
	viper.SetDefault("resolver.vehiclespeedlowerbound", rs.VehicleSpeedLowerBound)

	viper.SetDefault("metrics.enabled", false)
	viper.SetDefault("metrics.listen", defaultMetricsListen)
}

// Defaults returns the built-in settings without reading viper, normalized
// for the spectral detector.
func Defaults() *Settings {
	sp := spectral.DefaultConfig()
	th := detector.DefaultThresholdConfig()
	tr := trigger.DefaultConfig()
	loc := location.DefaultConfig()
	rs := resolver.DefaultThresholds()

	return &Settings{
		Logging: LoggingSettings{Level: "info", ModuleLevels: map[string]string{}},
		Detector: DetectorSettings{
			Type: string(detector.KindSpectral),
			Spectral: SpectralSettings{
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
			},
			Threshold: ThresholdSettings{Magnitude: th.Magnitude, Smoothing: th.Smoothing},
		},
		Trigger: TriggerSettings{
			ArmTimeout:          tr.ArmTimeout,
			Throttle:            tr.Throttle,
			Debounce:            tr.Debounce,
			Inactivity:          tr.Inactivity,
			ResumeDelay:         tr.ResumeDelay,
			GravityCompensation: tr.GravityCompensation,
			InboxSize:           tr.InboxSize,
		},
		Location: LocationSettings{
			MaxFixAge:           loc.MaxFixAge,
			MaxAccuracy:         loc.MaxAccuracy,
			MinSatellites:       loc.MinSatellites,
			MinSampleInterval:   loc.MinSampleInterval,
			MaxAcceleration:     loc.MaxAcceleration,
			MaxSpeed:            loc.MaxSpeed,
			ProcessNoise:        loc.ProcessNoise,
			MeasurementVariance: loc.MeasurementVariance,
			MovingInterval:      loc.MovingInterval,
			StationaryInterval:  loc.StationaryInterval,
		},
		Resolver: ResolverSettings{
			MovingSpeed:            rs.MovingSpeed,
			FootSpeedCutoff:        rs.FootSpeedCutoff,
			VehicleSpeed:           rs.VehicleSpeed,
			VehicleAccel:           rs.VehicleAccel,
			VehicleSpeedLowerBound: rs.VehicleSpeedLowerBound,
		},
		Metrics: MetricsSettings{Listen: defaultMetricsListen},
	}
}
