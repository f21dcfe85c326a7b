package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/drivesense/cmd/classify"
	"github.com/tphakala/drivesense/cmd/configcmd"
	"github.com/tphakala/drivesense/cmd/replay"
	"github.com/tphakala/drivesense/internal/buildinfo"
	"github.com/tphakala/drivesense/internal/conf"
	"github.com/tphakala/drivesense/internal/logger"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings, build *buildinfo.Context) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "drivesense",
		Short: "Motion and vehicle state detection from accelerometer and location traces",
		Long: `drivesense classifies motion from acceleration magnitude, filters location
speed and resolves whether the device is moving and whether it is in a vehicle.

The config file is read from DRIVESENSE_CONFIG, or config.yaml in the current
directory, ~/.config/drivesense or /etc/drivesense.`,
		Version:      build.String(),
		SilenceUsage: true,
	}

	if err := setupFlags(rootCmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
	}

	configCmd := configcmd.Command(settings)
	rootCmd.AddCommand(
		classify.Command(settings),
		replay.Command(settings),
		configCmd,
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// flags write straight into settings; re-derive presets and timing
		if cmd.Flags().Changed("detector") {
			resetRecommendedTiming(settings)
		}
		if err := settings.Normalize(); err != nil {
			return err
		}
		if err := conf.ValidateSettings(settings); err != nil {
			return err
		}
		// config output must stay clean for redirection
		if cmd.Parent() == configCmd {
			return nil
		}
		if err := initLogger(settings); err != nil {
			return err
		}
		logger.Global().Module("main").Debug("drivesense starting",
			logger.String("version", build.GetVersion()),
			logger.String("build_date", build.GetBuildDate()),
			logger.String("detector", settings.Detector.Type))
		return nil
	}

	return rootCmd
}

func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", settings.Debug, "Enable debug output")
	rootCmd.PersistentFlags().StringVarP(&settings.Sensitivity, "sensitivity", "s", settings.Sensitivity, "Sensitivity preset: high, balanced or low")
	rootCmd.PersistentFlags().StringVar(&settings.Detector.Type, "detector", settings.Detector.Type, "Motion labeler: fft or threshold")
	rootCmd.PersistentFlags().StringVar(&settings.Logging.Level, "loglevel", settings.Logging.Level, "Log level: trace, debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&settings.Logging.File, "logfile", settings.Logging.File, "Write JSON logs to this file")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	return nil
}

// resetRecommendedTiming clears debounce and throttle values that came from
// the previous detector's recommendation so Normalize picks new ones.
func resetRecommendedTiming(settings *conf.Settings) {
	if !viper.IsSet("trigger.debounce") {
		settings.Trigger.Debounce = 0
	}
	if !viper.IsSet("trigger.throttle") {
		settings.Trigger.Throttle = 0
	}
}

// initLogger replaces the global logger with one built from settings.
func initLogger(settings *conf.Settings) error {
	level := settings.Logging.Level
	if settings.Debug {
		level = string(logger.LogLevelDebug)
	}

	cfg := &logger.LoggingConfig{
		DefaultLevel: level,
		Console:      &logger.ConsoleOutput{Enabled: true, Level: level},
		ModuleLevels: settings.Logging.ModuleLevels,
	}
	if settings.Logging.File != "" {
		cfg.FileOutput = &logger.FileOutput{Enabled: true, Path: settings.Logging.File, Level: level}
	}

	central, err := logger.NewCentralLogger(cfg)
	if err != nil {
		return fmt.Errorf("error initializing logger: %w", err)
	}
	logger.SetGlobal(central)
	return nil
}
