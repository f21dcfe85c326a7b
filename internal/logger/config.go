package logger

// LoggingConfig configures the CentralLogger.
type LoggingConfig struct {
	DefaultLevel string            `yaml:"default_level"`
	Timezone     string            `yaml:"timezone"`
	Console      *ConsoleOutput    `yaml:"console"`
	FileOutput   *FileOutput       `yaml:"file_output"`
	ModuleLevels map[string]string `yaml:"module_levels"`
}

// ConsoleOutput configures human readable output on stdout.
type ConsoleOutput struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
}

// FileOutput configures JSON output to a file.
type FileOutput struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	Level   string `yaml:"level"`
}

func applyConfigDefaults(cfg *LoggingConfig) {
	if cfg.DefaultLevel == "" {
		cfg.DefaultLevel = string(LogLevelInfo)
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Local"
	}
	if cfg.Console == nil {
		cfg.Console = &ConsoleOutput{Enabled: true, Level: cfg.DefaultLevel}
	}
	if cfg.Console.Level == "" {
		cfg.Console.Level = cfg.DefaultLevel
	}
	if cfg.FileOutput != nil && cfg.FileOutput.Level == "" {
		cfg.FileOutput.Level = cfg.DefaultLevel
	}
}
