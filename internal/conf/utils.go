// utils.go: configuration file locations
package conf

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/tphakala/drivesense/internal/errors"
)

const appDirName = "drivesense"

// GetDefaultConfigPaths returns the directories searched for config.yaml.
// If one of them already holds a config.yaml, only that directory is
// returned.
func GetDefaultConfigPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.New(err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("operation", "get-home-directory").
			Build()
	}

	var configPaths []string
	if runtime.GOOS == "windows" {
		configPaths = []string{".", filepath.Join(homeDir, "AppData", "Roaming", appDirName)}
	} else {
		configPaths = []string{".", filepath.Join(homeDir, ".config", appDirName), "/etc/" + appDirName}
	}

	for _, path := range configPaths {
		if _, err := os.Stat(filepath.Join(path, "config.yaml")); err == nil {
			return []string{path}, nil
		}
	}
	return configPaths, nil
}

// FindConfigFile returns the first existing config.yaml in the default
// locations.
func FindConfigFile() (string, error) {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return "", err
	}
	for _, path := range configPaths {
		configFilePath := filepath.Join(path, "config.yaml")
		if _, err := os.Stat(configFilePath); err == nil {
			return configFilePath, nil
		}
	}
	return "", errors.Newf("config file not found").
		Component("conf").
		Category(errors.CategoryFileIO).
		Context("operation", "find-config-file").
		Build()
}
