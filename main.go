package main

import (
	"fmt"
	"os"

	"github.com/tphakala/drivesense/cmd"
	"github.com/tphakala/drivesense/internal/buildinfo"
	"github.com/tphakala/drivesense/internal/conf"
)

// set with -ldflags "-X main.version=... -X main.buildDate=..."
var (
	version   string
	buildDate string
)

func main() {
	// DRIVESENSE_CONFIG selects a config file; empty searches the default paths
	settings, err := conf.Load(os.Getenv("DRIVESENSE_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	rootCmd := cmd.RootCommand(settings, buildinfo.NewContext(version, buildDate))
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
