// Package configcmd implements the config command group.
package configcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/drivesense/internal/conf"
)

// Command creates the config command and its subcommands.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and write configuration",
	}

	cmd.AddCommand(dumpCommand(settings), defaultCommand(), saveCommand(settings))
	return cmd
}

func dumpCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Print the effective configuration",
		Long:  "Print the configuration after defaults, config file, environment, flags and the sensitivity preset are applied.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := conf.MarshalYAML(settings)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func defaultCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "default",
		Short: "Print the annotated default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := conf.DefaultConfigYAML()
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), data)
			return err
		},
	}
}

func saveCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "save [config.yaml]",
		Short: "Write the effective configuration to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := conf.SaveYAMLConfig(args[0], settings); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "configuration written to %s\n", args[0])
			return nil
		},
	}
}
