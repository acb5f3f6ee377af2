package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"subkeep/internal/config"
	"subkeep/internal/format"
)

func newRootCmd(cfg *config.Config) *cobra.Command {
	var (
		jsonOutput bool
		yamlOutput bool
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:           "subkeep",
		Short:         "Subkeep keeps proxy subscriptions and backs them up to a GitHub gist",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			warning, err := configureLoggerForCLI(logLevel, cfg.LogLevel)
			if err != nil {
				return err
			}
			if warning != "" {
				fmt.Fprintln(os.Stderr, warning)
			}
			if jsonOutput && yamlOutput {
				return fmt.Errorf("--json and --yaml are mutually exclusive")
			}
			if yamlOutput {
				outputFormatter = format.YAMLFormatter{}
				jsonOutput = true
			}
			return nil
		},
	}

	cmd.Version = version
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON")
	cmd.PersistentFlags().BoolVar(&yamlOutput, "yaml", false, "output YAML")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		newSrvCmd(cfg),
		newMigrateCmd(cfg, &jsonOutput),
		newInfoCmd(cfg, &jsonOutput),
		newConfigCmd(cfg),
		newSubCmd(cfg, &jsonOutput),
		newCollectionCmd(cfg, &jsonOutput),
		newArtifactCmd(cfg, &jsonOutput),
		newSettingsCmd(cfg, &jsonOutput),
		newBackupCmd(cfg, &jsonOutput),
		newStorageCmd(cfg, &jsonOutput),
		newSnapshotCmd(cfg, &jsonOutput),
		newTokenCmd(),
	)

	return cmd
}
