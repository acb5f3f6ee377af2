package main

import (
	"github.com/spf13/cobra"

	"subkeep/internal/api"
	"subkeep/internal/backup"
	"subkeep/internal/config"
)

func newBackupCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Back up to or restore from the configured gist",
	}

	cmd.AddCommand(
		newBackupActionCmd(cfg, jsonOutput, backup.ActionUpload, "Upload local state to the gist"),
		newBackupActionCmd(cfg, jsonOutput, backup.ActionDownload, "Replace local state with the gist copy"),
	)
	return cmd
}

func newBackupActionCmd(cfg *config.Config, jsonOutput *bool, action backup.Action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action.String(),
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.Backup(cmd.Context(), action.String())
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(resp)
				}
				return writePlain("%s: %s\n", action, resp.Status)
			})
		},
	}
}
