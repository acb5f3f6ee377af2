package main

import (
	"github.com/spf13/cobra"

	"subkeep/internal/api"
	"subkeep/internal/config"
)

func newInfoCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show database and backup status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.GetInfo(cmd.Context())
				if err != nil {
					return err
				}
				resp.DBPath = cfg.DBPath

				if *jsonOutput {
					return writeJSON(resp)
				}
				return writeInfo(resp)
			})
		},
	}
}
