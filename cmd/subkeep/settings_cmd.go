package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"subkeep/internal/api"
	"subkeep/internal/config"
)

func newSettingsCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change persisted service settings",
	}

	cmd.AddCommand(
		newSettingsShowCmd(cfg, jsonOutput),
		newSettingsSetCmd(cfg, jsonOutput),
	)
	return cmd
}

func newSettingsShowCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show settings (the gist token is masked)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				settings, err := client.GetSettings(cmd.Context())
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(settings)
				}
				return writeSettings(settings)
			})
		},
	}
}

func newSettingsSetCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var (
		gistToken  string
		githubUser string
		userAgent  string
		timeoutMS  int64
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			var req api.SettingsUpdateRequest
			flags := cmd.Flags()
			if flags.Changed("gist-token") {
				req.GistToken = &gistToken
			}
			if flags.Changed("github-user") {
				req.GithubUser = &githubUser
			}
			if flags.Changed("user-agent") {
				req.DefaultUserAgent = &userAgent
			}
			if flags.Changed("timeout") {
				if timeoutMS < 0 {
					return fmt.Errorf("--timeout must be >= 0")
				}
				req.DefaultTimeout = &timeoutMS
			}
			if req.Empty() {
				return fmt.Errorf("nothing to update")
			}

			return withClient(cfg, func(client *api.Client) error {
				settings, err := client.UpdateSettings(cmd.Context(), req)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(settings)
				}
				return writeSettings(settings)
			})
		},
	}

	cmd.Flags().StringVar(&gistToken, "gist-token", "", "GitHub token with gist scope (empty clears it)")
	cmd.Flags().StringVar(&githubUser, "github-user", "", "GitHub user name")
	cmd.Flags().StringVar(&userAgent, "user-agent", "", "default user agent for remote subscriptions")
	cmd.Flags().Int64Var(&timeoutMS, "timeout", 0, "default fetch timeout in milliseconds")
	return cmd
}
