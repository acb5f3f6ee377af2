package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"subkeep/internal/api"
	"subkeep/internal/config"
	"subkeep/internal/models"
)

func newSubCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sub",
		Aliases: []string{"subscription"},
		Short:   "Manage subscriptions",
	}

	cmd.AddCommand(
		newSubListCmd(cfg, jsonOutput),
		newSubShowCmd(cfg, jsonOutput),
		newSubAddCmd(cfg, jsonOutput),
		newSubRmCmd(cfg, jsonOutput),
		newSubImportCmd(cfg, jsonOutput),
	)
	return cmd
}

func newSubListCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List subscriptions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				subs, err := client.ListSubscriptions(cmd.Context())
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(subs)
				}
				lines := make([]string, 0, len(subs))
				for _, sub := range subs {
					lines = append(lines, formatSubscriptionLine(sub))
				}
				return writeLines(lines)
			})
		},
	}
}

func newSubShowCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show a subscription",
		Args:  requireName,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				sub, err := client.GetSubscription(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(sub)
				}
				return writeSubscriptionDetail(sub)
			})
		},
	}
}

func newSubAddCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var (
		displayName string
		url         string
		contentFile string
		userAgent   string
		tags        string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a subscription",
		Args:  requireName,
		RunE: func(cmd *cobra.Command, args []string) error {
			sub := models.Subscription{
				Name:        args[0],
				DisplayName: displayName,
				URL:         strings.TrimSpace(url),
				UserAgent:   userAgent,
				Tags:        splitCommaList(tags),
			}
			if contentFile != "" {
				if sub.URL != "" {
					return fmt.Errorf("--url and --content-file are mutually exclusive")
				}
				data, err := os.ReadFile(contentFile)
				if err != nil {
					return err
				}
				sub.Source = models.SourceLocal
				sub.Content = string(data)
			}
			if sub.URL == "" && sub.Content == "" {
				return fmt.Errorf("one of --url or --content-file is required")
			}

			return withClient(cfg, func(client *api.Client) error {
				created, err := client.CreateSubscription(cmd.Context(), sub)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(created)
				}
				return writePlain("created %s\n", created.Name)
			})
		},
	}

	cmd.Flags().StringVar(&displayName, "display-name", "", "display name")
	cmd.Flags().StringVar(&url, "url", "", "remote subscription URL")
	cmd.Flags().StringVar(&contentFile, "content-file", "", "read a local node list from file")
	cmd.Flags().StringVar(&userAgent, "ua", "", "user agent used when fetching the URL")
	cmd.Flags().StringVar(&tags, "tags", "", "comma-separated tags")
	return cmd
}

func newSubRmCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <name>",
		Short: "Delete a subscription",
		Args:  requireName,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				if err := client.DeleteSubscription(cmd.Context(), args[0]); err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(api.StatusResponse{Status: "success"})
				}
				return writePlain("deleted %s\n", args[0])
			})
		},
	}
}

func newSubImportCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "import <manifest.yaml>",
		Short: "Import subscriptions and collections from a YAML manifest",
		Args:  requireExactlyArgs(1, "manifest path is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			manifest, err := readManifest(args[0])
			if err != nil {
				return err
			}
			return withClient(cfg, func(client *api.Client) error {
				result, err := applyManifest(cmd.Context(), client, manifest, replace)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(result)
				}
				return writePlain("created %d, replaced %d, skipped %d\n", result.Created, result.Replaced, result.Skipped)
			})
		},
	}

	cmd.Flags().BoolVar(&replace, "replace", false, "replace entries that already exist")
	return cmd
}
