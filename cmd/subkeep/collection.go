package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"subkeep/internal/api"
	"subkeep/internal/config"
	"subkeep/internal/models"
)

func newCollectionCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "collection",
		Aliases: []string{"col"},
		Short:   "Manage collections of subscriptions",
	}

	cmd.AddCommand(
		newCollectionListCmd(cfg, jsonOutput),
		newCollectionShowCmd(cfg, jsonOutput),
		newCollectionAddCmd(cfg, jsonOutput),
		newCollectionRmCmd(cfg, jsonOutput),
	)
	return cmd
}

func newCollectionListCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List collections",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				cols, err := client.ListCollections(cmd.Context())
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(cols)
				}
				lines := make([]string, 0, len(cols))
				for _, col := range cols {
					lines = append(lines, formatCollectionLine(col))
				}
				return writeLines(lines)
			})
		},
	}
}

func newCollectionShowCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show a collection",
		Args:  requireName,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				col, err := client.GetCollection(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(col)
				}
				return writeCollectionDetail(col)
			})
		},
	}
}

func newCollectionAddCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var (
		displayName string
		subs        string
		tags        string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a collection",
		Args:  requireName,
		RunE: func(cmd *cobra.Command, args []string) error {
			members := splitCommaList(subs)
			if len(members) == 0 {
				return fmt.Errorf("--subs is required")
			}
			col := models.Collection{
				Name:          args[0],
				DisplayName:   displayName,
				Subscriptions: members,
				Tags:          splitCommaList(tags),
			}
			return withClient(cfg, func(client *api.Client) error {
				created, err := client.CreateCollection(cmd.Context(), col)
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
	cmd.Flags().StringVar(&subs, "subs", "", "comma-separated subscription names")
	cmd.Flags().StringVar(&tags, "tags", "", "comma-separated tags")
	return cmd
}

func newCollectionRmCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <name>",
		Short: "Delete a collection",
		Args:  requireName,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				if err := client.DeleteCollection(cmd.Context(), args[0]); err != nil {
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
