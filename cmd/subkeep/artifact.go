package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"subkeep/internal/api"
	"subkeep/internal/config"
	"subkeep/internal/models"
)

func newArtifactCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "artifact",
		Short: "Manage generated artifacts",
	}

	cmd.AddCommand(
		newArtifactListCmd(cfg, jsonOutput),
		newArtifactShowCmd(cfg, jsonOutput),
		newArtifactAddCmd(cfg, jsonOutput),
		newArtifactRmCmd(cfg, jsonOutput),
	)
	return cmd
}

func newArtifactListCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				artifacts, err := client.ListArtifacts(cmd.Context())
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(artifacts)
				}
				lines := make([]string, 0, len(artifacts))
				for _, artifact := range artifacts {
					lines = append(lines, formatArtifactLine(artifact))
				}
				return writeLines(lines)
			})
		},
	}
}

func newArtifactShowCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show an artifact",
		Args:  requireName,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				artifact, err := client.GetArtifact(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(artifact)
				}
				return writeArtifactDetail(artifact)
			})
		},
	}
}

func newArtifactAddCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var (
		artifactType string
		source       string
		platform     string
		sync         bool
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add an artifact",
		Args:  requireName,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsedType, err := models.ParseArtifactType(artifactType)
			if err != nil {
				return err
			}
			if source == "" {
				return fmt.Errorf("--source is required")
			}
			artifact := models.Artifact{
				Name:     args[0],
				Type:     parsedType,
				Source:   source,
				Platform: platform,
				Sync:     sync,
			}
			return withClient(cfg, func(client *api.Client) error {
				created, err := client.CreateArtifact(cmd.Context(), artifact)
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

	cmd.Flags().StringVar(&artifactType, "type", string(models.ArtifactSubscription), "artifact type (subscription, collection)")
	cmd.Flags().StringVar(&source, "source", "", "name of the subscription or collection")
	cmd.Flags().StringVar(&platform, "platform", "", "target client platform")
	cmd.Flags().BoolVar(&sync, "sync", false, "include in gist artifact sync")
	return cmd
}

func newArtifactRmCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <name>",
		Short: "Delete an artifact",
		Args:  requireName,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				if err := client.DeleteArtifact(cmd.Context(), args[0]); err != nil {
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
