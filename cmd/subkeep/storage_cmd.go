package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"subkeep/internal/api"
	"subkeep/internal/config"
)

func newStorageCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "storage",
		Short: "Export or import the raw local state document",
	}

	cmd.AddCommand(
		newStorageExportCmd(cfg),
		newStorageImportCmd(cfg, jsonOutput),
	)
	return cmd
}

func newStorageExportCmd(cfg *config.Config) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the local state document to stdout or a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			var out io.Writer = os.Stdout
			if outPath != "" {
				file, err := os.OpenFile(outPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
				if err != nil {
					return err
				}
				defer file.Close()
				out = file
			}
			return withClient(cfg, func(client *api.Client) error {
				return client.ExportStorage(cmd.Context(), out)
			})
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write to file instead of stdout")
	return cmd
}

func newStorageImportCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the local state with a document and migrate it",
		Args:  requireExactlyArgs(1, "file path is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()
			return importStorage(cfg, cmd, file, args[0], *jsonOutput)
		},
	}
}

func importStorage(cfg *config.Config, cmd *cobra.Command, blob io.Reader, label string, jsonOutput bool) error {
	return withClient(cfg, func(client *api.Client) error {
		resp, err := client.ImportStorage(cmd.Context(), blob)
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(resp)
		}
		return writePlain("imported %s: %s\n", label, resp.Status)
	})
}
