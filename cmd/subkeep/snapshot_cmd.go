package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"subkeep/internal/blobstore"
	"subkeep/internal/config"
)

func newSnapshotCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Inspect and restore local state snapshots taken before downloads",
	}

	cmd.AddCommand(
		newSnapshotListCmd(cfg, jsonOutput),
		newSnapshotRestoreCmd(cfg, jsonOutput),
	)
	return cmd
}

func newSnapshotListCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List snapshots, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshots, err := blobstore.NewLocalSnapshots(cfg.SnapshotDir())
			if err != nil {
				return err
			}
			refs, err := snapshots.List(cmd.Context())
			if err != nil {
				return err
			}
			if *jsonOutput {
				return writeJSON(refs)
			}
			lines := make([]string, 0, len(refs))
			for _, ref := range refs {
				lines = append(lines, fmt.Sprintf("%s  %s  %d bytes", ref.ID, ref.CreatedAt.UTC().Format(time.RFC3339), ref.SizeBytes))
			}
			return writeLines(lines)
		},
	}
}

func newSnapshotRestoreCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <id>",
		Short: "Import a snapshot as the local state",
		Args:  requireExactlyArgs(1, "snapshot id is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshots, err := blobstore.NewLocalSnapshots(cfg.SnapshotDir())
			if err != nil {
				return err
			}
			blob, err := snapshots.Open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer blob.Close()
			return importStorage(cfg, cmd, blob, "snapshot "+args[0], *jsonOutput)
		},
	}
}
