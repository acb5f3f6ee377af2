package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/spf13/cobra"

	"subkeep/internal/config"
	"subkeep/internal/store"

	_ "modernc.org/sqlite"
)

type migrateReport struct {
	Schema            *store.MigrationStatus `json:"schema"`
	DataVersion       int                    `json:"data_version"`
	LatestDataVersion int                    `json:"latest_data_version"`
}

func newMigrateCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var dryRun bool
	var inspect bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run or inspect schema and data migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if inspect || dryRun {
				db, err := openRawDB(cfg.DBPath)
				if err != nil {
					return err
				}
				defer db.Close()

				plan, err := store.MigrationPlan(db)
				if err != nil {
					return fmt.Errorf("inspect migrations: %w", err)
				}
				if *jsonOutput {
					return writeJSON(plan)
				}
				printMigrationPlan(plan)
				return nil
			}

			// Same steps as server start.
			st, err := store.Open(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			defer st.Close()

			if err := store.NewMigrator(st, slog.Default().With("component", "migrate")).Run(cmd.Context()); err != nil {
				return fmt.Errorf("migrate local state: %w", err)
			}

			info, err := st.StoreInfo(cmd.Context())
			if err != nil {
				return err
			}
			if *jsonOutput {
				db, err := openRawDB(cfg.DBPath)
				if err != nil {
					return err
				}
				defer db.Close()
				plan, err := store.MigrationPlan(db)
				if err != nil {
					return err
				}
				return writeJSON(migrateReport{Schema: plan, DataVersion: info.DataVersion, LatestDataVersion: store.LatestDataVersion()})
			}

			return writePlain("Migrations applied (schema %d, data %d).\n", info.SchemaVersion, info.DataVersion)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show pending migrations without applying")
	cmd.Flags().BoolVar(&inspect, "inspect", false, "show migration status")

	return cmd
}

func printMigrationPlan(plan *store.MigrationStatus) {
	fmt.Printf("Current version: %d\n", plan.CurrentVersion)
	fmt.Printf("Available version: %d\n", plan.AvailableVersion)
	if len(plan.Pending) == 0 {
		fmt.Println("No pending migrations.")
		return
	}
	fmt.Printf("Pending migrations: %d\n", len(plan.Pending))
	for _, m := range plan.Pending {
		fmt.Printf("  %d: %s\n", m.Version, m.Description)
	}
}

func openRawDB(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("db path is required")
	}
	u := url.URL{Scheme: "file", Path: path}
	return sql.Open("sqlite", u.String())
}
