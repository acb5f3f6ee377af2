package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"subkeep/internal/auth"
	"subkeep/internal/backup"
	"subkeep/internal/blobstore"
	"subkeep/internal/config"
	"subkeep/internal/gist"
	"subkeep/internal/server"
	"subkeep/internal/store"
)

const (
	apiTokenEnvKey  = "SUBKEEP_API_TOKEN"
	gistHTTPTimeout = 30 * time.Second
)

func newSrvCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "srv",
		Short: "Run the subkeep API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg == nil {
				return fmt.Errorf("config not initialized")
			}
			if cfg.DBPath == "" {
				return fmt.Errorf("db path is required")
			}

			logger := slog.Default().With("component", "server")

			addr, err := server.ListenAddr(cfg.APIURL)
			if err != nil {
				return err
			}

			logger.Info("opening database", "path", cfg.DBPath)
			st, err := store.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()

			migrator := store.NewMigrator(st, slog.Default().With("component", "migrate"))
			if err := migrator.Run(cmd.Context()); err != nil {
				return fmt.Errorf("migrate local state: %w", err)
			}

			orchestrator, err := newOrchestrator(cfg, st, migrator)
			if err != nil {
				return err
			}

			srv := server.New(server.Options{
				Addr:     addr,
				DBPath:   cfg.DBPath,
				Store:    st,
				Backup:   orchestrator,
				Migrator: migrator,
				Verifier: auth.NewVerifier(os.Getenv(apiTokenEnvKey), cfg.APITokenHash),
				Logger:   logger,
			})
			return srv.ListenAndServe()
		},
	}
}

func newOrchestrator(cfg *config.Config, st store.StateStore, migrator backup.Migrator) (*backup.Orchestrator, error) {
	opts := backup.Options{
		Store:        st,
		NewRemote:    gistRemoteFactory(cfg),
		Migrator:     migrator,
		DocumentName: cfg.Backup.DocumentName,
		Logger:       slog.Default().With("component", "backup"),
	}
	if cfg.Backup.Snapshots > 0 {
		snapshots, err := blobstore.NewLocalSnapshots(cfg.SnapshotDir())
		if err != nil {
			return nil, err
		}
		opts.Snapshots = snapshots
		opts.SnapshotKeep = cfg.Backup.Snapshots
	}
	return backup.New(opts)
}

// gistRemoteFactory builds a gist client per call so a token changed
// through the settings API takes effect on the next backup.
func gistRemoteFactory(cfg *config.Config) backup.RemoteFactory {
	httpClient := &http.Client{Timeout: gistHTTPTimeout}
	logger := slog.Default().With("component", "gist")
	return func(token string) (backup.Remote, error) {
		client, err := gist.NewClient(gist.Config{
			BaseURL:    cfg.Backup.GistAPIURL,
			Token:      token,
			Key:        cfg.Backup.Key,
			HTTPClient: httpClient,
			Logger:     logger,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}
