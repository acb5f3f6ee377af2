package store

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"subkeep/internal/models"
)

// DataMigration is one idempotent transform over the decoded local state.
type DataMigration struct {
	Version     int
	Description string
	Apply       func(*models.Snapshot)
}

var dataMigrations = []DataMigration{
	{
		Version:     1,
		Description: "default subscription source from url",
		Apply: func(snap *models.Snapshot) {
			for i := range snap.Subscriptions {
				sub := &snap.Subscriptions[i]
				if sub.Source == "" {
					models.ApplySubscriptionDefaults(sub)
				}
			}
		},
	},
	{
		Version:     2,
		Description: "non-nil tags, process and member lists",
		Apply: func(snap *models.Snapshot) {
			for i := range snap.Subscriptions {
				models.ApplySubscriptionDefaults(&snap.Subscriptions[i])
			}
			for i := range snap.Collections {
				models.ApplyCollectionDefaults(&snap.Collections[i])
			}
		},
	},
	{
		Version:     3,
		Description: "rename legacy artifact types",
		Apply: func(snap *models.Snapshot) {
			for i := range snap.Artifacts {
				snap.Artifacts[i].Type = models.CanonicalArtifactType(snap.Artifacts[i].Type)
			}
		},
	},
}

// LatestDataVersion is the data version a fully migrated state carries.
func LatestDataVersion() int {
	latest := 0
	for _, m := range dataMigrations {
		if m.Version > latest {
			latest = m.Version
		}
	}
	return latest
}

// Migrator brings the stored state up to the latest data version.
type Migrator struct {
	store  StateStore
	logger *slog.Logger
}

// NewMigrator creates a migrator over a state store.
func NewMigrator(st StateStore, logger *slog.Logger) *Migrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Migrator{store: st, logger: logger}
}

// Run applies pending data migrations and writes the result back once.
// A state already at the latest version is left untouched.
func (m *Migrator) Run(ctx context.Context) error {
	blob, err := m.store.ReadAll(ctx)
	if err != nil {
		return fmt.Errorf("load state for migration: %w", err)
	}
	snap, err := models.DecodeSnapshot(blob)
	if err != nil {
		return fmt.Errorf("load state for migration: %w", err)
	}

	from := snap.Settings.SchemaVersion
	applied := 0
	for _, dm := range sortedDataMigrations() {
		if dm.Version <= from {
			continue
		}
		dm.Apply(&snap)
		snap.Settings.SchemaVersion = dm.Version
		applied++
	}
	if applied == 0 {
		m.logger.Debug("state already current", "data_version", from)
		return nil
	}

	out, err := models.EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	if err := m.store.WriteAll(ctx, out); err != nil {
		return fmt.Errorf("write migrated state: %w", err)
	}
	m.logger.Info("migrated state", "from", from, "to", snap.Settings.SchemaVersion, "applied", applied)
	return nil
}

func sortedDataMigrations() []DataMigration {
	sorted := make([]DataMigration, len(dataMigrations))
	copy(sorted, dataMigrations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Version < sorted[j].Version })
	return sorted
}
