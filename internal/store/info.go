package store

import (
	"context"
	"database/sql"
)

// StoreInfo summarizes the local database.
type StoreInfo struct {
	SchemaVersion     int
	DataVersion       int
	SubscriptionCount int
	CollectionCount   int
	ArtifactCount     int
}

// StoreInfo reports schema versions and record counts.
func (s *Store) StoreInfo(ctx context.Context) (*StoreInfo, error) {
	info := &StoreInfo{}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&info.SchemaVersion); err != nil {
			return err
		}
		settings, err := readSettings(ctx, tx)
		if err != nil {
			return err
		}
		info.DataVersion = settings.SchemaVersion
		if info.SubscriptionCount, err = subscriptionTable.count(ctx, tx); err != nil {
			return err
		}
		if info.CollectionCount, err = collectionTable.count(ctx, tx); err != nil {
			return err
		}
		info.ArtifactCount, err = artifactTable.count(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}
