package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"subkeep/internal/models"
)

// ReadAll serializes the full local state into one backup blob.
func (s *Store) ReadAll(ctx context.Context) ([]byte, error) {
	var snap models.Snapshot
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		if snap.Settings, err = readSettings(ctx, tx); err != nil {
			return err
		}
		if snap.Subscriptions, err = subscriptionTable.list(ctx, tx); err != nil {
			return err
		}
		if snap.Collections, err = collectionTable.list(ctx, tx); err != nil {
			return err
		}
		if snap.Artifacts, err = artifactTable.list(ctx, tx); err != nil {
			return err
		}
		snap.Extra, err = readKeyValues(ctx, tx, "sections")
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("read local state: %w", err)
	}
	return models.EncodeSnapshot(snap)
}

// WriteAll replaces the full local state with the content of blob.
// Nothing is written if the blob does not decode.
func (s *Store) WriteAll(ctx context.Context, blob []byte) error {
	snap, err := models.DecodeSnapshot(blob)
	if err != nil {
		return err
	}
	return s.writeSnapshot(ctx, snap)
}

func (s *Store) writeSnapshot(ctx context.Context, snap models.Snapshot) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := writeSettings(ctx, tx, snap.Settings); err != nil {
			return err
		}
		if err := subscriptionTable.replaceAll(ctx, tx, snap.Subscriptions); err != nil {
			return err
		}
		if err := collectionTable.replaceAll(ctx, tx, snap.Collections); err != nil {
			return err
		}
		if err := artifactTable.replaceAll(ctx, tx, snap.Artifacts); err != nil {
			return err
		}
		return writeKeyValues(ctx, tx, "sections", snap.Extra)
	})
	if err != nil {
		return fmt.Errorf("write local state: %w", err)
	}
	return nil
}

// ReadSettings loads the settings record.
func (s *Store) ReadSettings(ctx context.Context) (models.Settings, error) {
	return readSettings(ctx, s.db)
}

// WriteSettings replaces the settings record.
func (s *Store) WriteSettings(ctx context.Context, settings models.Settings) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return writeSettings(ctx, tx, settings)
	})
}

// Settings are kept one row per JSON key so unrelated keys stay inspectable.
// Keys Settings does not declare round-trip through Settings.Extra.
func readSettings(ctx context.Context, q queryer) (models.Settings, error) {
	var settings models.Settings
	fields, err := readKeyValues(ctx, q, "settings")
	if err != nil || len(fields) == 0 {
		return settings, err
	}

	encoded, err := json.Marshal(fields)
	if err != nil {
		return settings, err
	}
	if err := json.Unmarshal(encoded, &settings); err != nil {
		return settings, fmt.Errorf("decode settings: %w", err)
	}
	return settings, nil
}

func writeSettings(ctx context.Context, q queryer, settings models.Settings) error {
	encoded, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(encoded, &fields); err != nil {
		return err
	}
	return writeKeyValues(ctx, q, "settings", fields)
}

// readKeyValues loads a key/value table as raw JSON members.
// An empty table yields a nil map.
func readKeyValues(ctx context.Context, q queryer, table string) (models.Extra, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf("SELECT key, value FROM %s ORDER BY key", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fields models.Extra
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		if fields == nil {
			fields = models.Extra{}
		}
		fields[key] = json.RawMessage(value)
	}
	return fields, rows.Err()
}

// writeKeyValues replaces every row of a key/value table.
func writeKeyValues(ctx context.Context, q queryer, table string, fields map[string]json.RawMessage) error {
	if _, err := q.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", table)); err != nil {
		return err
	}
	stmt := fmt.Sprintf("INSERT INTO %s (key, value) VALUES (?, ?)", table)
	for key, value := range fields {
		if _, err := q.ExecContext(ctx, stmt, key, string(value)); err != nil {
			return fmt.Errorf("write %s %s: %w", table, key, err)
		}
	}
	return nil
}
