package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"subkeep/internal/models"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// documentTable stores JSON documents keyed by name, ordered by position.
type documentTable[T any] struct {
	table string
	name  func(T) string
}

var (
	subscriptionTable = documentTable[models.Subscription]{
		table: "subscriptions",
		name:  func(v models.Subscription) string { return v.Name },
	}
	collectionTable = documentTable[models.Collection]{
		table: "collections",
		name:  func(v models.Collection) string { return v.Name },
	}
	artifactTable = documentTable[models.Artifact]{
		table: "artifacts",
		name:  func(v models.Artifact) string { return v.Name },
	}
)

func (d documentTable[T]) list(ctx context.Context, q queryer) ([]T, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf("SELECT data FROM %s ORDER BY position, name", d.table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var item T
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			return nil, fmt.Errorf("decode %s row: %w", d.table, err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (d documentTable[T]) get(ctx context.Context, q queryer, name string) (*T, error) {
	var raw string
	err := q.QueryRowContext(ctx, fmt.Sprintf("SELECT data FROM %s WHERE name = ?", d.table), name).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var item T
	if err := json.Unmarshal([]byte(raw), &item); err != nil {
		return nil, fmt.Errorf("decode %s row: %w", d.table, err)
	}
	return &item, nil
}

func (d documentTable[T]) count(ctx context.Context, q queryer) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", d.table)).Scan(&n)
	return n, err
}

func (d documentTable[T]) create(ctx context.Context, q queryer, item T) error {
	data, err := json.Marshal(item)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (name, position, data) VALUES (?, (SELECT COALESCE(MAX(position), -1) + 1 FROM %s), ?)", d.table, d.table),
		d.name(item), string(data),
	)
	if isUniqueConstraint(err) {
		return fmt.Errorf("%s %q: %w", strings.TrimSuffix(d.table, "s"), d.name(item), ErrConflict)
	}
	return err
}

// update replaces the document stored under name; item may carry a new name.
func (d documentTable[T]) update(ctx context.Context, q queryer, name string, item T) error {
	data, err := json.Marshal(item)
	if err != nil {
		return err
	}
	res, err := q.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET name = ?, data = ? WHERE name = ?", d.table),
		d.name(item), string(data), name,
	)
	if isUniqueConstraint(err) {
		return fmt.Errorf("%s %q: %w", strings.TrimSuffix(d.table, "s"), d.name(item), ErrConflict)
	}
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (d documentTable[T]) delete(ctx context.Context, q queryer, name string) error {
	res, err := q.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE name = ?", d.table), name)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// replaceAll drops every row and inserts items in order.
func (d documentTable[T]) replaceAll(ctx context.Context, q queryer, items []T) error {
	if _, err := q.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", d.table)); err != nil {
		return err
	}
	stmt := fmt.Sprintf("INSERT INTO %s (name, position, data) VALUES (?, ?, ?)", d.table)
	for i, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, stmt, d.name(item), i, string(data)); err != nil {
			return fmt.Errorf("insert %s %q: %w", d.table, d.name(item), err)
		}
	}
	return nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueConstraint(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
