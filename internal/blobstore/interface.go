package blobstore

import (
	"context"
	"io"
	"time"
)

// SnapshotRef describes one persisted state snapshot.
type SnapshotRef struct {
	ID        string    `json:"id"`
	SHA256    string    `json:"sha256"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// SnapshotStore keeps copies of local state taken before a restore.
type SnapshotStore interface {
	Save(ctx context.Context, r io.Reader) (SnapshotRef, error)
	List(ctx context.Context) ([]SnapshotRef, error)
	Open(ctx context.Context, id string) (io.ReadCloser, error)
	Prune(ctx context.Context, keep int) (int, error)
}
