package blobstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

const snapshotExt = ".json"

var snapshotIDPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// LocalSnapshots stores snapshots as content-addressed files in one directory.
// Saving identical content twice refreshes the existing file's timestamp.
type LocalSnapshots struct {
	root string
	now  func() time.Time
}

// NewLocalSnapshots creates a snapshot directory rooted at root.
func NewLocalSnapshots(root string) (*LocalSnapshots, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("snapshot root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(abs, "tmp"), 0o700); err != nil {
		return nil, err
	}
	return &LocalSnapshots{root: abs, now: time.Now}, nil
}

// Save streams r to disk and names the file by its SHA-256 digest.
func (s *LocalSnapshots) Save(ctx context.Context, r io.Reader) (SnapshotRef, error) {
	var zero SnapshotRef
	if s == nil {
		return zero, fmt.Errorf("snapshot store is not configured")
	}
	if r == nil {
		return zero, fmt.Errorf("reader is required")
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	tmp, err := os.CreateTemp(filepath.Join(s.root, "tmp"), "save-*")
	if err != nil {
		return zero, err
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, h), r)
	if err != nil {
		cleanup()
		return zero, err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return zero, err
	}

	digest := hex.EncodeToString(h.Sum(nil))
	dst := s.pathFor(digest)
	if err := os.Rename(tmpPath, dst); err != nil {
		cleanup()
		return zero, err
	}

	createdAt := s.now().UTC()
	if err := os.Chtimes(dst, createdAt, createdAt); err != nil {
		return zero, err
	}
	return SnapshotRef{ID: digest, SHA256: digest, SizeBytes: n, CreatedAt: createdAt}, nil
}

// List returns snapshots, newest first.
func (s *LocalSnapshots) List(ctx context.Context) ([]SnapshotRef, error) {
	if s == nil {
		return nil, fmt.Errorf("snapshot store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, err
	}

	refs := []SnapshotRef{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), snapshotExt) {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), snapshotExt)
		if !snapshotIDPattern.MatchString(id) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, err
		}
		refs = append(refs, SnapshotRef{ID: id, SHA256: id, SizeBytes: info.Size(), CreatedAt: info.ModTime().UTC()})
	}
	sort.SliceStable(refs, func(i, j int) bool { return refs[i].CreatedAt.After(refs[j].CreatedAt) })
	return refs, nil
}

// Open returns a reader for one snapshot.
func (s *LocalSnapshots) Open(ctx context.Context, id string) (io.ReadCloser, error) {
	if s == nil {
		return nil, fmt.Errorf("snapshot store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id = strings.TrimSpace(id)
	if !snapshotIDPattern.MatchString(id) {
		return nil, fmt.Errorf("invalid snapshot id")
	}
	return os.Open(s.pathFor(id))
}

// Prune removes all but the newest keep snapshots. keep <= 0 disables pruning.
func (s *LocalSnapshots) Prune(ctx context.Context, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}
	refs, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, ref := range refs[min(keep, len(refs)):] {
		if err := os.Remove(s.pathFor(ref.ID)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func (s *LocalSnapshots) pathFor(id string) string {
	return filepath.Join(s.root, id+snapshotExt)
}
