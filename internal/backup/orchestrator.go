package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"subkeep/internal/blobstore"
	"subkeep/internal/models"
	"subkeep/internal/store"
)

// Remote stores and retrieves named backup documents.
type Remote interface {
	Upload(ctx context.Context, name, content string) error
	Download(ctx context.Context, name string) (string, error)
}

// RemoteFactory builds a Remote for the credential found in settings.
type RemoteFactory func(token string) (Remote, error)

// Migrator normalizes freshly restored state. A run with nothing to do
// must succeed.
type Migrator interface {
	Run(ctx context.Context) error
}

// Options configures an Orchestrator.
type Options struct {
	Store     store.StateStore
	NewRemote RemoteFactory
	Migrator  Migrator
	// Snapshots, when set, receives the local state before a restore
	// overwrites it.
	Snapshots    blobstore.SnapshotStore
	SnapshotKeep int
	DocumentName string
	Now          func() time.Time
	Logger       *slog.Logger
}

// Orchestrator coordinates upload and download of the full local state.
//
// Invocations are not serialized against each other; running two at once
// can interleave the settings writes of an upload and its rollback.
type Orchestrator struct {
	store        store.StateStore
	newRemote    RemoteFactory
	migrator     Migrator
	snapshots    blobstore.SnapshotStore
	snapshotKeep int
	documentName string
	now          func() time.Time
	logger       *slog.Logger
}

// New validates opts and returns an Orchestrator.
func New(opts Options) (*Orchestrator, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("backup: state store is required")
	}
	if opts.NewRemote == nil {
		return nil, fmt.Errorf("backup: remote factory is required")
	}
	if opts.Migrator == nil {
		return nil, fmt.Errorf("backup: migrator is required")
	}
	if opts.DocumentName == "" {
		return nil, fmt.Errorf("backup: document name is required")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		store:        opts.Store,
		newRemote:    opts.NewRemote,
		migrator:     opts.Migrator,
		snapshots:    opts.Snapshots,
		snapshotKeep: opts.SnapshotKeep,
		documentName: opts.DocumentName,
		now:          now,
		logger:       logger,
	}, nil
}

// Run executes one backup action.
func (o *Orchestrator) Run(ctx context.Context, action Action) error {
	switch action {
	case ActionUpload:
		return o.upload(ctx)
	case ActionDownload:
		return o.download(ctx)
	default:
		o.logger.Debug("ignoring unknown backup action")
		return nil
	}
}

// credentialCheck loads settings and builds the remote for their token.
func (o *Orchestrator) credentialCheck(ctx context.Context, action Action) (models.Settings, Remote, error) {
	settings, err := o.store.ReadSettings(ctx)
	if err != nil {
		return settings, nil, fmt.Errorf("load settings: %w", err)
	}
	if !settings.HasGistToken() {
		return settings, nil, configurationError()
	}
	remote, err := o.newRemote(settings.GistToken)
	if err != nil {
		return settings, nil, backupFailed(action, err)
	}
	return settings, remote, nil
}

func (o *Orchestrator) upload(ctx context.Context) error {
	settings, remote, err := o.credentialCheck(ctx, ActionUpload)
	if err != nil {
		return err
	}

	intent, err := o.commitSyncIntent(ctx, settings)
	if err != nil {
		return backupFailed(ActionUpload, err)
	}

	if err := o.push(ctx, remote); err != nil {
		if compErr := intent.compensate(ctx); compErr != nil {
			o.logger.Error("sync time rollback failed", "error", compErr)
			err = errors.Join(err, fmt.Errorf("roll back sync time: %w", compErr))
		}
		o.logger.Warn("backup upload failed", "document", o.documentName, "error", err)
		return backupFailed(ActionUpload, err)
	}

	o.logger.Info("backup uploaded", "document", o.documentName, "sync_time", intent.committed.SyncTime)
	return nil
}

func (o *Orchestrator) push(ctx context.Context, remote Remote) error {
	blob, err := o.store.ReadAll(ctx)
	if err != nil {
		return err
	}
	return remote.Upload(ctx, o.documentName, string(blob))
}

func (o *Orchestrator) download(ctx context.Context) error {
	_, remote, err := o.credentialCheck(ctx, ActionDownload)
	if err != nil {
		return err
	}

	content, err := remote.Download(ctx, o.documentName)
	if err != nil {
		o.logger.Warn("backup download failed", "document", o.documentName, "error", err)
		return backupFailed(ActionDownload, err)
	}
	blob := []byte(content)
	if _, err := models.DecodeSnapshot(blob); err != nil {
		return backupFailed(ActionDownload, err)
	}
	if err := o.keepSnapshot(ctx); err != nil {
		return backupFailed(ActionDownload, fmt.Errorf("snapshot local state: %w", err))
	}

	if err := o.store.WriteAll(ctx, blob); err != nil {
		return backupFailed(ActionDownload, err)
	}
	// Past this point local state is overwritten; a migration failure
	// leaves it unmigrated.
	if err := o.migrator.Run(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrMigration, err)
	}

	o.logger.Info("backup restored", "document", o.documentName, "bytes", len(blob))
	return nil
}

func (o *Orchestrator) keepSnapshot(ctx context.Context) error {
	if o.snapshots == nil {
		return nil
	}
	current, err := o.store.ReadAll(ctx)
	if err != nil {
		return err
	}
	ref, err := o.snapshots.Save(ctx, bytes.NewReader(current))
	if err != nil {
		return err
	}
	o.logger.Info("saved pre-restore snapshot", "snapshot_id", ref.ID, "bytes", ref.SizeBytes)
	if removed, err := o.snapshots.Prune(ctx, o.snapshotKeep); err != nil {
		o.logger.Warn("prune snapshots", "error", err)
	} else if removed > 0 {
		o.logger.Debug("pruned snapshots", "removed", removed)
	}
	return nil
}
