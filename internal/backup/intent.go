package backup

import (
	"context"

	"subkeep/internal/models"
	"subkeep/internal/store"
)

// syncIntent is the persisted optimistic sync time of an in-flight upload,
// together with what is needed to undo it.
type syncIntent struct {
	store     store.StateStore
	previous  int64
	committed models.Settings
}

// commitSyncIntent stamps syncTime with now and persists settings before
// the network call, so readers can observe an upload in progress.
func (o *Orchestrator) commitSyncIntent(ctx context.Context, settings models.Settings) (*syncIntent, error) {
	intent := &syncIntent{store: o.store, previous: settings.SyncTime}
	stamp := o.now().UnixMilli()
	if stamp <= intent.previous {
		stamp = intent.previous + 1
	}
	settings.SyncTime = stamp
	if err := o.store.WriteSettings(ctx, settings); err != nil {
		return nil, err
	}
	intent.committed = settings
	return intent, nil
}

// compensate restores the pre-attempt sync time and leaves every other
// setting as it is now, so edits made during the upload survive. It runs
// even when ctx has been cancelled by the failed call.
func (i *syncIntent) compensate(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)
	rolled, err := i.store.ReadSettings(ctx)
	if err != nil {
		rolled = i.committed
	}
	rolled.SyncTime = i.previous
	return i.store.WriteSettings(ctx, rolled)
}
