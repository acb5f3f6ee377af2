package store

import (
	"context"
	"testing"

	"subkeep/internal/models"
)

// countingState wraps a StateStore and counts full-state writes.
type countingState struct {
	StateStore
	writes int
}

func (c *countingState) WriteAll(ctx context.Context, blob []byte) error {
	c.writes++
	return c.StateStore.WriteAll(ctx, blob)
}

func TestMigratorUpgradesLegacyState(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	legacy := `{
		"settings": {"gistToken": "tok"},
		"subs": [
			{"name": "remote-one", "url": "https://example.com/a"},
			{"name": "local-one", "content": "ss://x"}
		],
		"collections": [{"name": "c"}],
		"artifacts": [{"name": "art", "type": "col", "source": "c"}]
	}`
	if err := st.WriteAll(ctx, []byte(legacy)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := NewMigrator(st, nil).Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	remote, err := st.GetSubscription(ctx, "remote-one")
	if err != nil {
		t.Fatalf("get remote: %v", err)
	}
	if remote.Source != models.SourceRemote {
		t.Fatalf("expected remote source, got %q", remote.Source)
	}
	if remote.Process == nil || remote.Tags == nil {
		t.Fatal("expected non-nil process and tags")
	}
	local, err := st.GetSubscription(ctx, "local-one")
	if err != nil {
		t.Fatalf("get local: %v", err)
	}
	if local.Source != models.SourceLocal {
		t.Fatalf("expected local source, got %q", local.Source)
	}
	col, err := st.GetCollection(ctx, "c")
	if err != nil {
		t.Fatalf("get collection: %v", err)
	}
	if col.Subscriptions == nil {
		t.Fatal("expected non-nil collection members")
	}
	art, err := st.GetArtifact(ctx, "art")
	if err != nil {
		t.Fatalf("get artifact: %v", err)
	}
	if art.Type != models.ArtifactCollection {
		t.Fatalf("expected collection type, got %q", art.Type)
	}

	settings, err := st.ReadSettings(ctx)
	if err != nil {
		t.Fatalf("read settings: %v", err)
	}
	if settings.SchemaVersion != LatestDataVersion() {
		t.Fatalf("expected data version %d, got %d", LatestDataVersion(), settings.SchemaVersion)
	}
	if settings.GistToken != "tok" {
		t.Fatal("expected migration to keep settings")
	}
}

func TestMigratorIsIdempotent(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	counting := &countingState{StateStore: st}
	migrator := NewMigrator(counting, nil)

	if err := migrator.Run(ctx); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if counting.writes != 1 {
		t.Fatalf("expected one write on first run, got %d", counting.writes)
	}
	first, err := st.ReadAll(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if err := migrator.Run(ctx); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if counting.writes != 1 {
		t.Fatalf("expected no write when current, got %d writes", counting.writes)
	}
	second, err := st.ReadAll(ctx)
	if err != nil {
		t.Fatalf("reread: %v", err)
	}
	if string(first) != string(second) {
		t.Fatalf("state changed on no-op run:\n%s\n%s", first, second)
	}
}

func TestMigratorKeepsExplicitSource(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	if err := st.CreateSubscription(ctx, models.Subscription{Name: "x", Source: models.SourceLocal, URL: "https://example.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := NewMigrator(st, nil).Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	got, err := st.GetSubscription(ctx, "x")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Source != models.SourceLocal {
		t.Fatalf("expected explicit source kept, got %q", got.Source)
	}
}
