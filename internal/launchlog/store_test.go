package launchlog

import (
	"context"
	"path/filepath"
	"testing"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBeginFinishRoundTrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	id, err := store.Begin(ctx, "spawned")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := store.Finish(ctx, id, OutcomeReady, "http://127.0.0.1:4747", ""); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	entries, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	entry := entries[0]
	if entry.Outcome != OutcomeReady || entry.URL != "http://127.0.0.1:4747" {
		t.Fatalf("entry = %+v", entry)
	}
	if entry.StartedAt.IsZero() || entry.EndedAt.IsZero() {
		t.Fatalf("timestamps not recorded: %+v", entry)
	}
}

func TestRecentNewestFirst(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	first, _ := store.Begin(ctx, "spawned")
	second, _ := store.Begin(ctx, "existing")
	_ = store.Finish(ctx, first, OutcomeFailed, "", "health check timed out")
	_ = store.Finish(ctx, second, OutcomeExisting, "http://10.0.0.2:80", "")

	entries, err := store.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != second {
		t.Fatalf("expected newest entry %d, got %+v", second, entries)
	}
}
