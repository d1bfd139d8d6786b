package localstorage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"commentharvest/internal/core/domain"
)

func TestCheckpointMissingFileIsEmpty(t *testing.T) {
	store := NewCheckpointStore(filepath.Join(t.TempDir(), "progress.json"))
	state, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(state.Processed) != 0 || state.TotalRecords != 0 {
		t.Errorf("state = %+v, want empty", state)
	}
}

func TestCheckpointRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "progress.json")
	store := NewCheckpointStore(path)

	done := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)
	state := domain.NewCheckpointState()
	state.Record("abc", domain.CheckpointEntry{Status: domain.StatusSuccess, Records: 12, CompletedAt: done})
	state.Record("def", domain.CheckpointEntry{Status: domain.StatusFailed, Reason: "page unavailable", CompletedAt: done})
	state.LastRunID = "run-7"
	state.MarkWritten("ghi", "csv")

	if err := store.Save(ctx, state); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !got.Done("abc") || !got.Done("def") || got.Done("ghi") {
		t.Errorf("processed = %v", got.Processed)
	}
	if got.TotalRecords != 12 || got.LastRunID != "run-7" {
		t.Errorf("counters = %d %q", got.TotalRecords, got.LastRunID)
	}
	if !got.Wrote("ghi", "csv") || got.Done("ghi") {
		t.Errorf("partial write marker lost: %v", got.Written)
	}
	if e := got.Processed["def"]; e.Reason != "page unavailable" || e.Status != domain.StatusFailed {
		t.Errorf("failure ledger entry = %+v", e)
	}
	if !got.LastUpdated.Equal(done) {
		t.Errorf("LastUpdated = %v, want %v", got.LastUpdated, done)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory holds %d entries, want only the checkpoint", len(entries))
	}
}

func TestCheckpointCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewCheckpointStore(path).Load(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestCheckpointReset(t *testing.T) {
	ctx := context.Background()
	store := NewCheckpointStore(filepath.Join(t.TempDir(), "progress.json"))

	if err := store.Reset(ctx); err != nil {
		t.Fatalf("Reset on missing file: %v", err)
	}
	state := domain.NewCheckpointState()
	state.Record("abc", domain.CheckpointEntry{Status: domain.StatusSuccess, Records: 3})
	if err := store.Save(ctx, state); err != nil {
		t.Fatal(err)
	}
	if err := store.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.Done("abc") {
		t.Error("checkpoint survived reset")
	}
}
