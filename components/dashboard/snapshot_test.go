package dashboard

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "dashboard.json")
	store := NewFileSnapshotStore(path)

	want := LocalSnapshot{
		Layout:      []Widget{testWidget("w1", 0, 0, 6, 4)},
		DashboardID: "brand-main",
		Theme:       ThemeDark,
	}
	if err := store.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, ok, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !ok {
		t.Fatal("expected a stored snapshot")
	}
	if got.DashboardID != want.DashboardID || got.Theme != want.Theme {
		t.Fatalf("metadata mismatch: %+v", got)
	}
	if len(got.Layout) != 1 || got.Layout[0].WidgetID != "w1" || got.Layout[0].W != 6 {
		t.Fatalf("layout mismatch: %+v", got.Layout)
	}
}

func TestFileSnapshotMissingFile(t *testing.T) {
	store := NewFileSnapshotStore(filepath.Join(t.TempDir(), "nope.json"))
	_, ok, err := store.Load()
	if err != nil {
		t.Fatalf("Load returned error for missing file: %v", err)
	}
	if ok {
		t.Fatal("missing file must report ok=false")
	}
}

func TestFileSnapshotCorruptedFallsBackToEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashboard.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	store := NewFileSnapshotStore(path)
	_, ok, err := store.Load()
	if err != nil {
		t.Fatalf("corrupted snapshot must not error: %v", err)
	}
	if ok {
		t.Fatal("corrupted snapshot must be treated as missing")
	}
}

func TestMemorySnapshotIsolation(t *testing.T) {
	store := NewMemorySnapshotStore()
	snap := LocalSnapshot{
		Layout:      []Widget{testWidget("w1", 0, 0, 6, 4)},
		DashboardID: "brand-main",
	}
	if err := store.Save(snap); err != nil {
		t.Fatalf("Save: %v", err)
	}
	// The caller's slice must not alias the stored copy.
	snap.Layout[0].X = 99

	got, ok, _ := store.Load()
	if !ok {
		t.Fatal("expected a stored snapshot")
	}
	if got.Layout[0].X != 0 {
		t.Fatalf("stored snapshot aliases caller slice: x=%d", got.Layout[0].X)
	}
	got.Layout[0].Y = 42
	again, _, _ := store.Load()
	if again.Layout[0].Y != 0 {
		t.Fatal("loaded snapshot aliases internal state")
	}
}
