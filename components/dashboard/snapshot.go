package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileSnapshotStore persists the local snapshot as a JSON file, the
// client-side equivalent of browser local storage: restored on startup
// before any remote fetch completes so the dashboard is never blank.
type FileSnapshotStore struct {
	mu   sync.Mutex
	path string
}

// NewFileSnapshotStore builds a store writing to path.
func NewFileSnapshotStore(path string) *FileSnapshotStore {
	return &FileSnapshotStore{path: path}
}

// Load reads the snapshot. ok is false when no snapshot exists yet. A
// corrupted file is treated the same as a missing one: startup falls back
// to the empty default rather than failing.
func (s *FileSnapshotStore) Load() (LocalSnapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return LocalSnapshot{}, false, nil
		}
		return LocalSnapshot{}, false, fmt.Errorf("dashboard: read snapshot %s: %w", s.path, err)
	}
	var snap LocalSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return LocalSnapshot{}, false, nil
	}
	return snap, true, nil
}

// Save writes the snapshot atomically (temp file + rename).
func (s *FileSnapshotStore) Save(snap LocalSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("dashboard: encode snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("dashboard: snapshot dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("dashboard: write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("dashboard: replace snapshot: %w", err)
	}
	return nil
}

// MemorySnapshotStore keeps the snapshot in memory; tests and ephemeral
// sessions use it in place of the file store.
type MemorySnapshotStore struct {
	mu   sync.Mutex
	snap LocalSnapshot
	set  bool
}

// NewMemorySnapshotStore builds an empty in-memory store.
func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{}
}

// Load returns the stored snapshot, if any.
func (s *MemorySnapshotStore) Load() (LocalSnapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		return LocalSnapshot{}, false, nil
	}
	out := s.snap
	out.Layout = CloneLayout(s.snap.Layout)
	return out, true, nil
}

// Save stores a copy of the snapshot.
func (s *MemorySnapshotStore) Save(snap LocalSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap.Layout = CloneLayout(snap.Layout)
	s.snap = snap
	s.set = true
	return nil
}
