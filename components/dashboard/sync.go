package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// SyncOptions configures a Synchronizer.
type SyncOptions struct {
	Store     *Store
	Client    LayoutClient
	Snapshots SnapshotStore
	Telemetry Telemetry

	// QuietPeriod is the debounce window; zero means DefaultQuietPeriod.
	QuietPeriod time.Duration
	Clock       Clock

	// MaxAttempts caps save retries (default 3); Backoff is the base delay
	// doubled per retry (default 500ms).
	MaxAttempts int
	Backoff     time.Duration
	SaveTimeout time.Duration

	// OnError receives the final error after retries are exhausted. Local
	// state is never rolled back: geometry is cheap to redo and blocking
	// rollback hurts perceived responsiveness.
	OnError func(error)
}

type savePayload struct {
	dashboardID string
	layout      []Widget
	seq         uint64
}

// Synchronizer persists layout mutations to the remote store without
// blocking the interactive path. It subscribes to the store as a LayoutHook,
// debounces geometry changes, resends the full layout (last-snapshot-wins),
// and reconciles the server's authoritative response back into the store
// unless a newer local mutation has occurred since the save was stamped.
type Synchronizer struct {
	store     *Store
	client    LayoutClient
	snapshots SnapshotStore
	telemetry Telemetry
	debounce  *Debouncer[savePayload]

	maxAttempts int
	backoff     time.Duration
	saveTimeout time.Duration
	onError     func(error)

	seqMu         sync.Mutex
	lastScheduled uint64
}

// NewSynchronizer wires a synchronizer into the store's hook chain.
func NewSynchronizer(opts SyncOptions) (*Synchronizer, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("dashboard: synchronizer requires a store")
	}
	if opts.Client == nil {
		return nil, fmt.Errorf("dashboard: synchronizer requires a layout client")
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 500 * time.Millisecond
	}
	if opts.SaveTimeout <= 0 {
		opts.SaveTimeout = 10 * time.Second
	}
	s := &Synchronizer{
		store:       opts.Store,
		client:      opts.Client,
		snapshots:   opts.Snapshots,
		telemetry:   normalizeTelemetry(opts.Telemetry),
		maxAttempts: opts.MaxAttempts,
		backoff:     opts.Backoff,
		saveTimeout: opts.SaveTimeout,
		onError:     opts.OnError,
	}
	s.debounce = NewDebouncer(opts.QuietPeriod, opts.Clock, s.save)
	opts.Store.AddHook(s)
	return s, nil
}

// LayoutChanged implements LayoutHook. It mirrors every committed layout to
// the local snapshot immediately and schedules a debounced remote save for
// user-originated mutations.
func (s *Synchronizer) LayoutChanged(event LayoutChangeEvent) {
	s.writeSnapshot(event)
	if !event.Action.persists() {
		return
	}
	// Hooks run outside the store's lock, so concurrent mutators can
	// deliver events out of commit order. An older event must never
	// displace a newer scheduled payload: the debouncer keeps the last
	// arrival, and a stale save would be discarded on reconcile with
	// nothing left to resend the newer layout.
	s.seqMu.Lock()
	defer s.seqMu.Unlock()
	if event.Seq <= s.lastScheduled {
		return
	}
	s.lastScheduled = event.Seq
	s.debounce.Schedule(savePayload{
		dashboardID: event.DashboardID,
		layout:      event.Layout,
		seq:         event.Seq,
	})
}

// Flush forces a pending save immediately; callers use it on shutdown so a
// layout mutated inside the quiet window is not lost.
func (s *Synchronizer) Flush() { s.debounce.Flush() }

// Close drops any pending save.
func (s *Synchronizer) Close() { s.debounce.Cancel() }

func (s *Synchronizer) writeSnapshot(event LayoutChangeEvent) {
	if s.snapshots == nil {
		return
	}
	snap := s.store.Snapshot()
	err := s.snapshots.Save(LocalSnapshot{
		Layout:      event.Layout,
		DashboardID: event.DashboardID,
		Theme:       snap.Theme,
	})
	if err != nil {
		s.telemetry.Record(context.Background(), "dashboard.snapshot.error", map[string]any{
			"error": err.Error(),
		})
	}
}

func (s *Synchronizer) save(p savePayload) {
	var lastErr error
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(s.backoff << (attempt - 1))
		}
		ctx, cancel := context.WithTimeout(context.Background(), s.saveTimeout)
		saved, err := s.client.SaveLayout(ctx, p.dashboardID, p.layout)
		cancel()
		if err != nil {
			lastErr = err
			continue
		}
		if s.store.ReconcileLayout(saved.Layout, p.seq) {
			s.telemetry.Record(context.Background(), "dashboard.layout_saved", map[string]any{
				"dashboardId": p.dashboardID,
				"widgetCount": len(saved.Layout),
			})
		} else {
			// A newer local mutation superseded this save; its own
			// debounced save is already scheduled.
			s.telemetry.Record(context.Background(), "dashboard.layout_saved.stale", map[string]any{
				"dashboardId": p.dashboardID,
				"seq":         p.seq,
			})
		}
		return
	}
	s.telemetry.Record(context.Background(), "dashboard.layout_save.failed", map[string]any{
		"dashboardId": p.dashboardID,
		"attempts":    s.maxAttempts,
		"error":       lastErr.Error(),
	})
	if s.onError != nil {
		s.onError(fmt.Errorf("dashboard: save layout for %s: %w", p.dashboardID, lastErr))
	}
}
