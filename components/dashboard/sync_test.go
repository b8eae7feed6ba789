package dashboard

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// recordingClient captures SaveLayout calls and echoes the layout back the
// way the persistence API does.
type recordingClient struct {
	mu       sync.Mutex
	saves    []savedCall
	failures int
	failWith error
}

type savedCall struct {
	dashboardID string
	layout      []Widget
}

func (c *recordingClient) GetDashboard(ctx context.Context, dashboardID string) (DashboardLayout, error) {
	return DashboardLayout{}, errors.New("not implemented")
}

func (c *recordingClient) SaveLayout(ctx context.Context, dashboardID string, layout []Widget) (DashboardLayout, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failures > 0 {
		c.failures--
		err := c.failWith
		if err == nil {
			err = errors.New("save unavailable")
		}
		return DashboardLayout{}, err
	}
	c.saves = append(c.saves, savedCall{dashboardID: dashboardID, layout: layout})
	return DashboardLayout{DashboardID: dashboardID, Layout: layout}, nil
}

func (c *recordingClient) AddWidget(ctx context.Context, dashboardID string, widget Widget) (Widget, error) {
	return widget, nil
}

func (c *recordingClient) RemoveWidget(ctx context.Context, dashboardID, widgetID string) error {
	return nil
}

func (c *recordingClient) UpdateWidget(ctx context.Context, dashboardID, widgetID string, update WidgetUpdate) (Widget, error) {
	return Widget{}, errors.New("not implemented")
}

func (c *recordingClient) savedCalls() []savedCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]savedCall, len(c.saves))
	copy(out, c.saves)
	return out
}

func newSyncFixture(t *testing.T, client LayoutClient, snapshots SnapshotStore) (*Store, *Synchronizer, *manualClock) {
	t.Helper()
	store := NewStore(StoreOptions{DashboardID: "brand-main"})
	clock := newManualClock()
	syncer, err := NewSynchronizer(SyncOptions{
		Store:     store,
		Client:    client,
		Snapshots: snapshots,
		Clock:     clock,
	})
	if err != nil {
		t.Fatalf("NewSynchronizer: %v", err)
	}
	return store, syncer, clock
}

func TestSynchronizerCollapsesBurstIntoOneSave(t *testing.T) {
	client := &recordingClient{}
	store, _, clock := newSyncFixture(t, client, nil)

	w := testWidget("w-sent", 0, 0, 6, 4)
	if err := store.AddWidget(w); err != nil {
		t.Fatalf("AddWidget: %v", err)
	}
	// Simulate a drag: a stream of position updates inside the quiet window.
	for x := 1; x <= 6; x++ {
		nx := x
		store.UpdateWidget(w.WidgetID, WidgetUpdate{X: &nx})
		clock.Advance(100 * time.Millisecond)
	}
	if calls := client.savedCalls(); len(calls) != 0 {
		t.Fatalf("saved during quiet window: %d calls", len(calls))
	}

	clock.Advance(time.Second)
	calls := client.savedCalls()
	if len(calls) != 1 {
		t.Fatalf("expected exactly one save, got %d", len(calls))
	}
	if calls[0].dashboardID != "brand-main" {
		t.Fatalf("unexpected dashboard id %q", calls[0].dashboardID)
	}
	if len(calls[0].layout) != 1 || calls[0].layout[0].X != 6 {
		t.Fatalf("save did not carry the final geometry: %+v", calls[0].layout)
	}
}

func TestSynchronizerFlushSavesPendingLayout(t *testing.T) {
	client := &recordingClient{}
	store, syncer, _ := newSyncFixture(t, client, nil)

	if err := store.AddWidget(testWidget("w-trend", 0, 0, 6, 4)); err != nil {
		t.Fatalf("AddWidget: %v", err)
	}
	syncer.Flush()
	if calls := client.savedCalls(); len(calls) != 1 {
		t.Fatalf("flush should force the pending save, got %d calls", len(calls))
	}
}

func TestSynchronizerIgnoresNonPersistingActions(t *testing.T) {
	client := &recordingClient{}
	store, _, clock := newSyncFixture(t, client, nil)

	store.LoadDashboard(DashboardLayout{
		DashboardID: "brand-main",
		Layout:      []Widget{testWidget("w-topics", 0, 0, 6, 4)},
	})
	clock.Advance(2 * time.Second)
	if calls := client.savedCalls(); len(calls) != 0 {
		t.Fatalf("loading a dashboard must not trigger a save, got %d calls", len(calls))
	}
}

func TestSynchronizerRetriesThenReportsError(t *testing.T) {
	client := &recordingClient{failures: 10, failWith: errors.New("boom")}
	var reported error
	store := NewStore(StoreOptions{DashboardID: "brand-main"})
	clock := newManualClock()
	_, err := NewSynchronizer(SyncOptions{
		Store:   store,
		Client:  client,
		Clock:   clock,
		Backoff: time.Nanosecond,
		OnError: func(err error) { reported = err },
	})
	if err != nil {
		t.Fatalf("NewSynchronizer: %v", err)
	}

	if err := store.AddWidget(testWidget("w-voice", 0, 0, 6, 4)); err != nil {
		t.Fatalf("AddWidget: %v", err)
	}
	clock.Advance(time.Second)

	if reported == nil {
		t.Fatal("expected OnError after retries were exhausted")
	}
	if !strings.Contains(reported.Error(), "boom") {
		t.Fatalf("reported error should wrap the client failure: %v", reported)
	}
	// Local state stays intact: no rollback on save failure.
	if got := len(store.Layout()); got != 1 {
		t.Fatalf("layout rolled back on failure, have %d widgets", got)
	}
}

func TestSynchronizerRecoversWithinRetryBudget(t *testing.T) {
	client := &recordingClient{failures: 2}
	store := NewStore(StoreOptions{DashboardID: "brand-main"})
	clock := newManualClock()
	_, err := NewSynchronizer(SyncOptions{
		Store:   store,
		Client:  client,
		Clock:   clock,
		Backoff: time.Nanosecond,
		OnError: func(err error) { t.Fatalf("unexpected error: %v", err) },
	})
	if err != nil {
		t.Fatalf("NewSynchronizer: %v", err)
	}

	if err := store.AddWidget(testWidget("w-sent", 0, 0, 6, 4)); err != nil {
		t.Fatalf("AddWidget: %v", err)
	}
	clock.Advance(time.Second)

	if calls := client.savedCalls(); len(calls) != 1 {
		t.Fatalf("third attempt should have succeeded, got %d saves", len(calls))
	}
}

func TestSynchronizerWritesSnapshotOnEveryChange(t *testing.T) {
	client := &recordingClient{}
	snapshots := NewMemorySnapshotStore()
	store, _, _ := newSyncFixture(t, client, snapshots)

	w := testWidget("w-alerts", 0, 0, 6, 4)
	if err := store.AddWidget(w); err != nil {
		t.Fatalf("AddWidget: %v", err)
	}

	snap, ok, err := snapshots.Load()
	if err != nil || !ok {
		t.Fatalf("snapshot missing after mutation: ok=%v err=%v", ok, err)
	}
	if snap.DashboardID != "brand-main" || len(snap.Layout) != 1 || snap.Layout[0].WidgetID != w.WidgetID {
		t.Fatalf("snapshot does not mirror the store: %+v", snap)
	}
}

func TestSynchronizerDiscardsStaleServerResponse(t *testing.T) {
	client := &recordingClient{}
	store, syncer, _ := newSyncFixture(t, client, nil)

	w := testWidget("w-sent", 0, 0, 6, 4)
	if err := store.AddWidget(w); err != nil {
		t.Fatalf("AddWidget: %v", err)
	}
	staleSeq := store.Seq()
	syncer.Flush()

	// A second mutation lands while the first response is conceptually in
	// flight. Reconciling the stale response must not clobber it.
	if err := store.AddWidget(testWidget("w-trend", 6, 0, 6, 4)); err != nil {
		t.Fatalf("AddWidget: %v", err)
	}
	if store.ReconcileLayout([]Widget{w}, staleSeq) {
		t.Fatal("stale reconcile was applied")
	}
	if got := len(store.Layout()); got != 2 {
		t.Fatalf("stale response clobbered the layout, have %d widgets", got)
	}
}

func TestSynchronizerDropsOutOfOrderEvents(t *testing.T) {
	client := &recordingClient{}
	_, syncer, clock := newSyncFixture(t, client, nil)

	older := []Widget{testWidget("w-sent", 0, 0, 6, 4)}
	newer := []Widget{
		testWidget("w-sent", 0, 0, 6, 4),
		testWidget("w-trend", 6, 0, 6, 4),
	}

	// Hooks fire outside the store lock, so two concurrent mutators can
	// deliver their events in reverse commit order. The later arrival
	// carries the older layout and must not win the debounce slot.
	syncer.LayoutChanged(LayoutChangeEvent{
		Action:      ActionAdd,
		DashboardID: "brand-main",
		Layout:      newer,
		Seq:         2,
	})
	syncer.LayoutChanged(LayoutChangeEvent{
		Action:      ActionAdd,
		DashboardID: "brand-main",
		Layout:      older,
		Seq:         1,
	})
	clock.Advance(time.Second)

	saves := client.savedCalls()
	if len(saves) != 1 {
		t.Fatalf("expected 1 save, got %d", len(saves))
	}
	if got := len(saves[0].layout); got != 2 {
		t.Fatalf("stale event superseded the newer layout, saved %d widgets", got)
	}
}
