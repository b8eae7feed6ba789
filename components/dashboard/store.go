package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrLayoutIDMismatch signals a SetLayout call whose widget ID set does
	// not match the current layout. That indicates a caller bug, not a UI
	// race, so it is rejected rather than absorbed.
	ErrLayoutIDMismatch = errors.New("dashboard: replacement layout does not preserve widget ids")
	// ErrDuplicateWidgetID signals an insert that would violate ID uniqueness.
	ErrDuplicateWidgetID = errors.New("dashboard: widget id already present in layout")
)

// StoreOptions configures a Store. Zero values fall back to the defaults the
// interactive dashboard starts with.
type StoreOptions struct {
	DashboardID string
	Theme       Theme
	UserRole    UserRole
	GridColumns int
	Telemetry   Telemetry
	Hooks       []LayoutHook
}

// Store is the sole authoritative holder of the current layout and editing
// session state. Every mutation is synchronous and atomic: observers either
// see the state before a mutation or after it, never a partial write.
//
// The store is a consistency boundary, not a security boundary. Mutating
// methods are trusted internal calls; the CanEdit gate belongs at the UI
// entry points (commands, routes) upstream of the store.
type Store struct {
	mu sync.RWMutex

	layout      []Widget
	dashboardID string
	theme       Theme
	userRole    UserRole
	cols        int
	seq         uint64

	paletteOpen      bool
	expandedWidgetID string
	selectedWidgetID string
	dragging         bool
	modalWidgetID    string

	telemetry Telemetry

	hookMu sync.RWMutex
	hooks  []LayoutHook
}

// NewStore builds a store. Unlike a process-wide singleton, each dashboard
// session constructs its own store, which keeps tests and multi-dashboard
// hosts isolated.
func NewStore(opts StoreOptions) *Store {
	if opts.DashboardID == "" {
		opts.DashboardID = "default"
	}
	if opts.Theme == "" {
		opts.Theme = ThemeSystem
	}
	if opts.UserRole == "" {
		opts.UserRole = RoleEditor
	}
	if opts.GridColumns <= 0 {
		opts.GridColumns = DefaultGridColumns
	}
	return &Store{
		dashboardID: opts.DashboardID,
		theme:       opts.Theme,
		userRole:    opts.UserRole,
		cols:        opts.GridColumns,
		telemetry:   normalizeTelemetry(opts.Telemetry),
		hooks:       append([]LayoutHook(nil), opts.Hooks...),
	}
}

// Snapshot is an immutable copy of store state.
type Snapshot struct {
	Layout      []Widget
	DashboardID string
	Theme       Theme
	UserRole    UserRole
	Seq         uint64

	PaletteOpen      bool
	ExpandedWidgetID string
	SelectedWidgetID string
	Dragging         bool
	ModalWidgetID    string
}

// WidgetUpdate is a partial widget mutation; nil fields are left untouched.
type WidgetUpdate struct {
	Title       *string         `json:"title,omitempty"`
	Description *string         `json:"description,omitempty"`
	X           *int            `json:"x,omitempty"`
	Y           *int            `json:"y,omitempty"`
	W           *int            `json:"w,omitempty"`
	H           *int            `json:"h,omitempty"`
	Static      *bool           `json:"static,omitempty"`
	IsDraggable *bool           `json:"isDraggable,omitempty"`
	IsResizable *bool           `json:"isResizable,omitempty"`
	Settings    *WidgetSettings `json:"settings,omitempty"`
}

// AddHook subscribes a hook to committed layout mutations.
func (s *Store) AddHook(h LayoutHook) {
	if h == nil {
		return
	}
	s.hookMu.Lock()
	s.hooks = append(s.hooks, h)
	s.hookMu.Unlock()
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Layout:           CloneLayout(s.layout),
		DashboardID:      s.dashboardID,
		Theme:            s.theme,
		UserRole:         s.userRole,
		Seq:              s.seq,
		PaletteOpen:      s.paletteOpen,
		ExpandedWidgetID: s.expandedWidgetID,
		SelectedWidgetID: s.selectedWidgetID,
		Dragging:         s.dragging,
		ModalWidgetID:    s.modalWidgetID,
	}
}

// Layout returns a deep copy of the widget collection.
func (s *Store) Layout() []Widget {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return CloneLayout(s.layout)
}

// Seq returns the monotonic mutation sequence number.
func (s *Store) Seq() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seq
}

// GetWidget fetches a widget copy by id.
func (s *Store) GetWidget(widgetID string) (Widget, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, w := range s.layout {
		if w.WidgetID == widgetID {
			return w.Clone(), true
		}
	}
	return Widget{}, false
}

// SetLayout replaces the layout wholesale after a batch geometry change
// from the rendering surface. Overlap is not validated here (the surface's
// compaction is trusted), but the widget ID set must be preserved.
func (s *Store) SetLayout(layout []Widget) error {
	s.mu.Lock()
	if !sameIDSet(s.layout, layout) {
		s.mu.Unlock()
		s.telemetry.Record(context.Background(), "dashboard.layout.rejected", map[string]any{
			"reason": "widget id mismatch",
		})
		return ErrLayoutIDMismatch
	}
	next := CloneLayout(layout)
	for i := range next {
		next[i] = ClampWidget(next[i], s.cols)
	}
	s.layout = next
	event := s.commitLocked(ActionReplace, "")
	s.mu.Unlock()
	s.publish(event)
	return nil
}

// AddWidget appends a widget to the layout. The caller computes final
// geometry (via FindOptimalPosition) before calling. An empty WidgetID is
// filled in from the widget type.
func (s *Store) AddWidget(w Widget) error {
	s.mu.Lock()
	if w.WidgetID == "" {
		w.WidgetID = uniqueWidgetID(s.layout, w.Type)
	} else if indexOf(s.layout, w.WidgetID) >= 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateWidgetID, w.WidgetID)
	}
	w = ClampWidget(w.Clone(), s.cols)
	s.layout = append(s.layout, w)
	event := s.commitLocked(ActionAdd, w.WidgetID)
	s.mu.Unlock()
	s.publish(event)
	return nil
}

// UpdateWidget merges a partial update into the matching widget. An absent
// widgetID is a no-op, not an error: removal/update races are expected in
// an interactive UI.
func (s *Store) UpdateWidget(widgetID string, update WidgetUpdate) {
	s.mu.Lock()
	idx := indexOf(s.layout, widgetID)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	w := s.layout[idx]
	if update.Title != nil {
		w.Title = *update.Title
	}
	if update.Description != nil {
		w.Description = *update.Description
	}
	if update.X != nil {
		w.X = *update.X
	}
	if update.Y != nil {
		w.Y = *update.Y
	}
	if update.W != nil {
		w.W = *update.W
	}
	if update.H != nil {
		w.H = *update.H
	}
	if update.Static != nil {
		w.Static = *update.Static
	}
	if update.IsDraggable != nil {
		v := *update.IsDraggable
		w.IsDraggable = &v
	}
	if update.IsResizable != nil {
		v := *update.IsResizable
		w.IsResizable = &v
	}
	if update.Settings != nil {
		w.Settings = update.Settings.Clone()
	}
	s.layout[idx] = ClampWidget(w, s.cols)
	event := s.commitLocked(ActionUpdate, widgetID)
	s.mu.Unlock()
	s.publish(event)
}

// RemoveWidget removes the matching widget and clears any UI state that
// referenced it. Removing an unknown id leaves the layout unchanged.
func (s *Store) RemoveWidget(widgetID string) {
	s.mu.Lock()
	idx := indexOf(s.layout, widgetID)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	s.layout = append(s.layout[:idx], s.layout[idx+1:]...)
	if s.selectedWidgetID == widgetID {
		s.selectedWidgetID = ""
	}
	if s.expandedWidgetID == widgetID {
		s.expandedWidgetID = ""
	}
	if s.modalWidgetID == widgetID {
		s.modalWidgetID = ""
	}
	event := s.commitLocked(ActionRemove, widgetID)
	s.mu.Unlock()
	s.publish(event)
}

// DuplicateWidget clones a widget under a fresh id at a (x+1, y+1) offset.
// Returns the clone; ok is false when the source widget does not exist.
func (s *Store) DuplicateWidget(widgetID string) (Widget, bool) {
	s.mu.Lock()
	idx := indexOf(s.layout, widgetID)
	if idx < 0 {
		s.mu.Unlock()
		return Widget{}, false
	}
	clone := s.layout[idx].Clone()
	clone.WidgetID = uniqueWidgetID(s.layout, clone.Type)
	clone.X++
	clone.Y++
	clone = ClampWidget(clone, s.cols)
	s.layout = append(s.layout, clone)
	event := s.commitLocked(ActionDuplicate, clone.WidgetID)
	s.mu.Unlock()
	s.publish(event)
	return clone.Clone(), true
}

// LoadDashboard replaces layout, dashboard id, and theme from a fully
// formed dashboard; used at startup and after a remote fetch.
func (s *Store) LoadDashboard(d DashboardLayout) {
	s.mu.Lock()
	next := CloneLayout(d.Layout)
	for i := range next {
		next[i] = ClampWidget(next[i], s.cols)
	}
	s.layout = next
	s.dashboardID = d.DashboardID
	if d.Metadata.Theme != "" {
		s.theme = d.Metadata.Theme
	}
	event := s.commitLocked(ActionLoad, "")
	s.mu.Unlock()
	s.publish(event)
}

// ReconcileLayout applies the server's authoritative layout for the save
// stamped with asOf. It reports false and leaves state untouched when a
// newer local mutation exists: a slow in-flight save must never clobber
// fresher local state.
func (s *Store) ReconcileLayout(layout []Widget, asOf uint64) bool {
	s.mu.Lock()
	if asOf < s.seq {
		s.mu.Unlock()
		return false
	}
	next := CloneLayout(layout)
	for i := range next {
		next[i] = ClampWidget(next[i], s.cols)
	}
	s.layout = next
	// Reconciliation is not a local mutation; seq stays put so equal-seq
	// responses from the same save remain applicable.
	event := LayoutChangeEvent{
		Action:      ActionReconcile,
		DashboardID: s.dashboardID,
		Layout:      CloneLayout(s.layout),
		Seq:         s.seq,
		Timestamp:   time.Now(),
	}
	s.mu.Unlock()
	s.publish(event)
	return true
}

// Reset restores all fields except theme and user role to their initial
// empty state.
func (s *Store) Reset() {
	s.mu.Lock()
	s.layout = nil
	s.dashboardID = "default"
	s.paletteOpen = false
	s.expandedWidgetID = ""
	s.selectedWidgetID = ""
	s.dragging = false
	s.modalWidgetID = ""
	event := s.commitLocked(ActionReset, "")
	s.mu.Unlock()
	s.publish(event)
}

// CanEdit reports whether the session role permits layout mutation.
func (s *Store) CanEdit() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userRole == RoleEditor || s.userRole == RoleAdmin
}

// Permissions returns the capability set for the session role.
func (s *Store) Permissions() Permission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return PermissionsForRole(s.userRole)
}

// SetTheme updates the display theme.
func (s *Store) SetTheme(theme Theme) {
	s.mu.Lock()
	s.theme = theme
	s.mu.Unlock()
}

// SetUserRole updates the session role.
func (s *Store) SetUserRole(role UserRole) {
	s.mu.Lock()
	s.userRole = role
	s.mu.Unlock()
}

// TogglePalette flips the widget palette open state.
func (s *Store) TogglePalette() {
	s.mu.Lock()
	s.paletteOpen = !s.paletteOpen
	s.mu.Unlock()
}

// SetPaletteOpen sets the widget palette open state.
func (s *Store) SetPaletteOpen(open bool) {
	s.mu.Lock()
	s.paletteOpen = open
	s.mu.Unlock()
}

// ExpandWidget marks a widget expanded; empty id collapses.
func (s *Store) ExpandWidget(widgetID string) {
	s.mu.Lock()
	s.expandedWidgetID = widgetID
	s.mu.Unlock()
}

// SelectWidget marks a widget selected; empty id clears selection.
func (s *Store) SelectWidget(widgetID string) {
	s.mu.Lock()
	s.selectedWidgetID = widgetID
	s.mu.Unlock()
}

// SetDragging flags a drag gesture in progress.
func (s *Store) SetDragging(dragging bool) {
	s.mu.Lock()
	s.dragging = dragging
	s.mu.Unlock()
}

// OpenWidgetModal opens the detail modal for a widget; empty id closes it.
func (s *Store) OpenWidgetModal(widgetID string) {
	s.mu.Lock()
	s.modalWidgetID = widgetID
	s.mu.Unlock()
}

// commitLocked bumps the mutation sequence and builds the change event.
// Callers hold s.mu.
func (s *Store) commitLocked(action LayoutAction, widgetID string) LayoutChangeEvent {
	s.seq++
	return LayoutChangeEvent{
		Action:      action,
		WidgetID:    widgetID,
		DashboardID: s.dashboardID,
		Layout:      CloneLayout(s.layout),
		Seq:         s.seq,
		Timestamp:   time.Now(),
	}
}

func (s *Store) publish(event LayoutChangeEvent) {
	s.hookMu.RLock()
	hooks := s.hooks
	s.hookMu.RUnlock()
	for _, h := range hooks {
		h.LayoutChanged(event)
	}
}

func indexOf(layout []Widget, widgetID string) int {
	for i, w := range layout {
		if w.WidgetID == widgetID {
			return i
		}
	}
	return -1
}

func sameIDSet(current, next []Widget) bool {
	if len(current) != len(next) {
		return false
	}
	ids := make(map[string]struct{}, len(current))
	for _, w := range current {
		ids[w.WidgetID] = struct{}{}
	}
	seen := make(map[string]struct{}, len(next))
	for _, w := range next {
		if _, ok := ids[w.WidgetID]; !ok {
			return false
		}
		if _, dup := seen[w.WidgetID]; dup {
			return false
		}
		seen[w.WidgetID] = struct{}{}
	}
	return true
}

func uniqueWidgetID(layout []Widget, t WidgetType) string {
	id := NewWidgetID(t)
	for n := 1; indexOf(layout, id) >= 0; n++ {
		id = fmt.Sprintf("%s-%d", NewWidgetID(t), n)
	}
	return id
}
