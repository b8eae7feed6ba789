package dashboard

import (
	"context"
	"time"
)

// WidgetType identifies a widget kind from the closed catalog enumeration.
type WidgetType string

// Widget kinds shipped with the brand-health catalog.
const (
	WidgetBrandHealthHeart     WidgetType = "brand-health-heart"
	WidgetBrandSentiment       WidgetType = "brand-sentiment"
	WidgetMentionsTrend        WidgetType = "mentions-trend"
	WidgetShareOfVoice         WidgetType = "share-of-voice"
	WidgetTopTopics            WidgetType = "top-topics"
	WidgetNPSScore             WidgetType = "nps-score"
	WidgetCompetitorComparison WidgetType = "competitor-comparison"
	WidgetAlertsFeed           WidgetType = "alerts-feed"
)

// TimeRange selects the data window a widget renders.
type TimeRange string

const (
	Range7d     TimeRange = "7d"
	Range30d    TimeRange = "30d"
	Range90d    TimeRange = "90d"
	Range1y     TimeRange = "1y"
	RangeCustom TimeRange = "custom"
)

// Valid reports whether the range is one of the recognized values.
func (r TimeRange) Valid() bool {
	switch r {
	case Range7d, Range30d, Range90d, Range1y, RangeCustom:
		return true
	}
	return false
}

// UserRole controls which dashboard operations a session may perform.
type UserRole string

const (
	RoleViewer UserRole = "viewer"
	RoleEditor UserRole = "editor"
	RoleAdmin  UserRole = "admin"
)

// Theme is the display theme persisted alongside the layout.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// WidgetSettings captures per-instance configuration.
type WidgetSettings struct {
	TimeRange       TimeRange      `json:"timeRange,omitempty" yaml:"time_range,omitempty"`
	RefreshInterval int            `json:"refreshInterval,omitempty" yaml:"refresh_interval,omitempty"`
	AutoRefresh     bool           `json:"autoRefresh,omitempty" yaml:"auto_refresh,omitempty"`
	CustomStartDate string         `json:"customStartDate,omitempty" yaml:"custom_start_date,omitempty"`
	CustomEndDate   string         `json:"customEndDate,omitempty" yaml:"custom_end_date,omitempty"`
	Filters         map[string]any `json:"filters,omitempty" yaml:"filters,omitempty"`
}

// Clone returns a deep copy so snapshot holders cannot mutate store state.
func (s WidgetSettings) Clone() WidgetSettings {
	out := s
	if len(s.Filters) > 0 {
		out.Filters = make(map[string]any, len(s.Filters))
		for k, v := range s.Filters {
			out.Filters[k] = v
		}
	}
	return out
}

// Widget is a positioned, sized, configurable unit on the dashboard grid.
// Geometry is measured in grid cells: X/Y are cell coordinates, W/H spans.
type Widget struct {
	WidgetID    string     `json:"widgetId"`
	Type        WidgetType `json:"type"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`

	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`

	MinW int `json:"minW,omitempty"`
	MinH int `json:"minH,omitempty"`
	MaxW int `json:"maxW,omitempty"`
	MaxH int `json:"maxH,omitempty"`

	// Static widgets can neither move nor resize regardless of the flags
	// below. Draggable/Resizable default to true when nil.
	Static      bool  `json:"static,omitempty"`
	IsDraggable *bool `json:"isDraggable,omitempty"`
	IsResizable *bool `json:"isResizable,omitempty"`

	Settings WidgetSettings `json:"settings"`
}

// Draggable resolves the effective drag flag.
func (w Widget) Draggable() bool {
	if w.Static {
		return false
	}
	if w.IsDraggable == nil {
		return true
	}
	return *w.IsDraggable
}

// Resizable resolves the effective resize flag.
func (w Widget) Resizable() bool {
	if w.Static {
		return false
	}
	if w.IsResizable == nil {
		return true
	}
	return *w.IsResizable
}

// Clone returns a deep copy of the widget.
func (w Widget) Clone() Widget {
	out := w
	out.Settings = w.Settings.Clone()
	if w.IsDraggable != nil {
		v := *w.IsDraggable
		out.IsDraggable = &v
	}
	if w.IsResizable != nil {
		v := *w.IsResizable
		out.IsResizable = &v
	}
	return out
}

// CloneLayout deep-copies an ordered widget collection.
func CloneLayout(layout []Widget) []Widget {
	if layout == nil {
		return nil
	}
	out := make([]Widget, len(layout))
	for i, w := range layout {
		out[i] = w.Clone()
	}
	return out
}

// LayoutMetadata carries dashboard-level display and audit fields.
type LayoutMetadata struct {
	Theme          Theme     `json:"theme"`
	TimeRange      TimeRange `json:"timeRange"`
	LastModifiedBy string    `json:"lastModifiedBy,omitempty"`
	LastModifiedAt string    `json:"lastModifiedAt,omitempty"`
	CreatedAt      string    `json:"createdAt"`
}

// DashboardLayout is the full persisted state for one dashboard. Widget
// order is insertion order; it only matters for deterministic serialization.
type DashboardLayout struct {
	DashboardID string         `json:"dashboardId"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Layout      []Widget       `json:"layout"`
	Metadata    LayoutMetadata `json:"metadata"`
}

// Category groups catalog entries for the widget picker.
type Category string

const (
	CategoryHero       Category = "hero"
	CategoryMetrics    Category = "metrics"
	CategoryAnalytics  Category = "analytics"
	CategoryComparison Category = "comparison"
	CategoryAlerts     Category = "alerts"
)

// Size is a widget span in grid cells.
type Size struct {
	W int `json:"w" yaml:"w"`
	H int `json:"h" yaml:"h"`
}

// Position is a grid cell coordinate.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// CatalogEntry is an immutable template a widget is instantiated from.
type CatalogEntry struct {
	Type        WidgetType `json:"type" yaml:"type"`
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description" yaml:"description"`
	Icon        string     `json:"icon" yaml:"icon"`
	Category    Category   `json:"category" yaml:"category"`
	DefaultSize Size       `json:"defaultSize" yaml:"default_size"`
	MinSize     Size       `json:"minSize" yaml:"min_size"`
}

// LayoutAction labels the mutation that produced a change event.
type LayoutAction string

const (
	ActionAdd       LayoutAction = "add"
	ActionRemove    LayoutAction = "remove"
	ActionUpdate    LayoutAction = "update"
	ActionDuplicate LayoutAction = "duplicate"
	ActionReplace   LayoutAction = "replace"
	ActionLoad      LayoutAction = "load"
	ActionReset     LayoutAction = "reset"
	ActionReconcile LayoutAction = "reconcile"
)

// persists reports whether the action should schedule a remote save.
// Load and reconcile already reflect server state; re-saving them would
// loop the synchronizer back into itself.
func (a LayoutAction) persists() bool {
	switch a {
	case ActionAdd, ActionRemove, ActionUpdate, ActionDuplicate, ActionReplace:
		return true
	}
	return false
}

// Persists exposes the save-triggering classification to other packages.
func (a LayoutAction) Persists() bool { return a.persists() }

// LayoutChangeEvent describes one committed store mutation. Layout is a
// deep copy; holders may retain it freely.
type LayoutChangeEvent struct {
	Action      LayoutAction `json:"action"`
	WidgetID    string       `json:"widgetId,omitempty"`
	DashboardID string       `json:"dashboardId"`
	Layout      []Widget     `json:"layout"`
	Seq         uint64       `json:"seq"`
	Timestamp   time.Time    `json:"timestamp"`
}

// LayoutHook observes committed layout mutations. Hooks run synchronously on
// the mutation path and must not block.
type LayoutHook interface {
	LayoutChanged(event LayoutChangeEvent)
}

// LayoutHookFunc adapts a function to LayoutHook.
type LayoutHookFunc func(event LayoutChangeEvent)

// LayoutChanged calls the wrapped function.
func (f LayoutHookFunc) LayoutChanged(event LayoutChangeEvent) { f(event) }

// LayoutClient is the persistence API surface the store's service and
// synchronizer depend on.
type LayoutClient interface {
	GetDashboard(ctx context.Context, dashboardID string) (DashboardLayout, error)
	SaveLayout(ctx context.Context, dashboardID string, layout []Widget) (DashboardLayout, error)
	AddWidget(ctx context.Context, dashboardID string, widget Widget) (Widget, error)
	RemoveWidget(ctx context.Context, dashboardID, widgetID string) error
	UpdateWidget(ctx context.Context, dashboardID, widgetID string, update WidgetUpdate) (Widget, error)
}

// SnapshotStore persists the local `{layout, dashboardId, theme}` subset so
// a reload is never blank while the remote fetch is in flight.
type SnapshotStore interface {
	Load() (LocalSnapshot, bool, error)
	Save(snapshot LocalSnapshot) error
}

// LocalSnapshot is the client-side persisted subset of store state.
type LocalSnapshot struct {
	Layout      []Widget `json:"layout"`
	DashboardID string   `json:"dashboardId"`
	Theme       Theme    `json:"theme"`
}

// SettingsValidator checks widget settings at mutation boundaries.
type SettingsValidator interface {
	Validate(settings WidgetSettings) error
}

// Permission is the full capability set derived from a role.
type Permission struct {
	CanView   bool `json:"canView"`
	CanEdit   bool `json:"canEdit"`
	CanDelete bool `json:"canDelete"`
	CanShare  bool `json:"canShare"`
	CanExport bool `json:"canExport"`
}

// PermissionsForRole maps the closed role set onto capabilities. Viewer is
// read-only; editor mutates layout; admin additionally shares.
func PermissionsForRole(role UserRole) Permission {
	switch role {
	case RoleAdmin:
		return Permission{CanView: true, CanEdit: true, CanDelete: true, CanShare: true, CanExport: true}
	case RoleEditor:
		return Permission{CanView: true, CanEdit: true, CanDelete: true, CanExport: true}
	default:
		return Permission{CanView: true}
	}
}
