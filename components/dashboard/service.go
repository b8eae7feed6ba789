package dashboard

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrUnknownWidgetType signals a catalog lookup miss. Callers render an
	// "unsupported widget type" fallback instead of crashing.
	ErrUnknownWidgetType = errors.New("dashboard: unknown widget type")
	// ErrReadOnly signals a mutation attempted by a viewer-role session.
	ErrReadOnly = errors.New("dashboard: session role is read-only")
)

// Options configures the dashboard Service. Collaborators are provided via
// interfaces so hosts can swap implementations; nil optional collaborators
// fall back to safe defaults.
type Options struct {
	Store     *Store
	Catalog   *Catalog
	Client    LayoutClient
	Snapshots SnapshotStore
	Validator SettingsValidator
	Telemetry Telemetry
	Template  TemplateName
}

// Service orchestrates the catalog, placement solver, and state store, and
// mirrors individual widget mutations to the remote store. Mutations apply
// locally first; a remote failure is returned to the caller for surfacing
// but never rolls the local change back.
type Service struct {
	store     *Store
	catalog   *Catalog
	client    LayoutClient
	snapshots SnapshotStore
	validator SettingsValidator
	telemetry Telemetry
	template  TemplateName
}

// NewService builds a Service with safe defaults.
func NewService(opts Options) *Service {
	if opts.Store == nil {
		opts.Store = NewStore(StoreOptions{Telemetry: opts.Telemetry})
	}
	if opts.Catalog == nil {
		opts.Catalog = DefaultCatalog()
	}
	if opts.Validator == nil {
		opts.Validator = NewSchemaSettingsValidator()
	}
	if opts.Template == "" {
		opts.Template = DefaultTemplate
	}
	return &Service{
		store:     opts.Store,
		catalog:   opts.Catalog,
		client:    opts.Client,
		snapshots: opts.Snapshots,
		validator: opts.Validator,
		telemetry: normalizeTelemetry(opts.Telemetry),
		template:  opts.Template,
	}
}

// Store exposes the underlying state store.
func (s *Service) Store() *Store { return s.store }

// Catalog exposes the widget catalog.
func (s *Service) Catalog() *Catalog { return s.catalog }

// Load hydrates the store: local snapshot first so the UI is not blank,
// then the remote dashboard, which is authoritative. An empty remote
// dashboard is seeded from the configured template. A failed remote fetch
// is returned for surfacing but leaves whatever local state was restored.
func (s *Service) Load(ctx context.Context) error {
	restored := false
	if s.snapshots != nil {
		if snap, ok, err := s.snapshots.Load(); err == nil && ok && len(snap.Layout) > 0 {
			s.store.LoadDashboard(DashboardLayout{
				DashboardID: snap.DashboardID,
				Layout:      snap.Layout,
				Metadata:    LayoutMetadata{Theme: snap.Theme},
			})
			restored = true
		}
	}

	if s.client == nil {
		if !restored {
			return s.seedTemplate(ctx)
		}
		return nil
	}

	dashboardID := s.store.Snapshot().DashboardID
	remote, err := s.client.GetDashboard(ctx, dashboardID)
	if err != nil {
		if !restored {
			if seedErr := s.seedTemplate(ctx); seedErr != nil {
				return errors.Join(err, seedErr)
			}
		}
		return fmt.Errorf("dashboard: fetch %s: %w", dashboardID, err)
	}
	if len(remote.Layout) == 0 {
		return s.seedTemplate(ctx)
	}
	s.store.LoadDashboard(remote)
	s.telemetry.Record(ctx, "dashboard.loaded", map[string]any{
		"dashboardId": remote.DashboardID,
		"widgetCount": len(remote.Layout),
	})
	return nil
}

// AddWidgetRequest captures the data needed to instantiate a widget from
// the catalog. Position overrides the placement solver when set.
type AddWidgetRequest struct {
	Type        WidgetType      `json:"type"`
	Title       string          `json:"title,omitempty"`
	Description string          `json:"description,omitempty"`
	Settings    *WidgetSettings `json:"settings,omitempty"`
	Position    *Position       `json:"position,omitempty"`
	GridColumns int             `json:"gridColumns,omitempty"`
}

// AddWidget instantiates a catalog entry at a solver-computed position and
// appends it to the layout.
func (s *Service) AddWidget(ctx context.Context, req AddWidgetRequest) (Widget, error) {
	entry, ok := s.catalog.GetByType(req.Type)
	if !ok {
		return Widget{}, fmt.Errorf("%w: %s", ErrUnknownWidgetType, req.Type)
	}
	if req.Settings != nil {
		if err := s.validator.Validate(*req.Settings); err != nil {
			return Widget{}, err
		}
	}

	cols := req.GridColumns
	if cols <= 0 {
		cols = DefaultGridColumns
	}
	var pos Position
	if req.Position != nil {
		pos = *req.Position
	} else {
		pos = FindOptimalPosition(s.store.Layout(), entry.DefaultSize, cols)
	}

	w := NewWidget(entry, pos)
	if req.Title != "" {
		w.Title = req.Title
	}
	if req.Description != "" {
		w.Description = req.Description
	}
	if req.Settings != nil {
		w.Settings = req.Settings.Clone()
	}
	if err := s.store.AddWidget(w); err != nil {
		return Widget{}, err
	}
	added, _ := s.store.GetWidget(w.WidgetID)
	s.telemetry.Record(ctx, "widget.added", map[string]any{
		"widgetType": string(added.Type),
		"widgetId":   added.WidgetID,
	})

	if s.client != nil {
		dashboardID := s.store.Snapshot().DashboardID
		if _, err := s.client.AddWidget(ctx, dashboardID, added); err != nil {
			return added, fmt.Errorf("dashboard: persist widget %s: %w", added.WidgetID, err)
		}
	}
	return added, nil
}

// RemoveWidget removes a widget locally and from the remote store. Unknown
// ids are a local no-op.
func (s *Service) RemoveWidget(ctx context.Context, widgetID string) error {
	_, existed := s.store.GetWidget(widgetID)
	s.store.RemoveWidget(widgetID)
	if !existed {
		return nil
	}
	s.telemetry.Record(ctx, "widget.removed", map[string]any{"widgetId": widgetID})
	if s.client != nil {
		dashboardID := s.store.Snapshot().DashboardID
		if err := s.client.RemoveWidget(ctx, dashboardID, widgetID); err != nil {
			return fmt.Errorf("dashboard: delete widget %s: %w", widgetID, err)
		}
	}
	return nil
}

// UpdateWidget merges a partial update into a widget.
func (s *Service) UpdateWidget(ctx context.Context, widgetID string, update WidgetUpdate) error {
	if update.Settings != nil {
		if err := s.validator.Validate(*update.Settings); err != nil {
			return err
		}
	}
	_, existed := s.store.GetWidget(widgetID)
	s.store.UpdateWidget(widgetID, update)
	if !existed {
		return nil
	}
	if s.client != nil {
		dashboardID := s.store.Snapshot().DashboardID
		if _, err := s.client.UpdateWidget(ctx, dashboardID, widgetID, update); err != nil {
			return fmt.Errorf("dashboard: patch widget %s: %w", widgetID, err)
		}
	}
	return nil
}

// DuplicateWidget clones an existing widget. ok is false when the source
// does not exist; that is not an error.
func (s *Service) DuplicateWidget(ctx context.Context, widgetID string) (Widget, bool, error) {
	clone, ok := s.store.DuplicateWidget(widgetID)
	if !ok {
		return Widget{}, false, nil
	}
	s.telemetry.Record(ctx, "widget.duplicated", map[string]any{
		"sourceId": widgetID,
		"widgetId": clone.WidgetID,
	})
	if s.client != nil {
		dashboardID := s.store.Snapshot().DashboardID
		if _, err := s.client.AddWidget(ctx, dashboardID, clone); err != nil {
			return clone, true, fmt.Errorf("dashboard: persist duplicate %s: %w", clone.WidgetID, err)
		}
	}
	return clone, true, nil
}

// SetLayout replaces the layout after a batch geometry change; persistence
// flows through the synchronizer's debounce.
func (s *Service) SetLayout(_ context.Context, layout []Widget) error {
	return s.store.SetLayout(layout)
}

// MoveWidget records a drag gesture: geometry into the store, intent into
// telemetry. The telemetry event describes the gesture regardless of
// whether debounced persistence later succeeds.
func (s *Service) MoveWidget(ctx context.Context, widgetID string, pos Position) {
	s.store.UpdateWidget(widgetID, WidgetUpdate{X: &pos.X, Y: &pos.Y})
	s.telemetry.Record(ctx, "widget.moved", map[string]any{
		"widgetId": widgetID,
		"x":        pos.X,
		"y":        pos.Y,
	})
}

// ResizeWidget records a resize gesture, same contract as MoveWidget.
func (s *Service) ResizeWidget(ctx context.Context, widgetID string, size Size) {
	s.store.UpdateWidget(widgetID, WidgetUpdate{W: &size.W, H: &size.H})
	s.telemetry.Record(ctx, "widget.resized", map[string]any{
		"widgetId": widgetID,
		"w":        size.W,
		"h":        size.H,
	})
}

func (s *Service) seedTemplate(ctx context.Context) error {
	layout, err := TemplateLayout(s.catalog, s.template)
	if err != nil {
		return err
	}
	snap := s.store.Snapshot()
	s.store.LoadDashboard(DashboardLayout{
		DashboardID: snap.DashboardID,
		Name:        string(s.template),
		Layout:      layout,
		Metadata:    LayoutMetadata{Theme: snap.Theme, TimeRange: Range30d},
	})
	s.telemetry.Record(ctx, "dashboard.seeded", map[string]any{
		"template":    string(s.template),
		"widgetCount": len(layout),
	})
	if s.client != nil {
		if _, err := s.client.SaveLayout(ctx, snap.DashboardID, layout); err != nil {
			return fmt.Errorf("dashboard: persist seeded layout: %w", err)
		}
	}
	return nil
}
