package httpapi

import (
	"sync"
	"time"

	"github.com/goliatone/go-brandboard/components/dashboard"
)

// Repository stores dashboards in memory, keyed by dashboard id. It backs
// the reference API server; production deployments swap in a real store
// behind the same methods.
type Repository struct {
	mu         sync.RWMutex
	dashboards map[string]dashboard.DashboardLayout
	widgetData map[string]map[string]any
}

// NewRepository builds an empty repository.
func NewRepository() *Repository {
	return &Repository{
		dashboards: map[string]dashboard.DashboardLayout{},
		widgetData: map[string]map[string]any{},
	}
}

// Get fetches a dashboard. A missing id returns an empty dashboard with ok
// true: the client treats an empty layout as "seed from template", so the
// server never 404s on first load.
func (r *Repository) Get(dashboardID string) dashboard.DashboardLayout {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.dashboards[dashboardID]
	if !ok {
		return dashboard.DashboardLayout{DashboardID: dashboardID}
	}
	d.Layout = dashboard.CloneLayout(d.Layout)
	return d
}

// Put stores a dashboard.
func (r *Repository) Put(d dashboard.DashboardLayout) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d.Layout = dashboard.CloneLayout(d.Layout)
	r.dashboards[d.DashboardID] = d
}

// ReplaceLayout swaps the widget collection for a dashboard, creating the
// dashboard if needed, and stamps the modification time.
func (r *Repository) ReplaceLayout(dashboardID string, layout []dashboard.Widget) dashboard.DashboardLayout {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := r.dashboards[dashboardID]
	d.DashboardID = dashboardID
	d.Layout = dashboard.CloneLayout(layout)
	d.Metadata.LastModifiedAt = time.Now().UTC().Format(time.RFC3339)
	r.dashboards[dashboardID] = d
	return d
}

// AddWidget appends a widget to a dashboard's layout. ok is false when the
// widget id already exists.
func (r *Repository) AddWidget(dashboardID string, w dashboard.Widget) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := r.dashboards[dashboardID]
	d.DashboardID = dashboardID
	for _, existing := range d.Layout {
		if existing.WidgetID == w.WidgetID {
			return false
		}
	}
	d.Layout = append(d.Layout, w.Clone())
	d.Metadata.LastModifiedAt = time.Now().UTC().Format(time.RFC3339)
	r.dashboards[dashboardID] = d
	return true
}

// RemoveWidget deletes a widget. ok is false when it does not exist.
func (r *Repository) RemoveWidget(dashboardID, widgetID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.dashboards[dashboardID]
	if !ok {
		return false
	}
	for i, w := range d.Layout {
		if w.WidgetID == widgetID {
			d.Layout = append(d.Layout[:i], d.Layout[i+1:]...)
			d.Metadata.LastModifiedAt = time.Now().UTC().Format(time.RFC3339)
			r.dashboards[dashboardID] = d
			return true
		}
	}
	return false
}

// UpdateWidget merges a partial update into a stored widget.
func (r *Repository) UpdateWidget(dashboardID, widgetID string, update dashboard.WidgetUpdate) (dashboard.Widget, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.dashboards[dashboardID]
	if !ok {
		return dashboard.Widget{}, false
	}
	for i, w := range d.Layout {
		if w.WidgetID != widgetID {
			continue
		}
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
		d.Layout[i] = w
		d.Metadata.LastModifiedAt = time.Now().UTC().Format(time.RFC3339)
		r.dashboards[dashboardID] = d
		return w.Clone(), true
	}
	return dashboard.Widget{}, false
}

// FindWidget locates a widget by id across all dashboards. Widget ids carry
// a nanosecond stamp, so a cross-dashboard scan is unambiguous in practice.
func (r *Repository) FindWidget(widgetID string) (dashboard.Widget, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.dashboards {
		for _, w := range d.Layout {
			if w.WidgetID == widgetID {
				return w.Clone(), true
			}
		}
	}
	return dashboard.Widget{}, false
}

// PutWidgetData seeds the data series served for a widget. The layout API
// only brokers the envelope; a metrics pipeline fills it in production.
func (r *Repository) PutWidgetData(widgetID string, data map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.widgetData[widgetID] = data
}

// WidgetData returns the seeded data for a widget, or an empty object.
func (r *Repository) WidgetData(widgetID string) map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if data, ok := r.widgetData[widgetID]; ok {
		return data
	}
	return map[string]any{}
}
