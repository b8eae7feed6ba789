package apiclient

import (
	"context"
	"sync"

	dashboard "github.com/goliatone/go-brandboard/components/dashboard"
)

// MockClient is an in-memory dashboard.LayoutClient for tests and demos
// that do not want a running API server.
type MockClient struct {
	mu         sync.Mutex
	dashboards map[string]dashboard.DashboardLayout
	widgetData map[string]map[string]any

	// Err, when set, is returned from every call.
	Err error
}

// NewMockClient builds an empty mock.
func NewMockClient() *MockClient {
	return &MockClient{
		dashboards: map[string]dashboard.DashboardLayout{},
		widgetData: map[string]map[string]any{},
	}
}

var _ dashboard.LayoutClient = (*MockClient)(nil)

// Seed stores a dashboard document directly.
func (m *MockClient) Seed(d dashboard.DashboardLayout) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d.Layout = dashboard.CloneLayout(d.Layout)
	m.dashboards[d.DashboardID] = d
}

// SeedWidgetData stores the data envelope payload served for a widget.
func (m *MockClient) SeedWidgetData(widgetID string, data map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.widgetData[widgetID] = data
}

// GetDashboard implements dashboard.LayoutClient.
func (m *MockClient) GetDashboard(_ context.Context, dashboardID string) (dashboard.DashboardLayout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return dashboard.DashboardLayout{}, m.Err
	}
	d, ok := m.dashboards[dashboardID]
	if !ok {
		return dashboard.DashboardLayout{DashboardID: dashboardID}, nil
	}
	d.Layout = dashboard.CloneLayout(d.Layout)
	return d, nil
}

// SaveLayout implements dashboard.LayoutClient.
func (m *MockClient) SaveLayout(_ context.Context, dashboardID string, layout []dashboard.Widget) (dashboard.DashboardLayout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return dashboard.DashboardLayout{}, m.Err
	}
	d := m.dashboards[dashboardID]
	d.DashboardID = dashboardID
	d.Layout = dashboard.CloneLayout(layout)
	m.dashboards[dashboardID] = d
	return d, nil
}

// AddWidget implements dashboard.LayoutClient.
func (m *MockClient) AddWidget(_ context.Context, dashboardID string, widget dashboard.Widget) (dashboard.Widget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return dashboard.Widget{}, m.Err
	}
	d := m.dashboards[dashboardID]
	d.DashboardID = dashboardID
	d.Layout = append(d.Layout, widget.Clone())
	m.dashboards[dashboardID] = d
	return widget, nil
}

// RemoveWidget implements dashboard.LayoutClient.
func (m *MockClient) RemoveWidget(_ context.Context, dashboardID, widgetID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	d := m.dashboards[dashboardID]
	for i, w := range d.Layout {
		if w.WidgetID == widgetID {
			d.Layout = append(d.Layout[:i], d.Layout[i+1:]...)
			m.dashboards[dashboardID] = d
			break
		}
	}
	return nil
}

// UpdateWidget implements dashboard.LayoutClient. The update is applied to
// geometry and title fields only; the mock does not validate.
func (m *MockClient) UpdateWidget(_ context.Context, dashboardID, widgetID string, update dashboard.WidgetUpdate) (dashboard.Widget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return dashboard.Widget{}, m.Err
	}
	d := m.dashboards[dashboardID]
	for i, w := range d.Layout {
		if w.WidgetID != widgetID {
			continue
		}
		if update.Title != nil {
			w.Title = *update.Title
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
		if update.Settings != nil {
			w.Settings = update.Settings.Clone()
		}
		d.Layout[i] = w
		m.dashboards[dashboardID] = d
		return w.Clone(), nil
	}
	return dashboard.Widget{}, nil
}

// WidgetData mirrors Client.WidgetData against the seeded state.
func (m *MockClient) WidgetData(_ context.Context, widgetID, timeRange, widgetType string) (WidgetDataEnvelope, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return WidgetDataEnvelope{}, m.Err
	}
	w, ok := m.findWidget(widgetID)
	if !ok {
		return WidgetDataEnvelope{}, &APIError{Code: "WIDGET_NOT_FOUND", Message: "no such widget", Status: 404}
	}
	meta := map[string]any{}
	if timeRange != "" {
		meta["range"] = timeRange
	}
	if widgetType != "" {
		meta["type"] = widgetType
	}
	data := m.widgetData[widgetID]
	if data == nil {
		data = map[string]any{}
	}
	return WidgetDataEnvelope{WidgetID: w.WidgetID, Title: w.Title, Data: data, Meta: meta}, nil
}

func (m *MockClient) findWidget(widgetID string) (dashboard.Widget, bool) {
	for _, d := range m.dashboards {
		for _, w := range d.Layout {
			if w.WidgetID == widgetID {
				return w, true
			}
		}
	}
	return dashboard.Widget{}, false
}
