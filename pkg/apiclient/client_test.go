package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	dashboard "github.com/goliatone/go-brandboard/components/dashboard"
	"github.com/goliatone/go-brandboard/components/dashboard/httpapi"
)

func newTestClient(t *testing.T) (*Client, *httpapi.Server) {
	t.Helper()
	api := httpapi.NewServer(httpapi.ServerOptions{})
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	client, err := New(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client, api
}

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatalf("expected missing base url error")
	}
}

func TestSaveAndGetDashboard(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()
	layout := []dashboard.Widget{
		{WidgetID: "w1", Type: dashboard.WidgetBrandSentiment, W: 6, H: 4},
		{WidgetID: "w2", Type: dashboard.WidgetMentionsTrend, X: 6, W: 6, H: 4},
	}

	saved, err := client.SaveLayout(ctx, "brand-main", layout)
	if err != nil {
		t.Fatalf("SaveLayout: %v", err)
	}
	if len(saved.Layout) != 2 {
		t.Fatalf("unexpected saved layout: %+v", saved.Layout)
	}

	fetched, err := client.GetDashboard(ctx, "brand-main")
	if err != nil {
		t.Fatalf("GetDashboard: %v", err)
	}
	if fetched.DashboardID != "brand-main" || len(fetched.Layout) != 2 {
		t.Fatalf("unexpected dashboard: %+v", fetched)
	}
	if fetched.Layout[1].X != 6 {
		t.Fatalf("geometry lost in round trip: %+v", fetched.Layout[1])
	}
}

func TestWidgetLifecycle(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	w := dashboard.Widget{WidgetID: "w1", Type: dashboard.WidgetNPSScore, W: 6, H: 4}
	if _, err := client.AddWidget(ctx, "brand-main", w); err != nil {
		t.Fatalf("AddWidget: %v", err)
	}

	x := 3
	updated, err := client.UpdateWidget(ctx, "brand-main", "w1", dashboard.WidgetUpdate{X: &x})
	if err != nil {
		t.Fatalf("UpdateWidget: %v", err)
	}
	if updated.X != 3 {
		t.Fatalf("update not applied: %+v", updated)
	}

	if err := client.RemoveWidget(ctx, "brand-main", "w1"); err != nil {
		t.Fatalf("RemoveWidget: %v", err)
	}
	d, err := client.GetDashboard(ctx, "brand-main")
	if err != nil {
		t.Fatalf("GetDashboard: %v", err)
	}
	if len(d.Layout) != 0 {
		t.Fatalf("widget not removed: %+v", d.Layout)
	}
}

func TestAPIErrorDecoding(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	w := dashboard.Widget{WidgetID: "w1", Type: dashboard.WidgetNPSScore, W: 6, H: 4}
	if _, err := client.AddWidget(ctx, "brand-main", w); err != nil {
		t.Fatalf("AddWidget: %v", err)
	}
	_, err := client.AddWidget(ctx, "brand-main", w)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != "DUPLICATE_WIDGET" || apiErr.Status != http.StatusConflict {
		t.Fatalf("unexpected error: %+v", apiErr)
	}
}

func TestAPIErrorFallbackCodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway exploded", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	client, err := New(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = client.GetDashboard(context.Background(), "brand-main")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != CodeUnknownError || apiErr.Status != http.StatusBadGateway {
		t.Fatalf("unexpected error: %+v", apiErr)
	}
}

func TestNetworkErrorCode(t *testing.T) {
	client, err := New(Config{BaseURL: "http://127.0.0.1:1"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = client.GetDashboard(context.Background(), "brand-main")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != CodeNetworkError || apiErr.Status != 0 {
		t.Fatalf("unexpected error: %+v", apiErr)
	}
}

func TestWidgetDataFetch(t *testing.T) {
	client, api := newTestClient(t)
	ctx := context.Background()

	api.Repository().Put(dashboard.DashboardLayout{
		DashboardID: "brand-main",
		Layout:      []dashboard.Widget{{WidgetID: "w1", Type: dashboard.WidgetNPSScore, Title: "NPS Score", W: 6, H: 4}},
	})
	api.Repository().PutWidgetData("w1", map[string]any{"score": 42})

	env, err := client.WidgetData(ctx, "w1", "30d", "nps-score")
	if err != nil {
		t.Fatalf("WidgetData: %v", err)
	}
	if env.WidgetID != "w1" || env.Title != "NPS Score" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if env.Data["score"] != float64(42) {
		t.Fatalf("seeded data missing: %+v", env.Data)
	}
	if env.Meta["range"] != "30d" || env.Meta["type"] != "nps-score" {
		t.Fatalf("query not echoed in meta: %+v", env.Meta)
	}

	_, err = client.WidgetData(ctx, "w-missing", "", "")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != "WIDGET_NOT_FOUND" || apiErr.Status != http.StatusNotFound {
		t.Fatalf("unexpected error: %+v", apiErr)
	}
}

func TestExportWidget(t *testing.T) {
	client, api := newTestClient(t)
	ctx := context.Background()

	api.Repository().Put(dashboard.DashboardLayout{
		DashboardID: "brand-main",
		Layout:      []dashboard.Widget{{WidgetID: "w1", Type: dashboard.WidgetShareOfVoice, Title: "Share of Voice", W: 6, H: 4}},
	})
	api.Repository().PutWidgetData("w1", map[string]any{"acme": 0.4, "rival": 0.6})

	export, err := client.ExportWidget(ctx, "w1", "")
	if err != nil {
		t.Fatalf("ExportWidget: %v", err)
	}
	if export.Format != "json" || export.ContentType != "application/json" {
		t.Fatalf("unexpected default export: %+v", export)
	}
	if !strings.Contains(export.Content, "w1") {
		t.Fatalf("widget missing from export content: %s", export.Content)
	}

	export, err = client.ExportWidget(ctx, "w1", "csv")
	if err != nil {
		t.Fatalf("ExportWidget csv: %v", err)
	}
	if export.ContentType != "text/csv" {
		t.Fatalf("unexpected csv export: %+v", export)
	}
	if !strings.HasPrefix(export.Content, "key,value\n") || !strings.Contains(export.Content, "acme,0.4") {
		t.Fatalf("unexpected csv content: %q", export.Content)
	}

	_, err = client.ExportWidget(ctx, "w1", "xlsx")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != "INVALID_REQUEST" {
		t.Fatalf("unexpected error: %+v", apiErr)
	}
}

func TestMockClientLifecycle(t *testing.T) {
	mock := NewMockClient()
	ctx := context.Background()

	mock.Seed(dashboard.DashboardLayout{
		DashboardID: "brand-main",
		Layout:      []dashboard.Widget{{WidgetID: "w1", Type: dashboard.WidgetTopTopics, W: 6, H: 4}},
	})
	d, err := mock.GetDashboard(ctx, "brand-main")
	if err != nil || len(d.Layout) != 1 {
		t.Fatalf("seeded dashboard missing: %+v err=%v", d, err)
	}

	mock.Err = errors.New("offline")
	if _, err := mock.GetDashboard(ctx, "brand-main"); err == nil {
		t.Fatalf("expected injected error")
	}
}

func TestMockClientWidgetData(t *testing.T) {
	mock := NewMockClient()
	ctx := context.Background()

	mock.Seed(dashboard.DashboardLayout{
		DashboardID: "brand-main",
		Layout:      []dashboard.Widget{{WidgetID: "w1", Type: dashboard.WidgetNPSScore, Title: "NPS Score", W: 6, H: 4}},
	})
	mock.SeedWidgetData("w1", map[string]any{"score": 42})

	env, err := mock.WidgetData(ctx, "w1", "7d", "")
	if err != nil {
		t.Fatalf("WidgetData: %v", err)
	}
	if env.Title != "NPS Score" || env.Data["score"] != 42 || env.Meta["range"] != "7d" {
		t.Fatalf("unexpected envelope: %+v", env)
	}

	_, err = mock.WidgetData(ctx, "w-missing", "", "")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
}
