package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	dashboard "github.com/goliatone/go-brandboard/components/dashboard"
)

// Config configures the HTTP layout client.
type Config struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// Client talks to the dashboard persistence API over REST. It implements
// dashboard.LayoutClient.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// New builds a client for the persistence API.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("apiclient: base url is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  httpClient,
	}, nil
}

var _ dashboard.LayoutClient = (*Client)(nil)

// GetDashboard fetches the full dashboard document.
func (c *Client) GetDashboard(ctx context.Context, dashboardID string) (dashboard.DashboardLayout, error) {
	var resp dashboard.DashboardLayout
	if err := c.do(ctx, http.MethodGet, "/dashboards/"+dashboardID, nil, &resp); err != nil {
		return dashboard.DashboardLayout{}, err
	}
	return resp, nil
}

// SaveLayout replaces the dashboard's widget collection and returns the
// authoritative stored document.
func (c *Client) SaveLayout(ctx context.Context, dashboardID string, layout []dashboard.Widget) (dashboard.DashboardLayout, error) {
	req := saveLayoutRequest{Layout: layout}
	var resp dashboard.DashboardLayout
	if err := c.do(ctx, http.MethodPut, "/dashboards/"+dashboardID+"/layout", req, &resp); err != nil {
		return dashboard.DashboardLayout{}, err
	}
	return resp, nil
}

// AddWidget persists a single widget.
func (c *Client) AddWidget(ctx context.Context, dashboardID string, widget dashboard.Widget) (dashboard.Widget, error) {
	var resp dashboard.Widget
	if err := c.do(ctx, http.MethodPost, "/dashboards/"+dashboardID+"/widgets", widget, &resp); err != nil {
		return dashboard.Widget{}, err
	}
	return resp, nil
}

// RemoveWidget deletes a single widget.
func (c *Client) RemoveWidget(ctx context.Context, dashboardID, widgetID string) error {
	return c.do(ctx, http.MethodDelete, "/dashboards/"+dashboardID+"/widgets/"+widgetID, nil, nil)
}

// UpdateWidget merges a partial update into a stored widget.
func (c *Client) UpdateWidget(ctx context.Context, dashboardID, widgetID string, update dashboard.WidgetUpdate) (dashboard.Widget, error) {
	var resp dashboard.Widget
	if err := c.do(ctx, http.MethodPatch, "/dashboards/"+dashboardID+"/widgets/"+widgetID, update, &resp); err != nil {
		return dashboard.Widget{}, err
	}
	return resp, nil
}

// WidgetData fetches the data envelope for a widget. The envelope is
// opaque here; hosts feed it to whatever chart surface they run.
func (c *Client) WidgetData(ctx context.Context, widgetID, timeRange, widgetType string) (WidgetDataEnvelope, error) {
	q := url.Values{}
	if timeRange != "" {
		q.Set("range", timeRange)
	}
	if widgetType != "" {
		q.Set("type", widgetType)
	}
	path := "/widgets/" + widgetID + "/data"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var resp WidgetDataEnvelope
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return WidgetDataEnvelope{}, err
	}
	return resp, nil
}

// ExportWidget fetches a widget rendered into a portable format. Supported
// formats are decided server side; empty means the server default.
func (c *Client) ExportWidget(ctx context.Context, widgetID, format string) (WidgetExport, error) {
	path := "/widgets/" + widgetID + "/export"
	if format != "" {
		path += "?format=" + url.QueryEscape(format)
	}
	var resp WidgetExport
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return WidgetExport{}, err
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any, target any) error {
	var reader *bytes.Reader
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("apiclient: encode payload: %w", err)
		}
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("apiclient: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return &APIError{Code: CodeNetworkError, Message: err.Error(), Status: 0}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if target == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("apiclient: decode response: %w", err)
	}
	return nil
}

type saveLayoutRequest struct {
	Layout []dashboard.Widget `json:"layout"`
}

// WidgetDataEnvelope is the data payload the API returns for one widget.
type WidgetDataEnvelope struct {
	WidgetID string         `json:"widgetId"`
	Title    string         `json:"title"`
	Data     map[string]any `json:"data"`
	Meta     map[string]any `json:"meta,omitempty"`
}

// WidgetExport is a widget rendered into a portable format.
type WidgetExport struct {
	WidgetID    string `json:"widgetId"`
	Format      string `json:"format"`
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}
