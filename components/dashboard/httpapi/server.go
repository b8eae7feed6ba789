package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/goliatone/go-brandboard/components/dashboard"
)

// Server is the reference persistence API. It speaks the same contract the
// apiclient package consumes: dashboard documents in, dashboard documents
// out, errors as a `{code, message}` envelope.
type Server struct {
	repo      *Repository
	telemetry dashboard.Telemetry
	mux       *http.ServeMux
}

// ServerOptions configures a Server.
type ServerOptions struct {
	Repository *Repository
	Telemetry  dashboard.Telemetry
}

// NewServer builds the server and its routes.
func NewServer(opts ServerOptions) *Server {
	if opts.Repository == nil {
		opts.Repository = NewRepository()
	}
	s := &Server{
		repo:      opts.Repository,
		telemetry: normalizeTelemetry(opts.Telemetry),
		mux:       http.NewServeMux(),
	}
	s.routes()
	return s
}

// Repository exposes the backing store, mainly for seeding in tests and
// example servers.
func (s *Server) Repository() *Repository { return s.repo }

func (s *Server) routes() {
	s.mux.HandleFunc("GET /dashboards/{id}", s.handleGetDashboard)
	s.mux.HandleFunc("PUT /dashboards/{id}/layout", s.handleReplaceLayout)
	s.mux.HandleFunc("POST /dashboards/{id}/widgets", s.handleAddWidget)
	s.mux.HandleFunc("DELETE /dashboards/{id}/widgets/{widgetId}", s.handleRemoveWidget)
	s.mux.HandleFunc("PATCH /dashboards/{id}/widgets/{widgetId}", s.handleUpdateWidget)
	s.mux.HandleFunc("GET /widgets/{widgetId}/data", s.handleWidgetData)
	s.mux.HandleFunc("GET /widgets/{widgetId}/export", s.handleWidgetExport)
	s.mux.HandleFunc("POST /analytics/events", s.handleAnalyticsEvent)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleGetDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.repo.Get(r.PathValue("id")))
}

func (s *Server) handleReplaceLayout(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Layout []dashboard.Widget `json:"layout"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	d := s.repo.ReplaceLayout(r.PathValue("id"), payload.Layout)
	s.telemetry.Record(r.Context(), "httpapi.layout.replaced", map[string]any{
		"dashboardId": d.DashboardID,
		"widgetCount": len(d.Layout),
	})
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleAddWidget(w http.ResponseWriter, r *http.Request) {
	var widget dashboard.Widget
	if err := json.NewDecoder(r.Body).Decode(&widget); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if widget.WidgetID == "" || widget.Type == "" {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "widgetId and type are required")
		return
	}
	dashboardID := r.PathValue("id")
	if !s.repo.AddWidget(dashboardID, widget) {
		writeError(w, http.StatusConflict, "DUPLICATE_WIDGET", "widget id already exists")
		return
	}
	s.telemetry.Record(r.Context(), "httpapi.widget.added", map[string]any{
		"dashboardId": dashboardID,
		"widgetId":    widget.WidgetID,
	})
	writeJSON(w, http.StatusCreated, widget)
}

func (s *Server) handleRemoveWidget(w http.ResponseWriter, r *http.Request) {
	dashboardID := r.PathValue("id")
	widgetID := r.PathValue("widgetId")
	if !s.repo.RemoveWidget(dashboardID, widgetID) {
		writeError(w, http.StatusNotFound, "WIDGET_NOT_FOUND", "no such widget")
		return
	}
	s.telemetry.Record(r.Context(), "httpapi.widget.removed", map[string]any{
		"dashboardId": dashboardID,
		"widgetId":    widgetID,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdateWidget(w http.ResponseWriter, r *http.Request) {
	var update dashboard.WidgetUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	updated, ok := s.repo.UpdateWidget(r.PathValue("id"), r.PathValue("widgetId"), update)
	if !ok {
		writeError(w, http.StatusNotFound, "WIDGET_NOT_FOUND", "no such widget")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

type widgetDataResponse struct {
	WidgetID string         `json:"widgetId"`
	Title    string         `json:"title"`
	Data     map[string]any `json:"data"`
	Meta     map[string]any `json:"meta,omitempty"`
}

func (s *Server) handleWidgetData(w http.ResponseWriter, r *http.Request) {
	widgetID := r.PathValue("widgetId")
	widget, ok := s.repo.FindWidget(widgetID)
	if !ok {
		writeError(w, http.StatusNotFound, "WIDGET_NOT_FOUND", "no such widget")
		return
	}
	meta := map[string]any{}
	if v := r.URL.Query().Get("range"); v != "" {
		meta["range"] = v
	}
	if v := r.URL.Query().Get("type"); v != "" {
		meta["type"] = v
	}
	writeJSON(w, http.StatusOK, widgetDataResponse{
		WidgetID: widget.WidgetID,
		Title:    widget.Title,
		Data:     s.repo.WidgetData(widgetID),
		Meta:     meta,
	})
}

type widgetExportResponse struct {
	WidgetID    string `json:"widgetId"`
	Format      string `json:"format"`
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

func (s *Server) handleWidgetExport(w http.ResponseWriter, r *http.Request) {
	widgetID := r.PathValue("widgetId")
	widget, ok := s.repo.FindWidget(widgetID)
	if !ok {
		writeError(w, http.StatusNotFound, "WIDGET_NOT_FOUND", "no such widget")
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	data := s.repo.WidgetData(widgetID)
	var content, contentType string
	switch format {
	case "json":
		body, err := json.MarshalIndent(map[string]any{
			"widget": widget,
			"data":   data,
		}, "", "  ")
		if err != nil {
			writeError(w, http.StatusInternalServerError, "UNKNOWN_ERROR", err.Error())
			return
		}
		content = string(body)
		contentType = "application/json"
	case "csv":
		content = exportCSV(data)
		contentType = "text/csv"
	default:
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "unsupported export format: "+format)
		return
	}
	s.telemetry.Record(r.Context(), "httpapi.widget.exported", map[string]any{
		"widgetId": widgetID,
		"format":   format,
	})
	writeJSON(w, http.StatusOK, widgetExportResponse{
		WidgetID:    widgetID,
		Format:      format,
		ContentType: contentType,
		Content:     content,
	})
}

// exportCSV flattens a data object into key,value rows in key order.
func exportCSV(data map[string]any) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString("key,value\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "%s,%v\n", k, data[k])
	}
	return b.String()
}

// AnalyticsEvent is the ingestion payload for usage events.
type AnalyticsEvent struct {
	Event      string         `json:"event"`
	Properties map[string]any `json:"properties,omitempty"`
	Timestamp  string         `json:"timestamp,omitempty"`
	SessionID  string         `json:"sessionId,omitempty"`
}

func (s *Server) handleAnalyticsEvent(w http.ResponseWriter, r *http.Request) {
	var event AnalyticsEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if event.Event == "" {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "event name is required")
		return
	}
	s.telemetry.Record(r.Context(), "analytics."+event.Event, event.Properties)
	w.WriteHeader(http.StatusAccepted)
}

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t dashboard.Telemetry) dashboard.Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorEnvelope{Code: code, Message: message})
}
