package gorouter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	router "github.com/goliatone/go-router"

	"github.com/goliatone/go-brandboard/components/dashboard"
	"github.com/goliatone/go-brandboard/components/dashboard/commands"
	"github.com/goliatone/go-brandboard/components/dashboard/queries"
)

// RoleResolver extracts the session role from a request context. The default
// reads the "role" local set by the host's auth middleware and falls back to
// the X-Dashboard-Role header for tooling.
type RoleResolver func(router.Context) dashboard.UserRole

// Config wires go-router with the dashboard service, store, and hooks.
type Config[T any] struct {
	Router       router.Router[T]
	Service      *dashboard.Service
	Broadcast    *dashboard.BroadcastHook
	Telemetry    dashboard.Telemetry
	RoleResolver RoleResolver
	BasePath     string
	Routes       RouteConfig
}

// RouteConfig customizes the relative paths used for dashboard endpoints.
type RouteConfig struct {
	Snapshot  string
	Catalog   string
	Layout    string
	Widgets   string
	WidgetID  string
	Duplicate string
	WebSocket string
}

// Register mounts dashboard routes (JSON, REST, WebSocket) on a go-router
// router. Mutating routes run through commands so the edit gate and
// telemetry apply uniformly no matter which transport a host picks.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.Service == nil {
		return errors.New("gorouter: service is required")
	}
	routes := defaultRouteConfig(cfg.Routes)
	base := cfg.BasePath
	if base == "" {
		base = "/dashboard"
	}
	resolver := cfg.RoleResolver
	if resolver == nil {
		resolver = defaultRoleResolver
	}

	store := cfg.Service.Store()
	snapshot := queries.NewSnapshotQuery(store)
	catalog := queries.NewCatalogQuery(cfg.Service.Catalog())

	// The guard is derived per request from the resolved role, never
	// written into the store: two in-flight requests with different roles
	// must not observe each other's permissions.
	guardFor := func(ctx router.Context) commands.EditGuard {
		if role := resolver(ctx); role != "" {
			return roleGuard(role)
		}
		return store
	}

	group := cfg.Router.Group(base)

	group.Get(routes.Snapshot, router.WrapHandler(func(ctx router.Context) error {
		snap, err := snapshot.Query(ctx.Context(), queries.SnapshotInput{})
		if err != nil {
			return respondError(ctx, http.StatusInternalServerError, err)
		}
		return ctx.JSON(http.StatusOK, snap)
	}))

	group.Get(routes.Catalog, router.WrapHandler(func(ctx router.Context) error {
		entries, err := catalog.Query(ctx.Context(), queries.CatalogInput{
			Category: dashboard.Category(ctx.Query("category")),
		})
		if err != nil {
			return respondError(ctx, http.StatusInternalServerError, err)
		}
		return ctx.JSON(http.StatusOK, entries)
	}))

	group.Post(routes.Layout, router.WrapHandler(func(ctx router.Context) error {
		setLayout := commands.NewSetLayoutCommand(cfg.Service, guardFor(ctx), cfg.Telemetry)
		var payload commands.SetLayoutInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		if err := setLayout.Execute(ctx.Context(), payload); err != nil {
			return respondError(ctx, mutationStatus(err), err)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "applied"})
	}))

	group.Post(routes.Widgets, router.WrapHandler(func(ctx router.Context) error {
		add := commands.NewAddWidgetCommand(cfg.Service, guardFor(ctx), cfg.Telemetry)
		var payload commands.AddWidgetInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		if err := add.Execute(ctx.Context(), payload); err != nil {
			return respondError(ctx, mutationStatus(err), err)
		}
		return ctx.JSON(http.StatusCreated, map[string]string{"status": "created"})
	}))

	group.Post(routes.WidgetID, router.WrapHandler(func(ctx router.Context) error {
		update := commands.NewUpdateWidgetCommand(cfg.Service, guardFor(ctx), cfg.Telemetry)
		id := ctx.Param("id")
		if id == "" {
			return respondError(ctx, http.StatusBadRequest, errors.New("widget id is required"))
		}
		var payload dashboard.WidgetUpdate
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		input := commands.UpdateWidgetInput{WidgetID: id, Update: payload}
		if err := update.Execute(ctx.Context(), input); err != nil {
			return respondError(ctx, mutationStatus(err), err)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "updated"})
	}))

	group.Delete(routes.WidgetID, router.WrapHandler(func(ctx router.Context) error {
		remove := commands.NewRemoveWidgetCommand(cfg.Service, guardFor(ctx), cfg.Telemetry)
		id := ctx.Param("id")
		if id == "" {
			return respondError(ctx, http.StatusBadRequest, errors.New("widget id is required"))
		}
		if err := remove.Execute(ctx.Context(), commands.RemoveWidgetInput{WidgetID: id}); err != nil {
			return respondError(ctx, mutationStatus(err), err)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "removed"})
	}))

	group.Post(routes.Duplicate, router.WrapHandler(func(ctx router.Context) error {
		duplicate := commands.NewDuplicateWidgetCommand(cfg.Service, guardFor(ctx), cfg.Telemetry)
		id := ctx.Param("id")
		if id == "" {
			return respondError(ctx, http.StatusBadRequest, errors.New("widget id is required"))
		}
		if err := duplicate.Execute(ctx.Context(), commands.DuplicateWidgetInput{WidgetID: id}); err != nil {
			return respondError(ctx, mutationStatus(err), err)
		}
		return ctx.JSON(http.StatusCreated, map[string]string{"status": "duplicated"})
	}))

	if cfg.Broadcast != nil {
		registerWebSocket(group, cfg.Broadcast, routes.WebSocket)
	}

	return nil
}

func registerWebSocket[T any](r router.Router[T], hook *dashboard.BroadcastHook, path string) {
	cfg := router.DefaultWebSocketConfig()
	r.WebSocket(path, cfg, func(ws router.WebSocketContext) error {
		events, cancel := hook.Subscribe()
		defer cancel()
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return nil
				}
				if err := ws.WriteJSON(event); err != nil {
					return err
				}
			case <-ws.Context().Done():
				return ws.Close()
			}
		}
	})
}

// roleGuard is a per-request commands.EditGuard carrying the resolved role
// as a value, so concurrent requests cannot observe each other's role.
type roleGuard dashboard.UserRole

func (g roleGuard) CanEdit() bool {
	return dashboard.PermissionsForRole(dashboard.UserRole(g)).CanEdit
}

func defaultRoleResolver(ctx router.Context) dashboard.UserRole {
	if v, ok := ctx.Locals("role").(string); ok && v != "" {
		return dashboard.UserRole(strings.ToLower(v))
	}
	if header := ctx.Header("X-Dashboard-Role"); header != "" {
		return dashboard.UserRole(strings.ToLower(strings.TrimSpace(header)))
	}
	return ""
}

func mutationStatus(err error) int {
	switch {
	case errors.Is(err, dashboard.ErrReadOnly):
		return http.StatusForbidden
	case errors.Is(err, dashboard.ErrUnknownWidgetType):
		return http.StatusBadRequest
	case errors.Is(err, dashboard.ErrDuplicateWidgetID):
		return http.StatusConflict
	case errors.Is(err, dashboard.ErrLayoutIDMismatch):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func respondError(ctx router.Context, status int, err error) error {
	return ctx.JSON(status, map[string]string{"error": err.Error()})
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	if routes.Snapshot == "" {
		routes.Snapshot = "/state"
	}
	if routes.Catalog == "" {
		routes.Catalog = "/catalog"
	}
	if routes.Layout == "" {
		routes.Layout = "/layout"
	}
	if routes.Widgets == "" {
		routes.Widgets = "/widgets"
	}
	if routes.WidgetID == "" {
		routes.WidgetID = "/widgets/:id"
	}
	if routes.Duplicate == "" {
		routes.Duplicate = "/widgets/:id/duplicate"
	}
	if routes.WebSocket == "" {
		routes.WebSocket = "/ws"
	}
	return routes
}
