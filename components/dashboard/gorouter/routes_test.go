package gorouter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"testing"

	router "github.com/goliatone/go-router"

	"github.com/goliatone/go-brandboard/components/dashboard"
)

func TestRegisterValidatesConfig(t *testing.T) {
	if err := Register(Config[struct{}]{}); err == nil {
		t.Fatalf("expected error when router/service missing")
	}
	if err := Register(Config[struct{}]{Router: newMockRouter()}); err == nil {
		t.Fatalf("expected error when service missing")
	}
}

func newTestConfig(mock *mockRouter) (Config[struct{}], *dashboard.Service) {
	service := dashboard.NewService(dashboard.Options{
		Store: dashboard.NewStore(dashboard.StoreOptions{DashboardID: "brand-main", UserRole: dashboard.RoleEditor}),
	})
	return Config[struct{}]{
		Router:    mock,
		Service:   service,
		Broadcast: dashboard.NewBroadcastHook(),
	}, service
}

func TestRegisterMountsRoutes(t *testing.T) {
	mock := newMockRouter()
	cfg, _ := newTestConfig(mock)
	if err := Register(cfg); err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	expected := []string{
		"GET:/dashboard/state",
		"GET:/dashboard/catalog",
		"POST:/dashboard/layout",
		"POST:/dashboard/widgets",
		"POST:/dashboard/widgets/:id",
		"DELETE:/dashboard/widgets/:id",
		"POST:/dashboard/widgets/:id/duplicate",
	}
	for _, key := range expected {
		if _, ok := mock.routes[key]; !ok {
			t.Fatalf("route %s not registered", key)
		}
	}
	if _, ok := mock.ws["/dashboard/ws"]; !ok {
		t.Fatalf("websocket route not registered")
	}
}

func TestSnapshotRoute(t *testing.T) {
	mock := newMockRouter()
	cfg, service := newTestConfig(mock)
	if err := Register(cfg); err != nil {
		t.Fatalf("register returned error: %v", err)
	}
	if err := service.Store().AddWidget(dashboard.Widget{WidgetID: "w1", Type: dashboard.WidgetNPSScore, W: 6, H: 4}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	ctx := newMockContext()
	if err := mock.routes["GET:/dashboard/state"](ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	var snap dashboard.Snapshot
	if err := json.Unmarshal(ctx.body, &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.DashboardID != "brand-main" || len(snap.Layout) != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestAddWidgetRoute(t *testing.T) {
	mock := newMockRouter()
	cfg, service := newTestConfig(mock)
	if err := Register(cfg); err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	ctx := newMockContext()
	ctx.reqBody = []byte(`{"type":"top-topics"}`)
	if err := mock.routes["POST:/dashboard/widgets"](ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if ctx.status != http.StatusCreated {
		t.Fatalf("status %d: %s", ctx.status, ctx.body)
	}
	if len(service.Store().Layout()) != 1 {
		t.Fatalf("widget not added")
	}
}

func TestViewerRoleIsRejected(t *testing.T) {
	mock := newMockRouter()
	cfg, service := newTestConfig(mock)
	if err := Register(cfg); err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	ctx := newMockContext()
	ctx.locals["role"] = "viewer"
	ctx.reqBody = []byte(`{"type":"top-topics"}`)
	if err := mock.routes["POST:/dashboard/widgets"](ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if ctx.status != http.StatusForbidden {
		t.Fatalf("expected forbidden, got %d: %s", ctx.status, ctx.body)
	}
	if len(service.Store().Layout()) != 0 {
		t.Fatalf("viewer mutation reached the store")
	}
}

func TestRoleIsScopedToRequest(t *testing.T) {
	mock := newMockRouter()
	cfg, service := newTestConfig(mock)
	if err := Register(cfg); err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	// A viewer request is rejected even though the store session is an
	// editor, and it must not downgrade the shared store role for anyone
	// else in flight.
	viewer := newMockContext()
	viewer.locals["role"] = "viewer"
	viewer.reqBody = []byte(`{"type":"top-topics"}`)
	if err := mock.routes["POST:/dashboard/widgets"](viewer); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if viewer.status != http.StatusForbidden {
		t.Fatalf("expected forbidden, got %d: %s", viewer.status, viewer.body)
	}
	if !service.Store().CanEdit() {
		t.Fatalf("viewer request mutated the shared store role")
	}

	// A request with no role of its own still falls back to the store's
	// configured session role.
	editor := newMockContext()
	editor.reqBody = []byte(`{"type":"top-topics"}`)
	if err := mock.routes["POST:/dashboard/widgets"](editor); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if editor.status != http.StatusCreated {
		t.Fatalf("status %d: %s", editor.status, editor.body)
	}
	if len(service.Store().Layout()) != 1 {
		t.Fatalf("editor mutation did not reach the store")
	}
}

func TestRemoveWidgetRoute(t *testing.T) {
	mock := newMockRouter()
	cfg, service := newTestConfig(mock)
	if err := Register(cfg); err != nil {
		t.Fatalf("register returned error: %v", err)
	}
	if err := service.Store().AddWidget(dashboard.Widget{WidgetID: "w1", Type: dashboard.WidgetTopTopics, W: 6, H: 4}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	ctx := newMockContext()
	ctx.params["id"] = "w1"
	if err := mock.routes["DELETE:/dashboard/widgets/:id"](ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if ctx.status != http.StatusOK {
		t.Fatalf("status %d: %s", ctx.status, ctx.body)
	}
	if len(service.Store().Layout()) != 0 {
		t.Fatalf("widget not removed")
	}
}

// --- Test helpers ---

type mockRouter struct {
	prefix string
	routes map[string]router.HandlerFunc
	ws     map[string]func(router.WebSocketContext) error
}

func newMockRouter() *mockRouter {
	return &mockRouter{
		routes: map[string]router.HandlerFunc{},
		ws:     map[string]func(router.WebSocketContext) error{},
	}
}

func (m *mockRouter) Group(prefix string) router.Router[struct{}] {
	return &mockRouter{
		prefix: m.prefix + prefix,
		routes: m.routes,
		ws:     m.ws,
	}
}

func (m *mockRouter) record(method, path string, handler router.HandlerFunc) {
	full := m.prefix + path
	m.routes[method+":"+full] = handler
}

func (m *mockRouter) Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo {
	m.record(string(router.GET), path, handler)
	return mockRouteInfo{}
}

func (m *mockRouter) Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo {
	m.record(string(router.POST), path, handler)
	return mockRouteInfo{}
}

func (m *mockRouter) Delete(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo {
	m.record(string(router.DELETE), path, handler)
	return mockRouteInfo{}
}

func (m *mockRouter) WebSocket(path string, cfg router.WebSocketConfig, handler func(router.WebSocketContext) error) router.RouteInfo {
	full := m.prefix + path
	m.ws[full] = handler
	return mockRouteInfo{}
}

// Unused Router methods required to satisfy the interface.

func (m *mockRouter) Handle(method router.HTTPMethod, path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo {
	m.record(string(method), path, handler)
	return mockRouteInfo{}
}

func (m *mockRouter) Mount(prefix string) router.Router[struct{}] { return m.Group(prefix) }

func (m *mockRouter) WithGroup(path string, cb func(r router.Router[struct{}])) router.Router[struct{}] {
	cb(m.Group(path))
	return m
}

func (m *mockRouter) Use(mw ...router.MiddlewareFunc) router.Router[struct{}] { return m }

func (m *mockRouter) Put(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo {
	m.record(string(router.PUT), path, handler)
	return mockRouteInfo{}
}

func (m *mockRouter) Patch(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo {
	m.record(string(router.PATCH), path, handler)
	return mockRouteInfo{}
}

func (m *mockRouter) Head(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo {
	m.record(string(router.HEAD), path, handler)
	return mockRouteInfo{}
}

func (m *mockRouter) Static(prefix, root string, config ...router.Static) router.Router[struct{}] {
	return m
}

func (m *mockRouter) Routes() []router.RouteDefinition { return nil }

func (m *mockRouter) ValidateRoutes() []error { return nil }

func (m *mockRouter) PrintRoutes() {}

func (m *mockRouter) WithLogger(logger router.Logger) router.Router[struct{}] { return m }

type mockRouteInfo struct{}

func (mockRouteInfo) SetName(string) router.RouteInfo        { return mockRouteInfo{} }
func (mockRouteInfo) SetDescription(string) router.RouteInfo { return mockRouteInfo{} }
func (mockRouteInfo) SetSummary(string) router.RouteInfo     { return mockRouteInfo{} }
func (mockRouteInfo) AddTags(...string) router.RouteInfo     { return mockRouteInfo{} }
func (mockRouteInfo) AddParameter(name, in string, required bool, schema map[string]any) router.RouteInfo {
	return mockRouteInfo{}
}
func (mockRouteInfo) SetRequestBody(desc string, required bool, content map[string]any) router.RouteInfo {
	return mockRouteInfo{}
}
func (mockRouteInfo) AddResponse(code int, desc string, content map[string]any) router.RouteInfo {
	return mockRouteInfo{}
}

type mockContext struct {
	ctx     context.Context
	headers map[string]string
	query   map[string]string
	body    []byte
	reqBody []byte
	locals  map[any]any
	params  map[string]string
	status  int
}

func newMockContext() *mockContext {
	return &mockContext{
		ctx:     context.Background(),
		headers: map[string]string{},
		query:   map[string]string{},
		locals:  map[any]any{},
		params:  map[string]string{},
	}
}

func (m *mockContext) Context() context.Context {
	return m.ctx
}

func (m *mockContext) SetHeader(k, v string) router.Context {
	m.headers[k] = v
	return m
}

func (m *mockContext) Header(name string) string { return m.headers[name] }

func (m *mockContext) Query(name string, defaultValue ...string) string {
	if v, ok := m.query[name]; ok {
		return v
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (m *mockContext) Send(b []byte) error {
	m.body = append([]byte{}, b...)
	return nil
}

func (m *mockContext) JSON(code int, v any) error {
	m.status = code
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.body = data
	return nil
}

func (m *mockContext) Body() []byte { return m.reqBody }

func (m *mockContext) Param(name string, defaultValue ...string) string {
	if v, ok := m.params[name]; ok {
		return v
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (m *mockContext) Locals(key any, value ...any) any {
	if len(value) == 0 {
		return m.locals[key]
	}
	m.locals[key] = value[0]
	return value[0]
}

// Unused Context methods required to satisfy the interface.

func (m *mockContext) Method() string { return "" }

func (m *mockContext) Path() string { return "" }

func (m *mockContext) ParamsInt(key string, defaultValue int) int { return defaultValue }

func (m *mockContext) QueryValues(name string) []string { return nil }

func (m *mockContext) QueryInt(name string, defaultValue int) int { return defaultValue }

func (m *mockContext) Queries() map[string]string { return m.query }

func (m *mockContext) LocalsMerge(key any, value map[string]any) map[string]any { return value }

func (m *mockContext) Render(name string, bind any, layouts ...string) error { return nil }

func (m *mockContext) Cookie(cookie *router.Cookie) {}

func (m *mockContext) Cookies(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (m *mockContext) CookieParser(out any) error { return nil }

func (m *mockContext) Redirect(location string, status ...int) error { return nil }

func (m *mockContext) RedirectToRoute(routeName string, params router.ViewContext, status ...int) error {
	return nil
}

func (m *mockContext) RedirectBack(fallback string, status ...int) error { return nil }

func (m *mockContext) Referer() string { return "" }

func (m *mockContext) OriginalURL() string { return "" }

func (m *mockContext) FormFile(key string) (*multipart.FileHeader, error) {
	return nil, errors.New("not implemented")
}

func (m *mockContext) FormValue(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (m *mockContext) IP() string { return "" }

func (m *mockContext) Status(code int) router.Context {
	m.status = code
	return m
}

func (m *mockContext) SendString(body string) error { return m.Send([]byte(body)) }

func (m *mockContext) SendStatus(code int) error {
	m.status = code
	return nil
}

func (m *mockContext) SendStream(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return m.Send(data)
}

func (m *mockContext) NoContent(code int) error {
	m.status = code
	return nil
}

func (m *mockContext) Set(key string, value any) { m.locals[key] = value }

func (m *mockContext) Get(key string, def any) any {
	if v, ok := m.locals[key]; ok {
		return v
	}
	return def
}

func (m *mockContext) GetString(key string, def string) string {
	if v, ok := m.locals[key].(string); ok {
		return v
	}
	return def
}

func (m *mockContext) GetInt(key string, def int) int {
	if v, ok := m.locals[key].(int); ok {
		return v
	}
	return def
}

func (m *mockContext) GetBool(key string, def bool) bool {
	if v, ok := m.locals[key].(bool); ok {
		return v
	}
	return def
}

func (m *mockContext) Bind(v any) error { return json.Unmarshal(m.reqBody, v) }

func (m *mockContext) SetContext(ctx context.Context) { m.ctx = ctx }

func (m *mockContext) Next() error { return nil }

func (m *mockContext) RouteName() string { return "" }

func (m *mockContext) RouteParams() map[string]string { return m.params }
