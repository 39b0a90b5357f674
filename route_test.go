package routegate

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/routegate/routegate/apperr"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testController is a configurable Controller used across the package tests.
type testController struct {
	public  bool
	scope   string
	status  int
	execute func(ctx context.Context, inv *Invocation) (any, error)
}

func (c testController) Public() bool       { return c.public }
func (c testController) Scope() string      { return c.scope }
func (c testController) SuccessStatus() int { return c.status }
func (c testController) Execute(ctx context.Context, inv *Invocation) (any, error) {
	if c.execute == nil {
		return nil, nil
	}
	return c.execute(ctx, inv)
}

func TestResolveRoute(t *testing.T) {
	cases := []struct {
		module string
		method string
		path   string
	}{
		{"users/{id}/get", http.MethodGet, "/users/:id"},
		{"users/post", http.MethodPost, "/users"},
		{"users/{id}/patch", http.MethodPatch, "/users/:id"},
		{"orgs/{orgId}/members/{id}/get", http.MethodGet, "/orgs/:orgId/members/:id"},
		{"get", http.MethodGet, "/"},
		{"/users/GET", http.MethodGet, "/users"},
	}
	for _, tc := range cases {
		desc, err := resolveRoute(tc.module, testController{public: true}, "")
		if err != nil {
			t.Fatalf("resolveRoute(%q): unexpected error: %v", tc.module, err)
		}
		if desc.Method != tc.method || desc.Path != tc.path {
			t.Errorf("resolveRoute(%q) = %s %s, want %s %s", tc.module, desc.Method, desc.Path, tc.method, tc.path)
		}
	}
}

func TestResolveRouteRejectsUnknownMethod(t *testing.T) {
	for _, module := range []string{"users/{id}/delete", "users/put", "users/index"} {
		_, err := resolveRoute(module, testController{}, "")
		if !errors.Is(err, apperr.ErrConfiguration) {
			t.Fatalf("resolveRoute(%q): want configuration error, got %v", module, err)
		}
		if !strings.Contains(err.Error(), module) {
			t.Errorf("resolveRoute(%q): error %q does not name the module", module, err)
		}
	}
}

func TestResolveRouteRejectsEmptyModule(t *testing.T) {
	if _, err := resolveRoute("", testController{}, ""); !errors.Is(err, apperr.ErrConfiguration) {
		t.Fatalf("want configuration error, got %v", err)
	}
	if _, err := resolveRoute("users/get", nil, ""); !errors.Is(err, apperr.ErrConfiguration) {
		t.Fatalf("want configuration error for nil controller, got %v", err)
	}
}

func TestResolveRouteScopeDefaulting(t *testing.T) {
	desc, err := resolveRoute("users/get", testController{scope: "read:users"}, "fallback:scope")
	if err != nil {
		t.Fatal(err)
	}
	if desc.Scope != "read:users" {
		t.Errorf("controller scope should win, got %q", desc.Scope)
	}

	desc, err = resolveRoute("users/get", testController{}, "fallback:scope")
	if err != nil {
		t.Fatal(err)
	}
	if desc.Scope != "fallback:scope" {
		t.Errorf("default scope should apply, got %q", desc.Scope)
	}
}

func TestBuildRejectsDuplicateRoutes(t *testing.T) {
	_, err := Build(context.Background(), Options{}, []Route{
		{Module: "users/{id}/get", Controller: testController{public: true}},
		{Module: "users/{id}/get", Controller: testController{public: true}},
	})
	if !errors.Is(err, apperr.ErrConfiguration) {
		t.Fatalf("want configuration error, got %v", err)
	}
	if !strings.Contains(err.Error(), "users/{id}/get") {
		t.Errorf("error %q does not name the duplicate module", err)
	}
}

func TestBuildRejectsConflictingParamNames(t *testing.T) {
	// gin cannot register GET /users/:id and GET /users/:userId side by
	// side; the conflict must surface as a configuration error, not a
	// panic.
	_, err := Build(context.Background(), Options{}, []Route{
		{Module: "users/{id}/get", Controller: testController{public: true}},
		{Module: "users/{userId}/extra/get", Controller: testController{public: true}},
	})
	if !errors.Is(err, apperr.ErrConfiguration) {
		t.Fatalf("want configuration error, got %v", err)
	}
}

func TestBuildRequiresJWTSForPrivateRoutes(t *testing.T) {
	_, err := Build(context.Background(), Options{}, []Route{
		{Module: "users/post", Controller: testController{public: true}},
		{Module: "users/{id}/get", Controller: testController{}},
	})
	if !errors.Is(err, apperr.ErrConfiguration) {
		t.Fatalf("want configuration error, got %v", err)
	}
	for _, want := range []string{"users/{id}/get", "GET", "/users/:id"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not identify the route (%s)", err, want)
		}
	}
}

func TestBuildRejectsBadMethodBeforeServing(t *testing.T) {
	_, err := Build(context.Background(), Options{}, []Route{
		{Module: "users/delete", Controller: testController{public: true}},
	})
	if !errors.Is(err, apperr.ErrConfiguration) {
		t.Fatalf("want configuration error, got %v", err)
	}
}

func TestBuildRejectsMalformedInlineJWKS(t *testing.T) {
	_, err := Build(context.Background(), Options{JWTS: "{broken"}, []Route{
		{Module: "users/get", Controller: testController{public: true}},
	})
	if !errors.Is(err, apperr.ErrConfiguration) {
		t.Fatalf("want configuration error, got %v", err)
	}
}

func TestRoutesSnapshot(t *testing.T) {
	r, err := Build(context.Background(), Options{}, []Route{
		{Module: "users/post", Controller: testController{public: true}},
		{Module: "users/{id}/get", Controller: testController{public: true}},
	})
	if err != nil {
		t.Fatal(err)
	}
	routes := r.Routes()
	if len(routes) != 2 {
		t.Fatalf("want 2 descriptors, got %d", len(routes))
	}
	if routes[0].Method != http.MethodPost || routes[0].Path != "/users" {
		t.Errorf("unexpected first descriptor: %+v", routes[0])
	}
	if routes[1].Method != http.MethodGet || routes[1].Path != "/users/:id" {
		t.Errorf("unexpected second descriptor: %+v", routes[1])
	}
}

func TestConvertParam(t *testing.T) {
	cases := map[string]string{
		"{id}":     ":id",
		"{userId}": ":userId",
		"users":    "users",
		"{}":       "{}",
		"{broken":  "{broken",
	}
	for in, want := range cases {
		if got := convertParam(in); got != want {
			t.Errorf("convertParam(%q) = %q, want %q", in, got, want)
		}
	}
}
