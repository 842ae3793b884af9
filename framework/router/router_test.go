package router

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
)

func testTable(t *testing.T) *Table {
	t.Helper()

	table, err := New(
		Route{Name: "home", Pattern: "/", View: "home"},
		Route{Name: "login", Pattern: "/login", View: "login"},
		Route{Name: "user", Pattern: "/users/:username", View: "profile"},
		Route{Name: "writing", Pattern: "/users/:username/:id", View: "writing"},
		Route{Name: "register", Pattern: "/register", View: "register"},
		Route{Name: "publish", Pattern: "/publish", View: "publish"},
	)
	if err != nil {
		t.Fatalf("new table: %v", err)
	}
	return table
}

func TestTableResolve(t *testing.T) {
	table := testTable(t)

	tests := []struct {
		name       string
		path       string
		expectedID string
		params     map[string]string
	}{
		{name: "root", path: "/", expectedID: "home"},
		{name: "empty path", path: "", expectedID: "home"},
		{name: "login", path: "/login", expectedID: "login"},
		{name: "login trailing slash", path: "/login/", expectedID: "login"},
		{name: "register", path: "/register", expectedID: "register"},
		{name: "publish", path: "/publish", expectedID: "publish"},
		{
			name:       "user",
			path:       "/users/bob",
			expectedID: "user",
			params:     map[string]string{"username": "bob"},
		},
		{
			name:       "writing",
			path:       "/users/alice/42",
			expectedID: "writing",
			params:     map[string]string{"username": "alice", "id": "42"},
		},
		{
			name:       "duplicate slashes",
			path:       "//users//alice//42",
			expectedID: "writing",
			params:     map[string]string{"username": "alice", "id": "42"},
		},
		{name: "unmatched", path: "/nope", expectedID: NotFound.Name},
		{name: "too deep", path: "/users/alice/42/edit", expectedID: NotFound.Name},
		{name: "bare users", path: "/users", expectedID: NotFound.Name},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			state := table.Resolve(tc.path)
			if state.Route.Name != tc.expectedID {
				t.Fatalf("expected route %q, got %q", tc.expectedID, state.Route.Name)
			}
			if len(state.Params) != len(tc.params) {
				t.Fatalf("expected %d params, got %v", len(tc.params), state.Params)
			}
			for key, want := range tc.params {
				got, ok := state.Param(key)
				if !ok || got != want {
					t.Fatalf("expected param %q=%q, got %q", key, want, got)
				}
			}
		})
	}
}

func TestTableResolveNotFound(t *testing.T) {
	state := testTable(t).Resolve("/missing/page")
	if state.Found() {
		t.Fatal("expected unmatched path to resolve to not-found")
	}
	if state.Path != "/missing/page" {
		t.Fatalf("expected path to be kept, got %q", state.Path)
	}
}

func TestTableFirstMatchWins(t *testing.T) {
	table, err := New(
		Route{Name: "user", Pattern: "/users/:username", View: "profile"},
		Route{Name: "admin", Pattern: "/users/admin", View: "admin"},
	)
	if err != nil {
		t.Fatalf("new table: %v", err)
	}

	state := table.Resolve("/users/admin")
	if state.Route.Name != "user" {
		t.Fatalf("expected first declared route to win, got %q", state.Route.Name)
	}

	reversed, err := New(
		Route{Name: "admin", Pattern: "/users/admin", View: "admin"},
		Route{Name: "user", Pattern: "/users/:username", View: "profile"},
	)
	if err != nil {
		t.Fatalf("new reversed table: %v", err)
	}
	if got := reversed.Resolve("/users/admin").Route.Name; got != "admin" {
		t.Fatalf("expected admin route, got %q", got)
	}
}

func TestNewRejectsInvalidTables(t *testing.T) {
	tests := []struct {
		name   string
		routes []Route
	}{
		{name: "empty"},
		{name: "missing name", routes: []Route{{Pattern: "/"}}},
		{name: "reserved name", routes: []Route{{Name: "not-found", Pattern: "/"}}},
		{name: "relative pattern", routes: []Route{{Name: "a", Pattern: "login"}}},
		{name: "bad param", routes: []Route{{Name: "a", Pattern: "/users/:1d"}}},
		{name: "repeated param", routes: []Route{{Name: "a", Pattern: "/users/:id/:id"}}},
		{
			name: "duplicate name",
			routes: []Route{
				{Name: "a", Pattern: "/a"},
				{Name: "a", Pattern: "/b"},
			},
		},
		{
			name: "pattern conflict",
			routes: []Route{
				{Name: "a", Pattern: "/users/:username"},
				{Name: "b", Pattern: "/users/:name"},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.routes...); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestTablePath(t *testing.T) {
	table := testTable(t)

	got, err := table.Path("writing", map[string]string{"username": "alice", "id": "42"})
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	if got != "/users/alice/42" {
		t.Fatalf("expected /users/alice/42, got %q", got)
	}

	got, err = table.Path("user", map[string]string{"username": "a b/c"})
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	if got != "/users/a%20b%2Fc" {
		t.Fatalf("expected encoded segment, got %q", got)
	}

	for value, want := range map[string]string{"..": "/users/%2E%2E", ".": "/users/%2E"} {
		got, err = table.Path("user", map[string]string{"username": value})
		if err != nil {
			t.Fatalf("path: %v", err)
		}
		if got != want {
			t.Fatalf("expected %q for %q, got %q", want, value, got)
		}

		u, err := url.Parse(got)
		if err != nil {
			t.Fatalf("parse %q: %v", got, err)
		}
		state := table.ResolveURL(u)
		if state.Route.Name != "user" {
			t.Fatalf("expected %q to resolve to user, got %q", got, state.Route.Name)
		}
		if username, _ := state.Param("username"); username != value {
			t.Fatalf("expected username %q, got %q", value, username)
		}
	}

	if got, _ := table.Path("home", nil); got != "/" {
		t.Fatalf("expected root path, got %q", got)
	}

	if _, err := table.Path("writing", map[string]string{"username": "alice"}); err == nil {
		t.Fatal("expected missing param error")
	}
	if _, err := table.Path("nope", nil); !errors.Is(err, ErrUnknownRoute) {
		t.Fatalf("expected unknown route error, got %v", err)
	}
}

func TestTableResolveURLRoundTripsEncodedSegments(t *testing.T) {
	table := testTable(t)

	target, err := table.Path("user", map[string]string{"username": "a b/c"})
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	u, err := url.Parse(target)
	if err != nil {
		t.Fatalf("parse %q: %v", target, err)
	}

	state := table.ResolveURL(u)
	if state.Route.Name != "user" {
		t.Fatalf("expected user route, got %q", state.Route.Name)
	}
	if got, _ := state.Param("username"); got != "a b/c" {
		t.Fatalf("expected decoded username, got %q", got)
	}
	if state.Path != "/users/a%20b%2Fc" {
		t.Fatalf("expected escaped path to be kept, got %q", state.Path)
	}

	state = table.ResolveURL(&url.URL{Path: "/users/alice/42/"})
	if state.Route.Name != "writing" {
		t.Fatalf("expected writing route, got %q", state.Route.Name)
	}
	if state = table.ResolveURL(&url.URL{Path: "/nowhere"}); state.Found() {
		t.Fatalf("expected not-found state, got %q", state.Route.Name)
	}
}

func TestMatchPathPattern(t *testing.T) {
	params, ok := MatchPathPattern("/users/:username/live", "/users/nina/live")
	if !ok {
		t.Fatal("expected pattern to match")
	}
	if params["username"] != "nina" {
		t.Fatalf("expected username to be %q, got %q", "nina", params["username"])
	}

	if _, ok = MatchPathPattern("/users/:username/live", "/users/nina"); ok {
		t.Fatal("expected mismatch for shorter path")
	}

	params, ok = MatchPathPattern("/search/live", "/search/live/")
	if !ok || len(params) != 0 {
		t.Fatalf("expected static match without params, got %v %v", params, ok)
	}
}

func TestNavigator(t *testing.T) {
	nav := NewNavigator(testTable(t), "/")
	if got := nav.Current().Route.Name; got != "home" {
		t.Fatalf("expected initial home state, got %q", got)
	}

	first := nav.Navigate("/users/bob")
	if first.Route.Name != "user" {
		t.Fatalf("expected user route, got %q", first.Route.Name)
	}

	second, err := nav.NavigateTo("writing", map[string]string{"username": "bob", "id": "7"})
	if err != nil {
		t.Fatalf("navigate to: %v", err)
	}
	if second.Path != "/users/bob/7" {
		t.Fatalf("expected writing path, got %q", second.Path)
	}
	if got := nav.Current(); got.Route.Name != "writing" || got.Params["id"] != "7" {
		t.Fatalf("expected current writing state, got %+v", got)
	}
	if first.Params["username"] != "bob" || len(first.Params) != 1 {
		t.Fatalf("expected previous state to be untouched, got %+v", first)
	}

	if _, err := nav.NavigateTo("nope", nil); err == nil {
		t.Fatal("expected unknown route error")
	}
	if got := nav.Current().Route.Name; got != "writing" {
		t.Fatalf("failed navigation must keep state, got %q", got)
	}
}

func TestNavigatorConcurrentUse(t *testing.T) {
	nav := NewNavigator(testTable(t), "/")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				nav.Navigate("/login")
				return
			}
			_ = nav.Current()
		}(i)
	}
	wg.Wait()

	if got := nav.Current().Route.Name; got != "login" && got != "home" {
		t.Fatalf("unexpected state %q", got)
	}
}

func TestStateContext(t *testing.T) {
	if _, ok := StateFrom(context.Background()); ok {
		t.Fatal("expected no state in empty context")
	}

	state := testTable(t).Resolve("/publish")
	got, ok := StateFrom(WithState(context.Background(), state))
	if !ok || got.Route.Name != "publish" {
		t.Fatalf("expected publish state, got %+v", got)
	}
}
