package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"writings/internal/api"
	"writings/internal/config"
	"writings/internal/writings"
)

type fakeBackend struct {
	mu        sync.Mutex
	published []map[string]any
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.URL.EscapedPath() == "/":
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{
			"writings": [
				{"id": 1, "title": "Hello World", "text": "# Hello\n\nFirst **post**.", "author": "alice"},
				{"id": 2, "title": "Orphan", "text": "no author"}
			],
			"user_info": false
		}`)
	case strings.HasPrefix(r.URL.EscapedPath(), "/search/"):
		text, _ := url.PathUnescape(strings.TrimPrefix(r.URL.EscapedPath(), "/search/"))
		if strings.Contains(text, "/") {
			// The backend decodes %2F before routing, so its search route never matches.
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"message":"not found"}`)
			return
		}
		w.WriteHeader(http.StatusCreated)
		if text != "poem" {
			_, _ = io.WriteString(w, `{"writings": [], "users": []}`)
			return
		}
		_, _ = io.WriteString(w, `{
			"writings": [{"id": 3, "title": "A poem", "text": "roses are red", "author": "bob"}],
			"users": [{"id": 9, "username": "poet"}]
		}`)
	case r.URL.EscapedPath() == "/users/alice":
		_, _ = io.WriteString(w, `{
			"id": 1,
			"username": "alice",
			"desc": "writes <b>things</b>",
			"writings": [
				{"id": 42, "title": "Answer", "text": "Use `+"`go test`"+`.\n\n`+"```go\\nfmt.Println(42)\\n```"+`"}
			]
		}`)
	case r.URL.EscapedPath() == "/publish" && r.Method == http.MethodPost:
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		f.mu.Lock()
		f.published = append(f.published, payload)
		f.mu.Unlock()

		if payload["title"] == "reject" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"message":"title taken"}`)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id": 7, "title": "t", "text": "b"}`)
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message":"not found"}`)
	}
}

func newTestHandler(t *testing.T) (http.Handler, *fakeBackend) {
	t.Helper()

	backend := &fakeBackend{}
	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)

	client, err := api.New(server.URL)
	if err != nil {
		t.Fatalf("new api client: %v", err)
	}

	cfg := config.Default()
	cfg.APIOrigin = server.URL
	cfg.StaticDir = "static"

	handler, err := NewHandler(cfg, writings.NewService(client))
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return handler, backend
}

func requireBody(t *testing.T, body io.Reader) string {
	t.Helper()

	content, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(content)
}

func performRequest(handler http.Handler, method string, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func postForm(handler http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandlerPageRoutesRenderHTML(t *testing.T) {
	t.Parallel()
	handler, _ := newTestHandler(t)

	cases := []struct {
		path        string
		mustContain []string
	}{
		{path: "/", mustContain: []string{
			"<title>Writings :: writings</title>",
			`<a href="/users/alice/1">Hello World</a>`,
			"<h3>Orphan</h3>",
			"Hello First post.",
		}},
		{path: "/?q=poem", mustContain: []string{
			`<div id="search-results">`,
			`<a href="/users/poet">@poet</a>`,
			`<a href="/users/bob/3">A poem</a>`,
		}},
		{path: "/?q=nothing", mustContain: []string{"No writings or people match"}},
		{path: "/login", mustContain: []string{"<title>Log in :: writings</title>", "<fieldset disabled>", "Accounts are managed by the writings backend"}},
		{path: "/register", mustContain: []string{"<title>Register :: writings</title>", `name="username"`}},
		{path: "/users/alice", mustContain: []string{
			"<h1>@alice</h1>",
			"writes &lt;b&gt;things&lt;/b&gt;",
			`<a href="/users/alice/42">Answer</a>`,
		}},
		{path: "/users/alice/", mustContain: []string{"<h1>@alice</h1>"}},
		{path: "/users/alice/42", mustContain: []string{
			"<title>Answer :: writings</title>",
			`<code class="inline-code">go test</code>`,
			`class="chroma"`,
		}},
		{path: "/publish", mustContain: []string{`<form action="/publish" method="post">`}},
	}

	for _, tc := range cases {
		rec := performRequest(handler, http.MethodGet, tc.path)

		if rec.Code != http.StatusOK {
			t.Fatalf("%s status: expected %d, got %d", tc.path, http.StatusOK, rec.Code)
		}
		if contentType := rec.Header().Get("Content-Type"); !strings.Contains(contentType, "text/html") {
			t.Fatalf("%s content-type: expected html, got %q", tc.path, contentType)
		}

		body := requireBody(t, rec.Body)
		for _, want := range tc.mustContain {
			if !strings.Contains(body, want) {
				t.Fatalf("%s body missing %q", tc.path, want)
			}
		}
		if strings.Contains(body, "event: datastar-patch-elements") {
			t.Fatalf("%s should not include live SSE patch payload", tc.path)
		}
	}
}

func TestHandlerLiveSearchReturnsPatch(t *testing.T) {
	t.Parallel()
	handler, _ := newTestHandler(t)

	signals := url.QueryEscape(`{"q":"poem"}`)
	rec := performRequest(handler, http.MethodGet, "/search/live?datastar="+signals)
	if rec.Code != http.StatusOK {
		t.Fatalf("live status: expected %d, got %d", http.StatusOK, rec.Code)
	}

	body := requireBody(t, rec.Body)
	if !strings.Contains(body, "event: datastar-patch-elements") {
		t.Fatalf("live search missing datastar patch event: %s", body)
	}
	if !strings.Contains(body, "data: selector #search-results") {
		t.Fatalf("live search missing selector: %s", body)
	}
	if !strings.Contains(body, "@poet") {
		t.Fatalf("live search missing results: %s", body)
	}

	recBad := performRequest(handler, http.MethodGet, "/search/live?datastar=%7Bnot-json")
	if recBad.Code != http.StatusBadRequest {
		t.Fatalf("bad live state: expected %d, got %d", http.StatusBadRequest, recBad.Code)
	}
}

func TestHandlerSearchFailureKeepsHome(t *testing.T) {
	t.Parallel()
	handler, _ := newTestHandler(t)

	rec := performRequest(handler, http.MethodGet, "/?q=a%2Fb")
	if rec.Code != http.StatusOK {
		t.Fatalf("home status: expected %d, got %d", http.StatusOK, rec.Code)
	}
	body := requireBody(t, rec.Body)
	for _, want := range []string{"<title>Writings :: writings</title>", "No writings or people match “a/b”", "Hello World"} {
		if !strings.Contains(body, want) {
			t.Fatalf("home body missing %q: %s", want, body)
		}
	}

	recLive := performRequest(handler, http.MethodGet, "/search/live?q=a%2Fb")
	if recLive.Code != http.StatusOK {
		t.Fatalf("live status: expected %d, got %d", http.StatusOK, recLive.Code)
	}
	if contentType := recLive.Header().Get("Content-Type"); !strings.Contains(contentType, "text/event-stream") {
		t.Fatalf("live content-type: expected event stream, got %q", contentType)
	}
	liveBody := requireBody(t, recLive.Body)
	if !strings.Contains(liveBody, "data: selector #search-results") || !strings.Contains(liveBody, "No writings or people match") {
		t.Fatalf("live search should patch an empty result set, got %s", liveBody)
	}
}

func TestHandlerRejectsUnsupportedMethods(t *testing.T) {
	t.Parallel()
	handler, _ := newTestHandler(t)

	for _, tc := range []struct {
		method string
		path   string
		allow  string
	}{
		{method: http.MethodDelete, path: "/login", allow: "GET, HEAD"},
		{method: http.MethodPost, path: "/users/alice", allow: "GET, HEAD"},
		{method: http.MethodPut, path: "/publish", allow: "GET, HEAD, POST"},
	} {
		rec := performRequest(handler, tc.method, tc.path)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s %s: expected %d, got %d", tc.method, tc.path, http.StatusMethodNotAllowed, rec.Code)
		}
		if allow := rec.Header().Get("Allow"); allow != tc.allow {
			t.Fatalf("%s %s: expected Allow %q, got %q", tc.method, tc.path, tc.allow, allow)
		}
	}
}

func TestHandlerPublishForm(t *testing.T) {
	t.Parallel()
	handler, backend := newTestHandler(t)

	rec := postForm(handler, "/publish", url.Values{"title": {"My title"}, "text": {"Body"}, "author": {"alice"}})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("publish status: expected %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if location := rec.Header().Get("Location"); location != "/" {
		t.Fatalf("publish redirect: expected /, got %q", location)
	}

	rejected := postForm(handler, "/publish", url.Values{"title": {"reject"}, "text": {"Body"}})
	if rejected.Code != http.StatusBadGateway {
		t.Fatalf("rejected status: expected %d, got %d", http.StatusBadGateway, rejected.Code)
	}
	body := requireBody(t, rejected.Body)
	if !strings.Contains(body, "title taken") || !strings.Contains(body, `value="reject"`) {
		t.Fatalf("rejected publish should re-render the form with the error, got %s", body)
	}

	backend.mu.Lock()
	defer backend.mu.Unlock()
	if len(backend.published) != 2 {
		t.Fatalf("expected 2 publish requests, got %d", len(backend.published))
	}
	if backend.published[0]["title"] != "My title" || backend.published[0]["author"] != "alice" {
		t.Fatalf("unexpected publish payload %v", backend.published[0])
	}
}

func TestHandlerNotFoundAndHealth(t *testing.T) {
	t.Parallel()
	handler, _ := newTestHandler(t)

	recHealth := performRequest(handler, http.MethodGet, "/healthz")
	if recHealth.Code != http.StatusOK {
		t.Fatalf("healthz status: expected %d, got %d", http.StatusOK, recHealth.Code)
	}
	if body := strings.TrimSpace(requireBody(t, recHealth.Body)); body != "ok" {
		t.Fatalf("healthz body: expected %q, got %q", "ok", body)
	}

	for _, path := range []string{"/users/ghost", "/users/alice/999", "/nowhere/at/all/here"} {
		rec := performRequest(handler, http.MethodGet, path)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s status: expected %d, got %d", path, http.StatusNotFound, rec.Code)
		}
		body := requireBody(t, rec.Body)
		if !strings.Contains(body, "<title>404 Not Found :: writings</title>") {
			t.Fatalf("%s should render the not-found page, got %s", path, body)
		}
	}
}

func TestHandlerServesStaticAssets(t *testing.T) {
	t.Parallel()
	handler, _ := newTestHandler(t)

	rec := performRequest(handler, http.MethodGet, "/static/site.css")
	if rec.Code != http.StatusOK {
		t.Fatalf("static status: expected %d, got %d", http.StatusOK, rec.Code)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected request id header from logging middleware")
	}
}

func TestRoutesDeclaredOrder(t *testing.T) {
	routes, err := Routes()
	if err != nil {
		t.Fatalf("routes: %v", err)
	}

	want := []string{"home", "login", "user", "writing", "register", "publish"}
	got := routes.Routes()
	if len(got) != len(want) {
		t.Fatalf("expected %d routes, got %d", len(want), len(got))
	}
	for idx, name := range want {
		if got[idx].Name != name {
			t.Fatalf("route %d: expected %q, got %q", idx, name, got[idx].Name)
		}
	}

	state := routes.Resolve("/users/nina/7")
	if state.Route.Name != "writing" {
		t.Fatalf("expected writing route, got %q", state.Route.Name)
	}
	if id, _ := state.Param("id"); id != "7" {
		t.Fatalf("expected id 7, got %q", id)
	}
}
