package httpserver

import (
	"fmt"
	"net/http"
	"strings"

	"writings/framework"
	"writings/framework/engine"
	"writings/framework/router"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"
	"go.uber.org/zap"
)

const defaultCacheControlPolicy = "no-cache"
const defaultHealthPath = "/healthz"
const defaultHealthBody = "ok"
const defaultStaticPrefix = "/static/"
const partialRequestHeader = "Datastar-Request"

type StaticMount struct {
	URLPrefix string
	Dir       string
}

type CachePolicies struct {
	HTML   string
	Live   string
	Static string
	Health string
	Error  string
}

func DefaultCachePolicies() CachePolicies {
	return CachePolicies{
		HTML:   defaultCacheControlPolicy,
		Live:   "no-store",
		Static: "public, max-age=3600",
		Health: "no-store",
		Error:  "no-store",
	}
}

type Config[C interface{}] struct {
	AppContext C
	Routes     *router.Table
	Handlers   []framework.RouteHandler[C]

	Static StaticMount

	CachePolicies CachePolicies

	IsNotFoundError func(err error) bool
	NotFoundPage    func(notFoundContext framework.NotFoundContext) templ.Component

	// Middleware wraps the whole handler, first entry outermost.
	Middleware []func(http.Handler) http.Handler
	Logger     *zap.Logger

	HealthPath string
	HealthBody string
}

type server[C interface{}] struct {
	cachePolicies CachePolicies
	notFoundPage  func(notFoundContext framework.NotFoundContext) templ.Component
	log           *zap.Logger
	healthPath    string
	healthBody    string

	routeEngine *engine.Engine[C]
}

func New[C interface{}](cfg Config[C]) (http.Handler, error) {
	cachePolicies := withDefaultPolicies(cfg.CachePolicies)
	healthPath := normalizeHealthPath(cfg.HealthPath)
	healthBody := strings.TrimSpace(cfg.HealthBody)
	if healthBody == "" {
		healthBody = defaultHealthBody
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	srv := &server[C]{
		cachePolicies: cachePolicies,
		notFoundPage:  cfg.NotFoundPage,
		log:           log,
		healthPath:    healthPath,
		healthBody:    healthBody,
	}

	routeEngine, err := engine.New(engine.Config[C]{
		AppContext:             cfg.AppContext,
		Routes:                 cfg.Routes,
		Handlers:               cfg.Handlers,
		IsPartialRequest:       isPartialRequest,
		RenderPage:             srv.renderPage,
		PatchLive:              srv.patchLive,
		Redirect:               srv.redirect,
		IsNotFoundError:        cfg.IsNotFoundError,
		HandleNotFound:         srv.handleNotFound,
		HandleBadRequest:       srv.handleBadRequest,
		HandleMethodNotAllowed: srv.handleMethodNotAllowed,
		HandleServerError:      srv.handleServerError,
	})
	if err != nil {
		return nil, fmt.Errorf("create route engine: %w", err)
	}
	srv.routeEngine = routeEngine

	mux := http.NewServeMux()
	if strings.TrimSpace(cfg.Static.Dir) != "" {
		prefix := normalizeStaticPrefix(cfg.Static.URLPrefix)
		fs := http.FileServer(http.Dir(cfg.Static.Dir))
		mux.Handle(prefix, withCachePolicy(cachePolicies.Static, http.StripPrefix(prefix, fs)))
	}
	mux.HandleFunc("/", srv.handleRoute)

	var handler http.Handler = mux
	for idx := len(cfg.Middleware) - 1; idx >= 0; idx-- {
		handler = cfg.Middleware[idx](handler)
	}
	return handler, nil
}

func (s *server[C]) handleRoute(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == s.healthPath {
		s.handleHealth(w)
		return
	}

	if s.routeEngine.ServeRoute(w, r) {
		return
	}

	s.handleNotFound(w, r, framework.NotFoundContext{
		RequestPath: r.URL.Path,
		Source:      framework.NotFoundSourceUnmatchedRoute,
	})
}

func isPartialRequest(r *http.Request) bool {
	return strings.EqualFold(strings.TrimSpace(r.Header.Get(partialRequestHeader)), "true")
}

func (s *server[C]) renderPage(
	r *http.Request,
	w http.ResponseWriter,
	component templ.Component,
	statusCode int,
) error {
	policy := s.cachePolicies.HTML
	if isPartialRequest(r) {
		policy = s.cachePolicies.Live
	}
	return s.renderPageWithStatus(r, w, component, statusCode, policy)
}

func (s *server[C]) renderPageWithStatus(
	r *http.Request,
	w http.ResponseWriter,
	component templ.Component,
	statusCode int,
	cachePolicy string,
) error {
	setCachePolicy(w, cachePolicy)
	w.Header().Add("Vary", partialRequestHeader)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if statusCode > 0 {
		w.WriteHeader(statusCode)
	}
	return component.Render(r.Context(), w)
}

func (s *server[C]) patchLive(
	w http.ResponseWriter,
	r *http.Request,
	selectorID string,
	component templ.Component,
) error {
	setCachePolicy(w, s.cachePolicies.Live)
	sse := datastar.NewSSE(w, r)
	return sse.PatchElementTempl(component, datastar.WithSelectorID(selectorID))
}

func (s *server[C]) redirect(w http.ResponseWriter, r *http.Request, target string) {
	setCachePolicy(w, s.cachePolicies.Error)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *server[C]) handleNotFound(
	w http.ResponseWriter,
	r *http.Request,
	notFoundContext framework.NotFoundContext,
) {
	if s.notFoundPage == nil {
		setCachePolicy(w, s.cachePolicies.Error)
		http.NotFound(w, r)
		return
	}

	component := s.notFoundPage(notFoundContext)
	if component == nil {
		setCachePolicy(w, s.cachePolicies.Error)
		http.NotFound(w, r)
		return
	}
	if err := s.renderPageWithStatus(r, w, component, http.StatusNotFound, s.cachePolicies.Error); err != nil {
		s.handleServerError(w, fmt.Errorf("render not found page: %w", err))
	}
}

func (s *server[C]) handleBadRequest(w http.ResponseWriter, message string) {
	setCachePolicy(w, s.cachePolicies.Error)
	http.Error(w, message, http.StatusBadRequest)
}

func (s *server[C]) handleMethodNotAllowed(w http.ResponseWriter, allowed []string) {
	setCachePolicy(w, s.cachePolicies.Error)
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}

func (s *server[C]) handleServerError(w http.ResponseWriter, err error) {
	setCachePolicy(w, s.cachePolicies.Error)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	s.log.Error("server error", zap.Error(err))
}

func (s *server[C]) handleHealth(w http.ResponseWriter) {
	setCachePolicy(w, s.cachePolicies.Health)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(s.healthBody))
}

func normalizeStaticPrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return defaultStaticPrefix
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix
}

func normalizeHealthPath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return defaultHealthPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

func withDefaultPolicies(policies CachePolicies) CachePolicies {
	defaults := DefaultCachePolicies()
	if strings.TrimSpace(policies.HTML) == "" {
		policies.HTML = defaults.HTML
	}
	if strings.TrimSpace(policies.Live) == "" {
		policies.Live = defaults.Live
	}
	if strings.TrimSpace(policies.Static) == "" {
		policies.Static = defaults.Static
	}
	if strings.TrimSpace(policies.Health) == "" {
		policies.Health = defaults.Health
	}
	if strings.TrimSpace(policies.Error) == "" {
		policies.Error = defaults.Error
	}
	return policies
}

func setCachePolicy(w http.ResponseWriter, policy string) {
	policy = strings.TrimSpace(policy)
	if policy == "" {
		return
	}
	w.Header().Set("Cache-Control", policy)
}

func withCachePolicy(policy string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCachePolicy(w, policy)
		next.ServeHTTP(w, r)
	})
}
