package engine

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"writings/framework"
	"writings/framework/router"

	"github.com/a-h/templ"
)

type Config[C interface{}] struct {
	AppContext C
	Routes     *router.Table
	Handlers   []framework.RouteHandler[C]

	IsPartialRequest func(r *http.Request) bool
	RenderPage       func(r *http.Request, w http.ResponseWriter, component templ.Component, statusCode int) error
	PatchLive        func(w http.ResponseWriter, r *http.Request, selectorID string, component templ.Component) error
	Redirect         func(w http.ResponseWriter, r *http.Request, target string)

	IsNotFoundError        func(err error) bool
	HandleNotFound         func(w http.ResponseWriter, r *http.Request, notFoundContext framework.NotFoundContext)
	HandleBadRequest       func(w http.ResponseWriter, message string)
	HandleMethodNotAllowed func(w http.ResponseWriter, allowed []string)
	HandleServerError      func(w http.ResponseWriter, err error)
}

type Engine[C interface{}] struct {
	appContext C
	routes     *router.Table
	handlers   []framework.RouteHandler[C]
	byRoute    map[string]framework.RouteHandler[C]

	isPartial  func(r *http.Request) bool
	renderPage func(r *http.Request, w http.ResponseWriter, component templ.Component, statusCode int) error
	patchLive  func(w http.ResponseWriter, r *http.Request, selectorID string, component templ.Component) error
	redirect   func(w http.ResponseWriter, r *http.Request, target string)

	isNotFound       func(err error) bool
	notFound         func(w http.ResponseWriter, r *http.Request, notFoundContext framework.NotFoundContext)
	badRequest       func(w http.ResponseWriter, message string)
	methodNotAllowed func(w http.ResponseWriter, allowed []string)
	serverError      func(w http.ResponseWriter, err error)
}

func New[C interface{}](cfg Config[C]) (*Engine[C], error) {
	if cfg.Routes == nil {
		return nil, errors.New("route table is required")
	}
	if cfg.RenderPage == nil {
		return nil, errors.New("render page callback is required")
	}

	byRoute := make(map[string]framework.RouteHandler[C], len(cfg.Handlers))
	for _, handler := range cfg.Handlers {
		name := handler.RouteName()
		if _, ok := cfg.Routes.Lookup(name); !ok {
			return nil, fmt.Errorf("handler bound to unknown route %q", name)
		}
		if _, ok := byRoute[name]; ok {
			return nil, fmt.Errorf("route %q has more than one handler", name)
		}
		byRoute[name] = handler
	}

	isPartial := cfg.IsPartialRequest
	if isPartial == nil {
		isPartial = func(*http.Request) bool { return false }
	}

	patchLive := cfg.PatchLive
	if patchLive == nil {
		patchLive = func(http.ResponseWriter, *http.Request, string, templ.Component) error {
			return errors.New("live patching is not configured")
		}
	}

	redirect := cfg.Redirect
	if redirect == nil {
		redirect = func(w http.ResponseWriter, r *http.Request, target string) {
			http.Redirect(w, r, target, http.StatusSeeOther)
		}
	}

	isNotFound := cfg.IsNotFoundError
	if isNotFound == nil {
		isNotFound = func(error) bool { return false }
	}

	notFound := cfg.HandleNotFound
	if notFound == nil {
		notFound = func(w http.ResponseWriter, r *http.Request, _ framework.NotFoundContext) {
			http.NotFound(w, r)
		}
	}

	badRequest := cfg.HandleBadRequest
	if badRequest == nil {
		badRequest = func(w http.ResponseWriter, message string) {
			http.Error(w, message, http.StatusBadRequest)
		}
	}

	methodNotAllowed := cfg.HandleMethodNotAllowed
	if methodNotAllowed == nil {
		methodNotAllowed = func(w http.ResponseWriter, allowed []string) {
			w.Header().Set("Allow", strings.Join(allowed, ", "))
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		}
	}

	serverError := cfg.HandleServerError
	if serverError == nil {
		serverError = func(w http.ResponseWriter, _ error) {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}

	return &Engine[C]{
		appContext:       cfg.AppContext,
		routes:           cfg.Routes,
		handlers:         cfg.Handlers,
		byRoute:          byRoute,
		isPartial:        isPartial,
		renderPage:       cfg.RenderPage,
		patchLive:        patchLive,
		redirect:         redirect,
		isNotFound:       isNotFound,
		notFound:         notFound,
		badRequest:       badRequest,
		methodNotAllowed: methodNotAllowed,
		serverError:      serverError,
	}, nil
}

// ServeRoute serves r if a live module or a bound table entry claims it.
// It reports false for paths that resolve to the not-found entry.
func (engine *Engine[C]) ServeRoute(w http.ResponseWriter, r *http.Request) bool {
	for _, handler := range engine.handlers {
		if handler.TryServeLive(engine, w, r) {
			return true
		}
	}

	state := engine.routes.ResolveURL(r.URL)
	if !state.Found() {
		return false
	}

	handler, ok := engine.byRoute[state.Route.Name]
	if !ok {
		return false
	}

	r = r.WithContext(router.WithState(r.Context(), state))
	handler.ServePage(engine, w, r, state)
	return true
}

func (engine *Engine[C]) Routes() *router.Table {
	return engine.routes
}

func (engine *Engine[C]) AppContext() C {
	return engine.appContext
}

func (engine *Engine[C]) IsPartialRequest(r *http.Request) bool {
	return engine.isPartial(r)
}

func (engine *Engine[C]) RenderPage(
	r *http.Request,
	w http.ResponseWriter,
	component templ.Component,
	statusCode int,
) error {
	return engine.renderPage(r, w, component, statusCode)
}

func (engine *Engine[C]) PatchLive(
	w http.ResponseWriter,
	r *http.Request,
	selectorID string,
	component templ.Component,
) error {
	return engine.patchLive(w, r, selectorID, component)
}

func (engine *Engine[C]) Redirect(w http.ResponseWriter, r *http.Request, target string) {
	engine.redirect(w, r, target)
}

func (engine *Engine[C]) IsNotFound(err error) bool {
	return engine.isNotFound(err)
}

func (engine *Engine[C]) RespondNotFound(
	w http.ResponseWriter,
	r *http.Request,
	notFoundContext framework.NotFoundContext,
) {
	engine.notFound(w, r, notFoundContext)
}

func (engine *Engine[C]) RespondBadRequest(w http.ResponseWriter, message string) {
	engine.badRequest(w, message)
}

func (engine *Engine[C]) RespondMethodNotAllowed(w http.ResponseWriter, allowed []string) {
	engine.methodNotAllowed(w, allowed)
}

func (engine *Engine[C]) RespondServerError(w http.ResponseWriter, err error) {
	engine.serverError(w, err)
}
