package framework

import (
	"context"
	"fmt"
	"net/http"
	"slices"

	"writings/framework/router"

	"github.com/a-h/templ"
)

type PageLoader[C interface{}, VM interface{}] func(
	ctx context.Context,
	appCtx C,
	r *http.Request,
	state router.State,
) (VM, error)

type PageRenderer[VM interface{}] func(view VM) templ.Component

type LayoutRenderer[VM interface{}] func(view VM, child templ.Component) templ.Component

// PageModule renders the view bound to one named entry of the route table.
type PageModule[C interface{}, VM interface{}] struct {
	Route   string
	Load    PageLoader[C, VM]
	Render  PageRenderer[VM]
	Layouts []LayoutRenderer[VM]
}

type LiveStateParser[S interface{}] func(r *http.Request) (S, error)

type LiveLoader[C interface{}, S interface{}, VM interface{}] func(
	ctx context.Context,
	appCtx C,
	r *http.Request,
	params map[string]string,
	state S,
) (VM, error)

// LiveModule answers datastar requests on its own pattern by patching the
// element with SelectorID.
type LiveModule[C interface{}, S interface{}, VM interface{}] struct {
	Pattern           string
	ParseState        LiveStateParser[S]
	Load              LiveLoader[C, S, VM]
	Render            PageRenderer[VM]
	SelectorID        string
	BadRequestMessage string
}

// Submission is the outcome of a form post. A non-empty RedirectTo
// navigates the browser there; otherwise View is rendered with StatusCode.
type Submission[VM interface{}] struct {
	RedirectTo string
	View       VM
	StatusCode int
}

type FormSubmitter[C interface{}, VM interface{}] func(
	ctx context.Context,
	appCtx C,
	r *http.Request,
	state router.State,
) (Submission[VM], error)

type FormModule[C interface{}, VM interface{}] struct {
	Submit FormSubmitter[C, VM]
}

type RuntimeContext[C interface{}] interface {
	AppContext() C
	IsPartialRequest(r *http.Request) bool
	RenderPage(r *http.Request, w http.ResponseWriter, component templ.Component, statusCode int) error
	PatchLive(w http.ResponseWriter, r *http.Request, selectorID string, component templ.Component) error
	Redirect(w http.ResponseWriter, r *http.Request, target string)
	IsNotFound(err error) bool
	RespondNotFound(w http.ResponseWriter, r *http.Request, notFoundContext NotFoundContext)
	RespondBadRequest(w http.ResponseWriter, message string)
	RespondMethodNotAllowed(w http.ResponseWriter, allowed []string)
	RespondServerError(w http.ResponseWriter, err error)
}

var (
	readMethods = []string{http.MethodGet, http.MethodHead}
	formMethods = []string{http.MethodGet, http.MethodHead, http.MethodPost}
)

type NotFoundSource string

const (
	NotFoundSourcePageLoad       NotFoundSource = "page_load"
	NotFoundSourceLiveLoad       NotFoundSource = "live_load"
	NotFoundSourceUnmatchedRoute NotFoundSource = "unmatched_route"
)

type NotFoundContext struct {
	RequestPath      string
	MatchedRouteName string
	MatchedRoutePath string
	Source           NotFoundSource
}

// RouteHandler serves the route entry named by RouteName. Live requests are
// offered to every handler before the route table is consulted.
type RouteHandler[C interface{}] interface {
	RouteName() string
	TryServeLive(runtime RuntimeContext[C], w http.ResponseWriter, r *http.Request) bool
	ServePage(runtime RuntimeContext[C], w http.ResponseWriter, r *http.Request, state router.State)
}

type PageOnlyRouteHandler[C interface{}, VM interface{}] struct {
	Page PageModule[C, VM]
}

func (h PageOnlyRouteHandler[C, VM]) RouteName() string {
	return h.Page.Route
}

func (h PageOnlyRouteHandler[C, VM]) TryServeLive(RuntimeContext[C], http.ResponseWriter, *http.Request) bool {
	return false
}

func (h PageOnlyRouteHandler[C, VM]) ServePage(
	runtime RuntimeContext[C],
	w http.ResponseWriter,
	r *http.Request,
	state router.State,
) {
	if !slices.Contains(readMethods, r.Method) {
		runtime.RespondMethodNotAllowed(w, readMethods)
		return
	}
	servePageModule(runtime, w, r, state, h.Page)
}

type PageAndLiveRouteHandler[C interface{}, S interface{}, VM interface{}] struct {
	Page PageModule[C, VM]
	Live LiveModule[C, S, VM]
}

func (h PageAndLiveRouteHandler[C, S, VM]) RouteName() string {
	return h.Page.Route
}

func (h PageAndLiveRouteHandler[C, S, VM]) TryServeLive(
	runtime RuntimeContext[C],
	w http.ResponseWriter,
	r *http.Request,
) bool {
	return serveLiveModule(runtime, w, r, h.Live)
}

func (h PageAndLiveRouteHandler[C, S, VM]) ServePage(
	runtime RuntimeContext[C],
	w http.ResponseWriter,
	r *http.Request,
	state router.State,
) {
	if !slices.Contains(readMethods, r.Method) {
		runtime.RespondMethodNotAllowed(w, readMethods)
		return
	}
	servePageModule(runtime, w, r, state, h.Page)
}

// FormRouteHandler renders Page on reads and hands POST requests to Form.
// Other methods are answered with 405.
type FormRouteHandler[C interface{}, VM interface{}] struct {
	Page PageModule[C, VM]
	Form FormModule[C, VM]
}

func (h FormRouteHandler[C, VM]) RouteName() string {
	return h.Page.Route
}

func (h FormRouteHandler[C, VM]) TryServeLive(RuntimeContext[C], http.ResponseWriter, *http.Request) bool {
	return false
}

func (h FormRouteHandler[C, VM]) ServePage(
	runtime RuntimeContext[C],
	w http.ResponseWriter,
	r *http.Request,
	state router.State,
) {
	if slices.Contains(readMethods, r.Method) {
		servePageModule(runtime, w, r, state, h.Page)
		return
	}
	if r.Method != http.MethodPost || h.Form.Submit == nil {
		allowed := formMethods
		if h.Form.Submit == nil {
			allowed = readMethods
		}
		runtime.RespondMethodNotAllowed(w, allowed)
		return
	}

	submission, err := h.Form.Submit(r.Context(), runtime.AppContext(), r, state)
	if err != nil {
		handleLoadError(runtime, w, r, err, state, NotFoundSourcePageLoad)
		return
	}
	if submission.RedirectTo != "" {
		runtime.Redirect(w, r, submission.RedirectTo)
		return
	}

	renderPageView(runtime, w, r, h.Page, submission.View, submission.StatusCode)
}

func applyLayouts[VM interface{}](
	layouts []LayoutRenderer[VM],
	view VM,
	child templ.Component,
) templ.Component {
	wrapped := child
	for idx := len(layouts) - 1; idx >= 0; idx-- {
		wrapped = layouts[idx](view, wrapped)
	}
	return wrapped
}

func servePageModule[C interface{}, VM interface{}](
	runtime RuntimeContext[C],
	w http.ResponseWriter,
	r *http.Request,
	state router.State,
	module PageModule[C, VM],
) {
	view, err := module.Load(r.Context(), runtime.AppContext(), r, state)
	if err != nil {
		handleLoadError(runtime, w, r, err, state, NotFoundSourcePageLoad)
		return
	}

	renderPageView(runtime, w, r, module, view, 0)
}

func renderPageView[C interface{}, VM interface{}](
	runtime RuntimeContext[C],
	w http.ResponseWriter,
	r *http.Request,
	module PageModule[C, VM],
	view VM,
	statusCode int,
) {
	component := module.Render(view)
	if !runtime.IsPartialRequest(r) {
		component = applyLayouts(module.Layouts, view, component)
	}
	if err := runtime.RenderPage(r, w, component, statusCode); err != nil {
		runtime.RespondServerError(w, fmt.Errorf("render route %q: %w", module.Route, err))
	}
}

func serveLiveModule[C interface{}, S interface{}, VM interface{}](
	runtime RuntimeContext[C],
	w http.ResponseWriter,
	r *http.Request,
	module LiveModule[C, S, VM],
) bool {
	if module.Pattern == "" {
		return false
	}

	params, ok := router.MatchPathPattern(module.Pattern, r.URL.Path)
	if !ok {
		return false
	}

	state, err := module.ParseState(r)
	if err != nil {
		message := module.BadRequestMessage
		if message == "" {
			message = "invalid live state"
		}
		runtime.RespondBadRequest(w, message)
		return true
	}

	view, err := module.Load(r.Context(), runtime.AppContext(), r, params, state)
	if err != nil {
		handleLoadError(runtime, w, r, err, router.State{Route: router.Route{Pattern: module.Pattern}}, NotFoundSourceLiveLoad)
		return true
	}

	if err := runtime.PatchLive(w, r, module.SelectorID, module.Render(view)); err != nil {
		runtime.RespondServerError(w, fmt.Errorf("patch live %q: %w", module.Pattern, err))
	}
	return true
}

func handleLoadError[C interface{}](
	runtime RuntimeContext[C],
	w http.ResponseWriter,
	r *http.Request,
	err error,
	state router.State,
	source NotFoundSource,
) {
	if runtime.IsNotFound(err) {
		runtime.RespondNotFound(w, r, NotFoundContext{
			RequestPath:      r.URL.Path,
			MatchedRouteName: state.Route.Name,
			MatchedRoutePath: state.Route.Pattern,
			Source:           source,
		})
		return
	}

	name := state.Route.Name
	if name == "" {
		name = state.Route.Pattern
	}
	runtime.RespondServerError(w, fmt.Errorf("load route %q: %w", name, err))
}
