package router

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
	"sync/atomic"
)

const paramPrefix = ":"

var paramNamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// NotFound is the terminal entry resolved when no declared route matches.
var NotFound = Route{Name: "not-found", View: "not-found"}

var ErrUnknownRoute = errors.New("unknown route")

// Route maps a path pattern such as /users/:username to a named view.
type Route struct {
	Name    string
	Pattern string
	View    string
}

type segment struct {
	name    string
	isParam bool
}

type compiledRoute struct {
	route      Route
	segments   []segment
	patternKey string
}

// State is the resolved route for one path plus its bound parameters.
// A new State is produced on every navigation.
type State struct {
	Route  Route
	Params map[string]string
	Path   string
}

func (s State) Found() bool {
	return s.Route.Name != NotFound.Name
}

func (s State) Param(name string) (string, bool) {
	if s.Params == nil {
		return "", false
	}

	value, ok := s.Params[name]
	return value, ok
}

// Table is an ordered route list. Resolve returns the first declared entry
// whose pattern matches.
type Table struct {
	routes []compiledRoute
	byName map[string]int
}

func New(routes ...Route) (*Table, error) {
	if len(routes) == 0 {
		return nil, errors.New("route table cannot be empty")
	}

	table := &Table{
		routes: make([]compiledRoute, 0, len(routes)),
		byName: make(map[string]int, len(routes)),
	}
	seenPattern := make(map[string]string, len(routes))

	for _, route := range routes {
		route.Name = strings.TrimSpace(route.Name)
		if route.Name == "" {
			return nil, fmt.Errorf("route %q has no name", route.Pattern)
		}
		if route.Name == NotFound.Name {
			return nil, fmt.Errorf("route name %q is reserved", route.Name)
		}
		if _, ok := table.byName[route.Name]; ok {
			return nil, fmt.Errorf("duplicate route name %q", route.Name)
		}

		compiled, err := compile(route)
		if err != nil {
			return nil, err
		}
		if existing, ok := seenPattern[compiled.patternKey]; ok {
			return nil, fmt.Errorf("route pattern conflict: %q and %q", existing, route.Name)
		}
		seenPattern[compiled.patternKey] = route.Name

		table.byName[route.Name] = len(table.routes)
		table.routes = append(table.routes, compiled)
	}

	return table, nil
}

func compile(route Route) (compiledRoute, error) {
	pattern := strings.TrimSpace(route.Pattern)
	if !strings.HasPrefix(pattern, "/") {
		return compiledRoute{}, fmt.Errorf("route %q: pattern %q must start with /", route.Name, route.Pattern)
	}

	parts := splitPathSegments(pattern)
	segments := make([]segment, 0, len(parts))
	keyParts := make([]string, 0, len(parts))
	seenParams := make(map[string]struct{}, 2)

	for _, part := range parts {
		name, isParam, err := parseSegment(part)
		if err != nil {
			return compiledRoute{}, fmt.Errorf("route %q: %w", route.Name, err)
		}
		if !isParam {
			segments = append(segments, segment{name: part})
			keyParts = append(keyParts, part)
			continue
		}

		if _, ok := seenParams[name]; ok {
			return compiledRoute{}, fmt.Errorf("route %q: duplicate parameter %q", route.Name, name)
		}
		seenParams[name] = struct{}{}
		segments = append(segments, segment{name: name, isParam: true})
		keyParts = append(keyParts, paramPrefix)
	}

	route.Pattern = "/" + strings.Join(parts, "/")
	return compiledRoute{
		route:      route,
		segments:   segments,
		patternKey: "/" + strings.Join(keyParts, "/"),
	}, nil
}

func parseSegment(part string) (string, bool, error) {
	if !strings.HasPrefix(part, paramPrefix) {
		if strings.Contains(part, paramPrefix) {
			return "", false, fmt.Errorf("invalid static segment %q", part)
		}
		return "", false, nil
	}

	name := strings.TrimPrefix(part, paramPrefix)
	if !paramNamePattern.MatchString(name) {
		return "", false, fmt.Errorf("invalid parameter name %q", name)
	}
	return name, true, nil
}

func (t *Table) Resolve(requestPath string) State {
	requestSegments := splitPathSegments(requestPath)
	cleaned := "/" + strings.Join(requestSegments, "/")

	for _, compiled := range t.routes {
		params, ok := matchSegments(compiled.segments, requestSegments)
		if !ok {
			continue
		}
		return State{Route: compiled.route, Params: params, Path: cleaned}
	}

	return State{Route: NotFound, Path: cleaned}
}

// ResolveURL resolves the escaped path of u, decoding each segment after
// splitting so an encoded slash stays inside its parameter.
func (t *Table) ResolveURL(u *url.URL) State {
	escaped := splitPathSegments(u.EscapedPath())
	requestSegments := make([]string, 0, len(escaped))
	for _, part := range escaped {
		decoded, err := url.PathUnescape(part)
		if err != nil {
			return State{Route: NotFound, Path: u.Path}
		}
		requestSegments = append(requestSegments, decoded)
	}

	for _, compiled := range t.routes {
		params, ok := matchSegments(compiled.segments, requestSegments)
		if !ok {
			continue
		}
		return State{Route: compiled.route, Params: params, Path: "/" + strings.Join(escaped, "/")}
	}

	return State{Route: NotFound, Path: "/" + strings.Join(escaped, "/")}
}

func (t *Table) Lookup(name string) (Route, bool) {
	idx, ok := t.byName[name]
	if !ok {
		return Route{}, false
	}
	return t.routes[idx].route, true
}

// Routes returns the entries in declared order.
func (t *Table) Routes() []Route {
	out := make([]Route, 0, len(t.routes))
	for _, compiled := range t.routes {
		out = append(out, compiled.route)
	}
	return out
}

// Path builds the URL path for a named route. Parameter values are
// percent-encoded as single path segments.
func (t *Table) Path(name string, params map[string]string) (string, error) {
	idx, ok := t.byName[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRoute, name)
	}

	compiled := t.routes[idx]
	if len(compiled.segments) == 0 {
		return "/", nil
	}

	parts := make([]string, 0, len(compiled.segments))
	for _, seg := range compiled.segments {
		if !seg.isParam {
			parts = append(parts, seg.name)
			continue
		}

		value := params[seg.name]
		if value == "" {
			return "", fmt.Errorf("route %q: missing parameter %q", name, seg.name)
		}
		parts = append(parts, escapeSegment(value))
	}

	return "/" + strings.Join(parts, "/"), nil
}

// escapeSegment encodes dot segments as well, so path cleaning cannot fold
// a parameter value into its parent.
func escapeSegment(value string) string {
	switch value {
	case ".":
		return "%2E"
	case "..":
		return "%2E%2E"
	}
	return url.PathEscape(value)
}

// MatchPathPattern matches a single pattern against a path and returns the
// bound parameters.
func MatchPathPattern(pattern string, requestPath string) (map[string]string, bool) {
	patternSegments := splitPathSegments(pattern)
	segments := make([]segment, 0, len(patternSegments))
	for _, part := range patternSegments {
		name, isParam, err := parseSegment(part)
		if err != nil {
			return nil, false
		}
		if isParam {
			segments = append(segments, segment{name: name, isParam: true})
			continue
		}
		segments = append(segments, segment{name: part})
	}

	params, ok := matchSegments(segments, splitPathSegments(requestPath))
	if !ok {
		return nil, false
	}
	if params == nil {
		params = map[string]string{}
	}
	return params, true
}

func matchSegments(segments []segment, requestSegments []string) (map[string]string, bool) {
	if len(segments) != len(requestSegments) {
		return nil, false
	}

	var params map[string]string
	for idx, seg := range segments {
		requestValue := requestSegments[idx]
		if !seg.isParam {
			if seg.name != requestValue {
				return nil, false
			}
			continue
		}

		if params == nil {
			params = make(map[string]string, 2)
		}
		params[seg.name] = requestValue
	}

	return params, true
}

func splitPathSegments(raw string) []string {
	cleaned := path.Clean("/" + strings.TrimSpace(raw))
	trimmed := strings.Trim(cleaned, "/")
	if trimmed == "" {
		return []string{}
	}

	return strings.Split(trimmed, "/")
}

// Navigator keeps the current navigation state for a table. Each navigation
// replaces the state; it is never modified in place.
type Navigator struct {
	table   *Table
	current atomic.Pointer[State]
}

func NewNavigator(table *Table, initialPath string) *Navigator {
	nav := &Navigator{table: table}
	nav.Navigate(initialPath)
	return nav
}

func (n *Navigator) Navigate(requestPath string) State {
	state := n.table.Resolve(requestPath)
	n.current.Store(&state)
	return state
}

func (n *Navigator) NavigateTo(name string, params map[string]string) (State, error) {
	target, err := n.table.Path(name, params)
	if err != nil {
		return State{}, err
	}

	compiled := n.table.routes[n.table.byName[name]]
	var bound map[string]string
	for _, seg := range compiled.segments {
		if !seg.isParam {
			continue
		}
		if bound == nil {
			bound = make(map[string]string, 2)
		}
		bound[seg.name] = params[seg.name]
	}

	state := State{Route: compiled.route, Params: bound, Path: target}
	n.current.Store(&state)
	return state, nil
}

func (n *Navigator) Current() State {
	return *n.current.Load()
}

type stateKey struct{}

func WithState(ctx context.Context, state State) context.Context {
	return context.WithValue(ctx, stateKey{}, state)
}

func StateFrom(ctx context.Context) (State, bool) {
	state, ok := ctx.Value(stateKey{}).(State)
	return state, ok
}
