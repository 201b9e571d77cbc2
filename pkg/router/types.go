package router

import (
	"context"
	"errors"

	"github.com/vango-dev/wayfinder/pkg/history"
)

// Sentinel errors returned by the router.
var (
	// ErrNotFound is returned by Dispatch when no route matches and no
	// NotFound handler is configured.
	ErrNotFound = errors.New("not found")

	// ErrInvalidPattern wraps pattern validation failures at registration.
	ErrInvalidPattern = errors.New("invalid route pattern")

	// ErrNoNavigator is reported by navigation helpers when neither the
	// router nor the context supplies a Navigator.
	ErrNoNavigator = errors.New("no navigator available")
)

// Handler renders a matched route. The returned value is opaque to the
// router; a UI layer decides what to do with it.
type Handler interface {
	Handle(ctx context.Context, props Props) (any, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, props Props) (any, error)

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, props Props) (any, error) {
	return f(ctx, props)
}

// Navigator issues navigations. *history.Coordinator implements it.
type Navigator interface {
	Navigate(ctx context.Context, to string, opts ...history.NavigateOption) *history.Handle
}

// Route pairs a path pattern with its handler.
type Route struct {
	// Path is the pattern: "/users/:id", "files/*", "." for the base itself.
	Path string

	// Name is an optional label used by tooling.
	Name string

	Handler Handler
}

// Routes is an ordered route table. Order only matters as the final
// tie-break between equally ranked patterns.
type Routes []Route

// NewRoutes returns an empty route table.
func NewRoutes() Routes {
	return nil
}

// Add appends a route.
func (r Routes) Add(path string, h Handler) Routes {
	return append(r, Route{Path: path, Handler: h})
}

// AddFunc appends a route backed by fn.
func (r Routes) AddFunc(path string, fn HandlerFunc) Routes {
	return r.Add(path, fn)
}

// Named appends a route with a name.
func (r Routes) Named(name, path string, h Handler) Routes {
	return append(r, Route{Path: path, Name: name, Handler: h})
}

// Match is the result of matching a pathname against a route table.
type Match struct {
	// Route is the winning route. Inside a Router its Path is absolute.
	Route Route

	// Params holds the raw token text for every dynamic segment and splat,
	// keyed by name. Splats use their name, or "*" for a bare star.
	Params map[string]string

	// URI is the concrete part of the pathname the pattern consumed. For a
	// splat pattern it includes the captured remainder.
	URI string
}

// Props is what a Handler receives.
type Props struct {
	// Params are the raw match params.
	Params map[string]string

	// URI is the matched URI; relative navigation resolves against it.
	URI string

	// Location is the location being dispatched.
	Location history.Location

	// Match is the full match, or nil when the NotFound handler runs.
	Match *Match

	// Navigate resolves to against URI and navigates.
	Navigate func(to string, opts ...history.NavigateOption) *history.Handle
}

// Redirect returns a redirect signal for to, resolved against the
// matched URI. Handlers return it as their error.
func (p Props) Redirect(to string) error {
	return RedirectTo(resolveAgainst(to, p.URI))
}
