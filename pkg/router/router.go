package router

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vango-dev/wayfinder/pkg/history"
	"github.com/vango-dev/wayfinder/pkg/routepath"
)

// Router dispatches locations to the handlers of a route table.
//
// Patterns are relative to the router's base. A top-level router's base is
// "/"; a router dispatched from inside another router's handler is mounted
// under the parent match, so "edit" under "/users/:id/*" matches
// "/users/7/edit" and sees the parent's id param.
type Router struct {
	routes     Routes
	middleware []Middleware
	notFound   Handler
	navigator  Navigator
	logger     *slog.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithNotFound sets the handler run when nothing matches.
func WithNotFound(h Handler) Option {
	return func(r *Router) {
		r.notFound = h
	}
}

// WithNavigator sets the navigator behind Props.Navigate. Without one the
// router uses the coordinator in the dispatch context.
func WithNavigator(n Navigator) Option {
	return func(r *Router) {
		r.navigator = n
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// WithMiddleware appends handler middleware.
func WithMiddleware(mw ...Middleware) Option {
	return func(r *Router) {
		r.middleware = append(r.middleware, mw...)
	}
}

// New validates routes and returns a Router over them.
func New(routes Routes, opts ...Option) (*Router, error) {
	for _, route := range routes {
		if route.Path == "." {
			continue
		}
		if err := routepath.ValidatePattern(route.Path); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPattern, err)
		}
	}

	r := &Router{routes: append(Routes(nil), routes...)}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r, nil
}

// MustNew is like New but panics on an invalid pattern.
func MustNew(routes Routes, opts ...Option) *Router {
	r, err := New(routes, opts...)
	if err != nil {
		panic(err)
	}
	return r
}

// Use appends handler middleware. Middleware runs in the order added.
func (r *Router) Use(mw ...Middleware) {
	r.middleware = append(r.middleware, mw...)
}

// Routes returns the route table as registered.
func (r *Router) Routes() Routes {
	return append(Routes(nil), r.routes...)
}

// Absolute returns the route table mounted under the base found in ctx.
func (r *Router) Absolute(ctx context.Context) Routes {
	base := BasePath(ctx)
	out := make(Routes, len(r.routes))
	for i, route := range r.routes {
		route.Path = joinPattern(base, route.Path)
		out[i] = route
	}
	return out
}

// Match picks the route for pathname under the base found in ctx.
func (r *Router) Match(ctx context.Context, pathname string) (*Match, bool) {
	return Pick(r.Absolute(ctx), pathname)
}

// Dispatch matches loc and runs the winning handler through the middleware
// chain. The handler's context carries the match, so a nested Router
// dispatched from it is mounted under that match.
func (r *Router) Dispatch(ctx context.Context, loc history.Location) (any, error) {
	m, ok := r.Match(ctx, loc.Pathname)

	var handler Handler
	props := Props{Location: loc}
	if ok {
		r.logger.Debug("route matched", "pattern", m.Route.Path, "path", loc.Pathname)
		handler = m.Route.Handler
		ctx = WithMatch(ctx, m)
		props.Params = m.Params
		props.URI = m.URI
		props.Match = m
	} else {
		if r.notFound == nil {
			r.logger.Debug("no route matched", "path", loc.Pathname)
			return nil, fmt.Errorf("%s: %w", loc.Pathname, ErrNotFound)
		}
		handler = r.notFound
		props.Params = map[string]string{}
		props.URI = BaseURI(ctx)
	}
	props.Navigate = r.navigateFunc(ctx, props.URI)

	return ComposeMiddleware(ctx, props, r.middleware, func(ctx context.Context) (any, error) {
		if handler == nil {
			return nil, nil
		}
		return handler.Handle(ctx, props)
	})
}

func (r *Router) navigateFunc(ctx context.Context, uri string) func(string, ...history.NavigateOption) *history.Handle {
	return func(to string, opts ...history.NavigateOption) *history.Handle {
		nav := navigatorFor(ctx, r.navigator)
		if nav == nil {
			return history.Failed(ErrNoNavigator)
		}
		return nav.Navigate(context.WithoutCancel(ctx), resolveAgainst(to, uri), opts...)
	}
}
