package router

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/vango-dev/wayfinder/pkg/history"
)

// Redirect is a control signal, not a failure: a handler returns (or
// panics with) a *Redirect to ask the nearest boundary to replace the
// current location with URI.
type Redirect struct {
	URI string

	handled atomic.Bool
}

// Error implements error.
func (r *Redirect) Error() string {
	return "redirect to " + r.URI
}

// Handled reports whether a boundary has already acted on r.
func (r *Redirect) Handled() bool {
	return r.handled.Load()
}

// RedirectTo returns a redirect signal for uri. A relative uri is resolved
// by the boundary against the match it runs under.
func RedirectTo(uri string) error {
	return &Redirect{URI: uri}
}

// IsRedirect reports whether err is, or wraps, a redirect signal.
func IsRedirect(err error) bool {
	var r *Redirect
	return errors.As(err, &r)
}

// AsRedirect returns the redirect carried by err.
func AsRedirect(err error) (*Redirect, bool) {
	var r *Redirect
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// RedirectBoundary turns redirect signals into replace navigations.
type RedirectBoundary struct {
	nav    Navigator
	logger *slog.Logger
}

// NewRedirectBoundary returns a boundary navigating through nav. A nil nav
// falls back to the coordinator in the run context.
func NewRedirectBoundary(nav Navigator, logger *slog.Logger) *RedirectBoundary {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedirectBoundary{nav: nav, logger: logger}
}

// Run calls fn. A redirect fn returns or panics with is consumed: the
// boundary navigates with replace exactly once and Run returns nil, nil.
// Other errors are returned unchanged and other panics are re-raised with
// the same value.
func (b *RedirectBoundary) Run(ctx context.Context, fn Next) (value any, err error) {
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		recErr, ok := rec.(error)
		if !ok {
			panic(rec)
		}
		redirect, ok := AsRedirect(recErr)
		if !ok {
			panic(rec)
		}
		value, err = nil, b.consume(ctx, redirect)
	}()

	value, err = fn(ctx)
	if redirect, ok := AsRedirect(err); ok {
		return nil, b.consume(ctx, redirect)
	}
	return value, err
}

func (b *RedirectBoundary) consume(ctx context.Context, r *Redirect) error {
	if !r.handled.CompareAndSwap(false, true) {
		return nil
	}

	nav := navigatorFor(ctx, b.nav)
	if nav == nil {
		return ErrNoNavigator
	}

	to := resolveAgainst(r.URI, BaseURI(ctx))
	b.logger.Debug("redirect", "to", to)
	nav.Navigate(context.WithoutCancel(ctx), to, history.WithReplace())
	return nil
}

// Boundary returns middleware that wraps the rest of the chain in a
// RedirectBoundary.
func Boundary(nav Navigator) Middleware {
	b := NewRedirectBoundary(nav, nil)
	return MiddlewareFunc(func(ctx context.Context, props Props, next Next) (any, error) {
		return b.Run(ctx, next)
	})
}
