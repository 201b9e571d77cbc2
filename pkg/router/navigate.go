package router

import (
	"context"

	"github.com/vango-dev/wayfinder/pkg/history"
)

// Navigate navigates through the coordinator carried by ctx. A relative
// target resolves against the innermost match in ctx, so a handler can
// write Navigate(ctx, "../settings").
func Navigate(ctx context.Context, to string, opts ...history.NavigateOption) *history.Handle {
	nav := navigatorFor(ctx, nil)
	if nav == nil {
		return history.Failed(ErrNoNavigator)
	}
	return nav.Navigate(ctx, resolveAgainst(to, BaseURI(ctx)), opts...)
}

// Back returns the URI one segment above the innermost match in ctx.
func Back(ctx context.Context) string {
	return resolveAgainst("..", BaseURI(ctx))
}

// navigatorFor returns nav, or the coordinator carried by ctx.
func navigatorFor(ctx context.Context, nav Navigator) Navigator {
	if nav != nil {
		return nav
	}
	if c, ok := history.FromContext(ctx); ok {
		return c
	}
	return nil
}
