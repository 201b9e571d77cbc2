package router

import "context"

// Next continues a middleware chain. The ctx passed to it is the one the
// rest of the chain and the handler see.
type Next func(ctx context.Context) (any, error)

// Middleware wraps handler execution. Call next to continue the chain;
// return without calling it to short-circuit.
type Middleware interface {
	Handle(ctx context.Context, props Props, next Next) (any, error)
}

// MiddlewareFunc adapts a function to Middleware.
type MiddlewareFunc func(ctx context.Context, props Props, next Next) (any, error)

// Handle calls f.
func (f MiddlewareFunc) Handle(ctx context.Context, props Props, next Next) (any, error) {
	return f(ctx, props, next)
}

// ComposeMiddleware builds a handler chain from middleware and a final handler.
// Middleware is executed in order (first to last), with the handler at the end.
func ComposeMiddleware(ctx context.Context, props Props, mw []Middleware, handler Next) (any, error) {
	chain := handler
	for i := len(mw) - 1; i >= 0; i-- {
		m := mw[i]
		next := chain
		chain = func(ctx context.Context) (any, error) {
			return m.Handle(ctx, props, next)
		}
	}
	return chain(ctx)
}

// Chain creates a middleware that combines multiple middleware in order.
func Chain(middleware ...Middleware) Middleware {
	return MiddlewareFunc(func(ctx context.Context, props Props, next Next) (any, error) {
		return ComposeMiddleware(ctx, props, middleware, next)
	})
}

// Skip bypasses mw when condition holds.
func Skip(condition func(ctx context.Context, props Props) bool, mw Middleware) Middleware {
	return MiddlewareFunc(func(ctx context.Context, props Props, next Next) (any, error) {
		if condition(ctx, props) {
			return next(ctx)
		}
		return mw.Handle(ctx, props, next)
	})
}

// Only runs mw when condition holds.
func Only(condition func(ctx context.Context, props Props) bool, mw Middleware) Middleware {
	return MiddlewareFunc(func(ctx context.Context, props Props, next Next) (any, error) {
		if !condition(ctx, props) {
			return next(ctx)
		}
		return mw.Handle(ctx, props, next)
	})
}
