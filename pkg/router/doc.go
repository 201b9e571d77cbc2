// Package router matches locations against route tables and dispatches
// them to handlers.
//
// The router provides:
//   - Ranked matching of path patterns with dynamic and splat segments
//   - Nested routers mounted under a parent match through context.Context
//   - Typed parameter decoding with `param` struct tags
//   - Handler middleware chains
//   - Redirects as control signals consumed by a boundary
//   - Link state and click-to-navigate handling
//
// # Patterns
//
//	/                → the root, matches only "/"
//	/users           → static segment
//	/users/:id       → dynamic segment, Params["id"]
//	/files/*         → splat, Params["*"] holds the remainder
//	/docs/*path      → named splat, Params["path"]
//	.                → the router's base itself
//
// When several patterns match, the most specific wins. Specificity is
// positional: a static segment beats a dynamic one, which beats a splat,
// and earlier segments decide before later ones. "/users/new" therefore
// beats "/users/:id" for "/users/new", and "/files" beats "/files/*" for
// "/files". Equal ranks fall back to registration order.
//
// # Usage
//
//	routes := router.NewRoutes().
//	    AddFunc("/", home).
//	    AddFunc("/users/:id/*", user).
//	    AddFunc("*", notFound)
//
//	r, err := router.New(routes)
//	value, err := r.Dispatch(ctx, coordinator.Location())
//
// Inside user, a nested router with the pattern "edit" matches
// "/users/7/edit", and props.Navigate("..") navigates to "/users/7".
package router
