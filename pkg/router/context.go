package router

import (
	"context"
	"strings"

	"github.com/vango-dev/wayfinder/pkg/routepath"
)

type matchKey struct{}

// WithMatch returns a copy of ctx carrying m. Routers dispatching under ctx
// treat m as their parent.
func WithMatch(ctx context.Context, m *Match) context.Context {
	return context.WithValue(ctx, matchKey{}, m)
}

// MatchFromContext returns the innermost match installed in ctx.
func MatchFromContext(ctx context.Context) (*Match, bool) {
	m, ok := ctx.Value(matchKey{}).(*Match)
	return m, ok && m != nil
}

// BasePath returns the pattern nested routes are mounted under: the parent
// match's pattern without its trailing splat, or "/" at the top level.
func BasePath(ctx context.Context) string {
	m, ok := MatchFromContext(ctx)
	if !ok {
		return "/"
	}
	segments := routepath.Segmentize(m.Route.Path)
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		if seg.Kind == routepath.Root || seg.Kind == routepath.Splat {
			continue
		}
		parts = append(parts, seg.String())
	}
	return "/" + strings.Join(parts, "/")
}

// BaseURI returns the URI of the parent match, or "/".
func BaseURI(ctx context.Context) string {
	if m, ok := MatchFromContext(ctx); ok {
		return m.URI
	}
	return "/"
}

// joinPattern mounts a route pattern under base. "." is base itself.
func joinPattern(base, path string) string {
	if path == "." {
		return base
	}
	return routepath.Normalize(base + "/" + path)
}

func resolveAgainst(to, base string) string {
	if base == "" {
		base = "/"
	}
	return routepath.Resolve(to, base)
}
