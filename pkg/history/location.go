package history

import (
	"context"

	"github.com/vango-dev/wayfinder/pkg/routepath"
)

// Location is one immutable history entry.
type Location struct {
	// Pathname is the path portion, always starting with "/".
	Pathname string

	// Search is the query string including its leading "?", or "".
	Search string

	// Hash is the fragment including its leading "#", or "".
	Hash string

	// State is the value passed with the navigation that created the entry.
	State any

	// Key identifies this location value. Two locations with the same
	// non-empty Key are the same value; stores assign a fresh Key to every
	// change they emit.
	Key string
}

// NewLocation builds a Location from a URI such as "/a/b?x=1#top".
func NewLocation(uri string, state any, key string) Location {
	pathname, search, hash := routepath.SplitLocation(uri)
	if pathname == "" {
		pathname = "/"
	}
	return Location{
		Pathname: pathname,
		Search:   search,
		Hash:     hash,
		State:    state,
		Key:      key,
	}
}

// Href reassembles the location into a URI.
func (l Location) Href() string {
	return l.Pathname + l.Search + l.Hash
}

// Same reports whether l and other are the same location value.
// Locations without a Key are never the same as anything.
func (l Location) Same(other Location) bool {
	return l.Key != "" && l.Key == other.Key
}

// Store is the location store a Coordinator wraps. Implementations own the
// history stack; the coordinator never mutates it directly.
type Store interface {
	// Location returns the store's current location.
	Location() Location

	// Listen registers fn to be called with every location change and
	// returns a function that removes it. fn must not block. It may be
	// called before Listen returns.
	Listen(fn func(Location)) (unsubscribe func())

	// Navigate pushes (or replaces) an entry and returns once the store has
	// applied it. Listeners must have been notified of the change before
	// Navigate returns.
	Navigate(ctx context.Context, to string, opts NavigateOptions) error
}

// NavigateOptions configures a navigation.
type NavigateOptions struct {
	// State is attached to the new entry.
	State any

	// Replace replaces the current entry instead of pushing a new one.
	Replace bool
}

// NavigateOption is a functional option for Navigate.
type NavigateOption func(*NavigateOptions)

// WithState attaches state to the new entry.
func WithState(state any) NavigateOption {
	return func(o *NavigateOptions) {
		o.State = state
	}
}

// WithReplace replaces the current entry instead of pushing.
func WithReplace() NavigateOption {
	return func(o *NavigateOptions) {
		o.Replace = true
	}
}

func buildOptions(opts []NavigateOption) NavigateOptions {
	var options NavigateOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	return options
}

type ctxKey struct{}

// NewContext returns a copy of ctx that carries c.
func NewContext(ctx context.Context, c *Coordinator) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// FromContext returns the coordinator stored in ctx, if any.
func FromContext(ctx context.Context) (*Coordinator, bool) {
	c, ok := ctx.Value(ctxKey{}).(*Coordinator)
	return c, ok && c != nil
}
