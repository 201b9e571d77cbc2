package router

import (
	"context"
	"sync"

	"github.com/vango-dev/wayfinder/pkg/history"
	"github.com/vango-dev/wayfinder/pkg/routepath"
)

// ClickEvent is the subset of a pointer click a link needs.
type ClickEvent struct {
	DefaultPrevented bool

	// Button is the mouse button (0=left, 1=middle, 2=right).
	Button int

	Ctrl  bool
	Shift bool
	Alt   bool
	Meta  bool
}

// PreventDefault marks the event handled.
func (e *ClickEvent) PreventDefault() {
	e.DefaultPrevented = true
}

// ShouldNavigate reports whether a click should become a client-side
// navigation: not already handled, primary button, no modifier keys.
func ShouldNavigate(ev ClickEvent) bool {
	return !ev.DefaultPrevented &&
		ev.Button == 0 &&
		!(ev.Ctrl || ev.Shift || ev.Alt || ev.Meta)
}

// LinkState describes how a link to some target should render.
type LinkState struct {
	Href               string
	IsCurrent          bool
	IsPartiallyCurrent bool
	Navigating         bool
}

// LinkProps resolves to against base and compares it with loc.
func LinkProps(to, base string, loc history.Location) LinkState {
	href := resolveAgainst(to, base)
	pathname, _, _ := routepath.SplitLocation(href)
	return LinkState{
		Href:               href,
		IsCurrent:          loc.Pathname == pathname,
		IsPartiallyCurrent: routepath.StartsWith(loc.Pathname, pathname),
	}
}

// Attrs returns the anchor attributes for the state.
func (s LinkState) Attrs() map[string]string {
	attrs := map[string]string{"href": s.Href}
	if s.IsCurrent {
		attrs["aria-current"] = "page"
	}
	if s.Navigating {
		attrs["data-navigating"] = "true"
	}
	return attrs
}

// Link drives navigation for one mounted link.
//
// A click starts a navigation and marks the link as navigating until the
// navigation settles. Unmount cancels the in-flight navigation, after
// which its callbacks never touch the link.
type Link struct {
	nav  Navigator
	to   string
	base string
	opts []history.NavigateOption

	mu         sync.Mutex
	pending    *history.Handle
	navigating bool
}

// NewLink returns a link to to, resolved against base when clicked.
func NewLink(nav Navigator, to, base string, opts ...history.NavigateOption) *Link {
	return &Link{nav: nav, to: to, base: base, opts: opts}
}

// Href returns the resolved target.
func (l *Link) Href() string {
	return resolveAgainst(l.to, l.base)
}

// State returns the link's render state for loc.
func (l *Link) State(loc history.Location) LinkState {
	s := LinkProps(l.to, l.base, loc)
	s.Navigating = l.Navigating()
	return s
}

// Navigating reports whether a navigation started by this link is pending.
func (l *Link) Navigating() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.navigating
}

// Click handles ev. It returns the navigation handle, or nil when the
// click is left to the default action. A click while a previous navigation
// is pending cancels the previous one.
func (l *Link) Click(ctx context.Context, ev *ClickEvent) *history.Handle {
	if !ShouldNavigate(*ev) {
		return nil
	}
	ev.PreventDefault()

	nav := navigatorFor(ctx, l.nav)
	if nav == nil {
		return history.Failed(ErrNoNavigator)
	}

	l.mu.Lock()
	if l.pending != nil {
		l.pending.Cancel()
	}
	l.navigating = true
	h := nav.Navigate(ctx, l.Href(), l.opts...)
	l.pending = h
	l.mu.Unlock()

	settle := func() { l.settle(h) }
	h.Then(settle, func(error) { settle() })
	return h
}

// Unmount cancels any pending navigation.
func (l *Link) Unmount() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pending != nil {
		l.pending.Cancel()
		l.pending = nil
	}
	l.navigating = false
}

func (l *Link) settle(h *history.Handle) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pending == h {
		l.pending = nil
		l.navigating = false
	}
}
