package history

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/vango-dev/wayfinder/pkg/routepath"
)

// ErrNoEntry is returned by Go when the target index is outside the stack.
var ErrNoEntry = errors.New("no history entry at that offset")

// MemoryHistory is an in-memory Store: a stack of entries and a cursor.
// It backs tests, the simulator, and servers that hold history on behalf of
// a remote client.
type MemoryHistory struct {
	mu        sync.Mutex
	entries   []Location
	index     int
	seq       uint64
	listeners []memoryListener
	nextID    uint64
}

type memoryListener struct {
	id uint64
	fn func(Location)
}

// NewMemoryHistory returns a history whose only entry is initial.
// An empty initial path means "/".
func NewMemoryHistory(initial string) *MemoryHistory {
	if initial == "" {
		initial = "/"
	}
	m := &MemoryHistory{}
	m.entries = []Location{m.newLocationLocked(initial, nil)}
	return m
}

// Location returns the entry under the cursor.
func (m *MemoryHistory) Location() Location {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[m.index]
}

// Listen registers fn for every change.
func (m *MemoryHistory) Listen(fn func(Location)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners = append(m.listeners, memoryListener{id: id, fn: fn})
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			for i, l := range m.listeners {
				if l.id == id {
					m.listeners = append(m.listeners[:i], m.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// Listeners returns the number of registered listeners.
func (m *MemoryHistory) Listeners() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.listeners)
}

// Navigate pushes or replaces an entry. The target must be an absolute
// in-app path; it is canonicalized before being stored.
func (m *MemoryHistory) Navigate(ctx context.Context, to string, opts NavigateOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := routepath.ValidateNavPath(to)
	if err != nil {
		return fmt.Errorf("navigate to %q: %w", to, err)
	}

	m.mu.Lock()
	loc := m.newLocationLocked(target, opts.State)
	if opts.Replace {
		m.entries[m.index] = loc
	} else {
		m.entries = append(m.entries[:m.index+1], loc)
		m.index++
	}
	listeners := m.snapshotLocked()
	m.mu.Unlock()

	notify(listeners, loc)
	return nil
}

// Go moves the cursor by delta entries and notifies listeners, the way a
// browser reports a pop.
func (m *MemoryHistory) Go(delta int) error {
	m.mu.Lock()
	next := m.index + delta
	if next < 0 || next >= len(m.entries) {
		m.mu.Unlock()
		return fmt.Errorf("go(%d): %w", delta, ErrNoEntry)
	}
	m.index = next
	loc := m.entries[next]
	listeners := m.snapshotLocked()
	m.mu.Unlock()

	notify(listeners, loc)
	return nil
}

// Back is Go(-1).
func (m *MemoryHistory) Back() error { return m.Go(-1) }

// Forward is Go(1).
func (m *MemoryHistory) Forward() error { return m.Go(1) }

// Entries returns a copy of the stack and the cursor position.
func (m *MemoryHistory) Entries() ([]Location, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Location, len(m.entries))
	copy(out, m.entries)
	return out, m.index
}

func (m *MemoryHistory) newLocationLocked(uri string, state any) Location {
	m.seq++
	return NewLocation(uri, state, strconv.FormatUint(m.seq, 10))
}

func (m *MemoryHistory) snapshotLocked() []func(Location) {
	fns := make([]func(Location), len(m.listeners))
	for i, l := range m.listeners {
		fns[i] = l.fn
	}
	return fns
}

func notify(listeners []func(Location), loc Location) {
	for _, fn := range listeners {
		fn(loc)
	}
}
