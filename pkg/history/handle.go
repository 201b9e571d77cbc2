package history

import (
	"context"
	"errors"
	"sync"
)

// ErrCanceled is reported by a Handle that was cancelled before it settled.
var ErrCanceled = errors.New("navigation canceled")

type handleState uint8

const (
	statePending handleState = iota
	stateCompleted
	stateFailed
	stateCanceled
)

type callbacks struct {
	onComplete func()
	onError    func(error)
}

// Handle tracks one in-flight navigation.
//
// A Handle settles exactly once: it completes, fails with the store's error,
// or is cancelled. Cancel is advisory: it cannot undo a transition the store
// has already committed, but once it returns no callback registered with Then
// will ever run. Cancel after settlement does nothing.
type Handle struct {
	mu    sync.Mutex
	done  chan struct{}
	state handleState
	err   error
	cbs   []callbacks
}

func newHandle() *Handle {
	return &Handle{done: make(chan struct{})}
}

// Failed returns a handle that has already failed with err.
func Failed(err error) *Handle {
	h := newHandle()
	h.settle(err)
	return h
}

// Completed returns a handle that has already completed.
func Completed() *Handle {
	h := newHandle()
	h.complete()
	return h
}

// Then registers callbacks for completion and failure. Either may be nil.
// On an already settled handle the matching callback runs immediately; on a
// cancelled handle neither runs.
func (h *Handle) Then(onComplete func(), onError func(error)) *Handle {
	cb := callbacks{onComplete: onComplete, onError: onError}

	h.mu.Lock()
	switch h.state {
	case statePending:
		h.cbs = append(h.cbs, cb)
		h.mu.Unlock()
		return h
	case stateCanceled:
		h.mu.Unlock()
		return h
	}
	err := h.err
	h.mu.Unlock()

	cb.fire(err)
	return h
}

// Cancel suppresses every pending and future callback.
func (h *Handle) Cancel() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != statePending {
		return
	}
	h.state = stateCanceled
	h.err = ErrCanceled
	h.cbs = nil
	close(h.done)
}

// Canceled reports whether Cancel won against settlement.
func (h *Handle) Canceled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state == stateCanceled
}

// Done is closed once the handle completes, fails, or is cancelled.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Err returns the outcome: nil while pending or after completion, the store
// error after a failure, ErrCanceled after cancellation.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Wait blocks until the handle is done or ctx ends.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Handle) complete() { h.settle(nil) }

func (h *Handle) settle(err error) {
	h.mu.Lock()
	if h.state != statePending {
		h.mu.Unlock()
		return
	}
	if err != nil {
		h.state = stateFailed
	} else {
		h.state = stateCompleted
	}
	h.err = err
	cbs := h.cbs
	h.cbs = nil
	close(h.done)
	h.mu.Unlock()

	for _, cb := range cbs {
		cb.fire(err)
	}
}

func (cb callbacks) fire(err error) {
	if err != nil {
		if cb.onError != nil {
			cb.onError(err)
		}
		return
	}
	if cb.onComplete != nil {
		cb.onComplete()
	}
}
