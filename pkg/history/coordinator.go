package history

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/vango-dev/wayfinder/pkg/history"

// ErrClosed is reported by navigations issued after Close.
var ErrClosed = errors.New("history: coordinator closed")

// Coordinator presents one authoritative location and navigate pair for a
// Store to any number of consumers.
//
// The coordinator is Idle until the first Subscribe, Listening while at least
// one subscriber remains, and Idle again after the last one leaves. While
// listening it holds exactly one Store.Listen subscription.
type Coordinator struct {
	store   Store
	sched   Scheduler
	owned   *IdleScheduler
	logger  *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer

	// listenMu serializes installing and removing the upstream listener.
	// It is never held together with a call into observers.
	listenMu sync.Mutex

	mu        sync.Mutex
	current   Location
	observers []observer
	hooks     []observer
	nextID    uint64
	stop      func()
	closed    bool
	navTail   chan struct{} // closed when the last issued store call returns
}

type observer struct {
	id uint64
	fn func(Location)
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithScheduler sets the scheduler used to deliver location changes.
// The default is an IdleScheduler owned (and closed) by the coordinator.
func WithScheduler(s Scheduler) Option {
	return func(c *Coordinator) {
		c.sched = s
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithMetrics reports coordinator activity to m.
func WithMetrics(m *Metrics) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

// WithTracer sets the tracer used for navigation spans.
// Default: the global otel tracer provider.
func WithTracer(t trace.Tracer) Option {
	return func(c *Coordinator) {
		c.tracer = t
	}
}

// NewCoordinator wraps store.
func NewCoordinator(store Store, opts ...Option) *Coordinator {
	c := &Coordinator{store: store}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer(tracerName)
	}
	if c.sched == nil {
		c.owned = NewIdleScheduler(c.logger)
		c.sched = c.owned
	}
	c.current = store.Location()
	return c
}

// Location returns the last committed location.
func (c *Coordinator) Location() Location {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Subscribe registers fn to receive every committed location change, in
// order. The returned function unsubscribes; calling it again is a no-op.
func (c *Coordinator) Subscribe(fn func(Location)) (unsubscribe func()) {
	c.listenMu.Lock()
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.observers = append(c.observers, observer{id: id, fn: fn})
	first := len(c.observers) == 1 && !c.closed
	c.mu.Unlock()

	if first {
		c.listen()
	}
	c.mu.Lock()
	c.metrics.state(c.stop != nil, len(c.observers))
	c.mu.Unlock()
	c.listenMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { c.unsubscribe(id) })
	}
}

// OnTransitionComplete registers fn to run once per committed location
// change, after every observer has seen it.
func (c *Coordinator) OnTransitionComplete(fn func(Location)) (remove func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.hooks = append(c.hooks, observer{id: id, fn: fn})
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			c.hooks = removeObserver(c.hooks, id)
			c.mu.Unlock()
		})
	}
}

// Observers returns the number of subscribers.
func (c *Coordinator) Observers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.observers)
}

// Listening reports whether the upstream subscription is installed.
func (c *Coordinator) Listening() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stop != nil
}

// listen installs the upstream subscription, first tearing down any stale
// one so there is never more than one. The caller holds listenMu but not mu:
// a store may report a change from inside Listen, and delivery takes mu.
func (c *Coordinator) listen() {
	c.mu.Lock()
	stale := c.stop
	c.stop = nil
	c.mu.Unlock()
	if stale != nil {
		stale()
	}

	cur := c.store.Location()
	c.mu.Lock()
	c.current = cur
	c.mu.Unlock()

	stop := c.store.Listen(c.receive)

	c.mu.Lock()
	c.stop = stop
	c.mu.Unlock()
	c.logger.Debug("history listening", "location", cur.Href())
}

func (c *Coordinator) unsubscribe(id uint64) {
	c.listenMu.Lock()
	defer c.listenMu.Unlock()

	c.mu.Lock()
	c.observers = removeObserver(c.observers, id)
	var stop func()
	if len(c.observers) == 0 {
		stop, c.stop = c.stop, nil
	}
	c.metrics.state(c.stop != nil, len(c.observers))
	c.mu.Unlock()

	if stop != nil {
		stop()
		c.logger.Debug("history idle")
	}
}

// receive is the upstream listener. It only queues; delivery happens on
// the scheduler.
func (c *Coordinator) receive(loc Location) {
	c.sched.Schedule(func() { c.deliver(loc) })
}

func (c *Coordinator) deliver(loc Location) {
	c.mu.Lock()
	if loc.Same(c.current) {
		c.mu.Unlock()
		c.metrics.change(true)
		return
	}
	c.current = loc
	observers := append([]observer(nil), c.observers...)
	hooks := append([]observer(nil), c.hooks...)
	c.mu.Unlock()

	c.metrics.change(false)
	for _, o := range observers {
		o.fn(loc)
	}
	for _, h := range hooks {
		h.fn(loc)
	}
}

// Navigate asks the store to push (or replace) to and returns a handle for
// the result. Store calls run off the caller's goroutine but reach the store
// one at a time, in the order Navigate was called. On success the handle
// settles through the scheduler, after any change the store emitted for this
// navigation has been committed; a store failure fails the handle. After
// Close the handle fails with ErrClosed.
func (c *Coordinator) Navigate(ctx context.Context, to string, opts ...NavigateOption) *Handle {
	options := buildOptions(opts)
	kind := "push"
	if options.Replace {
		kind = "replace"
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Failed(ErrClosed)
	}
	prev := c.navTail
	turn := make(chan struct{})
	c.navTail = turn
	c.mu.Unlock()

	h := newHandle()
	ctx, span := c.tracer.Start(ctx, "wayfinder.navigate",
		trace.WithAttributes(
			attribute.String("nav.to", to),
			attribute.Bool("nav.replace", options.Replace),
		),
	)

	go func() {
		defer span.End()
		if prev != nil {
			<-prev
		}
		err := c.store.Navigate(ctx, to, options)
		close(turn)

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			c.metrics.navigation(kind, "error")
			if !h.Canceled() {
				c.logger.Warn("navigation failed", "to", to, "replace", options.Replace, "error", err)
			}
			h.settle(err)
			return
		}

		c.metrics.navigation(kind, "ok")
		c.settleLater(h)
	}()

	return h
}

// settleLater completes h behind the deliveries already queued. When the
// coordinator's own scheduler has been closed there is nothing left to wait
// behind, so h completes at once.
func (c *Coordinator) settleLater(h *Handle) {
	if c.owned != nil {
		if !c.owned.TrySchedule(h.complete) {
			h.complete()
		}
		return
	}
	c.sched.Schedule(h.complete)
}

// Close tears down the upstream subscription and stops the scheduler if the
// coordinator created it. Observers are dropped and later navigations fail
// with ErrClosed; navigations already issued still settle.
func (c *Coordinator) Close() {
	c.listenMu.Lock()
	c.mu.Lock()
	stop := c.stop
	c.stop = nil
	c.closed = true
	c.observers = nil
	c.metrics.state(false, 0)
	c.mu.Unlock()
	if stop != nil {
		stop()
	}
	c.listenMu.Unlock()

	if c.owned != nil {
		c.owned.Close()
	}
}

func removeObserver(list []observer, id uint64) []observer {
	for i, o := range list {
		if o.id == id {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return list
}
