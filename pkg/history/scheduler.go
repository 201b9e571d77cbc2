package history

import (
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
)

// Scheduler runs deferred, low-priority work. Implementations must run tasks
// in the order they were scheduled and never run a task inside the
// Schedule call that queued it.
type Scheduler interface {
	Schedule(task func())
}

// IdleScheduler runs tasks on a single background goroutine, yielding the
// processor before each one so interactive work scheduled by the caller gets
// to run first.
type IdleScheduler struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool
	done   chan struct{}
	once   sync.Once
	logger *slog.Logger
}

// NewIdleScheduler starts an IdleScheduler. Call Close to stop it.
func NewIdleScheduler(logger *slog.Logger) *IdleScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &IdleScheduler{
		done:   make(chan struct{}),
		logger: logger,
	}
	s.cond = sync.NewCond(&s.mu)
	go s.run()
	return s
}

// Schedule queues task. Tasks scheduled after Close are dropped.
func (s *IdleScheduler) Schedule(task func()) {
	s.TrySchedule(task)
}

// TrySchedule queues task and reports whether it was accepted. It returns
// false once Close has been called.
func (s *IdleScheduler) TrySchedule(task func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.queue = append(s.queue, task)
	s.cond.Signal()
	return true
}

// Close runs the tasks already queued and stops the worker.
func (s *IdleScheduler) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.cond.Broadcast()
		s.mu.Unlock()
	})
	<-s.done
}

func (s *IdleScheduler) run() {
	defer close(s.done)
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		task := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.mu.Unlock()

		runtime.Gosched()
		s.runTask(task)
	}
}

func (s *IdleScheduler) runTask(task func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduled task panicked", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	task()
}

// SyncScheduler runs each task inside Schedule. It gives up the
// never-inline guarantee and is meant for scripts that drive a store from a
// single goroutine.
type SyncScheduler struct{}

// Schedule runs task.
func (SyncScheduler) Schedule(task func()) {
	task()
}

// ManualScheduler holds tasks until Flush is called. It makes delivery
// order fully deterministic, which tests and the simulator rely on.
type ManualScheduler struct {
	mu    sync.Mutex
	queue []func()
}

// NewManualScheduler returns an empty ManualScheduler.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// Schedule queues task.
func (s *ManualScheduler) Schedule(task func()) {
	s.mu.Lock()
	s.queue = append(s.queue, task)
	s.mu.Unlock()
}

// Pending returns the number of queued tasks.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Flush runs queued tasks, including ones queued while flushing, until the
// queue is empty. It returns the number of tasks run.
func (s *ManualScheduler) Flush() int {
	n := 0
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return n
		}
		task := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		task()
		n++
	}
}
