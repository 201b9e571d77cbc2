package history

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestHandleComplete(t *testing.T) {
	h := newHandle()
	completed := 0
	h.Then(func() { completed++ }, func(error) { t.Error("onError on completion") })

	h.complete()
	h.complete()
	h.settle(errors.New("late"))

	if completed != 1 {
		t.Errorf("onComplete called %d times, want 1", completed)
	}
	if h.Err() != nil {
		t.Errorf("Err() = %v, want nil", h.Err())
	}

	// Registered after settlement: runs immediately.
	late := false
	h.Then(func() { late = true }, nil)
	if !late {
		t.Error("callback registered after completion did not run")
	}
}

func TestHandleCancelIsIdempotent(t *testing.T) {
	h := newHandle()
	h.Cancel()
	h.Cancel()

	select {
	case <-h.Done():
	default:
		t.Fatal("Done not closed after Cancel")
	}
	if !h.Canceled() {
		t.Error("Canceled() = false after Cancel")
	}

	h.complete()
	if !errors.Is(h.Err(), ErrCanceled) {
		t.Errorf("Err() = %v, want ErrCanceled", h.Err())
	}
}

func TestFailed(t *testing.T) {
	boom := errors.New("boom")
	h := Failed(boom)

	var got error
	h.Then(nil, func(err error) { got = err })
	if !errors.Is(got, boom) {
		t.Errorf("onError got %v, want %v", got, boom)
	}
	if err := h.Wait(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Wait() = %v, want %v", err, boom)
	}
}

func TestHandleWaitContext(t *testing.T) {
	h := newHandle()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := h.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() = %v, want DeadlineExceeded", err)
	}
}

func TestHandleConcurrentCancelAndSettle(t *testing.T) {
	for i := 0; i < 200; i++ {
		h := newHandle()
		var mu sync.Mutex
		fired := false
		h.Then(func() {
			mu.Lock()
			fired = true
			mu.Unlock()
		}, nil)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() { defer wg.Done(); h.complete() }()
		go func() { defer wg.Done(); h.Cancel() }()
		wg.Wait()

		mu.Lock()
		if h.Canceled() && fired {
			t.Fatal("callback fired on a cancelled handle")
		}
		if !h.Canceled() && !fired {
			t.Fatal("completed handle did not fire its callback")
		}
		mu.Unlock()
	}
}

func TestIdleSchedulerOrder(t *testing.T) {
	s := NewIdleScheduler(nil)

	var mu sync.Mutex
	var got []int
	for i := 0; i < 100; i++ {
		s.Schedule(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		})
	}
	s.Close()
	s.Close()

	if len(got) != 100 {
		t.Fatalf("ran %d tasks, want 100", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("task %d ran at position %d", v, i)
		}
	}

	ran := false
	s.Schedule(func() { ran = true })
	if ran {
		t.Error("task scheduled after Close should be dropped")
	}
}

func TestIdleSchedulerSurvivesPanic(t *testing.T) {
	s := NewIdleScheduler(nil)
	done := make(chan struct{})
	s.Schedule(func() { panic("boom") })
	s.Schedule(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler stopped after a panicking task")
	}
	s.Close()
}

func TestManualSchedulerFlushRunsNestedTasks(t *testing.T) {
	s := NewManualScheduler()
	var got []string
	s.Schedule(func() {
		got = append(got, "a")
		s.Schedule(func() { got = append(got, "c") })
	})
	s.Schedule(func() { got = append(got, "b") })

	if s.Pending() != 2 {
		t.Fatalf("Pending() = %d, want 2", s.Pending())
	}
	if n := s.Flush(); n != 3 {
		t.Errorf("Flush() = %d, want 3", n)
	}
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("order = %v, want [a b c]", got)
	}
}

func TestSyncSchedulerRunsInline(t *testing.T) {
	ran := false
	SyncScheduler{}.Schedule(func() { ran = true })
	if !ran {
		t.Error("SyncScheduler did not run the task inline")
	}
}

func TestCompleted(t *testing.T) {
	h := Completed()
	if err := h.Wait(context.Background()); err != nil {
		t.Errorf("Wait() = %v, want nil", err)
	}
	h.Cancel()
	if h.Canceled() {
		t.Error("Cancel after completion should be a no-op")
	}
}
