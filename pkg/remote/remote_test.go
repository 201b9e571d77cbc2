package remote

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vango-dev/wayfinder/pkg/history"
)

func serve(t *testing.T, store history.Store, opts ...HandlerOption) *Client {
	t.Helper()
	srv := httptest.NewServer(NewHandler(store, opts...))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"))
	if err != nil {
		t.Fatalf("Dial() error: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

type recorder struct {
	mu   sync.Mutex
	locs []history.Location
	seen chan struct{}
}

func newRecorder() *recorder {
	return &recorder{seen: make(chan struct{}, 64)}
}

func (r *recorder) record(loc history.Location) {
	r.mu.Lock()
	r.locs = append(r.locs, loc)
	r.mu.Unlock()
	r.seen <- struct{}{}
}

func (r *recorder) paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.locs))
	for i, loc := range r.locs {
		out[i] = loc.Href()
	}
	return out
}

func (r *recorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.seen:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a location")
	}
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestDialReceivesCurrentLocation(t *testing.T) {
	mem := history.NewMemoryHistory("/start?x=1#top")
	client := serve(t, mem)

	got := client.Location()
	want := mem.Location()
	if got.Href() != want.Href() {
		t.Errorf("Location().Href() = %q, want %q", got.Href(), want.Href())
	}
	if !got.Same(want) {
		t.Errorf("Location().Key = %q, want %q", got.Key, want.Key)
	}
}

func TestNavigateNotifiesBeforeReturning(t *testing.T) {
	mem := history.NewMemoryHistory("/")
	client := serve(t, mem)
	rec := newRecorder()
	client.Listen(rec.record)

	if err := client.Navigate(testCtx(t), "/a", history.NavigateOptions{State: "s"}); err != nil {
		t.Fatalf("Navigate(/a) error: %v", err)
	}
	if got := rec.paths(); len(got) != 1 || got[0] != "/a" {
		t.Fatalf("listener saw %v before Navigate returned, want [/a]", got)
	}
	if got := client.Location(); got.Pathname != "/a" || got.State != "s" {
		t.Errorf("Location() = %+v, want /a with state s", got)
	}

	if err := client.Navigate(testCtx(t), "/b", history.NavigateOptions{Replace: true}); err != nil {
		t.Fatalf("Navigate(/b) error: %v", err)
	}
	entries, index := mem.Entries()
	if len(entries) != 2 || index != 1 || entries[1].Pathname != "/b" {
		t.Errorf("server entries = %v at %d, want [/ /b] at 1", entries, index)
	}
}

func TestNavigateReportsServerError(t *testing.T) {
	client := serve(t, history.NewMemoryHistory("/"))

	err := client.Navigate(testCtx(t), "relative", history.NavigateOptions{})
	var remoteErr *Error
	if !errors.As(err, &remoteErr) {
		t.Fatalf("Navigate(relative) error = %v, want *Error", err)
	}
	if !strings.Contains(remoteErr.Message, "relative") {
		t.Errorf("error message = %q, want it to name the target", remoteErr.Message)
	}
	if client.Location().Pathname != "/" {
		t.Errorf("Location() changed after a rejected navigation")
	}
}

func TestServerChangesArePushed(t *testing.T) {
	mem := history.NewMemoryHistory("/")
	client := serve(t, mem)
	rec := newRecorder()
	client.Listen(rec.record)

	if err := mem.Navigate(context.Background(), "/pushed", history.NavigateOptions{}); err != nil {
		t.Fatalf("server Navigate() error: %v", err)
	}
	rec.wait(t)
	if got := client.Location().Pathname; got != "/pushed" {
		t.Errorf("Location().Pathname = %q, want /pushed", got)
	}
}

func TestGoMovesServerCursor(t *testing.T) {
	mem := history.NewMemoryHistory("/")
	client := serve(t, mem)

	for _, path := range []string{"/a", "/b"} {
		if err := client.Navigate(testCtx(t), path, history.NavigateOptions{}); err != nil {
			t.Fatalf("Navigate(%s) error: %v", path, err)
		}
	}
	if err := client.Go(testCtx(t), -2); err != nil {
		t.Fatalf("Go(-2) error: %v", err)
	}
	if got := client.Location().Pathname; got != "/" {
		t.Errorf("after Go(-2) Location().Pathname = %q, want /", got)
	}
	if err := client.Go(testCtx(t), -1); err == nil {
		t.Error("Go(-1) at the first entry should fail")
	}
}

type storeWithoutGo struct {
	history.Store
}

func TestGoUnsupported(t *testing.T) {
	client := serve(t, storeWithoutGo{history.NewMemoryHistory("/")})

	err := client.Go(testCtx(t), 1)
	if err == nil || !strings.Contains(err.Error(), ErrUnsupported.Error()) {
		t.Errorf("Go() error = %v, want %v", err, ErrUnsupported)
	}
}

func TestCoordinatorOverRemote(t *testing.T) {
	client := serve(t, history.NewMemoryHistory("/"))
	coord := history.NewCoordinator(client, history.WithScheduler(history.SyncScheduler{}))
	defer coord.Close()

	rec := newRecorder()
	coord.Subscribe(rec.record)

	h := coord.Navigate(context.Background(), "/users/7")
	if err := h.Wait(testCtx(t)); err != nil {
		t.Fatalf("handle Wait() error: %v", err)
	}
	if got := rec.paths(); len(got) != 1 || got[0] != "/users/7" {
		t.Errorf("observer saw %v, want [/users/7]", got)
	}
}

func TestClosedClient(t *testing.T) {
	client := serve(t, history.NewMemoryHistory("/"))
	client.Close()

	select {
	case <-client.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("Done() not closed after Close()")
	}
	if err := client.Navigate(testCtx(t), "/a", history.NavigateOptions{}); !errors.Is(err, ErrClosed) {
		t.Errorf("Navigate() after Close() error = %v, want ErrClosed", err)
	}
}

func TestNavigateCanceledContext(t *testing.T) {
	client := serve(t, history.NewMemoryHistory("/"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := client.Navigate(ctx, "/a", history.NavigateOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Navigate() error = %v, want context.Canceled", err)
	}
}

func TestConnectHook(t *testing.T) {
	var mu sync.Mutex
	connected := 0
	left := make(chan struct{}, 1)
	client := serve(t, history.NewMemoryHistory("/"), WithConnectHook(func(delta int) {
		mu.Lock()
		connected += delta
		mu.Unlock()
		if delta < 0 {
			left <- struct{}{}
		}
	}))

	mu.Lock()
	if connected != 1 {
		t.Errorf("connected = %d after Dial, want 1", connected)
	}
	mu.Unlock()

	client.Close()
	select {
	case <-left:
	case <-time.After(5 * time.Second):
		t.Fatal("disconnect hook not called")
	}
}

// racingStore moves to /next while the handler reads the location it sends
// first, and hands back the location from before the move.
type racingStore struct {
	*history.MemoryHistory
	armed atomic.Bool
}

func (s *racingStore) Listen(fn func(history.Location)) func() {
	stop := s.MemoryHistory.Listen(fn)
	s.armed.Store(true)
	return stop
}

func (s *racingStore) Location() history.Location {
	stale := s.MemoryHistory.Location()
	if s.armed.CompareAndSwap(true, false) {
		go s.MemoryHistory.Navigate(context.Background(), "/next", history.NavigateOptions{})
		time.Sleep(20 * time.Millisecond)
	}
	return stale
}

func TestInitialLocationNotQueuedBehindNewerChange(t *testing.T) {
	store := &racingStore{MemoryHistory: history.NewMemoryHistory("/")}
	client := serve(t, store)

	deadline := time.Now().Add(2 * time.Second)
	for client.Location().Pathname != "/next" {
		if time.Now().After(deadline) {
			t.Fatalf("Location().Pathname = %q, want %q", client.Location().Pathname, "/next")
		}
		time.Sleep(time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)
	if got := client.Location().Pathname; got != "/next" {
		t.Errorf("Location().Pathname settled on %q, want %q", got, "/next")
	}
}
