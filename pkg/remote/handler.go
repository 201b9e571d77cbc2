package remote

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/vango-dev/wayfinder/pkg/history"
)

const (
	defaultWriteTimeout = 10 * time.Second
	defaultPingInterval = 30 * time.Second
	maxFrameSize        = 64 * 1024
)

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithLogger sets the handler logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithCheckOrigin sets the upgrade origin check. Default: allow all.
func WithCheckOrigin(check func(r *http.Request) bool) HandlerOption {
	return func(h *Handler) {
		h.upgrader.CheckOrigin = check
	}
}

// WithPingInterval sets how often the server pings idle clients. A client
// that misses two pings is dropped.
func WithPingInterval(d time.Duration) HandlerOption {
	return func(h *Handler) {
		h.pingInterval = d
	}
}

// WithConnectHook sets a function called with +1 when a client connects
// and -1 when it leaves.
func WithConnectHook(fn func(delta int)) HandlerOption {
	return func(h *Handler) {
		h.onConnect = fn
	}
}

// Handler serves a history.Store to WebSocket clients.
type Handler struct {
	store        history.Store
	upgrader     websocket.Upgrader
	logger       *slog.Logger
	writeTimeout time.Duration
	pingInterval time.Duration
	onConnect    func(delta int)
}

// NewHandler returns an http.Handler exposing store.
func NewHandler(store history.Store, opts ...HandlerOption) *Handler {
	h := &Handler{
		store: store,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		writeTimeout: defaultWriteTimeout,
		pingInterval: defaultPingInterval,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h
}

// ServeHTTP upgrades the request and serves frames until the client leaves.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	if h.onConnect != nil {
		h.onConnect(1)
		defer h.onConnect(-1)
	}

	s := &session{
		handler: h,
		conn:    conn,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		logger:  h.logger.With("session", uuid.NewString(), "remote", r.RemoteAddr),
	}
	s.serve(r.Context())
}

// session is one client connection. The read loop runs in ServeHTTP; a
// single writer goroutine drains the outbox so store listeners never block.
type session struct {
	handler *Handler
	conn    *websocket.Conn
	logger  *slog.Logger

	mu     sync.Mutex
	outbox []Frame
	wake   chan struct{}
	done   chan struct{}
}

func (s *session) serve(ctx context.Context) {
	s.logger.Debug("remote client connected")

	unsubscribe := s.handler.store.Listen(func(loc history.Location) {
		s.push(Frame{Type: FrameLocation, Location: encodeLocation(loc)})
	})
	s.pushCurrent()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.writeLoop()
	}()

	pongWait := 2 * s.handler.pingInterval
	s.conn.SetReadLimit(maxFrameSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var f Frame
		if err := s.conn.ReadJSON(&f); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("remote read failed", "error", err)
			}
			break
		}
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		s.handle(ctx, f)
	}

	unsubscribe()
	close(s.done)
	wg.Wait()
	s.conn.Close()
	s.logger.Debug("remote client disconnected")
}

func (s *session) handle(ctx context.Context, f Frame) {
	switch f.Type {
	case FrameNavigate:
		err := s.handler.store.Navigate(ctx, f.To, history.NavigateOptions{
			State:   f.State,
			Replace: f.Replace,
		})
		s.ack(f.ID, err)

	case FrameGo:
		stepper, ok := s.handler.store.(interface{ Go(delta int) error })
		if !ok {
			s.ack(f.ID, ErrUnsupported)
			return
		}
		s.ack(f.ID, stepper.Go(f.Delta))

	default:
		s.logger.Debug("unknown frame", "type", f.Type)
		if f.ID != 0 {
			s.ack(f.ID, fmt.Errorf("unknown frame type %q", f.Type))
		}
	}
}

func (s *session) ack(id uint64, err error) {
	f := Frame{Type: FrameAck, ID: id}
	if err != nil {
		f.Error = err.Error()
	}
	s.push(f)
}

// push queues f behind every frame queued before it.
func (s *session) push(f Frame) {
	s.mu.Lock()
	s.outbox = append(s.outbox, f)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// pushCurrent queues the store's current location. The read and the
// enqueue happen under one lock, so a change reported concurrently is
// queued after this frame and the client never ends on a stale location.
func (s *session) pushCurrent() {
	s.mu.Lock()
	loc := s.handler.store.Location()
	s.outbox = append(s.outbox, Frame{Type: FrameLocation, Location: encodeLocation(loc)})
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *session) drain() []Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	frames := s.outbox
	s.outbox = nil
	return frames
}

func (s *session) writeLoop() {
	ticker := time.NewTicker(s.handler.pingInterval)
	defer ticker.Stop()

	for {
		for _, f := range s.drain() {
			s.conn.SetWriteDeadline(time.Now().Add(s.handler.writeTimeout))
			if err := s.conn.WriteJSON(f); err != nil {
				s.logger.Debug("remote write failed", "error", err)
				s.conn.Close()
				return
			}
		}

		select {
		case <-s.wake:
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(s.handler.writeTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.conn.Close()
				return
			}
		case <-s.done:
			return
		}
	}
}
