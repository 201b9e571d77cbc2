package remote

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vango-dev/wayfinder/pkg/history"
)

// Client is a history.Store whose stack lives on a remote server.
type Client struct {
	conn   *websocket.Conn
	logger *slog.Logger

	writeMu sync.Mutex

	mu        sync.Mutex
	loc       history.Location
	listeners []clientListener
	nextLID   uint64
	pending   map[uint64]chan error
	nextID    uint64
	closed    bool

	done      chan struct{}
	closeOnce sync.Once
}

type clientListener struct {
	id uint64
	fn func(history.Location)
}

var _ history.Store = (*Client)(nil)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithClientLogger sets the client logger. Default: slog.Default().
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// Dial connects to a Handler at url ("ws://host/ws") and waits for the
// server's current location.
func Dial(ctx context.Context, url string, opts ...ClientOption) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	c := &Client{
		conn:    conn,
		pending: make(map[uint64]chan error),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	stop := context.AfterFunc(ctx, func() {
		conn.SetReadDeadline(time.Now())
	})
	var first Frame
	err = conn.ReadJSON(&first)
	stop()
	if err != nil {
		conn.Close()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("read initial location: %w", err)
	}
	if first.Type != FrameLocation || first.Location == nil {
		conn.Close()
		return nil, fmt.Errorf("read initial location: unexpected %q frame", first.Type)
	}
	conn.SetReadDeadline(time.Time{})
	c.loc = decodeLocation(first.Location)

	go c.readLoop()
	return c, nil
}

// Location returns the last location the server reported.
func (c *Client) Location() history.Location {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loc
}

// Listen registers fn for every location the server reports. fn runs on
// the client's read goroutine.
func (c *Client) Listen(fn func(history.Location)) func() {
	c.mu.Lock()
	id := c.nextLID
	c.nextLID++
	c.listeners = append(c.listeners, clientListener{id: id, fn: fn})
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			for i, l := range c.listeners {
				if l.id == id {
					c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// Navigate asks the server to navigate and waits for its ack. Listeners
// have seen the resulting location by the time Navigate returns nil.
func (c *Client) Navigate(ctx context.Context, to string, opts history.NavigateOptions) error {
	return c.request(ctx, Frame{
		Type:    FrameNavigate,
		To:      to,
		Replace: opts.Replace,
		State:   opts.State,
	})
}

// Go asks the server to move its cursor by delta.
func (c *Client) Go(ctx context.Context, delta int) error {
	return c.request(ctx, Frame{Type: FrameGo, Delta: delta})
}

// Done is closed when the connection ends.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close ends the connection. Pending requests fail with ErrClosed.
func (c *Client) Close() error {
	c.writeMu.Lock()
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()
	c.shutdown()
	return nil
}

func (c *Client) request(ctx context.Context, f Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.nextID++
	f.ID = c.nextID
	ch := make(chan error, 1)
	c.pending[f.ID] = ch
	c.mu.Unlock()

	deadline, _ := ctx.Deadline()
	c.writeMu.Lock()
	c.conn.SetWriteDeadline(deadline)
	err := c.conn.WriteJSON(f)
	c.writeMu.Unlock()
	if err != nil {
		c.forget(f.ID)
		return fmt.Errorf("send %s: %w", f.Type, err)
	}

	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		c.forget(f.ID)
		return ctx.Err()
	case <-c.done:
		return ErrClosed
	}
}

func (c *Client) forget(id uint64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *Client) readLoop() {
	defer c.shutdown()

	for {
		var f Frame
		if err := c.conn.ReadJSON(&f); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn("remote read failed", "error", err)
			}
			return
		}

		switch f.Type {
		case FrameLocation:
			if f.Location == nil {
				continue
			}
			loc := decodeLocation(f.Location)
			c.mu.Lock()
			c.loc = loc
			fns := make([]func(history.Location), len(c.listeners))
			for i, l := range c.listeners {
				fns[i] = l.fn
			}
			c.mu.Unlock()
			for _, fn := range fns {
				fn(loc)
			}

		case FrameAck:
			c.mu.Lock()
			ch, ok := c.pending[f.ID]
			delete(c.pending, f.ID)
			c.mu.Unlock()
			if !ok {
				continue
			}
			if f.Error != "" {
				ch <- &Error{Message: f.Error}
			} else {
				ch <- nil
			}

		default:
			c.logger.Debug("unknown frame", "type", f.Type)
		}
	}
}

func (c *Client) shutdown() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		for id, ch := range c.pending {
			ch <- ErrClosed
			delete(c.pending, id)
		}
		c.mu.Unlock()
		close(c.done)
		c.conn.Close()
	})
}
