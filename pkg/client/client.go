package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
)

const eventCompleted = "Completed"

// EventError carries a rejected command's code and message to its caller only.
const EventError = "Error"

// ErrClosed is returned by Invoke once the connection is gone.
var ErrClosed = errors.New("client: connection closed")

// Event is a server frame other than an invocation acknowledgement.
type Event struct {
	Name         string          `json:"event"`
	Data         json.RawMessage `json:"data,omitempty"`
	InvocationID string          `json:"invocationId,omitempty"`
}

// Decode unmarshals the event payload into v.
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.Data, v)
}

// Error is a command failure reported by the server.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type invocation struct {
	ID      string            `json:"id"`
	Command string            `json:"command"`
	Args    []json.RawMessage `json:"args"`
}

type completion struct {
	InvocationID string `json:"invocationId"`
	OK           bool   `json:"ok"`
	Error        *Error `json:"error,omitempty"`
}

type config struct {
	ticket      string
	header      http.Header
	eventBuffer int
	dialer      *websocket.Dialer
}

// Option customises Dial.
type Option func(*config)

// WithTicket resumes a session at connect time.
func WithTicket(token string) Option {
	return func(c *config) { c.ticket = token }
}

// WithHeader sets request headers for the upgrade, e.g. Origin.
func WithHeader(header http.Header) Option {
	return func(c *config) { c.header = header }
}

// WithEventBuffer sizes the Events channel.
func WithEventBuffer(n int) Option {
	return func(c *config) { c.eventBuffer = n }
}

// WithDialer replaces websocket.DefaultDialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *config) { c.dialer = d }
}

// Client is a connection to the realtime endpoint. Invoke may be called from several
// goroutines; events are delivered in arrival order on Events.
type Client struct {
	conn   *websocket.Conn
	events chan Event

	writeMu sync.Mutex
	nextID  atomic.Uint64

	waitersMu sync.Mutex
	waiters   map[string]chan completion

	done      chan struct{}
	closeOnce sync.Once
	err       error
}

// Dial connects to rawURL (ws:// or wss://).
func Dial(ctx context.Context, rawURL string, opts ...Option) (*Client, error) {
	cfg := config{eventBuffer: 256, dialer: websocket.DefaultDialer}
	for _, opt := range opts {
		opt(&cfg)
	}

	target, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("client: parse url: %w", err)
	}
	if cfg.ticket != "" {
		query := target.Query()
		query.Set("ticket", cfg.ticket)
		target.RawQuery = query.Encode()
	}

	conn, _, err := cfg.dialer.DialContext(ctx, target.String(), cfg.header)
	if err != nil {
		return nil, fmt.Errorf("client: dial: %w", err)
	}

	c := &Client{
		conn:    conn,
		events:  make(chan Event, cfg.eventBuffer),
		waiters: make(map[string]chan completion),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Events streams server events. It is closed when the connection ends.
func (c *Client) Events() <-chan Event { return c.events }

// Done is closed when the connection ends.
func (c *Client) Done() <-chan struct{} { return c.done }

// Err reports why the connection ended.
func (c *Client) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

// Invoke sends a command and waits for its acknowledgement. A rejected command
// returns *Error.
func (c *Client) Invoke(ctx context.Context, command string, args ...any) error {
	raw := make([]json.RawMessage, 0, len(args))
	for i, arg := range args {
		encoded, err := json.Marshal(arg)
		if err != nil {
			return fmt.Errorf("client: encode argument %d: %w", i+1, err)
		}
		raw = append(raw, encoded)
	}

	id := strconv.FormatUint(c.nextID.Add(1), 10)
	wait := make(chan completion, 1)

	c.waitersMu.Lock()
	c.waiters[id] = wait
	c.waitersMu.Unlock()
	defer func() {
		c.waitersMu.Lock()
		delete(c.waiters, id)
		c.waitersMu.Unlock()
	}()

	c.writeMu.Lock()
	err := c.conn.WriteJSON(invocation{ID: id, Command: command, Args: raw})
	c.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("client: send %s: %w", command, err)
	}

	select {
	case result := <-wait:
		if !result.OK {
			if result.Error == nil {
				return &Error{Code: "UNKNOWN", Message: "command failed"}
			}
			return result.Error
		}
		return nil
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close ends the connection.
func (c *Client) Close() error {
	c.writeMu.Lock()
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	err := c.conn.Close()
	c.finish(nil)
	return err
}

func (c *Client) readLoop() {
	defer close(c.events)

	for {
		var ev Event
		if err := c.conn.ReadJSON(&ev); err != nil {
			c.finish(err)
			return
		}

		if ev.Name == eventCompleted {
			var result completion
			if err := json.Unmarshal(ev.Data, &result); err == nil {
				c.resolve(result)
			}
			continue
		}

		select {
		case c.events <- ev:
		case <-c.done:
			return
		}
	}
}

func (c *Client) resolve(result completion) {
	c.waitersMu.Lock()
	wait := c.waiters[result.InvocationID]
	c.waitersMu.Unlock()
	if wait == nil {
		return
	}
	select {
	case wait <- result:
	default:
	}
}

func (c *Client) finish(err error) {
	c.closeOnce.Do(func() {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			err = nil
		}
		c.err = err
		close(c.done)
	})
}
