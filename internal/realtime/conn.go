package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Conn is one live websocket connection. Items is a key/value context that
// lives as long as the connection.
type Conn struct {
	id     string
	hub    *Hub
	socket *websocket.Conn
	log    *zap.Logger

	send chan []byte
	done chan struct{}
	once sync.Once

	ctx    context.Context
	cancel context.CancelFunc

	// groups is guarded by hub.mu.
	groups map[string]struct{}

	itemsMu sync.RWMutex
	items   map[string]any
}

func newConn(hub *Hub, id string, socket *websocket.Conn, items map[string]any) *Conn {
	ctx, cancel := context.WithCancel(context.Background())
	cpy := make(map[string]any, len(items))
	for k, v := range items {
		cpy[k] = v
	}
	return &Conn{
		id:     id,
		hub:    hub,
		socket: socket,
		log:    hub.log.With(zap.String("conn_id", id)),
		send:   make(chan []byte, hub.opts.SendBuffer),
		done:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
		groups: make(map[string]struct{}),
		items:  cpy,
	}
}

// ID returns the connection identifier.
func (c *Conn) ID() string { return c.id }

// Context is cancelled when the connection closes.
func (c *Conn) Context() context.Context { return c.ctx }

// Get reads a connection item.
func (c *Conn) Get(key string) (any, bool) {
	c.itemsMu.RLock()
	defer c.itemsMu.RUnlock()
	v, ok := c.items[key]
	return v, ok
}

// Set stores a connection item.
func (c *Conn) Set(key string, value any) {
	c.itemsMu.Lock()
	defer c.itemsMu.Unlock()
	c.items[key] = value
}

// Delete removes a connection item.
func (c *Conn) Delete(key string) {
	c.itemsMu.Lock()
	defer c.itemsMu.Unlock()
	delete(c.items, key)
}

// Close terminates the connection. It never takes hub locks, so it is safe to
// call while delivering.
func (c *Conn) Close() {
	c.once.Do(func() {
		close(c.done)
		c.cancel()
		_ = c.socket.Close()
	})
}

// enqueue hands a frame to the writer without blocking; a full buffer closes the connection.
func (c *Conn) enqueue(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- payload:
		return true
	default:
		c.log.Warn("dropping slow realtime client", zap.Int("buffer", cap(c.send)))
		c.Close()
		return false
	}
}

func (c *Conn) readLoop() {
	defer c.Close()

	opts := c.hub.opts
	c.socket.SetReadLimit(opts.MaxMessageBytes)
	_ = c.socket.SetReadDeadline(time.Now().Add(opts.PongWait))
	c.socket.SetPongHandler(func(string) error {
		return c.socket.SetReadDeadline(time.Now().Add(opts.PongWait))
	})

	for {
		_, payload, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.log.Debug("unexpected realtime close", zap.Error(err))
			}
			return
		}
		if len(payload) == 0 {
			continue
		}

		var inv Invocation
		if err := json.Unmarshal(payload, &inv); err != nil || inv.Command == "" {
			c.hub.reject(c, inv.ID, "malformed invocation frame")
			continue
		}
		c.hub.invoke(c, inv)
	}
}

func (c *Conn) writeLoop() {
	opts := c.hub.opts
	ticker := time.NewTicker((opts.PongWait * 9) / 10)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case payload := <-c.send:
			_ = c.socket.SetWriteDeadline(time.Now().Add(opts.WriteWait))
			if err := c.socket.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.socket.SetWriteDeadline(time.Now().Add(opts.WriteWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.socket.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(opts.WriteWait))
			return
		}
	}
}
