package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	apperrors "github.com/ivgeniay/jointpresentation/pkg/errors"
	"github.com/ivgeniay/jointpresentation/pkg/logger"
	"github.com/ivgeniay/jointpresentation/pkg/metrics"
	"github.com/ivgeniay/jointpresentation/pkg/response"
)

const (
	defaultWriteWait      = 10 * time.Second
	defaultPongWait       = 60 * time.Second
	defaultMaxMessageSize = 1 << 20 // 1 MiB
	defaultBufferSize     = 64

	disconnectTimeout = 10 * time.Second
)

// ErrUnknownConnection is returned when a group operation names a closed connection.
var ErrUnknownConnection = errors.New("realtime: unknown connection")

// Options tunes connection buffering and liveness.
type Options struct {
	SendBuffer      int
	MaxMessageBytes int64
	WriteWait       time.Duration
	PongWait        time.Duration
	AllowedOrigins  []string
}

func (o Options) withDefaults() Options {
	if o.SendBuffer <= 0 {
		o.SendBuffer = defaultBufferSize
	}
	if o.MaxMessageBytes <= 0 {
		o.MaxMessageBytes = defaultMaxMessageSize
	}
	if o.WriteWait <= 0 {
		o.WriteWait = defaultWriteWait
	}
	if o.PongWait <= 0 {
		o.PongWait = defaultPongWait
	}
	return o
}

// Hub owns every live connection and the named broadcast groups they belong to.
type Hub struct {
	opts Options
	log  *zap.Logger

	handlerMu sync.RWMutex
	handler   Handler

	mu     sync.RWMutex
	conns  map[string]*Conn
	groups map[string]map[string]*Conn

	// deliverMu makes each fan-out atomic so all members of a group observe the same order.
	deliverMu sync.Mutex

	upgrader websocket.Upgrader
}

// NewHub constructs a realtime hub.
func NewHub(opts Options) *Hub {
	opts = opts.withDefaults()
	h := &Hub{
		opts:    opts,
		log:     logger.WithModule("realtime"),
		handler: NopHandler{},
		conns:   make(map[string]*Conn),
		groups:  make(map[string]map[string]*Conn),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// SetHandler installs the command handler. It must be called before serving.
func (h *Hub) SetHandler(handler Handler) {
	if handler == nil {
		handler = NopHandler{}
	}
	h.handlerMu.Lock()
	defer h.handlerMu.Unlock()
	h.handler = handler
}

func (h *Hub) currentHandler() Handler {
	h.handlerMu.RLock()
	defer h.handlerMu.RUnlock()
	return h.handler
}

// Serve upgrades the HTTP connection and blocks until it closes. items seeds the
// connection's key/value context.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, items map[string]any) {
	socket, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	conn := newConn(h, uuid.NewString(), socket, items)
	h.register(conn)
	conn.log.Debug("realtime connection opened", zap.String("remote", r.RemoteAddr))

	go conn.writeLoop()

	if err := h.currentHandler().HandleConnect(conn.Context(), conn); err != nil {
		h.reject(conn, "", err.Error())
	}

	conn.readLoop()

	h.unregister(conn)

	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	h.currentHandler().HandleDisconnect(ctx, conn)
	conn.log.Debug("realtime connection closed")
}

// SendToConnection delivers a message to one connection.
func (h *Hub) SendToConnection(connID string, msg Message) bool {
	payload, ok := h.encode(msg)
	if !ok {
		return false
	}

	h.deliverMu.Lock()
	defer h.deliverMu.Unlock()

	h.mu.RLock()
	conn := h.conns[connID]
	h.mu.RUnlock()
	if conn == nil {
		return false
	}
	return conn.enqueue(payload)
}

// SendToGroup delivers a message to every member of group and returns how many received it.
func (h *Hub) SendToGroup(group string, msg Message) int {
	group = normalizeGroup(group)
	payload, ok := h.encode(msg)
	if !ok {
		return 0
	}
	metrics.Broadcasts.WithLabelValues(msg.Event).Inc()

	h.deliverMu.Lock()
	defer h.deliverMu.Unlock()

	h.mu.RLock()
	members := make([]*Conn, 0, len(h.groups[group]))
	for _, conn := range h.groups[group] {
		members = append(members, conn)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, conn := range members {
		if conn.enqueue(payload) {
			delivered++
		}
	}
	return delivered
}

// AddToGroup subscribes a connection to a named group.
func (h *Hub) AddToGroup(connID, group string) error {
	group = normalizeGroup(group)
	if group == "" {
		return errors.New("realtime: group name is required")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	conn := h.conns[connID]
	if conn == nil {
		return ErrUnknownConnection
	}
	if h.groups[group] == nil {
		h.groups[group] = make(map[string]*Conn)
	}
	h.groups[group][connID] = conn
	conn.groups[group] = struct{}{}
	return nil
}

// RemoveFromGroup unsubscribes a connection; unknown connections are ignored.
func (h *Hub) RemoveFromGroup(connID, group string) {
	group = normalizeGroup(group)

	h.mu.Lock()
	defer h.mu.Unlock()

	if conn := h.conns[connID]; conn != nil {
		delete(conn.groups, group)
	}
	h.removeMemberLocked(connID, group)
}

// GroupSize reports the number of connections in group.
func (h *Hub) GroupSize(group string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[normalizeGroup(group)])
}

// ConnectionCount reports the number of live connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Shutdown closes every connection; their disconnect callbacks still run.
func (h *Hub) Shutdown() {
	h.mu.RLock()
	conns := make([]*Conn, 0, len(h.conns))
	for _, conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		conn.Close()
	}
}

func (h *Hub) register(conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn.id] = conn
	metrics.RealtimeConnections.Inc()
}

func (h *Hub) unregister(conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[conn.id]; !ok {
		return
	}
	for group := range conn.groups {
		h.removeMemberLocked(conn.id, group)
	}
	conn.groups = make(map[string]struct{})
	delete(h.conns, conn.id)
	metrics.RealtimeConnections.Dec()
}

func (h *Hub) removeMemberLocked(connID, group string) {
	members := h.groups[group]
	if members == nil {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(h.groups, group)
	}
}

// invoke runs one command and acknowledges it. Failures also produce an Error event for the caller only.
func (h *Hub) invoke(conn *Conn, inv Invocation) {
	err := h.safeHandle(conn, inv)

	result := "ok"
	completion := Completion{InvocationID: inv.ID, OK: err == nil}
	if err != nil {
		info := response.Info(err)
		result = info.Code
		completion.Error = info
		h.logCommandError(conn, inv, err)
		h.SendToConnection(conn.id, Message{Event: EventError, Data: info, InvocationID: inv.ID})
	}
	metrics.Commands.WithLabelValues(inv.Command, result).Inc()

	if inv.ID != "" {
		h.SendToConnection(conn.id, Message{Event: EventCompleted, Data: completion, InvocationID: inv.ID})
	}
}

func (h *Hub) safeHandle(conn *Conn, inv Invocation) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			conn.log.Error("realtime command panicked", zap.String("command", inv.Command), zap.Any("panic", rec))
			err = apperrors.ErrInternal
		}
	}()
	return h.currentHandler().HandleCommand(conn.Context(), conn, inv)
}

func (h *Hub) reject(conn *Conn, invocationID, message string) {
	info := response.Info(apperrors.NewInvalidArgument(message))
	h.SendToConnection(conn.id, Message{Event: EventError, Data: info, InvocationID: invocationID})
	if invocationID != "" {
		h.SendToConnection(conn.id, Message{
			Event:        EventCompleted,
			Data:         Completion{InvocationID: invocationID, OK: false, Error: info},
			InvocationID: invocationID,
		})
	}
}

func (h *Hub) logCommandError(conn *Conn, inv Invocation, err error) {
	fields := []zap.Field{zap.String("command", inv.Command), zap.Error(err)}
	switch apperrors.KindOf(err) {
	case apperrors.KindTransient, apperrors.KindInternal:
		conn.log.Warn("realtime command failed", fields...)
	default:
		conn.log.Debug("realtime command rejected", fields...)
	}
}

func (h *Hub) encode(msg Message) ([]byte, bool) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("encode realtime message", zap.String("event", msg.Event), zap.Error(err))
		return nil, false
	}
	return payload, true
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	originHost := hostWithoutPort(origin)
	for _, allowed := range h.opts.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(hostWithoutPort(allowed), originHost) {
			return true
		}
	}
	return originHost == hostWithoutPort(r.Host) || isLoopback(originHost)
}

func hostWithoutPort(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		return ""
	}

	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		parsed, err := http.NewRequest(http.MethodGet, host, nil)
		if err == nil {
			return hostWithoutPort(parsed.URL.Host)
		}
	}

	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

func isLoopback(host string) bool {
	ip := net.ParseIP(host)
	if ip != nil {
		return ip.IsLoopback()
	}
	return strings.EqualFold(host, "localhost")
}

func normalizeGroup(group string) string {
	return strings.TrimSpace(group)
}
