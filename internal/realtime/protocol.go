package realtime

import (
	"context"
	"encoding/json"

	"github.com/ivgeniay/jointpresentation/pkg/response"
)

// Protocol level events emitted by the hub itself.
const (
	EventError     = "Error"
	EventCompleted = "Completed"
)

// Invocation is a client command frame: {"id","command","args":[...]}.
type Invocation struct {
	ID      string            `json:"id"`
	Command string            `json:"command"`
	Args    []json.RawMessage `json:"args"`
}

// Message is a server event frame: {"event","data","invocationId"}.
type Message struct {
	Event        string `json:"event"`
	Data         any    `json:"data,omitempty"`
	InvocationID string `json:"invocationId,omitempty"`
}

// Completion acknowledges an invocation once its handler has returned.
type Completion struct {
	InvocationID string              `json:"invocationId"`
	OK           bool                `json:"ok"`
	Error        *response.ErrorInfo `json:"error,omitempty"`
}

// Handler receives connection lifecycle callbacks and commands. Commands from a
// single connection are delivered sequentially; different connections run concurrently.
type Handler interface {
	HandleConnect(ctx context.Context, conn *Conn) error
	HandleCommand(ctx context.Context, conn *Conn, inv Invocation) error
	HandleDisconnect(ctx context.Context, conn *Conn)
}

// NopHandler accepts connections and rejects nothing.
type NopHandler struct{}

func (NopHandler) HandleConnect(context.Context, *Conn) error { return nil }

func (NopHandler) HandleCommand(context.Context, *Conn, Invocation) error { return nil }

func (NopHandler) HandleDisconnect(context.Context, *Conn) {}
