package collab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/ivgeniay/jointpresentation/internal/realtime"
	apperrors "github.com/ivgeniay/jointpresentation/pkg/errors"
)

// ItemSessionTicket is the connection item under which the websocket handler seeds a
// ticket presented at upgrade time.
const ItemSessionTicket = "collab.session_ticket"

type commandFunc func(ctx context.Context, sess *ConnectionContext, args []json.RawMessage) error

// Dispatcher adapts a Coordinator to the realtime hub.
type Dispatcher struct {
	coord    *Coordinator
	commands map[string]commandFunc
}

var _ realtime.Handler = (*Dispatcher)(nil)

// NewDispatcher builds the command table for coord.
func NewDispatcher(coord *Coordinator) *Dispatcher {
	d := &Dispatcher{coord: coord}
	d.commands = map[string]commandFunc{
		"connectUser": func(ctx context.Context, sess *ConnectionContext, args []json.RawMessage) error {
			var nickname string
			if err := decodeArgs("connectUser", args, &nickname); err != nil {
				return err
			}
			return coord.ConnectUser(ctx, sess, nickname)
		},
		"resumeSession": func(ctx context.Context, sess *ConnectionContext, args []json.RawMessage) error {
			var token string
			if err := decodeArgs("resumeSession", args, &token); err != nil {
				return err
			}
			return coord.ResumeSession(ctx, sess, token)
		},
		"createPresentation": func(ctx context.Context, sess *ConnectionContext, args []json.RawMessage) error {
			var title string
			if err := decodeArgs("createPresentation", args, &title); err != nil {
				return err
			}
			return coord.CreatePresentation(ctx, sess, title)
		},
		"deletePresentation": oneString("deletePresentation", coord.DeletePresentation),
		"joinPresentation":   oneString("joinPresentation", coord.JoinPresentation),
		"leavePresentation":  noArgs(coord.LeavePresentation),
		"addSlide":           noArgs(coord.AddSlide),
		"deleteSlide":        oneString("deleteSlide", coord.DeleteSlide),
		"reorderSlides": func(ctx context.Context, sess *ConnectionContext, args []json.RawMessage) error {
			var ids []string
			if err := decodeArgs("reorderSlides", args, &ids); err != nil {
				return err
			}
			return coord.ReorderSlides(ctx, sess, ids)
		},
		"addSlideElement": func(ctx context.Context, sess *ConnectionContext, args []json.RawMessage) error {
			var slideID string
			var properties propertiesArg
			if err := decodeArgs("addSlideElement", args, &slideID, &properties); err != nil {
				return err
			}
			return coord.AddSlideElement(ctx, sess, slideID, string(properties))
		},
		"updateSlideElement": func(ctx context.Context, sess *ConnectionContext, args []json.RawMessage) error {
			var elementID string
			var properties propertiesArg
			if err := decodeArgs("updateSlideElement", args, &elementID, &properties); err != nil {
				return err
			}
			return coord.UpdateSlideElement(ctx, sess, elementID, string(properties))
		},
		"deleteSlideElement": oneString("deleteSlideElement", coord.DeleteSlideElement),
		"grantEditorRights":  twoStrings("grantEditorRights", coord.GrantEditorRights),
		"removeEditorRights": twoStrings("removeEditorRights", coord.RemoveEditorRights),
		"startPresentation":  oneInt("startPresentation", coord.StartPresentation),
		"stopPresentation":   noArgs(coord.StopPresentation),
		"nextSlide":          noArgs(coord.NextSlide),
		"prevSlide":          noArgs(coord.PrevSlide),
		"goToSlide":          oneInt("goToSlide", coord.GoToSlide),
	}
	return d
}

// HandleConnect attaches a session and resumes a seeded ticket, if any. A bad ticket
// leaves the connection anonymous.
func (d *Dispatcher) HandleConnect(ctx context.Context, conn *realtime.Conn) error {
	sess := d.coord.Attach(conn.ID())

	value, ok := conn.Get(ItemSessionTicket)
	if !ok {
		return nil
	}
	if token, _ := value.(string); token != "" {
		if err := d.coord.ResumeSession(ctx, sess, token); err != nil {
			d.coord.ReportError(sess, err)
		}
	}
	return nil
}

// HandleCommand routes an invocation to the coordinator.
func (d *Dispatcher) HandleCommand(ctx context.Context, conn *realtime.Conn, inv realtime.Invocation) error {
	command, ok := d.commands[inv.Command]
	if !ok {
		return apperrors.NewInvalidArgument(fmt.Sprintf("Unknown command %q", inv.Command))
	}
	sess := d.coord.Session(conn.ID())
	if sess == nil {
		sess = d.coord.Attach(conn.ID())
	}
	return command(ctx, sess, inv.Args)
}

// HandleDisconnect runs the coordinator cleanup.
func (d *Dispatcher) HandleDisconnect(ctx context.Context, conn *realtime.Conn) {
	d.coord.Disconnect(ctx, d.coord.Session(conn.ID()))
}

// Commands lists the command names the dispatcher understands.
func (d *Dispatcher) Commands() []string {
	names := make([]string, 0, len(d.commands))
	for name := range d.commands {
		names = append(names, name)
	}
	return names
}

type sessionCommand func(ctx context.Context, sess *ConnectionContext) error

func noArgs(fn sessionCommand) commandFunc {
	return func(ctx context.Context, sess *ConnectionContext, _ []json.RawMessage) error {
		return fn(ctx, sess)
	}
}

func oneString(name string, fn func(context.Context, *ConnectionContext, string) error) commandFunc {
	return func(ctx context.Context, sess *ConnectionContext, args []json.RawMessage) error {
		var value string
		if err := decodeArgs(name, args, &value); err != nil {
			return err
		}
		return fn(ctx, sess, value)
	}
}

func twoStrings(name string, fn func(context.Context, *ConnectionContext, string, string) error) commandFunc {
	return func(ctx context.Context, sess *ConnectionContext, args []json.RawMessage) error {
		var first, second string
		if err := decodeArgs(name, args, &first, &second); err != nil {
			return err
		}
		return fn(ctx, sess, first, second)
	}
}

func oneInt(name string, fn func(context.Context, *ConnectionContext, int) error) commandFunc {
	return func(ctx context.Context, sess *ConnectionContext, args []json.RawMessage) error {
		var value int
		if err := decodeArgs(name, args, &value); err != nil {
			return err
		}
		return fn(ctx, sess, value)
	}
}

func decodeArgs(command string, args []json.RawMessage, dst ...any) error {
	if len(args) < len(dst) {
		return apperrors.NewInvalidArgument(fmt.Sprintf("%s expects %d argument(s)", command, len(dst)))
	}
	for i, target := range dst {
		if err := json.Unmarshal(args[i], target); err != nil {
			return apperrors.NewInvalidArgument(fmt.Sprintf("argument %d of %s is malformed", i+1, command)).WithInternal(err)
		}
	}
	return nil
}

// propertiesArg accepts element properties either as a JSON string or as an inline object.
type propertiesArg string

func (p *propertiesArg) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*p = propertiesArg(s)
		return nil
	}
	if bytes.Equal(trimmed, []byte("null")) {
		*p = ""
		return nil
	}
	*p = propertiesArg(trimmed)
	return nil
}
