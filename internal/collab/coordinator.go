package collab

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/ivgeniay/jointpresentation/internal/auth"
	"github.com/ivgeniay/jointpresentation/internal/models"
	"github.com/ivgeniay/jointpresentation/internal/realtime"
	apperrors "github.com/ivgeniay/jointpresentation/pkg/errors"
	"github.com/ivgeniay/jointpresentation/pkg/logger"
	"github.com/ivgeniay/jointpresentation/pkg/metrics"
	"github.com/ivgeniay/jointpresentation/pkg/response"
)

// Transport is the slice of the realtime hub the coordinator talks to.
type Transport interface {
	SendToConnection(connID string, msg realtime.Message) bool
	SendToGroup(group string, msg realtime.Message) int
	AddToGroup(connID, group string) error
	RemoveFromGroup(connID, group string)
}

// UserStore resolves nickname identities.
type UserStore interface {
	GetOrCreate(ctx context.Context, nickname string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// PresentationStore persists presentations and editor relations.
type PresentationStore interface {
	Create(ctx context.Context, title, creatorID string) (*models.Presentation, error)
	Get(ctx context.Context, id string) (*models.Presentation, error)
	Find(ctx context.Context, id string) (*models.Presentation, error)
	Delete(ctx context.Context, id string) error
	CanEdit(ctx context.Context, presentationID, userID string) (bool, error)
	AddEditor(ctx context.Context, presentationID, userID string) error
	RemoveEditor(ctx context.Context, presentationID, userID string) error
}

// SlideStore persists slides and their elements.
type SlideStore interface {
	Count(ctx context.Context, presentationID string) (int, error)
	Get(ctx context.Context, id string) (*models.Slide, error)
	Add(ctx context.Context, presentationID string) (*models.Slide, error)
	Delete(ctx context.Context, id string) error
	Reorder(ctx context.Context, presentationID string, slideIDs []string) ([]models.Slide, error)
	AddElement(ctx context.Context, slideID, createdByID, properties string) (*models.SlideElement, error)
	GetElement(ctx context.Context, id string) (*models.SlideElement, error)
	UpdateElement(ctx context.Context, id, properties string) (*models.SlideElement, error)
	DeleteElement(ctx context.Context, id string) error
}

// TicketIssuer signs and checks session tickets.
type TicketIssuer interface {
	Issue(userID, nickname string) (*auth.Ticket, error)
	Validate(token string) (*auth.Claims, error)
}

// Dependencies wires a Coordinator. Presence and Modes default to fresh registries;
// Tickets is optional and disables resumeSession when nil.
type Dependencies struct {
	Transport     Transport
	Users         UserStore
	Presentations PresentationStore
	Slides        SlideStore
	Tickets       TicketIssuer
	Presence      *Presence
	Modes         *Modes
	Logger        *zap.Logger
}

// RoomState is the live view of one presentation.
type RoomState struct {
	PresentationID string        `json:"presentationId"`
	Participants   []Participant `json:"participants"`
	Mode           ModeState     `json:"mode"`
}

// Coordinator authorises commands, mutates presence and mode state and emits the
// resulting events. Room broadcasts are issued while holding the room's order lock so
// registry changes and their events reach every member in the same sequence; the
// transport only enqueues, it never blocks on the network.
type Coordinator struct {
	transport     Transport
	users         UserStore
	presentations PresentationStore
	slides        SlideStore
	tickets       TicketIssuer
	presence      *Presence
	modes         *Modes
	log           *zap.Logger

	order *keyedMutex

	sessionsMu sync.RWMutex
	sessions   map[string]*ConnectionContext
	online     map[string]int
}

// NewCoordinator validates deps and builds a Coordinator.
func NewCoordinator(deps Dependencies) (*Coordinator, error) {
	switch {
	case deps.Transport == nil:
		return nil, errors.New("collab: transport is required")
	case deps.Users == nil:
		return nil, errors.New("collab: user store is required")
	case deps.Presentations == nil:
		return nil, errors.New("collab: presentation store is required")
	case deps.Slides == nil:
		return nil, errors.New("collab: slide store is required")
	}

	if deps.Presence == nil {
		deps.Presence = NewPresence()
	}
	if deps.Modes == nil {
		deps.Modes = NewModes(nil)
	}
	if deps.Logger == nil {
		deps.Logger = logger.WithModule("collab")
	}

	return &Coordinator{
		transport:     deps.Transport,
		users:         deps.Users,
		presentations: deps.Presentations,
		slides:        deps.Slides,
		tickets:       deps.Tickets,
		presence:      deps.Presence,
		modes:         deps.Modes,
		log:           deps.Logger,
		order:         newKeyedMutex(),
		sessions:      make(map[string]*ConnectionContext),
		online:        make(map[string]int),
	}, nil
}

// Attach registers a new anonymous connection.
func (c *Coordinator) Attach(connID string) *ConnectionContext {
	sess := NewConnectionContext(connID)

	c.sessionsMu.Lock()
	c.sessions[connID] = sess
	c.sessionsMu.Unlock()
	return sess
}

// Session returns the context of a live connection, nil once detached.
func (c *Coordinator) Session(connID string) *ConnectionContext {
	c.sessionsMu.RLock()
	defer c.sessionsMu.RUnlock()
	return c.sessions[connID]
}

// Room reports presence and mode for a presentation.
func (c *Coordinator) Room(presentationID string) RoomState {
	return RoomState{
		PresentationID: presentationID,
		Participants:   c.presence.Snapshot(presentationID),
		Mode:           c.modes.State(presentationID),
	}
}

// Disconnect runs the best-effort cleanup for a closed connection. It never fails.
func (c *Coordinator) Disconnect(_ context.Context, sess *ConnectionContext) {
	if sess == nil {
		return
	}

	c.sessionsMu.Lock()
	delete(c.sessions, sess.ConnID())
	c.sessionsMu.Unlock()

	userID, nickname, ok := sess.Identity()
	if !ok {
		return
	}
	c.leaveRoom(sess, userID, nickname, sess.clearPresentation())

	if c.markOffline(userID) {
		c.toAll(EventUserDisconnected, UserPresence{UserID: userID, Nickname: nickname})
	}
}

// ReportError sends err to the connection only.
func (c *Coordinator) ReportError(sess *ConnectionContext, err error) {
	if sess == nil || err == nil {
		return
	}
	c.transport.SendToConnection(sess.ConnID(), realtime.Message{Event: realtime.EventError, Data: response.Info(err)})
}

func requireIdentity(sess *ConnectionContext) (userID, nickname string, err error) {
	if sess == nil {
		return "", "", apperrors.ErrUnauthenticated
	}
	userID, nickname, ok := sess.Identity()
	if !ok {
		return "", "", apperrors.ErrUnauthenticated
	}
	return userID, nickname, nil
}

func requireRoom(sess *ConnectionContext) (userID, nickname, presentationID string, err error) {
	userID, nickname, err = requireIdentity(sess)
	if err != nil {
		return "", "", "", err
	}
	presentationID = sess.PresentationID()
	if presentationID == "" {
		return "", "", "", errNotInRoom
	}
	return userID, nickname, presentationID, nil
}

func (c *Coordinator) requireCreator(ctx context.Context, presentationID, userID string) (*models.Presentation, error) {
	presentation, err := c.presentations.Find(ctx, presentationID)
	if err != nil {
		return nil, err
	}
	if !presentation.IsCreator(userID) {
		return nil, apperrors.ErrUnauthorized
	}
	return presentation, nil
}

func (c *Coordinator) requireEditor(ctx context.Context, presentationID, userID string) error {
	canEdit, err := c.presentations.CanEdit(ctx, presentationID, userID)
	if err != nil {
		return err
	}
	if !canEdit {
		return apperrors.ErrUnauthorized
	}
	return nil
}

func (c *Coordinator) toCaller(sess *ConnectionContext, event string, data any) {
	c.transport.SendToConnection(sess.ConnID(), realtime.Message{Event: event, Data: data})
}

func (c *Coordinator) toRoom(presentationID, event string, data any) {
	c.transport.SendToGroup(PresentationGroup(presentationID), realtime.Message{Event: event, Data: data})
}

func (c *Coordinator) toAll(event string, data any) {
	c.transport.SendToGroup(GroupGlobalUsers, realtime.Message{Event: event, Data: data})
}

func (c *Coordinator) roomList(presentationID string, users []Participant) {
	c.toRoom(presentationID, EventConnectedUsersListUpdated, ConnectedUsersListUpdated{
		PresentationID: presentationID,
		Users:          users,
	})
}

func (c *Coordinator) markOnline(userID string) bool {
	c.sessionsMu.Lock()
	defer c.sessionsMu.Unlock()
	c.online[userID]++
	return c.online[userID] == 1
}

func (c *Coordinator) markOffline(userID string) bool {
	c.sessionsMu.Lock()
	defer c.sessionsMu.Unlock()

	n, ok := c.online[userID]
	if !ok {
		return false
	}
	if n <= 1 {
		delete(c.online, userID)
		return true
	}
	c.online[userID] = n - 1
	return false
}

func (c *Coordinator) observe() {
	metrics.PresenceRooms.Set(float64(c.presence.RoomCount()))
	metrics.PresentingSessions.Set(float64(c.modes.Count()))
}
