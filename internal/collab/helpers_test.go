package collab

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ivgeniay/jointpresentation/internal/auth"
	"github.com/ivgeniay/jointpresentation/internal/database/testutil"
	"github.com/ivgeniay/jointpresentation/internal/models"
	"github.com/ivgeniay/jointpresentation/internal/realtime"
	"github.com/ivgeniay/jointpresentation/internal/services"
)

type groupMessage struct {
	group string
	msg   realtime.Message
}

// recordingTransport delivers group messages into per-connection inboxes the way the hub does.
type recordingTransport struct {
	mu       sync.Mutex
	groups   map[string]map[string]struct{}
	inbox    map[string][]realtime.Message
	groupLog []groupMessage
}

func newRecordingTransport() *recordingTransport {
	return &recordingTransport{
		groups: make(map[string]map[string]struct{}),
		inbox:  make(map[string][]realtime.Message),
	}
}

func (r *recordingTransport) SendToConnection(connID string, msg realtime.Message) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inbox[connID] = append(r.inbox[connID], msg)
	return true
}

func (r *recordingTransport) SendToGroup(group string, msg realtime.Message) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groupLog = append(r.groupLog, groupMessage{group: group, msg: msg})
	for connID := range r.groups[group] {
		r.inbox[connID] = append(r.inbox[connID], msg)
	}
	return len(r.groups[group])
}

func (r *recordingTransport) AddToGroup(connID, group string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.groups[group] == nil {
		r.groups[group] = make(map[string]struct{})
	}
	r.groups[group][connID] = struct{}{}
	return nil
}

func (r *recordingTransport) RemoveFromGroup(connID, group string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.groups[group], connID)
}

func (r *recordingTransport) events(connID string) []realtime.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]realtime.Message(nil), r.inbox[connID]...)
}

func (r *recordingTransport) named(connID, event string) []realtime.Message {
	var out []realtime.Message
	for _, msg := range r.events(connID) {
		if msg.Event == event {
			out = append(out, msg)
		}
	}
	return out
}

func (r *recordingTransport) broadcasts() []groupMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]groupMessage(nil), r.groupLog...)
}

func (r *recordingTransport) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inbox = make(map[string][]realtime.Message)
	r.groupLog = nil
}

func (r *recordingTransport) inGroup(connID, group string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.groups[group][connID]
	return ok
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	coord         *Coordinator
	transport     *recordingTransport
	clock         *fakeClock
	presentations *services.PresentationService
	slides        *services.SlideService
	tickets       *auth.TicketService
	ctx           context.Context

	mu    sync.Mutex
	conns int
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	users, err := services.NewUserService(db, services.DefaultLimits)
	require.NoError(t, err)
	presentations, err := services.NewPresentationService(db, services.DefaultLimits)
	require.NoError(t, err)
	slides, err := services.NewSlideService(db)
	require.NoError(t, err)

	clock := &fakeClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	tickets, err := auth.NewTicketService(auth.TicketConfig{Secret: "test-secret", Issuer: "deck", Clock: clock.Now})
	require.NoError(t, err)

	transport := newRecordingTransport()
	coord, err := NewCoordinator(Dependencies{
		Transport:     transport,
		Users:         users,
		Presentations: presentations,
		Slides:        slides,
		Tickets:       tickets,
		Modes:         NewModes(clock.Now),
	})
	require.NoError(t, err)

	return &harness{
		coord:         coord,
		transport:     transport,
		clock:         clock,
		presentations: presentations,
		slides:        slides,
		tickets:       tickets,
		ctx:           context.Background(),
	}
}

// open attaches a new anonymous connection.
func (h *harness) open() *ConnectionContext {
	h.mu.Lock()
	h.conns++
	id := fmt.Sprintf("conn-%d", h.conns)
	h.mu.Unlock()
	return h.coord.Attach(id)
}

// connect opens a connection and performs the nickname handshake.
func (h *harness) connect(t *testing.T, nickname string) *ConnectionContext {
	t.Helper()
	sess := h.open()
	require.NoError(t, h.coord.ConnectUser(h.ctx, sess, nickname))
	return sess
}

func userID(t *testing.T, sess *ConnectionContext) string {
	t.Helper()
	id, _, ok := sess.Identity()
	require.True(t, ok)
	return id
}

// create makes a presentation owned by sess and returns it with its slides.
func (h *harness) create(t *testing.T, sess *ConnectionContext, title string, extraSlides int) *models.Presentation {
	t.Helper()
	require.NoError(t, h.coord.CreatePresentation(h.ctx, sess, title))

	created := h.transport.named(sess.ConnID(), EventPresentationCreated)
	require.NotEmpty(t, created)
	payload := created[len(created)-1].Data.(PresentationCreated)

	for i := 0; i < extraSlides; i++ {
		_, err := h.slides.Add(h.ctx, payload.Presentation.ID)
		require.NoError(t, err)
	}

	presentation, err := h.presentations.Get(h.ctx, payload.Presentation.ID)
	require.NoError(t, err)
	return presentation
}

func (h *harness) join(t *testing.T, sess *ConnectionContext, presentationID string) JoinedPresentation {
	t.Helper()
	require.NoError(t, h.coord.JoinPresentation(h.ctx, sess, presentationID))
	joined := h.transport.named(sess.ConnID(), EventJoinedPresentation)
	require.NotEmpty(t, joined)
	return joined[len(joined)-1].Data.(JoinedPresentation)
}
