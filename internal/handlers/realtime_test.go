package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ivgeniay/jointpresentation/internal/collab"
	"github.com/ivgeniay/jointpresentation/internal/handlers/testutil"
	"github.com/ivgeniay/jointpresentation/pkg/client"
)

func TestStreamRejectsInvalidTicket(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Get("/ws?ticket=not-a-ticket")
	require.Equal(t, http.StatusUnauthorized, w.Code, w.Body.String())
	require.Equal(t, "UNAUTHENTICATED", testutil.DecodeResponse(t, w).Error.Code)

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Authorization", "Bearer not-a-ticket")
	rec := httptest.NewRecorder()
	env.Router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func waitEvent(t *testing.T, cli *client.Client, name string) client.Event {
	t.Helper()

	timeout := time.After(3 * time.Second)
	for {
		select {
		case ev, ok := <-cli.Events():
			require.True(t, ok, "connection closed while waiting for %s", name)
			if ev.Name == name {
				return ev
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", name)
		}
	}
}

func TestStreamSessionRoundTrip(t *testing.T) {
	env := testutil.NewEnv(t)
	srv := httptest.NewServer(env.Router)
	t.Cleanup(srv.Close)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	alice, seeded := env.SeedPresentation("alice", "Roadmap", 0)

	first, err := client.Dial(ctx, wsURL)
	require.NoError(t, err)

	require.NoError(t, first.Invoke(ctx, "connectUser", "alice"))
	var ticket collab.SessionTicket
	require.NoError(t, waitEvent(t, first, collab.EventSessionTicket).Decode(&ticket))
	require.Equal(t, alice.ID, ticket.UserID)
	require.NotEmpty(t, ticket.Token)

	require.NoError(t, first.Invoke(ctx, "joinPresentation", seeded.ID))

	var room collab.RoomState
	testutil.DecodeInto(t, testutil.DecodeResponse(t, env.Get("/api/presentations/"+seeded.ID+"/session")).Data, &room)
	require.Len(t, room.Participants, 1)
	require.Equal(t, "alice", room.Participants[0].Nickname)
	require.True(t, room.Participants[0].CanEdit)

	require.NoError(t, first.Close())
	require.Eventually(t, func() bool {
		return len(env.Coordinator.Room(seeded.ID).Participants) == 0
	}, 3*time.Second, 10*time.Millisecond)

	resumed, err := client.Dial(ctx, wsURL, client.WithTicket(ticket.Token))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resumed.Close() })

	require.NoError(t, resumed.Invoke(ctx, "joinPresentation", seeded.ID))
	var joined collab.JoinedPresentation
	require.NoError(t, waitEvent(t, resumed, collab.EventJoinedPresentation).Decode(&joined))
	require.Equal(t, alice.ID, joined.User.UserID)
	require.True(t, joined.CanEdit)
}

func TestStreamRejectsCommandsBeforeIdentity(t *testing.T) {
	env := testutil.NewEnv(t)
	srv := httptest.NewServer(env.Router)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cli, err := client.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws")
	require.NoError(t, err)
	t.Cleanup(func() { _ = cli.Close() })

	err = cli.Invoke(ctx, "createPresentation", "Untitled")
	var invokeErr *client.Error
	require.ErrorAs(t, err, &invokeErr)
	require.Equal(t, "UNAUTHENTICATED", invokeErr.Code)
}
