package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ivgeniay/jointpresentation/internal/api"
	"github.com/ivgeniay/jointpresentation/internal/app"
	"github.com/ivgeniay/jointpresentation/internal/auth"
	"github.com/ivgeniay/jointpresentation/internal/collab"
	sharedtestutil "github.com/ivgeniay/jointpresentation/internal/database/testutil"
	"github.com/ivgeniay/jointpresentation/internal/models"
	"github.com/ivgeniay/jointpresentation/internal/realtime"
	"github.com/ivgeniay/jointpresentation/internal/services"
	"github.com/ivgeniay/jointpresentation/pkg/response"
)

// Env encapsulates a fully-wired API instance backed by an in-memory database for handler tests.
type Env struct {
	T             *testing.T
	DB            *gorm.DB
	Config        *app.Config
	Router        *gin.Engine
	Users         *services.UserService
	Presentations *services.PresentationService
	Slides        *services.SlideService
	Tickets       *auth.TicketService
	Hub           *realtime.Hub
	Coordinator   *collab.Coordinator
}

// NewEnv provisions a fresh handler test environment with migrations applied.
func NewEnv(t *testing.T) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithAutoMigrate())

	cfg := &app.Config{
		Auth: app.AuthConfig{
			Ticket: app.TicketSettings{Secret: "handler-suite-secret", Issuer: "deck-test", TTL: time.Hour},
		},
	}
	cfg.Monitoring.Prometheus.Enabled = true
	cfg.Monitoring.Prometheus.Endpoint = "/metrics"

	limits := cfg.Presentation.Limits()
	users, err := services.NewUserService(db, limits)
	require.NoError(t, err)
	presentations, err := services.NewPresentationService(db, limits)
	require.NoError(t, err)
	slides, err := services.NewSlideService(db)
	require.NoError(t, err)

	tickets, err := auth.NewTicketService(cfg.Auth.TicketConfig())
	require.NoError(t, err)

	hub := realtime.NewHub(cfg.Realtime.Options(nil))
	t.Cleanup(hub.Shutdown)

	coord, err := collab.NewCoordinator(collab.Dependencies{
		Transport:     hub,
		Users:         users,
		Presentations: presentations,
		Slides:        slides,
		Tickets:       tickets,
	})
	require.NoError(t, err)
	hub.SetHandler(collab.NewDispatcher(coord))

	router, err := api.NewRouter(api.Dependencies{
		Config:        cfg,
		DB:            db,
		Users:         users,
		Presentations: presentations,
		Slides:        slides,
		Coordinator:   coord,
		Hub:           hub,
		Tickets:       tickets,
	})
	require.NoError(t, err)

	return &Env{
		T:             t,
		DB:            db,
		Config:        cfg,
		Router:        router,
		Users:         users,
		Presentations: presentations,
		Slides:        slides,
		Tickets:       tickets,
		Hub:           hub,
		Coordinator:   coord,
	}
}

// SeedPresentation creates a user and a presentation with one default slide plus extraSlides more.
func (e *Env) SeedPresentation(nickname, title string, extraSlides int) (*models.User, *models.Presentation) {
	e.T.Helper()

	ctx := e.T.Context()
	user, err := e.Users.GetOrCreate(ctx, nickname)
	require.NoError(e.T, err)

	presentation, err := e.Presentations.Create(ctx, title, user.ID)
	require.NoError(e.T, err)

	for i := 0; i < extraSlides; i++ {
		_, err := e.Slides.Add(ctx, presentation.ID)
		require.NoError(e.T, err)
	}

	presentation, err = e.Presentations.Get(ctx, presentation.ID)
	require.NoError(e.T, err)
	return user, presentation
}

// APIResponse represents the canonical API envelope returned by handlers.
type APIResponse struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
	Meta    *response.Meta      `json:"meta"`
}

// DecodeResponse parses the standard API response object from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeInto unmarshals the data payload into the provided destination.
func DecodeInto[T any](t *testing.T, raw json.RawMessage, dest *T) {
	t.Helper()
	if dest == nil {
		t.Fatal("destination must not be nil")
	}
	require.NoError(t, json.Unmarshal(raw, dest))
}

// Get executes a GET request against the test router.
func (e *Env) Get(path string) *httptest.ResponseRecorder {
	e.T.Helper()

	req, err := http.NewRequest(http.MethodGet, path, nil)
	require.NoError(e.T, err)

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}
