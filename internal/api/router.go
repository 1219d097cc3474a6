package api

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/ivgeniay/jointpresentation/internal/app"
	"github.com/ivgeniay/jointpresentation/internal/auth"
	"github.com/ivgeniay/jointpresentation/internal/collab"
	"github.com/ivgeniay/jointpresentation/internal/handlers"
	"github.com/ivgeniay/jointpresentation/internal/middleware"
	"github.com/ivgeniay/jointpresentation/internal/realtime"
	"github.com/ivgeniay/jointpresentation/internal/services"
)

// Dependencies bundles what the HTTP surface reads from.
type Dependencies struct {
	Config        *app.Config
	DB            *gorm.DB
	Users         *services.UserService
	Presentations *services.PresentationService
	Slides        *services.SlideService
	Coordinator   *collab.Coordinator
	Hub           *realtime.Hub
	Tickets       *auth.TicketService
}

func (d Dependencies) validate() error {
	switch {
	case d.Config == nil:
		return fmt.Errorf("config must be provided")
	case d.DB == nil:
		return fmt.Errorf("database handle must be provided")
	case d.Users == nil || d.Presentations == nil || d.Slides == nil:
		return fmt.Errorf("services must be provided")
	case d.Coordinator == nil:
		return fmt.Errorf("coordinator must be provided")
	case d.Hub == nil:
		return fmt.Errorf("realtime hub must be provided")
	case d.Tickets == nil:
		return fmt.Errorf("ticket service must be provided")
	}
	return nil
}

// NewRouter builds the Gin engine, wires middleware and registers the query and realtime routes.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	cfg := deps.Config

	r := gin.New()
	r.HandleMethodNotAllowed = true

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders(cfg.Server.AllowedOrigins...))
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins...))

	registerHealthRoutes(r, handlers.NewHealthHandler(deps.DB, deps.Hub.ConnectionCount))
	registerRealtimeRoutes(r, handlers.NewRealtimeHandler(deps.Hub, deps.Tickets))

	api := r.Group("/api")
	api.Use(middleware.RateLimit(cfg.Server.RateLimit.Requests, cfg.Server.RateLimit.Window))

	registerPresentationRoutes(api, handlers.NewPresentationHandler(deps.Presentations, deps.Slides, deps.Coordinator))
	registerSlideRoutes(api, handlers.NewSlideHandler(deps.Slides))
	registerUserRoutes(api, handlers.NewUserHandler(deps.Users, deps.Presentations))

	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := strings.TrimSpace(cfg.Monitoring.Prometheus.Endpoint)
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	r.NoRoute(middleware.NotFoundHandler)
	r.NoMethod(middleware.MethodNotAllowedHandler)

	return r, nil
}
