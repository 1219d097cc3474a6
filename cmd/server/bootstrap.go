package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ivgeniay/jointpresentation/internal/api"
	"github.com/ivgeniay/jointpresentation/internal/app"
	"github.com/ivgeniay/jointpresentation/internal/app/maintenance"
	"github.com/ivgeniay/jointpresentation/internal/auth"
	"github.com/ivgeniay/jointpresentation/internal/collab"
	"github.com/ivgeniay/jointpresentation/internal/database"
	"github.com/ivgeniay/jointpresentation/internal/realtime"
	"github.com/ivgeniay/jointpresentation/internal/services"
	"github.com/ivgeniay/jointpresentation/pkg/logger"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB          *gorm.DB
	Hub         *realtime.Hub
	Coordinator *collab.Coordinator
	Cleaner     *maintenance.Cleaner
	Router      *gin.Engine
}

// bootstrapRuntime opens storage, builds the services, the realtime hub and coordinator,
// starts the maintenance jobs and assembles the HTTP router. On failure everything already
// started is torn down again.
func bootstrapRuntime(cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			_ = stack.Shutdown(context.Background(), log)
		}
	}()

	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	limits := cfg.Presentation.Limits()
	users, err := services.NewUserService(stack.DB, limits)
	if err != nil {
		return nil, fmt.Errorf("initialise user service: %w", err)
	}
	presentations, err := services.NewPresentationService(stack.DB, limits)
	if err != nil {
		return nil, fmt.Errorf("initialise presentation service: %w", err)
	}
	slides, err := services.NewSlideService(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise slide service: %w", err)
	}

	tickets, err := auth.NewTicketService(cfg.Auth.TicketConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise ticket service: %w", err)
	}

	stack.Hub = realtime.NewHub(cfg.Realtime.Options(cfg.Server.AllowedOrigins))

	stack.Coordinator, err = collab.NewCoordinator(collab.Dependencies{
		Transport:     stack.Hub,
		Users:         users,
		Presentations: presentations,
		Slides:        slides,
		Tickets:       tickets,
		Logger:        logger.WithModule("collab"),
	})
	if err != nil {
		return nil, fmt.Errorf("initialise coordinator: %w", err)
	}
	stack.Hub.SetHandler(collab.NewDispatcher(stack.Coordinator))

	stack.Cleaner = maintenance.NewCleaner(stack.DB, stack.Coordinator,
		maintenance.WithPresenterGrace(cfg.Presentation.PresenterGrace),
		maintenance.WithReaperSchedule(cfg.Maintenance.ReaperSchedule),
	)
	if err := stack.Cleaner.Start(); err != nil {
		return nil, fmt.Errorf("start maintenance jobs: %w", err)
	}

	stack.Router, err = api.NewRouter(api.Dependencies{
		Config:        cfg,
		DB:            stack.DB,
		Users:         users,
		Presentations: presentations,
		Slides:        slides,
		Coordinator:   stack.Coordinator,
		Hub:           stack.Hub,
		Tickets:       tickets,
	})
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// Shutdown stops background jobs, closes realtime connections and releases the database.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) error {
	if s == nil {
		return nil
	}

	if s.Cleaner != nil {
		select {
		case <-s.Cleaner.Stop().Done():
		case <-ctx.Done():
			log.Warn("maintenance jobs did not stop before shutdown deadline")
		}
		s.Cleaner = nil
	}

	if s.Hub != nil {
		s.Hub.Shutdown()
	}

	var errs error
	if s.DB != nil {
		if err := database.Close(s.DB); err != nil {
			log.Warn("failed to close database", zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("close database: %w", err))
		}
		s.DB = nil
	}

	return errs
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.Database.Connection()
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	logger.WithModule("database").Info("database connected", zap.String("driver", dbCfg.Driver))
	return db, nil
}
