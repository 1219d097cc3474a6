package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ivgeniay/jointpresentation/internal/models"
	"github.com/ivgeniay/jointpresentation/pkg/logger"
)

const (
	defaultPresenterGrace = 2 * time.Minute
	defaultReaperSpec     = "@every 30s"
	defaultOrphanSpec     = "@hourly"
)

// Reaper stops presentations whose presenter has been gone for longer than grace.
// *collab.Coordinator satisfies it.
type Reaper interface {
	ReapAbandoned(ctx context.Context, grace time.Duration) (int, error)
}

// Cleaner coordinates background maintenance: stopping abandoned presenter sessions
// and pruning rows whose parent presentation or slide no longer exists.
type Cleaner struct {
	db      *gorm.DB
	reaper  Reaper
	cron    *cron.Cron
	log     *zap.Logger
	grace   time.Duration
	enabled bool

	reaperSchedule string
	orphanSchedule string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithPresenterGrace sets how long a presenter may be disconnected before the session is stopped.
func WithPresenterGrace(grace time.Duration) Option {
	return func(cleaner *Cleaner) {
		if grace > 0 {
			cleaner.grace = grace
		}
	}
}

// WithReaperSchedule overrides the cron expression for the presenter reaper.
func WithReaperSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.reaperSchedule = spec
		}
	}
}

// WithOrphanSchedule overrides the cron expression for orphan pruning.
func WithOrphanSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.orphanSchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults. Any nil dependency results in
// the corresponding job being skipped.
func NewCleaner(db *gorm.DB, reaper Reaper, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		db:             db,
		reaper:         reaper,
		grace:          defaultPresenterGrace,
		reaperSchedule: defaultReaperSpec,
		orphanSchedule: defaultOrphanSpec,
		log:            logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	cleaner.enabled = cleaner.reaper != nil || cleaner.db != nil

	return cleaner
}

// Start registers jobs with the cron scheduler and launches it if at least one job is enabled.
func (c *Cleaner) Start() error {
	if !c.enabled {
		return nil
	}

	if c.reaper != nil {
		if _, err := c.cron.AddFunc(c.reaperSchedule, c.reap); err != nil {
			return fmt.Errorf("maintenance: reaper schedule: %w", err)
		}
	}

	if c.db != nil {
		if _, err := c.cron.AddFunc(c.orphanSchedule, func() {
			stats, err := CleanupOrphans(context.Background(), c.db)
			if err != nil {
				c.log.Warn("orphan cleanup failed", zap.Error(err))
				return
			}
			if stats.Total() > 0 {
				c.log.Info("pruned orphaned rows",
					zap.Int64("elements", stats.Elements),
					zap.Int64("slides", stats.Slides),
					zap.Int64("editors", stats.Editors))
			}
		}); err != nil {
			return fmt.Errorf("maintenance: orphan schedule: %w", err)
		}
	}

	c.cron.Start()
	return nil
}

func (c *Cleaner) reap() {
	if _, err := c.reaper.ReapAbandoned(context.Background(), c.grace); err != nil {
		c.log.Warn("presenter reaper failed", zap.Error(err))
	}
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes every configured job sequentially. Used in tests and during shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	if c.reaper != nil {
		if _, err := c.reaper.ReapAbandoned(ctx, c.grace); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	if c.db != nil {
		if _, err := CleanupOrphans(ctx, c.db); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}

// OrphanCleanupStats captures the number of records removed per table.
type OrphanCleanupStats struct {
	Elements int64
	Slides   int64
	Editors  int64
}

// Total sums the removed rows.
func (s OrphanCleanupStats) Total() int64 {
	return s.Elements + s.Slides + s.Editors
}

// CleanupOrphans removes slides, elements and editor grants left behind when their parent
// row disappeared without a cascading delete (foreign keys disabled or a partial import).
func CleanupOrphans(ctx context.Context, db *gorm.DB) (OrphanCleanupStats, error) {
	if db == nil {
		return OrphanCleanupStats{}, errors.New("cleanup orphans: db is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	stats := OrphanCleanupStats{}
	tx := db.WithContext(ctx)

	if result := tx.Where("presentation_id NOT IN (?)", tx.Model(&models.Presentation{}).Select("id")).
		Delete(&models.Slide{}); result.Error != nil {
		return stats, fmt.Errorf("cleanup orphans: slides: %w", result.Error)
	} else {
		stats.Slides = result.RowsAffected
	}

	if result := tx.Where("slide_id NOT IN (?)", tx.Model(&models.Slide{}).Select("id")).
		Delete(&models.SlideElement{}); result.Error != nil {
		return stats, fmt.Errorf("cleanup orphans: elements: %w", result.Error)
	} else {
		stats.Elements = result.RowsAffected
	}

	if result := tx.Where("presentation_id NOT IN (?) OR user_id NOT IN (?)",
		tx.Model(&models.Presentation{}).Select("id"), tx.Model(&models.User{}).Select("id")).
		Delete(&models.PresentationEditor{}); result.Error != nil {
		return stats, fmt.Errorf("cleanup orphans: editors: %w", result.Error)
	} else {
		stats.Editors = result.RowsAffected
	}

	return stats, nil
}
