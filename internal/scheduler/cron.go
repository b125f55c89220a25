package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"shelfspace/internal/controllers"
	"shelfspace/internal/models"
	"shelfspace/internal/services/trakt"
	"shelfspace/internal/shelves"
)

// Scheduler manages scheduled tasks
type Scheduler struct {
	cron         *cron.Cron
	watchlist    *controllers.WatchlistIngester
	placement    *controllers.PlacementResolver
	reconciler   *controllers.WatchReconciler
	trakt        *trakt.Client
	db           *models.Database
	syncDays     int
	calendarDays int
	logger       *logrus.Logger
}

// NewScheduler creates a new scheduler
func NewScheduler(
	watchlist *controllers.WatchlistIngester,
	placement *controllers.PlacementResolver,
	reconciler *controllers.WatchReconciler,
	traktClient *trakt.Client,
	db *models.Database,
	syncDays int,
	calendarDays int,
	logger *logrus.Logger,
) *Scheduler {
	return &Scheduler{
		cron:         cron.New(),
		watchlist:    watchlist,
		placement:    placement,
		reconciler:   reconciler,
		trakt:        traktClient,
		db:           db,
		syncDays:     syncDays,
		calendarDays: calendarDays,
		logger:       logger,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.logger.Info("Starting scheduler")

	// Every 6 hours: ingest the watchlist and place upcoming episodes
	_, err := s.cron.AddFunc("0 */6 * * *", func() {
		s.runIngest()
	})
	if err != nil {
		return fmt.Errorf("failed to add ingest job: %w", err)
	}

	// Every hour: reconcile the watch history
	_, err = s.cron.AddFunc("0 * * * *", func() {
		s.runReconcile()
	})
	if err != nil {
		return fmt.Errorf("failed to add reconcile job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Scheduler started")

	// Run the full cycle immediately on startup
	go func() {
		s.runIngest()
		s.runReconcile()
	}()

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cron.Stop()
}

// loadRegistry rebuilds the registry from the store so each run sees
// shelves created or finished since the last one.
func (s *Scheduler) loadRegistry() (*shelves.Registry, error) {
	all, err := s.db.GetAllShelves()
	if err != nil {
		return nil, fmt.Errorf("failed to load shelves: %w", err)
	}
	return shelves.NewRegistry(all), nil
}

// runIngest executes the watchlist and calendar ingest job
func (s *Scheduler) runIngest() {
	s.logger.Info("Running scheduled ingest")
	ctx := context.Background()

	registry, err := s.loadRegistry()
	if err != nil {
		s.logger.WithError(err).Error("Ingest job failed")
		return
	}

	if err := s.watchlist.Sync(ctx, registry); err != nil {
		s.logger.WithError(err).Error("Watchlist sync failed")
	}

	episodes, err := s.trakt.UpcomingEpisodes(ctx, s.calendarDays)
	if err != nil {
		s.logger.WithError(err).Error("Failed to fetch upcoming episodes")
		return
	}
	if err := s.placement.PlaceUpcoming(ctx, registry, episodes); err != nil {
		s.logger.WithError(err).Error("Placement failed")
		return
	}
	if err := s.placement.ReevaluateBacklog(registry); err != nil {
		s.logger.WithError(err).Error("Backlog re-evaluation failed")
		return
	}

	s.logger.Info("Ingest job completed successfully")
}

// runReconcile executes the watch history reconcile job
func (s *Scheduler) runReconcile() {
	s.logger.Info("Running scheduled reconcile")
	ctx := context.Background()

	registry, err := s.loadRegistry()
	if err != nil {
		s.logger.WithError(err).Error("Reconcile job failed")
		return
	}

	events, err := s.trakt.RecentlyWatched(ctx, s.syncDays)
	if err != nil {
		s.logger.WithError(err).Error("Failed to fetch watch history")
		return
	}
	if err := s.reconciler.Reconcile(ctx, registry, events); err != nil {
		s.logger.WithError(err).Error("Reconcile job failed")
		return
	}

	s.logger.Info("Reconcile job completed successfully")
}
