package controllers

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"shelfspace/internal/models"
	"shelfspace/internal/services/trakt"
	"shelfspace/internal/shelves"
)

// CatalogService supplies item details from the external tracking service.
// Implemented by the Trakt client.
type CatalogService interface {
	MovieDetails(ctx context.Context, movieID int64) (trakt.MovieDetails, error)
	ShowTitle(ctx context.Context, showID int64) (string, error)
	EpisodeRuntime(ctx context.Context, showID int64, season, episode int) (int, error)
}

// WatchReconciler matches externally reported watch events to entries and
// sub-entries without creating duplicates.
type WatchReconciler struct {
	db      *models.Database
	catalog CatalogService
	logger  *logrus.Logger
}

// NewWatchReconciler creates a new watch reconciler
func NewWatchReconciler(db *models.Database, catalog CatalogService, logger *logrus.Logger) *WatchReconciler {
	return &WatchReconciler{db: db, catalog: catalog, logger: logger}
}

// Reconcile processes a batch of watch events. Events are independent: a
// failing event logs and is skipped, except for a broken registry which
// aborts the batch.
func (r *WatchReconciler) Reconcile(ctx context.Context, registry *shelves.Registry, events []trakt.WatchedItem) error {
	r.logger.WithField("count", len(events)).Info("Reconciling watch events")

	for _, event := range events {
		if err := r.reconcileEvent(ctx, registry, event); err != nil {
			if errors.Is(err, models.ErrAmbiguousPlacement) {
				return err
			}
			watchEventsTotal.WithLabelValues(outcomeFailed).Inc()
			r.logger.WithError(err).WithFields(logrus.Fields{
				"type":       event.Type,
				"watched_at": event.WatchedAt,
			}).Error("Failed to reconcile watch event")
		}
	}

	return nil
}

func (r *WatchReconciler) reconcileEvent(ctx context.Context, registry *shelves.Registry, event trakt.WatchedItem) error {
	target, err := registry.CurrentForTimestamp(event.WatchedAt)
	if err != nil {
		return err
	}

	switch event.Type {
	case "movie":
		return r.reconcileMovie(ctx, registry, event, target)
	case "episode":
		return r.reconcileEpisode(ctx, registry, event, target)
	default:
		watchEventsTotal.WithLabelValues(outcomeSkipped).Inc()
		r.logger.WithField("type", event.Type).Debug("Ignoring unsupported event type")
		return nil
	}
}

func (r *WatchReconciler) reconcileMovie(ctx context.Context, registry *shelves.Registry, event trakt.WatchedItem, target *models.Shelf) error {
	key := models.MovieSourceKey(event.MovieID)

	entry, err := r.db.GetEntryBySourceKey(key)
	if errors.Is(err, models.ErrNotFound) {
		return r.createWatchedMovie(ctx, event, target)
	}
	if err != nil {
		return err
	}

	// movies are a single unit, so any unfinished sub-entry is the one
	return r.applyWatch(registry, entry, "", target, func() (int, error) {
		details, err := r.catalog.MovieDetails(ctx, event.MovieID)
		if err != nil {
			return 0, err
		}
		return details.Runtime, nil
	})
}

func (r *WatchReconciler) reconcileEpisode(ctx context.Context, registry *shelves.Registry, event trakt.WatchedItem, target *models.Shelf) error {
	key := models.SeasonSourceKey(event.ShowID, event.Season)
	code := models.EpisodeCode(event.Season, event.Episode)

	entry, err := r.db.GetEntryBySourceKey(key)
	if errors.Is(err, models.ErrNotFound) {
		return r.createWatchedSeason(ctx, event, target)
	}
	if err != nil {
		return err
	}

	return r.applyWatch(registry, entry, code, target, func() (int, error) {
		return r.catalog.EpisodeRuntime(ctx, event.ShowID, event.Season, event.Episode)
	})
}

// applyWatch applies one watch event to an existing entry. The unit name is
// "" for movies and the episode code for episodes; runtime is fetched lazily
// because it is only needed when a new sub-entry has to be created.
func (r *WatchReconciler) applyWatch(registry *shelves.Registry, entry *models.Entry, unit string, target *models.Shelf, runtime func() (int, error)) error {
	if open := entry.OpenSubEntry(unit); open != nil {
		if open.ShelfID != target.ID {
			open.ShelfID = target.ID
		}
		open.IsFinished = true
		if open.Estimated != nil {
			open.Spent = *open.Estimated
		}
		watchEventsTotal.WithLabelValues(outcomeFinished).Inc()
		r.logger.WithFields(logrus.Fields{
			"entry": entry.Name,
			"unit":  unit,
			"shelf": target.Name,
		}).Info("Finished watched unit")
		return r.db.SaveEntry(entry)
	}

	last := entry.LastSubEntryByName(unit)
	if last == nil {
		// a unit never tracked before, e.g. an episode first seen in the
		// watch history rather than the calendar
		minutes, err := runtime()
		if err != nil {
			return fmt.Errorf("failed to fetch details for %q: %w", entry.Name, err)
		}
		entry.SubEntries = append(entry.SubEntries, finishedSubEntry(unit, target.ID, minutes))
		watchEventsTotal.WithLabelValues(outcomeNewUnit).Inc()
		r.logger.WithFields(logrus.Fields{
			"entry": entry.Name,
			"unit":  unit,
			"shelf": target.Name,
		}).Info("Added watched unit to existing entry")
		return r.db.SaveEntry(entry)
	}

	// The unit is already finished. An event landing back on a finished
	// shelf, or on the shelf the unit already sits on, was processed in a
	// prior run; anything else is a genuine rewatch.
	lastShelf := registry.ByID(last.ShelfID)
	if (lastShelf != nil && lastShelf.IsFinished) || last.ShelfID == target.ID {
		watchEventsTotal.WithLabelValues(outcomeSkipped).Inc()
		r.logger.WithFields(logrus.Fields{
			"entry": entry.Name,
			"unit":  unit,
		}).Debug("Watch event already processed, skipping")
		return nil
	}

	rewatch := models.SubEntry{
		ShelfID:    target.ID,
		Name:       last.Name,
		Estimated:  last.Estimated,
		IsFinished: true,
		Metadata:   models.CopyMetadata(last.Metadata),
	}
	if rewatch.Estimated != nil {
		rewatch.Spent = *rewatch.Estimated
	}
	entry.SubEntries = append(entry.SubEntries, rewatch)
	watchEventsTotal.WithLabelValues(outcomeRewatch).Inc()
	r.logger.WithFields(logrus.Fields{
		"entry": entry.Name,
		"unit":  unit,
		"shelf": target.Name,
	}).Info("Recorded rewatch")
	return r.db.SaveEntry(entry)
}

func (r *WatchReconciler) createWatchedMovie(ctx context.Context, event trakt.WatchedItem, target *models.Shelf) error {
	details, err := r.catalog.MovieDetails(ctx, event.MovieID)
	if err != nil {
		return fmt.Errorf("failed to fetch movie %d: %w", event.MovieID, err)
	}

	rating := details.Rating
	entry := &models.Entry{
		Type:        models.MediaTypeMovie,
		Name:        details.Title,
		ReleaseDate: details.Released,
		Rating:      &rating,
		SourceKey:   models.MovieSourceKey(event.MovieID),
		Metadata: map[string]string{
			models.MetaTraktID: fmt.Sprintf("%d", event.MovieID),
		},
		SubEntries: []models.SubEntry{finishedSubEntry("", target.ID, details.Runtime)},
	}

	if err := r.db.CreateEntry(entry); err != nil {
		return err
	}
	watchEventsTotal.WithLabelValues(outcomeCreated).Inc()
	r.logger.WithFields(logrus.Fields{
		"entry": entry.Name,
		"shelf": target.Name,
	}).Info("Created entry for watched movie")
	return nil
}

func (r *WatchReconciler) createWatchedSeason(ctx context.Context, event trakt.WatchedItem, target *models.Shelf) error {
	title, err := r.catalog.ShowTitle(ctx, event.ShowID)
	if err != nil {
		return fmt.Errorf("failed to fetch show %d: %w", event.ShowID, err)
	}
	runtime, err := r.catalog.EpisodeRuntime(ctx, event.ShowID, event.Season, event.Episode)
	if err != nil {
		return fmt.Errorf("failed to fetch episode runtime: %w", err)
	}

	entry := &models.Entry{
		Type:      models.MediaTypeSeries,
		Name:      fmt.Sprintf("%s S%d", title, event.Season),
		SourceKey: models.SeasonSourceKey(event.ShowID, event.Season),
		Metadata: map[string]string{
			models.MetaTraktID: fmt.Sprintf("%d", event.ShowID),
			models.MetaSeason:  fmt.Sprintf("%d", event.Season),
		},
		SubEntries: []models.SubEntry{
			finishedSubEntry(models.EpisodeCode(event.Season, event.Episode), target.ID, runtime),
		},
	}

	if err := r.db.CreateEntry(entry); err != nil {
		return err
	}
	watchEventsTotal.WithLabelValues(outcomeCreated).Inc()
	r.logger.WithFields(logrus.Fields{
		"entry": entry.Name,
		"unit":  entry.SubEntries[0].Name,
		"shelf": target.Name,
	}).Info("Created entry for watched episode")
	return nil
}

// finishedSubEntry builds the terminal sub-entry for an already-watched
// unit: estimated and spent both equal the runtime.
func finishedSubEntry(name string, shelfID uint64, runtime int) models.SubEntry {
	minutes := runtime
	return models.SubEntry{
		ShelfID:    shelfID,
		Name:       name,
		Estimated:  &minutes,
		Spent:      minutes,
		IsFinished: true,
	}
}
