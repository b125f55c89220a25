package controllers

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"shelfspace/internal/estimate"
	"shelfspace/internal/models"
	"shelfspace/internal/services/trakt"
	"shelfspace/internal/shelves"
)

// WatchlistIngester turns the user's external watchlist into tracked
// entries. New items land on Icebox so they can be pulled onto a dated
// shelf manually or by the placement resolver later.
type WatchlistIngester struct {
	db     *models.Database
	trakt  *trakt.Client
	logger *logrus.Logger
}

// NewWatchlistIngester creates a new watchlist ingester
func NewWatchlistIngester(db *models.Database, traktClient *trakt.Client, logger *logrus.Logger) *WatchlistIngester {
	return &WatchlistIngester{db: db, trakt: traktClient, logger: logger}
}

// Sync ingests both movies and shows from the watchlist. Items already
// tracked by source key are left alone. A failure on one item does not stop
// the rest.
func (w *WatchlistIngester) Sync(ctx context.Context, registry *shelves.Registry) error {
	icebox := registry.ByName(models.ShelfIcebox)
	if icebox == nil {
		return fmt.Errorf("reserved shelf %q missing: %w", models.ShelfIcebox, models.ErrAmbiguousPlacement)
	}

	if err := w.syncMovies(ctx, icebox); err != nil {
		return err
	}
	return w.syncShows(ctx, icebox)
}

func (w *WatchlistIngester) syncMovies(ctx context.Context, icebox *models.Shelf) error {
	movies, err := w.trakt.WatchlistMovies(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch watchlist movies: %w", err)
	}
	w.logger.WithField("count", len(movies)).Info("Syncing watchlist movies")

	for _, movie := range movies {
		if err := w.ingestMovie(ctx, icebox, movie); err != nil {
			w.logger.WithError(err).WithField("movie", movie.Title).Error("Failed to ingest watchlist movie")
		}
	}
	return nil
}

func (w *WatchlistIngester) ingestMovie(ctx context.Context, icebox *models.Shelf, item trakt.WatchlistItem) error {
	key := models.MovieSourceKey(item.TraktID)
	if _, err := w.db.GetEntryBySourceKey(key); err == nil {
		return nil
	} else if !errors.Is(err, models.ErrNotFound) {
		return err
	}

	details, err := w.trakt.MovieDetails(ctx, item.TraktID)
	if err != nil {
		return fmt.Errorf("failed to fetch movie %d: %w", item.TraktID, err)
	}

	entry := &models.Entry{
		Type:        models.MediaTypeMovie,
		Name:        details.Title,
		SourceKey:   key,
		ReleaseDate: details.Released,
		Metadata: map[string]string{
			models.MetaTraktID: fmt.Sprintf("%d", item.TraktID),
		},
		SubEntries: []models.SubEntry{{ShelfID: icebox.ID, ReleaseDate: details.Released}},
	}
	if est := estimate.MovieFromRuntime(details.Runtime); est > 0 {
		entry.SubEntries[0].Estimated = &est
	}

	if err := w.db.CreateEntry(entry); err != nil {
		return err
	}
	ingestedEntriesTotal.WithLabelValues(sourceWatchlist).Inc()
	w.logger.WithFields(logrus.Fields{
		"movie": details.Title,
		"shelf": icebox.Name,
	}).Info("Ingested watchlist movie")
	return nil
}

func (w *WatchlistIngester) syncShows(ctx context.Context, icebox *models.Shelf) error {
	shows, err := w.trakt.WatchlistShows(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch watchlist shows: %w", err)
	}
	w.logger.WithField("count", len(shows)).Info("Syncing watchlist shows")

	for _, show := range shows {
		if err := w.ingestShow(ctx, icebox, show); err != nil {
			w.logger.WithError(err).WithField("show", show.Title).Error("Failed to ingest watchlist show")
		}
	}
	return nil
}

// ingestShow creates one entry per season, each with a sub-entry per
// episode. Specials (season 0) are skipped.
func (w *WatchlistIngester) ingestShow(ctx context.Context, icebox *models.Shelf, item trakt.WatchlistItem) error {
	seasons, err := w.trakt.SeasonsSummary(ctx, item.TraktID)
	if err != nil {
		return fmt.Errorf("failed to fetch seasons of show %d: %w", item.TraktID, err)
	}

	for _, season := range seasons {
		if season.Number == 0 {
			continue
		}
		key := models.SeasonSourceKey(item.TraktID, season.Number)
		if _, err := w.db.GetEntryBySourceKey(key); err == nil {
			continue
		} else if !errors.Is(err, models.ErrNotFound) {
			return err
		}

		episodes, err := w.trakt.SeasonEpisodes(ctx, item.TraktID, season.Number)
		if err != nil {
			return fmt.Errorf("failed to fetch season %d of show %d: %w", season.Number, item.TraktID, err)
		}

		subEntries := make([]models.SubEntry, 0, len(episodes))
		for _, ep := range episodes {
			se := models.SubEntry{
				ShelfID:     icebox.ID,
				Name:        models.EpisodeCode(season.Number, ep.Number),
				ReleaseDate: ep.FirstAired,
			}
			if est := estimate.EpisodeFromRuntime(ep.Runtime); est > 0 {
				se.Estimated = &est
			}
			subEntries = append(subEntries, se)
		}

		entry := &models.Entry{
			Type:      models.MediaTypeSeries,
			Name:      fmt.Sprintf("%s S%d", item.Title, season.Number),
			SourceKey: key,
			Metadata: map[string]string{
				models.MetaTraktID: fmt.Sprintf("%d", item.TraktID),
				models.MetaSeason:  fmt.Sprintf("%d", season.Number),
			},
			SubEntries: subEntries,
		}
		if err := w.db.CreateEntry(entry); err != nil {
			return err
		}
		ingestedEntriesTotal.WithLabelValues(sourceWatchlist).Inc()
		w.logger.WithFields(logrus.Fields{
			"show":     item.Title,
			"season":   season.Number,
			"episodes": len(subEntries),
		}).Info("Ingested watchlist season")
	}

	return nil
}
