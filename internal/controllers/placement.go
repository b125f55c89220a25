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

// PlacementResolver assigns newly discovered dated units (upcoming episodes)
// to shelves and re-evaluates units parked on the Backlog when new dated
// shelves appear.
type PlacementResolver struct {
	db     *models.Database
	logger *logrus.Logger
}

// NewPlacementResolver creates a new placement resolver
func NewPlacementResolver(db *models.Database, logger *logrus.Logger) *PlacementResolver {
	return &PlacementResolver{db: db, logger: logger}
}

// PlaceUpcoming walks the release calendar and tracks every upcoming episode
// as a sub-entry on the shelf matching its air date. Episodes of shows whose
// season already has content on Icebox default to Icebox, everything else
// without a matching dated shelf lands on Backlog.
func (p *PlacementResolver) PlaceUpcoming(ctx context.Context, registry *shelves.Registry, episodes []trakt.CalendarEpisode) error {
	p.logger.WithField("count", len(episodes)).Info("Placing upcoming episodes")

	icebox := registry.ByName(models.ShelfIcebox)
	if icebox == nil {
		return fmt.Errorf("reserved shelf %q missing: %w", models.ShelfIcebox, models.ErrAmbiguousPlacement)
	}

	for _, episode := range episodes {
		if err := p.placeEpisode(registry, icebox, episode); err != nil {
			if errors.Is(err, models.ErrAmbiguousPlacement) {
				return err
			}
			p.logger.WithError(err).WithFields(logrus.Fields{
				"show":    episode.ShowTitle,
				"episode": models.EpisodeCode(episode.Season, episode.Episode),
			}).Error("Failed to place upcoming episode")
		}
	}

	return nil
}

func (p *PlacementResolver) placeEpisode(registry *shelves.Registry, icebox *models.Shelf, episode trakt.CalendarEpisode) error {
	key := models.SeasonSourceKey(episode.ShowID, episode.Season)
	code := models.EpisodeCode(episode.Season, episode.Episode)
	airDate := episode.FirstAired

	entry, err := p.db.GetEntryBySourceKey(key)
	switch {
	case errors.Is(err, models.ErrNotFound):
		target, err := registry.ShelfForAirDate(&airDate, false)
		if err != nil {
			return err
		}
		entry = &models.Entry{
			Type:      models.MediaTypeSeries,
			Name:      fmt.Sprintf("%s S%d", episode.ShowTitle, episode.Season),
			SourceKey: key,
			Metadata: map[string]string{
				models.MetaTraktID: fmt.Sprintf("%d", episode.ShowID),
				models.MetaSeason:  fmt.Sprintf("%d", episode.Season),
			},
			SubEntries: []models.SubEntry{upcomingSubEntry(code, target.ID, episode)},
		}
		if err := p.db.CreateEntry(entry); err != nil {
			return err
		}
		placementsTotal.WithLabelValues(decisionPlaced).Inc()
		p.logger.WithFields(logrus.Fields{
			"entry": entry.Name,
			"unit":  code,
			"shelf": target.Name,
		}).Info("Tracking new season from calendar")
		return nil

	case err != nil:
		return err
	}

	if entry.SubEntryByName(code) != nil {
		// already tracked, nothing to place
		return nil
	}

	target, err := registry.ShelfForAirDate(&airDate, entry.HasSubEntryOnShelf(icebox.ID))
	if err != nil {
		return err
	}
	entry.SubEntries = append(entry.SubEntries, upcomingSubEntry(code, target.ID, episode))
	if err := p.db.SaveEntry(entry); err != nil {
		return err
	}
	placementsTotal.WithLabelValues(decisionPlaced).Inc()
	p.logger.WithFields(logrus.Fields{
		"entry": entry.Name,
		"unit":  code,
		"shelf": target.Name,
	}).Info("Placed upcoming episode")
	return nil
}

// ReevaluateBacklog moves unfinished units off the Backlog when a dated
// shelf now covers their release date. Shelves created after an episode was
// first seen claim it retroactively this way. Units on dated shelves, on
// Icebox, or already finished are never touched.
func (p *PlacementResolver) ReevaluateBacklog(registry *shelves.Registry) error {
	backlog := registry.ByName(models.ShelfBacklog)
	if backlog == nil {
		return fmt.Errorf("reserved shelf %q missing: %w", models.ShelfBacklog, models.ErrAmbiguousPlacement)
	}

	entries, err := p.db.GetAllEntries()
	if err != nil {
		return fmt.Errorf("failed to load entries: %w", err)
	}

	for _, entry := range entries {
		modified := false
		for i := range entry.SubEntries {
			se := &entry.SubEntries[i]
			if se.ShelfID != backlog.ID || se.IsFinished || se.ReleaseDate == nil {
				continue
			}
			target, err := registry.ShelfForAirDate(se.ReleaseDate, false)
			if err != nil {
				return err
			}
			if !target.Dated() || target.ID == se.ShelfID {
				continue
			}
			se.ShelfID = target.ID
			modified = true
			placementsTotal.WithLabelValues(decisionMoved).Inc()
			p.logger.WithFields(logrus.Fields{
				"entry": entry.Name,
				"unit":  se.Name,
				"shelf": target.Name,
			}).Info("Moved unit from Backlog to dated shelf")
		}
		if !modified {
			continue
		}
		if err := p.db.SaveEntry(entry); err != nil {
			p.logger.WithError(err).WithField("entry", entry.Name).Error("Failed to save entry after move")
		}
	}

	return nil
}

func upcomingSubEntry(code string, shelfID uint64, episode trakt.CalendarEpisode) models.SubEntry {
	aired := episode.FirstAired
	se := models.SubEntry{
		ShelfID:     shelfID,
		Name:        code,
		ReleaseDate: &aired,
	}
	if est := estimate.EpisodeFromRuntime(episode.Runtime); est > 0 {
		se.Estimated = &est
	}
	return se
}
