package controllers

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"shelfspace/internal/estimate"
	"shelfspace/internal/models"
	"shelfspace/internal/services/goodreads"
	"shelfspace/internal/services/hltb"
	"shelfspace/internal/shelves"
	"shelfspace/internal/utils"
)

// LibraryImporter ingests games from howlongtobeat and books from a
// goodreads export.
type LibraryImporter struct {
	db     *models.Database
	hltb   *hltb.Client
	logger *logrus.Logger
}

// NewLibraryImporter creates a new library importer
func NewLibraryImporter(db *models.Database, hltbClient *hltb.Client, logger *logrus.Logger) *LibraryImporter {
	return &LibraryImporter{db: db, hltb: hltbClient, logger: logger}
}

// SyncGames ingests the user's howlongtobeat backlog. Games being played are
// skipped, the rest land on Icebox with estimates from the completionist
// average playtime.
func (l *LibraryImporter) SyncGames(ctx context.Context, registry *shelves.Registry) error {
	icebox := registry.ByName(models.ShelfIcebox)
	if icebox == nil {
		return fmt.Errorf("reserved shelf %q missing: %w", models.ShelfIcebox, models.ErrAmbiguousPlacement)
	}

	games, err := l.hltb.UserGames(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch games list: %w", err)
	}
	l.logger.WithField("count", len(games)).Info("Syncing games backlog")

	for _, game := range games {
		if !game.Backlog || game.Playing {
			continue
		}
		if err := l.ingestGame(ctx, icebox, game); err != nil {
			l.logger.WithError(err).WithField("game", game.Title).Error("Failed to ingest game")
		}
	}
	return nil
}

func (l *LibraryImporter) ingestGame(ctx context.Context, icebox *models.Shelf, game hltb.Game) error {
	key := models.GameSourceKey(game.ID)
	if _, err := l.db.GetEntryBySourceKey(key); err == nil {
		return nil
	} else if !errors.Is(err, models.ErrNotFound) {
		return err
	}

	detail, err := l.hltb.GameDetail(ctx, game.ID)
	if err != nil {
		return fmt.Errorf("failed to fetch game %d: %w", game.ID, err)
	}

	mediaType := models.MediaTypeGame
	switch game.Platform {
	case "PC VR":
		mediaType = models.MediaTypeGameVR
	case "Mobile":
		mediaType = models.MediaTypeGameMobile
	}

	entry := &models.Entry{
		Type:        mediaType,
		Name:        game.Title,
		Notes:       fmt.Sprintf("HLTB: %d", game.Score),
		SourceKey:   key,
		ReleaseDate: detail.ReleaseDate,
		Metadata: map[string]string{
			models.MetaHLTBID: fmt.Sprintf("%d", game.ID),
		},
		SubEntries: []models.SubEntry{{ShelfID: icebox.ID, ReleaseDate: detail.ReleaseDate}},
	}
	if est := estimate.GameFromSeconds(detail.MainPlusExtra); est > 0 {
		entry.SubEntries[0].Estimated = &est
	}

	if err := l.db.CreateEntry(entry); err != nil {
		return err
	}
	ingestedEntriesTotal.WithLabelValues(sourceHLTB).Inc()
	l.logger.WithFields(logrus.Fields{
		"game": game.Title,
		"type": mediaType,
	}).Info("Ingested game")
	return nil
}

// ImportBooks ingests a goodreads CSV export. Books already tracked by
// source key are skipped; a new book whose title is suspiciously close to an
// existing one is skipped with a warning instead of creating a duplicate.
func (l *LibraryImporter) ImportBooks(r io.Reader, registry *shelves.Registry) error {
	icebox := registry.ByName(models.ShelfIcebox)
	if icebox == nil {
		return fmt.Errorf("reserved shelf %q missing: %w", models.ShelfIcebox, models.ErrAmbiguousPlacement)
	}

	books, err := goodreads.ParseExport(r)
	if err != nil {
		return fmt.Errorf("failed to parse goodreads export: %w", err)
	}
	l.logger.WithField("count", len(books)).Info("Importing books")

	existing, err := l.db.GetAllEntries()
	if err != nil {
		return fmt.Errorf("failed to load entries: %w", err)
	}
	knownTitles := make([]string, 0, len(existing))
	for _, entry := range existing {
		switch entry.Type {
		case models.MediaTypeBook, models.MediaTypeBookEd, models.MediaTypeBookComics:
			knownTitles = append(knownTitles, entry.Name)
		}
	}

	for _, book := range books {
		created, err := l.ingestBook(icebox, book, knownTitles)
		if err != nil {
			l.logger.WithError(err).WithField("book", book.Name()).Error("Failed to ingest book")
			continue
		}
		if created {
			knownTitles = append(knownTitles, book.Name())
		}
	}
	return nil
}

func (l *LibraryImporter) ingestBook(icebox *models.Shelf, book goodreads.Book, knownTitles []string) (bool, error) {
	key := models.BookSourceKey(book.ID)
	if _, err := l.db.GetEntryBySourceKey(key); err == nil {
		return false, nil
	} else if !errors.Is(err, models.ErrNotFound) {
		return false, err
	}

	for _, known := range knownTitles {
		if utils.SimilarTitles(known, book.Name()) {
			l.logger.WithFields(logrus.Fields{
				"book":     book.Name(),
				"existing": known,
			}).Warn("Skipping near-duplicate book title")
			return false, nil
		}
	}

	mediaType := models.MediaTypeBook
	var estimated int
	switch {
	case book.Comics:
		mediaType = models.MediaTypeBookComics
		estimated = estimate.ComicFromPages(book.Pages)
	case book.Educational:
		mediaType = models.MediaTypeBookEd
		estimated = estimate.EducationalBookFromPages(book.Pages)
	default:
		estimated = estimate.BookFromPages(book.Pages)
	}
	if book.Audio {
		// listening time is unrelated to page count
		estimated = 0
	}

	sub := models.SubEntry{ShelfID: icebox.ID}
	if estimated > 0 {
		sub.Estimated = &estimated
	}
	if book.Status == goodreads.StatusRead {
		// a finished unit always carries a defined estimate, zero when the
		// page count gave none
		sub.IsFinished = true
		sub.Spent = estimated
		sub.Estimated = &estimated
	}

	entry := &models.Entry{
		Type:       mediaType,
		Name:       book.Name(),
		Notes:      fmt.Sprintf("GR: %s / 5", book.Rating),
		SourceKey:  key,
		SubEntries: []models.SubEntry{sub},
	}
	if err := l.db.CreateEntry(entry); err != nil {
		return false, err
	}
	ingestedEntriesTotal.WithLabelValues(sourceGoodreads).Inc()
	l.logger.WithFields(logrus.Fields{
		"book": book.Name(),
		"type": mediaType,
	}).Info("Ingested book")
	return true, nil
}
