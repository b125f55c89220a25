package shelves

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"shelfspace/internal/models"
)

// CarryoverEngine executes the shelf-finish transition: every open sub-entry
// on the closing shelf is either finished in place (keeping the spent time)
// with a remainder created on the next shelf, or simply moved forward when no
// time was spent.
type CarryoverEngine struct {
	db     *models.Database
	logger *logrus.Logger
}

// NewCarryoverEngine creates a new carryover engine
func NewCarryoverEngine(db *models.Database, logger *logrus.Logger) *CarryoverEngine {
	return &CarryoverEngine{db: db, logger: logger}
}

// CanFinish reports whether a shelf is eligible for closing. A shelf can be
// finished only once it has started, and either every qualifying sub-entry is
// done or its window has run out. Undated shelves have no window, so they
// close only when everything on them is done.
func (c *CarryoverEngine) CanFinish(shelf *models.Shelf, entries []*models.Entry) bool {
	return canFinishAt(shelf, entries, time.Now())
}

func canFinishAt(shelf *models.Shelf, entries []*models.Entry, now time.Time) bool {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	if shelf.StartDate != nil {
		start := *shelf.StartDate
		if today.Before(time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)) {
			return false
		}
	}

	allFinished := true
	for _, entry := range entries {
		for i := range entry.SubEntries {
			se := &entry.SubEntries[i]
			if se.ShelfID == shelf.ID && !se.IsFinished {
				allFinished = false
			}
		}
	}
	if allFinished {
		return true
	}

	if shelf.EndDate != nil {
		end := *shelf.EndDate
		return !today.Before(time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC))
	}

	return false
}

// Finish closes a shelf and redistributes unfinished work to the next shelf.
// For every open sub-entry on the shelf:
//   - spent time > 0: the sub-entry is finished in place with estimated set
//     to the spent time, and when the original estimate exceeded it, a new
//     open sub-entry with the remaining minutes is appended on the next shelf
//   - no spent time: the sub-entry's shelf reference moves to the next shelf
//
// Each modified entry is persisted exactly once, then the shelf itself is
// marked finished. Nothing is mutated when the transition is rejected.
func (c *CarryoverEngine) Finish(registry *Registry, shelf *models.Shelf) error {
	if shelf.IsFinished {
		return fmt.Errorf("shelf %q is already finished: %w", shelf.Name, models.ErrInvalidTransition)
	}

	next := registry.NextAfter(shelf)
	if next == nil {
		return fmt.Errorf("no next shelf after %q to carry work into: %w", shelf.Name, models.ErrInvalidTransition)
	}

	entries, err := c.db.GetAllEntries()
	if err != nil {
		return fmt.Errorf("failed to load entries: %w", err)
	}

	moved := 0
	for _, entry := range entries {
		if !c.carryoverEntry(entry, shelf, next) {
			continue
		}
		if err := c.db.SaveEntry(entry); err != nil {
			c.logger.WithError(err).WithField("entry", entry.Name).Error("Failed to save entry during carryover")
			continue
		}
		moved++
	}

	shelf.IsFinished = true
	if err := c.db.SaveShelf(shelf); err != nil {
		return fmt.Errorf("failed to finish shelf %q: %w", shelf.Name, err)
	}

	c.logger.WithFields(logrus.Fields{
		"shelf":   shelf.Name,
		"next":    next.Name,
		"entries": moved,
	}).Info("Shelf finished")

	return nil
}

// carryoverEntry applies the carryover transition to one entry in memory and
// reports whether it was modified.
func (c *CarryoverEngine) carryoverEntry(entry *models.Entry, shelf, next *models.Shelf) bool {
	modified := false
	var remainders []models.SubEntry

	for i := range entry.SubEntries {
		se := &entry.SubEntries[i]
		if se.ShelfID != shelf.ID || se.IsFinished {
			continue
		}

		if se.Spent > 0 {
			original := se.Estimated
			spent := se.Spent
			se.IsFinished = true
			se.Estimated = &spent

			if original != nil && *original > spent {
				remaining := *original - spent
				remainders = append(remainders, models.SubEntry{
					ShelfID:     next.ID,
					Name:        se.Name,
					Estimated:   &remaining,
					Spent:       0,
					ReleaseDate: se.ReleaseDate,
					Metadata:    models.CopyMetadata(se.Metadata),
				})
				c.logger.WithFields(logrus.Fields{
					"entry":     entry.Name,
					"unit":      se.Name,
					"spent":     spent,
					"remaining": remaining,
					"next":      next.Name,
				}).Info("Finished sub-entry, carrying remainder forward")
			} else {
				c.logger.WithFields(logrus.Fields{
					"entry": entry.Name,
					"unit":  se.Name,
					"spent": spent,
				}).Info("Finished sub-entry in place")
			}
			modified = true
		} else {
			se.ShelfID = next.ID
			c.logger.WithFields(logrus.Fields{
				"entry": entry.Name,
				"unit":  se.Name,
				"next":  next.Name,
			}).Info("Moved untouched sub-entry to next shelf")
			modified = true
		}
	}

	entry.SubEntries = append(entry.SubEntries, remainders...)
	return modified
}
