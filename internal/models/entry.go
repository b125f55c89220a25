package models

import (
	"fmt"
	"time"
)

// Entry is one trackable media item (a book, a movie, one season of a
// series, ...). Its identity against external catalogs is the SourceKey;
// progress lives in the ordered SubEntries list.
type Entry struct {
	ID          uint64 `boltholdKey:"ID"`
	Type        MediaType
	Name        string
	Notes       string
	ReleaseDate *time.Time
	Rating      *int

	// SourceKey is the deduplication key for ingestion, mirroring the
	// external identifier kept in Metadata (bolthold cannot index into
	// map fields). Never mutated after creation.
	SourceKey string `boltholdIndex:"SourceKey"`

	Metadata   map[string]string
	Links      []string
	SubEntries []SubEntry

	// Revision supports optimistic saves, see Database.SaveEntry.
	Revision uint64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SubEntry is one unit of trackable effort belonging to an Entry: the whole
// item, a single episode, or one rewatch pass. Effort values are minutes.
type SubEntry struct {
	ShelfID     uint64
	Name        string
	Estimated   *int
	Spent       int
	IsFinished  bool
	ReleaseDate *time.Time
	Metadata    map[string]string
}

// MovieSourceKey builds the dedup key for a movie catalog id.
func MovieSourceKey(traktID int64) string {
	return fmt.Sprintf("trakt:%d", traktID)
}

// SeasonSourceKey builds the dedup key for a season-grouped series entry.
func SeasonSourceKey(showID int64, season int) string {
	return fmt.Sprintf("trakt:%d_s%d", showID, season)
}

// GameSourceKey builds the dedup key for a HowLongToBeat game id.
func GameSourceKey(gameID int64) string {
	return fmt.Sprintf("hltb:%d", gameID)
}

// BookSourceKey builds the dedup key for an imported book.
func BookSourceKey(bookID string) string {
	return fmt.Sprintf("goodreads:%s", bookID)
}

// EpisodeCode formats the sub-entry name for an episode, e.g. "S02E05".
func EpisodeCode(season, episode int) string {
	return fmt.Sprintf("S%02dE%02d", season, episode)
}

// SubEntryByName returns a pointer into SubEntries for the first sub-entry
// with the given name, or nil.
func (e *Entry) SubEntryByName(name string) *SubEntry {
	for i := range e.SubEntries {
		if e.SubEntries[i].Name == name {
			return &e.SubEntries[i]
		}
	}
	return nil
}

// OpenSubEntry returns a pointer into SubEntries for the first unfinished
// sub-entry with the given name ("" matches unnamed units), or nil.
func (e *Entry) OpenSubEntry(name string) *SubEntry {
	for i := range e.SubEntries {
		if e.SubEntries[i].Name == name && !e.SubEntries[i].IsFinished {
			return &e.SubEntries[i]
		}
	}
	return nil
}

// LastSubEntryByName returns a pointer into SubEntries for the most recently
// appended sub-entry with the given name, or nil. Rewatch passes append new
// sub-entries for the same unit, so the last one is the current state.
func (e *Entry) LastSubEntryByName(name string) *SubEntry {
	for i := len(e.SubEntries) - 1; i >= 0; i-- {
		if e.SubEntries[i].Name == name {
			return &e.SubEntries[i]
		}
	}
	return nil
}

// HasSubEntryOnShelf reports whether any sub-entry, finished or not, sits on
// the given shelf.
func (e *Entry) HasSubEntryOnShelf(shelfID uint64) bool {
	for i := range e.SubEntries {
		if e.SubEntries[i].ShelfID == shelfID {
			return true
		}
	}
	return false
}

// CopyMetadata returns a shallow copy of a metadata map, nil-safe.
func CopyMetadata(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
