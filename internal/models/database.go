package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/timshannon/bolthold"
	"go.etcd.io/bbolt"
)

// Database wraps the bolthold store. Records are whole-document read/write:
// load a record, mutate it in memory, save it back. Saves are optimistic;
// they fail with ErrConflict if the stored revision changed since load.
type Database struct {
	store *bolthold.Store
}

// NewDatabase opens the database file, creating it if necessary
func NewDatabase(path string) (*Database, error) {
	store, err := bolthold.Open(path, 0600, &bolthold.Options{
		Options: &bbolt.Options{
			Timeout: 1 * time.Second,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Database{store: store}, nil
}

// Close closes the database connection
func (db *Database) Close() error {
	return db.store.Close()
}

// Shelf operations

// CreateShelf inserts a new shelf
func (db *Database) CreateShelf(shelf *Shelf) error {
	shelf.Revision = 1
	shelf.CreatedAt = time.Now()
	shelf.UpdatedAt = time.Now()
	return db.store.Insert(bolthold.NextSequence(), shelf)
}

// SaveShelf writes back a loaded shelf, enforcing the revision contract
func (db *Database) SaveShelf(shelf *Shelf) error {
	shelf.UpdatedAt = time.Now()
	return db.store.Bolt().Update(func(tx *bbolt.Tx) error {
		var stored Shelf
		if err := db.store.TxGet(tx, shelf.ID, &stored); err != nil {
			if errors.Is(err, bolthold.ErrNotFound) {
				return fmt.Errorf("shelf %d: %w", shelf.ID, ErrNotFound)
			}
			return err
		}
		if stored.Revision != shelf.Revision {
			return fmt.Errorf("shelf %d: %w", shelf.ID, ErrConflict)
		}
		shelf.Revision++
		return db.store.TxUpdate(tx, shelf.ID, shelf)
	})
}

// GetShelfByID retrieves a shelf by ID
func (db *Database) GetShelfByID(id uint64) (*Shelf, error) {
	var shelf Shelf
	if err := db.store.Get(id, &shelf); err != nil {
		if errors.Is(err, bolthold.ErrNotFound) {
			return nil, fmt.Errorf("shelf %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &shelf, nil
}

// GetShelfByName retrieves a shelf by its display name
func (db *Database) GetShelfByName(name string) (*Shelf, error) {
	var shelf Shelf
	if err := db.store.FindOne(&shelf, bolthold.Where("Name").Eq(name)); err != nil {
		if errors.Is(err, bolthold.ErrNotFound) {
			return nil, fmt.Errorf("shelf %q: %w", name, ErrNotFound)
		}
		return nil, err
	}
	return &shelf, nil
}

// GetAllShelves retrieves every shelf, finished or not
func (db *Database) GetAllShelves() ([]*Shelf, error) {
	var shelves []*Shelf
	err := db.store.Find(&shelves, nil)
	return shelves, err
}

// GetActiveShelves retrieves all shelves that are not finished
func (db *Database) GetActiveShelves() ([]*Shelf, error) {
	var shelves []*Shelf
	err := db.store.Find(&shelves, bolthold.Where("IsFinished").Eq(false))
	return shelves, err
}

// EnsureReservedShelves creates the Upcoming, Backlog and Icebox shelves if
// they are missing. Called once at startup so placement fallbacks are always
// well-defined.
func (db *Database) EnsureReservedShelves() error {
	for _, name := range []string{ShelfUpcoming, ShelfBacklog, ShelfIcebox} {
		_, err := db.GetShelfByName(name)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		shelf, err := NewReservedShelf(name)
		if err != nil {
			return err
		}
		if err := db.CreateShelf(shelf); err != nil {
			return fmt.Errorf("failed to create reserved shelf %q: %w", name, err)
		}
	}
	return nil
}

// Entry operations

// CreateEntry inserts a new entry
func (db *Database) CreateEntry(entry *Entry) error {
	entry.Revision = 1
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = time.Now()
	return db.store.Insert(bolthold.NextSequence(), entry)
}

// SaveEntry writes back a loaded entry, enforcing the revision contract
func (db *Database) SaveEntry(entry *Entry) error {
	entry.UpdatedAt = time.Now()
	return db.store.Bolt().Update(func(tx *bbolt.Tx) error {
		var stored Entry
		if err := db.store.TxGet(tx, entry.ID, &stored); err != nil {
			if errors.Is(err, bolthold.ErrNotFound) {
				return fmt.Errorf("entry %d: %w", entry.ID, ErrNotFound)
			}
			return err
		}
		if stored.Revision != entry.Revision {
			return fmt.Errorf("entry %d: %w", entry.ID, ErrConflict)
		}
		entry.Revision++
		return db.store.TxUpdate(tx, entry.ID, entry)
	})
}

// GetEntryByID retrieves an entry by ID
func (db *Database) GetEntryByID(id uint64) (*Entry, error) {
	var entry Entry
	if err := db.store.Get(id, &entry); err != nil {
		if errors.Is(err, bolthold.ErrNotFound) {
			return nil, fmt.Errorf("entry %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &entry, nil
}

// GetEntryBySourceKey retrieves an entry by its external dedup key
func (db *Database) GetEntryBySourceKey(key string) (*Entry, error) {
	var entry Entry
	if err := db.store.FindOne(&entry, bolthold.Where("SourceKey").Eq(key)); err != nil {
		if errors.Is(err, bolthold.ErrNotFound) {
			return nil, fmt.Errorf("entry %q: %w", key, ErrNotFound)
		}
		return nil, err
	}
	return &entry, nil
}

// GetAllEntries retrieves all entries
func (db *Database) GetAllEntries() ([]*Entry, error) {
	var entries []*Entry
	err := db.store.Find(&entries, nil)
	return entries, err
}

// GetEntriesByType retrieves all entries of a media type
func (db *Database) GetEntriesByType(mediaType MediaType) ([]*Entry, error) {
	var entries []*Entry
	err := db.store.Find(&entries, bolthold.Where("Type").Eq(mediaType))
	return entries, err
}

// DeleteEntry deletes an entry by ID
func (db *Database) DeleteEntry(id uint64) error {
	return db.store.Delete(id, &Entry{})
}
