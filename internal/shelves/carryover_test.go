package shelves

import (
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"shelfspace/internal/models"
)

func testDB(t *testing.T) *models.Database {
	t.Helper()
	db, err := models.NewDatabase(filepath.Join(t.TempDir(), "shelfspace.db"))
	if err != nil {
		t.Fatalf("NewDatabase: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func intPtr(v int) *int { return &v }

// seedShelves creates a closing shelf, a next shelf and the reserved
// shelves, returning the loaded registry plus the two dated shelves.
func seedShelves(t *testing.T, db *models.Database) (*Registry, *models.Shelf, *models.Shelf) {
	t.Helper()
	closing, err := models.NewDatedShelf(date(2025, time.January, 1), date(2025, time.January, 7), "")
	if err != nil {
		t.Fatal(err)
	}
	next, err := models.NewDatedShelf(date(2025, time.January, 8), date(2025, time.January, 14), "")
	if err != nil {
		t.Fatal(err)
	}
	for _, shelf := range []*models.Shelf{closing, next} {
		if err := db.CreateShelf(shelf); err != nil {
			t.Fatalf("CreateShelf: %v", err)
		}
	}
	if err := db.EnsureReservedShelves(); err != nil {
		t.Fatalf("EnsureReservedShelves: %v", err)
	}
	all, err := db.GetAllShelves()
	if err != nil {
		t.Fatalf("GetAllShelves: %v", err)
	}
	return NewRegistry(all), closing, next
}

func TestFinishCarryoverConservation(t *testing.T) {
	db := testDB(t)
	registry, closing, next := seedShelves(t, db)

	entry := &models.Entry{
		Type: models.MediaTypeBook,
		Name: "The Dispossessed",
		SubEntries: []models.SubEntry{
			{ShelfID: closing.ID, Estimated: intPtr(120), Spent: 45},
		},
	}
	if err := db.CreateEntry(entry); err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	engine := NewCarryoverEngine(db, quietLogger())
	if err := engine.Finish(registry, closing); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	got, err := db.GetEntryByID(entry.ID)
	if err != nil {
		t.Fatalf("GetEntryByID: %v", err)
	}
	if len(got.SubEntries) != 2 {
		t.Fatalf("got %d sub-entries, want 2", len(got.SubEntries))
	}

	finished := got.SubEntries[0]
	if !finished.IsFinished {
		t.Error("original sub-entry should be finished")
	}
	if finished.Estimated == nil || *finished.Estimated != 45 {
		t.Errorf("finished estimated = %v, want 45", finished.Estimated)
	}
	if finished.Spent != 45 {
		t.Errorf("finished spent = %d, want 45", finished.Spent)
	}

	remainder := got.SubEntries[1]
	if remainder.IsFinished {
		t.Error("remainder should be open")
	}
	if remainder.ShelfID != next.ID {
		t.Errorf("remainder shelf = %d, want %d", remainder.ShelfID, next.ID)
	}
	if remainder.Estimated == nil || *remainder.Estimated != 75 {
		t.Errorf("remainder estimated = %v, want 75", remainder.Estimated)
	}
	if remainder.Spent != 0 {
		t.Errorf("remainder spent = %d, want 0", remainder.Spent)
	}

	// conservation: the two estimates sum to the original
	if *finished.Estimated+*remainder.Estimated != 120 {
		t.Errorf("estimates sum to %d, want 120", *finished.Estimated+*remainder.Estimated)
	}

	shelf, err := db.GetShelfByID(closing.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !shelf.IsFinished {
		t.Error("closing shelf should be marked finished")
	}
}

func TestFinishNoSpendMove(t *testing.T) {
	db := testDB(t)
	registry, closing, next := seedShelves(t, db)

	release := date(2025, time.January, 3)
	entry := &models.Entry{
		Type: models.MediaTypeSeries,
		Name: "Severance S2",
		SubEntries: []models.SubEntry{
			{ShelfID: closing.ID, Name: "S02E01", Estimated: intPtr(60), ReleaseDate: &release},
		},
	}
	if err := db.CreateEntry(entry); err != nil {
		t.Fatal(err)
	}

	engine := NewCarryoverEngine(db, quietLogger())
	if err := engine.Finish(registry, closing); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	got, err := db.GetEntryByID(entry.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.SubEntries) != 1 {
		t.Fatalf("got %d sub-entries, want 1 (no split)", len(got.SubEntries))
	}
	se := got.SubEntries[0]
	if se.ShelfID != next.ID {
		t.Errorf("sub-entry shelf = %d, want %d", se.ShelfID, next.ID)
	}
	if se.IsFinished {
		t.Error("sub-entry should stay open")
	}
	if se.Estimated == nil || *se.Estimated != 60 {
		t.Errorf("estimated = %v, want unchanged 60", se.Estimated)
	}
	if se.ReleaseDate == nil || !se.ReleaseDate.Equal(release) {
		t.Errorf("release date = %v, want unchanged %v", se.ReleaseDate, release)
	}
}

func TestFinishNoEstimateNoRemainder(t *testing.T) {
	db := testDB(t)
	registry, closing, _ := seedShelves(t, db)

	entry := &models.Entry{
		Type: models.MediaTypeProjects,
		Name: "Garden shed",
		SubEntries: []models.SubEntry{
			{ShelfID: closing.ID, Spent: 90}, // no estimate at all
		},
	}
	if err := db.CreateEntry(entry); err != nil {
		t.Fatal(err)
	}

	engine := NewCarryoverEngine(db, quietLogger())
	if err := engine.Finish(registry, closing); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	got, err := db.GetEntryByID(entry.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.SubEntries) != 1 {
		t.Fatalf("got %d sub-entries, want 1", len(got.SubEntries))
	}
	se := got.SubEntries[0]
	if !se.IsFinished {
		t.Error("sub-entry should be finished")
	}
	if se.Estimated == nil || *se.Estimated != 90 {
		t.Errorf("estimated = %v, want 90 (the spent time)", se.Estimated)
	}
}

func TestFinishLeavesFinishedUntouched(t *testing.T) {
	db := testDB(t)
	registry, closing, _ := seedShelves(t, db)

	entry := &models.Entry{
		Type: models.MediaTypeMovie,
		Name: "Paris, Texas",
		SubEntries: []models.SubEntry{
			{ShelfID: closing.ID, Estimated: intPtr(150), Spent: 150, IsFinished: true},
		},
	}
	if err := db.CreateEntry(entry); err != nil {
		t.Fatal(err)
	}

	engine := NewCarryoverEngine(db, quietLogger())
	if err := engine.Finish(registry, closing); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	got, err := db.GetEntryByID(entry.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.SubEntries) != 1 {
		t.Fatalf("got %d sub-entries, want 1", len(got.SubEntries))
	}
	if got.SubEntries[0].ShelfID != closing.ID {
		t.Error("finished sub-entry should stay on the closed shelf")
	}
	if got.Revision != entry.Revision {
		t.Error("untouched entry should not have been re-saved")
	}
}

func TestFinishRejectsAlreadyFinished(t *testing.T) {
	db := testDB(t)
	registry, closing, _ := seedShelves(t, db)

	engine := NewCarryoverEngine(db, quietLogger())
	if err := engine.Finish(registry, closing); err != nil {
		t.Fatalf("first Finish: %v", err)
	}

	err := engine.Finish(registry, closing)
	if !errors.Is(err, models.ErrInvalidTransition) {
		t.Fatalf("second Finish: expected ErrInvalidTransition, got %v", err)
	}
}

func TestFinishRejectsWithoutNextShelf(t *testing.T) {
	db := testDB(t)
	if err := db.EnsureReservedShelves(); err != nil {
		t.Fatal(err)
	}
	icebox, err := db.GetShelfByName(models.ShelfIcebox)
	if err != nil {
		t.Fatal(err)
	}
	all, err := db.GetAllShelves()
	if err != nil {
		t.Fatal(err)
	}
	registry := NewRegistry(all)

	engine := NewCarryoverEngine(db, quietLogger())
	err = engine.Finish(registry, icebox)
	if !errors.Is(err, models.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	got, err := db.GetShelfByID(icebox.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.IsFinished {
		t.Error("rejected transition must not mutate the shelf")
	}
}

func TestCanFinishGate(t *testing.T) {
	now := time.Date(2025, time.January, 10, 12, 0, 0, 0, time.UTC)

	future, err := models.NewDatedShelf(date(2025, time.February, 1), date(2025, time.February, 7), "")
	if err != nil {
		t.Fatal(err)
	}
	future.ID = 1

	running, err := models.NewDatedShelf(date(2025, time.January, 8), date(2025, time.January, 14), "")
	if err != nil {
		t.Fatal(err)
	}
	running.ID = 2

	ended, err := models.NewDatedShelf(date(2025, time.January, 1), date(2025, time.January, 7), "")
	if err != nil {
		t.Fatal(err)
	}
	ended.ID = 3

	backlog, err := models.NewReservedShelf(models.ShelfBacklog)
	if err != nil {
		t.Fatal(err)
	}
	backlog.ID = 4

	open := func(shelfID uint64) []*models.Entry {
		return []*models.Entry{{SubEntries: []models.SubEntry{{ShelfID: shelfID, Estimated: intPtr(60)}}}}
	}
	done := func(shelfID uint64) []*models.Entry {
		return []*models.Entry{{SubEntries: []models.SubEntry{{ShelfID: shelfID, Estimated: intPtr(60), Spent: 60, IsFinished: true}}}}
	}

	tests := []struct {
		name    string
		shelf   *models.Shelf
		entries []*models.Entry
		want    bool
	}{
		{"future start never closeable", future, done(future.ID), false},
		{"running shelf with open work", running, open(running.ID), false},
		{"running shelf fully finished", running, done(running.ID), true},
		{"ended shelf with open work", ended, open(ended.ID), true},
		{"undated shelf with open work", backlog, open(backlog.ID), false},
		{"undated shelf fully finished", backlog, done(backlog.ID), true},
		{"empty shelf", running, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := canFinishAt(tt.shelf, tt.entries, now); got != tt.want {
				t.Errorf("canFinishAt = %v, want %v", got, tt.want)
			}
		})
	}
}
