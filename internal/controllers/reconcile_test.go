package controllers

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"shelfspace/internal/models"
	"shelfspace/internal/services/trakt"
	"shelfspace/internal/shelves"
)

type fakeCatalog struct {
	movie          trakt.MovieDetails
	showTitle      string
	episodeRuntime int
}

func (f *fakeCatalog) MovieDetails(ctx context.Context, movieID int64) (trakt.MovieDetails, error) {
	return f.movie, nil
}

func (f *fakeCatalog) ShowTitle(ctx context.Context, showID int64) (string, error) {
	return f.showTitle, nil
}

func (f *fakeCatalog) EpisodeRuntime(ctx context.Context, showID int64, season, episode int) (int, error) {
	return f.episodeRuntime, nil
}

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

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// seedShelves creates two consecutive dated shelves plus the reserved ones
// and returns the loaded registry with the dated shelves.
func seedShelves(t *testing.T, db *models.Database) (*shelves.Registry, *models.Shelf, *models.Shelf) {
	t.Helper()
	first, err := models.NewDatedShelf(date(2025, time.March, 3), date(2025, time.March, 9), "")
	if err != nil {
		t.Fatal(err)
	}
	second, err := models.NewDatedShelf(date(2025, time.March, 10), date(2025, time.March, 16), "")
	if err != nil {
		t.Fatal(err)
	}
	for _, shelf := range []*models.Shelf{first, second} {
		if err := db.CreateShelf(shelf); err != nil {
			t.Fatalf("CreateShelf: %v", err)
		}
	}
	if err := db.EnsureReservedShelves(); err != nil {
		t.Fatalf("EnsureReservedShelves: %v", err)
	}
	return reloadRegistry(t, db), first, second
}

func reloadRegistry(t *testing.T, db *models.Database) *shelves.Registry {
	t.Helper()
	all, err := db.GetAllShelves()
	if err != nil {
		t.Fatalf("GetAllShelves: %v", err)
	}
	return shelves.NewRegistry(all)
}

func movieEvent(movieID int64, watchedAt time.Time) trakt.WatchedItem {
	return trakt.WatchedItem{Type: "movie", MovieID: movieID, WatchedAt: watchedAt}
}

func episodeEvent(showID int64, season, episode int, watchedAt time.Time) trakt.WatchedItem {
	return trakt.WatchedItem{Type: "episode", ShowID: showID, Season: season, Episode: episode, WatchedAt: watchedAt}
}

func TestReconcileCreatesWatchedMovie(t *testing.T) {
	db := testDB(t)
	registry, first, _ := seedShelves(t, db)

	catalog := &fakeCatalog{movie: trakt.MovieDetails{Title: "Arrival", Runtime: 116, Rating: 83}}
	r := NewWatchReconciler(db, catalog, quietLogger())

	watched := date(2025, time.March, 5).Add(21 * time.Hour)
	if err := r.Reconcile(context.Background(), registry, []trakt.WatchedItem{movieEvent(42, watched)}); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	entry, err := db.GetEntryBySourceKey(models.MovieSourceKey(42))
	if err != nil {
		t.Fatalf("GetEntryBySourceKey: %v", err)
	}
	if entry.Name != "Arrival" || entry.Type != models.MediaTypeMovie {
		t.Errorf("unexpected entry %q (%s)", entry.Name, entry.Type)
	}
	if len(entry.SubEntries) != 1 {
		t.Fatalf("expected 1 sub-entry, got %d", len(entry.SubEntries))
	}
	se := entry.SubEntries[0]
	if !se.IsFinished || se.Spent != 116 || se.Estimated == nil || *se.Estimated != 116 {
		t.Errorf("unexpected sub-entry %+v", se)
	}
	if se.ShelfID != first.ID {
		t.Errorf("expected sub-entry on shelf %d, got %d", first.ID, se.ShelfID)
	}
}

func TestReconcileSameEventTwiceIsIdempotent(t *testing.T) {
	db := testDB(t)
	registry, _, _ := seedShelves(t, db)

	catalog := &fakeCatalog{movie: trakt.MovieDetails{Title: "Arrival", Runtime: 116}}
	r := NewWatchReconciler(db, catalog, quietLogger())

	watched := date(2025, time.March, 5).Add(21 * time.Hour)
	events := []trakt.WatchedItem{movieEvent(42, watched)}
	for i := 0; i < 2; i++ {
		if err := r.Reconcile(context.Background(), registry, events); err != nil {
			t.Fatalf("Reconcile run %d: %v", i+1, err)
		}
	}

	entry, err := db.GetEntryBySourceKey(models.MovieSourceKey(42))
	if err != nil {
		t.Fatalf("GetEntryBySourceKey: %v", err)
	}
	if len(entry.SubEntries) != 1 {
		t.Errorf("expected 1 sub-entry after replay, got %d", len(entry.SubEntries))
	}
}

func TestReconcileFinishesOpenSubEntry(t *testing.T) {
	db := testDB(t)
	registry, first, second := seedShelves(t, db)

	entry := &models.Entry{
		Type:      models.MediaTypeSeries,
		Name:      "Severance S2",
		SourceKey: models.SeasonSourceKey(7, 2),
		SubEntries: []models.SubEntry{
			{ShelfID: first.ID, Name: "S02E03", Estimated: intPtr(50)},
		},
	}
	if err := db.CreateEntry(entry); err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	r := NewWatchReconciler(db, &fakeCatalog{}, quietLogger())
	watched := date(2025, time.March, 12).Add(20 * time.Hour)
	if err := r.Reconcile(context.Background(), registry, []trakt.WatchedItem{episodeEvent(7, 2, 3, watched)}); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	got, err := db.GetEntryByID(entry.ID)
	if err != nil {
		t.Fatalf("GetEntryByID: %v", err)
	}
	se := got.SubEntries[0]
	if !se.IsFinished {
		t.Error("expected sub-entry to be finished")
	}
	if se.Spent != 50 {
		t.Errorf("expected spent 50, got %d", se.Spent)
	}
	if se.ShelfID != second.ID {
		t.Errorf("expected sub-entry moved to shelf %d, got %d", second.ID, se.ShelfID)
	}
	if len(got.SubEntries) != 1 {
		t.Errorf("expected no extra sub-entries, got %d", len(got.SubEntries))
	}
}

func TestReconcileAddsUnknownEpisodeToSeason(t *testing.T) {
	db := testDB(t)
	registry, first, _ := seedShelves(t, db)

	entry := &models.Entry{
		Type:      models.MediaTypeSeries,
		Name:      "Severance S2",
		SourceKey: models.SeasonSourceKey(7, 2),
		SubEntries: []models.SubEntry{
			{ShelfID: first.ID, Name: "S02E01", Estimated: intPtr(50), Spent: 50, IsFinished: true},
		},
	}
	if err := db.CreateEntry(entry); err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	catalog := &fakeCatalog{episodeRuntime: 47}
	r := NewWatchReconciler(db, catalog, quietLogger())
	watched := date(2025, time.March, 6).Add(19 * time.Hour)
	if err := r.Reconcile(context.Background(), registry, []trakt.WatchedItem{episodeEvent(7, 2, 2, watched)}); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	got, err := db.GetEntryByID(entry.ID)
	if err != nil {
		t.Fatalf("GetEntryByID: %v", err)
	}
	if len(got.SubEntries) != 2 {
		t.Fatalf("expected 2 sub-entries, got %d", len(got.SubEntries))
	}
	added := got.SubEntryByName("S02E02")
	if added == nil {
		t.Fatal("expected S02E02 sub-entry")
	}
	if !added.IsFinished || added.Spent != 47 {
		t.Errorf("unexpected sub-entry %+v", added)
	}
}

func TestReconcileRewatchOnLaterShelf(t *testing.T) {
	db := testDB(t)
	registry, first, second := seedShelves(t, db)

	entry := &models.Entry{
		Type:      models.MediaTypeMovie,
		Name:      "Arrival",
		SourceKey: models.MovieSourceKey(42),
		SubEntries: []models.SubEntry{
			{ShelfID: first.ID, Estimated: intPtr(116), Spent: 116, IsFinished: true},
		},
	}
	if err := db.CreateEntry(entry); err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	r := NewWatchReconciler(db, &fakeCatalog{}, quietLogger())
	watched := date(2025, time.March, 12).Add(20 * time.Hour)
	if err := r.Reconcile(context.Background(), registry, []trakt.WatchedItem{movieEvent(42, watched)}); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	got, err := db.GetEntryByID(entry.ID)
	if err != nil {
		t.Fatalf("GetEntryByID: %v", err)
	}
	if len(got.SubEntries) != 2 {
		t.Fatalf("expected rewatch sub-entry, got %d sub-entries", len(got.SubEntries))
	}
	rewatch := got.SubEntries[1]
	if rewatch.ShelfID != second.ID || !rewatch.IsFinished || rewatch.Spent != 116 {
		t.Errorf("unexpected rewatch sub-entry %+v", rewatch)
	}
}

func TestReconcileSkipsEventOnFinishedShelf(t *testing.T) {
	db := testDB(t)
	_, first, _ := seedShelves(t, db)

	entry := &models.Entry{
		Type:      models.MediaTypeMovie,
		Name:      "Arrival",
		SourceKey: models.MovieSourceKey(42),
		SubEntries: []models.SubEntry{
			{ShelfID: first.ID, Estimated: intPtr(116), Spent: 116, IsFinished: true},
		},
	}
	if err := db.CreateEntry(entry); err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	first.IsFinished = true
	if err := db.SaveShelf(first); err != nil {
		t.Fatalf("SaveShelf: %v", err)
	}
	registry := reloadRegistry(t, db)

	r := NewWatchReconciler(db, &fakeCatalog{}, quietLogger())
	// the history event from the week the shelf covered, seen again after
	// the shelf was finished
	watched := date(2025, time.March, 12).Add(20 * time.Hour)
	if err := r.Reconcile(context.Background(), registry, []trakt.WatchedItem{movieEvent(42, watched)}); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	got, err := db.GetEntryByID(entry.ID)
	if err != nil {
		t.Fatalf("GetEntryByID: %v", err)
	}
	if len(got.SubEntries) != 1 {
		t.Errorf("expected no new sub-entries, got %d", len(got.SubEntries))
	}
}

func TestReconcileNoShelfForTimestampAborts(t *testing.T) {
	db := testDB(t)
	if err := db.EnsureReservedShelves(); err != nil {
		t.Fatalf("EnsureReservedShelves: %v", err)
	}
	all, err := db.GetAllShelves()
	if err != nil {
		t.Fatalf("GetAllShelves: %v", err)
	}
	// drop the undated fallbacks so no shelf can claim the timestamp
	var dated []*models.Shelf
	for _, s := range all {
		if s.Dated() {
			dated = append(dated, s)
		}
	}
	registry := shelves.NewRegistry(dated)

	r := NewWatchReconciler(db, &fakeCatalog{}, quietLogger())
	err = r.Reconcile(context.Background(), registry, []trakt.WatchedItem{movieEvent(42, date(2025, time.March, 5))})
	if err == nil {
		t.Fatal("expected error when no shelf covers the timestamp")
	}
}
