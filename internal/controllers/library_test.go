package controllers

import (
	"strings"
	"testing"

	"shelfspace/internal/models"
)

const exportHeader = "Book Id,Title,Author,Number of Pages,Publisher,Binding,Average Rating,Exclusive Shelf,Bookshelves,Bookshelves with positions\n"

func TestImportBooksPlacesOnIcebox(t *testing.T) {
	db := testDB(t)
	registry, _, _ := seedShelves(t, db)

	export := exportHeader +
		"11,The Left Hand of Darkness,Ursula K. Le Guin,304,Ace,Paperback,4.12,to-read,,to-read (#1)\n"

	importer := NewLibraryImporter(db, nil, quietLogger())
	if err := importer.ImportBooks(strings.NewReader(export), registry); err != nil {
		t.Fatalf("ImportBooks: %v", err)
	}

	entry, err := db.GetEntryBySourceKey(models.BookSourceKey("11"))
	if err != nil {
		t.Fatalf("GetEntryBySourceKey: %v", err)
	}
	if entry.Type != models.MediaTypeBook {
		t.Errorf("type = %q, want %q", entry.Type, models.MediaTypeBook)
	}
	if len(entry.SubEntries) != 1 {
		t.Fatalf("got %d sub-entries, want 1", len(entry.SubEntries))
	}
	se := entry.SubEntries[0]
	icebox := registry.ByName(models.ShelfIcebox)
	if se.ShelfID != icebox.ID {
		t.Errorf("shelf = %d, want Icebox %d", se.ShelfID, icebox.ID)
	}
	if se.IsFinished {
		t.Error("to-read book must stay open")
	}
	// 304 pages at reading speed, rounded up
	if se.Estimated == nil || *se.Estimated != 430 {
		t.Errorf("estimated = %v, want 430", se.Estimated)
	}
}

func TestImportBooksFinishedAudioHasDefinedEstimate(t *testing.T) {
	db := testDB(t)
	registry, _, _ := seedShelves(t, db)

	export := exportHeader +
		"21,Project Hail Mary,Andy Weir,0,Audible,Audiobook,4.50,read,,read (#3)\n"

	importer := NewLibraryImporter(db, nil, quietLogger())
	if err := importer.ImportBooks(strings.NewReader(export), registry); err != nil {
		t.Fatalf("ImportBooks: %v", err)
	}

	entry, err := db.GetEntryBySourceKey(models.BookSourceKey("21"))
	if err != nil {
		t.Fatalf("GetEntryBySourceKey: %v", err)
	}
	se := entry.SubEntries[0]
	if !se.IsFinished {
		t.Error("read book must be finished")
	}
	if se.Estimated == nil {
		t.Fatal("finished unit must carry a defined estimate")
	}
	if *se.Estimated != 0 || se.Spent != 0 {
		t.Errorf("estimated/spent = %d/%d, want 0/0 for an audiobook", *se.Estimated, se.Spent)
	}
}

func TestImportBooksSkipsNearDuplicateTitle(t *testing.T) {
	db := testDB(t)
	registry, _, _ := seedShelves(t, db)

	export := exportHeader +
		"31,Piranesi,Susanna Clarke,245,Bloomsbury,Hardcover,4.23,to-read,,to-read (#2)\n" +
		"32,Piranesi ,Susanna Clarke,272,Bloomsbury,Paperback,4.23,to-read,,to-read (#5)\n"

	importer := NewLibraryImporter(db, nil, quietLogger())
	if err := importer.ImportBooks(strings.NewReader(export), registry); err != nil {
		t.Fatalf("ImportBooks: %v", err)
	}

	if _, err := db.GetEntryBySourceKey(models.BookSourceKey("31")); err != nil {
		t.Fatalf("first edition missing: %v", err)
	}
	if _, err := db.GetEntryBySourceKey(models.BookSourceKey("32")); err == nil {
		t.Error("near-duplicate title must not create a second entry")
	}
}

func TestImportBooksIsIdempotent(t *testing.T) {
	db := testDB(t)
	registry, _, _ := seedShelves(t, db)

	export := exportHeader +
		"41,Blindsight,Peter Watts,384,Tor,Paperback,4.01,currently-reading,,currently-reading (#1)\n"

	importer := NewLibraryImporter(db, nil, quietLogger())
	for i := 0; i < 2; i++ {
		if err := importer.ImportBooks(strings.NewReader(export), registry); err != nil {
			t.Fatalf("ImportBooks run %d: %v", i+1, err)
		}
	}

	entries, err := db.GetAllEntries()
	if err != nil {
		t.Fatal(err)
	}
	books := 0
	for _, entry := range entries {
		if entry.Type == models.MediaTypeBook {
			books++
		}
	}
	if books != 1 {
		t.Errorf("got %d book entries after two imports, want 1", books)
	}
}
