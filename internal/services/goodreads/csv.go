package goodreads

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Status mirrors the exclusive shelf of the goodreads export.
type Status string

const (
	StatusReading Status = "currently-reading"
	StatusToRead  Status = "to-read"
	StatusRead    Status = "read"
)

// Book is one row of a goodreads library export.
type Book struct {
	ID          string
	Title       string
	Author      string
	Pages       int
	Publisher   string
	Rating      string // goodreads average, "4.23"
	Status      Status
	Audio       bool
	Comics      bool
	Educational bool
}

// Name returns the canonical entry name for the book.
func (b Book) Name() string {
	return fmt.Sprintf("%s - %s", b.Author, b.Title)
}

// comicsPublishers marks publishers whose page counts should be estimated
// at comic reading speed.
var comicsPublishers = []string{"comix", "comic", "vovkulaka"}

const positionUnknown = 1000000

// ParseExport reads a goodreads CSV export and returns its books ordered the
// way the user shelved them: currently reading first, then to-read by shelf
// position, then read books.
func ParseExport(r io.Reader) ([]Book, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[name] = i
	}
	for _, required := range []string{"Title", "Author", "Exclusive Shelf"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("csv is missing column %q", required)
		}
	}

	type positioned struct {
		index int
		book  Book
	}
	var books []positioned

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row: %w", err)
		}
		field := func(name string) string {
			i, ok := columns[name]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}

		book := Book{
			ID:        field("Book Id"),
			Title:     field("Title"),
			Author:    field("Author"),
			Publisher: field("Publisher"),
			Rating:    field("Average Rating"),
			Audio:     strings.Contains(strings.ToLower(field("Binding")), "audio"),
		}
		if pages := field("Number of Pages"); pages != "" {
			if n, err := strconv.Atoi(pages); err == nil {
				book.Pages = n
			}
		}
		book.Educational = strings.Contains(field("Bookshelves"), "want-to-read-tech")

		publisher := strings.ToLower(book.Publisher)
		for _, substring := range comicsPublishers {
			if strings.Contains(publisher, substring) {
				book.Comics = true
				break
			}
		}

		positions := field("Bookshelves with positions")
		var index int
		switch field("Exclusive Shelf") {
		case "read":
			book.Status = StatusRead
			index = positionUnknown + shelfPosition(positions, "read")
		case "to-read":
			book.Status = StatusToRead
			index = 10 + shelfPosition(positions, "to-read")
		default:
			book.Status = StatusReading
			index = shelfPosition(positions, "currently-reading")
		}

		books = append(books, positioned{index: index, book: book})
	}

	sort.SliceStable(books, func(i, j int) bool { return books[i].index < books[j].index })

	result := make([]Book, 0, len(books))
	for _, p := range books {
		result = append(result, p.book)
	}
	return result, nil
}

// shelfPosition extracts the numeric position of a shelf from the
// "Bookshelves with positions" column, e.g. "to-read (#12)".
func shelfPosition(positions, shelf string) int {
	re := regexp.MustCompile(regexp.QuoteMeta(shelf) + ` \(#(\d+)\)`)
	match := re.FindStringSubmatch(positions)
	if match == nil {
		return 2 * positionUnknown
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return 2 * positionUnknown
	}
	return n
}
