package models

import (
	"fmt"
	"time"
)

// Shelf is a named time-window bucket that sub-entries are assigned to.
// Dated shelves carry both a start and an end date; the three reserved
// shelves (Upcoming, Backlog, Icebox) are undated.
type Shelf struct {
	ID          uint64 `boltholdKey:"ID"`
	Name        string `boltholdIndex:"Name"`
	StartDate   *time.Time
	EndDate     *time.Time
	Description string
	IsFinished  bool `boltholdIndex:"IsFinished"`
	Weight      int

	// Revision supports optimistic saves, see Database.SaveShelf.
	Revision uint64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewDatedShelf creates a shelf for the window [start, end]. The display name
// and weight are derived from the dates.
func NewDatedShelf(start, end time.Time, description string) (*Shelf, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("shelf end date %s before start date %s", end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	start = truncateToDate(start)
	end = truncateToDate(end)
	return &Shelf{
		Name:        ShelfDisplayName(start, end),
		StartDate:   &start,
		EndDate:     &end,
		Description: description,
		Weight:      DateOrdinal(start),
	}, nil
}

// NewReservedShelf creates one of the three undated reserved shelves.
func NewReservedShelf(name string) (*Shelf, error) {
	weight, ok := reservedWeights[name]
	if !ok {
		return nil, fmt.Errorf("unknown reserved shelf %q", name)
	}
	return &Shelf{Name: name, Weight: weight}, nil
}

var reservedWeights = map[string]int{
	ShelfUpcoming: WeightUpcoming,
	ShelfBacklog:  WeightBacklog,
	ShelfIcebox:   WeightIcebox,
}

// Dated reports whether the shelf has both a start and an end date.
func (s *Shelf) Dated() bool {
	return s.StartDate != nil && s.EndDate != nil
}

// ContainsDate reports whether d falls inside the shelf's inclusive
// [start, end] date range. Always false for undated shelves.
func (s *Shelf) ContainsDate(d time.Time) bool {
	if !s.Dated() {
		return false
	}
	day := truncateToDate(d)
	return !day.Before(truncateToDate(*s.StartDate)) && !day.After(truncateToDate(*s.EndDate))
}

// ShelfDisplayName derives the human-readable name for a dated shelf,
// e.g. "15 January – 22 January 2025".
func ShelfDisplayName(start, end time.Time) string {
	if start.Year() != end.Year() {
		return fmt.Sprintf("%d %s %d – %d %s %d",
			start.Day(), start.Month(), start.Year(),
			end.Day(), end.Month(), end.Year())
	}
	return fmt.Sprintf("%d %s – %d %s %d",
		start.Day(), start.Month(),
		end.Day(), end.Month(), end.Year())
}

// Ordinal of 1970-01-01 with day 1 being January 1st of year 1.
const unixEpochOrdinal = 719163

// DateOrdinal returns the proleptic ordinal of a date (day 1 is January 1st
// of year 1), which totally orders dated shelves by start date. The ordinal
// is computed from the Unix day number; a time.Time subtraction would
// overflow time.Duration over a span this long.
func DateOrdinal(t time.Time) int {
	day := truncateToDate(t)
	return int(day.Unix()/86400) + unixEpochOrdinal
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
