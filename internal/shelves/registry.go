// Package shelves holds the shelf ordering rules and the shelf-finish
// carryover transition.
package shelves

import (
	"fmt"
	"sort"
	"time"

	"shelfspace/internal/models"
)

// A shelf remains "current" until this hour the day after its nominal end,
// so late-night activity is attributed to the shelf that was active when the
// day began.
const windowCloseHour = 4

// Registry is a read-only snapshot of all shelves, ordered by weight. It is
// loaded once per operation and passed explicitly to everything that needs
// shelf lookups.
type Registry struct {
	ordered []*models.Shelf
	byID    map[uint64]*models.Shelf
	byName  map[string]*models.Shelf
}

// NewRegistry builds a registry from a set of shelves. The input slice is
// not retained.
func NewRegistry(all []*models.Shelf) *Registry {
	r := &Registry{
		ordered: make([]*models.Shelf, len(all)),
		byID:    make(map[uint64]*models.Shelf, len(all)),
		byName:  make(map[string]*models.Shelf, len(all)),
	}
	copy(r.ordered, all)
	// Ties are not expected (weights come from distinct start-date ordinals
	// or the reserved constants); if they occur the order is unspecified.
	sort.SliceStable(r.ordered, func(i, j int) bool {
		return r.ordered[i].Weight < r.ordered[j].Weight
	})
	for _, shelf := range r.ordered {
		r.byID[shelf.ID] = shelf
		r.byName[shelf.Name] = shelf
	}
	return r
}

// All returns every shelf ordered ascending by weight.
func (r *Registry) All() []*models.Shelf {
	return r.ordered
}

// Active returns all shelves that are not finished, ordered by weight.
func (r *Registry) Active() []*models.Shelf {
	var active []*models.Shelf
	for _, shelf := range r.ordered {
		if !shelf.IsFinished {
			active = append(active, shelf)
		}
	}
	return active
}

// ByID returns the shelf with the given id, or nil.
func (r *Registry) ByID(id uint64) *models.Shelf {
	return r.byID[id]
}

// ByName returns the shelf with the given display name, or nil.
func (r *Registry) ByName(name string) *models.Shelf {
	return r.byName[name]
}

// NextAfter returns the active shelf with the smallest weight strictly
// greater than the given shelf's weight, or nil if it is the last.
func (r *Registry) NextAfter(shelf *models.Shelf) *models.Shelf {
	for _, candidate := range r.ordered {
		if candidate.IsFinished {
			continue
		}
		if candidate.Weight > shelf.Weight {
			return candidate
		}
	}
	return nil
}

// CurrentForTimestamp finds the shelf a dated event belongs to. A dated
// shelf's window runs from midnight on its start date until windowCloseHour
// the day after its end date. When no dated window contains ts, the active
// undated shelf with the smallest weight is used.
func (r *Registry) CurrentForTimestamp(ts time.Time) (*models.Shelf, error) {
	for _, shelf := range r.ordered {
		if !shelf.Dated() {
			continue
		}
		if shelfWindowContains(shelf, ts) {
			return shelf, nil
		}
	}
	return r.fallbackShelf()
}

func shelfWindowContains(shelf *models.Shelf, ts time.Time) bool {
	sy, sm, sd := shelf.StartDate.Date()
	start := time.Date(sy, sm, sd, 0, 0, 0, 0, ts.Location())
	ey, em, ed := shelf.EndDate.Date()
	end := time.Date(ey, em, ed, 0, 0, 0, 0, ts.Location()).
		AddDate(0, 0, 1).
		Add(windowCloseHour * time.Hour)
	return !ts.Before(start) && ts.Before(end)
}

func (r *Registry) fallbackShelf() (*models.Shelf, error) {
	for _, shelf := range r.ordered {
		if shelf.IsFinished || shelf.Dated() {
			continue
		}
		return shelf, nil
	}
	return nil, fmt.Errorf("no active undated shelf in registry: %w", models.ErrAmbiguousPlacement)
}

// ShelfForAirDate picks the destination shelf for a unit released on the
// given date. Undated units land on Icebox when the owning entry already has
// content there, otherwise on Backlog; dated units go to the active dated
// shelf whose inclusive range contains the date, with the same fallback when
// none matches.
func (r *Registry) ShelfForAirDate(airDate *time.Time, hasIceboxItem bool) (*models.Shelf, error) {
	if airDate != nil {
		for _, shelf := range r.ordered {
			if shelf.IsFinished {
				continue
			}
			if shelf.ContainsDate(*airDate) {
				return shelf, nil
			}
		}
	}
	name := models.ShelfBacklog
	if hasIceboxItem {
		name = models.ShelfIcebox
	}
	shelf := r.byName[name]
	if shelf == nil {
		return nil, fmt.Errorf("reserved shelf %q missing: %w", name, models.ErrAmbiguousPlacement)
	}
	return shelf, nil
}
