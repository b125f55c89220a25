package models

import "errors"

var (
	// ErrNotFound is returned when a referenced Entry or Shelf does not
	// exist at lookup time.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidTransition is returned when finishing an already-finished
	// shelf, or a shelf with no next shelf to carry work into.
	ErrInvalidTransition = errors.New("invalid shelf transition")

	// ErrAmbiguousPlacement indicates the reserved fallback shelves are
	// missing from the registry. This is a configuration error, not a
	// normal data condition.
	ErrAmbiguousPlacement = errors.New("no fallback shelf available")

	// ErrConflict is returned by optimistic saves when the stored revision
	// changed since the record was loaded.
	ErrConflict = errors.New("revision conflict")
)
