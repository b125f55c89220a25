package utils

import (
	"strings"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
)

var titleFolder = cases.Fold()

// NormalizeTitle lowercases a title with full Unicode case folding and
// collapses runs of whitespace, so matching is stable across sources that
// disagree on casing and spacing.
func NormalizeTitle(title string) string {
	return strings.Join(strings.Fields(titleFolder.String(title)), " ")
}

// SimilarTitles reports whether two titles are close enough to be the same
// work. Normalized titles within an edit distance of 2 count as similar.
func SimilarTitles(a, b string) bool {
	na, nb := NormalizeTitle(a), NormalizeTitle(b)
	if na == nb {
		return true
	}
	return levenshtein.ComputeDistance(na, nb) <= 2
}
