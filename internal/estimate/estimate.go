// Package estimate maps raw catalog quantities (page counts, runtimes,
// completion times) into rounded target effort values in minutes.
package estimate

import "math"

// Quantum is the rounding step applied to every estimate, in minutes.
const Quantum = 10

// Per-media multipliers applied before rounding.
const (
	minutesPerPage      = 1.4
	minutesPerPageEd    = 2.0
	minutesPerPageComic = 1.5
	runtimePadding      = 1.1
	episodePaddingMin   = 5
)

// RoundUp returns the smallest multiple of quantum that is >= value.
// Zero and negative values round to 0.
func RoundUp(value, quantum int) int {
	if value <= 0 || quantum <= 0 {
		return 0
	}
	rem := value % quantum
	if rem == 0 {
		return value
	}
	return value + quantum - rem
}

// BookFromPages estimates reading a regular book, in minutes.
func BookFromPages(pages int) int {
	return roundMinutes(float64(pages) * minutesPerPage)
}

// EducationalBookFromPages estimates reading an educational book, in minutes.
func EducationalBookFromPages(pages int) int {
	return roundMinutes(float64(pages) * minutesPerPageEd)
}

// ComicFromPages estimates reading a comic book, in minutes.
func ComicFromPages(pages int) int {
	return roundMinutes(float64(pages) * minutesPerPageComic)
}

// MovieFromRuntime estimates watching a movie from its runtime in minutes.
func MovieFromRuntime(runtime int) int {
	return roundMinutes(float64(runtime) * runtimePadding)
}

// EpisodeFromRuntime estimates watching one episode from its runtime in
// minutes. Episodes get a flat padding rather than a multiplier.
func EpisodeFromRuntime(runtime int) int {
	if runtime <= 0 {
		return 0
	}
	return RoundUp(runtime+episodePaddingMin, Quantum)
}

// GameFromSeconds estimates playing a game from a completion time in
// seconds, as reported by HowLongToBeat.
func GameFromSeconds(seconds int) int {
	return roundMinutes(float64(seconds) * runtimePadding / 60)
}

func roundMinutes(raw float64) int {
	if raw <= 0 {
		return 0
	}
	return RoundUp(int(math.Ceil(raw)), Quantum)
}
