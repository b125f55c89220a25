package estimate

import "testing"

func TestRoundUp(t *testing.T) {
	tests := []struct {
		value, quantum, want int
	}{
		{120, 10, 120},
		{121, 10, 130},
		{129, 10, 130},
		{0, 10, 0},
		{-5, 10, 0},
		{1, 10, 10},
		{10, 10, 10},
		{45, 15, 45},
		{46, 15, 60},
	}

	for _, tt := range tests {
		got := RoundUp(tt.value, tt.quantum)
		if got != tt.want {
			t.Errorf("RoundUp(%d, %d) = %d, want %d", tt.value, tt.quantum, got, tt.want)
		}
	}
}

func TestRoundUpZeroQuantum(t *testing.T) {
	if got := RoundUp(100, 0); got != 0 {
		t.Errorf("RoundUp(100, 0) = %d, want 0", got)
	}
}

func TestEstimatorsNeverBelowRaw(t *testing.T) {
	for pages := 0; pages <= 1200; pages += 37 {
		if got := BookFromPages(pages); got < pages {
			t.Errorf("BookFromPages(%d) = %d, below page count", pages, got)
		}
		if got := EducationalBookFromPages(pages); got < pages {
			t.Errorf("EducationalBookFromPages(%d) = %d, below page count", pages, got)
		}
		if got := ComicFromPages(pages); got < pages {
			t.Errorf("ComicFromPages(%d) = %d, below page count", pages, got)
		}
	}

	for runtime := 0; runtime <= 300; runtime += 13 {
		if got := MovieFromRuntime(runtime); got < runtime {
			t.Errorf("MovieFromRuntime(%d) = %d, below runtime", runtime, got)
		}
		if runtime > 0 {
			if got := EpisodeFromRuntime(runtime); got < runtime {
				t.Errorf("EpisodeFromRuntime(%d) = %d, below runtime", runtime, got)
			}
		}
	}
}

func TestEstimatorsMonotonic(t *testing.T) {
	prev := 0
	for pages := 0; pages <= 1000; pages += 10 {
		got := BookFromPages(pages)
		if got < prev {
			t.Fatalf("BookFromPages not monotonic: f(%d) = %d < %d", pages, got, prev)
		}
		prev = got
	}

	prev = 0
	for sec := 0; sec <= 400000; sec += 3600 {
		got := GameFromSeconds(sec)
		if got < prev {
			t.Fatalf("GameFromSeconds not monotonic: f(%d) = %d < %d", sec, got, prev)
		}
		prev = got
	}
}

func TestZeroQuantities(t *testing.T) {
	if got := BookFromPages(0); got != 0 {
		t.Errorf("BookFromPages(0) = %d, want 0", got)
	}
	if got := MovieFromRuntime(0); got != 0 {
		t.Errorf("MovieFromRuntime(0) = %d, want 0", got)
	}
	if got := EpisodeFromRuntime(0); got != 0 {
		t.Errorf("EpisodeFromRuntime(0) = %d, want 0", got)
	}
	if got := GameFromSeconds(0); got != 0 {
		t.Errorf("GameFromSeconds(0) = %d, want 0", got)
	}
}

func TestEpisodeEstimate(t *testing.T) {
	// 42 min runtime + 5 min padding, rounded up to the next quantum
	if got := EpisodeFromRuntime(42); got != 50 {
		t.Errorf("EpisodeFromRuntime(42) = %d, want 50", got)
	}
	// exact multiple after padding stays put
	if got := EpisodeFromRuntime(45); got != 50 {
		t.Errorf("EpisodeFromRuntime(45) = %d, want 50", got)
	}
}
