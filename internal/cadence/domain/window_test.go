package cadence

import (
	"errors"
	"testing"
)

func mustCriterion(t *testing.T, intervalLength float64, minVisits, nPairs int, minPairGap float64) WindowCriterion {
	t.Helper()
	criterion, err := NewWindowCriterion(intervalLength, minVisits, nPairs, minPairGap)
	if err != nil {
		t.Fatalf("new criterion: %v", err)
	}
	return criterion
}

func TestWindowCriterion_ReferenceTable(t *testing.T) {
	countOnly := mustCriterion(t, 45, 3, 0, 0)
	withPairs := mustCriterion(t, 45, 3, 2, 2)

	cases := []struct {
		name      string
		times     []float64
		countOnly bool
		withPairs bool
	}{
		{"dense early", []float64{0, 1, 2, 5, 40}, true, true},
		{"edges inclusive", []float64{0, 2, 45}, true, true},
		{"late pair", []float64{0, 1, 43, 45}, true, true},
		{"cluster plus tail", []float64{0, 1, 2, 3, 4, 5, 45}, true, true},
		{"single gap pair", []float64{0, 1, 45}, true, false},
		{"tight tail pair", []float64{0, 44, 45}, true, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := countOnly.Evaluate(tc.times); got != tc.countOnly {
				t.Fatalf("count-only: expected %v, got %v", tc.countOnly, got)
			}
			if got := withPairs.Evaluate(tc.times); got != tc.withPairs {
				t.Fatalf("with pairs: expected %v, got %v", tc.withPairs, got)
			}
		})
	}
}

func TestWindowCriterion_ConstructionErrors(t *testing.T) {
	cases := []struct {
		name           string
		intervalLength float64
		minVisits      int
		nPairs         int
		minPairGap     float64
		want           error
	}{
		{"zero interval", 0, 3, 0, 0, ErrInvalidIntervalLength},
		{"negative interval", -1, 3, 0, 0, ErrInvalidIntervalLength},
		{"one visit", 45, 1, 0, 0, ErrInvalidMinVisits},
		{"negative pairs", 45, 3, -1, 0, ErrInvalidPairCount},
		{"negative gap", 45, 3, 2, -1, ErrInvalidPairGap},
		{"too many pairs", 45, 3, 5, 2, ErrPairCountExceedsVisits},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewWindowCriterion(tc.intervalLength, tc.minVisits, tc.nPairs, tc.minPairGap)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestWindowCriterion_EmptyAndUndersized(t *testing.T) {
	criterion := mustCriterion(t, 45, 3, 0, 0)
	if criterion.Evaluate(nil) {
		t.Fatal("expected false for empty input")
	}
	if criterion.Evaluate([]float64{10, 11}) {
		t.Fatal("expected false below min visits")
	}
}

func TestWindowCriterion_InputNotReordered(t *testing.T) {
	criterion := mustCriterion(t, 45, 3, 2, 2)
	times := []float64{40, 0, 5, 2, 1}
	if !criterion.Evaluate(times) {
		t.Fatal("expected true")
	}
	want := []float64{40, 0, 5, 2, 1}
	for i := range want {
		if times[i] != want[i] {
			t.Fatalf("caller slice reordered at %d: %v", i, times)
		}
	}
}

// A later anchor can satisfy a criterion the earliest anchor fails; the
// search must try every window, not just the first.
func TestWindowCriterion_LaterAnchorSucceeds(t *testing.T) {
	criterion := mustCriterion(t, 10, 3, 0, 0)
	times := []float64{0, 100, 101, 102}
	if !criterion.Evaluate(times) {
		t.Fatal("expected true from second anchor")
	}

	pairs := mustCriterion(t, 10, 3, 2, 2)
	// First dense window has the visits but not the pairs; a later one has both.
	withLateWindow := []float64{0, 0.1, 0.2, 100, 103, 106}
	if !pairs.Evaluate(withLateWindow) {
		t.Fatal("expected true from a later window")
	}
}

func TestWindowCriterion_Monotonicity(t *testing.T) {
	times := []float64{0, 12, 30, 61, 75}

	prev := false
	for _, length := range []float64{5, 20, 45, 80} {
		criterion := mustCriterion(t, length, 3, 0, 0)
		got := criterion.Evaluate(times)
		if prev && !got {
			t.Fatalf("longer interval %v turned true into false", length)
		}
		prev = got
	}

	prevFalse := false
	for _, minVisits := range []int{2, 3, 4, 5, 6} {
		criterion := mustCriterion(t, 45, minVisits, 0, 0)
		got := criterion.Evaluate(times)
		if prevFalse && got {
			t.Fatalf("higher min visits %d turned false into true", minVisits)
		}
		prevFalse = !got
	}
}

func TestCountGapPairs_Deterministic(t *testing.T) {
	window := []float64{0, 1, 3, 3, 6, 10}
	first := countGapPairs(window, 2)
	for i := 0; i < 50; i++ {
		if got := countGapPairs(window, 2); got != first {
			t.Fatalf("expected %d, got %d on repeat %d", first, got, i)
		}
	}
	if first != 3 {
		t.Fatalf("expected 3 greedy pairs, got %d", first)
	}
}

func TestCountGapPairs_NoReuseOfRightEndpoint(t *testing.T) {
	// 0->44 closes a pair; 44 and 45 are too close, so only one pair exists.
	if got := countGapPairs([]float64{0, 44, 45}, 2); got != 1 {
		t.Fatalf("expected 1 pair, got %d", got)
	}
	// 0->2 then 2->45: the matched right endpoint starts the next search.
	if got := countGapPairs([]float64{0, 2, 45}, 2); got != 2 {
		t.Fatalf("expected 2 pairs, got %d", got)
	}
}

func TestWindowCriterion_DuplicateTimestamps(t *testing.T) {
	criterion := mustCriterion(t, 45, 3, 0, 0)
	if !criterion.Evaluate([]float64{7, 7, 7}) {
		t.Fatal("expected true for coincident visits without pair checking")
	}
	pairs := mustCriterion(t, 45, 3, 1, 2)
	if pairs.Evaluate([]float64{7, 7, 7}) {
		t.Fatal("expected false: coincident visits cannot form a gap pair")
	}
}
