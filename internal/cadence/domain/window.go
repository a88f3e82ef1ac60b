package cadence

import "sort"

// WindowCriterion decides whether any interval of IntervalLength days in a
// batch of visit times holds at least minVisits visits and, when pair
// checking is enabled, at least nPairs non-overlapping visit pairs separated
// by minPairGap days or more.
//
// All times are in days (MJD by convention), but the check is unit-agnostic
// as long as the configured lengths use the same unit as the input.
type WindowCriterion struct {
	intervalLength float64
	minVisits      int
	nPairs         int
	minPairGap     float64
}

// NewWindowCriterion validates the configuration and builds a criterion.
// Invalid configuration is an error, never clamped: the interval length must
// be positive, minVisits at least 2, nPairs and minPairGap non-negative, and
// nPairs must not exceed minVisits+1. A zero nPairs or zero minPairGap
// disables pair checking.
func NewWindowCriterion(intervalLength float64, minVisits, nPairs int, minPairGap float64) (WindowCriterion, error) {
	switch {
	case intervalLength <= 0:
		return WindowCriterion{}, ErrInvalidIntervalLength
	case minVisits < 2:
		return WindowCriterion{}, ErrInvalidMinVisits
	case nPairs < 0:
		return WindowCriterion{}, ErrInvalidPairCount
	case minPairGap < 0:
		return WindowCriterion{}, ErrInvalidPairGap
	case nPairs > minVisits+1:
		return WindowCriterion{}, ErrPairCountExceedsVisits
	}
	return WindowCriterion{
		intervalLength: intervalLength,
		minVisits:      minVisits,
		nPairs:         nPairs,
		minPairGap:     minPairGap,
	}, nil
}

// Evaluate reports whether at least one window satisfies the criterion.
//
// Every visit time is tried as the left edge of a window; membership is
// inclusive at both edges (t0 <= t <= t0+intervalLength). The input need not
// be sorted and is never reordered: evaluation sorts a private copy. An empty
// or undersized input evaluates to false.
func (c WindowCriterion) Evaluate(times []float64) bool {
	if len(times) < c.minVisits {
		return false
	}

	sorted := make([]float64, len(times))
	copy(sorted, times)
	sort.Float64s(sorted)

	pairCheck := c.nPairs > 0 && c.minPairGap > 0
	end := 0
	for start, t0 := range sorted {
		if end < start {
			end = start
		}
		limit := t0 + c.intervalLength
		for end < len(sorted) && sorted[end] <= limit {
			end++
		}
		window := sorted[start:end]
		if len(window) < c.minVisits {
			continue
		}
		if !pairCheck {
			return true
		}
		if countGapPairs(window, c.minPairGap) >= c.nPairs {
			return true
		}
	}
	return false
}

// countGapPairs counts, over an ascending window, non-overlapping visit pairs
// separated by at least gap. A single cursor walks the window: the first
// visit at or past the cursor that sits gap or more after the current left
// endpoint closes a pair and becomes the cursor; when no such visit exists the
// cursor advances by one and the next left endpoint is tried. Each visit
// therefore closes at most one pair, and the count is deterministic for a
// given window.
func countGapPairs(window []float64, gap float64) int {
	count := 0
	pairStart := 0
	for i := 0; i < len(window); i++ {
		if i < pairStart {
			continue
		}
		j := pairStart
		for j < len(window) && window[j]-window[i] < gap {
			j++
		}
		if j == len(window) {
			pairStart++
			continue
		}
		count++
		pairStart = j
	}
	return count
}
