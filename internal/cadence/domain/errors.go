package cadence

import "errors"

var (
	// ErrInvalidIntervalLength is returned when the window length is not positive.
	ErrInvalidIntervalLength = errors.New("cadence: interval length must be positive")
	// ErrInvalidMinVisits is returned when fewer than two visits are required.
	ErrInvalidMinVisits = errors.New("cadence: min visits must be at least 2")
	// ErrInvalidPairCount is returned when the pair count is negative.
	ErrInvalidPairCount = errors.New("cadence: pair count must not be negative")
	// ErrInvalidPairGap is returned when the pair gap is negative.
	ErrInvalidPairGap = errors.New("cadence: pair gap must not be negative")
	// ErrPairCountExceedsVisits guards nPairs <= minVisits+1.
	ErrPairCountExceedsVisits = errors.New("cadence: pair count exceeds min visits + 1")
	// ErrInvalidAirmassLimit is returned when the airmass limit is below 1.
	ErrInvalidAirmassLimit = errors.New("cadence: airmass limit must be at least 1")
	// ErrNoObservatories is returned when the follow-up site list is empty.
	ErrNoObservatories = errors.New("cadence: no follow-up observatories")
	// ErrInvalidDecayIndex is returned when the afterglow decay index is not positive.
	ErrInvalidDecayIndex = errors.New("cadence: decay index must be positive")
)
