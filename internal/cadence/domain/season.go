package cadence

import "math"

// DaysPerYear is the length of an observing year in days.
const DaysPerYear = 365.25

// SeasonStacker derives the observing-season index for visits of a field.
// A field's season rolls over once per year, phased by the field's right
// ascension so the index increments when the sun sweeps through the field's
// RA rather than at a fixed calendar date.
type SeasonStacker struct {
	surveyStartMJD float64
}

// NewSeasonStacker builds a stacker anchored at the survey start epoch.
func NewSeasonStacker(surveyStartMJD float64) SeasonStacker {
	return SeasonStacker{surveyStartMJD: surveyStartMJD}
}

// Season returns the season index for a visit at mjd of a field at raDeg.
// Visits before the field's first season boundary get negative indices, which
// is fine: CampaignLength only counts distinct values.
func (s SeasonStacker) Season(mjd, raDeg float64) int {
	phase := raDeg / 360.0 * DaysPerYear
	return int(math.Floor((mjd - s.surveyStartMJD - phase) / DaysPerYear))
}

// Seasons maps a slice of visit times for a single field to season indices.
func (s SeasonStacker) Seasons(mjds []float64, raDeg float64) []int {
	seasons := make([]int, len(mjds))
	for i, mjd := range mjds {
		seasons[i] = s.Season(mjd, raDeg)
	}
	return seasons
}

// CampaignLength is the campaign length in seasons: the number of distinct
// observing seasons in which the field was visited at least once.
func CampaignLength(seasons []int) int {
	seen := make(map[int]struct{}, len(seasons))
	for _, season := range seasons {
		seen[season] = struct{}{}
	}
	return len(seen)
}
