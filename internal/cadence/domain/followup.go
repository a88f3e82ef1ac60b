package cadence

import "math"

// DefaultAirmassLimit is the usual planning cut for follow-up spectroscopy.
const DefaultAirmassLimit = 2.0

// Observatory is a follow-up site that could re-observe a field.
type Observatory struct {
	Name      string
	LatDeg    float64
	LonDeg    float64 // east-positive
	ApertureM float64
}

// followUpSites lists the large follow-up facilities considered for target
// of opportunity observations.
var followUpSites = []Observatory{
	{Name: "Keck I", LatDeg: 19.8264, LonDeg: -155.4747, ApertureM: 10.0},
	{Name: "GTC", LatDeg: 28.7566, LonDeg: -17.8920, ApertureM: 10.4},
	{Name: "SALT", LatDeg: -32.3760, LonDeg: 20.8107, ApertureM: 9.2},
	{Name: "LBT", LatDeg: 32.7016, LonDeg: -109.8892, ApertureM: 8.4},
	{Name: "Subaru", LatDeg: 19.8255, LonDeg: -155.4761, ApertureM: 8.2},
	{Name: "VLT UT1", LatDeg: -24.6272, LonDeg: -70.4048, ApertureM: 8.2},
	{Name: "Gemini North", LatDeg: 19.8238, LonDeg: -155.4690, ApertureM: 8.1},
	{Name: "Gemini South", LatDeg: -30.2407, LonDeg: -70.7367, ApertureM: 8.1},
	{Name: "Magellan Baade", LatDeg: -29.0146, LonDeg: -70.6926, ApertureM: 6.5},
	{Name: "MMT", LatDeg: 31.6886, LonDeg: -110.8850, ApertureM: 6.5},
	{Name: "Hale", LatDeg: 33.3563, LonDeg: -116.8650, ApertureM: 5.1},
	{Name: "Blanco", LatDeg: -30.1690, LonDeg: -70.8063, ApertureM: 4.0},
	{Name: "AAT", LatDeg: -31.2754, LonDeg: 149.0672, ApertureM: 3.9},
}

// Observatories returns follow-up sites with at least the given aperture.
func Observatories(minApertureM float64) []Observatory {
	sites := make([]Observatory, 0, len(followUpSites))
	for _, site := range followUpSites {
		if site.ApertureM >= minApertureM {
			sites = append(sites, site)
		}
	}
	return sites
}

// FollowUpStacker counts, per visit, the observatories at which the field is
// observable — above the horizon and within the airmass limit — at the visit
// time or at any of the configured offsets after it.
type FollowUpStacker struct {
	airmassLimit   float64
	timeStepsHours []float64
	sites          []Observatory
}

// NewFollowUpStacker builds a stacker from a minimum aperture, an airmass
// limit and the follow-up time offsets in hours. With no offsets the visit
// time alone is checked.
func NewFollowUpStacker(minApertureM, airmassLimit float64, timeStepsHours []float64) (*FollowUpStacker, error) {
	if airmassLimit < 1 {
		return nil, ErrInvalidAirmassLimit
	}
	sites := Observatories(minApertureM)
	if len(sites) == 0 {
		return nil, ErrNoObservatories
	}
	if len(timeStepsHours) == 0 {
		timeStepsHours = []float64{0}
	}
	steps := make([]float64, len(timeStepsHours))
	copy(steps, timeStepsHours)
	return &FollowUpStacker{
		airmassLimit:   airmassLimit,
		timeStepsHours: steps,
		sites:          sites,
	}, nil
}

// Count returns the number of observatories able to follow up a visit of the
// field at (raDeg, decDeg) taken at mjd.
func (s *FollowUpStacker) Count(mjd, raDeg, decDeg float64) int {
	count := 0
	for _, site := range s.sites {
		for _, step := range s.timeStepsHours {
			x := airmass(mjd+step/24.0, raDeg, decDeg, site.LatDeg, site.LonDeg)
			if x >= 1 && x <= s.airmassLimit {
				count++
				break
			}
		}
	}
	return count
}

// Counts maps visit times of one field to follow-up observatory counts.
func (s *FollowUpStacker) Counts(mjds []float64, raDeg, decDeg float64) []int {
	counts := make([]int, len(mjds))
	for i, mjd := range mjds {
		counts[i] = s.Count(mjd, raDeg, decDeg)
	}
	return counts
}

// airmass computes the plane-parallel airmass 1/sin(alt) of a target at the
// given site and time, or +Inf when the target is at or below the horizon.
func airmass(mjd, raDeg, decDeg, latDeg, lonDeg float64) float64 {
	haDeg := localSiderealTime(mjd, lonDeg) - raDeg

	dec := decDeg * math.Pi / 180
	lat := latDeg * math.Pi / 180
	ha := haDeg * math.Pi / 180

	sinAlt := math.Sin(dec)*math.Sin(lat) + math.Cos(dec)*math.Cos(lat)*math.Cos(ha)
	if sinAlt <= 0 {
		return math.Inf(1)
	}
	return 1 / sinAlt
}

// localSiderealTime returns the approximate local mean sidereal time in
// degrees at an east-positive longitude. Good to a few arcseconds, which is
// far below the airmass tolerance this stacker needs.
func localSiderealTime(mjd, lonDeg float64) float64 {
	const mjdJ2000 = 51544.5
	gmst := 280.46061837 + 360.98564736629*(mjd-mjdJ2000)
	lst := math.Mod(gmst+lonDeg, 360)
	if lst < 0 {
		lst += 360
	}
	return lst
}
