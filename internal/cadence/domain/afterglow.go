package cadence

import (
	"math"
	"math/rand"
)

// Default GRB afterglow parameters, from the on-axis burst population of
// 2011PASP..123.1034J.
const (
	DefaultAfterglowDecayIndex = 1.0
	DefaultAfterglowMag1Min    = 15.35
	DefaultAfterglowMagSigma   = 1.59
)

// GRBAfterglow models an on-axis gamma-ray burst afterglow fading as a power
// law, m(t) = m_1min + 2.5*alpha*log10(t/1min). No jet break.
type GRBAfterglow struct {
	alpha   float64
	mag1Min float64
}

// NewGRBAfterglow builds an afterglow light curve with temporal decay index
// alpha and apparent magnitude at one minute after the burst.
func NewGRBAfterglow(alpha, mag1Min float64) (GRBAfterglow, error) {
	if alpha <= 0 {
		return GRBAfterglow{}, ErrInvalidDecayIndex
	}
	return GRBAfterglow{alpha: alpha, mag1Min: mag1Min}, nil
}

// SampleAfterglowMag1Min draws an intrinsic one-minute magnitude from the
// population distribution. The generator is injected so callers control
// reproducibility.
func SampleAfterglowMag1Min(rng *rand.Rand) float64 {
	return rng.NormFloat64()*DefaultAfterglowMagSigma + DefaultAfterglowMag1Min
}

// Magnitude returns the apparent magnitude daysSinceBurst after the burst.
// Before and at the burst epoch the afterglow has not risen; +Inf marks it
// undetectable.
func (g GRBAfterglow) Magnitude(daysSinceBurst float64) float64 {
	if daysSinceBurst <= 0 {
		return math.Inf(1)
	}
	minutes := daysSinceBurst * 24 * 60
	return g.mag1Min + 2.5*g.alpha*math.Log10(minutes)
}

// Detections counts the visits that would detect an afterglow starting at
// burstMJD: the afterglow must be brighter than the visit's 5-sigma limiting
// depth. mjds and depths are parallel; extra entries in either are ignored.
func (g GRBAfterglow) Detections(burstMJD float64, mjds, depths []float64) int {
	n := len(mjds)
	if len(depths) < n {
		n = len(depths)
	}
	detected := 0
	for i := 0; i < n; i++ {
		if g.Magnitude(mjds[i]-burstMJD) < depths[i] {
			detected++
		}
	}
	return detected
}
