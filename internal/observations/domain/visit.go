package observations

import (
	"context"
	"errors"
)

var (
	// ErrEmptyFieldID is returned when a visit has no field identifier.
	ErrEmptyFieldID = errors.New("observations: empty field id")
	// ErrInvalidMJD is returned when the visit epoch is not positive.
	ErrInvalidMJD = errors.New("observations: invalid mjd")
	// ErrInvalidRA is returned when the right ascension is outside [0, 360).
	ErrInvalidRA = errors.New("observations: ra out of range")
	// ErrInvalidDec is returned when the declination is outside [-90, 90].
	ErrInvalidDec = errors.New("observations: dec out of range")
	// ErrFieldNotFound is returned when a field has no stored visits.
	ErrFieldNotFound = errors.New("observations: field not found")
)

// Visit is one observation of a sky field: the batch unit every cadence
// metric is evaluated over.
type Visit struct {
	TenantID       string
	FieldID        string
	MJD            float64 // modified Julian date, days
	RADeg          float64
	DecDeg         float64
	Filter         string
	FiveSigmaDepth float64
	SeeingArcsec   float64
}

// Validate checks visit invariants.
func (v Visit) Validate() error {
	if v.FieldID == "" {
		return ErrEmptyFieldID
	}
	if v.MJD <= 0 {
		return ErrInvalidMJD
	}
	if v.RADeg < 0 || v.RADeg >= 360 {
		return ErrInvalidRA
	}
	if v.DecDeg < -90 || v.DecDeg > 90 {
		return ErrInvalidDec
	}
	return nil
}

// Batch is the stored observation history of one field, ordered by MJD.
type Batch struct {
	FieldID string
	Visits  []Visit
}

// Times returns the visit epochs of the batch in stored order.
func (b Batch) Times() []float64 {
	times := make([]float64, len(b.Visits))
	for i, visit := range b.Visits {
		times[i] = visit.MJD
	}
	return times
}

// Depths returns the per-visit 5-sigma limiting depths in stored order.
func (b Batch) Depths() []float64 {
	depths := make([]float64, len(b.Visits))
	for i, visit := range b.Visits {
		depths[i] = visit.FiveSigmaDepth
	}
	return depths
}

// Coordinates returns the field center, taken from the first visit.
func (b Batch) Coordinates() (raDeg, decDeg float64, ok bool) {
	if len(b.Visits) == 0 {
		return 0, 0, false
	}
	return b.Visits[0].RADeg, b.Visits[0].DecDeg, true
}

// VisitRepository persists and loads visits per field.
type VisitRepository interface {
	InsertVisits(ctx context.Context, visits []Visit) error
	ListByField(ctx context.Context, tenantID, fieldID string) (*Batch, error)
}
