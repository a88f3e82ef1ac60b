package evaluation

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	cadence "survey-cadence/internal/cadence/domain"
)

// Metric kinds supported by the evaluator.
const (
	KindVisitsInInterval = "visits_in_interval"
	KindCampaignLength   = "campaign_length"
	KindGRBAfterglow     = "grb_afterglow_detections"
	KindFollowUp         = "followup_observatories"
)

var (
	// ErrEmptyDefinitionName is returned when a definition has no name.
	ErrEmptyDefinitionName = errors.New("evaluation: empty definition name")
	// ErrUnknownKind is returned for an unsupported metric kind.
	ErrUnknownKind = errors.New("evaluation: unknown metric kind")
	// ErrDefinitionNotFound is returned when resolving an unregistered name.
	ErrDefinitionNotFound = errors.New("evaluation: definition not found")
	// ErrDuplicateDefinition is returned when a name is registered twice.
	ErrDuplicateDefinition = errors.New("evaluation: duplicate definition")
)

// Definition is a named, validated metric configuration. Which parameters
// apply depends on Kind; validation happens once, at registration, so a
// resolved definition is always safe to evaluate.
type Definition struct {
	Name string `yaml:"name" json:"name"`
	Kind string `yaml:"kind" json:"kind"`

	// visits_in_interval
	IntervalLengthDays float64 `yaml:"interval_length_days" json:"interval_length_days,omitempty"`
	MinVisits          int     `yaml:"min_visits" json:"min_visits,omitempty"`
	NPairs             int     `yaml:"n_pairs" json:"n_pairs,omitempty"`
	MinPairGapDays     float64 `yaml:"min_pair_gap_days" json:"min_pair_gap_days,omitempty"`

	// campaign_length
	MinSeasons int `yaml:"min_seasons" json:"min_seasons,omitempty"`

	// grb_afterglow_detections
	DecayIndex      float64 `yaml:"decay_index" json:"decay_index,omitempty"`
	Mag1Min         float64 `yaml:"mag_1min" json:"mag_1min,omitempty"`
	BurstOffsetDays float64 `yaml:"burst_offset_days" json:"burst_offset_days,omitempty"`
	MinDetections   int     `yaml:"min_detections" json:"min_detections,omitempty"`

	// followup_observatories
	MinApertureM   float64   `yaml:"min_aperture_m" json:"min_aperture_m,omitempty"`
	AirmassLimit   float64   `yaml:"airmass_limit" json:"airmass_limit,omitempty"`
	TimeStepsHours []float64 `yaml:"time_steps_hours" json:"time_steps_hours,omitempty"`
	MinFollowUps   int       `yaml:"min_followups" json:"min_followups,omitempty"`
}

// Validate checks kind-specific invariants. Window-criterion parameters are
// validated by constructing the criterion itself, so a definition can never
// smuggle an invalid configuration past construction-time checks.
func (d Definition) Validate() error {
	if d.Name == "" {
		return ErrEmptyDefinitionName
	}
	switch d.Kind {
	case KindVisitsInInterval:
		_, err := cadence.NewWindowCriterion(d.IntervalLengthDays, d.MinVisits, d.NPairs, d.MinPairGapDays)
		return err
	case KindCampaignLength:
		if d.MinSeasons < 0 {
			return fmt.Errorf("evaluation: definition %s: negative min seasons", d.Name)
		}
		return nil
	case KindGRBAfterglow:
		alpha := d.DecayIndex
		if alpha == 0 {
			alpha = cadence.DefaultAfterglowDecayIndex
		}
		mag := d.Mag1Min
		if mag == 0 {
			mag = cadence.DefaultAfterglowMag1Min
		}
		if _, err := cadence.NewGRBAfterglow(alpha, mag); err != nil {
			return err
		}
		if d.MinDetections < 0 {
			return fmt.Errorf("evaluation: definition %s: negative min detections", d.Name)
		}
		return nil
	case KindFollowUp:
		limit := d.AirmassLimit
		if limit == 0 {
			limit = cadence.DefaultAirmassLimit
		}
		if _, err := cadence.NewFollowUpStacker(d.MinApertureM, limit, d.TimeStepsHours); err != nil {
			return err
		}
		if d.MinFollowUps < 0 {
			return fmt.Errorf("evaluation: definition %s: negative min followups", d.Name)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, d.Kind)
	}
}

// Parameters returns the definition's configuration as a flat string map for
// the result snapshot.
func (d Definition) Parameters() map[string]string {
	params := map[string]string{"kind": d.Kind}
	switch d.Kind {
	case KindVisitsInInterval:
		params["interval_length_days"] = formatFloat(d.IntervalLengthDays)
		params["min_visits"] = strconv.Itoa(d.MinVisits)
		params["n_pairs"] = strconv.Itoa(d.NPairs)
		params["min_pair_gap_days"] = formatFloat(d.MinPairGapDays)
	case KindCampaignLength:
		params["min_seasons"] = strconv.Itoa(d.MinSeasons)
	case KindGRBAfterglow:
		params["decay_index"] = formatFloat(d.DecayIndex)
		params["mag_1min"] = formatFloat(d.Mag1Min)
		params["burst_offset_days"] = formatFloat(d.BurstOffsetDays)
		params["min_detections"] = strconv.Itoa(d.MinDetections)
	case KindFollowUp:
		params["min_aperture_m"] = formatFloat(d.MinApertureM)
		params["airmass_limit"] = formatFloat(d.AirmassLimit)
		params["min_followups"] = strconv.Itoa(d.MinFollowUps)
	}
	return params
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'g', -1, 64)
}

// Registry resolves metric definitions by name.
type Registry struct {
	mu          sync.RWMutex
	definitions map[string]Definition
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{definitions: make(map[string]Definition)}
}

// Register validates and adds a definition.
func (r *Registry) Register(def Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.definitions[def.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateDefinition, def.Name)
	}
	r.definitions[def.Name] = def
	return nil
}

// Resolve returns the definition registered under name.
func (r *Registry) Resolve(name string) (Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.definitions[name]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %q", ErrDefinitionNotFound, name)
	}
	return def, nil
}

// Names lists registered definition names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.definitions))
	for name := range r.definitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
