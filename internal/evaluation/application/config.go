package application

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	evaluation "survey-cadence/internal/evaluation/domain"
)

// MetricsConfig is the on-disk metric definition file.
type MetricsConfig struct {
	SurveyStartMJD float64                 `yaml:"survey_start_mjd"`
	Metrics        []evaluation.Definition `yaml:"metrics"`
}

// DefaultSurveyStartMJD is the nominal start of survey operations
// (2022-10-01), used when the definition file does not override it.
const DefaultSurveyStartMJD = 59853.0

// defaultDefinitions cover the stock cadence checks shipped with the service.
func defaultDefinitions() []evaluation.Definition {
	return []evaluation.Definition{
		{
			Name:               "visits-in-interval",
			Kind:               evaluation.KindVisitsInInterval,
			IntervalLengthDays: 45,
			MinVisits:          3,
		},
		{
			Name:               "paired-visits-in-interval",
			Kind:               evaluation.KindVisitsInInterval,
			IntervalLengthDays: 45,
			MinVisits:          3,
			NPairs:             2,
			MinPairGapDays:     2,
		},
		{
			Name:       "campaign-length",
			Kind:       evaluation.KindCampaignLength,
			MinSeasons: 2,
		},
		{
			Name:          "grb-afterglow",
			Kind:          evaluation.KindGRBAfterglow,
			MinDetections: 2,
		},
		{
			Name:           "followup-reach",
			Kind:           evaluation.KindFollowUp,
			MinApertureM:   8.0,
			AirmassLimit:   2.0,
			TimeStepsHours: []float64{0, 0.5, 1},
			MinFollowUps:   1,
		},
	}
}

// LoadMetricsConfig reads the metric definition file at path, or returns the
// stock definitions when path is empty. Definitions are not validated here;
// registration does that.
func LoadMetricsConfig(path string) (MetricsConfig, error) {
	cfg := MetricsConfig{SurveyStartMJD: DefaultSurveyStartMJD}
	if path == "" {
		cfg.Metrics = defaultDefinitions()
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.SurveyStartMJD <= 0 {
		cfg.SurveyStartMJD = DefaultSurveyStartMJD
	}
	if len(cfg.Metrics) == 0 {
		cfg.Metrics = defaultDefinitions()
	}
	return cfg, nil
}

// BuildRegistry registers every configured definition.
func BuildRegistry(cfg MetricsConfig) (*evaluation.Registry, error) {
	registry := evaluation.NewRegistry()
	for _, def := range cfg.Metrics {
		if err := registry.Register(def); err != nil {
			return nil, fmt.Errorf("metrics config: %w", err)
		}
	}
	return registry, nil
}
