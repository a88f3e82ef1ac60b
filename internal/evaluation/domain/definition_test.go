package evaluation

import (
	"errors"
	"testing"

	cadence "survey-cadence/internal/cadence/domain"
)

func TestDefinitionValidate(t *testing.T) {
	cases := []struct {
		name string
		def  Definition
		want error
	}{
		{
			name: "valid window",
			def:  Definition{Name: "w", Kind: KindVisitsInInterval, IntervalLengthDays: 45, MinVisits: 3},
		},
		{
			name: "valid window with pairs",
			def:  Definition{Name: "w", Kind: KindVisitsInInterval, IntervalLengthDays: 45, MinVisits: 3, NPairs: 2, MinPairGapDays: 2},
		},
		{
			name: "empty name",
			def:  Definition{Kind: KindVisitsInInterval, IntervalLengthDays: 45, MinVisits: 3},
			want: ErrEmptyDefinitionName,
		},
		{
			name: "unknown kind",
			def:  Definition{Name: "w", Kind: "bogus"},
			want: ErrUnknownKind,
		},
		{
			name: "window min visits below two",
			def:  Definition{Name: "w", Kind: KindVisitsInInterval, IntervalLengthDays: 45, MinVisits: 1},
			want: cadence.ErrInvalidMinVisits,
		},
		{
			name: "window pair count too large",
			def:  Definition{Name: "w", Kind: KindVisitsInInterval, IntervalLengthDays: 45, MinVisits: 3, NPairs: 5, MinPairGapDays: 1},
			want: cadence.ErrPairCountExceedsVisits,
		},
		{
			name: "valid campaign",
			def:  Definition{Name: "c", Kind: KindCampaignLength, MinSeasons: 2},
		},
		{
			name: "valid afterglow defaults",
			def:  Definition{Name: "g", Kind: KindGRBAfterglow},
		},
		{
			name: "afterglow negative decay",
			def:  Definition{Name: "g", Kind: KindGRBAfterglow, DecayIndex: -1},
			want: cadence.ErrInvalidDecayIndex,
		},
		{
			name: "valid followup",
			def:  Definition{Name: "f", Kind: KindFollowUp, MinApertureM: 8, AirmassLimit: 2, MinFollowUps: 1},
		},
		{
			name: "followup airmass below one",
			def:  Definition{Name: "f", Kind: KindFollowUp, AirmassLimit: 0.5},
			want: cadence.ErrInvalidAirmassLimit,
		},
		{
			name: "followup aperture too large",
			def:  Definition{Name: "f", Kind: KindFollowUp, MinApertureM: 30, AirmassLimit: 2},
			want: cadence.ErrNoObservatories,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.def.Validate()
			if tc.want == nil {
				if err != nil {
					t.Fatalf("expected valid, got %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestRegistryRegisterResolve(t *testing.T) {
	registry := NewRegistry()
	def := Definition{Name: "w", Kind: KindVisitsInInterval, IntervalLengthDays: 45, MinVisits: 3}
	if err := registry.Register(def); err != nil {
		t.Fatalf("register: %v", err)
	}

	resolved, err := registry.Resolve("w")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.IntervalLengthDays != 45 || resolved.MinVisits != 3 {
		t.Fatalf("unexpected definition: %+v", resolved)
	}

	if err := registry.Register(def); !errors.Is(err, ErrDuplicateDefinition) {
		t.Fatalf("expected ErrDuplicateDefinition, got %v", err)
	}
	if _, err := registry.Resolve("missing"); !errors.Is(err, ErrDefinitionNotFound) {
		t.Fatalf("expected ErrDefinitionNotFound, got %v", err)
	}
}

func TestDefinitionParametersSnapshot(t *testing.T) {
	def := Definition{
		Name:               "w",
		Kind:               KindVisitsInInterval,
		IntervalLengthDays: 45,
		MinVisits:          3,
		NPairs:             2,
		MinPairGapDays:     2.5,
	}
	params := def.Parameters()
	if params["interval_length_days"] != "45" {
		t.Fatalf("unexpected interval: %v", params)
	}
	if params["min_visits"] != "3" || params["n_pairs"] != "2" {
		t.Fatalf("unexpected counts: %v", params)
	}
	if params["min_pair_gap_days"] != "2.5" {
		t.Fatalf("unexpected gap: %v", params)
	}
}
