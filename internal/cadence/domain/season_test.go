package cadence

import "testing"

func TestSeasonStacker_RollsOverYearly(t *testing.T) {
	stacker := NewSeasonStacker(60000)

	first := stacker.Season(60000, 0)
	sameSeason := stacker.Season(60000+300, 0)
	nextSeason := stacker.Season(60000+400, 0)

	if first != sameSeason {
		t.Fatalf("expected same season within a year: %d vs %d", first, sameSeason)
	}
	if nextSeason != first+1 {
		t.Fatalf("expected season to advance by one: %d -> %d", first, nextSeason)
	}
}

func TestSeasonStacker_PhasedByRA(t *testing.T) {
	stacker := NewSeasonStacker(60000)

	// Half a year of RA phase shifts the boundary by half a year.
	ahead := stacker.Season(60100, 0)
	behind := stacker.Season(60100, 180)
	if ahead == behind {
		t.Fatalf("expected RA phase to move the season boundary, both %d", ahead)
	}
}

func TestCampaignLength(t *testing.T) {
	stacker := NewSeasonStacker(60000)
	mjds := []float64{
		60010, 60020, 60100, // season 0
		60400, 60410, // season 1
		61150, // season 3, season 2 skipped
	}
	seasons := stacker.Seasons(mjds, 0)
	if got := CampaignLength(seasons); got != 3 {
		t.Fatalf("expected 3 seasons, got %d", got)
	}
	if got := CampaignLength(nil); got != 0 {
		t.Fatalf("expected 0 for empty batch, got %d", got)
	}
}
