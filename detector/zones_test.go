package detector

import (
	"reflect"
	"testing"
)

// checkZoneSeparation asserts the clustering invariant: every accepted
// pair either overlaps by at most ZoneOverlapMax of the lower-ranked
// zone's window or sits at least ZoneMinGapDays apart. Zones arrive
// rank-ordered, so zones[j] is the one that was admitted against zones[i].
func checkZoneSeparation(t *testing.T, zones []Zone) {
	t.Helper()
	for i := 0; i < len(zones); i++ {
		for j := i + 1; j < len(zones); j++ {
			overlap := overlapDays(zones[i], zones[j])
			if overlap > 0 {
				if frac := float64(overlap) / float64(zones[j].WindowSize); frac > ZoneOverlapMax {
					t.Errorf("zones %d and %d overlap %.0f%%", zones[i].Rank, zones[j].Rank, frac*100)
				}
				continue
			}
			if gap := gapDays(zones[i], zones[j]); gap < ZoneMinGapDays {
				t.Errorf("zones %d and %d only %d days apart", zones[i].Rank, zones[j].Rank, gap)
			}
		}
	}
}

func TestFindZonesSingleRegion(t *testing.T) {
	daily := flatAccumulation()
	zones := FindZones(daily, nil, DefaultMaxZones)
	if len(zones) != 1 {
		t.Fatalf("expected exactly 1 zone in a 20-day series, got %d", len(zones))
	}
	z := zones[0]
	if z.Rank != 1 {
		t.Errorf("expected rank 1, got %d", z.Rank)
	}
	if !z.Detected || z.Reason != ReasonAccumulationDivergence {
		t.Errorf("zone must carry a detected score, got %s", z.Reason)
	}
	if z.StartDate != daily[z.StartIndex].Date || z.EndDate != daily[z.EndIndex].Date {
		t.Error("zone dates must track its index range")
	}
	checkZoneSeparation(t, zones)
}

// twoPhaseSeries is 80 days: accumulation on days 0-19 and 40-59, heavy
// concordant selling on days 20-39 and 60-79 so windows there fail gates.
func twoPhaseSeries() []DailyAggregate {
	closes := make([]float64, 80)
	deltas := make([]float64, 80)
	for i := range closes {
		if i%2 == 1 {
			closes[i] = 99.5
		} else {
			closes[i] = 100.4
		}
		inAccum := i < 20 || (i >= 40 && i < 60)
		switch {
		case inAccum && i%2 == 1:
			deltas[i] = 50000
		case inAccum:
			deltas[i] = -10000
		default:
			deltas[i] = -40000
		}
	}
	closes[0] = 100.0
	return synthDaily("2024-03-04", closes, deltas, 100000)
}

func TestFindZonesTwoRegions(t *testing.T) {
	zones := FindZones(twoPhaseSeries(), nil, DefaultMaxZones)
	if len(zones) != 2 {
		t.Fatalf("expected 2 zones, got %d", len(zones))
	}
	checkZoneSeparation(t, zones)

	for i, z := range zones {
		if z.Rank != i+1 {
			t.Errorf("expected sequential ranks, got %d at position %d", z.Rank, i)
		}
	}
	if zones[0].Score < zones[1].Score {
		t.Error("rank 1 must carry the highest score")
	}

	// One zone per accumulation phase.
	var early, late bool
	for _, z := range zones {
		if z.StartIndex < 20 {
			early = true
		}
		if z.EndIndex >= 40 {
			late = true
		}
	}
	if !early || !late {
		t.Errorf("expected one zone per phase, got ranges %v", zones)
	}
}

func TestFindZonesMaxZones(t *testing.T) {
	zones := FindZones(twoPhaseSeries(), nil, 1)
	if len(zones) != 1 {
		t.Fatalf("maxZones=1 must cap the zone set, got %d", len(zones))
	}
}

func TestFindZonesDeterministic(t *testing.T) {
	daily := twoPhaseSeries()
	a := FindZones(daily, nil, DefaultMaxZones)
	b := FindZones(daily, nil, DefaultMaxZones)
	if !reflect.DeepEqual(a, b) {
		t.Error("identical input must yield identical zones")
	}
}

func TestFindZonesNoCandidates(t *testing.T) {
	closes := make([]float64, 40)
	deltas := make([]float64, 40)
	for i := range closes {
		closes[i] = 100
		deltas[i] = -30000
	}
	zones := FindZones(synthDaily("2024-03-04", closes, deltas, 100000), nil, DefaultMaxZones)
	if len(zones) != 0 {
		t.Fatalf("pure selling must produce no zones, got %d", len(zones))
	}
}
