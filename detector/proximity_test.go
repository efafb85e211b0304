package detector

import (
	"strings"
	"testing"
)

// neutralTail is 25 alternating days that trip none of the recent-history
// signals: no red streaks, flat delta magnitudes, no absorption days.
func neutralTail() ([]float64, []float64) {
	closes := make([]float64, 25)
	deltas := make([]float64, 25)
	for i := range closes {
		if i%2 == 0 {
			closes[i] = 100
		} else {
			closes[i] = 101
		}
		deltas[i] = -5000
	}
	return closes, deltas
}

func qualifyingZones(score float64) []Zone {
	return []Zone{{
		WindowScore: WindowScore{Score: score, Detected: true, Reason: ReasonAccumulationDivergence},
		StartIndex:  0,
		EndIndex:    19,
		WindowSize:  20,
		Rank:        1,
	}}
}

func signalTypes(res ProximityResult) []string {
	out := make([]string, len(res.Signals))
	for i, s := range res.Signals {
		out[i] = s.Type
	}
	return out
}

func TestEvaluateProximityRequiresStrongZone(t *testing.T) {
	closes, deltas := neutralTail()
	// A textbook exhaustion streak that would otherwise fire.
	closes[22], closes[23], closes[24] = 100.5, 100.0, 99.5
	deltas[22], deltas[23], deltas[24] = -8000, -6000, -2000
	daily := synthDaily("2024-05-01", closes, deltas, 100000)

	res := EvaluateProximity(daily, qualifyingZones(0.45))
	if res.Level != LevelNone || len(res.Signals) != 0 || res.CompositeScore != 0 {
		t.Fatalf("zones below %.2f must disable proximity, got %+v", ProximityMinZoneScore, res)
	}
}

func TestEvaluateProximitySellerExhaustion(t *testing.T) {
	closes, deltas := neutralTail()
	closes[22], closes[23], closes[24] = 100.5, 100.0, 99.5
	deltas[22], deltas[23], deltas[24] = -8000, -6000, -2000
	daily := synthDaily("2024-05-01", closes, deltas, 100000)

	res := EvaluateProximity(daily, qualifyingZones(0.60))
	if len(res.Signals) != 1 || res.Signals[0].Type != SignalSellerExhaustion {
		t.Fatalf("expected only seller_exhaustion, got %v", signalTypes(res))
	}
	if res.CompositeScore != PointsSellerExhaustion {
		t.Errorf("expected %d points, got %d", PointsSellerExhaustion, res.CompositeScore)
	}
	if !strings.Contains(res.Signals[0].Detail, "fading") {
		t.Errorf("shrinking delta magnitude must read as fading, got %q", res.Signals[0].Detail)
	}
	if res.Level != LevelNone {
		t.Errorf("one 15-point signal stays below elevated, got %s", res.Level)
	}
}

func TestEvaluateProximityStreakAndAnomaly(t *testing.T) {
	closes, deltas := neutralTail()
	// Four positive-delta days on rising closes.
	closes[10], closes[11], closes[12], closes[13] = 101.2, 101.4, 101.6, 101.8
	deltas[10], deltas[11], deltas[12], deltas[13] = 2000, 2000, 2000, 2000
	// One day at >4x the trailing 20-day average magnitude.
	deltas[24] = 50000
	daily := synthDaily("2024-05-01", closes, deltas, 100000)

	res := EvaluateProximity(daily, qualifyingZones(0.60))
	got := signalTypes(res)
	if len(got) != 2 {
		t.Fatalf("expected delta_anomaly and green_delta_streak, got %v", got)
	}
	want := map[string]bool{SignalDeltaAnomaly: true, SignalGreenStreak: true}
	for _, typ := range got {
		if !want[typ] {
			t.Errorf("unexpected signal %s", typ)
		}
	}
	if res.CompositeScore != PointsDeltaAnomaly+PointsGreenStreak {
		t.Errorf("expected composite %d, got %d", PointsDeltaAnomaly+PointsGreenStreak, res.CompositeScore)
	}
	if res.Level != LevelElevated {
		t.Errorf("expected elevated, got %s", res.Level)
	}
}

func TestEvaluateProximityAbsorptionAndCapitulation(t *testing.T) {
	closes, deltas := neutralTail()
	// Three absorption days inside one 5-day span.
	deltas[10], deltas[12], deltas[14] = 4000, 4000, 4000
	// Heavy flush on the final day: -3% on an outsized delta, which also
	// clears the anomaly multiple.
	closes[24] = 97.9
	deltas[24] = -50000
	daily := synthDaily("2024-05-01", closes, deltas, 100000)

	res := EvaluateProximity(daily, qualifyingZones(0.60))
	got := signalTypes(res)
	want := map[string]bool{
		SignalAbsorptionCluster: true,
		SignalCapitulation:      true,
		SignalDeltaAnomaly:      true,
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d signals, got %v", len(want), got)
	}
	for _, typ := range got {
		if !want[typ] {
			t.Errorf("unexpected signal %s", typ)
		}
	}
	wantScore := PointsAbsorptionCluster + PointsCapitulation + PointsDeltaAnomaly
	if res.CompositeScore != wantScore {
		t.Errorf("expected composite %d, got %d", wantScore, res.CompositeScore)
	}
	if res.Level != LevelHigh {
		t.Errorf("expected high, got %s", res.Level)
	}
}

func TestEvaluateProximityZoneSignals(t *testing.T) {
	closes, deltas := neutralTail()
	daily := synthDaily("2024-05-01", closes, deltas, 100000)

	zones := []Zone{
		{
			WindowScore: WindowScore{Score: 0.60, Detected: true, AbsorptionPct: 45},
			StartIndex:  0, EndIndex: 19, WindowSize: 20, Rank: 1,
			StartDate: "2024-01-01", EndDate: "2024-01-20",
		},
		{
			WindowScore: WindowScore{Score: 0.55, Detected: true, AbsorptionPct: 20},
			StartIndex:  25, EndIndex: 39, WindowSize: 15, Rank: 2,
			StartDate: "2024-01-26", EndDate: "2024-02-09",
		},
	}

	res := EvaluateProximity(daily, zones)
	got := signalTypes(res)
	want := map[string]bool{SignalZoneSequence: true, SignalHighAbsorptionZone: true}
	if len(got) != len(want) {
		t.Fatalf("expected zone_sequence and high_absorption_zone, got %v", got)
	}
	for _, typ := range got {
		if !want[typ] {
			t.Errorf("unexpected signal %s", typ)
		}
	}
	if res.CompositeScore != PointsZoneSequence+PointsHighAbsorptionZone {
		t.Errorf("expected composite %d, got %d", PointsZoneSequence+PointsHighAbsorptionZone, res.CompositeScore)
	}
	if res.Level != LevelElevated {
		t.Errorf("expected elevated, got %s", res.Level)
	}
}

func TestEvaluateProximityEmptyDaily(t *testing.T) {
	res := EvaluateProximity(nil, qualifyingZones(0.60))
	if res.Level != LevelNone || len(res.Signals) != 0 {
		t.Fatalf("no daily history must yield no signals, got %+v", res)
	}
}
