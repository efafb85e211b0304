package detector

import (
	"fmt"
	"math"
	"sort"
)

// Proximity levels.
const (
	LevelNone     = "none"
	LevelElevated = "elevated"
	LevelHigh     = "high"
	LevelImminent = "imminent"
)

const (
	// ProximityMinZoneScore gates the whole evaluation: without one zone
	// at or above this score the result is a no-op.
	ProximityMinZoneScore = 0.50

	// ProximityLookbackDays bounds the recent-history scan.
	ProximityLookbackDays = 25

	LevelImminentMin = 70
	LevelHighMin     = 50
	LevelElevatedMin = 30
)

// Signal points and thresholds.
const (
	PointsSellerExhaustion   = 15
	PointsDeltaAnomaly       = 25
	PointsGreenStreak        = 20
	PointsAbsorptionCluster  = 15
	PointsCapitulation       = 10
	PointsZoneSequence       = 20
	PointsHighAbsorptionZone = 15

	SellerExhaustionMinStreak = 3
	DeltaAnomalyMult          = 4.0
	DeltaAnomalyLookback      = 20
	GreenStreakMin            = 4
	AbsorptionClusterSpan     = 5
	AbsorptionClusterMin      = 3
	CapitulationDeltaMult     = 2.0
	CapitulationDropPct       = -2.0
	CapitulationLastDays      = 5
	ZoneSequenceMaxGap        = 30
	ZoneAbsorptionMin         = 40.0
)

// Signal type identifiers.
const (
	SignalSellerExhaustion   = "seller_exhaustion"
	SignalDeltaAnomaly       = "delta_anomaly"
	SignalGreenStreak        = "green_delta_streak"
	SignalAbsorptionCluster  = "absorption_cluster"
	SignalCapitulation       = "capitulation"
	SignalZoneSequence       = "zone_sequence"
	SignalHighAbsorptionZone = "high_absorption_zone"
)

// EvaluateProximity grades seven independent breakout-precursor patterns
// over the last ~25 trading days and sums fixed points for each that
// fires. It is a no-op unless at least one zone scored 0.50 or better.
func EvaluateProximity(daily []DailyAggregate, zones []Zone) ProximityResult {
	res := ProximityResult{Level: LevelNone}

	qualified := false
	for _, z := range zones {
		if z.Score >= ProximityMinZoneScore {
			qualified = true
			break
		}
	}
	if !qualified || len(daily) == 0 {
		return res
	}

	tailStart := len(daily) - ProximityLookbackDays
	if tailStart < 0 {
		tailStart = 0
	}
	tail := daily[tailStart:]

	if sig := sellerExhaustion(tail); sig != nil {
		res.Signals = append(res.Signals, *sig)
	}
	if sig := deltaAnomaly(daily, tailStart); sig != nil {
		res.Signals = append(res.Signals, *sig)
	}
	if sig := greenDeltaStreak(tail); sig != nil {
		res.Signals = append(res.Signals, *sig)
	}
	if sig := absorptionCluster(tail); sig != nil {
		res.Signals = append(res.Signals, *sig)
	}
	if sig := capitulation(tail); sig != nil {
		res.Signals = append(res.Signals, *sig)
	}
	if sig := zoneSequence(zones); sig != nil {
		res.Signals = append(res.Signals, *sig)
	}
	if sig := highAbsorptionZone(zones); sig != nil {
		res.Signals = append(res.Signals, *sig)
	}

	for _, sig := range res.Signals {
		res.CompositeScore += sig.Points
	}
	switch {
	case res.CompositeScore >= LevelImminentMin:
		res.Level = LevelImminent
	case res.CompositeScore >= LevelHighMin:
		res.Level = LevelHigh
	case res.CompositeScore >= LevelElevatedMin:
		res.Level = LevelElevated
	}
	return res
}

// sellerExhaustion finds the most recent run of 3+ consecutive red days
// and labels the selling as fading or intensifying by comparing the first
// and last streak-day delta magnitudes.
func sellerExhaustion(tail []DailyAggregate) *ProximitySignal {
	bestStart, bestEnd := -1, -1
	runStart := -1
	for i := 1; i < len(tail); i++ {
		if tail[i].Close < tail[i-1].Close {
			if runStart == -1 {
				runStart = i
			}
			if i-runStart+1 >= SellerExhaustionMinStreak {
				bestStart, bestEnd = runStart, i
			}
		} else {
			runStart = -1
		}
	}
	if bestStart == -1 {
		return nil
	}

	label := "intensifying"
	if math.Abs(tail[bestEnd].Delta) < math.Abs(tail[bestStart].Delta) {
		label = "fading"
	}
	return &ProximitySignal{
		Type:   SignalSellerExhaustion,
		Points: PointsSellerExhaustion,
		Detail: fmt.Sprintf("%d-day red streak ending %s, selling %s", bestEnd-bestStart+1, tail[bestEnd].Date, label),
	}
}

// deltaAnomaly fires on the first day whose absolute delta exceeds 4x the
// trailing 20-day average absolute delta. The trailing average is taken
// over the full daily series, not just the recent tail.
func deltaAnomaly(daily []DailyAggregate, tailStart int) *ProximitySignal {
	for i := tailStart; i < len(daily); i++ {
		if i < DeltaAnomalyLookback {
			continue
		}
		var sum float64
		for j := i - DeltaAnomalyLookback; j < i; j++ {
			sum += math.Abs(daily[j].Delta)
		}
		avg := sum / DeltaAnomalyLookback
		if avg == 0 {
			continue
		}
		if math.Abs(daily[i].Delta) > DeltaAnomalyMult*avg {
			return &ProximitySignal{
				Type:   SignalDeltaAnomaly,
				Points: PointsDeltaAnomaly,
				Detail: fmt.Sprintf("%s delta %.0f vs %.0f trailing average", daily[i].Date, daily[i].Delta, avg),
			}
		}
	}
	return nil
}

// greenDeltaStreak fires on the first run of 4+ consecutive positive-delta
// days, reporting the full run length.
func greenDeltaStreak(tail []DailyAggregate) *ProximitySignal {
	run := 0
	for i, d := range tail {
		if d.Delta <= 0 {
			run = 0
			continue
		}
		run++
		if run < GreenStreakMin {
			continue
		}
		// Extend to the end of this run before reporting.
		end := i
		for end+1 < len(tail) && tail[end+1].Delta > 0 {
			end++
			run++
		}
		return &ProximitySignal{
			Type:   SignalGreenStreak,
			Points: PointsGreenStreak,
			Detail: fmt.Sprintf("%d consecutive positive-delta days ending %s", run, tail[end].Date),
		}
	}
	return nil
}

// absorptionCluster fires on the first 5-day span containing 3 or more
// absorption days (price down, delta positive).
func absorptionCluster(tail []DailyAggregate) *ProximitySignal {
	if len(tail) < AbsorptionClusterSpan {
		return nil
	}
	absorbing := make([]bool, len(tail))
	for i := 1; i < len(tail); i++ {
		absorbing[i] = tail[i].Close < tail[i-1].Close && tail[i].Delta > 0
	}
	for start := 0; start+AbsorptionClusterSpan <= len(tail); start++ {
		count := 0
		for i := start; i < start+AbsorptionClusterSpan; i++ {
			if absorbing[i] {
				count++
			}
		}
		if count >= AbsorptionClusterMin {
			end := start + AbsorptionClusterSpan - 1
			return &ProximitySignal{
				Type:   SignalAbsorptionCluster,
				Points: PointsAbsorptionCluster,
				Detail: fmt.Sprintf("%d absorption days in 5 ending %s", count, tail[end].Date),
			}
		}
	}
	return nil
}

// capitulation fires on the first red day among the last 5 whose absolute
// delta exceeds twice the recent average and whose day-over-day price drop
// exceeds 2%.
func capitulation(tail []DailyAggregate) *ProximitySignal {
	var sum float64
	for _, d := range tail {
		sum += math.Abs(d.Delta)
	}
	avg := sum / float64(len(tail))
	if avg == 0 {
		return nil
	}

	start := len(tail) - CapitulationLastDays
	if start < 1 {
		start = 1
	}
	for i := start; i < len(tail); i++ {
		if tail[i].Close >= tail[i-1].Close || tail[i-1].Close == 0 {
			continue
		}
		change := (tail[i].Close - tail[i-1].Close) / tail[i-1].Close * 100
		if math.Abs(tail[i].Delta) > CapitulationDeltaMult*avg && change < CapitulationDropPct {
			return &ProximitySignal{
				Type:   SignalCapitulation,
				Points: PointsCapitulation,
				Detail: fmt.Sprintf("%s dropped %.1f%% on %.1fx average delta", tail[i].Date, change, math.Abs(tail[i].Delta)/avg),
			}
		}
	}
	return nil
}

// zoneSequence fires when two chronologically consecutive zones sit fewer
// than 30 days apart.
func zoneSequence(zones []Zone) *ProximitySignal {
	if len(zones) < 2 {
		return nil
	}
	ordered := make([]Zone, len(zones))
	copy(ordered, zones)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].StartIndex < ordered[j].StartIndex
	})
	for i := 1; i < len(ordered); i++ {
		gap := ordered[i].StartIndex - ordered[i-1].EndIndex - 1
		if gap < ZoneSequenceMaxGap {
			return &ProximitySignal{
				Type:   SignalZoneSequence,
				Points: PointsZoneSequence,
				Detail: fmt.Sprintf("zones %s and %s separated by %d days", ordered[i-1].EndDate, ordered[i].StartDate, gap),
			}
		}
	}
	return nil
}

// highAbsorptionZone fires on the first zone (by rank) whose absorption
// percent exceeds 40.
func highAbsorptionZone(zones []Zone) *ProximitySignal {
	for _, z := range zones {
		if z.AbsorptionPct > ZoneAbsorptionMin {
			return &ProximitySignal{
				Type:   SignalHighAbsorptionZone,
				Points: PointsHighAbsorptionZone,
				Detail: fmt.Sprintf("zone %s..%s absorbed on %.0f%% of days", z.StartDate, z.EndDate, z.AbsorptionPct),
			}
		}
	}
	return nil
}
