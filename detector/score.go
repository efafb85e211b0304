package detector

import "math"

// Detection threshold and hard-gate bounds. These are documented tunables;
// tests assert against them, so change them deliberately.
const (
	// ScoreThreshold is the minimum final score for a detected window.
	ScoreThreshold = 0.30

	// PriceGateMin / PriceGateMax bound the window's overall price change:
	// accepted when change is in (PriceGateMin, PriceGateMax] percent.
	PriceGateMin = -45.0
	PriceGateMax = 3.0

	// OutlierSigma is the cap distance for daily delta outliers.
	OutlierSigma = 3.0

	// NetDeltaFloor is the minimum net delta percent before a window is
	// rejected as concordant selling.
	NetDeltaFloor = -1.5

	// ConcordanceGate rejects windows whose positive delta is mostly
	// concordant with rising prices.
	ConcordanceGate = 0.70

	// SlopeGateMin is the minimum normalized weekly cumulative-delta slope.
	SlopeGateMin = -0.5
)

// Component weights. They sum to 1.00.
const (
	WeightNetDelta      = 0.20
	WeightWeeklySlope   = 0.15
	WeightDeltaShift    = 0.10
	WeightAccumWeeks    = 0.10
	WeightLargeDays     = 0.05
	WeightAbsorption    = 0.18
	WeightVolumeDecline = 0.05
	WeightDivergence    = 0.17
)

// Linear ramp bounds mapping raw component values into [0,1].
const (
	RampNetDeltaOffset = 1.5
	RampNetDeltaSpan   = 5.0

	RampSlopeOffset = 0.5
	RampSlopeSpan   = 4.0

	RampShiftOffset = 1.0
	RampShiftSpan   = 8.0

	RampAccumWeeksOffset = 0.2
	RampAccumWeeksSpan   = 0.6

	RampLargeDaysOffset = 3.0
	RampLargeDaysSpan   = 12.0

	RampAbsorptionSpan = 15.0

	// LargeDayMult defines a "large" day: absolute capped delta above this
	// multiple of the window's mean absolute capped delta.
	LargeDayMult = 1.5

	// VolumeDeclineCap normalizes the first-third vs last-third volume
	// decline; a 30% decline saturates the component.
	VolumeDeclineCap = 0.30

	// Divergence factor bounds: priceFactor is 1.0 at -5% or worse and 0
	// at +3%; deltaFactor saturates at +3% net delta.
	RampDivergencePriceOffset = 3.0
	RampDivergencePriceSpan   = 8.0
	RampDivergenceDeltaSpan   = 3.0
)

// Concordance penalty and duration multiplier shape.
const (
	ConcordancePenaltyKnee  = 0.55
	ConcordancePenaltyFloor = 0.40
	ConcordancePenaltySlope = 1.5

	DurationMultBase = 0.70
	DurationMultStep = 0.075
	DurationMultCap  = 1.15
)

// minScoreWeeks is the minimum distinct weeks a window must span to have
// enough structure to trend.
const minScoreWeeks = 2

// scoreWindow evaluates one contiguous slice of daily aggregates against
// the pre-context period. It returns nil when the slice spans fewer than
// two weeks. Hard gates are evaluated in order and short-circuit with a
// zero score; only windows that pass every gate are scored.
func scoreWindow(window, preContext []DailyAggregate) *WindowScore {
	n := len(window)
	if n == 0 {
		return nil
	}

	weekCount := countWeeks(window)
	if weekCount < minScoreWeeks {
		return nil
	}

	res := &WindowScore{
		PriceChangePct:     priceChangePct(window),
		IntraRally:         intraRally(window),
		WeekCount:          weekCount,
		ConcordancePenalty: 1.0,
	}

	// Gate 1: overall price change must be flat-to-declining, not
	// catastrophic. Too bullish means no divergence to find; too deep a
	// drawdown is not quiet accumulation.
	if res.PriceChangePct > PriceGateMax || res.PriceChangePct <= PriceGateMin {
		res.Reason = ReasonPriceGate
		return res
	}

	// Gate 2 prep: 3-sigma capping of daily delta outliers. All later
	// sums use the capped series. Re-running the cap on an already capped
	// series caps nothing further.
	raw := make([]float64, n)
	for i, d := range window {
		raw[i] = d.Delta
	}
	capped := make([]float64, n)
	copy(capped, raw)

	if sd := sampleStdDev(raw); sd > 0 {
		m := mean(raw)
		lo := m - OutlierSigma*sd
		hi := m + OutlierSigma*sd
		for i, v := range raw {
			switch {
			case v > hi:
				capped[i] = hi
				res.CappedDays = append(res.CappedDays, CappedDelta{Date: window[i].Date, Original: v, Capped: hi})
			case v < lo:
				capped[i] = lo
				res.CappedDays = append(res.CappedDays, CappedDelta{Date: window[i].Date, Original: v, Capped: lo})
			}
		}
	}

	var totalVolume, cappedSum float64
	for i, d := range window {
		totalVolume += d.TotalVolume
		cappedSum += capped[i]
	}
	if totalVolume > 0 {
		res.NetDeltaPct = cappedSum / totalVolume * 100
	}

	// Gate 3: net selling beyond the floor is concordant selling, not
	// accumulation.
	if res.NetDeltaPct < NetDeltaFloor {
		res.Reason = ReasonConcordantSelling
		return res
	}

	// Concordance split: positive-delta days are either concordant-up
	// (price rose too) or absorption (price fell while buyers stepped in).
	var concordantUpSum, absorptionSum float64
	absorptionDays := 0
	for i := 1; i < n; i++ {
		if capped[i] <= 0 {
			continue
		}
		switch {
		case window[i].Close > window[i-1].Close:
			concordantUpSum += capped[i]
		case window[i].Close < window[i-1].Close:
			absorptionSum += capped[i]
			absorptionDays++
		}
	}
	if posSum := concordantUpSum + absorptionSum; posSum > 0 {
		res.ConcordantFrac = concordantUpSum / posSum
	}
	if n > 1 {
		res.AbsorptionPct = float64(absorptionDays) / float64(n-1) * 100
	}

	// Gate 4: only meaningful when net delta is positive. If the positive
	// delta is dominated by up days it is an ordinary rally.
	if res.NetDeltaPct > 0 && res.ConcordantFrac > ConcordanceGate {
		res.Reason = ReasonConcordantDominated
		return res
	}

	// Gate 5: weekly cumulative capped delta must not be trending down.
	weeks := buildWeeksWithDeltas(window, capped)
	cumulative := make([]float64, len(weeks))
	weeklyVolumes := make([]float64, len(weeks))
	running := 0.0
	for i, w := range weeks {
		running += w.Delta
		cumulative[i] = running
		weeklyVolumes[i] = w.TotalVolume
	}
	slope, _, _ := linearRegression(cumulative)
	slopeNorm := 0.0
	if avgWeeklyVolume := mean(weeklyVolumes); avgWeeklyVolume > 0 {
		slopeNorm = slope / avgWeeklyVolume * 100
	}
	if slopeNorm < SlopeGateMin {
		res.Reason = ReasonSlopeGate
		return res
	}

	// Components. Each is a linear ramp clamped to [0,1].
	res.S1NetDelta = clamp01((res.NetDeltaPct + RampNetDeltaOffset) / RampNetDeltaSpan)
	res.S2WeeklySlope = clamp01((slopeNorm + RampSlopeOffset) / RampSlopeSpan)
	res.S3DeltaShift = clamp01((deltaShift(capped, preContext) + RampShiftOffset) / RampShiftSpan)
	res.S4AccumWeeks = clamp01((accumulationWeekRatio(weeks) - RampAccumWeeksOffset) / RampAccumWeeksSpan)
	res.S5LargeDays = clamp01((largeDayBalance(capped) + RampLargeDaysOffset) / RampLargeDaysSpan)
	res.S6Absorption = clamp01(res.AbsorptionPct / RampAbsorptionSpan)
	res.S7VolumeDecline = clamp01(volumeDecline(window) / VolumeDeclineCap)
	if res.NetDeltaPct > 0 {
		priceFactor := clamp01((RampDivergencePriceOffset - res.PriceChangePct) / RampDivergencePriceSpan)
		deltaFactor := clamp01(res.NetDeltaPct / RampDivergenceDeltaSpan)
		res.S8Divergence = priceFactor * deltaFactor
	}

	rawScore := res.S1NetDelta*WeightNetDelta +
		res.S2WeeklySlope*WeightWeeklySlope +
		res.S3DeltaShift*WeightDeltaShift +
		res.S4AccumWeeks*WeightAccumWeeks +
		res.S5LargeDays*WeightLargeDays +
		res.S6Absorption*WeightAbsorption +
		res.S7VolumeDecline*WeightVolumeDecline +
		res.S8Divergence*WeightDivergence

	if res.ConcordantFrac > ConcordancePenaltyKnee {
		penalty := 1.0 - (res.ConcordantFrac-ConcordancePenaltyKnee)*ConcordancePenaltySlope
		res.ConcordancePenalty = math.Max(ConcordancePenaltyFloor, penalty)
	}
	res.DurationMultiplier = math.Min(DurationMultCap, DurationMultBase+float64(weekCount-minScoreWeeks)*DurationMultStep)

	res.Score = rawScore * res.ConcordancePenalty * res.DurationMultiplier
	res.Detected = res.Score >= ScoreThreshold
	if res.Detected {
		res.Reason = ReasonAccumulationDivergence
	} else {
		res.Reason = ReasonBelowThreshold
	}
	return res
}

// deltaShift compares the window's average daily capped delta against the
// pre-context average daily delta, normalized by pre-context average
// volume, in percent. Returns 0 when no usable pre-context exists.
func deltaShift(capped []float64, preContext []DailyAggregate) float64 {
	if len(preContext) == 0 {
		return 0
	}
	var preDelta, preVolume float64
	for _, d := range preContext {
		preDelta += d.Delta
		preVolume += d.TotalVolume
	}
	preAvgDelta := preDelta / float64(len(preContext))
	preAvgVolume := preVolume / float64(len(preContext))
	if preAvgVolume == 0 {
		return 0
	}
	return (mean(capped) - preAvgDelta) / preAvgVolume * 100
}

// accumulationWeekRatio is the fraction of weeks with positive delta.
func accumulationWeekRatio(weeks []WeeklyAggregate) float64 {
	if len(weeks) == 0 {
		return 0
	}
	positive := 0
	for _, w := range weeks {
		if w.Delta > 0 {
			positive++
		}
	}
	return float64(positive) / float64(len(weeks))
}

// largeDayBalance counts large buy days minus large sell days, where a
// large day moves more than LargeDayMult times the mean absolute delta.
func largeDayBalance(capped []float64) float64 {
	abs := make([]float64, len(capped))
	for i, v := range capped {
		abs[i] = math.Abs(v)
	}
	threshold := LargeDayMult * mean(abs)
	if threshold == 0 {
		return 0
	}
	balance := 0
	for _, v := range capped {
		if math.Abs(v) <= threshold {
			continue
		}
		if v > 0 {
			balance++
		} else {
			balance--
		}
	}
	return float64(balance)
}

// volumeDecline is the fractional average-volume decline from the first
// third of the window to the last third.
func volumeDecline(window []DailyAggregate) float64 {
	third := len(window) / 3
	if third < 1 {
		return 0
	}
	var firstSum, lastSum float64
	for _, d := range window[:third] {
		firstSum += d.TotalVolume
	}
	for _, d := range window[len(window)-third:] {
		lastSum += d.TotalVolume
	}
	firstAvg := firstSum / float64(third)
	if firstAvg == 0 {
		return 0
	}
	return (firstAvg - lastSum/float64(third)) / firstAvg
}

// intraRally is the largest close-to-close run-up percent inside the
// window, scanned against a running minimum close.
func intraRally(window []DailyAggregate) float64 {
	best := 0.0
	minClose := math.Inf(1)
	for _, d := range window {
		if d.Close <= 0 {
			continue
		}
		if d.Close < minClose {
			minClose = d.Close
			continue
		}
		if r := (d.Close - minClose) / minClose * 100; r > best {
			best = r
		}
	}
	return best
}
