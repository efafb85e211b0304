package detector

import (
	"fmt"
	"sort"
)

// Data sufficiency and window-split tunables.
const (
	MinTotalBars     = 500
	MinScanBars      = 200
	MinScanDays      = 10
	ScanLookbackDays = 180
	PreContextDays   = 30
)

// Insufficient-data reason codes.
const (
	ReasonInsufficientBars     = "insufficient_1m_data"
	ReasonInsufficientScanBars = "insufficient_scan_data"
	ReasonInsufficientScanDays = "insufficient_daily_data"
)

// Params are the orchestrator-level tunables. Scoring and gate constants
// are deliberately package constants, not parameters, so every scan runs
// the same documented decision procedure.
type Params struct {
	MaxZones         int
	ScanLookbackDays int
	PreContextDays   int
	MinTotalBars     int
	MinScanBars      int
	MinScanDays      int
}

// DefaultParams returns the documented defaults.
func DefaultParams() Params {
	return Params{
		MaxZones:         DefaultMaxZones,
		ScanLookbackDays: ScanLookbackDays,
		PreContextDays:   PreContextDays,
		MinTotalBars:     MinTotalBars,
		MinScanBars:      MinScanBars,
		MinScanDays:      MinScanDays,
	}
}

// Detector runs the full accumulation scan. It holds no mutable state and
// is safe for concurrent use across symbols.
type Detector struct {
	params Params
}

// New creates a Detector; zero-valued fields in params fall back to the
// defaults.
func New(params Params) *Detector {
	def := DefaultParams()
	if params.MaxZones <= 0 {
		params.MaxZones = def.MaxZones
	}
	if params.ScanLookbackDays <= 0 {
		params.ScanLookbackDays = def.ScanLookbackDays
	}
	if params.PreContextDays <= 0 {
		params.PreContextDays = def.PreContextDays
	}
	if params.MinTotalBars <= 0 {
		params.MinTotalBars = def.MinTotalBars
	}
	if params.MinScanBars <= 0 {
		params.MinScanBars = def.MinScanBars
	}
	if params.MinScanDays <= 0 {
		params.MinScanDays = def.MinScanDays
	}
	return &Detector{params: params}
}

// NewDefault creates a Detector with DefaultParams.
func NewDefault() *Detector {
	return New(DefaultParams())
}

// Params returns the detector's effective parameters.
func (d *Detector) Params() Params {
	return d.params
}

// Detect runs the full pipeline for one symbol: sufficiency checks, the
// scan/pre-context split, daily aggregation, zone clustering, distribution
// scan and proximity grading. Malformed or thin input produces a negative
// result with an insufficient_* reason, never an error.
func (d *Detector) Detect(symbol string, bars []MinuteBar) *Result {
	res := &Result{Symbol: symbol, Proximity: ProximityResult{Level: LevelNone}}

	if len(bars) < d.params.MinTotalBars {
		res.Reason = ReasonInsufficientBars
		res.Status = fmt.Sprintf("insufficient history: %d minute bars, need %d", len(bars), d.params.MinTotalBars)
		return res
	}

	// Sort a copy; the caller's slice stays untouched.
	sorted := make([]MinuteBar, len(bars))
	copy(sorted, bars)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })

	latest := sorted[len(sorted)-1].Time
	scanCutoff := latest - int64(d.params.ScanLookbackDays)*86400
	preCutoff := scanCutoff - int64(d.params.PreContextDays)*86400

	var scanBars, preBars []MinuteBar
	for _, b := range sorted {
		switch {
		case b.Time >= scanCutoff:
			scanBars = append(scanBars, b)
		case b.Time >= preCutoff:
			preBars = append(preBars, b)
		}
	}

	if len(scanBars) < d.params.MinScanBars {
		res.Reason = ReasonInsufficientScanBars
		res.Status = fmt.Sprintf("insufficient scan window: %d minute bars, need %d", len(scanBars), d.params.MinScanBars)
		return res
	}

	daily := AggregateDaily(scanBars)
	if len(daily) < d.params.MinScanDays {
		res.Reason = ReasonInsufficientScanDays
		res.Status = fmt.Sprintf("insufficient scan window: %d aggregated days, need %d", len(daily), d.params.MinScanDays)
		return res
	}
	preDaily := AggregateDaily(preBars)

	res.ScanDays = len(daily)
	res.Zones = FindZones(daily, preDaily, d.params.MaxZones)
	res.Distribution = FindDistributionClusters(daily)
	res.Proximity = EvaluateProximity(daily, res.Zones)
	res.Detected = len(res.Zones) > 0

	if res.Detected {
		best := res.Zones[0]
		res.Best = &ZoneSummary{
			StartDate:  best.StartDate,
			EndDate:    best.EndDate,
			Score:      best.Score,
			WindowSize: best.WindowSize,
		}
		res.Status = fmt.Sprintf("accumulation detected: %d zone(s), best score %.2f over %s..%s, proximity %s",
			len(res.Zones), best.Score, best.StartDate, best.EndDate, res.Proximity.Level)
	} else {
		res.Status = fmt.Sprintf("no accumulation zones in %d scan days", len(daily))
	}
	return res
}
