// Package detector implements the volume divergence accumulation detector.
//
// The detector looks for hidden institutional accumulation: stretches where
// price is flat or declining while classified buying volume (volume delta)
// stays net positive. It aggregates 1-minute bars into daily and weekly
// buckets, scores sliding windows through a multi-gate weighted scoring
// function, clusters accepted windows into ranked non-overlapping zones,
// scans for the inverse distribution pattern, and grades breakout proximity.
//
// Everything in this package is pure computation over immutable inputs: no
// I/O, no shared state, no package-level variables besides tunable constants.
// A Detect call is deterministic for a given bar slice.
package detector

// MinuteBar is a single 1-minute price/volume bar. Inputs are read-only;
// the detector never mutates a caller's slice.
type MinuteBar struct {
	Time   int64   `json:"time"` // unix seconds
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// DailyAggregate is one UTC calendar day of classified volume.
// Invariant: TotalVolume == BuyVolume + SellVolume + unclassified volume
// (bars that closed exactly at their open count toward total only).
type DailyAggregate struct {
	Date        string  `json:"date"` // YYYY-MM-DD, UTC
	BuyVolume   float64 `json:"buy_volume"`
	SellVolume  float64 `json:"sell_volume"`
	TotalVolume float64 `json:"total_volume"`
	Delta       float64 `json:"delta"` // BuyVolume - SellVolume
	Open        float64 `json:"open"`
	Close       float64 `json:"close"`
	High        float64 `json:"high"`
	Low         float64 `json:"low"`
}

// WeeklyAggregate is a Monday-start week of summed daily deltas. It is
// derived per scoring window and never persisted.
type WeeklyAggregate struct {
	WeekStart   string  `json:"week_start"` // Monday, YYYY-MM-DD
	Delta       float64 `json:"delta"`
	TotalVolume float64 `json:"total_volume"`
	DeltaPct    float64 `json:"delta_pct"`
	NumDays     int     `json:"num_days"`
}

// CappedDelta records a single day whose raw delta was clamped by the
// 3-sigma outlier pass, kept for auditability.
type CappedDelta struct {
	Date     string  `json:"date"`
	Original float64 `json:"original"`
	Capped   float64 `json:"capped"`
}

// GateReason identifies which gate rejected a window, or why it was
// accepted. Typed so callers switch on constants instead of raw strings.
type GateReason string

const (
	// ReasonPriceGate fires when the window's overall price change is
	// outside (-45, +3] percent.
	ReasonPriceGate GateReason = "price_gate"
	// ReasonConcordantSelling fires when net delta percent is below -1.5.
	ReasonConcordantSelling GateReason = "concordant_selling"
	// ReasonConcordantDominated fires when positive delta is explained by
	// an ordinary rally rather than absorption.
	ReasonConcordantDominated GateReason = "concordant_dominated"
	// ReasonSlopeGate fires when the normalized weekly cumulative-delta
	// slope is below -0.5.
	ReasonSlopeGate GateReason = "slope_gate"
	// ReasonAccumulationDivergence marks a scored window at or above the
	// detection threshold.
	ReasonAccumulationDivergence GateReason = "accumulation_divergence"
	// ReasonBelowThreshold marks a window that passed every gate but
	// scored under the detection threshold.
	ReasonBelowThreshold GateReason = "below_threshold"
)

// WindowScore is the full diagnostic breakdown for one scored day-range.
type WindowScore struct {
	Score    float64    `json:"score"`
	Detected bool       `json:"detected"`
	Reason   GateReason `json:"reason"`

	PriceChangePct float64 `json:"price_change_pct"`
	NetDeltaPct    float64 `json:"net_delta_pct"`

	// Component scores, each clamped to [0,1].
	S1NetDelta      float64 `json:"s1"` // net delta percent
	S2WeeklySlope   float64 `json:"s2"` // normalized weekly delta slope
	S3DeltaShift    float64 `json:"s3"` // delta shift vs pre-context
	S4AccumWeeks    float64 `json:"s4"` // accumulation-week ratio
	S5LargeDays     float64 `json:"s5"` // large buy vs sell days
	S6Absorption    float64 `json:"s6"` // absorption day percent
	S7VolumeDecline float64 `json:"s7"` // volume decline first vs last third
	S8Divergence    float64 `json:"s8"` // price/delta divergence factor

	ConcordancePenalty float64 `json:"concordance_penalty"`
	DurationMultiplier float64 `json:"duration_multiplier"`
	ConcordantFrac     float64 `json:"concordant_frac"`
	AbsorptionPct      float64 `json:"absorption_pct"`
	IntraRally         float64 `json:"intra_rally"`
	WeekCount          int     `json:"week_count"`

	CappedDays []CappedDelta `json:"capped_days,omitempty"`
}

// Zone is a detected accumulation window that survived greedy clustering.
type Zone struct {
	WindowScore

	StartIndex int    `json:"start_index"`
	EndIndex   int    `json:"end_index"`
	WindowSize int    `json:"window_size"`
	Rank       int    `json:"rank"` // 1-based, by descending score
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
}

// DistributionCluster is a merged run of rolling windows showing the
// inverse pattern: price up while delta is net negative.
type DistributionCluster struct {
	StartIndex int    `json:"start_index"`
	EndIndex   int    `json:"end_index"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`

	// Full-span metrics over the merged date range.
	PriceChangePct float64 `json:"price_change_pct"`
	NetDeltaPct    float64 `json:"net_delta_pct"`

	// Extremes across the individual flagged windows that were merged.
	MaxWindowPriceChange float64 `json:"max_window_price_change"`
	MinWindowDeltaPct    float64 `json:"min_window_delta_pct"`
}

// ProximitySignal is one breakout-precursor pattern that fired.
type ProximitySignal struct {
	Type   string `json:"type"`
	Points int    `json:"points"`
	Detail string `json:"detail"`
}

// ProximityResult grades how close detected accumulation looks to a
// breakout. Level is one of none, elevated, high, imminent.
type ProximityResult struct {
	CompositeScore int               `json:"composite_score"`
	Level          string            `json:"level"`
	Signals        []ProximitySignal `json:"signals"`
}

// ZoneSummary is the condensed view of the best-ranked zone.
type ZoneSummary struct {
	StartDate  string  `json:"start_date"`
	EndDate    string  `json:"end_date"`
	Score      float64 `json:"score"`
	WindowSize int     `json:"window_size"`
}

// Result is the complete output of one Detect call.
type Result struct {
	Symbol   string `json:"symbol"`
	Detected bool   `json:"detected"`
	Status   string `json:"status"`
	// Reason is set to an insufficient_* code when the input did not carry
	// enough history to run the scan; empty otherwise.
	Reason       string                `json:"reason,omitempty"`
	ScanDays     int                   `json:"scan_days"`
	Zones        []Zone                `json:"zones"`
	Distribution []DistributionCluster `json:"distribution"`
	Proximity    ProximityResult       `json:"proximity"`
	Best         *ZoneSummary          `json:"best,omitempty"`
}
