package detector

import "sort"

// zoneWindowSizes are the sliding window lengths, in trading days, scanned
// by FindZones.
var zoneWindowSizes = []int{10, 14, 17, 20, 24, 28, 35}

// ZoneWindowSizes returns a copy of the scanned window lengths.
func ZoneWindowSizes() []int {
	out := make([]int, len(zoneWindowSizes))
	copy(out, zoneWindowSizes)
	return out
}

const (
	// DefaultMaxZones caps how many non-overlapping zones survive
	// clustering per scan.
	DefaultMaxZones = 3

	// ZoneOverlapMax is the maximum tolerated overlap between a candidate
	// and an accepted zone, as a fraction of the candidate's size.
	ZoneOverlapMax = 0.30

	// ZoneMinGapDays is the minimum day gap between disjoint zones.
	ZoneMinGapDays = 10
)

// FindZones scores every window size at every start offset, keeps detected
// windows, and greedily clusters them into at most maxZones ranked
// non-overlapping accumulation zones.
func FindZones(daily, preContext []DailyAggregate, maxZones int) []Zone {
	if maxZones <= 0 {
		maxZones = DefaultMaxZones
	}

	var candidates []Zone
	for _, size := range zoneWindowSizes {
		for start := 0; start+size <= len(daily); start++ {
			score := scoreWindow(daily[start:start+size], preContext)
			if score == nil || !score.Detected {
				continue
			}
			candidates = append(candidates, Zone{
				WindowScore: *score,
				StartIndex:  start,
				EndIndex:    start + size - 1,
				WindowSize:  size,
				StartDate:   daily[start].Date,
				EndDate:     daily[start+size-1].Date,
			})
		}
	}

	// Deterministic order: best score first, then earliest start, then
	// smallest window.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		if candidates[i].StartIndex != candidates[j].StartIndex {
			return candidates[i].StartIndex < candidates[j].StartIndex
		}
		return candidates[i].WindowSize < candidates[j].WindowSize
	})

	zones := make([]Zone, 0, maxZones)
	for _, cand := range candidates {
		if len(zones) >= maxZones {
			break
		}
		if conflictsWithAccepted(cand, zones) {
			continue
		}
		cand.Rank = len(zones) + 1
		zones = append(zones, cand)
	}
	return zones
}

// conflictsWithAccepted reports whether the candidate overlaps an accepted
// zone beyond ZoneOverlapMax, or sits closer than ZoneMinGapDays to a
// disjoint one.
func conflictsWithAccepted(cand Zone, accepted []Zone) bool {
	for _, z := range accepted {
		overlap := overlapDays(cand, z)
		if overlap > 0 {
			if float64(overlap)/float64(cand.WindowSize) > ZoneOverlapMax {
				return true
			}
			continue
		}
		if gapDays(cand, z) < ZoneMinGapDays {
			return true
		}
	}
	return false
}

// overlapDays counts the days two zones share.
func overlapDays(a, b Zone) int {
	lo := a.StartIndex
	if b.StartIndex > lo {
		lo = b.StartIndex
	}
	hi := a.EndIndex
	if b.EndIndex < hi {
		hi = b.EndIndex
	}
	if hi < lo {
		return 0
	}
	return hi - lo + 1
}

// gapDays counts the days strictly between two disjoint zones.
func gapDays(a, b Zone) int {
	if a.StartIndex > b.EndIndex {
		return a.StartIndex - b.EndIndex - 1
	}
	return b.StartIndex - a.EndIndex - 1
}
