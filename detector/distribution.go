package detector

const (
	// DistributionWindowDays is the fixed rolling window for the inverse
	// pattern scan.
	DistributionWindowDays = 10

	// DistributionPriceMin flags windows whose price change exceeds this
	// percent.
	DistributionPriceMin = 3.0

	// DistributionDeltaMax flags windows whose net delta percent is below
	// this.
	DistributionDeltaMax = -3.0

	// DistributionMergeGapDays merges a flagged window into the previous
	// cluster when its start is within this many days of the cluster end.
	DistributionMergeGapDays = 5
)

// FindDistributionClusters scans a fixed 10-day rolling window for the
// inverse pattern (price up, delta down) and merges adjacent flagged
// windows into clusters. Cluster-level price change and net delta are
// re-derived over the merged span in a final pass.
func FindDistributionClusters(daily []DailyAggregate) []DistributionCluster {
	n := len(daily)
	if n < DistributionWindowDays {
		return nil
	}

	var clusters []DistributionCluster
	for start := 0; start+DistributionWindowDays <= n; start++ {
		end := start + DistributionWindowDays - 1
		window := daily[start : end+1]

		priceChange := priceChangePct(window)
		deltaPct := netDeltaPct(window)
		if priceChange <= DistributionPriceMin || deltaPct >= DistributionDeltaMax {
			continue
		}

		if len(clusters) > 0 {
			last := &clusters[len(clusters)-1]
			if start-last.EndIndex <= DistributionMergeGapDays {
				if end > last.EndIndex {
					last.EndIndex = end
					last.EndDate = daily[end].Date
				}
				if priceChange > last.MaxWindowPriceChange {
					last.MaxWindowPriceChange = priceChange
				}
				if deltaPct < last.MinWindowDeltaPct {
					last.MinWindowDeltaPct = deltaPct
				}
				continue
			}
		}

		clusters = append(clusters, DistributionCluster{
			StartIndex:           start,
			EndIndex:             end,
			StartDate:            daily[start].Date,
			EndDate:              daily[end].Date,
			MaxWindowPriceChange: priceChange,
			MinWindowDeltaPct:    deltaPct,
		})
	}

	for i := range clusters {
		span := daily[clusters[i].StartIndex : clusters[i].EndIndex+1]
		clusters[i].PriceChangePct = priceChangePct(span)
		clusters[i].NetDeltaPct = netDeltaPct(span)
	}
	return clusters
}
