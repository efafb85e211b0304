package detector

import (
	"math"
	"testing"
)

func TestFindDistributionClustersSingleWindow(t *testing.T) {
	closes := make([]float64, DistributionWindowDays)
	deltas := make([]float64, DistributionWindowDays)
	for i := range closes {
		closes[i] = 100.5 + 0.5*float64(i)
		deltas[i] = -4000
	}
	daily := synthDaily("2024-04-01", closes, deltas, 100000)

	clusters := FindDistributionClusters(daily)
	if len(clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(clusters))
	}
	c := clusters[0]
	if c.StartIndex != 0 || c.EndIndex != 9 {
		t.Errorf("expected span [0,9], got [%d,%d]", c.StartIndex, c.EndIndex)
	}
	if c.StartDate != "2024-04-01" || c.EndDate != "2024-04-10" {
		t.Errorf("unexpected dates %s..%s", c.StartDate, c.EndDate)
	}
	if math.Abs(c.PriceChangePct-4.4776) > 0.001 {
		t.Errorf("expected price change ~+4.48%%, got %.4f", c.PriceChangePct)
	}
	if math.Abs(c.NetDeltaPct-(-4.0)) > 1e-9 {
		t.Errorf("expected net delta -4%%, got %.4f", c.NetDeltaPct)
	}
}

func TestFindDistributionClustersTwoRegions(t *testing.T) {
	// Markup with selling on days 0-9 and 25-34, separated by a flat
	// absorption stretch that breaks the merge chain.
	closes := make([]float64, 35)
	deltas := make([]float64, 35)
	for i := range closes {
		switch {
		case i < 10:
			closes[i] = 100.5 + 0.5*float64(i)
			deltas[i] = -4000
		case i < 25:
			closes[i] = 105
			deltas[i] = 2000
		default:
			closes[i] = 105.7 + 0.7*float64(i-25)
			deltas[i] = -4000
		}
	}
	daily := synthDaily("2024-04-01", closes, deltas, 100000)

	clusters := FindDistributionClusters(daily)
	if len(clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(clusters))
	}
	if clusters[0].StartIndex != 0 {
		t.Errorf("first cluster must start at day 0, got %d", clusters[0].StartIndex)
	}
	if clusters[0].EndIndex <= 9 {
		t.Errorf("first cluster must absorb the adjacent flagged window, got end %d", clusters[0].EndIndex)
	}
	if clusters[1].StartIndex < 20 || clusters[1].EndIndex != 34 {
		t.Errorf("second cluster must cover the late markup, got [%d,%d]",
			clusters[1].StartIndex, clusters[1].EndIndex)
	}
	for _, c := range clusters {
		if c.PriceChangePct <= DistributionPriceMin {
			t.Errorf("cluster [%d,%d] span price change %.2f not above %.1f",
				c.StartIndex, c.EndIndex, c.PriceChangePct, DistributionPriceMin)
		}
		if c.NetDeltaPct >= DistributionDeltaMax {
			t.Errorf("cluster [%d,%d] span net delta %.2f not below %.1f",
				c.StartIndex, c.EndIndex, c.NetDeltaPct, DistributionDeltaMax)
		}
		if c.MaxWindowPriceChange < DistributionPriceMin {
			t.Errorf("cluster [%d,%d] lost its strongest window price change", c.StartIndex, c.EndIndex)
		}
	}
}

func TestFindDistributionClustersNone(t *testing.T) {
	closes := make([]float64, 20)
	deltas := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + 0.5*float64(i)
		deltas[i] = 4000 // buying backs the rally, no divergence
	}
	daily := synthDaily("2024-04-01", closes, deltas, 100000)
	if clusters := FindDistributionClusters(daily); len(clusters) != 0 {
		t.Fatalf("supported rally must yield no clusters, got %d", len(clusters))
	}
}

func TestFindDistributionClustersShortSeries(t *testing.T) {
	closes := []float64{100, 101, 102, 103, 104}
	deltas := []float64{-4000, -4000, -4000, -4000, -4000}
	if clusters := FindDistributionClusters(synthDaily("2024-04-01", closes, deltas, 100000)); clusters != nil {
		t.Fatalf("series shorter than the window must yield nil, got %v", clusters)
	}
}
