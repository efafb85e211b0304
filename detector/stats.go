package detector

import "math"

// mean returns the arithmetic mean, or 0 for an empty slice.
func mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}

// sampleStdDev returns the sample standard deviation (n-1 divisor).
// The n-1 convention governs the 3-sigma outlier capping, so it is kept
// consistent everywhere in this package.
func sampleStdDev(data []float64) float64 {
	n := len(data)
	if n < 2 {
		return 0
	}
	m := mean(data)
	varianceSum := 0.0
	for _, v := range data {
		varianceSum += (v - m) * (v - m)
	}
	return math.Sqrt(varianceSum / float64(n-1))
}

// linearRegression fits y = slope*x + intercept over x = 0..n-1 and
// returns slope, intercept and R². Degenerate input yields zeros.
func linearRegression(ys []float64) (slope, intercept, r2 float64) {
	n := len(ys)
	if n < 2 {
		return 0, 0, 0
	}

	var sumX, sumY, sumXY, sumX2 float64
	for i, y := range ys {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
	}

	fn := float64(n)
	denom := fn*sumX2 - sumX*sumX
	if denom == 0 {
		return 0, 0, 0
	}
	slope = (fn*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / fn

	meanY := sumY / fn
	var ssRes, ssTot float64
	for i, y := range ys {
		fit := slope*float64(i) + intercept
		ssRes += (y - fit) * (y - fit)
		ssTot += (y - meanY) * (y - meanY)
	}
	if ssTot == 0 {
		return slope, intercept, 0
	}
	return slope, intercept, 1 - ssRes/ssTot
}

// clamp01 clamps v into [0,1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
