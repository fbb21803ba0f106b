package correlation

import "math"

// MinOverlapSamples is the minimum number of overlapping daily samples a
// pair needs before its correlation is trusted; below it the pair is
// defined as uncorrelated rather than guessed.
const MinOverlapSamples = 5

// Pearson computes the Pearson correlation coefficient over the overlapping,
// non-NaN samples of two aligned series. It returns (0, n) when fewer than
// MinOverlapSamples overlap or either side has zero variance.
func Pearson(a, b []float64) (float64, int) {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var xs, ys []float64
	for i := 0; i < n; i++ {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			continue
		}
		xs = append(xs, a[i])
		ys = append(ys, b[i])
	}

	overlap := len(xs)
	if overlap < MinOverlapSamples {
		return 0, overlap
	}

	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX := sumX / float64(overlap)
	meanY := sumY / float64(overlap)

	var cov, varX, varY float64
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0, overlap
	}
	return cov / math.Sqrt(varX*varY), overlap
}

// Classify buckets a correlation coefficient.
func Classify(r float64) Level {
	switch {
	case r < -0.3:
		return LevelNegative
	case math.Abs(r) < 0.3:
		return LevelLow
	case math.Abs(r) < 0.5:
		return LevelModerate
	case math.Abs(r) < 0.75:
		return LevelHigh
	default:
		return LevelDangerous
	}
}

// riskMultiplierSchedule maps classification to the capital-scaling factor
// applied when sizing correlated bots together. Negative correlation earns a
// discount; dangerous correlation doubles the charged risk.
var riskMultiplierSchedule = map[Level]float64{
	LevelNegative:  0.8,
	LevelLow:       1.0,
	LevelModerate:  1.2,
	LevelHigh:      1.5,
	LevelDangerous: 2.0,
}

// RiskMultiplier returns the capital-scaling factor for a classification.
func RiskMultiplier(level Level) float64 {
	if m, ok := riskMultiplierSchedule[level]; ok {
		return m
	}
	return 1.0
}
