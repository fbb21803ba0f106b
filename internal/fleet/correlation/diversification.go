package correlation

import (
	"fmt"
	"math"
)

// Reference counts the diversification composite measures against: a fleet
// covering six archetypes and four market regimes scores full marks.
const (
	referenceArchetypes = 6
	referenceRegimes    = 4
	crisisRegime        = "crisis"
)

// scoreDiversification builds the four-part composite. The archetype and
// regime parts reward breadth; the correlation and cluster parts start at 40
// and surrender points as the fleet gets more entangled.
func scoreDiversification(bots []BotSeries, matrix [][]float64, clusters []Cluster) DiversificationScore {
	archetypes := map[string]bool{}
	regimes := map[string]bool{}
	for _, b := range bots {
		if b.Archetype != "" {
			archetypes[b.Archetype] = true
		}
		for _, r := range b.Regimes {
			regimes[r] = true
		}
	}

	archetypeScore := math.Min(float64(len(archetypes))/referenceArchetypes, 1.0) * 100

	avgAbs := avgAbsOffDiagonal(matrix)
	correlationPart := 40 - avgAbs*40

	var penalties float64
	for _, c := range clusters {
		penalties += clusterPenalty(c.Risk)
	}
	clusterPart := 40 - math.Min(penalties, 40)

	regimePart := math.Min(float64(len(regimes))/referenceRegimes, 1.0) * 25

	total := archetypeScore*0.3 + correlationPart + clusterPart + regimePart*0.3
	total = math.Max(0, math.Min(100, total))

	score := DiversificationScore{
		Score:           total,
		Grade:           diversificationGrade(total),
		ArchetypeScore:  archetypeScore,
		CorrelationPart: correlationPart,
		ClusterPart:     clusterPart,
		RegimePart:      regimePart,
	}
	score.Recommendations = recommendations(bots, archetypes, regimes, avgAbs, clusters)
	return score
}

func diversificationGrade(score float64) string {
	switch {
	case score >= 80:
		return "A"
	case score >= 65:
		return "B"
	case score >= 50:
		return "C"
	case score >= 35:
		return "D"
	default:
		return "F"
	}
}

// recommendations runs the simple threshold checks that feed the dashboard's
// advice panel.
func recommendations(bots []BotSeries, archetypes, regimes map[string]bool, avgAbs float64, clusters []Cluster) []string {
	recs := []string{}

	if len(bots) < 3 {
		recs = append(recs, "fleet is too small to diversify; add more active bots")
	}
	if len(archetypes) < 3 {
		recs = append(recs, fmt.Sprintf("only %d strategy archetype(s) active; add bots with different styles", len(archetypes)))
	}
	if avgAbs > 0.5 {
		recs = append(recs, fmt.Sprintf("average fleet correlation %.2f is high; reduce overlapping exposure", avgAbs))
	}
	for _, c := range clusters {
		if c.Risk == ClusterRiskCritical || c.Risk == ClusterRiskHigh {
			recs = append(recs, fmt.Sprintf("dangerous cluster of %d bots (avg %.2f); consider pausing part of it", len(c.BotIDs), c.AvgCorrelation))
			break
		}
	}
	if !regimes[crisisRegime] {
		recs = append(recs, "no bot covers the crisis regime; the fleet is unhedged in a crash")
	}

	return recs
}

// avgAbsOffDiagonal averages |r| over the upper triangle.
func avgAbsOffDiagonal(matrix [][]float64) float64 {
	var sum float64
	var count int
	for i := range matrix {
		for j := i + 1; j < len(matrix[i]); j++ {
			sum += math.Abs(matrix[i][j])
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// maxAbsOffDiagonal finds the single strongest pairwise correlation.
func maxAbsOffDiagonal(matrix [][]float64) float64 {
	var max float64
	for i := range matrix {
		for j := i + 1; j < len(matrix[i]); j++ {
			if abs := math.Abs(matrix[i][j]); abs > max {
				max = abs
			}
		}
	}
	return max
}

// scorePortfolioRisk aggregates bot-count concentration, the peak pairwise
// correlation, and cluster presence into one overall level.
func scorePortfolioRisk(botCount int, matrix [][]float64, clusters []Cluster) PortfolioRisk {
	risk := PortfolioRisk{
		ConcentrationScore: concentrationScore(botCount),
		MaxCorrelation:     maxAbsOffDiagonal(matrix),
	}
	risk.MaxCorrelationRisk = risk.MaxCorrelation * 100

	for _, c := range clusters {
		switch c.Risk {
		case ClusterRiskCritical:
			risk.CriticalClusters++
		case ClusterRiskHigh:
			risk.HighClusters++
		}
	}

	switch {
	case risk.CriticalClusters > 0 || risk.MaxCorrelationRisk >= 90:
		risk.Level = PortfolioRiskCritical
	case risk.HighClusters > 0 || risk.MaxCorrelationRisk >= 75 || risk.ConcentrationScore >= 75:
		risk.Level = PortfolioRiskHigh
	case risk.MaxCorrelationRisk >= 50 || risk.ConcentrationScore >= 50:
		risk.Level = PortfolioRiskModerate
	default:
		risk.Level = PortfolioRiskLow
	}
	return risk
}

// concentrationScore bands fleet size: fewer bots concentrate more risk in
// each one. Thresholds at 3, 5 and 8 bots.
func concentrationScore(botCount int) float64 {
	switch {
	case botCount < 3:
		return 100
	case botCount < 5:
		return 75
	case botCount < 8:
		return 50
	default:
		return 25
	}
}
