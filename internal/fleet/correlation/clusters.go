package correlation

// clusterBots runs a single greedy pass over bots in index order: each
// unvisited bot seeds a cluster, and a later unvisited bot is absorbed only
// when its correlation to every current member meets the threshold. Only
// clusters of two or more bots are kept.
func clusterBots(botIDs []string, matrix [][]float64, threshold float64) []Cluster {
	visited := make([]bool, len(botIDs))
	var clusters []Cluster

	for i := range botIDs {
		if visited[i] {
			continue
		}
		members := []int{i}
		visited[i] = true

		for j := i + 1; j < len(botIDs); j++ {
			if visited[j] {
				continue
			}
			qualifies := true
			for _, m := range members {
				if matrix[m][j] < threshold {
					qualifies = false
					break
				}
			}
			if qualifies {
				members = append(members, j)
				visited[j] = true
			}
		}

		if len(members) < 2 {
			visited[i] = true
			continue
		}

		ids := make([]string, len(members))
		for k, m := range members {
			ids[k] = botIDs[m]
		}
		avg := avgPairwise(members, matrix)
		clusters = append(clusters, Cluster{
			BotIDs:         ids,
			AvgCorrelation: avg,
			Risk:           clusterRiskFor(len(members), avg),
		})
	}

	return clusters
}

// avgPairwise averages the correlation over every member pair.
func avgPairwise(members []int, matrix [][]float64) float64 {
	var sum float64
	var pairs int
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			sum += matrix[members[i]][members[j]]
			pairs++
		}
	}
	if pairs == 0 {
		return 0
	}
	return sum / float64(pairs)
}

// clusterRiskFor tiers a cluster. CRITICAL needs four members averaging
// above 0.7; HIGH needs three above 0.6; MEDIUM any cluster above 0.5.
func clusterRiskFor(size int, avg float64) ClusterRisk {
	switch {
	case size >= 4 && avg > 0.7:
		return ClusterRiskCritical
	case size >= 3 && avg > 0.6:
		return ClusterRiskHigh
	case avg > 0.5:
		return ClusterRiskMedium
	default:
		return ClusterRiskLow
	}
}

// clusterPenalty converts a cluster's risk tier into the diversification
// penalty it contributes.
func clusterPenalty(risk ClusterRisk) float64 {
	switch risk {
	case ClusterRiskCritical:
		return 20
	case ClusterRiskHigh:
		return 12
	case ClusterRiskMedium:
		return 6
	default:
		return 2
	}
}
