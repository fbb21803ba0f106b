package correlation

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// ReturnSource supplies aligned daily return series for the active fleet.
// Implementations must produce genuine historical per-bot daily returns; the
// monitor itself never fabricates data.
type ReturnSource interface {
	FleetReturns(ctx context.Context, lookbackDays int) ([]BotSeries, error)
}

// Config holds the monitor's thresholds and cache policy.
type Config struct {
	HighPairThreshold float64       `yaml:"high_pair_threshold"` // pairs at/above this are reported
	ClusterThreshold  float64       `yaml:"cluster_threshold"`   // all-members absorption rule
	CacheTTL          time.Duration `yaml:"cache_ttl"`
	DriftMaxSamples   int           `yaml:"drift_max_samples"` // ring size per pair
	DriftMaxPairs     int           `yaml:"drift_max_pairs"`   // LRU cap on tracked pairs
	ForceRefreshRate  rate.Limit    `yaml:"force_refresh_rate"`
	ForceRefreshBurst int           `yaml:"force_refresh_burst"`
}

// DefaultConfig returns the production monitor configuration.
func DefaultConfig() Config {
	return Config{
		HighPairThreshold: 0.5,
		ClusterThreshold:  0.6,
		CacheTTL:          5 * time.Minute,
		DriftMaxSamples:   100,
		DriftMaxPairs:     512,
		ForceRefreshRate:  rate.Every(30 * time.Second),
		ForceRefreshBurst: 2,
	}
}

// Monitor computes pairwise fleet correlation on its own refresh cycle. The
// TTL result cache and the drift history are its only mutable state, both
// mutex-guarded; everything else is pure computation over the source data.
type Monitor struct {
	source       ReturnSource
	config       Config
	cache        *resultCache
	drift        *driftHistory
	forceLimiter *rate.Limiter
	clock        Clock
	log          zerolog.Logger
}

// NewMonitor creates a correlation monitor. A nil clock defaults to
// time.Now; tests inject a fixed clock to drive cache expiry.
func NewMonitor(source ReturnSource, config Config, clock Clock, logger zerolog.Logger) *Monitor {
	if clock == nil {
		clock = time.Now
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = DefaultConfig().CacheTTL
	}
	if config.DriftMaxSamples <= 0 {
		config.DriftMaxSamples = DefaultConfig().DriftMaxSamples
	}
	if config.DriftMaxPairs <= 0 {
		config.DriftMaxPairs = DefaultConfig().DriftMaxPairs
	}
	return &Monitor{
		source:       source,
		config:       config,
		cache:        newResultCache(config.CacheTTL, clock),
		drift:        newDriftHistory(config.DriftMaxSamples, config.DriftMaxPairs),
		forceLimiter: rate.NewLimiter(config.ForceRefreshRate, config.ForceRefreshBurst),
		clock:        clock,
		log:          logger,
	}
}

// AnalyzeCorrelations returns the fleet correlation analysis for the given
// lookback window, serving from cache within the TTL. forceRefresh bypasses
// the cache but is rate-limited; a throttled force falls back to the cache.
func (m *Monitor) AnalyzeCorrelations(ctx context.Context, lookbackDays int, forceRefresh bool) (*MatrixResult, error) {
	if forceRefresh && !m.forceLimiter.Allow() {
		m.log.Warn().Int("lookback_days", lookbackDays).Msg("correlation force refresh throttled")
		forceRefresh = false
	}

	if !forceRefresh {
		if cached, ok := m.cache.get(lookbackDays); ok {
			hit := *cached
			hit.FromCache = true
			return &hit, nil
		}
	}

	bots, err := m.source.FleetReturns(ctx, lookbackDays)
	if err != nil {
		return nil, fmt.Errorf("fetching fleet returns: %w", err)
	}

	result := m.compute(bots, lookbackDays)
	m.cache.put(lookbackDays, result)

	m.log.Debug().
		Int("bots", len(bots)).
		Int("lookback_days", lookbackDays).
		Int("high_pairs", len(result.HighPairs)).
		Int("clusters", len(result.Clusters)).
		Str("risk", string(result.Risk.Level)).
		Msg("correlation matrix refreshed")

	return result, nil
}

// DriftSamples exposes a pair's recent correlation history, oldest first.
func (m *Monitor) DriftSamples(botA, botB string) []DriftSample {
	return m.drift.Samples(botA, botB)
}

// compute runs the full pure analysis pass over one fleet snapshot.
func (m *Monitor) compute(bots []BotSeries, lookbackDays int) *MatrixResult {
	now := m.clock()
	n := len(bots)

	botIDs := make([]string, n)
	for i, b := range bots {
		botIDs[i] = b.BotID
	}

	matrix := make([][]float64, n)
	samples := make([][]int, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
		samples[i] = make([]int, n)
		matrix[i][i] = 1.0
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			r, overlap := Pearson(bots[i].Returns, bots[j].Returns)
			matrix[i][j] = r
			matrix[j][i] = r
			samples[i][j] = overlap
			samples[j][i] = overlap
			m.drift.record(bots[i].BotID, bots[j].BotID, r, now)
		}
	}

	highPairs := m.highPairs(bots, matrix, samples)
	clusters := clusterBots(botIDs, matrix, m.config.ClusterThreshold)

	return &MatrixResult{
		BotIDs:          botIDs,
		Matrix:          matrix,
		HighPairs:       highPairs,
		Clusters:        clusters,
		Diversification: scoreDiversification(bots, matrix, clusters),
		Risk:            scorePortfolioRisk(n, matrix, clusters),
		LookbackDays:    lookbackDays,
		ComputedAt:      now,
	}
}

// highPairs extracts pairs at or above the reporting threshold, annotated
// with shared-exposure tags and sorted by |r| descending.
func (m *Monitor) highPairs(bots []BotSeries, matrix [][]float64, samples [][]int) []PairCorrelation {
	pairs := []PairCorrelation{}
	for i := 0; i < len(bots); i++ {
		for j := i + 1; j < len(bots); j++ {
			r := matrix[i][j]
			if math.Abs(r) < m.config.HighPairThreshold {
				continue
			}
			level := Classify(r)
			pairs = append(pairs, PairCorrelation{
				BotA:           bots[i].BotID,
				BotB:           bots[j].BotID,
				ArchetypeA:     bots[i].Archetype,
				ArchetypeB:     bots[j].Archetype,
				Coefficient:    r,
				Level:          level,
				SharedExposure: sharedExposure(bots[i].Archetype, bots[j].Archetype),
				RiskMultiplier: RiskMultiplier(level),
				SampleSize:     samples[i][j],
			})
		}
	}
	sort.SliceStable(pairs, func(a, b int) bool {
		return math.Abs(pairs[a].Coefficient) > math.Abs(pairs[b].Coefficient)
	})
	return pairs
}

// archetypeExposures maps each strategy archetype to the exposure tags it
// carries; shared tags explain why two bots move together.
var archetypeExposures = map[string][]string{
	"momentum":       {"directional", "trend"},
	"trend_follow":   {"directional", "trend"},
	"breakout":       {"directional", "volatility_expansion"},
	"mean_reversion": {"counter_trend", "range"},
	"scalper":        {"intraday", "microstructure"},
	"carry":          {"yield", "short_vol"},
	"vol_sell":       {"short_vol"},
}

// sharedExposure intersects the two archetypes' exposure tags. Two bots of
// the same archetype share all of its tags.
func sharedExposure(archA, archB string) []string {
	tagsA := archetypeExposures[archA]
	tagsB := archetypeExposures[archB]
	if archA == archB && archA != "" {
		if len(tagsA) > 0 {
			return append([]string{"same_archetype"}, tagsA...)
		}
		return []string{"same_archetype"}
	}

	shared := []string{}
	seen := make(map[string]bool, len(tagsA))
	for _, t := range tagsA {
		seen[t] = true
	}
	for _, t := range tagsB {
		if seen[t] {
			shared = append(shared, t)
		}
	}
	return shared
}
