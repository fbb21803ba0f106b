package correlation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type stubSource struct {
	bots  []BotSeries
	calls int
	err   error
}

func (s *stubSource) FleetReturns(ctx context.Context, lookbackDays int) ([]BotSeries, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.bots, nil
}

func testFleet() []BotSeries {
	up := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	double := []float64{2, 4, 6, 8, 10, 12, 14, 16, 18, 20}
	down := []float64{10, 9, 8, 7, 6, 5, 4, 3, 2, 1}
	return []BotSeries{
		{BotID: "alpha", Archetype: "momentum", Regimes: []string{"bull"}, Returns: up},
		{BotID: "beta", Archetype: "momentum", Regimes: []string{"bull"}, Returns: double},
		{BotID: "gamma", Archetype: "mean_reversion", Regimes: []string{"chop", "crisis"}, Returns: down},
	}
}

// fakeClock is a mutable clock for driving cache expiry.
type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time { return f.now }

func newTestMonitor(source ReturnSource, clock Clock) *Monitor {
	cfg := DefaultConfig()
	cfg.ForceRefreshRate = rate.Inf
	return NewMonitor(source, cfg, clock, zerolog.Nop())
}

func TestAnalyzeCorrelations_MatrixShape(t *testing.T) {
	source := &stubSource{bots: testFleet()}
	m := newTestMonitor(source, nil)

	result, err := m.AnalyzeCorrelations(context.Background(), 30, false)
	require.NoError(t, err)
	require.Len(t, result.Matrix, 3)

	for i := range result.Matrix {
		assert.Equal(t, 1.0, result.Matrix[i][i], "diagonal must be 1")
		for j := range result.Matrix[i] {
			assert.Equal(t, result.Matrix[i][j], result.Matrix[j][i], "matrix must be symmetric")
		}
	}

	// alpha/beta move together; gamma moves against both.
	assert.InDelta(t, 1.0, result.Matrix[0][1], 1e-9)
	assert.InDelta(t, -1.0, result.Matrix[0][2], 1e-9)
}

func TestAnalyzeCorrelations_HighPairsSortedWithTags(t *testing.T) {
	source := &stubSource{bots: testFleet()}
	m := newTestMonitor(source, nil)

	result, err := m.AnalyzeCorrelations(context.Background(), 30, false)
	require.NoError(t, err)
	require.NotEmpty(t, result.HighPairs)

	top := result.HighPairs[0]
	assert.Equal(t, LevelDangerous, top.Level)
	assert.Equal(t, 2.0, top.RiskMultiplier)
	assert.Equal(t, 10, top.SampleSize)

	// Same-archetype pair carries its shared exposure tags.
	if top.BotA == "alpha" && top.BotB == "beta" {
		assert.Contains(t, top.SharedExposure, "same_archetype")
		assert.Contains(t, top.SharedExposure, "trend")
	}

	// Sorted by |r| descending.
	for i := 1; i < len(result.HighPairs); i++ {
		prev := result.HighPairs[i-1].Coefficient
		cur := result.HighPairs[i].Coefficient
		assert.GreaterOrEqual(t, abs(prev), abs(cur))
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func TestAnalyzeCorrelations_Clusters(t *testing.T) {
	source := &stubSource{bots: testFleet()}
	m := newTestMonitor(source, nil)

	result, err := m.AnalyzeCorrelations(context.Background(), 30, false)
	require.NoError(t, err)

	require.Len(t, result.Clusters, 1)
	assert.ElementsMatch(t, []string{"alpha", "beta"}, result.Clusters[0].BotIDs)
	assert.InDelta(t, 1.0, result.Clusters[0].AvgCorrelation, 1e-9)
	assert.Equal(t, ClusterRiskMedium, result.Clusters[0].Risk)
}

func TestAnalyzeCorrelations_RiskAndDiversification(t *testing.T) {
	source := &stubSource{bots: testFleet()}
	m := newTestMonitor(source, nil)

	result, err := m.AnalyzeCorrelations(context.Background(), 30, false)
	require.NoError(t, err)

	// Peak |r| of 1.0 forces the critical portfolio level.
	assert.Equal(t, PortfolioRiskCritical, result.Risk.Level)
	assert.InDelta(t, 100.0, result.Risk.MaxCorrelationRisk, 1e-9)
	assert.Equal(t, 75.0, result.Risk.ConcentrationScore) // three bots: mid concentration band

	div := result.Diversification
	assert.GreaterOrEqual(t, div.Score, 0.0)
	assert.LessOrEqual(t, div.Score, 100.0)
	assert.NotEmpty(t, div.Grade)
	// Fully correlated pair burns the whole correlation part.
	assert.InDelta(t, 0.0, div.CorrelationPart, 1e-9)
	// Crisis regime is covered by gamma, so no crisis recommendation.
	for _, rec := range div.Recommendations {
		assert.NotContains(t, rec, "crisis")
	}
}

func TestAnalyzeCorrelations_CacheTTL(t *testing.T) {
	source := &stubSource{bots: testFleet()}
	clock := &fakeClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	m := newTestMonitor(source, clock.Now)

	first, err := m.AnalyzeCorrelations(context.Background(), 30, false)
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	assert.Equal(t, 1, source.calls)

	second, err := m.AnalyzeCorrelations(context.Background(), 30, false)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, 1, source.calls)

	// A different lookback window is its own cache key.
	_, err = m.AnalyzeCorrelations(context.Background(), 90, false)
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls)

	// Past the TTL the window recomputes.
	clock.now = clock.now.Add(6 * time.Minute)
	third, err := m.AnalyzeCorrelations(context.Background(), 30, false)
	require.NoError(t, err)
	assert.False(t, third.FromCache)
	assert.Equal(t, 3, source.calls)
}

func TestAnalyzeCorrelations_ForceRefreshThrottled(t *testing.T) {
	source := &stubSource{bots: testFleet()}
	cfg := DefaultConfig()
	cfg.ForceRefreshRate = rate.Every(time.Hour)
	cfg.ForceRefreshBurst = 1
	m := NewMonitor(source, cfg, nil, zerolog.Nop())

	_, err := m.AnalyzeCorrelations(context.Background(), 30, true)
	require.NoError(t, err)
	assert.Equal(t, 1, source.calls)

	// Second force inside the window falls back to the cache.
	result, err := m.AnalyzeCorrelations(context.Background(), 30, true)
	require.NoError(t, err)
	assert.True(t, result.FromCache)
	assert.Equal(t, 1, source.calls)
}

func TestAnalyzeCorrelations_SourceError(t *testing.T) {
	source := &stubSource{err: errors.New("db down")}
	m := newTestMonitor(source, nil)

	_, err := m.AnalyzeCorrelations(context.Background(), 30, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fleet returns")
}

func TestAnalyzeCorrelations_DriftRecorded(t *testing.T) {
	source := &stubSource{bots: testFleet()}
	m := newTestMonitor(source, nil)

	_, err := m.AnalyzeCorrelations(context.Background(), 30, false)
	require.NoError(t, err)

	samples := m.DriftSamples("alpha", "beta")
	require.Len(t, samples, 1)
	assert.InDelta(t, 1.0, samples[0].Coefficient, 1e-9)

	// Pair key is order independent.
	assert.Len(t, m.DriftSamples("beta", "alpha"), 1)
}

func TestAnalyzeCorrelations_EmptyFleet(t *testing.T) {
	source := &stubSource{bots: nil}
	m := newTestMonitor(source, nil)

	result, err := m.AnalyzeCorrelations(context.Background(), 30, false)
	require.NoError(t, err)
	assert.Empty(t, result.Matrix)
	assert.Empty(t, result.Clusters)
	assert.Equal(t, PortfolioRiskHigh, result.Risk.Level) // tiny fleet concentrates risk
}
