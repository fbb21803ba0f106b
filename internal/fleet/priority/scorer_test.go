package priority

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryanluriea/blaidtrades/internal/fleet/lifecycle"
)

func paperBot() BPSInputs {
	return BPSInputs{
		Sharpe30D:         1.0,
		ProfitFactor30D:   1.4,
		Expectancy30D:     30,
		MaxDrawdownPct30D: 5,
		Trades30D:         50,
		Health:            lifecycle.HealthOK,
		Stage:             lifecycle.BotPaper,
	}
}

func TestComputeBPS_Bounds(t *testing.T) {
	settings := DefaultBPSSettings()

	cases := []BPSInputs{
		{},
		{Sharpe30D: -10, MaxDrawdownPct30D: 99, Health: lifecycle.HealthFrozen, Stage: lifecycle.BotTrials},
		{Sharpe30D: 10, ProfitFactor30D: 5, Expectancy30D: 500, Trades30D: 10000, Health: lifecycle.HealthOK, Stage: lifecycle.BotLive},
		paperBot(),
	}
	for _, in := range cases {
		score := ComputeBPS(in, settings)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 100.0)
	}
}

func TestComputeBPS_KnownValue(t *testing.T) {
	// Reference case: every component lands mid-range.
	score := ComputeBPS(paperBot(), DefaultBPSSettings())
	assert.InDelta(t, 48.94, score, 0.001)

	// Determinism across runs.
	for i := 0; i < 10; i++ {
		assert.Equal(t, score, ComputeBPS(paperBot(), DefaultBPSSettings()))
	}
}

func TestComputeBPS_SharpeMonotonic(t *testing.T) {
	settings := DefaultBPSSettings()
	in := paperBot()

	prev := -1.0
	for sharpe := -2.0; sharpe <= 3.0; sharpe += 0.25 {
		in.Sharpe30D = sharpe
		score := ComputeBPS(in, settings)
		assert.GreaterOrEqual(t, score, prev, "sharpe %.2f decreased the score", sharpe)
		prev = score
	}
}

func TestComputeBPS_StageMultiplierRatio(t *testing.T) {
	settings := DefaultBPSSettings()

	live := paperBot()
	live.Stage = lifecycle.BotLive
	paper := paperBot()

	ratio := ComputeBPS(live, settings) / ComputeBPS(paper, settings)
	assert.InDelta(t, 1.0/0.75, ratio, 0.01)
}

func TestComputeBPS_CorrelationPenalty(t *testing.T) {
	settings := DefaultBPSSettings()
	base := ComputeBPS(paperBot(), settings)

	corr := 0.4
	in := paperBot()
	in.CorrelationToPortfolio = &corr
	assert.InDelta(t, base*0.6, ComputeBPS(in, settings), 0.01)

	// The penalty floor is 0.5 even for near-perfect correlation.
	high := 0.95
	in.CorrelationToPortfolio = &high
	assert.InDelta(t, base*0.5, ComputeBPS(in, settings), 0.01)

	// Negative correlation never boosts beyond 1.0.
	neg := -0.5
	in.CorrelationToPortfolio = &neg
	assert.InDelta(t, base, ComputeBPS(in, settings), 0.01)
}

func TestBucketFor_HealthOverride(t *testing.T) {
	for _, score := range []float64{0, 30, 60, 85, 100} {
		assert.Equal(t, BucketF, BucketFor(score, lifecycle.HealthDegraded))
		assert.Equal(t, BucketF, BucketFor(score, lifecycle.HealthFrozen))
	}
}

func TestBucketFor_Thresholds(t *testing.T) {
	tests := []struct {
		score float64
		want  Bucket
	}{
		{85, BucketAPlus},
		{84.99, BucketA},
		{75, BucketA},
		{74.99, BucketB},
		{60, BucketB},
		{59.99, BucketC},
		{45, BucketC},
		{44.99, BucketD},
		{30, BucketD},
		{29.99, BucketF},
		{0, BucketF},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, BucketFor(tc.score, lifecycle.HealthOK), "score %.2f", tc.score)
	}
}

func TestComputeBreakdown_MatchesComputeBPS(t *testing.T) {
	settings := DefaultBPSSettings()
	in := paperBot()

	b := ComputeBreakdown(in, settings)
	require.Equal(t, ComputeBPS(in, settings), b.FinalScore)
	assert.Equal(t, BucketFor(b.FinalScore, in.Health), b.Bucket)

	assert.InDelta(t, 0.6667, b.SharpeNorm, 0.001)
	assert.InDelta(t, 0.5, b.ProfitFactorNorm, 0.001)
	assert.InDelta(t, 0.6, b.ExpectancyNorm, 0.001)
	assert.InDelta(t, 0.75, b.DrawdownNorm, 0.001)
	assert.InDelta(t, 0.5, b.ReliabilityNorm, 0.001)
	assert.Equal(t, 1.0, b.HealthFactor)
	assert.Equal(t, 0.75, b.StageMultiplier)
	assert.Equal(t, 1.0, b.CorrelationPenalty)
}

func TestComputeBPS_UnhealthyLosesHealthComponent(t *testing.T) {
	settings := DefaultBPSSettings()

	in := paperBot()
	in.Health = lifecycle.HealthDegraded

	b := ComputeBreakdown(in, settings)
	assert.Equal(t, 0.0, b.HealthFactor)
	assert.Equal(t, BucketF, b.Bucket)
	// Score drops but the other components still count.
	assert.Greater(t, b.FinalScore, 0.0)
	assert.Less(t, b.FinalScore, ComputeBPS(paperBot(), settings))
}

func TestDefaultBPSSettings_WeightsSumToOne(t *testing.T) {
	assert.InDelta(t, 1.0, DefaultBPSSettings().Weights.Sum(), 0.0001)
}
