package priority

import (
	"math"

	"github.com/ryanluriea/blaidtrades/internal/fleet/lifecycle"
)

// BPSInputs is one bot's rolling 30-day performance snapshot plus its health
// and lifecycle stage. It is recomputed every evaluation cycle and never
// persisted; missing metrics score neutrally instead of failing.
type BPSInputs struct {
	Sharpe30D         float64               `json:"sharpe_30d" yaml:"sharpe_30d"`
	ProfitFactor30D   float64               `json:"profit_factor_30d" yaml:"profit_factor_30d"`
	Expectancy30D     float64               `json:"expectancy_30d" yaml:"expectancy_30d"`
	MaxDrawdownPct30D float64               `json:"max_dd_pct_30d" yaml:"max_dd_pct_30d"`
	Trades30D         int                   `json:"trades_30d" yaml:"trades_30d"`
	Health            lifecycle.HealthState `json:"health_state" yaml:"health_state"`
	Stage             lifecycle.BotState    `json:"stage" yaml:"stage"`

	// CorrelationToPortfolio is optional; nil means no correlation penalty.
	CorrelationToPortfolio *float64 `json:"correlation_to_portfolio,omitempty" yaml:"correlation_to_portfolio,omitempty"`
}

// BPSWeights are the six sub-metric weights. They should sum to 1.0.
type BPSWeights struct {
	Sharpe       float64 `yaml:"sharpe"`
	ProfitFactor float64 `yaml:"profit_factor"`
	Expectancy   float64 `yaml:"expectancy"`
	Drawdown     float64 `yaml:"drawdown"`
	Reliability  float64 `yaml:"reliability"`
	Health       float64 `yaml:"health"`
}

// Sum returns the total weight mass.
func (w BPSWeights) Sum() float64 {
	return w.Sharpe + w.ProfitFactor + w.Expectancy + w.Drawdown + w.Reliability + w.Health
}

// BPSSettings holds the scorer's reference ranges and weights. The fixed
// rescale ranges for sharpe (−1..2) and profit factor (1..1.8) are part of
// the scoring contract and not configurable.
type BPSSettings struct {
	Weights          BPSWeights `yaml:"weights"`
	ExpectancyTarget float64    `yaml:"expectancy_target"` // $/trade considered fully scored
	DrawdownCapPct   float64    `yaml:"drawdown_cap_pct"`  // drawdown at/above this scores 0
	TradesTarget     int        `yaml:"trades_target"`     // sample size considered fully reliable

	StageMultipliers map[lifecycle.BotState]float64 `yaml:"stage_multipliers"`
}

// DefaultBPSSettings returns the production scoring configuration.
func DefaultBPSSettings() BPSSettings {
	return BPSSettings{
		Weights: BPSWeights{
			Sharpe:       0.30,
			ProfitFactor: 0.20,
			Expectancy:   0.15,
			Drawdown:     0.15,
			Reliability:  0.10,
			Health:       0.10,
		},
		ExpectancyTarget: 50.0,
		DrawdownCapPct:   20.0,
		TradesTarget:     100,
		StageMultipliers: map[lifecycle.BotState]float64{
			lifecycle.BotTrials: 0.50,
			lifecycle.BotPaper:  0.75,
			lifecycle.BotShadow: 0.90,
			lifecycle.BotCanary: 0.95,
			lifecycle.BotLive:   1.00,
		},
	}
}

// Fixed sub-metric rescale ranges.
const (
	sharpeFloor = -1.0
	sharpeCeil  = 2.0
	pfFloor     = 1.0
	pfCeil      = 1.8
)

// healthFactor maps health to its discrete scoring factor.
func healthFactor(h lifecycle.HealthState) float64 {
	switch h {
	case lifecycle.HealthOK:
		return 1.0
	case lifecycle.HealthWarn:
		return 0.7
	default:
		// DEGRADED, FROZEN and anything unrecognized score zero.
		return 0.0
	}
}

// stageMultiplier resolves the trust multiplier for a stage. Hold states and
// unknown stages get the TRIALS multiplier: least trust.
func (s BPSSettings) stageMultiplier(stage lifecycle.BotState) float64 {
	if mult, ok := s.StageMultipliers[stage]; ok {
		return mult
	}
	return s.StageMultipliers[lifecycle.BotTrials]
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// rescale maps v linearly from [lo,hi] onto [0,1], clamped.
func rescale(v, lo, hi float64) float64 {
	if hi <= lo {
		return 0
	}
	return clamp01((v - lo) / (hi - lo))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ComputeBPS maps a bot's snapshot to its 0–100 priority score. Pure, no
// I/O, never fails: missing metrics contribute their neutral value.
func ComputeBPS(inputs BPSInputs, settings BPSSettings) float64 {
	return ComputeBreakdown(inputs, settings).FinalScore
}

// Breakdown exposes every normalized component and multiplier behind a
// score for audit and debugging. FinalScore is the ComputeBPS output.
type Breakdown struct {
	SharpeNorm       float64 `json:"sharpe_norm"`
	ProfitFactorNorm float64 `json:"profit_factor_norm"`
	ExpectancyNorm   float64 `json:"expectancy_norm"`
	DrawdownNorm     float64 `json:"drawdown_norm"`
	ReliabilityNorm  float64 `json:"reliability_norm"`
	HealthFactor     float64 `json:"health_factor"`

	WeightedSum        float64 `json:"weighted_sum"`
	StageMultiplier    float64 `json:"stage_multiplier"`
	CorrelationPenalty float64 `json:"correlation_penalty"`
	FinalScore         float64 `json:"final_score"`
	Bucket             Bucket  `json:"bucket"`
}

// ComputeBreakdown performs the full scoring pass. Rounding happens once, at
// the end, so FinalScore agrees with ComputeBPS exactly.
func ComputeBreakdown(inputs BPSInputs, settings BPSSettings) Breakdown {
	b := Breakdown{
		SharpeNorm:       rescale(inputs.Sharpe30D, sharpeFloor, sharpeCeil),
		ProfitFactorNorm: rescale(inputs.ProfitFactor30D, pfFloor, pfCeil),
		ExpectancyNorm:   rescale(inputs.Expectancy30D, 0, settings.ExpectancyTarget),
		DrawdownNorm:     1 - rescale(inputs.MaxDrawdownPct30D, 0, settings.DrawdownCapPct),
		ReliabilityNorm:  rescale(float64(inputs.Trades30D), 0, float64(settings.TradesTarget)),
		HealthFactor:     healthFactor(inputs.Health),
		StageMultiplier:  settings.stageMultiplier(inputs.Stage),
	}

	w := settings.Weights
	b.WeightedSum = b.SharpeNorm*w.Sharpe +
		b.ProfitFactorNorm*w.ProfitFactor +
		b.ExpectancyNorm*w.Expectancy +
		b.DrawdownNorm*w.Drawdown +
		b.ReliabilityNorm*w.Reliability +
		b.HealthFactor*w.Health

	b.CorrelationPenalty = 1.0
	if inputs.CorrelationToPortfolio != nil {
		b.CorrelationPenalty = clamp(1-*inputs.CorrelationToPortfolio, 0.5, 1.0)
	}

	score := b.WeightedSum * 100 * b.StageMultiplier * b.CorrelationPenalty
	b.FinalScore = round2(clamp(score, 0, 100))
	b.Bucket = BucketFor(b.FinalScore, inputs.Health)
	return b
}
