package allocation

import (
	"math"

	"github.com/ryanluriea/blaidtrades/internal/fleet/lifecycle"
	"github.com/ryanluriea/blaidtrades/internal/fleet/priority"
)

// AccountBudget is the shared risk budget one brokerage account exposes to
// the fleet. All caps are hard ceilings for the dynamic per-bot limits.
type AccountBudget struct {
	AccountID                 string  `json:"account_id" yaml:"account_id"`
	BalanceDollars            float64 `json:"balance_dollars" yaml:"balance_dollars"`
	PerTradeRiskBudgetDollars float64 `json:"per_trade_risk_budget_dollars" yaml:"per_trade_risk_budget_dollars"`
	DailyRiskBudgetDollars    float64 `json:"daily_risk_budget_dollars" yaml:"daily_risk_budget_dollars"`
	MaxContractsPerTrade      int     `json:"max_contracts_per_trade" yaml:"max_contracts_per_trade"`
	MaxContractsPerSymbol     int     `json:"max_contracts_per_symbol" yaml:"max_contracts_per_symbol"`
	MaxTotalExposureContracts int     `json:"max_total_exposure_contracts" yaml:"max_total_exposure_contracts"`
}

// BotAllocationInput is one bot's claim on the shared budget.
type BotAllocationInput struct {
	BotID  string                `json:"bot_id" yaml:"bot_id"`
	Score  float64               `json:"score" yaml:"score"`
	Bucket priority.Bucket       `json:"bucket" yaml:"bucket"`
	Stage  lifecycle.BotState    `json:"stage" yaml:"stage"`
	Health lifecycle.HealthState `json:"health_state" yaml:"health_state"`
}

// AllocationResult is one bot's share of the budget. Unhealthy bots always
// carry weight 0 and zero limits; dynamic limits never exceed account caps.
type AllocationResult struct {
	BotID                 string  `json:"bot_id"`
	Weight                float64 `json:"weight"`
	MaxContractsDynamic   int     `json:"max_contracts_dynamic"`
	MaxRiskDollarsDynamic float64 `json:"max_risk_dollars_dynamic"`
}

// Config holds the bucket downscale table: lower buckets surrender part of
// their risk-dollar share so a D bot never out-budgets an A bot at equal
// score. The exact B/C values are deliberately a documented table, not code.
type Config struct {
	BucketMultipliers map[priority.Bucket]float64 `yaml:"bucket_multipliers"`
}

// DefaultConfig returns the production downscale table. D applies half the
// multiplier of A; F never allocates.
func DefaultConfig() Config {
	return Config{
		BucketMultipliers: map[priority.Bucket]float64{
			priority.BucketAPlus: 1.0,
			priority.BucketA:     1.0,
			priority.BucketB:     0.85,
			priority.BucketC:     0.70,
			priority.BucketD:     0.50,
			priority.BucketF:     0.0,
		},
	}
}

// Engine distributes an account's risk budget across bots by priority score.
type Engine struct {
	config Config
}

// NewEngine creates an allocation engine. A zero-value config falls back to
// the default bucket table.
func NewEngine(config Config) *Engine {
	if len(config.BucketMultipliers) == 0 {
		config = DefaultConfig()
	}
	return &Engine{config: config}
}

// ComputeAllocations distributes the account budget across bots.
// capacityUnits is the contract capacity currently available for
// distribution (open positions already netted out by the caller); when
// non-positive it defaults to the account's total exposure cap. The function
// is deterministic and side-effect free: callers persist the result.
func (e *Engine) ComputeAllocations(bots []BotAllocationInput, budget AccountBudget, capacityUnits int) []AllocationResult {
	if capacityUnits <= 0 {
		capacityUnits = budget.MaxTotalExposureContracts
	}

	results := make([]AllocationResult, len(bots))

	var eligible int
	var scoreSum float64
	for _, bot := range bots {
		if bot.Health.Unhealthy() {
			continue
		}
		eligible++
		scoreSum += bot.Score
	}

	for i, bot := range bots {
		results[i] = AllocationResult{BotID: bot.BotID}
		if bot.Health.Unhealthy() || eligible == 0 {
			continue
		}

		var weight float64
		if scoreSum > 0 {
			weight = bot.Score / scoreSum
		} else {
			// All eligible bots scored zero: split evenly.
			weight = 1.0 / float64(eligible)
		}
		results[i].Weight = weight

		contracts := int(math.Floor(weight * float64(capacityUnits)))
		if contracts > budget.MaxContractsPerTrade {
			contracts = budget.MaxContractsPerTrade
		}
		results[i].MaxContractsDynamic = contracts

		riskDollars := weight * budget.DailyRiskBudgetDollars * e.bucketMultiplier(bot.Bucket)
		if riskDollars > budget.PerTradeRiskBudgetDollars {
			riskDollars = budget.PerTradeRiskBudgetDollars
		}
		results[i].MaxRiskDollarsDynamic = riskDollars
	}

	return results
}

// bucketMultiplier resolves the downscale factor; unknown buckets allocate
// nothing, which fails closed.
func (e *Engine) bucketMultiplier(b priority.Bucket) float64 {
	if mult, ok := e.config.BucketMultipliers[b]; ok {
		return mult
	}
	return 0.0
}
