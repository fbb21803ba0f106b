// Package config loads the governance engine configuration. Every section
// has a production default; a config file only overrides what it names.
package config

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v2"

	"github.com/ryanluriea/blaidtrades/internal/fleet/allocation"
	"github.com/ryanluriea/blaidtrades/internal/fleet/correlation"
	"github.com/ryanluriea/blaidtrades/internal/fleet/priority"
	"github.com/ryanluriea/blaidtrades/internal/fleet/readiness"
	"github.com/ryanluriea/blaidtrades/internal/fleet/runner"
)

// GovernanceConfig aggregates every engine's tunables.
type GovernanceConfig struct {
	Scoring     priority.BPSSettings `yaml:"scoring"`
	Allocation  allocation.Config    `yaml:"allocation"`
	Correlation correlation.Config   `yaml:"correlation"`
	Readiness   readiness.Config     `yaml:"readiness"`
	Runner      runner.Config        `yaml:"runner"`

	PostgresDSN string `yaml:"postgres_dsn"`
	RedisAddr   string `yaml:"redis_addr"`
}

// Default returns the full production configuration.
func Default() GovernanceConfig {
	return GovernanceConfig{
		Scoring:     priority.DefaultBPSSettings(),
		Allocation:  allocation.DefaultConfig(),
		Correlation: correlation.DefaultConfig(),
		Readiness:   readiness.DefaultConfig(),
		Runner:      runner.DefaultConfig(),
		RedisAddr:   "localhost:6379",
	}
}

// Load reads a yaml config file over the defaults and validates the result.
func Load(path string) (GovernanceConfig, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validating config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations that would silently distort scoring or
// disarm the safety gates.
func (c GovernanceConfig) Validate() error {
	if sum := c.Scoring.Weights.Sum(); sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("scoring weights must sum to 1.0, got %.4f", sum)
	}
	if c.Scoring.ExpectancyTarget <= 0 {
		return fmt.Errorf("scoring expectancy_target must be positive, got %.2f", c.Scoring.ExpectancyTarget)
	}
	if c.Scoring.DrawdownCapPct <= 0 {
		return fmt.Errorf("scoring drawdown_cap_pct must be positive, got %.2f", c.Scoring.DrawdownCapPct)
	}
	if c.Scoring.TradesTarget <= 0 {
		return fmt.Errorf("scoring trades_target must be positive, got %d", c.Scoring.TradesTarget)
	}
	for bucket, mult := range c.Allocation.BucketMultipliers {
		if mult < 0 || mult > 1 {
			return fmt.Errorf("allocation multiplier for bucket %s out of [0,1]: %.2f", bucket, mult)
		}
	}
	if c.Correlation.HighPairThreshold <= 0 || c.Correlation.HighPairThreshold >= 1 {
		return fmt.Errorf("correlation high_pair_threshold must be in (0,1), got %.2f", c.Correlation.HighPairThreshold)
	}
	if c.Correlation.ClusterThreshold < c.Correlation.HighPairThreshold {
		return fmt.Errorf("correlation cluster_threshold %.2f below high_pair_threshold %.2f",
			c.Correlation.ClusterThreshold, c.Correlation.HighPairThreshold)
	}
	if c.Correlation.CacheTTL <= 0 {
		return fmt.Errorf("correlation cache_ttl must be positive, got %s", c.Correlation.CacheTTL)
	}
	if c.Readiness.TwoFactorMaxAge <= 0 {
		return fmt.Errorf("readiness two_factor_max_age must be positive, got %s", c.Readiness.TwoFactorMaxAge)
	}
	if c.Readiness.MarketDataMaxStaleness <= 0 {
		return fmt.Errorf("readiness market_data_max_staleness must be positive, got %s", c.Readiness.MarketDataMaxStaleness)
	}
	if c.Runner.MaxConsecutiveFailures == 0 {
		return fmt.Errorf("runner max_consecutive_failures must be at least 1")
	}
	return nil
}
