package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryanluriea/blaidtrades/internal/fleet/priority"
)

func TestDefaultValidates(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "governance.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
correlation:
  cache_ttl: 10m
readiness:
  two_factor_max_age: 12h
redis_addr: "redis-primary:6379"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, cfg.Correlation.CacheTTL)
	assert.Equal(t, 12*time.Hour, cfg.Readiness.TwoFactorMaxAge)
	assert.Equal(t, "redis-primary:6379", cfg.RedisAddr)

	// Untouched sections keep their defaults.
	assert.Equal(t, priority.DefaultBPSSettings().Weights, cfg.Scoring.Weights)
	assert.Equal(t, 0.5, cfg.Correlation.HighPairThreshold)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateRejectsBadWeights(t *testing.T) {
	cfg := Default()
	cfg.Scoring.Weights.Sharpe = 0.9
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weights must sum")
}

func TestValidateRejectsThresholdInversion(t *testing.T) {
	cfg := Default()
	cfg.Correlation.ClusterThreshold = 0.3 // below the high-pair threshold
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsBucketMultiplierOutOfRange(t *testing.T) {
	cfg := Default()
	for bucket := range cfg.Allocation.BucketMultipliers {
		cfg.Allocation.BucketMultipliers[bucket] = 1.5
		break
	}
	assert.Error(t, cfg.Validate())
}
