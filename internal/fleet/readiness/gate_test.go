package readiness

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// healthyInput builds a snapshot with every subsystem green.
func healthyInput(mode RunMode) Input {
	twoFactor := testNow.Add(-1 * time.Hour)
	marketData := testNow.Add(-1 * time.Second)
	audit := testNow.Add(-2 * time.Hour)
	return Input{
		Now:                     testNow,
		TargetMode:              mode,
		TwoFactorVerifiedAt:     &twoFactor,
		CacheHealthy:            true,
		CacheLatencyMs:          20,
		QueueHealthy:            true,
		QueueLatencyMs:          15,
		LiveMarketDataAvailable: true,
		MarketDataTimestamp:     &marketData,
		HistoricalDataAvailable: true,
		BrokerValidated:         true,
		LastAuditPassed:         true,
		LastAuditAt:             &audit,
		LiveBots:                2,
		RiskEngineLoaded:        true,
	}
}

func blockerCodes(result Result) []string {
	codes := make([]string, len(result.Blockers))
	for i, b := range result.Blockers {
		codes[i] = b.Code
	}
	return codes
}

func TestComputeLiveReadiness_AllHealthy(t *testing.T) {
	gate := NewGate(DefaultConfig())

	result := gate.ComputeLiveReadiness(healthyInput(ModeLive))
	assert.True(t, result.LiveReady)
	assert.True(t, result.CanaryReady)
	assert.Equal(t, StatusOK, result.OverallStatus)
	assert.Empty(t, result.Blockers)
	assert.NotEmpty(t, result.Components)
	assert.Equal(t, testNow, result.Timestamp)
}

func TestComputeLiveReadiness_EmergencyModeAlwaysBlocks(t *testing.T) {
	gate := NewGate(DefaultConfig())

	for _, mode := range []RunMode{ModeSim, ModePaper, ModeShadow, ModeCanary, ModeLive} {
		input := healthyInput(mode)
		input.EmergencyModeActive = true

		result := gate.ComputeLiveReadiness(input)
		assert.False(t, result.LiveReady, "mode %s", mode)
		assert.False(t, result.CanaryReady, "mode %s", mode)
		require.Contains(t, blockerCodes(result), "EMERGENCY_MODE_ACTIVE")
		for _, b := range result.Blockers {
			if b.Code == "EMERGENCY_MODE_ACTIVE" {
				assert.Equal(t, SeverityCritical, b.Severity)
			}
		}
	}
}

func TestComputeLiveReadiness_MockDataAlwaysBlocks(t *testing.T) {
	gate := NewGate(DefaultConfig())

	input := healthyInput(ModePaper)
	input.MockDataDetected = true

	result := gate.ComputeLiveReadiness(input)
	assert.False(t, result.CanaryReady)
	assert.Contains(t, blockerCodes(result), "MOCK_DATA_DETECTED")
}

func TestComputeLiveReadiness_TwoFactor(t *testing.T) {
	gate := NewGate(DefaultConfig())

	// Stale 2FA blocks live.
	input := healthyInput(ModeLive)
	stale := testNow.Add(-25 * time.Hour)
	input.TwoFactorVerifiedAt = &stale
	result := gate.ComputeLiveReadiness(input)
	assert.False(t, result.LiveReady)
	assert.Contains(t, blockerCodes(result), "TWO_FACTOR_STALE")

	// Outside LIVE/CANARY the check is skipped entirely.
	input = healthyInput(ModePaper)
	input.TwoFactorVerifiedAt = nil
	result = gate.ComputeLiveReadiness(input)
	assert.Empty(t, result.Blockers)
}

func TestComputeLiveReadiness_ModeScopedDowngrade(t *testing.T) {
	gate := NewGate(DefaultConfig())

	// A dead broker is CRITICAL in live mode but informational in sim.
	input := healthyInput(ModeLive)
	input.BrokerValidated = false
	result := gate.ComputeLiveReadiness(input)
	assert.False(t, result.LiveReady)
	assert.False(t, result.CanaryReady)
	assert.Equal(t, StatusBlocked, result.OverallStatus)

	input = healthyInput(ModeSim)
	input.BrokerValidated = false
	result = gate.ComputeLiveReadiness(input)
	assert.True(t, result.LiveReady)
	assert.True(t, result.CanaryReady)
	assert.Equal(t, StatusWarn, result.OverallStatus)
	require.Len(t, result.Blockers, 1)
	assert.Equal(t, SeverityWarning, result.Blockers[0].Severity)
}

func TestComputeLiveReadiness_MarketDataStaleness(t *testing.T) {
	gate := NewGate(DefaultConfig())

	input := healthyInput(ModeLive)
	stale := testNow.Add(-10 * time.Second)
	input.MarketDataTimestamp = &stale

	result := gate.ComputeLiveReadiness(input)
	assert.False(t, result.CanaryReady)
	assert.Contains(t, blockerCodes(result), "MARKET_DATA_STALE")

	// Staleness lands in the component health entry.
	for _, c := range result.Components {
		if c.Component == "market_data" {
			require.NotNil(t, c.StalenessMs)
			assert.InDelta(t, 10000, *c.StalenessMs, 1)
			assert.Equal(t, ComponentDegraded, c.Status)
		}
	}
}

func TestComputeLiveReadiness_HistoricalDataWarnsOnly(t *testing.T) {
	gate := NewGate(DefaultConfig())

	input := healthyInput(ModeLive)
	input.HistoricalDataAvailable = false

	result := gate.ComputeLiveReadiness(input)
	assert.True(t, result.LiveReady)
	assert.Equal(t, StatusWarn, result.OverallStatus)
	assert.Contains(t, blockerCodes(result), "HISTORICAL_DATA_UNAVAILABLE")
}

func TestComputeLiveReadiness_ErrorBlocksLiveNotCanary(t *testing.T) {
	gate := NewGate(DefaultConfig())

	input := healthyInput(ModeLive)
	input.QueueBacklogDepth = 500

	result := gate.ComputeLiveReadiness(input)
	assert.False(t, result.LiveReady)
	assert.True(t, result.CanaryReady)
	assert.Equal(t, StatusBlocked, result.OverallStatus)
	assert.Contains(t, blockerCodes(result), "QUEUE_BACKLOG")
}

func TestComputeLiveReadiness_FleetChecksNeedLiveBots(t *testing.T) {
	gate := NewGate(DefaultConfig())

	// With live bots a stalled runner blocks live.
	input := healthyInput(ModeLive)
	input.StalledBots = 1
	result := gate.ComputeLiveReadiness(input)
	assert.False(t, result.LiveReady)
	assert.Contains(t, blockerCodes(result), "FLEET_BOTS_STALLED")

	// Without live bots it only warns.
	input.LiveBots = 0
	result = gate.ComputeLiveReadiness(input)
	assert.True(t, result.LiveReady)
	assert.Equal(t, StatusWarn, result.OverallStatus)
}

func TestComputeLiveReadiness_AuditChecks(t *testing.T) {
	gate := NewGate(DefaultConfig())

	input := healthyInput(ModeLive)
	input.LastAuditAt = nil
	assert.Contains(t, blockerCodes(gate.ComputeLiveReadiness(input)), "AUDIT_NEVER_RUN")

	input = healthyInput(ModeLive)
	input.LastAuditPassed = false
	assert.Contains(t, blockerCodes(gate.ComputeLiveReadiness(input)), "AUDIT_FAILED")

	input = healthyInput(ModeLive)
	old := testNow.Add(-7 * time.Hour)
	input.LastAuditAt = &old
	assert.Contains(t, blockerCodes(gate.ComputeLiveReadiness(input)), "AUDIT_STALE")
}

func TestComputeLiveReadiness_RiskEngine(t *testing.T) {
	gate := NewGate(DefaultConfig())

	input := healthyInput(ModeLive)
	input.RiskEngineLoaded = false

	result := gate.ComputeLiveReadiness(input)
	assert.False(t, result.CanaryReady)
	assert.Contains(t, blockerCodes(result), "RISK_ENGINE_NOT_LOADED")
}

func TestShouldBlockLiveExecution(t *testing.T) {
	gate := NewGate(DefaultConfig())

	input := healthyInput(ModeLive)
	input.EmergencyModeActive = true
	input.QueueBacklogDepth = 500 // ERROR ahead of the CRITICAL in blocker order
	blocked := gate.ComputeLiveReadiness(input)

	// Only a live run on a live account is gated.
	assert.False(t, ShouldBlockLiveExecution(blocked, ModePaper, AccountLive).Blocked)
	assert.False(t, ShouldBlockLiveExecution(blocked, ModeLive, AccountPaper).Blocked)

	decision := ShouldBlockLiveExecution(blocked, ModeLive, AccountLive)
	require.True(t, decision.Blocked)
	// The first CRITICAL wins over earlier non-critical blockers.
	assert.Equal(t, "EMERGENCY_MODE_ACTIVE", decision.Code)
	assert.NotEmpty(t, decision.Reason)

	// A ready fleet passes.
	ready := gate.ComputeLiveReadiness(healthyInput(ModeLive))
	assert.False(t, ShouldBlockLiveExecution(ready, ModeLive, AccountLive).Blocked)
}

func TestShouldBlockLiveExecution_FirstBlockerWhenNoCritical(t *testing.T) {
	gate := NewGate(DefaultConfig())

	input := healthyInput(ModeLive)
	input.QueueBacklogDepth = 500
	result := gate.ComputeLiveReadiness(input)

	decision := ShouldBlockLiveExecution(result, ModeLive, AccountLive)
	require.True(t, decision.Blocked)
	assert.Equal(t, "QUEUE_BACKLOG", decision.Code)
}
