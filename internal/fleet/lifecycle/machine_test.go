package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBotMachine_PromotionLadder(t *testing.T) {
	m := NewBotMachine()

	// Forward promotion advances exactly one tier.
	assert.True(t, m.CanTransition(string(BotTrials), string(BotPaper)))
	assert.True(t, m.CanTransition(string(BotPaper), string(BotShadow)))
	assert.True(t, m.CanTransition(string(BotShadow), string(BotCanary)))
	assert.True(t, m.CanTransition(string(BotCanary), string(BotLive)))

	// Tier skips are never valid.
	assert.False(t, m.CanTransition(string(BotTrials), string(BotShadow)))
	assert.False(t, m.CanTransition(string(BotTrials), string(BotLive)))
	assert.False(t, m.CanTransition(string(BotPaper), string(BotCanary)))
	assert.False(t, m.CanTransition(string(BotShadow), string(BotLive)))
}

func TestBotMachine_DemotionSkipsTiers(t *testing.T) {
	m := NewBotMachine()

	assert.True(t, m.CanTransition(string(BotLive), string(BotTrials)))
	assert.True(t, m.CanTransition(string(BotLive), string(BotPaper)))
	assert.True(t, m.CanTransition(string(BotCanary), string(BotTrials)))
	assert.True(t, m.CanTransition(string(BotShadow), string(BotPaper)))
}

func TestBotMachine_HoldStates(t *testing.T) {
	m := NewBotMachine()

	for _, tier := range []BotState{BotTrials, BotPaper, BotShadow, BotCanary, BotLive} {
		assert.True(t, m.CanTransition(string(tier), string(BotFrozen)), "%s should freeze", tier)
		assert.True(t, m.CanTransition(string(tier), string(BotUserPaused)), "%s should pause", tier)
		assert.True(t, m.CanTransition(string(tier), string(BotQuarantined)), "%s should quarantine", tier)
	}

	// Holds recover into any tier.
	for _, hold := range []BotState{BotFrozen, BotUserPaused, BotQuarantined} {
		for _, tier := range []BotState{BotTrials, BotPaper, BotShadow, BotCanary, BotLive} {
			assert.True(t, m.CanTransition(string(hold), string(tier)), "%s should recover to %s", hold, tier)
		}
	}
}

func TestJobMachine_TerminalStates(t *testing.T) {
	m := NewJobMachine()

	for _, terminal := range []JobState{JobCompleted, JobDeadLettered, JobCancelled} {
		assert.True(t, m.Terminal(string(terminal)), "%s should be terminal", terminal)
		assert.Empty(t, m.TargetsFrom(string(terminal)))
	}

	assert.True(t, m.CanTransition(string(JobFailed), string(JobQueued)))
	assert.True(t, m.CanTransition(string(JobFailed), string(JobDeadLettered)))
	assert.False(t, m.CanTransition(string(JobCompleted), string(JobQueued)))
}

func TestRunnerMachine_CircuitBreakExits(t *testing.T) {
	m := NewRunnerMachine()

	assert.Equal(t, []string{string(RunnerStarting), string(RunnerStopped)},
		m.TargetsFrom(string(RunnerCircuitBreak)))

	assert.True(t, m.CanTransition(string(RunnerStalled), string(RunnerCircuitBreak)))
	assert.True(t, m.CanTransition(string(RunnerError), string(RunnerCircuitBreak)))
	assert.False(t, m.CanTransition(string(RunnerCircuitBreak), string(RunnerRunning)))
	assert.False(t, m.CanTransition(string(RunnerCircuitBreak), string(RunnerRestarting)))
}

func TestImprovementMachine_EscapeHatches(t *testing.T) {
	m := NewImprovementMachine()

	pipeline := []ImprovementState{
		ImproveIdle, ImproveImproving, ImproveEvolving,
		ImproveAwaitingBacktest, ImproveTournament, ImproveCooldown,
	}
	for _, s := range pipeline {
		assert.True(t, m.CanTransition(string(s), string(ImprovePaused)), "%s should pause", s)
		assert.True(t, m.CanTransition(string(s), string(ImproveFrozen)), "%s should freeze", s)
	}

	assert.True(t, m.CanTransition(string(ImproveExhausted), string(ImproveIdle)))
	assert.False(t, m.CanTransition(string(ImproveExhausted), string(ImproveImproving)))
}

func TestValidate_RejectionReasons(t *testing.T) {
	m := NewBotMachine()

	res := m.Validate(string(BotTrials), string(BotShadow))
	require.False(t, res.Valid)
	assert.Contains(t, res.Reason, "not allowed")

	res = m.Validate("BOGUS", string(BotPaper))
	require.False(t, res.Valid)
	assert.Contains(t, res.Reason, "unknown")

	res = m.Validate(string(BotPaper), string(BotPaper))
	require.False(t, res.Valid)
	assert.Contains(t, res.Reason, "already")

	res = m.Validate(string(BotLive), string(BotFrozen))
	assert.True(t, res.Valid)
	assert.Empty(t, res.Reason)
}

func TestFleet_DomainLookup(t *testing.T) {
	f := NewFleet()

	require.NotNil(t, f.Machine(DomainBot))
	require.NotNil(t, f.Machine(DomainJob))
	require.NotNil(t, f.Machine(DomainRunner))
	require.NotNil(t, f.Machine(DomainImprovement))
	assert.Nil(t, f.Machine(Domain("OTHER")))

	assert.Equal(t, DomainRunner, f.Runner.Domain())
}
