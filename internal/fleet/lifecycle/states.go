package lifecycle

// Domain identifies which state machine a state or event belongs to.
type Domain string

const (
	DomainBot         Domain = "BOT"
	DomainJob         Domain = "JOB"
	DomainRunner      Domain = "RUNNER"
	DomainImprovement Domain = "IMPROVEMENT"
)

// HealthState is the rolling health signal attached to a bot. It gates both
// scoring and allocation: DEGRADED/FROZEN force bucket F and zero weight.
type HealthState string

const (
	HealthOK       HealthState = "OK"
	HealthWarn     HealthState = "WARN"
	HealthDegraded HealthState = "DEGRADED"
	HealthFrozen   HealthState = "FROZEN"
)

// Unhealthy reports whether the health state disqualifies a bot from
// scoring above bucket F and from receiving any capital allocation.
func (h HealthState) Unhealthy() bool {
	return h == HealthDegraded || h == HealthFrozen
}

// BotState is a bot's lifecycle stage. The first five form the promotion
// ladder; the last three are hold states reachable from any tier.
type BotState string

const (
	BotTrials      BotState = "TRIALS"
	BotPaper       BotState = "PAPER"
	BotShadow      BotState = "SHADOW"
	BotCanary      BotState = "CANARY"
	BotLive        BotState = "LIVE"
	BotQuarantined BotState = "QUARANTINED"
	BotFrozen      BotState = "FROZEN"
	BotUserPaused  BotState = "USER_PAUSED"
)

// botTierLadder orders the promotion tiers. Hold states carry tier -1.
var botTierLadder = map[BotState]int{
	BotTrials: 0,
	BotPaper:  1,
	BotShadow: 2,
	BotCanary: 3,
	BotLive:   4,
}

// Tier returns the bot's position on the promotion ladder, or -1 for the
// hold states (QUARANTINED, FROZEN, USER_PAUSED).
func (s BotState) Tier() int {
	if tier, ok := botTierLadder[s]; ok {
		return tier
	}
	return -1
}

// JobState models a queued unit of work dispatched to a bot runner.
type JobState string

const (
	JobQueued       JobState = "QUEUED"
	JobDispatched   JobState = "DISPATCHED"
	JobRunning      JobState = "RUNNING"
	JobCompleted    JobState = "COMPLETED"
	JobFailed       JobState = "FAILED"
	JobDeadLettered JobState = "DEAD_LETTERED"
	JobCancelled    JobState = "CANCELLED"
)

// RunnerState models a supervised bot process with stall detection and a
// circuit breaker that only releases through STOPPED or STARTING.
type RunnerState string

const (
	RunnerStopped      RunnerState = "STOPPED"
	RunnerStarting     RunnerState = "STARTING"
	RunnerRunning      RunnerState = "RUNNING"
	RunnerStalled      RunnerState = "STALLED"
	RunnerRestarting   RunnerState = "RESTARTING"
	RunnerCircuitBreak RunnerState = "CIRCUIT_BREAK"
	RunnerError        RunnerState = "ERROR"
)

// ImprovementState tracks a bot's evolution/backtest pipeline.
type ImprovementState string

const (
	ImproveIdle             ImprovementState = "IDLE"
	ImproveImproving        ImprovementState = "IMPROVING"
	ImproveEvolving         ImprovementState = "EVOLVING"
	ImproveAwaitingBacktest ImprovementState = "AWAITING_BACKTEST"
	ImproveTournament       ImprovementState = "TOURNAMENT"
	ImproveCooldown         ImprovementState = "COOLDOWN"
	ImprovePaused           ImprovementState = "PAUSED"
	ImproveFrozen           ImprovementState = "FROZEN"
	ImproveExhausted        ImprovementState = "EXHAUSTED"
)

// ExecutionMode is the order-routing mode a bot is configured with. It must
// stay consistent with the bot's lifecycle stage (see invariants.go).
type ExecutionMode string

const (
	ModeSim    ExecutionMode = "SIM"
	ModePaper  ExecutionMode = "PAPER"
	ModeShadow ExecutionMode = "SHADOW"
	ModeLive   ExecutionMode = "LIVE"
)
