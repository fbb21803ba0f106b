package lifecycle

import "fmt"

// Severity ranks an invariant violation.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityWarning  Severity = "WARNING"
)

// InvariantViolation is one business-rule breach found in a bot's composite
// context. Violations are returned, never thrown; callers decide whether to
// apply the suggested fix.
type InvariantViolation struct {
	Code         string   `json:"code" db:"code"`
	Message      string   `json:"message" db:"message"`
	Severity     Severity `json:"severity" db:"severity"`
	AutoFixable  bool     `json:"auto_fixable" db:"auto_fixable"`
	SuggestedFix string   `json:"suggested_fix" db:"suggested_fix"`
}

// BotContext is the composite snapshot the invariant checker evaluates. It
// is assembled by the caller from the bot record, its runner, and its
// improvement pipeline; the checker itself reads nothing.
type BotContext struct {
	BotID             string           `json:"bot_id"`
	Stage             BotState         `json:"stage"`
	Mode              ExecutionMode    `json:"mode"`
	TradingEnabled    bool             `json:"trading_enabled"`
	HasRunner         bool             `json:"has_runner"`
	RunnerStatus      RunnerState      `json:"runner_status"`
	Health            HealthState      `json:"health"`
	ImprovementStatus ImprovementState `json:"improvement_status"`
}

// maxModeForStage caps how hot an execution mode each stage may carry.
// TRIALS is simulation only; PAPER/SHADOW allow paper and shadow routing;
// only CANARY and LIVE may route real orders.
var maxModeForStage = map[BotState]map[ExecutionMode]bool{
	BotTrials: {ModeSim: true},
	BotPaper:  {ModeSim: true, ModePaper: true},
	BotShadow: {ModeSim: true, ModePaper: true, ModeShadow: true},
	BotCanary: {ModeSim: true, ModePaper: true, ModeShadow: true, ModeLive: true},
	BotLive:   {ModeSim: true, ModePaper: true, ModeShadow: true, ModeLive: true},
}

// CheckInvariants evaluates the five fleet-governance rules against a bot's
// current context and returns every violation found. An empty slice means
// the bot is internally consistent.
func CheckInvariants(ctx BotContext) []InvariantViolation {
	violations := []InvariantViolation{}

	// Rule 1: a TRIALS-stage bot must never carry a live execution mode.
	if ctx.Stage == BotTrials && ctx.Mode == ModeLive {
		violations = append(violations, InvariantViolation{
			Code:         "TRIALS_LIVE_MODE",
			Message:      fmt.Sprintf("bot %s is in TRIALS but configured with LIVE execution mode", ctx.BotID),
			Severity:     SeverityCritical,
			AutoFixable:  true,
			SuggestedFix: "set execution mode to SIM",
		})
	}

	// Rule 2: any tier at PAPER or above with trading enabled needs a
	// running runner behind it.
	if ctx.Stage.Tier() >= BotPaper.Tier() && ctx.TradingEnabled {
		if !ctx.HasRunner || ctx.RunnerStatus != RunnerRunning {
			violations = append(violations, InvariantViolation{
				Code:         "TRADING_WITHOUT_RUNNER",
				Message:      fmt.Sprintf("bot %s has trading enabled at stage %s without a running runner", ctx.BotID, ctx.Stage),
				Severity:     SeverityCritical,
				AutoFixable:  true,
				SuggestedFix: "disable trading or start the runner",
			})
		}
	}

	// Rule 3: execution mode must be consistent with the stage tier.
	if allowed, known := maxModeForStage[ctx.Stage]; known && !allowed[ctx.Mode] {
		// Rule 1 already covers the TRIALS/LIVE pairing; don't double-report.
		if !(ctx.Stage == BotTrials && ctx.Mode == ModeLive) {
			violations = append(violations, InvariantViolation{
				Code:         "MODE_STAGE_MISMATCH",
				Message:      fmt.Sprintf("bot %s execution mode %s is not permitted at stage %s", ctx.BotID, ctx.Mode, ctx.Stage),
				Severity:     SeverityCritical,
				AutoFixable:  true,
				SuggestedFix: "downgrade execution mode to match the stage tier",
			})
		}
	}

	// Rule 4: DEGRADED health with active trading should be auto-paused.
	if ctx.Health == HealthDegraded && ctx.TradingEnabled {
		violations = append(violations, InvariantViolation{
			Code:         "DEGRADED_ACTIVE_TRADING",
			Message:      fmt.Sprintf("bot %s is DEGRADED but still has trading enabled", ctx.BotID),
			Severity:     SeverityWarning,
			AutoFixable:  true,
			SuggestedFix: "auto-pause trading until health recovers",
		})
	}

	// Rule 5: a paused improvement pipeline outside TRIALS with no runner
	// usually means the bot was abandoned mid-upgrade.
	if ctx.ImprovementStatus == ImprovePaused && ctx.Stage != BotTrials && !ctx.HasRunner {
		violations = append(violations, InvariantViolation{
			Code:         "IMPROVEMENT_PAUSED_NO_RUNNER",
			Message:      fmt.Sprintf("bot %s has a paused improvement pipeline at stage %s with no runner attached", ctx.BotID, ctx.Stage),
			Severity:     SeverityWarning,
			AutoFixable:  false,
			SuggestedFix: "review the bot: resume the pipeline or retire the bot",
		})
	}

	return violations
}
