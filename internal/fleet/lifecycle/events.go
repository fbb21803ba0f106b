package lifecycle

import (
	"time"

	"github.com/google/uuid"
)

// TransitionEvent is the typed record emitted for a committed transition.
// EventName values are stable keys: the dashboard and audit trail both use
// them for lookup, so renaming one is a breaking change.
type TransitionEvent struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Domain    Domain    `json:"domain" db:"domain"`
	EntityID  string    `json:"entity_id" db:"entity_id"`
	FromState string    `json:"from_state" db:"from_state"`
	ToState   string    `json:"to_state" db:"to_state"`
	EventName string    `json:"event_name" db:"event_name"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}

// eventRule maps a transition pattern to an event name. An empty From or To
// matches any state on that side; exact rules win over wildcards.
type eventRule struct {
	From string
	To   string
	Name string
}

// Rule order within each domain is precedence order after specificity:
// exact pairs first, then (*→to), then (from→*).
var eventRules = map[Domain][]eventRule{
	DomainBot: {
		{From: string(BotTrials), To: string(BotPaper), Name: "BOT_PROMOTED_TO_PAPER"},
		{From: string(BotPaper), To: string(BotShadow), Name: "BOT_PROMOTED_TO_SHADOW"},
		{From: string(BotShadow), To: string(BotCanary), Name: "BOT_PROMOTED_TO_CANARY"},
		{From: string(BotCanary), To: string(BotLive), Name: "BOT_PROMOTED_TO_LIVE"},
		{To: string(BotQuarantined), Name: "BOT_QUARANTINED"},
		{To: string(BotFrozen), Name: "BOT_FROZEN"},
		{To: string(BotUserPaused), Name: "BOT_PAUSED_BY_USER"},
		{From: string(BotLive), Name: "BOT_DEMOTED_FROM_LIVE"},
	},
	DomainJob: {
		{From: string(JobFailed), To: string(JobQueued), Name: "JOB_RETRIED"},
		{To: string(JobDeadLettered), Name: "JOB_DEAD_LETTERED"},
		{To: string(JobCompleted), Name: "JOB_COMPLETED"},
		{To: string(JobCancelled), Name: "JOB_CANCELLED"},
		{To: string(JobFailed), Name: "JOB_FAILED"},
	},
	DomainRunner: {
		{From: string(RunnerStalled), To: string(RunnerRestarting), Name: "RUNNER_RESTART_AFTER_STALL"},
		{To: string(RunnerCircuitBreak), Name: "RUNNER_CIRCUIT_OPENED"},
		{From: string(RunnerCircuitBreak), Name: "RUNNER_CIRCUIT_RELEASED"},
		{To: string(RunnerStalled), Name: "RUNNER_STALL_DETECTED"},
		{To: string(RunnerError), Name: "RUNNER_ERRORED"},
	},
	DomainImprovement: {
		{From: string(ImproveTournament), To: string(ImproveCooldown), Name: "IMPROVEMENT_TOURNAMENT_WON"},
		{To: string(ImproveExhausted), Name: "IMPROVEMENT_BUDGET_EXHAUSTED"},
		{To: string(ImproveFrozen), Name: "IMPROVEMENT_FROZEN"},
		{To: string(ImprovePaused), Name: "IMPROVEMENT_PAUSED"},
	},
}

// ResolveEventName maps a (domain, from, to) transition to its event name:
// exact pair first, then a to-side wildcard, then a from-side wildcard, and
// finally the generic <DOMAIN>_STATE_CHANGED default.
func ResolveEventName(domain Domain, from, to string) string {
	rules := eventRules[domain]
	for _, r := range rules {
		if r.From == from && r.To == to {
			return r.Name
		}
	}
	for _, r := range rules {
		if r.From == "" && r.To == to {
			return r.Name
		}
	}
	for _, r := range rules {
		if r.To == "" && r.From == from {
			return r.Name
		}
	}
	return string(domain) + "_STATE_CHANGED"
}

// NewTransitionEvent builds the event record for a transition that has
// already passed Validate. The caller supplies the timestamp so the record
// stays deterministic under test.
func NewTransitionEvent(domain Domain, entityID, from, to string, at time.Time) TransitionEvent {
	return TransitionEvent{
		ID:        uuid.New(),
		Domain:    domain,
		EntityID:  entityID,
		FromState: from,
		ToState:   to,
		EventName: ResolveEventName(domain, from, to),
		Timestamp: at,
	}
}
