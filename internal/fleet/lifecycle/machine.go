package lifecycle

import (
	"fmt"
	"sort"
)

// Machine is a closed finite state machine over string states. The allowed
// transition set is an explicit adjacency table validated at construction so
// a misspelled state name fails fast instead of silently producing an
// always-false transition check.
type Machine struct {
	domain Domain
	states map[string]bool
	edges  map[string]map[string]bool
}

// ValidationResult is the outcome of proposing a single transition. A
// rejected transition is a normal return value, never an error: callers must
// check Valid before committing the new state.
type ValidationResult struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// newMachine builds a machine from an adjacency table. It panics on a
// malformed table (unknown state in an edge) because the tables are
// compile-time constants; a bad table is a programming error, not input.
func newMachine(domain Domain, states []string, edges map[string][]string) *Machine {
	m := &Machine{
		domain: domain,
		states: make(map[string]bool, len(states)),
		edges:  make(map[string]map[string]bool, len(states)),
	}
	for _, s := range states {
		m.states[s] = true
		m.edges[s] = make(map[string]bool)
	}
	for from, targets := range edges {
		if !m.states[from] {
			panic(fmt.Sprintf("lifecycle: %s transition table references unknown state %q", domain, from))
		}
		for _, to := range targets {
			if !m.states[to] {
				panic(fmt.Sprintf("lifecycle: %s transition table references unknown state %q", domain, to))
			}
			m.edges[from][to] = true
		}
	}
	return m
}

// Domain returns the machine's domain tag.
func (m *Machine) Domain() Domain { return m.domain }

// Known reports whether the machine recognizes the state at all.
func (m *Machine) Known(state string) bool { return m.states[state] }

// CanTransition reports whether from→to is an allowed edge. Unknown states
// always return false.
func (m *Machine) CanTransition(from, to string) bool {
	targets, ok := m.edges[from]
	return ok && targets[to]
}

// Validate checks a proposed transition and explains a rejection.
func (m *Machine) Validate(from, to string) ValidationResult {
	if !m.states[from] {
		return ValidationResult{Reason: fmt.Sprintf("unknown %s state %q", m.domain, from)}
	}
	if !m.states[to] {
		return ValidationResult{Reason: fmt.Sprintf("unknown %s state %q", m.domain, to)}
	}
	if from == to {
		return ValidationResult{Reason: fmt.Sprintf("%s already in state %q", m.domain, from)}
	}
	if !m.edges[from][to] {
		return ValidationResult{Reason: fmt.Sprintf("%s transition %s→%s is not allowed", m.domain, from, to)}
	}
	return ValidationResult{Valid: true}
}

// Terminal reports whether the state has no outgoing edges.
func (m *Machine) Terminal(state string) bool {
	targets, ok := m.edges[state]
	return ok && len(targets) == 0
}

// TargetsFrom returns the sorted set of states reachable in one transition.
func (m *Machine) TargetsFrom(from string) []string {
	targets := make([]string, 0, len(m.edges[from]))
	for to := range m.edges[from] {
		targets = append(targets, to)
	}
	sort.Strings(targets)
	return targets
}

var botTiers = []BotState{BotTrials, BotPaper, BotShadow, BotCanary, BotLive}

// NewBotMachine builds the bot lifecycle machine. Promotion advances exactly
// one tier; demotion may jump back any number of tiers; the three hold
// states are reachable from every tier and recover into any tier.
func NewBotMachine() *Machine {
	edges := make(map[string][]string)
	holds := []BotState{BotQuarantined, BotFrozen, BotUserPaused}

	for i, tier := range botTiers {
		var targets []string
		if i+1 < len(botTiers) {
			targets = append(targets, string(botTiers[i+1]))
		}
		for j := 0; j < i; j++ {
			targets = append(targets, string(botTiers[j]))
		}
		for _, hold := range holds {
			targets = append(targets, string(hold))
		}
		edges[string(tier)] = targets
	}

	// Hold states recover into any tier. Pause and quarantine can also
	// escalate to a hard freeze.
	allTiers := make([]string, len(botTiers))
	for i, tier := range botTiers {
		allTiers[i] = string(tier)
	}
	edges[string(BotFrozen)] = allTiers
	edges[string(BotUserPaused)] = append(append([]string{}, allTiers...), string(BotFrozen))
	edges[string(BotQuarantined)] = append(append([]string{}, allTiers...), string(BotFrozen))

	states := make([]string, 0, len(botTiers)+len(holds))
	for _, s := range botTiers {
		states = append(states, string(s))
	}
	for _, s := range holds {
		states = append(states, string(s))
	}
	return newMachine(DomainBot, states, edges)
}

// NewJobMachine builds the job queue machine. COMPLETED, DEAD_LETTERED and
// CANCELLED are terminal; FAILED either retries back to QUEUED or escalates
// to DEAD_LETTERED.
func NewJobMachine() *Machine {
	return newMachine(DomainJob,
		[]string{
			string(JobQueued), string(JobDispatched), string(JobRunning),
			string(JobCompleted), string(JobFailed), string(JobDeadLettered),
			string(JobCancelled),
		},
		map[string][]string{
			string(JobQueued):     {string(JobDispatched), string(JobCancelled)},
			string(JobDispatched): {string(JobRunning), string(JobFailed), string(JobCancelled)},
			string(JobRunning):    {string(JobCompleted), string(JobFailed), string(JobCancelled)},
			string(JobFailed):     {string(JobQueued), string(JobDeadLettered)},
		},
	)
}

// NewRunnerMachine builds the supervised-process machine. CIRCUIT_BREAK can
// only be exited via STOPPED or STARTING, i.e. after an external cooldown.
func NewRunnerMachine() *Machine {
	return newMachine(DomainRunner,
		[]string{
			string(RunnerStopped), string(RunnerStarting), string(RunnerRunning),
			string(RunnerStalled), string(RunnerRestarting), string(RunnerCircuitBreak),
			string(RunnerError),
		},
		map[string][]string{
			string(RunnerStopped):      {string(RunnerStarting)},
			string(RunnerStarting):     {string(RunnerRunning), string(RunnerError), string(RunnerStopped)},
			string(RunnerRunning):      {string(RunnerStalled), string(RunnerStopped), string(RunnerError), string(RunnerRestarting)},
			string(RunnerStalled):      {string(RunnerRestarting), string(RunnerCircuitBreak), string(RunnerStopped), string(RunnerError)},
			string(RunnerRestarting):   {string(RunnerStarting), string(RunnerCircuitBreak), string(RunnerError), string(RunnerStopped)},
			string(RunnerCircuitBreak): {string(RunnerStopped), string(RunnerStarting)},
			string(RunnerError):        {string(RunnerRestarting), string(RunnerCircuitBreak), string(RunnerStopped)},
		},
	)
}

// NewImprovementMachine builds the evolution-pipeline machine. PAUSED and
// FROZEN are escape hatches from every non-terminal pipeline state; EXHAUSTED
// only resets back to IDLE.
func NewImprovementMachine() *Machine {
	pipeline := []string{
		string(ImproveIdle), string(ImproveImproving), string(ImproveEvolving),
		string(ImproveAwaitingBacktest), string(ImproveTournament), string(ImproveCooldown),
	}
	edges := map[string][]string{
		string(ImproveIdle):             {string(ImproveImproving)},
		string(ImproveImproving):        {string(ImproveEvolving), string(ImproveIdle)},
		string(ImproveEvolving):         {string(ImproveAwaitingBacktest), string(ImproveExhausted)},
		string(ImproveAwaitingBacktest): {string(ImproveTournament), string(ImproveEvolving)},
		string(ImproveTournament):       {string(ImproveCooldown), string(ImproveExhausted)},
		string(ImproveCooldown):         {string(ImproveIdle), string(ImproveExhausted)},
		string(ImproveExhausted):        {string(ImproveIdle)},
		string(ImprovePaused):           append([]string{}, pipeline...),
		string(ImproveFrozen):           {string(ImproveIdle), string(ImprovePaused)},
	}
	for _, s := range pipeline {
		edges[s] = append(edges[s], string(ImprovePaused), string(ImproveFrozen))
	}

	states := append(append([]string{}, pipeline...),
		string(ImprovePaused), string(ImproveFrozen), string(ImproveExhausted))
	return newMachine(DomainImprovement, states, edges)
}

// Fleet bundles the four machines behind one lookup, the shape the
// governance service and persistence layer consume.
type Fleet struct {
	Bot         *Machine
	Job         *Machine
	Runner      *Machine
	Improvement *Machine
}

// NewFleet constructs all four machines with their canonical tables.
func NewFleet() *Fleet {
	return &Fleet{
		Bot:         NewBotMachine(),
		Job:         NewJobMachine(),
		Runner:      NewRunnerMachine(),
		Improvement: NewImprovementMachine(),
	}
}

// Machine returns the machine for the given domain, or nil if unknown.
func (f *Fleet) Machine(domain Domain) *Machine {
	switch domain {
	case DomainBot:
		return f.Bot
	case DomainJob:
		return f.Job
	case DomainRunner:
		return f.Runner
	case DomainImprovement:
		return f.Improvement
	default:
		return nil
	}
}
