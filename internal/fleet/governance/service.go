// Package governance composes the scoring, allocation, correlation,
// lifecycle and readiness engines into the operations the dashboard backend
// calls. The underlying engines stay pure; this layer owns the side effects:
// audit writes, redis publication, metrics and logging.
package governance

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ryanluriea/blaidtrades/internal/fleet/allocation"
	"github.com/ryanluriea/blaidtrades/internal/fleet/correlation"
	"github.com/ryanluriea/blaidtrades/internal/fleet/lifecycle"
	"github.com/ryanluriea/blaidtrades/internal/fleet/priority"
	"github.com/ryanluriea/blaidtrades/internal/fleet/readiness"
	"github.com/ryanluriea/blaidtrades/internal/metrics"
)

// AuditLog is the slice of the persistence layer the service writes to.
type AuditLog interface {
	RecordTransition(ctx context.Context, ev lifecycle.TransitionEvent) error
	RecordViolations(ctx context.Context, botID string, at time.Time, violations []lifecycle.InvariantViolation) error
}

// ReadinessSink receives every readiness verdict for fan-out to dashboards.
type ReadinessSink interface {
	Publish(ctx context.Context, result readiness.Result) error
}

// Deps wires the service. Audit and Sink may be nil for offline use (the
// CLI); everything else is required.
type Deps struct {
	Scoring   priority.BPSSettings
	Allocator *allocation.Engine
	Monitor   *correlation.Monitor
	Gate      *readiness.Gate
	Audit     AuditLog
	Sink      ReadinessSink
	Metrics   *metrics.Collectors
	Logger    zerolog.Logger
}

// Service is the governance facade.
type Service struct {
	fleet   *lifecycle.Fleet
	scoring priority.BPSSettings
	alloc   *allocation.Engine
	monitor *correlation.Monitor
	gate    *readiness.Gate
	audit   AuditLog
	sink    ReadinessSink
	metrics *metrics.Collectors
	log     zerolog.Logger
}

// NewService builds the facade over an already-constructed dependency set.
func NewService(deps Deps) *Service {
	return &Service{
		fleet:   lifecycle.NewFleet(),
		scoring: deps.Scoring,
		alloc:   deps.Allocator,
		monitor: deps.Monitor,
		gate:    deps.Gate,
		audit:   deps.Audit,
		sink:    deps.Sink,
		metrics: deps.Metrics,
		log:     deps.Logger,
	}
}

// BotSnapshot is one bot's metrics as sampled by the caller.
type BotSnapshot struct {
	BotID  string             `json:"bot_id" yaml:"bot_id"`
	Inputs priority.BPSInputs `json:"inputs" yaml:"inputs"`
}

// BotEvaluation pairs a bot with its full scoring breakdown.
type BotEvaluation struct {
	BotID     string             `json:"bot_id"`
	Breakdown priority.Breakdown `json:"breakdown"`
}

// FleetEvaluation is one scoring-plus-allocation pass over the fleet.
type FleetEvaluation struct {
	Bots        []BotEvaluation               `json:"bots"`
	Allocations []allocation.AllocationResult `json:"allocations"`
	EvaluatedAt time.Time                     `json:"evaluated_at"`
}

// EvaluateFleet scores every bot and distributes the account budget. The
// input order is preserved in both output slices.
func (s *Service) EvaluateFleet(ctx context.Context, bots []BotSnapshot, budget allocation.AccountBudget, capacityUnits int) FleetEvaluation {
	evals := make([]BotEvaluation, len(bots))
	claims := make([]allocation.BotAllocationInput, len(bots))
	for i, bot := range bots {
		bd := priority.ComputeBreakdown(bot.Inputs, s.scoring)
		evals[i] = BotEvaluation{BotID: bot.BotID, Breakdown: bd}
		claims[i] = allocation.BotAllocationInput{
			BotID:  bot.BotID,
			Score:  bd.FinalScore,
			Bucket: bd.Bucket,
			Stage:  bot.Inputs.Stage,
			Health: bot.Inputs.Health,
		}
		s.metrics.FleetScore.WithLabelValues(bot.BotID, string(bd.Bucket)).Set(bd.FinalScore)
	}

	results := s.alloc.ComputeAllocations(claims, budget, capacityUnits)
	s.metrics.AllocationRuns.Inc()
	s.log.Info().Int("bots", len(bots)).Str("account_id", budget.AccountID).
		Msg("fleet evaluation complete")

	return FleetEvaluation{Bots: evals, Allocations: results, EvaluatedAt: time.Now()}
}

// ProposeTransition validates a state change and, when accepted, records the
// transition event in the audit trail. A rejected proposal is a normal
// result; the error return is reserved for unknown domains and audit-write
// failures.
func (s *Service) ProposeTransition(ctx context.Context, domain lifecycle.Domain, entityID, from, to string, at time.Time) (lifecycle.ValidationResult, *lifecycle.TransitionEvent, error) {
	machine := s.fleet.Machine(domain)
	if machine == nil {
		return lifecycle.ValidationResult{}, nil, fmt.Errorf("unknown lifecycle domain %q", domain)
	}

	result := machine.Validate(from, to)
	verdict := "accepted"
	if !result.Valid {
		verdict = "rejected"
	}
	s.metrics.TransitionsValidated.WithLabelValues(string(domain), verdict).Inc()

	if !result.Valid {
		s.log.Warn().Str("domain", string(domain)).Str("entity_id", entityID).
			Str("from", from).Str("to", to).Str("reason", result.Reason).
			Msg("transition rejected")
		return result, nil, nil
	}

	ev := lifecycle.NewTransitionEvent(domain, entityID, from, to, at)
	if s.audit != nil {
		if err := s.audit.RecordTransition(ctx, ev); err != nil {
			return result, nil, fmt.Errorf("auditing transition %s: %w", ev.EventName, err)
		}
	}
	s.log.Info().Str("domain", string(domain)).Str("entity_id", entityID).
		Str("event", ev.EventName).Str("from", from).Str("to", to).
		Msg("transition committed")
	return result, &ev, nil
}

// CheckBotInvariants runs the cross-domain consistency rules over one bot
// and persists any findings.
func (s *Service) CheckBotInvariants(ctx context.Context, botID string, botCtx lifecycle.BotContext, at time.Time) ([]lifecycle.InvariantViolation, error) {
	violations := lifecycle.CheckInvariants(botCtx)
	for _, v := range violations {
		s.metrics.InvariantViolations.WithLabelValues(v.Code, string(v.Severity)).Inc()
		s.log.Warn().Str("bot_id", botID).Str("code", v.Code).
			Str("severity", string(v.Severity)).Bool("auto_fixable", v.AutoFixable).
			Msg(v.Message)
	}
	if s.audit != nil {
		if err := s.audit.RecordViolations(ctx, botID, at, violations); err != nil {
			return violations, fmt.Errorf("auditing violations for bot %s: %w", botID, err)
		}
	}
	return violations, nil
}

// CheckReadiness evaluates the admission gate and publishes the verdict.
// The returned Result is valid even when the publish step fails; the error
// only reports the fan-out problem.
func (s *Service) CheckReadiness(ctx context.Context, input readiness.Input) (readiness.Result, error) {
	result := s.gate.ComputeLiveReadiness(input)

	s.metrics.ReadinessEvaluations.WithLabelValues(string(result.OverallStatus)).Inc()
	for _, b := range result.Blockers {
		s.metrics.BlockersRaised.WithLabelValues(b.Code, string(b.Severity)).Inc()
	}
	s.log.Info().Str("status", string(result.OverallStatus)).
		Bool("live_ready", result.LiveReady).Int("blockers", len(result.Blockers)).
		Msg("readiness evaluated")

	if s.sink != nil {
		if err := s.sink.Publish(ctx, result); err != nil {
			s.log.Warn().Err(err).Msg("readiness publish failed")
			return result, fmt.Errorf("publishing readiness: %w", err)
		}
	}
	return result, nil
}

// AuthorizeOrder is the synchronous pre-trade gate: it re-evaluates
// readiness against the given snapshot and decides whether a real-money
// order may proceed.
func (s *Service) AuthorizeOrder(ctx context.Context, input readiness.Input, runMode readiness.RunMode, accountType readiness.AccountType) readiness.BlockDecision {
	result := s.gate.ComputeLiveReadiness(input)
	decision := readiness.ShouldBlockLiveExecution(result, runMode, accountType)
	if decision.Blocked {
		s.metrics.PreTradeBlocks.Inc()
		s.log.Warn().Str("code", decision.Code).Str("run_mode", string(runMode)).
			Msg("order blocked")
	}
	return decision
}

// RefreshCorrelations runs (or serves from cache) the fleet correlation
// analysis.
func (s *Service) RefreshCorrelations(ctx context.Context, lookbackDays int, force bool) (*correlation.MatrixResult, error) {
	result, err := s.monitor.AnalyzeCorrelations(ctx, lookbackDays, force)
	if err != nil {
		s.metrics.CorrelationRefreshes.WithLabelValues("error").Inc()
		return nil, err
	}
	outcome := "computed"
	if result.FromCache {
		outcome = "cache_hit"
	}
	s.metrics.CorrelationRefreshes.WithLabelValues(outcome).Inc()
	return result, nil
}
