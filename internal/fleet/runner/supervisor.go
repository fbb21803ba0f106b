// Package runner supervises stalled bot runner processes. Restart attempts
// run through a circuit breaker so a crash-looping runner lands in the
// lifecycle CIRCUIT_BREAK state instead of restarting forever.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/ryanluriea/blaidtrades/internal/fleet/lifecycle"
)

// RestartFunc performs the actual process restart for a bot's runner.
type RestartFunc func(ctx context.Context, botID string) error

// Config bounds the restart behavior.
type Config struct {
	MaxConsecutiveFailures uint32        `yaml:"max_consecutive_failures"` // trips the breaker
	CooldownInterval       time.Duration `yaml:"cooldown_interval"`        // breaker open duration
}

// DefaultConfig returns the production supervision thresholds.
func DefaultConfig() Config {
	return Config{
		MaxConsecutiveFailures: 3,
		CooldownInterval:       5 * time.Minute,
	}
}

// Supervisor drives a bot runner through the Runner FSM when it stalls.
type Supervisor struct {
	machine *lifecycle.Machine
	breaker *gobreaker.CircuitBreaker
	restart RestartFunc
	log     zerolog.Logger
}

// NewSupervisor builds a supervisor around the given restart function.
func NewSupervisor(config Config, restart RestartFunc, logger zerolog.Logger) *Supervisor {
	if config.MaxConsecutiveFailures == 0 {
		config = DefaultConfig()
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "runner-restart",
		Timeout: config.CooldownInterval,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.MaxConsecutiveFailures
		},
	})
	return &Supervisor{
		machine: lifecycle.NewRunnerMachine(),
		breaker: breaker,
		restart: restart,
		log:     logger,
	}
}

// RecoverStalled attempts to restart a stalled runner. It returns the
// runner's resulting state plus the transition events that were committed
// along the way; the caller persists both. The returned error reports the
// restart failure itself, never an invalid-transition condition.
func (s *Supervisor) RecoverStalled(ctx context.Context, botID string) (lifecycle.RunnerState, []lifecycle.TransitionEvent, error) {
	now := time.Now()
	events := []lifecycle.TransitionEvent{
		lifecycle.NewTransitionEvent(lifecycle.DomainRunner, botID,
			string(lifecycle.RunnerStalled), string(lifecycle.RunnerRestarting), now),
	}

	_, err := s.breaker.Execute(func() (interface{}, error) {
		return nil, s.restart(ctx, botID)
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		s.log.Warn().Str("bot_id", botID).Msg("runner restart breaker open; parking runner")
		events = append(events, lifecycle.NewTransitionEvent(lifecycle.DomainRunner, botID,
			string(lifecycle.RunnerRestarting), string(lifecycle.RunnerCircuitBreak), time.Now()))
		return lifecycle.RunnerCircuitBreak, events, nil
	case err != nil:
		s.log.Error().Err(err).Str("bot_id", botID).Msg("runner restart failed")
		events = append(events, lifecycle.NewTransitionEvent(lifecycle.DomainRunner, botID,
			string(lifecycle.RunnerRestarting), string(lifecycle.RunnerError), time.Now()))
		return lifecycle.RunnerError, events, err
	}

	events = append(events, lifecycle.NewTransitionEvent(lifecycle.DomainRunner, botID,
		string(lifecycle.RunnerRestarting), string(lifecycle.RunnerStarting), time.Now()))
	return lifecycle.RunnerStarting, events, nil
}

// Release moves a runner out of CIRCUIT_BREAK once the breaker's cooldown
// has elapsed. Before that it refuses with an error so the hold cannot be
// bypassed.
func (s *Supervisor) Release(botID string) (lifecycle.TransitionEvent, error) {
	if s.breaker.State() == gobreaker.StateOpen {
		return lifecycle.TransitionEvent{}, fmt.Errorf("runner %s is still cooling down", botID)
	}
	res := s.machine.Validate(string(lifecycle.RunnerCircuitBreak), string(lifecycle.RunnerStarting))
	if !res.Valid {
		return lifecycle.TransitionEvent{}, fmt.Errorf("releasing runner %s: %s", botID, res.Reason)
	}
	return lifecycle.NewTransitionEvent(lifecycle.DomainRunner, botID,
		string(lifecycle.RunnerCircuitBreak), string(lifecycle.RunnerStarting), time.Now()), nil
}

// BreakerState exposes the underlying breaker state for dashboards.
func (s *Supervisor) BreakerState() gobreaker.State {
	return s.breaker.State()
}
