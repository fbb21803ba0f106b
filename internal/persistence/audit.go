// Package persistence holds the governance engine's storage adapters. The
// schema itself is owned by the dashboard's migration tooling; this package
// only reads and writes the audit tables.
package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/ryanluriea/blaidtrades/internal/fleet/lifecycle"
)

// AuditStore persists lifecycle transition events and invariant findings so
// every governance decision that touched real-money order flow stays
// reviewable.
type AuditStore struct {
	db *sqlx.DB
}

// NewAuditStore wraps an already-connected database handle.
func NewAuditStore(db *sqlx.DB) *AuditStore {
	return &AuditStore{db: db}
}

// OpenAuditStore connects to postgres and pings it.
func OpenAuditStore(ctx context.Context, dsn string) (*AuditStore, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting audit store: %w", err)
	}
	return &AuditStore{db: db}, nil
}

// Close releases the underlying pool.
func (s *AuditStore) Close() error {
	return s.db.Close()
}

// RecordTransition appends one committed transition event.
func (s *AuditStore) RecordTransition(ctx context.Context, ev lifecycle.TransitionEvent) error {
	const q = `
		INSERT INTO fleet_transition_events
			(id, domain, entity_id, from_state, to_state, event_name, timestamp)
		VALUES (:id, :domain, :entity_id, :from_state, :to_state, :event_name, :timestamp)`
	if _, err := s.db.NamedExecContext(ctx, q, ev); err != nil {
		return fmt.Errorf("recording transition event %s: %w", ev.EventName, err)
	}
	return nil
}

// violationRow adds the bot and observation time to the core violation shape.
type violationRow struct {
	lifecycle.InvariantViolation
	BotID      string    `db:"bot_id"`
	ObservedAt time.Time `db:"observed_at"`
}

// RecordViolations appends a batch of invariant findings for one bot. A nil
// or empty batch is a no-op.
func (s *AuditStore) RecordViolations(ctx context.Context, botID string, at time.Time, violations []lifecycle.InvariantViolation) error {
	if len(violations) == 0 {
		return nil
	}
	rows := make([]violationRow, len(violations))
	for i, v := range violations {
		rows[i] = violationRow{InvariantViolation: v, BotID: botID, ObservedAt: at}
	}
	const q = `
		INSERT INTO fleet_invariant_violations
			(bot_id, code, message, severity, auto_fixable, suggested_fix, observed_at)
		VALUES (:bot_id, :code, :message, :severity, :auto_fixable, :suggested_fix, :observed_at)`
	if _, err := s.db.NamedExecContext(ctx, q, rows); err != nil {
		return fmt.Errorf("recording %d invariant violations for bot %s: %w", len(violations), botID, err)
	}
	return nil
}

// RecentTransitions returns the latest transition events for one entity,
// newest first.
func (s *AuditStore) RecentTransitions(ctx context.Context, domain lifecycle.Domain, entityID string, limit int) ([]lifecycle.TransitionEvent, error) {
	const q = `
		SELECT id, domain, entity_id, from_state, to_state, event_name, timestamp
		FROM fleet_transition_events
		WHERE domain = $1 AND entity_id = $2
		ORDER BY timestamp DESC
		LIMIT $3`
	var events []lifecycle.TransitionEvent
	if err := s.db.SelectContext(ctx, &events, q, domain, entityID, limit); err != nil {
		return nil, fmt.Errorf("loading transitions for %s/%s: %w", domain, entityID, err)
	}
	return events, nil
}
