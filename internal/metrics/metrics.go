// Package metrics exposes the governance engine's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collectors bundles every governance metric. Construct one per process
// with NewCollectors and pass it by reference; nothing here is global.
type Collectors struct {
	ReadinessEvaluations *prometheus.CounterVec
	BlockersRaised       *prometheus.CounterVec
	PreTradeBlocks       prometheus.Counter
	AllocationRuns       prometheus.Counter
	FleetScore           *prometheus.GaugeVec
	CorrelationRefreshes *prometheus.CounterVec
	TransitionsValidated *prometheus.CounterVec
	InvariantViolations  *prometheus.CounterVec
}

// NewCollectors registers the governance collectors on the given registerer.
// Pass prometheus.DefaultRegisterer in production; a fresh registry in tests.
func NewCollectors(reg prometheus.Registerer) *Collectors {
	factory := promauto.With(reg)
	return &Collectors{
		ReadinessEvaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fleet_readiness_evaluations_total",
			Help: "Readiness gate evaluations by overall status.",
		}, []string{"status"}),
		BlockersRaised: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fleet_readiness_blockers_total",
			Help: "Blockers raised by code and severity.",
		}, []string{"code", "severity"}),
		PreTradeBlocks: factory.NewCounter(prometheus.CounterOpts{
			Name: "fleet_pretrade_blocks_total",
			Help: "Orders rejected by the synchronous pre-trade gate.",
		}),
		AllocationRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "fleet_allocation_runs_total",
			Help: "Capital allocation passes over the fleet.",
		}),
		FleetScore: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fleet_bot_priority_score",
			Help: "Latest bot priority score by bot and bucket.",
		}, []string{"bot_id", "bucket"}),
		CorrelationRefreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fleet_correlation_refreshes_total",
			Help: "Correlation matrix computations by cache outcome.",
		}, []string{"outcome"}),
		TransitionsValidated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fleet_transitions_validated_total",
			Help: "Lifecycle transition validations by domain and verdict.",
		}, []string{"domain", "verdict"}),
		InvariantViolations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fleet_invariant_violations_total",
			Help: "Invariant checker findings by code and severity.",
		}, []string{"code", "severity"}),
	}
}
