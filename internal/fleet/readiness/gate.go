package readiness

import (
	"fmt"
	"time"
)

// Config holds the gate's freshness and backlog thresholds.
type Config struct {
	TwoFactorMaxAge        time.Duration `yaml:"two_factor_max_age"`        // 24h
	MarketDataMaxStaleness time.Duration `yaml:"market_data_max_staleness"` // 5s
	AuditMaxAge            time.Duration `yaml:"audit_max_age"`             // 6h
	CacheMaxLatencyMs      float64       `yaml:"cache_max_latency_ms"`
	QueueMaxLatencyMs      float64       `yaml:"queue_max_latency_ms"`
	QueueMaxBacklog        int           `yaml:"queue_max_backlog"`
	QueueMaxAgeSeconds     float64       `yaml:"queue_max_age_seconds"`
}

// DefaultConfig returns the production gate thresholds.
func DefaultConfig() Config {
	return Config{
		TwoFactorMaxAge:        24 * time.Hour,
		MarketDataMaxStaleness: 5 * time.Second,
		AuditMaxAge:            6 * time.Hour,
		CacheMaxLatencyMs:      250,
		QueueMaxLatencyMs:      500,
		QueueMaxBacklog:        100,
		QueueMaxAgeSeconds:     60,
	}
}

// Gate aggregates component health signals into a pass/fail admission
// decision for live and canary execution. It is pure: everything it looks at
// arrives in the Input snapshot.
type Gate struct {
	config Config
}

// NewGate creates a readiness gate; a zero config gets the defaults.
func NewGate(config Config) *Gate {
	if config == (Config{}) {
		config = DefaultConfig()
	}
	return &Gate{config: config}
}

// evaluation accumulates blockers and component health during one pass.
type evaluation struct {
	mode       RunMode
	blockers   []Blocker
	components []ComponentHealth
}

// block appends a blocker. Mode-scoped checks pass scoped=true: outside
// LIVE/CANARY their severity degrades to WARNING so the condition is
// recorded without blocking.
func (e *evaluation) block(scoped bool, b Blocker) {
	if scoped && !e.mode.blocking() && b.Severity != SeverityWarning {
		b.Severity = SeverityWarning
	}
	e.blockers = append(e.blockers, b)
}

func (e *evaluation) component(c ComponentHealth) {
	e.components = append(e.components, c)
}

// ComputeLiveReadiness evaluates every admission check in order and returns
// the structured result. It never fails: an unparseable condition becomes a
// blocker, not an error.
func (g *Gate) ComputeLiveReadiness(input Input) Result {
	e := &evaluation{mode: input.TargetMode}

	// Emergency mode blocks everything, any mode.
	if input.EmergencyModeActive {
		e.block(false, Blocker{
			Code:      "EMERGENCY_MODE_ACTIVE",
			Message:   "emergency mode is active; all execution is halted",
			Severity:  SeverityCritical,
			Component: "emergency",
			CTA:       "clear emergency mode from the operations panel",
		})
		e.component(ComponentHealth{Component: "emergency", Status: ComponentFail})
	} else {
		e.component(ComponentHealth{Component: "emergency", Status: ComponentOK})
	}

	// Mock data in the pipeline blocks everything, any mode.
	if input.MockDataDetected {
		e.block(false, Blocker{
			Code:      "MOCK_DATA_DETECTED",
			Message:   "mock market data detected in the pipeline",
			Severity:  SeverityCritical,
			Component: "market_data",
			CTA:       "purge mock feeds before trading",
		})
	}

	g.checkTwoFactor(input, e)
	g.checkCache(input, e)
	g.checkQueueHealth(input, e)
	g.checkMarketData(input, e)
	g.checkBroker(input, e)
	g.checkBacklog(input, e)
	g.checkAlerts(input, e)
	g.checkAudit(input, e)
	g.checkFleet(input, e)
	g.checkRiskEngine(input, e)

	return finish(e, input.Now)
}

// checkTwoFactor enforces 2FA freshness, but only when the target mode
// routes real orders.
func (g *Gate) checkTwoFactor(input Input, e *evaluation) {
	if !input.TargetMode.blocking() {
		return
	}
	if input.TwoFactorVerifiedAt == nil {
		e.block(false, Blocker{
			Code:      "TWO_FACTOR_MISSING",
			Message:   "no two-factor verification on record",
			Severity:  SeverityCritical,
			Component: "auth",
			CTA:       "complete two-factor verification",
		})
		e.component(ComponentHealth{Component: "auth", Status: ComponentFail})
		return
	}
	age := input.Now.Sub(*input.TwoFactorVerifiedAt)
	if age > g.config.TwoFactorMaxAge {
		e.block(false, Blocker{
			Code:      "TWO_FACTOR_STALE",
			Message:   fmt.Sprintf("two-factor verification is %.0fh old (max %.0fh)", age.Hours(), g.config.TwoFactorMaxAge.Hours()),
			Severity:  SeverityCritical,
			Component: "auth",
			CTA:       "re-verify two-factor authentication",
		})
		e.component(ComponentHealth{Component: "auth", Status: ComponentDegraded})
		return
	}
	e.component(ComponentHealth{Component: "auth", Status: ComponentOK})
}

func (g *Gate) checkCache(input Input, e *evaluation) {
	latency := input.CacheLatencyMs
	health := ComponentHealth{Component: "cache", Status: ComponentOK, LatencyMs: &latency}
	if !input.CacheHealthy {
		health.Status = ComponentFail
		e.block(true, Blocker{
			Code:      "CACHE_UNHEALTHY",
			Message:   "cache subsystem is reporting unhealthy",
			Severity:  SeverityError,
			Component: "cache",
		})
	} else if latency > g.config.CacheMaxLatencyMs {
		health.Status = ComponentDegraded
		e.block(true, Blocker{
			Code:      "CACHE_SLOW",
			Message:   fmt.Sprintf("cache latency %.0fms exceeds %.0fms", latency, g.config.CacheMaxLatencyMs),
			Severity:  SeverityWarning,
			Component: "cache",
		})
	}
	e.component(health)
}

func (g *Gate) checkQueueHealth(input Input, e *evaluation) {
	latency := input.QueueLatencyMs
	health := ComponentHealth{Component: "queue", Status: ComponentOK, LatencyMs: &latency}
	if !input.QueueHealthy {
		health.Status = ComponentFail
		e.block(true, Blocker{
			Code:      "QUEUE_UNHEALTHY",
			Message:   "job queue subsystem is reporting unhealthy",
			Severity:  SeverityError,
			Component: "queue",
		})
	} else if latency > g.config.QueueMaxLatencyMs {
		health.Status = ComponentDegraded
		e.block(true, Blocker{
			Code:      "QUEUE_SLOW",
			Message:   fmt.Sprintf("queue latency %.0fms exceeds %.0fms", latency, g.config.QueueMaxLatencyMs),
			Severity:  SeverityWarning,
			Component: "queue",
		})
	}
	e.component(health)
}

func (g *Gate) checkMarketData(input Input, e *evaluation) {
	health := ComponentHealth{Component: "market_data", Status: ComponentOK}
	switch {
	case !input.LiveMarketDataAvailable:
		health.Status = ComponentFail
		e.block(true, Blocker{
			Code:      "MARKET_DATA_UNAVAILABLE",
			Message:   "live market data feed is unavailable",
			Severity:  SeverityCritical,
			Component: "market_data",
			CTA:       "check market data provider connectivity",
		})
	case input.MarketDataTimestamp == nil:
		health.Status = ComponentUnknown
		e.block(true, Blocker{
			Code:      "MARKET_DATA_NO_TIMESTAMP",
			Message:   "live market data has no freshness timestamp",
			Severity:  SeverityError,
			Component: "market_data",
		})
	default:
		staleness := input.Now.Sub(*input.MarketDataTimestamp)
		ms := float64(staleness.Milliseconds())
		health.StalenessMs = &ms
		if staleness > g.config.MarketDataMaxStaleness {
			health.Status = ComponentDegraded
			e.block(true, Blocker{
				Code:      "MARKET_DATA_STALE",
				Message:   fmt.Sprintf("market data is %.1fs stale (max %.1fs)", staleness.Seconds(), g.config.MarketDataMaxStaleness.Seconds()),
				Severity:  SeverityCritical,
				Component: "market_data",
			})
		}
	}
	e.component(health)

	// Historical data gaps degrade backtests, not order flow: warning only.
	if !input.HistoricalDataAvailable {
		e.block(false, Blocker{
			Code:      "HISTORICAL_DATA_UNAVAILABLE",
			Message:   "historical market data is unavailable",
			Severity:  SeverityWarning,
			Component: "historical_data",
		})
		e.component(ComponentHealth{Component: "historical_data", Status: ComponentDegraded})
	} else {
		e.component(ComponentHealth{Component: "historical_data", Status: ComponentOK})
	}
}

func (g *Gate) checkBroker(input Input, e *evaluation) {
	if !input.BrokerValidated {
		e.block(true, Blocker{
			Code:      "BROKER_NOT_VALIDATED",
			Message:   "broker connection has not passed validation",
			Severity:  SeverityCritical,
			Component: "broker",
			CTA:       "run broker validation",
		})
		e.component(ComponentHealth{Component: "broker", Status: ComponentFail})
		return
	}
	e.component(ComponentHealth{Component: "broker", Status: ComponentOK})
}

func (g *Gate) checkBacklog(input Input, e *evaluation) {
	if input.QueueBacklogDepth > g.config.QueueMaxBacklog {
		e.block(true, Blocker{
			Code:      "QUEUE_BACKLOG",
			Message:   fmt.Sprintf("queue backlog %d exceeds %d", input.QueueBacklogDepth, g.config.QueueMaxBacklog),
			Severity:  SeverityError,
			Component: "queue",
		})
	}
	if input.QueueOldestAgeSeconds > g.config.QueueMaxAgeSeconds {
		e.block(true, Blocker{
			Code:      "QUEUE_JOB_AGED",
			Message:   fmt.Sprintf("oldest queued job is %.0fs old (max %.0fs)", input.QueueOldestAgeSeconds, g.config.QueueMaxAgeSeconds),
			Severity:  SeverityError,
			Component: "queue",
		})
	}
}

func (g *Gate) checkAlerts(input Input, e *evaluation) {
	if input.OpenCriticalAlerts > 0 {
		e.block(true, Blocker{
			Code:      "CRITICAL_ALERTS_OPEN",
			Message:   fmt.Sprintf("%d critical alert(s) outstanding", input.OpenCriticalAlerts),
			Severity:  SeverityCritical,
			Component: "alerts",
			CTA:       "acknowledge or resolve outstanding alerts",
		})
		e.component(ComponentHealth{Component: "alerts", Status: ComponentFail})
		return
	}
	e.component(ComponentHealth{Component: "alerts", Status: ComponentOK})
}

func (g *Gate) checkAudit(input Input, e *evaluation) {
	health := ComponentHealth{Component: "audit", Status: ComponentOK}
	switch {
	case input.LastAuditAt == nil:
		health.Status = ComponentUnknown
		e.block(true, Blocker{
			Code:      "AUDIT_NEVER_RUN",
			Message:   "no governance audit on record",
			Severity:  SeverityError,
			Component: "audit",
			CTA:       "run a fleet audit",
		})
	case !input.LastAuditPassed:
		health.Status = ComponentFail
		e.block(true, Blocker{
			Code:      "AUDIT_FAILED",
			Message:   "last governance audit failed",
			Severity:  SeverityError,
			Component: "audit",
			CTA:       "resolve audit findings and re-run",
		})
	case input.Now.Sub(*input.LastAuditAt) > g.config.AuditMaxAge:
		health.Status = ComponentDegraded
		e.block(true, Blocker{
			Code:      "AUDIT_STALE",
			Message:   fmt.Sprintf("last audit is %.1fh old (max %.1fh)", input.Now.Sub(*input.LastAuditAt).Hours(), g.config.AuditMaxAge.Hours()),
			Severity:  SeverityError,
			Component: "audit",
		})
	}
	e.component(health)
}

// checkFleet flags stalled/degraded bots, blocking only when LIVE bots exist
// to be endangered by them.
func (g *Gate) checkFleet(input Input, e *evaluation) {
	fleetScoped := input.LiveBots > 0
	if input.StalledBots > 0 {
		severity := SeverityWarning
		if fleetScoped {
			severity = SeverityError
		}
		e.block(true, Blocker{
			Code:      "FLEET_BOTS_STALLED",
			Message:   fmt.Sprintf("%d bot runner(s) stalled", input.StalledBots),
			Severity:  severity,
			Component: "fleet",
		})
	}
	if input.DegradedBots > 0 {
		severity := SeverityWarning
		if fleetScoped {
			severity = SeverityError
		}
		e.block(true, Blocker{
			Code:      "FLEET_BOTS_DEGRADED",
			Message:   fmt.Sprintf("%d bot(s) in degraded health", input.DegradedBots),
			Severity:  severity,
			Component: "fleet",
		})
	}
	status := ComponentOK
	if input.StalledBots > 0 || input.DegradedBots > 0 {
		status = ComponentDegraded
	}
	e.component(ComponentHealth{Component: "fleet", Status: status})
}

func (g *Gate) checkRiskEngine(input Input, e *evaluation) {
	if !input.RiskEngineLoaded {
		e.block(true, Blocker{
			Code:      "RISK_ENGINE_NOT_LOADED",
			Message:   "risk engine configuration is not loaded",
			Severity:  SeverityCritical,
			Component: "risk_engine",
			CTA:       "reload the risk engine",
		})
		e.component(ComponentHealth{Component: "risk_engine", Status: ComponentFail})
		return
	}
	e.component(ComponentHealth{Component: "risk_engine", Status: ComponentOK})
}

// finish derives the aggregate verdict from the accumulated blockers.
func finish(e *evaluation, at time.Time) Result {
	var criticals, errors, warnings int
	for _, b := range e.blockers {
		switch b.Severity {
		case SeverityCritical:
			criticals++
		case SeverityError:
			errors++
		case SeverityWarning:
			warnings++
		}
	}

	status := StatusOK
	switch {
	case criticals > 0 || errors > 0:
		status = StatusBlocked
	case warnings > 0:
		status = StatusWarn
	}

	return Result{
		LiveReady:     criticals == 0 && errors == 0,
		CanaryReady:   criticals == 0,
		OverallStatus: status,
		Blockers:      e.blockers,
		Components:    e.components,
		Timestamp:     at,
	}
}

// ShouldBlockLiveExecution is the synchronous pre-trade gate: the last line
// of defense before an order reaches a broker. It only applies to a live run
// on a live account; everything else passes through.
func ShouldBlockLiveExecution(readiness Result, runMode RunMode, accountType AccountType) BlockDecision {
	if runMode != ModeLive || accountType != AccountLive {
		return BlockDecision{}
	}
	if readiness.LiveReady {
		return BlockDecision{}
	}

	// Report the most severe blocker: first CRITICAL, else the first found.
	for _, b := range readiness.Blockers {
		if b.Severity == SeverityCritical {
			return BlockDecision{Blocked: true, Code: b.Code, Reason: b.Message}
		}
	}
	if len(readiness.Blockers) > 0 {
		b := readiness.Blockers[0]
		return BlockDecision{Blocked: true, Code: b.Code, Reason: b.Message}
	}
	return BlockDecision{Blocked: true, Code: "NOT_LIVE_READY", Reason: "live readiness not established"}
}
