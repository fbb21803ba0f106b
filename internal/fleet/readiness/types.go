package readiness

import "time"

// RunMode is the execution context readiness is being evaluated for. Most
// checks only block in LIVE and CANARY; elsewhere they are informational.
type RunMode string

const (
	ModeSim    RunMode = "SIM"
	ModePaper  RunMode = "PAPER"
	ModeShadow RunMode = "SHADOW"
	ModeCanary RunMode = "CANARY"
	ModeLive   RunMode = "LIVE"
)

// blocking reports whether the mode enforces mode-scoped checks.
func (m RunMode) blocking() bool {
	return m == ModeLive || m == ModeCanary
}

// AccountType mirrors the brokerage account classification.
type AccountType string

const (
	AccountSim   AccountType = "SIM"
	AccountPaper AccountType = "PAPER"
	AccountLive  AccountType = "LIVE"
)

// Severity ranks a blocker. CRITICAL blocks canary and live; ERROR blocks
// live only; WARNING never blocks.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityError    Severity = "ERROR"
	SeverityWarning  Severity = "WARNING"
)

// Blocker is one structured reason readiness failed. Code values are stable
// lookup keys for the dashboard's call-to-action rendering.
type Blocker struct {
	Code      string   `json:"code"`
	Message   string   `json:"message"`
	Severity  Severity `json:"severity"`
	Component string   `json:"component"`
	CTA       string   `json:"cta,omitempty"`
}

// ComponentStatus summarizes one subsystem's health.
type ComponentStatus string

const (
	ComponentOK       ComponentStatus = "OK"
	ComponentDegraded ComponentStatus = "DEGRADED"
	ComponentFail     ComponentStatus = "FAIL"
	ComponentUnknown  ComponentStatus = "UNKNOWN"
)

// ComponentHealth is one subsystem's entry in the readiness result.
type ComponentHealth struct {
	Component   string          `json:"component"`
	Status      ComponentStatus `json:"status"`
	LatencyMs   *float64        `json:"latency_ms,omitempty"`
	StalenessMs *float64        `json:"staleness_ms,omitempty"`
}

// OverallStatus is the aggregate readiness verdict.
type OverallStatus string

const (
	StatusOK      OverallStatus = "OK"
	StatusWarn    OverallStatus = "WARN"
	StatusBlocked OverallStatus = "BLOCKED"
)

// Input is one readiness snapshot assembled by the upstream collectors. All
// staleness is computed against Now, never a wall-clock read, so the gate
// stays deterministic and trivially testable.
type Input struct {
	Now        time.Time `json:"now" yaml:"now"`
	TargetMode RunMode   `json:"target_mode" yaml:"target_mode"`

	EmergencyModeActive bool `json:"emergency_mode_active" yaml:"emergency_mode_active"`
	MockDataDetected    bool `json:"mock_data_detected" yaml:"mock_data_detected"`

	TwoFactorVerifiedAt *time.Time `json:"two_factor_verified_at,omitempty" yaml:"two_factor_verified_at,omitempty"`

	CacheHealthy   bool    `json:"cache_healthy" yaml:"cache_healthy"`
	CacheLatencyMs float64 `json:"cache_latency_ms" yaml:"cache_latency_ms"`
	QueueHealthy   bool    `json:"queue_healthy" yaml:"queue_healthy"`
	QueueLatencyMs float64 `json:"queue_latency_ms" yaml:"queue_latency_ms"`

	LiveMarketDataAvailable bool       `json:"live_market_data_available" yaml:"live_market_data_available"`
	MarketDataTimestamp     *time.Time `json:"market_data_timestamp,omitempty" yaml:"market_data_timestamp,omitempty"`
	HistoricalDataAvailable bool       `json:"historical_data_available" yaml:"historical_data_available"`

	BrokerValidated bool `json:"broker_validated" yaml:"broker_validated"`

	QueueBacklogDepth     int     `json:"queue_backlog_depth" yaml:"queue_backlog_depth"`
	QueueOldestAgeSeconds float64 `json:"queue_oldest_age_seconds" yaml:"queue_oldest_age_seconds"`

	OpenCriticalAlerts int `json:"open_critical_alerts" yaml:"open_critical_alerts"`

	LastAuditPassed bool       `json:"last_audit_passed" yaml:"last_audit_passed"`
	LastAuditAt     *time.Time `json:"last_audit_at,omitempty" yaml:"last_audit_at,omitempty"`

	LiveBots     int `json:"live_bots" yaml:"live_bots"`
	StalledBots  int `json:"stalled_bots" yaml:"stalled_bots"`
	DegradedBots int `json:"degraded_bots" yaml:"degraded_bots"`

	RiskEngineLoaded bool `json:"risk_engine_loaded" yaml:"risk_engine_loaded"`
}

// Result is the aggregate admission decision for live and canary execution.
type Result struct {
	LiveReady     bool              `json:"live_ready"`
	CanaryReady   bool              `json:"canary_ready"`
	OverallStatus OverallStatus     `json:"overall_status"`
	Blockers      []Blocker         `json:"blockers"`
	Components    []ComponentHealth `json:"components"`
	Timestamp     time.Time         `json:"timestamp"`
}

// BlockDecision is the synchronous pre-trade gate verdict.
type BlockDecision struct {
	Blocked bool   `json:"blocked"`
	Code    string `json:"code,omitempty"`
	Reason  string `json:"reason,omitempty"`
}
