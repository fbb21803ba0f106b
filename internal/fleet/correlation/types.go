package correlation

import "time"

// Level classifies a pairwise correlation coefficient.
type Level string

const (
	LevelNegative  Level = "NEGATIVE"
	LevelLow       Level = "LOW"
	LevelModerate  Level = "MODERATE"
	LevelHigh      Level = "HIGH"
	LevelDangerous Level = "DANGEROUS"
)

// ClusterRisk tiers a correlation cluster by size and average correlation.
type ClusterRisk string

const (
	ClusterRiskLow      ClusterRisk = "LOW"
	ClusterRiskMedium   ClusterRisk = "MEDIUM"
	ClusterRiskHigh     ClusterRisk = "HIGH"
	ClusterRiskCritical ClusterRisk = "CRITICAL"
)

// PortfolioRiskLevel is the fleet-wide aggregate risk classification.
type PortfolioRiskLevel string

const (
	PortfolioRiskLow      PortfolioRiskLevel = "LOW"
	PortfolioRiskModerate PortfolioRiskLevel = "MODERATE"
	PortfolioRiskHigh     PortfolioRiskLevel = "HIGH"
	PortfolioRiskCritical PortfolioRiskLevel = "CRITICAL"
)

// BotSeries is one bot's aligned daily return series plus its trading
// identity. Returns must be genuine historical per-bot daily P&L returns,
// aligned by day across the fleet by the ReturnSource implementation.
type BotSeries struct {
	BotID     string    `json:"bot_id" yaml:"bot_id"`
	Archetype string    `json:"archetype" yaml:"archetype"`
	Regimes   []string  `json:"regimes" yaml:"regimes"` // market regimes the bot is built for
	Returns   []float64 `json:"returns" yaml:"returns"` // NaN marks a day without data
}

// PairCorrelation is one bot pair's measured correlation with its
// classification and capital-scaling multiplier.
type PairCorrelation struct {
	BotA           string   `json:"bot_a"`
	BotB           string   `json:"bot_b"`
	ArchetypeA     string   `json:"archetype_a"`
	ArchetypeB     string   `json:"archetype_b"`
	Coefficient    float64  `json:"coefficient"`
	Level          Level    `json:"level"`
	SharedExposure []string `json:"shared_exposure"`
	RiskMultiplier float64  `json:"risk_multiplier"`
	SampleSize     int      `json:"sample_size"`
}

// Cluster is a set of mutually correlated bots treated as a single point of
// correlated failure.
type Cluster struct {
	BotIDs         []string    `json:"bot_ids"`
	AvgCorrelation float64     `json:"avg_correlation"`
	Risk           ClusterRisk `json:"risk"`
}

// DiversificationScore is the portfolio-level composite with its four-part
// breakdown and free-text recommendations.
type DiversificationScore struct {
	Score           float64  `json:"score"`
	Grade           string   `json:"grade"`
	ArchetypeScore  float64  `json:"archetype_score"`
	CorrelationPart float64  `json:"correlation_part"`
	ClusterPart     float64  `json:"cluster_part"`
	RegimePart      float64  `json:"regime_part"`
	Recommendations []string `json:"recommendations"`
}

// PortfolioRisk aggregates concentration, peak correlation and cluster
// presence into one fleet-wide level.
type PortfolioRisk struct {
	Level              PortfolioRiskLevel `json:"level"`
	ConcentrationScore float64            `json:"concentration_score"` // 0-100, higher is worse
	MaxCorrelation     float64            `json:"max_correlation"`
	MaxCorrelationRisk float64            `json:"max_correlation_risk"` // 0-100
	CriticalClusters   int                `json:"critical_clusters"`
	HighClusters       int                `json:"high_clusters"`
}

// MatrixResult is the full output of one correlation analysis pass.
type MatrixResult struct {
	BotIDs          []string             `json:"bot_ids"`
	Matrix          [][]float64          `json:"matrix"`
	HighPairs       []PairCorrelation    `json:"high_pairs"`
	Clusters        []Cluster            `json:"clusters"`
	Diversification DiversificationScore `json:"diversification"`
	Risk            PortfolioRisk        `json:"risk"`
	LookbackDays    int                  `json:"lookback_days"`
	ComputedAt      time.Time            `json:"computed_at"`
	FromCache       bool                 `json:"from_cache"`
}
