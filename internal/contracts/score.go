package contracts

// Signal is the three-way recommendation bucket derived from the composite
// score and the two gating sub-scores.
type Signal string

const (
	SignalWatch   Signal = "watch"
	SignalObserve Signal = "observe"
	SignalAvoid   Signal = "avoid"
)

// RiskTag classifies realized risk from volatility and drawdown
type RiskTag string

const (
	RiskLow    RiskTag = "low"
	RiskMedium RiskTag = "medium"
	RiskHigh   RiskTag = "high"
)

// ScoreResult is the full evaluation of one candidate. Created once per
// successfully scored candidate per run, never mutated, never persisted.
//
// The four sub-scores and the composite score are on a 0-100 scale.
// Return60d, AnnualVolatility and MaxDrawdown are percentages rounded to two
// decimals for display.
type ScoreResult struct {
	Code             string  `json:"code"`
	Name             string  `json:"name"`
	Score            float64 `json:"score"`
	Signal           Signal  `json:"signal"`
	RiskTag          RiskTag `json:"risk_tag"`
	ValuationScore   float64 `json:"valuation_score"`
	QualityScore     float64 `json:"quality_score"`
	MomentumScore    float64 `json:"momentum_score"`
	VolatilityScore  float64 `json:"volatility_score"`
	Return60d        float64 `json:"return_60d"`
	AnnualVolatility float64 `json:"annual_volatility"`
	MaxDrawdown      float64 `json:"max_drawdown"`
	Explanation      string  `json:"explanation"`
}
