// internal/portfolio/position.go
package portfolio

import "time"

// RiskLevel classifies how close a position sits to the edge of its range.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// severity orders risk levels for comparisons; higher is riskier.
func (r RiskLevel) severity() int {
	switch r {
	case RiskHigh:
		return 2
	case RiskMedium:
		return 1
	default:
		return 0
	}
}

// PositionMetadata carries optional descriptive fields.
type PositionMetadata struct {
	FeeTier   string     `json:"fee_tier,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// Position is a fully-derived snapshot of one liquidity position. It is
// built per fetch cycle and replaced wholesale on the next refresh; nothing
// mutates it afterwards.
type Position struct {
	ID          string `json:"id"`
	PoolAddress string `json:"pool_address"`

	PairName     string  `json:"pair_name"`
	TokenXSymbol string  `json:"token_x_symbol"`
	TokenYSymbol string  `json:"token_y_symbol"`
	TokenXAmount float64 `json:"token_x_amount"`
	TokenYAmount float64 `json:"token_y_amount"`

	CurrentValueUSD float64 `json:"current_value_usd"`
	InitialValueUSD float64 `json:"initial_value_usd"`
	TotalFeesUSD    float64 `json:"total_fees_usd"`
	PnlUSD          float64 `json:"pnl_usd"`
	PnlPercentage   float64 `json:"pnl_percentage"`

	APY float64 `json:"apy"`

	PriceRangeLower float64 `json:"price_range_lower"`
	PriceRangeUpper float64 `json:"price_range_upper"`
	CurrentPrice    float64 `json:"current_price"`
	InRange         bool    `json:"in_range"`

	RiskLevel  RiskLevel `json:"risk_level"`
	ActiveBins int       `json:"active_bins"`

	LastUpdated time.Time        `json:"last_updated"`
	Metadata    PositionMetadata `json:"metadata"`
}

// SummaryMetrics is the derived-metrics block of a portfolio summary.
type SummaryMetrics struct {
	DiversificationScore float64 `json:"diversification_score"`
	AveragePositionSize  float64 `json:"average_position_size"`
	LargestPositionSize  float64 `json:"largest_position_size"`
	VolatilityScore      float64 `json:"volatility_score"`
	UniqueTokens         int     `json:"unique_tokens"`
	PortfolioAgeDays     float64 `json:"portfolio_age_days"`
}

// Summary aggregates a set of positions into portfolio-level analytics.
// It is recomputed on every call and never mutated in place.
type Summary struct {
	TotalValueUSD      float64 `json:"total_value_usd"`
	TotalPnlUSD        float64 `json:"total_pnl_usd"`
	TotalPnlPercentage float64 `json:"total_pnl_percentage"`
	TotalFeesUSD       float64 `json:"total_fees_usd"`

	AverageAPY float64 `json:"average_apy"`

	ActivePositions     int `json:"active_positions"`
	InRangePositions    int `json:"in_range_positions"`
	OutOfRangePositions int `json:"out_of_range_positions"`

	RiskScore int `json:"risk_score"`

	TopPerformer   string `json:"top_performer"`
	WorstPerformer string `json:"worst_performer"`

	Metrics SummaryMetrics `json:"metrics"`
}
