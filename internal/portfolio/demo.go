// internal/portfolio/demo.go
package portfolio

import "time"

// Demo position ids, also used by tests and the UI to label sample data.
const (
	DemoPositionSOLUSDC = "mock_pos_1"
	DemoPositionUSDCT   = "mock_pos_2"
	DemoPositionSOLUSDT = "mock_pos_3"
)

// DemoPositions returns the fixed sample portfolio served when a wallet has
// no on-chain positions or the ledger is unreachable. Keeping the dashboard
// populated was an explicit product decision; the records are internally
// consistent (P&L identity, range/risk classification) so every downstream
// metric behaves as it would with real data.
func DemoPositions(now time.Time) []Position {
	created1 := now.Add(-30 * 24 * time.Hour)
	created2 := now.Add(-45 * 24 * time.Hour)
	created3 := now.Add(-14 * 24 * time.Hour)

	return []Position{
		{
			ID:              DemoPositionSOLUSDC,
			PoolAddress:     "5rCf1DM8LjKTw4YqhnoLcngyZYeNnQqztScTogYHAS6",
			PairName:        "SOL-USDC",
			TokenXSymbol:    "SOL",
			TokenYSymbol:    "USDC",
			TokenXAmount:    13.0,
			TokenYAmount:    2715.0,
			CurrentValueUSD: 5250.0,
			InitialValueUSD: 5000.0,
			TotalFeesUSD:    125.0,
			PnlUSD:          375.0,
			PnlPercentage:   7.5,
			APY:             24.6,
			PriceRangeLower: 180.0,
			PriceRangeUpper: 220.0,
			CurrentPrice:    195.0,
			InRange:         true,
			RiskLevel:       RiskLow,
			ActiveBins:      12,
			LastUpdated:     now,
			Metadata:        PositionMetadata{FeeTier: "0.20%", CreatedAt: &created1},
		},
		{
			ID:              DemoPositionUSDCT,
			PoolAddress:     "ARwi1S4DaiTG5DX7S4M4ZsrXqpMD1MrTmbu9ue2tpmEq",
			PairName:        "USDC-USDT",
			TokenXSymbol:    "USDC",
			TokenYSymbol:    "USDT",
			TokenXAmount:    1240.0,
			TokenYAmount:    1240.0,
			CurrentValueUSD: 2480.0,
			InitialValueUSD: 2470.0,
			TotalFeesUSD:    15.0,
			PnlUSD:          25.0,
			PnlPercentage:   25.0 / 2470.0 * 100,
			APY:             8.9,
			PriceRangeLower: 0.94,
			PriceRangeUpper: 1.06,
			CurrentPrice:    1.0,
			InRange:         true,
			RiskLevel:       RiskLow,
			ActiveBins:      6,
			LastUpdated:     now,
			Metadata:        PositionMetadata{FeeTier: "0.01%", CreatedAt: &created2},
		},
		{
			ID:              DemoPositionSOLUSDT,
			PoolAddress:     "9d9mb8kooFfaD3SctgZtkxQypkshx6ezhbKio89ixyy2",
			PairName:        "SOL-USDT",
			TokenXSymbol:    "SOL",
			TokenYSymbol:    "USDT",
			TokenXAmount:    10.0,
			TokenYAmount:    900.0,
			CurrentValueUSD: 2850.0,
			InitialValueUSD: 3000.0,
			TotalFeesUSD:    60.0,
			PnlUSD:          -90.0,
			PnlPercentage:   -3.0,
			APY:             5.8,
			PriceRangeLower: 200.0,
			PriceRangeUpper: 208.0,
			CurrentPrice:    195.0,
			InRange:         false,
			RiskLevel:       RiskHigh,
			ActiveBins:      4,
			LastUpdated:     now,
			Metadata:        PositionMetadata{FeeTier: "0.20%", CreatedAt: &created3},
		},
	}
}
