// internal/dlmm/types.go
package dlmm

import (
	"fmt"
	"math"
	"time"
)

// BinLiquidity is one discrete price interval of a position and the token
// amounts it currently holds. Amounts are UI amounts (decimal-adjusted).
type BinLiquidity struct {
	BinID        int32   `json:"bin_id"`
	TokenXAmount float64 `json:"token_x_amount"`
	TokenYAmount float64 `json:"token_y_amount"`
}

// RawPosition is a user's liquidity deposit as reported by the chain,
// before any valuation is applied.
type RawPosition struct {
	Address     string         `json:"address"`
	PoolAddress string         `json:"pool_address"`
	Owner       string         `json:"owner"`
	Bins        []BinLiquidity `json:"bins"`
	CreatedAt   *time.Time     `json:"created_at,omitempty"`
}

// PoolContext is the pool-level metadata needed to value a position.
type PoolContext struct {
	Address    string `json:"address"`
	TokenXMint string `json:"token_x_mint"`
	TokenYMint string `json:"token_y_mint"`
	BinStep    uint16 `json:"bin_step"`
	FeeBps     uint16 `json:"fee_bps"`
	ActiveBin  int32  `json:"active_bin"`
}

// BinPrice converts a bin id to the pool's token-Y per token-X price at the
// lower boundary of that bin: price = (1 + binStep/10000)^binID.
func (p *PoolContext) BinPrice(binID int32) float64 {
	return math.Pow(1+float64(p.BinStep)/10000, float64(binID))
}

// CurrentPrice is the price at the pool's active bin.
func (p *PoolContext) CurrentPrice() float64 {
	return p.BinPrice(p.ActiveBin)
}

// FeeTier renders the pool's base fee as a display string, e.g. "0.20%".
func (p *PoolContext) FeeTier() string {
	return fmt.Sprintf("%.2f%%", float64(p.FeeBps)/100)
}
