// internal/portfolio/processor.go
package portfolio

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/solscope/dlmm-portfolio/internal/dlmm"
	"github.com/solscope/dlmm-portfolio/internal/pricing"
	"github.com/solscope/dlmm-portfolio/internal/token"
)

const (
	maxAPY = 1000.0

	// Positions without an on-chain creation timestamp are assumed to be
	// a week old for yield extrapolation.
	assumedPositionAge = 7 * 24 * time.Hour
)

// ProcessingError reports that one raw position could not be turned into a
// Position. Batch callers skip the item and keep the error for observability.
type ProcessingError struct {
	PositionID  string
	PoolAddress string
	Err         error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("process position %s (pool %s): %v", e.PositionID, e.PoolAddress, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// FeeEstimator approximates accrued fees for a position. The linear default
// stands in for real fee-accrual accounting, which would read claimed and
// unclaimed fee amounts from the chain.
type FeeEstimator interface {
	EstimateFees(positionValueUSD float64) float64
}

// LinearFeeEstimator models fees as base + rate * value.
type LinearFeeEstimator struct {
	Base float64
	Rate float64
}

// EstimateFees implements FeeEstimator.
func (e LinearFeeEstimator) EstimateFees(positionValueUSD float64) float64 {
	return e.Base + e.Rate*positionValueUSD
}

// DefaultFeeEstimator matches the dashboard's placeholder fee model.
var DefaultFeeEstimator = LinearFeeEstimator{Base: 0.10, Rate: 0.001}

// ProcessorConfig carries Processor dependencies.
type ProcessorConfig struct {
	Prices *pricing.Cache
	Tokens *token.Registry
	Fees   FeeEstimator
	Clock  func() time.Time
	Logger *zap.Logger
}

// Processor derives a valued, risk-classified Position from one raw
// position and its pool context.
type Processor struct {
	prices *pricing.Cache
	tokens *token.Registry
	fees   FeeEstimator
	now    func() time.Time
	logger *zap.Logger
}

// NewProcessor builds a position processor.
func NewProcessor(cfg ProcessorConfig) *Processor {
	if cfg.Fees == nil {
		cfg.Fees = DefaultFeeEstimator
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Processor{
		prices: cfg.Prices,
		tokens: cfg.Tokens,
		fees:   cfg.Fees,
		now:    cfg.Clock,
		logger: cfg.Logger.Named("processor"),
	}
}

// Process values one raw position against its pool context. A nil pool is
// the only hard failure; pricing problems degrade inside the price cache.
func (p *Processor) Process(ctx context.Context, raw dlmm.RawPosition, pool *dlmm.PoolContext) (Position, error) {
	if pool == nil {
		return Position{}, &ProcessingError{
			PositionID:  raw.Address,
			PoolAddress: raw.PoolAddress,
			Err:         fmt.Errorf("pool context not resolved"),
		}
	}

	tokenX := p.tokens.Resolve(pool.TokenXMint)
	tokenY := p.tokens.Resolve(pool.TokenYMint)

	var (
		amountX, amountY float64
		activeBins       int
		minBin, maxBin   int32
		haveBins         bool
	)
	for _, bin := range raw.Bins {
		amountX += bin.TokenXAmount
		amountY += bin.TokenYAmount
		if bin.TokenXAmount > 0 || bin.TokenYAmount > 0 {
			activeBins++
		}
		if !haveBins || bin.BinID < minBin {
			minBin = bin.BinID
		}
		if !haveBins || bin.BinID > maxBin {
			maxBin = bin.BinID
		}
		haveBins = true
	}

	priceX := p.prices.GetPrice(ctx, pool.TokenXMint)
	priceY := p.prices.GetPrice(ctx, pool.TokenYMint)

	currentValue := amountX*priceX + amountY*priceY
	fees := p.fees.EstimateFees(currentValue)
	initialValue := math.Max(0, currentValue-fees)

	pnl := currentValue - initialValue + fees
	pnlPct := 0.0
	if initialValue > 0 {
		pnlPct = pnl / initialValue * 100
	}

	now := p.now()
	createdAt := raw.CreatedAt
	if createdAt == nil {
		t := now.Add(-assumedPositionAge)
		createdAt = &t
	}
	apy := annualizedAPY(fees, initialValue, now.Sub(*createdAt).Hours()/24)

	var lower, upper float64
	if haveBins {
		lower = pool.BinPrice(minBin)
		upper = pool.BinPrice(maxBin + 1)
	}
	current := pool.CurrentPrice()
	inRange := haveBins && lower <= current && current <= upper

	risk := ClassifyRisk(lower, upper, current)

	p.logger.Debug("processed position",
		zap.String("position", raw.Address),
		zap.String("pool", pool.Address),
		zap.Float64("value_usd", currentValue),
		zap.String("risk", string(risk)),
		zap.Bool("in_range", inRange))

	return Position{
		ID:              raw.Address,
		PoolAddress:     pool.Address,
		PairName:        tokenX.Symbol + "-" + tokenY.Symbol,
		TokenXSymbol:    tokenX.Symbol,
		TokenYSymbol:    tokenY.Symbol,
		TokenXAmount:    amountX,
		TokenYAmount:    amountY,
		CurrentValueUSD: currentValue,
		InitialValueUSD: initialValue,
		TotalFeesUSD:    fees,
		PnlUSD:          pnl,
		PnlPercentage:   pnlPct,
		APY:             apy,
		PriceRangeLower: lower,
		PriceRangeUpper: upper,
		CurrentPrice:    current,
		InRange:         inRange,
		RiskLevel:       risk,
		ActiveBins:      activeBins,
		LastUpdated:     now,
		Metadata: PositionMetadata{
			FeeTier:   pool.FeeTier(),
			CreatedAt: createdAt,
		},
	}, nil
}

// annualizedAPY extrapolates realized fees into an annual yield, capped to
// [0, 1000] percent.
func annualizedAPY(feesUSD, initialUSD, days float64) float64 {
	if initialUSD <= 0 || days <= 0 {
		return 0
	}
	dailyReturn := feesUSD / initialUSD / days
	apy := (math.Pow(1+dailyReturn, 365) - 1) * 100
	if math.IsNaN(apy) || math.IsInf(apy, 0) {
		return 0
	}
	return math.Min(maxAPY, math.Max(0, apy))
}

// ClassifyRisk grades a position by range width and distance to the nearer
// range edge. Degenerate inputs (zero or inverted bounds, NaN) grade Medium
// rather than failing.
func ClassifyRisk(lower, upper, current float64) RiskLevel {
	if lower <= 0 || upper <= 0 || upper <= lower ||
		math.IsNaN(lower) || math.IsNaN(upper) || math.IsNaN(current) {
		return RiskMedium
	}

	rangePct := (upper - lower) / lower
	distLower := (current - lower) / lower
	distUpper := (upper - current) / upper
	minDist := math.Min(distLower, distUpper)

	switch {
	case rangePct < 0.05 && minDist < 0.02:
		return RiskHigh
	case rangePct < 0.05 || minDist < 0.05:
		return RiskMedium
	default:
		return RiskLow
	}
}
