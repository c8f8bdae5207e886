package portfolio

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/solscope/dlmm-portfolio/internal/dlmm"
	"github.com/solscope/dlmm-portfolio/internal/pricing"
	"github.com/solscope/dlmm-portfolio/internal/token"
)

const (
	solMint  = "So11111111111111111111111111111111111111112"
	usdcMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

// stubPrices is a pricing.Source with fixed quotes.
type stubPrices map[string]float64

func (s stubPrices) FetchPrice(_ context.Context, tokenID string) (float64, error) {
	if p, ok := s[tokenID]; ok {
		return p, nil
	}
	return 0, errors.New("no quote")
}

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestProcessor(t *testing.T, prices stubPrices) *Processor {
	t.Helper()
	logger := zaptest.NewLogger(t)
	cache := pricing.NewCache(pricing.Config{Source: prices, Logger: logger})
	return NewProcessor(ProcessorConfig{
		Prices: cache,
		Tokens: token.NewRegistry(),
		Clock:  func() time.Time { return testNow },
		Logger: logger,
	})
}

func testPool() *dlmm.PoolContext {
	return &dlmm.PoolContext{
		Address:    "pool_sol_usdc",
		TokenXMint: solMint,
		TokenYMint: usdcMint,
		BinStep:    20,
		FeeBps:     20,
		ActiveBin:  100,
	}
}

func TestProcessor_Process(t *testing.T) {
	proc := newTestProcessor(t, stubPrices{solMint: 195.0, usdcMint: 1.0})
	pool := testPool()

	raw := dlmm.RawPosition{
		Address:     "pos1",
		PoolAddress: pool.Address,
		Bins: []dlmm.BinLiquidity{
			{BinID: 98, TokenXAmount: 1.0},
			{BinID: 99, TokenXAmount: 2.0},
			{BinID: 100, TokenXAmount: 1.0, TokenYAmount: 50.0},
			{BinID: 101, TokenYAmount: 100.0},
			{BinID: 102}, // empty bin holds no liquidity
		},
	}

	pos, err := proc.Process(context.Background(), raw, pool)
	require.NoError(t, err)

	assert.Equal(t, "pos1", pos.ID)
	assert.Equal(t, "SOL-USDC", pos.PairName)
	assert.Equal(t, 4.0, pos.TokenXAmount)
	assert.Equal(t, 150.0, pos.TokenYAmount)
	assert.Equal(t, 4, pos.ActiveBins, "empty bins do not count as active")

	wantValue := 4.0*195.0 + 150.0
	assert.InDelta(t, wantValue, pos.CurrentValueUSD, 1e-9)
	assert.InDelta(t, 0.10+0.001*wantValue, pos.TotalFeesUSD, 1e-9)

	// P&L identity must hold for every processed position.
	assert.InDelta(t, pos.CurrentValueUSD-pos.InitialValueUSD+pos.TotalFeesUSD, pos.PnlUSD, 1e-9)
	assert.InDelta(t, pos.PnlUSD/pos.InitialValueUSD*100, pos.PnlPercentage, 1e-9)

	// Range spans the lower boundary of the lowest bin through the upper
	// boundary of the highest.
	assert.InDelta(t, pool.BinPrice(98), pos.PriceRangeLower, 1e-12)
	assert.InDelta(t, pool.BinPrice(103), pos.PriceRangeUpper, 1e-12)
	assert.InDelta(t, pool.BinPrice(100), pos.CurrentPrice, 1e-12)
	assert.True(t, pos.InRange)

	assert.Equal(t, "0.20%", pos.Metadata.FeeTier)
	require.NotNil(t, pos.Metadata.CreatedAt)
	assert.Equal(t, testNow.Add(-7*24*time.Hour), *pos.Metadata.CreatedAt,
		"missing creation time defaults to a week before processing")
	assert.Equal(t, testNow, pos.LastUpdated)
}

func TestProcessor_Process_NilPool(t *testing.T) {
	proc := newTestProcessor(t, stubPrices{})

	_, err := proc.Process(context.Background(), dlmm.RawPosition{Address: "pos1", PoolAddress: "gone"}, nil)
	require.Error(t, err)

	var procErr *ProcessingError
	require.ErrorAs(t, err, &procErr)
	assert.Equal(t, "pos1", procErr.PositionID)
	assert.Equal(t, "gone", procErr.PoolAddress)
}

func TestProcessor_Process_OracleDownUsesFallbackPrice(t *testing.T) {
	proc := newTestProcessor(t, stubPrices{}) // every quote fails
	pool := testPool()

	raw := dlmm.RawPosition{
		Address:     "pos1",
		PoolAddress: pool.Address,
		Bins:        []dlmm.BinLiquidity{{BinID: 100, TokenXAmount: 3.0, TokenYAmount: 5.0}},
	}

	pos, err := proc.Process(context.Background(), raw, pool)
	require.NoError(t, err, "pricing failures must not fail the position")
	assert.InDelta(t, 8.0, pos.CurrentValueUSD, 1e-9, "both tokens valued at the fallback price")
}

func TestAnnualizedAPY(t *testing.T) {
	tests := []struct {
		name    string
		fees    float64
		initial float64
		days    float64
		want    float64
		delta   float64
	}{
		{name: "zero initial", fees: 10, initial: 0, days: 7, want: 0},
		{name: "negative initial", fees: 10, initial: -5, days: 7, want: 0},
		{name: "zero days", fees: 10, initial: 100, days: 0, want: 0},
		{name: "modest yield", fees: 1, initial: 1000, days: 10, want: ((math.Pow(1.0001, 365) - 1) * 100), delta: 1e-9},
		{name: "capped at 1000", fees: 500, initial: 100, days: 1, want: 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := annualizedAPY(tt.fees, tt.initial, tt.days)
			if tt.delta > 0 {
				assert.InDelta(t, tt.want, got, tt.delta)
			} else {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestClassifyRisk(t *testing.T) {
	tests := []struct {
		name                  string
		lower, upper, current float64
		want                  RiskLevel
	}{
		{name: "wide range centered", lower: 180, upper: 220, current: 195, want: RiskLow},
		{name: "narrow range near edge", lower: 100, upper: 104, current: 101, want: RiskHigh},
		{name: "moderate range near edge", lower: 100, upper: 110, current: 103, want: RiskMedium},
		{name: "wide range near edge", lower: 100, upper: 150, current: 101, want: RiskMedium},
		{name: "below range", lower: 200, upper: 208, current: 195, want: RiskHigh},
		{name: "zero lower bound", lower: 0, upper: 100, current: 50, want: RiskMedium},
		{name: "inverted bounds", lower: 10, upper: 5, current: 7, want: RiskMedium},
		{name: "nan current", lower: 100, upper: 200, current: math.NaN(), want: RiskMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyRisk(tt.lower, tt.upper, tt.current))
		})
	}
}

// Shrinking the range symmetrically toward the current price must never
// decrease risk severity.
func TestClassifyRisk_MonotonicUnderShrinkingRange(t *testing.T) {
	const current = 100.0

	prev := ClassifyRisk(current-50, current+50, current)
	for width := 49.0; width >= 0.5; width -= 0.5 {
		level := ClassifyRisk(current-width, current+width, current)
		assert.GreaterOrEqual(t, level.severity(), prev.severity(),
			"severity regressed at width %f", width)
		prev = level
	}
}

func TestClassifyRisk_Deterministic(t *testing.T) {
	for i := 0; i < 5; i++ {
		assert.Equal(t, RiskHigh, ClassifyRisk(100, 104, 101))
	}
}
