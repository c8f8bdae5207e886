package portfolio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/solscope/dlmm-portfolio/internal/dlmm"
	"github.com/solscope/dlmm-portfolio/internal/pricing"
	"github.com/solscope/dlmm-portfolio/internal/token"
)

const testWallet = "So11111111111111111111111111111111111111112"

// mockLedger scripts the dlmm.Client collaborator.
type mockLedger struct {
	positions    []dlmm.RawPosition
	positionsErr error
	pools        map[string]*dlmm.PoolContext
	poolErr      error
	poolCalls    int
}

func (m *mockLedger) GetPositionsByUser(_ context.Context, _ solana.PublicKey) ([]dlmm.RawPosition, error) {
	return m.positions, m.positionsErr
}

func (m *mockLedger) GetPoolInfo(_ context.Context, poolAddress string) (*dlmm.PoolContext, error) {
	m.poolCalls++
	if m.poolErr != nil {
		return nil, m.poolErr
	}
	pool, ok := m.pools[poolAddress]
	if !ok {
		return nil, errors.New("pool not found")
	}
	return pool, nil
}

func newTestService(t *testing.T, ledger dlmm.Client) *Service {
	t.Helper()
	logger := zaptest.NewLogger(t)
	clock := func() time.Time { return testNow }
	cache := pricing.NewCache(pricing.Config{
		Source: stubPrices{solMint: 195.0, usdcMint: 1.0},
		Logger: logger,
		Clock:  clock,
	})
	return NewService(ServiceConfig{
		Client: ledger,
		Processor: NewProcessor(ProcessorConfig{
			Prices: cache,
			Tokens: token.NewRegistry(),
			Clock:  clock,
			Logger: logger,
		}),
		Aggregator: NewAggregator(clock, logger),
		Clock:      clock,
		Logger:     logger,
	})
}

func TestService_InvalidWalletAddress(t *testing.T) {
	svc := newTestService(t, &mockLedger{})

	_, err := svc.GetUserPositions(context.Background(), "definitely-not-base58!")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid wallet address")
}

func TestService_LedgerErrorServesDemoData(t *testing.T) {
	svc := newTestService(t, &mockLedger{positionsErr: errors.New("rpc unreachable")})

	positions, err := svc.GetUserPositions(context.Background(), testWallet)
	require.NoError(t, err, "transient ledger failures must not surface")
	assertDemoPortfolio(t, positions)
}

func TestService_EmptyWalletServesDemoData(t *testing.T) {
	svc := newTestService(t, &mockLedger{})

	positions, err := svc.GetUserPositions(context.Background(), testWallet)
	require.NoError(t, err)
	assertDemoPortfolio(t, positions)
}

// assertDemoPortfolio checks the documented demonstration portfolio.
func assertDemoPortfolio(t *testing.T, positions []Position) {
	t.Helper()
	require.Len(t, positions, 3)

	p1 := positions[0]
	assert.Equal(t, DemoPositionSOLUSDC, p1.ID)
	assert.Equal(t, "SOL-USDC", p1.PairName)
	assert.Equal(t, 5250.0, p1.CurrentValueUSD)
	assert.Equal(t, 375.0, p1.PnlUSD)
	assert.Equal(t, RiskLow, p1.RiskLevel)
	assert.True(t, p1.InRange)

	p2 := positions[1]
	assert.Equal(t, DemoPositionUSDCT, p2.ID)
	assert.Equal(t, "USDC-USDT", p2.PairName)
	assert.Equal(t, 2480.0, p2.CurrentValueUSD)
	assert.Equal(t, 25.0, p2.PnlUSD)
	assert.Equal(t, RiskLow, p2.RiskLevel)
	assert.True(t, p2.InRange)

	p3 := positions[2]
	assert.Equal(t, DemoPositionSOLUSDT, p3.ID)
	assert.Equal(t, "SOL-USDT", p3.PairName)
	assert.Equal(t, 2850.0, p3.CurrentValueUSD)
	assert.Equal(t, -90.0, p3.PnlUSD)
	assert.Equal(t, RiskHigh, p3.RiskLevel)
	assert.False(t, p3.InRange)

	// Each demo record satisfies the P&L identity and the risk thresholds.
	for _, pos := range positions {
		assert.InDelta(t, pos.CurrentValueUSD-pos.InitialValueUSD+pos.TotalFeesUSD, pos.PnlUSD, 1e-9)
		assert.Equal(t, pos.RiskLevel, ClassifyRisk(pos.PriceRangeLower, pos.PriceRangeUpper, pos.CurrentPrice))
	}
}

func TestService_ProcessingFailureSkipsItem(t *testing.T) {
	pool := testPool()
	ledger := &mockLedger{
		positions: []dlmm.RawPosition{
			{Address: "good", PoolAddress: pool.Address, Bins: []dlmm.BinLiquidity{{BinID: 100, TokenXAmount: 1}}},
			{Address: "bad", PoolAddress: "missing_pool"},
		},
		pools: map[string]*dlmm.PoolContext{pool.Address: pool},
	}
	svc := newTestService(t, ledger)

	positions, err := svc.GetUserPositions(context.Background(), testWallet)
	require.NoError(t, err)
	require.Len(t, positions, 1, "the failing item is skipped, not the batch")
	assert.Equal(t, "good", positions[0].ID)

	failures := svc.LastFailures()
	require.Len(t, failures, 1)
	var procErr *ProcessingError
	require.ErrorAs(t, failures[0], &procErr)
	assert.Equal(t, "bad", procErr.PositionID)
}

func TestService_PoolContextMemoized(t *testing.T) {
	pool := testPool()
	ledger := &mockLedger{
		positions: []dlmm.RawPosition{
			{Address: "p1", PoolAddress: pool.Address, Bins: []dlmm.BinLiquidity{{BinID: 100, TokenXAmount: 1}}},
			{Address: "p2", PoolAddress: pool.Address, Bins: []dlmm.BinLiquidity{{BinID: 101, TokenXAmount: 2}}},
		},
		pools: map[string]*dlmm.PoolContext{pool.Address: pool},
	}
	svc := newTestService(t, ledger)

	positions, err := svc.GetUserPositions(context.Background(), testWallet)
	require.NoError(t, err)
	require.Len(t, positions, 2)
	assert.Equal(t, 1, ledger.poolCalls, "pool info is fetched once per pool per TTL window")
}

func TestService_GetPortfolioSummaryPassThrough(t *testing.T) {
	svc := newTestService(t, &mockLedger{})

	summary := svc.GetPortfolioSummary(DemoPositions(testNow))
	assert.Equal(t, 3, summary.ActivePositions)

	empty := svc.GetPortfolioSummary(nil)
	assert.Equal(t, Summary{}, empty)
}
