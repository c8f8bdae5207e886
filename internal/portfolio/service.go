// internal/portfolio/service.go
package portfolio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/solscope/dlmm-portfolio/internal/dlmm"
	"github.com/solscope/dlmm-portfolio/internal/metrics"
)

const (
	// Pool metadata (mints, bin step, fee rate) changes rarely, so pool
	// contexts are memoized far longer than prices.
	poolCacheTTL     = 5 * time.Minute
	poolCacheCleanup = 10 * time.Minute
)

// ServiceConfig carries Service dependencies.
type ServiceConfig struct {
	Client     dlmm.Client
	Processor  *Processor
	Aggregator *Aggregator
	Metrics    *metrics.Metrics
	Clock      func() time.Time
	Logger     *zap.Logger
}

// Service is the data access facade the UI layer calls. It fetches raw
// positions, processes them one by one, and collapses every transient
// failure to a defined fallback: availability over correctness-on-error.
type Service struct {
	client     dlmm.Client
	processor  *Processor
	aggregator *Aggregator
	pools      *gocache.Cache
	metrics    *metrics.Metrics
	now        func() time.Time
	logger     *zap.Logger

	mu           sync.Mutex
	lastFailures []error
}

// NewService builds the portfolio service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Service{
		client:     cfg.Client,
		processor:  cfg.Processor,
		aggregator: cfg.Aggregator,
		pools:      gocache.New(poolCacheTTL, poolCacheCleanup),
		metrics:    cfg.Metrics,
		now:        cfg.Clock,
		logger:     cfg.Logger.Named("portfolio"),
	}
}

// GetUserPositions returns the processed positions for a wallet. Ledger
// errors and empty wallets fall open to the demo portfolio; only a
// malformed wallet address returns an error, since that is a caller bug
// rather than a transient condition.
func (s *Service) GetUserPositions(ctx context.Context, walletAddress string) ([]Position, error) {
	wallet, err := solana.PublicKeyFromBase58(walletAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid wallet address %q: %w", walletAddress, err)
	}

	raw, err := s.client.GetPositionsByUser(ctx, wallet)
	if err != nil {
		s.logger.Warn("position fetch failed, serving demo data",
			zap.String("wallet", walletAddress),
			zap.Error(err))
		return DemoPositions(s.now()), nil
	}
	if len(raw) == 0 {
		s.logger.Info("wallet has no positions, serving demo data",
			zap.String("wallet", walletAddress))
		return DemoPositions(s.now()), nil
	}

	// Sequential on purpose: positions in one batch share the price cache,
	// so later items reuse prices fetched by earlier ones.
	positions := make([]Position, 0, len(raw))
	var failures []error
	for _, rp := range raw {
		pool, poolErr := s.poolContext(ctx, rp.PoolAddress)
		if poolErr != nil {
			failures = append(failures, &ProcessingError{
				PositionID:  rp.Address,
				PoolAddress: rp.PoolAddress,
				Err:         poolErr,
			})
			s.metrics.PositionsSkipped.Inc()
			s.logger.Warn("skipping position, pool unresolved",
				zap.String("position", rp.Address),
				zap.String("pool", rp.PoolAddress),
				zap.Error(poolErr))
			continue
		}

		pos, procErr := s.processor.Process(ctx, rp, pool)
		if procErr != nil {
			failures = append(failures, procErr)
			s.metrics.PositionsSkipped.Inc()
			s.logger.Warn("skipping position, processing failed",
				zap.String("position", rp.Address),
				zap.Error(procErr))
			continue
		}

		positions = append(positions, pos)
		s.metrics.PositionsProcessed.Inc()
	}

	s.mu.Lock()
	s.lastFailures = failures
	s.mu.Unlock()

	return positions, nil
}

// GetPortfolioSummary aggregates positions into a summary. Internal
// failures degrade to the zero-value summary inside the aggregator.
func (s *Service) GetPortfolioSummary(positions []Position) Summary {
	return s.aggregator.Summarize(positions)
}

// LastFailures returns the per-item errors collected during the most recent
// GetUserPositions batch.
func (s *Service) LastFailures() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]error, len(s.lastFailures))
	copy(out, s.lastFailures)
	return out
}

func (s *Service) poolContext(ctx context.Context, poolAddress string) (*dlmm.PoolContext, error) {
	if cached, ok := s.pools.Get(poolAddress); ok {
		return cached.(*dlmm.PoolContext), nil
	}

	pool, err := s.client.GetPoolInfo(ctx, poolAddress)
	if err != nil {
		return nil, err
	}

	s.pools.Set(poolAddress, pool, gocache.DefaultExpiration)
	return pool, nil
}
