// internal/refresher/refresher.go
package refresher

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/solscope/dlmm-portfolio/internal/metrics"
	"github.com/solscope/dlmm-portfolio/internal/portfolio"
)

// Provider is the slice of the portfolio service the refresher needs.
type Provider interface {
	GetUserPositions(ctx context.Context, walletAddress string) ([]portfolio.Position, error)
	GetPortfolioSummary(positions []portfolio.Position) portfolio.Summary
}

// Snapshot is one completed refresh cycle for the tracked wallet.
type Snapshot struct {
	Generation  uint64               `json:"generation"`
	Wallet      string               `json:"wallet"`
	Positions   []portfolio.Position `json:"positions"`
	Summary     portfolio.Summary    `json:"summary"`
	RefreshedAt time.Time            `json:"refreshed_at"`
}

// Config carries Refresher dependencies.
type Config struct {
	Provider Provider
	Wallet   string
	Interval time.Duration
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

// Refresher re-reads the tracked wallet on a fixed schedule and keeps the
// latest snapshot. Cycles are numbered: a slow cycle that finishes after a
// newer one has landed is dropped instead of overwriting fresher data.
type Refresher struct {
	provider Provider
	wallet   string
	interval time.Duration
	cron     *cron.Cron
	metrics  *metrics.Metrics
	logger   *zap.Logger

	generation atomic.Uint64

	mu      sync.RWMutex
	current Snapshot
}

// New builds a refresher for one wallet.
func New(cfg Config) *Refresher {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Refresher{
		provider: cfg.Provider,
		wallet:   cfg.Wallet,
		interval: cfg.Interval,
		cron:     cron.New(),
		metrics:  cfg.Metrics,
		logger:   cfg.Logger.Named("refresher"),
	}
}

// Start schedules periodic refreshes and kicks off an immediate first cycle.
func (r *Refresher) Start(ctx context.Context) error {
	spec := fmt.Sprintf("@every %ds", int(r.interval.Seconds()))
	if _, err := r.cron.AddFunc(spec, func() { r.Refresh(ctx) }); err != nil {
		return fmt.Errorf("schedule refresh: %w", err)
	}

	r.cron.Start()
	r.logger.Info("refresh loop started",
		zap.String("wallet", r.wallet),
		zap.Duration("interval", r.interval))

	go r.Refresh(ctx)
	return nil
}

// Stop halts the schedule. In-flight cycles finish on their own.
func (r *Refresher) Stop() {
	r.cron.Stop()
	r.logger.Info("refresh loop stopped")
}

// Refresh runs one on-demand cycle.
func (r *Refresher) Refresh(ctx context.Context) {
	gen := r.generation.Add(1)

	positions, err := r.provider.GetUserPositions(ctx, r.wallet)
	if err != nil {
		r.logger.Error("refresh cycle failed",
			zap.Uint64("generation", gen),
			zap.Error(err))
		return
	}
	summary := r.provider.GetPortfolioSummary(positions)

	r.commit(Snapshot{
		Generation:  gen,
		Wallet:      r.wallet,
		Positions:   positions,
		Summary:     summary,
		RefreshedAt: time.Now(),
	})
}

// commit installs a snapshot unless a newer generation already landed.
func (r *Refresher) commit(snap Snapshot) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if snap.Generation <= r.current.Generation {
		r.metrics.StaleRefreshDrops.Inc()
		r.logger.Warn("dropping stale refresh result",
			zap.Uint64("stale_generation", snap.Generation),
			zap.Uint64("current_generation", r.current.Generation))
		return false
	}

	r.current = snap
	r.metrics.RefreshCycles.Inc()
	r.logger.Debug("snapshot committed",
		zap.Uint64("generation", snap.Generation),
		zap.Int("positions", len(snap.Positions)))
	return true
}

// Current returns the latest committed snapshot. A zero generation means no
// cycle has completed yet.
func (r *Refresher) Current() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}
