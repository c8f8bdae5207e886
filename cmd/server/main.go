// ====================================
// File: cmd/server/main.go
// ====================================
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/solscope/dlmm-portfolio/internal/api"
	"github.com/solscope/dlmm-portfolio/internal/config"
	"github.com/solscope/dlmm-portfolio/internal/dlmm"
	"github.com/solscope/dlmm-portfolio/internal/logger"
	"github.com/solscope/dlmm-portfolio/internal/metrics"
	"github.com/solscope/dlmm-portfolio/internal/oracle"
	"github.com/solscope/dlmm-portfolio/internal/portfolio"
	"github.com/solscope/dlmm-portfolio/internal/pricing"
	"github.com/solscope/dlmm-portfolio/internal/refresher"
	"github.com/solscope/dlmm-portfolio/internal/token"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		// Logger is not up yet; write directly and bail.
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(cfg.DebugLogging)
	defer log.Sync()
	log.Info("starting portfolio server",
		zap.String("listen_addr", cfg.ListenAddr),
		zap.String("oracle_url", cfg.OracleURL),
		zap.String("dlmm_api_url", cfg.DLMMAPIURL))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	oracleClient := oracle.NewClient(oracle.Config{
		BaseURL:   cfg.OracleURL,
		Logger:    log,
		Metrics:   m,
		RateLimit: cfg.OracleRateLimit,
		MaxTries:  uint(cfg.Retries),
	})

	priceCache := pricing.NewCache(pricing.Config{
		Source:  oracleClient,
		Logger:  log,
		Metrics: m,
		TTL:     time.Duration(cfg.PriceCacheTTL) * time.Second,
	})

	registry := token.NewRegistry()
	ledger := dlmm.NewHTTPClient(cfg.DLMMAPIURL, log)

	processor := portfolio.NewProcessor(portfolio.ProcessorConfig{
		Prices: priceCache,
		Tokens: registry,
		Logger: log,
	})
	aggregator := portfolio.NewAggregator(time.Now, log)

	service := portfolio.NewService(portfolio.ServiceConfig{
		Client:     ledger,
		Processor:  processor,
		Aggregator: aggregator,
		Metrics:    m,
		Logger:     log,
	})

	if cfg.TrackedWallet != "" {
		r := refresher.New(refresher.Config{
			Provider: service,
			Wallet:   cfg.TrackedWallet,
			Interval: time.Duration(cfg.RefreshInterval) * time.Second,
			Metrics:  m,
			Logger:   log,
		})
		if err := r.Start(ctx); err != nil {
			log.Fatal("failed to start refresh loop", zap.Error(err))
		}
		defer r.Stop()
	}

	router := api.NewRouter(api.RouterConfig{
		Provider:       service,
		MetricsHandler: m.Handler(),
		CORSOrigins:    cfg.CORSOrigins,
		Logger:         log,
		Debug:          cfg.DebugLogging,
	})

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		log.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
	log.Info("server stopped")
}
