// internal/oracle/client.go
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/solscope/dlmm-portfolio/internal/metrics"
)

const (
	defaultTimeout     = 10 * time.Second
	defaultRateLimit   = 300 // requests per minute
	defaultMaxTries    = 3
	defaultInitialWait = 200 * time.Millisecond
)

// priceResponse mirrors the oracle's wire format:
// {"data": {"<id>": {"id": "...", "price": <number>}}}
type priceResponse struct {
	Data map[string]priceEntry `json:"data"`
}

type priceEntry struct {
	ID    string  `json:"id"`
	Price float64 `json:"price"`
}

// Config carries the knobs for a Client. Zero values fall back to defaults.
type Config struct {
	BaseURL      string
	Logger       *zap.Logger
	Metrics      *metrics.Metrics
	RateLimit    int // requests per minute
	MaxTries     uint
	HTTPTimeout  time.Duration
	RetryBackoff time.Duration
}

// Client fetches spot USD prices over HTTP. Requests are rate limited and
// retried with exponential backoff; a 4xx status is treated as permanent.
type Client struct {
	baseURL  string
	client   *http.Client
	limiter  *rate.Limiter
	logger   *zap.Logger
	metrics  *metrics.Metrics
	maxTries uint
	initWait time.Duration
}

// NewClient builds a price oracle client.
func NewClient(cfg Config) *Client {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New()
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.MaxTries == 0 {
		cfg.MaxTries = defaultMaxTries
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = defaultTimeout
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = defaultInitialWait
	}

	return &Client{
		baseURL:  cfg.BaseURL,
		client:   &http.Client{Timeout: cfg.HTTPTimeout},
		limiter:  rate.NewLimiter(rate.Limit(float64(cfg.RateLimit)/60.0), 1),
		logger:   cfg.Logger.Named("oracle"),
		metrics:  cfg.Metrics,
		maxTries: cfg.MaxTries,
		initWait: cfg.RetryBackoff,
	}
}

// FetchPrice returns the USD price for one token id. Any failure mode
// (transport error, non-200 status, malformed body, missing id) surfaces as
// an error; the caller decides on fallbacks.
func (c *Client) FetchPrice(ctx context.Context, tokenID string) (float64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate limiter: %w", err)
	}

	reqURL := fmt.Sprintf("%s/price?ids=%s", c.baseURL, url.QueryEscape(tokenID))

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.initWait

	operation := func() (float64, error) {
		return c.fetchOnce(ctx, reqURL, tokenID)
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Debug("retrying oracle request",
			zap.String("token_id", tokenID),
			zap.Duration("backoff", wait),
			zap.Error(err))
	}

	price, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(c.maxTries),
		backoff.WithNotify(notify))
	if err != nil {
		c.metrics.OracleFailures.Inc()
		return 0, fmt.Errorf("fetch price for %s: %w", tokenID, err)
	}

	return price, nil
}

func (c *Client) fetchOnce(ctx context.Context, reqURL, tokenID string) (float64, error) {
	c.metrics.OracleRequests.Inc()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, backoff.Permanent(fmt.Errorf("create request: %w", err))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		statusErr := fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(body))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return 0, backoff.Permanent(statusErr)
		}
		return 0, statusErr
	}

	var parsed priceResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}

	entry, ok := parsed.Data[tokenID]
	if !ok {
		return 0, backoff.Permanent(fmt.Errorf("no price entry for %s", tokenID))
	}
	if entry.Price <= 0 {
		return 0, backoff.Permanent(fmt.Errorf("non-positive price %f for %s", entry.Price, tokenID))
	}

	return entry.Price, nil
}
