// internal/dlmm/client.go
package dlmm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// Client is the ledger-side collaborator: it reports a wallet's raw DLMM
// positions and resolves pool metadata.
type Client interface {
	GetPositionsByUser(ctx context.Context, wallet solana.PublicKey) ([]RawPosition, error)
	GetPoolInfo(ctx context.Context, poolAddress string) (*PoolContext, error)
}

// HTTPClient talks to a DLMM indexer REST API.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPClient builds a Client over the indexer at baseURL.
func NewHTTPClient(baseURL string, logger *zap.Logger) *HTTPClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
		logger:  logger.Named("dlmm"),
	}
}

// GetPositionsByUser lists all open positions owned by wallet.
func (c *HTTPClient) GetPositionsByUser(ctx context.Context, wallet solana.PublicKey) ([]RawPosition, error) {
	url := fmt.Sprintf("%s/wallet/%s/positions", c.baseURL, wallet.String())

	var positions []RawPosition
	if err := c.getJSON(ctx, url, &positions); err != nil {
		return nil, fmt.Errorf("get positions for %s: %w", wallet.String(), err)
	}

	c.logger.Debug("fetched wallet positions",
		zap.String("wallet", wallet.String()),
		zap.Int("count", len(positions)))

	return positions, nil
}

// GetPoolInfo resolves pool metadata for a pool address.
func (c *HTTPClient) GetPoolInfo(ctx context.Context, poolAddress string) (*PoolContext, error) {
	if _, err := solana.PublicKeyFromBase58(poolAddress); err != nil {
		return nil, fmt.Errorf("invalid pool address %q: %w", poolAddress, err)
	}

	url := fmt.Sprintf("%s/pair/%s", c.baseURL, poolAddress)

	var pool PoolContext
	if err := c.getJSON(ctx, url, &pool); err != nil {
		return nil, fmt.Errorf("get pool info for %s: %w", poolAddress, err)
	}
	if pool.Address == "" {
		pool.Address = poolAddress
	}

	return &pool, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
