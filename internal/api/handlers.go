// internal/api/handlers.go
package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/solscope/dlmm-portfolio/internal/portfolio"
)

// Provider is the slice of the portfolio service the handlers need.
type Provider interface {
	GetUserPositions(ctx context.Context, walletAddress string) ([]portfolio.Position, error)
	GetPortfolioSummary(positions []portfolio.Position) portfolio.Summary
}

// PositionsResponse is the wire shape of the positions endpoint.
type PositionsResponse struct {
	Data struct {
		Wallet    string               `json:"wallet"`
		Positions []portfolio.Position `json:"positions"`
		Count     int                  `json:"count"`
	} `json:"data"`
}

// SummaryResponse is the wire shape of the summary endpoint.
type SummaryResponse struct {
	Data struct {
		Wallet  string            `json:"wallet"`
		Summary portfolio.Summary `json:"summary"`
	} `json:"data"`
}

// PortfolioHandler serves the engine's two read operations over HTTP.
type PortfolioHandler struct {
	provider Provider
	logger   *zap.Logger
}

// NewPortfolioHandler builds the handler set.
func NewPortfolioHandler(provider Provider, logger *zap.Logger) *PortfolioHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PortfolioHandler{provider: provider, logger: logger.Named("api")}
}

// GetPositions handles GET /api/v1/positions/:wallet. The only error a
// client can see is a malformed wallet address; everything else is absorbed
// by the engine's fallbacks.
func (h *PortfolioHandler) GetPositions(c *gin.Context) {
	wallet := c.Param("wallet")

	positions, err := h.provider.GetUserPositions(c.Request.Context(), wallet)
	if err != nil {
		h.logger.Debug("rejected positions request", zap.String("wallet", wallet), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var resp PositionsResponse
	resp.Data.Wallet = wallet
	resp.Data.Positions = positions
	resp.Data.Count = len(positions)
	c.JSON(http.StatusOK, resp)
}

// GetSummary handles GET /api/v1/summary/:wallet.
func (h *PortfolioHandler) GetSummary(c *gin.Context) {
	wallet := c.Param("wallet")

	positions, err := h.provider.GetUserPositions(c.Request.Context(), wallet)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var resp SummaryResponse
	resp.Data.Wallet = wallet
	resp.Data.Summary = h.provider.GetPortfolioSummary(positions)
	c.JSON(http.StatusOK, resp)
}
