// internal/api/router.go
package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterConfig carries everything the HTTP surface needs.
type RouterConfig struct {
	Provider       Provider
	MetricsHandler http.Handler
	CORSOrigins    []string
	Logger         *zap.Logger
	Debug          bool
}

// NewRouter assembles the gin engine with the portfolio routes, a health
// probe and the Prometheus scrape endpoint.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	corsCfg := cors.DefaultConfig()
	if len(cfg.CORSOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.CORSOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowMethods = []string{"GET", "OPTIONS"}
	corsCfg.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsCfg))

	handler := NewPortfolioHandler(cfg.Provider, cfg.Logger)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/positions/:wallet", handler.GetPositions)
		v1.GET("/summary/:wallet", handler.GetSummary)
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if cfg.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}

	return router
}
