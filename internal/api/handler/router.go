package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"ndx-snapshot-backend/internal/api/middleware"
)

type RouterConfig struct {
	RequestTimeout time.Duration
	RefreshTimeout time.Duration
	RefreshToken   string
	// RefreshLimiter throttles forced refreshes across all callers; nil disables it.
	RefreshLimiter *rate.Limiter
	// Metrics is mounted on /metrics when set.
	Metrics http.Handler
	Logger  *zap.Logger
}

const (
	defaultRequestTimeout = 30 * time.Second
	defaultRefreshTimeout = 2 * time.Minute
)

func NewRouter(hd HandlerItf, cfg RouterConfig) *gin.Engine {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = defaultRefreshTimeout
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Error(cfg.Logger))

	v1 := r.Group("/api/v1")
	reads := v1.Group("", middleware.Timeout(cfg.RequestTimeout))
	{
		reads.GET("/quotes", hd.GetQuotes)
		reads.GET("/quotes/:symbol", hd.GetQuote)
		reads.GET("/treemap", hd.GetTreemap)
		reads.GET("/health", hd.GetHealth)
	}
	v1.POST("/quotes/refresh",
		middleware.RequireRefreshToken(cfg.RefreshToken),
		middleware.RateLimit(cfg.RefreshLimiter),
		middleware.Timeout(cfg.RefreshTimeout),
		hd.PostRefresh)

	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics))
	}
	return r
}
