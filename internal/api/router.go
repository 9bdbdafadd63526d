package api

import (
	"context"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Skufu/healthtwin/internal/assessment"
	"github.com/Skufu/healthtwin/internal/integrity"
	"github.com/Skufu/healthtwin/internal/metrics"
)

type Options struct {
	MaxBodyBytes   int64
	CORSOrigins    []string
	TrustedProxies []string
	// RateLimitRequests per client IP in each RateLimitWindow, on the
	// AI-backed routes only.
	RateLimitRequests uint
	RateLimitWindow   time.Duration
	// StaticDir holds index.html and the frontend assets; empty serves none.
	StaticDir   string
	Development bool
}

type Deps struct {
	Service *assessment.Service
	Store   assessment.Store
	Chain   *integrity.Chain
	Metrics *metrics.Collector
	Log     *zap.Logger
	Now     func() time.Time
}

func NewRouter(deps Deps, opts Options) *gin.Engine {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 15 << 20
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	if opts.RateLimitRequests == 0 {
		opts.RateLimitRequests = 20
	}
	if opts.RateLimitWindow <= 0 {
		opts.RateLimitWindow = time.Minute
	}

	router := gin.New()
	if err := router.SetTrustedProxies(opts.TrustedProxies); err != nil {
		deps.Log.Warn("ignoring trusted proxies", zap.Strings("proxies", opts.TrustedProxies), zap.Error(err))
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(
		gin.Recovery(),
		RequestLogger(deps.Log),
	)
	if deps.Metrics != nil {
		router.Use(requestMetrics(deps.Metrics))
	}
	router.Use(
		securityHeaders(opts.Development),
		limitBodySize(opts.MaxBodyBytes),
		cors.New(cors.Config{
			AllowOrigins: opts.CORSOrigins,
			AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
			MaxAge:       12 * time.Hour,
		}),
	)

	if opts.StaticDir != "" {
		router.Static("/static", opts.StaticDir)
		router.StaticFile("/", filepath.Join(opts.StaticDir, "index.html"))
	}

	h := &handler{
		service: deps.Service,
		store:   deps.Store,
		chain:   deps.Chain,
		log:     deps.Log,
		now:     deps.Now,
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/readyz", h.readyz)
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	limiter := rateLimit(opts.RateLimitRequests, opts.RateLimitWindow)

	api := router.Group("/api")
	{
		api.POST("/analyze", limiter, h.analyze)
		api.POST("/chat", limiter, h.chat)

		api.GET("/history", h.listHistory)
		api.POST("/history", h.saveHistory)
		api.GET("/history/:id", h.getHistory)
		api.DELETE("/history", h.deleteHistory)
		api.DELETE("/history/:id", h.deleteHistory)

		api.POST("/report", h.report)
		api.GET("/integrity", h.integrity)
	}

	return router
}

func (h *handler) readyz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	chainStatus := "ok"
	if !h.chain.Verify() {
		chainStatus = "corrupted"
		h.log.Error("integrity chain failed verification", zap.Int("length", h.chain.Len()))
	}

	storeStatus := "ok"
	if _, err := h.store.List(ctx); err != nil {
		storeStatus = "unhealthy: " + err.Error()
	}

	status, code := "ok", http.StatusOK
	if chainStatus != "ok" || storeStatus != "ok" {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":    status,
		"integrity": chainStatus,
		"store":     storeStatus,
		"ai":        h.service.AIEnabled(),
	})
}
