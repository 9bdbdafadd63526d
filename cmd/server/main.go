package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Skufu/healthtwin/internal/api"
	"github.com/Skufu/healthtwin/internal/assessment"
	"github.com/Skufu/healthtwin/internal/config"
	"github.com/Skufu/healthtwin/internal/genai"
	"github.com/Skufu/healthtwin/internal/history"
	"github.com/Skufu/healthtwin/internal/integrity"
	"github.com/Skufu/healthtwin/internal/logging"
	"github.com/Skufu/healthtwin/internal/metrics"
	"github.com/Skufu/healthtwin/internal/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	gin.SetMode(cfg.GinMode)

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	tp, err := tracing.Init(context.Background(), cfg.Tracing)
	if err != nil {
		logger.Fatal("tracing init failed", zap.Error(err))
	}

	collector := metrics.NewCollector()
	chain := integrity.NewChain()
	store := history.NewMemory()

	generator, err := buildGenerator(cfg, logger)
	if err != nil {
		logger.Fatal("generator init failed", zap.Error(err))
	}
	opts := []assessment.Option{
		assessment.WithDeadline(cfg.Gemini.AnalysisDeadline),
		assessment.WithLogger(logger.Named("assessment")),
		assessment.WithObserver(collector),
	}
	if generator != nil {
		opts = append(opts, assessment.WithGenerator(generator))
	}
	service := assessment.NewService(chain, store, opts...)
	chain.Genesis()
	collector.ChainAppended(chain.Len())

	router := api.NewRouter(api.Deps{
		Service: service,
		Store:   store,
		Chain:   chain,
		Metrics: collector,
		Log:     logger.Named("http"),
	}, api.Options{
		MaxBodyBytes:      cfg.MaxBodyBytes,
		CORSOrigins:       cfg.CORSOrigins,
		TrustedProxies:    cfg.TrustedProxies,
		RateLimitRequests: cfg.RateLimit.Requests,
		RateLimitWindow:   cfg.RateLimit.Window,
		StaticDir:         staticRoot(cfg.StaticDir),
		Development:       cfg.GinMode == gin.DebugMode,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Analyses may wait on the whole generation cascade.
		WriteTimeout: cfg.Gemini.AnalysisDeadline + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	logger.Info("server listening",
		zap.String("port", cfg.Port),
		zap.Bool("ai_enabled", generator != nil),
		zap.Bool("tracing_enabled", cfg.Tracing.Enabled),
	)
	waitForShutdown(server, logger, func(ctx context.Context) error { return tp.Shutdown(ctx) })
}

// buildGenerator returns nil when no usable API key is configured; analyses
// then use the rule-based narrative only.
func buildGenerator(cfg *config.Config, logger *zap.Logger) (genai.Generator, error) {
	if !cfg.AIEnabled() {
		logger.Info("GEMINI_API_KEY not configured, AI narration disabled")
		return nil, nil
	}
	client, err := genai.NewGeminiClient(genai.GeminiConfig{
		APIKey:           cfg.Gemini.APIKey,
		BaseURL:          cfg.Gemini.BaseURL,
		Models:           cfg.Gemini.Models,
		AttemptsPerModel: cfg.Gemini.AttemptsPerModel,
		Backoff:          cfg.Gemini.Backoff,
		RequestTimeout:   cfg.Gemini.RequestTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return genai.NewBreaker(client, cfg.Gemini.BreakerMaxFailures, cfg.Gemini.BreakerCooldown, logger), nil
}

func waitForShutdown(server *http.Server, logger *zap.Logger, cleanups ...func(context.Context) error) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	for _, cleanup := range cleanups {
		if err := cleanup(ctx); err != nil {
			logger.Error("cleanup failed", zap.Error(err))
		}
	}
}

// staticRoot resolves the frontend directory: the configured one, or the
// nearest of the working directory and its two parents. Only a directory
// holding index.html qualifies; otherwise no frontend is served.
func staticRoot(configured string) string {
	var candidates []string
	if configured != "" {
		candidates = []string{configured}
	} else {
		startDir, err := os.Getwd()
		if err != nil {
			return ""
		}
		candidates = []string{
			startDir,
			filepath.Dir(startDir),
			filepath.Dir(filepath.Dir(startDir)),
		}
	}
	for _, dir := range candidates {
		if fileExists(filepath.Join(dir, "index.html")) {
			return dir
		}
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
