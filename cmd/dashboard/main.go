package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/mint-dashboard-bfa/internal/config"
	"github.com/boddenberg/mint-dashboard-bfa/internal/format"
	"github.com/boddenberg/mint-dashboard-bfa/internal/handler"
	"github.com/boddenberg/mint-dashboard-bfa/internal/identity"
	"github.com/boddenberg/mint-dashboard-bfa/internal/infra/cache"
	"github.com/boddenberg/mint-dashboard-bfa/internal/infra/observability"
	"github.com/boddenberg/mint-dashboard-bfa/internal/infra/preferences"
	"github.com/boddenberg/mint-dashboard-bfa/internal/infra/resilience"
	"github.com/boddenberg/mint-dashboard-bfa/internal/infra/supabase"
	"github.com/boddenberg/mint-dashboard-bfa/internal/port"
	"github.com/boddenberg/mint-dashboard-bfa/internal/service"

	"go.uber.org/zap"
)

const serviceName = "mint-dashboard-bfa"

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel, serviceName)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Bool("supabase_configured", cfg.SupabaseURL != ""),
		zap.Bool("local_jwt_verification", cfg.SupabaseJWTSecret != ""),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("view_cache_ttl", cfg.ViewCacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Float64("rate_limit_rps", cfg.RateLimitRPS),
		zap.String("display_timezone", cfg.DisplayTimezone),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, serviceName)
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	viewCache := cache.New[any](cfg.ViewCacheTTL)
	defer viewCache.Close()

	// --- Resilience ---
	guard := resilience.NewGuard(resilience.NewCircuitBreaker("supabase"), resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	})

	// --- Formatting ---
	formatter := format.New(
		format.WithLocation(cfg.Location()),
		format.WithCurrencySymbol(cfg.CurrencySymbol),
	)

	prefStore := preferences.NewStore()

	// --- Services ---
	svc := handler.Services{}

	if cfg.SupabaseURL != "" {
		logger.Info("using Supabase as data backend",
			zap.String("supabase_url", cfg.SupabaseURL),
		)
		httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
		supabaseClient := supabase.NewClient(
			httpClient,
			cfg.SupabaseURL,
			cfg.SupabaseAnonKey,
			cfg.SupabaseServiceKey,
			guard,
			logger,
		)

		var sessions port.SessionProvider = supabaseClient
		if cfg.SupabaseJWTSecret != "" {
			sessions = identity.NewJWTProvider(cfg.SupabaseJWTSecret)
		}
		resolver := identity.NewResolver(sessions, cfg.IdentityTimeout, logger)

		engine := service.NewEngine(resolver, supabaseClient, prefStore, viewCache, formatter, metrics, logger)
		svc = handler.Services{
			Engine:      engine,
			Drafts:      service.NewDraftService(resolver, supabaseClient, logger),
			Preferences: service.NewPreferenceService(resolver, prefStore, engine),
			Sessions:    resolver,
			Store:       supabaseClient,
		}
	} else {
		logger.Warn("Supabase not configured, view and draft routes unavailable")
	}

	// --- Router ---
	router := handler.NewRouter(svc, metrics, handler.RateLimit{
		RPS:   cfg.RateLimitRPS,
		Burst: cfg.RateLimitBurst,
	}, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
