package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"checkout-risk-gateway/config"
	"checkout-risk-gateway/internal/adapter/ai"
	"checkout-risk-gateway/internal/adapter/geoip"
	httpHandler "checkout-risk-gateway/internal/adapter/http/handler"
	pgStorage "checkout-risk-gateway/internal/adapter/storage/postgres"
	redisStorage "checkout-risk-gateway/internal/adapter/storage/redis"
	"checkout-risk-gateway/internal/core/ports"
	"checkout-risk-gateway/internal/service"
	"checkout-risk-gateway/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Checkout Risk Gateway")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories and Redis stores
	eventRepo := pgStorage.NewEventRepo(pool)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)
	geoCache := redisStorage.NewGeoCache(rdb)

	// Geolocation providers: primary first, shared cache in front of both
	geoHTTP := &http.Client{Timeout: cfg.Geo.Timeout}
	primary := geoip.NewCachedProvider(geoip.NewIPAPIProvider(cfg.Geo.PrimaryURL, geoHTTP), geoCache, cfg.Geo.CacheTTL, log)
	secondary := geoip.NewCachedProvider(geoip.NewIPWhoisProvider(cfg.Geo.SecondaryURL, geoHTTP), geoCache, cfg.Geo.CacheTTL, log)

	// AI assessor client
	aiClient := ai.NewGeminiClient(cfg.AI, &http.Client{Timeout: cfg.AI.Timeout})

	// Core pipeline services
	locationSvc := service.NewLocationService(log, primary, secondary)
	assessorSvc := service.NewAssessorService(aiClient, log)
	velocityGuard := service.NewVelocityGuard(eventRepo, cfg.Velocity.BurstThreshold, cfg.Velocity.Window(), log)
	evaluationSvc := service.NewEvaluationService(velocityGuard, locationSvc, assessorSvc, eventRepo, log)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		EvaluationSvc:  evaluationSvc,
		EventRepo:      eventRepo,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
