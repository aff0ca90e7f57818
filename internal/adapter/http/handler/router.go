package handler

import (
	"checkout-risk-gateway/internal/adapter/http/middleware"
	redisStore "checkout-risk-gateway/internal/adapter/storage/redis"
	"checkout-risk-gateway/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	EvaluationSvc  ports.EvaluationService
	EventRepo      ports.EventRepository
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep, verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	checkoutHandler := NewCheckoutHandler(deps.EvaluationSvc)
	checkout := v1.Group("/checkout")
	{
		checkout.POST("/evaluate", rl("checkout"), checkoutHandler.Evaluate)
	}

	eventHandler := NewEventHandler(deps.EventRepo)
	events := v1.Group("/events")
	{
		events.GET("", rl("events"), eventHandler.ListEvents)
		events.GET("/:id", rl("events"), eventHandler.GetEvent)
	}

	return r
}
