package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/yourorg/pretriaged/internal/config"
	"github.com/yourorg/pretriaged/internal/http/handlers"
	"github.com/yourorg/pretriaged/internal/http/middleware"
	"github.com/yourorg/pretriaged/internal/triage"
)

// SetupRouter wires the public HTTP surface: CORS, request id, metrics, and
// centralized error handling, then the health/metrics endpoints and the
// single triage turn endpoint. Everything else (session persistence, PII
// redaction, the triage pipeline itself) lives behind the Orchestrator.
func SetupRouter(cfg *config.Config, orchestrator *triage.Orchestrator) *gin.Engine {
	router := gin.Default()
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		slog.Error("failed to set trusted proxies", "error", err)
	}

	router.Use(middleware.CORS(cfg))
	router.Use(middleware.RequestID())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.ErrorHandler())

	router.GET("/health", handlers.HealthHandler)
	router.GET("/metrics", handlers.MetricsHandler)

	turnRateLimit := middleware.RateLimit(cfg.TurnRateLimit, cfg.RateLimitWindow)
	bodyLimit := middleware.RequestBodyValidator(cfg.MaxFreeTextBytes * 4)

	router.POST("/triage/turn", turnRateLimit, bodyLimit, handlers.TurnHandler(handlers.TriageDeps{
		Orchestrator: orchestrator,
		MaxBodyBytes: cfg.MaxFreeTextBytes * 4,
		TurnDeadline: cfg.TurnDeadline,
	}))

	return router
}
