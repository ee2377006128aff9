package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourorg/pretriaged/internal/http/middleware"
)

// HealthHandler reports liveness; reference data and the session store are
// both loaded once at startup, so a failure there is fatal before the
// process ever serves traffic and does not need a runtime health check.
func HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "pretriaged",
	})
}

// MetricsHandler returns basic request metrics (count, avg latency) for observability.
func MetricsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.GetMetrics())
}
