package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/artwork-critic/internal/http/middleware"
	"github.com/phambaophuc/artwork-critic/internal/models"
	"go.uber.org/zap"
)

func (h *AIHandler) HealthCheck(c *gin.Context) {
	services := map[string]string{
		"inference":  configured(h.gateway != nil),
		"elevenlabs": configured(h.audio != nil),
		"rabbitmq":   "not configured",
	}

	if h.store != nil {
		for name, status := range h.store.HealthCheck(c.Request.Context()) {
			services[name] = status
		}
	} else {
		services["redis"] = "not configured"
		services["supabase"] = "not configured"
	}
	if h.events != nil {
		services["rabbitmq"] = h.events.HealthCheck()
	}

	overall := calculateOverallHealth(services)

	statusCode := http.StatusOK
	if overall == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, models.APIResponse{
		Success: overall == "healthy",
		Data: models.HealthCheck{
			Status:    overall,
			Timestamp: h.now().UTC(),
			Services:  services,
		},
	})
}

func (h *AIHandler) GetStats(c *gin.Context) {
	log := middleware.RequestLogger(c, h.logger)
	stats := map[string]interface{}{
		"timestamp": h.now().UTC(),
	}

	if h.store != nil {
		cacheStats, err := h.store.GetCacheStats(c.Request.Context())
		if err != nil {
			log.Error("Failed to get cache stats", zap.Error(err))
		}
		stats["cache"] = cacheStats
	}
	if h.events != nil {
		queueStats, err := h.events.GetQueueStats()
		if err != nil {
			log.Error("Failed to get queue stats", zap.Error(err))
		}
		stats["queue"] = queueStats
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    stats,
	})
}

func configured(ok bool) string {
	if ok {
		return "healthy"
	}
	return "not configured"
}
