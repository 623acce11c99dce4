package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthCheck answers 503 when any registered probe fails.
func (h *Handler) HealthCheck(ctx *gin.Context) {
	body := gin.H{
		"status":    "ok",
		"message":   "Fundtrack is running",
		"timestamp": h.clock.Now().UTC().Format(time.RFC3339),
	}
	code := http.StatusOK

	if h.health != nil {
		report := h.health.Check(ctx.Request.Context())
		body["components"] = report.Components

		if !report.Healthy {
			body["status"] = "degraded"
			code = http.StatusServiceUnavailable
		}
	}

	if h.scheduler != nil {
		body["scheduler"] = h.scheduler.Status()
	}

	ctx.JSON(code, body)
}
