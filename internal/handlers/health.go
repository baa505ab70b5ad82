package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (h *Handler) HealthCheck(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{
		"status":    "ok",
		"message":   "Taskboard is running",
		"timestamp": time.Now().Format(time.RFC3339),
	}

	if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(c) != nil {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
		body["message"] = "Database is unreachable"
	}

	if h.jobs != nil {
		body["jobs"] = h.jobs.GetStatus()
	}

	c.JSON(status, body)
}
