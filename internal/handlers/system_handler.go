package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Health feeds load balancers and the counter's connection badge.
func (h *Handler) Health(c *gin.Context) {
	status := gin.H{"status": "online", "time": h.now().In(h.loc).Format(time.RFC3339)}
	if h.ping == nil {
		c.JSON(http.StatusOK, status)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.ping(ctx); err != nil {
		status["status"] = "degraded"
		status["database"] = err.Error()
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}
	status["database"] = "up"
	c.JSON(http.StatusOK, status)
}
