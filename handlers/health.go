package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler checks the health status of the service
// @Summary      Health check
// @Description  Reports service status, active session count and whether audit logging is enabled
// @Tags         Health
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "Service health status"
// @Failure      503  {object}  map[string]interface{}  "Session store unavailable"
// @Router       /health [get]
func (h *Handlers) HealthHandler(c *gin.Context) {
	status := gin.H{
		"status":    "healthy",
		"sessions":  0,
		"audit_log": "not_configured",
	}
	if h.audit != nil {
		status["audit_log"] = "enabled"
	}

	count, err := h.sessions.CountSessions()
	if err != nil {
		status["status"] = "degraded"
		status["error"] = "session store unavailable"
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}
	status["sessions"] = count

	c.JSON(http.StatusOK, status)
}
