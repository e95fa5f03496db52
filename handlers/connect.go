package handlers

import (
	"errors"
	"net/http"

	"mongochat/logger"
	"mongochat/models"
	"mongochat/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ConnectHandler verifies a MongoDB connection and binds it to the session
// @Summary      Connect to a MongoDB database
// @Description  Verifies the connection string with a ping and stores it in the session. The database name comes from db_name or the URI path.
// @Tags         Connection
// @Accept       json
// @Produce      json
// @Param        request  body      models.ConnectRequest   true  "Connection string and optional database name"
// @Success      200      {object}  models.ConnectResponse  "Connected"
// @Failure      400      {object}  map[string]string       "Invalid connection string or missing database name"
// @Failure      401      {object}  map[string]string       "Authentication failed"
// @Failure      502      {object}  map[string]string       "MongoDB unreachable"
// @Router       /api/connect [post]
func (h *Handlers) ConnectHandler(c *gin.Context) {
	var req models.ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: mongo_uri is required"})
		return
	}

	dbName, err := h.pool.Verify(c.Request.Context(), req.MongoURI, req.DBName)
	if err != nil {
		h.log.Warn("connection attempt failed", zap.String("host", logger.RedactURI(req.MongoURI)), zap.Error(err))
		switch {
		case errors.Is(err, service.ErrInvalidURI):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Configuration error: invalid MongoDB connection string"})
		case errors.Is(err, service.ErrNoDatabase):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Configuration error: specify a database name in the URI or in db_name"})
		case errors.Is(err, service.ErrAuthFailed):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication failed: check username and password"})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": "Could not connect to MongoDB: check the host and that the server is reachable"})
		}
		return
	}

	sess := currentSession(c)
	sess.MongoURI = req.MongoURI
	sess.DBName = dbName
	sess.Indexed = false
	if err := h.saveSession(sess); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save session"})
		return
	}

	h.log.Info("session connected", zap.String("session_id", sess.ID), zap.String("db", dbName))
	c.JSON(http.StatusOK, models.ConnectResponse{
		Success: true,
		Message: "Successfully connected to database " + dbName,
		DBName:  dbName,
	})
}

// DisconnectHandler drops the session
// @Summary      Disconnect
// @Description  Deletes the session, its connection and chat history
// @Tags         Connection
// @Produce      json
// @Success      200  {object}  models.ConnectResponse  "Disconnected"
// @Failure      500  {object}  map[string]string       "Internal server error"
// @Router       /api/disconnect [post]
func (h *Handlers) DisconnectHandler(c *gin.Context) {
	sess := currentSession(c)
	if err := h.sessions.DeleteSession(sess.ID); err != nil {
		h.log.Error("failed to delete session", zap.String("session_id", sess.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete session"})
		return
	}
	h.clearSessionCookie(c)
	c.JSON(http.StatusOK, models.ConnectResponse{Success: true, Message: "Disconnected"})
}
