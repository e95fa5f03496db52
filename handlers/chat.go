package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"mongochat/chat"
	"mongochat/models"
	"mongochat/validation"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ChatHandler answers a question about the connected database
// @Summary      Ask a question
// @Description  Runs one chat turn. The model may run a read-only query (find, count, aggregate, distinct) and answer from its result.
// @Tags         Chat
// @Accept       json
// @Produce      json
// @Param        request  body      models.ChatRequest   true  "User question"
// @Success      200      {object}  models.ChatResponse  "Assistant answer"
// @Failure      400      {object}  map[string]string    "Invalid request"
// @Failure      409      {object}  map[string]string    "Not connected to a database"
// @Failure      502      {object}  map[string]string    "MongoDB or the language model is unreachable"
// @Failure      500      {object}  map[string]string    "Internal server error"
// @Router       /api/chat [post]
func (h *Handlers) ChatHandler(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: query is required"})
		return
	}
	if err := validation.ValidateQuery(req.Query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query: " + err.Error()})
		return
	}

	sess := currentSession(c)
	if !sess.Connected() {
		c.JSON(http.StatusConflict, gin.H{"error": "Not connected: POST /api/connect first"})
		return
	}

	resp, err := h.chat.Chat(c.Request.Context(), sess, req.Query, c.ClientIP())
	if err != nil {
		h.log.Error("chat turn failed", zap.String("session_id", sess.ID), zap.Error(err))
		switch {
		case errors.Is(err, chat.ErrDatabaseUnavailable):
			c.JSON(http.StatusBadGateway, gin.H{"error": "Could not reach the database: " + err.Error()})
		case errors.Is(err, chat.ErrModelUnavailable):
			c.JSON(http.StatusBadGateway, gin.H{"error": "The language model is unavailable: " + err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process query"})
		}
		return
	}

	// the turn already happened; a failed save only loses history
	if err := h.saveSession(sess); err != nil {
		resp.Warnings = append(resp.Warnings, "Chat history could not be saved.")
	}
	c.JSON(http.StatusOK, resp)
}

// ChatHistoryHandler returns the session conversation
// @Summary      Get chat history
// @Tags         Chat
// @Produce      json
// @Success      200  {object}  models.HistoryResponse  "Chat turns, oldest first"
// @Router       /api/chat/history [get]
func (h *Handlers) ChatHistoryHandler(c *gin.Context) {
	sess := currentSession(c)
	history := sess.History
	if history == nil {
		history = []models.ChatTurn{}
	}
	c.JSON(http.StatusOK, models.HistoryResponse{DBName: sess.DBName, History: history})
}

// ClearChatHistoryHandler empties the session conversation
// @Summary      Clear chat history
// @Tags         Chat
// @Produce      json
// @Success      200  {object}  models.HistoryResponse  "Empty history"
// @Failure      500  {object}  map[string]string       "Internal server error"
// @Router       /api/chat/history [delete]
func (h *Handlers) ClearChatHistoryHandler(c *gin.Context) {
	sess := currentSession(c)
	sess.History = []models.ChatTurn{}
	if err := h.saveSession(sess); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save session"})
		return
	}
	c.JSON(http.StatusOK, models.HistoryResponse{DBName: sess.DBName, History: sess.History})
}

// IndexHandler re-indexes the schema of the connected database
// @Summary      Re-index schemas
// @Description  Samples one document per collection and upserts it into the vector store
// @Tags         Chat
// @Produce      json
// @Success      200  {object}  models.IndexResponse  "Indexed collections"
// @Failure      409  {object}  map[string]string     "Not connected to a database"
// @Failure      502  {object}  map[string]string     "MongoDB unreachable"
// @Failure      500  {object}  map[string]string     "Internal server error"
// @Router       /api/index [post]
func (h *Handlers) IndexHandler(c *gin.Context) {
	sess := currentSession(c)
	if !sess.Connected() {
		c.JSON(http.StatusConflict, gin.H{"error": "Not connected: POST /api/connect first"})
		return
	}

	names, err := h.chat.Index(c.Request.Context(), sess)
	if err != nil {
		h.log.Error("indexing failed", zap.String("db", sess.DBName), zap.Error(err))
		if errors.Is(err, chat.ErrDatabaseUnavailable) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Could not reach the database: " + err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to index schemas"})
		return
	}
	resp := models.IndexResponse{DBName: sess.DBName, Collections: names}
	if err := h.saveSession(sess); err != nil {
		resp.Warnings = append(resp.Warnings, "Index state could not be saved; the next chat turn will index again.")
	}

	c.JSON(http.StatusOK, resp)
}

// AuditHistoryHandler lists logged interactions from the caller's IP
// @Summary      Interaction history by IP
// @Description  Returns the newest logged interactions for the client IP address
// @Tags         History
// @Produce      json
// @Param        limit  query     int                    false  "Maximum entries (1-50)"  default(50)
// @Success      200    {array}   models.InteractionLog  "Interactions, newest first"
// @Failure      400    {object}  map[string]string      "Invalid limit"
// @Failure      503    {object}  map[string]string      "Audit log not configured"
// @Failure      500    {object}  map[string]string      "Internal server error"
// @Router       /api/history [get]
func (h *Handlers) AuditHistoryHandler(c *gin.Context) {
	if h.audit == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Audit log is not configured"})
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	entries, err := h.audit.HistoryByIP(c.Request.Context(), c.ClientIP(), limit)
	if err != nil {
		h.log.Error("failed to retrieve history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve history"})
		return
	}
	c.JSON(http.StatusOK, entries)
}
