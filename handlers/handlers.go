package handlers

import (
	"context"
	"time"

	"mongochat/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// @title           MongoDB Chat Assistant API
// @version         1.0
// @description     Connect to a MongoDB database and ask questions about its data in natural language. The assistant can run read-only queries to answer them.

// @contact.name   API Support

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8000
// @BasePath  /

// @schemes   http https

// SessionStore persists browser sessions.
type SessionStore interface {
	GetSession(id string) (*models.Session, error)
	StoreSession(session *models.Session) error
	DeleteSession(id string) error
	CountSessions() (int, error)
}

// Connector verifies a connection string and resolves its database name.
type Connector interface {
	Verify(ctx context.Context, uri, dbName string) (string, error)
}

// ChatService runs chat turns and schema indexing for a session.
type ChatService interface {
	Chat(ctx context.Context, sess *models.Session, query, clientIP string) (models.ChatResponse, error)
	Index(ctx context.Context, sess *models.Session) ([]string, error)
}

// HistoryLookup serves audit history by client IP.
type HistoryLookup interface {
	HistoryByIP(ctx context.Context, ip string, limit int) ([]models.InteractionLog, error)
}

type Options struct {
	CookieSecure bool
	SessionTTL   time.Duration
}

type Handlers struct {
	sessions SessionStore
	pool     Connector
	chat     ChatService
	audit    HistoryLookup
	opts     Options
	log      *zap.Logger
}

// New builds the handlers. audit may be nil when no audit store is
// configured.
func New(sessions SessionStore, pool Connector, chat ChatService, audit HistoryLookup, opts Options, log *zap.Logger) *Handlers {
	return &Handlers{
		sessions: sessions,
		pool:     pool,
		chat:     chat,
		audit:    audit,
		opts:     opts,
		log:      log,
	}
}

// RegisterRoutes mounts the API on r.
func (h *Handlers) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.HealthHandler)

	api := r.Group("/api", h.SessionMiddleware())
	{
		api.POST("/connect", h.ConnectHandler)
		api.POST("/disconnect", h.DisconnectHandler)
		api.POST("/chat", h.ChatHandler)
		api.GET("/chat/history", h.ChatHistoryHandler)
		api.DELETE("/chat/history", h.ClearChatHistoryHandler)
		api.POST("/index", h.IndexHandler)
		api.GET("/history", h.AuditHistoryHandler)
	}
}
