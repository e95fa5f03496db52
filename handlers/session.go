package handlers

import (
	"errors"
	"net/http"

	"mongochat/db"
	"mongochat/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	SessionCookie = "mongochat_session"
	sessionKey    = "session"
)

// SessionMiddleware loads the session named by the cookie, creating a new
// one when the cookie is missing, malformed or points at an expired session.
func (h *Handlers) SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(SessionCookie)
		if err != nil || uuid.Validate(id) != nil {
			id = uuid.New().String()
		}

		sess, err := h.sessions.GetSession(id)
		switch {
		case errors.Is(err, db.ErrSessionNotFound):
			sess = &models.Session{ID: id}
		case err != nil:
			h.log.Error("failed to load session", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to load session"})
			return
		}

		h.setSessionCookie(c, id)
		c.Set(sessionKey, sess)
		c.Next()
	}
}

func (h *Handlers) setSessionCookie(c *gin.Context, id string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, id, int(h.opts.SessionTTL.Seconds()), "/", "", h.opts.CookieSecure, true)
}

func (h *Handlers) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", h.opts.CookieSecure, true)
}

func currentSession(c *gin.Context) *models.Session {
	return c.MustGet(sessionKey).(*models.Session)
}

// saveSession persists the session. Concurrent requests in one session are
// not serialized; the last save wins.
func (h *Handlers) saveSession(sess *models.Session) error {
	if err := h.sessions.StoreSession(sess); err != nil {
		h.log.Error("failed to save session", zap.String("session_id", sess.ID), zap.Error(err))
		return err
	}
	return nil
}
