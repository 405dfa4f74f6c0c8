package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const contextKeyUserID = "techfeed-user-id"

// requireSession aborts with 401 unless the request carries a logged-in session.
func (h *Handler) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := h.sessions.Current(c.Request)
		if !ok {
			h.metrics.recordAuth("guard", "rejected")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		c.Set(contextKeyUserID, sess.UserID)
		c.Next()
	}
}

// currentUserID returns the id stored by requireSession.
func currentUserID(c *gin.Context) int64 {
	return c.GetInt64(contextKeyUserID)
}
