package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"techfeed/internal/auth"
	"techfeed/internal/service"
)

// SessionStore starts, clears and reads client sessions.
type SessionStore interface {
	Start(w http.ResponseWriter, userID int64) (*auth.Session, error)
	Clear(w http.ResponseWriter)
	Current(r *http.Request) (*auth.Session, bool)
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	users       service.UserService
	posts       service.PostService
	comments    service.CommentService
	sessions    SessionStore
	metrics     *Metrics
	logger      *logrus.Logger
	allowOrigin string
}

func NewHandler(
	users service.UserService,
	posts service.PostService,
	comments service.CommentService,
	sessions SessionStore,
	metrics *Metrics,
	logger *logrus.Logger,
	allowOrigin string,
) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		users:       users,
		posts:       posts,
		comments:    comments,
		sessions:    sessions,
		metrics:     metrics,
		logger:      logger,
		allowOrigin: allowOrigin,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(h.accessLog())
	if h.allowOrigin != "" {
		router.Use(corsMiddleware(h.allowOrigin))
	}
	if h.metrics != nil {
		router.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}

	api := router.Group("/api")
	{
		api.POST("/users", h.signup)
		api.POST("/users/login", h.login)
		api.POST("/users/logout", h.logout)

		api.GET("/posts", h.listPosts)
		api.GET("/posts/:id", h.getPost)

		protected := api.Group("", h.requireSession())
		protected.POST("/comments", h.createComment)
		protected.PUT("/posts/upvote", h.upvote)
		protected.POST("/posts", h.createPost)
		protected.PUT("/posts/:id", h.updatePost)
		protected.DELETE("/posts/:id", h.deletePost)

		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})
	}
}

func corsMiddleware(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (h *Handler) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)
		h.metrics.recordRequest(c.Request.Method, route, status, elapsed)

		entry := h.logger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"route":   route,
			"status":  status,
			"latency": elapsed.String(),
			"client":  c.ClientIP(),
		})
		if status >= http.StatusInternalServerError {
			entry.Warn("request failed")
			return
		}
		entry.Info("request handled")
	}
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"message": message})
}

// internalError logs err with request context and sends a generic message.
func (h *Handler) internalError(c *gin.Context, err error, message string) {
	h.logger.WithError(err).WithFields(logrus.Fields{
		"method": c.Request.Method,
		"route":  c.FullPath(),
	}).Error(message)
	respondError(c, http.StatusInternalServerError, message)
}
