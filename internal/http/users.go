package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"techfeed/internal/service"
)

const incorrectCredentials = "Incorrect credentials"

type signupRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// loginRequest has no binding rules: missing fields fall through to the
// generic credentials failure.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type idResponse struct {
	ID int64 `json:"id"`
}

func (h *Handler) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.users.Signup(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.metrics.recordAuth("signup", "failure")
		if errors.Is(err, service.ErrValidation) {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		h.internalError(c, err, "Signup failed")
		return
	}

	if _, err := h.sessions.Start(c.Writer, user.ID); err != nil {
		h.internalError(c, err, "Signup failed")
		return
	}
	h.metrics.recordAuth("signup", "success")
	h.logger.WithField("user_id", user.ID).Info("user signed up")
	c.JSON(http.StatusOK, idResponse{ID: user.ID})
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.metrics.recordAuth("login", "failure")
		respondError(c, http.StatusBadRequest, incorrectCredentials)
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.metrics.recordAuth("login", "failure")
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondError(c, http.StatusBadRequest, incorrectCredentials)
			return
		}
		h.internalError(c, err, "Login failed")
		return
	}

	if _, err := h.sessions.Start(c.Writer, user.ID); err != nil {
		h.internalError(c, err, "Login failed")
		return
	}
	h.metrics.recordAuth("login", "success")
	c.JSON(http.StatusOK, idResponse{ID: user.ID})
}

func (h *Handler) logout(c *gin.Context) {
	h.sessions.Clear(c.Writer)
	h.metrics.recordAuth("logout", "success")
	c.Status(http.StatusNoContent)
}
