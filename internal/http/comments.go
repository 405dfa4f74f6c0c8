package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"techfeed/internal/service"
)

type createCommentRequest struct {
	CommentText string `json:"comment_text" binding:"required"`
	PostID      int64  `json:"post_id" binding:"required"`
}

func (h *Handler) createComment(c *gin.Context) {
	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	comment, err := h.comments.Create(c.Request.Context(), req.CommentText, req.PostID, currentUserID(c))
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		h.internalError(c, err, "Comment failed")
		return
	}

	c.JSON(http.StatusOK, idResponse{ID: comment.ID})
}
