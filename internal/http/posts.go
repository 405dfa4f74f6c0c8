package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"techfeed/internal/domain"
	"techfeed/internal/format"
	"techfeed/internal/repository"
	"techfeed/internal/service"
)

const postNotFound = "No post found with this id"

type createPostRequest struct {
	Title   string `json:"title" binding:"required"`
	PostURL string `json:"post_url" binding:"required"`
}

type updatePostRequest struct {
	Title string `json:"title" binding:"required"`
}

type upvoteRequest struct {
	PostID int64 `json:"post_id" binding:"required"`
}

func (h *Handler) createPost(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	post, err := h.posts.Create(c.Request.Context(), req.Title, req.PostURL, currentUserID(c))
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		h.internalError(c, err, "Post failed")
		return
	}

	c.JSON(http.StatusOK, idResponse{ID: post.ID})
}

func (h *Handler) updatePost(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}
	var req updatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if _, err := h.posts.UpdateTitle(c.Request.Context(), id, req.Title); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			respondError(c, http.StatusNotFound, postNotFound)
		case errors.Is(err, service.ErrValidation):
			respondError(c, http.StatusBadRequest, err.Error())
		default:
			h.internalError(c, err, "Update failed")
		}
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) deletePost(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}

	if err := h.posts.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(c, http.StatusNotFound, postNotFound)
			return
		}
		h.internalError(c, err, "Delete failed")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) upvote(c *gin.Context) {
	var req upvoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if _, err := h.posts.Upvote(c.Request.Context(), req.PostID, currentUserID(c)); err != nil {
		if errors.Is(err, service.ErrValidation) {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		h.internalError(c, err, "Upvote failed")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) listPosts(c *gin.Context) {
	posts, err := h.posts.List(c.Request.Context())
	if err != nil {
		h.internalError(c, err, "Failed to load posts")
		return
	}

	resp := make([]PostResponse, len(posts))
	for i := range posts {
		resp[i] = postToResponse(posts[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getPost(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}

	post, err := h.posts.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(c, http.StatusNotFound, postNotFound)
			return
		}
		h.internalError(c, err, "Failed to load post")
		return
	}

	resp := postToResponse(post.PostSummary)
	resp.Comments = make([]CommentResponse, len(post.Comments))
	for i := range post.Comments {
		resp.Comments[i] = commentToResponse(post.Comments[i])
	}
	c.JSON(http.StatusOK, resp)
}

func postIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, "Invalid post id")
		return 0, false
	}
	return id, true
}

type PostResponse struct {
	ID           int64             `json:"id"`
	Title        string            `json:"title"`
	PostURL      string            `json:"post_url"`
	Domain       string            `json:"domain"`
	UserID       int64             `json:"user_id"`
	Username     string            `json:"username"`
	VoteCount    int               `json:"vote_count"`
	VoteLabel    string            `json:"vote_label"`
	CommentCount int               `json:"comment_count"`
	CommentLabel string            `json:"comment_label"`
	Created      string            `json:"created"`
	CreatedAt    string            `json:"created_at"`
	UpdatedAt    string            `json:"updated_at"`
	Comments     []CommentResponse `json:"comments,omitempty"`
}

type CommentResponse struct {
	ID          int64  `json:"id"`
	CommentText string `json:"comment_text"`
	PostID      int64  `json:"post_id"`
	UserID      int64  `json:"user_id"`
	Username    string `json:"username"`
	Created     string `json:"created"`
	CreatedAt   string `json:"created_at"`
}

func postToResponse(post domain.PostSummary) PostResponse {
	return PostResponse{
		ID:           post.ID,
		Title:        post.Title,
		PostURL:      post.PostURL,
		Domain:       format.URL(post.PostURL),
		UserID:       post.UserID,
		Username:     post.Username,
		VoteCount:    post.VoteCount,
		VoteLabel:    fmt.Sprintf("%d %s", post.VoteCount, format.Plural(post.VoteCount, "upvote")),
		CommentCount: post.CommentCount,
		CommentLabel: fmt.Sprintf("%d %s", post.CommentCount, format.Plural(post.CommentCount, "comment")),
		Created:      format.Date(post.CreatedAt),
		CreatedAt:    post.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    post.UpdatedAt.Format(time.RFC3339),
	}
}

func commentToResponse(comment domain.Comment) CommentResponse {
	return CommentResponse{
		ID:          comment.ID,
		CommentText: comment.CommentText,
		PostID:      comment.PostID,
		UserID:      comment.UserID,
		Username:    comment.Username,
		Created:     format.Date(comment.CreatedAt),
		CreatedAt:   comment.CreatedAt.Format(time.RFC3339),
	}
}
