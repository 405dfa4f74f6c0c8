package service

import (
	"context"
	"fmt"
	"strings"

	"techfeed/internal/domain"
	"techfeed/internal/repository"
)

// CommentService creates comments. Comments are immutable once stored.
type CommentService interface {
	Create(ctx context.Context, text string, postID, authorID int64) (*domain.Comment, error)
}

type commentService struct {
	comments repository.CommentRepository
}

func NewCommentService(comments repository.CommentRepository) CommentService {
	return &commentService{comments: comments}
}

func (s *commentService) Create(ctx context.Context, text string, postID, authorID int64) (*domain.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: comment_text is required", ErrValidation)
	}
	if postID <= 0 {
		return nil, fmt.Errorf("%w: post_id is required", ErrValidation)
	}

	comment := &domain.Comment{
		CommentText: text,
		PostID:      postID,
		UserID:      authorID,
	}
	if _, err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}
