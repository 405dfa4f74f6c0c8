package repository

import (
	"context"

	"techfeed/internal/domain"
)

// PostRepository exposes persistence operations for posts and their read models.
type PostRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, post *domain.Post) (int64, error)
	UpdateTitle(ctx context.Context, id int64, title string) (*domain.Post, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*domain.PostSummary, error)
	List(ctx context.Context) ([]domain.PostSummary, error)
}

// CommentRepository manages comments left on posts.
type CommentRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, comment *domain.Comment) (int64, error)
	ListByPost(ctx context.Context, postID int64) ([]domain.Comment, error)
}

// VoteRepository records upvotes.
type VoteRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, vote *domain.Vote) (int64, error)
}
