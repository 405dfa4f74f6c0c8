package service

import (
	"context"
	"fmt"
	"strings"

	"techfeed/internal/domain"
	"techfeed/internal/repository"
)

// PostService coordinates post level operations backed by repositories.
// Ownership is not checked on update or delete.
type PostService interface {
	Create(ctx context.Context, title, postURL string, ownerID int64) (*domain.Post, error)
	UpdateTitle(ctx context.Context, id int64, title string) (*domain.Post, error)
	Delete(ctx context.Context, id int64) error
	Upvote(ctx context.Context, postID, voterID int64) (*domain.Vote, error)
	Get(ctx context.Context, id int64) (*domain.PostDetail, error)
	List(ctx context.Context) ([]domain.PostSummary, error)
}

type postService struct {
	posts    repository.PostRepository
	comments repository.CommentRepository
	votes    repository.VoteRepository
}

func NewPostService(posts repository.PostRepository, comments repository.CommentRepository, votes repository.VoteRepository) PostService {
	return &postService{
		posts:    posts,
		comments: comments,
		votes:    votes,
	}
}

func (s *postService) Create(ctx context.Context, title, postURL string, ownerID int64) (*domain.Post, error) {
	title = strings.TrimSpace(title)
	postURL = strings.TrimSpace(postURL)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if postURL == "" {
		return nil, fmt.Errorf("%w: post_url is required", ErrValidation)
	}
	if ownerID <= 0 {
		return nil, fmt.Errorf("%w: owner is required", ErrValidation)
	}

	post := &domain.Post{
		Title:   title,
		PostURL: postURL,
		UserID:  ownerID,
	}
	if _, err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *postService) UpdateTitle(ctx context.Context, id int64, title string) (*domain.Post, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	return s.posts.UpdateTitle(ctx, id, title)
}

func (s *postService) Delete(ctx context.Context, id int64) error {
	return s.posts.Delete(ctx, id)
}

func (s *postService) Upvote(ctx context.Context, postID, voterID int64) (*domain.Vote, error) {
	if postID <= 0 {
		return nil, fmt.Errorf("%w: post_id is required", ErrValidation)
	}
	vote := &domain.Vote{PostID: postID, UserID: voterID}
	if _, err := s.votes.Create(ctx, vote); err != nil {
		return nil, err
	}
	return vote, nil
}

func (s *postService) Get(ctx context.Context, id int64) (*domain.PostDetail, error) {
	summary, err := s.posts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByPost(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.PostDetail{PostSummary: *summary, Comments: comments}, nil
}

func (s *postService) List(ctx context.Context) ([]domain.PostSummary, error) {
	return s.posts.List(ctx)
}
