package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"techfeed/internal/domain"
	"techfeed/internal/repository"
)

const selectPostSummary = `SELECT p.id, p.title, p.post_url, p.user_id, p.created_at, p.updated_at, u.username,
	(SELECT COUNT(1) FROM votes v WHERE v.post_id = p.id),
	(SELECT COUNT(1) FROM comments c WHERE c.post_id = p.id)
	FROM posts p
	JOIN users u ON u.id = p.user_id`

// PostRepository stores posts in PostgreSQL.
type PostRepository struct {
	pool *pgxpool.Pool
}

// NewPostRepository constructs a PostRepository.
func NewPostRepository(pool *pgxpool.Pool) repository.PostRepository {
	return &PostRepository{pool: pool}
}

// Init ensures the schema exists.
func (r *PostRepository) Init(ctx context.Context) error {
	return Init(ctx, r.pool)
}

// Create inserts a post.
func (r *PostRepository) Create(ctx context.Context, post *domain.Post) (int64, error) {
	const query = `INSERT INTO posts (title, post_url, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4) RETURNING id`
	now := time.Now().UTC()

	var id int64
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, query, post.Title, post.PostURL, post.UserID, now).Scan(&id); err != nil {
			return wrapErr("insert post", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	post.ID = id
	post.CreatedAt = now
	post.UpdatedAt = now
	return id, nil
}

// UpdateTitle renames a post and returns the updated row.
func (r *PostRepository) UpdateTitle(ctx context.Context, id int64, title string) (*domain.Post, error) {
	const query = `UPDATE posts SET title = $1, updated_at = $2 WHERE id = $3
		RETURNING id, title, post_url, user_id, created_at, updated_at`

	var post domain.Post
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, query, title, time.Now().UTC(), id)
		if err := row.Scan(&post.ID, &post.Title, &post.PostURL, &post.UserID, &post.CreatedAt, &post.UpdatedAt); err != nil {
			return notFound("update post title", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// Delete removes a post together with its votes and comments.
func (r *PostRepository) Delete(ctx context.Context, id int64) error {
	return withTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM votes WHERE post_id = $1`, id); err != nil {
			return fmt.Errorf("delete post votes: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM comments WHERE post_id = $1`, id); err != nil {
			return fmt.Errorf("delete post comments: %w", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete post: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return repository.ErrNotFound
		}
		return nil
	})
}

// Get returns the summary for one post.
func (r *PostRepository) Get(ctx context.Context, id int64) (*domain.PostSummary, error) {
	return scanPostSummary(r.pool.QueryRow(ctx, selectPostSummary+` WHERE p.id = $1`, id))
}

// List returns every post, newest first.
func (r *PostRepository) List(ctx context.Context) ([]domain.PostSummary, error) {
	rows, err := r.pool.Query(ctx, selectPostSummary+` ORDER BY p.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	posts := []domain.PostSummary{}
	for rows.Next() {
		post, err := scanPostSummary(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}
	return posts, rows.Err()
}

func scanPostSummary(row pgx.Row) (*domain.PostSummary, error) {
	var p domain.PostSummary
	if err := row.Scan(&p.ID, &p.Title, &p.PostURL, &p.UserID, &p.CreatedAt, &p.UpdatedAt, &p.Username, &p.VoteCount, &p.CommentCount); err != nil {
		return nil, notFound("scan post summary", err)
	}
	return &p, nil
}

// CommentRepository stores comments in PostgreSQL.
type CommentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository constructs a CommentRepository.
func NewCommentRepository(pool *pgxpool.Pool) repository.CommentRepository {
	return &CommentRepository{pool: pool}
}

// Init ensures the schema exists.
func (r *CommentRepository) Init(ctx context.Context) error {
	return Init(ctx, r.pool)
}

// Create inserts a comment.
func (r *CommentRepository) Create(ctx context.Context, comment *domain.Comment) (int64, error) {
	const query = `INSERT INTO comments (comment_text, post_id, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4) RETURNING id`
	now := time.Now().UTC()

	var id int64
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, query, comment.CommentText, comment.PostID, comment.UserID, now).Scan(&id); err != nil {
			return wrapErr("insert comment", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	comment.ID = id
	comment.CreatedAt = now
	comment.UpdatedAt = now
	return id, nil
}

// ListByPost returns a post's comments, oldest first.
func (r *CommentRepository) ListByPost(ctx context.Context, postID int64) ([]domain.Comment, error) {
	const query = `SELECT c.id, c.comment_text, c.post_id, c.user_id, u.username, c.created_at, c.updated_at
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.post_id = $1
		ORDER BY c.id ASC`
	rows, err := r.pool.Query(ctx, query, postID)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	comments := []domain.Comment{}
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.ID, &c.CommentText, &c.PostID, &c.UserID, &c.Username, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// VoteRepository stores upvotes in PostgreSQL.
type VoteRepository struct {
	pool *pgxpool.Pool
}

// NewVoteRepository constructs a VoteRepository.
func NewVoteRepository(pool *pgxpool.Pool) repository.VoteRepository {
	return &VoteRepository{pool: pool}
}

// Init ensures the schema exists.
func (r *VoteRepository) Init(ctx context.Context) error {
	return Init(ctx, r.pool)
}

// Create records an upvote.
func (r *VoteRepository) Create(ctx context.Context, vote *domain.Vote) (int64, error) {
	const query = `INSERT INTO votes (post_id, user_id) VALUES ($1, $2) RETURNING id`

	var id int64
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, query, vote.PostID, vote.UserID).Scan(&id); err != nil {
			return wrapErr("insert vote", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	vote.ID = id
	return id, nil
}
