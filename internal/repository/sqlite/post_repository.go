package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"techfeed/internal/domain"
	"techfeed/internal/repository"
)

const createPostsTable = `
CREATE TABLE IF NOT EXISTS posts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	post_url TEXT NOT NULL,
	user_id INTEGER NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	FOREIGN KEY(user_id) REFERENCES users(id)
);
CREATE INDEX IF NOT EXISTS idx_posts_user_id ON posts(user_id);
`

const selectPostSummary = `
SELECT p.id, p.title, p.post_url, p.user_id, p.created_at, p.updated_at, u.username,
	(SELECT COUNT(1) FROM votes v WHERE v.post_id = p.id),
	(SELECT COUNT(1) FROM comments c WHERE c.post_id = p.id)
FROM posts p
JOIN users u ON u.id = p.user_id`

type PostRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) repository.PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createPostsTable); err != nil {
		return fmt.Errorf("create posts table: %w", err)
	}
	return nil
}

func (r *PostRepository) Create(ctx context.Context, post *domain.Post) (int64, error) {
	now := time.Now().UTC()

	var id int64
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
INSERT INTO posts (title, post_url, user_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)`,
			post.Title,
			post.PostURL,
			post.UserID,
			now,
			now,
		)
		if err != nil {
			return wrapErr("insert post", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("post last insert id: %w", err)
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

func (r *PostRepository) UpdateTitle(ctx context.Context, id int64, title string) (*domain.Post, error) {
	var post *domain.Post
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
UPDATE posts
SET title=?, updated_at=?
WHERE id=?`,
			title,
			time.Now().UTC(),
			id,
		)
		if err != nil {
			return wrapErr("update post title", err)
		}
		aff, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("post update rows affected: %w", err)
		}
		if aff == 0 {
			return repository.ErrNotFound
		}

		post, err = scanPost(tx.QueryRowContext(ctx, `
SELECT id, title, post_url, user_id, created_at, updated_at
FROM posts
WHERE id=?`, id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (r *PostRepository) Delete(ctx context.Context, id int64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM votes WHERE post_id=?`, id); err != nil {
			return fmt.Errorf("delete post votes: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE post_id=?`, id); err != nil {
			return fmt.Errorf("delete post comments: %w", err)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id=?`, id)
		if err != nil {
			return fmt.Errorf("delete post: %w", err)
		}
		aff, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("post delete rows affected: %w", err)
		}
		if aff == 0 {
			return repository.ErrNotFound
		}
		return nil
	})
}

func (r *PostRepository) Get(ctx context.Context, id int64) (*domain.PostSummary, error) {
	row := r.db.QueryRowContext(ctx, selectPostSummary+`
WHERE p.id=?`, id)
	return scanPostSummary(row)
}

func (r *PostRepository) List(ctx context.Context) ([]domain.PostSummary, error) {
	rows, err := r.db.QueryContext(ctx, selectPostSummary+`
ORDER BY p.id DESC`)
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

func scanPost(row scanner) (*domain.Post, error) {
	var post domain.Post
	if err := row.Scan(
		&post.ID,
		&post.Title,
		&post.PostURL,
		&post.UserID,
		&post.CreatedAt,
		&post.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan post: %w", err)
	}
	return &post, nil
}

func scanPostSummary(row scanner) (*domain.PostSummary, error) {
	var post domain.PostSummary
	if err := row.Scan(
		&post.ID,
		&post.Title,
		&post.PostURL,
		&post.UserID,
		&post.CreatedAt,
		&post.UpdatedAt,
		&post.Username,
		&post.VoteCount,
		&post.CommentCount,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan post summary: %w", err)
	}
	return &post, nil
}
