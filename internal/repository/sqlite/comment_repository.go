package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"techfeed/internal/domain"
	"techfeed/internal/repository"
)

const createCommentsTable = `
CREATE TABLE IF NOT EXISTS comments (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	comment_text TEXT NOT NULL,
	post_id INTEGER NOT NULL,
	user_id INTEGER NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	FOREIGN KEY(post_id) REFERENCES posts(id) ON DELETE CASCADE,
	FOREIGN KEY(user_id) REFERENCES users(id)
);
CREATE INDEX IF NOT EXISTS idx_comments_post_id ON comments(post_id);
`

type CommentRepository struct {
	db *sql.DB
}

func NewCommentRepository(db *sql.DB) repository.CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createCommentsTable); err != nil {
		return fmt.Errorf("create comments table: %w", err)
	}
	return nil
}

func (r *CommentRepository) Create(ctx context.Context, comment *domain.Comment) (int64, error) {
	now := time.Now().UTC()

	var id int64
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
INSERT INTO comments (comment_text, post_id, user_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)`,
			comment.CommentText,
			comment.PostID,
			comment.UserID,
			now,
			now,
		)
		if err != nil {
			return wrapErr("insert comment", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("comment last insert id: %w", err)
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

func (r *CommentRepository) ListByPost(ctx context.Context, postID int64) ([]domain.Comment, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT c.id, c.comment_text, c.post_id, c.user_id, u.username, c.created_at, c.updated_at
FROM comments c
JOIN users u ON u.id = c.user_id
WHERE c.post_id=?
ORDER BY c.id ASC`, postID)
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
