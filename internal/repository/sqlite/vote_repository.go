package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"techfeed/internal/domain"
	"techfeed/internal/repository"
)

// no unique (post_id, user_id) index: repeated upvotes are recorded as-is
const createVotesTable = `
CREATE TABLE IF NOT EXISTS votes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	post_id INTEGER NOT NULL,
	user_id INTEGER NOT NULL,
	FOREIGN KEY(post_id) REFERENCES posts(id) ON DELETE CASCADE,
	FOREIGN KEY(user_id) REFERENCES users(id)
);
CREATE INDEX IF NOT EXISTS idx_votes_post_id ON votes(post_id);
`

type VoteRepository struct {
	db *sql.DB
}

func NewVoteRepository(db *sql.DB) repository.VoteRepository {
	return &VoteRepository{db: db}
}

func (r *VoteRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createVotesTable); err != nil {
		return fmt.Errorf("create votes table: %w", err)
	}
	return nil
}

func (r *VoteRepository) Create(ctx context.Context, vote *domain.Vote) (int64, error) {
	var id int64
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `INSERT INTO votes (post_id, user_id) VALUES (?, ?)`, vote.PostID, vote.UserID)
		if err != nil {
			return wrapErr("insert vote", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("vote last insert id: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	vote.ID = id
	return id, nil
}
