package domain

import "time"

// Post is a link submitted by a user.
type Post struct {
	ID        int64
	Title     string
	PostURL   string
	UserID    int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PostSummary is a post joined with its author and engagement counters.
type PostSummary struct {
	Post
	Username     string
	VoteCount    int
	CommentCount int
}

// PostDetail extends a summary with the post's comments, oldest first.
type PostDetail struct {
	PostSummary
	Comments []Comment
}

// Comment is a piece of text left on a post. Comments are never edited.
type Comment struct {
	ID          int64
	CommentText string
	PostID      int64
	UserID      int64
	Username    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Vote records a single upvote. The same user may upvote a post more than once.
type Vote struct {
	ID     int64
	PostID int64
	UserID int64
}
