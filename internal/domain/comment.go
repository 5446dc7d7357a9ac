package domain

import (
	"context"
	"strings"
	"time"
)

// Comment is a note left on a task.
type Comment struct {
	ID        string
	TaskID    int64
	Author    string
	Text      string
	CreatedAt time.Time
}

// CommentInput holds input values for comment creation.
type CommentInput struct {
	ID     string
	TaskID int64
	Author string
	Text   string
}

// NewComment validates in and builds a comment.
func NewComment(in CommentInput, now time.Time) (Comment, error) {
	in.ID = strings.TrimSpace(in.ID)
	if in.ID == "" || in.TaskID <= 0 {
		return Comment{}, ErrInvalidID
	}
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return Comment{}, ErrInvalidBody
	}
	author := strings.TrimSpace(in.Author)
	if author == "" {
		author = "lanes-user"
	}
	return Comment{
		ID:        in.ID,
		TaskID:    in.TaskID,
		Author:    author,
		Text:      text,
		CreatedAt: now.UTC(),
	}, nil
}

// CommentLoader loads comment bodies for a task.
type CommentLoader interface {
	ListComments(context.Context, int64) ([]Comment, error)
}

// CommentRef is a count-bearing reference to a task's comments. Bodies are
// only read through Load.
type CommentRef struct {
	taskID int64
	count  int
}

// NewCommentRef builds a reference for taskID holding count comments.
func NewCommentRef(taskID int64, count int) CommentRef {
	if count < 0 {
		count = 0
	}
	return CommentRef{taskID: taskID, count: count}
}

// Count returns the number of comments.
func (r CommentRef) Count() int {
	return r.count
}

// TaskID returns the referenced task id.
func (r CommentRef) TaskID() int64 {
	return r.taskID
}

// Load fetches the referenced comment bodies.
func (r CommentRef) Load(ctx context.Context, loader CommentLoader) ([]Comment, error) {
	if r.count == 0 || loader == nil {
		return nil, nil
	}
	return loader.ListComments(ctx, r.taskID)
}
