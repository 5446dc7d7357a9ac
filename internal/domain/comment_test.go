package domain

import (
	"context"
	"testing"
	"time"
)

type fakeCommentLoader struct {
	calls []int64
	out   []Comment
}

func (f *fakeCommentLoader) ListComments(_ context.Context, taskID int64) ([]Comment, error) {
	f.calls = append(f.calls, taskID)
	return f.out, nil
}

func TestNewComment(t *testing.T) {
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	c, err := NewComment(CommentInput{ID: "c1", TaskID: 4, Text: "  looks good "}, now)
	if err != nil {
		t.Fatalf("NewComment() error = %v", err)
	}
	if c.Text != "looks good" || c.Author != "lanes-user" {
		t.Fatalf("unexpected comment %#v", c)
	}
	if _, err := NewComment(CommentInput{ID: "c1", TaskID: 4, Text: " "}, now); err != ErrInvalidBody {
		t.Fatalf("expected ErrInvalidBody, got %v", err)
	}
	if _, err := NewComment(CommentInput{ID: "c1", Text: "x"}, now); err != ErrInvalidID {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
}

func TestCommentRefCountDoesNotLoad(t *testing.T) {
	loader := &fakeCommentLoader{out: []Comment{{ID: "c1"}, {ID: "c2"}}}
	ref := NewCommentRef(9, 2)
	if ref.Count() != 2 || ref.TaskID() != 9 {
		t.Fatalf("unexpected ref %#v", ref)
	}
	if len(loader.calls) != 0 {
		t.Fatal("expected Count() to avoid loading bodies")
	}
	got, err := ref.Load(context.Background(), loader)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != 2 || len(loader.calls) != 1 || loader.calls[0] != 9 {
		t.Fatalf("unexpected load result %#v calls %#v", got, loader.calls)
	}

	empty := NewCommentRef(9, 0)
	if got, _ := empty.Load(context.Background(), loader); got != nil || len(loader.calls) != 1 {
		t.Fatal("expected empty ref to skip loading")
	}
	if NewCommentRef(1, -3).Count() != 0 {
		t.Fatal("expected negative count to clamp to zero")
	}
}
