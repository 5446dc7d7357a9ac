package common

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/evanschultz/lanes/internal/app"
	"github.com/evanschultz/lanes/internal/domain"
)

func TestTaskViewFromDerivesCardFields(t *testing.T) {
	view := TaskViewFrom(domain.Task{
		ID:        3,
		Title:     "Ship",
		Status:    domain.StatusToDo,
		Priority:  "Backlog",
		Tags:      "a,,b",
		FilesURL:  []string{"https://x/photo.JPG", "https://x/report.pdf"},
		FilesName: []string{"Photo"},
		Comments:  domain.NewCommentRef(3, 5),
	})
	if len(view.Tags) != 3 || view.Tags[1] != "" {
		t.Fatalf("unexpected tags %#v", view.Tags)
	}
	if view.PriorityClass != string(domain.PriorityClassDefault) {
		t.Fatalf("unexpected priority class %q", view.PriorityClass)
	}
	if view.Attachments[0].Mode != "image" || view.Attachments[1].Label != "Download File" {
		t.Fatalf("unexpected attachments %#v", view.Attachments)
	}
	if view.CommentCount != 5 {
		t.Fatalf("unexpected comment count %d", view.CommentCount)
	}

	empty := TaskViewFrom(domain.Task{Status: domain.StatusToDo})
	if empty.Tags == nil || len(empty.Tags) != 0 || empty.PriorityClass != "" || empty.Attachments != nil {
		t.Fatalf("unexpected empty view %#v", empty)
	}
}

func TestErrorStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{err: fmt.Errorf("wrap: %w", app.ErrNotFound), status: http.StatusNotFound, code: "not_found"},
		{err: domain.ErrInvalidStatus, status: http.StatusBadRequest, code: "invalid_request"},
		{err: ErrInvalidRequest, status: http.StatusBadRequest, code: "invalid_request"},
		{err: errors.New("boom"), status: http.StatusInternalServerError, code: "internal_error"},
	}
	for _, tc := range cases {
		status, code := ErrorStatus(tc.err)
		if status != tc.status || code != tc.code {
			t.Fatalf("ErrorStatus(%v) = %d %q, want %d %q", tc.err, status, code, tc.status, tc.code)
		}
	}
}
