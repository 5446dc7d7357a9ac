// Package common provides transport-agnostic server contracts used by HTTP and MCP adapters.
package common

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/evanschultz/lanes/internal/app"
	"github.com/evanschultz/lanes/internal/domain"
)

// BoardService is the app surface both transports expose. *app.Service satisfies it.
type BoardService interface {
	ListProjects(context.Context) ([]domain.Project, error)
	ListProjectTeams(context.Context, int64) ([]domain.TeamMember, error)
	ListTasks(context.Context, int64, app.FetchOptions) ([]domain.Task, error)
	GetTaskDetail(context.Context, int64) (domain.Task, error)
	CreateTask(context.Context, app.CreateTaskInput) (domain.Task, error)
	UpdateTaskStatus(context.Context, int64, domain.Status) (domain.Task, error)
	DeleteTask(context.Context, int64) error
	ListComments(context.Context, int64) ([]domain.Comment, error)
	AddComment(context.Context, int64, string, string) (domain.Comment, error)
}

// ErrInvalidRequest reports malformed transport input.
var ErrInvalidRequest = errors.New("invalid request")

// ProjectView is the wire form of a project.
type ProjectView struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
}

// TeamMemberView is the wire form of a team membership.
type TeamMemberView struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
}

// AttachmentView is the wire form of one classified attachment.
type AttachmentView struct {
	URL   string `json:"url"`
	Label string `json:"label"`
	Mode  string `json:"mode"`
}

// TaskView is the wire form of a task, including its derived card fields.
type TaskView struct {
	ID            int64            `json:"id"`
	ProjectID     int64            `json:"project_id"`
	Title         string           `json:"title"`
	Description   string           `json:"description,omitempty"`
	Status        string           `json:"status"`
	Priority      string           `json:"priority,omitempty"`
	PriorityClass string           `json:"priority_class,omitempty"`
	Points        *int             `json:"points,omitempty"`
	Tags          []string         `json:"tags"`
	StartDate     *time.Time       `json:"start_date,omitempty"`
	DueDate       *time.Time       `json:"due_date,omitempty"`
	Attachments   []AttachmentView `json:"attachments,omitempty"`
	CommentCount  int              `json:"comment_count"`
}

// CommentView is the wire form of a comment.
type CommentView struct {
	ID        string    `json:"id"`
	TaskID    int64     `json:"task_id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// ProjectViewFrom maps a domain project.
func ProjectViewFrom(p domain.Project) ProjectView {
	return ProjectView{ID: p.ID, Name: p.Name, Description: p.Description, StartDate: p.StartDate, EndDate: p.EndDate}
}

// TeamMemberViewFrom maps a domain team member.
func TeamMemberViewFrom(m domain.TeamMember) TeamMemberView {
	return TeamMemberView{UserID: m.UserID, Username: m.Username, Role: m.Role}
}

// CommentViewFrom maps a domain comment.
func CommentViewFrom(c domain.Comment) CommentView {
	return CommentView{ID: c.ID, TaskID: c.TaskID, Author: c.Author, Text: c.Text, CreatedAt: c.CreatedAt}
}

// TaskViewFrom maps a domain task and derives tags, priority class and attachments.
func TaskViewFrom(t domain.Task) TaskView {
	view := TaskView{
		ID:           t.ID,
		ProjectID:    t.ProjectID,
		Title:        t.Title,
		Description:  t.Description,
		Status:       string(t.Status),
		Priority:     string(t.Priority),
		Points:       t.Points,
		Tags:         domain.SplitTags(t.Tags),
		StartDate:    t.StartDate,
		DueDate:      t.DueDate,
		CommentCount: t.Comments.Count(),
	}
	if view.Tags == nil {
		view.Tags = []string{}
	}
	if t.Priority != "" {
		view.PriorityClass = string(t.Priority.Class())
	}
	for _, a := range t.Attachments() {
		view.Attachments = append(view.Attachments, AttachmentView{URL: a.URL, Label: a.Label(), Mode: string(a.Mode)})
	}
	return view
}

// TaskViewsFrom maps a task list.
func TaskViewsFrom(tasks []domain.Task) []TaskView {
	out := make([]TaskView, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, TaskViewFrom(t))
	}
	return out
}

// ErrorStatus maps service errors to an HTTP status and a stable code.
func ErrorStatus(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, "internal_error"
	case errors.Is(err, app.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidName),
		errors.Is(err, domain.ErrInvalidTitle),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidPriority),
		errors.Is(err, domain.ErrInvalidPoints),
		errors.Is(err, domain.ErrInvalidBody):
		return http.StatusBadRequest, "invalid_request"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
