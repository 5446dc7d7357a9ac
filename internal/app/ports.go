package app

import (
	"context"

	"github.com/evanschultz/lanes/internal/domain"
)

// Repository is the persistence port the service reads and writes through.
// CreateProject and CreateTask assign an id when the value carries none.
type Repository interface {
	CreateProject(context.Context, domain.Project) (domain.Project, error)
	UpdateProject(context.Context, domain.Project) error
	GetProject(context.Context, int64) (domain.Project, error)
	ListProjects(context.Context) ([]domain.Project, error)

	AddTeamMember(context.Context, domain.TeamMember) error
	ListTeamMembers(context.Context, int64) ([]domain.TeamMember, error)

	CreateTask(context.Context, domain.Task) (domain.Task, error)
	UpdateTask(context.Context, domain.Task) error
	GetTask(context.Context, int64) (domain.Task, error)
	ListTasks(context.Context, int64) ([]domain.Task, error)
	DeleteTask(context.Context, int64) error

	CreateComment(context.Context, domain.Comment) error
	ListComments(context.Context, int64) ([]domain.Comment, error)
}

// TaskCache stores task lists by project id. Implementations must be safe
// for concurrent use.
type TaskCache interface {
	GetTasks(context.Context, int64) ([]domain.Task, bool)
	SetTasks(context.Context, int64, []domain.Task)
	Evict(context.Context, int64)
}
