package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/evanschultz/lanes/internal/domain"
)

// IDGenerator returns unique identifiers for new comments.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// ServiceConfig holds configuration for service.
type ServiceConfig struct {
	Cache          TaskCache
	DefaultProject string
}

// Service is the data layer the board and serve mode consume.
type Service struct {
	repo           Repository
	cache          TaskCache
	idGen          IDGenerator
	clock          Clock
	defaultProject string
}

// FetchOptions controls how a task list is read.
type FetchOptions struct {
	// Force bypasses any cached list and refreshes the cache from storage.
	Force bool
}

// NewService constructs a new value for this package.
func NewService(repo Repository, idGen IDGenerator, clock Clock, cfg ServiceConfig) *Service {
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if clock == nil {
		clock = time.Now
	}
	if cfg.Cache == nil {
		cfg.Cache = NewMemoryTaskCache(0, clock)
	}
	name := strings.TrimSpace(cfg.DefaultProject)
	if name == "" {
		name = "Inbox"
	}
	return &Service{
		repo:           repo,
		cache:          cfg.Cache,
		idGen:          idGen,
		clock:          clock,
		defaultProject: name,
	}
}

// EnsureDefaultProject returns the first project, creating one when none exist.
func (s *Service) EnsureDefaultProject(ctx context.Context) (domain.Project, error) {
	projects, err := s.repo.ListProjects(ctx)
	if err != nil {
		return domain.Project{}, err
	}
	if len(projects) > 0 {
		return projects[0], nil
	}
	return s.CreateProject(ctx, s.defaultProject, "Default project")
}

// CreateProject creates project.
func (s *Service) CreateProject(ctx context.Context, name, description string) (domain.Project, error) {
	project, err := domain.NewProject(name, description, s.clock())
	if err != nil {
		return domain.Project{}, err
	}
	return s.repo.CreateProject(ctx, project)
}

// GetProject returns one project.
func (s *Service) GetProject(ctx context.Context, projectID int64) (domain.Project, error) {
	if projectID <= 0 {
		return domain.Project{}, domain.ErrInvalidID
	}
	return s.repo.GetProject(ctx, projectID)
}

// ListProjects lists projects.
func (s *Service) ListProjects(ctx context.Context) ([]domain.Project, error) {
	return s.repo.ListProjects(ctx)
}

// ListProjectTeams lists the team membership of a project.
func (s *Service) ListProjectTeams(ctx context.Context, projectID int64) ([]domain.TeamMember, error) {
	if projectID <= 0 {
		return nil, domain.ErrInvalidID
	}
	return s.repo.ListTeamMembers(ctx, projectID)
}

// AddTeamMember adds a user to a project team.
func (s *Service) AddTeamMember(ctx context.Context, member domain.TeamMember) error {
	member.Username = strings.TrimSpace(member.Username)
	member.Role = strings.TrimSpace(member.Role)
	if member.ProjectID <= 0 || member.UserID <= 0 {
		return domain.ErrInvalidID
	}
	if member.Username == "" {
		return domain.ErrInvalidName
	}
	return s.repo.AddTeamMember(ctx, member)
}

// ListTasks returns the task list for a project, reading through the cache
// unless opts.Force is set.
func (s *Service) ListTasks(ctx context.Context, projectID int64, opts FetchOptions) ([]domain.Task, error) {
	if projectID <= 0 {
		return nil, domain.ErrInvalidID
	}
	if !opts.Force {
		if tasks, ok := s.cache.GetTasks(ctx, projectID); ok {
			return tasks, nil
		}
	}
	tasks, err := s.repo.ListTasks(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list tasks for project %d: %w", projectID, err)
	}
	s.cache.SetTasks(ctx, projectID, tasks)
	return tasks, nil
}

// GetTaskDetail returns the full record for one task. It never reads the list cache.
func (s *Service) GetTaskDetail(ctx context.Context, taskID int64) (domain.Task, error) {
	if taskID <= 0 {
		return domain.Task{}, domain.ErrInvalidID
	}
	return s.repo.GetTask(ctx, taskID)
}

// CreateTaskInput holds input values for create task operations.
type CreateTaskInput struct {
	ProjectID   int64
	Title       string
	Description string
	Status      domain.Status
	Priority    domain.Priority
	Points      *int
	Tags        string
	StartDate   *time.Time
	DueDate     *time.Time
	FilesURL    []string
	FilesName   []string
	AuthorID    int64
	AssigneeID  int64
}

// CreateTask creates a task and invalidates its project's cached list.
func (s *Service) CreateTask(ctx context.Context, in CreateTaskInput) (domain.Task, error) {
	task, err := domain.NewTask(domain.TaskInput{
		ProjectID:   in.ProjectID,
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		Points:      in.Points,
		Tags:        in.Tags,
		StartDate:   in.StartDate,
		DueDate:     in.DueDate,
		FilesURL:    in.FilesURL,
		FilesName:   in.FilesName,
		AuthorID:    in.AuthorID,
		AssigneeID:  in.AssigneeID,
	}, s.clock())
	if err != nil {
		return domain.Task{}, err
	}
	if _, err := s.repo.GetProject(ctx, task.ProjectID); err != nil {
		return domain.Task{}, err
	}
	created, err := s.repo.CreateTask(ctx, task)
	if err != nil {
		return domain.Task{}, err
	}
	s.cache.Evict(ctx, created.ProjectID)
	return created, nil
}

// UpdateTaskStatus moves a task to another lane. The status must be one of
// the fixed labels; moving a task to its current status still writes.
func (s *Service) UpdateTaskStatus(ctx context.Context, taskID int64, status domain.Status) (domain.Task, error) {
	if !status.Valid() {
		return domain.Task{}, domain.ErrInvalidStatus
	}
	task, err := s.GetTaskDetail(ctx, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	if err := task.SetStatus(status, s.clock()); err != nil {
		return domain.Task{}, err
	}
	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return domain.Task{}, err
	}
	s.cache.Evict(ctx, task.ProjectID)
	return task, nil
}

// UpdateTask replaces the editable fields of a task.
func (s *Service) UpdateTask(ctx context.Context, taskID int64, details domain.TaskDetails) (domain.Task, error) {
	task, err := s.GetTaskDetail(ctx, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	if err := task.UpdateDetails(details, s.clock()); err != nil {
		return domain.Task{}, err
	}
	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return domain.Task{}, err
	}
	s.cache.Evict(ctx, task.ProjectID)
	return task, nil
}

// DeleteTask deletes a task and invalidates its project's cached list.
func (s *Service) DeleteTask(ctx context.Context, taskID int64) error {
	task, err := s.GetTaskDetail(ctx, taskID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteTask(ctx, taskID); err != nil {
		return err
	}
	s.cache.Evict(ctx, task.ProjectID)
	return nil
}

// AddComment adds a comment to a task.
func (s *Service) AddComment(ctx context.Context, taskID int64, author, text string) (domain.Comment, error) {
	task, err := s.GetTaskDetail(ctx, taskID)
	if err != nil {
		return domain.Comment{}, err
	}
	comment, err := domain.NewComment(domain.CommentInput{
		ID:     s.idGen(),
		TaskID: taskID,
		Author: author,
		Text:   text,
	}, s.clock())
	if err != nil {
		return domain.Comment{}, err
	}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return domain.Comment{}, err
	}
	s.cache.Evict(ctx, task.ProjectID)
	return comment, nil
}

// ListComments lists comments for a task, oldest first.
func (s *Service) ListComments(ctx context.Context, taskID int64) ([]domain.Comment, error) {
	if taskID <= 0 {
		return nil, domain.ErrInvalidID
	}
	return s.repo.ListComments(ctx, taskID)
}
