package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"gopkg.in/yaml.v3"

	"github.com/evanschultz/lanes/internal/domain"
)

// SnapshotVersion defines a package constant value.
const SnapshotVersion = "lanes.snapshot.v1"

// SnapshotFormat names an encoding for snapshot files.
type SnapshotFormat string

// SnapshotFormatJSON and SnapshotFormatYAML are the supported encodings.
const (
	SnapshotFormatJSON SnapshotFormat = "json"
	SnapshotFormatYAML SnapshotFormat = "yaml"
)

// ParseSnapshotFormat maps a flag value or file extension to a format.
func ParseSnapshotFormat(raw string) (SnapshotFormat, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(raw), ".")) {
	case "", "json":
		return SnapshotFormatJSON, nil
	case "yaml", "yml":
		return SnapshotFormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, raw)
	}
}

// Snapshot is a portable copy of every project, team, task and comment.
type Snapshot struct {
	Version    string               `json:"version" yaml:"version"`
	ExportedAt time.Time            `json:"exported_at" yaml:"exported_at"`
	Projects   []SnapshotProject    `json:"projects" yaml:"projects"`
	Team       []SnapshotTeamMember `json:"team,omitempty" yaml:"team,omitempty"`
	Tasks      []SnapshotTask       `json:"tasks" yaml:"tasks"`
	Comments   []SnapshotComment    `json:"comments,omitempty" yaml:"comments,omitempty"`
}

// SnapshotProject represents snapshot project data used by this package.
type SnapshotProject struct {
	ID          int64      `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty" yaml:"end_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at" yaml:"created_at"`
}

// SnapshotTeamMember represents one project team membership.
type SnapshotTeamMember struct {
	ProjectID int64  `json:"project_id" yaml:"project_id"`
	UserID    int64  `json:"user_id" yaml:"user_id"`
	Username  string `json:"username" yaml:"username"`
	Role      string `json:"role,omitempty" yaml:"role,omitempty"`
}

// SnapshotTask represents snapshot task data used by this package.
type SnapshotTask struct {
	ID          int64           `json:"id" yaml:"id"`
	ProjectID   int64           `json:"project_id" yaml:"project_id"`
	Title       string          `json:"title" yaml:"title"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	Status      domain.Status   `json:"status" yaml:"status"`
	Priority    domain.Priority `json:"priority,omitempty" yaml:"priority,omitempty"`
	Points      *int            `json:"points,omitempty" yaml:"points,omitempty"`
	Tags        string          `json:"tags,omitempty" yaml:"tags,omitempty"`
	StartDate   *time.Time      `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	DueDate     *time.Time      `json:"due_date,omitempty" yaml:"due_date,omitempty"`
	FilesURL    []string        `json:"files_url,omitempty" yaml:"files_url,omitempty"`
	FilesName   []string        `json:"files_name,omitempty" yaml:"files_name,omitempty"`
	AuthorID    int64           `json:"author_id,omitempty" yaml:"author_id,omitempty"`
	AssigneeID  int64           `json:"assignee_id,omitempty" yaml:"assignee_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" yaml:"updated_at"`
}

// SnapshotComment represents snapshot comment data used by this package.
type SnapshotComment struct {
	ID        string    `json:"id" yaml:"id"`
	TaskID    int64     `json:"task_id" yaml:"task_id"`
	Author    string    `json:"author" yaml:"author"`
	Text      string    `json:"text" yaml:"text"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// ExportSnapshot collects all stored data into a snapshot.
func (s *Service) ExportSnapshot(ctx context.Context) (Snapshot, error) {
	projects, err := s.repo.ListProjects(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: s.clock().UTC(),
		Projects:   make([]SnapshotProject, 0, len(projects)),
		Team:       make([]SnapshotTeamMember, 0),
		Tasks:      make([]SnapshotTask, 0),
		Comments:   make([]SnapshotComment, 0),
	}
	for _, project := range projects {
		snap.Projects = append(snap.Projects, snapshotProjectFromDomain(project))

		members, listErr := s.repo.ListTeamMembers(ctx, project.ID)
		if listErr != nil {
			return Snapshot{}, listErr
		}
		for _, member := range members {
			snap.Team = append(snap.Team, SnapshotTeamMember{
				ProjectID: member.ProjectID,
				UserID:    member.UserID,
				Username:  member.Username,
				Role:      member.Role,
			})
		}

		tasks, listErr := s.repo.ListTasks(ctx, project.ID)
		if listErr != nil {
			return Snapshot{}, listErr
		}
		for _, task := range tasks {
			snap.Tasks = append(snap.Tasks, snapshotTaskFromDomain(task))
			if task.Comments.Count() == 0 {
				continue
			}
			comments, loadErr := task.Comments.Load(ctx, s.repo)
			if loadErr != nil {
				return Snapshot{}, loadErr
			}
			for _, comment := range comments {
				snap.Comments = append(snap.Comments, SnapshotComment{
					ID:        comment.ID,
					TaskID:    comment.TaskID,
					Author:    comment.Author,
					Text:      comment.Text,
					CreatedAt: comment.CreatedAt,
				})
			}
		}
	}

	snap.sort()
	return snap, nil
}

// ImportSnapshot upserts every record in snap, keeping its ids.
func (s *Service) ImportSnapshot(ctx context.Context, snap Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	snap.sort()

	for _, project := range snap.Projects {
		dp := project.toDomain()
		if _, err := s.repo.GetProject(ctx, dp.ID); err == nil {
			if err := s.repo.UpdateProject(ctx, dp); err != nil {
				return err
			}
			continue
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		if _, err := s.repo.CreateProject(ctx, dp); err != nil {
			return err
		}
	}
	for _, member := range snap.Team {
		if err := s.repo.AddTeamMember(ctx, domain.TeamMember{
			ProjectID: member.ProjectID,
			UserID:    member.UserID,
			Username:  member.Username,
			Role:      member.Role,
		}); err != nil {
			return err
		}
	}
	for _, task := range snap.Tasks {
		dt := task.toDomain()
		if _, err := s.repo.GetTask(ctx, dt.ID); err == nil {
			if err := s.repo.UpdateTask(ctx, dt); err != nil {
				return err
			}
		} else if !errors.Is(err, ErrNotFound) {
			return err
		} else if _, err := s.repo.CreateTask(ctx, dt); err != nil {
			return err
		}
		s.cache.Evict(ctx, dt.ProjectID)
	}
	for _, comment := range snap.Comments {
		if err := s.repo.CreateComment(ctx, domain.Comment{
			ID:        comment.ID,
			TaskID:    comment.TaskID,
			Author:    comment.Author,
			Text:      comment.Text,
			CreatedAt: comment.CreatedAt.UTC(),
		}); err != nil {
			return err
		}
	}
	for _, project := range snap.Projects {
		s.cache.Evict(ctx, project.ID)
	}
	return nil
}

// Validate checks ids, references and statuses.
func (s *Snapshot) Validate() error {
	if s.Version != "" && s.Version != SnapshotVersion {
		return fmt.Errorf("%w: %q", ErrUnsupportedSnapshot, s.Version)
	}

	projectIDs := map[int64]struct{}{}
	for i, p := range s.Projects {
		if p.ID <= 0 {
			return fmt.Errorf("projects[%d].id: %w", i, domain.ErrInvalidID)
		}
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("projects[%d].name: %w", i, domain.ErrInvalidName)
		}
		if _, ok := projectIDs[p.ID]; ok {
			return fmt.Errorf("duplicate project id: %d", p.ID)
		}
		projectIDs[p.ID] = struct{}{}
	}
	for i, m := range s.Team {
		if _, ok := projectIDs[m.ProjectID]; !ok {
			return fmt.Errorf("team[%d] references unknown project_id %d", i, m.ProjectID)
		}
		if m.UserID <= 0 {
			return fmt.Errorf("team[%d].user_id: %w", i, domain.ErrInvalidID)
		}
	}

	taskIDs := map[int64]struct{}{}
	for i, t := range s.Tasks {
		if t.ID <= 0 {
			return fmt.Errorf("tasks[%d].id: %w", i, domain.ErrInvalidID)
		}
		if _, ok := projectIDs[t.ProjectID]; !ok {
			return fmt.Errorf("tasks[%d] references unknown project_id %d", i, t.ProjectID)
		}
		if strings.TrimSpace(t.Title) == "" {
			return fmt.Errorf("tasks[%d].title: %w", i, domain.ErrInvalidTitle)
		}
		if !t.Status.Valid() {
			return fmt.Errorf("tasks[%d].status %q: %w", i, t.Status, domain.ErrInvalidStatus)
		}
		if t.Points != nil && *t.Points < 0 {
			return fmt.Errorf("tasks[%d].points: %w", i, domain.ErrInvalidPoints)
		}
		if _, ok := taskIDs[t.ID]; ok {
			return fmt.Errorf("duplicate task id: %d", t.ID)
		}
		taskIDs[t.ID] = struct{}{}
	}
	for i, c := range s.Comments {
		if strings.TrimSpace(c.ID) == "" {
			return fmt.Errorf("comments[%d].id: %w", i, domain.ErrInvalidID)
		}
		if _, ok := taskIDs[c.TaskID]; !ok {
			return fmt.Errorf("comments[%d] references unknown task_id %d", i, c.TaskID)
		}
		if strings.TrimSpace(c.Text) == "" {
			return fmt.Errorf("comments[%d].text: %w", i, domain.ErrInvalidBody)
		}
	}
	return nil
}

// EncodeSnapshot writes snap to w in the requested format.
func EncodeSnapshot(w io.Writer, snap Snapshot, format SnapshotFormat) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case SnapshotFormatJSON:
		data, err = sonic.ConfigStd.MarshalIndent(snap, "", "  ")
	case SnapshotFormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		err = enc.Encode(snap)
		if closeErr := enc.Close(); err == nil {
			err = closeErr
		}
		data = buf.Bytes()
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if format == SnapshotFormatJSON {
		data = append(data, '\n')
	}
	_, err = w.Write(data)
	return err
}

// DecodeSnapshot reads a snapshot from r in the requested format.
func DecodeSnapshot(r io.Reader, format SnapshotFormat) (Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	switch format {
	case SnapshotFormatJSON:
		err = sonic.ConfigStd.Unmarshal(data, &snap)
	case SnapshotFormatYAML:
		err = yaml.Unmarshal(data, &snap)
	default:
		return Snapshot{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

func (s *Snapshot) sort() {
	sort.SliceStable(s.Projects, func(i, j int) bool {
		return s.Projects[i].ID < s.Projects[j].ID
	})
	sort.SliceStable(s.Team, func(i, j int) bool {
		if s.Team[i].ProjectID == s.Team[j].ProjectID {
			return s.Team[i].UserID < s.Team[j].UserID
		}
		return s.Team[i].ProjectID < s.Team[j].ProjectID
	})
	sort.SliceStable(s.Tasks, func(i, j int) bool {
		return s.Tasks[i].ID < s.Tasks[j].ID
	})
	sort.SliceStable(s.Comments, func(i, j int) bool {
		ci, cj := s.Comments[i], s.Comments[j]
		if ci.TaskID != cj.TaskID {
			return ci.TaskID < cj.TaskID
		}
		if !ci.CreatedAt.Equal(cj.CreatedAt) {
			return ci.CreatedAt.Before(cj.CreatedAt)
		}
		return ci.ID < cj.ID
	})
}

func snapshotProjectFromDomain(p domain.Project) SnapshotProject {
	return SnapshotProject{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		StartDate:   copyTimePtr(p.StartDate),
		EndDate:     copyTimePtr(p.EndDate),
		CreatedAt:   p.CreatedAt.UTC(),
	}
}

func snapshotTaskFromDomain(t domain.Task) SnapshotTask {
	return SnapshotTask{
		ID:          t.ID,
		ProjectID:   t.ProjectID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		Points:      copyIntPtr(t.Points),
		Tags:        t.Tags,
		StartDate:   copyTimePtr(t.StartDate),
		DueDate:     copyTimePtr(t.DueDate),
		FilesURL:    append([]string(nil), t.FilesURL...),
		FilesName:   append([]string(nil), t.FilesName...),
		AuthorID:    t.AuthorID,
		AssigneeID:  t.AssigneeID,
		CreatedAt:   t.CreatedAt.UTC(),
		UpdatedAt:   t.UpdatedAt.UTC(),
	}
}

func (p SnapshotProject) toDomain() domain.Project {
	return domain.Project{
		ID:          p.ID,
		Name:        strings.TrimSpace(p.Name),
		Description: strings.TrimSpace(p.Description),
		StartDate:   copyTimePtr(p.StartDate),
		EndDate:     copyTimePtr(p.EndDate),
		CreatedAt:   p.CreatedAt.UTC(),
	}
}

// toDomain keeps unknown priorities verbatim.
func (t SnapshotTask) toDomain() domain.Task {
	return domain.Task{
		ID:          t.ID,
		ProjectID:   t.ProjectID,
		Title:       strings.TrimSpace(t.Title),
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		Points:      copyIntPtr(t.Points),
		Tags:        t.Tags,
		StartDate:   copyTimePtr(t.StartDate),
		DueDate:     copyTimePtr(t.DueDate),
		FilesURL:    append([]string(nil), t.FilesURL...),
		FilesName:   append([]string(nil), t.FilesName...),
		AuthorID:    t.AuthorID,
		AssigneeID:  t.AssigneeID,
		CreatedAt:   t.CreatedAt.UTC(),
		UpdatedAt:   t.UpdatedAt.UTC(),
	}
}

func copyTimePtr(in *time.Time) *time.Time {
	if in == nil {
		return nil
	}
	ts := in.UTC()
	return &ts
}

func copyIntPtr(in *int) *int {
	if in == nil {
		return nil
	}
	v := *in
	return &v
}
