package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/bytedance/sonic"

	"github.com/evanschultz/lanes/internal/app"
	"github.com/evanschultz/lanes/internal/domain"
)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "lanes.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})
	return repo
}

func TestRepository_ProjectTaskLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	project, err := domain.NewProject("Example", "desc", now)
	if err != nil {
		t.Fatalf("NewProject() error = %v", err)
	}
	project, err = repo.CreateProject(ctx, project)
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	if project.ID == 0 {
		t.Fatal("expected assigned project id")
	}

	points := 8
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	due := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	task, err := domain.NewTask(domain.TaskInput{
		ProjectID:   project.ID,
		Title:       "Task title",
		Description: "Task details",
		Status:      domain.StatusWorkInProgress,
		Priority:    domain.PriorityHigh,
		Points:      &points,
		Tags:        "a,,b",
		StartDate:   &start,
		DueDate:     &due,
		FilesURL:    []string{"https://x/photo.JPG", "https://x/report.pdf"},
		FilesName:   []string{"Photo"},
	}, now)
	if err != nil {
		t.Fatalf("NewTask() error = %v", err)
	}
	task, err = repo.CreateTask(ctx, task)
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	loaded, err := repo.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if loaded.Status != domain.StatusWorkInProgress || loaded.Priority != domain.PriorityHigh {
		t.Fatalf("unexpected loaded task %#v", loaded)
	}
	if loaded.Points == nil || *loaded.Points != 8 || loaded.Tags != "a,,b" {
		t.Fatalf("unexpected points/tags %#v", loaded)
	}
	if loaded.StartDate == nil || !loaded.StartDate.Equal(start) || loaded.DueDate == nil || !loaded.DueDate.Equal(due) {
		t.Fatalf("unexpected dates %v %v", loaded.StartDate, loaded.DueDate)
	}
	if !slices.Equal(loaded.FilesURL, task.FilesURL) || !slices.Equal(loaded.FilesName, []string{"Photo"}) {
		t.Fatalf("unexpected files %#v %#v", loaded.FilesURL, loaded.FilesName)
	}

	if err := loaded.SetStatus(domain.StatusCompleted, now.Add(time.Hour)); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	loaded.Points = nil
	if err := repo.UpdateTask(ctx, loaded); err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}
	tasks, err := repo.ListTasks(ctx, project.ID)
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	if len(tasks) != 1 || tasks[0].Status != domain.StatusCompleted || tasks[0].Points != nil {
		t.Fatalf("unexpected listed tasks %#v", tasks)
	}

	if err := repo.DeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("DeleteTask() error = %v", err)
	}
	if _, err := repo.GetTask(ctx, task.ID); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.DeleteTask(ctx, task.ID); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for second delete, got %v", err)
	}
}

func TestRepository_ListTasksKeepsInsertionOrderAndCommentCounts(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	project, err := repo.CreateProject(ctx, domain.Project{Name: "p", CreatedAt: now})
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}

	var ids []int64
	for _, title := range []string{"first", "second", "third"} {
		task, err := domain.NewTask(domain.TaskInput{ProjectID: project.ID, Title: title}, now)
		if err != nil {
			t.Fatalf("NewTask() error = %v", err)
		}
		task, err = repo.CreateTask(ctx, task)
		if err != nil {
			t.Fatalf("CreateTask() error = %v", err)
		}
		ids = append(ids, task.ID)
	}
	for i, text := range []string{"one", "two"} {
		if err := repo.CreateComment(ctx, domain.Comment{
			ID:        "c" + text,
			TaskID:    ids[1],
			Text:      text,
			CreatedAt: now.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("CreateComment() error = %v", err)
		}
	}

	tasks, err := repo.ListTasks(ctx, project.ID)
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	if len(tasks) != 3 || tasks[0].Title != "first" || tasks[2].Title != "third" {
		t.Fatalf("unexpected order %#v", tasks)
	}
	if tasks[1].Comments.Count() != 2 || tasks[0].Comments.Count() != 0 {
		t.Fatalf("unexpected comment counts %d %d", tasks[0].Comments.Count(), tasks[1].Comments.Count())
	}

	comments, err := tasks[1].Comments.Load(ctx, repo)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(comments) != 2 || comments[0].Text != "one" || comments[1].Text != "two" {
		t.Fatalf("unexpected comments %#v", comments)
	}

	if err := repo.DeleteTask(ctx, ids[1]); err != nil {
		t.Fatalf("DeleteTask() error = %v", err)
	}
	remaining, err := repo.ListComments(ctx, ids[1])
	if err != nil {
		t.Fatalf("ListComments() error = %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected comments to be removed with their task, got %d", len(remaining))
	}
}

func TestRepository_ExplicitIDsAndTeams(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)

	project, err := repo.CreateProject(ctx, domain.Project{ID: 40, Name: "Imported", CreatedAt: now})
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	if project.ID != 40 {
		t.Fatalf("expected explicit id 40, got %d", project.ID)
	}
	project.Name = "Renamed"
	if err := repo.UpdateProject(ctx, project); err != nil {
		t.Fatalf("UpdateProject() error = %v", err)
	}
	if err := repo.UpdateProject(ctx, domain.Project{ID: 999, Name: "x"}); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	task, err := repo.CreateTask(ctx, domain.Task{
		ID: 77, ProjectID: 40, Title: "legacy", Status: domain.StatusToDo, Priority: "Backlog", CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	loaded, err := repo.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if loaded.ID != 77 || loaded.Priority != "Backlog" {
		t.Fatalf("unexpected task %#v", loaded)
	}

	for _, m := range []domain.TeamMember{
		{ProjectID: 40, UserID: 2, Username: "grace", Role: "dev"},
		{ProjectID: 40, UserID: 1, Username: "ada", Role: "owner"},
		{ProjectID: 40, UserID: 2, Username: "grace", Role: "lead"},
	} {
		if err := repo.AddTeamMember(ctx, m); err != nil {
			t.Fatalf("AddTeamMember() error = %v", err)
		}
	}
	members, err := repo.ListTeamMembers(ctx, 40)
	if err != nil {
		t.Fatalf("ListTeamMembers() error = %v", err)
	}
	if len(members) != 2 || members[0].Username != "ada" || members[1].Role != "lead" {
		t.Fatalf("unexpected members %#v", members)
	}

	projects, err := repo.ListProjects(ctx)
	if err != nil {
		t.Fatalf("ListProjects() error = %v", err)
	}
	if len(projects) != 1 || projects[0].Name != "Renamed" {
		t.Fatalf("unexpected projects %#v", projects)
	}
}

func TestOpenInMemoryWithService(t *testing.T) {
	repo, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	svc := app.NewService(repo, func() string { return "c1" }, nil, app.ServiceConfig{})
	ctx := context.Background()
	project, err := svc.EnsureDefaultProject(ctx)
	if err != nil {
		t.Fatalf("EnsureDefaultProject() error = %v", err)
	}
	task, err := svc.CreateTask(ctx, app.CreateTaskInput{ProjectID: project.ID, Title: "wire"})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	if _, err := svc.AddComment(ctx, task.ID, "ada", "hello"); err != nil {
		t.Fatalf("AddComment() error = %v", err)
	}
	tasks, err := svc.ListTasks(ctx, project.ID, app.FetchOptions{Force: true})
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	if len(tasks) != 1 || tasks[0].Comments.Count() != 1 {
		t.Fatalf("unexpected tasks %#v", tasks)
	}
	if _, err := svc.GetProject(ctx, 12345); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// TestEncodeFilesStoresArrays verifies nil file lists persist as empty JSON arrays
// and non-ASCII names survive a decode.
func TestEncodeFilesStoresArrays(t *testing.T) {
	urls, names, err := encodeFiles(domain.Task{})
	if err != nil {
		t.Fatalf("encodeFiles() error = %v", err)
	}
	if urls != "[]" || names != "[]" {
		t.Fatalf("expected empty arrays, got %q %q", urls, names)
	}

	urls, names, err = encodeFiles(domain.Task{
		FilesURL:  []string{"https://x/naïve.pdf"},
		FilesName: []string{"Résumé"},
	})
	if err != nil {
		t.Fatalf("encodeFiles() error = %v", err)
	}
	var decodedURLs, decodedNames []string
	if err := sonic.Unmarshal([]byte(urls), &decodedURLs); err != nil {
		t.Fatalf("decode urls error = %v", err)
	}
	if err := sonic.Unmarshal([]byte(names), &decodedNames); err != nil {
		t.Fatalf("decode names error = %v", err)
	}
	if !slices.Equal(decodedURLs, []string{"https://x/naïve.pdf"}) || !slices.Equal(decodedNames, []string{"Résumé"}) {
		t.Fatalf("unexpected decoded files %v %v", decodedURLs, decodedNames)
	}
}
