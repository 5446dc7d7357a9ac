package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/evanschultz/lanes/internal/app"
	"github.com/evanschultz/lanes/internal/domain"
)

func newTestCache(t *testing.T, ttl time.Duration) (*TaskCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, ttl), mr
}

func TestTaskCacheStoresWithTTL(t *testing.T) {
	cache, mr := newTestCache(t, time.Minute)
	ctx := context.Background()
	points := 2
	due := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	cache.SetTasks(ctx, 7, []domain.Task{{
		ID:        3,
		ProjectID: 7,
		Title:     "Write code",
		Status:    domain.StatusUnderReview,
		Priority:  "Backlog",
		Points:    &points,
		Tags:      "a,,b",
		DueDate:   &due,
		FilesURL:  []string{"https://x/a.png"},
		Comments:  domain.NewCommentRef(3, 4),
	}})

	if ttl := mr.TTL(tasksKey(7)); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected TTL: %v", ttl)
	}
	got, ok := cache.GetTasks(ctx, 7)
	if !ok || len(got) != 1 {
		t.Fatalf("expected cache hit, got %v %#v", ok, got)
	}
	task := got[0]
	if task.Title != "Write code" || task.Status != domain.StatusUnderReview || task.Priority != "Backlog" {
		t.Fatalf("unexpected task %#v", task)
	}
	if task.Comments.Count() != 4 || task.Comments.TaskID() != 3 {
		t.Fatalf("unexpected comment ref %#v", task.Comments)
	}
	if task.DueDate == nil || !task.DueDate.Equal(due) || *task.Points != 2 {
		t.Fatalf("unexpected optional fields %#v", task)
	}
}

func TestTaskCacheEvictAndCorruptEntries(t *testing.T) {
	cache, mr := newTestCache(t, time.Minute)
	ctx := context.Background()
	cache.SetTasks(ctx, 1, []domain.Task{{ID: 1, ProjectID: 1, Title: "a", Status: domain.StatusToDo}})
	cache.Evict(ctx, 1)
	if _, ok := cache.GetTasks(ctx, 1); ok {
		t.Fatal("expected miss after evict")
	}

	if err := mr.Set(tasksKey(2), "{not json"); err != nil {
		t.Fatalf("seed corrupt entry: %v", err)
	}
	if _, ok := cache.GetTasks(ctx, 2); ok {
		t.Fatal("expected corrupt entry to miss")
	}
	if mr.Exists(tasksKey(2)) {
		t.Fatal("expected corrupt entry to be deleted")
	}
}

func TestTaskCacheZeroTTLSkipsWrites(t *testing.T) {
	cache, mr := newTestCache(t, 0)
	cache.SetTasks(context.Background(), 1, []domain.Task{{ID: 1}})
	if mr.Exists(tasksKey(1)) {
		t.Fatal("expected zero ttl to skip writes")
	}
}

type countingRepo struct {
	app.Repository
	tasks     map[int64]domain.Task
	listCalls int
}

func (r *countingRepo) GetProject(_ context.Context, id int64) (domain.Project, error) {
	return domain.Project{ID: id, Name: "p"}, nil
}

func (r *countingRepo) CreateTask(_ context.Context, t domain.Task) (domain.Task, error) {
	t.ID = int64(len(r.tasks) + 1)
	r.tasks[t.ID] = t
	return t, nil
}

func (r *countingRepo) GetTask(_ context.Context, id int64) (domain.Task, error) {
	t, ok := r.tasks[id]
	if !ok {
		return domain.Task{}, app.ErrNotFound
	}
	return t, nil
}

func (r *countingRepo) UpdateTask(_ context.Context, t domain.Task) error {
	r.tasks[t.ID] = t
	return nil
}

func (r *countingRepo) ListTasks(_ context.Context, projectID int64) ([]domain.Task, error) {
	r.listCalls++
	out := []domain.Task{}
	for id := int64(1); id <= int64(len(r.tasks)); id++ {
		if t, ok := r.tasks[id]; ok && t.ProjectID == projectID {
			out = append(out, t)
		}
	}
	return out, nil
}

func TestServiceEvictsRedisOnMutation(t *testing.T) {
	cache, mr := newTestCache(t, time.Minute)
	repo := &countingRepo{tasks: map[int64]domain.Task{}}
	svc := app.NewService(repo, nil, nil, app.ServiceConfig{Cache: cache})
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, app.CreateTaskInput{ProjectID: 5, Title: "a"})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	if _, err := svc.ListTasks(ctx, 5, app.FetchOptions{}); err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	if !mr.Exists(tasksKey(5)) {
		t.Fatal("expected list to be cached")
	}
	if _, err := svc.ListTasks(ctx, 5, app.FetchOptions{}); err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	if repo.listCalls != 1 {
		t.Fatalf("expected cached read, got %d repo calls", repo.listCalls)
	}

	if _, err := svc.UpdateTaskStatus(ctx, task.ID, domain.StatusCompleted); err != nil {
		t.Fatalf("UpdateTaskStatus() error = %v", err)
	}
	if mr.Exists(tasksKey(5)) {
		t.Fatal("expected mutation to evict cached list")
	}
	tasks, err := svc.ListTasks(ctx, 5, app.FetchOptions{})
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	if repo.listCalls != 2 || tasks[0].Status != domain.StatusCompleted {
		t.Fatalf("unexpected reread calls=%d tasks=%#v", repo.listCalls, tasks)
	}
}
