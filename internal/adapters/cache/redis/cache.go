// Package redis provides a go-redis backed app.TaskCache.
package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	goredis "github.com/redis/go-redis/v9"

	"github.com/evanschultz/lanes/internal/domain"
)

// keyPrefix namespaces task-list keys.
const keyPrefix = "lanes:tasks:"

// TaskCache stores per-project task lists in redis. Redis failures degrade to
// cache misses so reads fall back to storage.
type TaskCache struct {
	client *goredis.Client
	ttl    time.Duration
}

// cachedTask is the wire form of a task. Comment references carry only a count.
type cachedTask struct {
	ID           int64           `json:"id"`
	ProjectID    int64           `json:"project_id"`
	Title        string          `json:"title"`
	Description  string          `json:"description,omitempty"`
	Status       domain.Status   `json:"status"`
	Priority     domain.Priority `json:"priority,omitempty"`
	Points       *int            `json:"points,omitempty"`
	Tags         string          `json:"tags,omitempty"`
	StartDate    *time.Time      `json:"start_date,omitempty"`
	DueDate      *time.Time      `json:"due_date,omitempty"`
	FilesURL     []string        `json:"files_url,omitempty"`
	FilesName    []string        `json:"files_name,omitempty"`
	CommentCount int             `json:"comment_count"`
	AuthorID     int64           `json:"author_id,omitempty"`
	AssigneeID   int64           `json:"assignee_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// New wraps client. A zero ttl disables writes so every read misses.
func New(client *goredis.Client, ttl time.Duration) *TaskCache {
	if ttl < 0 {
		ttl = 0
	}
	return &TaskCache{client: client, ttl: ttl}
}

// Dial parses a redis URL and returns a cache over a new client.
func Dial(rawURL string, ttl time.Duration) (*TaskCache, error) {
	opts, err := goredis.ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	return New(goredis.NewClient(opts), ttl), nil
}

// Ping checks connectivity.
func (c *TaskCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (c *TaskCache) Close() error {
	return c.client.Close()
}

// GetTasks returns the cached list for projectID.
func (c *TaskCache) GetTasks(ctx context.Context, projectID int64) ([]domain.Task, bool) {
	if c.client == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, tasksKey(projectID)).Bytes()
	if err != nil {
		if err != goredis.Nil {
			_ = c.client.Del(ctx, tasksKey(projectID)).Err()
		}
		return nil, false
	}
	var wire []cachedTask
	if err := sonic.Unmarshal(data, &wire); err != nil {
		_ = c.client.Del(ctx, tasksKey(projectID)).Err()
		return nil, false
	}
	out := make([]domain.Task, 0, len(wire))
	for _, w := range wire {
		out = append(out, w.toDomain())
	}
	return out, true
}

// SetTasks stores the list for projectID with the configured ttl.
func (c *TaskCache) SetTasks(ctx context.Context, projectID int64, tasks []domain.Task) {
	if c.client == nil || c.ttl == 0 {
		return
	}
	wire := make([]cachedTask, 0, len(tasks))
	for _, t := range tasks {
		wire = append(wire, cachedTaskFromDomain(t))
	}
	data, err := sonic.Marshal(wire)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, tasksKey(projectID), data, c.ttl).Err()
}

// Evict drops the list for projectID.
func (c *TaskCache) Evict(ctx context.Context, projectID int64) {
	if c.client == nil {
		return
	}
	_ = c.client.Del(ctx, tasksKey(projectID)).Err()
}

func tasksKey(projectID int64) string {
	return keyPrefix + strconv.FormatInt(projectID, 10)
}

func cachedTaskFromDomain(t domain.Task) cachedTask {
	return cachedTask{
		ID:           t.ID,
		ProjectID:    t.ProjectID,
		Title:        t.Title,
		Description:  t.Description,
		Status:       t.Status,
		Priority:     t.Priority,
		Points:       t.Points,
		Tags:         t.Tags,
		StartDate:    t.StartDate,
		DueDate:      t.DueDate,
		FilesURL:     t.FilesURL,
		FilesName:    t.FilesName,
		CommentCount: t.Comments.Count(),
		AuthorID:     t.AuthorID,
		AssigneeID:   t.AssigneeID,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func (w cachedTask) toDomain() domain.Task {
	return domain.Task{
		ID:          w.ID,
		ProjectID:   w.ProjectID,
		Title:       w.Title,
		Description: w.Description,
		Status:      w.Status,
		Priority:    w.Priority,
		Points:      w.Points,
		Tags:        w.Tags,
		StartDate:   w.StartDate,
		DueDate:     w.DueDate,
		FilesURL:    w.FilesURL,
		FilesName:   w.FilesName,
		Comments:    domain.NewCommentRef(w.ID, w.CommentCount),
		AuthorID:    w.AuthorID,
		AssigneeID:  w.AssigneeID,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}
