package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/evanschultz/lanes/internal/app"
	"github.com/evanschultz/lanes/internal/domain"
	_ "modernc.org/sqlite"
)

// driverName defines a package constant value.
const driverName = "sqlite"

// Repository is the sqlite-backed app.Repository.
type Repository struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies migrations.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// OpenInMemory opens a private in-memory database.
func OpenInMemory() (*Repository, error) {
	db, err := sql.Open(driverName, ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	// each pooled connection would otherwise see its own empty database
	db.SetMaxOpenConns(1)
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close closes the requested operation.
func (r *Repository) Close() error {
	return r.db.Close()
}

// migrate handles migrate.
func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS projects (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			start_date TEXT,
			end_date TEXT,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS project_teams (
			project_id INTEGER NOT NULL,
			user_id INTEGER NOT NULL,
			username TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT '',
			PRIMARY KEY(project_id, user_id),
			FOREIGN KEY(project_id) REFERENCES projects(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			project_id INTEGER NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			priority TEXT NOT NULL DEFAULT '',
			points INTEGER,
			tags TEXT NOT NULL DEFAULT '',
			start_date TEXT,
			due_date TEXT,
			files_url_json TEXT NOT NULL DEFAULT '[]',
			files_name_json TEXT NOT NULL DEFAULT '[]',
			author_id INTEGER NOT NULL DEFAULT 0,
			assignee_id INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			FOREIGN KEY(project_id) REFERENCES projects(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id, id);`,
		`CREATE TABLE IF NOT EXISTS comments (
			id TEXT PRIMARY KEY,
			task_id INTEGER NOT NULL,
			author TEXT NOT NULL DEFAULT '',
			text TEXT NOT NULL,
			created_at TEXT NOT NULL,
			FOREIGN KEY(task_id) REFERENCES tasks(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_comments_task ON comments(task_id, created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// CreateProject inserts p, keeping a caller-supplied id when present.
func (r *Repository) CreateProject(ctx context.Context, p domain.Project) (domain.Project, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO projects(id, name, description, start_date, end_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, nullableID(p.ID), p.Name, p.Description, nullableTS(p.StartDate), nullableTS(p.EndDate), ts(p.CreatedAt))
	if err != nil {
		return domain.Project{}, err
	}
	if p.ID == 0 {
		if p.ID, err = res.LastInsertId(); err != nil {
			return domain.Project{}, err
		}
	}
	return p, nil
}

// UpdateProject updates state for the requested operation.
func (r *Repository) UpdateProject(ctx context.Context, p domain.Project) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE projects
		SET name = ?, description = ?, start_date = ?, end_date = ?
		WHERE id = ?
	`, p.Name, p.Description, nullableTS(p.StartDate), nullableTS(p.EndDate), p.ID)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// GetProject returns project.
func (r *Repository) GetProject(ctx context.Context, id int64) (domain.Project, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, start_date, end_date, created_at
		FROM projects
		WHERE id = ?
	`, id)
	return scanProject(row)
}

// ListProjects lists projects.
func (r *Repository) ListProjects(ctx context.Context) ([]domain.Project, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, start_date, end_date, created_at
		FROM projects
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// AddTeamMember inserts or replaces a project membership.
func (r *Repository) AddTeamMember(ctx context.Context, m domain.TeamMember) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO project_teams(project_id, user_id, username, role)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(project_id, user_id) DO UPDATE SET username = excluded.username, role = excluded.role
	`, m.ProjectID, m.UserID, m.Username, m.Role)
	return err
}

// ListTeamMembers lists a project's team.
func (r *Repository) ListTeamMembers(ctx context.Context, projectID int64) ([]domain.TeamMember, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT project_id, user_id, username, role
		FROM project_teams
		WHERE project_id = ?
		ORDER BY user_id ASC
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.TeamMember{}
	for rows.Next() {
		var m domain.TeamMember
		if err := rows.Scan(&m.ProjectID, &m.UserID, &m.Username, &m.Role); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// CreateTask inserts t, keeping a caller-supplied id when present.
func (r *Repository) CreateTask(ctx context.Context, t domain.Task) (domain.Task, error) {
	urlsJSON, namesJSON, err := encodeFiles(t)
	if err != nil {
		return domain.Task{}, err
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO tasks(
			id, project_id, title, description, status, priority, points, tags, start_date, due_date,
			files_url_json, files_name_json, author_id, assignee_id, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		nullableID(t.ID), t.ProjectID, t.Title, t.Description, string(t.Status), string(t.Priority), nullablePoints(t.Points), t.Tags,
		nullableTS(t.StartDate), nullableTS(t.DueDate), urlsJSON, namesJSON, t.AuthorID, t.AssigneeID, ts(t.CreatedAt), ts(t.UpdatedAt),
	)
	if err != nil {
		return domain.Task{}, err
	}
	if t.ID == 0 {
		if t.ID, err = res.LastInsertId(); err != nil {
			return domain.Task{}, err
		}
	}
	t.Comments = domain.NewCommentRef(t.ID, 0)
	return t, nil
}

// UpdateTask updates state for the requested operation.
func (r *Repository) UpdateTask(ctx context.Context, t domain.Task) error {
	urlsJSON, namesJSON, err := encodeFiles(t)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks
		SET project_id = ?, title = ?, description = ?, status = ?, priority = ?, points = ?, tags = ?,
			start_date = ?, due_date = ?, files_url_json = ?, files_name_json = ?, author_id = ?, assignee_id = ?, updated_at = ?
		WHERE id = ?
	`,
		t.ProjectID, t.Title, t.Description, string(t.Status), string(t.Priority), nullablePoints(t.Points), t.Tags,
		nullableTS(t.StartDate), nullableTS(t.DueDate), urlsJSON, namesJSON, t.AuthorID, t.AssigneeID, ts(t.UpdatedAt), t.ID,
	)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// taskColumns selects a task row plus its comment count.
const taskColumns = `
	t.id, t.project_id, t.title, t.description, t.status, t.priority, t.points, t.tags, t.start_date, t.due_date,
	t.files_url_json, t.files_name_json, t.author_id, t.assignee_id, t.created_at, t.updated_at,
	(SELECT COUNT(*) FROM comments c WHERE c.task_id = t.id)
`

// GetTask returns task.
func (r *Repository) GetTask(ctx context.Context, id int64) (domain.Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks t WHERE t.id = ?`, id)
	return scanTask(row)
}

// ListTasks lists a project's tasks in insertion order.
func (r *Repository) ListTasks(ctx context.Context, projectID int64) ([]domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks t WHERE t.project_id = ? ORDER BY t.id ASC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

// DeleteTask deletes a task and its comments.
func (r *Repository) DeleteTask(ctx context.Context, id int64) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM comments WHERE task_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if err = translateNoRows(res); err != nil {
		return err
	}
	return tx.Commit()
}

// CreateComment inserts a comment. Re-inserting an existing id replaces its text.
func (r *Repository) CreateComment(ctx context.Context, c domain.Comment) error {
	if strings.TrimSpace(c.ID) == "" {
		return domain.ErrInvalidID
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO comments(id, task_id, author, text, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET author = excluded.author, text = excluded.text
	`, c.ID, c.TaskID, c.Author, c.Text, ts(c.CreatedAt))
	return err
}

// ListComments lists a task's comments, oldest first.
func (r *Repository) ListComments(ctx context.Context, taskID int64) ([]domain.Comment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, task_id, author, text, created_at
		FROM comments
		WHERE task_id = ?
		ORDER BY created_at ASC, id ASC
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Comment{}
	for rows.Next() {
		var (
			c          domain.Comment
			createdRaw string
		)
		if err := rows.Scan(&c.ID, &c.TaskID, &c.Author, &c.Text, &createdRaw); err != nil {
			return nil, err
		}
		c.CreatedAt = parseTS(createdRaw)
		out = append(out, c)
	}
	return out, rows.Err()
}

// scanner represents scanner data used by this package.
type scanner interface {
	Scan(dest ...any) error
}

// scanProject handles scan project.
func scanProject(s scanner) (domain.Project, error) {
	var (
		p          domain.Project
		startRaw   sql.NullString
		endRaw     sql.NullString
		createdRaw string
	)
	if err := s.Scan(&p.ID, &p.Name, &p.Description, &startRaw, &endRaw, &createdRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Project{}, app.ErrNotFound
		}
		return domain.Project{}, err
	}
	p.StartDate = parseNullTS(startRaw)
	p.EndDate = parseNullTS(endRaw)
	p.CreatedAt = parseTS(createdRaw)
	return p, nil
}

// scanTask handles scan task.
func scanTask(s scanner) (domain.Task, error) {
	var (
		t          domain.Task
		status     string
		priority   string
		points     sql.NullInt64
		startRaw   sql.NullString
		dueRaw     sql.NullString
		urlsRaw    string
		namesRaw   string
		createdRaw string
		updatedRaw string
		comments   int
	)
	if err := s.Scan(
		&t.ID,
		&t.ProjectID,
		&t.Title,
		&t.Description,
		&status,
		&priority,
		&points,
		&t.Tags,
		&startRaw,
		&dueRaw,
		&urlsRaw,
		&namesRaw,
		&t.AuthorID,
		&t.AssigneeID,
		&createdRaw,
		&updatedRaw,
		&comments,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Task{}, app.ErrNotFound
		}
		return domain.Task{}, err
	}
	t.Status = domain.Status(status)
	t.Priority = domain.Priority(priority)
	if points.Valid {
		v := int(points.Int64)
		t.Points = &v
	}
	t.StartDate = parseNullTS(startRaw)
	t.DueDate = parseNullTS(dueRaw)
	t.CreatedAt = parseTS(createdRaw)
	t.UpdatedAt = parseTS(updatedRaw)
	t.Comments = domain.NewCommentRef(t.ID, comments)
	if err := sonic.Unmarshal([]byte(urlsRaw), &t.FilesURL); err != nil {
		return domain.Task{}, fmt.Errorf("decode files_url_json: %w", err)
	}
	if err := sonic.Unmarshal([]byte(namesRaw), &t.FilesName); err != nil {
		return domain.Task{}, fmt.Errorf("decode files_name_json: %w", err)
	}
	return t, nil
}

func encodeFiles(t domain.Task) (string, string, error) {
	urls := t.FilesURL
	if urls == nil {
		urls = []string{}
	}
	names := t.FilesName
	if names == nil {
		names = []string{}
	}
	urlsJSON, err := sonic.Marshal(urls)
	if err != nil {
		return "", "", fmt.Errorf("encode files_url: %w", err)
	}
	namesJSON, err := sonic.Marshal(names)
	if err != nil {
		return "", "", fmt.Errorf("encode files_name: %w", err)
	}
	return string(urlsJSON), string(namesJSON), nil
}

// translateNoRows handles translate no rows.
func translateNoRows(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return app.ErrNotFound
	}
	return nil
}

func nullableID(id int64) any {
	if id <= 0 {
		return nil
	}
	return id
}

func nullablePoints(points *int) any {
	if points == nil {
		return nil
	}
	return int64(*points)
}

// ts handles ts.
func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// nullableTS handles nullable ts.
func nullableTS(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTS parses input into a normalized form.
func parseTS(v string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}

// parseNullTS parses input into a normalized form.
func parseNullTS(v sql.NullString) *time.Time {
	if !v.Valid || strings.TrimSpace(v.String) == "" {
		return nil
	}
	ts := parseTS(v.String)
	return &ts
}
