package domain

import (
	"slices"
	"strings"
	"time"
)

// Priority is a task priority. The empty value means no priority.
type Priority string

// PriorityUrgent and related constants define the known priorities.
const (
	PriorityUrgent Priority = "Urgent"
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

var validPriorities = []Priority{PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow}

// PriorityClass is the visual class a priority tag renders with.
type PriorityClass string

// PriorityClassUrgent and related constants define the five priority tag classes.
const (
	PriorityClassUrgent  PriorityClass = "urgent"
	PriorityClassHigh    PriorityClass = "high"
	PriorityClassMedium  PriorityClass = "medium"
	PriorityClassLow     PriorityClass = "low"
	PriorityClassDefault PriorityClass = "default"
)

// Priorities returns the known priorities, most urgent first.
func Priorities() []Priority {
	return slices.Clone(validPriorities)
}

// Known reports whether p is one of the four known priorities.
func (p Priority) Known() bool {
	return slices.Contains(validPriorities, p)
}

// Class maps p to its visual class; anything unknown falls back to the default class.
func (p Priority) Class() PriorityClass {
	switch p {
	case PriorityUrgent:
		return PriorityClassUrgent
	case PriorityHigh:
		return PriorityClassHigh
	case PriorityMedium:
		return PriorityClassMedium
	case PriorityLow:
		return PriorityClassLow
	default:
		return PriorityClassDefault
	}
}

// priorityClassColors holds the tag color per class.
var priorityClassColors = map[PriorityClass]string{
	PriorityClassUrgent:  "#DC2626",
	PriorityClassHigh:    "#EA580C",
	PriorityClassMedium:  "#CA8A04",
	PriorityClassLow:     "#16A34A",
	PriorityClassDefault: "#6B7280",
}

// PriorityClasses returns every tag class, most urgent first.
func PriorityClasses() []PriorityClass {
	return []PriorityClass{PriorityClassUrgent, PriorityClassHigh, PriorityClassMedium, PriorityClassLow, PriorityClassDefault}
}

// Color returns the hex color a priority tag of class c renders with.
func (c PriorityClass) Color() string {
	if color, ok := priorityClassColors[c]; ok {
		return color
	}
	return priorityClassColors[PriorityClassDefault]
}

// Task is one card on the board.
type Task struct {
	ID          int64
	ProjectID   int64
	Title       string
	Description string
	Status      Status
	Priority    Priority
	Points      *int
	Tags        string
	StartDate   *time.Time
	DueDate     *time.Time
	FilesURL    []string
	FilesName   []string
	Comments    CommentRef
	AuthorID    int64
	AssigneeID  int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskInput holds the caller-supplied fields of a new task.
type TaskInput struct {
	ProjectID   int64
	Title       string
	Description string
	Status      Status
	Priority    Priority
	Points      *int
	Tags        string
	StartDate   *time.Time
	DueDate     *time.Time
	FilesURL    []string
	FilesName   []string
	AuthorID    int64
	AssigneeID  int64
}

// NewTask validates in and builds an unsaved task. The id is assigned by storage.
func NewTask(in TaskInput, now time.Time) (Task, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.ProjectID <= 0 {
		return Task{}, ErrInvalidID
	}
	if in.Title == "" {
		return Task{}, ErrInvalidTitle
	}
	if in.Status == "" {
		in.Status = StatusToDo
	}
	if !in.Status.Valid() {
		return Task{}, ErrInvalidStatus
	}
	if in.Priority != "" && !in.Priority.Known() {
		return Task{}, ErrInvalidPriority
	}
	if in.Points != nil && *in.Points < 0 {
		return Task{}, ErrInvalidPoints
	}

	return Task{
		ProjectID:   in.ProjectID,
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		Points:      clonePoints(in.Points),
		Tags:        in.Tags,
		StartDate:   normalizeDate(in.StartDate),
		DueDate:     normalizeDate(in.DueDate),
		FilesURL:    slices.Clone(in.FilesURL),
		FilesName:   slices.Clone(in.FilesName),
		AuthorID:    in.AuthorID,
		AssigneeID:  in.AssigneeID,
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}, nil
}

// SetStatus moves the task to another lane.
func (t *Task) SetStatus(status Status, now time.Time) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	t.Status = status
	t.UpdatedAt = now.UTC()
	return nil
}

// TaskDetails holds the editable fields of an existing task.
type TaskDetails struct {
	Title       string
	Description string
	Priority    Priority
	Points      *int
	Tags        string
	StartDate   *time.Time
	DueDate     *time.Time
}

// UpdateDetails replaces the editable fields.
func (t *Task) UpdateDetails(in TaskDetails, now time.Time) error {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return ErrInvalidTitle
	}
	if in.Priority != "" && !in.Priority.Known() {
		return ErrInvalidPriority
	}
	if in.Points != nil && *in.Points < 0 {
		return ErrInvalidPoints
	}
	t.Title = title
	t.Description = strings.TrimSpace(in.Description)
	t.Priority = in.Priority
	t.Points = clonePoints(in.Points)
	t.Tags = in.Tags
	t.StartDate = normalizeDate(in.StartDate)
	t.DueDate = normalizeDate(in.DueDate)
	t.UpdatedAt = now.UTC()
	return nil
}

// Details returns the editable fields of t.
func (t Task) Details() TaskDetails {
	return TaskDetails{
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		Points:      clonePoints(t.Points),
		Tags:        t.Tags,
		StartDate:   t.StartDate,
		DueDate:     t.DueDate,
	}
}

func clonePoints(points *int) *int {
	if points == nil {
		return nil
	}
	v := *points
	return &v
}

func normalizeDate(at *time.Time) *time.Time {
	if at == nil {
		return nil
	}
	ts := at.UTC().Truncate(time.Second)
	return &ts
}
