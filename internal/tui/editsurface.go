package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"charm.land/bubbles/v2/textinput"
	"charm.land/lipgloss/v2"

	"github.com/evanschultz/lanes/internal/domain"
)

// edit surface field indexes.
const (
	editFieldTitle = iota
	editFieldDescription
	editFieldPriority
	editFieldTags
	editFieldPoints
)

// editLoadingText is shown while the task detail has not arrived.
const editLoadingText = "loading task details..."

var (
	errPointsNotNumber = errors.New("points must be a whole number")
	errUnknownPriority = errors.New("priority must be Urgent, High, Medium, Low or empty")
)

// editSurface edits one task from its separately fetched detail record.
// A nil detail renders a loading line and disables submission.
type editSurface struct {
	open     bool
	taskID   int64
	detail   *domain.Task
	form     form
	preview  bool
	markdown *markdownRenderer
	err      string
}

// newEditSurface opens the surface for taskID with whatever detail is loaded.
func newEditSurface(taskID int64, detail *domain.Task) editSurface {
	e := editSurface{open: true, taskID: taskID, markdown: &markdownRenderer{}}
	if detail != nil {
		e.setDetail(*detail)
	}
	return e
}

// setDetail populates the fields from a loaded detail record.
func (e *editSurface) setDetail(task domain.Task) {
	detail := task
	e.detail = &detail
	points := ""
	if task.Points != nil {
		points = strconv.Itoa(*task.Points)
	}
	e.form = form{
		labels: []string{"title", "description", "priority", "tags", "points"},
		inputs: []textinput.Model{
			newModalInput("required", task.Title, 200),
			newModalInput("markdown", task.Description, 2000),
			newModalInput("Urgent, High, Medium, Low", string(task.Priority), 20),
			newModalInput("comma,separated", task.Tags, 200),
			newModalInput("whole number", points, 6),
		},
	}
	e.form.focusField(editFieldTitle)
}

// canSubmit reports whether the surface has a detail record to save against.
func (e editSurface) canSubmit() bool {
	return e.open && e.detail != nil
}

// details builds the update from the form, keeping the detail's dates.
func (e editSurface) details() (domain.TaskDetails, error) {
	if e.detail == nil {
		return domain.TaskDetails{}, fmt.Errorf("task %d: detail not loaded", e.taskID)
	}
	out := e.detail.Details()
	out.Title = strings.TrimSpace(e.form.value(editFieldTitle))
	if out.Title == "" {
		return domain.TaskDetails{}, domain.ErrInvalidTitle
	}
	out.Description = e.form.value(editFieldDescription)
	out.Priority = domain.Priority(strings.TrimSpace(e.form.value(editFieldPriority)))
	if out.Priority != "" && !out.Priority.Known() {
		return domain.TaskDetails{}, errUnknownPriority
	}
	out.Tags = e.form.value(editFieldTags)
	points, err := parsePoints(e.form.value(editFieldPoints))
	if err != nil {
		return domain.TaskDetails{}, err
	}
	out.Points = points
	return out, nil
}

// parsePoints parses an optional non-negative point estimate.
func parsePoints(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, errPointsNotNumber
	}
	if n < 0 {
		return nil, domain.ErrInvalidPoints
	}
	return &n, nil
}

// view renders the surface as a modal body.
func (e editSurface) view(width int, accent string) string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(accent))
	hintStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	boxWidth := clamp(width, 40, 84)
	lines := []string{titleStyle.Render(fmt.Sprintf("Edit task #%d", e.taskID))}
	if e.detail == nil {
		lines = append(lines, hintStyle.Render(editLoadingText), "", hintStyle.Render("esc close"))
		return modalBox(accent, boxWidth).Render(strings.Join(lines, "\n"))
	}
	lines = append(lines, e.form.view(boxWidth-4, accent))
	if e.preview {
		lines = append(lines, "", hintStyle.Render("description preview"))
		if rendered := e.markdown.render(e.form.value(editFieldDescription), boxWidth-4); rendered != "" {
			lines = append(lines, rendered)
		} else {
			lines = append(lines, hintStyle.Render("(empty)"))
		}
	}
	if e.err != "" {
		lines = append(lines, "", lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Render(e.err))
	}
	lines = append(lines, "", hintStyle.Render("enter save • tab next field • ctrl+p preview • esc close"))
	return modalBox(accent, boxWidth).Render(strings.Join(lines, "\n"))
}

// modalBox is the frame shared by every board modal.
func modalBox(accent string, width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(accent)).
		Padding(0, 1).
		Width(width)
}
