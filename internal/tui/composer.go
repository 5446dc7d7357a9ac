package tui

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/textinput"
	"charm.land/lipgloss/v2"

	"github.com/evanschultz/lanes/internal/app"
	"github.com/evanschultz/lanes/internal/domain"
)

// composer field indexes.
const (
	composerFieldTitle = iota
	composerFieldDescription
	composerFieldPriority
	composerFieldTags
)

// composer collects a new task for the lane whose status it was opened with.
type composer struct {
	open   bool
	status domain.Status
	form   form
	err    string
}

// newComposer opens the composer with status as the target lane hint.
func newComposer(status domain.Status) composer {
	c := composer{
		open:   true,
		status: status,
		form: form{
			labels: []string{"title", "description", "priority", "tags"},
			inputs: []textinput.Model{
				newModalInput("required", "", 200),
				newModalInput("markdown", "", 2000),
				newModalInput("Urgent, High, Medium, Low", "", 20),
				newModalInput("comma,separated", "", 200),
			},
		},
	}
	c.form.focusField(composerFieldTitle)
	return c
}

// input builds the create request for projectID.
func (c composer) input(projectID int64) (app.CreateTaskInput, error) {
	title := strings.TrimSpace(c.form.value(composerFieldTitle))
	if title == "" {
		return app.CreateTaskInput{}, domain.ErrInvalidTitle
	}
	priority := domain.Priority(strings.TrimSpace(c.form.value(composerFieldPriority)))
	if priority != "" && !priority.Known() {
		return app.CreateTaskInput{}, errUnknownPriority
	}
	return app.CreateTaskInput{
		ProjectID:   projectID,
		Title:       title,
		Description: c.form.value(composerFieldDescription),
		Status:      c.status,
		Priority:    priority,
		Tags:        c.form.value(composerFieldTags),
	}, nil
}

// view renders the composer modal.
func (c composer) view(width int) string {
	accent := "62"
	if lane, ok := domain.LaneFor(c.status); ok {
		accent = lane.Color
	}
	boxWidth := clamp(width, 40, 84)
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(accent))
	hintStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	lines := []string{
		titleStyle.Render(fmt.Sprintf("New task in %s", c.status)),
		c.form.view(boxWidth-4, accent),
	}
	if c.err != "" {
		lines = append(lines, "", lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Render(c.err))
	}
	lines = append(lines, "", hintStyle.Render("enter create • tab next field • esc cancel"))
	return modalBox(accent, boxWidth).Render(strings.Join(lines, "\n"))
}
