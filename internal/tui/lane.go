package tui

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/evanschultz/lanes/internal/dnd"
	"github.com/evanschultz/lanes/internal/domain"
)

// laneTargetPrefix prefixes every lane drop target id.
const laneTargetPrefix = "lane:"

// laneTargetID returns the drop target id for a lane status.
func laneTargetID(status domain.Status) string {
	return laneTargetPrefix + string(status)
}

// laneStatusFromTarget resolves a drop target id back to its lane status.
func laneStatusFromTarget(targetID string) (domain.Status, bool) {
	if !strings.HasPrefix(targetID, laneTargetPrefix) {
		return "", false
	}
	status := domain.Status(strings.TrimPrefix(targetID, laneTargetPrefix))
	return status, status.Valid()
}

// laneAccepts reports whether a lane takes a drop of dragType.
func laneAccepts(targetID, dragType string) bool {
	_, ok := laneStatusFromTarget(targetID)
	return ok && dragType == dnd.TypeTask
}

// laneTasks returns the tasks whose status equals status, in input order.
func laneTasks(tasks []domain.Task, status domain.Status) []domain.Task {
	out := make([]domain.Task, 0, len(tasks))
	for _, task := range tasks {
		if task.Status == status {
			out = append(out, task)
		}
	}
	return out
}

// laneHeader renders the lane title, count badge and add trigger.
func laneHeader(lane domain.Lane, count, width int) (string, int) {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(lane.Color))
	badgeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("238")).Padding(0, 1)
	left := titleStyle.Render(string(lane.Status)) + " " + badgeStyle.Render(fmt.Sprintf("%d", count))
	gap := max(1, width-lipgloss.Width(left)-lipgloss.Width(addTrigger))
	return left + strings.Repeat(" ", gap) + addTrigger, lipgloss.Width(left) + gap
}

// addTrigger is the clickable add-task control in each lane header.
const addTrigger = "+"

// laneStyle returns the lane frame, highlighted while an accepted drag hovers it.
func laneStyle(lane domain.Lane, hovered, selected bool, width int) lipgloss.Style {
	border := lipgloss.Color("239")
	switch {
	case hovered:
		border = lipgloss.Color(lane.Color)
	case selected:
		border = lipgloss.Color("246")
	}
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		MarginRight(1).
		Width(width)
	if hovered {
		style = style.Border(lipgloss.ThickBorder())
	}
	return style
}
