package tui

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/evanschultz/lanes/internal/domain"
)

// cardSourcePrefix prefixes every card drag source id.
const cardSourcePrefix = "card:"

// ellipsis is the card's action sheet control.
const ellipsis = "⋮"

// cardSourceID returns the drag source id for a task card.
func cardSourceID(taskID int64) string {
	return cardSourcePrefix + strconv.FormatInt(taskID, 10)
}

// cardState is the local state of one mounted card. Its drag state lives in
// the dnd backend and is orthogonal to the action sheet.
type cardState struct {
	detail     *domain.Task
	detailErr  error
	sheetOpen  bool
	sheetIndex int
}

// sheetAction is one entry of the card action sheet.
type sheetAction int

// sheetEdit and related constants list the action sheet entries in order.
const (
	sheetEdit sheetAction = iota
	sheetDelete
	sheetCancel
)

// sheetLabels maps action sheet entries to their labels.
var sheetLabels = [...]string{
	sheetEdit:   "Edit",
	sheetDelete: "Delete",
	sheetCancel: "Cancel",
}

// priorityTag returns the tag text and class, or false when priority is absent.
func priorityTag(priority domain.Priority) (string, domain.PriorityClass, bool) {
	if priority == "" {
		return "", "", false
	}
	return string(priority), priority.Class(), true
}

// pointsLabel renders story points as "N pts".
func pointsLabel(points *int) string {
	if points == nil {
		return ""
	}
	return fmt.Sprintf("%d pts", *points)
}

// commentLabel renders the comment badge from the count alone.
func commentLabel(comments domain.CommentRef) string {
	if comments.Count() == 1 {
		return "1 comment"
	}
	return fmt.Sprintf("%d comments", comments.Count())
}

// attachmentLine renders one attachment entry.
func attachmentLine(a domain.Attachment) string {
	if a.Mode == domain.AttachmentModeImage {
		name := a.Name
		if name == "" {
			name = path.Base(a.URL)
		}
		return "▣ " + name
	}
	return "↗ " + a.Label()
}

// cardRender holds a rendered card and the row offsets of its attachments.
type cardRender struct {
	view           string
	height         int
	attachmentRows []int
}

// cardRenderOptions controls one card render.
type cardRenderOptions struct {
	width      int
	dateLayout string
	selected   bool
	dragging   bool
}

// renderCard renders a task card as plain rows inside a lane.
func renderCard(task domain.Task, opts cardRenderOptions) cardRender {
	width := max(8, opts.width)
	inner := width - 2
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	chipStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("237"))

	title := truncate(task.Title, max(1, inner-2))
	gap := max(1, inner-lipgloss.Width(title)-lipgloss.Width(ellipsis))
	rows := []string{titleStyle.Render(title) + strings.Repeat(" ", gap) + ellipsis}

	var meta []string
	if label, class, ok := priorityTag(task.Priority); ok {
		tagStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(class.Color()))
		meta = append(meta, tagStyle.Render(truncate("["+label+"]", inner)))
	}
	if dates := domain.FormatDateRange(task.StartDate, task.DueDate, opts.dateLayout); dates != "" {
		meta = append(meta, muted.Render(truncate(dates, inner)))
	}
	rows = append(rows, meta...)
	if summary := descriptionSummary(task.Description); summary != "" {
		rows = append(rows, muted.Render(truncate(summary, inner)))
	}

	line, lineWidth := "", 0
	for _, tag := range domain.SplitTags(task.Tags) {
		chip := truncate("["+tag+"]", inner)
		chipWidth := lipgloss.Width(chip)
		if lineWidth > 0 && lineWidth+1+chipWidth > inner {
			rows = append(rows, line)
			line, lineWidth = "", 0
		}
		if lineWidth > 0 {
			line += " "
			lineWidth++
		}
		line += chipStyle.Render(chip)
		lineWidth += chipWidth
	}
	if lineWidth > 0 {
		rows = append(rows, line)
	}

	footer := []string{}
	if points := pointsLabel(task.Points); points != "" {
		footer = append(footer, points)
	}
	footer = append(footer, commentLabel(task.Comments))
	rows = append(rows, muted.Render(truncate(strings.Join(footer, " · "), inner)))

	var attachmentRows []int
	for _, a := range task.Attachments() {
		attachmentRows = append(attachmentRows, len(rows))
		rows = append(rows, muted.Render(truncate(attachmentLine(a), inner)))
	}

	marker := "  "
	if opts.selected {
		marker = "┃ "
	}
	for i, row := range rows {
		rows[i] = marker + row
	}
	view := strings.Join(rows, "\n")
	if opts.dragging {
		view = lipgloss.NewStyle().Faint(true).Foreground(lipgloss.Color("240")).Render(view)
	}
	return cardRender{view: view, height: len(rows), attachmentRows: attachmentRows}
}

// descriptionSummary returns the first non-blank line of a description.
func descriptionSummary(description string) string {
	for line := range strings.Lines(description) {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// renderActionSheet renders the Edit / Delete / Cancel modal for one card.
func renderActionSheet(task domain.Task, index int, accent string) string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(accent))
	selectedStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	lines := []string{titleStyle.Render(truncate(task.Title, 40))}
	for i, label := range sheetLabels {
		if i == index {
			lines = append(lines, selectedStyle.Render("› "+label))
			continue
		}
		lines = append(lines, "  "+label)
	}
	lines = append(lines, lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("enter choose • esc cancel"))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(accent)).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}
