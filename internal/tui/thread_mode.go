package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/evanschultz/lanes/internal/domain"
)

// threadView is the comment thread overlay of one task.
type threadView struct {
	open        bool
	taskID      int64
	title       string
	description string
	loading     bool
	err         string
	comments    []domain.Comment
	input       textinput.Model
	scroll      int
	markdown    *markdownRenderer
}

// commentsLoadedMsg carries a task's comment bodies.
type commentsLoadedMsg struct {
	taskID     int64
	generation int
	comments   []domain.Comment
	err        error
}

// commentPostedMsg reports one posted comment.
type commentPostedMsg struct {
	taskID     int64
	generation int
	err        error
}

// newThreadView opens the thread for task while its comments load.
func newThreadView(task domain.Task) threadView {
	in := newModalInput("write a comment", "", 2000)
	_ = in.Focus()
	return threadView{
		open:        true,
		taskID:      task.ID,
		title:       task.Title,
		description: task.Description,
		loading:     task.Comments.Count() > 0,
		input:       in,
		markdown:    &markdownRenderer{},
	}
}

// loadThreadCmd reads comment bodies through the task's comment reference,
// which skips the read when the count is zero.
func (m Model) loadThreadCmd(task domain.Task) tea.Cmd {
	svc, gen, ref := m.svc, m.generation, task.Comments
	return func() tea.Msg {
		comments, err := ref.Load(context.Background(), svc)
		return commentsLoadedMsg{taskID: ref.TaskID(), generation: gen, comments: comments, err: err}
	}
}

// reloadThreadCmd re-reads comment bodies after a post.
func (m Model) reloadThreadCmd(taskID int64) tea.Cmd {
	svc, gen := m.svc, m.generation
	return func() tea.Msg {
		comments, err := svc.ListComments(context.Background(), taskID)
		return commentsLoadedMsg{taskID: taskID, generation: gen, comments: comments, err: err}
	}
}

// postCommentCmd adds one comment to taskID.
func (m Model) postCommentCmd(taskID int64, text string) tea.Cmd {
	svc, gen := m.svc, m.generation
	return func() tea.Msg {
		_, err := svc.AddComment(context.Background(), taskID, "", text)
		return commentPostedMsg{taskID: taskID, generation: gen, err: err}
	}
}

// applyComments stores loaded comments when the thread is still showing
// the same task.
func (m Model) applyComments(msg commentsLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.generation != m.generation || !m.thread.open || m.thread.taskID != msg.taskID {
		return m, nil
	}
	m.thread.loading = false
	if msg.err != nil {
		m.logger.Warn("list comments failed", "task_id", msg.taskID, "err", msg.err)
		m.thread.err = "could not load comments"
		return m, nil
	}
	m.thread.err = ""
	m.thread.comments = msg.comments
	return m, nil
}

// handleThreadKey drives the thread overlay.
func (m Model) handleThreadKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.cancel):
		m.thread = threadView{}
		return m, nil
	case key.Matches(msg, m.keys.drop):
		text := strings.TrimSpace(m.thread.input.Value())
		if text == "" {
			return m, nil
		}
		m.thread.input.SetValue("")
		return m, m.postCommentCmd(m.thread.taskID, text)
	}
	switch msg.String() {
	case "pgup":
		m.thread.scroll = max(0, m.thread.scroll-m.threadViewportStep())
		return m, nil
	case "pgdown":
		m.thread.scroll += m.threadViewportStep()
		return m, nil
	}
	var cmd tea.Cmd
	m.thread.input, cmd = m.thread.input.Update(msg)
	return m, cmd
}

// threadViewportStep returns one paging increment for thread scroll.
func (m Model) threadViewportStep() int {
	if m.height <= 0 {
		return 6
	}
	return max(3, m.height/3)
}

// view renders the thread inside a modal box.
func (t threadView) view(width, height int, accent string) string {
	boxWidth := clamp(width, 40, 100)
	wrapWidth := boxWidth - 6
	hintStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(accent))
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))

	body := t.bodyLines(wrapWidth, sectionStyle, hintStyle)
	bodyHeight := 14
	if height > 0 {
		bodyHeight = max(6, height-12)
	}
	scrollTop := clamp(t.scroll, 0, max(0, len(body)-bodyHeight))
	visible := body[scrollTop:min(len(body), scrollTop+bodyHeight)]

	in := t.input
	in.SetWidth(max(10, wrapWidth-10))
	lines := []string{titleStyle.Render(truncate(t.title, wrapWidth)), ""}
	lines = append(lines, visible...)
	lines = append(lines, "", "comment: "+in.View())
	if t.err != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Render(t.err))
	}
	lines = append(lines, hintStyle.Render("enter post • pgup/pgdown scroll • esc close"))
	return modalBox(accent, boxWidth).Render(strings.Join(lines, "\n"))
}

// bodyLines renders the description followed by each comment.
func (t threadView) bodyLines(width int, sectionStyle, hintStyle lipgloss.Style) []string {
	lines := []string{sectionStyle.Render("Description")}
	if description := t.markdown.render(t.description, width); description == "" {
		lines = append(lines, hintStyle.Render("(no description)"))
	} else {
		lines = append(lines, splitRenderedLines(description)...)
	}

	lines = append(lines, "", sectionStyle.Render(fmt.Sprintf("Comments (%d)", len(t.comments))))
	switch {
	case t.loading:
		return append(lines, hintStyle.Render("loading comments..."))
	case len(t.comments) == 0:
		return append(lines, hintStyle.Render("(no comments yet)"))
	}
	for idx, comment := range t.comments {
		lines = append(lines, hintStyle.Render(fmt.Sprintf("%s • %s", comment.Author, formatCommentTimestamp(comment.CreatedAt))))
		for _, line := range splitRenderedLines(t.markdown.render(comment.Text, width)) {
			lines = append(lines, "  "+line)
		}
		if idx < len(t.comments)-1 {
			lines = append(lines, "")
		}
	}
	return lines
}

// splitRenderedLines splits rendered markdown while preserving empty rows.
func splitRenderedLines(rendered string) []string {
	if rendered == "" {
		return []string{""}
	}
	return strings.Split(strings.TrimRight(rendered, "\n"), "\n")
}

// formatCommentTimestamp formats comment timestamps for metadata rows.
func formatCommentTimestamp(at time.Time) string {
	if at.IsZero() {
		return "-"
	}
	return at.Local().Format("2006-01-02 15:04")
}
