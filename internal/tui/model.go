package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/log"

	"github.com/evanschultz/lanes/internal/app"
	"github.com/evanschultz/lanes/internal/dnd"
	"github.com/evanschultz/lanes/internal/domain"
)

// Service is the data layer the board reads and mutates through.
type Service interface {
	ListProjects(context.Context) ([]domain.Project, error)
	ListProjectTeams(context.Context, int64) ([]domain.TeamMember, error)
	ListTasks(context.Context, int64, app.FetchOptions) ([]domain.Task, error)
	GetTaskDetail(context.Context, int64) (domain.Task, error)
	CreateTask(context.Context, app.CreateTaskInput) (domain.Task, error)
	UpdateTask(context.Context, int64, domain.TaskDetails) (domain.Task, error)
	UpdateTaskStatus(context.Context, int64, domain.Status) (domain.Task, error)
	DeleteTask(context.Context, int64) error
	ListComments(context.Context, int64) ([]domain.Comment, error)
	AddComment(context.Context, int64, string, string) (domain.Comment, error)
}

// boardState is the fetch state of the task list.
type boardState int

// boardLoading and related constants define the board fetch states.
const (
	boardLoading boardState = iota
	boardReady
	boardFailed
)

// Fixed board texts.
const (
	loadingText     = "loading..."
	fetchFailedText = "An error occurred while fetching tasks"
	noProjectsText  = "no projects yet; create one with `lanes project add NAME`"
)

// boardTop is the first screen row of the lanes.
const boardTop = 2

// Model is the board controller. It owns the task snapshot and renders one
// lane per fixed status.
type Model struct {
	svc        Service
	logger     *log.Logger
	opener     AttachmentOpener
	dateLayout string

	width  int
	height int
	help   help.Model
	keys   keyMap

	projects     []domain.Project
	projectID    int64
	generation   int
	projectsDone bool

	state        boardState
	tasks        []domain.Task
	cards        map[int64]cardState
	selectedLane int
	selectedCard int

	gestures  *dnd.Backend
	dragMoved bool

	sheetTaskID int64
	edit        editSurface
	composer    composer
	thread      threadView
	pickerOpen  bool
	pickerIndex int
	attachOpen  bool
	attachIndex int

	status string
}

// projectsLoadedMsg carries the project list.
type projectsLoadedMsg struct {
	projects []domain.Project
	err      error
}

// tasksLoadedMsg carries one task list fetch for a project generation.
type tasksLoadedMsg struct {
	projectID  int64
	generation int
	tasks      []domain.Task
	err        error
}

// detailLoadedMsg carries one card's detail fetch.
type detailLoadedMsg struct {
	taskID     int64
	generation int
	task       domain.Task
	err        error
}

// mutationDoneMsg reports a finished status, delete, create or update call.
type mutationDoneMsg struct {
	op         string
	taskID     int64
	generation int
	updated    *domain.Task
	err        error
}

// attachmentOpenedMsg reports one attachment open.
type attachmentOpenedMsg struct {
	url    string
	result OpenResult
	err    error
}

// NewModel constructs a board over svc.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	m := Model{
		svc:        svc,
		logger:     log.New(io.Discard),
		opener:     ClipboardOpener{},
		dateLayout: domain.DefaultDateLayout,
		help:       h,
		keys:       newKeyMap(),
		cards:      map[int64]cardState{},
		gestures:   dnd.NewBackend(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	if m.projectID > 0 {
		m.generation = 1
	}
	return m
}

// Init loads the project list and, when a project is already selected,
// force-fetches its tasks.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.loadProjectsCmd()}
	if m.projectID > 0 {
		cmds = append(cmds, m.fetchTasksCmd(true), m.diagnosticsCmd())
	}
	return tea.Batch(cmds...)
}

// Update handles one message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case projectsLoadedMsg:
		m.projectsDone = true
		if msg.err != nil {
			m.logger.Error("list projects failed", "err", msg.err)
			return m, nil
		}
		m.projects = msg.projects
		if m.projectID == 0 && len(m.projects) > 0 {
			return m, m.switchProject(m.projects[0].ID)
		}
		return m, nil

	case tasksLoadedMsg:
		if msg.generation != m.generation {
			m.logger.Debug("discard stale task list", "project_id", msg.projectID)
			return m, nil
		}
		if msg.err != nil {
			m.logger.Error("fetch tasks failed", "project_id", msg.projectID, "err", msg.err)
			m.state = boardFailed
			m.tasks = nil
			m.cards = map[int64]cardState{}
			m.gestures.End()
			m.closeOverlays()
			return m, nil
		}
		m.state = boardReady
		m.tasks = msg.tasks
		return m, m.mountCards()

	case detailLoadedMsg:
		card, mounted := m.cards[msg.taskID]
		if msg.generation != m.generation || !mounted {
			return m, nil
		}
		if msg.err != nil {
			m.logger.Warn("fetch task detail failed", "task_id", msg.taskID, "err", msg.err)
			card.detailErr = msg.err
			m.cards[msg.taskID] = card
			return m, nil
		}
		detail := msg.task
		card.detail = &detail
		card.detailErr = nil
		m.cards[msg.taskID] = card
		if m.edit.open && m.edit.taskID == msg.taskID && m.edit.detail == nil {
			m.edit.setDetail(detail)
		}
		return m, nil

	case mutationDoneMsg:
		if msg.err != nil {
			m.logger.Error("mutation failed", "op", msg.op, "task_id", msg.taskID, "err", msg.err)
		}
		if msg.generation != m.generation {
			return m, nil
		}
		if msg.err == nil && msg.updated != nil {
			if card, ok := m.cards[msg.taskID]; ok {
				updated := *msg.updated
				card.detail = &updated
				m.cards[msg.taskID] = card
			}
		}
		if m.state == boardFailed {
			m.logger.Debug("skip re-read while failed", "op", msg.op, "task_id", msg.taskID)
			return m, nil
		}
		return m, m.fetchTasksCmd(false)

	case commentsLoadedMsg:
		return m.applyComments(msg)

	case commentPostedMsg:
		if msg.err != nil {
			m.logger.Error("add comment failed", "task_id", msg.taskID, "err", msg.err)
		}
		if msg.generation != m.generation {
			return m, nil
		}
		var cmds []tea.Cmd
		if m.state != boardFailed {
			cmds = append(cmds, m.fetchTasksCmd(false))
		}
		if m.thread.open && m.thread.taskID == msg.taskID {
			cmds = append(cmds, m.reloadThreadCmd(msg.taskID))
		}
		return m, tea.Batch(cmds...)

	case attachmentOpenedMsg:
		if msg.result.ClipboardErr != nil {
			m.logger.Warn("copy attachment url failed", "url", msg.url, "err", msg.result.ClipboardErr)
		}
		switch {
		case msg.err != nil && msg.result.Copied:
			m.logger.Warn("open attachment failed", "url", msg.url, "err", msg.err)
			m.status = "copied " + msg.url + " (open command failed)"
		case msg.err != nil:
			m.logger.Warn("open attachment failed", "url", msg.url, "err", msg.err)
			m.status = "could not open attachment"
		case msg.result.Launched:
			m.status = "opened " + msg.url
		default:
			m.status = "copied " + msg.url
		}
		return m, nil

	case tea.KeyPressMsg:
		return m.handleKey(msg)

	case tea.MouseClickMsg:
		return m.handleMouseClick(msg)

	case tea.MouseMotionMsg:
		return m.handleMouseMotion(msg)

	case tea.MouseReleaseMsg:
		return m.handleMouseRelease(msg)

	default:
		return m, nil
	}
}

// View renders the board.
func (m Model) View() tea.View {
	v := tea.NewView(m.render())
	v.MouseMode = tea.MouseModeCellMotion
	v.AltScreen = true
	return v
}

// Move forwards a status change to the data layer. The snapshot is not
// touched; the board re-reads once the mutation resolves.
func (m Model) Move(taskID int64, status domain.Status) tea.Cmd {
	svc, gen := m.svc, m.generation
	return func() tea.Msg {
		_, err := svc.UpdateTaskStatus(context.Background(), taskID, status)
		return mutationDoneMsg{op: "update status", taskID: taskID, generation: gen, err: err}
	}
}

// loadProjectsCmd lists projects for the picker.
func (m Model) loadProjectsCmd() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		projects, err := svc.ListProjects(context.Background())
		return projectsLoadedMsg{projects: projects, err: err}
	}
}

// fetchTasksCmd reads the current project's tasks. force bypasses the cache.
func (m Model) fetchTasksCmd(force bool) tea.Cmd {
	svc, projectID, gen := m.svc, m.projectID, m.generation
	return func() tea.Msg {
		tasks, err := svc.ListTasks(context.Background(), projectID, app.FetchOptions{Force: force})
		return tasksLoadedMsg{projectID: projectID, generation: gen, tasks: tasks, err: err}
	}
}

// fetchDetailCmd reads one card's detail record.
func (m Model) fetchDetailCmd(taskID int64) tea.Cmd {
	svc, gen := m.svc, m.generation
	return func() tea.Msg {
		task, err := svc.GetTaskDetail(context.Background(), taskID)
		return detailLoadedMsg{taskID: taskID, generation: gen, task: task, err: err}
	}
}

// diagnosticsCmd logs project metadata and team membership. It never
// produces a message and has no effect on rendering.
func (m Model) diagnosticsCmd() tea.Cmd {
	svc, logger, projectID := m.svc, m.logger, m.projectID
	return func() tea.Msg {
		ctx := context.Background()
		if projects, err := svc.ListProjects(ctx); err != nil {
			logger.Warn("diagnostics: list projects failed", "err", err)
		} else {
			for _, p := range projects {
				if p.ID == projectID {
					logger.Debug("diagnostics: project", "project_id", p.ID, "name", p.Name)
				}
			}
		}
		team, err := svc.ListProjectTeams(ctx, projectID)
		if err != nil {
			logger.Warn("diagnostics: list project team failed", "project_id", projectID, "err", err)
			return nil
		}
		for _, member := range team {
			logger.Debug("diagnostics: team member", "project_id", projectID, "user_id", member.UserID, "username", member.Username, "role", member.Role)
		}
		return nil
	}
}

// deleteCmd deletes one task without waiting on the board.
func (m Model) deleteCmd(taskID int64) tea.Cmd {
	svc, gen := m.svc, m.generation
	return func() tea.Msg {
		err := svc.DeleteTask(context.Background(), taskID)
		return mutationDoneMsg{op: "delete task", taskID: taskID, generation: gen, err: err}
	}
}

// createCmd creates one task from the composer.
func (m Model) createCmd(in app.CreateTaskInput) tea.Cmd {
	svc, gen := m.svc, m.generation
	return func() tea.Msg {
		task, err := svc.CreateTask(context.Background(), in)
		return mutationDoneMsg{op: "create task", taskID: task.ID, generation: gen, err: err}
	}
}

// updateCmd saves one task from the edit surface.
func (m Model) updateCmd(taskID int64, details domain.TaskDetails) tea.Cmd {
	svc, gen := m.svc, m.generation
	return func() tea.Msg {
		task, err := svc.UpdateTask(context.Background(), taskID, details)
		if err != nil {
			return mutationDoneMsg{op: "update task", taskID: taskID, generation: gen, err: err}
		}
		return mutationDoneMsg{op: "update task", taskID: taskID, generation: gen, updated: &task}
	}
}

// openAttachmentCmd hands one URL to the opener.
func (m Model) openAttachmentCmd(url string) tea.Cmd {
	opener := m.opener
	return func() tea.Msg {
		res, err := opener.OpenAttachment(context.Background(), url)
		return attachmentOpenedMsg{url: url, result: res, err: err}
	}
}

// switchProject changes the project identifier. Every change bumps the
// generation, unmounts all cards and force-fetches the new project.
func (m *Model) switchProject(projectID int64) tea.Cmd {
	if projectID <= 0 || (projectID == m.projectID && m.generation > 0) {
		return nil
	}
	m.projectID = projectID
	m.generation++
	m.state = boardLoading
	m.tasks = nil
	m.cards = map[int64]cardState{}
	m.selectedLane = 0
	m.selectedCard = 0
	m.status = ""
	m.gestures.End()
	m.closeOverlays()
	return tea.Batch(m.fetchTasksCmd(true), m.diagnosticsCmd())
}

// stepProject selects the previous or next project, wrapping around.
func (m *Model) stepProject(delta int) tea.Cmd {
	if len(m.projects) < 2 {
		return nil
	}
	idx := 0
	for i, p := range m.projects {
		if p.ID == m.projectID {
			idx = i
			break
		}
	}
	return m.switchProject(m.projects[wrapIndex(idx+delta, len(m.projects))].ID)
}

// mountCards mounts cards that first appear in the snapshot, issuing one
// detail fetch each, and unmounts cards that left it.
func (m *Model) mountCards() tea.Cmd {
	present := make(map[int64]struct{}, len(m.tasks))
	var cmds []tea.Cmd
	for _, task := range m.tasks {
		present[task.ID] = struct{}{}
		if _, ok := m.cards[task.ID]; ok {
			continue
		}
		m.cards[task.ID] = cardState{}
		cmds = append(cmds, m.fetchDetailCmd(task.ID))
	}
	for id := range m.cards {
		if _, ok := present[id]; !ok {
			delete(m.cards, id)
		}
	}
	if _, ok := m.cards[m.sheetTaskID]; !ok {
		m.sheetTaskID = 0
	}
	m.clampSelection()
	return tea.Batch(cmds...)
}

// closeOverlays closes every modal.
func (m *Model) closeOverlays() {
	if card, ok := m.cards[m.sheetTaskID]; ok {
		card.sheetOpen = false
		m.cards[m.sheetTaskID] = card
	}
	m.sheetTaskID = 0
	m.edit = editSurface{}
	m.composer = composer{}
	m.thread = threadView{}
	m.pickerOpen = false
	m.attachOpen = false
}

// laneTasksAt returns the tasks of lane idx.
func (m Model) laneTasksAt(idx int) []domain.Task {
	lanes := domain.Lanes()
	if idx < 0 || idx >= len(lanes) {
		return nil
	}
	return laneTasks(m.tasks, lanes[idx].Status)
}

// selectedTask returns the highlighted card's task.
func (m Model) selectedTask() (domain.Task, bool) {
	tasks := m.laneTasksAt(m.selectedLane)
	if m.selectedCard < 0 || m.selectedCard >= len(tasks) {
		return domain.Task{}, false
	}
	return tasks[m.selectedCard], true
}

// taskByID finds a task in the snapshot.
func (m Model) taskByID(taskID int64) (domain.Task, bool) {
	for _, task := range m.tasks {
		if task.ID == taskID {
			return task, true
		}
	}
	return domain.Task{}, false
}

// clampSelection keeps the lane and card cursor in range.
func (m *Model) clampSelection() {
	m.selectedLane = clamp(m.selectedLane, 0, len(domain.Lanes())-1)
	m.selectedCard = clamp(m.selectedCard, 0, len(m.laneTasksAt(m.selectedLane))-1)
}

// beginDrag picks up a card and hovers the lane it sits in.
func (m *Model) beginDrag(task domain.Task) {
	m.gestures.Begin(cardSourceID(task.ID), dnd.Payload{Type: dnd.TypeTask, TaskID: task.ID})
	m.gestures.Hover(laneTargetID(task.Status))
	m.dragMoved = false
}

// hoverLane moves the drag hover to lane idx.
func (m *Model) hoverLane(idx int) {
	lanes := domain.Lanes()
	if idx < 0 || idx >= len(lanes) {
		if over := m.gestures.Over(); over != "" {
			m.gestures.Leave(over)
		}
		return
	}
	target := laneTargetID(lanes[idx].Status)
	if over := m.gestures.Over(); over != "" && over != target {
		m.gestures.Leave(over)
	}
	m.gestures.Hover(target)
	m.selectedLane = idx
}

// drop completes the drag over the hovered lane and moves the task there,
// also when it already sits in that lane.
func (m *Model) drop() tea.Cmd {
	payload, target, ok := m.gestures.Drop(laneAccepts)
	m.dragMoved = false
	if !ok {
		return nil
	}
	status, _ := laneStatusFromTarget(target)
	return m.Move(payload.TaskID, status)
}

// openSheet opens the action sheet of one card.
func (m *Model) openSheet(taskID int64) {
	if card, ok := m.cards[m.sheetTaskID]; ok && m.sheetTaskID != taskID {
		card.sheetOpen = false
		m.cards[m.sheetTaskID] = card
	}
	card, ok := m.cards[taskID]
	if !ok {
		return
	}
	card.sheetOpen = true
	card.sheetIndex = int(sheetEdit)
	m.cards[taskID] = card
	m.sheetTaskID = taskID
}

// chooseSheetAction applies one action sheet entry. The sheet closes before
// any side effect is issued.
func (m Model) chooseSheetAction(action sheetAction) (Model, tea.Cmd) {
	taskID := m.sheetTaskID
	card, ok := m.cards[taskID]
	if !ok {
		m.sheetTaskID = 0
		return m, nil
	}
	card.sheetOpen = false
	card.sheetIndex = 0
	m.cards[taskID] = card
	m.sheetTaskID = 0
	switch action {
	case sheetEdit:
		m.edit = newEditSurface(taskID, card.detail)
		return m, nil
	case sheetDelete:
		return m, m.deleteCmd(taskID)
	default:
		return m, nil
	}
}

// handleKey routes one key press to the open overlay or the board.
func (m Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	switch {
	case m.edit.open:
		return m.handleEditKey(msg)
	case m.composer.open:
		return m.handleComposerKey(msg)
	case m.thread.open:
		return m.handleThreadKey(msg)
	case m.pickerOpen:
		return m.handlePickerKey(msg)
	case m.attachOpen:
		return m.handleAttachmentKey(msg)
	case m.sheetTaskID != 0:
		return m.handleSheetKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.projects):
		m.pickerOpen = true
		m.pickerIndex = 0
		for i, p := range m.projects {
			if p.ID == m.projectID {
				m.pickerIndex = i
			}
		}
		return m, m.loadProjectsCmd()
	case key.Matches(msg, m.keys.prevProject):
		return m, m.stepProject(-1)
	case key.Matches(msg, m.keys.nextProject):
		return m, m.stepProject(1)
	}
	if m.state != boardReady {
		return m, nil
	}
	if m.gestures.Dragging() {
		return m.handleDragKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.laneLeft):
		m.selectedLane = max(0, m.selectedLane-1)
		m.clampSelection()
	case key.Matches(msg, m.keys.laneRight):
		m.selectedLane = min(len(domain.Lanes())-1, m.selectedLane+1)
		m.clampSelection()
	case key.Matches(msg, m.keys.cardUp):
		m.selectedCard = max(0, m.selectedCard-1)
	case key.Matches(msg, m.keys.cardDown):
		m.selectedCard = min(len(m.laneTasksAt(m.selectedLane))-1, m.selectedCard+1)
		m.clampSelection()
	case key.Matches(msg, m.keys.pickUp):
		if task, ok := m.selectedTask(); ok {
			m.beginDrag(task)
		}
	case key.Matches(msg, m.keys.actions):
		if task, ok := m.selectedTask(); ok {
			m.openSheet(task.ID)
		}
	case key.Matches(msg, m.keys.addTask):
		m.composer = newComposer(domain.Lanes()[m.selectedLane].Status)
	case key.Matches(msg, m.keys.comments):
		if task, ok := m.selectedTask(); ok {
			m.thread = newThreadView(task)
			return m, m.loadThreadCmd(task)
		}
	case key.Matches(msg, m.keys.attachments):
		if task, ok := m.selectedTask(); ok && len(task.FilesURL) > 0 {
			m.attachOpen = true
			m.attachIndex = 0
		}
	}
	return m, nil
}

// handleDragKey drives a keyboard drag: h/l hover lanes, enter drops, esc ends.
func (m Model) handleDragKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.laneLeft):
		m.hoverLane(max(0, m.selectedLane-1))
	case key.Matches(msg, m.keys.laneRight):
		m.hoverLane(min(len(domain.Lanes())-1, m.selectedLane+1))
	case key.Matches(msg, m.keys.drop):
		return m, m.drop()
	case key.Matches(msg, m.keys.cancel):
		m.gestures.End()
	}
	return m, nil
}

// handleSheetKey drives the open action sheet.
func (m Model) handleSheetKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	card := m.cards[m.sheetTaskID]
	switch {
	case key.Matches(msg, m.keys.cancel):
		return m.chooseSheetAction(sheetCancel)
	case key.Matches(msg, m.keys.cardUp):
		card.sheetIndex = wrapIndex(card.sheetIndex-1, len(sheetLabels))
	case key.Matches(msg, m.keys.cardDown):
		card.sheetIndex = wrapIndex(card.sheetIndex+1, len(sheetLabels))
	case key.Matches(msg, m.keys.drop):
		return m.chooseSheetAction(sheetAction(card.sheetIndex))
	default:
		return m, nil
	}
	m.cards[m.sheetTaskID] = card
	return m, nil
}

// handleEditKey drives the edit surface.
func (m Model) handleEditKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.cancel):
		m.edit = editSurface{}
		return m, nil
	case key.Matches(msg, m.keys.drop):
		if !m.edit.canSubmit() {
			return m, nil
		}
		details, err := m.edit.details()
		if err != nil {
			m.edit.err = err.Error()
			return m, nil
		}
		taskID := m.edit.taskID
		m.edit = editSurface{}
		return m, m.updateCmd(taskID, details)
	}
	if m.edit.detail == nil {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.nextField):
		m.edit.form.focusField(m.edit.form.focus + 1)
		return m, nil
	case key.Matches(msg, m.keys.prevField):
		m.edit.form.focusField(m.edit.form.focus - 1)
		return m, nil
	case key.Matches(msg, m.keys.togglePreview):
		m.edit.preview = !m.edit.preview
		return m, nil
	}
	m.edit.err = ""
	return m, m.edit.form.update(msg)
}

// handleComposerKey drives the new-task composer.
func (m Model) handleComposerKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.cancel):
		m.composer = composer{}
		return m, nil
	case key.Matches(msg, m.keys.drop):
		in, err := m.composer.input(m.projectID)
		if err != nil {
			m.composer.err = err.Error()
			return m, nil
		}
		m.composer = composer{}
		return m, m.createCmd(in)
	case key.Matches(msg, m.keys.nextField):
		m.composer.form.focusField(m.composer.form.focus + 1)
		return m, nil
	case key.Matches(msg, m.keys.prevField):
		m.composer.form.focusField(m.composer.form.focus - 1)
		return m, nil
	}
	m.composer.err = ""
	return m, m.composer.form.update(msg)
}

// handlePickerKey drives the project picker.
func (m Model) handlePickerKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.cancel):
		m.pickerOpen = false
	case key.Matches(msg, m.keys.cardUp):
		m.pickerIndex = max(0, m.pickerIndex-1)
	case key.Matches(msg, m.keys.cardDown):
		m.pickerIndex = min(len(m.projects)-1, m.pickerIndex+1)
	case key.Matches(msg, m.keys.drop):
		m.pickerOpen = false
		if m.pickerIndex >= 0 && m.pickerIndex < len(m.projects) {
			return m, m.switchProject(m.projects[m.pickerIndex].ID)
		}
	}
	return m, nil
}

// handleAttachmentKey drives the attachment list of the selected card.
func (m Model) handleAttachmentKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	task, ok := m.selectedTask()
	if !ok {
		m.attachOpen = false
		return m, nil
	}
	attachments := task.Attachments()
	switch {
	case key.Matches(msg, m.keys.cancel):
		m.attachOpen = false
	case key.Matches(msg, m.keys.cardUp):
		m.attachIndex = max(0, m.attachIndex-1)
	case key.Matches(msg, m.keys.cardDown):
		m.attachIndex = min(len(attachments)-1, m.attachIndex+1)
	case key.Matches(msg, m.keys.drop):
		if m.attachIndex >= 0 && m.attachIndex < len(attachments) {
			m.attachOpen = false
			return m, m.openAttachmentCmd(attachments[m.attachIndex].URL)
		}
	}
	return m, nil
}

// handleMouseClick selects, opens controls, or starts a drag.
func (m Model) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	if msg.Button != tea.MouseLeft || m.state != boardReady || m.overlayOpen() {
		return m, nil
	}
	hit := m.layout().hitTest(msg.X, msg.Y)
	if hit.lane < 0 {
		return m, nil
	}
	m.selectedLane = hit.lane
	if hit.add {
		m.composer = newComposer(domain.Lanes()[hit.lane].Status)
		return m, nil
	}
	if hit.card < 0 {
		m.clampSelection()
		return m, nil
	}
	m.selectedCard = hit.card
	task, ok := m.selectedTask()
	if !ok {
		return m, nil
	}
	switch {
	case hit.ellipsis:
		m.openSheet(task.ID)
	case hit.attachment >= 0:
		attachments := task.Attachments()
		if hit.attachment < len(attachments) {
			return m, m.openAttachmentCmd(attachments[hit.attachment].URL)
		}
	default:
		m.beginDrag(task)
	}
	return m, nil
}

// handleMouseMotion moves the drag hover to the lane under the pointer.
func (m Model) handleMouseMotion(msg tea.MouseMotionMsg) (tea.Model, tea.Cmd) {
	if !m.gestures.Dragging() {
		return m, nil
	}
	m.dragMoved = true
	m.hoverLane(m.layout().laneAt(msg.X))
	return m, nil
}

// handleMouseRelease drops over the hovered lane. A release without motion
// is a click and ends the gesture without a drop.
func (m Model) handleMouseRelease(_ tea.MouseReleaseMsg) (tea.Model, tea.Cmd) {
	if !m.gestures.Dragging() {
		return m, nil
	}
	if !m.dragMoved {
		m.gestures.End()
		return m, nil
	}
	return m, m.drop()
}

// overlayOpen reports whether any modal is on screen.
func (m Model) overlayOpen() bool {
	return m.edit.open || m.composer.open || m.thread.open || m.pickerOpen || m.attachOpen || m.sheetTaskID != 0 || m.help.ShowAll
}

// laneWidth returns the rendered width of one lane frame.
func (m Model) laneWidth() int {
	if m.width <= 0 {
		return 32
	}
	return clamp(m.width/len(domain.Lanes())-1, 24, 48)
}

// render builds the full screen content.
func (m Model) render() string {
	if m.projectID == 0 {
		if m.projectsDone && len(m.projects) == 0 {
			return noProjectsText
		}
		return loadingText
	}
	if m.state == boardLoading {
		return loadingText
	}

	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	statusStyle := lipgloss.NewStyle().Foreground(dim)

	header := titleStyle.Render("lanes") + "  " + m.projectName()
	if m.gestures.Dragging() {
		header += statusStyle.Render("  [dragging]")
	}
	sections := []string{header, ""}
	if m.state == boardFailed {
		sections = append(sections, fetchFailedText)
	} else {
		sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, m.layout().views...))
	}
	if strings.TrimSpace(m.status) != "" {
		sections = append(sections, statusStyle.Render(m.status))
	}
	content := strings.Join(sections, "\n")

	helpBubble := m.help
	helpBubble.ShowAll = false
	helpBubble.SetWidth(max(0, m.width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(muted).
		BorderTop(true).
		BorderForeground(dim).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(m.keys))
	if m.height > 0 {
		content = fitLines(content, max(0, m.height-lipgloss.Height(helpLine)))
	}
	full := content + "\n" + helpLine

	if overlay := m.renderOverlay(); overlay != "" {
		height := lipgloss.Height(full)
		if m.height > 0 {
			height = m.height
		}
		full = overlayOnContent(full, overlay, max(1, m.width), max(1, height))
	}
	return full
}

// projectName returns the selected project's name.
func (m Model) projectName() string {
	for _, p := range m.projects {
		if p.ID == m.projectID {
			return p.Name
		}
	}
	return fmt.Sprintf("project %d", m.projectID)
}

// renderOverlay renders the open modal, if any.
func (m Model) renderOverlay() string {
	accent := "62"
	if lane := domain.Lanes()[clamp(m.selectedLane, 0, len(domain.Lanes())-1)]; lane.Color != "#000000" {
		accent = lane.Color
	}
	width := m.width - 8
	switch {
	case m.edit.open:
		return m.edit.view(width, accent)
	case m.composer.open:
		return m.composer.view(width)
	case m.thread.open:
		return m.thread.view(width, m.height, accent)
	case m.pickerOpen:
		return m.renderPicker(accent)
	case m.attachOpen:
		return m.renderAttachments(accent)
	case m.sheetTaskID != 0:
		task, ok := m.taskByID(m.sheetTaskID)
		if !ok {
			return ""
		}
		return renderActionSheet(task, m.cards[m.sheetTaskID].sheetIndex, accent)
	case m.help.ShowAll:
		h := m.help
		h.SetWidth(max(20, width-4))
		return modalBox(accent, clamp(width, 40, 96)).Render(h.View(m.keys))
	}
	return ""
}

// renderPicker renders the project picker.
func (m Model) renderPicker(accent string) string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(accent))
	selectedStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	lines := []string{titleStyle.Render("Projects")}
	if len(m.projects) == 0 {
		lines = append(lines, "(no projects)")
	}
	for i, p := range m.projects {
		line := fmt.Sprintf("%d  %s", p.ID, truncate(p.Name, 40))
		if i == m.pickerIndex {
			lines = append(lines, selectedStyle.Render("› "+line))
			continue
		}
		lines = append(lines, "  "+line)
	}
	return modalBox(accent, 50).Render(strings.Join(lines, "\n"))
}

// renderAttachments renders the attachment list of the selected card.
func (m Model) renderAttachments(accent string) string {
	task, ok := m.selectedTask()
	if !ok {
		return ""
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(accent))
	selectedStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	lines := []string{titleStyle.Render("Attachments")}
	for i, a := range task.Attachments() {
		line := truncate(attachmentLine(a)+"  "+a.URL, 70)
		if i == m.attachIndex {
			lines = append(lines, selectedStyle.Render("› "+line))
			continue
		}
		lines = append(lines, "  "+line)
	}
	lines = append(lines, lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("enter open • esc close"))
	return modalBox(accent, 78).Render(strings.Join(lines, "\n"))
}

// clamp clamps v into [minV, maxV].
func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// fitLines pads or truncates content to exactly maxLines rows.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		lines = append(lines, make([]string, maxLines-len(lines))...)
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent centers overlay over base.
func overlayOnContent(base, overlay string, width, height int) string {
	if width <= 0 || height <= 0 {
		if strings.TrimSpace(overlay) == "" {
			return base
		}
		return overlay + "\n\n" + base
	}
	base = fitLines(base, height)
	canvas := lipgloss.NewCanvas(width, height)
	canvas.Compose(lipgloss.NewLayer(base).X(0).Y(0).Z(0))
	centered := lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, overlay)
	canvas.Compose(lipgloss.NewLayer(centered).X(0).Y(0).Z(10))
	return canvas.Render()
}

// truncate shortens s to max runes with a trailing ellipsis.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	if max <= 1 {
		return string(rs[:max])
	}
	return string(rs[:max-1]) + "…"
}
