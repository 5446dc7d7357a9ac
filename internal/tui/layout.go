package tui

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/evanschultz/lanes/internal/dnd"
	"github.com/evanschultz/lanes/internal/domain"
)

// laneFrame is the horizontal border plus padding of a lane on each side.
const laneFrame = 2

// cardBox is one card's screen rectangle. Rows are absolute.
type cardBox struct {
	taskID         int64
	top            int
	bottom         int
	ellipsisX      int
	attachmentRows []int
}

// laneBox is one lane's screen columns and the cards drawn in it.
type laneBox struct {
	status domain.Status
	left   int
	right  int
	addX   int
	cards  []cardBox
}

// boardLayout is the rendered lane row plus the geometry needed to map
// pointer positions back onto lanes and cards.
type boardLayout struct {
	headerRow int
	lanes     []laneBox
	views     []string
}

// boardHit is the result of one hit test. card and attachment are -1 when
// the point is outside any card or attachment row.
type boardHit struct {
	lane       int
	card       int
	add        bool
	ellipsis   bool
	attachment int
}

// layout renders every lane and records where each control landed.
func (m Model) layout() boardLayout {
	width := m.laneWidth()
	contentWidth := max(8, width-2*laneFrame)
	out := boardLayout{headerRow: boardTop + 1}
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	x := 0
	for idx, lane := range domain.Lanes() {
		tasks := laneTasks(m.tasks, lane.Status)
		target := laneTargetID(lane.Status)
		hovered := m.gestures.TargetMonitor(target, dnd.TypeTask).IsActive()

		header, plusOffset := laneHeader(lane, len(tasks), contentWidth)
		rows := []string{header, ""}
		box := laneBox{status: lane.Status, left: x, addX: x + laneFrame + plusOffset}
		contentLeft := x + laneFrame
		if len(tasks) == 0 {
			rows = append(rows, muted.Render("no tasks"))
		}
		for cardIdx, task := range tasks {
			if cardIdx > 0 {
				rows = append(rows, "")
			}
			rendered := renderCard(task, cardRenderOptions{
				width:      contentWidth,
				dateLayout: m.dateLayout,
				selected:   idx == m.selectedLane && cardIdx == m.selectedCard,
				dragging:   m.gestures.SourceMonitor(cardSourceID(task.ID)).IsActive(),
			})
			top := boardTop + 1 + len(rows)
			cb := cardBox{
				taskID:    task.ID,
				top:       top,
				bottom:    top + rendered.height,
				ellipsisX: contentLeft + contentWidth - 1,
			}
			for _, row := range rendered.attachmentRows {
				cb.attachmentRows = append(cb.attachmentRows, top+row)
			}
			box.cards = append(box.cards, cb)
			rows = append(rows, strings.Split(rendered.view, "\n")...)
		}
		view := laneStyle(lane, hovered, idx == m.selectedLane, width).Render(strings.Join(rows, "\n"))
		x += lipgloss.Width(view)
		box.right = x
		out.lanes = append(out.lanes, box)
		out.views = append(out.views, view)
	}
	return out
}

// laneAt returns the lane index under column x, or -1.
func (l boardLayout) laneAt(x int) int {
	for idx, lane := range l.lanes {
		if x >= lane.left && x < lane.right {
			return idx
		}
	}
	return -1
}

// hitTest maps a pointer position onto lanes and card controls.
func (l boardLayout) hitTest(x, y int) boardHit {
	hit := boardHit{lane: -1, card: -1, attachment: -1}
	if y < boardTop {
		return hit
	}
	hit.lane = l.laneAt(x)
	if hit.lane < 0 {
		return hit
	}
	lane := l.lanes[hit.lane]
	if y == l.headerRow {
		hit.add = x >= lane.addX-1 && x <= lane.addX+1
		return hit
	}
	for idx, card := range lane.cards {
		if y < card.top || y >= card.bottom {
			continue
		}
		hit.card = idx
		hit.ellipsis = y == card.top && x >= card.ellipsisX-1 && x <= card.ellipsisX+1
		for attachIdx, row := range card.attachmentRows {
			if row == y {
				hit.attachment = attachIdx
			}
		}
		return hit
	}
	return hit
}
