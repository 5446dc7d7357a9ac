package tui

import (
	"slices"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/exp/teatest/v2"

	"github.com/evanschultz/lanes/internal/domain"
)

// TestModelWithTeatest verifies the board renders lanes and cards in a real program loop.
func TestModelWithTeatest(t *testing.T) {
	svc := newFakeService(testProjects(), testTask(1, 1, "First task", domain.StatusToDo))
	tm := teatest.NewTestModel(t, NewModel(svc), teatest.WithInitialTermSize(120, 35))
	t.Cleanup(func() {
		_ = tm.Quit()
	})

	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		text := string(out)
		return strings.Contains(text, "To Do") &&
			strings.Contains(text, "Completed") &&
			strings.Contains(text, "First task")
	}, teatest.WithDuration(2*time.Second), teatest.WithCheckInterval(10*time.Millisecond))

	tm.Send(tea.KeyPressMsg{Code: 'q', Text: "q"})
	tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))
}

// TestModelWithTeatestKeyboardDrag verifies a pick-up, hover and drop moves a
// card to the next lane.
func TestModelWithTeatestKeyboardDrag(t *testing.T) {
	svc := newFakeService(testProjects(),
		testTask(7, 1, "Refactor", domain.StatusToDo),
		testTask(8, 1, "Build", domain.StatusWorkInProgress),
		testTask(9, 1, "Review", domain.StatusUnderReview),
		testTask(10, 1, "Ship", domain.StatusCompleted),
	)
	tm := teatest.NewTestModel(t, NewModel(svc, WithProjectID(1)), teatest.WithInitialTermSize(120, 35))
	t.Cleanup(func() {
		_ = tm.Quit()
	})

	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return strings.Contains(string(out), "Refactor") && strings.Contains(string(out), "Ship")
	}, teatest.WithDuration(2*time.Second), teatest.WithCheckInterval(10*time.Millisecond))

	tm.Send(tea.KeyPressMsg{Code: 'm', Text: "m"})
	tm.Send(tea.KeyPressMsg{Code: 'l', Text: "l"})
	tm.Send(tea.KeyPressMsg{Code: tea.KeyEnter})

	// Every lane starts with a card, so the placeholder only shows once To Do empties.
	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return strings.Contains(string(out), "no tasks")
	}, teatest.WithDuration(2*time.Second), teatest.WithCheckInterval(10*time.Millisecond))

	tm.Send(tea.KeyPressMsg{Code: 'q', Text: "q"})
	final, ok := tm.FinalModel(t, teatest.WithFinalTimeout(2*time.Second)).(Model)
	if !ok {
		t.Fatalf("expected final Model")
	}
	if got := laneIDs(final, 0); len(got) != 0 {
		t.Fatalf("expected To Do lane empty, got %v", got)
	}
	if got := laneIDs(final, 1); !slices.Contains(got, 7) {
		t.Fatalf("expected task 7 in Work In Progress, got %v", got)
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()
	want := []statusCall{{taskID: 7, status: domain.StatusWorkInProgress}}
	if !slices.Equal(svc.statusCalls, want) {
		t.Fatalf("expected one status change, got %v", svc.statusCalls)
	}
}
