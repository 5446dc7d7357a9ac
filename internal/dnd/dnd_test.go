package dnd

import "testing"

func TestBackendDropOverAcceptingTarget(t *testing.T) {
	b := NewBackend()
	src := b.SourceMonitor("card-7")
	lane := b.TargetMonitor("lane-Completed", TypeTask)

	b.Begin("card-7", Payload{Type: TypeTask, TaskID: 7})
	if !src.IsActive() {
		t.Fatal("expected source monitor to report dragging")
	}
	if lane.IsActive() {
		t.Fatal("expected lane to be inactive before hover")
	}
	b.Hover("lane-Completed")
	if !lane.IsActive() {
		t.Fatal("expected lane monitor to report hover")
	}

	payload, target, ok := b.Drop(func(string, string) bool { return true })
	if !ok || target != "lane-Completed" || payload.TaskID != 7 {
		t.Fatalf("unexpected drop result %#v %q %v", payload, target, ok)
	}
	if src.IsActive() || lane.IsActive() || b.Dragging() {
		t.Fatal("expected drop to clear all monitor state")
	}
}

func TestBackendLeaveClearsHover(t *testing.T) {
	b := NewBackend()
	lane := b.TargetMonitor("lane-a", TypeTask)
	b.Begin("card-1", Payload{Type: TypeTask, TaskID: 1})
	b.Hover("lane-a")
	b.Leave("lane-b")
	if !lane.IsActive() {
		t.Fatal("expected leaving another lane to keep hover")
	}
	b.Leave("lane-a")
	if lane.IsActive() {
		t.Fatal("expected leave to clear hover")
	}
	if _, _, ok := b.Drop(nil); ok {
		t.Fatal("expected drop without a hovered target to fail")
	}
}

func TestBackendEndClearsHover(t *testing.T) {
	b := NewBackend()
	lane := b.TargetMonitor("lane-a", TypeTask)
	b.Begin("card-1", Payload{Type: TypeTask, TaskID: 1})
	b.Hover("lane-a")
	b.End()
	if lane.IsActive() || b.Over() != "" {
		t.Fatal("expected end to clear hover")
	}
	b.Hover("lane-a")
	if lane.IsActive() {
		t.Fatal("expected hover without an active drag to be ignored")
	}
}

func TestTargetRejectsOtherTypes(t *testing.T) {
	b := NewBackend()
	lane := b.TargetMonitor("lane-a", TypeTask)
	b.Begin("file-1", Payload{Type: "file"})
	b.Hover("lane-a")
	if lane.IsActive() {
		t.Fatal("expected target to ignore unaccepted drag types")
	}
	accepts := func(_ string, dragType string) bool { return dragType == TypeTask }
	if _, _, ok := b.Drop(accepts); ok {
		t.Fatal("expected unaccepted drop to fail")
	}
}
