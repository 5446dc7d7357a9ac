// Package dnd tracks a single drag gesture between sources and drop targets.
package dnd

import "slices"

// TypeTask is the drag type carried by task cards.
const TypeTask = "task"

// Payload is the value carried by an active drag.
type Payload struct {
	Type   string
	TaskID int64
}

// Monitor exposes whether a drag source or drop target is currently active.
type Monitor interface {
	IsActive() bool
}

// Backend holds at most one active drag gesture. It is not safe for
// concurrent use; callers drive it from a single update loop.
type Backend struct {
	active  bool
	source  string
	payload Payload
	over    string
}

// NewBackend constructs an idle backend.
func NewBackend() *Backend {
	return &Backend{}
}

// Begin starts a drag from sourceID, replacing any gesture in flight.
func (b *Backend) Begin(sourceID string, payload Payload) {
	b.active = true
	b.source = sourceID
	b.payload = payload
	b.over = ""
}

// Dragging reports whether a gesture is in progress.
func (b *Backend) Dragging() bool {
	return b.active
}

// Payload returns the active payload, if any.
func (b *Backend) Payload() (Payload, bool) {
	if !b.active {
		return Payload{}, false
	}
	return b.payload, true
}

// Hover marks targetID as the target under the pointer.
func (b *Backend) Hover(targetID string) {
	if !b.active {
		return
	}
	b.over = targetID
}

// Leave clears targetID when the pointer moves off it.
func (b *Backend) Leave(targetID string) {
	if b.over == targetID {
		b.over = ""
	}
}

// Over returns the hovered target id.
func (b *Backend) Over() string {
	if !b.active {
		return ""
	}
	return b.over
}

// Drop completes the gesture over the hovered target and clears all state.
// The drop only counts when accepts reports true for the payload type.
func (b *Backend) Drop(accepts func(targetID, dragType string) bool) (Payload, string, bool) {
	payload, target, active := b.payload, b.over, b.active
	b.End()
	if !active || target == "" {
		return Payload{}, "", false
	}
	if accepts != nil && !accepts(target, payload.Type) {
		return Payload{}, "", false
	}
	return payload, target, true
}

// End abandons the gesture without a drop.
func (b *Backend) End() {
	b.active = false
	b.source = ""
	b.payload = Payload{}
	b.over = ""
}

// SourceMonitor reports whether sourceID is being dragged.
func (b *Backend) SourceMonitor(sourceID string) Monitor {
	return sourceMonitor{backend: b, id: sourceID}
}

// TargetMonitor reports whether an accepted drag is over targetID.
func (b *Backend) TargetMonitor(targetID string, accepts ...string) Monitor {
	return targetMonitor{backend: b, id: targetID, accepts: accepts}
}

type sourceMonitor struct {
	backend *Backend
	id      string
}

// IsActive reports whether the source is the origin of the active drag.
func (m sourceMonitor) IsActive() bool {
	return m.backend.active && m.backend.source == m.id
}

type targetMonitor struct {
	backend *Backend
	id      string
	accepts []string
}

// IsActive reports whether an accepted payload is over the target.
func (m targetMonitor) IsActive() bool {
	b := m.backend
	if !b.active || b.over != m.id {
		return false
	}
	return slices.Contains(m.accepts, b.payload.Type)
}
