package domain

import "strings"

// Status is one of the four fixed lane labels a task can hold.
type Status string

// StatusToDo and related constants are the only valid task statuses, in lane order.
const (
	StatusToDo           Status = "To Do"
	StatusWorkInProgress Status = "Work In Progress"
	StatusUnderReview    Status = "Under Review"
	StatusCompleted      Status = "Completed"
)

// Lane pairs a status label with its fixed display color.
type Lane struct {
	Status Status
	Color  string
}

// lanes is the static, ordered board layout.
var lanes = [...]Lane{
	{Status: StatusToDo, Color: "#2563EB"},
	{Status: StatusWorkInProgress, Color: "#059669"},
	{Status: StatusUnderReview, Color: "#D97706"},
	{Status: StatusCompleted, Color: "#000000"},
}

// Lanes returns the ordered lane configuration.
func Lanes() []Lane {
	out := make([]Lane, len(lanes))
	copy(out, lanes[:])
	return out
}

// Statuses returns the ordered status labels.
func Statuses() []Status {
	out := make([]Status, 0, len(lanes))
	for _, lane := range lanes {
		out = append(out, lane.Status)
	}
	return out
}

// LaneFor returns the lane configured for a status.
func LaneFor(status Status) (Lane, bool) {
	for _, lane := range lanes {
		if lane.Status == status {
			return lane, true
		}
	}
	return Lane{}, false
}

// Valid reports whether s is one of the four fixed labels.
func (s Status) Valid() bool {
	_, ok := LaneFor(s)
	return ok
}

// ParseStatus matches raw against the fixed labels exactly, after trimming
// surrounding whitespace.
func ParseStatus(raw string) (Status, error) {
	status := Status(strings.TrimSpace(raw))
	if !status.Valid() {
		return "", ErrInvalidStatus
	}
	return status, nil
}
