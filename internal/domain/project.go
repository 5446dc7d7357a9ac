package domain

import (
	"strings"
	"time"
)

// Project groups tasks on one board.
type Project struct {
	ID          int64
	Name        string
	Description string
	StartDate   *time.Time
	EndDate     *time.Time
	CreatedAt   time.Time
}

// NewProject validates name and builds an unsaved project.
func NewProject(name, description string, now time.Time) (Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Project{}, ErrInvalidName
	}
	return Project{
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatedAt:   now.UTC(),
	}, nil
}

// TeamMember is a user's membership in a project team.
type TeamMember struct {
	ProjectID int64
	UserID    int64
	Username  string
	Role      string
}
