package tui

import (
	"strings"

	"github.com/charmbracelet/log"
)

// Option configures a Model.
type Option func(*Model)

// WithLogger routes board diagnostics to logger. Nothing is logged from View.
func WithLogger(logger *log.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithProjectID selects the project the board opens on.
func WithProjectID(projectID int64) Option {
	return func(m *Model) {
		if projectID > 0 {
			m.projectID = projectID
		}
	}
}

// WithDateLayout sets the short date layout used for card date ranges.
func WithDateLayout(layout string) Option {
	return func(m *Model) {
		if strings.TrimSpace(layout) != "" {
			m.dateLayout = layout
		}
	}
}

// WithOpener sets how attachment URLs are opened.
func WithOpener(opener AttachmentOpener) Option {
	return func(m *Model) {
		if opener != nil {
			m.opener = opener
		}
	}
}
